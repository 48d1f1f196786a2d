package config

import "strings"

// Static Tornado Cash pool registry.
//
// The contract set is the OFAC SDN designation of August 8, 2022 plus the
// proxy router. Each pool instance is a fixed-denomination contract; knowing
// the denomination of both sides of a candidate pair is the strongest
// structural matching signal available, so the registry doubles as the
// denomination resolver consumed by the matching engine.

// UnknownPool is the sentinel returned for addresses outside the registry.
const UnknownPool = "Unknown"

// RouterAddress is the Tornado Cash proxy router on Ethereum mainnet.
// Transfers routed through it must not be mistaken for final recipients.
const RouterAddress = "0xd90e2f925da726b50c4ed8d0fb90ad053324f31b"

// ethPools maps lowercase mainnet pool addresses to denomination labels.
var ethPools = map[string]string{
	"0x12d66f87a04a9e220743712ce6d9bb1b5616b8fc": "0.1 ETH",
	"0x47ce0c6ed5b0ce3d3a51fdb1c52dc66a7c3c2936": "1 ETH",
	"0x910cbd523d972eb0a6f4cae4618ad62622b39dbf": "10 ETH",
	"0xa160cdab225685da1d56aa342ad8841c3b53f291": "100 ETH",
	"0xd4b88df4d29f5cedd6857912842cff3b20c8cfa3": "100 DAI",
	"0xfd8610d20aa15b7b2e3be39b396a1bc3516c7144": "1000 DAI",
	"0x07687e702b410fa43f4cb4af7fa097918ffd2730": "10000 DAI",
	"0x23773e65ed146a459791799d01336db287f25334": "100000 DAI",
	"0x22aaa7720ddd5388a3c0a3333430953c68f1849b": "5000 cDAI",
	"0x03893a7c7463ae47d46bc7f091665f1893656003": "50000 cDAI",
	"0x2717c5e28cf931547b621a5dddb772ab6a35b701": "500000 cDAI",
	"0xd21be7248e0197ee08e0c20d4a96debdac3d20af": "5000000 cDAI",
	"0xd96f2b1c14db8458374d9aca76e26c3d18364307": "100 USDC",
	"0x4736dcf1b7a3d580672cce6e7c65cd5cc9cfba9d": "1000 USDC",
	"0x169ad27a470d064dede56a2d3ff727986b15d52b": "100 USDT",
	"0x0836222f2b2b24a3f36f98668ed8f0b38d1a872f": "1000 USDT",
	"0xf67721a2d8f736e75a49fdd7fad2e31d8676542a": "10000 USDT",
	"0x9ad122c22b14202b4490edaf288fdb3c7cb3ff5e": "100000 USDT",
	"0x178169b423a011fff22b9e3f3abea13414ddd0f1": "0.1 WBTC",
	"0x610b717796ad172b316836ac95a2ffad065ceab4": "1 WBTC",
	"0xbb93e510bbcd0b7beb5a853875f9ec60275cf498": "10 WBTC",
}

// sanctionedContracts is the full designated set per network, including
// instances whose denomination bucket is not publicly labeled. These are the
// addresses the fetcher queries against.
var sanctionedContracts = map[string][]string{
	"eth": {
		"0x8589427373D6D84E98730D7795D8f6f8731FDA16",
		"0x722122dF12D4e14e13Ac3b6895a86e84145b6967",
		"0xDD4c48C0B24039969fC16D1cdF626eaB821d3384",
		"0xd90e2f925DA726b50C4Ed8D0Fb90Ad053324F31b",
		"0xd96f2B1c14Db8458374d9Aca76E26c3D18364307",
		"0x4736dCf1b7A3d580672CcE6E7c65cd5cc9cFBa9D",
		"0xD4B88Df4D29F5CedD6857912842cff3b20C8Cfa3",
		"0x910Cbd523D972eb0a6f4cAe4618aD62622b39DbF",
		"0xA160cdAB225685dA1d56aa342Ad8841c3b53f291",
		"0xFD8610d20aA15b7B2E3Be39B396a1bC3516c7144",
		"0xF60dD140cFf0706bAE9Cd734Ac3ae76AD9eBC32A",
		"0x22aaA7720ddd5388A3c0A3333430953C68f1849b",
		"0xBA214C1c1928a32Bffe790263E38B4Af9bFCD659",
		"0xb1C8094B234DcE6e03f10a5b673c1d8C69739A00",
		"0x527653eA119F3E6a1F5BD18fbF4714081D7B31ce",
		"0x58E8dCC13BE9780fC42E8723D8EaD4CF46943dF2",
		"0xD691F27f38B395864Ea86CfC7253969B409c362d",
		"0xaEaaC358560e11f52454D997AAFF2c5731B6f8a6",
		"0x1356c899D8C9467C7f71C195612F8A395aBf2f0a",
		"0xA60C772958a3eD56c1F15dD055bA37AC8e523a0D",
		"0x169AD27A470D064DEDE56a2D3ff727986b15D52B",
		"0x0836222F2B2B24A3F36f98668Ed8F0B38D1a872f",
		"0xF67721A2D8F736E75a49FdD7FAd2e31D8676542a",
		"0x9AD122c22B14202B4490eDAf288FDb3C7cb3ff5E",
		"0x905b63Fff465B9fFBF41DeA908CEb12478ec7601",
		"0x07687e702b410Fa43f4cB4Af7FA097918ffD2730",
		"0x94A1B5CdB22c43faab4AbEb5c74999895464Ddaf",
		"0xb541fc07bC7619fD4062A54d96268525cBC6FfEF",
		"0x12D66f87A04A9E220743712cE6d9bB1B5616B8Fc",
		"0x47CE0C6eD5B0Ce3d3A51fdb1C52DC66a7c3c2936",
		"0x23773E65ed146A459791799d01336DB287f25334",
		"0xD21be7248e0197Ee08E0c20D4a96DEBdaC3D20Af",
		"0x610B717796ad172B316836AC95a2ffad065CeaB4",
		"0x178169B423a011fff22B9e3F3abeA13414dDD0F1",
		"0xbB93e510BbCD0B7beb5A853875f9eC60275CF498",
		"0x2717c5e28cf931547B621a5dddb772Ab6A35B701",
		"0x03893a7c7463AE47D46bc7f091665f1893656003",
		"0xCa0840578f57fE71599D29375e16783424023357",
	},
}

// PoolRegistry resolves pool contract addresses to denomination labels.
type PoolRegistry struct{}

// NewPoolRegistry returns the static registry.
func NewPoolRegistry() *PoolRegistry {
	return &PoolRegistry{}
}

// Denomination returns the fixed-amount bucket label for a pool address, or
// UnknownPool. Lookups are case-insensitive; only eth mainnet instances carry
// public denomination labels.
func (r *PoolRegistry) Denomination(address, network string) string {
	if network != "eth" || address == "" {
		return UnknownPool
	}
	if label, ok := ethPools[strings.ToLower(address)]; ok {
		return label
	}
	return UnknownPool
}

// ContractAddresses returns the designated contract set for a network.
// Unknown networks yield an empty slice.
func ContractAddresses(network string) []string {
	addrs := sanctionedContracts[network]
	out := make([]string, len(addrs))
	copy(out, addrs)
	return out
}
