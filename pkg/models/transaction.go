package models

// TransactionType partitions every record into exactly one side of the pool.
type TransactionType string

const (
	TypeDeposit  TransactionType = "deposit"
	TypeWithdraw TransactionType = "withdraw"
)

// ZeroAddress is the EVM null address. Withdrawals submitted without a
// relayer carry it in the relayer event argument.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// Transaction represents one mixer-related on-chain transaction. Records are
// created once at fetch time and never mutated; TransactionType is derived
// from transfer direction relative to the known pool set and is not
// recomputed downstream.
type Transaction struct {
	TxHash          string          `json:"tx_hash"`
	FromAddress     string          `json:"from_address"` // lowercase hex
	ToAddress       string          `json:"to_address"`   // lowercase hex
	Value           string          `json:"value"`        // native units, decimal string; "0" = unparseable fallback
	BlockTime       string          `json:"block_time"`   // ISO-8601 UTC; may be empty or malformed
	Gas             int64           `json:"gas"`
	CallSignature   string          `json:"call_signature"` // matched event name: "Deposit" or "Withdrawal"
	TransactionType TransactionType `json:"transaction_type"`

	// Event-only fields, populated only by the events query path.
	// Empty string means absent.
	Commitment string `json:"commitment,omitempty"` // bytes32 from Deposit event
	Nullifier  string `json:"nullifier,omitempty"`  // bytes32 from Withdrawal event
	Recipient  string `json:"recipient,omitempty"`  // final fund recipient, may differ from to_address
	Relayer    string `json:"relayer,omitempty"`    // third-party submitter of the withdrawal
	Fee        string `json:"fee,omitempty"`        // relayer fee, smallest-unit integer string
}

// MatchedPair links one withdrawal back to the deposit most likely to have
// funded it. Lower Score = stronger link. Pairs are one-to-one: a deposit or
// withdrawal consumed by one pair never appears in another.
type MatchedPair struct {
	Deposit         Transaction `json:"deposit"`
	Withdrawal      Transaction `json:"withdrawal"`
	TimeDiffSeconds float64     `json:"time_diff_seconds"`
	TimeDiffDays    float64     `json:"time_diff_days"`
	TimeDiffHours   float64     `json:"time_diff_hours"`
	AmountMatch     bool        `json:"amount_match"`
	SameContract    bool        `json:"same_contract"`
	SamePool        bool        `json:"same_pool"`
	DepositPool     string      `json:"deposit_pool"`
	WithdrawalPool  string      `json:"withdrawal_pool"`
	Score           float64     `json:"score"`
}

// BucketCount is one occurrence bucket in a timestamp histogram.
type BucketCount struct {
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

// TimestampAnalysis holds day/hour clustering over one transaction stream.
// The zero value means no parseable timestamps were available.
type TimestampAnalysis struct {
	TotalTransactions int            `json:"total_transactions"`
	DailyActivity     map[string]int `json:"daily_activity"`
	HourlyActivity    map[string]int `json:"hourly_activity"`
	MostActiveDay     *BucketCount   `json:"most_active_day"`
	MostActiveHour    *BucketCount   `json:"most_active_hour"`
	AveragePerDay     float64        `json:"average_per_day"`
}

// AddressReuse is one address seen in more than one transaction, in either
// the from or to role. Results are ordered descending by count.
type AddressReuse struct {
	Address string `json:"address"`
	Count   int    `json:"count"`
}

// NetworkPatternAnalysis buckets activity by calendar week and reports
// addresses persistently active across every week observed.
type NetworkPatternAnalysis struct {
	TimeWindows          map[string]int `json:"time_windows"` // week key -> tx count
	CommonAddresses      []string       `json:"common_addresses"`
	TotalUniqueAddresses int            `json:"total_unique_addresses"`
}

// RelayerAnalysis aggregates withdrawal events by relayer address.
type RelayerAnalysis struct {
	TotalWithRelayers       int                `json:"total_with_relayers"`
	UniqueRelayers          int                `json:"unique_relayers"`
	RelayerCounts           map[string]int     `json:"relayer_counts"`
	RelayerAvgFees          map[string]float64 `json:"relayer_avg_fees"`          // native units
	RelayerUniqueRecipients map[string]int     `json:"relayer_unique_recipients"` // many recipients = lower linkability
}

// NullifierAnalysis counts nullifier usage across withdrawal events. A
// nullifier seen more than once is a data-integrity anomaly: either a fetch
// artifact or a protocol violation, never normal pool operation.
type NullifierAnalysis struct {
	TotalWithNullifiers   int            `json:"total_with_nullifiers"`
	UniqueNullifiers      int            `json:"unique_nullifiers"`
	PotentialDoubleSpends map[string]int `json:"potential_double_spends"`
}

// MatchedPairSummary is the compact projection used in the JSON export and
// the web payloads (full Transaction rows are exported separately).
type MatchedPairSummary struct {
	DepositHash    string  `json:"deposit_hash"`
	WithdrawalHash string  `json:"withdrawal_hash"`
	DepositFrom    string  `json:"deposit_from"`
	WithdrawalTo   string  `json:"withdrawal_to"`
	TimeDiffDays   float64 `json:"time_diff_days"`
	TimeDiffHours  float64 `json:"time_diff_hours"`
	AmountMatch    bool    `json:"amount_match"`
	SameContract   bool    `json:"same_contract"`
	SamePool       bool    `json:"same_pool"`
	DepositPool    string  `json:"deposit_pool"`
	WithdrawalPool string  `json:"withdrawal_pool"`
}

// AnalysisBundle gathers every analyzer output for one session.
type AnalysisBundle struct {
	DepositTimestamps    TimestampAnalysis      `json:"deposit_timestamps"`
	WithdrawalTimestamps TimestampAnalysis      `json:"withdrawal_timestamps"`
	ReusedAddresses      []AddressReuse         `json:"reused_addresses"`
	MatchedPairs         []MatchedPairSummary   `json:"matched_pairs"`
	NetworkPatterns      NetworkPatternAnalysis `json:"network_patterns"`
	RelayerAnalysis      RelayerAnalysis        `json:"relayer_analysis"`
	NullifierAnalysis    NullifierAnalysis      `json:"nullifier_analysis"`
}

// AnalysisExport is the JSON export envelope.
type AnalysisExport struct {
	Deposits    []Transaction  `json:"deposits"`
	Withdrawals []Transaction  `json:"withdrawals"`
	Analysis    AnalysisBundle `json:"analysis"`
}
