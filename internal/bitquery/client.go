package bitquery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rawblock/tornado-tracer/internal/config"
	"github.com/rawblock/tornado-tracer/pkg/models"
)

// Bitquery GraphQL client.
//
// Supplies the two transaction streams the analysis core consumes. Two query
// paths exist because Bitquery exposes different data per entity:
//
//   - Transfers: captures value movement through the router, classified into
//     deposit/withdraw from transfer direction relative to the pool set.
//     No event arguments (commitments, nullifiers, relayers, fees).
//   - Events: Deposit/Withdrawal log decoding with full arguments, used by
//     the relayer and nullifier analyses.
//
// Partial or empty API results are normal; both paths return whatever rows
// decoded cleanly and skip the rest.

// DefaultAPIURL is the Bitquery streaming GraphQL endpoint.
const DefaultAPIURL = "https://streaming.bitquery.io/graphql"

const requestTimeout = 90 * time.Second

// defaultLookbackDays bounds the date range when the caller supplies none.
const defaultLookbackDays = 10

// Client issues authenticated GraphQL queries against Bitquery.
type Client struct {
	apiURL     string
	oauthToken string
	httpClient *http.Client
}

// NewClient builds a client for the given OAuth token. An empty apiURL
// selects the default endpoint.
func NewClient(oauthToken, apiURL string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		apiURL:     apiURL,
		oauthToken: oauthToken,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// dateRange fills since/till defaults: the trailing lookback window ending
// today.
func dateRange(startDate, endDate string) (string, string) {
	now := time.Now().UTC()
	since := startDate
	if since == "" {
		since = now.AddDate(0, 0, -defaultLookbackDays).Format("2006-01-02")
	}
	till := endDate
	if till == "" {
		till = now.Format("2006-01-02")
	}
	return since, till
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphQLResponse struct {
	Data   json.RawMessage   `json:"data"`
	Errors []json.RawMessage `json:"errors"`
}

// runQuery posts one GraphQL document and returns the raw data payload.
func (c *Client) runQuery(ctx context.Context, query string) (json.RawMessage, error) {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: map[string]interface{}{}})
	if err != nil {
		return nil, fmt.Errorf("bitquery: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("bitquery: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.oauthToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bitquery: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bitquery: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bitquery: status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("bitquery: unmarshal envelope: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return nil, fmt.Errorf("bitquery: graphql errors: %s", truncate(joinRaw(envelope.Errors), 300))
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("bitquery: empty data payload")
	}
	return envelope.Data, nil
}

// evmPayload tolerates both the object and single-element-array shapes the
// EVM dataset has been observed to return.
func evmPayload(data json.RawMessage) (json.RawMessage, error) {
	var asObject struct {
		EVM json.RawMessage `json:"EVM"`
	}
	if err := json.Unmarshal(data, &asObject); err != nil {
		return nil, fmt.Errorf("bitquery: decode EVM wrapper: %w", err)
	}
	if len(asObject.EVM) == 0 || string(asObject.EVM) == "null" {
		return nil, fmt.Errorf("bitquery: missing EVM payload")
	}
	if asObject.EVM[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal(asObject.EVM, &arr); err != nil || len(arr) == 0 {
			return nil, fmt.Errorf("bitquery: empty EVM array")
		}
		return arr[0], nil
	}
	return asObject.EVM, nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

func joinRaw(raws []json.RawMessage) string {
	parts := make([]string, len(raws))
	for i, r := range raws {
		parts[i] = string(r)
	}
	return strings.Join(parts, "; ")
}

// weiToNative converts a smallest-unit amount string to a native-unit
// decimal string, falling back to the "0" sentinel when nothing parses.
// The exponent shift is exact at any magnitude.
func weiToNative(amount string) string {
	if amount == "" {
		return "0"
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return "0"
	}
	return d.Shift(-18).String()
}

// lowerSet builds a lowercase membership set from an address list.
func lowerSet(addresses []string) map[string]bool {
	set := make(map[string]bool, len(addresses))
	for _, a := range addresses {
		set[strings.ToLower(a)] = true
	}
	return set
}

// FetchTransfers retrieves deposits and withdrawals via the Transfers query
// and classifies each row from its transfer direction relative to the pool
// set. Rows touching no known pool are dropped.
func (c *Client) FetchTransfers(ctx context.Context, contractAddresses []string, limit int, network, startDate, endDate string) ([]models.Transaction, error) {
	if len(contractAddresses) == 0 {
		contractAddresses = config.ContractAddresses(network)
	}
	addressesJSON, _ := json.Marshal(contractAddresses)
	since, till := dateRange(startDate, endDate)

	query := fmt.Sprintf(`
	query {
	  EVM(dataset: archive, network: %s) {
	    Transfers(
	      where: {
	        Transaction: {To: {in: %s}},
	        Block: {Date: {since: "%s", till: "%s"}}
	      }
	      orderBy: {descending: Block_Number}
	      limit: {count: %d}
	    ) {
	      Transaction { Hash From To Gas Value }
	      Transfer {
	        Amount
	        Sender
	        Receiver
	        Currency { Symbol Name }
	      }
	      Block { Time Number }
	      Log { Signature { Name } SmartContract }
	    }
	  }
	}`, network, addressesJSON, since, till, limit)

	data, err := c.runQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	payload, err := evmPayload(data)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Transfers []transferRow `json:"Transfers"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("bitquery: decode transfers: %w", err)
	}

	txs := classifyTransfers(decoded.Transfers, contractAddresses)
	log.Printf("[Bitquery] Transfers query returned %d rows, %d classified (%s %s..%s)",
		len(decoded.Transfers), len(txs), network, since, till)
	return txs, nil
}

type transferRow struct {
	Transaction struct {
		Hash  string      `json:"Hash"`
		From  string      `json:"From"`
		To    string      `json:"To"`
		Gas   json.Number `json:"Gas"`
		Value string      `json:"Value"`
	} `json:"Transaction"`
	Transfer struct {
		Amount   string `json:"Amount"`
		Sender   string `json:"Sender"`
		Receiver string `json:"Receiver"`
		Currency struct {
			Symbol string `json:"Symbol"`
			Name   string `json:"Name"`
		} `json:"Currency"`
	} `json:"Transfer"`
	Block struct {
		Time   string      `json:"Time"`
		Number json.Number `json:"Number"`
	} `json:"Block"`
	Log struct {
		Signature struct {
			Name string `json:"Name"`
		} `json:"Signature"`
		SmartContract string `json:"SmartContract"`
	} `json:"Log"`
}

// classifyTransfers turns raw transfer rows into classified Transaction
// records. Deposit: receiver is a pool (user or router sending in).
// Withdrawal: sender is a pool (pool paying out to user or router). Rows
// touching no known pool are skipped.
func classifyTransfers(rows []transferRow, contractAddresses []string) []models.Transaction {
	pools := lowerSet(contractAddresses)
	txs := make([]models.Transaction, 0, len(rows))

	for _, row := range rows {
		sender := strings.ToLower(row.Transfer.Sender)
		receiver := strings.ToLower(row.Transfer.Receiver)

		var (
			txType    models.TransactionType
			eventName string
			fromAddr  string
			toAddr    string
			recipient string
		)

		switch {
		case pools[receiver]:
			txType = models.TypeDeposit
			eventName = "Deposit"
			// The depositing user, or the outer tx sender when the inner
			// transfer originates from another pool contract (router hop).
			fromAddr = sender
			if pools[sender] {
				fromAddr = strings.ToLower(row.Transaction.From)
			}
			toAddr = receiver
		case pools[sender]:
			txType = models.TypeWithdraw
			eventName = "Withdrawal"
			fromAddr = sender
			toAddr = receiver
			// The final recipient, unless funds landed on the router or
			// another pool on their way out.
			if !pools[receiver] && receiver != config.RouterAddress {
				recipient = receiver
			}
		default:
			continue
		}

		value := row.Transfer.Amount
		symbol := row.Transfer.Currency.Symbol
		var valueStr string
		if value != "" {
			if symbol == "ETH" || symbol == "" {
				valueStr = weiToNative(value)
			} else {
				// Token amounts would need per-token decimals; keep as-is.
				valueStr = value
			}
		} else {
			valueStr = weiToNative(row.Transaction.Value)
		}

		gas, _ := row.Transaction.Gas.Int64()

		txs = append(txs, models.Transaction{
			TxHash:          row.Transaction.Hash,
			FromAddress:     fromAddr,
			ToAddress:       toAddr,
			Value:           valueStr,
			BlockTime:       row.Block.Time,
			Gas:             gas,
			CallSignature:   eventName,
			TransactionType: txType,
			Recipient:       recipient,
		})
	}
	return txs
}

// FetchEvents retrieves Deposit and Withdrawal events with decoded
// arguments. This is the only path that yields commitments, nullifiers,
// recipients, relayers, and fees.
func (c *Client) FetchEvents(ctx context.Context, contractAddresses []string, limit int, network, startDate, endDate string) ([]models.Transaction, error) {
	if len(contractAddresses) == 0 {
		contractAddresses = config.ContractAddresses(network)
	}
	addressesJSON, _ := json.Marshal(contractAddresses)
	since, till := dateRange(startDate, endDate)

	query := fmt.Sprintf(`
	query {
	  EVM(dataset: archive, network: %s) {
	    Events(
	      where: {
	        Log: {
	          SmartContract: {in: %s},
	          Signature: {Name: {in: ["Deposit", "Withdrawal"]}}
	        },
	        Block: {Date: {since: "%s", till: "%s"}}
	      }
	      orderBy: {descending: Block_Number}
	      limit: {count: %d}
	    ) {
	      Log { SmartContract Signature { Name } }
	      Transaction { From To Hash Value Gas }
	      Block { Time Date }
	      Arguments {
	        Name
	        Value {
	          ... on EVM_ABI_Bytes_Value_Arg { hex }
	          ... on EVM_ABI_Integer_Value_Arg { integer }
	          ... on EVM_ABI_Address_Value_Arg { address }
	          ... on EVM_ABI_BigInt_Value_Arg { bigInteger }
	          ... on EVM_ABI_String_Value_Arg { string }
	          ... on EVM_ABI_Boolean_Value_Arg { bool }
	        }
	      }
	    }
	  }
	}`, network, addressesJSON, since, till, limit)

	data, err := c.runQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	payload, err := evmPayload(data)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Events []eventRow `json:"Events"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("bitquery: decode events: %w", err)
	}

	txs := decodeEvents(decoded.Events)
	log.Printf("[Bitquery] Events query returned %d rows (%s %s..%s)", len(txs), network, since, till)
	return txs, nil
}

// FetchWithdrawalEvents retrieves only Withdrawal events: the rows carrying
// nullifier, recipient, relayer, and fee.
func (c *Client) FetchWithdrawalEvents(ctx context.Context, contractAddresses []string, limit int, network, startDate, endDate string) ([]models.Transaction, error) {
	all, err := c.FetchEvents(ctx, contractAddresses, limit, network, startDate, endDate)
	if err != nil {
		return nil, err
	}
	withdrawals := make([]models.Transaction, 0, len(all))
	for _, tx := range all {
		if tx.TransactionType == models.TypeWithdraw {
			withdrawals = append(withdrawals, tx)
		}
	}
	return withdrawals, nil
}

type eventRow struct {
	Log struct {
		SmartContract string `json:"SmartContract"`
		Signature     struct {
			Name string `json:"Name"`
		} `json:"Signature"`
	} `json:"Log"`
	Transaction struct {
		From  string      `json:"From"`
		To    string      `json:"To"`
		Hash  string      `json:"Hash"`
		Value string      `json:"Value"`
		Gas   json.Number `json:"Gas"`
	} `json:"Transaction"`
	Block struct {
		Time string `json:"Time"`
		Date string `json:"Date"`
	} `json:"Block"`
	Arguments []eventArgument `json:"Arguments"`
}

type eventArgument struct {
	Name  string `json:"Name"`
	Value struct {
		Hex        *string      `json:"hex"`
		Integer    *json.Number `json:"integer"`
		Address    *string      `json:"address"`
		BigInteger *json.Number `json:"bigInteger"`
		String     *string      `json:"string"`
		Bool       *bool        `json:"bool"`
	} `json:"Value"`
}

// decodeEvents maps decoded event rows into Transaction records. Argument
// names vary across pool versions (nullifierHash vs nullifier, to vs
// recipient); both aliases are honored.
func decodeEvents(rows []eventRow) []models.Transaction {
	txs := make([]models.Transaction, 0, len(rows))

	for _, row := range rows {
		eventName := row.Log.Signature.Name
		isDeposit := eventName == "Deposit"
		isWithdrawal := eventName == "Withdrawal"
		if !isDeposit && !isWithdrawal {
			continue
		}

		var commitment, nullifier, recipient, relayer, fee string
		for _, arg := range row.Arguments {
			name := strings.ToLower(arg.Name)
			switch {
			case isDeposit && name == "commitment":
				if arg.Value.Hex != nil {
					commitment = *arg.Value.Hex
				}
			case isWithdrawal && (name == "nullifierhash" || name == "nullifier"):
				if arg.Value.Hex != nil {
					nullifier = *arg.Value.Hex
				}
			case isWithdrawal && (name == "to" || name == "recipient"):
				if arg.Value.Address != nil {
					recipient = *arg.Value.Address
				}
			case isWithdrawal && name == "relayer":
				if arg.Value.Address != nil {
					relayer = *arg.Value.Address
				}
			case isWithdrawal && name == "fee":
				if arg.Value.BigInteger != nil {
					fee = arg.Value.BigInteger.String()
				} else if arg.Value.Integer != nil {
					fee = arg.Value.Integer.String()
				}
			}
		}

		txType := models.TypeWithdraw
		if isDeposit {
			txType = models.TypeDeposit
		}
		gas, _ := row.Transaction.Gas.Int64()

		txs = append(txs, models.Transaction{
			TxHash:          row.Transaction.Hash,
			FromAddress:     strings.ToLower(row.Transaction.From),
			ToAddress:       strings.ToLower(row.Transaction.To),
			Value:           weiToNative(row.Transaction.Value),
			BlockTime:       row.Block.Time,
			Gas:             gas,
			CallSignature:   eventName,
			TransactionType: txType,
			Commitment:      commitment,
			Nullifier:       nullifier,
			Recipient:       recipient,
			Relayer:         relayer,
			Fee:             fee,
		})
	}
	return txs
}
