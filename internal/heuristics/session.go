package heuristics

import "github.com/rawblock/tornado-tracer/pkg/models"

// Session is the explicitly owned accumulator for one analysis run. The
// orchestrating caller fetches batches from the transaction source and
// appends them here; repeated appends accumulate rather than replace. All
// analyses are recomputed from the owned collections on every call. Inputs
// are immutable for the session's lifetime, so there is nothing to cache or
// invalidate.
//
// A Session is not safe for concurrent mutation; one request handler owns
// one session.
type Session struct {
	network string
	pools   PoolResolver

	deposits         []models.Transaction
	withdrawals      []models.Transaction
	withdrawalEvents []models.Transaction
}

// NewSession creates an empty accumulator for the given network.
func NewSession(network string, pools PoolResolver) *Session {
	return &Session{network: network, pools: pools}
}

// Network returns the session's network identifier.
func (s *Session) Network() string { return s.network }

// AddDeposits appends a fetched batch, keeping only rows classified as
// deposits so the collection stays consistent with TransactionType.
func (s *Session) AddDeposits(batch []models.Transaction) {
	for _, tx := range batch {
		if tx.TransactionType == models.TypeDeposit {
			s.deposits = append(s.deposits, tx)
		}
	}
}

// AddWithdrawals appends a fetched batch, keeping only withdrawal rows.
func (s *Session) AddWithdrawals(batch []models.Transaction) {
	for _, tx := range batch {
		if tx.TransactionType == models.TypeWithdraw {
			s.withdrawals = append(s.withdrawals, tx)
		}
	}
}

// AddWithdrawalEvents appends event-sourced withdrawal rows, which carry the
// nullifier/relayer/recipient/fee fields the transfer path cannot supply.
// Event rows feed only the relayer and nullifier analyses; they are kept
// apart from the transfer-sourced withdrawals used for matching.
func (s *Session) AddWithdrawalEvents(batch []models.Transaction) {
	for _, tx := range batch {
		if tx.TransactionType == models.TypeWithdraw {
			s.withdrawalEvents = append(s.withdrawalEvents, tx)
		}
	}
}

// Deposits returns the accumulated deposit collection.
func (s *Session) Deposits() []models.Transaction { return s.deposits }

// Withdrawals returns the accumulated withdrawal collection.
func (s *Session) Withdrawals() []models.Transaction { return s.withdrawals }

// WithdrawalEvents returns the accumulated event-sourced withdrawals.
func (s *Session) WithdrawalEvents() []models.Transaction { return s.withdrawalEvents }

// Match runs the matching engine with the default two-week window and 5%
// amount tolerance.
func (s *Session) Match() []models.MatchedPair {
	return MatchDepositsWithdrawals(
		s.deposits, s.withdrawals,
		DefaultToleranceSeconds, DefaultValueTolerancePercent,
		s.pools, s.network,
	)
}

// AllTransactions returns deposits and withdrawals combined, deposits first,
// for analyses that operate over both streams.
func (s *Session) AllTransactions() []models.Transaction {
	all := make([]models.Transaction, 0, len(s.deposits)+len(s.withdrawals))
	all = append(all, s.deposits...)
	all = append(all, s.withdrawals...)
	return all
}

// PoolLabel resolves an address to its denomination bucket on the session's
// network.
func (s *Session) PoolLabel(address string) string {
	return s.pools.Denomination(address, s.network)
}

// Bundle runs every analyzer over the owned collections and assembles the
// combined result.
func (s *Session) Bundle() models.AnalysisBundle {
	return models.AnalysisBundle{
		DepositTimestamps:    AnalyzeTimestamps(s.deposits),
		WithdrawalTimestamps: AnalyzeTimestamps(s.withdrawals),
		ReusedAddresses:      FindAddressReuse(s.AllTransactions()),
		MatchedPairs:         SummarizePairs(s.Match()),
		NetworkPatterns:      AnalyzeNetworkPatterns(s.AllTransactions()),
		RelayerAnalysis:      AnalyzeRelayers(s.withdrawalEvents),
		NullifierAnalysis:    AnalyzeNullifiers(s.withdrawalEvents),
	}
}

// Export projects the session into the JSON envelope consumed by the export
// endpoint and file writer.
func (s *Session) Export() models.AnalysisExport {
	deposits := s.deposits
	if deposits == nil {
		deposits = []models.Transaction{}
	}
	withdrawals := s.withdrawals
	if withdrawals == nil {
		withdrawals = []models.Transaction{}
	}
	return models.AnalysisExport{
		Deposits:    deposits,
		Withdrawals: withdrawals,
		Analysis:    s.Bundle(),
	}
}

// SummarizePairs converts full match records into the compact projection
// used by the web payloads and JSON export. The withdrawal-side address
// prefers to_address and falls back to the event recipient when the transfer
// path routed through an intermediary.
func SummarizePairs(pairs []models.MatchedPair) []models.MatchedPairSummary {
	out := make([]models.MatchedPairSummary, 0, len(pairs))
	for _, p := range pairs {
		withdrawalTo := p.Withdrawal.ToAddress
		if withdrawalTo == "" {
			withdrawalTo = p.Withdrawal.Recipient
		}
		out = append(out, models.MatchedPairSummary{
			DepositHash:    p.Deposit.TxHash,
			WithdrawalHash: p.Withdrawal.TxHash,
			DepositFrom:    p.Deposit.FromAddress,
			WithdrawalTo:   withdrawalTo,
			TimeDiffDays:   p.TimeDiffDays,
			TimeDiffHours:  p.TimeDiffHours,
			AmountMatch:    p.AmountMatch,
			SameContract:   p.SameContract,
			SamePool:       p.SamePool,
			DepositPool:    p.DepositPool,
			WithdrawalPool: p.WithdrawalPool,
		})
	}
	return out
}
