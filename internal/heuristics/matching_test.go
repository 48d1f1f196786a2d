package heuristics

import (
	"math"
	"testing"

	"github.com/rawblock/tornado-tracer/pkg/models"
)

// stubPools is a fixed address-to-denomination table for tests.
type stubPools map[string]string

func (p stubPools) Denomination(address, network string) string {
	if label, ok := p[address]; ok {
		return label
	}
	return "Unknown"
}

const (
	poolA = "0xpool_a"
	poolB = "0xpool_b"
)

var testPools = stubPools{
	poolA: "1 ETH",
	poolB: "10 ETH",
}

func deposit(hash, pool, from, value, blockTime string) models.Transaction {
	return models.Transaction{
		TxHash:          hash,
		FromAddress:     from,
		ToAddress:       pool,
		Value:           value,
		BlockTime:       blockTime,
		TransactionType: models.TypeDeposit,
	}
}

func withdrawal(hash, pool, to, value, blockTime string) models.Transaction {
	return models.Transaction{
		TxHash:          hash,
		FromAddress:     pool,
		ToAddress:       to,
		Value:           value,
		BlockTime:       blockTime,
		TransactionType: models.TypeWithdraw,
	}
}

func TestMatchDepositsWithdrawals_SinglePair(t *testing.T) {
	deposits := []models.Transaction{
		deposit("d1", poolA, "0xalice", "1.0", "2023-01-01T00:00:00Z"),
	}
	withdrawals := []models.Transaction{
		withdrawal("w1", poolA, "0xbob", "0.96", "2023-01-02T00:00:00Z"),
	}

	matches := MatchDepositsWithdrawals(deposits, withdrawals, DefaultToleranceSeconds, DefaultValueTolerancePercent, testPools, "eth")

	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	if m.Deposit.TxHash != "d1" || m.Withdrawal.TxHash != "w1" {
		t.Errorf("Wrong pair: %s -> %s", m.Deposit.TxHash, m.Withdrawal.TxHash)
	}
	if math.Abs(m.TimeDiffSeconds-86400) > 1e-9 {
		t.Errorf("TimeDiffSeconds = %v, want 86400", m.TimeDiffSeconds)
	}
	if math.Abs(m.TimeDiffHours-24) > 1e-9 {
		t.Errorf("TimeDiffHours = %v, want 24", m.TimeDiffHours)
	}
	if math.Abs(m.TimeDiffDays-1) > 1e-9 {
		t.Errorf("TimeDiffDays = %v, want 1", m.TimeDiffDays)
	}
	if !m.AmountMatch {
		t.Errorf("Expected amount match at 4%% fee within 5%% tolerance")
	}
	if !m.SameContract {
		t.Errorf("Expected same contract: deposit to and withdrawal from are both %s", poolA)
	}
	if !m.SamePool || m.DepositPool != "1 ETH" || m.WithdrawalPool != "1 ETH" {
		t.Errorf("Expected same 1 ETH pool, got %q vs %q", m.DepositPool, m.WithdrawalPool)
	}
}

func TestMatchDepositsWithdrawals_CausalityAndWindow(t *testing.T) {
	tests := []struct {
		name           string
		depositTime    string
		withdrawalTime string
		wantMatches    int
	}{
		{"Withdrawal After Deposit", "2023-01-01T00:00:00Z", "2023-01-02T00:00:00Z", 1},
		{"Withdrawal Before Deposit", "2023-01-02T00:00:00Z", "2023-01-01T00:00:00Z", 0},
		{"Simultaneous", "2023-01-01T00:00:00Z", "2023-01-01T00:00:00Z", 0},
		{"Exactly At Window Edge", "2023-01-01T00:00:00Z", "2023-01-15T00:00:00Z", 1},
		{"Beyond Window", "2023-01-01T00:00:00Z", "2023-01-16T00:00:00Z", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deposits := []models.Transaction{deposit("d1", poolA, "0xalice", "1.0", tt.depositTime)}
			withdrawals := []models.Transaction{withdrawal("w1", poolA, "0xbob", "1.0", tt.withdrawalTime)}

			matches := MatchDepositsWithdrawals(deposits, withdrawals, DefaultToleranceSeconds, DefaultValueTolerancePercent, testPools, "eth")
			if len(matches) != tt.wantMatches {
				t.Errorf("Got %d matches, want %d", len(matches), tt.wantMatches)
			}
		})
	}
}

// A withdrawal that misses the strict 5% tolerance but stays within 110% of
// the deposit still survives, flagged as a non-amount match.
func TestMatchDepositsWithdrawals_LooseAmountRule(t *testing.T) {
	deposits := []models.Transaction{deposit("d1", poolA, "0xalice", "1.0", "2023-01-01T00:00:00Z")}

	tests := []struct {
		name        string
		value       string
		wantMatches int
		amountMatch bool
	}{
		{"Within Strict Tolerance", "0.97", 1, true},
		{"Below Strict But Within Loose Bound", "0.80", 1, false},
		{"Above Loose Bound", "1.2", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withdrawals := []models.Transaction{withdrawal("w1", poolA, "0xbob", tt.value, "2023-01-02T00:00:00Z")}
			matches := MatchDepositsWithdrawals(deposits, withdrawals, DefaultToleranceSeconds, DefaultValueTolerancePercent, testPools, "eth")
			if len(matches) != tt.wantMatches {
				t.Fatalf("Got %d matches, want %d", len(matches), tt.wantMatches)
			}
			if tt.wantMatches == 1 && matches[0].AmountMatch != tt.amountMatch {
				t.Errorf("AmountMatch = %v, want %v", matches[0].AmountMatch, tt.amountMatch)
			}
		})
	}
}

// Once the best-scoring candidate consumes a withdrawal, no other deposit
// can claim it. The remaining deposit goes unmatched.
func TestMatchDepositsWithdrawals_GreedyOneToOne(t *testing.T) {
	deposits := []models.Transaction{
		deposit("d_far", poolA, "0xalice", "1.0", "2023-01-01T00:00:00Z"),
		deposit("d_near", poolA, "0xcarol", "1.0", "2023-01-05T00:00:00Z"),
		// Deposited after the withdrawal, so never a candidate.
		deposit("d_late", poolA, "0xeve", "1.0", "2023-01-07T00:00:00Z"),
	}
	withdrawals := []models.Transaction{
		withdrawal("w1", poolA, "0xbob", "1.0", "2023-01-06T00:00:00Z"),
	}

	matches := MatchDepositsWithdrawals(deposits, withdrawals, DefaultToleranceSeconds, DefaultValueTolerancePercent, testPools, "eth")

	if len(matches) != 1 {
		t.Fatalf("Expected exactly 1 match for a single withdrawal, got %d", len(matches))
	}
	if matches[0].Deposit.TxHash != "d_near" {
		t.Errorf("Expected the time-closest deposit d_near to win, got %s", matches[0].Deposit.TxHash)
	}
}

// Results come back ordered best score first.
func TestMatchDepositsWithdrawals_BestFirstOrdering(t *testing.T) {
	deposits := []models.Transaction{
		deposit("d1", poolA, "0xalice", "1.0", "2023-01-01T00:00:00Z"),
		deposit("d2", poolB, "0xcarol", "10.0", "2023-01-01T00:00:00Z"),
	}
	withdrawals := []models.Transaction{
		// d2's partner: 6 days out.
		withdrawal("w2", poolB, "0xdave", "10.0", "2023-01-07T00:00:00Z"),
		// d1's partner: 1 day out, better time score.
		withdrawal("w1", poolA, "0xbob", "1.0", "2023-01-02T00:00:00Z"),
	}

	matches := MatchDepositsWithdrawals(deposits, withdrawals, DefaultToleranceSeconds, DefaultValueTolerancePercent, testPools, "eth")

	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(matches))
	}
	if matches[0].Withdrawal.TxHash != "w1" || matches[1].Withdrawal.TxHash != "w2" {
		t.Errorf("Expected best-first order [w1 w2], got [%s %s]",
			matches[0].Withdrawal.TxHash, matches[1].Withdrawal.TxHash)
	}
	if matches[0].Score > matches[1].Score {
		t.Errorf("Scores out of order: %v then %v", matches[0].Score, matches[1].Score)
	}
}

func TestMatchDepositsWithdrawals_SkipsMalformedRows(t *testing.T) {
	deposits := []models.Transaction{
		deposit("d_bad_time", poolA, "0xalice", "1.0", "not-a-timestamp"),
		deposit("d_bad_value", poolA, "0xalice", "one-ether", "2023-01-01T00:00:00Z"),
		deposit("d_ok", poolA, "0xalice", "1.0", "2023-01-01T00:00:00Z"),
	}
	withdrawals := []models.Transaction{
		withdrawal("w_bad", poolA, "0xbob", "1.0", ""),
		withdrawal("w_ok", poolA, "0xbob", "1.0", "2023-01-02T00:00:00Z"),
	}

	matches := MatchDepositsWithdrawals(deposits, withdrawals, DefaultToleranceSeconds, DefaultValueTolerancePercent, testPools, "eth")

	if len(matches) != 1 {
		t.Fatalf("Expected 1 match from the clean rows, got %d", len(matches))
	}
	if matches[0].Deposit.TxHash != "d_ok" || matches[0].Withdrawal.TxHash != "w_ok" {
		t.Errorf("Matched malformed rows: %s -> %s", matches[0].Deposit.TxHash, matches[0].Withdrawal.TxHash)
	}
}

func TestMatchDepositsWithdrawals_EmptyInputs(t *testing.T) {
	if got := MatchDepositsWithdrawals(nil, nil, DefaultToleranceSeconds, DefaultValueTolerancePercent, testPools, "eth"); len(got) != 0 {
		t.Errorf("Expected no matches on empty input, got %d", len(got))
	}
}

// Two unlabeled addresses never count as the same pool, even though both
// resolve to the same sentinel.
func TestMatchDepositsWithdrawals_UnknownPoolsNeverSame(t *testing.T) {
	deposits := []models.Transaction{deposit("d1", "0xmystery1", "0xalice", "1.0", "2023-01-01T00:00:00Z")}
	withdrawals := []models.Transaction{withdrawal("w1", "0xmystery1", "0xbob", "1.0", "2023-01-02T00:00:00Z")}

	matches := MatchDepositsWithdrawals(deposits, withdrawals, DefaultToleranceSeconds, DefaultValueTolerancePercent, testPools, "eth")

	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(matches))
	}
	if matches[0].SamePool {
		t.Errorf("Unknown/Unknown must not count as same pool")
	}
	if !matches[0].SameContract {
		t.Errorf("Same literal address should still count as same contract")
	}
}
