package heuristics

import (
	"strings"
	"testing"

	"github.com/rawblock/tornado-tracer/pkg/models"
)

func TestSession_AddFiltersByType(t *testing.T) {
	session := NewSession("eth", testPools)

	batch := []models.Transaction{
		deposit("d1", poolA, "0xalice", "1.0", "2023-01-01T00:00:00Z"),
		withdrawal("w1", poolA, "0xbob", "1.0", "2023-01-02T00:00:00Z"),
	}

	// The same mixed batch feeds both collections; each keeps its own type.
	session.AddDeposits(batch)
	session.AddWithdrawals(batch)

	if len(session.Deposits()) != 1 || session.Deposits()[0].TxHash != "d1" {
		t.Errorf("Deposits = %+v, want only d1", session.Deposits())
	}
	if len(session.Withdrawals()) != 1 || session.Withdrawals()[0].TxHash != "w1" {
		t.Errorf("Withdrawals = %+v, want only w1", session.Withdrawals())
	}
}

func TestSession_AppendsAccumulate(t *testing.T) {
	session := NewSession("eth", testPools)

	session.AddDeposits([]models.Transaction{deposit("d1", poolA, "0xa", "1.0", "2023-01-01T00:00:00Z")})
	session.AddDeposits([]models.Transaction{deposit("d2", poolA, "0xb", "1.0", "2023-01-02T00:00:00Z")})

	if len(session.Deposits()) != 2 {
		t.Errorf("Expected 2 accumulated deposits, got %d", len(session.Deposits()))
	}
}

func TestSession_AllTransactionsOrder(t *testing.T) {
	session := NewSession("eth", testPools)
	session.AddDeposits([]models.Transaction{deposit("d1", poolA, "0xa", "1.0", "2023-01-01T00:00:00Z")})
	session.AddWithdrawals([]models.Transaction{withdrawal("w1", poolA, "0xb", "1.0", "2023-01-02T00:00:00Z")})

	all := session.AllTransactions()
	if len(all) != 2 || all[0].TxHash != "d1" || all[1].TxHash != "w1" {
		t.Errorf("AllTransactions = %+v, want deposits before withdrawals", all)
	}
}

func TestSession_Bundle(t *testing.T) {
	session := NewSession("eth", testPools)
	session.AddDeposits([]models.Transaction{deposit("d1", poolA, "0xalice", "1.0", "2023-01-01T00:00:00Z")})
	session.AddWithdrawals([]models.Transaction{withdrawal("w1", poolA, "0xbob", "0.97", "2023-01-02T00:00:00Z")})
	session.AddWithdrawalEvents([]models.Transaction{
		{TransactionType: models.TypeWithdraw, Relayer: "0xrelay", Recipient: "0xbob", Fee: "100000000000000000", Nullifier: "n1"},
	})

	bundle := session.Bundle()

	if bundle.DepositTimestamps.TotalTransactions != 1 {
		t.Errorf("DepositTimestamps.TotalTransactions = %d, want 1", bundle.DepositTimestamps.TotalTransactions)
	}
	if len(bundle.MatchedPairs) != 1 {
		t.Fatalf("Expected 1 matched pair in bundle, got %d", len(bundle.MatchedPairs))
	}
	pair := bundle.MatchedPairs[0]
	if pair.DepositHash != "d1" || pair.WithdrawalHash != "w1" {
		t.Errorf("Wrong pair in bundle: %+v", pair)
	}
	if bundle.RelayerAnalysis.TotalWithRelayers != 1 {
		t.Errorf("RelayerAnalysis.TotalWithRelayers = %d, want 1", bundle.RelayerAnalysis.TotalWithRelayers)
	}
	if bundle.NullifierAnalysis.UniqueNullifiers != 1 {
		t.Errorf("NullifierAnalysis.UniqueNullifiers = %d, want 1", bundle.NullifierAnalysis.UniqueNullifiers)
	}
}

func TestSession_ExportNeverNilSlices(t *testing.T) {
	export := NewSession("eth", testPools).Export()

	if export.Deposits == nil || export.Withdrawals == nil {
		t.Errorf("Export must serialize empty collections as [] not null")
	}
	if len(export.Analysis.MatchedPairs) != 0 {
		t.Errorf("Expected no matched pairs, got %d", len(export.Analysis.MatchedPairs))
	}
}

func TestSummarizePairs_RecipientFallback(t *testing.T) {
	pairs := []models.MatchedPair{
		{
			Deposit:    models.Transaction{TxHash: "d1", FromAddress: "0xalice"},
			Withdrawal: models.Transaction{TxHash: "w1", ToAddress: "", Recipient: "0xfinal"},
		},
		{
			Deposit:    models.Transaction{TxHash: "d2", FromAddress: "0xcarol"},
			Withdrawal: models.Transaction{TxHash: "w2", ToAddress: "0xdirect", Recipient: "0xignored"},
		},
	}

	summaries := SummarizePairs(pairs)

	if summaries[0].WithdrawalTo != "0xfinal" {
		t.Errorf("Expected recipient fallback 0xfinal, got %s", summaries[0].WithdrawalTo)
	}
	if summaries[1].WithdrawalTo != "0xdirect" {
		t.Errorf("Expected to_address to win, got %s", summaries[1].WithdrawalTo)
	}
}

func TestGenerateReport_EmptySession(t *testing.T) {
	report := NewSession("eth", testPools).GenerateReport()

	if !strings.Contains(report, "TORNADO CASH TRANSACTION ANALYSIS REPORT") {
		t.Errorf("Report missing title")
	}
	if !strings.Contains(report, "Total Deposits: 0") || !strings.Contains(report, "Total Withdrawals: 0") {
		t.Errorf("Report missing zero totals:\n%s", report)
	}
	for _, absent := range []string{"DEPOSIT ANALYSIS", "MATCHED DEPOSIT-WITHDRAWAL PAIRS", "RELAYER ANALYSIS", "NULLIFIER ANALYSIS"} {
		if strings.Contains(report, absent) {
			t.Errorf("Empty session report must omit section %q", absent)
		}
	}
}

func TestGenerateReport_FullSession(t *testing.T) {
	session := NewSession("eth", testPools)
	session.AddDeposits([]models.Transaction{
		deposit("d1", poolA, "0xalice", "1.0", "2023-01-01T10:00:00Z"),
		deposit("d2", poolA, "0xalice", "1.0", "2023-01-01T11:00:00Z"),
	})
	session.AddWithdrawals([]models.Transaction{
		withdrawal("w1", poolA, "0xbob", "0.97", "2023-01-02T00:00:00Z"),
	})
	session.AddWithdrawalEvents([]models.Transaction{
		{TransactionType: models.TypeWithdraw, Relayer: "0xrelay", Recipient: "0xbob", Fee: "100000000000000000", Nullifier: "n1"},
		{TransactionType: models.TypeWithdraw, Relayer: "0xrelay", Recipient: "0xbob", Fee: "100000000000000000", Nullifier: "n1"},
	})

	report := session.GenerateReport()

	checks := []string{
		"Total Deposits: 2",
		"Total Withdrawals: 1",
		"DEPOSIT ANALYSIS",
		"Most Active Day: 2023-01-01 (2 transactions)",
		"ADDRESS REUSE DETECTION",
		"MATCHED DEPOSIT-WITHDRAWAL PAIRS",
		"Match 1:",
		"  Deposit: d2",
		"  Withdrawal: w1",
		"NETWORK PATTERN ANALYSIS",
		"RELAYER ANALYSIS",
		"Unique Relayers: 1",
		"NULLIFIER ANALYSIS",
		"WARNING: Found 1 potential double-spends!",
		"  Nullifier n1 used 2 times",
	}
	for _, want := range checks {
		if !strings.Contains(report, want) {
			t.Errorf("Report missing %q:\n%s", want, report)
		}
	}
}
