package heuristics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rawblock/tornado-tracer/pkg/models"
)

// Report Assembler
//
// Renders the session's analyzer outputs into a deterministic text summary.
// Pure aggregation: every figure comes from the analyzers above, and every
// section degrades to absence when its analyzer returned the empty sentinel.

const reportRule = "================================================================================"
const sectionRule = "--------------------------------------------------------------------------------"

// GenerateReport builds the human-readable analysis summary for a session.
func (s *Session) GenerateReport() string {
	var b strings.Builder

	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}
	section := func(title string) {
		line(sectionRule)
		line(title)
		line(sectionRule)
	}

	line(reportRule)
	line("TORNADO CASH TRANSACTION ANALYSIS REPORT")
	line(reportRule)
	line("")

	line("Total Deposits: %d", len(s.deposits))
	line("Total Withdrawals: %d", len(s.withdrawals))
	line("")

	if len(s.deposits) > 0 {
		section("DEPOSIT ANALYSIS")
		if ts := AnalyzeTimestamps(s.deposits); ts.MostActiveDay != nil {
			line("Most Active Day: %s (%d transactions)", ts.MostActiveDay.Bucket, ts.MostActiveDay.Count)
			line("Average Transactions per Day: %.2f", ts.AveragePerDay)
		}
		line("")
	}

	if len(s.withdrawals) > 0 {
		section("WITHDRAWAL ANALYSIS")
		if ts := AnalyzeTimestamps(s.withdrawals); ts.MostActiveDay != nil {
			line("Most Active Day: %s (%d transactions)", ts.MostActiveDay.Bucket, ts.MostActiveDay.Count)
			line("Average Transactions per Day: %.2f", ts.AveragePerDay)
		}
		line("")
	}

	if reused := FindAddressReuse(s.AllTransactions()); len(reused) > 0 {
		section("ADDRESS REUSE DETECTION")
		line("Found %d addresses with multiple transactions:", len(reused))
		for _, r := range topReused(reused, 10) {
			line("  %s: %d transactions", r.Address, r.Count)
		}
		line("")
	}

	if matches := s.Match(); len(matches) > 0 {
		section("MATCHED DEPOSIT-WITHDRAWAL PAIRS")
		line("Found %d potential matches:", len(matches))
		limit := len(matches)
		if limit > 10 {
			limit = 10
		}
		for i := 0; i < limit; i++ {
			m := matches[i]
			line("")
			line("Match %d:", i+1)
			line("  Deposit: %s", m.Deposit.TxHash)
			line("  Withdrawal: %s", m.Withdrawal.TxHash)
			line("  Time Difference: %.2f hours", m.TimeDiffHours)
		}
		line("")
	}

	if np := AnalyzeNetworkPatterns(s.AllTransactions()); np.TimeWindows != nil {
		section("NETWORK PATTERN ANALYSIS")
		line("Total Unique Addresses: %d", np.TotalUniqueAddresses)
		line("Common Addresses Across Windows: %d", len(np.CommonAddresses))
		line("")
	}

	if ra := AnalyzeRelayers(s.withdrawalEvents); ra.TotalWithRelayers > 0 {
		section("RELAYER ANALYSIS")
		line("Withdrawals with Relayers: %d", ra.TotalWithRelayers)
		line("Unique Relayers: %d", ra.UniqueRelayers)
		if len(ra.RelayerCounts) > 0 {
			line("")
			line("Top Relayers by Transaction Count:")
			for _, relayer := range topKeysByCount(ra.RelayerCounts, 5) {
				line("  %s: %d transactions, avg fee: %.6f ETH, %d unique recipients",
					relayer, ra.RelayerCounts[relayer], ra.RelayerAvgFees[relayer], ra.RelayerUniqueRecipients[relayer])
			}
		}
		line("")
	}

	if na := AnalyzeNullifiers(s.withdrawalEvents); na.TotalWithNullifiers > 0 {
		section("NULLIFIER ANALYSIS")
		line("Withdrawals with Nullifiers: %d", na.TotalWithNullifiers)
		line("Unique Nullifiers: %d", na.UniqueNullifiers)
		if len(na.PotentialDoubleSpends) > 0 {
			line("WARNING: Found %d potential double-spends!", len(na.PotentialDoubleSpends))
			for _, nullifier := range topKeysByCount(na.PotentialDoubleSpends, 5) {
				line("  Nullifier %s used %d times", nullifier, na.PotentialDoubleSpends[nullifier])
			}
		}
		line("")
	}

	line(reportRule)
	return b.String()
}

// topReused returns at most n entries from an already-ordered reuse list.
func topReused(reused []models.AddressReuse, n int) []models.AddressReuse {
	if len(reused) > n {
		return reused[:n]
	}
	return reused
}

// topKeysByCount returns up to n map keys ordered descending by count, with
// lexicographic order breaking ties so report output stays stable.
func topKeysByCount(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if counts[keys[a]] != counts[keys[b]] {
			return counts[keys[a]] > counts[keys[b]]
		}
		return keys[a] < keys[b]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
