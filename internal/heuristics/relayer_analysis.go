package heuristics

import "github.com/rawblock/tornado-tracer/pkg/models"

// Relayer Aggregation
//
// A relayer submits the withdrawal transaction on the user's behalf so the
// withdrawing key never pays gas from a linkable address. Relayer behavior
// still leaks: a relayer that always pays the same recipient is effectively
// a nametag, while one servicing many distinct recipients dilutes the
// signal. Fee levels separate commercial relayers from private ones.
//
// Relayer, recipient, and fee only exist on event-sourced withdrawal rows;
// transfer-sourced rows never carry them.

// AnalyzeRelayers aggregates withdrawal events by relayer: usage count, mean
// fee in native units, and distinct recipient count. Withdrawals without a
// relayer are ignored; the zero-address relayer counts toward the total but
// is excluded from per-relayer aggregates. Unparseable fees are skipped.
func AnalyzeRelayers(withdrawalEvents []models.Transaction) models.RelayerAnalysis {
	totalWithRelayers := 0
	counts := make(map[string]int)
	fees := make(map[string][]float64)
	recipients := make(map[string]map[string]bool)

	for _, w := range withdrawalEvents {
		if w.Relayer == "" {
			continue
		}
		totalWithRelayers++

		if equalAddress(w.Relayer, models.ZeroAddress) {
			continue
		}

		counts[w.Relayer]++
		if fee, ok := parseFeeNative(w.Fee); ok {
			fees[w.Relayer] = append(fees[w.Relayer], fee)
		}
		if w.Recipient != "" {
			set := recipients[w.Relayer]
			if set == nil {
				set = make(map[string]bool)
				recipients[w.Relayer] = set
			}
			set[w.Recipient] = true
		}
	}

	if totalWithRelayers == 0 {
		return models.RelayerAnalysis{}
	}

	avgFees := make(map[string]float64, len(fees))
	for relayer, samples := range fees {
		var sum float64
		for _, f := range samples {
			sum += f
		}
		if len(samples) > 0 {
			avgFees[relayer] = sum / float64(len(samples))
		}
	}

	uniqueRecipients := make(map[string]int, len(recipients))
	for relayer, set := range recipients {
		uniqueRecipients[relayer] = len(set)
	}

	return models.RelayerAnalysis{
		TotalWithRelayers:       totalWithRelayers,
		UniqueRelayers:          len(counts),
		RelayerCounts:           counts,
		RelayerAvgFees:          avgFees,
		RelayerUniqueRecipients: uniqueRecipients,
	}
}
