package heuristics

import "github.com/rawblock/tornado-tracer/pkg/models"

// AnalyzeNullifiers counts nullifier usage across withdrawal events and
// flags any nullifier spent more than once as a potential double-spend.
//
// On a correct pool implementation the nullifier is strictly single-use, so
// a repeat means either a data-fetch artifact (duplicate rows from
// overlapping queries) or an actual protocol violation. Either way it is
// surfaced distinctly from the normal counts rather than folded into them.
func AnalyzeNullifiers(withdrawalEvents []models.Transaction) models.NullifierAnalysis {
	counts := make(map[string]int)
	total := 0

	for _, w := range withdrawalEvents {
		if w.Nullifier == "" {
			continue
		}
		total++
		counts[w.Nullifier]++
	}

	if total == 0 {
		return models.NullifierAnalysis{}
	}

	doubleSpends := make(map[string]int)
	for nullifier, count := range counts {
		if count > 1 {
			doubleSpends[nullifier] = count
		}
	}

	return models.NullifierAnalysis{
		TotalWithNullifiers:   total,
		UniqueNullifiers:      len(counts),
		PotentialDoubleSpends: doubleSpends,
	}
}
