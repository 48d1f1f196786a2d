package heuristics

import (
	"fmt"
	"sort"

	"github.com/rawblock/tornado-tracer/pkg/models"
)

// Time-Windowed Network Analysis
//
// Buckets all traffic (deposits and withdrawals combined) by calendar week
// and intersects the per-week active address sets. An address present in
// every observed week is persistently engaged with the pool, a much
// stronger linkability lead than a single appearance.
//
// The week-number key is a coarse approximation of a 14-day sliding window:
// activity on a week boundary lands in different buckets even when only
// hours apart. The approximation is part of the analysis contract; a true
// sliding window would change which addresses intersect.

// AnalyzeNetworkPatterns computes per-week activity counts, the address set
// common to every week, and the distinct address total. Fewer than two week
// buckets yields an empty common set.
func AnalyzeNetworkPatterns(transactions []models.Transaction) models.NetworkPatternAnalysis {
	if len(transactions) == 0 {
		return models.NetworkPatternAnalysis{}
	}

	windows := make(map[string]int)
	addressSets := make(map[string]map[string]bool)
	allAddresses := make(map[string]bool)

	for _, tx := range transactions {
		ts, ok := parseBlockTime(tx.BlockTime)
		if !ok {
			continue
		}
		year, week := ts.ISOWeek()
		key := fmt.Sprintf("%d-W%02d", year, week)

		windows[key]++
		set := addressSets[key]
		if set == nil {
			set = make(map[string]bool)
			addressSets[key] = set
		}
		set[tx.FromAddress] = true
		set[tx.ToAddress] = true
		allAddresses[tx.FromAddress] = true
		allAddresses[tx.ToAddress] = true
	}

	common := make([]string, 0)
	if len(addressSets) > 1 {
		var intersection map[string]bool
		for _, set := range addressSets {
			if intersection == nil {
				intersection = make(map[string]bool, len(set))
				for addr := range set {
					intersection[addr] = true
				}
				continue
			}
			for addr := range intersection {
				if !set[addr] {
					delete(intersection, addr)
				}
			}
		}
		for addr := range intersection {
			common = append(common, addr)
		}
		sort.Strings(common)
	}

	return models.NetworkPatternAnalysis{
		TimeWindows:          windows,
		CommonAddresses:      common,
		TotalUniqueAddresses: len(allAddresses),
	}
}
