package heuristics

import (
	"sort"

	"github.com/rawblock/tornado-tracer/pkg/models"
)

// FindAddressReuse counts how often each address appears across both the
// from and to roles of a transaction stream and returns only addresses seen
// more than once, ordered descending by count. Address reuse is the classic
// self-deanonymization: an entity touching the pool from the same address
// repeatedly shrinks its own anonymity set.
func FindAddressReuse(transactions []models.Transaction) []models.AddressReuse {
	counts := make(map[string]int)
	var order []string

	record := func(addr string) {
		if counts[addr] == 0 {
			order = append(order, addr)
		}
		counts[addr]++
	}

	for _, tx := range transactions {
		record(tx.FromAddress)
		record(tx.ToAddress)
	}

	reused := make([]models.AddressReuse, 0)
	for _, addr := range order {
		if counts[addr] > 1 {
			reused = append(reused, models.AddressReuse{Address: addr, Count: counts[addr]})
		}
	}

	// Descending by count; first-encountered order breaks ties.
	sort.SliceStable(reused, func(a, b int) bool {
		return reused[a].Count > reused[b].Count
	})

	return reused
}
