package heuristics

import (
	"sort"

	"github.com/rawblock/tornado-tracer/internal/scoring"
	"github.com/rawblock/tornado-tracer/pkg/models"
)

// Deposit-Withdrawal Matching Engine
//
// Generates the full deposit x withdrawal cross product, filters candidates
// by causality, time window, and amount consistency, scores the survivors,
// and greedily assigns best-first one-to-one pairs.
//
// The cross product is O(D*W). The surrounding system only ever supplies
// bounded, date-filtered batches (hundreds to low thousands of rows), so the
// quadratic scan is intentional; do not "optimize" it into an index that
// changes candidate ordering.

// DefaultToleranceSeconds is the matching time window: two weeks. Most mixer
// withdrawals happen within days of the funding deposit.
const DefaultToleranceSeconds = 1209600

// DefaultValueTolerancePercent is the relative amount tolerance covering
// relayer fees: 5%.
const DefaultValueTolerancePercent = 0.05

// looseAmountFactor is the secondary acceptance bound: a candidate whose
// withdrawal narrowly misses the strict tolerance still survives when it is
// within 110% of the deposit. This loosens acceptance only; scoring keeps
// the strict relative difference.
const looseAmountFactor = 1.1

// unknownPool is the resolver sentinel for unlabeled addresses. Two sides
// resolving to it are NOT treated as the same pool.
const unknownPool = "Unknown"

// PoolResolver maps a pool contract address to its denomination bucket for a
// network, or the "Unknown" sentinel when the address is not a labeled
// instance.
type PoolResolver interface {
	Denomination(address, network string) string
}

// candidate is one surviving (deposit, withdrawal) pairing prior to
// assignment. Indices identify the rows; the pair itself carries the derived
// signals the assignment step and callers need.
type candidate struct {
	depositIdx    int
	withdrawalIdx int
	pair          models.MatchedPair
}

// MatchDepositsWithdrawals re-links withdrawals to the deposits that likely
// funded them. Rows with missing or malformed timestamps or amounts are
// skipped silently; the result is empty (never an error) when no candidate
// survives. The returned pairs are one-to-one and ordered best-first.
func MatchDepositsWithdrawals(
	deposits, withdrawals []models.Transaction,
	toleranceSeconds int64,
	valueTolerancePercent float64,
	pools PoolResolver,
	network string,
) []models.MatchedPair {
	var candidates []candidate

	for i, deposit := range deposits {
		depositTime, ok := parseBlockTime(deposit.BlockTime)
		if !ok {
			continue
		}
		depositValue, ok := parseOptionalValue(deposit.Value)
		if !ok {
			continue
		}

		for j, withdrawal := range withdrawals {
			withdrawalTime, ok := parseBlockTime(withdrawal.BlockTime)
			if !ok {
				continue
			}
			withdrawalValue, ok := parseOptionalValue(withdrawal.Value)
			if !ok {
				continue
			}

			// Withdrawal must come strictly after the deposit.
			if !withdrawalTime.After(depositTime) {
				continue
			}

			timeDiff := withdrawalTime.Sub(depositTime).Seconds()
			if timeDiff > float64(toleranceSeconds) {
				continue
			}

			amountMatch := scoring.CheckAmountMatch(depositValue, withdrawalValue, valueTolerancePercent)

			// Withdrawals emit from the pool contract, so the withdrawal's
			// from_address is the pool side to compare against.
			sameContract := equalAddress(deposit.ToAddress, withdrawal.FromAddress)

			depositPool := pools.Denomination(deposit.ToAddress, network)
			withdrawalPool := pools.Denomination(withdrawal.FromAddress, network)
			samePool := depositPool == withdrawalPool && depositPool != unknownPool

			if !amountMatch && !(depositValue > 0 && withdrawalValue > 0 && withdrawalValue <= depositValue*looseAmountFactor) {
				continue
			}

			score := scoring.CalculateMatchScore(
				timeDiff,
				float64(toleranceSeconds),
				depositValue,
				withdrawalValue,
				sameContract,
				samePool,
			)

			candidates = append(candidates, candidate{
				depositIdx:    i,
				withdrawalIdx: j,
				pair: models.MatchedPair{
					Deposit:         deposit,
					Withdrawal:      withdrawal,
					TimeDiffSeconds: timeDiff,
					TimeDiffDays:    timeDiff / 86400,
					TimeDiffHours:   timeDiff / 3600,
					AmountMatch:     amountMatch,
					SameContract:    sameContract,
					SamePool:        samePool,
					DepositPool:     depositPool,
					WithdrawalPool:  withdrawalPool,
					Score:           score,
				},
			})
		}
	}

	// Stable sort keeps generation order (lower deposit index, then lower
	// withdrawal index) as the tie-break.
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].pair.Score < candidates[b].pair.Score
	})

	// Greedy one-to-one assignment: once a deposit or withdrawal is consumed
	// by a higher-ranked pair it never appears again, even if a later
	// candidate would suit the other side better.
	matchedDeposits := make(map[int]bool)
	matchedWithdrawals := make(map[int]bool)
	matches := make([]models.MatchedPair, 0, len(candidates))

	for _, c := range candidates {
		if matchedDeposits[c.depositIdx] || matchedWithdrawals[c.withdrawalIdx] {
			continue
		}
		matches = append(matches, c.pair)
		matchedDeposits[c.depositIdx] = true
		matchedWithdrawals[c.withdrawalIdx] = true
	}

	return matches
}
