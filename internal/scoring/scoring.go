package scoring

import "math"

// Deposit-Withdrawal Pair Scoring
//
// A mixer breaks the on-chain link between a deposit and the withdrawal it
// funds, so re-linking is necessarily probabilistic. Each candidate pair is
// ranked by a composite score built from the only signals the ledger leaks:
//
//   - Time proximity: most users withdraw within days of depositing
//   - Amount similarity: withdrawals trail deposits by the relayer fee
//   - Contract identity: deposit pool == withdrawal pool contract
//   - Denomination identity: both sides in the same fixed-amount bucket
//
// Lower scores indicate better matches. Callers rely only on relative
// ordering; the total is intentionally unclamped.
//
// Absent values are passed as 0: an unparseable amount and a literal zero
// transfer are treated identically (maximum amount penalty, no match).

// Fixed penalty constants. A pool-denomination mismatch is a stronger
// disqualifying signal than a contract mismatch, hence the larger penalty.
const (
	contractMismatchPenalty = 0.3
	poolMismatchPenalty     = 0.5
)

// CalculateMatchScore computes the composite score for one candidate pair.
// Four independent sub-scores are summed:
//
//	time_score:   timeDiff / tolerance (1.0 when tolerance <= 0)
//	amount_score: |deposit - withdrawal| / deposit, 1.0 when either side
//	              is absent or the deposit is not positive
//	contract:     0.0 same contract, 0.3 otherwise
//	pool:         0.0 same denomination bucket, 0.5 otherwise
func CalculateMatchScore(timeDiffSeconds, toleranceSeconds, depositValue, withdrawalValue float64, sameContract, samePool bool) float64 {
	timeScore := 1.0
	if toleranceSeconds > 0 {
		timeScore = timeDiffSeconds / toleranceSeconds
	}

	amountScore := 1.0
	if depositValue > 0 {
		if withdrawalValue != 0 {
			amountScore = math.Abs(depositValue-withdrawalValue) / depositValue
		}
	}

	contractBonus := contractMismatchPenalty
	if sameContract {
		contractBonus = 0.0
	}

	poolBonus := poolMismatchPenalty
	if samePool {
		poolBonus = 0.0
	}

	return timeScore + amountScore + contractBonus + poolBonus
}

// CheckAmountMatch reports whether a withdrawal amount is consistent with a
// deposit amount within valueTolerancePercent (relative).
//
// Withdrawals are expected to be <= the deposit because the relayer fee is
// deducted; the upper bound deposit*(1+tolerance) covers float rounding.
// When that bound holds, the relative difference must also be within
// tolerance. Absent or zero values never match.
func CheckAmountMatch(depositValue, withdrawalValue, valueTolerancePercent float64) bool {
	if depositValue == 0 || withdrawalValue == 0 {
		return false
	}

	if withdrawalValue <= depositValue*(1+valueTolerancePercent) {
		// Guarded fallback: a zero deposit yields the 1.0 sentinel instead
		// of dividing by zero, which can never pass the tolerance check.
		amountDiffPercent := 1.0
		if depositValue > 0 {
			amountDiffPercent = math.Abs(depositValue-withdrawalValue) / depositValue
		}
		return amountDiffPercent <= valueTolerancePercent
	}

	return false
}
