package scoring

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func TestCalculateMatchScore(t *testing.T) {
	tests := []struct {
		name            string
		timeDiff        float64
		tolerance       float64
		depositValue    float64
		withdrawalValue float64
		sameContract    bool
		samePool        bool
		expected        float64
	}{
		{
			name:     "Perfect Match",
			timeDiff: 0, tolerance: 1209600,
			depositValue: 1.0, withdrawalValue: 1.0,
			sameContract: true, samePool: true,
			expected: 0.0,
		},
		{
			name:     "Half Window Elapsed",
			timeDiff: 604800, tolerance: 1209600,
			depositValue: 1.0, withdrawalValue: 1.0,
			sameContract: true, samePool: true,
			expected: 0.5,
		},
		{
			name:     "Fee Deducted Withdrawal",
			timeDiff: 0, tolerance: 1209600,
			depositValue: 100.0, withdrawalValue: 95.0,
			sameContract: true, samePool: true,
			expected: 0.05,
		},
		{
			name:     "Contract Mismatch Penalty",
			timeDiff: 0, tolerance: 1209600,
			depositValue: 1.0, withdrawalValue: 1.0,
			sameContract: false, samePool: true,
			expected: 0.3,
		},
		{
			name:     "Pool Mismatch Penalty",
			timeDiff: 0, tolerance: 1209600,
			depositValue: 1.0, withdrawalValue: 1.0,
			sameContract: true, samePool: false,
			expected: 0.5,
		},
		{
			name:     "Both Mismatch Penalties Stack",
			timeDiff: 0, tolerance: 1209600,
			depositValue: 1.0, withdrawalValue: 1.0,
			sameContract: false, samePool: false,
			expected: 0.8,
		},
		{
			name:     "Zero Tolerance Degenerate Time Score",
			timeDiff: 50000, tolerance: 0,
			depositValue: 1.0, withdrawalValue: 1.0,
			sameContract: true, samePool: true,
			expected: 1.0,
		},
		{
			name:     "Absent Deposit Value Max Amount Penalty",
			timeDiff: 0, tolerance: 1209600,
			depositValue: 0, withdrawalValue: 1.0,
			sameContract: true, samePool: true,
			expected: 1.0,
		},
		{
			name:     "Absent Withdrawal Value Max Amount Penalty",
			timeDiff: 0, tolerance: 1209600,
			depositValue: 1.0, withdrawalValue: 0,
			sameContract: true, samePool: true,
			expected: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateMatchScore(tt.timeDiff, tt.tolerance, tt.depositValue, tt.withdrawalValue, tt.sameContract, tt.samePool)
			if math.Abs(result-tt.expected) > epsilon {
				t.Errorf("CalculateMatchScore() = %v, want %v", result, tt.expected)
			}
		})
	}
}

// A shorter time gap must never score worse than a longer one when every
// other signal is held fixed.
func TestCalculateMatchScore_TimeMonotonic(t *testing.T) {
	const tolerance = 1209600.0
	prev := -1.0
	for _, diff := range []float64{0, 3600, 86400, 604800, 1209600} {
		score := CalculateMatchScore(diff, tolerance, 10, 9.5, true, true)
		if score < prev {
			t.Fatalf("score decreased as time gap grew: diff=%v score=%v prev=%v", diff, score, prev)
		}
		prev = score
	}
}

// Closer amounts must never score worse than more distant ones.
func TestCalculateMatchScore_AmountMonotonic(t *testing.T) {
	const tolerance = 1209600.0
	prev := -1.0
	for _, withdrawal := range []float64{100, 99, 95, 80, 50} {
		score := CalculateMatchScore(0, tolerance, 100, withdrawal, true, true)
		if score < prev {
			t.Fatalf("score decreased as amounts diverged: withdrawal=%v score=%v prev=%v", withdrawal, score, prev)
		}
		prev = score
	}
}

func TestCheckAmountMatch(t *testing.T) {
	tests := []struct {
		name            string
		depositValue    float64
		withdrawalValue float64
		tolerance       float64
		expected        bool
	}{
		{"Exact Match", 100, 100, 0.05, true},
		{"Fee Within Tolerance", 100, 95, 0.05, true},
		{"Fee Beyond Tolerance", 100, 94, 0.05, false},
		{"Withdrawal Slightly Above", 100, 104, 0.05, true},
		{"Withdrawal Above Upper Bound", 100, 106, 0.05, false},
		{"Absent Deposit", 0, 100, 0.05, false},
		{"Absent Withdrawal", 100, 0, 0.05, false},
		{"Both Absent", 0, 0, 0.05, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckAmountMatch(tt.depositValue, tt.withdrawalValue, tt.tolerance)
			if result != tt.expected {
				t.Errorf("CheckAmountMatch(%v, %v, %v) = %v, want %v",
					tt.depositValue, tt.withdrawalValue, tt.tolerance, result, tt.expected)
			}
		})
	}
}
