package progress

import "testing"

// TestEstimateOneRepMax verifies the Epley estimate and its validity window.
func TestEstimateOneRepMax(t *testing.T) {
	tests := []struct {
		weight float64
		reps   int
		want   int
		ok     bool
	}{
		{100, 5, 117, true},
		{100, 1, 103, true},
		{100, 12, 140, true},
		{100, 13, 0, false},
		{100, 0, 0, false},
		{0, 5, 0, false},
		{-20, 5, 0, false},
		{62.5, 8, 79, true},
		{22.5, 10, 30, true},
	}
	for _, tt := range tests {
		got, ok := EstimateOneRepMax(tt.weight, tt.reps)
		if got != tt.want || ok != tt.ok {
			t.Errorf("EstimateOneRepMax(%v, %d) = %d, %v, want %d, %v", tt.weight, tt.reps, got, ok, tt.want, tt.ok)
		}
	}
}

// TestCompare verifies strict trend classification.
func TestCompare(t *testing.T) {
	tests := []struct {
		latest, prev float64
		want         Delta
	}{
		{105, 100, Delta{5, TrendImprovement}},
		{97.5, 100, Delta{-2.5, TrendRegression}},
		{100, 100, Delta{0, TrendUnchanged}},
	}
	for _, tt := range tests {
		if got := Compare(tt.latest, tt.prev); got != tt.want {
			t.Errorf("Compare(%v, %v) = %+v, want %+v", tt.latest, tt.prev, got, tt.want)
		}
	}
}
