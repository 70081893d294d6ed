// Package progress estimates one-rep maxes and compares consecutive top sets.
package progress

import "math"

// Rep range in which the Epley estimate is considered meaningful.
const (
	MinEstimateReps = 1
	MaxEstimateReps = 12
)

// EstimateOneRepMax returns round(weight * (1 + reps/30)). ok is false when
// reps fall outside 1..12 or the weight is not positive.
func EstimateOneRepMax(weight float64, reps int) (e1rm int, ok bool) {
	if reps < MinEstimateReps || reps > MaxEstimateReps || weight <= 0 {
		return 0, false
	}
	return int(math.Round(weight * (1 + float64(reps)/30))), true
}

// Trend classifies a signed delta.
type Trend string

const (
	TrendImprovement Trend = "improvement"
	TrendRegression  Trend = "regression"
	TrendUnchanged   Trend = "unchanged"
)

// Delta is the signed change between two values.
type Delta struct {
	Value float64 `json:"value"`
	Trend Trend   `json:"trend"`
}

// Compare returns latest - previous. Zero is unchanged.
func Compare(latest, previous float64) Delta {
	d := latest - previous
	switch {
	case d > 0:
		return Delta{Value: d, Trend: TrendImprovement}
	case d < 0:
		return Delta{Value: d, Trend: TrendRegression}
	default:
		return Delta{Value: 0, Trend: TrendUnchanged}
	}
}
