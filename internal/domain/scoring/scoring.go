// Package scoring computes the composite KPI score of an employee from
// three actual/target metric pairs.
package scoring

import "math"

// Metric weights. These are business policy, not tunables.
const (
	SalesWeight      = 0.5
	CommissionWeight = 0.3
	AttendanceWeight = 0.2

	// MaxScore caps the weighted total. Individual percentages are not capped.
	MaxScore = 100

	percentScale = 100
)

// Input holds the six numbers a score is computed from.
type Input struct {
	SalesActual      float64
	SalesTarget      float64
	CommissionActual float64
	CommissionTarget float64
	AttendanceActual float64
	AttendanceTarget float64
}

// Result is the breakdown of a computed score.
type Result struct {
	SalesPct      float64
	CommissionPct float64
	AttendancePct float64
	// Weighted is the uncapped weighted sum.
	Weighted float64
	// Score is Weighted capped at MaxScore.
	Score float64
}

// Scorer computes a score from an input.
type Scorer interface {
	Compute(in Input) Result
}

// WeightedScorer implements Scorer with the fixed 50/30/20 weighting.
type WeightedScorer struct{}

// NewWeightedScorer returns the default scorer.
func NewWeightedScorer() *WeightedScorer {
	return &WeightedScorer{}
}

// Compute implements Scorer.
func (WeightedScorer) Compute(in Input) Result {
	return Compute(in)
}

// Score returns the capped composite score for in.
func Score(in Input) float64 {
	return Compute(in).Score
}

// Compute returns the per-metric percentages and the composite score.
func Compute(in Input) Result {
	r := Result{
		SalesPct:      Percent(in.SalesActual, in.SalesTarget),
		CommissionPct: Percent(in.CommissionActual, in.CommissionTarget),
		AttendancePct: Percent(in.AttendanceActual, in.AttendanceTarget),
	}
	r.Weighted = r.SalesPct*SalesWeight + r.CommissionPct*CommissionWeight + r.AttendancePct*AttendanceWeight
	r.Score = math.Min(r.Weighted, MaxScore)
	return r
}

// Percent returns actual as a percentage of target. A target that is not
// strictly positive means "no goal set" and yields 0.
func Percent(actual, target float64) float64 {
	actual, target = finite(actual), finite(target)
	if target <= 0 {
		return 0
	}
	return actual / target * percentScale
}

// finite coerces NaN and infinities to 0.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
