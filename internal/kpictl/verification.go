package kpictl

import (
	"fmt"
	"math"

	"github.com/okian/kpiboard/internal/domain/scoring"
	"github.com/okian/kpiboard/internal/domain/types"
)

const scoreTolerance = 1e-6

// Verify checks that a leaderboard is internally consistent: ranks run
// 1..n, scores never increase, and every score matches a local
// recomputation from the entry's own metrics.
func Verify(entries []types.Entry) error {
	for i, e := range entries {
		if e.Rank != i+1 {
			return fmt.Errorf("%w: entry %d (%s) has rank %d", ErrInconsistent, i, e.EmployeeID, e.Rank)
		}
		if i > 0 && e.Score > entries[i-1].Score {
			return fmt.Errorf("%w: %s (%.3f) outranks %s (%.3f)",
				ErrInconsistent, entries[i-1].EmployeeID, entries[i-1].Score, e.EmployeeID, e.Score)
		}
		want := scoring.Score(entryInput(e))
		if math.Abs(want-e.Score) > scoreTolerance {
			return fmt.Errorf("%w: %s scored %.6f, recomputed %.6f", ErrInconsistent, e.EmployeeID, e.Score, want)
		}
	}
	return nil
}

// Summary holds score statistics for a leaderboard.
type Summary struct {
	Count      int
	Average    float64
	Max        float64
	Min        float64
	Overridden int
}

// Summarize computes statistics over entries.
func Summarize(entries []types.Entry) Summary {
	s := Summary{Count: len(entries)}
	if len(entries) == 0 {
		return s
	}
	s.Max, s.Min = math.Inf(-1), math.Inf(1)
	sum := 0.0
	for _, e := range entries {
		sum += e.Score
		s.Max = math.Max(s.Max, e.Score)
		s.Min = math.Min(s.Min, e.Score)
		if e.SalesOverridden {
			s.Overridden++
		}
	}
	s.Average = sum / float64(len(entries))
	return s
}

func entryInput(e types.Entry) scoring.Input { //nolint:gocritic // hugeParam: mirrors FromScored
	return scoring.Input{
		SalesActual:      e.SalesActual,
		SalesTarget:      e.SalesTarget,
		CommissionActual: e.CommissionActual,
		CommissionTarget: e.CommissionTarget,
		AttendanceActual: e.AttendanceActual,
		AttendanceTarget: e.AttendanceTarget,
	}
}
