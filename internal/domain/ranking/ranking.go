// Package ranking turns per-period KPI target rows into an ordered list of
// scored employees.
package ranking

import (
	"sort"

	"github.com/okian/kpiboard/internal/domain/dedupe"
	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/internal/domain/scoring"
)

// Rank scores records and orders them by score, highest first.
//
// records must arrive newest period first; only the first record seen for an
// employee takes part and older periods are dropped. A positive override for
// an employee replaces that record's SalesActual before scoring, provided the
// record's period lies in the WithOverrideWindow range when one is set. Ties keep
// their input order unless WithTieBreakByEmployeeID is given.
func Rank(records []model.MetricRecord, overrides map[string]float64, opts ...Option) []model.ScoredRecord {
	cfg := options{scorer: scoring.NewWeightedScorer()}
	for _, opt := range opts {
		opt(&cfg)
	}

	seen := dedupe.NewKeySet(dedupe.WithCapacity(len(records)))
	out := make([]model.ScoredRecord, 0, len(records))
	for _, rec := range records {
		if seen.SeenAndRecord(rec.EmployeeID) {
			continue
		}
		var override float64
		if cfg.overrideApplies(rec.PeriodKey) {
			override = overrides[rec.EmployeeID]
		}
		out = append(out, score(cfg.scorer, rec, override))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if cfg.tieBreakByID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		return false
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Find returns the entry for employeeID from a ranked list.
func Find(ranked []model.ScoredRecord, employeeID string) (model.ScoredRecord, bool) {
	for _, r := range ranked {
		if r.EmployeeID == employeeID {
			return r, true
		}
	}
	return model.ScoredRecord{}, false
}

func score(s scoring.Scorer, rec model.MetricRecord, override float64) model.ScoredRecord {
	out := model.ScoredRecord{MetricRecord: rec}
	if override > 0 {
		out.SalesActual = override
		out.Overridden = true
	}
	res := s.Compute(scoring.Input{
		SalesActual:      out.SalesActual,
		SalesTarget:      out.SalesTarget,
		CommissionActual: out.CommissionActual,
		CommissionTarget: out.CommissionTarget,
		AttendanceActual: out.AttendanceActual,
		AttendanceTarget: out.AttendanceTarget,
	})
	out.Score = res.Score
	out.SalesPct = res.SalesPct
	out.CommissionPct = res.CommissionPct
	out.AttendancePct = res.AttendancePct
	return out
}
