package ranking

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/kpiboard/internal/domain/model"
)

// SumOverrides totals ledger amounts per employee for entries dated in
// [from, to). A zero from or to leaves that side of the range open.
// Amounts are summed as decimals and converted to float64 once per employee.
func SumOverrides(entries []model.LedgerEntry, from, to time.Time) map[string]float64 {
	sums := make(map[string]decimal.Decimal)
	for _, e := range entries {
		if e.EmployeeID == "" {
			continue
		}
		if !from.IsZero() && e.Date.Before(from) {
			continue
		}
		if !to.IsZero() && !e.Date.Before(to) {
			continue
		}
		sums[e.EmployeeID] = sums[e.EmployeeID].Add(e.Amount)
	}

	out := make(map[string]float64, len(sums))
	for id, d := range sums {
		out[id] = d.InexactFloat64()
	}
	return out
}
