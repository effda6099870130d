package ranking

import (
	"time"

	"github.com/okian/kpiboard/internal/domain/scoring"
)

type options struct {
	scorer       scoring.Scorer
	tieBreakByID bool
	windowFrom   time.Time
	windowTo     time.Time
}

// Option configures a Rank call.
type Option func(*options)

// WithTieBreakByEmployeeID orders equal scores by employee id ascending
// instead of keeping their input order.
func WithTieBreakByEmployeeID() Option {
	return func(o *options) {
		o.tieBreakByID = true
	}
}

// WithScorer replaces the default weighted scorer.
func WithScorer(s scoring.Scorer) Option {
	return func(o *options) {
		if s != nil {
			o.scorer = s
		}
	}
}

// WithOverrideWindow restricts overrides to records whose period month lies
// in [from, to), the range the ledger totals were summed over. Without it
// every record is eligible.
func WithOverrideWindow(from, to time.Time) Option {
	return func(o *options) {
		o.windowFrom, o.windowTo = from, to
	}
}

// overrideApplies reports whether a record for period may take an override.
// The period's calendar month is compared in the window's location so a
// UTC period key is not shifted across a month boundary.
func (o *options) overrideApplies(period time.Time) bool {
	if o.windowFrom.IsZero() && o.windowTo.IsZero() {
		return true
	}
	y, m, _ := period.Date()
	month := time.Date(y, m, 1, 0, 0, 0, 0, o.windowFrom.Location())
	return !month.Before(o.windowFrom) && month.Before(o.windowTo)
}
