// Package repository reads KPI targets and the sales ledger from the backing
// database and publishes them as immutable snapshots.
package repository

import (
	"context"
	"time"

	"github.com/okian/kpiboard/internal/domain/model"
)

// Source reads the raw inputs of a ranking.
type Source interface {
	// ListMetricRecords returns target rows with period >= since, newest
	// period first. A zero since returns every period.
	ListMetricRecords(ctx context.Context, since time.Time) ([]model.MetricRecord, error)

	// ListLedgerEntries returns sales ledger rows dated in [from, to).
	ListLedgerEntries(ctx context.Context, from, to time.Time) ([]model.LedgerEntry, error)
}

// Snapshot is one consistent view of the upstream tables. It is never
// mutated after being published.
type Snapshot struct {
	Generation    uint64
	Records       []model.MetricRecord // newest period first
	Overrides     map[string]float64   // ledger totals per employee over [From, To)
	LedgerEntries int
	From, To      time.Time
	FetchedAt     time.Time
}
