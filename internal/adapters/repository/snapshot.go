package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/internal/domain/ranking"
	"github.com/okian/kpiboard/pkg/logger"
	"github.com/okian/kpiboard/pkg/metrics"
)

// SnapshotStore holds the published snapshot. Readers never block.
type SnapshotStore struct {
	current atomic.Pointer[Snapshot]
}

// NewSnapshotStore returns an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Load returns the current snapshot or ErrNoSnapshot.
func (s *SnapshotStore) Load() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// Publish replaces the current snapshot.
func (s *SnapshotStore) Publish(snap *Snapshot) {
	s.current.Store(snap)
	metrics.UpdateSnapshot(snap.Generation, snap.FetchedAt.Unix(), len(snap.Records), snap.LedgerEntries)
}

// SnapshotRefresher fetches full snapshots from a Source and publishes them.
// Starting a refresh cancels the one in flight, and only the latest
// generation is ever published.
type SnapshotRefresher struct {
	source        Source
	store         *SnapshotStore
	historyMonths int
	now           func() time.Time
	logger        logger.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewSnapshotRefresher creates a refresher publishing into store.
func NewSnapshotRefresher(source Source, store *SnapshotStore, opts ...RefresherOption) *SnapshotRefresher {
	r := &SnapshotRefresher{
		source:        source,
		store:         store,
		historyMonths: 12,
		now:           time.Now,
		logger:        logger.Get().Named("refresher"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh fetches and publishes a new snapshot. It returns ErrStaleSnapshot
// when a later call started before this one finished; on any other error the
// previous snapshot stays published.
func (r *SnapshotRefresher) Refresh(ctx context.Context) error {
	r.mu.Lock()
	r.generation++
	gen := r.generation
	if r.cancel != nil {
		r.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()
	defer cancel()

	start := time.Now()
	snap, err := r.fetch(fetchCtx, gen)

	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation {
		metrics.RecordRefreshStale()
		return fmt.Errorf("generation %d: %w", gen, ErrStaleSnapshot)
	}
	if err != nil {
		metrics.RecordRefreshError()
		r.logger.Error(ctx, "snapshot fetch failed, keeping previous snapshot",
			logger.Int64("generation", int64(gen)), logger.Error(err))
		return fmt.Errorf("refresh snapshot: %w", err)
	}

	r.store.Publish(snap)
	elapsed := time.Since(start)
	metrics.RecordRefresh(float64(elapsed.Milliseconds()))
	r.logger.Info(ctx, "snapshot published",
		logger.Int64("generation", int64(gen)),
		logger.Int("records", len(snap.Records)),
		logger.Int("ledger_entries", snap.LedgerEntries),
		logger.Duration("took", elapsed),
	)
	return nil
}

// Generation returns the generation of the most recently started refresh.
func (r *SnapshotRefresher) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation
}

func (r *SnapshotRefresher) fetch(ctx context.Context, gen uint64) (*Snapshot, error) {
	now := r.now()
	from, to := model.MonthWindow(now)
	var since time.Time
	if r.historyMonths > 0 {
		since = from.AddDate(0, -(r.historyMonths - 1), 0)
	}

	var (
		records []model.MetricRecord
		ledger  []model.LedgerEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = r.source.ListMetricRecords(gctx, since)
		return err
	})
	g.Go(func() error {
		var err error
		ledger, err = r.source.ListLedgerEntries(gctx, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Snapshot{
		Generation:    gen,
		Records:       records,
		Overrides:     ranking.SumOverrides(ledger, from, to),
		LedgerEntries: len(ledger),
		From:          from,
		To:            to,
		FetchedAt:     now,
	}, nil
}
