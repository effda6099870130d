// Package service wires the record source, the refresh pipeline and the
// ranking core into the operations the HTTP API exposes.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	changequeue "github.com/okian/kpiboard/internal/adapters/mq/queue"
	refreshworker "github.com/okian/kpiboard/internal/adapters/mq/worker"
	"github.com/okian/kpiboard/internal/adapters/repository"
	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/internal/domain/ranking"
	"github.com/okian/kpiboard/internal/domain/scoring"
	"github.com/okian/kpiboard/internal/domain/types"
	"github.com/okian/kpiboard/pkg/logger"
	"github.com/okian/kpiboard/pkg/metrics"
)

// Change sources produced by the service itself.
const (
	SourceAPI      = "api"
	SourceInterval = "interval"
)

// Service implements the API dependencies for the KPI ranking.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     *repository.SnapshotStore
	refresher *repository.SnapshotRefresher
	changes   *changequeue.InMemoryQueue
	worker    *refreshworker.RefreshWorker

	// Configuration
	queueSize       int
	debounce        time.Duration
	refreshInterval time.Duration
	historyMonths   int
	tieBreakByID    bool
	now             func() time.Time

	// State
	started bool
	cancel  context.CancelFunc
	bg      sync.WaitGroup

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueueSize sets the capacity of the change queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDebounce sets the quiet period before a refresh runs.
func WithDebounce(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// WithRefreshInterval enables a periodic refresh. Zero disables it.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.refreshInterval = d
		}
	}
}

// WithHistoryMonths limits how many months of targets are fetched.
func WithHistoryMonths(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.historyMonths = n
		}
	}
}

// WithTieBreakByID orders equal scores by employee id.
func WithTieBreakByID(enabled bool) Option {
	return func(s *Service) {
		s.tieBreakByID = enabled
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Service reading from source.
func New(source repository.Source, opts ...Option) *Service {
	s := &Service{
		queueSize:     1024,
		debounce:      500 * time.Millisecond,
		historyMonths: 12,
		now:           time.Now,
		logger:        logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.store = repository.NewSnapshotStore()
	s.refresher = repository.NewSnapshotRefresher(source, s.store,
		repository.WithHistoryMonths(s.historyMonths),
		repository.WithClock(s.now),
		repository.WithRefresherLogger(s.logger.Named("refresher")),
	)
	s.changes = changequeue.NewInMemoryQueue(changequeue.WithCapacity(s.queueSize))
	s.worker = refreshworker.NewRefreshWorker(s.changes, s.refresher,
		refreshworker.WithDebounce(s.debounce),
		refreshworker.WithLogger(s.logger.Named("worker")),
	)
	return s
}

// Start loads the first snapshot and starts the refresh pipeline. A failed
// initial load is logged; reads return ErrNoSnapshot until a refresh succeeds.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting kpi service...")

	if err := s.refresher.Refresh(ctx); err != nil {
		s.logger.Warn(ctx, "initial snapshot failed", logger.Error(err))
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		s.worker.Run(runCtx)
	}()

	if s.refreshInterval > 0 {
		s.bg.Add(1)
		go func() {
			defer s.bg.Done()
			s.tick(runCtx)
		}()
	}

	s.started = true
	s.logger.Info(ctx, "kpi service started",
		logger.Int("queue_size", s.queueSize),
		logger.Duration("debounce", s.debounce),
		logger.Duration("refresh_interval", s.refreshInterval),
		logger.Int("history_months", s.historyMonths),
	)
	return nil
}

func (s *Service) tick(ctx context.Context) {
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.enqueue(ctx, SourceInterval)
		}
	}
}

// Stop closes the change queue and waits for the worker to drain.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping kpi service...")

	_ = s.changes.Close()
	err := s.worker.Shutdown(ctx)
	s.cancel()
	s.bg.Wait()

	s.started = false
	s.logger.Info(ctx, "kpi service stopped")
	if err != nil {
		return fmt.Errorf("stop worker: %w", err)
	}
	return nil
}

// Changes is where change notifications are delivered.
func (s *Service) Changes() repository.ChangeSink {
	return s.changes
}

// Leaderboard returns the ranking for scope, truncated to limit when limit > 0.
func (s *Service) Leaderboard(ctx context.Context, scope ranking.Scope, limit int) ([]types.Entry, error) {
	ranked, err := s.rank(ctx, scope)
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	out := make([]types.Entry, len(ranked))
	for i := range ranked {
		out[i] = types.FromScored(ranked[i])
	}
	return out, nil
}

// Rank returns employeeID's entry in the ranking for scope. The rank is the
// position inside the scoped ranking, not the company-wide one.
func (s *Service) Rank(ctx context.Context, employeeID string, scope ranking.Scope) (types.Entry, error) {
	ranked, err := s.rank(ctx, scope)
	if err != nil {
		return types.Entry{}, err
	}
	rec, ok := ranking.Find(ranked, employeeID)
	if !ok {
		return types.Entry{}, fmt.Errorf("%s: %w", employeeID, repository.ErrNotFound)
	}
	return types.FromScored(rec), nil
}

// Score computes an ad-hoc score breakdown.
func (s *Service) Score(_ context.Context, in scoring.Input) types.Breakdown {
	r := scoring.Compute(in)
	return types.Breakdown{
		SalesPct:      r.SalesPct,
		CommissionPct: r.CommissionPct,
		AttendancePct: r.AttendancePct,
		Weighted:      r.Weighted,
		Score:         r.Score,
	}
}

// RequestRefresh asks for a debounced refresh. It returns false when the
// queue is full.
func (s *Service) RequestRefresh(ctx context.Context) bool {
	return s.enqueue(ctx, SourceAPI)
}

// Refresh fetches and publishes a snapshot synchronously.
func (s *Service) Refresh(ctx context.Context) error {
	return s.refresher.Refresh(ctx)
}

func (s *Service) enqueue(ctx context.Context, source string) bool {
	ok := s.changes.Enqueue(ctx, model.Change{ID: uuid.NewString(), Source: source, At: s.now()})
	if !ok {
		s.logger.Debug(ctx, "refresh request dropped", logger.String("source", source))
	}
	return ok
}

func (s *Service) rank(ctx context.Context, scope ranking.Scope) ([]model.ScoredRecord, error) {
	snap, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	opts := []ranking.Option{ranking.WithOverrideWindow(snap.From, snap.To)}
	if s.tieBreakByID {
		opts = append(opts, ranking.WithTieBreakByEmployeeID())
	}

	start := time.Now()
	ranked := ranking.Rank(ranking.Filter(snap.Records, scope), snap.Overrides, opts...)
	elapsed := time.Since(start)
	metrics.RecordRanking(scopeLabel(scope), len(ranked), float64(elapsed.Microseconds())/1000)

	s.logger.Debug(ctx, "ranking computed",
		logger.String("group", scope.GroupID),
		logger.String("role", scope.Role),
		logger.Int("employees", len(ranked)),
		logger.Int64("generation", int64(snap.Generation)),
	)
	return ranked, nil
}

// scopeLabel keeps the metric label set bounded.
func scopeLabel(scope ranking.Scope) string {
	switch {
	case scope.GroupID != "" && scope.Role != "":
		return "group_role"
	case scope.GroupID != "":
		return "group"
	case scope.Role != "":
		return "role"
	default:
		return "all"
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	queueLen := s.changes.Len(ctx)
	stats := map[string]interface{}{
		"started":             s.started,
		"queue_length":        queueLen,
		"queue_capacity":      s.changes.Cap(),
		"debounce_ms":         s.debounce.Milliseconds(),
		"refresh_interval_ms": s.refreshInterval.Milliseconds(),
		"history_months":      s.historyMonths,
		"tie_break_by_id":     s.tieBreakByID,
	}

	if snap, err := s.store.Load(); err == nil {
		stats["snapshot_generation"] = snap.Generation
		stats["snapshot_fetched_at"] = snap.FetchedAt.Format(time.RFC3339)
		stats["snapshot_age_seconds"] = int64(s.now().Sub(snap.FetchedAt).Seconds())
		stats["records"] = len(snap.Records)
		stats["overridden_employees"] = len(snap.Overrides)
		stats["ledger_rows"] = snap.LedgerEntries
		stats["window_from"] = snap.From.Format(model.PeriodLayout)
		stats["window_to"] = snap.To.Format(model.PeriodLayout)
	}

	metrics.UpdateQueueSize(queueLen)
	return stats
}
