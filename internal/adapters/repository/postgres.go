package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/kpiboard/internal/domain/model"
)

// PgxQuerier is the subset of *pgxpool.Pool the Postgres source needs.
type PgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads targets and the ledger through pgx.
type PostgresSource struct {
	db           PgxQuerier
	queryBuilder sq.StatementBuilderType
	opts         sourceOptions
}

// NewPostgresSource creates a source on db.
func NewPostgresSource(db PgxQuerier, opts ...SourceOption) *PostgresSource {
	o := defaultSourceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &PostgresSource{
		db:           db,
		queryBuilder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		opts:         o,
	}
}

// OpenPostgres creates a connection pool and checks it is reachable.
func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}
	return pool, nil
}

// ListMetricRecords implements Source.
func (s *PostgresSource) ListMetricRecords(ctx context.Context, since time.Time) ([]model.MetricRecord, error) {
	var bound any
	if !since.IsZero() {
		bound = since
	}
	query, args, err := selectTargets(s.queryBuilder, bound).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build targets query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query targets: %w", err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.MetricRecord, error) {
		var (
			r      targetRow
			period time.Time
		)
		dest := append([]any{&r.EmployeeID, &r.FullName, &r.GroupID, &r.Role, &period}, r.numericDest()...)
		if err := row.Scan(dest...); err != nil {
			return model.MetricRecord{}, err
		}
		return r.toRecord(period, s.opts), nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan targets: %w", err)
	}
	return records, nil
}

// ListLedgerEntries implements Source.
func (s *PostgresSource) ListLedgerEntries(ctx context.Context, from, to time.Time) ([]model.LedgerEntry, error) {
	query, args, err := selectLedger(s.queryBuilder, from, to).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ledger query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.LedgerEntry, error) {
		var (
			r    ledgerRow
			date time.Time
		)
		if err := row.Scan(&r.EmployeeID, &r.Amount, &date); err != nil {
			return model.LedgerEntry{}, err
		}
		return r.toEntry(date), nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan ledger: %w", err)
	}
	return entries, nil
}
