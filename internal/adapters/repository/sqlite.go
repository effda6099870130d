package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/kpiboard/internal/domain/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS employees (
	id TEXT PRIMARY KEY,
	full_name TEXT,
	group_id TEXT,
	role TEXT
);

CREATE TABLE IF NOT EXISTS kpi_targets (
	employee_id TEXT NOT NULL,
	period TEXT NOT NULL,
	sales_actual REAL,
	sales_target REAL,
	commission_actual REAL,
	commission_target REAL,
	attendance_actual REAL,
	attendance_target REAL,
	PRIMARY KEY (employee_id, period)
);

CREATE TABLE IF NOT EXISTS sales_logs (
	employee_id TEXT NOT NULL,
	amount TEXT NOT NULL,
	log_date TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sales_logs_date ON sales_logs(log_date);
`

// SQLiteSource reads targets and the ledger from a local SQLite file. Dates
// are stored as YYYY-MM-DD text and amounts as decimal text.
type SQLiteSource struct {
	db           *sql.DB
	queryBuilder sq.StatementBuilderType
	opts         sourceOptions
}

// NewSQLiteSource creates a source on db.
func NewSQLiteSource(db *sql.DB, opts ...SourceOption) *SQLiteSource {
	o := defaultSourceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &SQLiteSource{
		db:           db,
		queryBuilder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		opts:         o,
	}
}

// OpenSQLite opens the database at dsn and creates the tables if missing.
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the tables the source reads.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create sqlite schema: %w", err)
	}
	return nil
}

// ListMetricRecords implements Source.
func (s *SQLiteSource) ListMetricRecords(ctx context.Context, since time.Time) ([]model.MetricRecord, error) {
	var bound any
	if !since.IsZero() {
		bound = since.Format(model.PeriodLayout)
	}
	query, args, err := selectTargets(s.queryBuilder, bound).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build targets query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query targets: %w", err)
	}
	defer rows.Close()

	var records []model.MetricRecord
	for rows.Next() {
		var (
			r      targetRow
			period string
		)
		dest := append([]any{&r.EmployeeID, &r.FullName, &r.GroupID, &r.Role, &period}, r.numericDest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan targets: %w", err)
		}
		p, err := model.ParsePeriod(period)
		if err != nil {
			return nil, fmt.Errorf("parse period %q of %s: %w", period, r.EmployeeID, err)
		}
		records = append(records, r.toRecord(p, s.opts))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate targets: %w", err)
	}
	return records, nil
}

// ListLedgerEntries implements Source.
func (s *SQLiteSource) ListLedgerEntries(ctx context.Context, from, to time.Time) ([]model.LedgerEntry, error) {
	query, args, err := selectLedger(s.queryBuilder, from.Format(model.PeriodLayout), to.Format(model.PeriodLayout)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ledger query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		var (
			r    ledgerRow
			date string
		)
		if err := rows.Scan(&r.EmployeeID, &r.Amount, &date); err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		d, err := model.ParsePeriod(date)
		if err != nil {
			return nil, fmt.Errorf("parse log date %q: %w", date, err)
		}
		entries = append(entries, r.toEntry(d))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger: %w", err)
	}
	return entries, nil
}
