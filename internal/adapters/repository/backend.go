package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Backend is an opened Source plus what is needed to close it. Pool is set
// only for Postgres and is what live notifications are read from.
type Backend struct {
	Source Source
	Pool   *pgxpool.Pool
	close  func() error
}

// Close releases the underlying connections.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open connects to the database selected by driver.
func Open(ctx context.Context, driver, dsn string, opts ...SourceOption) (*Backend, error) {
	switch driver {
	case DriverPostgres:
		pool, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Source: NewPostgresSource(pool, opts...),
			Pool:   pool,
			close: func() error {
				pool.Close()
				return nil
			},
		}, nil
	case DriverSQLite:
		db, err := OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return &Backend{Source: NewSQLiteSource(db, opts...), close: db.Close}, nil
	default:
		return nil, fmt.Errorf("%q: %w", driver, ErrUnknownDriver)
	}
}
