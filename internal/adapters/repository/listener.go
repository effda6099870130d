package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/pkg/logger"
)

// ReconnectSource marks the synthetic change emitted after the listener
// reconnects, since notifications sent while disconnected are lost.
const ReconnectSource = "reconnect"

// NotificationConn is a dedicated connection that can LISTEN.
type NotificationConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Release()
}

// ConnAcquirer hands out listening connections.
type ConnAcquirer interface {
	AcquireListenConn(ctx context.Context) (NotificationConn, error)
}

// ChangeSink receives change notifications. It must not block.
type ChangeSink interface {
	Enqueue(ctx context.Context, c model.Change) bool
}

// PoolAcquirer takes listening connections out of a pgx pool.
type PoolAcquirer struct {
	Pool *pgxpool.Pool
}

// AcquireListenConn implements ConnAcquirer.
func (a PoolAcquirer) AcquireListenConn(ctx context.Context) (NotificationConn, error) {
	c, err := a.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return poolConn{conn: c}, nil
}

type poolConn struct {
	conn *pgxpool.Conn
}

func (c poolConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return c.conn.Exec(ctx, sql, args...)
}

func (c poolConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	return c.conn.Conn().WaitForNotification(ctx)
}

func (c poolConn) Release() {
	c.conn.Release()
}

// Listener forwards Postgres NOTIFY messages on a channel into a ChangeSink.
type Listener struct {
	acquirer       ConnAcquirer
	channel        string
	sink           ChangeSink
	backoffInitial time.Duration
	backoffMax     time.Duration
	logger         logger.Logger
}

// NewListener creates a listener on channel.
func NewListener(acquirer ConnAcquirer, channel string, sink ChangeSink, opts ...ListenerOption) *Listener {
	l := &Listener{
		acquirer:       acquirer,
		channel:        channel,
		sink:           sink,
		backoffInitial: time.Second,
		backoffMax:     30 * time.Second,
		logger:         logger.Get().Named("listener"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run listens until ctx is done, reconnecting with exponential backoff. The
// backoff starts over once a connection gets its LISTEN through.
func (l *Listener) Run(ctx context.Context) error {
	delay := l.backoffInitial
	connected := false
	for {
		established, err := l.listen(ctx, connected)
		if ctx.Err() != nil {
			return nil
		}
		connected = true
		delay = l.nextDelay(delay, established)
		l.logger.Warn(ctx, "listener disconnected, retrying",
			logger.String("channel", l.channel),
			logger.Duration("backoff", delay),
			logger.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

// nextDelay returns the wait before the next attempt. A connection that
// reached LISTEN resets the wait to the initial backoff; a failed attempt
// doubles the previous wait up to the maximum.
func (l *Listener) nextDelay(prev time.Duration, established bool) time.Duration {
	if established {
		return l.backoffInitial
	}
	return min(prev*2, l.backoffMax)
}

// listen holds one connection until it fails and reports whether LISTEN
// succeeded on it. After a reconnect it emits a synthetic change so
// notifications missed in between are covered.
func (l *Listener) listen(ctx context.Context, reconnect bool) (bool, error) {
	conn, err := l.acquirer.AcquireListenConn(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire listen conn: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return false, fmt.Errorf("listen %s: %w", l.channel, err)
	}
	l.logger.Info(ctx, "listening for changes", logger.String("channel", l.channel))

	if reconnect {
		l.forward(ctx, ReconnectSource, "")
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return true, fmt.Errorf("wait for notification: %w", err)
		}
		l.forward(ctx, n.Channel, n.Payload)
	}
}

func (l *Listener) forward(ctx context.Context, source, payload string) {
	c := model.Change{ID: uuid.NewString(), Source: source, Payload: payload, At: time.Now()}
	if !l.sink.Enqueue(ctx, c) {
		l.logger.Debug(ctx, "change dropped, refresh already pending", logger.String("change_id", c.ID))
	}
}
