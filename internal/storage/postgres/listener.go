package postgres

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// notificationConn is the subset of pgx.Conn the listener needs.
type notificationConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// LeadListener holds a dedicated LISTEN connection and fans change signals out
// to feed subscriptions. Signals are coalesced per subscriber: a slow consumer
// sees at least one signal for any burst of commits, which is sufficient
// because consumers re-derive full snapshots rather than apply diffs.
type LeadListener struct {
	connect func(ctx context.Context) (notificationConn, error)
	logger  *slog.Logger

	mu     sync.Mutex
	subs   map[int64]chan struct{}
	nextID int64
	cancel context.CancelFunc
	done   chan struct{}
	err    error
	closed bool
}

// NewLeadListener constructs a listener dialing the provided DSN.
func NewLeadListener(dsn string, logger *slog.Logger) *LeadListener {
	return &LeadListener{
		connect: func(ctx context.Context) (notificationConn, error) {
			return pgx.Connect(ctx, dsn)
		},
		logger: logger,
		subs:   make(map[int64]chan struct{}),
	}
}

// Start connects, issues LISTEN and launches the notification loop.
func (l *LeadListener) Start(ctx context.Context) error {
	conn, err := l.connect(ctx)
	if err != nil {
		return err
	}
	if _, err := conn.Exec(ctx, `LISTEN `+leadEventsChannel); err != nil {
		_ = conn.Close(ctx)
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	l.mu.Lock()
	l.cancel = cancel
	l.done = done
	l.mu.Unlock()

	go l.run(runCtx, conn, done)
	return nil
}

// Stop terminates the notification loop and waits for it to exit.
func (l *LeadListener) Stop() {
	l.mu.Lock()
	cancel := l.cancel
	done := l.done
	l.cancel = nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (l *LeadListener) run(ctx context.Context, conn notificationConn, done chan struct{}) {
	defer close(done)
	defer func() { _ = conn.Close(context.Background()) }()

	for {
		if _, err := conn.WaitForNotification(ctx); err != nil {
			if ctx.Err() != nil {
				l.terminate(nil)
				return
			}
			l.logger.Error("lead listener terminated", slog.String("error", err.Error()))
			l.terminate(err)
			return
		}
		l.broadcast()
	}
}

func (l *LeadListener) broadcast() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ch := range l.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (l *LeadListener) terminate(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.err = err
	for id, ch := range l.subs {
		close(ch)
		delete(l.subs, id)
	}
}

// Subscribe registers a change signal channel. The channel closes when the
// listener terminates; Err reports the cause, nil meaning clean shutdown.
func (l *LeadListener) Subscribe() (<-chan struct{}, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		ch := make(chan struct{})
		close(ch)
		return ch, func() {}
	}

	id := l.nextID
	l.nextID++
	ch := make(chan struct{}, 1)
	l.subs[id] = ch
	return ch, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}

// Err reports why the listener terminated.
func (l *LeadListener) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
