package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const (
	pingInterval = 90 * time.Second

	// DefaultListenTimeout bounds how long Subscribe waits for a LISTEN connection
	DefaultListenTimeout = 10 * time.Second
)

// PostgresFeed delivers changes published with pg_notify, including those
// raised by the notify_row_change trigger.
type PostgresFeed struct {
	connURL string
	db      database.DB
	logger  *logrus.Logger

	minReconnect  time.Duration
	maxReconnect  time.Duration
	listenTimeout time.Duration
}

// NewPostgresFeed creates a feed that listens on connURL and publishes through db
func NewPostgresFeed(connURL string, db database.DB, logger *logrus.Logger) *PostgresFeed {
	return &PostgresFeed{
		connURL:      connURL,
		db:           db,
		logger:       logger,
		minReconnect:  10 * time.Second,
		maxReconnect:  time.Minute,
		listenTimeout: DefaultListenTimeout,
	}
}

// Publish sends ev on channel via pg_notify
func (f *PostgresFeed) Publish(ctx context.Context, channel string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode change event: %w", err)
	}
	if _, err := f.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, channel, string(payload)); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", channel, err)
	}
	return nil
}

// Subscribe opens a dedicated LISTEN connection for channel. It gives up
// when ctx is done or no connection is made within the listen timeout;
// listener errors reach onError only after Subscribe succeeded.
func (f *PostgresFeed) Subscribe(ctx context.Context, channel string, handler Handler, onError ErrorHandler) (Subscription, error) {
	sub := &pgSubscription{done: make(chan struct{})}

	sub.listener = pq.NewListener(f.connURL, f.minReconnect, f.maxReconnect, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventDisconnected, pq.ListenerEventConnectionAttemptFailed:
			if !sub.isLive() {
				return
			}
			if err == nil {
				err = ErrDisconnected
			}
			onError(fmt.Errorf("listener on %s: %w", channel, err))
		}
	})

	// Listen waits for a live connection; closing the listener releases it
	listened := make(chan error, 1)
	go func() { listened <- sub.listener.Listen(channel) }()

	timer := time.NewTimer(f.listenTimeout)
	defer timer.Stop()

	var err error
	select {
	case err = <-listened:
	case <-ctx.Done():
		err = ctx.Err()
	case <-timer.C:
		err = fmt.Errorf("no connection after %s: %w", f.listenTimeout, ErrDisconnected)
	}
	if err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", channel, err)
	}

	sub.markLive()
	go sub.loop(channel, handler, f.logger)
	return sub, nil
}

type pgSubscription struct {
	listener *pq.Listener
	done     chan struct{}

	mu     sync.Mutex
	live   bool
	closed bool
}

func (s *pgSubscription) loop(channel string, handler Handler, logger *logrus.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case n, ok := <-s.listener.Notify:
			if !ok {
				return
			}
			// nil after the listener re-established its connection
			if n == nil {
				continue
			}
			ev, err := ParseEvent([]byte(n.Extra))
			if err != nil {
				logger.WithError(err).WithField("channel", channel).Warn("Dropping malformed change event")
				continue
			}
			handler(ev)
		case <-ticker.C:
			go s.listener.Ping()
		}
	}
}

func (s *pgSubscription) markLive() {
	s.mu.Lock()
	s.live = !s.closed
	s.mu.Unlock()
}

// isLive reports whether the subscription was established and not yet closed
func (s *pgSubscription) isLive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live && !s.closed
}

// Close stops delivery and releases the LISTEN connection. Safe to call twice.
func (s *pgSubscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	s.mu.Unlock()
	return s.listener.Close()
}
