package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisFeed carries change events over Redis Pub/Sub
type RedisFeed struct {
	client *redis.Client
	prefix string
	logger *logrus.Logger
}

// NewRedisFeed creates a feed on client. Channel names are namespaced with prefix.
func NewRedisFeed(client *redis.Client, prefix string, logger *logrus.Logger) *RedisFeed {
	return &RedisFeed{client: client, prefix: prefix, logger: logger}
}

// Publish sends ev on channel
func (f *RedisFeed) Publish(ctx context.Context, channel string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode change event: %w", err)
	}
	if err := f.client.Publish(ctx, f.prefix+channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", channel, err)
	}
	return nil
}

// Subscribe waits for the subscription confirmation before returning
func (f *RedisFeed) Subscribe(ctx context.Context, channel string, handler Handler, onError ErrorHandler) (Subscription, error) {
	ps := f.client.Subscribe(ctx, f.prefix+channel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	sub := &redisSubscription{ps: ps}
	messages := ps.Channel()

	go func() {
		for msg := range messages {
			ev, err := ParseEvent([]byte(msg.Payload))
			if err != nil {
				f.logger.WithError(err).WithField("channel", channel).Warn("Dropping malformed change event")
				continue
			}
			handler(ev)
		}
		if !sub.isClosed() {
			onError(fmt.Errorf("subscription to %s: %w", channel, ErrFeedClosed))
		}
	}()

	return sub, nil
}

type redisSubscription struct {
	ps *redis.PubSub

	mu     sync.Mutex
	closed bool
}

func (s *redisSubscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *redisSubscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.ps.Close()
}
