package realtime

import (
	"context"
	"sync"
)

// MemoryFeed fans events out to in-process subscribers.
// It only sees changes published through it, so it suits single-instance
// deployments and tests.
type MemoryFeed struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]*memorySubscription
}

// NewMemoryFeed creates an empty in-process feed
func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: make(map[string]map[int]*memorySubscription)}
}

// Publish delivers ev synchronously to every subscriber of channel
func (f *MemoryFeed) Publish(ctx context.Context, channel string, ev Event) error {
	f.mu.RLock()
	targets := make([]*memorySubscription, 0, len(f.subs[channel]))
	for _, s := range f.subs[channel] {
		targets = append(targets, s)
	}
	f.mu.RUnlock()

	for _, s := range targets {
		s.handler(ev)
	}
	return nil
}

// Subscribe registers handler on channel
func (f *MemoryFeed) Subscribe(ctx context.Context, channel string, handler Handler, onError ErrorHandler) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	s := &memorySubscription{feed: f, channel: channel, id: f.nextID, handler: handler, onError: onError}
	if f.subs[channel] == nil {
		f.subs[channel] = make(map[int]*memorySubscription)
	}
	f.subs[channel][s.id] = s
	return s, nil
}

// Fail reports err to every subscriber of channel, simulating a dropped connection
func (f *MemoryFeed) Fail(channel string, err error) {
	f.mu.RLock()
	targets := make([]*memorySubscription, 0, len(f.subs[channel]))
	for _, s := range f.subs[channel] {
		targets = append(targets, s)
	}
	f.mu.RUnlock()

	for _, s := range targets {
		s.onError(err)
	}
}

// Subscribers returns the number of open subscriptions on channel
func (f *MemoryFeed) Subscribers(channel string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs[channel])
}

type memorySubscription struct {
	feed    *MemoryFeed
	channel string
	id      int
	handler Handler
	onError ErrorHandler
}

func (s *memorySubscription) Close() error {
	s.feed.mu.Lock()
	defer s.feed.mu.Unlock()
	delete(s.feed.subs[s.channel], s.id)
	return nil
}
