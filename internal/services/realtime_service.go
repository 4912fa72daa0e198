package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/estatehub/marketplace-backend/internal/realtime"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Scheduler runs f once after d. The returned func cancels a pending run.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// RealtimeCallbacks receive dashboard updates. Any of them may be nil.
type RealtimeCallbacks struct {
	OnActivityUpdate     func([]models.ActivityFeedItem)
	OnNotificationUpdate func([]models.SystemNotification)
	OnConnectionChange   func(connected bool)
	OnError              func(error)
	OnTerminalFailure    func(error)
}

// RealtimeOptions tune reconnects and list sizes
type RealtimeOptions struct {
	BaseDelay         time.Duration
	MaxAttempts       int
	FeedSize          int
	NotificationLimit int
	Scheduler         Scheduler
}

func (o *RealtimeOptions) normalize() {
	if o.BaseDelay <= 0 {
		o.BaseDelay = time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.FeedSize <= 0 {
		o.FeedSize = 20
	}
	if o.NotificationLimit <= 0 {
		o.NotificationLimit = defaultNotificationLimit
	}
	if o.Scheduler == nil {
		o.Scheduler = timerScheduler{}
	}
}

// AdminRealtimeService keeps one admin dashboard in sync with the activity
// log and system notifications. Every change triggers a full refetch, so the
// last completed fetch wins.
//
// Feed callbacks arrive on listener goroutines; all state is guarded by mu
// and callbacks are never invoked while it is held.
type AdminRealtimeService struct {
	feed          realtime.ChangeFeed
	activity      *database.ActivityLogRepository
	accounts      *database.AccountRepository
	notifications *NotificationService
	logger        *logrus.Logger
	opts          RealtimeOptions

	mu          sync.Mutex
	ctx         context.Context
	adminID     uuid.UUID
	callbacks   RealtimeCallbacks
	subs        []realtime.Subscription
	initialized bool
	connected   bool
	attempts    int
	generation  int
	stopRetry   func() bool
}

// NewAdminRealtimeService creates a realtime service for one dashboard session
func NewAdminRealtimeService(
	feed realtime.ChangeFeed,
	activity *database.ActivityLogRepository,
	accounts *database.AccountRepository,
	notifications *NotificationService,
	logger *logrus.Logger,
	opts RealtimeOptions,
) *AdminRealtimeService {
	opts.normalize()
	return &AdminRealtimeService{
		feed:          feed,
		activity:      activity,
		accounts:      accounts,
		notifications: notifications,
		logger:        logger,
		opts:          opts,
	}
}

// Initialize subscribes to both dashboard channels. A failure is also handed
// to the reconnect logic, so the service keeps retrying after an error return.
func (s *AdminRealtimeService) Initialize(ctx context.Context, adminID uuid.UUID, callbacks RealtimeCallbacks) error {
	s.mu.Lock()
	s.cancelRetryLocked()
	s.ctx = ctx
	s.adminID = adminID
	s.callbacks = callbacks
	s.initialized = true
	s.attempts = 0
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	if err := s.subscribe(gen); err != nil {
		s.handleError(gen, err)
		return err
	}
	return nil
}

// Cleanup unsubscribes, resets all state and drops the callbacks. It is safe to call more than once.
func (s *AdminRealtimeService) Cleanup() {
	s.mu.Lock()
	s.cancelRetryLocked()
	subs := s.subs
	s.subs = nil
	s.initialized = false
	s.connected = false
	s.attempts = 0
	s.generation++
	s.callbacks = RealtimeCallbacks{}
	s.mu.Unlock()

	closeAll(subs, s.logger)
}

// IsConnected reports whether both channels are subscribed
func (s *AdminRealtimeService) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// ReconnectAttempts returns the number of reconnects since the last success
func (s *AdminRealtimeService) ReconnectAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// RefreshActivityFeed returns the newest activity rows with admin names resolved
func (s *AdminRealtimeService) RefreshActivityFeed(ctx context.Context) ([]models.ActivityFeedItem, error) {
	rows, err := s.activity.ListRecent(ctx, s.opts.FeedSize)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool, len(rows))
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if !seen[row.AdminID] {
			seen[row.AdminID] = true
			ids = append(ids, row.AdminID)
		}
	}

	names, err := s.accounts.DisplayNames(ctx, ids)
	if err != nil {
		// names are cosmetic; the feed is still usable without them
		s.logger.WithError(err).Warn("Failed to resolve admin names for activity feed")
		names = map[uuid.UUID]string{}
	}

	items := make([]models.ActivityFeedItem, 0, len(rows))
	for _, row := range rows {
		name := names[row.AdminID]
		if name == "" {
			name = "Unknown admin"
		}
		items = append(items, models.ActivityFeedItem{ActivityLog: row, AdminName: name})
	}
	return items, nil
}

// RefreshNotifications returns the admin's own and global notifications
func (s *AdminRealtimeService) RefreshNotifications(ctx context.Context, adminID uuid.UUID) ([]models.SystemNotification, error) {
	return s.notifications.ListForAdmin(ctx, adminID, s.opts.NotificationLimit)
}

// subscribe (re)opens both channels for generation gen
func (s *AdminRealtimeService) subscribe(gen int) error {
	s.mu.Lock()
	ctx := s.ctx
	old := s.subs
	s.subs = nil
	s.mu.Unlock()

	closeAll(old, s.logger)

	onError := func(err error) { s.handleError(gen, err) }

	activitySub, err := s.feed.Subscribe(ctx, realtime.ChannelActivityLogs, func(ev realtime.Event) {
		s.onActivityEvent(gen, ev)
	}, onError)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", realtime.ChannelActivityLogs, err)
	}

	notificationSub, err := s.feed.Subscribe(ctx, realtime.ChannelSystemNotifications, func(ev realtime.Event) {
		s.onNotificationEvent(gen, ev)
	}, onError)
	if err != nil {
		closeAll([]realtime.Subscription{activitySub}, s.logger)
		return fmt.Errorf("failed to subscribe to %s: %w", realtime.ChannelSystemNotifications, err)
	}

	s.mu.Lock()
	if gen != s.generation || !s.initialized {
		// cleaned up or superseded while subscribing
		s.mu.Unlock()
		closeAll([]realtime.Subscription{activitySub, notificationSub}, s.logger)
		return nil
	}
	s.subs = []realtime.Subscription{activitySub, notificationSub}
	s.connected = true
	s.attempts = 0
	cb := s.callbacks
	s.mu.Unlock()

	if cb.OnConnectionChange != nil {
		cb.OnConnectionChange(true)
	}
	return nil
}

// handleError is the shared error handler of both subscriptions. Only the
// first error of a generation counts; later ones are stale.
func (s *AdminRealtimeService) handleError(gen int, err error) {
	s.mu.Lock()
	if gen != s.generation || !s.initialized {
		s.mu.Unlock()
		return
	}
	s.connected = false
	s.generation++
	next := s.generation
	s.attempts++
	attempt := s.attempts
	cb := s.callbacks

	terminal := attempt > s.opts.MaxAttempts
	var delay time.Duration
	if !terminal {
		delay = s.opts.BaseDelay * time.Duration(1<<(attempt-1))
		s.stopRetry = s.opts.Scheduler.AfterFunc(delay, func() { s.reconnect(next) })
	}
	s.mu.Unlock()

	log := s.logger.WithError(err).WithField("attempt", attempt)
	if cb.OnConnectionChange != nil {
		cb.OnConnectionChange(false)
	}
	if terminal {
		log.Error("Realtime reconnect attempts exhausted")
		if cb.OnTerminalFailure != nil {
			cb.OnTerminalFailure(fmt.Errorf("realtime connection lost after %d attempts: %w", s.opts.MaxAttempts, err))
		}
		return
	}

	log.WithField("delay", delay).Warn("Realtime channel error, reconnect scheduled")
	if cb.OnError != nil {
		cb.OnError(err)
	}
}

func (s *AdminRealtimeService) reconnect(gen int) {
	s.mu.Lock()
	if gen != s.generation || !s.initialized {
		s.mu.Unlock()
		return
	}
	s.stopRetry = nil
	s.mu.Unlock()

	if err := s.subscribe(gen); err != nil {
		s.handleError(gen, err)
		return
	}

	// catch up on whatever changed while disconnected
	s.pushActivity(gen)
	s.pushNotifications(gen)
}

func (s *AdminRealtimeService) onActivityEvent(gen int, _ realtime.Event) {
	s.pushActivity(gen)
}

func (s *AdminRealtimeService) onNotificationEvent(gen int, ev realtime.Event) {
	s.mu.Lock()
	adminID := s.adminID
	s.mu.Unlock()

	if ev.RecipientID != "" && ev.RecipientID != adminID.String() {
		return
	}
	s.pushNotifications(gen)
}

func (s *AdminRealtimeService) pushActivity(gen int) {
	ctx, cb, ok := s.session(gen)
	if !ok || cb.OnActivityUpdate == nil {
		return
	}
	items, err := s.RefreshActivityFeed(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to refresh activity feed")
		return
	}
	cb.OnActivityUpdate(items)
}

func (s *AdminRealtimeService) pushNotifications(gen int) {
	ctx, cb, ok := s.session(gen)
	if !ok || cb.OnNotificationUpdate == nil {
		return
	}
	s.mu.Lock()
	adminID := s.adminID
	s.mu.Unlock()

	list, err := s.RefreshNotifications(ctx, adminID)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to refresh notifications")
		return
	}
	cb.OnNotificationUpdate(list)
}

// session returns the context and callbacks of generation gen, if it is still current
func (s *AdminRealtimeService) session(gen int) (context.Context, RealtimeCallbacks, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || !s.initialized {
		return nil, RealtimeCallbacks{}, false
	}
	return s.ctx, s.callbacks, true
}

func (s *AdminRealtimeService) cancelRetryLocked() {
	if s.stopRetry != nil {
		s.stopRetry()
		s.stopRetry = nil
	}
}

func closeAll(subs []realtime.Subscription, logger *logrus.Logger) {
	for _, sub := range subs {
		if err := sub.Close(); err != nil {
			logger.WithError(err).Debug("Failed to close realtime subscription")
		}
	}
}
