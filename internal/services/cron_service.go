package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	jobExpireSubscriptions = "expire_subscriptions"
	jobReindexSearch       = "reindex_search"
	jobCleanupTokens       = "cleanup_refresh_tokens"
	jobCleanupRateLimits   = "cleanup_rate_limits"
	jobCleanupCodes        = "cleanup_confirmation_codes"

	jobTimeout            = 5 * time.Minute
	revokedTokenRetention = 7 * 24 * time.Hour
	expiredCodeRetention  = 24 * time.Hour
)

// CronDependencies are the services the scheduled jobs drive. Search,
// Limiter and Confirmations may be nil.
type CronDependencies struct {
	Providers     *database.ProviderRepository
	Tokens        *database.RefreshTokenRepository
	Notifications *NotificationService
	Search        *SearchService
	Limiter       *RateLimitService
	Confirmations *ConfirmationService
	Mailer        Mailer
	Logger        *logrus.Logger
}

// JobRun is the outcome of the last run of one job
type JobRun struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Affected  int64         `json:"affected"`
	Error     string        `json:"error,omitempty"`
}

// CronService manages scheduled background jobs
type CronService struct {
	cron    *cron.Cron
	deps    CronDependencies
	logger  *logrus.Logger
	entries map[string]cron.EntryID
	now     func() time.Time

	mu      sync.Mutex
	lastRun map[string]JobRun
}

// NewCronService creates a new CronService
func NewCronService(deps CronDependencies) *CronService {
	return &CronService{
		cron:    cron.New(cron.WithSeconds()),
		deps:    deps,
		logger:  deps.Logger,
		entries: make(map[string]cron.EntryID),
		now:     time.Now,
		lastRun: make(map[string]JobRun),
	}
}

// Start schedules all jobs and starts the scheduler
func (s *CronService) Start() error {
	s.logger.Info("Starting cron service...")

	// Cron format: second minute hour day month weekday
	jobs := []struct {
		name     string
		schedule string
		run      func(context.Context) (int64, error)
		label    string
	}{
		{jobExpireSubscriptions, "0 15 0 * * *", s.expireSubscriptions, "Expire lapsed subscriptions (daily at 00:15)"},
		{jobReindexSearch, "0 0 3 * * *", s.reindexSearch, "Rebuild search index (daily at 03:00)"},
		{jobCleanupTokens, "0 30 4 * * 0", s.cleanupTokens, "Cleanup refresh tokens (Sundays at 04:30)"},
		{jobCleanupRateLimits, "0 0 * * * *", s.cleanupRateLimits, "Cleanup rate limit events (hourly)"},
		{jobCleanupCodes, "0 45 4 * * *", s.cleanupCodes, "Cleanup confirmation codes (daily at 04:45)"},
	}

	for _, job := range jobs {
		job := job
		id, err := s.cron.AddFunc(job.schedule, func() { s.runJob(job.name, job.run) })
		if err != nil {
			return fmt.Errorf("failed to schedule %s job: %w", job.name, err)
		}
		s.entries[job.name] = id
		s.logger.WithField("job", job.name).Infof("Scheduled: %s", job.label)
	}

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) runJob(name string, run func(context.Context) (int64, error)) JobRun {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	log := s.logger.WithField("job", name)
	log.Info("Cron job started")
	started := s.now()

	affected, err := run(ctx)
	result := JobRun{StartedAt: started, Duration: time.Since(started), Affected: affected}
	if err != nil {
		result.Error = err.Error()
		log.WithError(err).Error("Cron job failed")
	} else {
		log.WithFields(logrus.Fields{"affected": affected, "duration": result.Duration}).Info("Cron job finished")
	}

	s.mu.Lock()
	s.lastRun[name] = result
	s.mu.Unlock()
	return result
}

// expireSubscriptions marks lapsed provider subscriptions expired and tells each owner
func (s *CronService) expireSubscriptions(ctx context.Context) (int64, error) {
	expired, err := s.deps.Providers.ExpireLapsedSubscriptions(ctx, s.now())
	if err != nil {
		return 0, err
	}

	for _, provider := range expired {
		plan := "subscription"
		if provider.SubscriptionPlan != nil {
			plan = *provider.SubscriptionPlan + " subscription"
		}
		notice := OwnerNotice{
			AccountID:  provider.AccountID,
			Type:       models.NotificationSubscriptionEnded,
			Title:      "Subscription expired",
			Message:    fmt.Sprintf("Your %s for %s has expired. Renew it to keep your listings promoted.", plan, provider.BusinessName),
			TargetType: models.TargetProvider,
			TargetID:   provider.ID,
		}
		log := s.logger.WithField("provider_id", provider.ID)
		if err := s.deps.Notifications.NotifyOwner(ctx, notice); err != nil {
			log.WithError(err).Warn("Failed to notify owner of expiry")
		}
		if s.deps.Mailer != nil && provider.BusinessEmail != "" {
			if err := s.deps.Mailer.Send(ctx, provider.BusinessEmail, provider.BusinessName, notice.Title, notice.Message); err != nil {
				log.WithError(err).Warn("Owner e-mail copy failed")
			}
		}
	}
	return int64(len(expired)), nil
}

func (s *CronService) reindexSearch(ctx context.Context) (int64, error) {
	if s.deps.Search == nil || !s.deps.Search.Enabled() {
		return 0, nil
	}
	n, err := s.deps.Search.Reindex(ctx)
	return int64(n), err
}

func (s *CronService) cleanupTokens(ctx context.Context) (int64, error) {
	return s.deps.Tokens.CleanupExpired(ctx, revokedTokenRetention)
}

func (s *CronService) cleanupRateLimits(ctx context.Context) (int64, error) {
	if s.deps.Limiter == nil {
		return 0, nil
	}
	return s.deps.Limiter.CleanupExpired(ctx)
}

func (s *CronService) cleanupCodes(ctx context.Context) (int64, error) {
	if s.deps.Confirmations == nil {
		return 0, nil
	}
	return s.deps.Confirmations.CleanupExpired(ctx, expiredCodeRetention)
}

// RunNow runs a job immediately, outside its schedule
func (s *CronService) RunNow(name string) (JobRun, error) {
	var run func(context.Context) (int64, error)
	switch name {
	case jobExpireSubscriptions:
		run = s.expireSubscriptions
	case jobReindexSearch:
		run = s.reindexSearch
	case jobCleanupTokens:
		run = s.cleanupTokens
	case jobCleanupRateLimits:
		run = s.cleanupRateLimits
	case jobCleanupCodes:
		run = s.cleanupCodes
	default:
		return JobRun{}, fmt.Errorf("unknown job %q", name)
	}
	s.logger.WithField("job", name).Info("Running job manually")
	return s.runJob(name, run), nil
}

// GetJobStatus returns the schedule and last outcome of every job
func (s *CronService) GetJobStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]map[string]interface{}, 0, len(s.entries))
	for name, id := range s.entries {
		entry := s.cron.Entry(id)
		job := map[string]interface{}{
			"name":     name,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		}
		if last, ok := s.lastRun[name]; ok {
			job["last_result"] = last
		}
		jobs = append(jobs, job)
	}

	return map[string]interface{}{
		"running":   len(s.entries) > 0,
		"job_count": len(s.entries),
		"jobs":      jobs,
	}
}
