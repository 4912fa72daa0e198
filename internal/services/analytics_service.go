package services

import (
	"context"
	"math"
	"time"

	"github.com/estatehub/marketplace-backend/internal/config"
	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	seriesDateLayout = "2006-01-02"
	topViewedLimit   = 10
)

// AnalyticsService aggregates dashboard numbers in memory from raw snapshots.
// Fetch failures never surface: callers get the zero-valued shape instead.
type AnalyticsService struct {
	repo        *database.AnalyticsRepository
	listingFee  float64
	defaultDays int
	logger      *logrus.Logger
	clock       func() time.Time
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(repo *database.AnalyticsRepository, cfg config.AnalyticsConfig, logger *logrus.Logger) *AnalyticsService {
	days := cfg.DefaultWindowDays
	if days < 1 {
		days = 30
	}
	return &AnalyticsService{
		repo:        repo,
		listingFee:  cfg.ListingFee,
		defaultDays: days,
		logger:      logger,
		clock:       time.Now,
	}
}

// Growth returns the percentage change from previous to current.
// 0 -> n>0 counts as +100%, 0 -> 0 as 0%.
func Growth(previous, current int) int {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return roundHalfUp(float64(current-previous) / float64(previous) * 100)
}

// roundHalfUp rounds halves toward positive infinity
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// DenseDailySeries buckets timestamps by UTC day and returns exactly days
// entries starting at start, with empty days set to zero.
func DenseDailySeries(timestamps []time.Time, start time.Time, days int) []models.DailyCount {
	if days < 1 {
		return []models.DailyCount{}
	}
	start = startOfDayUTC(start)

	counts := make(map[string]int, days)
	for _, ts := range timestamps {
		counts[ts.UTC().Format(seriesDateLayout)]++
	}

	series := make([]models.DailyCount, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format(seriesDateLayout)
		series[i] = models.DailyCount{Date: date, Count: counts[date]}
	}
	return series
}

// window is the current period [start, now] and the previous period of equal length
type window struct {
	days      int
	start     time.Time
	prevStart time.Time
}

func (s *AnalyticsService) window(days int) window {
	if days < 1 {
		days = s.defaultDays
	}
	start := startOfDayUTC(s.clock()).AddDate(0, 0, -(days - 1))
	return window{days: days, start: start, prevStart: start.AddDate(0, 0, -days)}
}

// split counts timestamps in the current and previous period
func (w window) split(timestamps []time.Time) (current, previous int) {
	for _, ts := range timestamps {
		switch {
		case !ts.Before(w.start):
			current++
		case !ts.Before(w.prevStart):
			previous++
		}
	}
	return current, previous
}

func (w window) inCurrent(timestamps []time.Time) []time.Time {
	out := make([]time.Time, 0, len(timestamps))
	for _, ts := range timestamps {
		if !ts.Before(w.start) {
			out = append(out, ts)
		}
	}
	return out
}

// GetDashboardAnalytics computes the admin dashboard summary over a window of days ending today
func (s *AnalyticsService) GetDashboardAnalytics(ctx context.Context, days int) models.DashboardAnalytics {
	w := s.window(days)
	log := s.logger.WithField("window_days", w.days)

	snap, err := s.fetchDashboard(ctx, w)
	if err != nil {
		log.WithError(err).Warn("Analytics fetch failed, returning empty dashboard")
		return models.EmptyDashboardAnalytics()
	}
	accounts, providers, properties := snap.accounts, snap.providers, snap.properties
	views, inquiries, activities := snap.views, snap.inquiries, snap.activities
	totalViews, totalInquiries := snap.totalViews, snap.totalInquiries

	out := models.EmptyDashboardAnalytics()
	out.WindowDays = w.days
	out.GeneratedAt = s.clock().UTC()

	registrations := make([]time.Time, len(accounts))
	for i, a := range accounts {
		registrations[i] = a.CreatedAt
		out.Users.ByStatus[a.Status]++
		out.Users.ByRole[a.Role]++
	}
	out.Users.Total = len(accounts)
	cur, prev := w.split(registrations)
	out.Users.NewInPeriod = cur
	out.Users.Growth = Growth(prev, cur)

	providerCreated := make([]time.Time, len(providers))
	for i, p := range providers {
		providerCreated[i] = p.CreatedAt
		out.Providers.BySubscriptionStatus[p.SubscriptionStatus]++
		switch models.AccountStatus(p.AccountStatus) {
		case models.AccountApproved:
			out.Providers.Approved++
		case models.AccountPending, models.AccountEmailUnconfirmed:
			out.Providers.Pending++
		}
	}
	out.Providers.Total = len(providers)
	cur, prev = w.split(providerCreated)
	out.Providers.NewInPeriod = cur
	out.Providers.Growth = Growth(prev, cur)

	out.Properties = s.propertyStats(w, properties)

	viewTimes := eventTimes(views)
	inquiryTimes := eventTimes(inquiries)
	viewsCur, viewsPrev := w.split(viewTimes)
	inqCur, inqPrev := w.split(inquiryTimes)
	out.Engagement = models.EngagementStats{
		TotalViews:        totalViews,
		TotalInquiries:    totalInquiries,
		ViewsInPeriod:     viewsCur,
		InquiriesInPeriod: inqCur,
		ViewsGrowth:       Growth(viewsPrev, viewsCur),
		InquiriesGrowth:   Growth(inqPrev, inqCur),
		ConversionRate:    conversionRate(viewsCur, inqCur),
	}

	activityTimes := eventTimes(activities)
	out.Activities = len(activityTimes)

	out.Revenue = models.RevenueEstimate{
		Amount:        float64(out.Properties.Published) * s.listingFee,
		ListingFee:    s.listingFee,
		ListingCount:  out.Properties.Published,
		IsPlaceholder: true,
	}

	out.Series = models.DailySeries{
		Views:         DenseDailySeries(w.inCurrent(viewTimes), w.start, w.days),
		Inquiries:     DenseDailySeries(w.inCurrent(inquiryTimes), w.start, w.days),
		Registrations: DenseDailySeries(w.inCurrent(registrations), w.start, w.days),
		Activities:    DenseDailySeries(activityTimes, w.start, w.days),
	}
	return out
}

type dashboardSnapshot struct {
	accounts       []models.AccountSnapshot
	providers      []models.ProviderSnapshot
	properties     []models.PropertySnapshot
	views          []models.EventSnapshot
	inquiries      []models.EventSnapshot
	activities     []models.EventSnapshot
	totalViews     int
	totalInquiries int
}

func (s *AnalyticsService) fetchDashboard(ctx context.Context, w window) (snap dashboardSnapshot, err error) {
	if snap.accounts, err = s.repo.AccountSnapshots(ctx); err != nil {
		return snap, err
	}
	if snap.providers, err = s.repo.ProviderSnapshots(ctx); err != nil {
		return snap, err
	}
	if snap.properties, err = s.repo.PropertySnapshots(ctx, nil); err != nil {
		return snap, err
	}
	if snap.views, err = s.repo.ViewsSince(ctx, w.prevStart, nil); err != nil {
		return snap, err
	}
	if snap.inquiries, err = s.repo.InquiriesSince(ctx, w.prevStart, nil); err != nil {
		return snap, err
	}
	if snap.activities, err = s.repo.ActivitiesSince(ctx, w.start); err != nil {
		return snap, err
	}
	snap.totalViews, snap.totalInquiries, err = s.repo.EngagementTotals(ctx)
	return snap, err
}

// GetPropertyAnalytics returns listing statistics, the most viewed listings and engagement series
func (s *AnalyticsService) GetPropertyAnalytics(ctx context.Context, days int) models.PropertyAnalytics {
	w := s.window(days)
	empty := models.PropertyAnalytics{
		WindowDays: w.days,
		Properties: s.propertyStats(w, nil),
		TopViewed:  []models.PropertyRank{},
		Views:      []models.DailyCount{},
		Inquiries:  []models.DailyCount{},
	}
	log := s.logger.WithField("window_days", w.days)

	properties, err := s.repo.PropertySnapshots(ctx, nil)
	if err != nil {
		log.WithError(err).Warn("Property analytics fetch failed")
		return empty
	}
	top, err := s.repo.TopViewed(ctx, topViewedLimit)
	if err != nil {
		log.WithError(err).Warn("Property analytics fetch failed")
		return empty
	}
	views, err := s.repo.ViewsSince(ctx, w.start, nil)
	if err != nil {
		log.WithError(err).Warn("Property analytics fetch failed")
		return empty
	}
	inquiries, err := s.repo.InquiriesSince(ctx, w.start, nil)
	if err != nil {
		log.WithError(err).Warn("Property analytics fetch failed")
		return empty
	}

	return models.PropertyAnalytics{
		WindowDays: w.days,
		Properties: s.propertyStats(w, properties),
		TopViewed:  top,
		Views:      DenseDailySeries(eventTimes(views), w.start, w.days),
		Inquiries:  DenseDailySeries(eventTimes(inquiries), w.start, w.days),
	}
}

// GetProviderAnalytics returns one provider's listing counts and engagement
func (s *AnalyticsService) GetProviderAnalytics(ctx context.Context, providerID uuid.UUID, days int) models.ProviderAnalytics {
	w := s.window(days)
	empty := models.ProviderAnalytics{
		WindowDays: w.days,
		ProviderID: providerID,
		ByStatus:   map[string]int{},
		Views:      []models.DailyCount{},
		Inquiries:  []models.DailyCount{},
	}
	log := s.logger.WithFields(logrus.Fields{"window_days": w.days, "provider_id": providerID})

	properties, err := s.repo.PropertySnapshots(ctx, &providerID)
	if err != nil {
		log.WithError(err).Warn("Provider analytics fetch failed")
		return empty
	}
	views, err := s.repo.ViewsSince(ctx, w.prevStart, &providerID)
	if err != nil {
		log.WithError(err).Warn("Provider analytics fetch failed")
		return empty
	}
	inquiries, err := s.repo.InquiriesSince(ctx, w.prevStart, &providerID)
	if err != nil {
		log.WithError(err).Warn("Provider analytics fetch failed")
		return empty
	}

	out := empty
	out.TotalListings = len(properties)
	for _, p := range properties {
		out.ByStatus[p.Status]++
	}

	viewTimes := eventTimes(views)
	inquiryTimes := eventTimes(inquiries)
	viewsCur, viewsPrev := w.split(viewTimes)
	inqCur, inqPrev := w.split(inquiryTimes)
	out.ViewsInPeriod = viewsCur
	out.InquiriesInPeriod = inqCur
	out.ViewsGrowth = Growth(viewsPrev, viewsCur)
	out.InquiriesGrowth = Growth(inqPrev, inqCur)
	out.Views = DenseDailySeries(w.inCurrent(viewTimes), w.start, w.days)
	out.Inquiries = DenseDailySeries(w.inCurrent(inquiryTimes), w.start, w.days)
	return out
}

func (s *AnalyticsService) propertyStats(w window, properties []models.PropertySnapshot) models.PropertyStats {
	stats := models.PropertyStats{
		ByType:     map[string]int{},
		ByCategory: map[string]int{},
		ByStatus:   map[string]int{},
	}
	created := make([]time.Time, len(properties))
	for i, p := range properties {
		created[i] = p.CreatedAt
		stats.ByType[p.Type]++
		if p.Category != "" {
			stats.ByCategory[p.Category]++
		}
		stats.ByStatus[p.Status]++
		switch models.PropertyStatus(p.Status) {
		case models.PropertyPublished:
			stats.Published++
		case models.PropertyPending:
			stats.Pending++
		case models.PropertyRejected:
			stats.Rejected++
		}
		if p.IsFeatured {
			stats.Featured++
		}
	}
	stats.Total = len(properties)
	cur, prev := w.split(created)
	stats.NewInPeriod = cur
	stats.Growth = Growth(prev, cur)
	return stats
}

func eventTimes(events []models.EventSnapshot) []time.Time {
	out := make([]time.Time, len(events))
	for i, e := range events {
		out[i] = e.CreatedAt
	}
	return out
}

// conversionRate is inquiries per 100 views, to two decimals
func conversionRate(views, inquiries int) float64 {
	if views == 0 {
		return 0
	}
	return math.Round(float64(inquiries)/float64(views)*10000) / 100
}

func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
