package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	xpField          = "xp"
	progressPrefix   = "progress:"
	xpPerLevel       = 100
	gamificationKeys = "gamification:"
)

// Achievement is unlocked once its counter reaches Target
type Achievement struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Target   int64  `json:"target"`
	RewardXP int    `json:"reward_xp"`
}

// Achievements known to the platform
var Achievements = []Achievement{
	{Key: "first_listing", Title: "First listing", Target: 1, RewardXP: 50},
	{Key: "ten_listings", Title: "Portfolio builder", Target: 10, RewardXP: 200},
	{Key: "first_inquiry", Title: "First inquiry", Target: 1, RewardXP: 25},
	{Key: "first_plan", Title: "Plan designer", Target: 1, RewardXP: 50},
}

// XP rewards per action
const (
	XPListingCreated  = 20
	XPInquiryReceived = 5
	XPPlanCreated     = 20
)

// Progress is an account's XP, level and achievement counters
type Progress struct {
	AccountID    uuid.UUID        `json:"account_id"`
	XP           int64            `json:"xp"`
	Level        int64            `json:"level"`
	Counters     map[string]int64 `json:"counters"`
	Achievements []Achievement    `json:"achievements"`
}

// ProgressStore persists XP and achievement counters
type ProgressStore interface {
	IncrBy(ctx context.Context, accountID uuid.UUID, field string, delta int64) (int64, error)
	All(ctx context.Context, accountID uuid.UUID) (map[string]int64, error)
}

// GamificationService awards XP and tracks achievement progress for listing owners
type GamificationService struct {
	store  ProgressStore
	logger *logrus.Logger
}

// NewGamificationService creates a service on store
func NewGamificationService(store ProgressStore, logger *logrus.Logger) *GamificationService {
	return &GamificationService{store: store, logger: logger}
}

// AddXP adds amount to the account's XP and returns the new total
func (s *GamificationService) AddXP(ctx context.Context, accountID uuid.UUID, amount int, reason string) (int64, error) {
	total, err := s.store.IncrBy(ctx, accountID, xpField, int64(amount))
	if err != nil {
		return 0, fmt.Errorf("failed to add xp: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"account_id": accountID, "xp": amount, "reason": reason}).Debug("XP awarded")
	return total, nil
}

// RecordAchievementProgress bumps the counter behind an achievement.
// It returns the achievement when this call crossed its target; the reward XP is added then.
func (s *GamificationService) RecordAchievementProgress(ctx context.Context, accountID uuid.UUID, key string, delta int64) (*Achievement, error) {
	achievement := findAchievement(key)
	if achievement == nil {
		return nil, fmt.Errorf("unknown achievement %q", key)
	}

	count, err := s.store.IncrBy(ctx, accountID, progressPrefix+key, delta)
	if err != nil {
		return nil, fmt.Errorf("failed to record achievement progress: %w", err)
	}
	if count < achievement.Target || count-delta >= achievement.Target {
		return nil, nil
	}

	if _, err := s.AddXP(ctx, accountID, achievement.RewardXP, "achievement:"+key); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"account_id": accountID, "achievement": key}).Info("Achievement unlocked")
	return achievement, nil
}

// Progress returns the account's XP, level and unlocked achievements
func (s *GamificationService) Progress(ctx context.Context, accountID uuid.UUID) (Progress, error) {
	fields, err := s.store.All(ctx, accountID)
	if err != nil {
		return Progress{}, fmt.Errorf("failed to load progress: %w", err)
	}

	p := Progress{
		AccountID:    accountID,
		XP:           fields[xpField],
		Counters:     map[string]int64{},
		Achievements: []Achievement{},
	}
	p.Level = p.XP/xpPerLevel + 1
	for field, value := range fields {
		if key, ok := strings.CutPrefix(field, progressPrefix); ok {
			p.Counters[key] = value
		}
	}
	for _, a := range Achievements {
		if p.Counters[a.Key] >= a.Target {
			p.Achievements = append(p.Achievements, a)
		}
	}
	return p, nil
}

// reward is the best-effort path used by listing flows
func (s *GamificationService) reward(ctx context.Context, accountID uuid.UUID, xp int, reason string, achievements ...string) {
	if s == nil {
		return
	}
	if _, err := s.AddXP(ctx, accountID, xp, reason); err != nil {
		s.logger.WithError(err).Warn("Failed to award xp")
	}
	for _, key := range achievements {
		if _, err := s.RecordAchievementProgress(ctx, accountID, key, 1); err != nil {
			s.logger.WithError(err).WithField("achievement", key).Warn("Failed to record achievement progress")
		}
	}
}

func findAchievement(key string) *Achievement {
	for i := range Achievements {
		if Achievements[i].Key == key {
			return &Achievements[i]
		}
	}
	return nil
}

// RedisProgressStore keeps one hash per account
type RedisProgressStore struct {
	client *redis.Client
}

// NewRedisProgressStore creates a store on client
func NewRedisProgressStore(client *redis.Client) *RedisProgressStore {
	return &RedisProgressStore{client: client}
}

func (r *RedisProgressStore) key(accountID uuid.UUID) string {
	return gamificationKeys + accountID.String()
}

// IncrBy runs HINCRBY on the account hash
func (r *RedisProgressStore) IncrBy(ctx context.Context, accountID uuid.UUID, field string, delta int64) (int64, error) {
	return r.client.HIncrBy(ctx, r.key(accountID), field, delta).Result()
}

// All runs HGETALL on the account hash
func (r *RedisProgressStore) All(ctx context.Context, accountID uuid.UUID) (map[string]int64, error) {
	raw, err := r.client.HGetAll(ctx, r.key(accountID)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for field, value := range raw {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		out[field] = n
	}
	return out, nil
}

// MemoryProgressStore is the single-instance store used without Redis
type MemoryProgressStore struct {
	mu   sync.Mutex
	data map[uuid.UUID]map[string]int64
}

// NewMemoryProgressStore creates an empty store
func NewMemoryProgressStore() *MemoryProgressStore {
	return &MemoryProgressStore{data: make(map[uuid.UUID]map[string]int64)}
}

// IncrBy adds delta to one field
func (m *MemoryProgressStore) IncrBy(_ context.Context, accountID uuid.UUID, field string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fields, ok := m.data[accountID]
	if !ok {
		fields = make(map[string]int64)
		m.data[accountID] = fields
	}
	fields[field] += delta
	return fields[field], nil
}

// All returns a copy of the account's fields
func (m *MemoryProgressStore) All(_ context.Context, accountID uuid.UUID) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.data[accountID]))
	for k, v := range m.data[accountID] {
		out[k] = v
	}
	return out, nil
}
