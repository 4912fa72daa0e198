package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGamification_AddXP(t *testing.T) {
	svc := NewGamificationService(NewMemoryProgressStore(), quietLogger())
	id := uuid.New()

	total, err := svc.AddXP(context.Background(), id, 40, "test")
	require.NoError(t, err)
	assert.Equal(t, int64(40), total)

	total, err = svc.AddXP(context.Background(), id, 70, "test")
	require.NoError(t, err)
	assert.Equal(t, int64(110), total)

	progress, err := svc.Progress(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), progress.Level)
}

func TestGamification_AchievementUnlocksOnce(t *testing.T) {
	svc := NewGamificationService(NewMemoryProgressStore(), quietLogger())
	id := uuid.New()
	ctx := context.Background()

	unlocked, err := svc.RecordAchievementProgress(ctx, id, "first_listing", 1)
	require.NoError(t, err)
	require.NotNil(t, unlocked)
	assert.Equal(t, "first_listing", unlocked.Key)

	unlocked, err = svc.RecordAchievementProgress(ctx, id, "first_listing", 1)
	require.NoError(t, err)
	assert.Nil(t, unlocked)

	progress, err := svc.Progress(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(50), progress.XP, "reward is paid once")
	assert.Equal(t, int64(2), progress.Counters["first_listing"])
	require.Len(t, progress.Achievements, 1)
}

func TestGamification_CrossingTargetInOneStep(t *testing.T) {
	svc := NewGamificationService(NewMemoryProgressStore(), quietLogger())
	id := uuid.New()

	unlocked, err := svc.RecordAchievementProgress(context.Background(), id, "ten_listings", 12)
	require.NoError(t, err)
	require.NotNil(t, unlocked)
	assert.Equal(t, 200, unlocked.RewardXP)
}

func TestGamification_UnknownAchievement(t *testing.T) {
	svc := NewGamificationService(NewMemoryProgressStore(), quietLogger())

	_, err := svc.RecordAchievementProgress(context.Background(), uuid.New(), "nope", 1)
	assert.Error(t, err)
}

func TestGamification_NilServiceRewardIsNoop(t *testing.T) {
	var svc *GamificationService
	assert.NotPanics(t, func() {
		svc.reward(context.Background(), uuid.New(), 10, "noop", "first_listing")
	})
}
