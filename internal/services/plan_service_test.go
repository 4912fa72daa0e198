package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/estatehub/marketplace-backend/pkg/validator"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type planFixture struct {
	svc     *PlanService
	mock    sqlmock.Sqlmock
	rewards *GamificationService
	owner   Actor
	provID  uuid.UUID
}

func newPlanFixture(t *testing.T) *planFixture {
	db, mock := newMockDB(t)
	f := &planFixture{
		mock:    mock,
		rewards: NewGamificationService(NewMemoryProgressStore(), quietLogger()),
		owner:   Actor{ID: uuid.New()},
		provID:  uuid.New(),
	}
	f.svc = NewPlanService(
		database.NewPlanRepository(db),
		database.NewProviderRepository(db),
		NewNotificationService(
			database.NewProviderNotificationRepository(db),
			database.NewSystemNotificationRepository(db),
		),
		nil,
		f.rewards,
		quietLogger(),
	)
	return f
}

func (f *planFixture) expectOwner() {
	f.mock.ExpectQuery(`FROM providers p JOIN accounts a ON a.id = p.account_id WHERE p.account_id = \$1`).
		WithArgs(f.owner.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "business_name"}).
			AddRow(f.provID.String(), f.owner.ID.String(), "Lanka Designs"))
}

func planRequest(submit bool) models.PlanRequest {
	return models.PlanRequest{
		Title:       "Two storey family home",
		Description: "Four bedrooms over two floors with a roof terrace.",
		Category:    "residential",
		Bedrooms:    4,
		Bathrooms:   3,
		Area:        2400,
		Price:       150000,
		Features:    []string{"roof terrace"},
		Submit:      submit,
	}
}

func TestPlanService_Create(t *testing.T) {
	t.Run("Submitted plan notifies admins", func(t *testing.T) {
		f := newPlanFixture(t)
		f.expectOwner()
		f.mock.ExpectExec(`INSERT INTO architectural_plans`).
			WithArgs(sqlmock.AnyArg(), f.provID, "Two storey family home", sqlmock.AnyArg(), "residential", models.PlanPending,
				4, 3, 2400.0, 150000.0, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		f.mock.ExpectExec(`INSERT INTO system_notifications`).WillReturnResult(sqlmock.NewResult(0, 1))

		plan, err := f.svc.Create(context.Background(), f.owner, planRequest(true))

		require.NoError(t, err)
		assert.Equal(t, models.PlanPending, plan.Status)
		assert.Equal(t, f.provID, *plan.ProviderID)
		assert.NoError(t, f.mock.ExpectationsWereMet())

		progress, err := f.rewards.Progress(context.Background(), f.owner.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(XPPlanCreated+50), progress.XP)
	})

	t.Run("Draft stays quiet", func(t *testing.T) {
		f := newPlanFixture(t)
		f.expectOwner()
		f.mock.ExpectExec(`INSERT INTO architectural_plans`).WillReturnResult(sqlmock.NewResult(0, 1))

		plan, err := f.svc.Create(context.Background(), f.owner, planRequest(false))

		require.NoError(t, err)
		assert.Equal(t, models.PlanDraft, plan.Status)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("Invalid request touches nothing", func(t *testing.T) {
		f := newPlanFixture(t)
		req := planRequest(true)
		req.Title = "Hut"

		_, err := f.svc.Create(context.Background(), f.owner, req)

		var verr *validator.ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})
}

func TestPlanService_Ownership(t *testing.T) {
	t.Run("Foreign plan is not found", func(t *testing.T) {
		f := newPlanFixture(t)
		id := uuid.New()
		f.expectOwner()
		f.mock.ExpectQuery(`FROM architectural_plans WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id", "provider_id", "status"}).
				AddRow(id.String(), uuid.NewString(), "published"))

		_, err := f.svc.Get(context.Background(), f.owner, id)

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Archived plan is read-only", func(t *testing.T) {
		f := newPlanFixture(t)
		id := uuid.New()
		f.expectOwner()
		f.mock.ExpectQuery(`FROM architectural_plans WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "provider_id", "status"}).
				AddRow(id.String(), f.provID.String(), "archived"))

		_, err := f.svc.Update(context.Background(), f.owner, id, planRequest(false))

		assert.ErrorIs(t, err, ErrInvalidState)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("Missing provider profile", func(t *testing.T) {
		f := newPlanFixture(t)
		f.mock.ExpectQuery(`WHERE p.account_id = \$1`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

		err := f.svc.Delete(context.Background(), f.owner, uuid.New())

		assert.ErrorIs(t, err, ErrNotFound)
	})
}
