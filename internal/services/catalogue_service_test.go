package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/estatehub/marketplace-backend/internal/config"
	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogueFixture struct {
	svc     *CatalogueService
	mock    sqlmock.Sqlmock
	mailer  *recordingMailer
	sms     *recordingSMS
	rewards *GamificationService
}

func newCatalogueFixture(t *testing.T) *catalogueFixture {
	db, mock := newMockDB(t)
	properties := database.NewPropertyRepository(db)
	f := &catalogueFixture{
		mock:    mock,
		mailer:  &recordingMailer{},
		sms:     &recordingSMS{},
		rewards: NewGamificationService(NewMemoryProgressStore(), quietLogger()),
	}
	f.svc = NewCatalogueService(CatalogueDependencies{
		Properties: properties,
		Children:   database.NewPropertyChildRepository(db),
		Engagement: database.NewEngagementRepository(db),
		Plans:      database.NewPlanRepository(db),
		Providers:  database.NewProviderRepository(db),
		Search:     NewSearchService(config.SearchConfig{}, properties, quietLogger()),
		Notifications: NewNotificationService(
			database.NewProviderNotificationRepository(db),
			database.NewSystemNotificationRepository(db),
		),
		Mailer:  f.mailer,
		SMS:     f.sms,
		Rewards: f.rewards,
		Logger:  quietLogger(),
	})
	return f
}

func TestCatalogueService_SubmitInquiry(t *testing.T) {
	f := newCatalogueFixture(t)
	propertyID, providerID, ownerID := uuid.New(), uuid.New(), uuid.New()

	expectLiveProperty(f.mock, propertyID, providerID, "residential", "published")
	f.mock.ExpectExec(`INSERT INTO property_inquiries`).
		WithArgs(sqlmock.AnyArg(), propertyID, nil, "Saman", "saman@example.com", "0771234567", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`UPDATE properties SET inquiry_count = inquiry_count \+ 1`).
		WithArgs(propertyID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`UPDATE providers`).
		WithArgs(providerID, 0, 0, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectQuery(`FROM providers p JOIN accounts a ON a.id = p.account_id WHERE p.id = \$1`).
		WithArgs(providerID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "business_name", "business_email"}).
			AddRow(providerID.String(), ownerID.String(), "Lanka Homes", "office@lankahomes.lk"))
	f.mock.ExpectExec(`INSERT INTO provider_notifications`).
		WithArgs(sqlmock.AnyArg(), ownerID, models.NotificationNewInquiry, "New inquiry", sqlmock.AnyArg(),
			models.TargetProperty, propertyID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inquiry, err := f.svc.SubmitInquiry(context.Background(), propertyID, Actor{IPAddress: "203.0.113.9"}, models.InquiryRequest{
		Name:    "Saman",
		Email:   "Saman@Example.com",
		Phone:   "077-123-4567",
		Message: "Is the villa still available for viewing this weekend?",
	})

	require.NoError(t, err)
	assert.Nil(t, inquiry.AccountID)
	assert.NoError(t, f.mock.ExpectationsWereMet())

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "office@lankahomes.lk", f.mailer.sent[0].to)
	assert.Contains(t, f.mailer.sent[0].body, "still available")

	progress, err := f.rewards.Progress(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(XPInquiryReceived+25), progress.XP)

	assert.Empty(t, f.sms.sent, "no business phone on file")
}

func TestCatalogueService_SubmitInquiryTextsOwner(t *testing.T) {
	f := newCatalogueFixture(t)
	f.sms.err = errors.New("gateway down")
	propertyID, providerID, ownerID := uuid.New(), uuid.New(), uuid.New()

	expectLiveProperty(f.mock, propertyID, providerID, "residential", "published")
	f.mock.ExpectExec(`INSERT INTO property_inquiries`).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`UPDATE properties SET inquiry_count`).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`UPDATE providers`).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectQuery(`FROM providers p JOIN accounts a ON a.id = p.account_id WHERE p.id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "business_name", "business_email", "business_phone"}).
			AddRow(providerID.String(), ownerID.String(), "Lanka Homes", "office@lankahomes.lk", "0112345678"))
	f.mock.ExpectExec(`INSERT INTO provider_notifications`).WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := f.svc.SubmitInquiry(context.Background(), propertyID, Actor{IPAddress: "203.0.113.9"}, models.InquiryRequest{
		Name:    "Nimali",
		Email:   "nimali@example.com",
		Message: "Could you share the deed details before a visit?",
	})

	require.NoError(t, err, "a failed SMS alert does not fail the inquiry")
	require.Len(t, f.sms.sent, 1)
	assert.Equal(t, "0112345678", f.sms.sent[0].phone)
	assert.Contains(t, f.sms.sent[0].message, "from Nimali")
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCatalogueService_HiddenListings(t *testing.T) {
	for _, status := range []string{"pending", "rejected", "draft", "sold"} {
		t.Run(status, func(t *testing.T) {
			f := newCatalogueFixture(t)
			id := uuid.New()
			expectLiveProperty(f.mock, id, uuid.New(), "residential", status)

			_, err := f.svc.GetProperty(context.Background(), id, nil, "203.0.113.9")

			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestCatalogueService_GetPropertyViewIsBestEffort(t *testing.T) {
	f := newCatalogueFixture(t)
	id := uuid.New()
	expectLiveProperty(f.mock, id, uuid.New(), "residential", "published")
	f.mock.ExpectQuery(`FROM property_locations`).WillReturnRows(sqlmock.NewRows([]string{"property_id"}))
	f.mock.ExpectQuery(`FROM property_features`).WillReturnRows(sqlmock.NewRows([]string{"property_id"}))
	f.mock.ExpectQuery(`SELECT amenity`).WillReturnRows(sqlmock.NewRows([]string{"amenity"}))
	f.mock.ExpectQuery(`SELECT utility`).WillReturnRows(sqlmock.NewRows([]string{"utility"}))
	f.mock.ExpectQuery(`FROM property_images`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	f.mock.ExpectExec(`INSERT INTO property_views`).WillReturnError(errors.New("disk full"))

	detail, err := f.svc.GetProperty(context.Background(), id, nil, "203.0.113.9")

	require.NoError(t, err)
	assert.Equal(t, 4, detail.ViewCount)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCatalogueService_GetPlan(t *testing.T) {
	t.Run("Published plan counts the view", func(t *testing.T) {
		f := newCatalogueFixture(t)
		id := uuid.New()
		f.mock.ExpectQuery(`FROM architectural_plans WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "status", "view_count"}).
				AddRow(id.String(), "Two storey", "published", 9))
		f.mock.ExpectExec(`UPDATE architectural_plans SET view_count = view_count \+ 1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		plan, err := f.svc.GetPlan(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, 10, plan.ViewCount)
	})

	t.Run("Approved but unpublished plan is hidden", func(t *testing.T) {
		f := newCatalogueFixture(t)
		f.mock.ExpectQuery(`FROM architectural_plans`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(uuid.NewString(), "approved"))

		_, err := f.svc.GetPlan(context.Background(), uuid.New())

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCatalogueService_SearchForcesPublished(t *testing.T) {
	f := newCatalogueFixture(t)
	f.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM .+ p.status = ANY\(\$1\)`).
		WithArgs(pq.Array([]string{"published"})).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	f.mock.ExpectQuery(`SELECT .+ p.status = ANY\(\$1\) ORDER BY p.created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	page, err := f.svc.SearchProperties(context.Background(), models.PropertyFilter{Statuses: []string{"pending"}})

	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
