package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemNotificationRepository_ListForAdmin(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSystemNotificationRepository(db)
	adminID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`FROM system_notifications WHERE admin_id = \$1 OR admin_id IS NULL ORDER BY created_at DESC LIMIT \$2`).
		WithArgs(adminID, 50).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "admin_id", "type", "title", "message", "severity", "is_read",
			"related_entity_type", "related_entity_id", "created_at", "read_at",
		}).
			AddRow(uuid.NewString(), adminID.String(), "new_registration", "New provider", "A provider signed up", "info", false, "provider", uuid.NewString(), now, nil).
			AddRow(uuid.NewString(), nil, "listing_resubmitted", "Listing resubmitted", "Please review", "warning", true, nil, nil, now, now))

	list, err := repo.ListForAdmin(context.Background(), adminID, 50)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].AdminID)
	assert.Equal(t, adminID, *list[0].AdminID)
	assert.Nil(t, list[1].AdminID)
	assert.Equal(t, models.SeverityWarning, list[1].Severity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProviderNotificationRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProviderNotificationRepository(db)
	accountID := uuid.New()
	target := models.TargetProperty
	propertyID := uuid.New()

	mock.ExpectExec(`INSERT INTO provider_notifications`).
		WithArgs(sqlmock.AnyArg(), accountID, models.NotificationPropertyRejected, "Listing rejected",
			"Your listing was rejected: Duplicate listing", &target, &propertyID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n := &models.ProviderNotification{
		AccountID:         accountID,
		Type:              models.NotificationPropertyRejected,
		Title:             "Listing rejected",
		Message:           "Your listing was rejected: Duplicate listing",
		RelatedEntityType: &target,
		RelatedEntityID:   &propertyID,
	}
	require.NoError(t, repo.Create(context.Background(), n))
	assert.NotEqual(t, uuid.Nil, n.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
