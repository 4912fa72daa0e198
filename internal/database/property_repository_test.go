package database

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyRepository_ApproveRejectFieldSets(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	adminID := uuid.New()

	t.Run("Approve publishes and clears rejection fields", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPropertyRepository(db)

		mock.ExpectExec(`SET status = 'published', published_at = NOW\(\), approved_by = \$2,\s+rejection_reason = NULL, rejected_at = NULL, rejected_by = NULL`).
			WithArgs(id, adminID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Approve(ctx, id, adminID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Reject clears publication fields", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPropertyRepository(db)

		mock.ExpectExec(`SET status = 'rejected', rejected_at = NOW\(\), rejected_by = \$2, rejection_reason = \$3,\s+published_at = NULL, approved_by = NULL`).
			WithArgs(id, adminID, "Duplicate listing").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Reject(ctx, id, adminID, "Duplicate listing"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Resubmit only applies to rejected or draft", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPropertyRepository(db)

		mock.ExpectExec(`SET status = 'pending'(.+)status IN \('rejected', 'draft'\)`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Resubmit(ctx, id), ErrNoRowsAffected)
	})
}

func TestPropertyRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPropertyRepository(db)

	minPrice := 100000.0
	maxRent := 500.0

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM properties p LEFT JOIN (.+) WHERE p.deleted_at IS NULL AND \(p.title ILIKE \$1 OR p.description ILIKE \$2\) AND p.status = ANY\(\$3\) AND p.type = \$4 AND \(ld.zoning = \$5 OR cd.zoning = \$6\) AND p.price >= \$7 AND cd.rent_per_area <= \$8`).
		WithArgs("%shop%", "%shop%", sqlmock.AnyArg(), "commercial", "urban", "urban", minPrice, maxRent).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY p.price ASC LIMIT 20`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	page, err := repo.List(context.Background(), models.PropertyFilter{
		Search:    "shop",
		Statuses:  []string{"published"},
		Type:      "commercial",
		Zoning:    "urban",
		MinPrice:  &minPrice,
		MaxRent:   &maxRent,
		SortBy:    models.SortPrice,
		Ascending: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.Equal(t, 0, page.TotalPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPropertyRepository_SizeSortUsesSpecialisationArea(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPropertyRepository(db)

	mock.ExpectQuery(`SELECT COUNT`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY COALESCE(f.area_sqft, ld.area, cd.floor_area, 0) DESC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.List(context.Background(), models.PropertyFilter{SortBy: models.SortSize})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
