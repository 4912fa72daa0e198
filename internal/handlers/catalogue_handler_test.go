package handlers

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCatalogueHandler_GetPropertyInvalidID(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodGet, "/api/v1/properties/abc", "", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestCatalogueHandler_HiddenListingIsNotFound(t *testing.T) {
	srv := newTestServer(t)
	propertyID := uuid.New()

	srv.mock.ExpectQuery(`FROM properties p WHERE p.id = \$1 AND p.deleted_at IS NULL`).
		WithArgs(propertyID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "type", "status"}).
			AddRow(propertyID.String(), "Hill cottage", "residential", "pending"))

	w := srv.do(http.MethodGet, "/api/v1/properties/"+propertyID.String(), "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestCatalogueHandler_InquiryBody(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodPost, "/api/v1/properties/"+uuid.NewString()+"/inquiries", "", "oops")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
