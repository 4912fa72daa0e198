package services

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*database.PostgresDB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &database.PostgresDB{DB: sqlx.NewDb(db, "sqlmock")}, mock
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type sentMail struct {
	to, name, subject, body string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) Send(_ context.Context, to, name, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, name: name, subject: subject, body: body})
	return nil
}

type sentText struct {
	phone   string
	message string
}

type recordingSMS struct {
	mu   sync.Mutex
	sent []sentText
	err  error
}

func (g *recordingSMS) Name() string { return "recording" }

func (g *recordingSMS) Send(_ context.Context, phone, message string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, sentText{phone: phone, message: message})
	return g.err
}

type recordingIndex struct {
	indexed []models.Property
	removed []uuid.UUID
}

func (i *recordingIndex) IndexProperty(_ context.Context, p *models.Property) error {
	i.indexed = append(i.indexed, *p)
	return nil
}

func (i *recordingIndex) RemoveProperty(_ context.Context, id uuid.UUID) error {
	i.removed = append(i.removed, id)
	return nil
}

type memoryObjectStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleted   []string
	uploadErr error
}

func newMemoryObjectStore() *memoryObjectStore {
	return &memoryObjectStore{objects: make(map[string][]byte)}
}

func (m *memoryObjectStore) Upload(_ context.Context, path string, r io.Reader, _ int64, _ string) (string, error) {
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = body
	return "https://cdn.test/" + path, nil
}

func (m *memoryObjectStore) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, url)
	return nil
}

func expectOwnerProvider(mock sqlmock.Sqlmock, accountID, providerID uuid.UUID) {
	mock.ExpectQuery(`FROM providers p JOIN accounts a ON a.id = p.account_id WHERE p.account_id = \$1`).
		WithArgs(accountID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "business_name", "business_email", "account_status"}).
			AddRow(providerID.String(), accountID.String(), "Lanka Homes", "owner@example.com", "approved"))
}

func expectLiveProperty(mock sqlmock.Sqlmock, id, providerID uuid.UUID, propertyType, status string) {
	mock.ExpectQuery(`FROM properties p WHERE p.id = \$1 AND p.deleted_at IS NULL`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "type", "status", "provider_id", "currency", "view_count"}).
			AddRow(id.String(), "Sea view villa", propertyType, status, providerID.String(), "LKR", 4))
}
