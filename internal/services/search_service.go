package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/estatehub/marketplace-backend/internal/config"
	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/sirupsen/logrus"
)

// ListingIndex keeps the public search index in step with moderation
type ListingIndex interface {
	IndexProperty(ctx context.Context, property *models.Property) error
	RemoveProperty(ctx context.Context, id uuid.UUID) error
}

// searchDocument is what the index stores per published listing
type searchDocument struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	IsFeatured  bool    `json:"is_featured"`
	PublishedAt int64   `json:"published_at"`
}

// SearchService serves the public catalogue from Meilisearch when it is
// configured and from Postgres otherwise or when Meilisearch fails.
type SearchService struct {
	client     *meilisearch.Client
	index      string
	properties *database.PropertyRepository
	logger     *logrus.Logger
}

// NewSearchService creates a search service. Without a host only SQL search is used.
func NewSearchService(cfg config.SearchConfig, properties *database.PropertyRepository, logger *logrus.Logger) *SearchService {
	s := &SearchService{index: cfg.Index, properties: properties, logger: logger}
	if cfg.Host != "" {
		s.client = meilisearch.NewClient(meilisearch.ClientConfig{
			Host:    cfg.Host,
			APIKey:  cfg.APIKey,
			Timeout: 5 * time.Second,
		})
	}
	return s
}

// Enabled reports whether a Meilisearch index is configured
func (s *SearchService) Enabled() bool {
	return s.client != nil
}

// EnsureIndex creates the index and its filterable attributes
func (s *SearchService) EnsureIndex() error {
	if !s.Enabled() {
		return nil
	}
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{Uid: s.index, PrimaryKey: "id"})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("failed to create search index: %w", err)
	}
	if _, err := s.client.Index(s.index).UpdateFilterableAttributes(&[]string{"type", "category", "price", "is_featured"}); err != nil {
		return fmt.Errorf("failed to configure search index: %w", err)
	}
	if _, err := s.client.Index(s.index).UpdateSortableAttributes(&[]string{"price", "published_at"}); err != nil {
		return fmt.Errorf("failed to configure search index: %w", err)
	}
	return nil
}

// IndexProperty adds or replaces a published listing
func (s *SearchService) IndexProperty(ctx context.Context, property *models.Property) error {
	if !s.Enabled() {
		return nil
	}
	if !property.IsLive() {
		return s.RemoveProperty(ctx, property.ID)
	}
	if _, err := s.client.Index(s.index).AddDocuments([]searchDocument{toSearchDocument(property)}); err != nil {
		return fmt.Errorf("failed to index property %s: %w", property.ID, err)
	}
	return nil
}

// RemoveProperty drops a listing from the index
func (s *SearchService) RemoveProperty(ctx context.Context, id uuid.UUID) error {
	if !s.Enabled() {
		return nil
	}
	if _, err := s.client.Index(s.index).DeleteDocument(id.String()); err != nil {
		return fmt.Errorf("failed to remove property %s from index: %w", id, err)
	}
	return nil
}

// Reindex replaces the index content with every published listing
func (s *SearchService) Reindex(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}
	properties, err := s.properties.ListPublished(ctx)
	if err != nil {
		return 0, err
	}

	index := s.client.Index(s.index)
	if _, err := index.DeleteAllDocuments(); err != nil {
		return 0, fmt.Errorf("failed to clear search index: %w", err)
	}
	if len(properties) == 0 {
		return 0, nil
	}

	docs := make([]searchDocument, len(properties))
	for i := range properties {
		docs[i] = toSearchDocument(&properties[i])
	}
	if _, err := index.AddDocuments(docs); err != nil {
		return 0, fmt.Errorf("failed to rebuild search index: %w", err)
	}
	return len(docs), nil
}

// Search returns a page of listings. Free-text queries go to Meilisearch
// first; the SQL filter path answers everything else.
func (s *SearchService) Search(ctx context.Context, filter models.PropertyFilter) (models.Page[models.Property], error) {
	filter.Normalize()
	sqlSearch := func(ctx context.Context) (models.Page[models.Property], error) {
		return s.properties.List(ctx, filter)
	}
	if !s.Enabled() || strings.TrimSpace(filter.Search) == "" || !onlyIndexedFilters(filter) {
		return sqlSearch(ctx)
	}
	return WithFallback(ctx, s.logger, "search_properties", func(ctx context.Context) (models.Page[models.Property], error) {
		return s.indexSearch(ctx, filter)
	}, sqlSearch)
}

func (s *SearchService) indexSearch(ctx context.Context, filter models.PropertyFilter) (models.Page[models.Property], error) {
	request := &meilisearch.SearchRequest{
		Limit:                int64(filter.PageSize),
		Offset:               int64(filter.Offset()),
		AttributesToRetrieve: []string{"id"},
	}
	var clauses []string
	if filter.Type != "" {
		clauses = append(clauses, fmt.Sprintf("type = %q", filter.Type))
	}
	if filter.Category != "" {
		clauses = append(clauses, fmt.Sprintf("category = %q", filter.Category))
	}
	if filter.MinPrice != nil {
		clauses = append(clauses, fmt.Sprintf("price >= %f", *filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		clauses = append(clauses, fmt.Sprintf("price <= %f", *filter.MaxPrice))
	}
	if filter.Featured != nil {
		clauses = append(clauses, fmt.Sprintf("is_featured = %t", *filter.Featured))
	}
	if len(clauses) > 0 {
		request.Filter = strings.Join(clauses, " AND ")
	}

	response, err := s.client.Index(s.index).Search(filter.Search, request)
	if err != nil {
		return models.Page[models.Property]{}, fmt.Errorf("meilisearch query failed: %w", err)
	}

	ids := make([]string, 0, len(response.Hits))
	for _, hit := range response.Hits {
		if m, ok := hit.(map[string]interface{}); ok {
			if id, ok := m["id"].(string); ok {
				ids = append(ids, id)
			}
		}
	}

	rows, err := s.properties.GetManyByIDs(ctx, ids)
	if err != nil {
		return models.Page[models.Property]{}, err
	}

	// keep relevance order; drop hits that are no longer live
	byID := make(map[string]models.Property, len(rows))
	for _, p := range rows {
		byID[p.ID.String()] = p
	}
	items := make([]models.Property, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok && p.IsLive() {
			items = append(items, p)
		}
	}
	return models.NewPage(items, int(response.EstimatedTotalHits), filter.Pagination), nil
}

// onlyIndexedFilters reports whether every filter set can be answered by the index
func onlyIndexedFilters(f models.PropertyFilter) bool {
	return f.City == "" && f.Zoning == "" && f.ProviderID == "" &&
		f.MinArea == nil && f.MaxArea == nil && f.MinRent == nil && f.MaxRent == nil &&
		f.MinBedrooms == nil && f.CreatedFrom == nil && f.CreatedTo == nil &&
		(f.SortBy == "" || f.SortBy == models.SortDate)
}

// Ping checks that Meilisearch answers
func (s *SearchService) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	health, err := s.client.Health()
	if err != nil {
		return fmt.Errorf("meilisearch unreachable: %w", err)
	}
	if health.Status != "available" {
		return fmt.Errorf("meilisearch status %s", health.Status)
	}
	return nil
}

func toSearchDocument(p *models.Property) searchDocument {
	doc := searchDocument{
		ID:          p.ID.String(),
		Title:       p.Title,
		Description: p.Description,
		Type:        string(p.Type),
		Category:    p.Category,
		Price:       p.Price,
		IsFeatured:  p.IsFeatured,
	}
	if p.PublishedAt != nil {
		doc.PublishedAt = p.PublishedAt.Unix()
	}
	return doc
}
