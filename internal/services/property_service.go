package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/estatehub/marketplace-backend/internal/realtime"
	"github.com/estatehub/marketplace-backend/pkg/validator"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidState    = errors.New("operation not allowed in the current state")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file is too large")
	ErrEmptyFile       = errors.New("file is empty")
)

const (
	maxImageSize    = 10 << 20
	maxDocumentSize = 20 << 20
)

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var documentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// Upload is one file received from a multipart form
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// PropertyDependencies wires a PropertyService
type PropertyDependencies struct {
	Properties    *database.PropertyRepository
	Children      *database.PropertyChildRepository
	Providers     *database.ProviderRepository
	Notifications *NotificationService
	Publisher     realtime.Publisher // optional
	Index         ListingIndex       // optional
	Storage       ObjectStore
	Rewards       *GamificationService // optional
	Logger        *logrus.Logger
}

// PropertyService is the provider side of listings: create, edit, media and sales status
type PropertyService struct {
	deps   PropertyDependencies
	logger *logrus.Logger
}

// NewPropertyService creates a new property service
func NewPropertyService(deps PropertyDependencies) *PropertyService {
	return &PropertyService{deps: deps, logger: deps.Logger}
}

// Create stores a listing and its child records. The listing starts as a
// draft, or pending when the owner submits it straight away. Child writes
// are best-effort: the listing row is authoritative.
func (s *PropertyService) Create(ctx context.Context, owner Actor, req models.PropertyRequest) (*models.PropertyDetail, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	provider, err := s.ownerProvider(ctx, owner.ID)
	if err != nil {
		return nil, err
	}

	status := models.PropertyDraft
	if req.Submit {
		status = models.PropertyPending
	}
	property := &models.Property{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Category:    req.Category,
		Status:      status,
		Price:       req.Price,
		Currency:    req.Currency,
		ProviderID:  &provider.ID,
	}
	if err := s.deps.Properties.Create(ctx, property); err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{"property_id": property.ID, "provider_id": provider.ID})
	s.writeChildren(ctx, property.ID, req, log)

	if err := s.deps.Providers.IncrementCounters(ctx, provider.ID, 1, 0, 0); err != nil {
		log.WithError(err).Warn("Failed to bump listing counter")
	}
	if req.Submit {
		s.notifySubmitted(ctx, provider, property.ID, property.Title, models.TargetProperty, log)
	}
	s.deps.Rewards.reward(ctx, owner.ID, XPListingCreated, "listing_created", "first_listing", "ten_listings")

	log.WithField("status", property.Status).Info("Property created")
	return s.deps.Children.GetDetail(ctx, property)
}

// Update edits the listing and replaces its child records. The type is fixed at creation.
func (s *PropertyService) Update(ctx context.Context, owner Actor, propertyID uuid.UUID, req models.PropertyRequest) (*models.PropertyDetail, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	property, _, err := s.ownedProperty(ctx, owner, propertyID)
	if err != nil {
		return nil, err
	}
	if req.Type != property.Type {
		return nil, &validator.ValidationError{Fields: []validator.FieldError{{Field: "type", Message: "cannot be changed"}}}
	}

	property.Title = req.Title
	property.Description = req.Description
	property.Category = req.Category
	property.Price = req.Price
	if req.Currency != "" {
		property.Currency = req.Currency
	}
	if err := s.deps.Properties.Update(ctx, property); err != nil {
		if errors.Is(err, database.ErrNoRowsAffected) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	log := s.logger.WithField("property_id", property.ID)
	s.writeChildren(ctx, property.ID, req, log)
	if property.IsLive() {
		s.reindex(ctx, property, log)
	}

	log.Info("Property updated")
	return s.deps.Children.GetDetail(ctx, property)
}

// Get returns one of the owner's listings in any state
func (s *PropertyService) Get(ctx context.Context, owner Actor, propertyID uuid.UUID) (*models.PropertyDetail, error) {
	property, _, err := s.ownedProperty(ctx, owner, propertyID)
	if err != nil {
		return nil, err
	}
	return s.deps.Children.GetDetail(ctx, property)
}

// ListMine returns a page of the owner's listings
func (s *PropertyService) ListMine(ctx context.Context, owner Actor, filter models.PropertyFilter) (models.Page[models.Property], error) {
	provider, err := s.ownerProvider(ctx, owner.ID)
	if err != nil {
		return models.Page[models.Property]{}, err
	}
	filter.ProviderID = provider.ID.String()
	return s.deps.Properties.List(ctx, filter)
}

// Delete soft-deletes one of the owner's listings
func (s *PropertyService) Delete(ctx context.Context, owner Actor, propertyID uuid.UUID) error {
	property, provider, err := s.ownedProperty(ctx, owner, propertyID)
	if err != nil {
		return err
	}
	if err := s.deps.Properties.SoftDelete(ctx, property.ID, nil); err != nil {
		if errors.Is(err, database.ErrNoRowsAffected) {
			return ErrNotFound
		}
		return err
	}

	log := s.logger.WithField("property_id", property.ID)
	if err := s.deps.Providers.IncrementCounters(ctx, provider.ID, -1, 0, 0); err != nil {
		log.WithError(err).Warn("Failed to bump listing counter")
	}
	s.unindex(ctx, property.ID, log)
	log.Info("Property deleted by owner")
	return nil
}

// MarkSalesStatus closes a published listing as sold or rented
func (s *PropertyService) MarkSalesStatus(ctx context.Context, owner Actor, propertyID uuid.UUID, req models.SalesStatusRequest) error {
	if err := validator.Struct(req); err != nil {
		return err
	}
	property, _, err := s.ownedProperty(ctx, owner, propertyID)
	if err != nil {
		return err
	}
	if property.Status != models.PropertyPublished {
		return fmt.Errorf("%w: property is %s", ErrInvalidState, property.Status)
	}
	if err := s.deps.Properties.SetStatus(ctx, property.ID, req.Status); err != nil {
		if errors.Is(err, database.ErrNoRowsAffected) {
			return fmt.Errorf("%w: property is no longer published", ErrInvalidState)
		}
		return err
	}

	log := s.logger.WithFields(logrus.Fields{"property_id": property.ID, "status": req.Status})
	s.unindex(ctx, property.ID, log)
	log.Info("Property closed")
	return nil
}

// UploadImage stores a listing photo. The stored object is deleted again
// when its record cannot be written.
func (s *PropertyService) UploadImage(ctx context.Context, owner Actor, propertyID uuid.UUID, up Upload) (*models.PropertyImage, error) {
	ext, err := checkUpload(up, imageTypes, maxImageSize)
	if err != nil {
		return nil, err
	}
	property, _, err := s.ownedProperty(ctx, owner, propertyID)
	if err != nil {
		return nil, err
	}

	objectPath := fmt.Sprintf("properties/%s/%s%s", property.ID, uuid.NewString(), ext)
	url, err := s.deps.Storage.Upload(ctx, objectPath, up.Body, up.Size, up.ContentType)
	if err != nil {
		return nil, err
	}

	image := &models.PropertyImage{PropertyID: property.ID, URL: url, StoragePath: objectPath}
	if err := s.deps.Children.AddImage(ctx, image); err != nil {
		s.discardObject(ctx, url)
		return nil, err
	}
	return image, nil
}

// DeleteImage removes an image record and its stored object
func (s *PropertyService) DeleteImage(ctx context.Context, owner Actor, propertyID, imageID uuid.UUID) error {
	image, err := s.ownedImage(ctx, owner, propertyID, imageID)
	if err != nil {
		return err
	}
	if err := s.deps.Children.DeleteImage(ctx, image.ID); err != nil {
		if errors.Is(err, database.ErrNoRowsAffected) {
			return ErrNotFound
		}
		return err
	}
	s.discardObject(ctx, image.URL)
	return nil
}

// SetPrimaryImage makes one image the listing's cover
func (s *PropertyService) SetPrimaryImage(ctx context.Context, owner Actor, propertyID, imageID uuid.UUID) error {
	image, err := s.ownedImage(ctx, owner, propertyID, imageID)
	if err != nil {
		return err
	}
	return s.deps.Children.SetPrimaryImage(ctx, propertyID, image.ID)
}

// UploadDocument attaches a deed or survey file to a land listing
func (s *PropertyService) UploadDocument(ctx context.Context, owner Actor, propertyID uuid.UUID, name string, up Upload) (*models.LandDocument, error) {
	ext, err := checkUpload(up, documentTypes, maxDocumentSize)
	if err != nil {
		return nil, err
	}
	property, _, err := s.ownedProperty(ctx, owner, propertyID)
	if err != nil {
		return nil, err
	}
	if property.Type != models.PropertyLand {
		return nil, fmt.Errorf("%w: documents are only kept for land listings", ErrInvalidState)
	}
	if name == "" {
		name = up.Filename
	}

	objectPath := fmt.Sprintf("documents/%s/%s%s", property.ID, uuid.NewString(), ext)
	url, err := s.deps.Storage.Upload(ctx, objectPath, up.Body, up.Size, up.ContentType)
	if err != nil {
		return nil, err
	}

	doc := &models.LandDocument{PropertyID: property.ID, Name: name, URL: url, StoragePath: objectPath}
	if err := s.deps.Children.AddDocument(ctx, doc); err != nil {
		s.discardObject(ctx, url)
		return nil, err
	}
	return doc, nil
}

func (s *PropertyService) writeChildren(ctx context.Context, propertyID uuid.UUID, req models.PropertyRequest, log *logrus.Entry) {
	children := s.deps.Children
	warn := func(what string, err error) {
		if err != nil {
			log.WithError(err).Warnf("Failed to save %s", what)
		}
	}

	if req.Location != nil {
		req.Location.PropertyID = propertyID
		warn("location", children.UpsertLocation(ctx, req.Location))
	}
	if req.Features != nil {
		req.Features.PropertyID = propertyID
		warn("features", children.UpsertFeatures(ctx, req.Features))
	}
	warn("amenities", children.ReplaceAmenities(ctx, propertyID, req.Amenities))
	warn("utilities", children.ReplaceUtilities(ctx, propertyID, req.Utilities))

	switch {
	case req.Type == models.PropertyLand && req.Land != nil:
		req.Land.PropertyID = propertyID
		warn("land details", children.UpsertLandDetails(ctx, req.Land))
	case req.Type == models.PropertyCommercial && req.Commercial != nil:
		req.Commercial.PropertyID = propertyID
		warn("commercial details", children.UpsertCommercialDetails(ctx, req.Commercial))
	}
}

func (s *PropertyService) notifySubmitted(ctx context.Context, provider *models.ProviderWithAccount, targetID uuid.UUID, title string, targetType models.TargetType, log *logrus.Entry) {
	err := s.deps.Notifications.NotifyAdmins(ctx, AdminNotice{
		Type:       models.NotificationListingSubmitted,
		Title:      "New listing awaiting review",
		Message:    fmt.Sprintf("%s submitted %q for review.", provider.BusinessName, title),
		Severity:   models.SeverityInfo,
		TargetType: targetType,
		TargetID:   targetID,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to notify admins of submission")
		return
	}
	publishChange(ctx, s.deps.Publisher, realtime.ChannelSystemNotifications, targetID, log)
}

func (s *PropertyService) reindex(ctx context.Context, property *models.Property, log *logrus.Entry) {
	if s.deps.Index == nil {
		return
	}
	if err := s.deps.Index.IndexProperty(ctx, property); err != nil {
		log.WithError(err).Warn("Failed to refresh search index")
	}
}

func (s *PropertyService) unindex(ctx context.Context, id uuid.UUID, log *logrus.Entry) {
	if s.deps.Index == nil {
		return
	}
	if err := s.deps.Index.RemoveProperty(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to remove listing from search index")
	}
}

func (s *PropertyService) discardObject(ctx context.Context, url string) {
	if err := s.deps.Storage.Delete(ctx, url); err != nil {
		s.logger.WithError(err).WithField("url", url).Warn("Failed to delete orphaned upload")
	}
}

func (s *PropertyService) ownerProvider(ctx context.Context, accountID uuid.UUID) (*models.ProviderWithAccount, error) {
	return ownerProvider(ctx, s.deps.Providers, accountID)
}

// ownedProperty loads a listing of the owner; other owners' listings are ErrNotFound
func (s *PropertyService) ownedProperty(ctx context.Context, owner Actor, propertyID uuid.UUID) (*models.Property, *models.ProviderWithAccount, error) {
	provider, err := s.ownerProvider(ctx, owner.ID)
	if err != nil {
		return nil, nil, err
	}
	property, err := s.deps.Properties.GetByID(ctx, propertyID)
	if err != nil {
		return nil, nil, err
	}
	if property == nil || property.ProviderID == nil || *property.ProviderID != provider.ID {
		return nil, nil, ErrNotFound
	}
	return property, provider, nil
}

func (s *PropertyService) ownedImage(ctx context.Context, owner Actor, propertyID, imageID uuid.UUID) (*models.PropertyImage, error) {
	if _, _, err := s.ownedProperty(ctx, owner, propertyID); err != nil {
		return nil, err
	}
	image, err := s.deps.Children.GetImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if image == nil || image.PropertyID != propertyID {
		return nil, ErrNotFound
	}
	return image, nil
}

func ownerProvider(ctx context.Context, providers *database.ProviderRepository, accountID uuid.UUID) (*models.ProviderWithAccount, error) {
	provider, err := providers.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("provider profile: %w", ErrNotFound)
	}
	return provider, nil
}

func checkUpload(up Upload, allowed map[string]string, maxSize int64) (string, error) {
	ext, ok := allowed[up.ContentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, up.ContentType)
	}
	if up.Size <= 0 {
		return "", ErrEmptyFile
	}
	if up.Size > maxSize {
		return "", fmt.Errorf("%w: limit is %d MB", ErrFileTooLarge, maxSize>>20)
	}
	return ext, nil
}

func publishChange(ctx context.Context, publisher realtime.Publisher, channel string, recordID uuid.UUID, log *logrus.Entry) {
	if publisher == nil {
		return
	}
	ev := realtime.Event{Table: channel, Op: realtime.OpInsert, RecordID: recordID.String()}
	if err := publisher.Publish(ctx, channel, ev); err != nil {
		log.WithError(err).Warn("Change feed publish failed")
	}
}
