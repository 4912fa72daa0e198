package services

import (
	"context"
	"fmt"

	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/estatehub/marketplace-backend/pkg/sms"
	"github.com/estatehub/marketplace-backend/pkg/validator"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CatalogueDependencies wires a CatalogueService
type CatalogueDependencies struct {
	Properties    *database.PropertyRepository
	Children      *database.PropertyChildRepository
	Engagement    *database.EngagementRepository
	Plans         *database.PlanRepository
	Providers     *database.ProviderRepository
	Search        *SearchService
	Notifications *NotificationService
	Mailer        Mailer               // optional
	SMS           sms.Gateway          // optional, texts the owner's business phone
	Limiter       *RateLimitService    // optional
	Rewards       *GamificationService // optional
	Logger        *logrus.Logger
}

// CatalogueService serves the public marketplace: published listings and plans,
// detail views and inquiries
type CatalogueService struct {
	deps   CatalogueDependencies
	logger *logrus.Logger
}

// NewCatalogueService creates a new catalogue service
func NewCatalogueService(deps CatalogueDependencies) *CatalogueService {
	return &CatalogueService{deps: deps, logger: deps.Logger}
}

// SearchProperties returns a page of published listings
func (s *CatalogueService) SearchProperties(ctx context.Context, filter models.PropertyFilter) (models.Page[models.Property], error) {
	filter.Statuses = []string{string(models.PropertyPublished)}
	return s.deps.Search.Search(ctx, filter)
}

// GetProperty returns a published listing with its children and records the view
func (s *CatalogueService) GetProperty(ctx context.Context, propertyID uuid.UUID, viewerID *uuid.UUID, ipAddress string) (*models.PropertyDetail, error) {
	property, err := s.liveProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	detail, err := s.deps.Children.GetDetail(ctx, property)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithField("property_id", property.ID)
	if err := s.deps.Engagement.RecordView(ctx, property.ID, viewerID, ipAddress); err != nil {
		log.WithError(err).Warn("Failed to record property view")
		return detail, nil
	}
	detail.ViewCount++
	if property.ProviderID != nil {
		if err := s.deps.Providers.IncrementCounters(ctx, *property.ProviderID, 0, 1, 0); err != nil {
			log.WithError(err).Warn("Failed to bump provider view counter")
		}
	}
	return detail, nil
}

// SubmitInquiry stores a buyer or tenant message and notifies the listing owner
func (s *CatalogueService) SubmitInquiry(ctx context.Context, propertyID uuid.UUID, sender Actor, req models.InquiryRequest) (*models.PropertyInquiry, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	attempt := map[string]string{"ip": sender.IPAddress}
	if s.deps.Limiter != nil {
		if err := s.deps.Limiter.Check(ctx, RateActionInquiry, attempt); err != nil {
			return nil, err
		}
	}

	property, err := s.liveProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	inquiry := &models.PropertyInquiry{
		PropertyID: property.ID,
		Name:       req.Name,
		Email:      normalizeEmail(req.Email),
		Message:    req.Message,
	}
	if sender.ID != uuid.Nil {
		id := sender.ID
		inquiry.AccountID = &id
	}
	if req.Phone != "" {
		if phone, err := validator.ValidatePhone(req.Phone); err == nil {
			inquiry.Phone = &phone
		}
	}
	if err := s.deps.Engagement.CreateInquiry(ctx, inquiry); err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{"property_id": property.ID, "inquiry_id": inquiry.ID})
	if s.deps.Limiter != nil {
		if err := s.deps.Limiter.Record(ctx, RateActionInquiry, attempt); err != nil {
			log.WithError(err).Warn("Failed to record inquiry attempt")
		}
	}
	s.notifyOwnerOfInquiry(ctx, property, inquiry, log)

	log.Info("Inquiry submitted")
	return inquiry, nil
}

func (s *CatalogueService) notifyOwnerOfInquiry(ctx context.Context, property *models.Property, inquiry *models.PropertyInquiry, log *logrus.Entry) {
	if property.ProviderID == nil {
		return
	}
	if err := s.deps.Providers.IncrementCounters(ctx, *property.ProviderID, 0, 0, 1); err != nil {
		log.WithError(err).Warn("Failed to bump provider inquiry counter")
	}

	provider, err := s.deps.Providers.GetByID(ctx, *property.ProviderID)
	if err != nil || provider == nil {
		log.WithError(err).Warn("Listing owner not resolved, inquiry notice skipped")
		return
	}

	notice := OwnerNotice{
		AccountID:  provider.AccountID,
		Type:       models.NotificationNewInquiry,
		Title:      "New inquiry",
		Message:    fmt.Sprintf("%s asked about %q.", inquiry.Name, property.Title),
		TargetType: models.TargetProperty,
		TargetID:   property.ID,
	}
	if err := s.deps.Notifications.NotifyOwner(ctx, notice); err != nil {
		log.WithError(err).Warn("Failed to notify owner of inquiry")
	}
	if s.deps.Mailer != nil {
		body := fmt.Sprintf("%s\n\nFrom: %s <%s>\n\n%s", notice.Message, inquiry.Name, inquiry.Email, inquiry.Message)
		if err := s.deps.Mailer.Send(ctx, provider.BusinessEmail, provider.BusinessName, notice.Title, body); err != nil {
			log.WithError(err).Warn("Owner e-mail copy failed")
		}
	}
	if s.deps.SMS != nil && provider.BusinessPhone != nil && *provider.BusinessPhone != "" {
		text := fmt.Sprintf("EstateHub: new inquiry on %q from %s. Reply from your dashboard.", property.Title, inquiry.Name)
		if err := s.deps.SMS.Send(ctx, *provider.BusinessPhone, text); err != nil {
			log.WithError(err).WithField("gateway", s.deps.SMS.Name()).Warn("Owner SMS alert failed")
		}
	}
	s.deps.Rewards.reward(ctx, provider.AccountID, XPInquiryReceived, "inquiry_received", "first_inquiry")
}

// ProviderInquiries returns the newest inquiries on the owner's listings
func (s *CatalogueService) ProviderInquiries(ctx context.Context, owner Actor, limit int) ([]models.PropertyInquiry, error) {
	provider, err := ownerProvider(ctx, s.deps.Providers, owner.ID)
	if err != nil {
		return nil, err
	}
	return s.deps.Engagement.ListInquiriesForProvider(ctx, provider.ID, clampLimit(limit))
}

// SearchPlans returns a page of published plans
func (s *CatalogueService) SearchPlans(ctx context.Context, filter models.PlanFilter) (models.Page[models.ArchitecturalPlan], error) {
	filter.Status = string(models.PlanPublished)
	return s.deps.Plans.List(ctx, filter)
}

// GetPlan returns a published plan and bumps its view counter
func (s *CatalogueService) GetPlan(ctx context.Context, planID uuid.UUID) (*models.ArchitecturalPlan, error) {
	plan, err := s.deps.Plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil || plan.Status != models.PlanPublished {
		return nil, ErrNotFound
	}
	if err := s.deps.Plans.IncrementViews(ctx, plan.ID); err != nil {
		s.logger.WithError(err).WithField("plan_id", plan.ID).Warn("Failed to bump plan views")
	} else {
		plan.ViewCount++
	}
	return plan, nil
}

func (s *CatalogueService) liveProperty(ctx context.Context, propertyID uuid.UUID) (*models.Property, error) {
	property, err := s.deps.Properties.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if property == nil || !property.IsLive() {
		return nil, ErrNotFound
	}
	return property, nil
}
