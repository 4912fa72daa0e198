package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/estatehub/marketplace-backend/internal/realtime"
	"github.com/estatehub/marketplace-backend/pkg/validator"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// PlanService is the provider side of architectural plans
type PlanService struct {
	plans         *database.PlanRepository
	providers     *database.ProviderRepository
	notifications *NotificationService
	publisher     realtime.Publisher
	rewards       *GamificationService
	logger        *logrus.Logger
}

// NewPlanService creates a new plan service. publisher and rewards may be nil.
func NewPlanService(
	plans *database.PlanRepository,
	providers *database.ProviderRepository,
	notifications *NotificationService,
	publisher realtime.Publisher,
	rewards *GamificationService,
	logger *logrus.Logger,
) *PlanService {
	return &PlanService{
		plans:         plans,
		providers:     providers,
		notifications: notifications,
		publisher:     publisher,
		rewards:       rewards,
		logger:        logger,
	}
}

// Create stores a plan as a draft, or pending when submitted
func (s *PlanService) Create(ctx context.Context, owner Actor, req models.PlanRequest) (*models.ArchitecturalPlan, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	provider, err := ownerProvider(ctx, s.providers, owner.ID)
	if err != nil {
		return nil, err
	}

	status := models.PlanDraft
	if req.Submit {
		status = models.PlanPending
	}
	plan := &models.ArchitecturalPlan{
		ProviderID:  &provider.ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Status:      status,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		Area:        req.Area,
		Price:       req.Price,
		Features:    pq.StringArray(req.Features),
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{"plan_id": plan.ID, "provider_id": provider.ID})
	if req.Submit {
		err := s.notifications.NotifyAdmins(ctx, AdminNotice{
			Type:       models.NotificationListingSubmitted,
			Title:      "New plan awaiting review",
			Message:    fmt.Sprintf("%s submitted the plan %q for review.", provider.BusinessName, plan.Title),
			Severity:   models.SeverityInfo,
			TargetType: models.TargetPlan,
			TargetID:   plan.ID,
		})
		if err != nil {
			log.WithError(err).Warn("Failed to notify admins of submission")
		} else {
			publishChange(ctx, s.publisher, realtime.ChannelSystemNotifications, plan.ID, log)
		}
	}
	s.rewards.reward(ctx, owner.ID, XPPlanCreated, "plan_created", "first_plan")

	log.WithField("status", plan.Status).Info("Plan created")
	return plan, nil
}

// Update edits one of the owner's plans. Archived plans are read-only.
func (s *PlanService) Update(ctx context.Context, owner Actor, planID uuid.UUID, req models.PlanRequest) (*models.ArchitecturalPlan, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	plan, err := s.owned(ctx, owner, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status == models.PlanArchived {
		return nil, fmt.Errorf("%w: plan is archived", ErrInvalidState)
	}

	plan.Title = req.Title
	plan.Description = req.Description
	plan.Category = req.Category
	plan.Bedrooms = req.Bedrooms
	plan.Bathrooms = req.Bathrooms
	plan.Area = req.Area
	plan.Price = req.Price
	plan.Features = pq.StringArray(req.Features)
	if err := s.plans.Update(ctx, plan); err != nil {
		if errors.Is(err, database.ErrNoRowsAffected) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return plan, nil
}

// Get returns one of the owner's plans in any state
func (s *PlanService) Get(ctx context.Context, owner Actor, planID uuid.UUID) (*models.ArchitecturalPlan, error) {
	return s.owned(ctx, owner, planID)
}

// ListMine returns a page of the owner's plans
func (s *PlanService) ListMine(ctx context.Context, owner Actor, filter models.PlanFilter) (models.Page[models.ArchitecturalPlan], error) {
	provider, err := ownerProvider(ctx, s.providers, owner.ID)
	if err != nil {
		return models.Page[models.ArchitecturalPlan]{}, err
	}
	filter.ProviderID = provider.ID.String()
	return s.plans.List(ctx, filter)
}

// Delete soft-deletes one of the owner's plans
func (s *PlanService) Delete(ctx context.Context, owner Actor, planID uuid.UUID) error {
	plan, err := s.owned(ctx, owner, planID)
	if err != nil {
		return err
	}
	if err := s.plans.SoftDelete(ctx, plan.ID); err != nil {
		if errors.Is(err, database.ErrNoRowsAffected) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *PlanService) owned(ctx context.Context, owner Actor, planID uuid.UUID) (*models.ArchitecturalPlan, error) {
	provider, err := ownerProvider(ctx, s.providers, owner.ID)
	if err != nil {
		return nil, err
	}
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil || plan.ProviderID == nil || *plan.ProviderID != provider.ID {
		return nil, ErrNotFound
	}
	return plan, nil
}
