package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/estatehub/marketplace-backend/internal/realtime"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ModerationDependencies wires the moderation workflow. Publisher, Index
// and Mailer are optional.
type ModerationDependencies struct {
	Accounts      *database.AccountRepository
	Providers     *database.ProviderRepository
	Properties    *database.PropertyRepository
	Plans         *database.PlanRepository
	RPC           *database.RPCRepository
	Audit         *AuditService
	Notifications *NotificationService
	Publisher     realtime.Publisher
	Index         ListingIndex
	Mailer        Mailer
	UseRPC        bool
	Logger        *logrus.Logger
}

// ModerationService carries out admin state transitions on accounts,
// providers, properties and plans.
//
// Each mutation first tries the matching stored procedure, which writes the
// state change, activity row and owner notification atomically. If that
// fails the same change is applied client side: the row update decides the
// result, the log and notification writes are best effort.
type ModerationService struct {
	deps   ModerationDependencies
	logger *logrus.Logger
}

// NewModerationService creates a new moderation service
func NewModerationService(deps ModerationDependencies) *ModerationService {
	return &ModerationService{deps: deps, logger: deps.Logger}
}

// recipient is the owner who hears about a moderation decision
type recipient struct {
	accountID uuid.UUID
	email     string
	name      string
}

// subject is the loaded moderation target
type subject struct {
	label       string
	status      string
	accountID   uuid.UUID
	targetEmail *string
	owner       *recipient
	property    *models.Property
}

type moderationAction struct {
	op         string
	verb       string
	rpc        string
	rpcArgs    []interface{}
	targetType models.TargetType
	targetID   uuid.UUID
	activity   models.ActivityAction
	details    map[string]interface{}
	success    string

	load    func(ctx context.Context) (*subject, error)
	allowed func(*subject) bool
	update  func(ctx context.Context, subj *subject) error
	notice  func(*subject) *OwnerNotice
	after   func(ctx context.Context, subj *subject) error
}

// ApproveAccount moves a pending or rejected account to approved
func (s *ModerationService) ApproveAccount(ctx context.Context, actor Actor, accountID uuid.UUID) models.ActionResult {
	return s.run(ctx, actor, moderationAction{
		op: "approve_user", verb: "approve", rpc: database.RPCApproveUser, rpcArgs: []interface{}{accountID, actor.ID},
		targetType: models.TargetUser, targetID: accountID, activity: models.ActionApprove,
		success: "User approved successfully",
		load:    s.loadAccount(accountID),
		allowed: statusIn(models.AccountPending, models.AccountRejected, models.AccountEmailUnconfirmed),
		update: func(ctx context.Context, _ *subject) error {
			return s.deps.Accounts.Approve(ctx, accountID, actor.ID)
		},
		notice: noticeOf(models.NotificationAccountApproved, "Account approved", func(*subject) string {
			return "Your account has been approved."
		}),
	})
}

// RejectAccount moves a pending account to rejected
func (s *ModerationService) RejectAccount(ctx context.Context, actor Actor, accountID uuid.UUID, reason string) models.ActionResult {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return reasonRequired()
	}
	return s.run(ctx, actor, moderationAction{
		op: "reject_user", verb: "reject", rpc: database.RPCRejectUser, rpcArgs: []interface{}{accountID, actor.ID, reason},
		targetType: models.TargetUser, targetID: accountID, activity: models.ActionReject,
		details: map[string]interface{}{"reason": reason},
		success: "User rejected",
		load:    s.loadAccount(accountID),
		allowed: statusIn(models.AccountPending, models.AccountEmailUnconfirmed),
		update: func(ctx context.Context, _ *subject) error {
			return s.deps.Accounts.Reject(ctx, accountID, actor.ID, reason)
		},
		notice: noticeOf(models.NotificationAccountRejected, "Account rejected", func(*subject) string {
			return "Your account was rejected: " + reason
		}),
	})
}

// SuspendAccount blocks an approved account from signing in and acting
func (s *ModerationService) SuspendAccount(ctx context.Context, actor Actor, accountID uuid.UUID, reason string) models.ActionResult {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return reasonRequired()
	}
	if accountID == actor.ID {
		return models.Failed(models.CodeValidationError, "You cannot suspend your own account", nil)
	}
	return s.run(ctx, actor, moderationAction{
		op: "suspend_user", verb: "suspend", rpc: database.RPCSuspendUser, rpcArgs: []interface{}{accountID, actor.ID, reason},
		targetType: models.TargetUser, targetID: accountID, activity: models.ActionSuspend,
		details: map[string]interface{}{"reason": reason},
		success: "User suspended",
		load:    s.loadAccount(accountID),
		allowed: statusIn(models.AccountApproved),
		update: func(ctx context.Context, _ *subject) error {
			return s.deps.Accounts.Suspend(ctx, accountID, reason)
		},
		notice: noticeOf(models.NotificationAccountSuspended, "Account suspended", func(*subject) string {
			return "Your account was suspended: " + reason
		}),
	})
}

// ActivateAccount returns a suspended account to approved
func (s *ModerationService) ActivateAccount(ctx context.Context, actor Actor, accountID uuid.UUID) models.ActionResult {
	return s.run(ctx, actor, moderationAction{
		op: "activate_user", verb: "activate", rpc: database.RPCActivateUser, rpcArgs: []interface{}{accountID, actor.ID},
		targetType: models.TargetUser, targetID: accountID, activity: models.ActionActivate,
		success: "User reactivated",
		load:    s.loadAccount(accountID),
		allowed: statusIn(models.AccountSuspended),
		update: func(ctx context.Context, _ *subject) error {
			return s.deps.Accounts.Activate(ctx, accountID)
		},
		notice: noticeOf(models.NotificationAccountActivated, "Account reactivated", func(*subject) string {
			return "Your account has been reactivated."
		}),
	})
}

// DeleteAccount soft-deletes an account; the row is kept
func (s *ModerationService) DeleteAccount(ctx context.Context, actor Actor, accountID uuid.UUID, reason *string) models.ActionResult {
	if accountID == actor.ID {
		return models.Failed(models.CodeValidationError, "You cannot delete your own account", nil)
	}
	reason = trimmedOrNil(reason)
	return s.run(ctx, actor, moderationAction{
		op: "delete_user", verb: "delete", rpc: database.RPCDeleteUser, rpcArgs: []interface{}{accountID, actor.ID, reason},
		targetType: models.TargetUser, targetID: accountID, activity: models.ActionDelete,
		details: reasonDetails(reason),
		success: "User deleted",
		load:    s.loadAccount(accountID),
		update: func(ctx context.Context, _ *subject) error {
			return s.deps.Accounts.SoftDelete(ctx, accountID, reason)
		},
	})
}

// ApproveProvider approves the provider's linked account and stamps the approver
func (s *ModerationService) ApproveProvider(ctx context.Context, actor Actor, providerID uuid.UUID) models.ActionResult {
	return s.run(ctx, actor, moderationAction{
		op: "approve_provider", verb: "approve", rpc: database.RPCApproveProvider, rpcArgs: []interface{}{providerID, actor.ID},
		targetType: models.TargetProvider, targetID: providerID, activity: models.ActionApprove,
		success: "Provider approved successfully",
		load:    s.loadProvider(providerID),
		allowed: statusIn(models.AccountPending, models.AccountRejected, models.AccountEmailUnconfirmed),
		update: func(ctx context.Context, subj *subject) error {
			if err := s.deps.Accounts.Approve(ctx, subj.accountID, actor.ID); err != nil {
				return err
			}
			if err := s.deps.Providers.StampApproval(ctx, providerID, actor.ID); err != nil {
				s.logger.WithError(err).WithField("provider_id", providerID).Warn("Failed to stamp provider approval")
			}
			return nil
		},
		notice: noticeOf(models.NotificationProviderApproved, "Provider account approved", func(*subject) string {
			return "Your provider account has been approved. You can now publish listings."
		}),
	})
}

// RejectProvider rejects the provider's linked account and clears the approval stamp
func (s *ModerationService) RejectProvider(ctx context.Context, actor Actor, providerID uuid.UUID, reason string) models.ActionResult {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return reasonRequired()
	}
	return s.run(ctx, actor, moderationAction{
		op: "reject_provider", verb: "reject", rpc: database.RPCRejectProvider, rpcArgs: []interface{}{providerID, actor.ID, reason},
		targetType: models.TargetProvider, targetID: providerID, activity: models.ActionReject,
		details: map[string]interface{}{"reason": reason},
		success: "Provider rejected",
		load:    s.loadProvider(providerID),
		allowed: statusIn(models.AccountPending, models.AccountApproved, models.AccountSuspended, models.AccountEmailUnconfirmed),
		update: func(ctx context.Context, subj *subject) error {
			if err := s.deps.Accounts.Reject(ctx, subj.accountID, actor.ID, reason); err != nil {
				return err
			}
			if err := s.deps.Providers.ClearApproval(ctx, providerID); err != nil {
				s.logger.WithError(err).WithField("provider_id", providerID).Warn("Failed to clear provider approval")
			}
			return nil
		},
		notice: noticeOf(models.NotificationProviderRejected, "Provider account rejected", func(*subject) string {
			return "Your provider account was rejected: " + reason
		}),
	})
}

// ApproveProperty publishes a pending or rejected listing
func (s *ModerationService) ApproveProperty(ctx context.Context, actor Actor, propertyID uuid.UUID) models.ActionResult {
	return s.run(ctx, actor, moderationAction{
		op: "approve_property", verb: "approve", rpc: database.RPCApproveProperty, rpcArgs: []interface{}{propertyID, actor.ID},
		targetType: models.TargetProperty, targetID: propertyID, activity: models.ActionApprove,
		success: "Property approved successfully",
		load:    s.loadProperty(propertyID),
		allowed: statusIn(models.PropertyPending, models.PropertyRejected, models.PropertyDraft),
		update: func(ctx context.Context, _ *subject) error {
			return s.deps.Properties.Approve(ctx, propertyID, actor.ID)
		},
		notice: noticeOf(models.NotificationPropertyApproved, "Listing approved", func(subj *subject) string {
			return fmt.Sprintf("Your listing %q is now live.", subj.label)
		}),
		after: func(ctx context.Context, subj *subject) error {
			published := *subj.property
			now := time.Now()
			published.Status = models.PropertyPublished
			published.PublishedAt = &now
			return s.deps.Index.IndexProperty(ctx, &published)
		},
	})
}

// RejectProperty rejects a pending or published listing
func (s *ModerationService) RejectProperty(ctx context.Context, actor Actor, propertyID uuid.UUID, reason string) models.ActionResult {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return reasonRequired()
	}
	return s.run(ctx, actor, moderationAction{
		op: "reject_property", verb: "reject", rpc: database.RPCRejectProperty, rpcArgs: []interface{}{propertyID, actor.ID, reason},
		targetType: models.TargetProperty, targetID: propertyID, activity: models.ActionReject,
		details: map[string]interface{}{"reason": reason},
		success: "Property rejected",
		load:    s.loadProperty(propertyID),
		allowed: statusIn(models.PropertyPending, models.PropertyPublished),
		update: func(ctx context.Context, _ *subject) error {
			return s.deps.Properties.Reject(ctx, propertyID, actor.ID, reason)
		},
		notice: noticeOf(models.NotificationPropertyRejected, "Listing rejected", func(subj *subject) string {
			return fmt.Sprintf("Your listing %q was rejected: %s", subj.label, reason)
		}),
		after: func(ctx context.Context, _ *subject) error {
			return s.deps.Index.RemoveProperty(ctx, propertyID)
		},
	})
}

// DeleteProperty soft-deletes a listing
func (s *ModerationService) DeleteProperty(ctx context.Context, actor Actor, propertyID uuid.UUID, reason *string) models.ActionResult {
	reason = trimmedOrNil(reason)
	return s.run(ctx, actor, moderationAction{
		op: "delete_property", verb: "delete", rpc: database.RPCDeleteProperty, rpcArgs: []interface{}{propertyID, actor.ID, reason},
		targetType: models.TargetProperty, targetID: propertyID, activity: models.ActionDelete,
		details: reasonDetails(reason),
		success: "Property deleted",
		load:    s.loadProperty(propertyID),
		update: func(ctx context.Context, _ *subject) error {
			return s.deps.Properties.SoftDelete(ctx, propertyID, reason)
		},
		notice: noticeOf(models.NotificationPropertyDeleted, "Listing removed", func(subj *subject) string {
			return fmt.Sprintf("Your listing %q was removed.", subj.label)
		}),
		after: func(ctx context.Context, _ *subject) error {
			return s.deps.Index.RemoveProperty(ctx, propertyID)
		},
	})
}

// FeatureProperty sets or clears the featured flag. Only published listings can be featured.
func (s *ModerationService) FeatureProperty(ctx context.Context, actor Actor, propertyID uuid.UUID, featured bool) models.ActionResult {
	action, success := models.ActionFeature, "Property featured"
	if !featured {
		action, success = models.ActionUnfeature, "Property unfeatured"
	}
	a := moderationAction{
		op: string(action) + "_property", verb: string(action),
		targetType: models.TargetProperty, targetID: propertyID, activity: action,
		details: map[string]interface{}{"featured": featured},
		success: success,
		load:    s.loadProperty(propertyID),
		update: func(ctx context.Context, _ *subject) error {
			return s.deps.Properties.SetFeatured(ctx, propertyID, featured)
		},
		after: func(ctx context.Context, subj *subject) error {
			updated := *subj.property
			updated.IsFeatured = featured
			return s.deps.Index.IndexProperty(ctx, &updated)
		},
	}
	if featured {
		a.allowed = statusIn(models.PropertyPublished)
	}
	return s.run(ctx, actor, a)
}

// ApprovePlan publishes an architectural plan
func (s *ModerationService) ApprovePlan(ctx context.Context, actor Actor, planID uuid.UUID) models.ActionResult {
	return s.run(ctx, actor, moderationAction{
		op: "approve_plan", verb: "approve", rpc: database.RPCApprovePlan, rpcArgs: []interface{}{planID, actor.ID},
		targetType: models.TargetPlan, targetID: planID, activity: models.ActionApprove,
		success: "Plan approved successfully",
		load:    s.loadPlan(planID),
		allowed: statusIn(models.PlanPending, models.PlanRejected, models.PlanApproved, models.PlanDraft),
		update: func(ctx context.Context, _ *subject) error {
			return s.deps.Plans.Approve(ctx, planID, actor.ID)
		},
		notice: noticeOf(models.NotificationPlanApproved, "Plan approved", func(subj *subject) string {
			return fmt.Sprintf("Your plan %q is now published.", subj.label)
		}),
	})
}

// RejectPlan rejects an architectural plan
func (s *ModerationService) RejectPlan(ctx context.Context, actor Actor, planID uuid.UUID, reason string) models.ActionResult {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return reasonRequired()
	}
	return s.run(ctx, actor, moderationAction{
		op: "reject_plan", verb: "reject", rpc: database.RPCRejectPlan, rpcArgs: []interface{}{planID, actor.ID, reason},
		targetType: models.TargetPlan, targetID: planID, activity: models.ActionReject,
		details: map[string]interface{}{"reason": reason},
		success: "Plan rejected",
		load:    s.loadPlan(planID),
		allowed: statusIn(models.PlanPending, models.PlanApproved, models.PlanPublished, models.PlanDraft),
		update: func(ctx context.Context, _ *subject) error {
			return s.deps.Plans.Reject(ctx, planID, actor.ID, reason)
		},
		notice: noticeOf(models.NotificationPlanRejected, "Plan rejected", func(subj *subject) string {
			return fmt.Sprintf("Your plan %q was rejected: %s", subj.label, reason)
		}),
	})
}

// ArchivePlan removes a published plan from the catalogue
func (s *ModerationService) ArchivePlan(ctx context.Context, actor Actor, planID uuid.UUID) models.ActionResult {
	return s.run(ctx, actor, moderationAction{
		op: "archive_plan", verb: "archive",
		targetType: models.TargetPlan, targetID: planID, activity: models.ActionArchive,
		success: "Plan archived",
		load:    s.loadPlan(planID),
		allowed: statusIn(models.PlanPublished, models.PlanApproved),
		update: func(ctx context.Context, _ *subject) error {
			return s.deps.Plans.Archive(ctx, planID)
		},
	})
}

// ResubmitProperty returns the owner's rejected or draft listing to the review queue
func (s *ModerationService) ResubmitProperty(ctx context.Context, owner Actor, propertyID uuid.UUID) models.ActionResult {
	property, err := s.deps.Properties.GetByID(ctx, propertyID)
	if err != nil {
		return models.Failed(models.CodeUpdateFailed, "Failed to load property", err)
	}
	if property == nil {
		return models.Failed(models.CodeNotFound, "Property not found", nil)
	}
	return s.resubmit(ctx, owner, resubmission{
		targetType: models.TargetProperty,
		targetID:   propertyID,
		providerID: property.ProviderID,
		status:     string(property.Status),
		title:      property.Title,
		update:     s.deps.Properties.Resubmit,
	})
}

// ResubmitPlan returns the owner's rejected or draft plan to the review queue
func (s *ModerationService) ResubmitPlan(ctx context.Context, owner Actor, planID uuid.UUID) models.ActionResult {
	plan, err := s.deps.Plans.GetByID(ctx, planID)
	if err != nil {
		return models.Failed(models.CodeUpdateFailed, "Failed to load plan", err)
	}
	if plan == nil {
		return models.Failed(models.CodeNotFound, "Plan not found", nil)
	}
	return s.resubmit(ctx, owner, resubmission{
		targetType: models.TargetPlan,
		targetID:   planID,
		providerID: plan.ProviderID,
		status:     string(plan.Status),
		title:      plan.Title,
		update:     s.deps.Plans.Resubmit,
	})
}

type resubmission struct {
	targetType models.TargetType
	targetID   uuid.UUID
	providerID *uuid.UUID
	status     string
	title      string
	update     func(ctx context.Context, id uuid.UUID) error
}

func (s *ModerationService) resubmit(ctx context.Context, owner Actor, r resubmission) models.ActionResult {
	log := s.logger.WithFields(logrus.Fields{"operation": "resubmit_" + string(r.targetType), "target_id": r.targetID, "account_id": owner.ID})
	notFound := models.Failed(models.CodeNotFound, titleCase(r.targetType)+" not found", nil)

	provider, err := s.deps.Providers.GetByAccountID(ctx, owner.ID)
	if err != nil {
		return models.Failed(models.CodeUpdateFailed, "Failed to load provider", err)
	}
	// listings of other owners are reported as missing
	if provider == nil || r.providerID == nil || *r.providerID != provider.ID {
		return notFound
	}
	if r.status != "rejected" && r.status != "draft" {
		return models.Failed(models.CodeInvalidTransition, fmt.Sprintf("Cannot resubmit: %s is %s", r.targetType, r.status), nil)
	}

	if err := r.update(ctx, r.targetID); err != nil {
		if errors.Is(err, database.ErrNoRowsAffected) {
			return notFound
		}
		log.WithError(err).Error("Resubmission failed")
		return models.Failed(models.CodeUpdateFailed, "Failed to resubmit "+string(r.targetType), err)
	}

	err = s.deps.Notifications.NotifyAdmins(ctx, AdminNotice{
		Type:       models.NotificationResubmitted,
		Title:      "Listing resubmitted",
		Message:    fmt.Sprintf("%s resubmitted %q for review.", provider.BusinessName, r.title),
		Severity:   models.SeverityInfo,
		TargetType: r.targetType,
		TargetID:   r.targetID,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to notify admins of resubmission")
	} else {
		s.publish(ctx, realtime.ChannelSystemNotifications, r.targetID, log)
	}

	log.Info("Listing resubmitted")
	return models.Succeeded(titleCase(r.targetType)+" resubmitted for review", models.PathFallback)
}

func (s *ModerationService) run(ctx context.Context, actor Actor, a moderationAction) models.ActionResult {
	log := s.logger.WithFields(logrus.Fields{"operation": a.op, "target_id": a.targetID, "admin_id": actor.ID})

	subj, err := a.load(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load moderation target")
		return models.Failed(models.CodeUpdateFailed, "Failed to load "+string(a.targetType), err)
	}
	if subj == nil {
		return models.Failed(models.CodeNotFound, titleCase(a.targetType)+" not found", nil)
	}
	if a.allowed != nil && !a.allowed(subj) {
		return models.Failed(models.CodeInvalidTransition,
			fmt.Sprintf("Cannot %s: %s is %s", a.verb, a.targetType, subj.status), nil)
	}

	clientSide := func(ctx context.Context) (models.ActionResult, error) {
		return s.applyClientSide(ctx, actor, a, subj, log), nil
	}

	var result models.ActionResult
	if s.deps.UseRPC && a.rpc != "" {
		result, err = WithFallback(ctx, s.logger, a.op, func(ctx context.Context) (models.ActionResult, error) {
			if err := s.deps.RPC.Call(ctx, a.rpc, a.rpcArgs...); err != nil {
				if database.IsUndefinedFunction(err) {
					log.WithField("procedure", a.rpc).Info("Moderation procedure not deployed")
				}
				return models.ActionResult{}, err
			}
			return models.Succeeded(a.success, models.PathRPC), nil
		}, clientSide)
		if err != nil {
			return models.Failed(models.CodeUpdateFailed, "Failed to "+a.verb+" "+string(a.targetType), err)
		}
	} else {
		result, _ = clientSide(ctx)
	}

	if result.Success {
		log.WithField("path", result.Path).Info("Moderation action applied")
		s.afterEffects(ctx, a, subj, log)
	}
	return result
}

func (s *ModerationService) applyClientSide(ctx context.Context, actor Actor, a moderationAction, subj *subject, log *logrus.Entry) models.ActionResult {
	if err := a.update(ctx, subj); err != nil {
		if errors.Is(err, database.ErrNoRowsAffected) {
			return models.Failed(models.CodeNotFound, titleCase(a.targetType)+" not found", nil)
		}
		log.WithError(err).Error("Moderation update failed")
		return models.Failed(models.CodeUpdateFailed, "Failed to "+a.verb+" "+string(a.targetType), err)
	}

	details := map[string]interface{}{}
	for k, v := range a.details {
		details[k] = v
	}
	if subj.property != nil {
		details["title"] = subj.label
	}
	err := s.deps.Audit.LogAdminAction(ctx, actor, AuditEvent{
		Action:      a.activity,
		TargetType:  a.targetType,
		TargetID:    a.targetID,
		TargetEmail: subj.targetEmail,
		Details:     details,
	})
	if err != nil {
		log.WithError(err).Warn("Activity log write failed")
	}

	if n := a.ownerNotice(subj); n != nil {
		if err := s.deps.Notifications.NotifyOwner(ctx, *n); err != nil {
			log.WithError(err).Warn("Owner notification failed")
		}
	}

	return models.Succeeded(a.success, models.PathFallback)
}

// afterEffects never change the reported result
func (s *ModerationService) afterEffects(ctx context.Context, a moderationAction, subj *subject, log *logrus.Entry) {
	s.publish(ctx, realtime.ChannelActivityLogs, a.targetID, log)

	if a.after != nil && s.deps.Index != nil {
		if err := a.after(ctx, subj); err != nil {
			log.WithError(err).Warn("Search index update failed")
		}
	}

	if s.deps.Mailer != nil {
		if n := a.ownerNotice(subj); n != nil && subj.owner.email != "" {
			if err := s.deps.Mailer.Send(ctx, subj.owner.email, subj.owner.name, n.Title, n.Message); err != nil {
				log.WithError(err).Warn("Owner e-mail copy failed")
			}
		}
	}
}

func (a moderationAction) ownerNotice(subj *subject) *OwnerNotice {
	if a.notice == nil {
		return nil
	}
	n := a.notice(subj)
	if n != nil {
		n.TargetType = a.targetType
		n.TargetID = a.targetID
	}
	return n
}

func (s *ModerationService) publish(ctx context.Context, channel string, recordID uuid.UUID, log *logrus.Entry) {
	publishChange(ctx, s.deps.Publisher, channel, recordID, log)
}

func (s *ModerationService) loadAccount(id uuid.UUID) func(context.Context) (*subject, error) {
	return func(ctx context.Context) (*subject, error) {
		account, err := s.deps.Accounts.GetByID(ctx, id)
		if err != nil || account == nil || account.IsDeleted() {
			return nil, err
		}
		email := account.Email
		return &subject{
			label:       account.Email,
			status:      string(account.Status),
			accountID:   account.ID,
			targetEmail: &email,
			owner:       &recipient{accountID: account.ID, email: account.Email, name: account.DisplayName},
		}, nil
	}
}

func (s *ModerationService) loadProvider(id uuid.UUID) func(context.Context) (*subject, error) {
	return func(ctx context.Context) (*subject, error) {
		provider, err := s.deps.Providers.GetByID(ctx, id)
		if err != nil || provider == nil {
			return nil, err
		}
		email := provider.AccountEmail
		return &subject{
			label:       provider.BusinessName,
			status:      string(provider.AccountStatus),
			accountID:   provider.AccountID,
			targetEmail: &email,
			owner:       &recipient{accountID: provider.AccountID, email: provider.AccountEmail, name: provider.DisplayName},
		}, nil
	}
}

func (s *ModerationService) loadProperty(id uuid.UUID) func(context.Context) (*subject, error) {
	return func(ctx context.Context) (*subject, error) {
		property, err := s.deps.Properties.GetByID(ctx, id)
		if err != nil || property == nil {
			return nil, err
		}
		return &subject{
			label:    property.Title,
			status:   string(property.Status),
			owner:    s.listingOwner(ctx, property.ProviderID),
			property: property,
		}, nil
	}
}

func (s *ModerationService) loadPlan(id uuid.UUID) func(context.Context) (*subject, error) {
	return func(ctx context.Context) (*subject, error) {
		plan, err := s.deps.Plans.GetByID(ctx, id)
		if err != nil || plan == nil {
			return nil, err
		}
		return &subject{
			label:  plan.Title,
			status: string(plan.Status),
			owner:  s.listingOwner(ctx, plan.ProviderID),
		}, nil
	}
}

// listingOwner resolves the account behind a provider id. Admin-authored
// listings have no owner; a failed lookup only costs the notification.
func (s *ModerationService) listingOwner(ctx context.Context, providerID *uuid.UUID) *recipient {
	if providerID == nil {
		return nil
	}
	provider, err := s.deps.Providers.GetByID(ctx, *providerID)
	if err != nil {
		s.logger.WithError(err).WithField("provider_id", *providerID).Warn("Failed to resolve listing owner")
		return nil
	}
	if provider == nil {
		return nil
	}
	return &recipient{accountID: provider.AccountID, email: provider.AccountEmail, name: provider.DisplayName}
}

func noticeOf(kind, title string, message func(*subject) string) func(*subject) *OwnerNotice {
	return func(subj *subject) *OwnerNotice {
		if subj.owner == nil {
			return nil
		}
		return &OwnerNotice{AccountID: subj.owner.accountID, Type: kind, Title: title, Message: message(subj)}
	}
}

type statusString interface {
	~string
}

func statusIn[S statusString](allowed ...S) func(*subject) bool {
	return func(subj *subject) bool {
		for _, st := range allowed {
			if subj.status == string(st) {
				return true
			}
		}
		return false
	}
}

func reasonRequired() models.ActionResult {
	return models.Failed(models.CodeValidationError, "A reason is required", nil)
}

func reasonDetails(reason *string) map[string]interface{} {
	if reason == nil {
		return nil
	}
	return map[string]interface{}{"reason": *reason}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func titleCase(t models.TargetType) string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}
