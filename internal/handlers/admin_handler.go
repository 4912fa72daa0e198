package handlers

import (
	"net/http"

	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/middleware"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/estatehub/marketplace-backend/internal/services"
	"github.com/estatehub/marketplace-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminDependencies wires an AdminHandler. Hub and Cron may be nil.
type AdminDependencies struct {
	Moderation    *services.ModerationService
	Analytics     *services.AnalyticsService
	Notifications *services.NotificationService
	Audit         *services.AuditService
	Accounts      *database.AccountRepository
	Providers     *database.ProviderRepository
	Properties    *database.PropertyRepository
	Children      *database.PropertyChildRepository
	Plans         *database.PlanRepository
	Hub           *websocket.Hub
	Cron          *services.CronService
	AnalyticsDays int
}

// AdminHandler handles admin back-office HTTP requests
type AdminHandler struct {
	deps AdminDependencies
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(deps AdminDependencies) *AdminHandler {
	if deps.AnalyticsDays < 1 {
		deps.AnalyticsDays = 30
	}
	return &AdminHandler{deps: deps}
}

// ===================================================================
// READS
// ===================================================================

// ListAccounts handles GET /api/v1/admin/accounts
func (h *AdminHandler) ListAccounts(c *gin.Context) {
	var filter models.AccountFilter
	if !bindQuery(c, &filter) {
		return
	}
	page, err := h.deps.Accounts.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListProviders handles GET /api/v1/admin/providers
func (h *AdminHandler) ListProviders(c *gin.Context) {
	var filter models.ProviderFilter
	if !bindQuery(c, &filter) {
		return
	}
	page, err := h.deps.Providers.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListProperties handles GET /api/v1/admin/properties
func (h *AdminHandler) ListProperties(c *gin.Context) {
	var filter models.PropertyFilter
	if !bindQuery(c, &filter) {
		return
	}
	page, err := h.deps.Properties.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetProperty handles GET /api/v1/admin/properties/:id
func (h *AdminHandler) GetProperty(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	property, err := h.deps.Properties.GetByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if property == nil {
		respondError(c, services.ErrNotFound)
		return
	}
	detail, err := h.deps.Children.GetDetail(ctx, property)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ListPlans handles GET /api/v1/admin/plans
func (h *AdminHandler) ListPlans(c *gin.Context) {
	var filter models.PlanFilter
	if !bindQuery(c, &filter) {
		return
	}
	page, err := h.deps.Plans.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// History handles GET /api/v1/admin/history/:target_type/:id
func (h *AdminHandler) History(c *gin.Context) {
	targetType := models.TargetType(c.Param("target_type"))
	if _, known := models.RejectionReasons[targetType]; !known {
		badRequest(c, "Unknown target type")
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	logs, err := h.deps.Audit.History(c.Request.Context(), targetType, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": logs})
}

// RejectionReasons handles GET /api/v1/admin/rejection-reasons?target=property
func (h *AdminHandler) RejectionReasons(c *gin.Context) {
	target := c.Query("target")
	if target == "" {
		c.JSON(http.StatusOK, models.RejectionReasons)
		return
	}
	reasons, ok := models.RejectionReasons[models.TargetType(target)]
	if !ok {
		badRequest(c, "Unknown target type")
		return
	}
	c.JSON(http.StatusOK, gin.H{"target": target, "reasons": reasons})
}

// ===================================================================
// MODERATION
// ===================================================================

type moderationAction func(c *gin.Context, actor services.Actor, id uuid.UUID) models.ActionResult

// moderate parses the target id and writes the action's result
func (h *AdminHandler) moderate(action moderationAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		respondResult(c, action(c, actorFrom(c), id))
	}
}

// reason reads the optional {"reason": "..."} body
func reason(c *gin.Context) (string, bool) {
	var req models.ReasonRequest
	if c.Request.ContentLength == 0 {
		return "", true
	}
	if !bindJSON(c, &req) {
		return "", false
	}
	return req.Reason, true
}

// withReason wraps an action that takes a reason
func (h *AdminHandler) withReason(action func(c *gin.Context, actor services.Actor, id uuid.UUID, reason string) models.ActionResult) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		text, ok := reason(c)
		if !ok {
			return
		}
		respondResult(c, action(c, actorFrom(c), id, text))
	}
}

func optional(text string) *string {
	if text == "" {
		return nil
	}
	return &text
}

// ApproveAccount handles POST /api/v1/admin/accounts/:id/approve
func (h *AdminHandler) ApproveAccount() gin.HandlerFunc {
	return h.moderate(func(c *gin.Context, a services.Actor, id uuid.UUID) models.ActionResult {
		return h.deps.Moderation.ApproveAccount(c.Request.Context(), a, id)
	})
}

// RejectAccount handles POST /api/v1/admin/accounts/:id/reject
func (h *AdminHandler) RejectAccount() gin.HandlerFunc {
	return h.withReason(func(c *gin.Context, a services.Actor, id uuid.UUID, r string) models.ActionResult {
		return h.deps.Moderation.RejectAccount(c.Request.Context(), a, id, r)
	})
}

// SuspendAccount handles POST /api/v1/admin/accounts/:id/suspend
func (h *AdminHandler) SuspendAccount() gin.HandlerFunc {
	return h.withReason(func(c *gin.Context, a services.Actor, id uuid.UUID, r string) models.ActionResult {
		return h.deps.Moderation.SuspendAccount(c.Request.Context(), a, id, r)
	})
}

// ActivateAccount handles POST /api/v1/admin/accounts/:id/activate
func (h *AdminHandler) ActivateAccount() gin.HandlerFunc {
	return h.moderate(func(c *gin.Context, a services.Actor, id uuid.UUID) models.ActionResult {
		return h.deps.Moderation.ActivateAccount(c.Request.Context(), a, id)
	})
}

// DeleteAccount handles DELETE /api/v1/admin/accounts/:id
func (h *AdminHandler) DeleteAccount() gin.HandlerFunc {
	return h.withReason(func(c *gin.Context, a services.Actor, id uuid.UUID, r string) models.ActionResult {
		return h.deps.Moderation.DeleteAccount(c.Request.Context(), a, id, optional(r))
	})
}

// ApproveProvider handles POST /api/v1/admin/providers/:id/approve
func (h *AdminHandler) ApproveProvider() gin.HandlerFunc {
	return h.moderate(func(c *gin.Context, a services.Actor, id uuid.UUID) models.ActionResult {
		return h.deps.Moderation.ApproveProvider(c.Request.Context(), a, id)
	})
}

// RejectProvider handles POST /api/v1/admin/providers/:id/reject
func (h *AdminHandler) RejectProvider() gin.HandlerFunc {
	return h.withReason(func(c *gin.Context, a services.Actor, id uuid.UUID, r string) models.ActionResult {
		return h.deps.Moderation.RejectProvider(c.Request.Context(), a, id, r)
	})
}

// ApproveProperty handles POST /api/v1/admin/properties/:id/approve
func (h *AdminHandler) ApproveProperty() gin.HandlerFunc {
	return h.moderate(func(c *gin.Context, a services.Actor, id uuid.UUID) models.ActionResult {
		return h.deps.Moderation.ApproveProperty(c.Request.Context(), a, id)
	})
}

// RejectProperty handles POST /api/v1/admin/properties/:id/reject
func (h *AdminHandler) RejectProperty() gin.HandlerFunc {
	return h.withReason(func(c *gin.Context, a services.Actor, id uuid.UUID, r string) models.ActionResult {
		return h.deps.Moderation.RejectProperty(c.Request.Context(), a, id, r)
	})
}

// DeleteProperty handles DELETE /api/v1/admin/properties/:id
func (h *AdminHandler) DeleteProperty() gin.HandlerFunc {
	return h.withReason(func(c *gin.Context, a services.Actor, id uuid.UUID, r string) models.ActionResult {
		return h.deps.Moderation.DeleteProperty(c.Request.Context(), a, id, optional(r))
	})
}

// FeatureProperty handles POST /api/v1/admin/properties/:id/feature
func (h *AdminHandler) FeatureProperty(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.FeatureRequest
	if !bindJSON(c, &req) {
		return
	}
	respondResult(c, h.deps.Moderation.FeatureProperty(c.Request.Context(), actorFrom(c), id, req.Featured))
}

// ApprovePlan handles POST /api/v1/admin/plans/:id/approve
func (h *AdminHandler) ApprovePlan() gin.HandlerFunc {
	return h.moderate(func(c *gin.Context, a services.Actor, id uuid.UUID) models.ActionResult {
		return h.deps.Moderation.ApprovePlan(c.Request.Context(), a, id)
	})
}

// RejectPlan handles POST /api/v1/admin/plans/:id/reject
func (h *AdminHandler) RejectPlan() gin.HandlerFunc {
	return h.withReason(func(c *gin.Context, a services.Actor, id uuid.UUID, r string) models.ActionResult {
		return h.deps.Moderation.RejectPlan(c.Request.Context(), a, id, r)
	})
}

// ArchivePlan handles POST /api/v1/admin/plans/:id/archive
func (h *AdminHandler) ArchivePlan() gin.HandlerFunc {
	return h.moderate(func(c *gin.Context, a services.Actor, id uuid.UUID) models.ActionResult {
		return h.deps.Moderation.ArchivePlan(c.Request.Context(), a, id)
	})
}

// ===================================================================
// ANALYTICS
// ===================================================================

// DashboardAnalytics handles GET /api/v1/admin/analytics/dashboard?days=30
func (h *AdminHandler) DashboardAnalytics(c *gin.Context) {
	days := intQuery(c, "days", h.deps.AnalyticsDays)
	c.JSON(http.StatusOK, h.deps.Analytics.GetDashboardAnalytics(c.Request.Context(), days))
}

// PropertyAnalytics handles GET /api/v1/admin/analytics/properties?days=30
func (h *AdminHandler) PropertyAnalytics(c *gin.Context) {
	days := intQuery(c, "days", h.deps.AnalyticsDays)
	c.JSON(http.StatusOK, h.deps.Analytics.GetPropertyAnalytics(c.Request.Context(), days))
}

// ProviderAnalytics handles GET /api/v1/admin/analytics/providers/:id?days=30
func (h *AdminHandler) ProviderAnalytics(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	days := intQuery(c, "days", h.deps.AnalyticsDays)
	c.JSON(http.StatusOK, h.deps.Analytics.GetProviderAnalytics(c.Request.Context(), id, days))
}

// ===================================================================
// NOTIFICATIONS & REALTIME
// ===================================================================

// ListNotifications handles GET /api/v1/admin/notifications
func (h *AdminHandler) ListNotifications(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	items, err := h.deps.Notifications.ListForAdmin(c.Request.Context(), userCtx.AccountID, intQuery(c, "limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// MarkNotificationRead handles POST /api/v1/admin/notifications/:id/read
func (h *AdminHandler) MarkNotificationRead(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userCtx := middleware.MustGetUserContext(c)
	if err := h.deps.Notifications.MarkAdminRead(c.Request.Context(), id, userCtx.AccountID); err != nil {
		respondError(c, notFoundIfNoRows(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllNotificationsRead handles POST /api/v1/admin/notifications/read-all
func (h *AdminHandler) MarkAllNotificationsRead(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	n, err := h.deps.Notifications.MarkAllAdminRead(c.Request.Context(), userCtx.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

// Realtime handles GET /api/v1/admin/realtime/ws
func (h *AdminHandler) Realtime(c *gin.Context) {
	if h.deps.Hub == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "unavailable", Message: "Realtime updates are disabled"})
		return
	}
	userCtx := middleware.MustGetUserContext(c)
	h.deps.Hub.Serve(c, userCtx.AccountID)
}

// ===================================================================
// JOBS
// ===================================================================

// JobStatus handles GET /api/v1/admin/jobs
func (h *AdminHandler) JobStatus(c *gin.Context) {
	if h.deps.Cron == nil {
		c.JSON(http.StatusOK, gin.H{"running": false, "job_count": 0, "jobs": []interface{}{}})
		return
	}
	c.JSON(http.StatusOK, h.deps.Cron.GetJobStatus())
}

// RunJob handles POST /api/v1/admin/jobs/:name/run
func (h *AdminHandler) RunJob(c *gin.Context) {
	if h.deps.Cron == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "unavailable", Message: "Scheduled jobs are disabled"})
		return
	}
	run, err := h.deps.Cron.RunNow(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, run)
}
