package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/estatehub/marketplace-backend/internal/middleware"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/estatehub/marketplace-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProviderDependencies wires a ProviderHandler
type ProviderDependencies struct {
	Properties    *services.PropertyService
	Plans         *services.PlanService
	Moderation    *services.ModerationService
	Catalogue     *services.CatalogueService
	Analytics     *services.AnalyticsService
	Notifications *services.NotificationService
	Rewards       *services.GamificationService
	AnalyticsDays int
}

// ProviderHandler handles the provider dashboard: own listings, plans,
// inquiries and analytics, plus account notifications and progress
type ProviderHandler struct {
	deps ProviderDependencies
}

// NewProviderHandler creates a new provider handler
func NewProviderHandler(deps ProviderDependencies) *ProviderHandler {
	if deps.AnalyticsDays < 1 {
		deps.AnalyticsDays = 30
	}
	return &ProviderHandler{deps: deps}
}

// ===================================================================
// PROPERTIES
// ===================================================================

// CreateProperty handles POST /api/v1/provider/properties
func (h *ProviderHandler) CreateProperty(c *gin.Context) {
	var req models.PropertyRequest
	if !bindJSON(c, &req) {
		return
	}
	detail, err := h.deps.Properties.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// ListProperties handles GET /api/v1/provider/properties
func (h *ProviderHandler) ListProperties(c *gin.Context) {
	var filter models.PropertyFilter
	if !bindQuery(c, &filter) {
		return
	}
	page, err := h.deps.Properties.ListMine(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetProperty handles GET /api/v1/provider/properties/:id
func (h *ProviderHandler) GetProperty(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.deps.Properties.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateProperty handles PUT /api/v1/provider/properties/:id
func (h *ProviderHandler) UpdateProperty(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.PropertyRequest
	if !bindJSON(c, &req) {
		return
	}
	detail, err := h.deps.Properties.Update(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// DeleteProperty handles DELETE /api/v1/provider/properties/:id
func (h *ProviderHandler) DeleteProperty(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.deps.Properties.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Listing deleted"})
}

// ResubmitProperty handles POST /api/v1/provider/properties/:id/resubmit
func (h *ProviderHandler) ResubmitProperty(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	respondResult(c, h.deps.Moderation.ResubmitProperty(c.Request.Context(), actorFrom(c), id))
}

// MarkSalesStatus handles POST /api/v1/provider/properties/:id/sales-status
func (h *ProviderHandler) MarkSalesStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.SalesStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.deps.Properties.MarkSalesStatus(c.Request.Context(), actorFrom(c), id, req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Listing marked as " + string(req.Status)})
}

// UploadImage handles POST /api/v1/provider/properties/:id/images (multipart field "image")
func (h *ProviderHandler) UploadImage(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	upload, closeFile, ok := formUpload(c, "image")
	if !ok {
		return
	}
	defer closeFile()

	image, err := h.deps.Properties.UploadImage(c.Request.Context(), actorFrom(c), id, upload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, image)
}

// DeleteImage handles DELETE /api/v1/provider/properties/:id/images/:image_id
func (h *ProviderHandler) DeleteImage(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	imageID, ok := uuidParam(c, "image_id")
	if !ok {
		return
	}
	if err := h.deps.Properties.DeleteImage(c.Request.Context(), actorFrom(c), id, imageID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image deleted"})
}

// SetPrimaryImage handles POST /api/v1/provider/properties/:id/images/:image_id/primary
func (h *ProviderHandler) SetPrimaryImage(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	imageID, ok := uuidParam(c, "image_id")
	if !ok {
		return
	}
	if err := h.deps.Properties.SetPrimaryImage(c.Request.Context(), actorFrom(c), id, imageID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Primary image updated"})
}

// UploadDocument handles POST /api/v1/provider/properties/:id/documents
// (multipart field "document", optional form value "name")
func (h *ProviderHandler) UploadDocument(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	upload, closeFile, ok := formUpload(c, "document")
	if !ok {
		return
	}
	defer closeFile()

	name := c.PostForm("name")
	if name == "" {
		name = upload.Filename
	}
	doc, err := h.deps.Properties.UploadDocument(c.Request.Context(), actorFrom(c), id, name, upload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// formUpload opens a multipart file field
func formUpload(c *gin.Context, field string) (services.Upload, func(), bool) {
	header, err := c.FormFile(field)
	if err != nil {
		badRequest(c, "Missing file field "+strconv.Quote(field))
		return services.Upload{}, nil, false
	}
	file, err := header.Open()
	if err != nil {
		badRequest(c, "Unreadable upload")
		return services.Upload{}, nil, false
	}
	return uploadFrom(header, file), func() { file.Close() }, true
}

func uploadFrom(header *multipart.FileHeader, file multipart.File) services.Upload {
	return services.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
}

// ===================================================================
// PLANS
// ===================================================================

// CreatePlan handles POST /api/v1/provider/plans
func (h *ProviderHandler) CreatePlan(c *gin.Context) {
	var req models.PlanRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.deps.Plans.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// ListPlans handles GET /api/v1/provider/plans
func (h *ProviderHandler) ListPlans(c *gin.Context) {
	var filter models.PlanFilter
	if !bindQuery(c, &filter) {
		return
	}
	page, err := h.deps.Plans.ListMine(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetPlan handles GET /api/v1/provider/plans/:id
func (h *ProviderHandler) GetPlan(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	plan, err := h.deps.Plans.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// UpdatePlan handles PUT /api/v1/provider/plans/:id
func (h *ProviderHandler) UpdatePlan(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.PlanRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.deps.Plans.Update(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// DeletePlan handles DELETE /api/v1/provider/plans/:id
func (h *ProviderHandler) DeletePlan(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.deps.Plans.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Plan deleted"})
}

// ResubmitPlan handles POST /api/v1/provider/plans/:id/resubmit
func (h *ProviderHandler) ResubmitPlan(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	respondResult(c, h.deps.Moderation.ResubmitPlan(c.Request.Context(), actorFrom(c), id))
}

// ===================================================================
// INQUIRIES & ANALYTICS
// ===================================================================

// ListInquiries handles GET /api/v1/provider/inquiries
func (h *ProviderHandler) ListInquiries(c *gin.Context) {
	items, err := h.deps.Catalogue.ProviderInquiries(c.Request.Context(), actorFrom(c), intQuery(c, "limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inquiries": items})
}

// Analytics handles GET /api/v1/provider/analytics?days=30
func (h *ProviderHandler) Analytics(c *gin.Context) {
	value, exists := c.Get(middleware.ProviderIDKey)
	providerID, ok := value.(uuid.UUID)
	if !exists || !ok {
		respondError(c, services.ErrNotFound)
		return
	}
	days := intQuery(c, "days", h.deps.AnalyticsDays)
	c.JSON(http.StatusOK, h.deps.Analytics.GetProviderAnalytics(c.Request.Context(), providerID, days))
}

// ===================================================================
// ACCOUNT NOTIFICATIONS & PROGRESS
// ===================================================================

// ListNotifications handles GET /api/v1/me/notifications?unread=true
func (h *ProviderHandler) ListNotifications(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	unreadOnly := c.Query("unread") == "true"
	items, err := h.deps.Notifications.ListForOwner(c.Request.Context(), userCtx.AccountID, unreadOnly, intQuery(c, "limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// MarkNotificationRead handles POST /api/v1/me/notifications/:id/read
func (h *ProviderHandler) MarkNotificationRead(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userCtx := middleware.MustGetUserContext(c)
	if err := h.deps.Notifications.MarkOwnerRead(c.Request.Context(), id, userCtx.AccountID); err != nil {
		respondError(c, notFoundIfNoRows(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllNotificationsRead handles POST /api/v1/me/notifications/read-all
func (h *ProviderHandler) MarkAllNotificationsRead(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	n, err := h.deps.Notifications.MarkAllOwnerRead(c.Request.Context(), userCtx.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

// Progress handles GET /api/v1/me/progress
func (h *ProviderHandler) Progress(c *gin.Context) {
	if h.deps.Rewards == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "unavailable", Message: "Progress tracking is disabled"})
		return
	}
	userCtx := middleware.MustGetUserContext(c)
	progress, err := h.deps.Rewards.Progress(c.Request.Context(), userCtx.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}
