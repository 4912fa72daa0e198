package handlers

import (
	"net/http"

	"github.com/estatehub/marketplace-backend/internal/middleware"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/estatehub/marketplace-backend/internal/services"
	"github.com/estatehub/marketplace-backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CatalogueHandler serves the public marketplace
type CatalogueHandler struct {
	catalogue *services.CatalogueService
}

// NewCatalogueHandler creates a new catalogue handler
func NewCatalogueHandler(catalogue *services.CatalogueService) *CatalogueHandler {
	return &CatalogueHandler{catalogue: catalogue}
}

// SearchProperties handles GET /api/v1/properties
func (h *CatalogueHandler) SearchProperties(c *gin.Context) {
	var filter models.PropertyFilter
	if !bindQuery(c, &filter) {
		return
	}
	page, err := h.catalogue.SearchProperties(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetProperty handles GET /api/v1/properties/:id
func (h *CatalogueHandler) GetProperty(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var viewerID *uuid.UUID
	if userCtx, signedIn := middleware.GetUserContext(c); signedIn {
		viewerID = &userCtx.AccountID
	}

	detail, err := h.catalogue.GetProperty(c.Request.Context(), id, viewerID, utils.GetRealIP(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// SubmitInquiry handles POST /api/v1/properties/:id/inquiries
func (h *CatalogueHandler) SubmitInquiry(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.InquiryRequest
	if !bindJSON(c, &req) {
		return
	}

	inquiry, err := h.catalogue.SubmitInquiry(c.Request.Context(), id, actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inquiry)
}

// SearchPlans handles GET /api/v1/plans
func (h *CatalogueHandler) SearchPlans(c *gin.Context) {
	var filter models.PlanFilter
	if !bindQuery(c, &filter) {
		return
	}
	page, err := h.catalogue.SearchPlans(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetPlan handles GET /api/v1/plans/:id
func (h *CatalogueHandler) GetPlan(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	plan, err := h.catalogue.GetPlan(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}
