package handlers

import (
	"net/http"

	"github.com/estatehub/marketplace-backend/internal/middleware"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/estatehub/marketplace-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *services.AuthService
	logger      *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

// SignUp handles POST /api/v1/auth/sign-up
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.authService.SignUp(c.Request.Context(), req, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// SignIn handles POST /api/v1/auth/sign-in
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.authService.SignIn(c.Request.Context(), req, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// ConfirmEmail handles POST /api/v1/auth/confirm-email
func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	var req models.ConfirmEmailRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.authService.ConfirmEmail(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email confirmed", "status": account.Status})
}

// ResendConfirmation handles POST /api/v1/auth/resend-confirmation
func (h *AuthHandler) ResendConfirmation(c *gin.Context) {
	var req models.ResendConfirmationRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ResendConfirmation(c.Request.Context(), req, actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "If the address is awaiting confirmation, a new code has been sent"})
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// SignOut handles POST /api/v1/auth/sign-out. It revokes the given refresh token.
func (h *AuthHandler) SignOut(c *gin.Context) {
	var req models.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.SignOut(c.Request.Context(), req.RefreshToken); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// SignOutEverywhere handles POST /api/v1/auth/sign-out-all
func (h *AuthHandler) SignOutEverywhere(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	if err := h.authService.SignOutEverywhere(c.Request.Context(), userCtx.AccountID); err != nil {
		respondError(c, err)
		return
	}
	h.logger.WithField("account_id", userCtx.AccountID).Info("Signed out of every session")
	c.JSON(http.StatusOK, gin.H{"message": "Signed out of every session"})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	profile, err := h.authService.CurrentProfile(c.Request.Context(), userCtx.Identity())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
