package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/estatehub/marketplace-backend/internal/services"
	"github.com/estatehub/marketplace-backend/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Fields  []validator.FieldError `json:"fields,omitempty"`
}

// respondError maps service errors onto HTTP responses
func respondError(c *gin.Context, err error) {
	var verr *validator.ValidationError
	var rateErr *services.RateLimitError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Request validation failed",
			Fields:  verr.Fields,
		})
	case errors.As(err, &rateErr):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate_limit_exceeded",
			"message":     rateErr.Message,
			"retry_after": rateErr.RetryAfter,
			"type":        rateErr.Type,
		})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Resource not found"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid_credentials", Message: err.Error(), Code: "INVALID_CREDENTIALS"})
	case errors.Is(err, services.ErrInvalidRefreshToken):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid_token", Message: err.Error(), Code: "INVALID_REFRESH_TOKEN"})
	case errors.Is(err, services.ErrAccountSuspended):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "account_suspended", Message: "Your account is suspended", Code: "ACCOUNT_SUSPENDED"})
	case errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "email_taken", Message: err.Error(), Code: "EMAIL_TAKEN"})
	case errors.Is(err, services.ErrInvalidState):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "invalid_state", Message: err.Error()})
	case errors.Is(err, services.ErrCodeInvalid), errors.Is(err, services.ErrCodeExpired), errors.Is(err, services.ErrNoCodeFound):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_code", Message: err.Error(), Code: "INVALID_CONFIRMATION_CODE"})
	case errors.Is(err, services.ErrMaxAttemptsExceeded):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "too_many_attempts", Message: err.Error(), Code: "MAX_ATTEMPTS_EXCEEDED"})
	case errors.Is(err, services.ErrUnsupportedFile), errors.Is(err, services.ErrEmptyFile):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_file", Message: err.Error()})
	case errors.Is(err, services.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "file_too_large", Message: err.Error()})
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Something went wrong"})
	}
}

// respondResult writes a moderation ActionResult with a status matching its code
func respondResult(c *gin.Context, result models.ActionResult) {
	status := http.StatusOK
	if !result.Success {
		switch result.Code {
		case models.CodeNotFound:
			status = http.StatusNotFound
		case models.CodeValidationError:
			status = http.StatusBadRequest
		case models.CodeInvalidTransition:
			status = http.StatusConflict
		default:
			status = http.StatusInternalServerError
		}
	}
	c.JSON(status, result)
}

// notFoundIfNoRows treats an update that matched nothing as a missing resource
func notFoundIfNoRows(err error) error {
	if errors.Is(err, database.ErrNoRowsAffected) {
		return services.ErrNotFound
	}
	return err
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: message})
}

// uuidParam parses a path parameter, writing a 400 when it is not a UUID
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// bindQuery binds query filters, writing a 400 on failure
func bindQuery(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		badRequest(c, "Invalid query parameters: "+err.Error())
		return false
	}
	return true
}

// bindJSON binds a JSON body, writing a 400 on failure. Field rules are checked by the services.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "Invalid request body")
		return false
	}
	return true
}

func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
