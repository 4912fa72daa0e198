package middleware

import (
	"context"
	"net/http"

	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ProviderIDKey holds the verified provider id for downstream handlers
const ProviderIDKey = "provider_id"

// ProviderLookup resolves the provider profile of an account
type ProviderLookup interface {
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*models.ProviderWithAccount, error)
}

// RequireApprovedProvider checks the provider's account is approved.
// The status is re-read from the database, so a moderation decision applies
// before the token is refreshed. Must be used after AuthMiddleware.
func RequireApprovedProvider(providers ProviderLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			abortUnauthorized(c, "unauthorized", "User context not found", "MISSING_USER_CONTEXT")
			return
		}

		provider, err := providers.GetByAccountID(c.Request.Context(), userCtx.AccountID)
		if err != nil {
			logrus.WithError(err).WithField("account_id", userCtx.AccountID).Error("Failed to get provider for verification check")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "database_error",
				"message": "Failed to verify provider status",
			})
			c.Abort()
			return
		}

		if provider == nil {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "not_provider",
				"message": "Provider profile not found",
				"code":    "NOT_PROVIDER",
			})
			c.Abort()
			return
		}

		if provider.AccountStatus != models.AccountApproved {
			body := gin.H{
				"error":          "not_approved",
				"message":        "Your provider account is not approved yet. Please wait for admin approval.",
				"code":           "PROVIDER_NOT_APPROVED",
				"account_status": provider.AccountStatus,
			}
			if provider.AccountStatus == models.AccountRejected && provider.RejectionReason != nil {
				body["rejection_reason"] = *provider.RejectionReason
			}
			c.JSON(http.StatusForbidden, body)
			c.Abort()
			return
		}

		c.Set(ProviderIDKey, provider.ID)
		c.Next()
	}
}
