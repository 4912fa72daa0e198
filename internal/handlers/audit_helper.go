package handlers

import (
	"github.com/estatehub/marketplace-backend/internal/middleware"
	"github.com/estatehub/marketplace-backend/internal/services"
	"github.com/estatehub/marketplace-backend/internal/utils"
	"github.com/gin-gonic/gin"
)

// actorFrom builds the audited actor from the authenticated account and request.
// Anonymous requests get a zero ID.
func actorFrom(c *gin.Context) services.Actor {
	actor := services.Actor{
		IPAddress: utils.GetRealIP(c),
		UserAgent: utils.GetUserAgent(c),
	}
	if userCtx, ok := middleware.GetUserContext(c); ok {
		actor.ID = userCtx.AccountID
	}
	return actor
}
