package handlers

import (
	"github.com/estatehub/marketplace-backend/internal/middleware"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/estatehub/marketplace-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// Router bundles every handler mounted under /api/v1
type Router struct {
	JWT       *jwt.Service
	Providers middleware.ProviderLookup
	Health    *HealthHandler
	Auth      *AuthHandler
	Admin     *AdminHandler
	Provider  *ProviderHandler
	Catalogue *CatalogueHandler
}

// Register mounts the routes on r
func (rt Router) Register(r *gin.Engine) {
	r.GET("/health", rt.Health.Live)
	r.GET("/health/ready", rt.Health.Ready)

	v1 := r.Group("/api/v1")
	authenticated := middleware.AuthMiddleware(rt.JWT)

	auth := v1.Group("/auth")
	{
		auth.POST("/sign-up", rt.Auth.SignUp)
		auth.POST("/sign-in", rt.Auth.SignIn)
		auth.POST("/confirm-email", rt.Auth.ConfirmEmail)
		auth.POST("/resend-confirmation", rt.Auth.ResendConfirmation)
		auth.POST("/refresh", rt.Auth.Refresh)
		auth.POST("/sign-out", rt.Auth.SignOut)
		auth.POST("/sign-out-all", authenticated, rt.Auth.SignOutEverywhere)
		auth.GET("/me", authenticated, rt.Auth.Me)
	}

	public := v1.Group("", middleware.OptionalAuth(rt.JWT))
	{
		public.GET("/properties", rt.Catalogue.SearchProperties)
		public.GET("/properties/:id", rt.Catalogue.GetProperty)
		public.POST("/properties/:id/inquiries", rt.Catalogue.SubmitInquiry)
		public.GET("/plans", rt.Catalogue.SearchPlans)
		public.GET("/plans/:id", rt.Catalogue.GetPlan)
	}

	me := v1.Group("/me", authenticated, middleware.RequireActiveAccount())
	{
		me.GET("/notifications", rt.Provider.ListNotifications)
		me.POST("/notifications/read-all", rt.Provider.MarkAllNotificationsRead)
		me.POST("/notifications/:id/read", rt.Provider.MarkNotificationRead)
		me.GET("/progress", rt.Provider.Progress)
	}

	provider := v1.Group("/provider",
		authenticated,
		middleware.RequireRole(models.RoleProvider),
		middleware.RequireApprovedProvider(rt.Providers),
	)
	{
		provider.POST("/properties", rt.Provider.CreateProperty)
		provider.GET("/properties", rt.Provider.ListProperties)
		provider.GET("/properties/:id", rt.Provider.GetProperty)
		provider.PUT("/properties/:id", rt.Provider.UpdateProperty)
		provider.DELETE("/properties/:id", rt.Provider.DeleteProperty)
		provider.POST("/properties/:id/resubmit", rt.Provider.ResubmitProperty)
		provider.POST("/properties/:id/sales-status", rt.Provider.MarkSalesStatus)
		provider.POST("/properties/:id/images", rt.Provider.UploadImage)
		provider.DELETE("/properties/:id/images/:image_id", rt.Provider.DeleteImage)
		provider.POST("/properties/:id/images/:image_id/primary", rt.Provider.SetPrimaryImage)
		provider.POST("/properties/:id/documents", rt.Provider.UploadDocument)

		provider.POST("/plans", rt.Provider.CreatePlan)
		provider.GET("/plans", rt.Provider.ListPlans)
		provider.GET("/plans/:id", rt.Provider.GetPlan)
		provider.PUT("/plans/:id", rt.Provider.UpdatePlan)
		provider.DELETE("/plans/:id", rt.Provider.DeletePlan)
		provider.POST("/plans/:id/resubmit", rt.Provider.ResubmitPlan)

		provider.GET("/inquiries", rt.Provider.ListInquiries)
		provider.GET("/analytics", rt.Provider.Analytics)
	}

	admin := v1.Group("/admin", authenticated, middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/accounts", rt.Admin.ListAccounts)
		admin.POST("/accounts/:id/approve", rt.Admin.ApproveAccount())
		admin.POST("/accounts/:id/reject", rt.Admin.RejectAccount())
		admin.POST("/accounts/:id/suspend", rt.Admin.SuspendAccount())
		admin.POST("/accounts/:id/activate", rt.Admin.ActivateAccount())
		admin.DELETE("/accounts/:id", rt.Admin.DeleteAccount())

		admin.GET("/providers", rt.Admin.ListProviders)
		admin.POST("/providers/:id/approve", rt.Admin.ApproveProvider())
		admin.POST("/providers/:id/reject", rt.Admin.RejectProvider())

		admin.GET("/properties", rt.Admin.ListProperties)
		admin.GET("/properties/:id", rt.Admin.GetProperty)
		admin.POST("/properties/:id/approve", rt.Admin.ApproveProperty())
		admin.POST("/properties/:id/reject", rt.Admin.RejectProperty())
		admin.POST("/properties/:id/feature", rt.Admin.FeatureProperty)
		admin.DELETE("/properties/:id", rt.Admin.DeleteProperty())

		admin.GET("/plans", rt.Admin.ListPlans)
		admin.POST("/plans/:id/approve", rt.Admin.ApprovePlan())
		admin.POST("/plans/:id/reject", rt.Admin.RejectPlan())
		admin.POST("/plans/:id/archive", rt.Admin.ArchivePlan())

		admin.GET("/history/:target_type/:id", rt.Admin.History)
		admin.GET("/rejection-reasons", rt.Admin.RejectionReasons)

		admin.GET("/analytics/dashboard", rt.Admin.DashboardAnalytics)
		admin.GET("/analytics/properties", rt.Admin.PropertyAnalytics)
		admin.GET("/analytics/providers/:id", rt.Admin.ProviderAnalytics)

		admin.GET("/notifications", rt.Admin.ListNotifications)
		admin.POST("/notifications/read-all", rt.Admin.MarkAllNotificationsRead)
		admin.POST("/notifications/:id/read", rt.Admin.MarkNotificationRead)
		admin.GET("/realtime/ws", rt.Admin.Realtime)

		admin.GET("/jobs", rt.Admin.JobStatus)
		admin.POST("/jobs/:name/run", rt.Admin.RunJob)
	}
}
