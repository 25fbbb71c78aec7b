package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/handlers"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/middleware"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/token"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, authHandler *handlers.AuthHandler, issuer *token.Issuer) {
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/confirm", authHandler.Confirm)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh", authHandler.Refresh)
			authRoutes.POST("/forgot-password", authHandler.ForgotPassword)
			authRoutes.POST("/reset-password", authHandler.ResetPassword)
			authRoutes.GET("/userinfo", middleware.OptionalAuth(issuer), authHandler.UserInfo)
		}
	}

	private := router.Group("/api/v1")
	private.Use(middleware.Auth(issuer))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.POST("/logout-all", authHandler.LogoutAll)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
