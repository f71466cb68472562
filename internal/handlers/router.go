package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/dormhub/dormitory-service/internal/models"
	"github.com/dormhub/dormitory-service/internal/repositories"
	"github.com/dormhub/dormitory-service/internal/services"
	"github.com/dormhub/dormitory-service/internal/utils"
)

type HandlerManager struct {
	authHandler    *AuthHandler
	userHandler    *UserHandler
	authMiddleware *JWTAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	jwtSecret string,
	userRepo repositories.UserRepository,
) *HandlerManager {
	return &HandlerManager{
		authHandler:    NewAuthHandler(serviceManager.Auth(), serviceManager.User(), logger),
		userHandler:    NewUserHandler(serviceManager.User(), serviceManager.Export(), logger),
		authMiddleware: NewJWTAuthMiddleware(jwtSecret, userRepo),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes: login and the reset flow are public, the rest
		// require a bearer token
		auth := v1.Group("/auth")
		{
			auth.POST("/login", hm.authHandler.Login)
			auth.POST("/request-password-reset", hm.authHandler.RequestPasswordReset)
			auth.POST("/reset-password", hm.authHandler.ResetPassword)

			auth.GET("/me", hm.authMiddleware.AuthMiddleware(), hm.authHandler.Me)
			auth.POST("/change-password", hm.authMiddleware.AuthMiddleware(), hm.authHandler.ChangePassword)
		}

		// User administration - Staff and Admins only
		users := v1.Group("/users")
		users.Use(hm.authMiddleware.AuthMiddleware())
		users.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleStaff, models.RoleAdmin))
		{
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/search", hm.userHandler.SearchUsers)
			users.GET("/export", hm.userHandler.ExportUsers)
			users.GET("/:id", hm.userHandler.GetUser)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "dormitory-service",
		})
	})
}
