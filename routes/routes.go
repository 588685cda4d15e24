package routes

import (
	"conference-management-api/controllers"
	"conference-management-api/middleware"
	"conference-management-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Conference Management API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Abstracts
			abstracts := protected.Group("/abstracts")
			{
				abstracts.GET("", controllers.GetAbstracts)
				abstracts.GET("/:id", controllers.GetAbstract)

				// Presenters submit; assignment happens in the same request
				abstracts.POST("", middleware.RequireRole(models.RolePresenter, models.RoleAdmin), controllers.SubmitAbstract)

				// Reviewers submit verdicts
				abstracts.POST("/:id/reviews", middleware.RequireRole(models.RoleReviewer), controllers.SubmitReview)
				abstracts.GET("/:id/reviews", middleware.RequireRole(models.RoleAdmin), controllers.GetAbstractReviews)

				// Administrative reviewer-set mutations (no consensus side effect)
				abstracts.POST("/:id/reviewers", middleware.RequireRole(models.RoleAdmin), controllers.AddAbstractReviewers)
				abstracts.DELETE("/:id/reviewers", middleware.RequireRole(models.RoleAdmin), controllers.RemoveAbstractReviewers)
				abstracts.POST("/assign-unassigned", middleware.RequireRole(models.RoleAdmin), controllers.AssignUnassignedAbstracts)
				abstracts.POST("/:id/approved-for", middleware.RequireRole(models.RoleAdmin), controllers.SetAbstractApprovedFor)
			}

			// Assignment rules (admin, read-only surface)
			protected.GET("/assignment-rules", middleware.RequireRole(models.RoleAdmin), controllers.GetAssignmentRules)

			// Reviewer configuration and the pending-email queue
			reviewerConfig := protected.Group("/reviewer-config")
			reviewerConfig.Use(middleware.RequireRole(models.RoleAdmin))
			{
				reviewerConfig.GET("", controllers.GetReviewerConfig)
				reviewerConfig.PUT("", controllers.UpdateReviewerConfig)
				reviewerConfig.GET("/pending-emails", controllers.GetPendingEmails)
				reviewerConfig.POST("/pending-emails/flush", controllers.FlushPendingEmails)
			}
		}
	}
}
