package routes

import (
	"vet-telehealth-server/internal/config"
	"vet-telehealth-server/internal/demo"
	"vet-telehealth-server/internal/handlers"
	"vet-telehealth-server/internal/middleware"
	"vet-telehealth-server/internal/models"
	"vet-telehealth-server/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, store *demo.Store, files *storage.AttachmentStore, cfg *config.Config) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	clinicianHandler := handlers.NewClinicianHandler(db)
	intakeHandler := handlers.NewIntakeHandler(store)
	queueHandler := handlers.NewQueueHandler(store)
	caseHandler := handlers.NewCaseHandler(store, db, files)
	videoHandler := handlers.NewVideoHandler(store)
	streamHandler := handlers.NewStreamHandler(store)
	adminHandler := handlers.NewAdminHandler(store)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		// Staff directory: the assignment dropdown is open to all staff,
		// account management is admin-only.
		staffRoutes := private.Group("/staff")
		{
			staffRoutes.GET("/clinicians", clinicianHandler.GetClinicians)

			adminStaff := staffRoutes.Group("")
			adminStaff.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
			{
				adminStaff.POST("", clinicianHandler.CreateStaff)
				adminStaff.GET("", clinicianHandler.GetStaff)
				adminStaff.GET("/:id", clinicianHandler.GetStaffByID)
				adminStaff.DELETE("/:id", clinicianHandler.DeleteStaff)
			}
		}

		// Intake screen
		intakeRoutes := private.Group("/intake")
		{
			intakeRoutes.POST("", intakeHandler.CreateIntake)
		}
		patientRoutes := private.Group("/patients")
		{
			patientRoutes.GET("/:id", intakeHandler.GetPatient)
			patientRoutes.PATCH("/:id", intakeHandler.UpdatePatient)
		}
		private.GET("/owners", intakeHandler.GetOwners)

		// Triage queue screen
		queueRoutes := private.Group("/queue")
		{
			queueRoutes.GET("", queueHandler.GetQueue)
			queueRoutes.GET("/stats", queueHandler.GetQueueStats)
		}

		// Case detail screen
		caseRoutes := private.Group("/cases")
		{
			caseRoutes.GET("/:id", caseHandler.GetCase)
			caseRoutes.PATCH("/:id", caseHandler.UpdateCase)
			caseRoutes.POST("/:id/assign", caseHandler.AssignCase)
			caseRoutes.POST("/:id/files", caseHandler.UploadAttachment)
			caseRoutes.GET("/:id/files/:fileId", caseHandler.GetAttachment)

			// Video hand-off starts from the case screen.
			caseRoutes.POST("/:id/video-call", videoHandler.StartCall)
		}

		// Video consultation screen
		videoRoutes := private.Group("/video-calls")
		{
			videoRoutes.GET("", videoHandler.GetCalls)
			videoRoutes.GET("/:id", videoHandler.GetCall)
			videoRoutes.POST("/:id/join", videoHandler.JoinCall)
			videoRoutes.PATCH("/:id/screen-share", videoHandler.SetScreenShare)
			videoRoutes.POST("/:id/end", videoHandler.EndCall)
		}

		// Live updates for every open screen
		private.GET("/events", streamHandler.Events)

		// Admin screens
		adminRoutes := private.Group("/admin")
		adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			adminRoutes.POST("/reset", adminHandler.ResetDemo)
			adminRoutes.GET("/overview", adminHandler.GetOverview)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
