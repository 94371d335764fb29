// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/javajoker/rifas-backend/internal/config"
	"github.com/javajoker/rifas-backend/internal/handlers"
	"github.com/javajoker/rifas-backend/internal/i18n"
	"github.com/javajoker/rifas-backend/internal/middleware"
	"github.com/javajoker/rifas-backend/internal/services"
	"github.com/javajoker/rifas-backend/internal/utils"
)

// Services bundles what the HTTP layer needs.
type Services struct {
	Auth    *services.AuthService
	Raffles *services.RaffleService
	Sellers *services.SellerService
	Ledger  *services.TicketLedger
	Storage *services.StorageService
	Audit   *services.AuditService
}

func Initialize(cfg *config.Config, svc Services) *gin.Engine {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(svc.Auth)
	raffleHandler := handlers.NewRaffleHandler(svc.Raffles, svc.Ledger)
	sellerHandler := handlers.NewSellerHandler(svc.Sellers)
	adminHandler := handlers.NewAdminHandler(svc.Raffles, svc.Storage, svc.Audit)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	limits := middleware.NewRateLimits(cfg.RateLimit)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(requestid.New())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(limits.General.Middleware())
	r.Use(middleware.AuditLogMiddleware(svc.Audit))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"version":   "1.0.0",
			"languages": i18n.GetSupportedLanguages(),
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(limits.Auth.Middleware())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
			auth.PUT("/me", middleware.AuthRequired(), authHandler.UpdateProfile)
		}

		// Raffle routes
		raffles := v1.Group("/raffles")
		{
			raffles.GET("", middleware.OptionalAuth(), raffleHandler.GetRaffles)
			raffles.GET("/:id", middleware.OptionalAuth(), raffleHandler.GetRaffle)
			raffles.GET("/:id/numbers", raffleHandler.GetAvailableNumbers)
			raffles.POST("/:id/reservations", middleware.AuthRequired(), raffleHandler.ReserveNumbers)
		}

		tickets := v1.Group("/tickets")
		tickets.Use(middleware.AuthRequired())
		{
			tickets.GET("/me", raffleHandler.GetMyTickets)
		}

		// Seller routes
		sellers := v1.Group("/sellers")
		{
			sellers.GET("/:code", sellerHandler.ValidateCode)

			protected := sellers.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", sellerHandler.RegisterSeller)
				protected.GET("/me", sellerHandler.GetMySeller)
				protected.GET("/:code/stats", sellerHandler.GetSellerStats)
			}
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/stats", adminHandler.GetDashboardStats)
			admin.GET("/audit-logs", adminHandler.GetAuditLogs)

			adminRaffles := admin.Group("/raffles")
			{
				adminRaffles.POST("", adminHandler.CreateRaffle)
				adminRaffles.PUT("/:id", adminHandler.UpdateRaffle)
				adminRaffles.DELETE("/:id", adminHandler.DeleteRaffle)
				adminRaffles.POST("/upload-image", limits.Upload.Middleware(), adminHandler.UploadRaffleImage)
				adminRaffles.DELETE("/images/:name", adminHandler.DeleteRaffleImage)
			}
		}
	}

	// Local uploads are served from disk when S3 is not configured
	if cfg.AWS.AccessKeyID == "" && cfg.Server.UploadDir != "" {
		r.Static("/uploads", cfg.Server.UploadDir)
	}

	return r
}
