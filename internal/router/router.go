// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nppdirect/pricing-backend/internal/config"
	"github.com/nppdirect/pricing-backend/internal/handlers"
	"github.com/nppdirect/pricing-backend/internal/middleware"
	"github.com/nppdirect/pricing-backend/internal/services"
	"github.com/nppdirect/pricing-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db, cfg)
	storageService, _ := services.NewStorageService(cfg)

	authService := services.NewAuthService(db, cfg)
	contractService := services.NewContractService(db)
	conflictService := services.NewConflictService(db)
	proposalService := services.NewProposalService(db, notificationService)
	renewalService := services.NewRenewalService(db, notificationService)
	documentService := services.NewDocumentService(db, storageService)
	masterService := services.NewMasterService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	contractHandler := handlers.NewContractHandler(contractService, documentService)
	proposalHandler := handlers.NewProposalHandler(proposalService, conflictService)
	renewalHandler := handlers.NewRenewalHandler(renewalService)
	masterHandler := handlers.NewMasterHandler(masterService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/register", middleware.AuthRequired(), middleware.AdminRequired(), authHandler.Register)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		// Proposal workflow
		proposals := v1.Group("/proposals")
		proposals.Use(middleware.AuthRequired())
		{
			proposals.GET("", proposalHandler.ListProposals)
			proposals.POST("", proposalHandler.CreateProposal)
			proposals.GET("/:id", proposalHandler.GetProposal)
			proposals.PUT("/:id", proposalHandler.UpdateProposal)
			proposals.POST("/:id/submit", proposalHandler.SubmitProposal)
			proposals.POST("/:id/clone", proposalHandler.CloneProposal)
			proposals.GET("/:id/conflicts", proposalHandler.GetProposalConflicts)
			proposals.GET("/:id/history", proposalHandler.GetProposalHistory)
			proposals.GET("/:id/product-history", proposalHandler.GetProposalProductHistory)

			// Review decisions are admin-class only
			proposals.POST("/:id/accept", middleware.AdminRequired(), proposalHandler.AcceptProposal)
			proposals.POST("/:id/reject", middleware.AdminRequired(), proposalHandler.RejectProposal)
		}

		// Contract store
		contracts := v1.Group("/contracts")
		contracts.Use(middleware.AuthRequired())
		{
			contracts.GET("", contractHandler.ListContracts)
			contracts.GET("/:id", contractHandler.GetContract)
			contracts.GET("/:id/versions", contractHandler.ListVersions)
			contracts.GET("/:id/versions/compare", contractHandler.CompareVersions)
			contracts.GET("/:id/documents", contractHandler.ListDocuments)

			// Mutations are admin-class only
			admin := contracts.Group("")
			admin.Use(middleware.AdminRequired())
			{
				admin.POST("", contractHandler.CreateContract)
				admin.POST("/:id/versions", contractHandler.CreateVersion)
				admin.PUT("/:id/versions/:versionId", contractHandler.UpdateVersion)
				admin.POST("/:id/cloneVersion/:versionNo", contractHandler.CloneVersion)
				admin.PUT("/:id/suspend", contractHandler.SuspendContract)
				admin.POST("/:id/documents", middleware.UploadRateLimit(), contractHandler.UploadDocument)
				admin.DELETE("/:id/documents/:documentId", contractHandler.DeleteDocument)
			}
		}

		// Bulk renewals (admin-class only)
		renewals := v1.Group("/bulk-renewal")
		renewals.Use(middleware.AuthRequired(), middleware.AdminRequired(), middleware.RenewalRateLimit())
		{
			renewals.POST("/validate", renewalHandler.ValidateRenewals)
			renewals.POST("/create", renewalHandler.CreateRenewals)
		}

		// Reference data
		master := v1.Group("")
		master.Use(middleware.AuthRequired())
		{
			master.GET("/manufacturers", masterHandler.ListManufacturers)
			master.GET("/distributors", masterHandler.ListDistributors)
			master.GET("/opcos", masterHandler.ListOpCos)
			master.GET("/industries", masterHandler.ListIndustries)
			master.GET("/products", masterHandler.ListProducts)
		}
	}

	return r
}
