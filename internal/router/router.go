// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/javajoker/imi-ledger/internal/clock"
	"github.com/javajoker/imi-ledger/internal/config"
	"github.com/javajoker/imi-ledger/internal/handlers"
	"github.com/javajoker/imi-ledger/internal/metrics"
	"github.com/javajoker/imi-ledger/internal/middleware"
	"github.com/javajoker/imi-ledger/internal/services"
	"github.com/javajoker/imi-ledger/internal/utils"
)

const version = "1.0.0"

// Router is the HTTP surface of the ledger together with the background
// workers its middleware owns.
type Router struct {
	*gin.Engine
	audit   *middleware.AuditLogger
	limiter *middleware.RateLimiter
}

// Close stops the rate limiter and waits for pending audit writes.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Stop()
	}
	if r.audit != nil {
		r.audit.Wait()
	}
}

func Initialize(db *gorm.DB, cfg *config.Config, clk clock.Clock, m *metrics.Metrics, log *logrus.Logger) (*Router, error) {
	platform := services.Platform{
		Operator: cfg.Platform.OperatorID,
		Treasury: cfg.Platform.TreasuryID,
	}

	// Value transfer backend
	var (
		transfer services.ValueTransfer
		balances *services.BalanceTransfer
	)
	switch cfg.Transfer.Backend {
	case config.TransferBackendStripe:
		transfer = services.NewStripeTransfer(cfg.Transfer, platform.Treasury, log)
	default:
		balances = services.NewBalanceTransfer()
		transfer = balances
	}

	// Initialize services
	ledger := services.NewLedger(db, clk, transfer, platform, m, log)
	revenueService := services.NewRevenueService(ledger)
	ipService := services.NewIPService(ledger, revenueService)
	licenseService := services.NewLicenseService(ledger, revenueService)
	royaltyService := services.NewRoyaltyService(ledger, revenueService)
	treasuryService := services.NewTreasuryService(ledger)
	accountService := services.NewAccountService(ledger, balances)
	commitmentService := services.NewCommitmentService(ledger)
	storageService, err := services.NewStorageService(cfg, commitmentService)
	if err != nil {
		return nil, err
	}

	// Initialize handlers
	ipAssetHandler := handlers.NewIPAssetHandler(ipService, revenueService, storageService)
	licenseHandler := handlers.NewLicenseHandler(licenseService, revenueService, commitmentService)
	royaltyHandler := handlers.NewRoyaltyHandler(royaltyService)
	treasuryHandler := handlers.NewTreasuryHandler(treasuryService)
	accountHandler := handlers.NewAccountHandler(accountService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	r := &Router{Engine: gin.New()}

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log, m))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware())
	if cfg.RateLimit.RequestsPerSecond > 0 {
		r.limiter = middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
		r.Use(r.limiter.Middleware())
	}
	if cfg.Platform.AuditEnabled {
		r.audit = middleware.NewAuditLogger(db, log)
		r.Use(r.audit.Middleware())
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": version,
			"now":     clk.Now(),
		})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// IP asset routes
		assets := v1.Group("/assets")
		{
			assets.GET("", ipAssetHandler.GetIPAssets)
			assets.GET("/:id", ipAssetHandler.GetIPAsset)
			assets.GET("/:id/revenue", ipAssetHandler.GetIPAssetRevenue)

			protected := assets.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", ipAssetHandler.RegisterIPAsset)
				protected.PUT("/:id/owner", ipAssetHandler.TransferOwnership)
				protected.PUT("/:id/deactivate", ipAssetHandler.DeactivateIPAsset)
				protected.POST("/:id/licenses", licenseHandler.CreateLicense)
			}
		}

		v1.POST("/metadata", middleware.AuthRequired(), ipAssetHandler.UploadMetadata)
		v1.POST("/terms/commitment", licenseHandler.CommitTerms)

		// License routes
		licenses := v1.Group("/licenses")
		{
			licenses.GET("", licenseHandler.GetLicenses)
			licenses.GET("/:id", licenseHandler.GetLicense)
			licenses.GET("/:id/usage", licenseHandler.GetLicenseUsage)
			licenses.GET("/:id/valid", royaltyHandler.IsLicenseValid)
			licenses.GET("/:id/royalty", royaltyHandler.CalculateRoyalty)
			licenses.GET("/:id/payments", royaltyHandler.GetLicensePayments)
			licenses.POST("/:id/terms/verify", licenseHandler.VerifyTerms)

			protected := licenses.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.PUT("/:id/accept", licenseHandler.AcceptLicense)
				protected.PUT("/:id/terminate", licenseHandler.TerminateLicense)
				protected.POST("/:id/royalties", royaltyHandler.PayRoyalty)
			}
		}

		v1.GET("/payments/:id", royaltyHandler.GetPayment)

		// Platform routes
		platformGroup := v1.Group("/platform")
		{
			platformGroup.GET("", treasuryHandler.GetPlatform)
			platformGroup.GET("/fee-rate", treasuryHandler.GetFeeRate)
			platformGroup.PUT("/fee-rate", middleware.AuthRequired(), treasuryHandler.UpdateFeeRate)
			platformGroup.POST("/withdraw", middleware.AuthRequired(), treasuryHandler.Withdraw)
		}

		// Account routes
		accounts := v1.Group("/accounts")
		{
			accounts.GET("/:id", accountHandler.GetAccount)
			accounts.POST("/:id/credit", middleware.AuthRequired(), accountHandler.CreditAccount)
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" && cfg.AWS.AccessKeyID == "" {
		r.Static("/uploads", cfg.Storage.LocalPath)
	}

	return r, nil
}
