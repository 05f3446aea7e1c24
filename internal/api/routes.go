package api

import (
	"time" // Token lifetime and rate window

	"rocketcoins/internal/account"    // Account workflow
	"rocketcoins/internal/ledger"     // Ledger engine
	"rocketcoins/internal/middleware" // Auth and rate limit
	"rocketcoins/internal/report"     // Reporting queries
	"rocketcoins/internal/timerecord" // Time record engine
	"rocketcoins/internal/utils"      // Response cache

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// Deps are the components the HTTP layer is wired to
type Deps struct {
	DB         *gorm.DB
	Ledger     *ledger.Engine
	Reports    *report.Service
	Records    *timerecord.Engine
	Accounts   *account.Service
	Cache      *utils.Cache
	Redis      *redis.Client // nil disables rate limiting
	JWTSecret  string
	JWTTTL     time.Duration
	RateLimit  int
	RateWindow time.Duration
}

// RegisterRoutes mounts every endpoint on r
func RegisterRoutes(r *gin.Engine, d Deps) {
	auth := middleware.JWTAuthMiddleware(d.JWTSecret)
	limit := middleware.RateLimitMiddleware(d.Redis, d.RateLimit, d.RateWindow)
	director := middleware.DirectorOnlyMiddleware(d.DB)

	// Auth routes
	authGroup := r.Group("/auth")
	authGroup.POST("/register", limit, RegisterHandler(d.Accounts))
	authGroup.POST("/login", limit, LoginHandler(d.Accounts, d.JWTSecret, d.JWTTTL))
	authGroup.GET("/profile", auth, limit, ProfileHandler(d.Accounts))
	authGroup.GET("/users", auth, limit, director, ListUsersHandler(d.Accounts))
	authGroup.PATCH("/users/:id/role", auth, limit, director, UpdateRoleHandler(d.Accounts))
	authGroup.PATCH("/users/:id/status", auth, limit, director, UpdateStatusHandler(d.Accounts))

	// Wallet routes (protected by JWT)
	walletGroup := r.Group("/wallet")
	walletGroup.Use(auth, limit)
	walletGroup.GET("/pending-requests", director, PendingRequestsHandler(d.Ledger))
	walletGroup.PUT("/approve/:transactionId", director, ApproveHandler(d.Ledger, d.Cache))
	walletGroup.PUT("/reject/:transactionId", director, RejectHandler(d.DB, d.Ledger, d.Cache))
	walletGroup.POST("/add-coins", director, AddCoinsHandler(d.Ledger, d.Cache))
	walletGroup.POST("/remove-coins", director, RemoveCoinsHandler(d.Ledger, d.Cache))
	walletGroup.POST("/provision/:userId", director, ProvisionWalletHandler(d.Accounts, d.Cache))
	walletGroup.GET("/:userId", GetWalletHandler(d.DB, d.Ledger, d.Cache))
	walletGroup.POST("/:userId/request-spending", RequestSpendingHandler(d.Ledger, d.Cache))
	walletGroup.GET("/:userId/requests", MyRequestsHandler(d.DB, d.Ledger))
	walletGroup.GET("/:userId/history", TransactionHistoryHandler(d.DB, d.Ledger, d.Cache))
	walletGroup.PATCH("/:userId/status", director, SetWalletStatusHandler(d.Ledger, d.Cache))
	walletGroup.GET("/:userId/audit", director, AuditHandler(d.Ledger))

	// Report routes (director only)
	reportGroup := r.Group("/reports")
	reportGroup.Use(auth, limit, director)
	reportGroup.GET("/dashboard", DashboardHandler(d.Reports))
	reportGroup.GET("/transactions", TransactionReportHandler(d.Reports))

	// Time record routes
	recordGroup := r.Group("/point-records")
	recordGroup.Use(auth, limit)
	recordGroup.POST("", RecordPointHandler(d.Records))
	recordGroup.GET("/mine", MyRecordsHandler(d.Records))
	recordGroup.GET("/status", WorkStatusHandler(d.Records))
	recordGroup.GET("/last", LastRecordHandler(d.Records))
	recordGroup.GET("/all", director, AllRecordsHandler(d.Records))
	recordGroup.GET("/:id", director, GetRecordHandler(d.Records))
	recordGroup.PUT("/:id/close", director, CloseRecordHandler(d.Records))
}
