package api

import (
	"context"  // Request context
	"net/http" // HTTP status codes

	"rocketcoins/internal/account" // Wallet provisioning
	"rocketcoins/internal/domain"  // Importing domain models
	"rocketcoins/internal/ledger"  // Ledger engine
	"rocketcoins/internal/utils"   // Response cache

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Money amounts
	"gorm.io/gorm"                  // GORM ORM library
)

// SpendingRequest is the body of a member's spending request
type SpendingRequest struct {
	Amount      decimal.Decimal `json:"amount"`                         // Coins to spend
	Title       string          `json:"title" binding:"required"`       // Short label
	Description string          `json:"description" binding:"required"` // What the coins are for
	Reference   string          `json:"reference"`                      // Optional external reference
}

// AdjustmentRequest is the body of a director's direct credit or debit
type AdjustmentRequest struct {
	UserID      uint            `json:"user_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description" binding:"required"`
	Reference   string          `json:"reference"`
}

// ApproveRequest carries the optional approval note
type ApproveRequest struct {
	ApprovalNote string `json:"approval_note"`
}

// RejectRequest carries the mandatory rejection reason
type RejectRequest struct {
	RejectionReason string `json:"rejection_reason"`
}

// WalletStatusRequest activates or deactivates a wallet
type WalletStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// GetWalletHandler returns a wallet with its latest transactions
func GetWalletHandler(db *gorm.DB, engine *ledger.Engine, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := selfOrDirector(c, db)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		cacheKey := utils.WalletKey(userID)
		var view ledger.WalletView
		if found, err := cache.GetJSON(ctx, cacheKey, &view); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"wallet": view.Wallet, "transactions": view.Transactions, "cached": true})
			return
		}
		fresh, err := engine.GetWalletWithRecent(ctx, userID, ledger.RecentTransactions)
		if err != nil {
			respondError(c, err)
			return
		}
		_ = cache.SetJSON(ctx, cacheKey, fresh) // Cache the wallet view
		c.JSON(http.StatusOK, gin.H{"wallet": fresh.Wallet, "transactions": fresh.Transactions, "cached": false})
	}
}

// RequestSpendingHandler files a PENDING debit on the caller's own wallet
func RequestSpendingHandler(engine *ledger.Engine, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		callerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		userID, ok := uintParam(c, "userId")
		if !ok {
			return
		}
		if userID != callerID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Spending can only be requested from your own wallet"})
			return
		}
		var req SpendingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		res, err := engine.RequestSpending(c.Request.Context(), userID, ledger.Entry{
			Amount:      req.Amount,
			Title:       req.Title,
			Description: req.Description,
			Reference:   req.Reference,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		invalidateUser(c.Request.Context(), cache, userID) // Recent transactions changed
		c.JSON(http.StatusCreated, gin.H{"message": "Spending request created", "transaction": res.Transaction, "wallet": res.Wallet})
	}
}

// MyRequestsHandler lists a user's PENDING requests
func MyRequestsHandler(db *gorm.DB, engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := selfOrDirector(c, db)
		if !ok {
			return
		}
		page, err := engine.MyRequests(c.Request.Context(), userID, parsePage(c, 5))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// TransactionHistoryHandler pages through a user's COMPLETED transactions
func TransactionHistoryHandler(db *gorm.DB, engine *ledger.Engine, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := selfOrDirector(c, db)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		page := parsePage(c, domain.DefaultPageSize)
		cacheKey := utils.HistoryKey(userID, page.Page, page.Limit)
		var cached ledger.HistoryPage
		if found, err := cache.GetJSON(ctx, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"transactions": cached.Transactions, "pagination": cached.Pagination, "wallet": cached.Wallet, "cached": true})
			return
		}
		history, err := engine.TransactionHistory(ctx, userID, page)
		if err != nil {
			respondError(c, err)
			return
		}
		_ = cache.SetJSON(ctx, cacheKey, history) // Cache the page
		c.JSON(http.StatusOK, gin.H{"transactions": history.Transactions, "pagination": history.Pagination, "wallet": history.Wallet, "cached": false})
	}
}

// PendingRequestsHandler lists every PENDING request for review, oldest first
func PendingRequestsHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := engine.PendingRequests(c.Request.Context(), parsePage(c, domain.DefaultPageSize))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// ApproveHandler applies a PENDING request
func ApproveHandler(engine *ledger.Engine, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		directorID, _ := currentUserID(c)
		txID, ok := uintParam(c, "transactionId")
		if !ok {
			return
		}
		var req ApproveRequest
		_ = c.ShouldBindJSON(&req) // Body is optional
		res, err := engine.ApproveSpendingRequest(c.Request.Context(), txID, directorID, req.ApprovalNote)
		if err != nil {
			respondError(c, err)
			return
		}
		invalidateUser(c.Request.Context(), cache, res.Wallet.UserID)
		c.JSON(http.StatusOK, gin.H{"message": "Spending request approved", "transaction": res.Transaction, "wallet": res.Wallet})
	}
}

// RejectHandler cancels a PENDING request
func RejectHandler(db *gorm.DB, engine *ledger.Engine, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		directorID, _ := currentUserID(c)
		txID, ok := uintParam(c, "transactionId")
		if !ok {
			return
		}
		var req RejectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		t, err := engine.RejectSpendingRequest(c.Request.Context(), txID, directorID, req.RejectionReason)
		if err != nil {
			respondError(c, err)
			return
		}
		invalidateWallet(c.Request.Context(), db, cache, t.WalletID)
		c.JSON(http.StatusOK, gin.H{"message": "Spending request rejected", "transaction": t})
	}
}

// AddCoinsHandler credits a user's wallet on behalf of a director
func AddCoinsHandler(engine *ledger.Engine, cache *utils.Cache) gin.HandlerFunc {
	return adjustmentHandler(engine.Credit, cache, "Coins added")
}

// RemoveCoinsHandler debits a user's wallet on behalf of a director
func RemoveCoinsHandler(engine *ledger.Engine, cache *utils.Cache) gin.HandlerFunc {
	return adjustmentHandler(engine.Debit, cache, "Coins removed")
}

// adjustmentHandler binds an AdjustmentRequest and posts it with post
func adjustmentHandler(post func(context.Context, uint, ledger.Entry) (*ledger.Result, error), cache *utils.Cache, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		directorID, _ := currentUserID(c)
		var req AdjustmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		res, err := post(c.Request.Context(), req.UserID, ledger.Entry{
			Amount:      req.Amount,
			Title:       req.Title,
			Description: req.Description,
			Reference:   req.Reference,
			ProcessedBy: &directorID,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		invalidateUser(c.Request.Context(), cache, req.UserID)
		c.JSON(http.StatusOK, gin.H{"message": message, "transaction": res.Transaction, "wallet": res.Wallet})
	}
}

// SetWalletStatusHandler activates or deactivates a user's wallet
func SetWalletStatusHandler(engine *ledger.Engine, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := uintParam(c, "userId")
		if !ok {
			return
		}
		var req WalletStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		wallet, err := engine.SetWalletActive(c.Request.Context(), userID, *req.IsActive)
		if err != nil {
			respondError(c, err)
			return
		}
		invalidateUser(c.Request.Context(), cache, userID)
		c.JSON(http.StatusOK, gin.H{"message": "Wallet status updated", "wallet": wallet})
	}
}

// AuditHandler replays a wallet's history and reports inconsistencies
func AuditHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := uintParam(c, "userId")
		if !ok {
			return
		}
		report, err := engine.VerifyWallet(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// ProvisionWalletHandler opens the wallet of a user whose registration could
// not create one. Existing wallets are returned unchanged.
func ProvisionWalletHandler(accounts *account.Service, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := uintParam(c, "userId")
		if !ok {
			return
		}
		wallet, err := accounts.ProvisionWallet(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		invalidateUser(c.Request.Context(), cache, userID)
		c.JSON(http.StatusOK, gin.H{"wallet": wallet})
	}
}
