package api

import (
	"context"  // Context for cache invalidation
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"rocketcoins/internal/domain"     // Importing domain models
	"rocketcoins/internal/middleware" // Context keys
	"rocketcoins/internal/utils"      // Response cache

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// statusFor maps a domain error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrWalletNotFound),
		errors.Is(err, domain.ErrRequestNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateWallet),
		errors.Is(err, domain.ErrDuplicateEmail),
		errors.Is(err, domain.ErrRecordAlreadyClosed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrWalletInactive),
		errors.Is(err, domain.ErrAccountDisabled):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON. Unknown errors are logged and hidden.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.ContextRequestID),
			"path":       c.FullPath(),
			"error":      err.Error(),
		}).Error("Request failed")
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	body := gin.H{"error": err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body["field"] = verr.Field
	}
	var ierr *domain.InsufficientBalanceError
	if errors.As(err, &ierr) {
		body["balance"] = ierr.Balance.StringFixed(2)
		body["requested"] = ierr.Requested.StringFixed(2)
	}
	c.JSON(status, body)
}

// badRequest reports a malformed body or parameter
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// currentUserID returns the authenticated user's id
func currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(middleware.ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// uintParam parses the named path parameter
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(v), true
}

// parsePage reads page and limit (or page_size) from the query string
func parsePage(c *gin.Context, fallback int) domain.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limitStr := c.Query("limit")
	if limitStr == "" {
		limitStr = c.Query("page_size")
	}
	limit, _ := strconv.Atoi(limitStr)
	return domain.NewPage(page, limit, fallback)
}

// selfOrDirector resolves the :userId parameter and lets the request through
// when it names the caller, or when the caller is an active director.
func selfOrDirector(c *gin.Context, db *gorm.DB) (uint, bool) {
	callerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	targetID, ok := uintParam(c, "userId")
	if !ok {
		return 0, false
	}
	if targetID == callerID {
		return targetID, true
	}
	var caller domain.User
	if err := db.WithContext(c.Request.Context()).First(&caller, callerID).Error; err != nil || !caller.IsActive || !caller.IsDirector() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return 0, false
	}
	return targetID, true
}

// invalidateUser drops the cached wallet and history of userID
func invalidateUser(ctx context.Context, cache *utils.Cache, userID uint) {
	if err := cache.InvalidateUser(ctx, userID); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Cache invalidation failed")
	}
}

// invalidateWallet drops the cache of the user owning walletID
func invalidateWallet(ctx context.Context, db *gorm.DB, cache *utils.Cache, walletID uint) {
	var wallet domain.Wallet
	if err := db.WithContext(ctx).Select("user_id").First(&wallet, walletID).Error; err != nil {
		return
	}
	invalidateUser(ctx, cache, wallet.UserID)
}
