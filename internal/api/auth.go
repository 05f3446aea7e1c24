package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"time"     // Token lifetime

	"rocketcoins/internal/account" // Account workflow
	"rocketcoins/internal/domain"  // Importing domain models
	"rocketcoins/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// RegisterRequest is the public sign-up body
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`           // Display name
	Email    string `json:"email" binding:"required,email"`    // Login email
	Password string `json:"password" binding:"required,min=8"` // Plain password, hashed by the account service
}

// LoginRequest is the login body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the bearer token
type AuthResponse struct {
	Token string       `json:"token"` // JWT token
	User  *domain.User `json:"user"`  // Authenticated user
}

// RegisterHandler creates a MEMBER account and opens its wallet. Roles are
// granted by directors afterwards.
func RegisterHandler(accounts *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		user, err := accounts.Register(c.Request.Context(), account.RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
		})
		if errors.Is(err, domain.ErrWalletProvisioning) && user != nil {
			// The account exists; only the wallet is missing and can be provisioned later
			c.JSON(http.StatusCreated, gin.H{
				"message": "User registered, wallet provisioning failed",
				"user":    user,
				"warning": err.Error(),
			})
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": user})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(accounts *account.Service, jwtSecret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		user, err := accounts.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		token, err := utils.GenerateJWT(user.ID, user.Role, jwtSecret, ttl)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token, User: user})
	}
}

// ProfileHandler returns the authenticated user with its wallet
func ProfileHandler(accounts *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		user, err := accounts.Get(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// ListUsersHandler returns all users with their wallet info
func ListUsersHandler(accounts *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := accounts.ListUsers(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users, "total": len(users)})
	}
}

// UpdateRoleRequest changes a user's role
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UpdateRoleHandler lets a director change a user's role
func UpdateRoleHandler(accounts *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := uintParam(c, "id")
		if !ok {
			return
		}
		var req UpdateRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		user, err := accounts.UpdateRole(c.Request.Context(), userID, req.Role)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Role updated", "user": user})
	}
}

// UpdateStatusRequest enables or disables a user
type UpdateStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// UpdateStatusHandler lets a director enable or disable a user
func UpdateStatusHandler(accounts *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := uintParam(c, "id")
		if !ok {
			return
		}
		var req UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		user, err := accounts.UpdateStatus(c.Request.Context(), userID, *req.IsActive)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Status updated", "user": user})
	}
}
