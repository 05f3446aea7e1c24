package utils

import (
	"time" // Time for token expiration

	"rocketcoins/internal/domain" // Role carried in the token

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// Claims carried by the bearer token
type Claims struct {
	UserID               uint        `json:"user_id"` // Authenticated user
	Role                 domain.Role `json:"role"`    // Role at issue time, re-checked for director routes
	jwt.RegisteredClaims             // Standard JWT claims
}

// GenerateJWT creates a signed token for userID valid for ttl
func GenerateJWT(userID uint, role domain.Role, secret string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour // Fallback lifetime
	}
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)), // Token expiry
			IssuedAt:  jwt.NewNumericDate(now),          // Issued at current time
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseJWT parses and validates a token string
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	// Validate token and extract claims
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
