package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"iserve/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const userIDKey contextKey = "userID"
const roleKey contextKey = "role"

var ErrInvalidToken = errors.New("invalid or expired token")

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SecretKey string
	Expiry    time.Duration
}

// NewJWTConfig creates a new JWT config
func NewJWTConfig(secretKey string, expiry time.Duration) *JWTConfig {
	if secretKey == "" {
		secretKey = "default-secret-key-change-in-production" // Default for development
	}
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &JWTConfig{SecretKey: secretKey, Expiry: expiry}
}

// Claims are the token claims issued at login
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// Issue signs a token for the given user.
func (c *JWTConfig) Issue(userID string, role model.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    "iserve",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.Expiry)),
		},
		Role: string(role),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.SecretKey))
}

// Validate parses a raw token string and returns its claims.
func (c *JWTConfig) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(c.SecretKey), nil
	}, jwt.WithIssuer("iserve"))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Middleware creates a JWT authentication middleware. Requests without an
// Authorization header pass through anonymous; a malformed or expired
// bearer token is rejected with 401 so clients can clear their session.
func (c *JWTConfig) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
			return
		}

		claims, err := c.Validate(parts[1])
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		if claims.Subject != "" {
			ctx = context.WithValue(ctx, userIDKey, claims.Subject)
		}
		if claims.Role != "" {
			ctx = context.WithValue(ctx, roleKey, claims.Role)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects anonymous requests.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserID(r.Context()) == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(userIDKey).(string); ok {
		return userID
	}
	return ""
}

// GetRole extracts the role from context
func GetRole(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}
