package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is how long an issued token stays valid
const TokenTTL = 24 * time.Hour

const issuer = "marksheet-ocr-service"

var (
	// ErrDisabled is returned when tokens are requested without a configured secret
	ErrDisabled = errors.New("authentication disabled: JWT_SECRET not set")

	// ErrNoClaims is returned when a request context carries no token claims
	ErrNoClaims = errors.New("no claims in context")

	jwtSecret []byte
)

type contextKey struct{}

// Claims are the token contents for an operator session
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Init reads JWT_SECRET. Without it the API runs unauthenticated.
func Init() error {
	configure(os.Getenv("JWT_SECRET"))
	if !Enabled() {
		slog.Warn("JWT_SECRET not set, API authentication disabled", "component", "auth")
	}
	return nil
}

func configure(secret string) {
	if secret == "" {
		jwtSecret = nil
		return
	}
	jwtSecret = []byte(secret)
}

// Enabled reports whether requests must carry a token
func Enabled() bool {
	return len(jwtSecret) > 0
}

// GenerateToken issues a signed HS256 token for an operator
func GenerateToken(userID, email, name, role string) (string, error) {
	if !Enabled() {
		return "", ErrDisabled
	}
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Name:   name,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

// ValidateToken parses and verifies a token string
func ValidateToken(tokenString string) (*Claims, error) {
	if !Enabled() {
		return nil, ErrDisabled
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// JWTMiddleware requires a valid bearer token on every route except /health and /api/login
func JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !Enabled() || r.URL.Path == "/health" || r.URL.Path == "/api/login" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			unauthorized(w, "missing bearer token")
			return
		}

		claims, err := ValidateToken(tokenString)
		if err != nil {
			unauthorized(w, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), contextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClaimsFromContext returns the claims the middleware attached to the request
func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(contextKey{}).(*Claims)
	if !ok || claims == nil {
		return nil, ErrNoClaims
	}
	return claims, nil
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
