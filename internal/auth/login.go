package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/marksheetIA/marksheet-ocr-service/internal/db"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the successful login response
type LoginResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// OperatorFinder looks an operator up by email
type OperatorFinder func(ctx context.Context, email string) (*db.Operator, error)

// HashPassword returns the bcrypt hash stored in operators.password_hash
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// LoginHandler handles operator authentication against the archive database
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	if !db.Available() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "authentication service unavailable"})
		return
	}
	NewLoginHandler(db.FindOperator, db.TouchOperatorLogin)(w, r)
}

// NewLoginHandler builds the login handler around an operator lookup.
// touch, when non-nil, records the successful login in the background.
func NewLoginHandler(find OperatorFinder, touch func(ctx context.Context, id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		if !Enabled() {
			writeJSON(w, http.StatusNotImplemented, map[string]string{"error": ErrDisabled.Error()})
			return
		}

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" || req.Password == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and password are required"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		op, err := find(ctx, req.Email)
		if err != nil {
			if !errors.Is(err, db.ErrOperatorNotFound) {
				slog.Error("operator lookup failed", "component", "auth", "error", err)
			}
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(req.Password)); err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}

		token, err := GenerateToken(op.ID, op.Email, op.Name, op.Role)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to generate token"})
			return
		}

		// Update last login in background
		if touch != nil {
			go func(id string) {
				ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel2()
				if err := touch(ctx2, id); err != nil {
					slog.Warn("could not record login", "component", "auth", "error", err)
				}
			}(op.ID)
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			Token:     token,
			UserID:    op.ID,
			Email:     op.Email,
			Name:      op.Name,
			Role:      op.Role,
			ExpiresAt: time.Now().Add(TokenTTL).UTC(),
		})
	}
}

// MeHandler returns the claims of the calling operator - GET /api/me
func MeHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := GetClaimsFromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"user_id": claims.UserID,
		"email":   claims.Email,
		"name":    claims.Name,
		"role":    claims.Role,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
