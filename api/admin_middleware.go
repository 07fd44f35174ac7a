package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-fir-api/models"
	"github.com/linesmerrill/police-fir-api/scope"
)

// AdminTokenTTL is the lifetime of an admin JWT
const AdminTokenTTL = 24 * time.Hour

const adminScope = "admin"

// AdminClaims are the claims of an admin access token
type AdminClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// JWTManager signs and validates admin tokens
type JWTManager struct {
	secretKey []byte
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{secretKey: []byte(secret)}
}

// GenerateToken issues an admin token for user
func (m *JWTManager) GenerateToken(user *models.User, now time.Time) (string, error) {
	if len(m.secretKey) == 0 {
		return "", errors.New("JWT_SECRET is not set")
	}
	claims := AdminClaims{
		Email: user.Details.Email,
		Name:  user.Details.Name,
		Scope: adminScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AdminTokenTTL)),
			Issuer:    "police-fir-api",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses tokenString and checks it is a live admin token
func (m *JWTManager) ValidateToken(tokenString string) (*AdminClaims, error) {
	if len(m.secretKey) == 0 {
		return nil, errors.New("JWT_SECRET is not set")
	}
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid || claims.Scope != adminScope {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// AdminMiddleware only lets through requests carrying a valid admin JWT. The
// admin actor is put in the request context.
func (m *JWTManager) AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeAuthError(w, http.StatusUnauthorized, "admin token required")
			return
		}
		claims, err := m.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			zap.S().Warnw("rejected admin token", "url", r.URL, "error", err)
			writeAuthError(w, http.StatusUnauthorized, "invalid or expired admin token")
			return
		}
		actor := scope.Actor{ID: claims.Subject, Name: claims.Name, Role: models.RoleAdmin}
		next.ServeHTTP(w, r.WithContext(scope.WithActor(r.Context(), actor)))
	})
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
