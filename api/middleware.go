package api

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/police-fir-api/databases"
	"github.com/linesmerrill/police-fir-api/scope"
)

// TokenTTL is how long an issued bearer token stays valid
const TokenTTL = 12 * time.Hour

// extension keys carried on the authenticated user info
const (
	extName     = "name"
	extStation  = "station"
	extStations = "stations"
)

// MiddlewareDB is a struct that holds the database
type MiddlewareDB struct {
	DB databases.UserDatabase
}

var authenticator auth.Authenticator
var cache store.Cache

// Middleware authenticates the request with basic credentials or a bearer
// token and puts the resulting scope.Actor in the request context
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user, err := authenticator.Authenticate(r)
		if err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		zap.S().Debugf("User %s Authenticated\n", user.UserName())
		next.ServeHTTP(w, r.WithContext(scope.WithActor(r.Context(), ActorFromInfo(user))))
	})
}

// ActorFromInfo rebuilds the actor stored on a go-guardian user
func ActorFromInfo(info auth.Info) scope.Actor {
	a := scope.Actor{ID: info.ID(), Name: info.UserName()}
	if groups := info.Groups(); len(groups) > 0 {
		a.Role = groups[0]
	}
	ext := info.Extensions()
	if names := ext[extName]; len(names) > 0 {
		a.Name = names[0]
	}
	if st := ext[extStation]; len(st) > 0 {
		a.Station = st[0]
	}
	a.Stations = ext[extStations]
	return a
}

func infoFromActor(email string, a scope.Actor) auth.Info {
	ext := map[string][]string{extName: {a.Name}}
	if a.Station != "" {
		ext[extStation] = []string{a.Station}
	}
	if len(a.Stations) > 0 {
		ext[extStations] = a.Stations
	}
	return auth.NewDefaultUser(email, a.ID, []string{a.Role}, ext)
}

// CreateToken returns a token
func (m MiddlewareDB) CreateToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	email, _, ok := r.BasicAuth()
	if !ok {
		http.Error(w, "basic auth failed", http.StatusUnauthorized)
		return
	}
	actor, ok := scope.FromContext(r.Context())
	if !ok {
		http.Error(w, "basic auth failed", http.StatusUnauthorized)
		return
	}

	token := uuid.New().String()
	tokenStrategy := authenticator.Strategy(bearer.CachedStrategyKey)
	if err := auth.Append(tokenStrategy, token, infoFromActor(email, actor), r); err != nil {
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"token":     token,
		"_id":       actor.ID,
		"role":      actor.Role,
		"expiresIn": int(TokenTTL.Seconds()),
	}

	responseBody, err := json.Marshal(response)
	if err != nil {
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}

	w.Write(responseBody)
}

// SetupGoGuardian sets up the go-guardian middleware
func (m MiddlewareDB) SetupGoGuardian() {
	authenticator = auth.New()
	cache = store.NewFIFO(context.Background(), TokenTTL)
	basicStrategy := basic.New(m.ValidateUser, cache)
	tokenStrategy := bearer.New(bearer.NoOpAuthenticate, cache)

	authenticator.EnableStrategy(basic.StrategyKey, basicStrategy)
	authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
}

// ValidateUser checks an officer's email and password against the users
// collection
func (m MiddlewareDB) ValidateUser(ctx context.Context, r *http.Request, email, password string) (auth.Info, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	usernameHash := sha256.Sum256([]byte(email))

	qctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	// fetch email & pass from db
	user, err := m.DB.FindOne(qctx, bson.M{"user.email": email, "user.active": true})
	if err != nil {
		return nil, fmt.Errorf("no matching email found")
	}

	expectedUsernameHash := sha256.Sum256([]byte(strings.ToLower(user.Details.Email)))
	usernameMatch := subtle.ConstantTimeCompare(usernameHash[:], expectedUsernameHash[:]) == 1

	err = bcrypt.CompareHashAndPassword([]byte(user.Details.Password), []byte(password))
	if err != nil {
		return nil, fmt.Errorf("failed to compare password")
	}

	if !usernameMatch {
		return nil, fmt.Errorf("invalid credentials")
	}
	actor := scope.Actor{
		ID:       user.ID.Hex(),
		Name:     user.Details.Name,
		Role:     user.Details.Role,
		Station:  user.Details.Station,
		Stations: user.Details.Stations,
	}
	return infoFromActor(email, actor), nil
}

// RevokeToken revokes a token
func RevokeToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	reqToken := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if reqToken == "" || strings.HasPrefix(reqToken, "Basic ") {
		http.Error(w, "bearer token required", http.StatusBadRequest)
		return
	}

	tokenStrategy := authenticator.Strategy(bearer.CachedStrategyKey)
	if err := auth.Revoke(tokenStrategy, reqToken, r); err != nil {
		http.Error(w, "failed to revoke token", http.StatusInternalServerError)
		return
	}
	w.Write([]byte(`{"revoked": true}`))
}
