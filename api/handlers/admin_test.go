package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/police-fir-api/api"
	"github.com/linesmerrill/police-fir-api/api/handlers"
	th "github.com/linesmerrill/police-fir-api/api/testhelpers"
	"github.com/linesmerrill/police-fir-api/databases/mocks"
	"github.com/linesmerrill/police-fir-api/models"
)

func newAdminHandler(t *testing.T) (handlers.Admin, *api.JWTManager) {
	hash, err := bcrypt.GenerateFromPassword([]byte("control-room"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID: primitive.NewObjectID(),
		Details: models.UserDetails{
			Email:    "sp.north@goapolice.gov.in",
			Name:     "SP North",
			Password: string(hash),
			Role:     models.RoleAdmin,
			Active:   true,
		},
	}
	db := &mocks.UserDatabase{}
	db.On("FindOne", mock.Anything, bson.M{"user.email": user.Details.Email, "user.role": models.RoleAdmin, "user.active": true}).Return(user, nil)
	db.On("FindOne", mock.Anything, mock.Anything).Return(nil, errors.New("not found"))

	jwtManager := api.NewJWTManager("test-secret")
	return handlers.Admin{UDB: db, JWT: jwtManager}, jwtManager
}

func TestAdmin_AdminLoginHandler(t *testing.T) {
	h, jwtManager := newAdminHandler(t)

	rr := httptest.NewRecorder()
	body := `{"email": " SP.North@goapolice.gov.in ", "password": "control-room"}`
	http.HandlerFunc(h.AdminLoginHandler).ServeHTTP(rr, th.Request("POST", "/api/v1/admin/login", body, nil))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expiresIn"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, int(api.AdminTokenTTL.Seconds()), resp.ExpiresIn)

	claims, err := jwtManager.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "SP North", claims.Name)
}

func TestAdmin_AdminLoginHandler_Rejections(t *testing.T) {
	h, _ := newAdminHandler(t)
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"missing password", `{"email": "sp.north@goapolice.gov.in"}`, http.StatusBadRequest},
		{"wrong password", `{"email": "sp.north@goapolice.gov.in", "password": "guess"}`, http.StatusUnauthorized},
		{"not an admin", `{"email": "pi.panaji@goapolice.gov.in", "password": "control-room"}`, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			http.HandlerFunc(h.AdminLoginHandler).ServeHTTP(rr, th.Request("POST", "/api/v1/admin/login", tt.body, nil))
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}
