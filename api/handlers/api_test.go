package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/linesmerrill/police-fir-api/models"
)

var a App

func executeRequest(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int) {
	if expected != actual {
		t.Errorf("Expected response code %d. Got %d\n", expected, actual)
	}
}

func TestUnknownRoute(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/asdf", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusNotFound, response.Code)
}

func TestHealthCheckRoute(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/health", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusOK, response.Code)

	var body models.HealthCheckResponse
	if err := json.Unmarshal(response.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Alive {
		t.Errorf("expected alive health check, got %s", response.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	a.Router = a.New()
	executeRequest(httptest.NewRequest("GET", "/health", nil))

	response := executeRequest(httptest.NewRequest("GET", "/metrics", nil))
	checkResponseCode(t, http.StatusOK, response.Code)
	if !strings.Contains(response.Body.String(), "fir_http_requests_total") {
		t.Errorf("expected request counter in metrics output")
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	a.Router = a.New()
	for _, route := range []struct{ method, path string }{
		{"GET", "/api/v1/cases"},
		{"POST", "/api/v1/cases"},
		{"PUT", "/api/v1/cases/5fc51f58c72ff10004dca382/disposal"},
		{"GET", "/api/v1/reports/performance"},
		{"GET", "/api/v1/dashboard"},
		{"GET", "/api/v1/stations"},
		{"DELETE", "/api/v1/admin/cases/5fc51f58c72ff10004dca382"},
		{"POST", "/api/v1/admin/stations"},
	} {
		response := executeRequest(httptest.NewRequest(route.method, route.path, nil))
		checkResponseCode(t, http.StatusUnauthorized, response.Code)
	}
}
