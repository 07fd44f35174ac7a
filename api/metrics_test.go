package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/linesmerrill/police-fir-api/api"
	"github.com/linesmerrill/police-fir-api/performance"
)

func TestMetricsMiddleware(t *testing.T) {
	m := api.NewMetrics()
	r := mux.NewRouter()
	r.Use(m.MetricsMiddleware)
	r.HandleFunc("/api/v1/cases/{case_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/cases/abc", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	m.RecordDisposal("Chargesheeted")
	m.SetStationGauges(performance.Report{Stations: []performance.StationMetrics{{
		StationName:           "Panaji PS",
		UrgencyHistogram:      map[string]int{"Red": 3},
		PerformancePercentage: 40,
	}}})

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	assert.Contains(t, body, `fir_http_requests_total{method="GET",route="/api/v1/cases/{case_id}",status="404"} 1`)
	assert.Contains(t, body, `fir_disposals_total{status="Chargesheeted"} 1`)
	assert.Contains(t, body, `fir_open_cases{station="Panaji PS",tier="Red"} 3`)
	assert.Contains(t, body, `fir_station_performance_percentage{station="Panaji PS"} 40`)
}

func TestTimeoutMiddleware(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	slow := api.TimeoutMiddleware(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	slow.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/reports/performance", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	fast := api.TimeoutMiddleware(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	rr = httptest.NewRecorder()
	fast.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil))
	assert.Equal(t, http.StatusCreated, rr.Code)
}
