package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/police-fir-api/api/handlers"
	th "github.com/linesmerrill/police-fir-api/api/testhelpers"
	"github.com/linesmerrill/police-fir-api/databases/mocks"
	"github.com/linesmerrill/police-fir-api/models"
	"github.com/linesmerrill/police-fir-api/performance"
	"github.com/linesmerrill/police-fir-api/scope"
)

// memoryCache keeps reports in a map
type memoryCache struct {
	entries     map[string][]byte
	invalidated int
}

func newMemoryCache() *memoryCache { return &memoryCache{entries: map[string][]byte{}} }

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	b, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}) error {
	b, err := json.Marshal(value)
	m.entries[key] = b
	return err
}

func (m *memoryCache) Invalidate(context.Context) error {
	m.entries = map[string][]byte{}
	m.invalidated++
	return nil
}

func chargesheeted(st models.Station, number string, disposed string) models.Case {
	c := th.RegisteredCase(st, number, "2025-01-01", 90)
	c.Details.DisposalStatus = models.StatusChargesheeted
	d := th.Day(disposed)
	c.Details.DisposalDate = &d
	return c
}

// panajiCases is 4 on-time chargesheets out of 10 cases
func panajiCases() []models.Case {
	var cases []models.Case
	for i := 0; i < 4; i++ {
		cases = append(cases, chargesheeted(panaji, "PNJ/C"+string(rune('0'+i)), "2025-03-15"))
	}
	for i := 0; i < 6; i++ {
		cases = append(cases, th.RegisteredCase(panaji, "PNJ/R"+string(rune('0'+i)), "2025-01-01", 90))
	}
	return cases
}

func newReportHandler() (handlers.Report, *mocks.CaseDatabase, *mocks.SnapshotDatabase, *memoryCache) {
	caseDB := &mocks.CaseDatabase{}
	stationDB := &mocks.StationDatabase{}
	snapDB := &mocks.SnapshotDatabase{}
	stationDB.On("ListActive", mock.Anything).Return([]models.Station{mapusa, margao, panaji}, nil)
	c := newMemoryCache()
	h := handlers.Report{
		CaseDB:       caseDB,
		StationDB:    stationDB,
		SnapDB:       snapDB,
		Cache:        c,
		Clock:        th.Clock(th.Day("2025-03-28")),
		PushInterval: 20 * time.Millisecond,
	}
	return h, caseDB, snapDB, c
}

func TestReport_PerformanceReportHandler_StationOfficer(t *testing.T) {
	h, caseDB, _, c := newReportHandler()
	caseDB.On("Find", mock.Anything, mock.MatchedBy(func(q bson.M) bool {
		in, ok := q["case.stationName"].(bson.M)
		return ok && assert.ObjectsAreEqual([]string{"Panaji PS"}, in["$in"])
	})).Return(panajiCases(), nil).Once()

	officer := th.StationOfficer("Panaji PS")
	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		http.HandlerFunc(h.PerformanceReportHandler).ServeHTTP(rr, th.Request("GET", "/api/v1/reports/performance", nil, &officer))

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var got performance.Report
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		require.Len(t, got.Stations, 1)
		assert.Equal(t, "Panaji PS", got.Stations[0].StationName)
		assert.Equal(t, 40, got.Stations[0].PerformancePercentage)
		assert.Equal(t, 6, got.Stations[0].UrgencyHistogram["Red"])
		assert.Equal(t, 40.0, got.Summary.AveragePerformancePercentage)
	}
	// the second request is served from the cache
	caseDB.AssertNumberOfCalls(t, "Find", 1)
	assert.Len(t, c.entries, 1)
}

func TestReport_PerformanceReportHandler_ZeroCaseStations(t *testing.T) {
	h, caseDB, _, _ := newReportHandler()
	caseDB.On("Find", mock.Anything, mock.Anything).Return(panajiCases(), nil)

	admin := th.Admin()
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.PerformanceReportHandler).ServeHTTP(rr, th.Request("GET", "/api/v1/reports/performance?sort=name", nil, &admin))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got performance.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got.Stations, 3)
	assert.Equal(t, "Mapusa PS", got.Stations[0].StationName)
	assert.Equal(t, 0, got.Stations[0].TotalCases)
	assert.Equal(t, 10, got.Summary.TotalCases)
	assert.Equal(t, 40, got.Summary.PerformancePercentage)
	assert.InDelta(t, 13.33, got.Summary.AveragePerformancePercentage, 0.001)
}

func TestReport_PerformanceReportHandler_BadParams(t *testing.T) {
	h, _, _, _ := newReportHandler()
	admin := th.Admin()
	for _, target := range []string{
		"/api/v1/reports/performance?sort=urgency",
		"/api/v1/reports/performance?tier=red",
		"/api/v1/reports/performance?from=2025-02-01&to=2025-01-01",
	} {
		rr := httptest.NewRecorder()
		http.HandlerFunc(h.PerformanceReportHandler).ServeHTTP(rr, th.Request("GET", target, nil, &admin))
		assert.True(t, rr.Code == http.StatusBadRequest || rr.Code == http.StatusUnprocessableEntity, target)
	}
}

func TestReport_PerformanceReportHandler_UnknownRole(t *testing.T) {
	h, _, _, _ := newReportHandler()
	stranger := scope.Actor{ID: "x", Role: "clerk"}
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.PerformanceReportHandler).ServeHTTP(rr, th.Request("GET", "/api/v1/reports/performance", nil, &stranger))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestReport_DashboardHandler(t *testing.T) {
	h, caseDB, _, _ := newReportHandler()
	late := th.RegisteredCase(margao, "MRG/1/2025", "2024-12-01", 60)
	caseDB.On("Find", mock.Anything, mock.Anything).Return(append(panajiCases(), late), nil)

	admin := th.Admin()
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.DashboardHandler).ServeHTTP(rr, th.Request("GET", "/api/v1/dashboard?limit=2", nil, &admin))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got handlers.DashboardResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 11, got.Summary.TotalCases)
	assert.Equal(t, 1, got.Summary.UrgencyHistogram["Exceeded"])
	require.Len(t, got.Urgent, 2)
	assert.Equal(t, "MRG/1/2025", got.Urgent[0].Details.CaseNumber)
	assert.Equal(t, "Exceeded", got.Urgent[0].Urgency)
}

func TestReport_PerformanceReportHandler_StationNameCasing(t *testing.T) {
	canonical := mock.MatchedBy(func(q bson.M) bool {
		in, ok := q["case.stationName"].(bson.M)
		return ok && assert.ObjectsAreEqual([]string{"Panaji PS"}, in["$in"])
	})

	admin := th.Admin()
	shouting := th.StationOfficer("PANAJI PS")
	for name, req := range map[string]*http.Request{
		"admin lower-case station": th.Request("GET", "/api/v1/reports/performance?station=panaji+ps", nil, &admin),
		"officer upper-case scope": th.Request("GET", "/api/v1/reports/performance", nil, &shouting),
	} {
		t.Run(name, func(t *testing.T) {
			h, caseDB, _, _ := newReportHandler()
			caseDB.On("Find", mock.Anything, canonical).Return(panajiCases(), nil).Once()

			rr := httptest.NewRecorder()
			http.HandlerFunc(h.PerformanceReportHandler).ServeHTTP(rr, req)

			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			var got performance.Report
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			require.Len(t, got.Stations, 1)
			assert.Equal(t, "Panaji PS", got.Stations[0].StationName)
			assert.Equal(t, 10, got.Stations[0].TotalCases)
			assert.Equal(t, 40, got.Stations[0].PerformancePercentage)
			caseDB.AssertExpectations(t)
		})
	}
}

func TestReport_DashboardHandler_SkipsDeactivatedStations(t *testing.T) {
	h, caseDB, _, _ := newReportHandler()
	closed := th.Station("Closed PS", "Closed", models.DistrictNorthGoa)
	orphan := th.RegisteredCase(closed, "CLS/1/2024", "2024-10-01", 60)
	caseDB.On("Find", mock.Anything, mock.Anything).Return(append(panajiCases(), orphan), nil)

	admin := th.Admin()
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.DashboardHandler).ServeHTTP(rr, th.Request("GET", "/api/v1/dashboard", nil, &admin))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got handlers.DashboardResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 10, got.Summary.TotalCases)
	for _, v := range got.Urgent {
		assert.NotEqual(t, "Closed PS", v.Details.StationName)
	}
}

func TestReport_SnapshotsHandler(t *testing.T) {
	h, _, snapDB, _ := newReportHandler()
	snaps := []models.PerformanceSnapshot{{Day: "2025-03-27", StationName: "Panaji PS", PerformancePercentage: 40}}
	snapDB.On("Find", mock.Anything, bson.M{
		"stationName": bson.M{"$in": []string{"Panaji PS"}},
		"day":         bson.M{"$gte": "2025-03-01"},
	}, mock.Anything).Return(snaps, nil)

	officer := th.StationOfficer("Panaji PS")
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.SnapshotsHandler).ServeHTTP(rr, th.Request("GET", "/api/v1/reports/snapshots?from=2025-03-01", nil, &officer))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got []models.PerformanceSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, snaps, got)
}

func TestReport_SnapshotsHandler_OutOfScope(t *testing.T) {
	h, _, snapDB, _ := newReportHandler()
	officer := th.StationOfficer("Panaji PS")
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.SnapshotsHandler).ServeHTTP(rr, th.Request("GET", "/api/v1/reports/snapshots?station=Mapusa+PS", nil, &officer))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())
	snapDB.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything)
}

func TestReport_DashboardSocketHandler(t *testing.T) {
	h, caseDB, _, _ := newReportHandler()
	caseDB.On("Find", mock.Anything, mock.Anything).Return(panajiCases(), nil)

	officer := th.StationOfficer("Panaji PS")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.DashboardSocketHandler(w, r.WithContext(scope.WithActor(r.Context(), officer)))
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	// the first frame is sent on connect, the second after one interval
	for i := 0; i < 2; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var got handlers.DashboardResponse
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, 10, got.Summary.TotalCases)
		assert.Equal(t, 1, got.Summary.StationCount)
	}
}
