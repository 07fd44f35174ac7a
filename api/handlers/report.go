package handlers

import (
	"context"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-fir-api/api"
	"github.com/linesmerrill/police-fir-api/cache"
	"github.com/linesmerrill/police-fir-api/config"
	"github.com/linesmerrill/police-fir-api/databases"
	"github.com/linesmerrill/police-fir-api/disposal"
	"github.com/linesmerrill/police-fir-api/models"
	"github.com/linesmerrill/police-fir-api/performance"
	"github.com/linesmerrill/police-fir-api/scope"
)

// DefaultUrgentLimit is how many open cases the dashboard lists
const DefaultUrgentLimit = 10

// Report exported for testing purposes
type Report struct {
	CaseDB       databases.CaseDatabase
	StationDB    databases.StationDatabase
	SnapDB       databases.SnapshotDatabase
	Cache        cache.ReportCache
	Clock        Clock
	PushInterval time.Duration
}

// DashboardResponse is the system summary plus the open cases closest to
// or past their deadline
type DashboardResponse struct {
	Summary     performance.Summary `json:"summary"`
	Urgent      []models.CaseView   `json:"urgent"`
	GeneratedAt time.Time           `json:"generatedAt"`
}

// collect fetches the stations and active cases selected by requested for
// actor. Every station in scope is returned, with or without cases.
func (rp Report) collect(ctx context.Context, actor scope.Actor, requested scope.Filter) ([]models.Station, []models.Case, error) {
	f, registry, err := scopedFilter(ctx, rp.StationDB, actor, requested)
	if err != nil {
		return nil, nil, err
	}
	stations := scope.Stations(f, registry)
	if f.Empty {
		return stations, nil, nil
	}
	cases, err := rp.CaseDB.Find(ctx, databases.CaseQuery(f))
	if err != nil {
		return nil, nil, err
	}
	return stations, casesAt(stations, cases), nil
}

// casesAt keeps the cases filed at one of stations. An unfiltered query
// also returns cases of deactivated stations.
func casesAt(stations []models.Station, cases []models.Case) []models.Case {
	names := make(map[string]bool, len(stations))
	for _, s := range stations {
		names[scope.NormalizeStation(s.Name)] = true
	}
	out := make([]models.Case, 0, len(cases))
	for _, c := range cases {
		if names[scope.NormalizeStation(c.Details.StationName)] {
			out = append(out, c)
		}
	}
	return out
}

// PerformanceReportHandler returns per-station disposal metrics and the
// system summary for the stations visible to the caller
func (rp Report) PerformanceReportHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	order := q.Get("sort")
	if order == "" {
		order = performance.SortByPerformance
	}
	if !performance.ValidSort(order) {
		writeDisposalError("invalid sort order", w, disposal.Validationf("sort must be performance or name"))
		return
	}
	requested, err := parseCaseFilter(q)
	if err != nil {
		writeDisposalError("invalid report filter", w, err)
		return
	}
	if len(requested.Tiers) > 0 {
		writeDisposalError("invalid report filter", w, disposal.Validationf("reports cannot be filtered by tier"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	key := cache.Key("performance", actor.CacheKey(), q)
	var report performance.Report
	if rp.Cache != nil {
		hit, err := rp.Cache.Get(ctx, key, &report)
		if err != nil {
			zap.S().With("error", err).Warn("report cache read failed")
		}
		if hit {
			writeJSON(w, http.StatusOK, report)
			return
		}
	}

	stations, cases, err := rp.collect(ctx, actor, requested)
	if err != nil {
		writeDisposalError("failed to build performance report", w, err)
		return
	}
	report = performance.Aggregate(stations, cases, rp.Clock.now())
	performance.Sort(report.Stations, order)

	if rp.Cache != nil {
		if err := rp.Cache.Set(ctx, key, report); err != nil {
			zap.S().With("error", err).Warn("report cache write failed")
		}
	}
	writeJSON(w, http.StatusOK, report)
}

// DashboardHandler returns the caller's summary and most urgent open cases
func (rp Report) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	limit, err := intParam(r.URL.Query(), "limit")
	if err != nil {
		writeDisposalError("invalid limit", w, err)
		return
	}
	if limit == 0 {
		limit = DefaultUrgentLimit
	}
	if limit > databases.MaxLimit {
		limit = databases.MaxLimit
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	resp, err := rp.dashboard(ctx, actor, limit)
	if err != nil {
		writeDisposalError("failed to build dashboard", w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rp Report) dashboard(ctx context.Context, actor scope.Actor, limit int) (DashboardResponse, error) {
	stations, cases, err := rp.collect(ctx, actor, scope.Filter{})
	if err != nil {
		return DashboardResponse{}, err
	}
	now := rp.Clock.now()
	report := performance.Aggregate(stations, cases, now)
	return DashboardResponse{
		Summary:     report.Summary,
		Urgent:      performance.MostUrgent(cases, now, limit),
		GeneratedAt: now,
	}, nil
}

// SnapshotsHandler returns the stored daily snapshots of the stations
// visible to the caller, newest day first
func (rp Report) SnapshotsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	requested, err := parseCaseFilter(r.URL.Query())
	if err != nil {
		writeDisposalError("invalid snapshot filter", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	f, _, err := scopedFilter(ctx, rp.StationDB, actor, requested)
	if err != nil {
		writeDisposalError("failed to get snapshots", w, err)
		return
	}
	if f.Empty {
		writeJSON(w, http.StatusOK, []models.PerformanceSnapshot{})
		return
	}

	query := bson.M{}
	if f.Stations != nil {
		query["stationName"] = bson.M{"$in": f.Stations}
	}
	days := bson.M{}
	if f.FiledFrom != nil {
		days["$gte"] = f.FiledFrom.Format("2006-01-02")
	}
	if f.FiledTo != nil {
		days["$lte"] = f.FiledTo.Format("2006-01-02")
	}
	if len(days) > 0 {
		query["day"] = days
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "day", Value: -1}, {Key: "stationName", Value: 1}}).
		SetLimit(int64(databases.MaxLimit) * 10)

	snapshots, err := rp.SnapDB.Find(ctx, query, opts)
	if err != nil {
		config.ErrorStatus("failed to get snapshots", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}
