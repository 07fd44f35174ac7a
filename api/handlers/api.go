package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-fir-api/api"
	"github.com/linesmerrill/police-fir-api/api/scheduler"
	"github.com/linesmerrill/police-fir-api/cache"
	"github.com/linesmerrill/police-fir-api/config"
	"github.com/linesmerrill/police-fir-api/databases"
	"github.com/linesmerrill/police-fir-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router      *mux.Router
	Config      config.Config
	Metrics     *api.Metrics
	Cache       cache.ReportCache
	RateLimiter *api.RateLimiter
	Scheduler   *scheduler.Scheduler
	client      databases.ClientHelper
	dbHelper    databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	if a.Metrics == nil {
		a.Metrics = api.NewMetrics()
	}
	if a.Cache == nil {
		a.Cache = cache.NoopReportCache{}
	}
	if a.RateLimiter == nil {
		a.RateLimiter = api.NewRateLimiter(a.Config.RateLimitRequests, a.Config.RateLimitWindow)
		a.RateLimiter.TrustProxy = a.Config.TrustProxy
	}

	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()
	jwtManager := api.NewJWTManager(a.Config.JWTSecret)

	caseDB := databases.NewCaseDatabase(a.dbHelper)
	stationDB := databases.NewStationDatabase(a.dbHelper)

	c := Case{DB: caseDB, SDB: stationDB, Cache: a.Cache, Metrics: a.Metrics}
	s := Station{DB: stationDB, Cache: a.Cache}
	rp := Report{
		CaseDB:       caseDB,
		StationDB:    stationDB,
		SnapDB:       databases.NewSnapshotDatabase(a.dbHelper),
		Cache:        a.Cache,
		PushInterval: a.Config.DashboardPushInterval,
	}
	admin := Admin{UDB: databases.NewUserDatabase(a.dbHelper), JWT: jwtManager}

	r := mux.NewRouter()
	r.Use(a.Metrics.MetricsMiddleware, a.RateLimiter.Middleware, api.TimeoutMiddleware(api.RequestTimeout))

	// healthchex
	r.HandleFunc("/health", a.healthCheckHandler)
	r.Handle("/metrics", a.Metrics.Handler())

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")
	apiCreate.Handle("/admin/login", http.HandlerFunc(admin.AdminLoginHandler)).Methods("POST")

	apiCreate.Handle("/cases", api.Middleware(http.HandlerFunc(c.CaseListHandler))).Methods("GET")
	apiCreate.Handle("/cases", api.Middleware(http.HandlerFunc(c.CreateCaseHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}", api.Middleware(http.HandlerFunc(c.CaseByIDHandler))).Methods("GET")
	apiCreate.Handle("/cases/{case_id}", api.Middleware(http.HandlerFunc(c.UpdateCaseHandler))).Methods("PATCH")
	apiCreate.Handle("/cases/{case_id}", api.Middleware(http.HandlerFunc(c.DeleteCaseHandler))).Methods("DELETE")
	apiCreate.Handle("/cases/{case_id}/disposal", api.Middleware(http.HandlerFunc(c.DisposalHandler))).Methods("PUT")
	apiCreate.Handle("/cases/{case_id}/remarks", api.Middleware(http.HandlerFunc(c.AddRemarkHandler))).Methods("POST")

	apiCreate.Handle("/stations", api.Middleware(http.HandlerFunc(s.StationListHandler))).Methods("GET")
	apiCreate.Handle("/stations/hierarchy", api.Middleware(http.HandlerFunc(s.StationHierarchyHandler))).Methods("GET")

	apiCreate.Handle("/reports/performance", api.Middleware(http.HandlerFunc(rp.PerformanceReportHandler))).Methods("GET")
	apiCreate.Handle("/reports/snapshots", api.Middleware(http.HandlerFunc(rp.SnapshotsHandler))).Methods("GET")
	apiCreate.Handle("/dashboard", api.Middleware(http.HandlerFunc(rp.DashboardHandler))).Methods("GET")
	apiCreate.Handle("/ws/dashboard", api.Middleware(http.HandlerFunc(rp.DashboardSocketHandler))).Methods("GET")

	apiCreate.Handle("/admin/cases/{case_id}", jwtManager.AdminMiddleware(http.HandlerFunc(c.PurgeCaseHandler))).Methods("DELETE")
	apiCreate.Handle("/admin/stations", jwtManager.AdminMiddleware(http.HandlerFunc(s.CreateStationHandler))).Methods("POST")
	apiCreate.Handle("/admin/stations/{station_id}", jwtManager.AdminMiddleware(http.HandlerFunc(s.UpdateStationHandler))).Methods("PATCH")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With("error", err).Error("failed to create new client")
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect(ctx)
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With("error", err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("police-fir-api has connected to the database")

	caseDB := databases.NewCaseDatabase(a.dbHelper)
	stationDB := databases.NewStationDatabase(a.dbHelper)
	if err := caseDB.EnsureIndexes(ctx); err != nil {
		zap.S().With("error", err).Error("failed to create case indexes")
		return err
	}
	if err := stationDB.EnsureIndexes(ctx); err != nil {
		zap.S().With("error", err).Error("failed to create station indexes")
		return err
	}

	if a.Config.RedisURL != "" {
		a.Cache, err = cache.NewReportCache(a.Config.RedisURL, a.Config.ReportCacheTTL)
		if err != nil {
			zap.S().With("error", err).Error("failed to set up report cache")
			return err
		}
	} else {
		zap.S().Warn("REDIS_URL not set, performance reports are not cached")
	}

	a.Metrics = api.NewMetrics()
	a.Scheduler = scheduler.NewScheduler(
		a.Config.SnapshotSchedule,
		caseDB,
		stationDB,
		databases.NewSnapshotDatabase(a.dbHelper),
		databases.NewSchedulerLockDatabase(a.dbHelper),
		a.Metrics,
	)

	// initialize api router
	a.initializeRoutes()
	return nil
}

// Close disconnects from the database
func (a *App) Close(ctx context.Context) error {
	if a.client == nil {
		return nil
	}
	return a.client.Disconnect(ctx)
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func (a *App) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	alive := true
	if a.client != nil {
		ctx, cancel := api.WithQueryTimeout(r.Context())
		defer cancel()
		if err := a.client.Ping(ctx); err != nil {
			zap.S().With("error", err).Warn("database ping failed")
			alive = false
		}
	}
	if alive {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: alive,
	})
	_, _ = io.WriteString(w, string(b))
}
