package config

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-fir-api/disposal"
	"github.com/linesmerrill/police-fir-api/models"
)

// Config holds the project config values
type Config struct {
	Url                   string
	DatabaseName          string
	BaseUrl               string
	Port                  string
	Env                   string
	JWTSecret             string
	RedisURL              string
	ReportCacheTTL        time.Duration
	RateLimitRequests     int
	RateLimitWindow       time.Duration
	TrustProxy            bool
	SnapshotSchedule      string
	DashboardPushInterval time.Duration
}

// New sets up all config related services
func New() *Config {
	// a missing .env is fine, the real environment wins either way
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "production")

	//setup zap logger and replace default logger
	logger, err := setLogger(env)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		Url:                   os.Getenv("DB_URI"),
		DatabaseName:          os.Getenv("DB_NAME"),
		BaseUrl:               os.Getenv("BASE_URL"),
		Port:                  getEnv("PORT", "8080"),
		Env:                   env,
		JWTSecret:             os.Getenv("JWT_SECRET"),
		RedisURL:              os.Getenv("REDIS_URL"),
		ReportCacheTTL:        getDuration("REPORT_CACHE_TTL", 5*time.Minute),
		RateLimitRequests:     getInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:       getDuration("RATE_LIMIT_WINDOW", time.Minute),
		TrustProxy:            getBool("TRUST_PROXY", false),
		SnapshotSchedule:      getEnv("SNAPSHOT_SCHEDULE", "0 1 * * *"),
		DashboardPushInterval: getDuration("DASHBOARD_PUSH_INTERVAL", 30*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err. Server errors never echo err back to the client.
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With("error", err).Error(message)

	body := models.MessageError{Message: message}
	var de *disposal.Error
	switch {
	case errors.As(err, &de):
		body.Error = de.Message
		body.Kind = string(de.Kind)
	case httpStatusCode >= http.StatusInternalServerError || err == nil:
		body.Error = http.StatusText(httpStatusCode)
	default:
		body.Error = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	_ = json.NewEncoder(w).Encode(models.ErrorMessageResponse{Response: body})
}
