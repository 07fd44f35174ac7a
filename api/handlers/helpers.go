package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-fir-api/cache"
	"github.com/linesmerrill/police-fir-api/config"
	"github.com/linesmerrill/police-fir-api/databases"
	"github.com/linesmerrill/police-fir-api/disposal"
	"github.com/linesmerrill/police-fir-api/models"
	"github.com/linesmerrill/police-fir-api/scope"
)

// Clock returns the current time. Handlers use time.Now when it is nil.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c()
}

// statusFor maps a domain error kind to its HTTP status
func statusFor(err error) int {
	switch disposal.KindOf(err) {
	case disposal.KindValidation:
		return http.StatusBadRequest
	case disposal.KindInvalidDate:
		return http.StatusUnprocessableEntity
	case disposal.KindIllegalTransition, disposal.KindConflict:
		return http.StatusConflict
	case disposal.KindAccessDenied:
		return http.StatusForbidden
	case disposal.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeDisposalError writes err with the status of its kind. Anything that
// is not a domain error is treated as a storage failure.
func writeDisposalError(message string, w http.ResponseWriter, err error) {
	config.ErrorStatus(message, statusFor(err), w, err)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return disposal.Validationf("invalid request body: %v", err)
	}
	return nil
}

// requireActor returns the authenticated actor or writes a 401
func requireActor(w http.ResponseWriter, r *http.Request) (scope.Actor, bool) {
	actor, ok := scope.FromContext(r.Context())
	if !ok {
		config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, errors.New("no actor on request"))
		return scope.Actor{}, false
	}
	return actor, true
}

func objectIDVar(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		return primitive.NilObjectID, disposal.Validationf("%s is not a valid id", name)
	}
	return id, nil
}

// splitList reads a query parameter given either repeated or comma separated
func splitList(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parseCaseFilter reads the case selection criteria shared by the list and
// report endpoints
func parseCaseFilter(q url.Values) (scope.Filter, error) {
	f := scope.Filter{
		Stations:    splitList(q, "station"),
		Subdivision: strings.TrimSpace(q.Get("subdivision")),
		District:    strings.TrimSpace(q.Get("district")),
		Status:      strings.TrimSpace(q.Get("status")),
	}
	if f.Status != "" && !disposal.ValidStatus(f.Status) {
		return scope.Filter{}, disposal.Validationf("unknown disposal status %q", f.Status)
	}
	for _, key := range []string{"from", "to"} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		d, err := disposal.ParseDate(key, v)
		if err != nil {
			return scope.Filter{}, err
		}
		if key == "from" {
			f.FiledFrom = &d
		} else {
			f.FiledTo = &d
		}
	}
	if f.FiledFrom != nil && f.FiledTo != nil && f.FiledTo.Before(*f.FiledFrom) {
		return scope.Filter{}, disposal.InvalidDatef("'to' is before 'from'")
	}
	for _, t := range splitList(q, "tier") {
		tier, err := disposal.ParseTier(t)
		if err != nil {
			return scope.Filter{}, err
		}
		f.Tiers = append(f.Tiers, tier)
	}
	return f, nil
}

// intParam reads a positive integer query parameter, 0 when absent
func intParam(q url.Values, key string) (int, error) {
	v := q.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, disposal.Validationf("%s must be a positive number", key)
	}
	return n, nil
}

// scopedFilter narrows requested to the actor and resolves it against the
// active station registry
func scopedFilter(ctx context.Context, sdb databases.StationDatabase, actor scope.Actor, requested scope.Filter) (scope.Filter, []models.Station, error) {
	f, err := scope.ScopeCases(actor, requested)
	if err != nil {
		return scope.Filter{}, nil, err
	}
	registry, err := sdb.ListActive(ctx)
	if err != nil {
		return scope.Filter{}, nil, err
	}
	f = scope.Resolve(f, registry)
	zap.S().Debugf("scoped filter for %s: stations=%v empty=%v", actor.ID, f.Stations, f.Empty)
	return f, registry, nil
}

// findStation looks a station up by name in the registry
func findStation(registry []models.Station, name string) *models.Station {
	key := scope.NormalizeStation(name)
	for i := range registry {
		if scope.NormalizeStation(registry[i].Name) == key {
			return &registry[i]
		}
	}
	return nil
}

// invalidateReports drops cached reports after a write. Failures are logged.
func invalidateReports(ctx context.Context, rc cache.ReportCache) {
	if rc == nil {
		return
	}
	if err := rc.Invalidate(ctx); err != nil {
		zap.S().With("error", err).Warn("failed to invalidate report cache")
	}
}
