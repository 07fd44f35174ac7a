// Package scope narrows case and station queries to what the calling officer
// is allowed to see.
package scope

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/linesmerrill/police-fir-api/disposal"
	"github.com/linesmerrill/police-fir-api/models"
)

// Actor is the authenticated caller
type Actor struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Role     string   `json:"role"`
	Station  string   `json:"station,omitempty"`
	Stations []string `json:"stations,omitempty"`
}

// ActorID implements disposal.Actor
func (a Actor) ActorID() string { return a.ID }

// ActorName implements disposal.Actor
func (a Actor) ActorName() string { return a.Name }

// IsAdmin reports whether the actor has unrestricted scope
func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// allowed returns the stations the actor may see. all is true for admins.
func (a Actor) allowed() (stations []string, all bool, err error) {
	switch a.Role {
	case models.RoleAdmin:
		return nil, true, nil
	case models.RoleStationOfficer:
		if strings.TrimSpace(a.Station) == "" {
			return []string{}, false, nil
		}
		return []string{a.Station}, false, nil
	case models.RoleSubdivisionOfficer:
		return a.Stations, false, nil
	}
	return nil, false, disposal.AccessDeniedf("unknown role %q", a.Role)
}

// AuthorizeStation implements disposal.Actor. Writes outside the actor's
// stations are denied outright.
func (a Actor) AuthorizeStation(station string) error {
	stations, all, err := a.allowed()
	if err != nil {
		return err
	}
	if all || containsStation(stations, station) {
		return nil
	}
	return disposal.AccessDeniedf("%s may not modify cases of %s", a.Name, station)
}

// Filter selects cases. A nil Stations slice means every station; Empty
// means nothing can match and storage need not be queried.
type Filter struct {
	Stations    []string
	Subdivision string
	District    string
	Status      string
	FiledFrom   *time.Time
	FiledTo     *time.Time
	Tiers       []disposal.Tier
	Empty       bool
}

// ScopeCases intersects the requested filter with the actor's stations.
// Requests for stations outside scope yield an Empty filter rather than an
// error; only an unknown role is refused.
func ScopeCases(actor Actor, requested Filter) (Filter, error) {
	allowed, all, err := actor.allowed()
	if err != nil {
		return Filter{}, err
	}
	f := requested
	if all {
		return f, nil
	}
	if requested.Stations == nil {
		f.Stations = append([]string{}, allowed...)
	} else {
		f.Stations = intersect(requested.Stations, allowed)
	}
	if len(f.Stations) == 0 {
		f.Empty = true
	}
	return f, nil
}

// Resolve rewrites f.Stations to the registry spelling of every active
// station f selects, resolving subdivision and district criteria on the way.
// Names the registry does not hold are dropped. A filter with no station,
// subdivision or district criterion is returned unchanged.
func Resolve(f Filter, registry []models.Station) Filter {
	if f.Empty {
		return f
	}
	if f.Stations == nil && f.Subdivision == "" && f.District == "" {
		return f
	}
	matched := Stations(f, registry)
	f.Stations = make([]string, 0, len(matched))
	for _, s := range matched {
		f.Stations = append(f.Stations, s.Name)
	}
	if len(f.Stations) == 0 {
		f.Empty = true
	}
	return f
}

// Stations returns the registry entries matched by f, sorted by name. It is
// what an aggregate report iterates, so stations without cases still appear.
func Stations(f Filter, registry []models.Station) []models.Station {
	out := []models.Station{}
	if f.Empty {
		return out
	}
	for _, s := range registry {
		if f.Stations != nil && !containsStation(f.Stations, s.Name) {
			continue
		}
		if f.Subdivision != "" && !strings.EqualFold(s.Subdivision, f.Subdivision) {
			continue
		}
		if f.District != "" && !strings.EqualFold(s.District, f.District) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MatchesTier reports whether a case passes the tier criterion of f.
// Disposed cases never match a tier filter.
func (f Filter) MatchesTier(c models.CaseDetails, now time.Time) bool {
	if len(f.Tiers) == 0 {
		return true
	}
	_, tier, ok := disposal.ClassifyCase(c, now)
	if !ok {
		return false
	}
	for _, t := range f.Tiers {
		if t == tier {
			return true
		}
	}
	return false
}

// NormalizeStation is the comparison key for station names
func NormalizeStation(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func containsStation(stations []string, station string) bool {
	key := NormalizeStation(station)
	for _, s := range stations {
		if NormalizeStation(s) == key {
			return true
		}
	}
	return false
}

// intersect keeps the entries of requested that are in allowed, using the
// allowed spelling.
func intersect(requested, allowed []string) []string {
	out := []string{}
	for _, a := range allowed {
		if containsStation(requested, a) && !containsStation(out, a) {
			out = append(out, a)
		}
	}
	return out
}

type contextKey string

const actorContextKey contextKey = "actor"

// WithActor stores the actor in ctx
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, a)
}

// FromContext returns the actor stored by WithActor
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorContextKey).(Actor)
	return a, ok
}

// CacheKey is a stable description of the actor's visible stations
func (a Actor) CacheKey() string {
	stations, all, err := a.allowed()
	if err != nil {
		return "none"
	}
	if all {
		return "all"
	}
	keys := make([]string, 0, len(stations))
	for _, s := range stations {
		keys = append(keys, NormalizeStation(s))
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}
