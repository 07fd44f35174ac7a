package handlers

import (
	"net/http"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-fir-api/api"
	"github.com/linesmerrill/police-fir-api/cache"
	"github.com/linesmerrill/police-fir-api/config"
	"github.com/linesmerrill/police-fir-api/databases"
	"github.com/linesmerrill/police-fir-api/disposal"
	"github.com/linesmerrill/police-fir-api/models"
	"github.com/linesmerrill/police-fir-api/scope"
)

// Station exported for testing purposes
type Station struct {
	DB    databases.StationDatabase
	Cache cache.ReportCache
	Clock Clock
}

// StationRequest is the body for creating a station
type StationRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Subdivision string `json:"subdivision,omitempty"`
	District    string `json:"district"`
	SpecialUnit bool   `json:"specialUnit"`
}

// StationUpdateRequest is the body for editing a station. Nil fields are
// left unchanged.
type StationUpdateRequest struct {
	Active      *bool   `json:"active,omitempty"`
	Code        *string `json:"code,omitempty"`
	Subdivision *string `json:"subdivision,omitempty"`
}

// StationListHandler returns the active stations visible to the caller
func (s Station) StationListHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	requested := scope.Filter{
		Subdivision: strings.TrimSpace(q.Get("subdivision")),
		District:    strings.TrimSpace(q.Get("district")),
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	f, registry, err := scopedFilter(ctx, s.DB, actor, requested)
	if err != nil {
		writeDisposalError("failed to get stations", w, err)
		return
	}
	writeJSON(w, http.StatusOK, scope.Stations(f, registry))
}

// StationHierarchyHandler returns the district -> subdivision -> station
// tree of the stations visible to the caller
func (s Station) StationHierarchyHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	f, registry, err := scopedFilter(ctx, s.DB, actor, scope.Filter{})
	if err != nil {
		writeDisposalError("failed to get stations", w, err)
		return
	}
	writeJSON(w, http.StatusOK, BuildHierarchy(scope.Stations(f, registry)))
}

// BuildHierarchy groups stations by district and subdivision. Special units
// and stations without a subdivision are listed separately. Districts follow
// the registry order, subdivisions and stations are sorted by name.
func BuildHierarchy(stations []models.Station) models.StationHierarchy {
	h := models.StationHierarchy{Districts: []models.DistrictNode{}, SpecialUnits: []models.Station{}}
	bySub := map[string]map[string][]models.Station{}
	for _, st := range stations {
		if st.SpecialUnit || st.Subdivision == "" {
			h.SpecialUnits = append(h.SpecialUnits, st)
			continue
		}
		if bySub[st.District] == nil {
			bySub[st.District] = map[string][]models.Station{}
		}
		bySub[st.District][st.Subdivision] = append(bySub[st.District][st.Subdivision], st)
	}

	districts := append([]string{}, models.Districts...)
	for d := range bySub {
		if !containsString(districts, d) {
			districts = append(districts, d)
		}
	}
	for _, d := range districts {
		subs, ok := bySub[d]
		if !ok {
			continue
		}
		node := models.DistrictNode{Name: d}
		names := make([]string, 0, len(subs))
		for name := range subs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			list := subs[name]
			sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
			node.Subdivisions = append(node.Subdivisions, models.SubdivisionNode{Name: name, Stations: list})
		}
		h.Districts = append(h.Districts, node)
	}
	sort.Slice(h.SpecialUnits, func(i, j int) bool { return h.SpecialUnits[i].Name < h.SpecialUnits[j].Name })
	return h
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ValidateStation checks a new station against the registry rules
func ValidateStation(req StationRequest) error {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Code) == "" {
		return disposal.Validationf("station name and code are required")
	}
	if !containsString(models.Districts, req.District) {
		return disposal.Validationf("district must be one of %s", strings.Join(models.Districts, ", "))
	}
	if req.SpecialUnit && strings.TrimSpace(req.Subdivision) != "" {
		return disposal.Validationf("special units have no subdivision")
	}
	if !req.SpecialUnit && strings.TrimSpace(req.Subdivision) == "" {
		return disposal.Validationf("subdivision is required for a police station")
	}
	return nil
}

// CreateStationHandler adds a station to the registry
func (s Station) CreateStationHandler(w http.ResponseWriter, r *http.Request) {
	var req StationRequest
	if err := decodeBody(r, &req); err != nil {
		writeDisposalError("failed to decode request", w, err)
		return
	}
	if err := ValidateStation(req); err != nil {
		writeDisposalError("failed to create station", w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(s.Clock.now())
	st := models.Station{
		ID:          primitive.NewObjectID(),
		Name:        strings.TrimSpace(req.Name),
		Code:        strings.ToUpper(strings.TrimSpace(req.Code)),
		Subdivision: strings.TrimSpace(req.Subdivision),
		District:    req.District,
		SpecialUnit: req.SpecialUnit,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := s.DB.InsertOne(ctx, &st); err != nil {
		writeDisposalError("failed to create station", w, err)
		return
	}
	invalidateReports(ctx, s.Cache)
	zap.S().Infow("station created", "name", st.Name, "code", st.Code)
	writeJSON(w, http.StatusCreated, st)
}

// UpdateStationHandler activates, deactivates or edits a station
func (s Station) UpdateStationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDVar(r, "station_id")
	if err != nil {
		writeDisposalError("failed to get objectID from Hex", w, err)
		return
	}
	var req StationUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		writeDisposalError("failed to decode request", w, err)
		return
	}

	set := bson.M{}
	if req.Active != nil {
		set["active"] = *req.Active
	}
	if req.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.Code))
		if code == "" {
			writeDisposalError("failed to update station", w, disposal.Validationf("station code cannot be empty"))
			return
		}
		set["code"] = code
	}
	if req.Subdivision != nil {
		set["subdivision"] = strings.TrimSpace(*req.Subdivision)
	}
	if len(set) == 0 {
		writeDisposalError("failed to update station", w, disposal.Validationf("nothing to update"))
		return
	}
	set["updatedAt"] = primitive.NewDateTimeFromTime(s.Clock.now())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := s.DB.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
		writeDisposalError("failed to update station", w, err)
		return
	}
	invalidateReports(ctx, s.Cache)
	st, err := s.DB.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		config.ErrorStatus("failed to get station", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().Infow("station updated", "name", st.Name, "active", st.Active)
	writeJSON(w, http.StatusOK, st)
}
