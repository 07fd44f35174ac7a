// Package testhelpers holds fixtures shared by the handler tests
package testhelpers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/police-fir-api/models"
	"github.com/linesmerrill/police-fir-api/scope"
)

// Day parses a YYYY-MM-DD date in UTC and panics on bad input
func Day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// Clock always returns now
func Clock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

// Admin is an administrator actor
func Admin() scope.Actor {
	return scope.Actor{ID: "admin-1", Name: "Control Room", Role: models.RoleAdmin}
}

// StationOfficer is an officer scoped to one station
func StationOfficer(station string) scope.Actor {
	return scope.Actor{ID: "so-1", Name: "PI " + station, Role: models.RoleStationOfficer, Station: station}
}

// SubdivisionOfficer is an officer scoped to a list of stations
func SubdivisionOfficer(stations ...string) scope.Actor {
	return scope.Actor{ID: "sdpo-1", Name: "SDPO", Role: models.RoleSubdivisionOfficer, Stations: stations}
}

// Station is an active registry entry
func Station(name, subdivision, district string) models.Station {
	return models.Station{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Code:        name[:3],
		Subdivision: subdivision,
		District:    district,
		SpecialUnit: subdivision == "",
		Active:      true,
	}
}

// RegisteredCase is an open case filed at st
func RegisteredCase(st models.Station, number, filed string, class int) models.Case {
	filing := Day(filed)
	return models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			CaseNumber:       number,
			ChargeSections:   []models.ChargeSection{{ActName: "BNS", SectionLabel: "303(2)"}},
			StationID:        st.ID,
			StationName:      st.Name,
			FilingDate:       filing,
			SeriousnessClass: class,
			DisposalDueDate:  filing.AddDate(0, 0, class),
			DisposalStatus:   models.StatusRegistered,
			DisposalHistory:  []models.DisposalChange{},
			Remarks:          []models.Remark{},
			IsActive:         true,
		},
	}
}

// Request builds a request carrying actor, with body encoded as JSON when
// it is not nil
func Request(method, target string, body interface{}, actor *scope.Actor) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req = req.WithContext(scope.WithActor(req.Context(), *actor))
	}
	return req
}

// ErrorKind decodes the kind of an error response body
func ErrorKind(body []byte) string {
	var resp models.ErrorMessageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	return resp.Response.Kind
}
