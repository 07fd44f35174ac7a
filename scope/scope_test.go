package scope_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/police-fir-api/disposal"
	"github.com/linesmerrill/police-fir-api/models"
	"github.com/linesmerrill/police-fir-api/scope"
)

var registry = []models.Station{
	{Name: "Panaji PS", Subdivision: "Panaji", District: models.DistrictNorthGoa, Active: true},
	{Name: "Old Goa PS", Subdivision: "Panaji", District: models.DistrictNorthGoa, Active: true},
	{Name: "Mapusa PS", Subdivision: "Mapusa", District: models.DistrictNorthGoa, Active: true},
	{Name: "Margao Town PS", Subdivision: "Margao", District: models.DistrictSouthGoa, Active: true},
	{Name: "Cyber Crime PS", District: models.DistrictNorthGoa, SpecialUnit: true, Active: true},
}

var (
	admin       = scope.Actor{ID: "1", Name: "SP HQ", Role: models.RoleAdmin}
	panajiPI    = scope.Actor{ID: "2", Name: "PI Panaji", Role: models.RoleStationOfficer, Station: "Panaji PS"}
	panajiSDPO  = scope.Actor{ID: "3", Name: "SDPO Panaji", Role: models.RoleSubdivisionOfficer, Stations: []string{"Panaji PS", "Old Goa PS"}}
	unknownRole = scope.Actor{ID: "4", Name: "Visitor", Role: "guest"}
)

func TestScopeCases_AdminPassthrough(t *testing.T) {
	f, err := scope.ScopeCases(admin, scope.Filter{Status: models.StatusRegistered})
	require.NoError(t, err)
	assert.Nil(t, f.Stations)
	assert.False(t, f.Empty)
	assert.Equal(t, models.StatusRegistered, f.Status)
}

func TestScopeCases_StationOfficerAllStations(t *testing.T) {
	f, err := scope.ScopeCases(panajiPI, scope.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Panaji PS"}, f.Stations)
	assert.False(t, f.Empty)

	got := scope.Stations(f, registry)
	require.Len(t, got, 1)
	assert.Equal(t, "Panaji PS", got[0].Name)
}

func TestScopeCases_OutOfScopeReadIsEmpty(t *testing.T) {
	f, err := scope.ScopeCases(panajiPI, scope.Filter{Stations: []string{"Mapusa PS"}})
	require.NoError(t, err)
	assert.True(t, f.Empty)
	assert.Empty(t, scope.Stations(f, registry))
}

func TestScopeCases_SubdivisionOfficerIntersection(t *testing.T) {
	f, err := scope.ScopeCases(panajiSDPO, scope.Filter{Stations: []string{"old goa ps", "Mapusa PS"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Old Goa PS"}, f.Stations)
}

func TestScopeCases_UnknownRole(t *testing.T) {
	_, err := scope.ScopeCases(unknownRole, scope.Filter{})
	assert.True(t, errors.Is(err, disposal.ErrAccessDenied))
}

func TestAuthorizeStation(t *testing.T) {
	assert.NoError(t, admin.AuthorizeStation("Mapusa PS"))
	assert.NoError(t, panajiPI.AuthorizeStation(" panaji ps"))
	assert.True(t, errors.Is(panajiPI.AuthorizeStation("Mapusa PS"), disposal.ErrAccessDenied))
	assert.NoError(t, panajiSDPO.AuthorizeStation("Old Goa PS"))
	assert.True(t, errors.Is(unknownRole.AuthorizeStation("Panaji PS"), disposal.ErrAccessDenied))

	noStation := scope.Actor{Role: models.RoleStationOfficer}
	assert.Error(t, noStation.AuthorizeStation("Panaji PS"))
}

func TestResolve(t *testing.T) {
	f := scope.Resolve(scope.Filter{Subdivision: "panaji"}, registry)
	assert.ElementsMatch(t, []string{"Panaji PS", "Old Goa PS"}, f.Stations)

	f = scope.Resolve(scope.Filter{District: models.DistrictSouthGoa}, registry)
	assert.Equal(t, []string{"Margao Town PS"}, f.Stations)

	scoped, err := scope.ScopeCases(panajiPI, scope.Filter{District: models.DistrictSouthGoa})
	require.NoError(t, err)
	f = scope.Resolve(scoped, registry)
	assert.True(t, f.Empty)
}

func TestResolve_CanonicalNames(t *testing.T) {
	f := scope.Resolve(scope.Filter{Stations: []string{"panaji ps", " MAPUSA PS", "Closed PS"}}, registry)
	assert.Equal(t, []string{"Mapusa PS", "Panaji PS"}, f.Stations)
	assert.False(t, f.Empty)

	shouting := scope.Actor{ID: "so-2", Role: models.RoleStationOfficer, Station: "PANAJI PS"}
	scoped, err := scope.ScopeCases(shouting, scope.Filter{})
	require.NoError(t, err)
	f = scope.Resolve(scoped, registry)
	assert.Equal(t, []string{"Panaji PS"}, f.Stations)

	f = scope.Resolve(scope.Filter{Stations: []string{"Closed PS"}}, registry)
	assert.True(t, f.Empty)

	f = scope.Resolve(scope.Filter{}, registry)
	assert.Nil(t, f.Stations)
}

func TestStations_SortedAndFiltered(t *testing.T) {
	got := scope.Stations(scope.Filter{District: models.DistrictNorthGoa}, registry)
	names := []string{}
	for _, s := range got {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Cyber Crime PS", "Mapusa PS", "Old Goa PS", "Panaji PS"}, names)
}

func TestMatchesTier(t *testing.T) {
	now := time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC)
	c := models.CaseDetails{
		DisposalStatus:  models.StatusRegistered,
		DisposalDueDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	assert.True(t, scope.Filter{}.MatchesTier(c, now))
	assert.True(t, scope.Filter{Tiers: []disposal.Tier{disposal.TierRed}}.MatchesTier(c, now))
	assert.False(t, scope.Filter{Tiers: []disposal.Tier{disposal.TierSafe}}.MatchesTier(c, now))

	c.DisposalStatus = models.StatusChargesheeted
	assert.False(t, scope.Filter{Tiers: []disposal.Tier{disposal.TierRed}}.MatchesTier(c, now))
}

func TestActorContext(t *testing.T) {
	_, ok := scope.FromContext(context.Background())
	assert.False(t, ok)

	ctx := scope.WithActor(context.Background(), panajiSDPO)
	got, ok := scope.FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, panajiSDPO.Name, got.Name)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "all", admin.CacheKey())
	assert.Equal(t, "old goa ps,panaji ps", panajiSDPO.CacheKey())
	assert.Equal(t, "none", unknownRole.CacheKey())
}
