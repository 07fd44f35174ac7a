package databases_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/police-fir-api/databases"
	"github.com/linesmerrill/police-fir-api/disposal"
	"github.com/linesmerrill/police-fir-api/models"
	"github.com/linesmerrill/police-fir-api/scope"
)

func TestCaseQuery(t *testing.T) {
	assert.Equal(t, bson.M{"case.isActive": true}, databases.CaseQuery(scope.Filter{}))

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	q := databases.CaseQuery(scope.Filter{
		Stations:  []string{"Panaji PS"},
		Status:    models.StatusChargesheeted,
		FiledFrom: &from,
	})
	assert.Equal(t, bson.M{"$in": []string{"Panaji PS"}}, q["case.stationName"])
	assert.Equal(t, models.StatusChargesheeted, q["case.disposalStatus"])
	assert.Equal(t, bson.M{"$gte": from}, q["case.filingDate"])
}

func TestCaseQuery_TiersImplyRegistered(t *testing.T) {
	q := databases.CaseQuery(scope.Filter{Tiers: []disposal.Tier{disposal.TierRed}})
	assert.Equal(t, models.StatusRegistered, q["case.disposalStatus"])
}

func TestCasePage(t *testing.T) {
	opts := databases.CasePage(10, 3)
	assert.Equal(t, int64(10), *opts.Limit)
	assert.Equal(t, int64(20), *opts.Skip)

	opts = databases.CasePage(0, 0)
	assert.Equal(t, int64(databases.DefaultLimit), *opts.Limit)
	assert.Equal(t, int64(0), *opts.Skip)

	opts = databases.CasePage(1000, 1)
	assert.Equal(t, int64(databases.MaxLimit), *opts.Limit)
}
