package databases

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/police-fir-api/models"
	"github.com/linesmerrill/police-fir-api/scope"
)

// CaseQuery translates a scoped filter into a mongo query over active cases.
// Station names must already be resolved to their registry spelling, see
// scope.Resolve. Tier criteria are left to the caller since urgency is never
// stored; only the Registered restriction they imply is applied here.
func CaseQuery(f scope.Filter) bson.M {
	q := bson.M{"case.isActive": true}
	if f.Stations != nil {
		q["case.stationName"] = bson.M{"$in": f.Stations}
	}
	if f.Status != "" {
		q["case.disposalStatus"] = f.Status
	}
	if len(f.Tiers) > 0 && f.Status == "" {
		q["case.disposalStatus"] = models.StatusRegistered
	}
	filed := bson.M{}
	if f.FiledFrom != nil {
		filed["$gte"] = *f.FiledFrom
	}
	if f.FiledTo != nil {
		filed["$lte"] = *f.FiledTo
	}
	if len(filed) > 0 {
		q["case.filingDate"] = filed
	}
	return q
}

// CaseByID matches an active case by id
func CaseByID(id interface{}) bson.M {
	return bson.M{"_id": id, "case.isActive": true}
}
