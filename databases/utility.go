package databases

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Page defaults
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type mongoPaginate struct {
	limit int64
	page  int64
}

// NormalizePage clamps limit to (0, MaxLimit] and page to >= 1
func NormalizePage(limit, page int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page <= 0 {
		page = 1
	}
	return limit, page
}

func newMongoPaginate(limit, page int) *mongoPaginate {
	limit, page = NormalizePage(limit, page)
	return &mongoPaginate{
		limit: int64(limit),
		page:  int64(page),
	}
}

func (mp *mongoPaginate) getPaginatedOpts() *options.FindOptions {
	l := mp.limit
	skip := mp.page*mp.limit - mp.limit
	fOpt := options.FindOptions{Limit: &l, Skip: &skip}

	return &fOpt
}

// CasePage returns find options for one page of cases, soonest due first
func CasePage(limit, page int) *options.FindOptions {
	return newMongoPaginate(limit, page).getPaginatedOpts().
		SetSort(bson.D{{Key: "case.disposalDueDate", Value: 1}, {Key: "case.caseNumber", Value: 1}})
}

// DueDateOrder sorts cases soonest due first without paging
func DueDateOrder() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "case.disposalDueDate", Value: 1}, {Key: "case.caseNumber", Value: 1}})
}
