package handlers

import (
	"context"
	"net/http"

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

// DisposalRecorder counts applied disposals
type DisposalRecorder interface {
	RecordDisposal(status string)
}

// Case exported for testing purposes
type Case struct {
	DB      databases.CaseDatabase
	SDB     databases.StationDatabase
	Cache   cache.ReportCache
	Metrics DisposalRecorder
	Clock   Clock
}

// CaseListResponse is one page of the dashboard case list
type CaseListResponse struct {
	Cases []models.CaseView `json:"cases"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
	Total int64             `json:"total"`
}

// DisposalRequest is the body of a disposal update
type DisposalRequest struct {
	Status       string `json:"status"`
	DisposalDate string `json:"disposalDate"` // YYYY-MM-DD
}

// RemarkRequest is the body of a new remark
type RemarkRequest struct {
	Text string `json:"text"`
}

// CreateCaseHandler registers a new FIR
func (c Case) CreateCaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var reg disposal.Registration
	if err := decodeBody(r, &reg); err != nil {
		writeDisposalError("failed to decode request", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	registry, err := c.SDB.ListActive(ctx)
	if err != nil {
		config.ErrorStatus("failed to get stations", http.StatusInternalServerError, w, err)
		return
	}
	now := c.Clock.now()
	fir, err := disposal.Register(reg, findStation(registry, reg.StationName), actor, now)
	if err != nil {
		writeDisposalError("failed to register case", w, err)
		return
	}
	fir.ID = primitive.NewObjectID()

	if _, err := c.DB.InsertOne(ctx, fir); err != nil {
		writeDisposalError("failed to create case", w, err)
		return
	}
	c.invalidate(ctx)

	zap.S().Infow("case registered",
		"caseNumber", fir.Details.CaseNumber,
		"station", fir.Details.StationName,
		"dueDate", fir.Details.DisposalDueDate.Format("2006-01-02"),
		"by", actor.ID,
	)
	writeJSON(w, http.StatusCreated, disposal.View(*fir, now))
}

// CaseListHandler returns one page of the cases visible to the caller,
// soonest due first, each with its computed urgency
func (c Case) CaseListHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	requested, err := parseCaseFilter(q)
	if err != nil {
		writeDisposalError("invalid case filter", w, err)
		return
	}
	limit, err := intParam(q, "limit")
	if err != nil {
		writeDisposalError("invalid limit", w, err)
		return
	}
	page, err := intParam(q, "page")
	if err != nil {
		writeDisposalError("invalid page", w, err)
		return
	}
	limit, page = databases.NormalizePage(limit, page)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	f, _, err := scopedFilter(ctx, c.SDB, actor, requested)
	if err != nil {
		writeDisposalError("failed to scope cases", w, err)
		return
	}

	resp := CaseListResponse{Cases: []models.CaseView{}, Page: page, Limit: limit}
	if f.Empty {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	now := c.Clock.now()
	query := databases.CaseQuery(f)
	var cases []models.Case
	if len(f.Tiers) == 0 {
		resp.Total, err = c.DB.CountDocuments(ctx, query)
		if err != nil {
			config.ErrorStatus("failed to count cases", http.StatusInternalServerError, w, err)
			return
		}
		cases, err = c.DB.Find(ctx, query, databases.CasePage(limit, page))
		if err != nil {
			config.ErrorStatus("failed to get cases", http.StatusInternalServerError, w, err)
			return
		}
	} else {
		// urgency is never stored, so tier filtering happens after the fetch
		all, err := c.DB.Find(ctx, query, databases.DueDateOrder())
		if err != nil {
			config.ErrorStatus("failed to get cases", http.StatusInternalServerError, w, err)
			return
		}
		matched := all[:0]
		for _, fir := range all {
			if f.MatchesTier(fir.Details, now) {
				matched = append(matched, fir)
			}
		}
		resp.Total = int64(len(matched))
		start := (page - 1) * limit
		if start < len(matched) {
			end := start + limit
			if end > len(matched) {
				end = len(matched)
			}
			cases = matched[start:end]
		}
	}

	for _, fir := range cases {
		resp.Cases = append(resp.Cases, disposal.View(fir, now))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CaseByIDHandler returns a single case. Cases outside the caller's scope
// are reported as not found.
func (c Case) CaseByIDHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	fir, err := c.load(ctx, r)
	if err != nil {
		writeDisposalError("failed to get case by ID", w, err)
		return
	}
	if err := actor.AuthorizeStation(fir.Details.StationName); err != nil {
		writeDisposalError("failed to get case by ID", w, disposal.NotFoundf("case not found"))
		return
	}
	writeJSON(w, http.StatusOK, disposal.View(*fir, c.Clock.now()))
}

// UpdateCaseHandler amends the charge sections or seriousness class of a case
func (c Case) UpdateCaseHandler(w http.ResponseWriter, r *http.Request) {
	var a disposal.Amendment
	c.mutate(w, r, "failed to update case", &a, func(fir *models.Case, actor scope.Actor) (*models.Case, error) {
		return disposal.Amend(fir, a, actor, c.Clock.now())
	}, http.StatusOK)
}

// DisposalHandler moves a case to its next disposal status
func (c Case) DisposalHandler(w http.ResponseWriter, r *http.Request) {
	var req DisposalRequest
	updated := c.mutate(w, r, "failed to apply disposal", &req, func(fir *models.Case, actor scope.Actor) (*models.Case, error) {
		date, err := disposal.ParseDate("disposalDate", req.DisposalDate)
		if err != nil {
			return nil, err
		}
		return disposal.ApplyDisposal(fir, req.Status, date, actor, c.Clock.now())
	}, http.StatusOK)
	if updated != nil {
		zap.S().Infow("disposal applied",
			"caseNumber", updated.Details.CaseNumber,
			"status", updated.Details.DisposalStatus,
		)
		if c.Metrics != nil {
			c.Metrics.RecordDisposal(updated.Details.DisposalStatus)
		}
	}
}

// AddRemarkHandler appends a remark to a case
func (c Case) AddRemarkHandler(w http.ResponseWriter, r *http.Request) {
	var req RemarkRequest
	c.mutate(w, r, "failed to add remark", &req, func(fir *models.Case, actor scope.Actor) (*models.Case, error) {
		updated, _, err := disposal.AppendRemark(fir, req.Text, actor, c.Clock.now())
		return updated, err
	}, http.StatusCreated)
}

// DeleteCaseHandler soft deletes a case
func (c Case) DeleteCaseHandler(w http.ResponseWriter, r *http.Request) {
	c.mutate(w, r, "failed to delete case", nil, func(fir *models.Case, actor scope.Actor) (*models.Case, error) {
		return disposal.Deactivate(fir, actor, c.Clock.now())
	}, http.StatusOK)
}

// PurgeCaseHandler removes a case document outright
func (c Case) PurgeCaseHandler(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDVar(r, "case_id")
	if err != nil {
		writeDisposalError("failed to get objectID from Hex", w, err)
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	deleted, err := c.DB.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		config.ErrorStatus("failed to delete case", http.StatusInternalServerError, w, err)
		return
	}
	if deleted == 0 {
		writeDisposalError("failed to delete case", w, disposal.NotFoundf("case not found"))
		return
	}
	c.invalidate(ctx)
	zap.S().Infow("case purged", "id", id.Hex())
	writeJSON(w, http.StatusOK, map[string]string{"message": "case deleted"})
}

func (c Case) load(ctx context.Context, r *http.Request) (*models.Case, error) {
	id, err := objectIDVar(r, "case_id")
	if err != nil {
		return nil, err
	}
	zap.S().Debugf("case_id: %v", id.Hex())
	return c.DB.FindOne(ctx, databases.CaseByID(id))
}

// mutate runs the read-modify-write cycle shared by every case update:
// decode body into req, load the case, apply change and save it with the
// version check. It returns the saved case, or nil after writing an error.
func (c Case) mutate(w http.ResponseWriter, r *http.Request, message string, req interface{}, change func(*models.Case, scope.Actor) (*models.Case, error), status int) *models.Case {
	actor, ok := requireActor(w, r)
	if !ok {
		return nil
	}
	if req != nil {
		if err := decodeBody(r, req); err != nil {
			writeDisposalError(message, w, err)
			return nil
		}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	fir, err := c.load(ctx, r)
	if err != nil {
		writeDisposalError(message, w, err)
		return nil
	}
	updated, err := change(fir, actor)
	if err != nil {
		writeDisposalError(message, w, err)
		return nil
	}
	if err := c.DB.SaveVersioned(ctx, updated); err != nil {
		writeDisposalError(message, w, err)
		return nil
	}
	c.invalidate(ctx)
	writeJSON(w, status, disposal.View(*updated, c.Clock.now()))
	return updated
}

func (c Case) invalidate(ctx context.Context) {
	invalidateReports(ctx, c.Cache)
}
