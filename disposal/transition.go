package disposal

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/police-fir-api/models"
)

// Actor is the pre-authorized caller of a mutating operation. Scope checks
// are delegated to it.
type Actor interface {
	// AuthorizeStation returns an AccessDeniedError when the actor may not
	// write to cases of the named station.
	AuthorizeStation(station string) error
	ActorID() string
	ActorName() string
}

// forward holds the single legal next status for each status. Finalized is
// terminal.
var forward = map[string]string{
	models.StatusRegistered:    models.StatusChargesheeted,
	models.StatusChargesheeted: models.StatusFinalized,
}

// ValidStatus reports whether status is a known disposal status
func ValidStatus(status string) bool {
	switch status {
	case models.StatusRegistered, models.StatusChargesheeted, models.StatusFinalized:
		return true
	}
	return false
}

// CanTransition reports whether a case may move from one status to another
func CanTransition(from, to string) bool {
	next, ok := forward[from]
	return ok && next == to
}

// ApplyDisposal moves a case one step along Registered -> Chargesheeted ->
// Finalized. Every check runs before anything is changed; the input case is
// never modified and the updated copy is returned.
func ApplyDisposal(c *models.Case, newStatus string, disposalDate time.Time, actor Actor, now time.Time) (*models.Case, error) {
	if c == nil || !c.Details.IsActive {
		return nil, NotFoundf("case not found")
	}
	if err := actor.AuthorizeStation(c.Details.StationName); err != nil {
		return nil, err
	}
	if !ValidStatus(newStatus) {
		return nil, Validationf("unknown disposal status %q", newStatus)
	}
	from := c.Details.DisposalStatus
	if !CanTransition(from, newStatus) {
		return nil, IllegalTransitionf("cannot move case %s from %s to %s", c.Details.CaseNumber, from, newStatus)
	}
	disposalDate = DateOnly(disposalDate)
	if disposalDate.Before(DateOnly(c.Details.FilingDate)) {
		return nil, InvalidDatef("disposal date %s is before filing date %s",
			disposalDate.Format("2006-01-02"), c.Details.FilingDate.Format("2006-01-02"))
	}

	updated := cloneCase(c)
	updated.Details.DisposalStatus = newStatus
	updated.Details.DisposalDate = &disposalDate
	updated.Details.DisposalHistory = append(updated.Details.DisposalHistory, models.DisposalChange{
		FromStatus:   from,
		ToStatus:     newStatus,
		DisposalDate: disposalDate,
		UserID:       actor.ActorID(),
		UserName:     actor.ActorName(),
		Timestamp:    primitive.NewDateTimeFromTime(now),
	})
	updated.Details.UpdatedAt = primitive.NewDateTimeFromTime(now)
	return updated, nil
}

func cloneCase(c *models.Case) *models.Case {
	out := *c
	out.Details.ChargeSections = append([]models.ChargeSection(nil), c.Details.ChargeSections...)
	out.Details.Remarks = append([]models.Remark(nil), c.Details.Remarks...)
	out.Details.DisposalHistory = append([]models.DisposalChange(nil), c.Details.DisposalHistory...)
	if c.Details.DisposalDate != nil {
		d := *c.Details.DisposalDate
		out.Details.DisposalDate = &d
	}
	return &out
}
