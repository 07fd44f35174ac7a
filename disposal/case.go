package disposal

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/police-fir-api/models"
)

var caseNumberPattern = regexp.MustCompile(`^[A-Za-z0-9/-]+$`)

// Registration is the input for registering a new FIR
type Registration struct {
	CaseNumber       string                 `json:"caseNumber"`
	ChargeSections   []models.ChargeSection `json:"chargeSections"`
	StationName      string                 `json:"stationName"`
	FilingDate       string                 `json:"filingDate"` // YYYY-MM-DD
	SeriousnessClass int                    `json:"seriousnessClass"`
	Remark           string                 `json:"remark,omitempty"`
}

// Amendment is the input for editing a registered case. Nil fields are left
// unchanged.
type Amendment struct {
	ChargeSections   []models.ChargeSection `json:"chargeSections,omitempty"`
	SeriousnessClass *int                   `json:"seriousnessClass,omitempty"`
}

// ValidateCaseNumber checks the case number format
func ValidateCaseNumber(caseNumber string) error {
	if !caseNumberPattern.MatchString(caseNumber) {
		return Validationf("case number %q may only contain letters, digits, '/' and '-'", caseNumber)
	}
	return nil
}

// ValidateChargeSections requires at least one section with both fields set
func ValidateChargeSections(sections []models.ChargeSection) error {
	if len(sections) == 0 {
		return Validationf("at least one charge section is required")
	}
	for i, s := range sections {
		if strings.TrimSpace(s.ActName) == "" || strings.TrimSpace(s.SectionLabel) == "" {
			return Validationf("charge section %d needs both an act name and a section", i+1)
		}
	}
	return nil
}

func trimSections(sections []models.ChargeSection) []models.ChargeSection {
	out := make([]models.ChargeSection, len(sections))
	for i, s := range sections {
		out[i] = models.ChargeSection{
			ActName:      strings.TrimSpace(s.ActName),
			SectionLabel: strings.TrimSpace(s.SectionLabel),
		}
	}
	return out
}

// Register validates r and builds a Registered case at station with its
// disposal due date fixed. The caller assigns the ID.
func Register(r Registration, station *models.Station, actor Actor, now time.Time) (*models.Case, error) {
	caseNumber := strings.TrimSpace(r.CaseNumber)
	if err := ValidateCaseNumber(caseNumber); err != nil {
		return nil, err
	}
	if err := ValidateChargeSections(r.ChargeSections); err != nil {
		return nil, err
	}
	if station == nil || !station.Active {
		return nil, NotFoundf("station %q not found", r.StationName)
	}
	if err := actor.AuthorizeStation(station.Name); err != nil {
		return nil, err
	}
	filingDate, err := ParseDate("filingDate", r.FilingDate)
	if err != nil {
		return nil, err
	}
	if filingDate.After(DateOnly(now)) {
		return nil, InvalidDatef("filing date %s is in the future", r.FilingDate)
	}
	dueDate, err := ComputeDueDate(filingDate, r.SeriousnessClass)
	if err != nil {
		return nil, err
	}

	ts := primitive.NewDateTimeFromTime(now)
	c := &models.Case{
		Details: models.CaseDetails{
			CaseNumber:       caseNumber,
			ChargeSections:   trimSections(r.ChargeSections),
			StationID:        station.ID,
			StationName:      station.Name,
			FilingDate:       filingDate,
			SeriousnessClass: r.SeriousnessClass,
			DisposalDueDate:  dueDate,
			DisposalStatus:   models.StatusRegistered,
			DisposalHistory:  []models.DisposalChange{},
			Remarks:          []models.Remark{},
			IsActive:         true,
			CreatedBy:        actor.ActorID(),
			CreatedAt:        ts,
			UpdatedAt:        ts,
		},
	}
	if text := strings.TrimSpace(r.Remark); text != "" {
		c.Details.Remarks = append(c.Details.Remarks, models.Remark{Text: text, Author: actor.ActorName(), Timestamp: ts})
	}
	return c, nil
}

// Amend applies a to a copy of c. The disposal due date is left as it was
// fixed at registration, even when the seriousness class changes.
func Amend(c *models.Case, a Amendment, actor Actor, now time.Time) (*models.Case, error) {
	if c == nil || !c.Details.IsActive {
		return nil, NotFoundf("case not found")
	}
	if err := actor.AuthorizeStation(c.Details.StationName); err != nil {
		return nil, err
	}
	if a.ChargeSections == nil && a.SeriousnessClass == nil {
		return nil, Validationf("nothing to update")
	}
	if a.ChargeSections != nil {
		if err := ValidateChargeSections(a.ChargeSections); err != nil {
			return nil, err
		}
	}
	if a.SeriousnessClass != nil && !ValidSeriousnessClass(*a.SeriousnessClass) {
		return nil, Validationf("seriousness class must be one of 60, 90 or 180, got %d", *a.SeriousnessClass)
	}

	updated := cloneCase(c)
	if a.ChargeSections != nil {
		updated.Details.ChargeSections = trimSections(a.ChargeSections)
	}
	if a.SeriousnessClass != nil {
		updated.Details.SeriousnessClass = *a.SeriousnessClass
	}
	updated.Details.UpdatedAt = primitive.NewDateTimeFromTime(now)
	return updated, nil
}

// AppendRemark adds a remark authored by actor to a copy of c
func AppendRemark(c *models.Case, text string, actor Actor, now time.Time) (*models.Case, models.Remark, error) {
	if c == nil || !c.Details.IsActive {
		return nil, models.Remark{}, NotFoundf("case not found")
	}
	if err := actor.AuthorizeStation(c.Details.StationName); err != nil {
		return nil, models.Remark{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.Remark{}, Validationf("remark text is required")
	}
	ts := primitive.NewDateTimeFromTime(now)
	remark := models.Remark{Text: text, Author: actor.ActorName(), Timestamp: ts}
	updated := cloneCase(c)
	updated.Details.Remarks = append(updated.Details.Remarks, remark)
	updated.Details.UpdatedAt = ts
	return updated, remark, nil
}

// Deactivate soft-deletes a copy of c
func Deactivate(c *models.Case, actor Actor, now time.Time) (*models.Case, error) {
	if c == nil || !c.Details.IsActive {
		return nil, NotFoundf("case not found")
	}
	if err := actor.AuthorizeStation(c.Details.StationName); err != nil {
		return nil, err
	}
	updated := cloneCase(c)
	updated.Details.IsActive = false
	updated.Details.UpdatedAt = primitive.NewDateTimeFromTime(now)
	return updated, nil
}
