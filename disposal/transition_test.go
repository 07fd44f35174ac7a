package disposal_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/police-fir-api/disposal"
	"github.com/linesmerrill/police-fir-api/models"
)

type testActor struct {
	stations []string
}

func (a testActor) AuthorizeStation(station string) error {
	if a.stations == nil {
		return nil
	}
	for _, s := range a.stations {
		if s == station {
			return nil
		}
	}
	return disposal.AccessDeniedf("no access to %s", station)
}

func (a testActor) ActorID() string   { return "officer-1" }
func (a testActor) ActorName() string { return "Officer One" }

var admin = testActor{}

func registeredCase() *models.Case {
	return &models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			CaseNumber:       "PNJ/12/2025",
			ChargeSections:   []models.ChargeSection{{ActName: "BNS", SectionLabel: "303"}},
			StationName:      "Panaji PS",
			FilingDate:       date("2025-01-01"),
			SeriousnessClass: 90,
			DisposalDueDate:  date("2025-04-01"),
			DisposalStatus:   models.StatusRegistered,
			IsActive:         true,
		},
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, disposal.CanTransition(models.StatusRegistered, models.StatusChargesheeted))
	assert.True(t, disposal.CanTransition(models.StatusChargesheeted, models.StatusFinalized))

	assert.False(t, disposal.CanTransition(models.StatusRegistered, models.StatusFinalized))
	assert.False(t, disposal.CanTransition(models.StatusRegistered, models.StatusRegistered))
	assert.False(t, disposal.CanTransition(models.StatusChargesheeted, models.StatusRegistered))
	assert.False(t, disposal.CanTransition(models.StatusFinalized, models.StatusChargesheeted))
	assert.False(t, disposal.CanTransition(models.StatusFinalized, models.StatusRegistered))
}

func TestApplyDisposal_ForwardSteps(t *testing.T) {
	now := date("2025-03-10")
	c := registeredCase()

	chg, err := disposal.ApplyDisposal(c, models.StatusChargesheeted, date("2025-03-01"), admin, now)
	require.NoError(t, err)
	assert.Equal(t, models.StatusChargesheeted, chg.Details.DisposalStatus)
	require.NotNil(t, chg.Details.DisposalDate)
	assert.Equal(t, date("2025-03-01"), *chg.Details.DisposalDate)
	assert.Equal(t, date("2025-04-01"), chg.Details.DisposalDueDate)
	require.Len(t, chg.Details.DisposalHistory, 1)
	assert.Equal(t, models.StatusRegistered, chg.Details.DisposalHistory[0].FromStatus)
	assert.Equal(t, "officer-1", chg.Details.DisposalHistory[0].UserID)

	// input untouched
	assert.Equal(t, models.StatusRegistered, c.Details.DisposalStatus)
	assert.Nil(t, c.Details.DisposalDate)
	assert.Empty(t, c.Details.DisposalHistory)

	fin, err := disposal.ApplyDisposal(chg, models.StatusFinalized, date("2025-05-01"), admin, now)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinalized, fin.Details.DisposalStatus)
	assert.Len(t, fin.Details.DisposalHistory, 2)
	assert.Len(t, chg.Details.DisposalHistory, 1)
}

func TestApplyDisposal_Rejections(t *testing.T) {
	now := date("2025-03-10")
	finalized := registeredCase()
	finalized.Details.DisposalStatus = models.StatusFinalized
	inactive := registeredCase()
	inactive.Details.IsActive = false

	tests := []struct {
		name   string
		c      *models.Case
		status string
		date   time.Time
		actor  disposal.Actor
		want   error
	}{
		{name: "skip a step", c: registeredCase(), status: models.StatusFinalized, date: now, actor: admin, want: disposal.ErrIllegalTransition},
		{name: "same status", c: registeredCase(), status: models.StatusRegistered, date: now, actor: admin, want: disposal.ErrIllegalTransition},
		{name: "backward", c: finalized, status: models.StatusChargesheeted, date: now, actor: admin, want: disposal.ErrIllegalTransition},
		{name: "unknown status", c: registeredCase(), status: "Closed", date: now, actor: admin, want: disposal.ErrValidation},
		{name: "before filing", c: registeredCase(), status: models.StatusChargesheeted, date: date("2024-12-31"), actor: admin, want: disposal.ErrInvalidDate},
		{name: "other station", c: registeredCase(), status: models.StatusChargesheeted, date: now, actor: testActor{stations: []string{"Mapusa PS"}}, want: disposal.ErrAccessDenied},
		{name: "inactive", c: inactive, status: models.StatusChargesheeted, date: now, actor: admin, want: disposal.ErrNotFound},
		{name: "nil", c: nil, status: models.StatusChargesheeted, date: now, actor: admin, want: disposal.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := disposal.ApplyDisposal(tt.c, tt.status, tt.date, tt.actor, now)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestApplyDisposal_SameDayAsFiling(t *testing.T) {
	got, err := disposal.ApplyDisposal(registeredCase(), models.StatusChargesheeted, date("2025-01-01"), admin, date("2025-01-01"))
	assert.NoError(t, err)
	assert.NotNil(t, got)
}
