package disposal

import (
	"math"
	"strings"
	"time"

	"github.com/linesmerrill/police-fir-api/models"
)

// Tier is the urgency of an open case
type Tier string

// Urgency tiers, least to most urgent
const (
	TierSafe     Tier = "Safe"
	TierYellow   Tier = "Yellow"
	TierOrange   Tier = "Orange"
	TierRed      Tier = "Red"
	TierExceeded Tier = "Exceeded"
)

// Tiers lists every tier from least to most urgent
var Tiers = []Tier{TierSafe, TierYellow, TierOrange, TierRed, TierExceeded}

const day = 24 * time.Hour

// DaysRemaining is ceil((dueDate - now) / 1 day). Negative once overdue.
func DaysRemaining(dueDate, now time.Time) int {
	return int(math.Ceil(float64(dueDate.Sub(now)) / float64(day)))
}

// TierFor maps days remaining to a tier:
//
//	> 15      Safe
//	10 .. 15  Yellow
//	5 .. 9    Orange
//	1 .. 4    Red
//	<= 0      Exceeded
func TierFor(daysRemaining int) Tier {
	switch {
	case daysRemaining > 15:
		return TierSafe
	case daysRemaining >= 10:
		return TierYellow
	case daysRemaining >= 5:
		return TierOrange
	case daysRemaining > 0:
		return TierRed
	default:
		return TierExceeded
	}
}

// Classify returns the tier of a case due on dueDate as of now
func Classify(dueDate, now time.Time) Tier {
	return TierFor(DaysRemaining(dueDate, now))
}

// ClassifyCase returns days remaining and tier for a case. ok is false for
// cases that are no longer Registered; disposed cases have no urgency.
func ClassifyCase(c models.CaseDetails, now time.Time) (days int, tier Tier, ok bool) {
	if c.DisposalStatus != models.StatusRegistered {
		return 0, "", false
	}
	days = DaysRemaining(c.DisposalDueDate, now)
	return days, TierFor(days), true
}

// ParseTier accepts a tier name in any case. Green and Overdue are accepted
// as aliases of Safe and Exceeded.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "safe", "green":
		return TierSafe, nil
	case "yellow":
		return TierYellow, nil
	case "orange":
		return TierOrange, nil
	case "red":
		return TierRed, nil
	case "exceeded", "overdue":
		return TierExceeded, nil
	}
	return "", Validationf("unknown urgency tier %q", s)
}

// View annotates a case with its computed urgency
func View(c models.Case, now time.Time) models.CaseView {
	v := models.CaseView{Case: c}
	if days, tier, ok := ClassifyCase(c.Details, now); ok {
		v.DaysRemaining = &days
		v.Urgency = string(tier)
	}
	return v
}
