package performance

import (
	"sort"
	"time"

	"github.com/linesmerrill/police-fir-api/disposal"
	"github.com/linesmerrill/police-fir-api/models"
)

// MostUrgent returns up to limit active Registered cases with the fewest days
// remaining, annotated with their urgency.
func MostUrgent(cases []models.Case, now time.Time, limit int) []models.CaseView {
	views := []models.CaseView{}
	for _, c := range cases {
		if !c.Details.IsActive {
			continue
		}
		v := disposal.View(c, now)
		if v.DaysRemaining == nil {
			continue
		}
		views = append(views, v)
	}
	sort.SliceStable(views, func(i, j int) bool {
		if *views[i].DaysRemaining != *views[j].DaysRemaining {
			return *views[i].DaysRemaining < *views[j].DaysRemaining
		}
		return views[i].Details.CaseNumber < views[j].Details.CaseNumber
	})
	if limit > 0 && len(views) > limit {
		views = views[:limit]
	}
	return views
}
