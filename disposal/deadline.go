// Package disposal holds the rules for FIR disposal deadlines: the due date
// calculation, urgency tiers for open cases and the disposal status pipeline.
package disposal

import (
	"time"
)

// SeriousnessClasses are the statutory disposal windows, in days
var SeriousnessClasses = []int{60, 90, 180}

// ValidSeriousnessClass reports whether days is one of SeriousnessClasses
func ValidSeriousnessClass(days int) bool {
	for _, c := range SeriousnessClasses {
		if c == days {
			return true
		}
	}
	return false
}

// DateOnly returns the calendar date of t as midnight UTC. The date is read
// in t's own location, no conversion happens first.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ComputeDueDate returns filingDate plus seriousnessClass calendar days.
// It is called once, when the case is registered; the result is stored and
// never derived again.
func ComputeDueDate(filingDate time.Time, seriousnessClass int) (time.Time, error) {
	if !ValidSeriousnessClass(seriousnessClass) {
		return time.Time{}, Validationf("seriousness class must be one of 60, 90 or 180, got %d", seriousnessClass)
	}
	return DateOnly(filingDate).AddDate(0, 0, seriousnessClass), nil
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(field, value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, Validationf("%s must be a date in YYYY-MM-DD format", field)
	}
	return t, nil
}
