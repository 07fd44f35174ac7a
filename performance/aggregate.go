// Package performance reduces a set of cases to per-station disposal metrics
// and a system-wide summary.
package performance

import (
	"math"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/police-fir-api/disposal"
	"github.com/linesmerrill/police-fir-api/models"
)

// Sort orders for station metrics
const (
	SortByPerformance = "performance"
	SortByName        = "name"
)

// StationMetrics holds the disposal figures of one station
type StationMetrics struct {
	StationID             primitive.ObjectID `json:"stationId"`
	StationName           string             `json:"stationName"`
	Subdivision           string             `json:"subdivision,omitempty"`
	District              string             `json:"district"`
	TotalCases            int                `json:"totalCases"`
	RegisteredCount       int                `json:"registeredCount"`
	ChargesheetedCount    int                `json:"chargesheetedCount"`
	FinalizedCount        int                `json:"finalizedCount"`
	UrgencyHistogram      map[string]int     `json:"urgencyHistogram"`
	OnTimeChargesheeted   int                `json:"onTimeChargesheetedCount"`
	PerformancePercentage int                `json:"performancePercentage"`
	CompletionRate        int                `json:"completionRate"`
}

// Summary holds the same figures across every station in a report
type Summary struct {
	StationCount                 int            `json:"stationCount"`
	TotalCases                   int            `json:"totalCases"`
	RegisteredCount              int            `json:"registeredCount"`
	ChargesheetedCount           int            `json:"chargesheetedCount"`
	FinalizedCount               int            `json:"finalizedCount"`
	UrgencyHistogram             map[string]int `json:"urgencyHistogram"`
	OnTimeChargesheeted          int            `json:"onTimeChargesheetedCount"`
	PerformancePercentage        int            `json:"performancePercentage"`
	CompletionRate               int            `json:"completionRate"`
	AveragePerformancePercentage float64        `json:"averagePerformancePercentage"`
}

// Report is the result of Aggregate
type Report struct {
	Stations    []StationMetrics `json:"stations"`
	Summary     Summary          `json:"summary"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

// NewHistogram returns a histogram with every tier present at zero
func NewHistogram() map[string]int {
	h := make(map[string]int, len(disposal.Tiers))
	for _, t := range disposal.Tiers {
		h[string(t)] = 0
	}
	return h
}

// Aggregate groups cases by station. Every station passed in appears in the
// result, with zeros when it has no cases. Inactive cases and cases whose
// station is not in stations are skipped. Stations are returned in ascending
// performance order, ties broken by name.
func Aggregate(stations []models.Station, cases []models.Case, now time.Time) Report {
	metrics := make([]StationMetrics, len(stations))
	byID := make(map[primitive.ObjectID]int, len(stations))
	byName := make(map[string]int, len(stations))
	for i, s := range stations {
		metrics[i] = StationMetrics{
			StationID:        s.ID,
			StationName:      s.Name,
			Subdivision:      s.Subdivision,
			District:         s.District,
			UrgencyHistogram: NewHistogram(),
		}
		if !s.ID.IsZero() {
			byID[s.ID] = i
		}
		byName[nameKey(s.Name)] = i
	}

	for _, c := range cases {
		d := c.Details
		if !d.IsActive {
			continue
		}
		i, ok := byID[d.StationID]
		if !ok || d.StationID.IsZero() {
			if i, ok = byName[nameKey(d.StationName)]; !ok {
				continue
			}
		}
		m := &metrics[i]
		m.TotalCases++
		switch d.DisposalStatus {
		case models.StatusRegistered:
			m.RegisteredCount++
			_, tier, _ := disposal.ClassifyCase(d, now)
			m.UrgencyHistogram[string(tier)]++
		case models.StatusChargesheeted:
			m.ChargesheetedCount++
			if OnTime(d) {
				m.OnTimeChargesheeted++
			}
		case models.StatusFinalized:
			m.FinalizedCount++
		}
	}

	summary := Summary{StationCount: len(metrics), UrgencyHistogram: NewHistogram()}
	var percentageSum float64
	for i := range metrics {
		m := &metrics[i]
		m.PerformancePercentage = percent(m.OnTimeChargesheeted, m.TotalCases)
		m.CompletionRate = percent(m.ChargesheetedCount+m.FinalizedCount, m.TotalCases)

		summary.TotalCases += m.TotalCases
		summary.RegisteredCount += m.RegisteredCount
		summary.ChargesheetedCount += m.ChargesheetedCount
		summary.FinalizedCount += m.FinalizedCount
		summary.OnTimeChargesheeted += m.OnTimeChargesheeted
		for tier, n := range m.UrgencyHistogram {
			summary.UrgencyHistogram[tier] += n
		}
		percentageSum += float64(m.PerformancePercentage)
	}
	summary.PerformancePercentage = percent(summary.OnTimeChargesheeted, summary.TotalCases)
	summary.CompletionRate = percent(summary.ChargesheetedCount+summary.FinalizedCount, summary.TotalCases)
	if len(metrics) > 0 {
		summary.AveragePerformancePercentage = math.Round(percentageSum/float64(len(metrics))*100) / 100
	}

	Sort(metrics, SortByPerformance)
	return Report{Stations: metrics, Summary: summary, GeneratedAt: now}
}

// OnTime reports whether a chargesheeted case was disposed by its due date
func OnTime(d models.CaseDetails) bool {
	return d.DisposalStatus == models.StatusChargesheeted &&
		d.DisposalDate != nil &&
		!disposal.DateOnly(*d.DisposalDate).After(disposal.DateOnly(d.DisposalDueDate))
}

// Sort orders metrics in place. Unknown orders fall back to performance.
func Sort(metrics []StationMetrics, order string) {
	if order == SortByName {
		sort.SliceStable(metrics, func(i, j int) bool {
			return metrics[i].StationName < metrics[j].StationName
		})
		return
	}
	sort.SliceStable(metrics, func(i, j int) bool {
		if metrics[i].PerformancePercentage != metrics[j].PerformancePercentage {
			return metrics[i].PerformancePercentage < metrics[j].PerformancePercentage
		}
		return metrics[i].StationName < metrics[j].StationName
	})
}

// ValidSort reports whether order is a known sort order
func ValidSort(order string) bool {
	return order == SortByPerformance || order == SortByName
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
