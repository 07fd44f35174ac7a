package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PerformanceSnapshot is one day's stored performance figures for a station,
// written by the scheduler
type PerformanceSnapshot struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Day                   string             `bson:"day" json:"day"` // YYYY-MM-DD
	StationName           string             `bson:"stationName" json:"stationName"`
	TotalCases            int                `bson:"totalCases" json:"totalCases"`
	RegisteredCount       int                `bson:"registeredCount" json:"registeredCount"`
	ChargesheetedCount    int                `bson:"chargesheetedCount" json:"chargesheetedCount"`
	FinalizedCount        int                `bson:"finalizedCount" json:"finalizedCount"`
	OnTimeChargesheeted   int                `bson:"onTimeChargesheeted" json:"onTimeChargesheeted"`
	PerformancePercentage int                `bson:"performancePercentage" json:"performancePercentage"`
	CompletionRate        int                `bson:"completionRate" json:"completionRate"`
	UrgencyHistogram      map[string]int     `bson:"urgencyHistogram" json:"urgencyHistogram"`
	CreatedAt             time.Time          `bson:"createdAt" json:"createdAt"`
}

// SchedulerLock is a lease held by one instance while it runs a cron job
type SchedulerLock struct {
	Name      string    `bson:"_id" json:"name"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
}
