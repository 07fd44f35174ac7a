package databases

// go generate: mockery --name SnapshotDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/police-fir-api/models"
)

const snapshotName = "performancesnapshots"

// SnapshotDatabase stores the daily performance snapshots
type SnapshotDatabase interface {
	// Upsert replaces the snapshot of the same station and day
	Upsert(ctx context.Context, s models.PerformanceSnapshot) error
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.PerformanceSnapshot, error)
}

type snapshotDatabase struct {
	db DatabaseHelper
}

// NewSnapshotDatabase initializes a new instance of snapshot database with the provided db connection
func NewSnapshotDatabase(db DatabaseHelper) SnapshotDatabase {
	return &snapshotDatabase{
		db: db,
	}
}

func (s *snapshotDatabase) Upsert(ctx context.Context, snap models.PerformanceSnapshot) error {
	filter := bson.M{"day": snap.Day, "stationName": snap.StationName}
	update := bson.M{"$set": bson.M{
		"totalCases":            snap.TotalCases,
		"registeredCount":       snap.RegisteredCount,
		"chargesheetedCount":    snap.ChargesheetedCount,
		"finalizedCount":        snap.FinalizedCount,
		"onTimeChargesheeted":   snap.OnTimeChargesheeted,
		"performancePercentage": snap.PerformancePercentage,
		"completionRate":        snap.CompletionRate,
		"urgencyHistogram":      snap.UrgencyHistogram,
		"createdAt":             snap.CreatedAt,
	}}
	_, err := s.db.Collection(snapshotName).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (s *snapshotDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.PerformanceSnapshot, error) {
	snapshots := []models.PerformanceSnapshot{}
	curr, err := s.db.Collection(snapshotName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &snapshots)
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}
