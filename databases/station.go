package databases

// go generate: mockery --name StationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/police-fir-api/disposal"
	"github.com/linesmerrill/police-fir-api/models"
)

const stationName = "stations"

// StationDatabase contains the methods to use with the station registry
type StationDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Station, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Station, error)
	// ListActive returns every active station, ordered by name
	ListActive(ctx context.Context) ([]models.Station, error)
	InsertOne(ctx context.Context, s *models.Station) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
	EnsureIndexes(ctx context.Context) error
}

type stationDatabase struct {
	db DatabaseHelper
}

// NewStationDatabase initializes a new instance of station database with the provided db connection
func NewStationDatabase(db DatabaseHelper) StationDatabase {
	return &stationDatabase{
		db: db,
	}
}

func (s *stationDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Station, error) {
	station := &models.Station{}
	err := s.db.Collection(stationName).FindOne(ctx, filter, opts...).Decode(&station)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, disposal.NotFoundf("station not found")
		}
		return nil, err
	}
	return station, nil
}

func (s *stationDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Station, error) {
	stations := []models.Station{}
	curr, err := s.db.Collection(stationName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &stations)
	if err != nil {
		return nil, err
	}
	return stations, nil
}

func (s *stationDatabase) ListActive(ctx context.Context) ([]models.Station, error) {
	return s.Find(ctx, bson.M{"active": true}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (s *stationDatabase) InsertOne(ctx context.Context, station *models.Station) (InsertOneResultHelper, error) {
	res, err := s.db.Collection(stationName).InsertOne(ctx, station)
	if mongo.IsDuplicateKeyError(err) {
		return nil, disposal.Conflictf("station %s or code %s already exists", station.Name, station.Code)
	}
	return res, err
}

func (s *stationDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	res, err := s.db.Collection(stationName).UpdateOne(ctx, filter, update, opts...)
	if mongo.IsDuplicateKeyError(err) {
		return disposal.Conflictf("station code already exists")
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return disposal.NotFoundf("station not found")
	}
	return nil
}

func (s *stationDatabase) EnsureIndexes(ctx context.Context) error {
	return s.db.Collection(stationName).CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
}
