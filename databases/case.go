package databases

// go generate: mockery --name CaseDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/police-fir-api/disposal"
	"github.com/linesmerrill/police-fir-api/models"
)

const caseName = "cases"

// CaseDatabase contains the methods to use with the case database
type CaseDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Case, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Case, error)
	InsertOne(ctx context.Context, c *models.Case) (InsertOneResultHelper, error)
	// SaveVersioned writes c back if nobody else has saved it since it was
	// read, and bumps its version. A stale version yields a ConflictError.
	SaveVersioned(ctx context.Context, c *models.Case) error
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type caseDatabase struct {
	db DatabaseHelper
}

// NewCaseDatabase initializes a new instance of case database with the provided db connection
func NewCaseDatabase(db DatabaseHelper) CaseDatabase {
	return &caseDatabase{
		db: db,
	}
}

func (c *caseDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Case, error) {
	fir := &models.Case{}
	err := c.db.Collection(caseName).FindOne(ctx, filter, opts...).Decode(&fir)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, disposal.NotFoundf("case not found")
		}
		return nil, err
	}
	return fir, nil
}

func (c *caseDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Case, error) {
	cases := []models.Case{}
	curr, err := c.db.Collection(caseName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &cases)
	if err != nil {
		return nil, err
	}
	return cases, nil
}

func (c *caseDatabase) InsertOne(ctx context.Context, fir *models.Case) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(caseName).InsertOne(ctx, fir)
	if mongo.IsDuplicateKeyError(err) {
		return nil, disposal.Conflictf("case number %s already exists", fir.Details.CaseNumber)
	}
	return res, err
}

func (c *caseDatabase) SaveVersioned(ctx context.Context, fir *models.Case) error {
	filter := bson.M{"_id": fir.ID, "__v": fir.Version}
	update := bson.M{
		"$set": bson.M{"case": fir.Details},
		"$inc": bson.M{"__v": 1},
	}
	res, err := c.db.Collection(caseName).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return disposal.Conflictf("case %s was modified by someone else, reload and retry", fir.Details.CaseNumber)
	}
	fir.Version++
	return nil
}

func (c *caseDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return c.db.Collection(caseName).DeleteOne(ctx, filter, opts...)
}

func (c *caseDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(caseName).CountDocuments(ctx, filter, opts...)
}

func (c *caseDatabase) EnsureIndexes(ctx context.Context) error {
	return c.db.Collection(caseName).CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "case.caseNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "case.stationName", Value: 1}, {Key: "case.disposalStatus", Value: 1}}},
		{Keys: bson.D{{Key: "case.disposalDueDate", Value: 1}}},
	})
}
