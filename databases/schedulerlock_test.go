package databases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/police-fir-api/databases"
	"github.com/linesmerrill/police-fir-api/databases/mocks"
)

func TestSchedulerLockDatabase_TryAcquireLock(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	dbHelper.On("Collection", "schedulerlocks").Return(collectionHelper)

	held := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	filterFor := func(name string) interface{} {
		return mock.MatchedBy(func(f bson.M) bool { return f["_id"] == name })
	}
	collectionHelper.On("UpdateOne", mock.Anything, filterFor("free"), mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{UpsertedCount: 1}, nil)
	collectionHelper.On("UpdateOne", mock.Anything, filterFor("held"), mock.Anything, mock.Anything).
		Return(nil, held)
	collectionHelper.On("UpdateOne", mock.Anything, filterFor("broken"), mock.Anything, mock.Anything).
		Return(nil, errors.New("mocked-error"))

	lockDba := databases.NewSchedulerLockDatabase(dbHelper)

	ok, err := lockDba.TryAcquireLock(context.Background(), "free", "web.1", time.Minute)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = lockDba.TryAcquireLock(context.Background(), "held", "web.1", time.Minute)
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = lockDba.TryAcquireLock(context.Background(), "broken", "web.1", time.Minute)
	assert.EqualError(t, err, "mocked-error")
	assert.False(t, ok)
}

func TestSchedulerLockDatabase_ReleaseLock(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	dbHelper.On("Collection", "schedulerlocks").Return(collectionHelper)
	collectionHelper.On("DeleteOne", context.Background(), bson.M{"_id": "daily-snapshot", "owner": "web.1"}).
		Return(int64(1), nil)

	err := databases.NewSchedulerLockDatabase(dbHelper).ReleaseLock(context.Background(), "daily-snapshot", "web.1")
	assert.NoError(t, err)
}
