package databases_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/secure-evidence-api/databases"
	"github.com/linesmerrill/secure-evidence-api/databases/mocks"
	"github.com/linesmerrill/secure-evidence-api/models"
)

func TestEvidenceDatabase_FindOne(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelper := &mocks.SingleResultHelper{}

	srHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.Evidence)
		arg.FileName = "photo.jpg"
		arg.Hash = "abc"
	})
	collectionHelper.On("FindOne", context.Background(), mock.Anything).Return(srHelper)
	dbHelper.On("Collection", "evidences").Return(collectionHelper)

	evidence, err := databases.NewEvidenceDatabase(dbHelper).FindOne(context.Background(), bson.M{})

	require.NoError(t, err)
	assert.Equal(t, "photo.jpg", evidence.FileName)
	assert.Equal(t, "abc", evidence.Hash)
}

func TestEvidenceDatabase_FindPopulatedUsesUploaderLookup(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	cursorHelper := &mocks.CursorHelper{}

	var pipeline []bson.M
	collectionHelper.On("Aggregate", context.Background(), mock.Anything).Return(cursorHelper, nil).Run(func(args mock.Arguments) {
		pipeline = args.Get(1).([]bson.M)
	})
	cursorHelper.On("All", context.Background(), mock.Anything).Return(nil)
	cursorHelper.On("Close", context.Background()).Return(nil)
	dbHelper.On("Collection", "evidences").Return(collectionHelper)

	evidence, err := databases.NewEvidenceDatabase(dbHelper).FindPopulated(context.Background(), bson.M{"caseId": primitive.NewObjectID()})

	require.NoError(t, err)
	assert.NotNil(t, evidence)
	assert.Empty(t, evidence)
	lookup := pipeline[1]["$lookup"].(bson.M)
	assert.Equal(t, "uploader", lookup["localField"])
	project := lookup["pipeline"].([]bson.M)[0]["$project"].(bson.M)
	assert.Equal(t, 0, project["password"])
}

func TestEvidenceDatabase_InsertOneAndCount(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("InsertOne", context.Background(), mock.AnythingOfType("*models.Evidence")).Return(&mocks.InsertOneResultHelper{}, nil)
	collectionHelper.On("CountDocuments", context.Background(), bson.M{"filePath": "uploads/x"}).Return(int64(0), nil)
	dbHelper.On("Collection", "evidences").Return(collectionHelper)

	evidenceDba := databases.NewEvidenceDatabase(dbHelper)

	evidence := &models.Evidence{FileName: "x"}
	assert.NoError(t, evidenceDba.InsertOne(context.Background(), evidence))
	assert.False(t, evidence.ID.IsZero())

	count, err := evidenceDba.CountDocuments(context.Background(), bson.M{"filePath": "uploads/x"})
	assert.NoError(t, err)
	assert.Zero(t, count)
}
