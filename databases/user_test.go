package databases_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/secure-evidence-api/config"
	"github.com/linesmerrill/secure-evidence-api/databases"
	"github.com/linesmerrill/secure-evidence-api/databases/mocks"
	"github.com/linesmerrill/secure-evidence-api/models"
)

func TestNewUserDatabase(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	conf := config.New()

	dbClient, err := databases.NewClient(conf)
	assert.NoError(t, err)

	db := databases.NewDatabase(conf, dbClient)

	userDB := databases.NewUserDatabase(db)

	assert.NotEmpty(t, userDB)
}

func TestUserDatabase_FindOne(t *testing.T) {

	// define variables for interfaces
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var srHelperErr databases.SingleResultHelper
	var srHelperCorrect databases.SingleResultHelper

	// set interfaces implementation to mocked structures
	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	srHelperErr = &mocks.SingleResultHelper{}
	srHelperCorrect = &mocks.SingleResultHelper{}

	srHelperErr.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(errors.New("mocked-error"))

	srHelperCorrect.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.User)
		arg.Email = "mocked-user@example.com"
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": true}).
		Return(srHelperErr)

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": false}).
		Return(srHelperCorrect)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "users").Return(collectionHelper)

	// Create new database with mocked Database interface
	userDba := databases.NewUserDatabase(dbHelper)

	// Call method with defined filter, that in our mocked function returns
	// mocked-error
	user, err := userDba.FindOne(context.Background(), bson.M{"error": true})

	assert.Empty(t, user)
	assert.EqualError(t, err, "mocked-error")

	// Now call the same function with different filter for correct
	// result
	user, err = userDba.FindOne(context.Background(), bson.M{"error": false})

	assert.Equal(t, &models.User{Email: "mocked-user@example.com"}, user)
	assert.NoError(t, err)
}

func TestUserDatabase_Find(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	cursorHelper := &mocks.CursorHelper{}

	cursorHelper.On("All", context.Background(), mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.User)
		*arg = []models.User{{Name: "Admin User", Role: models.RoleAdmin}}
	})
	cursorHelper.On("Close", context.Background()).Return(nil)

	collectionHelper.On("Find", context.Background(), bson.M{"error": true}).Return(nil, errors.New("mocked-error"))
	collectionHelper.On("Find", context.Background(), bson.M{"error": false}).Return(cursorHelper, nil)
	dbHelper.On("Collection", "users").Return(collectionHelper)

	userDba := databases.NewUserDatabase(dbHelper)

	users, err := userDba.Find(context.Background(), bson.M{"error": true})
	assert.Empty(t, users)
	assert.EqualError(t, err, "mocked-error")

	users, err = userDba.Find(context.Background(), bson.M{"error": false})
	assert.NoError(t, err)
	assert.Equal(t, []models.User{{Name: "Admin User", Role: models.RoleAdmin}}, users)
	cursorHelper.AssertCalled(t, "Close", context.Background())
}

func TestUserDatabase_InsertOneAssignsID(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("InsertOne", context.Background(), mock.AnythingOfType("*models.User")).Return(&mocks.InsertOneResultHelper{}, nil)
	dbHelper.On("Collection", "users").Return(collectionHelper)

	user := &models.User{Name: "Investigator User"}
	err := databases.NewUserDatabase(dbHelper).InsertOne(context.Background(), user)

	assert.NoError(t, err)
	assert.False(t, user.ID.IsZero())
}

func TestUserDatabase_CountDocuments(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("CountDocuments", context.Background(), bson.M{"email": "a@b.c"}).Return(int64(1), nil)
	dbHelper.On("Collection", "users").Return(collectionHelper)

	count, err := databases.NewUserDatabase(dbHelper).CountDocuments(context.Background(), bson.M{"email": "a@b.c"})

	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUserDatabase_EnsureIndexes(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.
		On("CreateIndex", context.Background(), mock.MatchedBy(func(m mongo.IndexModel) bool {
			return assert.ObjectsAreEqual(bson.D{{Key: "email", Value: 1}}, m.Keys) &&
				m.Options != nil && m.Options.Unique != nil && *m.Options.Unique
		})).
		Return("email_1", nil).Once()
	collectionHelper.
		On("CreateIndex", context.Background(), mock.Anything).
		Return("", errors.New("mocked-error")).Once()
	dbHelper.On("Collection", "users").Return(collectionHelper)

	userDB := databases.NewUserDatabase(dbHelper)

	assert.NoError(t, userDB.EnsureIndexes(context.Background()))
	assert.EqualError(t, userDB.EnsureIndexes(context.Background()), "mocked-error")
}
