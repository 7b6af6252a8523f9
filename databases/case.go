package databases

// go generate: mockery --name CaseDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/secure-evidence-api/models"
)

const caseName = "cases"

// CaseDatabase contains the methods to use with the case database
type CaseDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Case, error)
	FindPopulated(ctx context.Context, filter interface{}) ([]models.PopulatedCase, error)
	InsertOne(ctx context.Context, c *models.Case) error
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error)
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

func (c *caseDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Case, error) {
	kase := &models.Case{}
	err := c.db.Collection(caseName).FindOne(ctx, filter).Decode(kase)
	if err != nil {
		return nil, err
	}
	return kase, nil
}

// FindPopulated returns the matching cases newest first, with assignedTo and createdBy
// resolved to name and email
func (c *caseDatabase) FindPopulated(ctx context.Context, filter interface{}) ([]models.PopulatedCase, error) {
	pipeline := []bson.M{{"$match": filter}}
	pipeline = append(pipeline, lookupUser("assignedTo", false)...)
	pipeline = append(pipeline, lookupUser("createdBy", false)...)
	pipeline = append(pipeline, bson.M{"$sort": bson.M{"createdAt": -1}})

	cursor, err := c.db.Collection(caseName).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	cases := []models.PopulatedCase{}
	if err := drain(ctx, cursor, &cases); err != nil {
		return nil, err
	}
	return cases, nil
}

func (c *caseDatabase) InsertOne(ctx context.Context, kase *models.Case) error {
	if kase.ID.IsZero() {
		kase.ID = primitive.NewObjectID()
	}
	_, err := c.db.Collection(caseName).InsertOne(ctx, kase)
	return err
}

func (c *caseDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}) (*mongo.UpdateResult, error) {
	return c.db.Collection(caseName).UpdateOne(ctx, filter, update)
}

func (c *caseDatabase) DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error) {
	return c.db.Collection(caseName).DeleteOne(ctx, filter)
}
