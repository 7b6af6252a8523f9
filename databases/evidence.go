package databases

// go generate: mockery --name EvidenceDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/secure-evidence-api/models"
)

const evidenceName = "evidences"

// EvidenceDatabase contains the methods to use with the evidence database
type EvidenceDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Evidence, error)
	FindPopulated(ctx context.Context, filter interface{}) ([]models.PopulatedEvidence, error)
	InsertOne(ctx context.Context, e *models.Evidence) error
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
}

type evidenceDatabase struct {
	db DatabaseHelper
}

// NewEvidenceDatabase initializes a new instance of evidence database with the provided db connection
func NewEvidenceDatabase(db DatabaseHelper) EvidenceDatabase {
	return &evidenceDatabase{
		db: db,
	}
}

func (e *evidenceDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Evidence, error) {
	evidence := &models.Evidence{}
	err := e.db.Collection(evidenceName).FindOne(ctx, filter).Decode(evidence)
	if err != nil {
		return nil, err
	}
	return evidence, nil
}

// FindPopulated returns the matching evidence with the uploader resolved to name and email
func (e *evidenceDatabase) FindPopulated(ctx context.Context, filter interface{}) ([]models.PopulatedEvidence, error) {
	pipeline := []bson.M{{"$match": filter}}
	pipeline = append(pipeline, lookupUser("uploader", false)...)
	pipeline = append(pipeline, bson.M{"$sort": bson.M{"uploadedAt": -1}})

	cursor, err := e.db.Collection(evidenceName).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	evidence := []models.PopulatedEvidence{}
	if err := drain(ctx, cursor, &evidence); err != nil {
		return nil, err
	}
	return evidence, nil
}

func (e *evidenceDatabase) InsertOne(ctx context.Context, evidence *models.Evidence) error {
	if evidence.ID.IsZero() {
		evidence.ID = primitive.NewObjectID()
	}
	_, err := e.db.Collection(evidenceName).InsertOne(ctx, evidence)
	return err
}

func (e *evidenceDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return e.db.Collection(evidenceName).CountDocuments(ctx, filter)
}
