package databases

// go generate: mockery --name AuditLogDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/secure-evidence-api/models"
)

const auditLogName = "auditlogs"

// AuditLogDatabase contains the methods to use with the audit log database. The trail is
// append-only, so there is nothing to update or delete.
type AuditLogDatabase interface {
	InsertOne(ctx context.Context, l *models.AuditLog) error
	FindPopulated(ctx context.Context, filter interface{}, limit, page int) ([]models.PopulatedAuditLog, error)
}

type auditLogDatabase struct {
	db DatabaseHelper
}

// NewAuditLogDatabase initializes a new instance of audit log database with the provided db connection
func NewAuditLogDatabase(db DatabaseHelper) AuditLogDatabase {
	return &auditLogDatabase{
		db: db,
	}
}

func (a *auditLogDatabase) InsertOne(ctx context.Context, l *models.AuditLog) error {
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	_, err := a.db.Collection(auditLogName).InsertOne(ctx, l)
	return err
}

// FindPopulated returns audit rows newest first with the acting user resolved. A limit of
// zero returns every row.
func (a *auditLogDatabase) FindPopulated(ctx context.Context, filter interface{}, limit, page int) ([]models.PopulatedAuditLog, error) {
	pipeline := []bson.M{
		{"$match": filter},
		{"$sort": bson.M{"timestamp": -1}},
	}
	pipeline = append(pipeline, newMongoPaginate(limit, page).getPaginatedStages()...)
	pipeline = append(pipeline, lookupUser("user", true)...)

	cursor, err := a.db.Collection(auditLogName).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	logs := []models.PopulatedAuditLog{}
	if err := drain(ctx, cursor, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
