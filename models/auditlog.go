package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditLog holds the structure for the auditlogs collection in mongo. Rows are only ever
// inserted.
type AuditLog struct {
	ID        primitive.ObjectID  `json:"_id" bson:"_id"`
	User      *primitive.ObjectID `json:"user" bson:"user"`
	Action    string              `json:"action" bson:"action"`
	Details   string              `json:"details" bson:"details"`
	IPAddress string              `json:"ipAddress" bson:"ipAddress"`
	UserAgent string              `json:"userAgent" bson:"userAgent"`
	RequestID string              `json:"requestId,omitempty" bson:"requestId,omitempty"`
	Timestamp time.Time           `json:"timestamp" bson:"timestamp"`
}

// PopulatedAuditLog is an audit row with the acting user resolved to a summary
type PopulatedAuditLog struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	User      *UserSummary       `json:"user" bson:"user"`
	Action    string             `json:"action" bson:"action"`
	Details   string             `json:"details" bson:"details"`
	IPAddress string             `json:"ipAddress" bson:"ipAddress"`
	UserAgent string             `json:"userAgent" bson:"userAgent"`
	RequestID string             `json:"requestId,omitempty" bson:"requestId,omitempty"`
	Timestamp time.Time          `json:"timestamp" bson:"timestamp"`
}
