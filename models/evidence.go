package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Evidence holds the structure for the evidences collection in mongo.
// Hash is the hex SHA-256 of the bytes at FilePath, taken once at ingest.
type Evidence struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	CaseID      primitive.ObjectID `json:"caseId" bson:"caseId"`
	Uploader    primitive.ObjectID `json:"uploader" bson:"uploader"`
	FileName    string             `json:"fileName" bson:"fileName"`
	FilePath    string             `json:"filePath" bson:"filePath"`
	FileType    string             `json:"fileType" bson:"fileType"`
	FileSize    int64              `json:"fileSize" bson:"fileSize"`
	Hash        string             `json:"hash" bson:"hash"`
	Description string             `json:"description" bson:"description"`
	UploadedAt  time.Time          `json:"uploadedAt" bson:"uploadedAt"`
}

// PopulatedEvidence is an evidence record with the uploader resolved to a user summary
type PopulatedEvidence struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	CaseID      primitive.ObjectID `json:"caseId" bson:"caseId"`
	Uploader    *UserSummary       `json:"uploader" bson:"uploader"`
	FileName    string             `json:"fileName" bson:"fileName"`
	FilePath    string             `json:"filePath" bson:"filePath"`
	FileType    string             `json:"fileType" bson:"fileType"`
	FileSize    int64              `json:"fileSize" bson:"fileSize"`
	Hash        string             `json:"hash" bson:"hash"`
	Description string             `json:"description" bson:"description"`
	UploadedAt  time.Time          `json:"uploadedAt" bson:"uploadedAt"`
}
