package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CaseStatus is the workflow state of a case. Any value may follow any other.
type CaseStatus string

// Predefined CaseStatus values
const (
	CaseStatusOpen       CaseStatus = "Open"
	CaseStatusInProgress CaseStatus = "In Progress"
	CaseStatusClosed     CaseStatus = "Closed"
)

// ValidCaseStatuses returns all valid CaseStatus values
func ValidCaseStatuses() []CaseStatus {
	return []CaseStatus{
		CaseStatusOpen,
		CaseStatusInProgress,
		CaseStatusClosed,
	}
}

// IsValid checks if the CaseStatus value is one of the predefined constants
func (s CaseStatus) IsValid() bool {
	for _, valid := range ValidCaseStatuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// CasePriority ranks the urgency of a case
type CasePriority string

// Predefined CasePriority values
const (
	CasePriorityLow      CasePriority = "Low"
	CasePriorityMedium   CasePriority = "Medium"
	CasePriorityHigh     CasePriority = "High"
	CasePriorityCritical CasePriority = "Critical"
)

// ValidCasePriorities returns all valid CasePriority values
func ValidCasePriorities() []CasePriority {
	return []CasePriority{
		CasePriorityLow,
		CasePriorityMedium,
		CasePriorityHigh,
		CasePriorityCritical,
	}
}

// IsValid checks if the CasePriority value is one of the predefined constants
func (p CasePriority) IsValid() bool {
	for _, valid := range ValidCasePriorities() {
		if p == valid {
			return true
		}
	}
	return false
}

// MaxCaseTitleLength is the longest title a case may carry
const MaxCaseTitleLength = 100

// Case holds the structure for the cases collection in mongo
type Case struct {
	ID          primitive.ObjectID  `json:"_id" bson:"_id"`
	Title       string              `json:"title" bson:"title"`
	Description string              `json:"description" bson:"description"`
	Status      CaseStatus          `json:"status" bson:"status"`
	Priority    CasePriority        `json:"priority" bson:"priority"`
	AssignedTo  *primitive.ObjectID `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	CreatedBy   primitive.ObjectID  `json:"createdBy" bson:"createdBy"`
	CreatedAt   time.Time           `json:"createdAt" bson:"createdAt"`
}

// PopulatedCase is a case with assignedTo and createdBy resolved to user summaries
type PopulatedCase struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Status      CaseStatus         `json:"status" bson:"status"`
	Priority    CasePriority       `json:"priority" bson:"priority"`
	AssignedTo  *UserSummary       `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	CreatedBy   *UserSummary       `json:"createdBy" bson:"createdBy"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

// CaseRequest is the body accepted when creating or updating a case. Absent fields are left
// untouched on update.
type CaseRequest struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Status      *CaseStatus   `json:"status"`
	Priority    *CasePriority `json:"priority"`
	AssignedTo  *string       `json:"assignedTo"`
}

// RelatedLink returns the client route of the case, used by notifications
func (c Case) RelatedLink() string {
	return CaseLink(c.ID.Hex())
}

// CaseLink returns the client route for a case id
func CaseLink(caseID string) string {
	return "/cases/" + caseID
}
