package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType is the severity shown to the recipient
type NotificationType string

// Predefined NotificationType values
const (
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// ValidNotificationTypes returns all valid NotificationType values
func ValidNotificationTypes() []NotificationType {
	return []NotificationType{
		NotificationInfo,
		NotificationWarning,
		NotificationSuccess,
		NotificationError,
	}
}

// IsValid checks if the NotificationType value is one of the predefined constants
func (t NotificationType) IsValid() bool {
	for _, valid := range ValidNotificationTypes() {
		if t == valid {
			return true
		}
	}
	return false
}

// Notification holds the structure for the notifications collection in mongo
type Notification struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Recipient   primitive.ObjectID `json:"recipient" bson:"recipient"`
	Message     string             `json:"message" bson:"message"`
	Type        NotificationType   `json:"type" bson:"type"`
	IsRead      bool               `json:"isRead" bson:"isRead"`
	RelatedLink string             `json:"relatedLink,omitempty" bson:"relatedLink,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}
