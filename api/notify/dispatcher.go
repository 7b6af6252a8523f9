package notify

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/linesmerrill/secure-evidence-api/api"
	"github.com/linesmerrill/secure-evidence-api/databases"
	"github.com/linesmerrill/secure-evidence-api/models"
)

// EventNotification is the real-time event carrying a new notification
const EventNotification = "notification"

var (
	// ErrNotFound is returned when the notification does not exist
	ErrNotFound = errors.New("notification not found")
	// ErrNotAuthorized is returned when the caller is not the recipient
	ErrNotAuthorized = errors.New("not authorized")
)

// Broadcaster pushes an event to every live session of a user
type Broadcaster interface {
	SendToUser(userID, event string, payload interface{}) error
}

// Dispatcher stores notifications and pushes them to connected recipients
type Dispatcher struct {
	DB          databases.NotificationDatabase
	Broadcaster Broadcaster
	Now         func() time.Time
}

// Notify saves the notification and then pushes it to the recipient's live sessions. A push
// failure is logged only; the stored row is picked up on the next poll.
func (d *Dispatcher) Notify(ctx context.Context, recipientID primitive.ObjectID, message, relatedLink string, t models.NotificationType) (*models.Notification, error) {
	if !t.IsValid() {
		t = models.NotificationInfo
	}
	n := &models.Notification{
		Recipient:   recipientID,
		Message:     message,
		Type:        t,
		IsRead:      false,
		RelatedLink: relatedLink,
		CreatedAt:   d.now(),
	}

	ctx, cancel := api.WithQueryTimeout(ctx)
	defer cancel()
	if err := d.DB.InsertOne(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to save notification: %w", err)
	}

	if d.Broadcaster != nil {
		if err := d.Broadcaster.SendToUser(recipientID.Hex(), EventNotification, n); err != nil {
			zap.S().Warnw("failed to push notification",
				"notificationId", n.ID.Hex(),
				"recipient", recipientID.Hex(),
				"error", err)
		}
	}
	return n, nil
}

// List returns the recipient's notifications newest first
func (d *Dispatcher) List(ctx context.Context, recipientID primitive.ObjectID) ([]models.Notification, error) {
	ctx, cancel := api.WithQueryTimeout(ctx)
	defer cancel()
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return d.DB.Find(ctx, bson.M{"recipient": recipientID}, opts)
}

// MarkRead flips isRead on a notification owned by callerID
func (d *Dispatcher) MarkRead(ctx context.Context, notificationID string, callerID primitive.ObjectID) (*models.Notification, error) {
	id, err := primitive.ObjectIDFromHex(notificationID)
	if err != nil {
		return nil, ErrNotFound
	}

	ctx, cancel := api.WithQueryTimeout(ctx)
	defer cancel()
	n, err := d.DB.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	if n.Recipient != callerID {
		return nil, ErrNotAuthorized
	}

	matched, err := d.DB.UpdateOne(ctx,
		bson.M{"_id": id, "recipient": callerID},
		bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		return nil, fmt.Errorf("failed to update notification: %w", err)
	}
	if matched == 0 {
		return nil, ErrNotFound
	}
	n.IsRead = true
	return n, nil
}

// MarkReadByCase marks every unread notification of callerID that links to the case as read
// and returns how many changed
func (d *Dispatcher) MarkReadByCase(ctx context.Context, callerID primitive.ObjectID, caseID string) (int64, error) {
	ctx, cancel := api.WithQueryTimeout(ctx)
	defer cancel()
	modified, err := d.DB.UpdateMany(ctx, CaseLinkFilter(callerID, caseID), bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		return 0, fmt.Errorf("failed to update notifications: %w", err)
	}
	return modified, nil
}

// CaseLinkFilter selects the caller's unread notifications whose link is the case page or
// a page below it
func CaseLinkFilter(callerID primitive.ObjectID, caseID string) bson.M {
	pattern := "^" + regexp.QuoteMeta(models.CaseLink(caseID)) + `(/|\?|#|$)`
	return bson.M{
		"recipient":   callerID,
		"isRead":      false,
		"relatedLink": primitive.Regex{Pattern: pattern},
	}
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}
