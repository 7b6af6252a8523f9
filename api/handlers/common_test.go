package handlers_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/secure-evidence-api/api"
	"github.com/linesmerrill/secure-evidence-api/models"
)

func newUser(role models.Role) *models.User {
	return &models.User{
		ID:    primitive.NewObjectID(),
		Name:  string(role) + " user",
		Email: string(role) + "@secureevidence.com",
		Role:  role,
	}
}

// asUser returns r as if the auth middleware had authenticated u, with the given route vars
func asUser(r *http.Request, u *models.User, vars map[string]string) *http.Request {
	r = r.WithContext(api.WithUser(r.Context(), u))
	if vars != nil {
		r = mux.SetURLVars(r, vars)
	}
	return r
}

func newGate(t *testing.T) *api.Gate {
	gate, err := api.NewGate("")
	require.NoError(t, err)
	return gate
}

type sentNotification struct {
	Recipient   primitive.ObjectID
	Message     string
	RelatedLink string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(ctx context.Context, recipientID primitive.ObjectID, message, relatedLink string, t models.NotificationType) (*models.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{Recipient: recipientID, Message: message, RelatedLink: relatedLink})
	return &models.Notification{ID: primitive.NewObjectID(), Recipient: recipientID, Message: message, Type: t}, nil
}

func (n *recordingNotifier) all() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotification(nil), n.sent...)
}
