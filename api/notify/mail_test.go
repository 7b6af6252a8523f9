package notify_test

import (
	"errors"
	"testing"

	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/secure-evidence-api/api/notify"
	"github.com/linesmerrill/secure-evidence-api/databases/mocks"
	"github.com/linesmerrill/secure-evidence-api/models"
)

func TestMailBroadcaster_SendsToRecipient(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Name: "Admin User", Email: "admin@example.com"}
	users := &mocks.UserDatabase{}
	users.On("FindOne", mock.Anything, bson.M{"_id": user.ID}).Return(user, nil)

	var sent *mail.SGMailV3
	m := &notify.MailBroadcaster{
		Users:   users,
		From:    mail.NewEmail("Secure Evidence", "no-reply@example.com"),
		BaseURL: "https://app.example.com",
		Send: func(msg *mail.SGMailV3) (int, error) {
			sent = msg
			return 202, nil
		},
	}

	n := &models.Notification{Message: "New evidence uploaded for case: X", RelatedLink: "/cases/1"}
	require.NoError(t, m.SendToUser(user.ID.Hex(), notify.EventNotification, n))

	require.NotNil(t, sent)
	require.Len(t, sent.Personalizations, 1)
	assert.Equal(t, "admin@example.com", sent.Personalizations[0].To[0].Address)
	require.Len(t, sent.Content, 2)
	assert.Equal(t, "New evidence uploaded for case: X", sent.Content[0].Value)
	assert.Contains(t, sent.Content[1].Value, "https://app.example.com/cases/1")
}

func TestMailBroadcaster_ReportsProviderErrors(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Email: "a@example.com"}
	users := &mocks.UserDatabase{}
	users.On("FindOne", mock.Anything, mock.Anything).Return(user, nil)
	n := &models.Notification{Message: "hi"}

	m := &notify.MailBroadcaster{Users: users, From: mail.NewEmail("", "x@example.com"), Send: func(*mail.SGMailV3) (int, error) {
		return 401, nil
	}}
	assert.EqualError(t, m.SendToUser(user.ID.Hex(), notify.EventNotification, n), "sendgrid error: status 401")

	m.Send = func(*mail.SGMailV3) (int, error) { return 0, errors.New("dial tcp: timeout") }
	assert.ErrorContains(t, m.SendToUser(user.ID.Hex(), notify.EventNotification, n), "timeout")
}

func TestMailBroadcaster_IgnoresOtherEvents(t *testing.T) {
	m := &notify.MailBroadcaster{Users: &mocks.UserDatabase{}}

	assert.NoError(t, m.SendToUser("whatever", "typing", "x"))
}
