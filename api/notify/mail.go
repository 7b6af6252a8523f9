package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/linesmerrill/secure-evidence-api/api"
	"github.com/linesmerrill/secure-evidence-api/databases"
	"github.com/linesmerrill/secure-evidence-api/models"
	templates "github.com/linesmerrill/secure-evidence-api/templates/html"
)

// MailBroadcaster sends notifications to the recipient's e-mail address through SendGrid
type MailBroadcaster struct {
	Users   databases.UserDatabase
	From    *mail.Email
	BaseURL string
	// Send delivers a message and returns the provider's status code
	Send func(m *mail.SGMailV3) (int, error)
}

// NewMailBroadcaster returns a MailBroadcaster using a SendGrid client for apiKey
func NewMailBroadcaster(users databases.UserDatabase, apiKey, from, baseURL string) *MailBroadcaster {
	client := sendgrid.NewSendClient(apiKey)
	return &MailBroadcaster{
		Users:   users,
		From:    mail.NewEmail("Secure Evidence", from),
		BaseURL: strings.TrimRight(baseURL, "/"),
		Send: func(m *mail.SGMailV3) (int, error) {
			response, err := client.Send(m)
			if err != nil {
				return 0, err
			}
			return response.StatusCode, nil
		},
	}
}

// SendToUser implements Broadcaster. Only notification events are mailed.
func (m *MailBroadcaster) SendToUser(userID, event string, payload interface{}) error {
	n, ok := payload.(*models.Notification)
	if event != EventNotification || !ok {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("invalid recipient id %q: %w", userID, err)
	}

	ctx, cancel := api.WithQueryTimeout(context.Background())
	defer cancel()
	user, err := m.Users.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to get recipient: %w", err)
	}

	link := ""
	if n.RelatedLink != "" && m.BaseURL != "" {
		link = m.BaseURL + n.RelatedLink
	}
	subject := "Secure Evidence notification"
	message := mail.NewSingleEmail(m.From, subject, mail.NewEmail(user.Name, user.Email),
		n.Message, templates.RenderNotificationEmail(subject, n.Message, link))

	status, err := m.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if status >= 400 {
		return fmt.Errorf("sendgrid error: status %d", status)
	}
	zap.S().Infow("notification email sent", "to", user.Email, "notificationId", n.ID.Hex())
	return nil
}
