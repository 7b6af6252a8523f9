package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/secure-evidence-api/api"
	"github.com/linesmerrill/secure-evidence-api/api/notify"
	"github.com/linesmerrill/secure-evidence-api/config"
	"github.com/linesmerrill/secure-evidence-api/models"
)

// Notification exported for testing purposes
type Notification struct {
	Dispatcher *notify.Dispatcher
}

type markReadByCaseResponse struct {
	Message  string `json:"message"`
	Modified int64  `json:"modified"`
}

// NotificationsHandler returns the caller's notifications newest first
func (n Notification) NotificationsHandler(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())

	list, err := n.Dispatcher.List(r.Context(), u.ID)
	if err != nil {
		config.ErrorStatus("failed to get notifications", http.StatusInternalServerError, w, err)
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	api.WriteJSON(w, http.StatusOK, list)
}

// MarkReadHandler marks one of the caller's notifications as read
func (n Notification) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())

	updated, err := n.Dispatcher.MarkRead(r.Context(), mux.Vars(r)["id"], u.ID)
	if err != nil {
		switch {
		case errors.Is(err, notify.ErrNotFound):
			config.ErrorStatus("notification not found", http.StatusNotFound, w, err)
		case errors.Is(err, notify.ErrNotAuthorized):
			config.ErrorStatus("not authorized", http.StatusUnauthorized, w, err)
		default:
			config.ErrorStatus("failed to update notification", http.StatusInternalServerError, w, err)
		}
		return
	}
	api.WriteJSON(w, http.StatusOK, updated)
}

// MarkReadByCaseHandler marks every unread notification of the caller that links to the case
// as read
func (n Notification) MarkReadByCaseHandler(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	caseID := mux.Vars(r)["caseId"]

	if !primitive.IsValidObjectID(caseID) {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, primitive.ErrInvalidHex)
		return
	}

	modified, err := n.Dispatcher.MarkReadByCase(r.Context(), u.ID, caseID)
	if err != nil {
		config.ErrorStatus("failed to update notifications", http.StatusInternalServerError, w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, markReadByCaseResponse{
		Message:  "Notifications marked as read",
		Modified: modified,
	})
}
