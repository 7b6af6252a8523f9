package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/linesmerrill/secure-evidence-api/api"
	"github.com/linesmerrill/secure-evidence-api/api/evidence"
	"github.com/linesmerrill/secure-evidence-api/api/report"
	"github.com/linesmerrill/secure-evidence-api/config"
	"github.com/linesmerrill/secure-evidence-api/databases"
	"github.com/linesmerrill/secure-evidence-api/models"
)

// Case exported for testing purposes
type Case struct {
	DB       databases.CaseDatabase
	EDB      databases.EvidenceDatabase
	UDB      databases.UserDatabase
	Gate     *api.Gate
	Notifier evidence.Notifier
}

// CasesHandler returns the cases visible to the caller, newest first
func (c Case) CasesHandler(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	cases, err := c.DB.FindPopulated(ctx, c.Gate.CaseFilter(u))
	if err != nil {
		config.ErrorStatus("failed to get cases", http.StatusInternalServerError, w, err)
		return
	}
	if cases == nil {
		cases = []models.PopulatedCase{}
	}
	api.WriteJSON(w, http.StatusOK, cases)
}

// CaseByIDHandler returns a single case with its people populated
func (c Case) CaseByIDHandler(w http.ResponseWriter, r *http.Request) {
	kase, ok := c.visibleCase(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	populated, err := c.populated(ctx, kase.ID)
	if err != nil {
		config.ErrorStatus("failed to get case", http.StatusInternalServerError, w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, populated)
}

// CreateCaseHandler creates a case owned by the caller and notifies the assignee, if any
func (c Case) CreateCaseHandler(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())

	var req models.CaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	kase := &models.Case{
		Status:    models.CaseStatusOpen,
		Priority:  models.CasePriorityMedium,
		CreatedBy: u.ID,
		CreatedAt: time.Now(),
	}
	set, _, err := c.applyCaseRequest(r, req)
	if err != nil {
		config.ErrorStatus(err.Error(), http.StatusBadRequest, w, nil)
		return
	}
	if v, ok := set["title"].(string); ok {
		kase.Title = v
	}
	if v, ok := set["description"].(string); ok {
		kase.Description = v
	}
	if v, ok := set["status"].(models.CaseStatus); ok {
		kase.Status = v
	}
	if v, ok := set["priority"].(models.CasePriority); ok {
		kase.Priority = v
	}
	if v, ok := set["assignedTo"].(primitive.ObjectID); ok {
		kase.AssignedTo = &v
	}
	if kase.Title == "" || kase.Description == "" {
		config.ErrorStatus("title and description are required", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := c.DB.InsertOne(ctx, kase); err != nil {
		config.ErrorStatus("failed to create case", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().Infow("case created", "caseId", kase.ID.Hex(), "createdBy", u.ID.Hex())

	if kase.AssignedTo != nil {
		c.notifyAssignee(r, kase, *kase.AssignedTo)
	}
	api.WriteJSON(w, http.StatusCreated, kase)
}

// UpdateCaseHandler applies the fields present in the body to a case the caller can see.
// A newly set assignee is notified.
func (c Case) UpdateCaseHandler(w http.ResponseWriter, r *http.Request) {
	kase, ok := c.visibleCase(w, r)
	if !ok {
		return
	}

	var req models.CaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	set, unset, err := c.applyCaseRequest(r, req)
	if err != nil {
		config.ErrorStatus(err.Error(), http.StatusBadRequest, w, nil)
		return
	}
	if req.Title != nil && set["title"] == "" {
		config.ErrorStatus("title cannot be empty", http.StatusBadRequest, w, nil)
		return
	}
	if len(set) == 0 && len(unset) == 0 {
		config.ErrorStatus("no fields to update", http.StatusBadRequest, w, nil)
		return
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := c.DB.UpdateOne(ctx, bson.M{"_id": kase.ID}, update)
	if err != nil {
		config.ErrorStatus("failed to update case", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.ErrorStatus("case not found", http.StatusNotFound, w, nil)
		return
	}

	updated, err := c.DB.FindOne(ctx, bson.M{"_id": kase.ID})
	if err != nil {
		config.ErrorStatus("failed to get case", http.StatusInternalServerError, w, err)
		return
	}

	if assignee, ok := set["assignedTo"].(primitive.ObjectID); ok {
		if kase.AssignedTo == nil || *kase.AssignedTo != assignee {
			c.notifyAssignee(r, updated, assignee)
		}
	}
	api.WriteJSON(w, http.StatusOK, updated)
}

// DeleteCaseHandler removes a case. Its evidence records and files are kept.
func (c Case) DeleteCaseHandler(w http.ResponseWriter, r *http.Request) {
	kase, ok := c.visibleCase(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := c.DB.DeleteOne(ctx, bson.M{"_id": kase.ID})
	if err != nil {
		config.ErrorStatus("failed to delete case", http.StatusInternalServerError, w, err)
		return
	}
	if res.DeletedCount == 0 {
		config.ErrorStatus("case not found", http.StatusNotFound, w, nil)
		return
	}
	zap.S().Infow("case deleted", "caseId", kase.ID.Hex())
	api.WriteJSON(w, http.StatusOK, models.MessageResponse{Message: "Case removed"})
}

// CaseReportHandler returns a PDF manifest of the case and the recorded hash of each file
func (c Case) CaseReportHandler(w http.ResponseWriter, r *http.Request) {
	kase, ok := c.visibleCase(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	populated, err := c.populated(ctx, kase.ID)
	if err != nil {
		config.ErrorStatus("failed to get case", http.StatusInternalServerError, w, err)
		return
	}
	items, err := c.EDB.FindPopulated(ctx, bson.M{"caseId": kase.ID})
	if err != nil {
		config.ErrorStatus("failed to get evidence", http.StatusInternalServerError, w, err)
		return
	}

	var buf bytes.Buffer
	if err := report.CaseManifestPDF(&buf, *populated, items, time.Now()); err != nil {
		config.ErrorStatus("failed to build report", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="case-%s-manifest.pdf"`, kase.ID.Hex()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// visibleCase loads the case named by the id path variable and checks the caller may see it.
// It writes the error response itself and returns false when the request must stop.
func (c Case) visibleCase(w http.ResponseWriter, r *http.Request) (*models.Case, bool) {
	caseID := mux.Vars(r)["id"]

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return nil, false
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	kase, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			config.ErrorStatus("case not found", http.StatusNotFound, w, err)
			return nil, false
		}
		config.ErrorStatus("failed to get case", http.StatusInternalServerError, w, err)
		return nil, false
	}

	if !c.Gate.CanView(api.UserFromContext(r.Context()), kase) {
		config.ErrorStatus("not permitted to access this case", http.StatusForbidden, w, nil)
		return nil, false
	}
	return kase, true
}

func (c Case) populated(ctx context.Context, id primitive.ObjectID) (*models.PopulatedCase, error) {
	cases, err := c.DB.FindPopulated(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return &cases[0], nil
}

// applyCaseRequest validates the fields present in req and returns them as $set and $unset
// documents. An empty assignedTo clears the assignment.
func (c Case) applyCaseRequest(r *http.Request, req models.CaseRequest) (bson.M, bson.M, error) {
	set, unset := bson.M{}, bson.M{}

	if req.Title != nil {
		title := api.Sanitize(*req.Title)
		if utf8.RuneCountInString(title) > models.MaxCaseTitleLength {
			return nil, nil, fmt.Errorf("title cannot be more than %d characters", models.MaxCaseTitleLength)
		}
		set["title"] = title
	}
	if req.Description != nil {
		set["description"] = api.Sanitize(*req.Description)
	}
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, nil, fmt.Errorf("invalid status %q", *req.Status)
		}
		set["status"] = *req.Status
	}
	if req.Priority != nil {
		if !req.Priority.IsValid() {
			return nil, nil, fmt.Errorf("invalid priority %q", *req.Priority)
		}
		set["priority"] = *req.Priority
	}
	if req.AssignedTo != nil {
		if *req.AssignedTo == "" {
			unset["assignedTo"] = ""
		} else {
			assignee, err := c.findAssignee(r, *req.AssignedTo)
			if err != nil {
				return nil, nil, err
			}
			set["assignedTo"] = assignee
		}
	}
	return set, unset, nil
}

func (c Case) findAssignee(r *http.Request, id string) (primitive.ObjectID, error) {
	uID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid assignee id")
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	n, err := c.UDB.CountDocuments(ctx, bson.M{"_id": uID})
	if err != nil || n == 0 {
		return primitive.NilObjectID, fmt.Errorf("assignee not found")
	}
	return uID, nil
}

func (c Case) notifyAssignee(r *http.Request, kase *models.Case, assignee primitive.ObjectID) {
	if c.Notifier == nil {
		return
	}
	_, err := c.Notifier.Notify(r.Context(), assignee,
		"You have been assigned to case: "+kase.Title,
		kase.RelatedLink(),
		models.NotificationInfo)
	if err != nil {
		zap.S().Errorw("failed to notify assignee",
			"caseId", kase.ID.Hex(),
			"assignee", assignee.Hex(),
			"error", err)
	}
}
