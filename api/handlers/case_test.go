package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/secure-evidence-api/api/handlers"
	"github.com/linesmerrill/secure-evidence-api/databases/mocks"
	"github.com/linesmerrill/secure-evidence-api/models"
)

type caseFixture struct {
	handler  handlers.Case
	cases    *mocks.CaseDatabase
	evidence *mocks.EvidenceDatabase
	users    *mocks.UserDatabase
	notifier *recordingNotifier
}

func newCaseFixture(t *testing.T) caseFixture {
	f := caseFixture{
		cases:    &mocks.CaseDatabase{},
		evidence: &mocks.EvidenceDatabase{},
		users:    &mocks.UserDatabase{},
		notifier: &recordingNotifier{},
	}
	f.handler = handlers.Case{
		DB:       f.cases,
		EDB:      f.evidence,
		UDB:      f.users,
		Gate:     newGate(t),
		Notifier: f.notifier,
	}
	return f
}

func ownedCase(owner *models.User) *models.Case {
	return &models.Case{
		ID:          primitive.NewObjectID(),
		Title:       "Warehouse Burglary",
		Description: "Break-in at the north warehouse",
		Status:      models.CaseStatusOpen,
		Priority:    models.CasePriorityHigh,
		CreatedBy:   owner.ID,
	}
}

func TestCase_CasesHandlerUsesVisibilityFilter(t *testing.T) {
	f := newCaseFixture(t)
	investigator := newUser(models.RoleInvestigator)
	analyst := newUser(models.RoleAnalyst)

	f.cases.On("FindPopulated", mock.Anything, f.handler.Gate.CaseFilter(investigator)).
		Return([]models.PopulatedCase{{ID: primitive.NewObjectID(), Title: "Mine"}}, nil)
	f.cases.On("FindPopulated", mock.Anything, bson.M{}).
		Return(nil, nil)

	rr := httptest.NewRecorder()
	http.HandlerFunc(f.handler.CasesHandler).ServeHTTP(rr, asUser(httptest.NewRequest(http.MethodGet, "/api/cases", nil), investigator, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Mine")

	rr = httptest.NewRecorder()
	http.HandlerFunc(f.handler.CasesHandler).ServeHTTP(rr, asUser(httptest.NewRequest(http.MethodGet, "/api/cases", nil), analyst, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
	f.cases.AssertExpectations(t)
}

func TestCase_CaseByIDHandler(t *testing.T) {
	owner := newUser(models.RoleInvestigator)
	stranger := newUser(models.RoleInvestigator)
	kase := ownedCase(owner)
	missing := primitive.NewObjectID()

	tests := []struct {
		name string
		user *models.User
		id   string
		want int
	}{
		{"owner", owner, kase.ID.Hex(), http.StatusOK},
		{"analyst sees everything", newUser(models.RoleAnalyst), kase.ID.Hex(), http.StatusOK},
		{"stranger", stranger, kase.ID.Hex(), http.StatusForbidden},
		{"missing", owner, missing.Hex(), http.StatusNotFound},
		{"bad id", owner, "not-an-id", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCaseFixture(t)
			f.cases.On("FindOne", mock.Anything, bson.M{"_id": kase.ID}).Return(kase, nil)
			f.cases.On("FindOne", mock.Anything, bson.M{"_id": missing}).Return(nil, mongo.ErrNoDocuments)
			f.cases.On("FindPopulated", mock.Anything, bson.M{"_id": kase.ID}).
				Return([]models.PopulatedCase{{ID: kase.ID, Title: kase.Title}}, nil)

			req := asUser(httptest.NewRequest(http.MethodGet, "/api/cases/"+tt.id, nil), tt.user, map[string]string{"id": tt.id})
			rr := httptest.NewRecorder()
			http.HandlerFunc(f.handler.CaseByIDHandler).ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			if tt.want == http.StatusOK {
				assert.Contains(t, rr.Body.String(), kase.Title)
			}
		})
	}
}

func TestCase_CreateCaseHandler(t *testing.T) {
	f := newCaseFixture(t)
	admin := newUser(models.RoleAdmin)
	assignee := newUser(models.RoleInvestigator)

	f.users.On("CountDocuments", mock.Anything, bson.M{"_id": assignee.ID}).Return(int64(1), nil)
	f.cases.On("InsertOne", mock.Anything, mock.MatchedBy(func(c *models.Case) bool {
		return c.Title == "Stolen Laptop" &&
			c.Status == models.CaseStatusOpen &&
			c.Priority == models.CasePriorityMedium &&
			c.CreatedBy == admin.ID &&
			c.AssignedTo != nil && *c.AssignedTo == assignee.ID
	})).Return(nil)

	body := `{"title":"Stolen Laptop","description":"Laptop taken from office 3","assignedTo":"` + assignee.ID.Hex() + `"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/cases", strings.NewReader(body)), admin, nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(f.handler.CreateCaseHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	f.cases.AssertExpectations(t)

	sent := f.notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, assignee.ID, sent[0].Recipient)
	assert.Equal(t, "You have been assigned to case: Stolen Laptop", sent[0].Message)
	assert.True(t, strings.HasPrefix(sent[0].RelatedLink, "/cases/"))
}

func TestCase_CreateCaseHandlerRejects(t *testing.T) {
	admin := newUser(models.RoleAdmin)
	unknown := primitive.NewObjectID()

	tests := []struct {
		name string
		body string
	}{
		{"bad body", `{`},
		{"missing description", `{"title":"Only a title"}`},
		{"title too long", `{"title":"` + strings.Repeat("x", models.MaxCaseTitleLength+1) + `","description":"d"}`},
		{"bad status", `{"title":"t","description":"d","status":"Archived"}`},
		{"bad priority", `{"title":"t","description":"d","priority":"Urgent"}`},
		{"unknown assignee", `{"title":"t","description":"d","assignedTo":"` + unknown.Hex() + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCaseFixture(t)
			f.users.On("CountDocuments", mock.Anything, bson.M{"_id": unknown}).Return(int64(0), nil)

			req := asUser(httptest.NewRequest(http.MethodPost, "/api/cases", strings.NewReader(tt.body)), admin, nil)
			rr := httptest.NewRecorder()
			http.HandlerFunc(f.handler.CreateCaseHandler).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			f.cases.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
		})
	}
}

func TestCase_UpdateCaseHandler(t *testing.T) {
	owner := newUser(models.RoleInvestigator)
	kase := ownedCase(owner)
	updated := *kase
	updated.Status = models.CaseStatusInProgress

	f := newCaseFixture(t)
	f.cases.On("FindOne", mock.Anything, bson.M{"_id": kase.ID}).Return(kase, nil).Once()
	f.cases.On("FindOne", mock.Anything, bson.M{"_id": kase.ID}).Return(&updated, nil).Once()
	f.cases.On("UpdateOne", mock.Anything, bson.M{"_id": kase.ID},
		bson.M{"$set": bson.M{"status": models.CaseStatusInProgress}}).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)

	req := asUser(httptest.NewRequest(http.MethodPut, "/api/cases/"+kase.ID.Hex(), strings.NewReader(`{"status":"In Progress"}`)),
		owner, map[string]string{"id": kase.ID.Hex()})
	rr := httptest.NewRecorder()
	http.HandlerFunc(f.handler.UpdateCaseHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got models.Case
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, models.CaseStatusInProgress, got.Status)
	assert.Empty(t, f.notifier.all())
	f.cases.AssertExpectations(t)
}

func TestCase_UpdateCaseHandlerClearsAssignee(t *testing.T) {
	owner := newUser(models.RoleAdmin)
	kase := ownedCase(owner)
	previous := primitive.NewObjectID()
	kase.AssignedTo = &previous

	f := newCaseFixture(t)
	f.cases.On("FindOne", mock.Anything, bson.M{"_id": kase.ID}).Return(kase, nil)
	f.cases.On("UpdateOne", mock.Anything, bson.M{"_id": kase.ID},
		bson.M{"$unset": bson.M{"assignedTo": ""}}).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)

	req := asUser(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"assignedTo":""}`)),
		owner, map[string]string{"id": kase.ID.Hex()})
	rr := httptest.NewRecorder()
	http.HandlerFunc(f.handler.UpdateCaseHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, f.notifier.all())
	f.cases.AssertExpectations(t)
}

func TestCase_UpdateCaseHandlerNotifiesNewAssignee(t *testing.T) {
	owner := newUser(models.RoleAdmin)
	assignee := newUser(models.RoleInvestigator)
	kase := ownedCase(owner)
	updated := *kase
	updated.AssignedTo = &assignee.ID

	f := newCaseFixture(t)
	f.users.On("CountDocuments", mock.Anything, bson.M{"_id": assignee.ID}).Return(int64(1), nil)
	f.cases.On("FindOne", mock.Anything, bson.M{"_id": kase.ID}).Return(kase, nil).Once()
	f.cases.On("FindOne", mock.Anything, bson.M{"_id": kase.ID}).Return(&updated, nil).Once()
	f.cases.On("UpdateOne", mock.Anything, bson.M{"_id": kase.ID}, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)

	req := asUser(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"assignedTo":"`+assignee.ID.Hex()+`"}`)),
		owner, map[string]string{"id": kase.ID.Hex()})
	rr := httptest.NewRecorder()
	http.HandlerFunc(f.handler.UpdateCaseHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	sent := f.notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, assignee.ID, sent[0].Recipient)
	assert.Equal(t, "You have been assigned to case: "+kase.Title, sent[0].Message)
}

func TestCase_UpdateCaseHandlerRejects(t *testing.T) {
	owner := newUser(models.RoleInvestigator)
	kase := ownedCase(owner)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"no fields", `{}`, http.StatusBadRequest},
		{"empty title", `{"title":"  "}`, http.StatusBadRequest},
		{"bad status", `{"status":"Done"}`, http.StatusBadRequest},
		{"bad body", `[`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCaseFixture(t)
			f.cases.On("FindOne", mock.Anything, bson.M{"_id": kase.ID}).Return(kase, nil)

			req := asUser(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(tt.body)),
				owner, map[string]string{"id": kase.ID.Hex()})
			rr := httptest.NewRecorder()
			http.HandlerFunc(f.handler.UpdateCaseHandler).ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			f.cases.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCase_DeleteCaseHandler(t *testing.T) {
	admin := newUser(models.RoleAdmin)
	kase := ownedCase(admin)

	f := newCaseFixture(t)
	f.cases.On("FindOne", mock.Anything, bson.M{"_id": kase.ID}).Return(kase, nil)
	f.cases.On("DeleteOne", mock.Anything, bson.M{"_id": kase.ID}).Return(&mongo.DeleteResult{DeletedCount: 1}, nil)

	req := asUser(httptest.NewRequest(http.MethodDelete, "/", nil), admin, map[string]string{"id": kase.ID.Hex()})
	rr := httptest.NewRecorder()
	http.HandlerFunc(f.handler.DeleteCaseHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Case removed"}`, rr.Body.String())
	f.evidence.AssertNotCalled(t, "FindPopulated", mock.Anything, mock.Anything)
}

func TestCase_DeleteCaseHandlerDatabaseError(t *testing.T) {
	admin := newUser(models.RoleAdmin)
	kase := ownedCase(admin)

	f := newCaseFixture(t)
	f.cases.On("FindOne", mock.Anything, bson.M{"_id": kase.ID}).Return(kase, nil)
	f.cases.On("DeleteOne", mock.Anything, bson.M{"_id": kase.ID}).Return(nil, errors.New("mocked-error"))

	req := asUser(httptest.NewRequest(http.MethodDelete, "/", nil), admin, map[string]string{"id": kase.ID.Hex()})
	rr := httptest.NewRecorder()
	http.HandlerFunc(f.handler.DeleteCaseHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestCase_CaseReportHandler(t *testing.T) {
	owner := newUser(models.RoleInvestigator)
	kase := ownedCase(owner)

	f := newCaseFixture(t)
	f.cases.On("FindOne", mock.Anything, bson.M{"_id": kase.ID}).Return(kase, nil)
	f.cases.On("FindPopulated", mock.Anything, bson.M{"_id": kase.ID}).Return([]models.PopulatedCase{{
		ID:        kase.ID,
		Title:     kase.Title,
		Status:    kase.Status,
		Priority:  kase.Priority,
		CreatedBy: &models.UserSummary{ID: owner.ID, Name: owner.Name, Email: owner.Email},
	}}, nil)
	f.evidence.On("FindPopulated", mock.Anything, bson.M{"caseId": kase.ID}).Return([]models.PopulatedEvidence{{
		ID:       primitive.NewObjectID(),
		CaseID:   kase.ID,
		FileName: "door.jpg",
		FileSize: 2048,
		Hash:     "b025627063c0e16d936da435b5cd0a091c81d3e62d97edc793ef393160f5c321",
	}}, nil)

	req := asUser(httptest.NewRequest(http.MethodGet, "/", nil), owner, map[string]string{"id": kase.ID.Hex()})
	rr := httptest.NewRecorder()
	http.HandlerFunc(f.handler.CaseReportHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "case-"+kase.ID.Hex()+"-manifest.pdf")
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF-")))
}
