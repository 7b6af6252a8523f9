package api_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/secure-evidence-api/api"
	"github.com/linesmerrill/secure-evidence-api/models"
)

func defaultGate(t *testing.T) *api.Gate {
	g, err := api.NewGate("")
	require.NoError(t, err)
	return g
}

func TestGate_CaseFilter(t *testing.T) {
	g := defaultGate(t)
	analyst := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAnalyst}
	investigator := &models.User{ID: primitive.NewObjectID(), Role: models.RoleInvestigator}
	admin := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	assert.Equal(t, bson.M{}, g.CaseFilter(analyst))
	assert.Equal(t, bson.M{"$or": []bson.M{
		{"createdBy": investigator.ID},
		{"assignedTo": investigator.ID},
	}}, g.CaseFilter(investigator))
	assert.Equal(t, bson.M{"$or": []bson.M{
		{"createdBy": admin.ID},
		{"assignedTo": admin.ID},
	}}, g.CaseFilter(admin))
}

func TestGate_CanView(t *testing.T) {
	g := defaultGate(t)
	creator := primitive.NewObjectID()
	assignee := primitive.NewObjectID()
	kase := &models.Case{ID: primitive.NewObjectID(), CreatedBy: creator, AssignedTo: &assignee}

	assert.True(t, g.CanView(&models.User{ID: creator, Role: models.RoleAdmin}, kase))
	assert.True(t, g.CanView(&models.User{ID: assignee, Role: models.RoleInvestigator}, kase))
	assert.True(t, g.CanView(&models.User{ID: primitive.NewObjectID(), Role: models.RoleAnalyst}, kase))
	assert.False(t, g.CanView(&models.User{ID: primitive.NewObjectID(), Role: models.RoleInvestigator}, kase))
	assert.False(t, g.CanView(&models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}, kase))
	assert.False(t, g.CanView(nil, kase))
}

func TestGate_Allows(t *testing.T) {
	g := defaultGate(t)
	tests := []struct {
		role   models.Role
		action api.Action
		want   bool
	}{
		{models.RoleAdmin, api.ActionCreateCase, true},
		{models.RoleInvestigator, api.ActionCreateCase, false},
		{models.RoleAnalyst, api.ActionCreateCase, false},
		{models.RoleAdmin, api.ActionUpdateCase, true},
		{models.RoleInvestigator, api.ActionUpdateCase, true},
		{models.RoleAnalyst, api.ActionUpdateCase, false},
		{models.RoleAdmin, api.ActionDeleteCase, true},
		{models.RoleInvestigator, api.ActionDeleteCase, false},
		{models.RoleAdmin, api.ActionReadLogs, true},
		{models.RoleAnalyst, api.ActionReadLogs, false},
		{models.RoleAnalyst, api.ActionViewAll, true},
		{models.RoleAdmin, api.ActionViewAll, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, g.Allows(&models.User{Role: tt.role}, tt.action), "%s %s", tt.role, tt.action)
	}
	assert.False(t, g.Allows(nil, api.ActionCreateCase))
}

func TestGate_RequireRole(t *testing.T) {
	g := defaultGate(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	handler := g.RequireRole(api.ActionCreateCase)(ok)

	for role, want := range map[models.Role]int{
		models.RoleAdmin:        http.StatusCreated,
		models.RoleInvestigator: http.StatusForbidden,
		models.RoleAnalyst:      http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/cases", nil)
		req = req.WithContext(api.WithUser(req.Context(), &models.User{Role: role}))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, want, rr.Code, role)
	}
}

func TestParsePolicy(t *testing.T) {
	_, err := api.ParsePolicy([]byte("viewAll: [analyst]\n"))
	assert.ErrorContains(t, err, "missing action")

	_, err = api.ParsePolicy([]byte(`
viewAll: [analyst]
createCase: [admin]
updateCase: [admin, investigator]
deleteCase: [admin]
readLogs: [admin]
listUsers: [superuser]
`))
	assert.ErrorContains(t, err, "unknown role")

	_, err = api.ParsePolicy([]byte("viewAll: ["))
	assert.Error(t, err)
}

func TestNewGateFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
viewAll: [analyst, admin]
createCase: [admin]
updateCase: [admin]
deleteCase: [admin]
readLogs: [admin]
listUsers: [admin]
`), 0o600))

	g, err := api.NewGate(path)
	require.NoError(t, err)
	assert.Equal(t, bson.M{}, g.CaseFilter(&models.User{Role: models.RoleAdmin}))
	assert.False(t, g.Allows(&models.User{Role: models.RoleInvestigator}, api.ActionUpdateCase))

	_, err = api.NewGate(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
