package api

import (
	_ "embed"
	"fmt"
	"net/http"
	"os"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/linesmerrill/secure-evidence-api/config"
	"github.com/linesmerrill/secure-evidence-api/models"
)

// Action names a permission in the access policy
type Action string

// Actions known to the access policy
const (
	ActionViewAll    Action = "viewAll"
	ActionCreateCase Action = "createCase"
	ActionUpdateCase Action = "updateCase"
	ActionDeleteCase Action = "deleteCase"
	ActionReadLogs   Action = "readLogs"
	ActionListUsers  Action = "listUsers"
)

// ValidActions returns every action a policy must define
func ValidActions() []Action {
	return []Action{
		ActionViewAll,
		ActionCreateCase,
		ActionUpdateCase,
		ActionDeleteCase,
		ActionReadLogs,
		ActionListUsers,
	}
}

//go:embed policy.yaml
var defaultPolicy []byte

// Gate decides case visibility and mutation rights from the caller's current role. It keeps
// no per-user state; every decision is made from the user passed in.
type Gate struct {
	policy map[Action]map[models.Role]bool
}

// NewGate loads the policy from path, or the built-in policy when path is empty
func NewGate(path string) (*Gate, error) {
	raw := defaultPolicy
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read access policy: %w", err)
		}
		raw = b
	}
	return ParsePolicy(raw)
}

// ParsePolicy builds a Gate from a YAML policy document
func ParsePolicy(raw []byte) (*Gate, error) {
	var doc map[Action][]models.Role
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse access policy: %w", err)
	}

	g := &Gate{policy: make(map[Action]map[models.Role]bool)}
	for _, action := range ValidActions() {
		roles, ok := doc[action]
		if !ok {
			return nil, fmt.Errorf("access policy is missing action %q", action)
		}
		g.policy[action] = make(map[models.Role]bool)
		for _, role := range roles {
			if !role.IsValid() {
				return nil, fmt.Errorf("access policy action %q names unknown role %q", action, role)
			}
			g.policy[action][role] = true
		}
	}
	for action := range doc {
		if _, ok := g.policy[action]; !ok {
			return nil, fmt.Errorf("access policy names unknown action %q", action)
		}
	}
	return g, nil
}

// Allows reports whether the user's role may perform action
func (g *Gate) Allows(u *models.User, action Action) bool {
	if u == nil {
		return false
	}
	return g.policy[action][u.Role]
}

// CaseFilter returns the store filter selecting the cases u may see
func (g *Gate) CaseFilter(u *models.User) bson.M {
	if g.Allows(u, ActionViewAll) {
		return bson.M{}
	}
	if u == nil {
		// matches nothing
		return bson.M{"_id": bson.M{"$exists": false}}
	}
	return bson.M{"$or": []bson.M{
		{"createdBy": u.ID},
		{"assignedTo": u.ID},
	}}
}

// CanView applies the CaseFilter rule to a case that is already loaded
func (g *Gate) CanView(u *models.User, c *models.Case) bool {
	if u == nil || c == nil {
		return false
	}
	if g.Allows(u, ActionViewAll) {
		return true
	}
	return c.CreatedBy == u.ID || (c.AssignedTo != nil && *c.AssignedTo == u.ID)
}

// RequireRole rejects callers whose role may not perform action. It must run after the
// authentication middleware.
func (g *Gate) RequireRole(action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := UserFromContext(r.Context())
			if !g.Allows(u, action) {
				role := ""
				if u != nil {
					role = string(u.Role)
				}
				zap.S().Infow("role not permitted",
					"action", action,
					"role", role,
					"path", r.URL.Path)
				config.ErrorStatus("not permitted for this role", http.StatusForbidden, w, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
