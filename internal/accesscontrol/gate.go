// Package accesscontrol decides which roles may perform manager-only operations.
package accesscontrol

import (
	"fmt"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/safetytracker/safetytracker/internal/models"
	"github.com/safetytracker/safetytracker/internal/pkg/logger"
	"github.com/safetytracker/safetytracker/internal/types"
)

type Object string

type Action string

const (
	ObjectIncident  Object = "incident"
	ObjectDashboard Object = "dashboard"

	ActionUpdateStatus Action = "update_status"
	ActionAssign       Action = "assign"
	ActionRead         Action = "read"
)

// Permission pairs an object with an action.
type Permission struct {
	Object Object
	Action Action
}

var (
	UpdateIncident = Permission{ObjectIncident, ActionUpdateStatus}
	AssignIncident = Permission{ObjectIncident, ActionAssign}
	ViewDashboard  = Permission{ObjectDashboard, ActionRead}
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// defaultPolicies grant managers every gated capability. Employees hold none.
var defaultPolicies = [][]string{
	{string(types.RoleManager), string(ObjectIncident), string(ActionUpdateStatus)},
	{string(types.RoleManager), string(ObjectIncident), string(ActionAssign)},
	{string(types.RoleManager), string(ObjectDashboard), string(ActionRead)},
}

// Gate is the authorization capability handed to handlers and middleware.
type Gate struct {
	enforcer *casbin.SyncedEnforcer
}

// NewGate builds an in-memory gate seeded with the default policies.
func NewGate() (*Gate, error) {
	return newGate(nil)
}

// NewPersistentGate stores policies in the casbin_rule table so operators can
// extend them without a deploy.
func NewPersistentGate(db *gorm.DB) (*Gate, error) {
	a, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("casbin adapter: %w", err)
	}
	return newGate(a)
}

func newGate(a *gormadapter.Adapter) (*Gate, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("casbin model: %w", err)
	}

	var e *casbin.SyncedEnforcer
	if a != nil {
		e, err = casbin.NewSyncedEnforcer(m, a)
	} else {
		e, err = casbin.NewSyncedEnforcer(m)
	}
	if err != nil {
		return nil, fmt.Errorf("casbin enforcer: %w", err)
	}

	for _, p := range defaultPolicies {
		// AddPolicy is a no-op for rules already loaded from the adapter.
		if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, fmt.Errorf("seed policy %v: %w", p, err)
		}
	}

	return &Gate{enforcer: e}, nil
}

// Allowed reports whether user may exercise perm. Anonymous callers are always
// denied; users without a profile are treated as employees.
func (g *Gate) Allowed(user *models.User, perm Permission) bool {
	if user == nil {
		return false
	}

	role := types.RoleEmployee
	if user.Profile != nil {
		role = user.Profile.Role
	}

	ok, err := g.enforcer.Enforce(string(role), string(perm.Object), string(perm.Action))
	if err != nil {
		logger.Error("Authorization check failed",
			zap.Uint("user_id", user.ID),
			zap.String("object", string(perm.Object)),
			zap.String("action", string(perm.Action)),
			zap.Error(err),
		)
		return false
	}
	return ok
}

// Grant adds a permission to a role.
func (g *Gate) Grant(role types.Role, perm Permission) error {
	_, err := g.enforcer.AddPolicy(string(role), string(perm.Object), string(perm.Action))
	return err
}

// Revoke removes a permission from a role.
func (g *Gate) Revoke(role types.Role, perm Permission) error {
	_, err := g.enforcer.RemovePolicy(string(role), string(perm.Object), string(perm.Action))
	return err
}
