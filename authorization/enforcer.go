package authorization

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"stayfinder-service/domain"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

const (
	ResourceListing = "listing"
	ResourceBooking = "booking"

	ActionWrite    = "write"
	ActionHostView = "host-view"
)

var policies = [][]string{
	{string(domain.Host), ResourceListing, ActionWrite},
	{string(domain.Host), ResourceBooking, ActionHostView},
}

// Enforcer answers whether a role may perform an action on a resource.
type Enforcer struct {
	enforcer *casbin.Enforcer
}

func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}
	for _, p := range policies {
		if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, fmt.Errorf("add policy %v: %w", p, err)
		}
	}
	return &Enforcer{enforcer: e}, nil
}

func (e *Enforcer) Allowed(role domain.UserRole, resource, action string) (bool, error) {
	return e.enforcer.Enforce(string(role), resource, action)
}
