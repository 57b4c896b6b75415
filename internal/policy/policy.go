// Package policy holds the role capability table. Rules are casbin p/g lines
// evaluated against the caller's role, the resource and the action.
package policy

import (
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Resources guarded by the table
const (
	Shipments  = "shipments"
	Vehicles   = "vehicles"
	Drivers    = "drivers"
	Employees  = "employees"
	Expenses   = "expenses"
	Users      = "users"
	Reports    = "reports"
	Search     = "search"
	Dashboard  = "dashboard"
	Settings   = "settings"
	Superadmin = "superadmin"
)

// Actions
const (
	List   = "list"
	Read   = "read"
	Create = "create"
	Update = "update"
	Delete = "delete"
	// Status is a status-only update, e.g. a driver marking a shipment delivered
	Status = "status"
)

const embeddedModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && ((p.obj == "*" && r.obj != "superadmin") || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

const embeddedPolicy = `
# platform operators act as tenant admins when they name a tenant
g, SUPERADMIN, ADMIN
p, SUPERADMIN, superadmin, *

# the wildcard object never matches superadmin
p, ADMIN, *, *

p, DISPATCHER, shipments, *
p, DISPATCHER, vehicles, *
p, DISPATCHER, drivers, *
p, DISPATCHER, employees, list
p, DISPATCHER, employees, read
p, DISPATCHER, expenses, list
p, DISPATCHER, expenses, read
p, DISPATCHER, expenses, create
p, DISPATCHER, expenses, update
p, DISPATCHER, reports, read
p, DISPATCHER, search, read
p, DISPATCHER, dashboard, read
p, DISPATCHER, settings, read

p, DRIVER, shipments, list
p, DRIVER, shipments, read
p, DRIVER, shipments, status
p, DRIVER, vehicles, list
p, DRIVER, vehicles, read
p, DRIVER, drivers, read
p, DRIVER, search, read
p, DRIVER, dashboard, read
`

// Table answers whether a role may perform an action on a resource
type Table struct {
	enforcer *casbin.SyncedEnforcer
}

// New builds the table from the embedded model and rules
func New() (*Table, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := loadPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, err
	}

	return &Table{enforcer: enforcer}, nil
}

// MustNew is New for wiring code that cannot continue without the table
func MustNew() *Table {
	t, err := New()
	if err != nil {
		panic(err)
	}
	return t
}

func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// Allowed reports whether role may perform action on resource
func (t *Table) Allowed(role, resource, action string) (bool, error) {
	allowed, err := t.enforcer.Enforce(role, resource, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	return allowed, nil
}
