package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	table, err := New()
	require.NoError(t, err)

	tests := []struct {
		role, resource, action string
		want                   bool
	}{
		{"DRIVER", Employees, List, false},
		{"ADMIN", Employees, List, true},
		{"ADMIN", Users, Delete, true},
		{"ADMIN", Superadmin, Read, false},
		{"SUPERADMIN", Superadmin, Update, true},
		{"SUPERADMIN", Employees, Delete, true},
		{"DISPATCHER", Shipments, Delete, true},
		{"DISPATCHER", Employees, Read, true},
		{"DISPATCHER", Employees, Create, false},
		{"DISPATCHER", Expenses, Update, true},
		{"DISPATCHER", Expenses, Delete, false},
		{"DISPATCHER", Expenses, Status, false},
		{"DISPATCHER", Users, List, false},
		{"DISPATCHER", Reports, Read, true},
		{"DRIVER", Shipments, Read, true},
		{"DRIVER", Shipments, Status, true},
		{"DRIVER", Shipments, Update, false},
		{"DRIVER", Vehicles, Create, false},
		{"DRIVER", Drivers, Read, true},
		{"DRIVER", Drivers, List, false},
		{"DRIVER", Expenses, List, false},
		{"DRIVER", Reports, Read, false},
		{"DRIVER", Search, Read, true},
		{"UNKNOWN", Shipments, List, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.resource+"/"+tt.action, func(t *testing.T) {
			got, err := table.Allowed(tt.role, tt.resource, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadPolicyRejectsMalformedLine(t *testing.T) {
	table, err := New()
	require.NoError(t, err)
	assert.Error(t, loadPolicy(table.enforcer, "p, ADMIN, shipments"))
}
