package model

import (
	"time"

	"gorm.io/datatypes"
)

// Role is a user's role within the platform
type Role string

const (
	RoleSuperadmin Role = "SUPERADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleDispatcher Role = "DISPATCHER"
	RoleDriver     Role = "DRIVER"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleAdmin, RoleDispatcher, RoleDriver:
		return true
	}
	return false
}

// User represents an account. TenantID is nil only for superadmins.
type User struct {
	ID        uint              `json:"id" gorm:"primaryKey"`
	Name      string            `json:"name" gorm:"type:varchar(150);not null"`
	Email     string            `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:idx_users_tenant_email,priority:2"`
	Password  string            `json:"-" gorm:"type:varchar(255);not null"`
	Role      Role              `json:"role" gorm:"type:varchar(20);not null;index"`
	TenantID  *uint             `json:"tenantId" gorm:"uniqueIndex:idx_users_tenant_email,priority:1"`
	Settings  datatypes.JSONMap `json:"settings,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`

	Tenant *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}
