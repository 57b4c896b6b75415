// Package middleware authenticates requests, resolves their tenant and
// enforces the role policy table.
package middleware

import (
	"transport-service/internal/apperr"
	"transport-service/internal/model"

	"github.com/labstack/echo/v4"
)

// Keys set on the echo context
const (
	KeyRequestID = "request_id"
	KeyUserID    = "user_id"
	KeyEmail     = "email"
	KeyRole      = "user_role"
	KeyTenant    = "tenant"
	KeyTenantID  = "tenant_id"
	// KeyTokenTenantID is the tenant embedded in the token, nil for superadmins
	KeyTokenTenantID = "token_tenant_id"
)

// UserID returns the authenticated user id
func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(KeyUserID).(uint)
	return id, ok
}

// Role returns the authenticated user's role
func Role(c echo.Context) model.Role {
	role, _ := c.Get(KeyRole).(model.Role)
	return role
}

// TenantID retrieves the resolved tenant id.
// Returns 0, false if no tenant was resolved for the request.
func TenantID(c echo.Context) (uint, bool) {
	tenantID, ok := c.Get(KeyTenantID).(uint)
	return tenantID, ok
}

// CurrentTenant returns the resolved tenant
func CurrentTenant(c echo.Context) (*model.Tenant, bool) {
	t, ok := c.Get(KeyTenant).(*model.Tenant)
	return t, ok
}

// MustTenantID is TenantID for handlers mounted behind the tenant middleware
func MustTenantID(c echo.Context) (uint, error) {
	tenantID, ok := TenantID(c)
	if !ok {
		return 0, apperr.ErrTenantRequired
	}
	return tenantID, nil
}

// MustUserID is UserID for handlers mounted behind Auth
func MustUserID(c echo.Context) (uint, error) {
	userID, ok := UserID(c)
	if !ok {
		return 0, apperr.ErrUnauthorized
	}
	return userID, nil
}
