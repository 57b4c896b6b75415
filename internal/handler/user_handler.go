package handler

import (
	"net/http"
	"strings"

	"transport-service/internal/apperr"
	"transport-service/internal/middleware"
	"transport-service/internal/model"
	"transport-service/internal/store"
	"transport-service/pkg/logger"
	"transport-service/pkg/password"
	"transport-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListUsers returns one page of the tenant's logins
func (h *Handler) ListUsers(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}

	var q UserQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}

	result, err := h.users.List(c.Request().Context(), tenantID, store.UserFilter{
		Search: q.term(),
		Role:   model.Role(q.Role),
	}, q.page())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// GetUser returns one login of the tenant
func (h *Handler) GetUser(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	user, err := h.users.Get(c.Request().Context(), tenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// CreateUser adds an ADMIN or DISPATCHER login
func (h *Handler) CreateUser(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}

	var req CreateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return apperr.ErrInternal.Wrap(err)
	}
	user := &model.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: hash,
		Role:     model.Role(req.Role),
	}
	if err := h.users.Create(c.Request().Context(), tenantID, user); err != nil {
		return err
	}

	prometheus.RecordResourceOperation("users", "create")
	logger.FromContext(c).Info("User created", zap.Uint("created_user_id", user.ID), zap.String("role", req.Role))
	return c.JSON(http.StatusCreated, user)
}

// UpdateUser changes name, email and role. Moving a login into or out of
// the DRIVER role is refused since drivers need a profile.
func (h *Handler) UpdateUser(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	existing, err := h.users.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	role := model.Role(req.Role)
	if (existing.Role == model.RoleDriver) != (role == model.RoleDriver) {
		return apperr.Validation("role", "Drivers are managed through the drivers endpoints")
	}
	if callerID, _ := middleware.UserID(c); callerID == id && role != existing.Role {
		return apperr.Validation("role", "You cannot change your own role")
	}

	updated, err := h.users.Update(ctx, tenantID, id, &model.User{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
		Role:  role,
	})
	if err != nil {
		return err
	}

	prometheus.RecordResourceOperation("users", "update")
	return c.JSON(http.StatusOK, updated)
}

// DeleteUser removes a login. A DRIVER's profile is removed with it.
func (h *Handler) DeleteUser(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if callerID, _ := middleware.UserID(c); callerID == id {
		return apperr.Validation("id", "You cannot delete your own account")
	}

	if err := h.users.Delete(c.Request().Context(), tenantID, id); err != nil {
		return err
	}

	prometheus.RecordResourceOperation("users", "delete")
	logger.FromContext(c).Info("User deleted", zap.Uint("deleted_user_id", id))
	return c.NoContent(http.StatusNoContent)
}
