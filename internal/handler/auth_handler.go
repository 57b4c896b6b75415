package handler

import (
	"errors"
	"net/http"
	"strings"

	"transport-service/internal/apperr"
	"transport-service/internal/middleware"
	"transport-service/internal/model"
	"transport-service/internal/tenant"
	"transport-service/pkg/logger"
	"transport-service/pkg/password"
	"transport-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// LoginResponse carries the token and the profile the client caches
type LoginResponse struct {
	Token  string        `json:"token"`
	User   *model.User   `json:"user"`
	Tenant *model.Tenant `json:"tenant,omitempty"`
}

// MeResponse is the authenticated profile
type MeResponse struct {
	User   *model.User   `json:"user"`
	Driver *model.Driver `json:"driver,omitempty"`
}

// Login authenticates by email and password. With a tenant slug the email
// is looked up in that tenant; without one a superadmin is tried first,
// then an email that is unique across tenants.
func (h *Handler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	ctx := c.Request().Context()

	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	t, err := h.resolver.Resolve(ctx, tenant.Request{
		Slug: c.Request().Header.Get(tenant.HeaderSlug),
		Host: c.Request().Host,
	})
	var user *model.User
	switch {
	case err == nil:
		user, err = h.users.FindInTenant(ctx, t.ID, email)
	case errors.Is(err, apperr.ErrTenantRequired):
		user, t, err = h.findWithoutTenant(c, email)
	default:
		prometheus.RecordAuthError("tenant_rejected")
		return err
	}
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			log.Info("Login for unknown email", zap.String("email", email))
			prometheus.RecordLogin(false)
			prometheus.RecordAuthError("user_not_found")
			return apperr.ErrInvalidCredentials
		}
		return err
	}

	if !password.Check(user.Password, req.Password) {
		log.Info("Invalid password", zap.Uint("user_id", user.ID))
		prometheus.RecordLogin(false)
		prometheus.RecordAuthError("invalid_password")
		return apperr.ErrInvalidCredentials
	}
	if t != nil && !t.IsActive {
		prometheus.RecordLogin(false)
		prometheus.RecordAuthError("tenant_inactive")
		return apperr.ErrTenantInactive
	}

	slug := ""
	if t != nil {
		slug = t.Slug
	}
	token, err := h.jwt.GenerateToken(user.ID, user.Email, string(user.Role), user.TenantID, slug)
	if err != nil {
		prometheus.RecordAuthError("token_generation_failed")
		return apperr.ErrInternal.Wrap(err)
	}

	prometheus.RecordLogin(true)
	log.Info("User logged in",
		zap.Uint("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.String("tenant_slug", slug))

	user.Tenant = nil
	return c.JSON(http.StatusOK, LoginResponse{Token: token, User: user, Tenant: t})
}

// findWithoutTenant resolves a login that named no tenant
func (h *Handler) findWithoutTenant(c echo.Context, email string) (*model.User, *model.Tenant, error) {
	ctx := c.Request().Context()

	user, err := h.users.FindSuperadmin(ctx, email)
	if err == nil {
		return user, nil, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, nil, err
	}

	users, err := h.users.FindAcrossTenants(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	switch len(users) {
	case 0:
		return nil, nil, apperr.NotFound("user")
	case 1:
		return &users[0], users[0].Tenant, nil
	default:
		logger.FromContext(c).Info("Login email exists in several tenants", zap.String("email", email))
		return nil, nil, apperr.ErrTenantRequired.WithMessage("Email is registered with several transporters, choose one to sign in")
	}
}

// Me returns the caller's profile
func (h *Handler) Me(c echo.Context) error {
	userID, err := middleware.MustUserID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrUnauthorized.WithMessage("Account no longer exists")
		}
		return err
	}

	resp := MeResponse{User: user}
	if user.Role == model.RoleDriver && user.TenantID != nil {
		driver, err := h.drivers.GetByUser(ctx, *user.TenantID, user.ID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		resp.Driver = driver
	}
	return c.JSON(http.StatusOK, resp)
}

// ChangePassword replaces the caller's password after checking the current one
func (h *Handler) ChangePassword(c echo.Context) error {
	log := logger.FromContext(c)
	userID, err := middleware.MustUserID(c)
	if err != nil {
		return err
	}

	var req ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrUnauthorized.WithMessage("Account no longer exists")
		}
		return err
	}
	if !password.Check(user.Password, req.CurrentPassword) {
		return apperr.Validation("currentPassword", "Current password is incorrect")
	}

	hash, err := password.Hash(req.NewPassword)
	if err != nil {
		return apperr.ErrInternal.Wrap(err)
	}
	if err := h.users.SetPassword(ctx, user.ID, hash); err != nil {
		return err
	}

	log.Info("Password changed", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Password updated"})
}
