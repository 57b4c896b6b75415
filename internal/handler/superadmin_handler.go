package handler

import (
	"net/http"
	"strings"

	"transport-service/internal/apperr"
	"transport-service/internal/model"
	"transport-service/pkg/logger"
	"transport-service/pkg/password"
	"transport-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// CreateTransporterResponse returns the new tenant and its first admin.
// TemporaryPassword is set when no password was supplied.
type CreateTransporterResponse struct {
	Tenant            *model.Tenant `json:"tenant"`
	Admin             *model.User   `json:"admin"`
	TemporaryPassword string        `json:"temporaryPassword,omitempty"`
}

// GetGlobalSettings returns the platform settings, creating them on first read
func (h *Handler) GetGlobalSettings(c echo.Context) error {
	settings, err := h.settings.Get(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

// UpdateGlobalSettings replaces the platform settings document
func (h *Handler) UpdateGlobalSettings(c echo.Context) error {
	var req GlobalSettingsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	settings, err := h.settings.Update(c.Request().Context(), datatypes.JSONMap(req.Settings))
	if err != nil {
		return err
	}

	logger.FromContext(c).Info("Global settings updated", zap.Int("keys", len(req.Settings)))
	return c.JSON(http.StatusOK, settings)
}

// ListTransporters returns one page of tenants with their user counts
func (h *Handler) ListTransporters(c echo.Context) error {
	var q ListQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}

	result, err := h.tenants.List(c.Request().Context(), q.term(), q.page())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// CreateTransporter provisions a tenant and its first ADMIN in one transaction
func (h *Handler) CreateTransporter(c echo.Context) error {
	log := logger.FromContext(c)

	var req CreateTransporterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	tenant := &model.Tenant{
		Name: strings.TrimSpace(req.Name),
		Slug: strings.ToLower(req.Slug),
	}
	if domain := strings.ToLower(strings.TrimSpace(req.Domain)); domain != "" {
		tenant.Domain = &domain
	}
	if req.Settings != nil {
		tenant.Settings = datatypes.NewJSONType(*req.Settings)
	}

	resp := CreateTransporterResponse{Tenant: tenant}
	plain := req.Admin.Password
	if plain == "" {
		temporary, err := password.Temporary()
		if err != nil {
			return apperr.ErrInternal.Wrap(err)
		}
		plain = temporary
		resp.TemporaryPassword = temporary
	}
	hash, err := password.Hash(plain)
	if err != nil {
		return apperr.ErrInternal.Wrap(err)
	}

	admin := &model.User{
		Name:     strings.TrimSpace(req.Admin.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Admin.Email)),
		Password: hash,
	}
	if err := h.tenants.CreateWithAdmin(c.Request().Context(), tenant, admin); err != nil {
		return err
	}
	resp.Admin = admin

	prometheus.RecordTenantOperation("create")
	log.Info("Transporter provisioned",
		zap.Uint("new_tenant_id", tenant.ID),
		zap.String("slug", tenant.Slug),
		zap.Uint("admin_user_id", admin.ID))
	return c.JSON(http.StatusCreated, resp)
}

// SetTransporterStatus activates or deactivates a tenant
func (h *Handler) SetTransporterStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req TransporterStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	tenant, err := h.tenants.SetActive(c.Request().Context(), id, *req.IsActive)
	if err != nil {
		return err
	}

	operation := "deactivate"
	if tenant.IsActive {
		operation = "activate"
	}
	prometheus.RecordTenantOperation(operation)
	logger.FromContext(c).Info("Transporter status changed",
		zap.Uint("target_tenant_id", id),
		zap.Bool("is_active", tenant.IsActive))
	return c.JSON(http.StatusOK, tenant)
}
