package handler

import (
	"errors"
	"net/http"
	"strings"

	"transport-service/internal/apperr"
	"transport-service/internal/middleware"
	"transport-service/internal/model"
	"transport-service/pkg/logger"
	"transport-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PublicTenant is what the login page may learn about a tenant
type PublicTenant struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	IsActive bool   `json:"isActive"`
}

// GetPublicTenant looks a tenant up by slug for login page branding
func (h *Handler) GetPublicTenant(c echo.Context) error {
	slug := strings.TrimSpace(c.Param("slug"))
	t, err := h.tenants.GetBySlug(c.Request().Context(), slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrTenantNotFound
		}
		return err
	}
	return c.JSON(http.StatusOK, PublicTenant{Name: t.Name, Slug: t.Slug, IsActive: t.IsActive})
}

// GetTenantSettings returns the current tenant with its settings
func (h *Handler) GetTenantSettings(c echo.Context) error {
	t, ok := middleware.CurrentTenant(c)
	if !ok {
		return apperr.ErrTenantRequired
	}
	return c.JSON(http.StatusOK, t)
}

// UpdateTenantSettings replaces the tenant's typed settings
func (h *Handler) UpdateTenantSettings(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}

	var req model.TenantSettings
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	t, err := h.tenants.UpdateSettings(c.Request().Context(), tenantID, req)
	if err != nil {
		return err
	}

	prometheus.RecordTenantOperation("update_settings")
	logger.FromContext(c).Info("Tenant settings updated", zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, t)
}
