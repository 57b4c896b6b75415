package handler

import (
	"context"
	"net/http"
	"strings"

	"transport-service/internal/apperr"
	"transport-service/internal/events"
	"transport-service/internal/middleware"
	"transport-service/internal/model"
	"transport-service/internal/store"
	"transport-service/pkg/logger"
	"transport-service/pkg/password"
	"transport-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateDriverResponse returns the temporary password exactly once
type CreateDriverResponse struct {
	Driver            *model.Driver `json:"driver"`
	TemporaryPassword string        `json:"temporaryPassword"`
}

// ListDrivers returns one page of the tenant's drivers
func (h *Handler) ListDrivers(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}

	var q DriverQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	hasVehicle, err := optionalBool("hasVehicle", q.HasVehicle)
	if err != nil {
		return err
	}

	result, err := h.drivers.List(c.Request().Context(), tenantID, store.DriverFilter{
		Search:     q.term(),
		HasVehicle: hasVehicle,
	}, q.page())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// GetDriver returns one driver. A DRIVER may only read their own profile.
func (h *Handler) GetDriver(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	own, err := h.ownDriverID(c, tenantID)
	if err != nil {
		return err
	}
	if own != nil && *own != id {
		return apperr.NotFound("driver")
	}

	driver, err := h.drivers.Get(c.Request().Context(), tenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, driver)
}

// CreateDriver creates the driver's login and profile in one transaction
// and optionally assigns a vehicle.
func (h *Handler) CreateDriver(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}

	var req CreateDriverRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	temporary, err := password.Temporary()
	if err != nil {
		return apperr.ErrInternal.Wrap(err)
	}
	hash, err := password.Hash(temporary)
	if err != nil {
		return apperr.ErrInternal.Wrap(err)
	}

	ctx := c.Request().Context()
	driver, err := h.drivers.Create(ctx, tenantID, store.NewDriver{
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:  hash,
		Phone:         req.Phone,
		LicenseNumber: strings.TrimSpace(req.LicenseNumber),
		VehicleID:     req.VehicleID,
	})
	if err != nil {
		if req.VehicleID != nil && store.IsUnavailable(err) {
			prometheus.RecordVehicleAssignment("unavailable")
		}
		return err
	}

	prometheus.RecordResourceOperation("drivers", "create")
	log.Info("Driver created", zap.Uint("driver_id", driver.ID), zap.Uint("user_id", driver.UserID))
	if driver.VehicleID != nil {
		prometheus.RecordVehicleAssignment("assigned")
		h.emitAssignment(ctx, tenantID, events.DriverVehicleAssigned, driver.ID, *driver.VehicleID, nil)
	}

	return c.JSON(http.StatusCreated, CreateDriverResponse{Driver: driver, TemporaryPassword: temporary})
}

// UpdateDriver changes the driver's name, email, phone and licence.
// The vehicle is changed through the assign and unassign endpoints.
func (h *Handler) UpdateDriver(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateDriverRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	driver, err := h.drivers.Update(c.Request().Context(), tenantID, id, store.DriverUpdate{
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:         req.Phone,
		LicenseNumber: strings.TrimSpace(req.LicenseNumber),
	})
	if err != nil {
		return err
	}

	prometheus.RecordResourceOperation("drivers", "update")
	return c.JSON(http.StatusOK, driver)
}

// DeleteDriver removes the driver and its login, freeing its vehicle
func (h *Handler) DeleteDriver(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.drivers.Delete(c.Request().Context(), tenantID, id); err != nil {
		return err
	}

	prometheus.RecordResourceOperation("drivers", "delete")
	logger.FromContext(c).Info("Driver deleted", zap.Uint("driver_id", id))
	return c.NoContent(http.StatusNoContent)
}

// AssignVehicle gives a vehicle to a driver. A vehicle held by another
// driver is rejected with VEHICLE_UNAVAILABLE.
func (h *Handler) AssignVehicle(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req AssignVehicleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	result, err := h.drivers.AssignVehicle(ctx, tenantID, id, req.VehicleID)
	if err != nil {
		if store.IsUnavailable(err) {
			prometheus.RecordVehicleAssignment("unavailable")
			log.Info("Vehicle already assigned",
				zap.Uint("driver_id", id),
				zap.Uint("vehicle_id", req.VehicleID))
		}
		return err
	}

	if !result.Changed {
		prometheus.RecordVehicleAssignment("unchanged")
		return c.JSON(http.StatusOK, result.Driver)
	}

	prometheus.RecordVehicleAssignment("assigned")
	log.Info("Vehicle assigned", zap.Uint("driver_id", id), zap.Uint("vehicle_id", req.VehicleID))
	h.emitAssignment(ctx, tenantID, events.DriverVehicleAssigned, id, req.VehicleID, result.ReleasedVehicleID)
	return c.JSON(http.StatusOK, result.Driver)
}

// UnassignVehicle frees the driver's vehicle
func (h *Handler) UnassignVehicle(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	result, err := h.drivers.UnassignVehicle(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if result.Changed && result.ReleasedVehicleID != nil {
		prometheus.RecordVehicleAssignment("released")
		logger.FromContext(c).Info("Vehicle unassigned",
			zap.Uint("driver_id", id),
			zap.Uint("vehicle_id", *result.ReleasedVehicleID))
		h.emitAssignment(ctx, tenantID, events.DriverVehicleUnassigned, id, *result.ReleasedVehicleID, nil)
	}
	return c.JSON(http.StatusOK, result.Driver)
}

func (h *Handler) emitAssignment(ctx context.Context, tenantID uint, eventType string, driverID, vehicleID uint, released *uint) {
	payload := map[string]interface{}{
		"driverId":  driverID,
		"vehicleId": vehicleID,
	}
	if released != nil {
		payload["releasedVehicleId"] = *released
	}
	h.events.Emit(ctx, eventType, tenantID, payload)
}
