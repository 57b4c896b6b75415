package handler

import (
	"net/http"
	"strings"

	"transport-service/internal/middleware"
	"transport-service/internal/model"
	"transport-service/internal/store"
	"transport-service/pkg/logger"
	"transport-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListVehicles returns one page of the tenant's vehicles
func (h *Handler) ListVehicles(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}

	var q VehicleQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	available, err := optionalBool("isAvailable", q.IsAvailable)
	if err != nil {
		return err
	}

	result, err := h.vehicles.List(c.Request().Context(), tenantID, store.VehicleFilter{
		Search:      q.term(),
		IsAvailable: available,
	}, q.page())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// GetVehicle returns one vehicle
func (h *Handler) GetVehicle(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	vehicle, err := h.vehicles.Get(c.Request().Context(), tenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, vehicle)
}

// CreateVehicle adds an available vehicle
func (h *Handler) CreateVehicle(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}

	var req VehicleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	vehicle := &model.Vehicle{
		Number:   strings.ToUpper(strings.TrimSpace(req.Number)),
		Model:    req.Model,
		Capacity: req.Capacity,
	}
	if err := h.vehicles.Create(c.Request().Context(), tenantID, vehicle); err != nil {
		return err
	}

	prometheus.RecordResourceOperation("vehicles", "create")
	logger.FromContext(c).Info("Vehicle created", zap.Uint("vehicle_id", vehicle.ID), zap.String("number", vehicle.Number))
	return c.JSON(http.StatusCreated, vehicle)
}

// UpdateVehicle changes number, model and capacity
func (h *Handler) UpdateVehicle(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req VehicleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	vehicle, err := h.vehicles.Update(c.Request().Context(), tenantID, id, &model.Vehicle{
		Number:   strings.ToUpper(strings.TrimSpace(req.Number)),
		Model:    req.Model,
		Capacity: req.Capacity,
	})
	if err != nil {
		return err
	}

	prometheus.RecordResourceOperation("vehicles", "update")
	return c.JSON(http.StatusOK, vehicle)
}

// DeleteVehicle removes a vehicle, detaching it from its driver and shipments
func (h *Handler) DeleteVehicle(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.vehicles.Delete(c.Request().Context(), tenantID, id); err != nil {
		return err
	}

	prometheus.RecordResourceOperation("vehicles", "delete")
	logger.FromContext(c).Info("Vehicle deleted", zap.Uint("vehicle_id", id))
	return c.NoContent(http.StatusNoContent)
}
