package handler

import (
	"net/http"

	"transport-service/internal/middleware"
	"transport-service/internal/store"
	"transport-service/pkg/logger"
	"transport-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListEmployees returns one page of the tenant's employees
func (h *Handler) ListEmployees(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}

	var q EmployeeQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}

	result, err := h.employees.List(c.Request().Context(), tenantID, store.EmployeeFilter{
		Search: q.term(),
		Role:   q.Role,
	}, q.page())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// GetEmployee returns one employee
func (h *Handler) GetEmployee(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	employee, err := h.employees.Get(c.Request().Context(), tenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, employee)
}

// CreateEmployee adds a staff record
func (h *Handler) CreateEmployee(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}

	var req EmployeeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	employee, err := req.toModel()
	if err != nil {
		return err
	}

	if err := h.employees.Create(c.Request().Context(), tenantID, employee); err != nil {
		return err
	}

	prometheus.RecordResourceOperation("employees", "create")
	logger.FromContext(c).Info("Employee created", zap.Uint("employee_id", employee.ID))
	return c.JSON(http.StatusCreated, employee)
}

// UpdateEmployee replaces a staff record
func (h *Handler) UpdateEmployee(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req EmployeeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	employee, err := req.toModel()
	if err != nil {
		return err
	}

	updated, err := h.employees.Update(c.Request().Context(), tenantID, id, employee)
	if err != nil {
		return err
	}

	prometheus.RecordResourceOperation("employees", "update")
	return c.JSON(http.StatusOK, updated)
}

// DeleteEmployee removes a staff record
func (h *Handler) DeleteEmployee(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.employees.Delete(c.Request().Context(), tenantID, id); err != nil {
		return err
	}

	prometheus.RecordResourceOperation("employees", "delete")
	return c.NoContent(http.StatusNoContent)
}
