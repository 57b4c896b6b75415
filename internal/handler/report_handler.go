package handler

import (
	"net/http"

	"transport-service/internal/apperr"
	"transport-service/internal/middleware"
	"transport-service/internal/policy"
	"transport-service/internal/report"
	"transport-service/internal/search"

	"github.com/labstack/echo/v4"
)

// searchSections maps each search section to the resource guarding it
var searchSections = map[string]string{
	search.SectionShipments: policy.Shipments,
	search.SectionDrivers:   policy.Drivers,
	search.SectionVehicles:  policy.Vehicles,
	search.SectionEmployees: policy.Employees,
	search.SectionExpenses:  policy.Expenses,
}

// dashboardSections maps each dashboard section to the permission guarding it
var dashboardSections = map[string][2]string{
	report.SectionShipments: {policy.Shipments, policy.List},
	report.SectionVehicles:  {policy.Vehicles, policy.List},
	report.SectionDrivers:   {policy.Drivers, policy.List},
	report.SectionEmployees: {policy.Employees, policy.List},
	report.SectionExpenses:  {policy.Expenses, policy.List},
	report.SectionRevenue:   {policy.Reports, policy.Read},
}

func (h *Handler) reportParams(c echo.Context) (report.Params, error) {
	var q ReportQuery
	if err := bindQuery(c, &q); err != nil {
		return report.Params{}, err
	}
	return report.ParseParams(q.StartDate, q.EndDate, q.GroupBy, h.now())
}

// ProfitLoss returns revenue, expenses and margin over the window
func (h *Handler) ProfitLoss(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	params, err := h.reportParams(c)
	if err != nil {
		return err
	}

	result, err := h.reports.ProfitLoss(c.Request().Context(), tenantID, params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// ExpenseReport returns expense totals by category and period
func (h *Handler) ExpenseReport(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	params, err := h.reportParams(c)
	if err != nil {
		return err
	}

	result, err := h.reports.Expenses(c.Request().Context(), tenantID, params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// DashboardStats returns the landing page counters the caller may see.
// Sections that fail are reported as unavailable instead of failing the request.
func (h *Handler) DashboardStats(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}

	role := string(middleware.Role(c))
	sections := make(map[string]bool, len(dashboardSections))
	for section, perm := range dashboardSections {
		allowed, err := h.policy.Allowed(role, perm[0], perm[1])
		if err != nil {
			return apperr.ErrInternal.Wrap(err)
		}
		sections[section] = allowed
	}

	own, err := h.ownDriverID(c, tenantID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, h.reports.Dashboard(c.Request().Context(), report.DashboardScope{
		TenantID:    tenantID,
		Sections:    sections,
		OwnDriverID: own,
	}, h.now()))
}

// Search looks the term up in every section the caller may list
func (h *Handler) Search(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}

	var q SearchQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}

	role := string(middleware.Role(c))
	sections := make(map[string]bool, len(searchSections))
	for section, resource := range searchSections {
		allowed, err := h.policy.Allowed(role, resource, policy.List)
		if err != nil {
			return apperr.ErrInternal.Wrap(err)
		}
		sections[section] = allowed
	}

	own, err := h.ownDriverID(c, tenantID)
	if err != nil {
		return err
	}

	results := h.search.Search(c.Request().Context(), search.Scope{
		TenantID:    tenantID,
		Sections:    sections,
		OwnDriverID: own,
	}, q.Q)
	return c.JSON(http.StatusOK, results)
}
