package handler

import (
	"net/http"

	"transport-service/internal/middleware"
	"transport-service/internal/model"
	"transport-service/internal/store"
	"transport-service/pkg/logger"
	"transport-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListExpenses returns one page of the tenant's expenses
func (h *Handler) ListExpenses(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}

	var q ExpenseQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	dates, err := dateRange("fromDate", q.FromDate, "toDate", q.ToDate)
	if err != nil {
		return err
	}

	result, err := h.expenses.List(c.Request().Context(), tenantID, store.ExpenseFilter{
		Search:   q.term(),
		Category: model.ExpenseCategory(q.Category),
		Status:   model.ExpenseStatus(q.Status),
		Dates:    dates,
	}, q.page())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// GetExpense returns one expense
func (h *Handler) GetExpense(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	expense, err := h.expenses.Get(c.Request().Context(), tenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, expense)
}

// CreateExpense records an expense, PENDING unless a status is given
func (h *Handler) CreateExpense(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}

	var req ExpenseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	expense, err := req.toModel()
	if err != nil {
		return err
	}

	if err := h.expenses.Create(c.Request().Context(), tenantID, expense); err != nil {
		return err
	}

	prometheus.RecordResourceOperation("expenses", "create")
	logger.FromContext(c).Info("Expense created",
		zap.Uint("expense_id", expense.ID),
		zap.String("category", string(expense.Category)),
		zap.Float64("amount", expense.Amount))
	return c.JSON(http.StatusCreated, expense)
}

// UpdateExpense replaces an expense. An omitted status keeps the current one.
func (h *Handler) UpdateExpense(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req ExpenseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	expense, err := req.toModel()
	if err != nil {
		return err
	}

	updated, err := h.expenses.Update(c.Request().Context(), tenantID, id, expense)
	if err != nil {
		return err
	}

	prometheus.RecordResourceOperation("expenses", "update")
	return c.JSON(http.StatusOK, updated)
}

// UpdateExpenseStatus changes only the status
func (h *Handler) UpdateExpenseStatus(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req ExpenseStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.expenses.UpdateStatus(c.Request().Context(), tenantID, id, model.ExpenseStatus(req.Status))
	if err != nil {
		return err
	}

	prometheus.RecordResourceOperation("expenses", "status")
	return c.JSON(http.StatusOK, updated)
}

// DeleteExpense removes an expense
func (h *Handler) DeleteExpense(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.expenses.Delete(c.Request().Context(), tenantID, id); err != nil {
		return err
	}

	prometheus.RecordResourceOperation("expenses", "delete")
	return c.NoContent(http.StatusNoContent)
}
