package store

import (
	"context"
	"time"

	"transport-service/internal/apperr"
	"transport-service/internal/model"
	"transport-service/prometheus"

	"gorm.io/gorm"
)

// ExpenseFilter narrows an expense list
type ExpenseFilter struct {
	Search   string
	Category model.ExpenseCategory
	Status   model.ExpenseStatus
	Dates    DateRange
}

// ExpenseRow is the slice of an expense the reports aggregate
type ExpenseRow struct {
	Date     time.Time
	Amount   float64
	Category model.ExpenseCategory
	Status   model.ExpenseStatus
}

// ExpenseStore persists expenses
type ExpenseStore struct {
	db *gorm.DB
}

// NewExpenseStore creates an expense store
func NewExpenseStore(db *gorm.DB) *ExpenseStore {
	return &ExpenseStore{db: db}
}

// List returns one page of the tenant's expenses, newest first
func (s *ExpenseStore) List(ctx context.Context, tenantID uint, f ExpenseFilter, page Page) (*Result[model.Expense], error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	q := scoped(ctx, s.db, tenantID, &model.Expense{})
	q = searchAny(q, f.Search, "title", "description")
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	q = f.Dates.apply(q, "date")

	res, err := paginate[model.Expense](q, page, "date DESC, id DESC")
	return res, apperr.FromDB(err, "expense", "")
}

// Get loads one expense
func (s *ExpenseStore) Get(ctx context.Context, tenantID, id uint) (*model.Expense, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var expense model.Expense
	if err := s.db.WithContext(ctx).Scopes(tenantScope(tenantID)).First(&expense, id).Error; err != nil {
		return nil, apperr.FromDB(err, "expense", "")
	}
	return &expense, nil
}

// Create stores a new expense, PENDING unless a status is given
func (s *ExpenseStore) Create(ctx context.Context, tenantID uint, expense *model.Expense) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	expense.ID = 0
	expense.TenantID = tenantID
	if expense.Status == "" {
		expense.Status = model.ExpensePending
	}
	return apperr.FromDB(s.db.WithContext(ctx).Create(expense).Error, "expense", "Expense already exists")
}

// Update replaces every editable expense field
func (s *ExpenseStore) Update(ctx context.Context, tenantID, id uint, expense *model.Expense) (*model.Expense, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	values := map[string]interface{}{
		"title":       expense.Title,
		"amount":      expense.Amount,
		"date":        expense.Date,
		"category":    expense.Category,
		"description": expense.Description,
	}
	if expense.Status != "" {
		values["status"] = expense.Status
	}

	res := scoped(ctx, s.db, tenantID, &model.Expense{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return nil, apperr.FromDB(res.Error, "expense", "")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("expense")
	}
	return s.Get(ctx, tenantID, id)
}

// UpdateStatus changes only the status column
func (s *ExpenseStore) UpdateStatus(ctx context.Context, tenantID, id uint, status model.ExpenseStatus) (*model.Expense, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	res := scoped(ctx, s.db, tenantID, &model.Expense{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, apperr.FromDB(res.Error, "expense", "")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("expense")
	}
	return s.Get(ctx, tenantID, id)
}

// Delete removes the expense
func (s *ExpenseStore) Delete(ctx context.Context, tenantID, id uint) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	res := s.db.WithContext(ctx).Scopes(tenantScope(tenantID)).Delete(&model.Expense{}, id)
	if res.Error != nil {
		return apperr.FromDB(res.Error, "expense", "")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("expense")
	}
	return nil
}

// Rows returns the expenses dated within r for aggregation
func (s *ExpenseStore) Rows(ctx context.Context, tenantID uint, r DateRange) ([]ExpenseRow, error) {
	defer prometheus.TrackDBOperation("report")(time.Now())

	var rows []ExpenseRow
	q := scoped(ctx, s.db, tenantID, &model.Expense{}).Select("date", "amount", "category", "status")
	err := r.apply(q, "date").Order("date").Scan(&rows).Error
	return rows, apperr.FromDB(err, "expense", "")
}

// SumByStatus totals the amount of expenses in a status
func (s *ExpenseStore) SumByStatus(ctx context.Context, tenantID uint, status model.ExpenseStatus) (float64, error) {
	defer prometheus.TrackDBOperation("report")(time.Now())

	var total float64
	err := scoped(ctx, s.db, tenantID, &model.Expense{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("status = ?", status).
		Scan(&total).Error
	return total, apperr.FromDB(err, "expense", "")
}
