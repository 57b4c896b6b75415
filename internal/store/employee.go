package store

import (
	"context"
	"time"

	"transport-service/internal/apperr"
	"transport-service/internal/model"
	"transport-service/prometheus"

	"gorm.io/gorm"
)

// EmployeeFilter narrows an employee list
type EmployeeFilter struct {
	Search string
	Role   string
}

// EmployeeStore persists employees
type EmployeeStore struct {
	db *gorm.DB
}

// NewEmployeeStore creates an employee store
func NewEmployeeStore(db *gorm.DB) *EmployeeStore {
	return &EmployeeStore{db: db}
}

// List returns one page of the tenant's employees
func (s *EmployeeStore) List(ctx context.Context, tenantID uint, f EmployeeFilter, page Page) (*Result[model.Employee], error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	q := scoped(ctx, s.db, tenantID, &model.Employee{})
	q = searchAny(q, f.Search, "name", "email", "phone", "role")
	if f.Role != "" {
		q = q.Where("LOWER(role) = LOWER(?)", f.Role)
	}

	res, err := paginate[model.Employee](q, page, "name ASC, id ASC")
	return res, apperr.FromDB(err, "employee", "")
}

// Get loads one employee
func (s *EmployeeStore) Get(ctx context.Context, tenantID, id uint) (*model.Employee, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var employee model.Employee
	if err := s.db.WithContext(ctx).Scopes(tenantScope(tenantID)).First(&employee, id).Error; err != nil {
		return nil, apperr.FromDB(err, "employee", "")
	}
	return &employee, nil
}

// Create stores a new employee
func (s *EmployeeStore) Create(ctx context.Context, tenantID uint, employee *model.Employee) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	employee.ID = 0
	employee.TenantID = tenantID
	return apperr.FromDB(s.db.WithContext(ctx).Create(employee).Error, "employee", "Employee already exists")
}

// Update replaces every editable employee field
func (s *EmployeeStore) Update(ctx context.Context, tenantID, id uint, employee *model.Employee) (*model.Employee, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	res := scoped(ctx, s.db, tenantID, &model.Employee{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":            employee.Name,
		"email":           employee.Email,
		"phone":           employee.Phone,
		"address":         employee.Address,
		"role":            employee.Role,
		"salary":          employee.Salary,
		"date_of_joining": employee.DateOfJoining,
	})
	if res.Error != nil {
		return nil, apperr.FromDB(res.Error, "employee", "Employee already exists")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("employee")
	}
	return s.Get(ctx, tenantID, id)
}

// Delete removes the employee
func (s *EmployeeStore) Delete(ctx context.Context, tenantID, id uint) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	res := s.db.WithContext(ctx).Scopes(tenantScope(tenantID)).Delete(&model.Employee{}, id)
	if res.Error != nil {
		return apperr.FromDB(res.Error, "employee", "")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("employee")
	}
	return nil
}

// Count returns the number of employees in the tenant
func (s *EmployeeStore) Count(ctx context.Context, tenantID uint) (int64, error) {
	defer prometheus.TrackDBOperation("report")(time.Now())

	var count int64
	err := scoped(ctx, s.db, tenantID, &model.Employee{}).Count(&count).Error
	return count, apperr.FromDB(err, "employee", "")
}
