package store

import (
	"context"
	"strings"
	"time"

	"transport-service/internal/apperr"
	"transport-service/internal/model"
	"transport-service/prometheus"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TenantStore persists tenants
type TenantStore struct {
	db *gorm.DB
}

// NewTenantStore creates a tenant store
func NewTenantStore(db *gorm.DB) *TenantStore {
	return &TenantStore{db: db}
}

// GetBySlug loads a tenant by slug, active or not
func (s *TenantStore) GetBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var tenant model.Tenant
	err := s.db.WithContext(ctx).Where("slug = ?", strings.ToLower(slug)).First(&tenant).Error
	if err != nil {
		return nil, apperr.FromDB(err, "tenant", "")
	}
	return &tenant, nil
}

// GetByID loads a tenant by id
func (s *TenantStore) GetByID(ctx context.Context, id uint) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var tenant model.Tenant
	if err := s.db.WithContext(ctx).First(&tenant, id).Error; err != nil {
		return nil, apperr.FromDB(err, "tenant", "")
	}
	return &tenant, nil
}

// List returns one page of tenants with the number of users in each
func (s *TenantStore) List(ctx context.Context, search string, page Page) (*Result[model.TenantSummary], error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	q := s.db.WithContext(ctx).Model(&model.Tenant{})
	q = searchAny(q, search, "name", "slug")

	res, err := paginate[model.Tenant](q, page, "name ASC, id ASC")
	if err != nil {
		return nil, apperr.FromDB(err, "tenant", "")
	}

	out := &Result[model.TenantSummary]{
		Items:    make([]model.TenantSummary, len(res.Items)),
		Total:    res.Total,
		Page:     res.Page,
		PageSize: res.PageSize,
	}
	if len(res.Items) == 0 {
		return out, nil
	}

	ids := make([]uint, len(res.Items))
	for i, t := range res.Items {
		ids[i] = t.ID
	}
	var counts []struct {
		TenantID uint
		Count    int64
	}
	if err := s.db.WithContext(ctx).Model(&model.User{}).
		Select("tenant_id, COUNT(*) AS count").
		Where("tenant_id IN ?", ids).
		Group("tenant_id").
		Scan(&counts).Error; err != nil {
		return nil, apperr.FromDB(err, "user", "")
	}
	byTenant := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byTenant[c.TenantID] = c.Count
	}

	for i, t := range res.Items {
		out.Items[i] = model.TenantSummary{Tenant: t, UserCount: byTenant[t.ID]}
	}
	return out, nil
}

// CreateWithAdmin provisions a tenant and its first ADMIN in one transaction
func (s *TenantStore) CreateWithAdmin(ctx context.Context, tenant *model.Tenant, admin *model.User) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	tenant.ID = 0
	tenant.Slug = strings.ToLower(tenant.Slug)
	tenant.IsActive = true

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Tenant{}).Where("slug = ?", tenant.Slug).Count(&count).Error; err != nil {
			return apperr.FromDB(err, "tenant", "")
		}
		if count > 0 {
			return apperr.ErrConflict.WithMessage("Tenant with slug %s already exists", tenant.Slug)
		}
		if tenant.Domain != nil {
			if err := tx.Model(&model.Tenant{}).Where("domain = ?", *tenant.Domain).Count(&count).Error; err != nil {
				return apperr.FromDB(err, "tenant", "")
			}
			if count > 0 {
				return apperr.ErrConflict.WithMessage("Tenant with domain %s already exists", *tenant.Domain)
			}
		}

		if err := tx.Create(tenant).Error; err != nil {
			return apperr.FromDB(err, "tenant", "Tenant already exists")
		}

		admin.ID = 0
		admin.Role = model.RoleAdmin
		admin.TenantID = &tenant.ID
		if err := tx.Omit("Tenant").Create(admin).Error; err != nil {
			return apperr.FromDB(err, "user", "User with this email already exists")
		}
		return nil
	})
}

// SetActive activates or deactivates a tenant
func (s *TenantStore) SetActive(ctx context.Context, id uint, active bool) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	res := s.db.WithContext(ctx).Model(&model.Tenant{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return nil, apperr.FromDB(res.Error, "tenant", "")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("tenant")
	}
	return s.GetByID(ctx, id)
}

// UpdateSettings replaces the tenant's typed settings
func (s *TenantStore) UpdateSettings(ctx context.Context, id uint, settings model.TenantSettings) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	res := s.db.WithContext(ctx).Model(&model.Tenant{}).
		Where("id = ?", id).
		Update("settings", datatypes.NewJSONType(settings))
	if res.Error != nil {
		return nil, apperr.FromDB(res.Error, "tenant", "")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("tenant")
	}
	return s.GetByID(ctx, id)
}
