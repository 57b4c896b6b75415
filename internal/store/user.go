package store

import (
	"context"
	"strings"
	"time"

	"transport-service/internal/apperr"
	"transport-service/internal/model"
	"transport-service/prometheus"

	"gorm.io/gorm"
)

// UserFilter narrows a user list
type UserFilter struct {
	Search string
	Role   model.Role
}

// UserStore persists users
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a user store
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// List returns one page of the tenant's users
func (s *UserStore) List(ctx context.Context, tenantID uint, f UserFilter, page Page) (*Result[model.User], error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	q := scoped(ctx, s.db, tenantID, &model.User{})
	q = searchAny(q, f.Search, "name", "email")
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}

	res, err := paginate[model.User](q, page, "name ASC, id ASC")
	return res, apperr.FromDB(err, "user", "")
}

// Get loads one user of the tenant
func (s *UserStore) Get(ctx context.Context, tenantID, id uint) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	if err := s.db.WithContext(ctx).Scopes(tenantScope(tenantID)).First(&user, id).Error; err != nil {
		return nil, apperr.FromDB(err, "user", "")
	}
	return &user, nil
}

// GetByID loads any user with its tenant, for the authenticated profile
func (s *UserStore) GetByID(ctx context.Context, id uint) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	if err := s.db.WithContext(ctx).Preload("Tenant").First(&user, id).Error; err != nil {
		return nil, apperr.FromDB(err, "user", "")
	}
	return &user, nil
}

// FindInTenant looks a login up by tenant and email
func (s *UserStore) FindInTenant(ctx context.Context, tenantID uint, email string) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	err := s.db.WithContext(ctx).
		Preload("Tenant").
		Where("tenant_id = ? AND LOWER(email) = ?", tenantID, strings.ToLower(email)).
		First(&user).Error
	if err != nil {
		return nil, apperr.FromDB(err, "user", "")
	}
	return &user, nil
}

// FindSuperadmin looks a platform superadmin up by email
func (s *UserStore) FindSuperadmin(ctx context.Context, email string) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	err := s.db.WithContext(ctx).
		Where("role = ? AND tenant_id IS NULL AND LOWER(email) = ?", model.RoleSuperadmin, strings.ToLower(email)).
		First(&user).Error
	if err != nil {
		return nil, apperr.FromDB(err, "user", "")
	}
	return &user, nil
}

// FindAcrossTenants returns up to two tenant users with the email, enough to
// tell a unique match from an ambiguous one
func (s *UserStore) FindAcrossTenants(ctx context.Context, email string) ([]model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var users []model.User
	err := s.db.WithContext(ctx).
		Preload("Tenant").
		Where("tenant_id IS NOT NULL AND LOWER(email) = ?", strings.ToLower(email)).
		Order("id").
		Limit(2).
		Find(&users).Error
	return users, apperr.FromDB(err, "user", "")
}

// Create stores a new tenant user
func (s *UserStore) Create(ctx context.Context, tenantID uint, user *model.User) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	user.ID = 0
	user.TenantID = &tenantID

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkUserEmail(tx, tenantID, user.Email, 0); err != nil {
			return err
		}
		if err := tx.Omit("Tenant").Create(user).Error; err != nil {
			return apperr.FromDB(err, "user", "User with this email already exists")
		}
		return nil
	})
}

// Update changes name, email and role
func (s *UserStore) Update(ctx context.Context, tenantID, id uint, user *model.User) (*model.User, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := existsInTenant(tx, &model.User{}, tenantID, id)
		if err != nil {
			return apperr.FromDB(err, "user", "")
		}
		if !found {
			return apperr.NotFound("user")
		}
		if err := checkUserEmail(tx, tenantID, user.Email, id); err != nil {
			return err
		}
		return apperr.FromDB(tx.Model(&model.User{}).
			Where("id = ? AND tenant_id = ?", id, tenantID).
			Updates(map[string]interface{}{"name": user.Name, "email": user.Email, "role": user.Role}).Error,
			"user", "User with this email already exists")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, tenantID, id)
}

// Delete removes a user. A DRIVER's profile goes with it.
func (s *UserStore) Delete(ctx context.Context, tenantID, id uint) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := existsInTenant(tx, &model.User{}, tenantID, id)
		if err != nil {
			return apperr.FromDB(err, "user", "")
		}
		if !found {
			return apperr.NotFound("user")
		}

		var drivers []model.Driver
		if err := tx.Where("user_id = ? AND tenant_id = ?", id, tenantID).Find(&drivers).Error; err != nil {
			return apperr.FromDB(err, "driver", "")
		}
		if len(drivers) > 0 {
			return deleteDriver(tx, tenantID, &drivers[0])
		}

		return apperr.FromDB(tx.Where("tenant_id = ?", tenantID).Delete(&model.User{}, id).Error, "user", "")
	})
}

// SetPassword stores a new password hash
func (s *UserStore) SetPassword(ctx context.Context, id uint, hash string) error {
	defer prometheus.TrackDBOperation("update")(time.Now())

	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return apperr.FromDB(res.Error, "user", "")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user")
	}
	return nil
}

// EnsureSuperadmin creates the superadmin if no superadmin has the email yet.
// It reports whether a user was created.
func (s *UserStore) EnsureSuperadmin(ctx context.Context, name, email, hash string) (bool, error) {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).
			Where("role = ? AND tenant_id IS NULL AND LOWER(email) = ?", model.RoleSuperadmin, strings.ToLower(email)).
			Count(&count).Error; err != nil {
			return apperr.FromDB(err, "user", "")
		}
		if count > 0 {
			return nil
		}
		user := model.User{Name: name, Email: strings.ToLower(email), Password: hash, Role: model.RoleSuperadmin}
		if err := tx.Create(&user).Error; err != nil {
			return apperr.FromDB(err, "user", "Superadmin already exists")
		}
		created = true
		return nil
	})
	return created, err
}
