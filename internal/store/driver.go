package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"transport-service/internal/apperr"
	"transport-service/internal/model"
	"transport-service/prometheus"

	"gorm.io/gorm"
)

// DriverFilter narrows a driver list
type DriverFilter struct {
	Search     string
	HasVehicle *bool
}

// NewDriver is everything needed to create a driver and its login
type NewDriver struct {
	Name          string
	Email         string
	PasswordHash  string
	Phone         string
	LicenseNumber string
	VehicleID     *uint
}

// DriverUpdate holds the editable driver and user fields
type DriverUpdate struct {
	Name          string
	Email         string
	Phone         string
	LicenseNumber string
}

// AssignResult reports what an assignment changed
type AssignResult struct {
	Driver *model.Driver
	// Changed is false when the driver already held the vehicle
	Changed bool
	// ReleasedVehicleID is the vehicle given back to the pool, if any
	ReleasedVehicleID *uint
}

// DriverStore persists drivers and their vehicle assignments
type DriverStore struct {
	db *gorm.DB
}

// NewDriverStore creates a driver store
func NewDriverStore(db *gorm.DB) *DriverStore {
	return &DriverStore{db: db}
}

var driverPreloads = []string{"User", "Vehicle"}

// List returns one page of the tenant's drivers
func (s *DriverStore) List(ctx context.Context, tenantID uint, f DriverFilter, page Page) (*Result[model.Driver], error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	q := scoped(ctx, s.db, tenantID, &model.Driver{})
	if strings.TrimSpace(f.Search) != "" {
		pattern := likePattern(f.Search)
		users := s.db.Model(&model.User{}).
			Select("id").
			Where("tenant_id = ? AND ("+likeCond("name")+" OR "+likeCond("email")+")", tenantID, pattern, pattern)
		q = q.Where("("+likeCond("license_number")+" OR "+likeCond("phone")+" OR user_id IN (?))", pattern, pattern, users)
	}
	if f.HasVehicle != nil {
		if *f.HasVehicle {
			q = q.Where("vehicle_id IS NOT NULL")
		} else {
			q = q.Where("vehicle_id IS NULL")
		}
	}

	res, err := paginate[model.Driver](q, page, "id DESC", driverPreloads...)
	return res, apperr.FromDB(err, "driver", "")
}

// Get loads one driver with user and vehicle
func (s *DriverStore) Get(ctx context.Context, tenantID, id uint) (*model.Driver, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	return getDriver(s.db.WithContext(ctx), tenantID, "id = ?", id)
}

// GetByUser loads the driver profile belonging to a user
func (s *DriverStore) GetByUser(ctx context.Context, tenantID, userID uint) (*model.Driver, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	return getDriver(s.db.WithContext(ctx), tenantID, "user_id = ?", userID)
}

func getDriver(db *gorm.DB, tenantID uint, cond string, arg uint) (*model.Driver, error) {
	var driver model.Driver
	q := db.Scopes(tenantScope(tenantID)).Where(cond, arg)
	for _, p := range driverPreloads {
		q = q.Preload(p)
	}
	if err := q.First(&driver).Error; err != nil {
		return nil, apperr.FromDB(err, "driver", "")
	}
	return &driver, nil
}

// Create makes the DRIVER user, the driver profile and the optional
// vehicle assignment in one transaction.
func (s *DriverStore) Create(ctx context.Context, tenantID uint, in NewDriver) (*model.Driver, error) {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	var driverID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkUserEmail(tx, tenantID, in.Email, 0); err != nil {
			return err
		}

		user := model.User{
			Name:     in.Name,
			Email:    in.Email,
			Password: in.PasswordHash,
			Role:     model.RoleDriver,
			TenantID: &tenantID,
		}
		if err := tx.Create(&user).Error; err != nil {
			return apperr.FromDB(err, "user", "User with this email already exists")
		}

		driver := model.Driver{
			LicenseNumber: in.LicenseNumber,
			Phone:         in.Phone,
			TenantID:      tenantID,
			UserID:        user.ID,
		}
		if err := tx.Create(&driver).Error; err != nil {
			return apperr.FromDB(err, "driver", "Driver profile already exists")
		}
		driverID = driver.ID

		if in.VehicleID != nil {
			if _, err := assignVehicle(tx, tenantID, &driver, *in.VehicleID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, tenantID, driverID)
}

// Update changes the driver's profile and the backing user's name and email
func (s *DriverStore) Update(ctx context.Context, tenantID, id uint, in DriverUpdate) (*model.Driver, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		driver, err := getDriver(tx, tenantID, "id = ?", id)
		if err != nil {
			return err
		}
		if err := checkUserEmail(tx, tenantID, in.Email, driver.UserID); err != nil {
			return err
		}

		if err := tx.Model(&model.User{}).
			Where("id = ? AND tenant_id = ?", driver.UserID, tenantID).
			Updates(map[string]interface{}{"name": in.Name, "email": in.Email}).Error; err != nil {
			return apperr.FromDB(err, "user", "User with this email already exists")
		}
		if err := tx.Model(&model.Driver{}).
			Where("id = ? AND tenant_id = ?", id, tenantID).
			Updates(map[string]interface{}{"phone": in.Phone, "license_number": in.LicenseNumber}).Error; err != nil {
			return apperr.FromDB(err, "driver", "")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, tenantID, id)
}

// AssignVehicle gives the vehicle to the driver, releasing any vehicle the
// driver held before. A vehicle held by someone else is VEHICLE_UNAVAILABLE.
func (s *DriverStore) AssignVehicle(ctx context.Context, tenantID, driverID, vehicleID uint) (*AssignResult, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	var result *AssignResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var driver model.Driver
		if err := tx.Scopes(tenantScope(tenantID)).First(&driver, driverID).Error; err != nil {
			return apperr.FromDB(err, "driver", "")
		}
		r, err := assignVehicle(tx, tenantID, &driver, vehicleID)
		result = r
		return err
	})
	if err != nil {
		return nil, err
	}

	result.Driver, err = s.Get(ctx, tenantID, driverID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UnassignVehicle frees the driver's vehicle. A driver without one is left as is.
func (s *DriverStore) UnassignVehicle(ctx context.Context, tenantID, driverID uint) (*AssignResult, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	result := &AssignResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var driver model.Driver
		if err := tx.Scopes(tenantScope(tenantID)).First(&driver, driverID).Error; err != nil {
			return apperr.FromDB(err, "driver", "")
		}
		if driver.VehicleID == nil {
			return nil
		}

		if err := releaseVehicle(tx, tenantID, *driver.VehicleID); err != nil {
			return err
		}
		if err := tx.Model(&model.Driver{}).
			Where("id = ? AND tenant_id = ?", driver.ID, tenantID).
			Update("vehicle_id", nil).Error; err != nil {
			return apperr.FromDB(err, "driver", "")
		}
		result.Changed = true
		result.ReleasedVehicleID = driver.VehicleID
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Driver, err = s.Get(ctx, tenantID, driverID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the driver and its user, freeing the vehicle and detaching shipments
func (s *DriverStore) Delete(ctx context.Context, tenantID, id uint) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var driver model.Driver
		if err := tx.Scopes(tenantScope(tenantID)).First(&driver, id).Error; err != nil {
			return apperr.FromDB(err, "driver", "")
		}
		return deleteDriver(tx, tenantID, &driver)
	})
}

// Count returns the number of drivers in the tenant
func (s *DriverStore) Count(ctx context.Context, tenantID uint) (int64, error) {
	defer prometheus.TrackDBOperation("report")(time.Now())

	var count int64
	err := scoped(ctx, s.db, tenantID, &model.Driver{}).Count(&count).Error
	return count, apperr.FromDB(err, "driver", "")
}

// assignVehicle runs inside tx. The conditional update on is_available is the
// compare-and-set that lets only one concurrent assignment win.
func assignVehicle(tx *gorm.DB, tenantID uint, driver *model.Driver, vehicleID uint) (*AssignResult, error) {
	if driver.VehicleID != nil && *driver.VehicleID == vehicleID {
		return &AssignResult{Changed: false}, nil
	}

	found, err := existsInTenant(tx, &model.Vehicle{}, tenantID, vehicleID)
	if err != nil {
		return nil, apperr.FromDB(err, "vehicle", "")
	}
	if !found {
		return nil, apperr.NotFound("vehicle")
	}

	res := tx.Model(&model.Vehicle{}).
		Where("id = ? AND tenant_id = ? AND is_available = ?", vehicleID, tenantID, true).
		Update("is_available", false)
	if res.Error != nil {
		return nil, apperr.FromDB(res.Error, "vehicle", "")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.ErrVehicleUnavailable
	}

	result := &AssignResult{Changed: true}
	if driver.VehicleID != nil {
		if err := releaseVehicle(tx, tenantID, *driver.VehicleID); err != nil {
			return nil, err
		}
		previous := *driver.VehicleID
		result.ReleasedVehicleID = &previous
	}

	err = tx.Model(&model.Driver{}).
		Where("id = ? AND tenant_id = ?", driver.ID, tenantID).
		Update("vehicle_id", vehicleID).Error
	if err != nil {
		if apperr.IsDuplicate(err) {
			return nil, apperr.ErrVehicleUnavailable.Wrap(err)
		}
		return nil, apperr.FromDB(err, "driver", "")
	}
	driver.VehicleID = &vehicleID
	return result, nil
}

func releaseVehicle(tx *gorm.DB, tenantID, vehicleID uint) error {
	err := tx.Model(&model.Vehicle{}).
		Where("id = ? AND tenant_id = ?", vehicleID, tenantID).
		Update("is_available", true).Error
	return apperr.FromDB(err, "vehicle", "")
}

// deleteDriver runs inside tx and removes the driver together with its user
func deleteDriver(tx *gorm.DB, tenantID uint, driver *model.Driver) error {
	if driver.VehicleID != nil {
		if err := releaseVehicle(tx, tenantID, *driver.VehicleID); err != nil {
			return err
		}
	}
	if err := tx.Model(&model.Shipment{}).
		Where("driver_id = ? AND tenant_id = ?", driver.ID, tenantID).
		Update("driver_id", nil).Error; err != nil {
		return apperr.FromDB(err, "shipment", "")
	}
	if err := tx.Where("tenant_id = ?", tenantID).Delete(&model.Driver{}, driver.ID).Error; err != nil {
		return apperr.FromDB(err, "driver", "")
	}
	if err := tx.Where("tenant_id = ?", tenantID).Delete(&model.User{}, driver.UserID).Error; err != nil {
		return apperr.FromDB(err, "user", "")
	}
	return nil
}

// checkUserEmail rejects an email already used by another user of the tenant
func checkUserEmail(tx *gorm.DB, tenantID uint, email string, exceptID uint) error {
	var count int64
	err := tx.Model(&model.User{}).
		Where("tenant_id = ? AND LOWER(email) = ? AND id <> ?", tenantID, strings.ToLower(email), exceptID).
		Count(&count).Error
	if err != nil {
		return apperr.FromDB(err, "user", "")
	}
	if count > 0 {
		return apperr.ErrConflict.WithMessage("User with email %s already exists", email)
	}
	return nil
}

// IsUnavailable reports whether err means the vehicle is held by another driver
func IsUnavailable(err error) bool {
	return errors.Is(err, apperr.ErrVehicleUnavailable)
}
