package store

import (
	"context"
	"time"

	"transport-service/internal/apperr"
	"transport-service/internal/model"
	"transport-service/prometheus"

	"gorm.io/gorm"
)

// VehicleFilter narrows a vehicle list
type VehicleFilter struct {
	Search      string
	IsAvailable *bool
}

// VehicleStore persists vehicles
type VehicleStore struct {
	db *gorm.DB
}

// NewVehicleStore creates a vehicle store
func NewVehicleStore(db *gorm.DB) *VehicleStore {
	return &VehicleStore{db: db}
}

// List returns one page of the tenant's vehicles ordered by number
func (s *VehicleStore) List(ctx context.Context, tenantID uint, f VehicleFilter, page Page) (*Result[model.Vehicle], error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	q := scoped(ctx, s.db, tenantID, &model.Vehicle{})
	q = searchAny(q, f.Search, "number", "model")
	if f.IsAvailable != nil {
		q = q.Where("is_available = ?", *f.IsAvailable)
	}

	res, err := paginate[model.Vehicle](q, page, "number ASC, id ASC")
	return res, apperr.FromDB(err, "vehicle", "")
}

// Get loads one vehicle
func (s *VehicleStore) Get(ctx context.Context, tenantID, id uint) (*model.Vehicle, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var vehicle model.Vehicle
	if err := s.db.WithContext(ctx).Scopes(tenantScope(tenantID)).First(&vehicle, id).Error; err != nil {
		return nil, apperr.FromDB(err, "vehicle", "")
	}
	return &vehicle, nil
}

// Create stores a new vehicle. New vehicles are always available.
func (s *VehicleStore) Create(ctx context.Context, tenantID uint, vehicle *model.Vehicle) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	vehicle.ID = 0
	vehicle.TenantID = tenantID
	vehicle.IsAvailable = true

	if err := s.checkNumber(ctx, tenantID, vehicle.Number, 0); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(vehicle).Error; err != nil {
		return apperr.FromDB(err, "vehicle", "Vehicle with this number already exists")
	}
	return nil
}

// Update changes number, model and capacity. Availability is owned by driver assignment.
func (s *VehicleStore) Update(ctx context.Context, tenantID, id uint, vehicle *model.Vehicle) (*model.Vehicle, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	existing, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkNumber(ctx, tenantID, vehicle.Number, id); err != nil {
		return nil, err
	}

	res := scoped(ctx, s.db, tenantID, &model.Vehicle{}).Where("id = ?", id).Updates(map[string]interface{}{
		"number":   vehicle.Number,
		"model":    vehicle.Model,
		"capacity": vehicle.Capacity,
	})
	if res.Error != nil {
		return nil, apperr.FromDB(res.Error, "vehicle", "Vehicle with this number already exists")
	}

	existing.Number = vehicle.Number
	existing.Model = vehicle.Model
	existing.Capacity = vehicle.Capacity
	return existing, nil
}

// Delete removes the vehicle after detaching it from its driver and shipments
func (s *VehicleStore) Delete(ctx context.Context, tenantID, id uint) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := existsInTenant(tx, &model.Vehicle{}, tenantID, id)
		if err != nil {
			return apperr.FromDB(err, "vehicle", "")
		}
		if !found {
			return apperr.NotFound("vehicle")
		}

		if err := tx.Model(&model.Driver{}).
			Where("vehicle_id = ? AND tenant_id = ?", id, tenantID).
			Update("vehicle_id", nil).Error; err != nil {
			return apperr.FromDB(err, "driver", "")
		}
		if err := tx.Model(&model.Shipment{}).
			Where("vehicle_id = ? AND tenant_id = ?", id, tenantID).
			Update("vehicle_id", nil).Error; err != nil {
			return apperr.FromDB(err, "shipment", "")
		}
		if err := tx.Where("tenant_id = ?", tenantID).Delete(&model.Vehicle{}, id).Error; err != nil {
			return apperr.FromDB(err, "vehicle", "")
		}
		return nil
	})
}

// Counts returns the total and available vehicles of the tenant
func (s *VehicleStore) Counts(ctx context.Context, tenantID uint) (total, available int64, err error) {
	defer prometheus.TrackDBOperation("report")(time.Now())

	var row struct {
		Total     int64
		Available int64
	}
	err = scoped(ctx, s.db, tenantID, &model.Vehicle{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN is_available THEN 1 ELSE 0 END), 0) AS available").
		Scan(&row).Error
	if err != nil {
		return 0, 0, apperr.FromDB(err, "vehicle", "")
	}
	return row.Total, row.Available, nil
}

func (s *VehicleStore) checkNumber(ctx context.Context, tenantID uint, number string, exceptID uint) error {
	var count int64
	err := scoped(ctx, s.db, tenantID, &model.Vehicle{}).
		Where("number = ? AND id <> ?", number, exceptID).
		Count(&count).Error
	if err != nil {
		return apperr.FromDB(err, "vehicle", "")
	}
	if count > 0 {
		return apperr.ErrConflict.WithMessage("Vehicle with number %s already exists", number)
	}
	return nil
}
