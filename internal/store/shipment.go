package store

import (
	"context"
	"strings"
	"time"

	"transport-service/internal/apperr"
	"transport-service/internal/model"
	"transport-service/prometheus"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShipmentFilter narrows a shipment list
type ShipmentFilter struct {
	Search        string
	Status        model.ShipmentStatus
	PaymentMethod model.PaymentMethod
	Dates         DateRange
	DriverID      *uint
	VehicleID     *uint
	Source        string
	Destination   string
}

// RevenueRow is the slice of a shipment the reports aggregate
type RevenueRow struct {
	Date       time.Time
	GrandTotal float64
	Status     model.ShipmentStatus
}

// ShipmentStore persists shipments
type ShipmentStore struct {
	db *gorm.DB
}

// NewShipmentStore creates a shipment store
func NewShipmentStore(db *gorm.DB) *ShipmentStore {
	return &ShipmentStore{db: db}
}

var shipmentPreloads = []string{"Driver.User", "Vehicle"}

// List returns one page of the tenant's shipments, newest bill date first
func (s *ShipmentStore) List(ctx context.Context, tenantID uint, f ShipmentFilter, page Page) (*Result[model.Shipment], error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	q := scoped(ctx, s.db, tenantID, &model.Shipment{})
	q = searchAny(q, f.Search, "bill_no", "consignor_name", "consignee_name", "source", "destination")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentMethod != "" {
		q = q.Where("payment_method = ?", f.PaymentMethod)
	}
	if f.DriverID != nil {
		q = q.Where("driver_id = ?", *f.DriverID)
	}
	if f.VehicleID != nil {
		q = q.Where("vehicle_id = ?", *f.VehicleID)
	}
	if strings.TrimSpace(f.Source) != "" {
		q = q.Where(likeCond("source"), likePattern(f.Source))
	}
	if strings.TrimSpace(f.Destination) != "" {
		q = q.Where(likeCond("destination"), likePattern(f.Destination))
	}
	q = f.Dates.apply(q, "date")

	res, err := paginate[model.Shipment](q, page, "date DESC, id DESC", shipmentPreloads...)
	return res, apperr.FromDB(err, "shipment", "")
}

// Get loads one shipment with its driver and vehicle
func (s *ShipmentStore) Get(ctx context.Context, tenantID, id uint) (*model.Shipment, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var shipment model.Shipment
	q := s.db.WithContext(ctx).Scopes(tenantScope(tenantID))
	for _, p := range shipmentPreloads {
		q = q.Preload(p)
	}
	if err := q.First(&shipment, id).Error; err != nil {
		return nil, apperr.FromDB(err, "shipment", "")
	}
	return &shipment, nil
}

// Create stores a new shipment. GrandTotal is always recomputed from the charges.
func (s *ShipmentStore) Create(ctx context.Context, tenantID uint, shipment *model.Shipment) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	shipment.ID = 0
	shipment.TenantID = tenantID
	shipment.GrandTotal = shipment.ComputeGrandTotal()
	if shipment.Status == "" {
		shipment.Status = model.ShipmentPending
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkShipmentRefs(tx, tenantID, shipment); err != nil {
			return err
		}
		if err := checkBillNo(tx, tenantID, shipment.BillNo, 0); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(shipment).Error; err != nil {
			return apperr.FromDB(err, "shipment", "Shipment with this bill number already exists")
		}
		return nil
	})
}

// Update replaces every editable field of the shipment
func (s *ShipmentStore) Update(ctx context.Context, tenantID, id uint, shipment *model.Shipment) (*model.Shipment, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	shipment.ID = id
	shipment.TenantID = tenantID
	shipment.GrandTotal = shipment.ComputeGrandTotal()
	if shipment.Status == "" {
		shipment.Status = model.ShipmentPending
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := existsInTenant(tx, &model.Shipment{}, tenantID, id)
		if err != nil {
			return apperr.FromDB(err, "shipment", "")
		}
		if !found {
			return apperr.NotFound("shipment")
		}
		if err := checkShipmentRefs(tx, tenantID, shipment); err != nil {
			return err
		}
		if err := checkBillNo(tx, tenantID, shipment.BillNo, id); err != nil {
			return err
		}

		res := tx.Model(&model.Shipment{}).
			Where("id = ? AND tenant_id = ?", id, tenantID).
			Select("*").
			Omit("id", "tenant_id", "created_at", clause.Associations).
			Updates(shipment)
		if res.Error != nil {
			return apperr.FromDB(res.Error, "shipment", "Shipment with this bill number already exists")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, tenantID, id)
}

// UpdateStatus changes only the status column
func (s *ShipmentStore) UpdateStatus(ctx context.Context, tenantID, id uint, status model.ShipmentStatus) (*model.Shipment, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	res := scoped(ctx, s.db, tenantID, &model.Shipment{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, apperr.FromDB(res.Error, "shipment", "")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("shipment")
	}
	return s.Get(ctx, tenantID, id)
}

// Delete removes the shipment
func (s *ShipmentStore) Delete(ctx context.Context, tenantID, id uint) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	res := s.db.WithContext(ctx).Scopes(tenantScope(tenantID)).Delete(&model.Shipment{}, id)
	if res.Error != nil {
		return apperr.FromDB(res.Error, "shipment", "")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("shipment")
	}
	return nil
}

// RevenueRows returns date, total and status for shipments dated within r
func (s *ShipmentStore) RevenueRows(ctx context.Context, tenantID uint, r DateRange) ([]RevenueRow, error) {
	defer prometheus.TrackDBOperation("report")(time.Now())

	var rows []RevenueRow
	q := scoped(ctx, s.db, tenantID, &model.Shipment{}).Select("date", "grand_total", "status")
	err := r.apply(q, "date").Order("date").Scan(&rows).Error
	return rows, apperr.FromDB(err, "shipment", "")
}

// CountByStatus returns the number of shipments per status, limited to one
// driver when driverID is set
func (s *ShipmentStore) CountByStatus(ctx context.Context, tenantID uint, driverID *uint) (map[model.ShipmentStatus]int64, error) {
	defer prometheus.TrackDBOperation("report")(time.Now())

	var rows []struct {
		Status model.ShipmentStatus
		Count  int64
	}
	q := scoped(ctx, s.db, tenantID, &model.Shipment{})
	if driverID != nil {
		q = q.Where("driver_id = ?", *driverID)
	}
	err := q.
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.FromDB(err, "shipment", "")
	}

	counts := make(map[model.ShipmentStatus]int64, len(model.ShipmentStatuses))
	for _, st := range model.ShipmentStatuses {
		counts[st] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// SumRevenue totals grand_total over shipments dated within r
func (s *ShipmentStore) SumRevenue(ctx context.Context, tenantID uint, r DateRange) (float64, error) {
	defer prometheus.TrackDBOperation("report")(time.Now())

	var total float64
	q := scoped(ctx, s.db, tenantID, &model.Shipment{}).Select("COALESCE(SUM(grand_total), 0)")
	err := r.apply(q, "date").Scan(&total).Error
	return total, apperr.FromDB(err, "shipment", "")
}

// checkShipmentRefs rejects driver or vehicle ids owned by another tenant
func checkShipmentRefs(tx *gorm.DB, tenantID uint, shipment *model.Shipment) error {
	if shipment.DriverID != nil {
		ok, err := existsInTenant(tx, &model.Driver{}, tenantID, *shipment.DriverID)
		if err != nil {
			return apperr.FromDB(err, "driver", "")
		}
		if !ok {
			return apperr.Validation("driverId", "driverId does not refer to a driver of this tenant")
		}
	}
	if shipment.VehicleID != nil {
		ok, err := existsInTenant(tx, &model.Vehicle{}, tenantID, *shipment.VehicleID)
		if err != nil {
			return apperr.FromDB(err, "vehicle", "")
		}
		if !ok {
			return apperr.Validation("vehicleId", "vehicleId does not refer to a vehicle of this tenant")
		}
	}
	return nil
}

// checkBillNo rejects a bill number already used by another shipment of the tenant
func checkBillNo(tx *gorm.DB, tenantID uint, billNo string, exceptID uint) error {
	var count int64
	err := tx.Model(&model.Shipment{}).
		Where("tenant_id = ? AND bill_no = ? AND id <> ?", tenantID, billNo, exceptID).
		Count(&count).Error
	if err != nil {
		return apperr.FromDB(err, "shipment", "")
	}
	if count > 0 {
		return apperr.ErrConflict.WithMessage("Shipment with bill number %s already exists", billNo)
	}
	return nil
}
