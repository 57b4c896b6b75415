package report

import (
	"context"
	"sort"
	"sync"
	"time"

	"transport-service/internal/model"
	"transport-service/internal/store"
	"transport-service/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// StatsSources are the counters the dashboard reads
type StatsSources struct {
	Shipments ShipmentStats
	Vehicles  VehicleStats
	Drivers   Counter
	Employees Counter
	Expenses  ExpenseStats
}

// ShipmentStats counts shipments and sums revenue
type ShipmentStats interface {
	CountByStatus(ctx context.Context, tenantID uint, driverID *uint) (map[model.ShipmentStatus]int64, error)
	SumRevenue(ctx context.Context, tenantID uint, r store.DateRange) (float64, error)
}

// VehicleStats counts vehicles
type VehicleStats interface {
	Counts(ctx context.Context, tenantID uint) (total, available int64, err error)
}

// Counter counts rows of one resource
type Counter interface {
	Count(ctx context.Context, tenantID uint) (int64, error)
}

// ExpenseStats sums expenses by status
type ExpenseStats interface {
	SumByStatus(ctx context.Context, tenantID uint, status model.ExpenseStatus) (float64, error)
}

// Dashboard sections
const (
	SectionShipments = "shipments"
	SectionVehicles  = "vehicles"
	SectionDrivers   = "drivers"
	SectionEmployees = "employees"
	SectionExpenses  = "expenses"
	SectionRevenue   = "revenue"
)

// DashboardScope limits the dashboard to what the caller may see
type DashboardScope struct {
	TenantID uint
	// Sections the caller may read; others are neither computed nor returned
	Sections map[string]bool
	// OwnDriverID restricts shipment counts to one driver, for DRIVER callers
	OwnDriverID *uint
}

// DashboardStats is the landing page summary. Sections outside the caller's
// scope are omitted.
type DashboardStats struct {
	ShipmentsByStatus   map[model.ShipmentStatus]int64 `json:"shipmentsByStatus,omitempty"`
	TotalShipments      *int64                         `json:"totalShipments,omitempty"`
	TotalVehicles       *int64                         `json:"totalVehicles,omitempty"`
	AvailableVehicles   *int64                         `json:"availableVehicles,omitempty"`
	TotalDrivers        *int64                         `json:"totalDrivers,omitempty"`
	TotalEmployees      *int64                         `json:"totalEmployees,omitempty"`
	PendingExpenses     *float64                       `json:"pendingExpenses,omitempty"`
	MonthToDateRevenue  *float64                       `json:"monthToDateRevenue,omitempty"`
	UnavailableSections []string                       `json:"unavailableSections,omitempty"`
}

// Dashboard computes every permitted sub-stat independently. A failing one is
// logged, left at zero and named in UnavailableSections; the rest are still
// returned.
func (s *Service) Dashboard(ctx context.Context, scope DashboardScope, now time.Time) *DashboardStats {
	log := logger.FromCtx(ctx)
	tenantID := scope.TenantID
	stats := &DashboardStats{}

	var (
		mu     sync.Mutex
		failed []string
		g      errgroup.Group
	)
	section := func(name string, fn func() error) {
		if !scope.Sections[name] {
			return
		}
		g.Go(func() error {
			if err := fn(); err != nil {
				log.Warn("Dashboard stat failed",
					zap.String("section", name),
					zap.Uint("tenant_id", tenantID),
					zap.Error(err))
				mu.Lock()
				failed = append(failed, name)
				mu.Unlock()
			}
			return nil
		})
	}

	if scope.Sections[SectionShipments] {
		stats.ShipmentsByStatus = make(map[model.ShipmentStatus]int64, len(model.ShipmentStatuses))
		for _, st := range model.ShipmentStatuses {
			stats.ShipmentsByStatus[st] = 0
		}
		stats.TotalShipments = new(int64)
	}
	section(SectionShipments, func() error {
		byStatus, err := s.stats.Shipments.CountByStatus(ctx, tenantID, scope.OwnDriverID)
		if err != nil {
			return err
		}
		for st, n := range byStatus {
			stats.ShipmentsByStatus[st] = n
			*stats.TotalShipments += n
		}
		return nil
	})

	if scope.Sections[SectionVehicles] {
		stats.TotalVehicles, stats.AvailableVehicles = new(int64), new(int64)
	}
	section(SectionVehicles, func() error {
		total, available, err := s.stats.Vehicles.Counts(ctx, tenantID)
		if err != nil {
			return err
		}
		*stats.TotalVehicles, *stats.AvailableVehicles = total, available
		return nil
	})

	if scope.Sections[SectionDrivers] {
		stats.TotalDrivers = new(int64)
	}
	section(SectionDrivers, func() error {
		n, err := s.stats.Drivers.Count(ctx, tenantID)
		*stats.TotalDrivers = n
		return err
	})

	if scope.Sections[SectionEmployees] {
		stats.TotalEmployees = new(int64)
	}
	section(SectionEmployees, func() error {
		n, err := s.stats.Employees.Count(ctx, tenantID)
		*stats.TotalEmployees = n
		return err
	})

	if scope.Sections[SectionExpenses] {
		stats.PendingExpenses = new(float64)
	}
	section(SectionExpenses, func() error {
		pending, err := s.stats.Expenses.SumByStatus(ctx, tenantID, model.ExpensePending)
		*stats.PendingExpenses = roundMoney(pending)
		return err
	})

	if scope.Sections[SectionRevenue] {
		stats.MonthToDateRevenue = new(float64)
	}
	section(SectionRevenue, func() error {
		today := now.UTC()
		monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		revenue, err := s.stats.Shipments.SumRevenue(ctx, tenantID, store.DateRange{From: monthStart, To: today})
		*stats.MonthToDateRevenue = roundMoney(revenue)
		return err
	})
	_ = g.Wait()

	sort.Strings(failed)
	stats.UnavailableSections = failed
	return stats
}
