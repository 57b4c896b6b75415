// Package search runs the global search: one small list call per resource,
// concurrently, sharing the term.
package search

import (
	"context"
	"strings"

	"transport-service/internal/model"
	"transport-service/internal/store"
	"transport-service/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SectionSize is how many hits each section returns
const SectionSize = 3

// Section names
const (
	SectionShipments = "shipments"
	SectionDrivers   = "drivers"
	SectionVehicles  = "vehicles"
	SectionEmployees = "employees"
	SectionExpenses  = "expenses"
)

type shipmentLister interface {
	List(ctx context.Context, tenantID uint, f store.ShipmentFilter, page store.Page) (*store.Result[model.Shipment], error)
}

type driverLister interface {
	List(ctx context.Context, tenantID uint, f store.DriverFilter, page store.Page) (*store.Result[model.Driver], error)
}

type vehicleLister interface {
	List(ctx context.Context, tenantID uint, f store.VehicleFilter, page store.Page) (*store.Result[model.Vehicle], error)
}

type employeeLister interface {
	List(ctx context.Context, tenantID uint, f store.EmployeeFilter, page store.Page) (*store.Result[model.Employee], error)
}

type expenseLister interface {
	List(ctx context.Context, tenantID uint, f store.ExpenseFilter, page store.Page) (*store.Result[model.Expense], error)
}

// Sources are the stores searched
type Sources struct {
	Shipments shipmentLister
	Drivers   driverLister
	Vehicles  vehicleLister
	Employees employeeLister
	Expenses  expenseLister
}

// Scope limits a search to what the caller may see
type Scope struct {
	TenantID uint
	// Sections the caller may list; others are left out of the result
	Sections map[string]bool
	// OwnDriverID restricts shipments to one driver, for DRIVER callers
	OwnDriverID *uint
}

// Results holds one slice per permitted section. Sections the caller may
// not list are omitted; a permitted section with no hits is an empty list.
type Results struct {
	Query     string            `json:"query"`
	Shipments *[]model.Shipment `json:"shipments,omitempty"`
	Drivers   *[]model.Driver   `json:"drivers,omitempty"`
	Vehicles  *[]model.Vehicle  `json:"vehicles,omitempty"`
	Employees *[]model.Employee `json:"employees,omitempty"`
	Expenses  *[]model.Expense  `json:"expenses,omitempty"`
}

// Service runs searches
type Service struct {
	src Sources
}

// NewService creates a search service
func NewService(src Sources) *Service {
	return &Service{src: src}
}

// Search queries every permitted section. A failing section is logged and
// returned empty; it never fails the whole search.
func (s *Service) Search(ctx context.Context, scope Scope, term string) *Results {
	term = strings.TrimSpace(term)
	res := &Results{Query: term}
	page := store.NewPage(1, SectionSize)
	log := logger.FromCtx(ctx)

	var g errgroup.Group
	section := func(name string, fn func() error) {
		if !scope.Sections[name] {
			return
		}
		g.Go(func() error {
			if err := fn(); err != nil {
				log.Warn("Search section failed",
					zap.String("section", name),
					zap.Uint("tenant_id", scope.TenantID),
					zap.Error(err))
			}
			return nil
		})
	}

	if scope.Sections[SectionShipments] {
		res.Shipments = &[]model.Shipment{}
	}
	section(SectionShipments, func() error {
		r, err := s.src.Shipments.List(ctx, scope.TenantID, store.ShipmentFilter{Search: term, DriverID: scope.OwnDriverID}, page)
		if err == nil {
			*res.Shipments = r.Items
		}
		return err
	})

	if scope.Sections[SectionDrivers] {
		res.Drivers = &[]model.Driver{}
	}
	section(SectionDrivers, func() error {
		r, err := s.src.Drivers.List(ctx, scope.TenantID, store.DriverFilter{Search: term}, page)
		if err == nil {
			*res.Drivers = r.Items
		}
		return err
	})

	if scope.Sections[SectionVehicles] {
		res.Vehicles = &[]model.Vehicle{}
	}
	section(SectionVehicles, func() error {
		r, err := s.src.Vehicles.List(ctx, scope.TenantID, store.VehicleFilter{Search: term}, page)
		if err == nil {
			*res.Vehicles = r.Items
		}
		return err
	})

	if scope.Sections[SectionEmployees] {
		res.Employees = &[]model.Employee{}
	}
	section(SectionEmployees, func() error {
		r, err := s.src.Employees.List(ctx, scope.TenantID, store.EmployeeFilter{Search: term}, page)
		if err == nil {
			*res.Employees = r.Items
		}
		return err
	})

	if scope.Sections[SectionExpenses] {
		res.Expenses = &[]model.Expense{}
	}
	section(SectionExpenses, func() error {
		r, err := s.src.Expenses.List(ctx, scope.TenantID, store.ExpenseFilter{Search: term}, page)
		if err == nil {
			*res.Expenses = r.Items
		}
		return err
	})

	_ = g.Wait()
	return res
}
