// Package handler exposes the REST API. Handlers bind and validate the
// request, call a store or service with the tenant resolved by middleware,
// and return errors for the central error handler to render.
package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"transport-service/internal/apperr"
	"transport-service/internal/events"
	"transport-service/internal/middleware"
	"transport-service/internal/model"
	"transport-service/internal/policy"
	"transport-service/internal/report"
	"transport-service/internal/search"
	"transport-service/internal/store"
	"transport-service/internal/tenant"
	"transport-service/pkg/jwtutil"
	"transport-service/pkg/validation"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Deps are the collaborators the handlers need
type Deps struct {
	DB          *gorm.DB
	JWT         *jwtutil.JWTUtil
	Policy      *policy.Table
	Events      *events.Emitter
	BaseDomain  string
	ServiceName string
}

// Handler serves every API route
type Handler struct {
	db          *gorm.DB
	jwt         *jwtutil.JWTUtil
	policy      *policy.Table
	resolver    *tenant.Resolver
	events      *events.Emitter
	serviceName string
	now         func() time.Time

	tenants   *store.TenantStore
	users     *store.UserStore
	shipments *store.ShipmentStore
	vehicles  *store.VehicleStore
	drivers   *store.DriverStore
	employees *store.EmployeeStore
	expenses  *store.ExpenseStore
	settings  *store.SettingsStore

	reports *report.Service
	search  *search.Service
}

// New wires the stores and services over one database
func New(d Deps) *Handler {
	h := &Handler{
		db:          d.DB,
		jwt:         d.JWT,
		policy:      d.Policy,
		events:      d.Events,
		serviceName: d.ServiceName,
		now:         time.Now,

		tenants:   store.NewTenantStore(d.DB),
		users:     store.NewUserStore(d.DB),
		shipments: store.NewShipmentStore(d.DB),
		vehicles:  store.NewVehicleStore(d.DB),
		drivers:   store.NewDriverStore(d.DB),
		employees: store.NewEmployeeStore(d.DB),
		expenses:  store.NewExpenseStore(d.DB),
		settings:  store.NewSettingsStore(d.DB),
	}
	if h.events == nil {
		h.events = events.NewEmitter(nil)
	}

	h.resolver = tenant.NewResolver(h.tenants, d.BaseDomain)
	h.reports = report.NewService(h.shipments, h.expenses, report.StatsSources{
		Shipments: h.shipments,
		Vehicles:  h.vehicles,
		Drivers:   h.drivers,
		Employees: h.employees,
		Expenses:  h.expenses,
	})
	h.search = search.NewService(search.Sources{
		Shipments: h.shipments,
		Drivers:   h.drivers,
		Vehicles:  h.vehicles,
		Employees: h.employees,
		Expenses:  h.expenses,
	})
	return h
}

// ListQuery holds the paging and search parameters every list accepts.
// limit is accepted as an alias of pageSize.
type ListQuery struct {
	Page     int    `query:"page"`
	PageSize int    `query:"pageSize"`
	Limit    int    `query:"limit"`
	Search   string `query:"search"`
	Q        string `query:"q"`
}

func (q ListQuery) page() store.Page {
	size := q.PageSize
	if size == 0 {
		size = q.Limit
	}
	return store.NewPage(q.Page, size)
}

func (q ListQuery) term() string {
	if q.Search != "" {
		return q.Search
	}
	return q.Q
}

// bindAndValidate binds the JSON body and runs the struct validators
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return bindError(err)
	}
	return c.Validate(req)
}

// bindQuery binds and validates query parameters only
func bindQuery(c echo.Context, req interface{}) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, req); err != nil {
		return bindError(err)
	}
	return c.Validate(req)
}

func bindError(err error) error {
	msg := "Invalid request body"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
	}
	return apperr.ErrValidation.WithMessage("%s", msg).Wrap(err)
}

// parseID reads a positive integer path parameter
func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation(name, name+" must be a positive integer")
	}
	return uint(id), nil
}

func optionalUint(field, value string) (*uint, error) {
	if value == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return nil, apperr.Validation(field, field+" must be a positive integer")
	}
	v := uint(id)
	return &v, nil
}

func optionalBool(field, value string) (*bool, error) {
	if value == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, apperr.Validation(field, field+" must be true or false")
	}
	return &b, nil
}

// dateRange parses two optional YYYY-MM-DD bounds
func dateRange(fromField, from, toField, to string) (store.DateRange, error) {
	var r store.DateRange
	if from != "" {
		t, err := validation.ParseDate(from)
		if err != nil {
			return r, apperr.Validation(fromField, fromField+" must be a date in YYYY-MM-DD format")
		}
		r.From = t
	}
	if to != "" {
		t, err := validation.ParseDate(to)
		if err != nil {
			return r, apperr.Validation(toField, toField+" must be a date in YYYY-MM-DD format")
		}
		r.To = t
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return r, apperr.Validation(toField, toField+" must not be before "+fromField)
	}
	return r, nil
}

// mustDate parses a date already checked by the date validator
func mustDate(field, value string) (time.Time, error) {
	t, err := validation.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, apperr.Validation(field, field+" must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

// ownDriverID returns the caller's driver profile id for DRIVER callers and
// nil for every other role.
func (h *Handler) ownDriverID(c echo.Context, tenantID uint) (*uint, error) {
	if middleware.Role(c) != model.RoleDriver {
		return nil, nil
	}
	userID, err := middleware.MustUserID(c)
	if err != nil {
		return nil, err
	}
	driver, err := h.drivers.GetByUser(c.Request().Context(), tenantID, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrForbidden.WithMessage("No driver profile is linked to this account")
		}
		return nil, err
	}
	return &driver.ID, nil
}
