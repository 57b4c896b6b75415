package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"transport-service/internal/apperr"
	"transport-service/internal/model"
	"transport-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func shipmentFixture(billNo string, date time.Time) *model.Shipment {
	return &model.Shipment{
		BillNo:         billNo,
		Date:           date,
		ConsignorName:  "Sri Balaji Traders",
		ConsigneeName:  "Kaveri Agencies",
		Weight:         120,
		FreightCharges: 500,
		HamaliCharges:  100,
		PaymentMethod:  model.PaymentToPay,
		Source:         "Hubli",
		Destination:    "Bengaluru",
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewPage(t *testing.T) {
	assert.Equal(t, Page{Page: 1, PageSize: 10}, NewPage(0, 0))
	assert.Equal(t, Page{Page: 3, PageSize: 100}, NewPage(3, 500))
	assert.Equal(t, 20, NewPage(3, 10).Offset())
}

func TestShipmentListPagination(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.Tenant(t, db, "acme")
	shipments := NewShipmentStore(db)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		require.NoError(t, shipments.Create(ctx, tenant.ID, shipmentFixture(fmt.Sprintf("B-%03d", i), day(2024, 3, 1).AddDate(0, 0, i))))
	}

	res, err := shipments.List(ctx, tenant.ID, ShipmentFilter{}, NewPage(2, 10))
	require.NoError(t, err)
	assert.Len(t, res.Items, 10)
	assert.Equal(t, int64(25), res.Total)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 10, res.PageSize)
	// newest first: page 2 starts at the 11th newest bill
	assert.Equal(t, "B-014", res.Items[0].BillNo)

	last, err := shipments.List(ctx, tenant.ID, ShipmentFilter{}, NewPage(3, 10))
	require.NoError(t, err)
	assert.Len(t, last.Items, 5)
	assert.Equal(t, int64(25), last.Total)
}

func TestShipmentCreateRecomputesGrandTotal(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.Tenant(t, db, "acme")
	shipments := NewShipmentStore(db)
	ctx := context.Background()

	s := shipmentFixture("B-1", day(2024, 3, 1))
	s.GrandTotal = 999
	require.NoError(t, shipments.Create(ctx, tenant.ID, s))

	got, err := shipments.Get(ctx, tenant.ID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 600.0, got.GrandTotal)
	assert.Equal(t, model.ShipmentPending, got.Status)
	assert.Equal(t, tenant.ID, got.TenantID)
}

func TestShipmentBillNoUniquePerTenant(t *testing.T) {
	db := testutil.NewDB(t)
	acme := testutil.Tenant(t, db, "acme")
	other := testutil.Tenant(t, db, "other")
	shipments := NewShipmentStore(db)
	ctx := context.Background()

	require.NoError(t, shipments.Create(ctx, acme.ID, shipmentFixture("B-1", day(2024, 3, 1))))
	err := shipments.Create(ctx, acme.ID, shipmentFixture("B-1", day(2024, 3, 2)))
	assert.ErrorIs(t, err, apperr.ErrConflict)

	assert.NoError(t, shipments.Create(ctx, other.ID, shipmentFixture("B-1", day(2024, 3, 2))))
}

func TestShipmentUpdateAndStatus(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.Tenant(t, db, "acme")
	shipments := NewShipmentStore(db)
	ctx := context.Background()

	s := shipmentFixture("B-1", day(2024, 3, 1))
	require.NoError(t, shipments.Create(ctx, tenant.ID, s))

	edit := shipmentFixture("B-1A", day(2024, 3, 4))
	edit.OtherCharges = 50
	updated, err := shipments.Update(ctx, tenant.ID, s.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, "B-1A", updated.BillNo)
	assert.Equal(t, 650.0, updated.GrandTotal)

	moved, err := shipments.UpdateStatus(ctx, tenant.ID, s.ID, model.ShipmentDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.ShipmentDelivered, moved.Status)
	assert.Equal(t, "B-1A", moved.BillNo)
}

func TestShipmentSearchAndFilters(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.Tenant(t, db, "acme")
	shipments := NewShipmentStore(db)
	ctx := context.Background()

	a := shipmentFixture("HUB-1", day(2024, 1, 10))
	b := shipmentFixture("MYS-2", day(2024, 2, 10))
	b.Source = "Mysuru"
	b.PaymentMethod = model.PaymentPaid
	require.NoError(t, shipments.Create(ctx, tenant.ID, a))
	require.NoError(t, shipments.Create(ctx, tenant.ID, b))

	res, err := shipments.List(ctx, tenant.ID, ShipmentFilter{Search: "mys"}, NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "MYS-2", res.Items[0].BillNo)

	res, err = shipments.List(ctx, tenant.ID, ShipmentFilter{PaymentMethod: model.PaymentToPay}, NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)

	res, err = shipments.List(ctx, tenant.ID, ShipmentFilter{Dates: DateRange{From: day(2024, 2, 10), To: day(2024, 2, 10)}}, NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "MYS-2", res.Items[0].BillNo)
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.Tenant(t, db, "acme")
	vehicles := NewVehicleStore(db)
	ctx := context.Background()

	for _, number := range []string{"MH12AB1234", "KA01XY9999", "TN_07_1111", "RJ%5"} {
		testutil.Vehicle(t, db, tenant.ID, number)
	}

	for term, want := range map[string][]string{
		"_":    {"TN_07_1111"},
		"%":    {"RJ%5"},
		"n_0":  {"TN_07_1111"},
		`\`:    nil,
		"12ab": {"MH12AB1234"},
	} {
		res, err := vehicles.List(ctx, tenant.ID, VehicleFilter{Search: term}, NewPage(1, 10))
		require.NoError(t, err, term)
		var got []string
		for _, v := range res.Items {
			got = append(got, v.Number)
		}
		assert.ElementsMatch(t, want, got, "search %q", term)
	}

	shipments := NewShipmentStore(db)
	require.NoError(t, shipments.Create(ctx, tenant.ID, shipmentFixture("B-1", day(2024, 1, 10))))
	res, err := shipments.List(ctx, tenant.ID, ShipmentFilter{Source: "%"}, NewPage(1, 10))
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestTenantIsolation(t *testing.T) {
	db := testutil.NewDB(t)
	acme := testutil.Tenant(t, db, "acme")
	other := testutil.Tenant(t, db, "other")
	ctx := context.Background()

	vehicles := NewVehicleStore(db)
	shipments := NewShipmentStore(db)
	drivers := NewDriverStore(db)

	v := testutil.Vehicle(t, db, acme.ID, "KA-01-1234")
	_, err := vehicles.Get(ctx, other.ID, v.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = vehicles.Update(ctx, other.ID, v.ID, &model.Vehicle{Number: "X", Model: "Y", Capacity: 1})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.ErrorIs(t, vehicles.Delete(ctx, other.ID, v.ID), apperr.ErrNotFound)

	list, err := vehicles.List(ctx, other.ID, VehicleFilter{}, NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(0), list.Total)
	assert.Empty(t, list.Items)

	// a reference to another tenant's vehicle is rejected on write
	s := shipmentFixture("B-1", day(2024, 3, 1))
	s.VehicleID = &v.ID
	err = shipments.Create(ctx, other.ID, s)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	// and yields nothing as a filter value
	d, err := drivers.Create(ctx, acme.ID, NewDriver{Name: "Ravi", Email: "ravi@acme.test", PasswordHash: "x", Phone: "9845012345", LicenseNumber: "KA-DL-1"})
	require.NoError(t, err)
	mine := shipmentFixture("B-2", day(2024, 3, 1))
	mine.DriverID = &d.ID
	require.NoError(t, shipments.Create(ctx, acme.ID, mine))

	res, err := shipments.List(ctx, other.ID, ShipmentFilter{DriverID: &d.ID}, NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Total)

	_, err = drivers.AssignVehicle(ctx, other.ID, d.ID, v.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestVehicleAssignmentInvariant(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.Tenant(t, db, "acme")
	ctx := context.Background()

	vehicles := NewVehicleStore(db)
	drivers := NewDriverStore(db)

	v1 := testutil.Vehicle(t, db, tenant.ID, "KA-01-0001")
	v2 := testutil.Vehicle(t, db, tenant.ID, "KA-01-0002")
	d1, err := drivers.Create(ctx, tenant.ID, NewDriver{Name: "Ravi", Email: "ravi@acme.test", PasswordHash: "x", Phone: "9845012345", LicenseNumber: "DL-1", VehicleID: &v1.ID})
	require.NoError(t, err)
	d2, err := drivers.Create(ctx, tenant.ID, NewDriver{Name: "Suresh", Email: "suresh@acme.test", PasswordHash: "x", Phone: "9845012346", LicenseNumber: "DL-2"})
	require.NoError(t, err)

	require.NotNil(t, d1.VehicleID)
	assert.Equal(t, v1.ID, *d1.VehicleID)
	assertAvailable(t, vehicles, tenant.ID, v1.ID, false)

	// second driver cannot take a held vehicle
	_, err = drivers.AssignVehicle(ctx, tenant.ID, d2.ID, v1.ID)
	assert.ErrorIs(t, err, apperr.ErrVehicleUnavailable)

	// moving d1 to v2 releases v1
	res, err := drivers.AssignVehicle(ctx, tenant.ID, d1.ID, v2.ID)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	require.NotNil(t, res.ReleasedVehicleID)
	assert.Equal(t, v1.ID, *res.ReleasedVehicleID)
	assertAvailable(t, vehicles, tenant.ID, v1.ID, true)
	assertAvailable(t, vehicles, tenant.ID, v2.ID, false)

	// same pair again is a no-op
	res, err = drivers.AssignVehicle(ctx, tenant.ID, d1.ID, v2.ID)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assertAvailable(t, vehicles, tenant.ID, v2.ID, false)

	// now d2 can take v1
	_, err = drivers.AssignVehicle(ctx, tenant.ID, d2.ID, v1.ID)
	require.NoError(t, err)

	res, err = drivers.UnassignVehicle(ctx, tenant.ID, d1.ID)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Nil(t, res.Driver.VehicleID)
	assertAvailable(t, vehicles, tenant.ID, v2.ID, true)

	// availability is false exactly for referenced vehicles
	available, err := vehicles.List(ctx, tenant.ID, VehicleFilter{IsAvailable: boolPtr(true)}, NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, available.Items, 1)
	assert.Equal(t, v2.ID, available.Items[0].ID)
}

func TestDriverCreateRejectsHeldVehicleAtomically(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.Tenant(t, db, "acme")
	ctx := context.Background()
	drivers := NewDriverStore(db)
	users := NewUserStore(db)

	v := testutil.Vehicle(t, db, tenant.ID, "KA-01-0001")
	_, err := drivers.Create(ctx, tenant.ID, NewDriver{Name: "A", Email: "a@acme.test", PasswordHash: "x", Phone: "9845012345", LicenseNumber: "DL-1", VehicleID: &v.ID})
	require.NoError(t, err)

	_, err = drivers.Create(ctx, tenant.ID, NewDriver{Name: "B", Email: "b@acme.test", PasswordHash: "x", Phone: "9845012346", LicenseNumber: "DL-2", VehicleID: &v.ID})
	assert.ErrorIs(t, err, apperr.ErrVehicleUnavailable)

	// the rolled back user must not linger
	_, err = users.FindInTenant(ctx, tenant.ID, "b@acme.test")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = drivers.Create(ctx, tenant.ID, NewDriver{Name: "A2", Email: "A@acme.test", PasswordHash: "x", Phone: "9845012347", LicenseNumber: "DL-3"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestDeleteDriverCleansUp(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.Tenant(t, db, "acme")
	ctx := context.Background()
	drivers := NewDriverStore(db)
	vehicles := NewVehicleStore(db)
	shipments := NewShipmentStore(db)
	users := NewUserStore(db)

	v := testutil.Vehicle(t, db, tenant.ID, "KA-01-0001")
	d, err := drivers.Create(ctx, tenant.ID, NewDriver{Name: "Ravi", Email: "ravi@acme.test", PasswordHash: "x", Phone: "9845012345", LicenseNumber: "DL-1", VehicleID: &v.ID})
	require.NoError(t, err)
	s := shipmentFixture("B-1", day(2024, 3, 1))
	s.DriverID = &d.ID
	require.NoError(t, shipments.Create(ctx, tenant.ID, s))

	require.NoError(t, drivers.Delete(ctx, tenant.ID, d.ID))

	assertAvailable(t, vehicles, tenant.ID, v.ID, true)
	got, err := shipments.Get(ctx, tenant.ID, s.ID)
	require.NoError(t, err)
	assert.Nil(t, got.DriverID)
	_, err = users.Get(ctx, tenant.ID, d.UserID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteVehicleDetachesDriver(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.Tenant(t, db, "acme")
	ctx := context.Background()
	drivers := NewDriverStore(db)
	vehicles := NewVehicleStore(db)

	v := testutil.Vehicle(t, db, tenant.ID, "KA-01-0001")
	d, err := drivers.Create(ctx, tenant.ID, NewDriver{Name: "Ravi", Email: "ravi@acme.test", PasswordHash: "x", Phone: "9845012345", LicenseNumber: "DL-1", VehicleID: &v.ID})
	require.NoError(t, err)

	require.NoError(t, vehicles.Delete(ctx, tenant.ID, v.ID))

	got, err := drivers.Get(ctx, tenant.ID, d.ID)
	require.NoError(t, err)
	assert.Nil(t, got.VehicleID)
}

func TestDriverSearchMatchesUserName(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.Tenant(t, db, "acme")
	ctx := context.Background()
	drivers := NewDriverStore(db)

	_, err := drivers.Create(ctx, tenant.ID, NewDriver{Name: "Ravi Kumar", Email: "ravi@acme.test", PasswordHash: "x", Phone: "9845012345", LicenseNumber: "DL-1"})
	require.NoError(t, err)
	_, err = drivers.Create(ctx, tenant.ID, NewDriver{Name: "Suresh", Email: "suresh@acme.test", PasswordHash: "x", Phone: "9845012346", LicenseNumber: "DL-2"})
	require.NoError(t, err)

	res, err := drivers.List(ctx, tenant.ID, DriverFilter{Search: "KUMAR"}, NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	require.NotNil(t, res.Items[0].User)
	assert.Equal(t, "Ravi Kumar", res.Items[0].User.Name)

	res, err = drivers.List(ctx, tenant.ID, DriverFilter{HasVehicle: boolPtr(true)}, NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Total)
}

func TestGlobalSettingsUpsert(t *testing.T) {
	db := testutil.NewDB(t)
	settings := NewSettingsStore(db)
	ctx := context.Background()

	first, err := settings.Get(ctx)
	require.NoError(t, err)
	second, err := settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.GlobalSettingsID, first.ID)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&model.GlobalSettings{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	updated, err := settings.Update(ctx, datatypes.JSONMap{"maintenanceMode": true})
	require.NoError(t, err)
	assert.Equal(t, true, updated.Settings["maintenanceMode"])

	require.NoError(t, db.Model(&model.GlobalSettings{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTenantProvisioningAndListing(t *testing.T) {
	db := testutil.NewDB(t)
	tenants := NewTenantStore(db)
	ctx := context.Background()

	tenant := &model.Tenant{Name: "Acme", Slug: "ACME"}
	admin := &model.User{Name: "Owner", Email: "owner@acme.test", Password: "x"}
	require.NoError(t, tenants.CreateWithAdmin(ctx, tenant, admin))
	assert.Equal(t, "acme", tenant.Slug)
	assert.True(t, tenant.IsActive)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	err := tenants.CreateWithAdmin(ctx, &model.Tenant{Name: "Dup", Slug: "acme"}, &model.User{Name: "x", Email: "x@x.test", Password: "x"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	list, err := tenants.List(ctx, "", NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, int64(1), list.Items[0].UserCount)

	off, err := tenants.SetActive(ctx, tenant.ID, false)
	require.NoError(t, err)
	assert.False(t, off.IsActive)

	withSettings, err := tenants.UpdateSettings(ctx, tenant.ID, model.TenantSettings{Currency: "INR", InvoicePrefix: "AC"})
	require.NoError(t, err)
	assert.Equal(t, "INR", withSettings.Settings.Data().Currency)
}

func TestExpenseRowsAndSums(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.Tenant(t, db, "acme")
	expenses := NewExpenseStore(db)
	ctx := context.Background()

	require.NoError(t, expenses.Create(ctx, tenant.ID, &model.Expense{Title: "Diesel", Amount: 2000, Date: day(2024, 3, 5), Category: model.ExpenseFuel}))
	require.NoError(t, expenses.Create(ctx, tenant.ID, &model.Expense{Title: "March pay", Amount: 18000, Date: day(2024, 3, 31), Category: model.ExpenseSalary, Status: model.ExpensePaid}))
	require.NoError(t, expenses.Create(ctx, tenant.ID, &model.Expense{Title: "Old", Amount: 10, Date: day(2023, 12, 31), Category: model.ExpenseOther}))

	rows, err := expenses.Rows(ctx, tenant.ID, DateRange{From: day(2024, 1, 1), To: day(2024, 3, 31)})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	pending, err := expenses.SumByStatus(ctx, tenant.ID, model.ExpensePending)
	require.NoError(t, err)
	assert.Equal(t, 2010.0, pending)
}

func TestUserDeleteRemovesDriverProfile(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.Tenant(t, db, "acme")
	ctx := context.Background()
	drivers := NewDriverStore(db)
	users := NewUserStore(db)
	vehicles := NewVehicleStore(db)

	v := testutil.Vehicle(t, db, tenant.ID, "KA-01-0001")
	d, err := drivers.Create(ctx, tenant.ID, NewDriver{Name: "Ravi", Email: "ravi@acme.test", PasswordHash: "x", Phone: "9845012345", LicenseNumber: "DL-1", VehicleID: &v.ID})
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, tenant.ID, d.UserID))

	_, err = drivers.Get(ctx, tenant.ID, d.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assertAvailable(t, vehicles, tenant.ID, v.ID, true)
}

func assertAvailable(t *testing.T, vehicles *VehicleStore, tenantID, id uint, want bool) {
	t.Helper()
	v, err := vehicles.Get(context.Background(), tenantID, id)
	require.NoError(t, err)
	assert.Equal(t, want, v.IsAvailable, "vehicle %d availability", id)
}

func boolPtr(b bool) *bool { return &b }
