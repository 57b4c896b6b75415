package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"transport-service/internal/model"
	"transport-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStats struct{ mock.Mock }

func (m *mockStats) CountByStatus(ctx context.Context, tenantID uint, driverID *uint) (map[model.ShipmentStatus]int64, error) {
	args := m.Called(ctx, tenantID, driverID)
	counts, _ := args.Get(0).(map[model.ShipmentStatus]int64)
	return counts, args.Error(1)
}

func (m *mockStats) SumRevenue(ctx context.Context, tenantID uint, r store.DateRange) (float64, error) {
	args := m.Called(ctx, tenantID, r)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockStats) Counts(ctx context.Context, tenantID uint) (int64, int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *mockStats) SumByStatus(ctx context.Context, tenantID uint, status model.ExpenseStatus) (float64, error) {
	args := m.Called(ctx, tenantID, status)
	return args.Get(0).(float64), args.Error(1)
}

type countFunc func() (int64, error)

func (f countFunc) Count(context.Context, uint) (int64, error) { return f() }

func allSections() map[string]bool {
	return map[string]bool{
		SectionShipments: true,
		SectionVehicles:  true,
		SectionDrivers:   true,
		SectionEmployees: true,
		SectionExpenses:  true,
		SectionRevenue:   true,
	}
}

func TestDashboardIsolatesFailures(t *testing.T) {
	stats := &mockStats{}
	stats.On("CountByStatus", mock.Anything, uint(3), (*uint)(nil)).Return(map[model.ShipmentStatus]int64{
		model.ShipmentPending:   2,
		model.ShipmentDelivered: 5,
	}, nil)
	stats.On("Counts", mock.Anything, uint(3)).Return(int64(0), int64(0), errors.New("timeout"))
	stats.On("SumByStatus", mock.Anything, uint(3), model.ExpensePending).Return(1250.5, nil)
	stats.On("SumRevenue", mock.Anything, uint(3), store.DateRange{
		From: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC),
	}).Return(4200.0, nil)

	svc := NewService(nil, nil, StatsSources{
		Shipments: stats,
		Vehicles:  stats,
		Drivers:   countFunc(func() (int64, error) { return 4, nil }),
		Employees: countFunc(func() (int64, error) { return 0, errors.New("gone") }),
		Expenses:  stats,
	})

	got := svc.Dashboard(context.Background(), DashboardScope{TenantID: 3, Sections: allSections()},
		time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC))

	require.NotNil(t, got.TotalShipments)
	assert.Equal(t, int64(7), *got.TotalShipments)
	assert.Equal(t, int64(0), got.ShipmentsByStatus[model.ShipmentInProgress])
	require.NotNil(t, got.TotalDrivers)
	assert.Equal(t, int64(4), *got.TotalDrivers)
	require.NotNil(t, got.PendingExpenses)
	assert.Equal(t, 1250.5, *got.PendingExpenses)
	require.NotNil(t, got.MonthToDateRevenue)
	assert.Equal(t, 4200.0, *got.MonthToDateRevenue)
	require.NotNil(t, got.TotalVehicles)
	assert.Equal(t, int64(0), *got.TotalVehicles)
	assert.Equal(t, []string{"employees", "vehicles"}, got.UnavailableSections)
	stats.AssertExpectations(t)
}

func TestDashboardSkipsSectionsOutsideScope(t *testing.T) {
	driverID := uint(9)
	stats := &mockStats{}
	stats.On("CountByStatus", mock.Anything, uint(3), &driverID).Return(map[model.ShipmentStatus]int64{
		model.ShipmentInProgress: 1,
	}, nil)
	stats.On("Counts", mock.Anything, uint(3)).Return(int64(6), int64(2), nil)

	failing := countFunc(func() (int64, error) { return 0, errors.New("must not be called") })
	svc := NewService(nil, nil, StatsSources{
		Shipments: stats,
		Vehicles:  stats,
		Drivers:   failing,
		Employees: failing,
		Expenses:  stats,
	})

	got := svc.Dashboard(context.Background(), DashboardScope{
		TenantID:    3,
		Sections:    map[string]bool{SectionShipments: true, SectionVehicles: true},
		OwnDriverID: &driverID,
	}, time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC))

	require.NotNil(t, got.TotalShipments)
	assert.Equal(t, int64(1), *got.TotalShipments)
	require.NotNil(t, got.AvailableVehicles)
	assert.Equal(t, int64(2), *got.AvailableVehicles)
	assert.Nil(t, got.TotalDrivers)
	assert.Nil(t, got.TotalEmployees)
	assert.Nil(t, got.PendingExpenses)
	assert.Nil(t, got.MonthToDateRevenue)
	assert.Empty(t, got.UnavailableSections)
	stats.AssertNotCalled(t, "SumByStatus", mock.Anything, mock.Anything, mock.Anything)
	stats.AssertNotCalled(t, "SumRevenue", mock.Anything, mock.Anything, mock.Anything)
	stats.AssertExpectations(t)
}
