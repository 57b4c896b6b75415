//go:build integration

package store

import (
	"context"
	"sync"
	"testing"

	"transport-service/internal/apperr"
	"transport-service/internal/model"
	"transport-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestPostgresStores(t *testing.T) {
	db := testutil.NewPostgresDB(t)
	ctx := context.Background()

	acme := testutil.Tenant(t, db, "acme")
	other := testutil.Tenant(t, db, "other")

	t.Run("unique bill per tenant", func(t *testing.T) {
		shipments := NewShipmentStore(db)
		require.NoError(t, shipments.Create(ctx, acme.ID, shipmentFixture("PG-1", day(2024, 3, 1))))
		assert.ErrorIs(t, shipments.Create(ctx, acme.ID, shipmentFixture("PG-1", day(2024, 3, 2))), apperr.ErrConflict)
		assert.NoError(t, shipments.Create(ctx, other.ID, shipmentFixture("PG-1", day(2024, 3, 2))))

		// the index itself rejects a duplicate that skips the pre-check
		dup := shipmentFixture("PG-1", day(2024, 3, 3))
		dup.TenantID = acme.ID
		dup.Status = model.ShipmentPending
		err := db.Create(dup).Error
		assert.True(t, apperr.IsDuplicate(err), "got %v", err)
	})

	t.Run("case insensitive search", func(t *testing.T) {
		shipments := NewShipmentStore(db)
		res, err := shipments.List(ctx, acme.ID, ShipmentFilter{Search: "balaji"}, NewPage(1, 10))
		require.NoError(t, err)
		assert.EqualValues(t, 1, res.Total)
	})

	t.Run("concurrent assignment keeps one holder", func(t *testing.T) {
		drivers := NewDriverStore(db)
		v := testutil.Vehicle(t, db, acme.ID, "KA-09-0001")

		var ids []uint
		for _, email := range []string{"d1@acme.test", "d2@acme.test", "d3@acme.test", "d4@acme.test"} {
			d, err := drivers.Create(ctx, acme.ID, NewDriver{Name: email, Email: email, PasswordHash: "x", Phone: "9845012345", LicenseNumber: email})
			require.NoError(t, err)
			ids = append(ids, d.ID)
		}

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for _, id := range ids {
			wg.Add(1)
			go func(id uint) {
				defer wg.Done()
				if _, err := drivers.AssignVehicle(ctx, acme.ID, id, v.ID); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}(id)
		}
		wg.Wait()
		assert.Equal(t, 1, wins)

		var holders int64
		require.NoError(t, db.Model(&model.Driver{}).Where("vehicle_id = ?", v.ID).Count(&holders).Error)
		assert.EqualValues(t, 1, holders)
	})

	t.Run("json settings round trip", func(t *testing.T) {
		settings := NewSettingsStore(db)
		_, err := settings.Update(ctx, datatypes.JSONMap{"supportEmail": "help@platform.test"})
		require.NoError(t, err)

		got, err := settings.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "help@platform.test", got.Settings["supportEmail"])
	})

	t.Run("expense sums", func(t *testing.T) {
		expenses := NewExpenseStore(db)
		require.NoError(t, expenses.Create(ctx, acme.ID, &model.Expense{Title: "Diesel", Amount: 2000.25, Date: day(2024, 3, 5), Category: model.ExpenseFuel}))
		require.NoError(t, expenses.Create(ctx, acme.ID, &model.Expense{Title: "Toll", Amount: 99.75, Date: day(2024, 3, 6), Category: model.ExpenseToll}))

		pending, err := expenses.SumByStatus(ctx, acme.ID, model.ExpensePending)
		require.NoError(t, err)
		assert.InDelta(t, 2100.0, pending, 0.001)

		rows, err := expenses.Rows(ctx, other.ID, DateRange{})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}
