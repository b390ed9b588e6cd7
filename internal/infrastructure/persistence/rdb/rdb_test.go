package rdb

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
	"github.com/xiebiao/inventory-reservation/internal/infrastructure/config"
)

func TestIsDuplicateError(t *testing.T) {
	assert.False(t, isDuplicateError(nil))
	assert.True(t, isDuplicateError(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicateError(fmt.Errorf("wrap: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, isDuplicateError(errors.New("Error 1062 (23000): Duplicate entry 'SKU-1' for key 'sku'")))
	assert.True(t, isDuplicateError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_inventory_items_sku" (SQLSTATE 23505)`)))
	assert.False(t, isDuplicateError(errors.New("connection refused")))
}

func TestOpenDialector(t *testing.T) {
	d, err := openDialector(config.DatabaseConfig{Driver: "mysql"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	d, err = openDialector(config.DatabaseConfig{Driver: "postgres"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = openDialector(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestModelMapping(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("库存项", func(t *testing.T) {
		item := &inventory.Item{
			ID: 7, ProductID: "P", SKU: "S", WarehouseID: "W",
			Available: 3, Reserved: 2, Incoming: 1,
			MaxStockLevel: 10, ReorderPoint: 4,
			Status: inventory.ItemStatusInactive, Version: 5,
			CreatedAt: now, LastUpdatedAt: now,
		}
		assert.Equal(t, item, toItemEntity(toItemModel(item)))
	})

	t.Run("预留单可空时间", func(t *testing.T) {
		r := &inventory.Reservation{
			ID: "r-1", ItemID: 7, OrderID: "o", CustomerID: "c", Quantity: 2,
			Status: inventory.ReservationCancelled, ExpiresAt: now, CreatedAt: now,
			CancelledAt: &now, CancellationReason: "x",
		}
		back := toReservationEntity(toReservationModel(r))
		assert.Equal(t, r, back)
		assert.Nil(t, back.ConfirmedAt)
	})

	t.Run("流水成本", func(t *testing.T) {
		m := &inventory.Movement{
			ItemID: 7, Type: inventory.MovementInbound, Bucket: inventory.BucketAvailable,
			Quantity: 4, NewQuantity: 4,
			UnitCost:  decimal.NewNullDecimal(decimal.RequireFromString("1.25")),
			TotalCost: decimal.NewNullDecimal(decimal.RequireFromString("5")),
			CreatedAt: now,
		}
		model := toMovementModel(m)
		model.ID = 9
		back := toMovementEntity(model)
		assert.Equal(t, uint(9), back.ID)
		assert.True(t, back.TotalCost.Decimal.Equal(decimal.NewFromInt(5)))
		assert.Equal(t, inventory.MovementInbound, back.Type)
	})
}
