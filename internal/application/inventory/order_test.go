package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
)

func TestEngine_ReserveOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("整单预留成功，共用一个过期时间", func(t *testing.T) {
		env := newTestEnv(t)
		env.createItem(t, "SKU-A", 10)
		env.createItem(t, "SKU-B", 10)

		list, err := env.engine.ReserveOrder(ctx, ReserveOrderRequest{
			OrderID:    "order-9",
			CustomerID: "cust-1",
			Lines:      []OrderLine{{SKU: "SKU-A", Quantity: 2}, {SKU: "SKU-B", Quantity: 3}},
		})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, list[0].ExpiresAt, list[1].ExpiresAt)
		assert.Equal(t, 8, env.item(t, "SKU-A").Available)
		assert.Equal(t, 7, env.item(t, "SKU-B").Available)
	})

	t.Run("第二行库存不足时补偿第一行", func(t *testing.T) {
		env := newTestEnv(t)
		env.createItem(t, "SKU-A", 10)
		env.createItem(t, "SKU-B", 1)

		_, err := env.engine.ReserveOrder(ctx, ReserveOrderRequest{
			OrderID: "order-9",
			Lines:   []OrderLine{{SKU: "SKU-A", Quantity: 2}, {SKU: "SKU-B", Quantity: 3}},
		})
		assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

		a := env.item(t, "SKU-A")
		assert.Equal(t, 10, a.Available)
		assert.Equal(t, 0, a.Reserved)

		list, err := env.engine.ListReservationsByOrder(ctx, "order-9")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, inventory.ReservationCancelled, list[0].Status)
		assert.Equal(t, ReasonOrderRollback, list[0].CancellationReason)
	})

	t.Run("参数校验", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.engine.ReserveOrder(ctx, ReserveOrderRequest{OrderID: "order-9"})
		assert.ErrorIs(t, err, inventory.ErrInvalidParams)

		_, err = env.engine.ReserveOrder(ctx, ReserveOrderRequest{
			OrderID: "order-9",
			Lines:   []OrderLine{{SKU: "SKU-A", Quantity: 0}},
		})
		assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
	})
}

func TestEngine_ConfirmOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("确认全部ACTIVE预留，跳过已取消的", func(t *testing.T) {
		env := newTestEnv(t)
		env.createItem(t, "SKU-A", 10)
		env.createItem(t, "SKU-B", 10)
		a := env.reserve(t, "SKU-A", 2)
		b := env.reserve(t, "SKU-B", 3)
		_, err := env.engine.Cancel(ctx, a.ID, "customer")
		require.NoError(t, err)

		list, err := env.engine.ConfirmOrder(ctx, "order-1")
		require.NoError(t, err)
		require.Len(t, list, 2)

		got := map[string]inventory.ReservationStatus{}
		for _, r := range list {
			got[r.ID] = r.Status
		}
		assert.Equal(t, inventory.ReservationCancelled, got[a.ID])
		assert.Equal(t, inventory.ReservationConfirmed, got[b.ID])

		item := env.item(t, "SKU-B")
		assert.Equal(t, 7, item.Available)
		assert.Equal(t, 0, item.Reserved)
	})

	t.Run("已过期的预留确认失败，其余照常确认", func(t *testing.T) {
		env := newTestEnv(t)
		env.createItem(t, "SKU-A", 10)
		env.createItem(t, "SKU-B", 10)
		expiresAt := env.clock.Now().Add(time.Minute)
		_, err := env.engine.Reserve(ctx, ReserveRequest{SKU: "SKU-A", Quantity: 1, OrderID: "order-1", ExpiresAt: &expiresAt})
		require.NoError(t, err)
		env.clock.Advance(2 * time.Minute)
		b := env.reserve(t, "SKU-B", 1)

		list, err := env.engine.ConfirmOrder(ctx, "order-1")
		assert.ErrorIs(t, err, inventory.ErrInvalidState)
		for _, r := range list {
			if r.ID == b.ID {
				assert.Equal(t, inventory.ReservationConfirmed, r.Status)
			}
		}
	})

	t.Run("订单没有预留单", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.engine.ConfirmOrder(ctx, "order-x")
		assert.ErrorIs(t, err, inventory.ErrReservationNotFound)
	})
}

func TestEngine_CancelOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createItem(t, "SKU-A", 10)
	env.createItem(t, "SKU-B", 10)
	env.reserve(t, "SKU-A", 2)
	env.reserve(t, "SKU-B", 3)

	list, err := env.engine.CancelOrder(ctx, "order-1", "order cancelled")
	require.NoError(t, err)
	for _, r := range list {
		assert.Equal(t, inventory.ReservationCancelled, r.Status)
		assert.Equal(t, "order cancelled", r.CancellationReason)
	}
	assert.Equal(t, 10, env.item(t, "SKU-A").Available)
	assert.Equal(t, 10, env.item(t, "SKU-B").Available)

	// 再取消一次：全部是终态，什么都不做
	_, err = env.engine.CancelOrder(ctx, "order-1", "again")
	assert.NoError(t, err)
}
