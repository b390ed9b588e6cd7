package inventory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
)

// ReserveRequest 预留请求DTO
type ReserveRequest struct {
	SKU        string
	Quantity   int
	OrderID    string
	CustomerID string
	ExpiresAt  *time.Time // nil表示 now + DefaultHold
}

// Reserve 预留库存
//
// 核心问题:超卖
// 场景:SKU可售10件,100个请求同时各预留1件
// 做法:乐观锁
//  1. 事务内读库存项(SQL存储额外加FOR UPDATE)
//  2. 校验可售数量并扣减
//  3. Save(item, version) 比较并交换，版本被别人推进则整个事务重来
//  4. 同一事务内创建预留单、写OUTBOUND流水
//
// 结果:最多10个请求成功，其余返回InsufficientStockError
func (e *Engine) Reserve(ctx context.Context, req ReserveRequest) (*inventory.Reservation, error) {
	if req.Quantity < 1 {
		return nil, inventory.ErrInvalidQuantity
	}

	var result *inventory.Reservation
	err := e.execute(ctx, "reserve", func(ctx context.Context) ([]inventory.Event, error) {
		now := e.now()

		item, err := e.items.GetForUpdate(ctx, req.SKU)
		if err != nil {
			return nil, err
		}
		if item.Status != inventory.ItemStatusActive {
			return nil, inventory.ErrItemInactive
		}

		expiresAt := now.Add(e.cfg.DefaultHold)
		if req.ExpiresAt != nil {
			expiresAt = *req.ExpiresAt
		}

		version := item.Version
		availableBefore := item.Available
		wasLow := item.IsLowStock()

		r, err := inventory.NewReservation(item.ID, req.OrderID, req.CustomerID, req.Quantity, expiresAt, now)
		if err != nil {
			return nil, err
		}
		if err := item.Hold(req.Quantity, now); err != nil {
			return nil, err
		}

		if err := e.items.Save(ctx, item, version); err != nil {
			return nil, err
		}
		if err := e.reservations.Create(ctx, r); err != nil {
			return nil, err
		}
		if err := e.movements.Create(ctx, inventory.NewHoldMovement(item, r, availableBefore, now)); err != nil {
			return nil, err
		}

		result = r
		events := []inventory.Event{inventory.NewReservationEvent(inventory.EventReservationCreated, item, r, now)}
		return append(events, lowStockEvent(item, wasLow, now)...), nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("库存预留成功",
		zap.String("sku", req.SKU),
		zap.String("reservation_id", result.ID),
		zap.String("order_id", result.OrderID),
		zap.Int("quantity", result.Quantity),
		zap.Time("expires_at", result.ExpiresAt))
	return result, nil
}
