package inventory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
)

// Confirm 确认预留：已预留数量永久离开库存（发货）
// 预留单已过期（即使还未被清理）时返回InvalidStateError，调用方需要重新预留
func (e *Engine) Confirm(ctx context.Context, reservationID string) (*inventory.Reservation, error) {
	var result *inventory.Reservation
	err := e.execute(ctx, "confirm", func(ctx context.Context) ([]inventory.Event, error) {
		now := e.now()

		r, err := e.reservations.FindByID(ctx, reservationID)
		if err != nil {
			return nil, err
		}
		from := r.Status
		if err := r.Confirm(now); err != nil {
			return nil, err
		}

		item, err := e.items.GetByIDForUpdate(ctx, r.ItemID)
		if err != nil {
			return nil, err
		}
		version := item.Version
		reservedBefore := item.Reserved
		if err := item.Consume(r.Quantity, now); err != nil {
			return nil, err
		}

		if err := e.items.Save(ctx, item, version); err != nil {
			return nil, err
		}
		// WHERE status='ACTIVE'：与取消/过期清理竞争时只有一方成功
		if err := e.reservations.Transition(ctx, r, from); err != nil {
			return nil, err
		}
		if err := e.movements.Create(ctx, inventory.NewConfirmMovement(item, r, reservedBefore, now)); err != nil {
			return nil, err
		}

		result = r
		return []inventory.Event{inventory.NewReservationEvent(inventory.EventReservationConfirmed, item, r, now)}, nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("预留已确认",
		zap.String("reservation_id", result.ID),
		zap.String("order_id", result.OrderID),
		zap.Int("quantity", result.Quantity))
	return result, nil
}

// Cancel 取消预留：已预留数量回到可售
// 已到期但尚未被清理的预留单仍可取消，与过期清理先到先得
func (e *Engine) Cancel(ctx context.Context, reservationID, reason string) (*inventory.Reservation, error) {
	var result *inventory.Reservation
	err := e.execute(ctx, "cancel", func(ctx context.Context) ([]inventory.Event, error) {
		now := e.now()

		r, err := e.reservations.FindByID(ctx, reservationID)
		if err != nil {
			return nil, err
		}
		from := r.Status
		if err := r.Cancel(reason, now); err != nil {
			return nil, err
		}

		item, err := e.release(ctx, r, from, now)
		if err != nil {
			return nil, err
		}
		result = r
		return []inventory.Event{inventory.NewReservationEvent(inventory.EventReservationCancelled, item, r, now)}, nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("预留已取消",
		zap.String("reservation_id", result.ID),
		zap.String("order_id", result.OrderID),
		zap.String("reason", reason))
	return result, nil
}

// expire 过期一条预留单；已是终态或尚未到期时返回false，不算错误
func (e *Engine) expire(ctx context.Context, reservationID string) (bool, error) {
	expired := false
	err := e.execute(ctx, "expire", func(ctx context.Context) ([]inventory.Event, error) {
		expired = false
		now := e.now()

		r, err := e.reservations.FindByID(ctx, reservationID)
		if err != nil {
			return nil, err
		}
		if r.Status.IsTerminal() || !r.IsExpired(now) {
			return nil, nil
		}
		from := r.Status
		if err := r.Expire(now); err != nil {
			return nil, err
		}

		item, err := e.release(ctx, r, from, now)
		if err != nil {
			return nil, err
		}
		expired = true
		return []inventory.Event{inventory.NewReservationEvent(inventory.EventReservationExpired, item, r, now)}, nil
	})
	return expired, err
}

// release 取消和过期共用：计数器还原、预留单条件更新、写RETURN流水
func (e *Engine) release(ctx context.Context, r *inventory.Reservation, from inventory.ReservationStatus, now time.Time) (*inventory.Item, error) {
	item, err := e.items.GetByIDForUpdate(ctx, r.ItemID)
	if err != nil {
		return nil, err
	}
	version := item.Version
	availableBefore := item.Available
	if err := item.Release(r.Quantity, now); err != nil {
		return nil, err
	}

	if err := e.items.Save(ctx, item, version); err != nil {
		return nil, err
	}
	if err := e.reservations.Transition(ctx, r, from); err != nil {
		return nil, err
	}
	if err := e.movements.Create(ctx, inventory.NewReleaseMovement(item, r, availableBefore, now)); err != nil {
		return nil, err
	}
	return item, nil
}
