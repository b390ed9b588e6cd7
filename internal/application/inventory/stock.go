package inventory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
)

// AdjustmentRequest 盘点调整
type AdjustmentRequest struct {
	SKU         string
	Delta       int // 正数盘盈，负数盘亏
	Reason      string
	PerformedBy string
}

// ShrinkageRequest 损坏或丢失
type ShrinkageRequest struct {
	SKU         string
	Quantity    int
	Kind        inventory.MovementType // DAMAGE | THEFT
	Reason      string
	PerformedBy string
}

// ReturnRequest 客户退货
type ReturnRequest struct {
	SKU         string
	Quantity    int
	OrderID     string
	Reason      string
	PerformedBy string
}

// TransferRequest 同一商品在两个库存项（仓库）之间调拨
type TransferRequest struct {
	FromSKU     string
	ToSKU       string
	Quantity    int
	Reason      string
	PerformedBy string
}

// mutateItem 单个库存项的变动模板：加锁读、修改、CAS写回、写一条流水
// change返回要写的流水，nil表示本次变动不影响 available + reserved
func (e *Engine) mutateItem(
	ctx context.Context,
	op, sku string,
	change func(item *inventory.Item, now time.Time) (*inventory.Movement, error),
) (*inventory.Item, error) {
	var result *inventory.Item
	err := e.execute(ctx, op, func(ctx context.Context) ([]inventory.Event, error) {
		now := e.now()

		item, err := e.items.GetForUpdate(ctx, sku)
		if err != nil {
			return nil, err
		}
		version := item.Version
		wasLow := item.IsLowStock()

		m, err := change(item, now)
		if err != nil {
			return nil, err
		}
		if err := e.items.Save(ctx, item, version); err != nil {
			return nil, err
		}
		if m != nil {
			if err := e.movements.Create(ctx, m); err != nil {
				return nil, err
			}
		}

		result = item
		events := []inventory.Event{inventory.NewStockEvent(inventory.EventStockChanged, item, movementDelta(m), op, now)}
		return append(events, lowStockEvent(item, wasLow, now)...), nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func movementDelta(m *inventory.Movement) int {
	if m == nil {
		return 0
	}
	return m.Quantity
}

// RecordInbound 采购入库：可售增加，在途最多减少同样数量
func (e *Engine) RecordInbound(ctx context.Context, p inventory.InboundParams) (*inventory.Item, error) {
	if p.Quantity < 1 {
		return nil, inventory.ErrInvalidQuantity
	}
	if p.UnitCost.Valid && p.UnitCost.Decimal.IsNegative() {
		return nil, inventory.ErrInvalidParams
	}

	item, err := e.mutateItem(ctx, "inbound", p.SKU, func(item *inventory.Item, now time.Time) (*inventory.Movement, error) {
		before := item.Available
		if err := item.Receive(p.Quantity, now); err != nil {
			return nil, err
		}
		return inventory.NewInboundMovement(item, p, before, now), nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("采购入库",
		zap.String("sku", p.SKU),
		zap.Int("quantity", p.Quantity),
		zap.String("supplier_id", p.SupplierID),
		zap.String("reference_number", p.ReferenceNumber))
	return item, nil
}

// RecordAdjustment 盘点调整，调整后可售不能为负
func (e *Engine) RecordAdjustment(ctx context.Context, req AdjustmentRequest) (*inventory.Item, error) {
	if req.Delta == 0 {
		return nil, inventory.ErrInvalidQuantity
	}

	item, err := e.mutateItem(ctx, "adjustment", req.SKU, func(item *inventory.Item, now time.Time) (*inventory.Movement, error) {
		before := item.Available
		if err := item.Adjust(req.Delta, now); err != nil {
			return nil, err
		}
		return inventory.NewAdjustmentMovement(item, req.Delta, before, req.Reason, req.PerformedBy, now), nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("库存盘点调整",
		zap.String("sku", req.SKU),
		zap.Int("delta", req.Delta),
		zap.String("performed_by", req.PerformedBy))
	return item, nil
}

// RecordDamageOrTheft 损坏或丢失，只能扣减可售数量（已预留的货不受影响）
func (e *Engine) RecordDamageOrTheft(ctx context.Context, req ShrinkageRequest) (*inventory.Item, error) {
	if req.Kind != inventory.MovementDamage && req.Kind != inventory.MovementTheft {
		return nil, inventory.ErrInvalidParams
	}
	if req.Quantity < 1 {
		return nil, inventory.ErrInvalidQuantity
	}

	item, err := e.mutateItem(ctx, "shrinkage", req.SKU, func(item *inventory.Item, now time.Time) (*inventory.Movement, error) {
		before := item.Available
		if err := item.Remove(req.Quantity, now); err != nil {
			return nil, err
		}
		return inventory.NewShrinkageMovement(item, req.Kind, req.Quantity, before, req.Reason, req.PerformedBy, now), nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Warn("记录库存损耗",
		zap.String("sku", req.SKU),
		zap.String("kind", string(req.Kind)),
		zap.Int("quantity", req.Quantity),
		zap.String("reason", req.Reason))
	return item, nil
}

// RecordReturn 客户退货重新入可售
func (e *Engine) RecordReturn(ctx context.Context, req ReturnRequest) (*inventory.Item, error) {
	if req.Quantity < 1 {
		return nil, inventory.ErrInvalidQuantity
	}

	return e.mutateItem(ctx, "return", req.SKU, func(item *inventory.Item, now time.Time) (*inventory.Movement, error) {
		before := item.Available
		if err := item.Add(req.Quantity, now); err != nil {
			return nil, err
		}
		return inventory.NewCustomerReturnMovement(item, req.Quantity, before, req.OrderID, req.Reason, req.PerformedBy, now), nil
	})
}

// ExpectIncoming 登记在途数量，不写流水（available + reserved 不变）
func (e *Engine) ExpectIncoming(ctx context.Context, sku string, quantity int) (*inventory.Item, error) {
	if quantity < 1 {
		return nil, inventory.ErrInvalidQuantity
	}

	return e.mutateItem(ctx, "incoming", sku, func(item *inventory.Item, now time.Time) (*inventory.Movement, error) {
		return nil, item.Expect(quantity, now)
	})
}

// TransferStock 调拨：调出方可售减少，调入方可售增加，一个事务内完成
// 两个库存项必须属于同一商品；按SKU字典序加锁，避免两个反向调拨互相等待
func (e *Engine) TransferStock(ctx context.Context, req TransferRequest) (from, to *inventory.Item, err error) {
	if req.Quantity < 1 {
		return nil, nil, inventory.ErrInvalidQuantity
	}
	if req.FromSKU == req.ToSKU {
		return nil, nil, inventory.ErrInvalidTransfer
	}

	err = e.execute(ctx, "transfer", func(ctx context.Context) ([]inventory.Event, error) {
		now := e.now()

		first, second := req.FromSKU, req.ToSKU
		if second < first {
			first, second = second, first
		}
		locked := make(map[string]*inventory.Item, 2)
		for _, sku := range []string{first, second} {
			item, err := e.items.GetForUpdate(ctx, sku)
			if err != nil {
				return nil, err
			}
			locked[sku] = item
		}
		src, dst := locked[req.FromSKU], locked[req.ToSKU]

		if src.ProductID != dst.ProductID {
			return nil, inventory.ErrInvalidTransfer
		}
		if dst.Status == inventory.ItemStatusDiscontinued {
			return nil, inventory.ErrItemInactive
		}

		srcVersion, dstVersion := src.Version, dst.Version
		srcBefore, dstBefore := src.Available, dst.Available
		srcWasLow := src.IsLowStock()

		if err := src.Remove(req.Quantity, now); err != nil {
			return nil, err
		}
		if err := dst.Add(req.Quantity, now); err != nil {
			return nil, err
		}

		if err := e.items.Save(ctx, src, srcVersion); err != nil {
			return nil, err
		}
		if err := e.items.Save(ctx, dst, dstVersion); err != nil {
			return nil, err
		}
		out := inventory.NewTransferMovement(src, -req.Quantity, srcBefore, dst.SKU, req.Reason, req.PerformedBy, now)
		in := inventory.NewTransferMovement(dst, req.Quantity, dstBefore, src.SKU, req.Reason, req.PerformedBy, now)
		if err := e.movements.Create(ctx, out); err != nil {
			return nil, err
		}
		if err := e.movements.Create(ctx, in); err != nil {
			return nil, err
		}

		from, to = src, dst
		events := []inventory.Event{
			inventory.NewStockEvent(inventory.EventStockChanged, src, -req.Quantity, "transfer", now),
			inventory.NewStockEvent(inventory.EventStockChanged, dst, req.Quantity, "transfer", now),
		}
		return append(events, lowStockEvent(src, srcWasLow, now)...), nil
	})
	if err != nil {
		return nil, nil, err
	}

	e.log.Info("库存调拨",
		zap.String("from_sku", req.FromSKU),
		zap.String("to_sku", req.ToSKU),
		zap.Int("quantity", req.Quantity))
	return from, to, nil
}
