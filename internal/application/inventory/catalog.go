package inventory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
)

// CreateItemRequest 上架库存项
type CreateItemRequest struct {
	ProductID       string
	SKU             string
	WarehouseID     string
	InitialQuantity int
	Thresholds      inventory.Thresholds
	PerformedBy     string
}

// CreateItem 首次在某仓库上架某SKU；初始数量记一条INBOUND流水
func (e *Engine) CreateItem(ctx context.Context, req CreateItemRequest) (*inventory.Item, error) {
	if req.ProductID == "" || req.SKU == "" || req.WarehouseID == "" {
		return nil, inventory.ErrInvalidParams
	}

	var result *inventory.Item
	err := e.execute(ctx, "create_item", func(ctx context.Context) ([]inventory.Event, error) {
		now := e.now()

		item, err := inventory.NewItem(req.ProductID, req.SKU, req.WarehouseID, req.InitialQuantity, req.Thresholds, now)
		if err != nil {
			return nil, err
		}
		if err := e.items.Create(ctx, item); err != nil {
			return nil, err
		}

		if req.InitialQuantity > 0 {
			m := inventory.NewInboundMovement(item, inventory.InboundParams{
				SKU:         item.SKU,
				Quantity:    req.InitialQuantity,
				PerformedBy: req.PerformedBy,
				Notes:       "initial stock",
			}, 0, now)
			if err := e.movements.Create(ctx, m); err != nil {
				return nil, err
			}
		}

		result = item
		return []inventory.Event{inventory.NewStockEvent(inventory.EventStockChanged, item, req.InitialQuantity, "create_item", now)}, nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("库存项已创建",
		zap.String("sku", result.SKU),
		zap.String("product_id", result.ProductID),
		zap.String("warehouse_id", result.WarehouseID),
		zap.Int("available", result.Available))
	return result, nil
}

// GetItem 按SKU查询
func (e *Engine) GetItem(ctx context.Context, sku string) (*inventory.Item, error) {
	return e.items.Get(ctx, sku)
}

// ListItems 分页查询库存项
func (e *Engine) ListItems(ctx context.Context, params inventory.ListParams) ([]*inventory.Item, int64, error) {
	return e.items.List(ctx, params.Normalize())
}

// ListLowStock 需要补货的库存项
func (e *Engine) ListLowStock(ctx context.Context, limit int) ([]*inventory.Item, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return e.items.ListLowStock(ctx, limit)
}

// UpdateThresholds 修改补货阈值
func (e *Engine) UpdateThresholds(ctx context.Context, sku string, th inventory.Thresholds) (*inventory.Item, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	return e.mutateItem(ctx, "update_thresholds", sku, func(item *inventory.Item, now time.Time) (*inventory.Movement, error) {
		return nil, item.SetThresholds(th, now)
	})
}

// SetStatus 启用/暂停/停产，库存项不物理删除
// 已有的ACTIVE预留不受影响，仍可确认或取消
func (e *Engine) SetStatus(ctx context.Context, sku string, status inventory.ItemStatus) (*inventory.Item, error) {
	if !status.Valid() {
		return nil, inventory.ErrInvalidParams
	}
	return e.mutateItem(ctx, "set_status", sku, func(item *inventory.Item, now time.Time) (*inventory.Movement, error) {
		return nil, item.SetStatus(status, now)
	})
}

// ListMovements 某SKU的库存流水（最新的在前）
func (e *Engine) ListMovements(ctx context.Context, sku string, params inventory.ListParams) ([]*inventory.Movement, int64, error) {
	item, err := e.items.Get(ctx, sku)
	if err != nil {
		return nil, 0, err
	}
	return e.movements.ListByItem(ctx, item.ID, params.Normalize())
}

// GetReservation 查询预留单
func (e *Engine) GetReservation(ctx context.Context, id string) (*inventory.Reservation, error) {
	return e.reservations.FindByID(ctx, id)
}

// ListReservationsByOrder 订单下所有预留单
func (e *Engine) ListReservationsByOrder(ctx context.Context, orderID string) ([]*inventory.Reservation, error) {
	if orderID == "" {
		return nil, inventory.ErrInvalidParams
	}
	return e.reservations.ListByOrder(ctx, orderID)
}

// ListReservationsByCustomer 客户的所有预留单
func (e *Engine) ListReservationsByCustomer(ctx context.Context, customerID string) ([]*inventory.Reservation, error) {
	if customerID == "" {
		return nil, inventory.ErrInvalidParams
	}
	return e.reservations.ListByCustomer(ctx, customerID)
}
