package inventory

import (
	"time"
)

// ItemStatus 库存项状态
type ItemStatus string

const (
	ItemStatusActive       ItemStatus = "ACTIVE"       // 可售
	ItemStatusInactive     ItemStatus = "INACTIVE"     // 暂停（不接受新预留）
	ItemStatusDiscontinued ItemStatus = "DISCONTINUED" // 停产
)

// Valid 是否为合法状态
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusActive, ItemStatusInactive, ItemStatusDiscontinued:
		return true
	}
	return false
}

// Item 库存项（聚合根），每个 (ProductID, WarehouseID) 一行
//
// 教学要点:
// 1. Available + Reserved 只能通过带流水的操作改变（预留、确认、入库、损耗...）
// 2. Version 是乐观锁令牌，仓储在Save时比较并递增
// 3. 不物理删除，停用时把Status置为INACTIVE/DISCONTINUED
type Item struct {
	ID          uint
	ProductID   string
	SKU         string // 全局唯一
	WarehouseID string

	Available int // 可售数量（未被预留）
	Reserved  int // 被ACTIVE预留占用的数量
	Incoming  int // 在途数量（已下采购单未入库）

	MinStockLevel   int
	MaxStockLevel   int
	ReorderPoint    int
	ReorderQuantity int

	Status  ItemStatus
	Version int64

	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

// Thresholds 库存阈值
type Thresholds struct {
	MinStockLevel   int
	MaxStockLevel   int
	ReorderPoint    int
	ReorderQuantity int
}

// NewItem 创建库存项（首次在某仓库上架某SKU）
func NewItem(productID, sku, warehouseID string, initial int, th Thresholds, now time.Time) (*Item, error) {
	if initial < 0 {
		return nil, ErrInvalidQuantity
	}
	if err := th.Validate(); err != nil {
		return nil, err
	}
	return &Item{
		ProductID:       productID,
		SKU:             sku,
		WarehouseID:     warehouseID,
		Available:       initial,
		MinStockLevel:   th.MinStockLevel,
		MaxStockLevel:   th.MaxStockLevel,
		ReorderPoint:    th.ReorderPoint,
		ReorderQuantity: th.ReorderQuantity,
		Status:          ItemStatusActive,
		CreatedAt:       now,
		LastUpdatedAt:   now,
	}, nil
}

// Validate 阈值校验：max > min，reorderPoint <= max，均非负
func (t Thresholds) Validate() error {
	if t.MinStockLevel < 0 || t.ReorderPoint < 0 || t.ReorderQuantity < 0 {
		return ErrInvalidThresholds
	}
	if t.MaxStockLevel <= t.MinStockLevel {
		return ErrInvalidThresholds
	}
	if t.ReorderPoint > t.MaxStockLevel {
		return ErrInvalidThresholds
	}
	return nil
}

// Thresholds 当前阈值
func (i *Item) Thresholds() Thresholds {
	return Thresholds{
		MinStockLevel:   i.MinStockLevel,
		MaxStockLevel:   i.MaxStockLevel,
		ReorderPoint:    i.ReorderPoint,
		ReorderQuantity: i.ReorderQuantity,
	}
}

// SetThresholds 更新阈值
func (i *Item) SetThresholds(th Thresholds, now time.Time) error {
	if err := th.Validate(); err != nil {
		return err
	}
	i.MinStockLevel = th.MinStockLevel
	i.MaxStockLevel = th.MaxStockLevel
	i.ReorderPoint = th.ReorderPoint
	i.ReorderQuantity = th.ReorderQuantity
	i.LastUpdatedAt = now
	return nil
}

// SetStatus 更新状态
func (i *Item) SetStatus(status ItemStatus, now time.Time) error {
	if !status.Valid() {
		return ErrInvalidParams
	}
	i.Status = status
	i.LastUpdatedAt = now
	return nil
}

// IsLowStock 可售数量 <= 补货点
func (i *Item) IsLowStock() bool {
	return i.Available <= i.ReorderPoint
}

// IsOutOfStock 可售数量 <= 0
func (i *Item) IsOutOfStock() bool {
	return i.Available <= 0
}

// OnHand 实物库存 = 可售 + 已预留
func (i *Item) OnHand() int {
	return i.Available + i.Reserved
}

// Hold 预留：可售转为已预留
func (i *Item) Hold(quantity int, now time.Time) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if i.Status != ItemStatusActive {
		return ErrItemInactive
	}
	if i.Available < quantity {
		return &InsufficientStockError{SKU: i.SKU, Requested: quantity, Available: i.Available}
	}
	i.Available -= quantity
	i.Reserved += quantity
	i.LastUpdatedAt = now
	return nil
}

// Consume 确认预留：已预留数量永久离开库存（出库/发货）
func (i *Item) Consume(quantity int, now time.Time) error {
	if quantity < 1 || i.Reserved < quantity {
		return ErrCounterUnderflow
	}
	i.Reserved -= quantity
	i.LastUpdatedAt = now
	return nil
}

// Release 取消或过期：已预留数量回到可售
func (i *Item) Release(quantity int, now time.Time) error {
	if quantity < 1 || i.Reserved < quantity {
		return ErrCounterUnderflow
	}
	i.Reserved -= quantity
	i.Available += quantity
	i.LastUpdatedAt = now
	return nil
}

// Receive 入库：可售增加，在途最多减少同样数量
func (i *Item) Receive(quantity int, now time.Time) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	i.Available += quantity
	i.Incoming -= min(i.Incoming, quantity)
	i.LastUpdatedAt = now
	return nil
}

// Expect 登记在途数量（采购单已下）
func (i *Item) Expect(quantity int, now time.Time) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	i.Incoming += quantity
	i.LastUpdatedAt = now
	return nil
}

// Adjust 盘点调整，delta可正可负，调整后可售不能为负
func (i *Item) Adjust(delta int, now time.Time) error {
	if delta == 0 {
		return ErrInvalidQuantity
	}
	if i.Available+delta < 0 {
		return &InsufficientStockError{SKU: i.SKU, Requested: -delta, Available: i.Available}
	}
	i.Available += delta
	i.LastUpdatedAt = now
	return nil
}

// Remove 损耗/丢失/调出：从可售中扣减
func (i *Item) Remove(quantity int, now time.Time) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if i.Available < quantity {
		return &InsufficientStockError{SKU: i.SKU, Requested: quantity, Available: i.Available}
	}
	i.Available -= quantity
	i.LastUpdatedAt = now
	return nil
}

// Add 退货/调入：可售增加
func (i *Item) Add(quantity int, now time.Time) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	i.Available += quantity
	i.LastUpdatedAt = now
	return nil
}
