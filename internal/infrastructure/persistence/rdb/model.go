package rdb

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
)

// InventoryItemModel GORM库存项模型
// 设计说明:
// 1. SKU唯一索引；(product_id, warehouse_id)唯一，一个商品在一个仓库只有一行
// 2. version是乐观锁列，每次写入加1
// 3. check约束保证计数器非负（MySQL 8.0.16+ / PostgreSQL）
type InventoryItemModel struct {
	ID              uint      `gorm:"primaryKey"`
	ProductID       string    `gorm:"size:64;not null;uniqueIndex:uk_product_warehouse;comment:商品ID"`
	SKU             string    `gorm:"column:sku;size:64;not null;uniqueIndex;comment:SKU"`
	WarehouseID     string    `gorm:"size:64;not null;uniqueIndex:uk_product_warehouse;comment:仓库ID"`
	Available       int       `gorm:"not null;default:0;check:chk_available,available >= 0;comment:可售数量"`
	Reserved        int       `gorm:"not null;default:0;check:chk_reserved,reserved >= 0;comment:已预留数量"`
	Incoming        int       `gorm:"not null;default:0;check:chk_incoming,incoming >= 0;comment:在途数量"`
	MinStockLevel   int       `gorm:"not null;default:0;comment:最低库存"`
	MaxStockLevel   int       `gorm:"not null;default:0;comment:最高库存"`
	ReorderPoint    int       `gorm:"not null;default:0;index;comment:补货点"`
	ReorderQuantity int       `gorm:"not null;default:0;comment:补货数量"`
	Status          string    `gorm:"size:16;not null;index;comment:状态(ACTIVE/INACTIVE/DISCONTINUED)"`
	Version         int64     `gorm:"not null;default:1;comment:乐观锁版本号"`
	CreatedAt       time.Time `gorm:"comment:创建时间"`
	LastUpdatedAt   time.Time `gorm:"comment:最后更新时间"`
}

// TableName 指定表名
func (InventoryItemModel) TableName() string {
	return "inventory_items"
}

// StockReservationModel GORM预留单模型
// 教学要点:
// 1. 主键是UUID字符串，由领域层生成
// 2. (status, expires_at)复合索引服务于过期扫描
type StockReservationModel struct {
	ID                 string     `gorm:"primaryKey;size:36"`
	InventoryItemID    uint       `gorm:"not null;index;comment:库存项ID"`
	OrderID            string     `gorm:"size:64;not null;index;comment:订单ID"`
	CustomerID         string     `gorm:"size:64;not null;index;comment:客户ID"`
	Quantity           int        `gorm:"not null;check:chk_quantity,quantity > 0;comment:数量"`
	Status             string     `gorm:"size:16;not null;index:idx_status_expires,priority:1;comment:状态"`
	ExpiresAt          time.Time  `gorm:"not null;index:idx_status_expires,priority:2;comment:过期时间"`
	CreatedAt          time.Time  `gorm:"index;comment:创建时间"`
	ConfirmedAt        *time.Time `gorm:"comment:确认时间"`
	CancelledAt        *time.Time `gorm:"comment:取消/过期时间"`
	CancellationReason string     `gorm:"size:255;comment:取消原因"`
}

// TableName 指定表名
func (StockReservationModel) TableName() string {
	return "stock_reservations"
}

// StockMovementModel GORM库存流水模型（只增不改）
type StockMovementModel struct {
	ID               uint                `gorm:"primaryKey"`
	InventoryItemID  uint                `gorm:"not null;index;comment:库存项ID"`
	MovementType     string              `gorm:"size:16;not null;comment:流水类型"`
	Bucket           string              `gorm:"size:16;not null;comment:计数器(AVAILABLE/RESERVED)"`
	Quantity         int                 `gorm:"not null;comment:变化量(带符号)"`
	PreviousQuantity int                 `gorm:"not null;comment:变化前"`
	NewQuantity      int                 `gorm:"not null;comment:变化后"`
	Reason           string              `gorm:"size:128;comment:原因"`
	ReferenceNumber  string              `gorm:"size:64;index;comment:参考号(预留单ID/采购单号)"`
	OrderID          string              `gorm:"size:64;comment:订单ID"`
	SupplierID       string              `gorm:"size:64;comment:供应商ID"`
	UnitCost         decimal.NullDecimal `gorm:"type:decimal(14,4);comment:单位成本"`
	TotalCost        decimal.NullDecimal `gorm:"type:decimal(18,4);comment:总成本"`
	PerformedBy      string              `gorm:"size:64;comment:操作人"`
	Notes            string              `gorm:"size:500;comment:备注"`
	CreatedAt        time.Time           `gorm:"index;comment:创建时间"`
}

// TableName 指定表名
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// =========================================
// 辅助函数:模型转换
// =========================================

func toItemModel(i *inventory.Item) *InventoryItemModel {
	return &InventoryItemModel{
		ID:              i.ID,
		ProductID:       i.ProductID,
		SKU:             i.SKU,
		WarehouseID:     i.WarehouseID,
		Available:       i.Available,
		Reserved:        i.Reserved,
		Incoming:        i.Incoming,
		MinStockLevel:   i.MinStockLevel,
		MaxStockLevel:   i.MaxStockLevel,
		ReorderPoint:    i.ReorderPoint,
		ReorderQuantity: i.ReorderQuantity,
		Status:          string(i.Status),
		Version:         i.Version,
		CreatedAt:       i.CreatedAt,
		LastUpdatedAt:   i.LastUpdatedAt,
	}
}

func toItemEntity(m *InventoryItemModel) *inventory.Item {
	return &inventory.Item{
		ID:              m.ID,
		ProductID:       m.ProductID,
		SKU:             m.SKU,
		WarehouseID:     m.WarehouseID,
		Available:       m.Available,
		Reserved:        m.Reserved,
		Incoming:        m.Incoming,
		MinStockLevel:   m.MinStockLevel,
		MaxStockLevel:   m.MaxStockLevel,
		ReorderPoint:    m.ReorderPoint,
		ReorderQuantity: m.ReorderQuantity,
		Status:          inventory.ItemStatus(m.Status),
		Version:         m.Version,
		CreatedAt:       m.CreatedAt,
		LastUpdatedAt:   m.LastUpdatedAt,
	}
}

func toReservationModel(r *inventory.Reservation) *StockReservationModel {
	return &StockReservationModel{
		ID:                 r.ID,
		InventoryItemID:    r.ItemID,
		OrderID:            r.OrderID,
		CustomerID:         r.CustomerID,
		Quantity:           r.Quantity,
		Status:             string(r.Status),
		ExpiresAt:          r.ExpiresAt,
		CreatedAt:          r.CreatedAt,
		ConfirmedAt:        r.ConfirmedAt,
		CancelledAt:        r.CancelledAt,
		CancellationReason: r.CancellationReason,
	}
}

func toReservationEntity(m *StockReservationModel) *inventory.Reservation {
	return &inventory.Reservation{
		ID:                 m.ID,
		ItemID:             m.InventoryItemID,
		OrderID:            m.OrderID,
		CustomerID:         m.CustomerID,
		Quantity:           m.Quantity,
		Status:             inventory.ReservationStatus(m.Status),
		ExpiresAt:          m.ExpiresAt,
		CreatedAt:          m.CreatedAt,
		ConfirmedAt:        m.ConfirmedAt,
		CancelledAt:        m.CancelledAt,
		CancellationReason: m.CancellationReason,
	}
}

func toMovementModel(m *inventory.Movement) *StockMovementModel {
	return &StockMovementModel{
		InventoryItemID:  m.ItemID,
		MovementType:     string(m.Type),
		Bucket:           string(m.Bucket),
		Quantity:         m.Quantity,
		PreviousQuantity: m.PreviousQuantity,
		NewQuantity:      m.NewQuantity,
		Reason:           m.Reason,
		ReferenceNumber:  m.ReferenceNumber,
		OrderID:          m.OrderID,
		SupplierID:       m.SupplierID,
		UnitCost:         m.UnitCost,
		TotalCost:        m.TotalCost,
		PerformedBy:      m.PerformedBy,
		Notes:            m.Notes,
		CreatedAt:        m.CreatedAt,
	}
}

func toMovementEntity(m *StockMovementModel) *inventory.Movement {
	return &inventory.Movement{
		ID:               m.ID,
		ItemID:           m.InventoryItemID,
		Type:             inventory.MovementType(m.MovementType),
		Bucket:           inventory.Bucket(m.Bucket),
		Quantity:         m.Quantity,
		PreviousQuantity: m.PreviousQuantity,
		NewQuantity:      m.NewQuantity,
		Reason:           m.Reason,
		ReferenceNumber:  m.ReferenceNumber,
		OrderID:          m.OrderID,
		SupplierID:       m.SupplierID,
		UnitCost:         m.UnitCost,
		TotalCost:        m.TotalCost,
		PerformedBy:      m.PerformedBy,
		Notes:            m.Notes,
		CreatedAt:        m.CreatedAt,
	}
}
