package dto

import (
	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
)

// ThresholdsInput 补货阈值
// 约束：max_stock_level > min_stock_level，reorder_point <= max_stock_level
type ThresholdsInput struct {
	MinStockLevel   int `json:"min_stock_level" binding:"min=0" example:"5"`
	MaxStockLevel   int `json:"max_stock_level" binding:"required,min=1" example:"500"`
	ReorderPoint    int `json:"reorder_point" binding:"min=0" example:"20"`
	ReorderQuantity int `json:"reorder_quantity" binding:"min=0" example:"100"`
}

// ToDomain 转换为领域对象
func (t ThresholdsInput) ToDomain() inventory.Thresholds {
	return inventory.Thresholds{
		MinStockLevel:   t.MinStockLevel,
		MaxStockLevel:   t.MaxStockLevel,
		ReorderPoint:    t.ReorderPoint,
		ReorderQuantity: t.ReorderQuantity,
	}
}

// CreateItemRequest HTTP上架库存项请求
type CreateItemRequest struct {
	ProductID       string          `json:"product_id" binding:"required,max=64" example:"BOOK-001"`
	SKU             string          `json:"sku" binding:"required,max=64" example:"BOOK-001-SH"`
	WarehouseID     string          `json:"warehouse_id" binding:"required,max=64" example:"WH-SH"`
	InitialQuantity int             `json:"initial_quantity" binding:"min=0" example:"100"`
	Thresholds      ThresholdsInput `json:"thresholds" binding:"required"`
	PerformedBy     string          `json:"performed_by" binding:"max=64" example:"admin"`
}

// UpdateStatusRequest HTTP修改库存项状态请求
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE INACTIVE DISCONTINUED" example:"INACTIVE"`
}

// ListRequest 分页参数
type ListRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
}

// ToDomain 转换为领域分页参数（非法值由Normalize修正）
func (r ListRequest) ToDomain() inventory.ListParams {
	return inventory.ListParams{Page: r.Page, PageSize: r.PageSize}.Normalize()
}

// LowStockRequest 低库存查询
type LowStockRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500" example:"100"`
}

// ItemResponse HTTP库存项响应
type ItemResponse struct {
	ID              uint   `json:"id" example:"1"`
	ProductID       string `json:"product_id" example:"BOOK-001"`
	SKU             string `json:"sku" example:"BOOK-001-SH"`
	WarehouseID     string `json:"warehouse_id" example:"WH-SH"`
	Available       int    `json:"available" example:"98"`
	Reserved        int    `json:"reserved" example:"2"`
	Incoming        int    `json:"incoming" example:"0"`
	OnHand          int    `json:"on_hand" example:"100"` // 可售 + 已预留
	MinStockLevel   int    `json:"min_stock_level" example:"5"`
	MaxStockLevel   int    `json:"max_stock_level" example:"500"`
	ReorderPoint    int    `json:"reorder_point" example:"20"`
	ReorderQuantity int    `json:"reorder_quantity" example:"100"`
	LowStock        bool   `json:"low_stock" example:"false"`
	Status          string `json:"status" example:"ACTIVE"`
	Version         int64  `json:"version" example:"3"`
	CreatedAt       string `json:"created_at" example:"2024-11-06 10:30:00"`
	LastUpdatedAt   string `json:"last_updated_at" example:"2024-11-06 10:30:00"`
}

// NewItemResponse 领域对象 → 响应
func NewItemResponse(item *inventory.Item) *ItemResponse {
	return &ItemResponse{
		ID:              item.ID,
		ProductID:       item.ProductID,
		SKU:             item.SKU,
		WarehouseID:     item.WarehouseID,
		Available:       item.Available,
		Reserved:        item.Reserved,
		Incoming:        item.Incoming,
		OnHand:          item.OnHand(),
		MinStockLevel:   item.MinStockLevel,
		MaxStockLevel:   item.MaxStockLevel,
		ReorderPoint:    item.ReorderPoint,
		ReorderQuantity: item.ReorderQuantity,
		LowStock:        item.IsLowStock(),
		Status:          string(item.Status),
		Version:         item.Version,
		CreatedAt:       item.CreatedAt.Format(TimeLayout),
		LastUpdatedAt:   item.LastUpdatedAt.Format(TimeLayout),
	}
}

// NewItemList 批量转换
func NewItemList(items []*inventory.Item) []*ItemResponse {
	out := make([]*ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewItemResponse(item))
	}
	return out
}

// MovementResponse HTTP库存流水响应
type MovementResponse struct {
	ID               uint   `json:"id" example:"1"`
	ItemID           uint   `json:"item_id" example:"1"`
	Type             string `json:"type" example:"OUTBOUND"`
	Bucket           string `json:"bucket" example:"AVAILABLE"`
	Quantity         int    `json:"quantity" example:"-2"`
	PreviousQuantity int    `json:"previous_quantity" example:"100"`
	NewQuantity      int    `json:"new_quantity" example:"98"`
	Reason           string `json:"reason,omitempty" example:"reservation hold"`
	ReferenceNumber  string `json:"reference_number,omitempty"`
	OrderID          string `json:"order_id,omitempty"`
	SupplierID       string `json:"supplier_id,omitempty"`
	UnitCost         string `json:"unit_cost,omitempty" example:"12.50"`
	TotalCost        string `json:"total_cost,omitempty" example:"1250.00"`
	PerformedBy      string `json:"performed_by,omitempty"`
	Notes            string `json:"notes,omitempty"`
	CreatedAt        string `json:"created_at" example:"2024-11-06 10:30:00"`
}

// NewMovementResponse 领域对象 → 响应，金额保留两位小数
func NewMovementResponse(m *inventory.Movement) *MovementResponse {
	resp := &MovementResponse{
		ID:               m.ID,
		ItemID:           m.ItemID,
		Type:             string(m.Type),
		Bucket:           string(m.Bucket),
		Quantity:         m.Quantity,
		PreviousQuantity: m.PreviousQuantity,
		NewQuantity:      m.NewQuantity,
		Reason:           m.Reason,
		ReferenceNumber:  m.ReferenceNumber,
		OrderID:          m.OrderID,
		SupplierID:       m.SupplierID,
		PerformedBy:      m.PerformedBy,
		Notes:            m.Notes,
		CreatedAt:        m.CreatedAt.Format(TimeLayout),
	}
	if m.UnitCost.Valid {
		resp.UnitCost = m.UnitCost.Decimal.StringFixed(2)
	}
	if m.TotalCost.Valid {
		resp.TotalCost = m.TotalCost.Decimal.StringFixed(2)
	}
	return resp
}

// NewMovementList 批量转换
func NewMovementList(list []*inventory.Movement) []*MovementResponse {
	out := make([]*MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, NewMovementResponse(m))
	}
	return out
}
