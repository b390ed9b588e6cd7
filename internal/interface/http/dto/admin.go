package dto

import (
	"github.com/shopspring/decimal"
)

// InboundRequest 采购入库
// unit_cost用字符串传输，避免浮点误差
type InboundRequest struct {
	SKU             string `json:"sku" binding:"required,max=64" example:"BOOK-001-SH"`
	Quantity        int    `json:"quantity" binding:"required,min=1" example:"100"`
	SupplierID      string `json:"supplier_id" binding:"max=64" example:"SUP-01"`
	ReferenceNumber string `json:"reference_number" binding:"max=64" example:"PO-20241106-001"`
	UnitCost        string `json:"unit_cost" binding:"omitempty,numeric" example:"12.50"`
	PerformedBy     string `json:"performed_by" binding:"max=64" example:"admin"`
	Notes           string `json:"notes" binding:"max=500"`
}

// ParseUnitCost 解析单价，为空时返回无效值
func (r InboundRequest) ParseUnitCost() (decimal.NullDecimal, error) {
	if r.UnitCost == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(r.UnitCost)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// AdjustmentRequest 盘点调整，delta正数盘盈、负数盘亏
type AdjustmentRequest struct {
	SKU         string `json:"sku" binding:"required,max=64" example:"BOOK-001-SH"`
	Delta       int    `json:"delta" binding:"required" example:"-3"`
	Reason      string `json:"reason" binding:"required,max=255" example:"盘点差异"`
	PerformedBy string `json:"performed_by" binding:"max=64" example:"admin"`
}

// DamageRequest 损坏或丢失
type DamageRequest struct {
	SKU         string `json:"sku" binding:"required,max=64" example:"BOOK-001-SH"`
	Quantity    int    `json:"quantity" binding:"required,min=1" example:"1"`
	Kind        string `json:"kind" binding:"required,oneof=DAMAGE THEFT" example:"DAMAGE"`
	Reason      string `json:"reason" binding:"max=255" example:"运输破损"`
	PerformedBy string `json:"performed_by" binding:"max=64" example:"admin"`
}

// ReturnRequest 客户退货
type ReturnRequest struct {
	SKU         string `json:"sku" binding:"required,max=64" example:"BOOK-001-SH"`
	Quantity    int    `json:"quantity" binding:"required,min=1" example:"1"`
	OrderID     string `json:"order_id" binding:"max=64" example:"ORD1699248000123456"`
	Reason      string `json:"reason" binding:"max=255" example:"七天无理由退货"`
	PerformedBy string `json:"performed_by" binding:"max=64" example:"admin"`
}

// TransferRequest 调拨
type TransferRequest struct {
	FromSKU     string `json:"from_sku" binding:"required,max=64" example:"BOOK-001-SH"`
	ToSKU       string `json:"to_sku" binding:"required,max=64,nefield=FromSKU" example:"BOOK-001-BJ"`
	Quantity    int    `json:"quantity" binding:"required,min=1" example:"10"`
	Reason      string `json:"reason" binding:"max=255" example:"区域补货"`
	PerformedBy string `json:"performed_by" binding:"max=64" example:"admin"`
}

// TransferResponse 调拨结果
type TransferResponse struct {
	From *ItemResponse `json:"from"`
	To   *ItemResponse `json:"to"`
}

// IncomingRequest 登记在途
type IncomingRequest struct {
	SKU      string `json:"sku" binding:"required,max=64" example:"BOOK-001-SH"`
	Quantity int    `json:"quantity" binding:"required,min=1" example:"200"`
}

// SweepResponse 手动过期清理结果
type SweepResponse struct {
	Processed int `json:"processed" example:"12"`
	Failed    int `json:"failed" example:"0"`
}
