package dto

import (
	"time"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
)

// TimeLayout 响应中的时间格式
const TimeLayout = "2006-01-02 15:04:05"

// ReserveRequest HTTP预留请求
// expires_at为空时使用默认预留时长（engine.default_hold）
type ReserveRequest struct {
	SKU        string     `json:"sku" binding:"required,max=64" example:"BOOK-001-SH"`
	Quantity   int        `json:"quantity" binding:"required,min=1,max=100000" example:"2"`
	OrderID    string     `json:"order_id" binding:"required,max=64" example:"ORD1699248000123456"`
	CustomerID string     `json:"customer_id" binding:"max=64" example:"cust-1001"`
	ExpiresAt  *time.Time `json:"expires_at" example:"2024-11-06T10:30:00Z"`
}

// CancelRequest HTTP取消预留请求
type CancelRequest struct {
	Reason string `json:"reason" binding:"max=255" example:"customer cancelled"`
}

// ListReservationsRequest 按订单或客户查询，二选一
type ListReservationsRequest struct {
	OrderID    string `form:"order_id" binding:"omitempty,max=64" example:"ORD1699248000123456"`
	CustomerID string `form:"customer_id" binding:"omitempty,max=64" example:"cust-1001"`
}

// ReservationResponse HTTP预留单响应
type ReservationResponse struct {
	ID                 string `json:"id" example:"4f6b1c1e-8d7a-4d0a-9a0e-0a1b2c3d4e5f"`
	ItemID             uint   `json:"item_id" example:"1"`
	OrderID            string `json:"order_id" example:"ORD1699248000123456"`
	CustomerID         string `json:"customer_id,omitempty" example:"cust-1001"`
	Quantity           int    `json:"quantity" example:"2"`
	Status             string `json:"status" example:"ACTIVE"`
	ExpiresAt          string `json:"expires_at" example:"2024-11-06 11:00:00"`
	CreatedAt          string `json:"created_at" example:"2024-11-06 10:30:00"`
	ConfirmedAt        string `json:"confirmed_at,omitempty" example:"2024-11-06 10:40:00"`
	CancelledAt        string `json:"cancelled_at,omitempty"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
}

// ReserveOrderRequest HTTP整单预留请求
type ReserveOrderRequest struct {
	CustomerID string           `json:"customer_id" binding:"max=64" example:"cust-1001"`
	Lines      []OrderLineInput `json:"lines" binding:"required,min=1,max=100,dive"`
	ExpiresAt  *time.Time       `json:"expires_at"`
}

// OrderLineInput 订单中的一个SKU
type OrderLineInput struct {
	SKU      string `json:"sku" binding:"required,max=64" example:"BOOK-001-SH"`
	Quantity int    `json:"quantity" binding:"required,min=1,max=100000" example:"2"`
}

// OrderReservationsResponse 订单下的预留单
type OrderReservationsResponse struct {
	OrderID      string                 `json:"order_id" example:"ORD1699248000123456"`
	Reservations []*ReservationResponse `json:"reservations"`
}

// NewReservationResponse 领域对象 → 响应
func NewReservationResponse(r *inventory.Reservation) *ReservationResponse {
	resp := &ReservationResponse{
		ID:                 r.ID,
		ItemID:             r.ItemID,
		OrderID:            r.OrderID,
		CustomerID:         r.CustomerID,
		Quantity:           r.Quantity,
		Status:             string(r.Status),
		ExpiresAt:          r.ExpiresAt.Format(TimeLayout),
		CreatedAt:          r.CreatedAt.Format(TimeLayout),
		CancellationReason: r.CancellationReason,
	}
	if r.ConfirmedAt != nil {
		resp.ConfirmedAt = r.ConfirmedAt.Format(TimeLayout)
	}
	if r.CancelledAt != nil {
		resp.CancelledAt = r.CancelledAt.Format(TimeLayout)
	}
	return resp
}

// NewReservationList 批量转换
func NewReservationList(list []*inventory.Reservation) []*ReservationResponse {
	out := make([]*ReservationResponse, 0, len(list))
	for _, r := range list {
		out = append(out, NewReservationResponse(r))
	}
	return out
}
