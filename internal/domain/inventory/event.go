package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// 事件路由键
const (
	EventReservationCreated   = "reservation.created"
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationExpired   = "reservation.expired"
	EventStockLow             = "stock.low"
	EventStockChanged         = "stock.changed"
)

// Event 领域事件，事务提交后发布
type Event struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	OccurredAt    time.Time `json:"occurred_at"`
	SKU           string    `json:"sku"`
	ItemID        uint      `json:"item_id"`
	ReservationID string    `json:"reservation_id,omitempty"`
	OrderID       string    `json:"order_id,omitempty"`
	CustomerID    string    `json:"customer_id,omitempty"`
	Quantity      int       `json:"quantity"`
	Available     int       `json:"available"`
	Reserved      int       `json:"reserved"`
	Reason        string    `json:"reason,omitempty"`
}

// NewReservationEvent 预留单状态变化事件
func NewReservationEvent(typ string, item *Item, r *Reservation, now time.Time) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          typ,
		OccurredAt:    now,
		SKU:           item.SKU,
		ItemID:        item.ID,
		ReservationID: r.ID,
		OrderID:       r.OrderID,
		CustomerID:    r.CustomerID,
		Quantity:      r.Quantity,
		Available:     item.Available,
		Reserved:      item.Reserved,
		Reason:        r.CancellationReason,
	}
}

// NewStockEvent 库存变化事件（入库、调整、低库存）
func NewStockEvent(typ string, item *Item, quantity int, reason string, now time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		OccurredAt: now,
		SKU:        item.SKU,
		ItemID:     item.ID,
		Quantity:   quantity,
		Available:  item.Available,
		Reserved:   item.Reserved,
		Reason:     reason,
	}
}

// EventPublisher 事件发布接口，发布失败不影响已提交的业务结果
type EventPublisher interface {
	Publish(ctx context.Context, events ...Event) error
}
