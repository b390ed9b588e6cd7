package inventory

import (
	"time"

	"github.com/google/uuid"
)

// ReservationStatus 预留状态
//
// 状态机: ACTIVE → {CONFIRMED, CANCELLED, EXPIRED}，三个都是终态
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "ACTIVE"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationExpired   ReservationStatus = "EXPIRED"
)

// IsTerminal 是否为终态
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationConfirmed || s == ReservationCancelled || s == ReservationExpired
}

// DefaultHold 默认预留时长
const DefaultHold = 30 * time.Minute

// Reservation 预留单：对某个库存项可售数量的限时占用
//
// "已过期"在被清理任务处理前是派生状态：Status仍为ACTIVE，但 now >= ExpiresAt。
// 这种预留不能再确认，但仍可以取消（先到先得）。
type Reservation struct {
	ID                 string
	ItemID             uint
	OrderID            string
	CustomerID         string
	Quantity           int
	Status             ReservationStatus
	ExpiresAt          time.Time
	CreatedAt          time.Time
	ConfirmedAt        *time.Time
	CancelledAt        *time.Time
	CancellationReason string
}

// NewReservation 创建ACTIVE预留单
func NewReservation(itemID uint, orderID, customerID string, quantity int, expiresAt, now time.Time) (*Reservation, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if !expiresAt.After(now) {
		return nil, ErrInvalidExpiry
	}
	return &Reservation{
		ID:         uuid.NewString(),
		ItemID:     itemID,
		OrderID:    orderID,
		CustomerID: customerID,
		Quantity:   quantity,
		Status:     ReservationActive,
		ExpiresAt:  expiresAt,
		CreatedAt:  now,
	}, nil
}

// IsExpired ACTIVE且已到期（尚未被清理）
func (r *Reservation) IsExpired(now time.Time) bool {
	return r.Status == ReservationActive && !now.Before(r.ExpiresAt)
}

// CanConfirm status == ACTIVE && now < expiresAt
func (r *Reservation) CanConfirm(now time.Time) bool {
	return r.Status == ReservationActive && now.Before(r.ExpiresAt)
}

// CanCancel status == ACTIVE（到期未清理的也可以取消）
func (r *Reservation) CanCancel() bool {
	return r.Status == ReservationActive
}

// Confirm ACTIVE → CONFIRMED
func (r *Reservation) Confirm(now time.Time) error {
	if !r.CanConfirm(now) {
		reason := string(r.Status)
		if r.IsExpired(now) {
			reason = "expired"
		}
		return &InvalidStateError{ReservationID: r.ID, Status: r.Status, Op: "confirm", Reason: reason}
	}
	r.Status = ReservationConfirmed
	r.ConfirmedAt = &now
	return nil
}

// Cancel ACTIVE → CANCELLED
func (r *Reservation) Cancel(reason string, now time.Time) error {
	if !r.CanCancel() {
		return &InvalidStateError{ReservationID: r.ID, Status: r.Status, Op: "cancel", Reason: string(r.Status)}
	}
	r.Status = ReservationCancelled
	r.CancelledAt = &now
	r.CancellationReason = reason
	return nil
}

// Expire ACTIVE且到期 → EXPIRED
func (r *Reservation) Expire(now time.Time) error {
	if !r.IsExpired(now) {
		return &InvalidStateError{ReservationID: r.ID, Status: r.Status, Op: "expire", Reason: string(r.Status)}
	}
	r.Status = ReservationExpired
	r.CancelledAt = &now
	r.CancellationReason = "reservation expired"
	return nil
}
