package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType 库存流水类型
type MovementType string

const (
	MovementInbound    MovementType = "INBOUND"    // 采购入库
	MovementOutbound   MovementType = "OUTBOUND"   // 预留占用、确认出库
	MovementAdjustment MovementType = "ADJUSTMENT" // 盘点调整
	MovementTransfer   MovementType = "TRANSFER"   // 调拨
	MovementReturn     MovementType = "RETURN"     // 预留取消/过期释放、客户退货
	MovementDamage     MovementType = "DAMAGE"     // 损坏
	MovementTheft      MovementType = "THEFT"      // 丢失
)

// Bucket 流水前后数量描述的是哪个计数器
type Bucket string

const (
	BucketAvailable Bucket = "AVAILABLE"
	BucketReserved  Bucket = "RESERVED"
)

// Movement 库存流水（只增不改）
//
// 教学要点:
// 1. 每次改变 Available/Reserved 的操作都在同一事务里写一条流水
// 2. Quantity 带符号：正数增加，负数减少
// 3. 预留相关流水的 ReferenceNumber 是预留单ID，便于按预留单追溯
type Movement struct {
	ID               uint
	ItemID           uint
	Type             MovementType
	Bucket           Bucket
	Quantity         int
	PreviousQuantity int
	NewQuantity      int
	Reason           string
	ReferenceNumber  string
	OrderID          string
	SupplierID       string
	UnitCost         decimal.NullDecimal
	TotalCost        decimal.NullDecimal
	PerformedBy      string
	Notes            string
	CreatedAt        time.Time
}

const (
	ReasonReservationHold      = "reservation hold"
	ReasonReservationConfirmed = "reservation confirmed"
	ReasonReservationCancelled = "reservation cancelled"
	ReasonReservationExpired   = "reservation expired"
)

func newMovement(item *Item, typ MovementType, bucket Bucket, delta, before int, now time.Time) *Movement {
	return &Movement{
		ItemID:           item.ID,
		Type:             typ,
		Bucket:           bucket,
		Quantity:         delta,
		PreviousQuantity: before,
		NewQuantity:      before + delta,
		CreatedAt:        now,
	}
}

// NewHoldMovement 预留占用：可售减少
func NewHoldMovement(item *Item, r *Reservation, availableBefore int, now time.Time) *Movement {
	m := newMovement(item, MovementOutbound, BucketAvailable, -r.Quantity, availableBefore, now)
	m.Reason = ReasonReservationHold
	m.ReferenceNumber = r.ID
	m.OrderID = r.OrderID
	return m
}

// NewConfirmMovement 确认出库：已预留减少
func NewConfirmMovement(item *Item, r *Reservation, reservedBefore int, now time.Time) *Movement {
	m := newMovement(item, MovementOutbound, BucketReserved, -r.Quantity, reservedBefore, now)
	m.Reason = ReasonReservationConfirmed
	m.ReferenceNumber = r.ID
	m.OrderID = r.OrderID
	return m
}

// NewReleaseMovement 取消或过期：可售增加，notes记录取消原因
func NewReleaseMovement(item *Item, r *Reservation, availableBefore int, now time.Time) *Movement {
	m := newMovement(item, MovementReturn, BucketAvailable, r.Quantity, availableBefore, now)
	m.Reason = ReasonReservationCancelled
	if r.Status == ReservationExpired {
		m.Reason = ReasonReservationExpired
	}
	m.ReferenceNumber = r.ID
	m.OrderID = r.OrderID
	m.Notes = r.CancellationReason
	return m
}

// InboundParams 入库参数
type InboundParams struct {
	SKU             string
	Quantity        int
	SupplierID      string
	ReferenceNumber string
	UnitCost        decimal.NullDecimal
	PerformedBy     string
	Notes           string
}

// NewInboundMovement 采购入库，TotalCost = UnitCost × Quantity
func NewInboundMovement(item *Item, p InboundParams, availableBefore int, now time.Time) *Movement {
	m := newMovement(item, MovementInbound, BucketAvailable, p.Quantity, availableBefore, now)
	m.Reason = "inbound"
	m.SupplierID = p.SupplierID
	m.ReferenceNumber = p.ReferenceNumber
	m.UnitCost = p.UnitCost
	if p.UnitCost.Valid {
		m.TotalCost = decimal.NewNullDecimal(p.UnitCost.Decimal.Mul(decimal.NewFromInt(int64(p.Quantity))))
	}
	m.PerformedBy = p.PerformedBy
	m.Notes = p.Notes
	return m
}

// NewAdjustmentMovement 盘点调整
func NewAdjustmentMovement(item *Item, delta, availableBefore int, reason, performedBy string, now time.Time) *Movement {
	m := newMovement(item, MovementAdjustment, BucketAvailable, delta, availableBefore, now)
	m.Reason = reason
	m.PerformedBy = performedBy
	return m
}

// NewShrinkageMovement 损坏或丢失
func NewShrinkageMovement(item *Item, typ MovementType, quantity, availableBefore int, reason, performedBy string, now time.Time) *Movement {
	m := newMovement(item, typ, BucketAvailable, -quantity, availableBefore, now)
	m.Reason = reason
	m.PerformedBy = performedBy
	return m
}

// NewCustomerReturnMovement 客户退货重新入可售
func NewCustomerReturnMovement(item *Item, quantity, availableBefore int, orderID, reason, performedBy string, now time.Time) *Movement {
	m := newMovement(item, MovementReturn, BucketAvailable, quantity, availableBefore, now)
	m.Reason = reason
	m.OrderID = orderID
	m.PerformedBy = performedBy
	return m
}

// NewTransferMovement 调拨，调出方delta为负，调入方为正；ReferenceNumber是对方SKU
func NewTransferMovement(item *Item, delta, availableBefore int, counterpartSKU, reason, performedBy string, now time.Time) *Movement {
	m := newMovement(item, MovementTransfer, BucketAvailable, delta, availableBefore, now)
	m.Reason = reason
	m.ReferenceNumber = counterpartSKU
	m.PerformedBy = performedBy
	return m
}
