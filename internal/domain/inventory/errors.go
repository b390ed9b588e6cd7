package inventory

import (
	"fmt"

	apperrors "github.com/xiebiao/inventory-reservation/pkg/errors"
)

// 库存领域错误定义
var (
	// ErrItemNotFound 库存项不存在（未知SKU）
	ErrItemNotFound = apperrors.New(apperrors.ErrCodeItemNotFound, "库存项不存在")

	// ErrReservationNotFound 预留单不存在
	ErrReservationNotFound = apperrors.New(apperrors.ErrCodeReservationNotFound, "预留单不存在")

	// ErrInsufficientStock 库存不足（与pkg/errors共用同一个实例，errors.Is两边都成立）
	ErrInsufficientStock = apperrors.ErrInsufficientStock

	// ErrInvalidState 预留单状态不允许此操作（非ACTIVE或已过期）
	ErrInvalidState = apperrors.New(apperrors.ErrCodeInvalidState, "预留单状态不允许此操作")

	// ErrConcurrencyConflict 乐观锁冲突，引擎内部重试，重试耗尽才返回给调用方
	ErrConcurrencyConflict = apperrors.New(apperrors.ErrCodeConcurrencyConflict, "库存并发冲突，请稍后重试")

	// ErrInvalidQuantity 数量不合法
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "数量必须大于0")

	// ErrInvalidParams 参数不合法
	ErrInvalidParams = apperrors.ErrInvalidParams

	// ErrInvalidExpiry 过期时间不能早于当前时间
	ErrInvalidExpiry = apperrors.New(apperrors.ErrCodeInvalidExpiry, "过期时间必须晚于当前时间")

	// ErrItemInactive 库存项未启用，不接受预留
	ErrItemInactive = apperrors.New(apperrors.ErrCodeItemInactive, "库存项未启用")

	// ErrInvalidThresholds 阈值不合法
	ErrInvalidThresholds = apperrors.New(apperrors.ErrCodeInvalidThresholds, "库存阈值不合法（需 max > min 且 reorderPoint <= max）")

	// ErrInvalidTransfer 调拨不合法（同一SKU或不同商品）
	ErrInvalidTransfer = apperrors.New(apperrors.ErrCodeInvalidTransfer, "调拨只能在同一商品的不同库存项之间进行")

	// ErrSKUDuplicate SKU已存在
	ErrSKUDuplicate = apperrors.New(apperrors.ErrCodeDuplicateEntry, "SKU已存在")

	// ErrCounterUnderflow 已预留数量不足以扣减，说明数据已不一致
	ErrCounterUnderflow = apperrors.New(apperrors.ErrCodeInternal, "已预留数量不足，库存数据不一致")
)

// InsufficientStockError 库存不足，携带请求数量和当前可售数量
// 调用方可以据此提示用户减少数量或换仓
type InsufficientStockError struct {
	SKU       string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("库存不足: sku=%s requested=%d available=%d", e.SKU, e.Requested, e.Available)
}

// Unwrap 使 errors.Is(err, ErrInsufficientStock) 成立
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// ErrorData HTTP响应中的data字段
func (e *InsufficientStockError) ErrorData() interface{} {
	return map[string]interface{}{
		"sku":       e.SKU,
		"requested": e.Requested,
		"available": e.Available,
	}
}

// InvalidStateError 预留单当前状态不允许执行Op
type InvalidStateError struct {
	ReservationID string
	Status        ReservationStatus
	Op            string
	// Reason 当前状态，或 "expired"（ACTIVE但已到期）
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("预留单状态不允许%s: id=%s status=%s reason=%s", e.Op, e.ReservationID, e.Status, e.Reason)
}

// Unwrap 使 errors.Is(err, ErrInvalidState) 成立
func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// ErrorData HTTP响应中的data字段
func (e *InvalidStateError) ErrorData() interface{} {
	return map[string]interface{}{
		"reservation_id": e.ReservationID,
		"status":         e.Status,
		"reason":         e.Reason,
	}
}
