package inventory

import (
	"context"
	"time"
)

// ItemRepository 库存项仓储接口
// 设计说明:
// 1. 由domain层定义接口，infrastructure层实现（rdb / memory）
// 2. Save是比较并交换：只有当前Version == expectedVersion时才写入，并把Version加1
// 3. 所有方法都从ctx中取事务（见TxManager），同一事务内的读写看到一致的数据
type ItemRepository interface {
	// Create 创建库存项，SKU重复返回ErrSKUDuplicate
	Create(ctx context.Context, item *Item) error

	// Get 按SKU查询，不存在返回ErrItemNotFound
	Get(ctx context.Context, sku string) (*Item, error)

	// GetForUpdate 按SKU查询并在事务内独占该行（SQL: SELECT ... FOR UPDATE）
	GetForUpdate(ctx context.Context, sku string) (*Item, error)

	// GetByIDForUpdate 按ID查询并独占该行
	GetByIDForUpdate(ctx context.Context, id uint) (*Item, error)

	// GetByID 按ID查询
	GetByID(ctx context.Context, id uint) (*Item, error)

	// Save CAS写回计数器、阈值和状态，Version不匹配返回ErrConcurrencyConflict
	// 成功后item.Version为新版本
	Save(ctx context.Context, item *Item, expectedVersion int64) error

	// List 分页查询，返回当前页和总数
	List(ctx context.Context, params ListParams) ([]*Item, int64, error)

	// ListLowStock 可售数量 <= 补货点 的ACTIVE库存项
	ListLowStock(ctx context.Context, limit int) ([]*Item, error)
}

// ReservationRepository 预留单仓储接口
type ReservationRepository interface {
	// Create 创建预留单
	Create(ctx context.Context, r *Reservation) error

	// FindByID 不存在返回ErrReservationNotFound
	FindByID(ctx context.Context, id string) (*Reservation, error)

	// Transition 把预留单从from状态改为r.Status（连同确认/取消时间和原因）
	// 条件更新：WHERE id=? AND status=from，0行受影响返回ErrConcurrencyConflict
	Transition(ctx context.Context, r *Reservation, from ReservationStatus) error

	// ListByOrder 订单下所有预留单（按创建时间）
	ListByOrder(ctx context.Context, orderID string) ([]*Reservation, error)

	// ListByCustomer 客户的所有预留单（按创建时间倒序）
	ListByCustomer(ctx context.Context, customerID string) ([]*Reservation, error)

	// ListExpired status=ACTIVE 且 expiresAt < now，按(expiresAt, id)升序，只返回排在after之后的记录，最多limit条
	// 恰好到期（expiresAt == now）的已不能确认，但留到下一轮再清理
	ListExpired(ctx context.Context, now time.Time, after ExpiredCursor, limit int) ([]*Reservation, error)
}

// ExpiredCursor 过期扫描的翻页位置，零值从头开始
// 单条清理失败的记录仍是ACTIVE，按位置翻页才能越过它们
type ExpiredCursor struct {
	ExpiresAt time.Time
	ID        string
}

// IsZero 是否从头开始
func (c ExpiredCursor) IsZero() bool {
	return c.ID == ""
}

// Before 记录r是否排在游标之后（即本页应包含r）
func (c ExpiredCursor) Before(r *Reservation) bool {
	if c.IsZero() {
		return true
	}
	if !r.ExpiresAt.Equal(c.ExpiresAt) {
		return r.ExpiresAt.After(c.ExpiresAt)
	}
	return r.ID > c.ID
}

// CursorAfter 以r为本页最后一条时的下一页游标
func CursorAfter(r *Reservation) ExpiredCursor {
	return ExpiredCursor{ExpiresAt: r.ExpiresAt, ID: r.ID}
}

// MovementRepository 库存流水仓储接口（只增不改）
type MovementRepository interface {
	// Create 追加一条流水
	Create(ctx context.Context, m *Movement) error

	// ListByItem 分页查询某库存项的流水（按ID倒序）
	ListByItem(ctx context.Context, itemID uint, params ListParams) ([]*Movement, int64, error)

	// ListByReference 按参考号查询（预留单ID、采购单号）
	ListByReference(ctx context.Context, ref string) ([]*Movement, error)
}

// TxManager 事务管理器
// fn内通过ctx传递事务，fn返回错误时回滚
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ListParams 分页参数
type ListParams struct {
	Page     int // 从1开始
	PageSize int
}

// Normalize 修正非法分页参数
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	return p
}

// Offset 偏移量
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
