// Package memory 进程内的库存存储，实现与rdb相同的仓储接口和事务语义
//
// 事务采用乐观并发控制：事务内的写入先记在tx的覆盖层里，
// 提交时在全局锁下校验读到的版本（库存项Version、预留单状态）仍未改变，
// 全部通过才一次性应用，否则整体回滚并返回ErrConcurrencyConflict。
package memory

import (
	"context"
	"sync"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
)

// Store 所有表的数据
type Store struct {
	mu sync.RWMutex

	items        map[uint]*inventory.Item
	skuIndex     map[string]uint
	reservations map[string]*inventory.Reservation
	movements    []*inventory.Movement

	nextItemID     uint
	nextMovementID uint

	// beforeCommit 测试钩子：在提交校验前调用，用于制造并发冲突
	beforeCommit func()
}

// NewStore 创建空存储
func NewStore() *Store {
	return &Store{
		items:        make(map[uint]*inventory.Item),
		skuIndex:     make(map[string]uint),
		reservations: make(map[string]*inventory.Reservation),
	}
}

type txKey struct{}

// tx 一个事务的覆盖层
type tx struct {
	items        map[uint]*inventory.Item
	itemBase     map[uint]int64 // 事务内首次写入前读到的版本
	newItems     []*inventory.Item
	reservations map[string]*inventory.Reservation
	resBase      map[string]inventory.ReservationStatus
	newRes       []*inventory.Reservation
	movements    []*inventory.Movement
}

func newTx() *tx {
	return &tx{
		items:        make(map[uint]*inventory.Item),
		itemBase:     make(map[uint]int64),
		reservations: make(map[string]*inventory.Reservation),
		resBase:      make(map[string]inventory.ReservationStatus),
	}
}

func txFrom(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	return t
}

// TxManager 事务管理器
type TxManager struct {
	store *Store
}

// NewTxManager 创建事务管理器
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Transaction fn返回错误时丢弃覆盖层；嵌套调用复用外层事务
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	t := newTx()
	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}
	return m.store.commit(t)
}

// autoCommit 非事务调用时，单条写入立即提交
func (s *Store) autoCommit(ctx context.Context, write func(t *tx) error) error {
	if t := txFrom(ctx); t != nil {
		return write(t)
	}
	t := newTx()
	if err := write(t); err != nil {
		return err
	}
	return s.commit(t)
}

func (s *Store) commit(t *tx) error {
	if s.beforeCommit != nil {
		s.beforeCommit()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, base := range t.itemBase {
		cur, ok := s.items[id]
		if !ok || cur.Version != base {
			return inventory.ErrConcurrencyConflict
		}
	}
	for id, base := range t.resBase {
		cur, ok := s.reservations[id]
		if !ok || cur.Status != base {
			return inventory.ErrConcurrencyConflict
		}
	}
	for _, item := range t.newItems {
		if _, exists := s.skuIndex[item.SKU]; exists {
			return inventory.ErrSKUDuplicate
		}
	}

	for _, item := range t.newItems {
		s.items[item.ID] = copyItem(item)
		s.skuIndex[item.SKU] = item.ID
	}
	for id, item := range t.items {
		s.items[id] = copyItem(item)
	}
	for _, r := range t.newRes {
		s.reservations[r.ID] = copyReservation(r)
	}
	for id, r := range t.reservations {
		s.reservations[id] = copyReservation(r)
	}
	for _, m := range t.movements {
		s.nextMovementID++
		m.ID = s.nextMovementID
		cp := *m
		s.movements = append(s.movements, &cp)
	}
	return nil
}

func copyItem(i *inventory.Item) *inventory.Item {
	cp := *i
	return &cp
}

func copyReservation(r *inventory.Reservation) *inventory.Reservation {
	cp := *r
	if r.ConfirmedAt != nil {
		t := *r.ConfirmedAt
		cp.ConfirmedAt = &t
	}
	if r.CancelledAt != nil {
		t := *r.CancelledAt
		cp.CancelledAt = &t
	}
	return &cp
}
