package memory

import (
	"context"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
)

// MovementRepository 库存流水仓储，ID在事务提交时分配
type MovementRepository struct {
	store *Store
}

// NewMovementRepository 创建流水仓储
func NewMovementRepository(store *Store) *MovementRepository {
	return &MovementRepository{store: store}
}

// Create 追加流水
func (r *MovementRepository) Create(ctx context.Context, m *inventory.Movement) error {
	return r.store.autoCommit(ctx, func(t *tx) error {
		t.movements = append(t.movements, m)
		return nil
	})
}

// ListByItem 按ID倒序分页
func (r *MovementRepository) ListByItem(_ context.Context, itemID uint, params inventory.ListParams) ([]*inventory.Movement, int64, error) {
	params = params.Normalize()

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var matched []*inventory.Movement
	for i := len(r.store.movements) - 1; i >= 0; i-- {
		if m := r.store.movements[i]; m.ItemID == itemID {
			matched = append(matched, m)
		}
	}

	total := int64(len(matched))
	start := params.Offset()
	if start >= len(matched) {
		return []*inventory.Movement{}, total, nil
	}
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]*inventory.Movement, 0, end-start)
	for _, m := range matched[start:end] {
		cp := *m
		page = append(page, &cp)
	}
	return page, total, nil
}

// ListByReference 按写入顺序
func (r *MovementRepository) ListByReference(_ context.Context, ref string) ([]*inventory.Movement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*inventory.Movement
	for _, m := range r.store.movements {
		if m.ReferenceNumber == ref {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}
