package memory

import (
	"context"
	"sort"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
)

// ItemRepository 库存项仓储
type ItemRepository struct {
	store *Store
}

// NewItemRepository 创建库存项仓储
func NewItemRepository(store *Store) *ItemRepository {
	return &ItemRepository{store: store}
}

// Create SKU在已提交数据或本事务中重复都返回ErrSKUDuplicate
func (r *ItemRepository) Create(ctx context.Context, item *inventory.Item) error {
	s := r.store
	return s.autoCommit(ctx, func(t *tx) error {
		s.mu.Lock()
		if _, exists := s.skuIndex[item.SKU]; exists {
			s.mu.Unlock()
			return inventory.ErrSKUDuplicate
		}
		s.nextItemID++
		item.ID = s.nextItemID
		s.mu.Unlock()

		for _, pending := range t.newItems {
			if pending.SKU == item.SKU {
				return inventory.ErrSKUDuplicate
			}
		}
		if item.Version == 0 {
			item.Version = 1
		}
		t.newItems = append(t.newItems, copyItem(item))
		return nil
	})
}

// visible 本事务能看到的库存项：先看覆盖层，再看已提交数据
func (r *ItemRepository) visible(ctx context.Context, id uint) (*inventory.Item, bool) {
	if t := txFrom(ctx); t != nil {
		if item, ok := t.items[id]; ok {
			return item, true
		}
		for _, item := range t.newItems {
			if item.ID == id {
				return item, true
			}
		}
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	item, ok := r.store.items[id]
	return item, ok
}

func (r *ItemRepository) idBySKU(ctx context.Context, sku string) (uint, bool) {
	if t := txFrom(ctx); t != nil {
		for _, item := range t.newItems {
			if item.SKU == sku {
				return item.ID, true
			}
		}
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	id, ok := r.store.skuIndex[sku]
	return id, ok
}

// Get 按SKU查询
func (r *ItemRepository) Get(ctx context.Context, sku string) (*inventory.Item, error) {
	id, ok := r.idBySKU(ctx, sku)
	if !ok {
		return nil, inventory.ErrItemNotFound
	}
	return r.GetByID(ctx, id)
}

// GetForUpdate 内存实现没有行锁，冲突在提交时由版本校验发现
func (r *ItemRepository) GetForUpdate(ctx context.Context, sku string) (*inventory.Item, error) {
	return r.Get(ctx, sku)
}

// GetByIDForUpdate 同GetForUpdate
func (r *ItemRepository) GetByIDForUpdate(ctx context.Context, id uint) (*inventory.Item, error) {
	return r.GetByID(ctx, id)
}

// GetByID 按ID查询，返回副本
func (r *ItemRepository) GetByID(ctx context.Context, id uint) (*inventory.Item, error) {
	item, ok := r.visible(ctx, id)
	if !ok {
		return nil, inventory.ErrItemNotFound
	}
	return copyItem(item), nil
}

// Save 立即比较本事务可见的版本，提交时再校验一次已提交版本
func (r *ItemRepository) Save(ctx context.Context, item *inventory.Item, expectedVersion int64) error {
	return r.store.autoCommit(ctx, func(t *tx) error {
		cur, ok := r.visible(ctx, item.ID)
		if !ok {
			return inventory.ErrItemNotFound
		}
		if cur.Version != expectedVersion {
			return inventory.ErrConcurrencyConflict
		}

		next := copyItem(item)
		next.Version = expectedVersion + 1

		for i, pending := range t.newItems {
			if pending.ID == item.ID {
				t.newItems[i] = next
				item.Version = next.Version
				return nil
			}
		}
		if _, written := t.itemBase[item.ID]; !written {
			t.itemBase[item.ID] = expectedVersion
		}
		t.items[item.ID] = next
		item.Version = next.Version
		return nil
	})
}

// List 按ID升序分页，只读已提交数据
func (r *ItemRepository) List(_ context.Context, params inventory.ListParams) ([]*inventory.Item, int64, error) {
	params = params.Normalize()

	r.store.mu.RLock()
	all := make([]*inventory.Item, 0, len(r.store.items))
	for _, item := range r.store.items {
		all = append(all, copyItem(item))
	}
	r.store.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := int64(len(all))
	start := params.Offset()
	if start >= len(all) {
		return []*inventory.Item{}, total, nil
	}
	end := start + params.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// ListLowStock 按可售数量升序
func (r *ItemRepository) ListLowStock(_ context.Context, limit int) ([]*inventory.Item, error) {
	r.store.mu.RLock()
	var low []*inventory.Item
	for _, item := range r.store.items {
		if item.Status == inventory.ItemStatusActive && item.IsLowStock() {
			low = append(low, copyItem(item))
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(low, func(i, j int) bool {
		if low[i].Available != low[j].Available {
			return low[i].Available < low[j].Available
		}
		return low[i].ID < low[j].ID
	})
	if limit > 0 && len(low) > limit {
		low = low[:limit]
	}
	return low, nil
}
