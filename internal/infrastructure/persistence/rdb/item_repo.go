package rdb

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
	apperrors "github.com/xiebiao/inventory-reservation/pkg/errors"
)

// itemRepository 库存项仓储实现
// 设计说明:
// 1. 实现domain/inventory/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. Save用 WHERE version=? 做比较并交换，0行受影响即并发冲突
type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository 创建库存项仓储
func NewItemRepository(db *gorm.DB) inventory.ItemRepository {
	return &itemRepository{db: db}
}

// Create 创建库存项
func (r *itemRepository) Create(ctx context.Context, item *inventory.Item) error {
	if item.Version == 0 {
		item.Version = 1
	}
	model := toItemModel(item)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return inventory.ErrSKUDuplicate
		}
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "创建库存项失败")
	}

	item.ID = model.ID
	return nil
}

func (r *itemRepository) first(db *gorm.DB, query string, arg interface{}) (*inventory.Item, error) {
	var model InventoryItemModel
	if err := db.Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrItemNotFound
		}
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询库存项失败")
	}
	return toItemEntity(&model), nil
}

// Get 按SKU查询
func (r *itemRepository) Get(ctx context.Context, sku string) (*inventory.Item, error) {
	return r.first(getDB(ctx, r.db), "sku = ?", sku)
}

// GetForUpdate SELECT ... FOR UPDATE，必须在事务内调用
func (r *itemRepository) GetForUpdate(ctx context.Context, sku string) (*inventory.Item, error) {
	db := getDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"})
	return r.first(db, "sku = ?", sku)
}

// GetByIDForUpdate 按ID锁定
func (r *itemRepository) GetByIDForUpdate(ctx context.Context, id uint) (*inventory.Item, error) {
	db := getDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"})
	return r.first(db, "id = ?", id)
}

// GetByID 按ID查询
func (r *itemRepository) GetByID(ctx context.Context, id uint) (*inventory.Item, error) {
	return r.first(getDB(ctx, r.db), "id = ?", id)
}

// Save CAS更新
// UPDATE inventory_items SET ..., version = version + 1 WHERE id = ? AND version = ?
func (r *itemRepository) Save(ctx context.Context, item *inventory.Item, expectedVersion int64) error {
	db := getDB(ctx, r.db)
	result := db.Model(&InventoryItemModel{}).
		Where("id = ? AND version = ?", item.ID, expectedVersion).
		Updates(map[string]interface{}{
			"available":        item.Available,
			"reserved":         item.Reserved,
			"incoming":         item.Incoming,
			"min_stock_level":  item.MinStockLevel,
			"max_stock_level":  item.MaxStockLevel,
			"reorder_point":    item.ReorderPoint,
			"reorder_quantity": item.ReorderQuantity,
			"status":           string(item.Status),
			"last_updated_at":  item.LastUpdatedAt,
			"version":          gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return apperrors.WrapCode(result.Error, apperrors.ErrCodeDatabaseError, "更新库存项失败")
	}

	if result.RowsAffected == 0 {
		// 库存项不存在，或者版本已被其他事务推进
		var count int64
		if err := db.Model(&InventoryItemModel{}).Where("id = ?", item.ID).Count(&count).Error; err != nil {
			return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询库存项失败")
		}
		if count == 0 {
			return inventory.ErrItemNotFound
		}
		return inventory.ErrConcurrencyConflict
	}

	item.Version = expectedVersion + 1
	return nil
}

// List 按ID升序分页
func (r *itemRepository) List(ctx context.Context, params inventory.ListParams) ([]*inventory.Item, int64, error) {
	params = params.Normalize()

	var models []InventoryItemModel
	var total int64

	query := getDB(ctx, r.db).Model(&InventoryItemModel{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询库存项总数失败")
	}
	if err := query.Order("id ASC").Limit(params.PageSize).Offset(params.Offset()).Find(&models).Error; err != nil {
		return nil, 0, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询库存项列表失败")
	}

	items := make([]*inventory.Item, len(models))
	for i := range models {
		items[i] = toItemEntity(&models[i])
	}
	return items, total, nil
}

// ListLowStock available <= reorder_point 的ACTIVE库存项
func (r *itemRepository) ListLowStock(ctx context.Context, limit int) ([]*inventory.Item, error) {
	var models []InventoryItemModel
	query := getDB(ctx, r.db).
		Where("status = ? AND available <= reorder_point", string(inventory.ItemStatusActive)).
		Order("available ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询低库存失败")
	}

	items := make([]*inventory.Item, len(models))
	for i := range models {
		items[i] = toItemEntity(&models[i])
	}
	return items, nil
}
