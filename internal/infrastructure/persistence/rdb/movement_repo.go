package rdb

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
	apperrors "github.com/xiebiao/inventory-reservation/pkg/errors"
)

// movementRepository 库存流水仓储实现
type movementRepository struct {
	db *gorm.DB
}

// NewMovementRepository 创建流水仓储
func NewMovementRepository(db *gorm.DB) inventory.MovementRepository {
	return &movementRepository{db: db}
}

// Create 追加流水，回填自增ID
func (r *movementRepository) Create(ctx context.Context, m *inventory.Movement) error {
	model := toMovementModel(m)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "写入库存流水失败")
	}
	m.ID = model.ID
	return nil
}

// ListByItem 按ID倒序分页
func (r *movementRepository) ListByItem(ctx context.Context, itemID uint, params inventory.ListParams) ([]*inventory.Movement, int64, error) {
	params = params.Normalize()

	var models []StockMovementModel
	var total int64

	query := getDB(ctx, r.db).Model(&StockMovementModel{}).Where("inventory_item_id = ?", itemID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询库存流水总数失败")
	}
	if err := query.Order("id DESC").Limit(params.PageSize).Offset(params.Offset()).Find(&models).Error; err != nil {
		return nil, 0, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询库存流水失败")
	}

	out := make([]*inventory.Movement, len(models))
	for i := range models {
		out[i] = toMovementEntity(&models[i])
	}
	return out, total, nil
}

// ListByReference 按写入顺序
func (r *movementRepository) ListByReference(ctx context.Context, ref string) ([]*inventory.Movement, error) {
	var models []StockMovementModel
	if err := getDB(ctx, r.db).Where("reference_number = ?", ref).Order("id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询库存流水失败")
	}

	out := make([]*inventory.Movement, len(models))
	for i := range models {
		out[i] = toMovementEntity(&models[i])
	}
	return out, nil
}
