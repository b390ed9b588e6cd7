package rdb

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
	apperrors "github.com/xiebiao/inventory-reservation/pkg/errors"
)

// reservationRepository 预留单仓储实现
type reservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository 创建预留单仓储
func NewReservationRepository(db *gorm.DB) inventory.ReservationRepository {
	return &reservationRepository{db: db}
}

// Create 创建预留单
func (r *reservationRepository) Create(ctx context.Context, res *inventory.Reservation) error {
	if err := getDB(ctx, r.db).Create(toReservationModel(res)).Error; err != nil {
		if isDuplicateError(err) {
			return inventory.ErrConcurrencyConflict
		}
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "创建预留单失败")
	}
	return nil
}

// FindByID 按ID查询
func (r *reservationRepository) FindByID(ctx context.Context, id string) (*inventory.Reservation, error) {
	var model StockReservationModel
	if err := getDB(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrReservationNotFound
		}
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询预留单失败")
	}
	return toReservationEntity(&model), nil
}

// Transition 条件更新状态
// UPDATE stock_reservations SET status=?, ... WHERE id=? AND status=?
// 同一预留单的取消和过期清理并发时，只有先提交的一方成功
func (r *reservationRepository) Transition(ctx context.Context, res *inventory.Reservation, from inventory.ReservationStatus) error {
	db := getDB(ctx, r.db)
	result := db.Model(&StockReservationModel{}).
		Where("id = ? AND status = ?", res.ID, string(from)).
		Updates(map[string]interface{}{
			"status":              string(res.Status),
			"confirmed_at":        res.ConfirmedAt,
			"cancelled_at":        res.CancelledAt,
			"cancellation_reason": res.CancellationReason,
		})
	if result.Error != nil {
		return apperrors.WrapCode(result.Error, apperrors.ErrCodeDatabaseError, "更新预留单状态失败")
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&StockReservationModel{}).Where("id = ?", res.ID).Count(&count).Error; err != nil {
			return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询预留单失败")
		}
		if count == 0 {
			return inventory.ErrReservationNotFound
		}
		return inventory.ErrConcurrencyConflict
	}
	return nil
}

func (r *reservationRepository) find(ctx context.Context, query *gorm.DB) ([]*inventory.Reservation, error) {
	var models []StockReservationModel
	if err := query.Find(&models).Error; err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询预留单列表失败")
	}
	out := make([]*inventory.Reservation, len(models))
	for i := range models {
		out[i] = toReservationEntity(&models[i])
	}
	return out, nil
}

// ListByOrder 按创建时间升序
func (r *reservationRepository) ListByOrder(ctx context.Context, orderID string) ([]*inventory.Reservation, error) {
	return r.find(ctx, getDB(ctx, r.db).Where("order_id = ?", orderID).Order("created_at ASC, id ASC"))
}

// ListByCustomer 按创建时间倒序
func (r *reservationRepository) ListByCustomer(ctx context.Context, customerID string) ([]*inventory.Reservation, error) {
	return r.find(ctx, getDB(ctx, r.db).Where("customer_id = ?", customerID).Order("created_at DESC, id ASC"))
}

// ListExpired 走 idx_status_expires 索引，按 (expires_at, id) 翻页
func (r *reservationRepository) ListExpired(ctx context.Context, now time.Time, after inventory.ExpiredCursor, limit int) ([]*inventory.Reservation, error) {
	query := getDB(ctx, r.db).
		Where("status = ? AND expires_at < ?", string(inventory.ReservationActive), now)
	if !after.IsZero() {
		query = query.Where("(expires_at > ? OR (expires_at = ? AND id > ?))", after.ExpiresAt, after.ExpiresAt, after.ID)
	}
	query = query.Order("expires_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	return r.find(ctx, query)
}
