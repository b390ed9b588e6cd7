package inventory

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
	"github.com/xiebiao/inventory-reservation/pkg/metrics"
)

// SweepResult 一次过期清理的结果
type SweepResult struct {
	Processed int // 本次置为EXPIRED的数量
	Failed    int // 单条处理失败的数量，详情见日志
}

// ProcessExpiredReservations 清理过期预留
//
// 按 (expiresAt, id) 翻页扫描 status=ACTIVE 且 expiresAt < now 的预留单，逐条走过期流程：
//  1. 每条预留单是独立事务，单条失败只记日志并计入Failed，不影响其余记录
//  2. 已被确认/取消（或被另一个清理进程处理）的预留单跳过，不计数
//  3. 只有查询失败或ctx取消才返回error，此时result仍是已完成的部分
func (e *Engine) ProcessExpiredReservations(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	now := e.now()
	var cursor inventory.ExpiredCursor

	defer func() {
		metrics.AddExpired(result.Processed)
		if result.Processed > 0 || result.Failed > 0 {
			e.log.Info("过期预留清理完成",
				zap.Int("processed", result.Processed),
				zap.Int("failed", result.Failed))
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		batch, err := e.reservations.ListExpired(ctx, now, cursor, e.cfg.BatchSize)
		if err != nil {
			return result, err
		}

		for _, r := range batch {
			ok, err := e.expire(ctx, r.ID)
			if err != nil {
				result.Failed++
				e.log.Error("预留单过期失败",
					zap.String("reservation_id", r.ID),
					zap.String("order_id", r.OrderID),
					zap.Error(err))
				continue
			}
			if ok {
				result.Processed++
			}
		}

		if len(batch) < e.cfg.BatchSize {
			return result, nil
		}
		cursor = inventory.CursorAfter(batch[len(batch)-1])
	}
}
