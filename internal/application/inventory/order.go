package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
	"github.com/xiebiao/inventory-reservation/pkg/saga"
)

// ReasonOrderRollback 多SKU预留失败时补偿取消的原因
const ReasonOrderRollback = "order reservation rolled back"

// OrderLine 订单中的一个SKU
type OrderLine struct {
	SKU      string
	Quantity int
}

// ReserveOrderRequest 整单预留
type ReserveOrderRequest struct {
	OrderID    string
	CustomerID string
	Lines      []OrderLine
	ExpiresAt  *time.Time
}

// ReserveOrder 整单预留：每个SKU一个独立事务，按saga执行
//
// 不同SKU之间没有全局事务。第N行失败时逆序取消前N-1行的预留，
// 整单要么全部预留成功，要么不占用任何库存。
func (e *Engine) ReserveOrder(ctx context.Context, req ReserveOrderRequest) ([]*inventory.Reservation, error) {
	if req.OrderID == "" || len(req.Lines) == 0 {
		return nil, inventory.ErrInvalidParams
	}
	for _, line := range req.Lines {
		if line.Quantity < 1 {
			return nil, inventory.ErrInvalidQuantity
		}
	}

	// 同一个过期时间，整单一起到期
	expiresAt := e.now().Add(e.cfg.DefaultHold)
	if req.ExpiresAt != nil {
		expiresAt = *req.ExpiresAt
	}

	reserved := make([]*inventory.Reservation, len(req.Lines))
	s := saga.NewSaga(e.cfg.OrderTimeout, e.log)
	for i, line := range req.Lines {
		i, line := i, line
		s.AddStep(fmt.Sprintf("reserve %s", line.SKU),
			func(ctx context.Context) error {
				r, err := e.Reserve(ctx, ReserveRequest{
					SKU:        line.SKU,
					Quantity:   line.Quantity,
					OrderID:    req.OrderID,
					CustomerID: req.CustomerID,
					ExpiresAt:  &expiresAt,
				})
				if err != nil {
					return err
				}
				reserved[i] = r
				return nil
			},
			func(ctx context.Context) error {
				if reserved[i] == nil {
					return nil
				}
				_, err := e.Cancel(ctx, reserved[i].ID, ReasonOrderRollback)
				// 已经被取消/过期的预留无需补偿
				if errors.Is(err, inventory.ErrInvalidState) {
					return nil
				}
				return err
			},
		)
	}

	if err := s.Execute(ctx); err != nil {
		e.log.Warn("整单预留失败，已补偿",
			zap.String("order_id", req.OrderID),
			zap.Int("lines", len(req.Lines)),
			zap.Error(err))
		return nil, err
	}
	return reserved, nil
}

// ConfirmOrder 确认订单下所有ACTIVE预留，终态的跳过
// 单条失败不影响其余预留单，返回汇总的错误
func (e *Engine) ConfirmOrder(ctx context.Context, orderID string) ([]*inventory.Reservation, error) {
	return e.applyToOrder(ctx, orderID, func(ctx context.Context, r *inventory.Reservation) (*inventory.Reservation, error) {
		return e.Confirm(ctx, r.ID)
	})
}

// CancelOrder 取消订单下所有ACTIVE预留，终态的跳过
func (e *Engine) CancelOrder(ctx context.Context, orderID, reason string) ([]*inventory.Reservation, error) {
	return e.applyToOrder(ctx, orderID, func(ctx context.Context, r *inventory.Reservation) (*inventory.Reservation, error) {
		return e.Cancel(ctx, r.ID, reason)
	})
}

func (e *Engine) applyToOrder(
	ctx context.Context,
	orderID string,
	apply func(ctx context.Context, r *inventory.Reservation) (*inventory.Reservation, error),
) ([]*inventory.Reservation, error) {
	list, err := e.ListReservationsByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, inventory.ErrReservationNotFound
	}

	var errs []error
	for i, r := range list {
		if r.Status.IsTerminal() {
			continue
		}
		updated, err := apply(ctx, r)
		if err != nil {
			errs = append(errs, fmt.Errorf("预留单%s: %w", r.ID, err))
			continue
		}
		list[i] = updated
	}
	return list, errors.Join(errs...)
}
