package messaging

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
	apperrors "github.com/xiebiao/inventory-reservation/pkg/errors"
	"github.com/xiebiao/inventory-reservation/pkg/mq"
)

// 订单服务发布的事件
const (
	EventOrderShipped   = "order.shipped"
	EventOrderCancelled = "order.cancelled"
)

// OrderEvent 订单事件消息体
type OrderEvent struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason,omitempty"`
}

// OrderService 消费者依赖的整单操作
type OrderService interface {
	ConfirmOrder(ctx context.Context, orderID string) ([]*inventory.Reservation, error)
	CancelOrder(ctx context.Context, orderID, reason string) ([]*inventory.Reservation, error)
}

// OrderEventHandler 订单事件驱动整单确认/取消
type OrderEventHandler struct {
	svc OrderService
	log *zap.Logger
}

// NewOrderEventHandler 创建订单事件处理器
func NewOrderEventHandler(svc OrderService, log *zap.Logger) *OrderEventHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderEventHandler{svc: svc, log: log}
}

// Handle 实现 mq.Handler
//
// 只有系统错误（数据库、重试耗尽的并发冲突）返回给消费者重新投递；
// 业务错误（预留单不存在、已过期）重投也不会成功，记录日志后确认消息。
func (h *OrderEventHandler) Handle(ctx context.Context, routingKey string, body []byte) error {
	var evt OrderEvent
	if err := json.Unmarshal(body, &evt); err != nil || evt.OrderID == "" {
		h.log.Warn("invalid order event dropped",
			zap.String("routing_key", routingKey),
			zap.ByteString("body", body))
		return nil
	}

	var err error
	switch routingKey {
	case EventOrderShipped:
		_, err = h.svc.ConfirmOrder(ctx, evt.OrderID)
	case EventOrderCancelled:
		reason := evt.Reason
		if reason == "" {
			reason = "order cancelled"
		}
		_, err = h.svc.CancelOrder(ctx, evt.OrderID, reason)
	default:
		h.log.Debug("order event ignored", zap.String("routing_key", routingKey))
		return nil
	}

	if err == nil {
		h.log.Info("order event applied",
			zap.String("routing_key", routingKey),
			zap.String("order_id", evt.OrderID))
		return nil
	}
	if retryable(err) {
		return err
	}
	h.log.Warn("order event rejected",
		zap.String("routing_key", routingKey),
		zap.String("order_id", evt.OrderID),
		zap.Error(err))
	return nil
}

// Run 阻塞消费直到ctx取消
func (h *OrderEventHandler) Run(ctx context.Context, consumer mq.Consumer) error {
	h.log.Info("order event consumer started")
	defer h.log.Info("order event consumer stopped")
	return consumer.Consume(ctx, h.Handle)
}

// retryable 错误树中存在5xxxx错误码即视为系统错误
func retryable(err error) bool {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code >= apperrors.ErrCodeInternal {
		return true
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if retryable(e) {
				return true
			}
		}
	}
	return false
}
