// Package messaging 把库存领域事件接到消息队列上
//
// 出站：EventPublisher 把 inventory.Event 按类型作为路由键发布，前面挂一个熔断器，
// broker不可用时快速失败，不拖慢已提交的业务请求。
// 入站：OrderEventHandler 消费订单服务的事件，驱动整单确认/取消。
package messaging

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
	"github.com/xiebiao/inventory-reservation/internal/infrastructure/config"
	"github.com/xiebiao/inventory-reservation/pkg/circuitbreaker"
	"github.com/xiebiao/inventory-reservation/pkg/mq"
)

// EventPublisher 实现 inventory.EventPublisher
type EventPublisher struct {
	pub mq.Publisher
	cb  *circuitbreaker.CircuitBreaker
	log *zap.Logger
}

// NewEventPublisher 创建事件发布者
func NewEventPublisher(pub mq.Publisher, log *zap.Logger) *EventPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	cb := circuitbreaker.NewCircuitBreaker("event-publisher", circuitbreaker.Config{
		Timeout: 30 * time.Second,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &EventPublisher{pub: pub, cb: cb, log: log}
}

// Publish 逐条发布，单条失败不影响后续事件，返回汇总的错误
func (p *EventPublisher) Publish(ctx context.Context, events ...inventory.Event) error {
	var errs []error
	for _, e := range events {
		e := e
		err := p.cb.Execute(ctx, func(ctx context.Context) error {
			return mq.PublishJSON(ctx, p.pub, e.Type, e)
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		p.log.Debug("event published",
			zap.String("type", e.Type),
			zap.String("sku", e.SKU),
			zap.String("reservation_id", e.ReservationID))
	}
	return errors.Join(errs...)
}

// Close 关闭底层连接
func (p *EventPublisher) Close() error {
	return p.pub.Close()
}

// NewBroker 按 mq.driver 创建底层发布者，none时丢弃所有事件
func NewBroker(cfg config.MQConfig, log *zap.Logger) (mq.Publisher, error) {
	switch cfg.Driver {
	case "rabbitmq":
		pub, err := mq.NewRabbitPublisher(cfg.URL, cfg.Exchange, cfg.ExchangeType, log)
		if err != nil {
			return nil, err
		}
		return pub, nil
	case "kafka":
		return mq.NewKafkaPublisher(cfg.Brokers, cfg.Topic, log), nil
	default:
		return mq.NopPublisher{}, nil
	}
}

// NewOrderConsumer 订单事件消费者；未开启消费或driver=none时返回nil
func NewOrderConsumer(cfg config.MQConfig, log *zap.Logger) (mq.Consumer, error) {
	if !cfg.Consume {
		return nil, nil
	}
	switch cfg.Driver {
	case "rabbitmq":
		c, err := mq.NewRabbitConsumer(cfg.URL, cfg.Exchange, cfg.ExchangeType, cfg.ConsumeQueue, cfg.ConsumeKeys, log)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "kafka":
		return mq.NewKafkaConsumer(cfg.Brokers, cfg.ConsumeTopic, cfg.ConsumerGroup, log), nil
	default:
		return nil, nil
	}
}
