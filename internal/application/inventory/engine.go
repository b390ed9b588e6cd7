// Package inventory 预留引擎：库存预留、确认、取消、过期清理和各类库存变动
//
// 每个操作都在一个事务里同时写库存项、预留单和流水三张表，
// 乐观锁冲突（ErrConcurrencyConflict）时整个事务从头重读重试，
// 事务提交后再发布领域事件。
package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
	"github.com/xiebiao/inventory-reservation/pkg/metrics"
	"github.com/xiebiao/inventory-reservation/pkg/tracing"
)

const tracerName = "inventory-reservation/engine"

// Config 引擎参数
type Config struct {
	DefaultHold  time.Duration // 未指定expiresAt时的预留时长
	MaxRetries   uint64        // 乐观锁冲突最大重试次数
	RetryInitial time.Duration
	RetryMax     time.Duration
	OrderTimeout time.Duration // ReserveOrder整体超时
	BatchSize    int           // 过期清理每批条数
}

func (c Config) withDefaults() Config {
	if c.DefaultHold <= 0 {
		c.DefaultHold = inventory.DefaultHold
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 5
	}
	if c.RetryInitial <= 0 {
		c.RetryInitial = 10 * time.Millisecond
	}
	if c.RetryMax <= 0 {
		c.RetryMax = 200 * time.Millisecond
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	return c
}

// Engine 预留引擎
type Engine struct {
	items        inventory.ItemRepository
	reservations inventory.ReservationRepository
	movements    inventory.MovementRepository
	txManager    inventory.TxManager
	publisher    inventory.EventPublisher
	log          *zap.Logger
	cfg          Config
	now          func() time.Time
}

// NewEngine 创建预留引擎，publisher为nil时不发布事件
func NewEngine(
	items inventory.ItemRepository,
	reservations inventory.ReservationRepository,
	movements inventory.MovementRepository,
	txManager inventory.TxManager,
	publisher inventory.EventPublisher,
	log *zap.Logger,
	cfg Config,
) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		items:        items,
		reservations: reservations,
		movements:    movements,
		txManager:    txManager,
		publisher:    publisher,
		log:          log,
		cfg:          cfg.withDefaults(),
		now:          time.Now,
	}
}

// WithClock 替换时钟（测试用）
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// txFunc 事务内执行的业务逻辑，返回提交后要发布的事件
type txFunc func(ctx context.Context) ([]inventory.Event, error)

// execute 事务 + 乐观锁重试 + 指标 + Span + 提交后发布事件
//
// 只有ErrConcurrencyConflict会重试，业务错误包装成backoff.Permanent立即返回；
// 重试次数耗尽时把ErrConcurrencyConflict返回给调用方。
func (e *Engine) execute(ctx context.Context, op string, fn txFunc) error {
	ctx, span := tracing.StartSpan(ctx, tracerName, "inventory."+op)
	start := time.Now()

	var events []inventory.Event
	attempt := func() error {
		var pending []inventory.Event
		err := e.txManager.Transaction(ctx, func(txCtx context.Context) error {
			var err error
			pending, err = fn(txCtx)
			return err
		})
		if err == nil {
			events = pending
			return nil
		}
		if errors.Is(err, inventory.ErrConcurrencyConflict) {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, wait time.Duration) {
		metrics.IncRetry(op)
		e.log.Debug("乐观锁冲突，重试",
			append(tracing.LogFields(ctx),
				zap.String("operation", op),
				zap.Duration("wait", wait),
				zap.Error(err))...)
	}

	err := backoff.RetryNotify(attempt, backoff.WithContext(e.newBackOff(), ctx), notify)

	metrics.ObserveOperation(op, err, time.Since(start))
	tracing.EndSpan(span, err)

	if err != nil {
		return err
	}
	for _, ev := range events {
		if ev.Type == inventory.EventStockLow {
			metrics.IncLowStock()
		}
	}
	e.publish(ctx, events)
	return nil
}

func (e *Engine) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.cfg.RetryInitial
	b.MaxInterval = e.cfg.RetryMax
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, e.cfg.MaxRetries)
}

// publish 事件发布失败只记录日志，业务结果已经提交
func (e *Engine) publish(ctx context.Context, events []inventory.Event) {
	if e.publisher == nil || len(events) == 0 {
		return
	}
	if err := e.publisher.Publish(ctx, events...); err != nil {
		e.log.Warn("发布库存事件失败",
			append(tracing.LogFields(ctx),
				zap.Int("events", len(events)),
				zap.String("first_type", events[0].Type),
				zap.Error(err))...)
	}
}

// lowStockEvent 本次操作让库存项跌破补货点时返回stock.low事件
func lowStockEvent(item *inventory.Item, wasLow bool, now time.Time) []inventory.Event {
	if wasLow || !item.IsLowStock() || item.Status != inventory.ItemStatusActive {
		return nil
	}
	return []inventory.Event{inventory.NewStockEvent(inventory.EventStockLow, item, item.Available, "reorder point reached", now)}
}
