// Package saga 按顺序执行一组本地事务，失败时逆序补偿已完成的步骤
//
// 库存场景：一个订单包含多个SKU，每个SKU的预留是一个独立事务。
// 第N个SKU库存不足时，取消前N-1个已成功的预留，订单整体不占用库存。
//
// 补偿操作必须幂等：对已经是终态的预留再次取消应当是无副作用的。
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xiebiao/inventory-reservation/pkg/metrics"
	"go.uber.org/zap"
)

// Step Saga中的一个步骤
type Step struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// CompensationError 补偿阶段出现的错误（需要人工介入）
type CompensationError struct {
	Step string
	Err  error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("补偿失败[步骤:%s]: %v", e.Step, e.Err)
}

func (e *CompensationError) Unwrap() error {
	return e.Err
}

// Saga 一次Saga执行
type Saga struct {
	steps    []Step
	executed []Step
	timeout  time.Duration
	log      *zap.Logger
}

// NewSaga 创建Saga，timeout<=0表示不限制整体耗时
//
//	s := saga.NewSaga(10*time.Second, logger)
//	s.AddStep("reserve SKU-1", reserve1, cancel1)
//	s.AddStep("reserve SKU-2", reserve2, cancel2)
//	err := s.Execute(ctx)
func NewSaga(timeout time.Duration, log *zap.Logger) *Saga {
	if log == nil {
		log = zap.NewNop()
	}
	return &Saga{
		timeout: timeout,
		log:     log,
	}
}

// AddStep 添加步骤（按添加顺序执行，按逆序补偿），Compensate可以为nil
func (s *Saga) AddStep(name string, action, compensate func(ctx context.Context) error) {
	s.steps = append(s.steps, Step{
		Name:       name,
		Action:     action,
		Compensate: compensate,
	})
}

// Execute 执行所有步骤
//
// 某一步失败或超时后补偿已完成的步骤，返回的错误包装了失败原因，
// 补偿失败时再用errors.Join附加 *CompensationError。
func (s *Saga) Execute(ctx context.Context) error {
	start := time.Now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	for i, step := range s.steps {
		if err := ctx.Err(); err != nil {
			return s.fail(ctx, fmt.Errorf("saga超时: %w", err))
		}

		if step.Action != nil {
			if err := step.Action(ctx); err != nil {
				return s.fail(ctx, fmt.Errorf("步骤[%d:%s]执行失败: %w", i, step.Name, err))
			}
		}
		s.executed = append(s.executed, step)
	}

	metrics.IncSaga("success")
	s.log.Debug("saga completed",
		zap.Int("steps", len(s.steps)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (s *Saga) fail(ctx context.Context, cause error) error {
	metrics.IncSaga("failure")
	// 补偿不受原context超时/取消影响，但保留其中的trace等值
	compErr := s.compensate(context.WithoutCancel(ctx))
	if compErr != nil {
		return errors.Join(cause, compErr)
	}
	return cause
}

// compensate 逆序补偿，单个补偿失败不影响其余补偿
func (s *Saga) compensate(ctx context.Context) error {
	var errs []error
	for i := len(s.executed) - 1; i >= 0; i-- {
		step := s.executed[i]
		if step.Compensate == nil {
			continue
		}

		metrics.IncCompensation()
		if err := step.Compensate(ctx); err != nil {
			s.log.Error("saga compensation failed", zap.String("step", step.Name), zap.Error(err))
			errs = append(errs, &CompensationError{Step: step.Name, Err: err})
		}
	}
	s.executed = nil
	return errors.Join(errs...)
}
