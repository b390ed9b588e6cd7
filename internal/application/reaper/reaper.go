// Package reaper 定时把到期未处理的预留单置为EXPIRED，释放占用的库存
package reaper

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	appinventory "github.com/xiebiao/inventory-reservation/internal/application/inventory"
	"github.com/xiebiao/inventory-reservation/pkg/metrics"
)

// Sweeper 执行一次过期清理（*inventory.Engine）
type Sweeper interface {
	ProcessExpiredReservations(ctx context.Context) (appinventory.SweepResult, error)
}

// Locker 跨副本互斥（*redis.SweepLock），拿不到锁时ok=false
type Locker interface {
	TryLock(ctx context.Context) (release func(), ok bool, err error)
}

// Reaper 过期清理任务
//
// 教学要点:
// 1. 进程内并发的RunOnce（定时器 + 管理接口）用singleflight合并成一次
// 2. 多副本时可选Redis锁，拿不到锁的副本本轮跳过
// 3. 锁只是减少重复工作，同一预留单被两个副本同时处理时，状态条件更新保证只生效一次
// 4. 合并后的一轮不随发起者的ctx取消，只在Stop时取消
type Reaper struct {
	sweeper  Sweeper
	locker   Locker
	interval time.Duration
	log      *zap.Logger

	group    singleflight.Group
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Option 可选配置
type Option func(*Reaper)

// WithLocker 启用跨副本锁
func WithLocker(l Locker) Option {
	return func(r *Reaper) {
		r.locker = l
	}
}

// New 创建清理任务
func New(sweeper Sweeper, interval time.Duration, log *zap.Logger, opts ...Option) *Reaper {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	r := &Reaper{
		sweeper:  sweeper,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start 启动定时清理，启动时先执行一次
func (r *Reaper) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop(ctx)
	}()
}

// Stop 停止定时清理并等待当前这一轮结束
func (r *Reaper) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
	r.wg.Wait()
}

func (r *Reaper) loop(ctx context.Context) {
	r.log.Info("reaper started", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(ctx)
	for {
		select {
		case <-ticker.C:
			r.tick(ctx)
		case <-r.stopCh:
			r.log.Info("reaper stopped")
			return
		case <-ctx.Done():
			r.log.Info("reaper cancelled")
			return
		}
	}
}

func (r *Reaper) tick(ctx context.Context) {
	if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
		r.log.Error("expiry sweep failed", zap.Error(err))
	}
}

// RunOnce 立即执行一次清理
// 已有一轮在执行时等待并共享它的结果；ctx取消只让调用方提前返回，不中断这一轮
func (r *Reaper) RunOnce(ctx context.Context) (appinventory.SweepResult, error) {
	ch := r.group.DoChan("sweep", func() (interface{}, error) {
		sctx, cancel := r.sweepContext(ctx)
		defer cancel()
		return r.sweep(sctx)
	})

	select {
	case res := <-ch:
		if res.Shared {
			r.log.Debug("expiry sweep coalesced")
		}
		result, _ := res.Val.(appinventory.SweepResult)
		return result, res.Err
	case <-ctx.Done():
		return appinventory.SweepResult{}, ctx.Err()
	}
}

// sweepContext 保留ctx里的值（trace等）但不继承取消，Stop时取消
func (r *Reaper) sweepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	go func() {
		select {
		case <-r.stopCh:
			cancel()
		case <-sctx.Done():
		}
	}()
	return sctx, cancel
}

func (r *Reaper) sweep(ctx context.Context) (appinventory.SweepResult, error) {
	if r.locker != nil {
		release, ok, err := r.locker.TryLock(ctx)
		if err != nil {
			metrics.IncReaperRun("error")
			return appinventory.SweepResult{}, err
		}
		if !ok {
			metrics.IncReaperRun("skipped")
			r.log.Debug("expiry sweep skipped, lock held by another replica")
			return appinventory.SweepResult{}, nil
		}
		defer release()
	}

	start := time.Now()
	result, err := r.sweeper.ProcessExpiredReservations(ctx)
	switch {
	case err != nil:
		metrics.IncReaperRun("error")
	case result.Failed > 0:
		metrics.IncReaperRun("partial")
		r.log.Warn("expiry sweep finished with failures",
			zap.Int("processed", result.Processed),
			zap.Int("failed", result.Failed))
	default:
		metrics.IncReaperRun("success")
	}
	r.log.Debug("expiry sweep finished",
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed),
		zap.Duration("elapsed", time.Since(start)))
	return result, err
}
