// sweep 执行一次过期预留清理后退出，适合由cron或Kubernetes CronJob调度
//
// 用法：
//
//	sweep -config ./config/config.yaml
//
// 输出释放的预留单数量；部分失败时退出码为1
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	appinventory "github.com/xiebiao/inventory-reservation/internal/application/inventory"
	"github.com/xiebiao/inventory-reservation/internal/application/reaper"
	"github.com/xiebiao/inventory-reservation/internal/infrastructure/config"
	"github.com/xiebiao/inventory-reservation/internal/infrastructure/messaging"
	"github.com/xiebiao/inventory-reservation/internal/infrastructure/persistence"
	"github.com/xiebiao/inventory-reservation/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/inventory-reservation/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "配置文件路径，默认查找 ./config/config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("加载配置失败: %v", err)
		return 1
	}

	zlog, err := logger.New(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       "stderr",
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		log.Printf("初始化日志失败: %v", err)
		return 1
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, closeStorage, err := persistence.Open(ctx, cfg, zlog)
	if err != nil {
		zlog.Error("打开存储失败", zap.Error(err))
		return 1
	}
	defer closeStorage()

	broker, err := messaging.NewBroker(cfg.MQ, zlog)
	if err != nil {
		zlog.Error("连接消息队列失败", zap.Error(err))
		return 1
	}
	publisher := messaging.NewEventPublisher(broker, zlog)
	defer func() { _ = publisher.Close() }()

	engine := appinventory.NewEngine(
		storage.Items, storage.Reservations, storage.Movements, storage.Tx,
		publisher, zlog,
		appinventory.Config{
			DefaultHold:  cfg.Engine.DefaultHold,
			MaxRetries:   cfg.Engine.MaxRetries,
			RetryInitial: cfg.Engine.RetryInitial,
			RetryMax:     cfg.Engine.RetryMax,
			OrderTimeout: cfg.Engine.OrderTimeout,
			BatchSize:    cfg.Reaper.BatchSize,
		},
	)

	var opts []reaper.Option
	if cfg.Reaper.UseLock {
		client, err := redis.NewClient(ctx, cfg, zlog)
		if err != nil {
			zlog.Error("连接Redis失败", zap.Error(err))
			return 1
		}
		defer func() { _ = client.Close() }()
		opts = append(opts, reaper.WithLocker(redis.NewSweepLock(client, redis.SweepLockKey, cfg.Reaper.LockTTL)))
	}

	result, err := reaper.New(engine, cfg.Reaper.Interval, zlog, opts...).RunOnce(ctx)
	fmt.Println(result.Processed)
	if err != nil {
		zlog.Error("过期清理失败", zap.Int("processed", result.Processed), zap.Error(err))
		return 1
	}
	if result.Failed > 0 {
		zlog.Error("过期清理部分失败", zap.Int("processed", result.Processed), zap.Int("failed", result.Failed))
		return 1
	}
	return 0
}
