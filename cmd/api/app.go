package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	appinventory "github.com/xiebiao/inventory-reservation/internal/application/inventory"
	"github.com/xiebiao/inventory-reservation/internal/application/reaper"
	"github.com/xiebiao/inventory-reservation/internal/infrastructure/config"
	"github.com/xiebiao/inventory-reservation/internal/infrastructure/messaging"
	"github.com/xiebiao/inventory-reservation/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/inventory-reservation/pkg/mq"
)

// App 进程内所有长期运行的组件
type App struct {
	Config      *config.Config
	Log         *zap.Logger
	HTTP        *http.Server
	GRPC        *grpc.Server
	Health      *health.Server
	Reaper      *reaper.Reaper
	Consumer    mq.Consumer // mq.consume=false时为nil
	OrderEvents *messaging.OrderEventHandler
}

// Run 启动HTTP、gRPC健康检查、过期清理和订单事件消费，ctx取消后优雅退出
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Log.Info("HTTP服务启动", zap.String("addr", a.HTTP.Addr))
		if err := a.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP服务异常退出: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		return a.HTTP.Shutdown(shutdownCtx)
	})

	if a.Config.GRPC.Port > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", a.Config.GRPC.Port))
		if err != nil {
			return fmt.Errorf("监听gRPC端口失败: %w", err)
		}
		g.Go(func() error {
			a.Log.Info("gRPC健康检查服务启动", zap.Int("port", a.Config.GRPC.Port))
			a.Health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
			return a.GRPC.Serve(lis)
		})
		g.Go(func() error {
			<-ctx.Done()
			a.Health.Shutdown()
			a.GRPC.GracefulStop()
			return nil
		})
	}

	if a.Config.Reaper.Enabled {
		a.Reaper.Start(ctx)
		g.Go(func() error {
			<-ctx.Done()
			a.Reaper.Stop()
			return nil
		})
	}

	if a.Consumer != nil {
		g.Go(func() error {
			return a.OrderEvents.Run(ctx, a.Consumer)
		})
	}

	return g.Wait()
}

// provideEngineConfig 从配置提取引擎参数
func provideEngineConfig(cfg *config.Config) appinventory.Config {
	return appinventory.Config{
		DefaultHold:  cfg.Engine.DefaultHold,
		MaxRetries:   cfg.Engine.MaxRetries,
		RetryInitial: cfg.Engine.RetryInitial,
		RetryMax:     cfg.Engine.RetryMax,
		OrderTimeout: cfg.Engine.OrderTimeout,
		BatchSize:    cfg.Reaper.BatchSize,
	}
}

// provideBroker 创建事件发布的底层连接
func provideBroker(cfg *config.Config, log *zap.Logger) (mq.Publisher, func(), error) {
	pub, err := messaging.NewBroker(cfg.MQ, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := pub.Close(); err != nil {
			log.Warn("关闭消息发布连接失败", zap.Error(err))
		}
	}
	return pub, cleanup, nil
}

// provideOrderConsumer 订单事件消费者，未启用时返回nil
func provideOrderConsumer(cfg *config.Config, log *zap.Logger) (mq.Consumer, func(), error) {
	consumer, err := messaging.NewOrderConsumer(cfg.MQ, log)
	if err != nil {
		return nil, nil, err
	}
	if consumer == nil {
		return nil, func() {}, nil
	}
	cleanup := func() {
		if err := consumer.Close(); err != nil {
			log.Warn("关闭订单事件消费者失败", zap.Error(err))
		}
	}
	return consumer, cleanup, nil
}

// provideRedisClient redis.enabled=false时返回nil
func provideRedisClient(ctx context.Context, cfg *config.Config, log *zap.Logger) (*goredis.Client, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

// provideReaper reaper.use_lock=true时用Redis锁协调多副本
func provideReaper(cfg *config.Config, engine *appinventory.Engine, client *goredis.Client, log *zap.Logger) *reaper.Reaper {
	var opts []reaper.Option
	if cfg.Reaper.UseLock && client != nil {
		opts = append(opts, reaper.WithLocker(redis.NewSweepLock(client, redis.SweepLockKey, cfg.Reaper.LockTTL)))
	}
	return reaper.New(engine, cfg.Reaper.Interval, log, opts...)
}

// provideHTTPServer 包装gin引擎
func provideHTTPServer(cfg *config.Config, r *gin.Engine) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// provideHealthServer 标准grpc.health.v1服务
func provideHealthServer() *health.Server {
	return health.NewServer()
}

// provideGRPCServer 只注册健康检查，reflection便于grpcurl调试
func provideGRPCServer(cfg *config.Config, hs *health.Server) *grpc.Server {
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	if cfg.GRPC.Reflection {
		reflection.Register(s)
	}
	return s
}
