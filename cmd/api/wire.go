//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 修改本文件后运行 `wire gen ./cmd/api` 重新生成 wire_gen.go
// Provider函数写在app.go里，本文件只在wire生成代码时参与编译

package main

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	appinventory "github.com/xiebiao/inventory-reservation/internal/application/inventory"
	"github.com/xiebiao/inventory-reservation/internal/application/reaper"
	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
	"github.com/xiebiao/inventory-reservation/internal/infrastructure/config"
	"github.com/xiebiao/inventory-reservation/internal/infrastructure/messaging"
	"github.com/xiebiao/inventory-reservation/internal/infrastructure/persistence"
	"github.com/xiebiao/inventory-reservation/internal/interface/http/handler"
	"github.com/xiebiao/inventory-reservation/internal/interface/http/router"
)

// infrastructureSet 存储、Redis、消息队列
var infrastructureSet = wire.NewSet(
	persistence.Open,
	wire.FieldsOf(new(*persistence.Storage), "Items", "Reservations", "Movements", "Tx"),
	provideRedisClient,
	provideBroker,
	provideOrderConsumer,
	messaging.NewEventPublisher,
	wire.Bind(new(inventory.EventPublisher), new(*messaging.EventPublisher)),
)

// applicationSet 预留引擎、过期清理、订单事件处理
var applicationSet = wire.NewSet(
	provideEngineConfig,
	appinventory.NewEngine,
	provideReaper,
	messaging.NewOrderEventHandler,
	wire.Bind(new(messaging.OrderService), new(*appinventory.Engine)),
)

// handlerSet HTTP处理器和路由
var handlerSet = wire.NewSet(
	handler.NewReservationHandler,
	handler.NewOrderHandler,
	handler.NewItemHandler,
	handler.NewAdminHandler,
	wire.Bind(new(handler.Sweeper), new(*reaper.Reaper)),
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)

// serverSet HTTP和gRPC服务器
var serverSet = wire.NewSet(
	provideHTTPServer,
	provideHealthServer,
	provideGRPCServer,
	wire.Struct(new(App), "*"),
)

// InitializeApp 组装整个应用，cleanup按创建的逆序释放连接
func InitializeApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		applicationSet,
		handlerSet,
		serverSet,
	)
	return nil, nil, nil
}
