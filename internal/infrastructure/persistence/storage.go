// Package persistence 按 storage.driver 选择存储后端
package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
	"github.com/xiebiao/inventory-reservation/internal/infrastructure/config"
	"github.com/xiebiao/inventory-reservation/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/inventory-reservation/internal/infrastructure/persistence/rdb"
)

// Storage 引擎需要的仓储和事务管理器
type Storage struct {
	Items        inventory.ItemRepository
	Reservations inventory.ReservationRepository
	Movements    inventory.MovementRepository
	Tx           inventory.TxManager
}

// Open 打开存储，返回的cleanup负责关闭连接
//
// rdb: MySQL/PostgreSQL，auto_migrate=true时建表
// memory: 进程内存储，重启丢数据
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Storage, func(), error) {
	switch cfg.Storage.Driver {
	case "memory":
		log.Warn("使用内存存储，进程退出后数据丢失")
		store := memory.NewStore()
		return &Storage{
			Items:        memory.NewItemRepository(store),
			Reservations: memory.NewReservationRepository(store),
			Movements:    memory.NewMovementRepository(store),
			Tx:           memory.NewTxManager(store),
		}, func() {}, nil

	case "rdb", "":
		db, err := rdb.NewDB(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.WithContext(ctx).DB()
		if err != nil {
			return nil, nil, fmt.Errorf("获取SQL DB失败: %w", err)
		}
		cleanup := func() {
			if err := sqlDB.Close(); err != nil {
				log.Warn("关闭数据库连接失败", zap.Error(err))
			}
		}
		return &Storage{
			Items:        rdb.NewItemRepository(db),
			Reservations: rdb.NewReservationRepository(db),
			Movements:    rdb.NewMovementRepository(db),
			Tx:           rdb.NewTxManager(db),
		}, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("不支持的存储驱动: %s", cfg.Storage.Driver)
	}
}
