package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8081
storage:
  driver: memory
engine:
  default_hold: 15m
  max_retries: 3
reaper:
  interval: 30s
  batch_size: 50
mq:
  driver: kafka
  brokers: ["k1:9092", "k2:9092"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Engine.DefaultHold)
	assert.Equal(t, uint64(3), cfg.Engine.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Reaper.Interval)
	assert.Equal(t, 50, cfg.Reaper.BatchSize)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.MQ.Brokers)

	t.Run("未配置的键使用默认值", func(t *testing.T) {
		assert.Equal(t, "mysql", cfg.Database.Driver)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, 200*time.Millisecond, cfg.Engine.RetryMax)
		assert.False(t, cfg.CORS.Enabled)
		assert.Equal(t, []string{"*"}, cfg.CORS.AllowOrigins)
		assert.Equal(t, 12*time.Hour, cfg.CORS.MaxAge)
	})
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8081\n")
	t.Setenv("INVENTORY_SERVER_PORT", "9000")
	t.Setenv("INVENTORY_ENGINE_DEFAULT_HOLD", "45m")
	t.Setenv("INVENTORY_DATABASE_PASSWORD", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 45*time.Minute, cfg.Engine.DefaultHold)
	assert.Equal(t, "s3cret", cfg.Database.Password)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"端口非法", "server:\n  port: 70000\n"},
		{"存储驱动非法", "storage:\n  driver: sqlite\n"},
		{"数据库驱动非法", "database:\n  driver: oracle\n"},
		{"预留时长为0", "engine:\n  default_hold: 0s\n"},
		{"重试次数为0", "engine:\n  max_retries: 0\n"},
		{"清理间隔为0", "reaper:\n  interval: 0s\n"},
		{"锁需要redis", "reaper:\n  use_lock: true\nredis:\n  enabled: false\n"},
		{"消息队列驱动非法", "mq:\n  driver: nats\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("mysql", func(t *testing.T) {
		d := DatabaseConfig{
			Driver: "mysql", User: "root", Password: "pw", Host: "db", Port: 3306,
			DBName: "inventory", Charset: "utf8mb4", ParseTime: true, Loc: "Asia/Shanghai",
		}
		assert.Equal(t,
			"root:pw@tcp(db:3306)/inventory?charset=utf8mb4&parseTime=true&loc=Asia%2FShanghai",
			d.DSN())
	})

	t.Run("postgres", func(t *testing.T) {
		d := DatabaseConfig{
			Driver: "postgres", User: "app", Password: "pw", Host: "pg", Port: 5432,
			DBName: "inventory", SSLMode: "disable", Loc: "UTC",
		}
		assert.Equal(t,
			"host=pg port=5432 user=app password=pw dbname=inventory sslmode=disable TimeZone=UTC",
			d.DSN())
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}
