// Package metrics 提供基于Prometheus的库存预留指标
//
// 指标分三类：
//   - HTTP：请求数、耗时、处理中请求数（由 middleware.Metrics 记录）
//   - 库存引擎：操作结果、耗时、CAS冲突重试、过期清理数量、库存水位
//   - 基础设施：熔断器状态、Saga执行、消息发布/消费
//
// 命名规范沿用Prometheus惯例：Counter以`_total`结尾，Histogram以单位结尾。
// 标签只使用有限取值（operation、result、type），不要用sku或order_id做标签。
//
// 使用示例：
//
//	metrics.InitMetrics()
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
//
//	start := time.Now()
//	err := doReserve()
//	metrics.ObserveOperation("reserve", err, time.Since(start))
package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	apperrors "github.com/xiebiao/inventory-reservation/pkg/errors"
)

var (
	// once 防止重复注册（promauto重复注册会panic）
	once sync.Once

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数，标签：method、path、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// 库存引擎指标

	// InventoryOperationsTotal 引擎操作总数
	// 标签：operation（reserve/confirm/cancel/expire/inbound...）、result（success/insufficient_stock/...）
	InventoryOperationsTotal *prometheus.CounterVec

	// InventoryOperationDuration 引擎操作耗时（含重试）
	InventoryOperationDuration *prometheus.HistogramVec

	// ConcurrencyRetriesTotal CAS冲突导致的重试次数，标签：operation
	ConcurrencyRetriesTotal *prometheus.CounterVec

	// ReservationsExpiredTotal 被清理任务置为EXPIRED的预留单数量
	ReservationsExpiredTotal prometheus.Counter

	// ReaperRunsTotal 清理任务执行次数，标签：result（success/partial/error/skipped）
	ReaperRunsTotal *prometheus.CounterVec

	// LowStockEventsTotal 触发低库存告警次数
	LowStockEventsTotal prometheus.Counter

	// 熔断器指标

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求总数，标签：name、result（success/failure/rejected）
	CircuitBreakerRequests *prometheus.CounterVec

	// Saga指标

	// SagaExecutionsTotal Saga执行总数，标签：result
	SagaExecutionsTotal *prometheus.CounterVec

	// SagaCompensationsTotal Saga补偿执行总数
	SagaCompensationsTotal prometheus.Counter

	// 消息队列指标

	// MessagesPublishedTotal 消息发布总数，标签：topic、result
	MessagesPublishedTotal *prometheus.CounterVec

	// MessagesConsumedTotal 消息消费总数，标签：queue、result
	MessagesConsumedTotal *prometheus.CounterVec
)

// InitMetrics 初始化所有Prometheus指标（可重复调用）
func InitMetrics() {
	once.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	InventoryOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_operations_total",
			Help: "库存引擎操作总数",
		},
		[]string{"operation", "result"},
	)

	InventoryOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "inventory_operation_duration_seconds",
			Help: "库存引擎操作耗时（秒）",
			// 单次操作是一个短事务，重试时会拉长
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)

	ConcurrencyRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_concurrency_retries_total",
			Help: "乐观锁冲突重试次数",
		},
		[]string{"operation"},
	)

	ReservationsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_reservations_expired_total",
			Help: "过期清理的预留单数量",
		},
	)

	ReaperRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_reaper_runs_total",
			Help: "过期清理任务执行次数",
		},
		[]string{"result"},
	)

	LowStockEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_low_stock_events_total",
			Help: "低库存告警次数",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "熔断器请求总数",
		},
		[]string{"name", "result"},
	)

	SagaExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_executions_total",
			Help: "Saga执行总数",
		},
		[]string{"result"},
	)

	SagaCompensationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "saga_compensations_total",
			Help: "Saga补偿执行总数",
		},
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "消息发布总数",
		},
		[]string{"topic", "result"},
	)

	MessagesConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_consumed_total",
			Help: "消息消费总数",
		},
		[]string{"queue", "result"},
	)
}

// Result 把错误归类为有限的标签取值
func Result(err error) string {
	if err == nil {
		return "success"
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return "error"
	}
	switch appErr.Code {
	case apperrors.ErrCodeInsufficientStock:
		return "insufficient_stock"
	case apperrors.ErrCodeConcurrencyConflict:
		return "conflict"
	case apperrors.ErrCodeInvalidState:
		return "invalid_state"
	}
	if appErr.Code >= 40400 && appErr.Code < 40500 {
		return "not_found"
	}
	if appErr.Code < 50000 {
		return "rejected"
	}
	return "error"
}

// ObserveOperation 记录一次引擎操作的结果和耗时
func ObserveOperation(operation string, err error, d time.Duration) {
	InitMetrics()
	InventoryOperationsTotal.WithLabelValues(operation, Result(err)).Inc()
	InventoryOperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncRetry 记录一次CAS冲突重试
func IncRetry(operation string) {
	InitMetrics()
	ConcurrencyRetriesTotal.WithLabelValues(operation).Inc()
}

// AddExpired 累加过期清理数量
func AddExpired(n int) {
	InitMetrics()
	ReservationsExpiredTotal.Add(float64(n))
}

// IncReaperRun 记录一次清理任务执行
func IncReaperRun(result string) {
	InitMetrics()
	ReaperRunsTotal.WithLabelValues(result).Inc()
}

// IncLowStock 记录一次低库存告警
func IncLowStock() {
	InitMetrics()
	LowStockEventsTotal.Inc()
}

// IncBreakerRequest 记录熔断器请求结果（success/failure/rejected）
func IncBreakerRequest(name, result string) {
	InitMetrics()
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// SetBreakerState 记录熔断器当前状态
func SetBreakerState(name string, state int) {
	InitMetrics()
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// IncSaga 记录一次Saga执行结果
func IncSaga(result string) {
	InitMetrics()
	SagaExecutionsTotal.WithLabelValues(result).Inc()
}

// IncCompensation 记录一次Saga补偿
func IncCompensation() {
	InitMetrics()
	SagaCompensationsTotal.Inc()
}

// IncPublished 记录一次消息发布
func IncPublished(topic string, err error) {
	InitMetrics()
	MessagesPublishedTotal.WithLabelValues(topic, Result(err)).Inc()
}

// IncConsumed 记录一次消息消费
func IncConsumed(queue string, err error) {
	InitMetrics()
	MessagesConsumedTotal.WithLabelValues(queue, Result(err)).Inc()
}
