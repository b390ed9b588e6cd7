// Package router 组装gin引擎：全局中间件、业务路由、/ping、/metrics、/swagger
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "github.com/xiebiao/inventory-reservation/docs"
	"github.com/xiebiao/inventory-reservation/internal/infrastructure/config"
	"github.com/xiebiao/inventory-reservation/internal/interface/http/handler"
	"github.com/xiebiao/inventory-reservation/internal/interface/http/middleware"
	"github.com/xiebiao/inventory-reservation/pkg/response"
)

// Handlers 所有HTTP处理器
type Handlers struct {
	Reservation *handler.ReservationHandler
	Order       *handler.OrderHandler
	Item        *handler.ItemHandler
	Admin       *handler.AdminHandler
}

// New 创建gin引擎并注册路由
//
// 中间件执行顺序：Recovery → Tracing（可选） → Logger → Metrics → CORS → Handler
func New(cfg *config.Config, log *zap.Logger, h Handlers) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.Logger(log))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.CORS))

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		reservations := v1.Group("/reservations")
		{
			reservations.POST("", h.Reservation.Reserve)
			reservations.GET("", h.Reservation.List)
			reservations.GET("/:id", h.Reservation.Get)
			reservations.POST("/:id/confirm", h.Reservation.Confirm)
			reservations.POST("/:id/cancel", h.Reservation.Cancel)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("/:order_id/reservations", h.Order.ReserveOrder)
			orders.POST("/:order_id/confirm", h.Order.ConfirmOrder)
			orders.POST("/:order_id/cancel", h.Order.CancelOrder)
		}

		items := v1.Group("/items")
		{
			items.POST("", h.Item.Create)
			items.GET("", h.Item.List)
			items.GET("/low-stock", h.Item.ListLowStock)
			items.GET("/:sku", h.Item.Get)
			items.PUT("/:sku/thresholds", h.Item.UpdateThresholds)
			items.PUT("/:sku/status", h.Item.UpdateStatus)
			items.GET("/:sku/movements", h.Item.ListMovements)
		}

		admin := v1.Group("/admin")
		{
			admin.POST("/inbound", h.Admin.Inbound)
			admin.POST("/adjustments", h.Admin.Adjust)
			admin.POST("/damage", h.Admin.Damage)
			admin.POST("/returns", h.Admin.Return)
			admin.POST("/transfers", h.Admin.Transfer)
			admin.POST("/incoming", h.Admin.Incoming)
			admin.POST("/sweep", h.Admin.Sweep)
		}
	}

	return r
}
