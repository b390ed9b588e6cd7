package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/inventory-reservation/internal/infrastructure/config"
)

// CORS 跨域中间件，未启用时直接放行
// allow_origins包含"*"时不能同时允许携带凭证
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	cc := cors.Config{
		AllowMethods:  cfg.AllowMethods,
		AllowHeaders:  cfg.AllowHeaders,
		ExposeHeaders: []string{"Content-Length", RequestIDHeader},
		MaxAge:        cfg.MaxAge,
	}
	for _, origin := range cfg.AllowOrigins {
		if origin == "*" {
			cc.AllowAllOrigins = true
			break
		}
	}
	if !cc.AllowAllOrigins {
		cc.AllowOrigins = cfg.AllowOrigins
		cc.AllowCredentials = true
	}
	if len(cc.AllowMethods) == 0 {
		cc.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	}
	if len(cc.AllowHeaders) == 0 {
		cc.AllowHeaders = []string{"Origin", "Content-Type", RequestIDHeader}
	}
	if cc.MaxAge <= 0 {
		cc.MaxAge = 12 * time.Hour
	}
	return cors.New(cc)
}
