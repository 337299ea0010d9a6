// Package router 组装Gin引擎：全局中间件、运维接口和/api/v1业务路由
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/xiebiao/labinventory/internal/infrastructure/config"
	"github.com/xiebiao/labinventory/internal/interface/http/handler"
	"github.com/xiebiao/labinventory/internal/interface/http/middleware"
	"github.com/xiebiao/labinventory/pkg/response"
)

// Handlers 所有HTTP处理器
type Handlers struct {
	User      *handler.UserHandler
	Storage   *handler.StorageHandler
	Record    *handler.RecordHandler
	Inventory *handler.InventoryHandler
}

// New 创建Gin引擎
// 中间件顺序：Recovery → Tracing → Logger → CORS
// 读接口公开，写接口需要登录
func New(cfg *config.Config, h Handlers, auth *middleware.AuthMiddleware, log *zap.Logger) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cfg.CORS))

	// 运维接口
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong", "status": "healthy"})
	})
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}
	if cfg.Server.Mode != "release" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requireAuth := auth.RequireAuth()
	v1 := r.Group("/api/v1")
	{
		users := v1.Group("/users")
		{
			users.POST("/register", h.User.Register)
			users.POST("/login", h.User.Login)
			users.POST("/refresh", h.User.Refresh)
			users.POST("/logout", requireAuth, h.User.Logout)
		}

		st := v1.Group("/storage")
		{
			st.GET("", h.Storage.List)
			st.GET("/low-stock", h.Storage.LowStock)
			st.GET("/export", h.Storage.Export)
			st.GET("/template", h.Storage.Template)
			st.GET("/:id", h.Storage.Get)
			st.GET("/:id/deletion-info", h.Storage.DeletionInfo)
			st.GET("/:id/usage-history", h.Storage.UsageHistory)
			st.GET("/:id/usage-history/export", h.Storage.ExportUsageHistory)

			st.POST("", requireAuth, h.Storage.Create)
			st.POST("/restock", requireAuth, h.Storage.Intake)
			st.POST("/bulk-update", requireAuth, h.Storage.BulkUpdate)
			st.POST("/import", requireAuth, h.Storage.Import)
			st.PUT("/:id", requireAuth, h.Storage.Update)
			st.DELETE("/:id", requireAuth, h.Storage.Delete)
			st.POST("/:id/use", requireAuth, h.Storage.RecordUsage)
			st.POST("/:id/restock", requireAuth, h.Storage.Restock)
		}

		records := v1.Group("/records", requireAuth)
		{
			records.PUT("/:id", h.Record.Update)
			records.DELETE("/:id", h.Record.Delete)
		}

		inv := v1.Group("/inventory")
		{
			inv.GET("/dashboard", h.Inventory.Dashboard)
			inv.GET("/alerts", h.Inventory.Alerts)
		}
	}

	return r
}
