// Package https_server 提供 HTTP 服务器的初始化和配置
// 负责创建 Gin 引擎实例并配置中间件和路由
package https_server

import (
	"whispr_chat_server/internal/infrastructure/logger"
	"whispr_chat_server/internal/infrastructure/metrics"
	"whispr_chat_server/internal/router"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// GE 全局 Gin 引擎实例，main.go 中调用 GE.Run 启动
var GE *gin.Engine

// Init 初始化 HTTP 服务器
// 配置顺序：
//  1. 创建空白 Gin 引擎（不使用 gin.Default() 以便完全控制中间件）
//  2. 注册 Zap 日志和恢复中间件
//  3. 配置 CORS 跨域规则
//  4. 注册请求指标中间件
//  5. 注册业务路由
func Init() {
	engine := gin.New()

	engine.Use(logger.GinLogger())
	engine.Use(logger.GinRecovery(true))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // 生产环境应指定具体域名
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	// TLS 重定向中间件（可选，由 Nginx 处理 SSL 时保持注释）
	// engine.Use(middleware.TlsHandler(config.GetConfig().MainConfig.Host, config.GetConfig().MainConfig.Port))

	engine.Use(metrics.HTTPMetricsMiddleware())

	router.RegisterRoutes(engine)

	GE = engine
}
