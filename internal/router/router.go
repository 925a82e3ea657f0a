// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes 注册所有路由
// 在 https_server.Init() 中调用
func RegisterRoutes(r *gin.Engine) {
	// Prometheus 指标端点，不走认证
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	RegisterChatRoutes(r)      // 聊天路由
	RegisterMessageRoutes(r)   // 消息路由
	RegisterCallRoutes(r)      // 通话路由
	RegisterWebSocketRoutes(r) // WebSocket 路由
}
