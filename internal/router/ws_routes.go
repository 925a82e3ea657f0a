// Package router 提供 HTTP 路由注册
// 本文件定义 WebSocket 相关的路由
package router

import (
	"github.com/gin-gonic/gin"

	"whispr_chat_server/internal/handler"
)

// RegisterWebSocketRoutes 注册 WebSocket 路由
// 认证不走 JWT 中间件：升级前无法返回 1008 关闭码，token 在升级后校验
func RegisterWebSocketRoutes(r *gin.Engine) {
	r.GET("/ws", handler.WsConnectHandler)
}
