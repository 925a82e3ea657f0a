// Package router 提供 HTTP 路由注册
// 本文件定义通话相关的路由
package router

import (
	"github.com/gin-gonic/gin"

	"whispr_chat_server/internal/handler"
	"whispr_chat_server/internal/infrastructure/middleware"
)

// RegisterCallRoutes 注册通话相关路由（需要认证）
func RegisterCallRoutes(r *gin.Engine) {
	callGroup := r.Group("/call", middleware.JWTAuth())
	{
		callGroup.POST("/startCall", handler.StartCallHandler)      // 发起通话
		callGroup.POST("/endCall/:call_id", handler.EndCallHandler) // 结束通话
	}
}
