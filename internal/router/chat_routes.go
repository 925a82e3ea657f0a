// Package router 提供 HTTP 路由注册
// 本文件定义聊天相关的路由
package router

import (
	"github.com/gin-gonic/gin"

	"whispr_chat_server/internal/handler"
	"whispr_chat_server/internal/infrastructure/middleware"
)

// RegisterChatRoutes 注册聊天相关路由（需要认证）
func RegisterChatRoutes(r *gin.Engine) {
	chatGroup := r.Group("/chat", middleware.JWTAuth())
	{
		chatGroup.POST("/createChat", handler.CreateChatHandler)           // 创建单聊
		chatGroup.POST("/createGroupChat", handler.CreateGroupChatHandler) // 创建群聊
		chatGroup.GET("/getChatList", handler.GetChatListHandler)          // 获取聊天列表
	}
}
