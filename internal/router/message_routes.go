// Package router 提供 HTTP 路由注册
// 本文件定义消息相关的路由
package router

import (
	"github.com/gin-gonic/gin"

	"whispr_chat_server/internal/handler"
	"whispr_chat_server/internal/infrastructure/middleware"
)

// RegisterMessageRoutes 注册消息相关路由（需要认证）
func RegisterMessageRoutes(r *gin.Engine) {
	messageGroup := r.Group("/message", middleware.JWTAuth())
	{
		messageGroup.POST("/sendMessage", handler.SendMessageHandler)           // 发送消息
		messageGroup.POST("/editMessage", handler.EditMessageHandler)           // 编辑消息
		messageGroup.POST("/deleteMessage", handler.DeleteMessageHandler)       // 删除消息
		messageGroup.POST("/forwardMessage", handler.ForwardMessageHandler)     // 转发消息
		messageGroup.POST("/reaction", handler.ReactionHandler)                 // 表情回应
		messageGroup.GET("/getMessageList", handler.GetMessageListHandler)      // 获取消息记录
		messageGroup.GET("/searchMessages", handler.SearchMessagesHandler)      // 搜索消息
		messageGroup.POST("/translateMessage", handler.TranslateMessageHandler) // 翻译消息
	}
}
