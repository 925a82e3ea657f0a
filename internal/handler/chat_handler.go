package handler

import (
	"github.com/gin-gonic/gin"

	"whispr_chat_server/internal/dto/request"
	"whispr_chat_server/internal/service"
)

// CreateChatHandler 创建单聊
func CreateChatHandler(c *gin.Context) {
	var req request.CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := service.Svc.Chat.CreateDirectChat(currentUser(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// CreateGroupChatHandler 创建群聊
func CreateGroupChatHandler(c *gin.Context) {
	var req request.CreateGroupChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := service.Svc.Chat.CreateGroupChat(currentUser(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// GetChatListHandler 获取当前用户的聊天列表
func GetChatListHandler(c *gin.Context) {
	rsp, err := service.Svc.Chat.ListUserChats(currentUser(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}
