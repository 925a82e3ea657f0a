package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"whispr_chat_server/internal/dto/request"
	"whispr_chat_server/internal/service"
	"whispr_chat_server/internal/service/relay"
)

// broadcastMessage HTTP 写操作成功后向实时网关投递广播事件
// 广播失败只记日志，不影响 HTTP 响应（客户端可以靠拉取兜底）
func broadcastMessage(chatId, messageId, senderId string) {
	if relay.GlobalBroker == nil {
		return
	}
	event := relay.Event{
		Action:    relay.ActionMessageBroadcast,
		ChatId:    chatId,
		MessageId: messageId,
		SenderId:  senderId,
		Timestamp: time.Now().Format("2006-01-02 15:04:05.000"),
	}
	data := event.Encode()
	if data == nil {
		return
	}
	if err := relay.GlobalBroker.Publish(context.Background(), data); err != nil {
		zap.L().Warn("publish broadcast event failed",
			zap.String("chat_id", chatId),
			zap.String("message_id", messageId),
			zap.Error(err))
	}
}

// SendMessageHandler 发送消息
func SendMessageHandler(c *gin.Context) {
	var req request.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	userUuid := currentUser(c)
	rsp, err := service.Svc.Message.SendMessage(userUuid, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	broadcastMessage(rsp.ChatId, rsp.Id, userUuid)
	HandleSuccess(c, rsp)
}

// EditMessageHandler 编辑消息
func EditMessageHandler(c *gin.Context) {
	var req request.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	userUuid := currentUser(c)
	rsp, err := service.Svc.Message.EditMessage(userUuid, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	broadcastMessage(rsp.ChatId, rsp.Id, userUuid)
	HandleSuccess(c, rsp)
}

// DeleteMessageHandler 删除消息
func DeleteMessageHandler(c *gin.Context) {
	var req request.DeleteMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := service.Svc.Message.DeleteMessage(currentUser(c), req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// ForwardMessageHandler 转发消息到多个聊天
func ForwardMessageHandler(c *gin.Context) {
	var req request.ForwardMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	userUuid := currentUser(c)
	rsp, err := service.Svc.Message.ForwardMessage(userUuid, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	// 每个成功落库的目标各广播一条
	for _, target := range rsp.Targets {
		if target.Ok {
			broadcastMessage(target.ChatId, target.MessageId, userUuid)
		}
	}
	HandleSuccess(c, rsp)
}

// ReactionHandler 表情回应（重复提交同一表情即取消）
func ReactionHandler(c *gin.Context) {
	var req request.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := service.Svc.Message.ToggleReaction(currentUser(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// GetMessageListHandler 倒序分页拉取聊天历史
func GetMessageListHandler(c *gin.Context) {
	var req request.GetMessageListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := service.Svc.Message.GetChatMessages(currentUser(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// SearchMessagesHandler 搜索消息
func SearchMessagesHandler(c *gin.Context) {
	var req request.SearchMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := service.Svc.Message.SearchMessages(currentUser(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// TranslateMessageHandler 翻译消息
func TranslateMessageHandler(c *gin.Context) {
	var req request.TranslateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := service.Svc.Message.TranslateMessage(c.Request.Context(), currentUser(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}
