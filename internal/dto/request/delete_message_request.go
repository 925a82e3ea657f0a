package request

// DeleteMessageRequest 删除消息请求
// Hard 为 true 时物理删除（仅群管理员或发送者本人），否则软删除留占位
// 使用位置:
//   - internal/handler/message_handler.go: DeleteMessageHandler
//   - internal/service/message/service.go: DeleteMessage
type DeleteMessageRequest struct {
	MessageId string `json:"message_id" binding:"required"`
	Hard      bool   `json:"hard"`
}
