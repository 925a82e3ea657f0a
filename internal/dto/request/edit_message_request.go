package request

// EditMessageRequest 编辑消息请求
// 使用位置:
//   - internal/handler/message_handler.go: EditMessageHandler
//   - internal/service/message/service.go: EditMessage
type EditMessageRequest struct {
	MessageId string `json:"message_id" binding:"required"`
	Content   string `json:"content" binding:"required"`
}
