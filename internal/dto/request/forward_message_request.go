package request

// ForwardMessageRequest 转发消息请求
// 使用位置:
//   - internal/handler/message_handler.go: ForwardMessageHandler
//   - internal/service/message/service.go: ForwardMessage
type ForwardMessageRequest struct {
	MessageId     string   `json:"message_id" binding:"required"`
	TargetChatIds []string `json:"target_chat_ids" binding:"required,min=1"`

	// Caption 替换原文的转发附言，仅对文本消息生效
	Caption string `json:"caption"`
}
