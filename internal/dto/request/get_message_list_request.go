package request

// GetMessageListRequest 拉取聊天历史请求
// Before 为空时从最新一条开始倒序翻页
// 使用位置:
//   - internal/handler/message_handler.go: GetMessageListHandler
//   - internal/service/message/service.go: GetChatMessages
type GetMessageListRequest struct {
	ChatId string `json:"chat_id" form:"chat_id" binding:"required"`
	Before string `json:"before" form:"before"`
	Limit  int    `json:"limit" form:"limit" binding:"gte=0,lte=100"`
}
