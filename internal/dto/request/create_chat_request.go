package request

// CreateChatRequest 创建单聊请求
// 使用位置:
//   - internal/handler/chat_handler.go: CreateChatHandler
//   - internal/service/chat/service.go: CreateDirectChat
type CreateChatRequest struct {
	PeerId string `json:"peer_id" binding:"required"`
}
