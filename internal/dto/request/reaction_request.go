package request

// ReactionRequest 表情回应请求，重复提交同一表情即为取消
// 使用位置:
//   - internal/handler/message_handler.go: ReactionHandler
//   - internal/service/message/service.go: ToggleReaction
type ReactionRequest struct {
	MessageId string `json:"message_id" binding:"required"`
	Emoji     string `json:"emoji" binding:"required,max=20"`
}
