package request

// StartCallRequest 发起通话请求
// 使用位置:
//   - internal/handler/call_handler.go: StartCallHandler
//   - internal/service/call/service.go: StartCall
type StartCallRequest struct {
	ChatId string `json:"chat_id" binding:"required"`
	Type   string `json:"type" binding:"required,oneof=audio video"`
}
