package request

// TranslateMessageRequest 翻译消息请求
// TargetLang 为空时使用用户画像中的首选语言
// 使用位置:
//   - internal/handler/message_handler.go: TranslateMessageHandler
//   - internal/service/message/service.go: TranslateMessage
type TranslateMessageRequest struct {
	MessageId  string `json:"message_id" binding:"required"`
	TargetLang string `json:"target_lang" binding:"max=10"`
}
