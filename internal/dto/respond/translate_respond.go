package respond

// TranslateRespond 翻译响应
// Degraded 为 true 表示外部服务不可用，Content 是加语言标记的降级译文
// 使用位置:
//   - internal/service/message/service.go: TranslateMessage
type TranslateRespond struct {
	MessageId string `json:"message_id"`
	Lang      string `json:"lang"`
	Content   string `json:"content"`
	FromCache bool   `json:"from_cache"`
	Degraded  bool   `json:"degraded"`
}
