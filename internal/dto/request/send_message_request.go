package request

// SendMessageRequest 发送消息请求
// 使用位置:
//   - internal/handler/message_handler.go: SendMessageHandler
//   - internal/service/message/service.go: SendMessage
type SendMessageRequest struct {
	ChatId  string `json:"chat_id" binding:"required"`
	Type    string `json:"type" binding:"required,oneof=text image video audio document voice_note"`
	Content string `json:"content"`

	// 媒体描述符，多媒体类型必填 MediaUrl
	MediaUrl  string `json:"media_url"`
	MediaType string `json:"media_type"`
	FileName  string `json:"file_name"`
	FileSize  int64  `json:"file_size" binding:"gte=0"`

	// ReplyTo 被回复消息 ID（字符串形式的雪花 ID），空表示非回复
	ReplyTo string `json:"reply_to"`

	// 语音消息附加字段，type=voice_note 时必填 Duration，转写文本可选
	Duration      int    `json:"duration" binding:"gte=0"`
	Waveform      string `json:"waveform"`
	Transcription string `json:"transcription"`

	// DisappearingTTL 消息级阅后即焚时长（秒），0 表示沿用聊天级设置
	DisappearingTTL int `json:"disappearing_ttl" binding:"gte=0"`
}
