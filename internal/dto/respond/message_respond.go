package respond

// ReactionSummary 单个表情的聚合计数，按 Count 降序返回
type ReactionSummary struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// VoiceNoteRespond 语音消息附加数据
type VoiceNoteRespond struct {
	Duration      int    `json:"duration"`
	Waveform      string `json:"waveform"`
	Transcription string `json:"transcription,omitempty"`
}

// ReplyPreviewRespond 被回复消息的内联预览
// 客户端渲染回复气泡时无需再发一次查询
type ReplyPreviewRespond struct {
	Id         string `json:"id"`
	SenderName string `json:"sender_name"`
	Content    string `json:"content"`
}

// MessageRespond 消息响应
// 雪花 ID 统一序列化为字符串，避免前端 JS 丢精度
// 使用位置:
//   - internal/service/message/service.go: 各读写操作
//   - internal/service/relay/relay.go: message_broadcast 事件载荷
type MessageRespond struct {
	Id            string `json:"id"`
	ChatId        string `json:"chat_id"`
	SenderId      string `json:"sender_id"`
	SenderName    string `json:"sender_name"`
	SenderAvatar  string `json:"sender_avatar"`
	Type          string `json:"type"`
	Content       string `json:"content"`
	MediaUrl      string `json:"media_url,omitempty"`
	MediaType     string `json:"media_type,omitempty"`
	FileName      string `json:"file_name,omitempty"`
	FileSize      int64  `json:"file_size,omitempty"`
	ReplyTo       string `json:"reply_to,omitempty"`
	ForwardedFrom string `json:"forwarded_from,omitempty"`
	ForwardCount  int    `json:"forward_count"`
	Edited        bool   `json:"edited"`
	EditedAt      string `json:"edited_at,omitempty"`
	Deleted       bool   `json:"deleted"`
	DisappearsAt  string `json:"disappears_at,omitempty"`
	CreatedAt     string `json:"created_at"`

	ReplyPreview *ReplyPreviewRespond `json:"reply_preview,omitempty"`
	Reactions    []ReactionSummary    `json:"reactions,omitempty"`
	VoiceNote    *VoiceNoteRespond    `json:"voice_note,omitempty"`
}

// ReactionToggleRespond 表情回应开关结果
// Action 为 added 或 removed，Reactions 是该消息最新的聚合计数
type ReactionToggleRespond struct {
	Action    string            `json:"action"`
	Reactions []ReactionSummary `json:"reactions"`
}
