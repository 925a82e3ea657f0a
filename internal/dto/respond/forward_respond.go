package respond

// ForwardTargetRespond 单个目标聊天的转发结果
// 转发是尽力而为：部分目标失败不影响其他目标
type ForwardTargetRespond struct {
	ChatId    string `json:"chat_id"`
	MessageId string `json:"message_id,omitempty"`
	Ok        bool   `json:"ok"`
	Reason    string `json:"reason,omitempty"`
}

// ForwardRespond 转发消息响应
// 使用位置:
//   - internal/service/message/service.go: ForwardMessage
type ForwardRespond struct {
	RootId       string                 `json:"root_id"`
	ForwardCount int                    `json:"forward_count"`
	Targets      []ForwardTargetRespond `json:"targets"`
}
