package respond

// ChatRespond 聊天详情响应
// 使用位置:
//   - internal/service/chat/service.go: CreateDirectChat / CreateGroupChat
type ChatRespond struct {
	Id          string   `json:"id"`
	IsGroup     bool     `json:"is_group"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Avatar      string   `json:"avatar"`
	OwnerId     string   `json:"owner_id"`
	MemberIds   []string `json:"member_ids"`
	CreatedAt   string   `json:"created_at"`

	OnlyAdminsCanPost       bool `json:"only_admins_can_post"`
	OnlyAdminsCanAddMembers bool `json:"only_admins_can_add_members"`
	DisappearingTTL         int  `json:"disappearing_ttl"`
}

// ChatListRespond 聊天列表项，按最后消息时间倒序
// 使用位置:
//   - internal/service/chat/service.go: ListUserChats
type ChatListRespond struct {
	Id            string `json:"id"`
	IsGroup       bool   `json:"is_group"`
	Name          string `json:"name"`
	Avatar        string `json:"avatar"`
	LastMessage   string `json:"last_message"`
	LastMessageAt string `json:"last_message_at,omitempty"`

	// ParticipantCount 聊天成员数
	ParticipantCount int64 `json:"participant_count"`

	// PeerOnline 单聊对方是否在线，群聊恒为 false
	PeerOnline bool `json:"peer_online"`

	// UnreadCount 晚于本人已读回执时间的他人消息数
	UnreadCount int64 `json:"unread_count"`
}
