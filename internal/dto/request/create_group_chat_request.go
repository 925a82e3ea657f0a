package request

// CreateGroupChatRequest 创建群聊请求
// 使用位置:
//   - internal/handler/chat_handler.go: CreateGroupChatHandler
//   - internal/service/chat/service.go: CreateGroupChat
type CreateGroupChatRequest struct {
	Name        string   `json:"name" binding:"required,max=100"`
	Description string   `json:"description" binding:"max=500"`
	Avatar      string   `json:"avatar"`
	MemberIds   []string `json:"member_ids" binding:"required,min=1"`

	// 群设置，缺省都关闭
	OnlyAdminsCanPost       bool `json:"only_admins_can_post"`
	OnlyAdminsCanAddMembers bool `json:"only_admins_can_add_members"`
	DisappearingTTL         int  `json:"disappearing_ttl" binding:"gte=0"`
}
