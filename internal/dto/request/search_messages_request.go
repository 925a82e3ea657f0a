package request

// SearchMessagesRequest 搜索消息请求
// ChatId 为空时在当前用户加入的所有聊天中搜索
// 使用位置:
//   - internal/handler/message_handler.go: SearchMessagesHandler
//   - internal/service/message/service.go: SearchMessages
type SearchMessagesRequest struct {
	ChatId string `json:"chat_id" form:"chat_id"`
	Query  string `json:"query" form:"query" binding:"required,min=1,max=200"`

	// 可选过滤条件，零值不参与过滤
	SenderId string `json:"sender_id" form:"sender_id"`
	Type     string `json:"type" form:"type" binding:"omitempty,oneof=text voice image file system call"`
	Before   string `json:"before" form:"before"`

	Limit int `json:"limit" form:"limit" binding:"gte=0,lte=100"`
}
