package respond

// CallParticipantRespond 通话成员状态
type CallParticipantRespond struct {
	UserId   string `json:"user_id"`
	Status   string `json:"status"`
	JoinedAt string `json:"joined_at,omitempty"`
	LeftAt   string `json:"left_at,omitempty"`
}

// CallRespond 通话详情响应
// 使用位置:
//   - internal/service/call/service.go: StartCall / EndCall
type CallRespond struct {
	Id          string `json:"id"`
	ChatId      string `json:"chat_id"`
	InitiatorId string `json:"initiator_id"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	StartedAt   string `json:"started_at"`
	EndedAt     string `json:"ended_at,omitempty"`

	Participants []CallParticipantRespond `json:"participants,omitempty"`
}

// CallSignalRoute 信令的校验与路由结果，实时网关据此下发
type CallSignalRoute struct {
	ChatId  string
	Targets []string
}
