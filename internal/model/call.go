// Package model 定义数据库实体模型
// 本文件定义音视频通话模型，信令内容经实时网关透传，不落库
package model

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// 通话类型与状态常量
const (
	CallTypeAudio = "audio"
	CallTypeVideo = "video"

	CallStatusInitiated = "initiated"
	CallStatusRinging   = "ringing"
	CallStatusAnswered  = "answered"
	CallStatusEnded     = "ended"
	CallStatusMissed    = "missed"

	CallPartInvited  = "invited"
	CallPartJoined   = "joined"
	CallPartDeclined = "declined"
	CallPartLeft     = "left"
)

// ActiveCallStatuses 仍在进行中的通话状态
// 同一聊天同一时刻最多一条处于这些状态的记录
var ActiveCallStatuses = []string{CallStatusInitiated, CallStatusRinging, CallStatusAnswered}

// Call 通话模型
// 对应数据库 call 表
type Call struct {
	gorm.Model

	// Uuid 通话唯一标识
	// 格式：A + 13位时间戳随机字符串
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);comment:通话uuid"`

	// ChatUuid 通话所在聊天
	ChatUuid string `gorm:"column:chat_uuid;index;type:char(20);not null;comment:聊天uuid"`

	// InitiatorUuid 发起者
	InitiatorUuid string `gorm:"column:initiator_uuid;type:char(20);not null;comment:发起者uuid"`

	// Type 通话类型：audio / video
	Type string `gorm:"column:type;type:char(10);not null;comment:通话类型"`

	// Status 通话状态：initiated / ringing / answered / ended / missed
	// 发起即 initiated，信令推进到 ringing/answered，结束时按是否接通落 ended 或 missed
	Status string `gorm:"column:status;index;type:char(10);not null;default:initiated;comment:状态"`

	// StartedAt 发起时间
	StartedAt time.Time `gorm:"column:started_at;not null;comment:发起时间"`

	// EndedAt 结束时间
	EndedAt sql.NullTime `gorm:"column:ended_at;comment:结束时间"`
}

// TableName 指定表名
func (Call) TableName() string {
	return "call"
}

// IsActive 通话是否仍在进行中
func (c *Call) IsActive() bool {
	return c.Status == CallStatusInitiated || c.Status == CallStatusRinging || c.Status == CallStatusAnswered
}

// CallParticipant 通话成员
// 发起时聊天全员入表：发起者 joined，其余 invited，信令推进 declined/left
type CallParticipant struct {
	gorm.Model

	CallUuid string `gorm:"column:call_uuid;uniqueIndex:idx_call_user;type:char(20);not null;comment:通话uuid"`
	UserUuid string `gorm:"column:user_uuid;uniqueIndex:idx_call_user;type:char(20);not null;comment:用户uuid"`

	// Status 成员状态：invited / joined / declined / left
	Status string `gorm:"column:status;type:char(10);not null;default:invited;comment:成员状态"`

	JoinedAt sql.NullTime `gorm:"column:joined_at;comment:加入时间"`
	LeftAt   sql.NullTime `gorm:"column:left_at;comment:离开时间"`
}

// TableName 指定表名
func (CallParticipant) TableName() string {
	return "call_participant"
}
