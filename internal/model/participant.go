// Package model 定义数据库实体模型
// 本文件定义聊天成员模型
package model

import (
	"time"

	"gorm.io/gorm"
)

// 成员角色常量
const (
	RoleMember    = "member"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// Participant 聊天成员模型
// 对应数据库 participant 表
// (chat_uuid, user_uuid) 唯一，同一人不会重复入群
type Participant struct {
	gorm.Model

	ChatUuid string `gorm:"column:chat_uuid;uniqueIndex:idx_chat_user;type:char(20);not null;comment:聊天uuid"`
	UserUuid string `gorm:"column:user_uuid;uniqueIndex:idx_chat_user;index;type:char(20);not null;comment:用户uuid"`

	// Role 成员角色：member / moderator / admin
	// 群主入群即 admin，其余默认 member
	Role string `gorm:"column:role;type:char(10);not null;default:member;comment:角色"`

	// Permissions 入群时从聊天设置派生的权限快照，JSON 字符串，仅群聊使用
	Permissions string `gorm:"column:permissions;type:varchar(255);comment:权限快照"`

	// LastReadMessageId 已读水位：本人观察到的最新消息雪花 ID，只前进不后退
	LastReadMessageId int64 `gorm:"column:last_read_message_id;not null;default:0;comment:已读消息ID"`

	// IsMuted 本人是否对该聊天免打扰
	IsMuted bool `gorm:"column:is_muted;not null;default:0;comment:是否免打扰"`

	// JoinedAt 入群时间
	JoinedAt time.Time `gorm:"column:joined_at;not null;comment:加入时间"`
}

// TableName 指定表名
func (Participant) TableName() string {
	return "participant"
}

// IsAdmin 是否管理员
func (p *Participant) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanModerate 是否有管理动作权限（删除他人消息等）
func (p *Participant) CanModerate() bool {
	return p.Role == RoleAdmin || p.Role == RoleModerator
}
