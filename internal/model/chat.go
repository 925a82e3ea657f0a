// Package model 定义数据库实体模型
// 本文件定义聊天模型，单聊与群聊共用一张表
package model

import (
	"database/sql"

	"gorm.io/gorm"
)

// Chat 聊天模型
// 对应数据库 chat 表
// IsGroup 为 false 时是单聊：同一对用户之间最多存在一条未删除的单聊记录，
// 唯一性通过 DirectKey 列的唯一索引在数据库层兜底
type Chat struct {
	gorm.Model

	// Uuid 聊天唯一标识
	// 格式：C + 13位时间戳随机字符串
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);comment:聊天uuid"`

	// IsGroup 是否群聊
	IsGroup bool `gorm:"column:is_group;not null;comment:是否群聊"`

	// Name 群聊名称，单聊为空（展示名取对方昵称）
	Name string `gorm:"column:name;type:varchar(100);comment:群聊名称"`

	// Description 群聊描述
	Description string `gorm:"column:description;type:varchar(500);comment:群聊描述"`

	// Avatar 群头像
	Avatar string `gorm:"column:avatar;type:varchar(255);default:default_group_avatar.png;comment:头像"`

	// OwnerId 创建者 UUID，群聊的初始管理员
	OwnerId string `gorm:"column:owner_id;index;type:char(20);not null;comment:创建者uuid"`

	// DirectKey 单聊唯一键
	// 两个成员 UUID 按字典序排序后用冒号拼接，如 "U1:U2"
	// 群聊时为空字符串（MySQL 唯一索引允许多个 NULL，这里用可空列）
	DirectKey sql.NullString `gorm:"column:direct_key;uniqueIndex;type:char(41);comment:单聊唯一键"`

	// OnlyAdminsCanPost 仅管理员可发言
	OnlyAdminsCanPost bool `gorm:"column:only_admins_can_post;not null;default:0;comment:仅管理员可发言"`

	// OnlyAdminsCanAddMembers 仅管理员可拉人
	OnlyAdminsCanAddMembers bool `gorm:"column:only_admins_can_add_members;not null;default:0;comment:仅管理员可拉人"`

	// DisappearingTTL 阅后即焚时长（秒），0 表示关闭
	DisappearingTTL int `gorm:"column:disappearing_ttl;not null;default:0;comment:消息保留秒数"`

	// LastMessage 最新消息摘要，用于聊天列表展示
	LastMessage string `gorm:"column:last_message;type:TEXT;comment:最新的消息"`

	// LastMessageAt 最后消息时间，聊天列表按此倒序
	LastMessageAt sql.NullTime `gorm:"column:last_message_at;type:datetime;comment:最近消息时间"`
}

// TableName 指定表名
func (Chat) TableName() string {
	return "chat"
}
