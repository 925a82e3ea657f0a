// Package model 定义数据库实体模型
// 本文件定义用户画像模型，身份由外部认证服务管理，这里只存会话层需要的信息
package model

import (
	"database/sql"

	"gorm.io/gorm"
)

// UserProfile 用户画像模型
// 对应数据库 user_profile 表
// 注意：账号、密码等认证数据不在本服务内，Uuid 由外部认证服务签发
type UserProfile struct {
	gorm.Model

	// Uuid 用户唯一标识
	// 格式：U + 随机字符串，由外部认证服务签发
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);not null;comment:用户uuid"`

	// Nickname 昵称
	// 冗余到消息表，避免每次查历史都关联本表
	Nickname string `gorm:"column:nickname;type:varchar(40);not null;comment:昵称"`

	// Avatar 头像相对路径
	Avatar string `gorm:"column:avatar;type:varchar(255);default:default_avatar.png;not null;comment:头像"`

	// PreferredLang 首选语言（BCP-47 小写，如 en、es）
	// 翻译接口缺省目标语言
	PreferredLang string `gorm:"column:preferred_lang;type:char(10);default:en;comment:首选语言"`

	// StatusText 用户手动设置的状态文案，如 "away"、"busy"
	// 在线与否由连接注册表实时判定，不落库
	StatusText string `gorm:"column:status_text;type:varchar(40);comment:状态文案"`

	// ShowLastSeen 是否允许他人看到最后在线时间
	ShowLastSeen bool `gorm:"column:show_last_seen;not null;default:1;comment:是否展示最后在线"`

	// LastSeenAt 最后一次断开所有连接的时间
	LastSeenAt sql.NullTime `gorm:"column:last_seen_at;comment:最后在线时间"`
}

// TableName 指定表名
func (UserProfile) TableName() string {
	return "user_profile"
}
