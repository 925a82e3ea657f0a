package model

import "gorm.io/gorm"

// Reaction 消息表情回应
// (message_uuid, user_uuid, emoji) 唯一，同一用户重复提交同一表情即为取消
type Reaction struct {
	gorm.Model

	MessageUuid int64  `gorm:"column:message_uuid;uniqueIndex:idx_msg_user_emoji;type:bigint;not null;comment:消息ID"`
	UserUuid    string `gorm:"column:user_uuid;uniqueIndex:idx_msg_user_emoji;type:char(20);not null;comment:用户uuid"`
	Emoji       string `gorm:"column:emoji;uniqueIndex:idx_msg_user_emoji;type:varchar(20);not null;comment:表情"`
}

// TableName 指定表名
func (Reaction) TableName() string {
	return "reaction"
}
