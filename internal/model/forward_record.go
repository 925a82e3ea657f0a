package model

import "gorm.io/gorm"

// ForwardRecord 转发明细
// 记录根消息被转发到了哪些聊天，审计与"转发自"展示用
type ForwardRecord struct {
	gorm.Model

	// RootUuid 转发链根消息的雪花 ID
	RootUuid int64 `gorm:"column:root_uuid;index;type:bigint;not null;comment:根消息ID"`

	// NewMessageUuid 转发产生的新消息 ID
	NewMessageUuid int64 `gorm:"column:new_message_uuid;uniqueIndex;type:bigint;not null;comment:新消息ID"`

	// TargetChatUuid 目标聊天
	TargetChatUuid string `gorm:"column:target_chat_uuid;index;type:char(20);not null;comment:目标聊天uuid"`

	// ForwardedBy 操作者 UUID
	ForwardedBy string `gorm:"column:forwarded_by;type:char(20);not null;comment:转发人uuid"`
}

// TableName 指定表名
func (ForwardRecord) TableName() string {
	return "forward_record"
}
