package model

import (
	"time"

	"gorm.io/gorm"
)

// ReadReceipt 已读回执
// 每个 (chat_uuid, user_uuid) 一条记录，拉取历史时 upsert 更新 ReadAt
// 未读数 = 聊天内晚于 ReadAt 的他人消息数
type ReadReceipt struct {
	gorm.Model

	ChatUuid string    `gorm:"column:chat_uuid;uniqueIndex:idx_receipt_chat_user;type:char(20);not null;comment:聊天uuid"`
	UserUuid string    `gorm:"column:user_uuid;uniqueIndex:idx_receipt_chat_user;type:char(20);not null;comment:用户uuid"`
	ReadAt   time.Time `gorm:"column:read_at;not null;comment:已读时间"`
}

// TableName 指定表名
func (ReadReceipt) TableName() string {
	return "read_receipt"
}
