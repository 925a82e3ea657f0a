// Package model 定义数据库实体模型
// 本文件定义消息模型，消息生命周期（编辑、软删、转发、已读）都围绕这张表
package model

import (
	"database/sql"

	"gorm.io/gorm"
)

// 消息类型常量
const (
	MessageTypeText      = "text"
	MessageTypeImage     = "image"
	MessageTypeVideo     = "video"
	MessageTypeAudio     = "audio"
	MessageTypeDocument  = "document"
	MessageTypeVoiceNote = "voice_note"
	MessageTypeSystem    = "system"
)

// IsMediaType 是否多媒体消息类型（需要媒体描述符）
func IsMediaType(t string) bool {
	switch t {
	case MessageTypeImage, MessageTypeVideo, MessageTypeAudio, MessageTypeDocument, MessageTypeVoiceNote:
		return true
	}
	return false
}

// Message 消息模型
// 对应数据库 message 表
type Message struct {
	gorm.Model

	// Uuid 消息唯一标识
	// 雪花算法生成的 int64，对外序列化为字符串避免 JS 精度丢失
	Uuid int64 `gorm:"column:uuid;uniqueIndex;type:bigint;not null;comment:消息雪花ID"`

	// ChatUuid 所属聊天
	ChatUuid string `gorm:"column:chat_uuid;index:idx_chat_created;type:char(20);not null;comment:聊天uuid"`

	// SenderUuid 发送者 UUID
	SenderUuid string `gorm:"column:sender_uuid;index;type:char(20);not null;comment:发送者uuid"`

	// SenderName 发送者昵称
	// 冗余存储，避免每次查历史都关联用户表
	SenderName string `gorm:"column:sender_name;type:varchar(40);not null;comment:发送者昵称"`

	// SenderAvatar 发送者头像
	SenderAvatar string `gorm:"column:sender_avatar;type:varchar(255);comment:发送者头像"`

	// Type 消息类型：text/image/video/audio/document/voice_note/system
	Type string `gorm:"column:type;type:varchar(12);not null;comment:消息类型"`

	// Content 消息文本内容
	// 软删除后被覆写为占位文本，原文不可恢复
	Content string `gorm:"column:content;type:TEXT;comment:消息内容"`

	// 媒体描述符，多媒体消息使用，软删除时全部清空
	MediaUrl  string `gorm:"column:media_url;type:varchar(255);comment:媒体url"`
	MediaType string `gorm:"column:media_type;type:varchar(40);comment:媒体MIME类型"`
	FileName  string `gorm:"column:file_name;type:varchar(255);comment:文件名"`
	FileSize  int64  `gorm:"column:file_size;not null;default:0;comment:文件字节数"`

	// ReplyToUuid 被回复消息的雪花 ID，0 表示不是回复
	ReplyToUuid int64 `gorm:"column:reply_to_uuid;type:bigint;not null;default:0;comment:回复的消息ID"`

	// ForwardedFrom 转发链根消息的雪花 ID，0 表示原创
	// 多级转发始终指向最初那条消息，不形成链
	ForwardedFrom int64 `gorm:"column:forwarded_from;type:bigint;not null;default:0;comment:转发根消息ID"`

	// ForwardCount 作为转发源被成功转发的次数
	ForwardCount int `gorm:"column:forward_count;not null;default:0;comment:被转发次数"`

	// Edited 是否被编辑过，编辑后不可清除
	Edited bool `gorm:"column:edited;not null;default:0;comment:是否编辑过"`

	// EditedAt 最后编辑时间
	EditedAt sql.NullTime `gorm:"column:edited_at;comment:编辑时间"`

	// DisappearsAt 阅后即焚到期时间，NULL 表示永久保留
	// 发送时由消息级或聊天级定时器算出，到期清理由外部任务负责
	DisappearsAt sql.NullTime `gorm:"column:disappears_at;comment:消息到期时间"`

	// DeletedFlag 是否被软删除
	// gorm.Model 的 DeletedAt 留给硬删除（物理清理）使用
	DeletedFlag bool `gorm:"column:deleted_flag;not null;default:0;comment:是否软删除"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "message"
}

// ForwardRoot 取转发链根：已是转发消息则沿用其根，否则自己就是根
func (m *Message) ForwardRoot() int64 {
	if m.ForwardedFrom != 0 {
		return m.ForwardedFrom
	}
	return m.Uuid
}
