package model

import "gorm.io/gorm"

// Translation 消息译文缓存
// (message_uuid, lang) 唯一，同一语言只调一次外部翻译服务
// 降级产物（[LANG] 前缀的标记译文）不会写进这张表
type Translation struct {
	gorm.Model

	MessageUuid int64  `gorm:"column:message_uuid;uniqueIndex:idx_msg_lang;type:bigint;not null;comment:消息ID"`
	Lang        string `gorm:"column:lang;uniqueIndex:idx_msg_lang;type:char(10);not null;comment:目标语言"`
	Content     string `gorm:"column:content;type:TEXT;not null;comment:译文"`
}

// TableName 指定表名
func (Translation) TableName() string {
	return "translation"
}
