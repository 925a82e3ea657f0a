package model

import "gorm.io/gorm"

// VoiceNote 语音消息附加数据
// 与 message 一对一，只有 type=voice_note 的消息才有
type VoiceNote struct {
	gorm.Model

	MessageUuid int64 `gorm:"column:message_uuid;uniqueIndex;type:bigint;not null;comment:消息ID"`

	// Duration 语音时长（秒）
	Duration int `gorm:"column:duration;not null;comment:时长秒"`

	// Waveform 波形采样点，JSON 数组字符串，客户端渲染用
	Waveform string `gorm:"column:waveform;type:varchar(1024);comment:波形数据"`

	// Transcription 语音转写文本，转写由外部服务完成，可为空
	Transcription string `gorm:"column:transcription;type:TEXT;comment:转写文本"`
}

// TableName 指定表名
func (VoiceNote) TableName() string {
	return "voice_note"
}
