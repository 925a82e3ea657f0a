package repository

import (
	"whispr_chat_server/internal/model"

	"gorm.io/gorm"
)

type voiceNoteRepository struct {
	db *gorm.DB
}

// NewVoiceNoteRepository 创建语音附加数据 Repository
func NewVoiceNoteRepository(db *gorm.DB) VoiceNoteRepository {
	return &voiceNoteRepository{db: db}
}

// Create 创建语音附加记录
func (r *voiceNoteRepository) Create(v *model.VoiceNote) error {
	if err := r.db.Create(v).Error; err != nil {
		return wrapDBError(err, "创建语音数据")
	}
	return nil
}

// FindByMessageUuid 查找单条消息的语音数据
func (r *voiceNoteRepository) FindByMessageUuid(messageUuid int64) (*model.VoiceNote, error) {
	var v model.VoiceNote
	if err := r.db.Where("message_uuid = ?", messageUuid).First(&v).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询语音数据 message=%d", messageUuid)
	}
	return &v, nil
}

// FindByMessageUuids 批量查找
func (r *voiceNoteRepository) FindByMessageUuids(messageUuids []int64) ([]model.VoiceNote, error) {
	var vs []model.VoiceNote
	if len(messageUuids) == 0 {
		return vs, nil
	}
	if err := r.db.Where("message_uuid IN ?", messageUuids).Find(&vs).Error; err != nil {
		return nil, wrapDBError(err, "批量查询语音数据")
	}
	return vs, nil
}
