package repository

import (
	"whispr_chat_server/internal/model"

	"gorm.io/gorm"
)

type translationRepository struct {
	db *gorm.DB
}

// NewTranslationRepository 创建译文缓存 Repository
func NewTranslationRepository(db *gorm.DB) TranslationRepository {
	return &translationRepository{db: db}
}

// Find 查找消息在目标语言下的缓存译文
func (r *translationRepository) Find(messageUuid int64, lang string) (*model.Translation, error) {
	var t model.Translation
	err := r.db.Where("message_uuid = ? AND lang = ?", messageUuid, lang).First(&t).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询译文 message=%d lang=%s", messageUuid, lang)
	}
	return &t, nil
}

// Create 写入译文缓存
func (r *translationRepository) Create(t *model.Translation) error {
	if err := r.db.Create(t).Error; err != nil {
		return wrapDBError(err, "写入译文缓存")
	}
	return nil
}
