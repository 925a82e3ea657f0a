package repository

import (
	"database/sql"
	"time"

	"whispr_chat_server/internal/model"

	"gorm.io/gorm"
)

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository 创建聊天 Repository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// FindByUuid 根据 UUID 查找聊天
func (r *chatRepository) FindByUuid(uuid string) (*model.Chat, error) {
	var chat model.Chat
	if err := r.db.Where("uuid = ?", uuid).First(&chat).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询聊天 uuid=%s", uuid)
	}
	return &chat, nil
}

// FindByUuids 批量根据 UUID 查找聊天
func (r *chatRepository) FindByUuids(uuids []string) ([]model.Chat, error) {
	var chats []model.Chat
	if len(uuids) == 0 {
		return chats, nil
	}
	if err := r.db.Where("uuid IN ?", uuids).Find(&chats).Error; err != nil {
		return nil, wrapDBError(err, "批量查询聊天")
	}
	return chats, nil
}

// FindByDirectKey 根据单聊唯一键查找
func (r *chatRepository) FindByDirectKey(directKey string) (*model.Chat, error) {
	var chat model.Chat
	if err := r.db.Where("direct_key = ?", directKey).First(&chat).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询单聊 key=%s", directKey)
	}
	return &chat, nil
}

// Create 创建聊天
func (r *chatRepository) Create(chat *model.Chat) error {
	if err := r.db.Create(chat).Error; err != nil {
		return wrapDBError(err, "创建聊天")
	}
	return nil
}

// UpdateLastMessage 更新最新消息摘要和时间
func (r *chatRepository) UpdateLastMessage(chatUuid string, summary string, at time.Time) error {
	err := r.db.Model(&model.Chat{}).Where("uuid = ?", chatUuid).
		Updates(map[string]interface{}{
			"last_message":    summary,
			"last_message_at": sql.NullTime{Time: at, Valid: true},
		}).Error
	return wrapDBErrorf(err, "更新聊天摘要 uuid=%s", chatUuid)
}
