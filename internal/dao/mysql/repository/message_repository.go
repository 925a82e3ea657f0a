package repository

import (
	"database/sql"
	"time"

	"whispr_chat_server/internal/model"
	"whispr_chat_server/pkg/constants"

	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息 Repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// FindByUuid 根据雪花 ID 查找消息
func (r *messageRepository) FindByUuid(uuid int64) (*model.Message, error) {
	var m model.Message
	if err := r.db.Where("uuid = ?", uuid).First(&m).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询消息 uuid=%d", uuid)
	}
	return &m, nil
}

// FindByUuids 批量根据雪花 ID 查找消息，回复预览的批量装配用
func (r *messageRepository) FindByUuids(uuids []int64) ([]model.Message, error) {
	var messages []model.Message
	if len(uuids) == 0 {
		return messages, nil
	}
	if err := r.db.Where("uuid IN ?", uuids).Find(&messages).Error; err != nil {
		return nil, wrapDBError(err, "批量查询消息")
	}
	return messages, nil
}

// FindPageByChat 按聊天倒序分页
// 雪花 ID 按时间单调递增，uuid < beforeUuid 即为翻到更早的消息
func (r *messageRepository) FindPageByChat(chatUuid string, beforeUuid int64, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = constants.MESSAGE_PAGE_SIZE
	}
	query := r.db.Where("chat_uuid = ?", chatUuid)
	if beforeUuid > 0 {
		query = query.Where("uuid < ?", beforeUuid)
	}
	var messages []model.Message
	if err := query.Order("uuid DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询消息 chat=%s", chatUuid)
	}
	return messages, nil
}

// Create 创建消息
func (r *messageRepository) Create(m *model.Message) error {
	if err := r.db.Create(m).Error; err != nil {
		return wrapDBError(err, "创建消息")
	}
	return nil
}

// UpdateContent 更新消息内容并置编辑标记
func (r *messageRepository) UpdateContent(uuid int64, content string, editedAt time.Time) error {
	err := r.db.Model(&model.Message{}).Where("uuid = ?", uuid).
		Updates(map[string]interface{}{
			"content":   content,
			"edited":    true,
			"edited_at": sql.NullTime{Time: editedAt, Valid: true},
		}).Error
	return wrapDBErrorf(err, "更新消息内容 uuid=%d", uuid)
}

// MarkDeleted 软删除：覆写内容为占位文本并清空全部媒体字段，原文不可恢复
func (r *messageRepository) MarkDeleted(uuid int64) error {
	err := r.db.Model(&model.Message{}).Where("uuid = ?", uuid).
		Updates(map[string]interface{}{
			"deleted_flag": true,
			"content":      constants.DELETED_PLACEHOLDER,
			"media_url":    "",
			"media_type":   "",
			"file_name":    "",
			"file_size":    0,
		}).Error
	return wrapDBErrorf(err, "软删除消息 uuid=%d", uuid)
}

// HardDelete 物理删除消息及其附属数据
// 语音附加、翻译缓存、表情回应一并清掉，回复引用置空，避免悬挂外键
func (r *messageRepository) HardDelete(uuid int64) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("message_uuid = ?", uuid).Delete(&model.VoiceNote{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("message_uuid = ?", uuid).Delete(&model.Translation{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("message_uuid = ?", uuid).Delete(&model.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Message{}).Where("reply_to_uuid = ?", uuid).
			Update("reply_to_uuid", 0).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("uuid = ?", uuid).Delete(&model.Message{}).Error
	})
	return wrapDBErrorf(err, "物理删除消息 uuid=%d", uuid)
}

// IncrementForwardCount 根消息转发计数加 n
func (r *messageRepository) IncrementForwardCount(uuid int64, n int) error {
	if n <= 0 {
		return nil
	}
	err := r.db.Model(&model.Message{}).Where("uuid = ?", uuid).
		Update("forward_count", gorm.Expr("forward_count + ?", n)).Error
	return wrapDBErrorf(err, "更新转发计数 uuid=%d", uuid)
}

// SearchInChats 在给定聊天内按条件搜索，排除软删除
func (r *messageRepository) SearchInChats(chatUuids []string, filter MessageSearchFilter) ([]model.Message, error) {
	var messages []model.Message
	if len(chatUuids) == 0 {
		return messages, nil
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = constants.MESSAGE_PAGE_SIZE
	}
	query := r.db.Where("chat_uuid IN ? AND deleted_flag = ? AND content LIKE ?",
		chatUuids, false, "%"+filter.Query+"%")
	if filter.SenderUuid != "" {
		query = query.Where("sender_uuid = ?", filter.SenderUuid)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.BeforeUuid > 0 {
		query = query.Where("uuid < ?", filter.BeforeUuid)
	}
	err := query.Order("uuid DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, wrapDBError(err, "搜索消息")
	}
	return messages, nil
}

// CountUnread 统计聊天内晚于 since 的他人消息数
func (r *messageRepository) CountUnread(chatUuid, userUuid string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Message{}).
		Where("chat_uuid = ? AND sender_uuid <> ? AND deleted_flag = ? AND created_at > ?",
			chatUuid, userUuid, false, since).
		Count(&count).Error
	if err != nil {
		return 0, wrapDBErrorf(err, "统计未读 chat=%s", chatUuid)
	}
	return count, nil
}

// CountAllUnread 无已读回执时统计聊天内全部他人消息数
func (r *messageRepository) CountAllUnread(chatUuid, userUuid string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Message{}).
		Where("chat_uuid = ? AND sender_uuid <> ? AND deleted_flag = ?", chatUuid, userUuid, false).
		Count(&count).Error
	if err != nil {
		return 0, wrapDBErrorf(err, "统计未读 chat=%s", chatUuid)
	}
	return count, nil
}
