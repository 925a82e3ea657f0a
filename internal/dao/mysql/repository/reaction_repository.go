package repository

import (
	"whispr_chat_server/internal/model"

	"gorm.io/gorm"
)

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository 创建表情回应 Repository
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

// Find 查找用户对消息的指定表情回应
func (r *reactionRepository) Find(messageUuid int64, userUuid, emoji string) (*model.Reaction, error) {
	var reaction model.Reaction
	err := r.db.Where("message_uuid = ? AND user_uuid = ? AND emoji = ?",
		messageUuid, userUuid, emoji).First(&reaction).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询回应 message=%d", messageUuid)
	}
	return &reaction, nil
}

// Create 添加回应
func (r *reactionRepository) Create(reaction *model.Reaction) error {
	if err := r.db.Create(reaction).Error; err != nil {
		return wrapDBError(err, "添加回应")
	}
	return nil
}

// Delete 物理删除回应（取消）
// 取消是彻底抹掉，软删除会让唯一索引挡住同表情的再次回应
func (r *reactionRepository) Delete(messageUuid int64, userUuid, emoji string) error {
	err := r.db.Unscoped().Where("message_uuid = ? AND user_uuid = ? AND emoji = ?",
		messageUuid, userUuid, emoji).Delete(&model.Reaction{}).Error
	return wrapDBErrorf(err, "取消回应 message=%d", messageUuid)
}

// SummarizeByMessage 按表情聚合单条消息的回应数，数量降序
func (r *reactionRepository) SummarizeByMessage(messageUuid int64) ([]EmojiCount, error) {
	var counts []EmojiCount
	err := r.db.Model(&model.Reaction{}).
		Select("message_uuid, emoji, COUNT(*) AS cnt").
		Where("message_uuid = ?", messageUuid).
		Group("message_uuid, emoji").Order("cnt DESC").
		Scan(&counts).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "聚合回应 message=%d", messageUuid)
	}
	return counts, nil
}

// SummarizeByMessages 批量聚合多条消息的回应数
func (r *reactionRepository) SummarizeByMessages(messageUuids []int64) ([]EmojiCount, error) {
	var counts []EmojiCount
	if len(messageUuids) == 0 {
		return counts, nil
	}
	err := r.db.Model(&model.Reaction{}).
		Select("message_uuid, emoji, COUNT(*) AS cnt").
		Where("message_uuid IN ?", messageUuids).
		Group("message_uuid, emoji").Order("cnt DESC").
		Scan(&counts).Error
	if err != nil {
		return nil, wrapDBError(err, "批量聚合回应")
	}
	return counts, nil
}
