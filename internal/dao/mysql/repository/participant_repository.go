package repository

import (
	"whispr_chat_server/internal/model"

	"gorm.io/gorm"
)

type participantRepository struct {
	db *gorm.DB
}

// NewParticipantRepository 创建聊天成员 Repository
func NewParticipantRepository(db *gorm.DB) ParticipantRepository {
	return &participantRepository{db: db}
}

// Find 查找指定聊天内的成员记录
// 成员身份校验走这里：查不到即视为无权访问
func (r *participantRepository) Find(chatUuid, userUuid string) (*model.Participant, error) {
	var p model.Participant
	if err := r.db.Where("chat_uuid = ? AND user_uuid = ?", chatUuid, userUuid).First(&p).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询成员 chat=%s user=%s", chatUuid, userUuid)
	}
	return &p, nil
}

// FindByChatUuid 查找聊天的全部成员
func (r *participantRepository) FindByChatUuid(chatUuid string) ([]model.Participant, error) {
	var ps []model.Participant
	if err := r.db.Where("chat_uuid = ?", chatUuid).Find(&ps).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询聊天成员 chat=%s", chatUuid)
	}
	return ps, nil
}

// FindChatUuidsByUser 查找用户加入的全部聊天 UUID
func (r *participantRepository) FindChatUuidsByUser(userUuid string) ([]string, error) {
	var chatUuids []string
	err := r.db.Model(&model.Participant{}).Where("user_uuid = ?", userUuid).
		Pluck("chat_uuid", &chatUuids).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询用户聊天列表 user=%s", userUuid)
	}
	return chatUuids, nil
}

// Create 添加成员
func (r *participantRepository) Create(p *model.Participant) error {
	if err := r.db.Create(p).Error; err != nil {
		return wrapDBError(err, "添加成员")
	}
	return nil
}

// CreateBatch 批量添加成员
func (r *participantRepository) CreateBatch(ps []model.Participant) error {
	if len(ps) == 0 {
		return nil
	}
	if err := r.db.Create(&ps).Error; err != nil {
		return wrapDBError(err, "批量添加成员")
	}
	return nil
}

// AdvanceLastRead 推进成员的已读水位，只前进不后退
func (r *participantRepository) AdvanceLastRead(chatUuid, userUuid string, messageUuid int64) error {
	err := r.db.Model(&model.Participant{}).
		Where("chat_uuid = ? AND user_uuid = ? AND last_read_message_id < ?", chatUuid, userUuid, messageUuid).
		Update("last_read_message_id", messageUuid).Error
	return wrapDBErrorf(err, "推进已读水位 chat=%s user=%s", chatUuid, userUuid)
}

// CountByChatUuid 统计聊天成员数
func (r *participantRepository) CountByChatUuid(chatUuid string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Participant{}).Where("chat_uuid = ?", chatUuid).Count(&count).Error
	if err != nil {
		return 0, wrapDBErrorf(err, "统计成员数 chat=%s", chatUuid)
	}
	return count, nil
}
