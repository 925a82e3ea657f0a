package repository

import (
	"time"

	"whispr_chat_server/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type readReceiptRepository struct {
	db *gorm.DB
}

// NewReadReceiptRepository 创建已读回执 Repository
func NewReadReceiptRepository(db *gorm.DB) ReadReceiptRepository {
	return &readReceiptRepository{db: db}
}

// Find 查找用户在聊天内的已读回执
func (r *readReceiptRepository) Find(chatUuid, userUuid string) (*model.ReadReceipt, error) {
	var receipt model.ReadReceipt
	err := r.db.Where("chat_uuid = ? AND user_uuid = ?", chatUuid, userUuid).First(&receipt).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询已读回执 chat=%s user=%s", chatUuid, userUuid)
	}
	return &receipt, nil
}

// Upsert 创建或推进已读时间
// read_at 只前进不后退，翻旧页不会把已读时间拉回去
func (r *readReceiptRepository) Upsert(chatUuid, userUuid string, readAt time.Time) error {
	receipt := model.ReadReceipt{
		ChatUuid: chatUuid,
		UserUuid: userUuid,
		ReadAt:   readAt,
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "chat_uuid"}, {Name: "user_uuid"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"read_at": gorm.Expr("CASE WHEN read_at < ? THEN ? ELSE read_at END", readAt, readAt),
		}),
	}).Create(&receipt).Error
	return wrapDBError(err, "更新已读回执")
}
