package repository

import (
	"whispr_chat_server/internal/model"

	"gorm.io/gorm"
)

type forwardRepository struct {
	db *gorm.DB
}

// NewForwardRepository 创建转发明细 Repository
func NewForwardRepository(db *gorm.DB) ForwardRepository {
	return &forwardRepository{db: db}
}

// Create 记录一次成功转发
func (r *forwardRepository) Create(f *model.ForwardRecord) error {
	if err := r.db.Create(f).Error; err != nil {
		return wrapDBError(err, "记录转发明细")
	}
	return nil
}

// FindByRoot 查找根消息的全部转发明细
func (r *forwardRepository) FindByRoot(rootUuid int64) ([]model.ForwardRecord, error) {
	var records []model.ForwardRecord
	if err := r.db.Where("root_uuid = ?", rootUuid).Find(&records).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询转发明细 root=%d", rootUuid)
	}
	return records, nil
}
