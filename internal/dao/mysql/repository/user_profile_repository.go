package repository

import (
	"database/sql"
	"time"

	"whispr_chat_server/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userProfileRepository struct {
	db *gorm.DB
}

// NewUserProfileRepository 创建用户画像 Repository
func NewUserProfileRepository(db *gorm.DB) UserProfileRepository {
	return &userProfileRepository{db: db}
}

// FindByUuid 根据 UUID 查找用户画像
func (r *userProfileRepository) FindByUuid(uuid string) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := r.db.Where("uuid = ?", uuid).First(&profile).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户画像 uuid=%s", uuid)
	}
	return &profile, nil
}

// FindByUuids 批量根据 UUID 查找用户画像
func (r *userProfileRepository) FindByUuids(uuids []string) ([]model.UserProfile, error) {
	var profiles []model.UserProfile
	if len(uuids) == 0 {
		return profiles, nil
	}
	if err := r.db.Where("uuid IN ?", uuids).Find(&profiles).Error; err != nil {
		return nil, wrapDBError(err, "批量查询用户画像")
	}
	return profiles, nil
}

// Upsert 按 uuid 创建或更新画像
// 外部认证服务首次带 token 访问时落一条画像
func (r *userProfileRepository) Upsert(profile *model.UserProfile) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uuid"}},
		DoUpdates: clause.AssignmentColumns([]string{"nickname", "avatar", "preferred_lang"}),
	}).Create(profile).Error
	return wrapDBError(err, "写入用户画像")
}

// UpdateStatusText 更新状态文案
func (r *userProfileRepository) UpdateStatusText(uuid string, statusText string) error {
	err := r.db.Model(&model.UserProfile{}).Where("uuid = ?", uuid).
		Update("status_text", statusText).Error
	return wrapDBErrorf(err, "更新状态文案 uuid=%s", uuid)
}

// UpdateShowLastSeen 更新最后在线时间的可见性开关
func (r *userProfileRepository) UpdateShowLastSeen(uuid string, show bool) error {
	err := r.db.Model(&model.UserProfile{}).Where("uuid = ?", uuid).
		Update("show_last_seen", show).Error
	return wrapDBErrorf(err, "更新在线可见性 uuid=%s", uuid)
}

// UpdateLastSeen 记录最后在线时间
func (r *userProfileRepository) UpdateLastSeen(uuid string, at time.Time) error {
	err := r.db.Model(&model.UserProfile{}).Where("uuid = ?", uuid).
		Update("last_seen_at", sql.NullTime{Time: at, Valid: true}).Error
	return wrapDBErrorf(err, "更新最后在线时间 uuid=%s", uuid)
}
