package repository

import (
	"database/sql"
	"time"

	"whispr_chat_server/internal/model"

	"gorm.io/gorm"
)

type callRepository struct {
	db *gorm.DB
}

// NewCallRepository 创建通话 Repository
func NewCallRepository(db *gorm.DB) CallRepository {
	return &callRepository{db: db}
}

// FindByUuid 根据 UUID 查找通话
func (r *callRepository) FindByUuid(uuid string) (*model.Call, error) {
	var call model.Call
	if err := r.db.Where("uuid = ?", uuid).First(&call).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询通话 uuid=%s", uuid)
	}
	return &call, nil
}

// FindActiveByChat 查找聊天内进行中的通话
// 进行中 = initiated / ringing / answered，同一聊天最多一条
func (r *callRepository) FindActiveByChat(chatUuid string) (*model.Call, error) {
	var call model.Call
	err := r.db.Where("chat_uuid = ? AND status IN ?", chatUuid, model.ActiveCallStatuses).
		First(&call).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询活跃通话 chat=%s", chatUuid)
	}
	return &call, nil
}

// Create 创建通话
func (r *callRepository) Create(c *model.Call) error {
	if err := r.db.Create(c).Error; err != nil {
		return wrapDBError(err, "创建通话")
	}
	return nil
}

// UpdateStatus 推进通话状态
// fromStatuses 非空时作为前置条件，避免把已结束的通话改回进行中
func (r *callRepository) UpdateStatus(uuid string, status string, fromStatuses []string) error {
	query := r.db.Model(&model.Call{}).Where("uuid = ?", uuid)
	if len(fromStatuses) > 0 {
		query = query.Where("status IN ?", fromStatuses)
	}
	err := query.Update("status", status).Error
	return wrapDBErrorf(err, "更新通话状态 uuid=%s", uuid)
}

// End 结束通话，终态由调用方决定（ended / missed）
func (r *callRepository) End(uuid string, status string, at time.Time) error {
	err := r.db.Model(&model.Call{}).Where("uuid = ? AND status IN ?", uuid, model.ActiveCallStatuses).
		Updates(map[string]interface{}{
			"status":   status,
			"ended_at": sql.NullTime{Time: at, Valid: true},
		}).Error
	return wrapDBErrorf(err, "结束通话 uuid=%s", uuid)
}

// AddParticipants 批量写入通话成员
func (r *callRepository) AddParticipants(ps []model.CallParticipant) error {
	if len(ps) == 0 {
		return nil
	}
	if err := r.db.Create(&ps).Error; err != nil {
		return wrapDBError(err, "写入通话成员")
	}
	return nil
}

// FindParticipant 查找通话内的成员记录
// 查不到即视为无权参与该通话
func (r *callRepository) FindParticipant(callUuid, userUuid string) (*model.CallParticipant, error) {
	var p model.CallParticipant
	err := r.db.Where("call_uuid = ? AND user_uuid = ?", callUuid, userUuid).First(&p).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询通话成员 call=%s user=%s", callUuid, userUuid)
	}
	return &p, nil
}

// FindParticipantsByCall 查找通话的全部成员
func (r *callRepository) FindParticipantsByCall(callUuid string) ([]model.CallParticipant, error) {
	var ps []model.CallParticipant
	if err := r.db.Where("call_uuid = ?", callUuid).Find(&ps).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询通话成员列表 call=%s", callUuid)
	}
	return ps, nil
}

// UpdateParticipantStatus 推进成员状态，joined/left 顺带记时间
func (r *callRepository) UpdateParticipantStatus(callUuid, userUuid, status string, at time.Time) error {
	updates := map[string]interface{}{"status": status}
	switch status {
	case model.CallPartJoined:
		updates["joined_at"] = sql.NullTime{Time: at, Valid: true}
	case model.CallPartLeft, model.CallPartDeclined:
		updates["left_at"] = sql.NullTime{Time: at, Valid: true}
	}
	err := r.db.Model(&model.CallParticipant{}).
		Where("call_uuid = ? AND user_uuid = ?", callUuid, userUuid).
		Updates(updates).Error
	return wrapDBErrorf(err, "更新通话成员状态 call=%s user=%s", callUuid, userUuid)
}
