// Package call 实现音视频通话的业务逻辑
// 信令内容经实时网关透传，这里只管通话与成员的状态机
package call

import (
	"time"

	"go.uber.org/zap"

	"whispr_chat_server/internal/dao/mysql/repository"
	"whispr_chat_server/internal/dto/request"
	"whispr_chat_server/internal/dto/respond"
	"whispr_chat_server/internal/model"
	"whispr_chat_server/pkg/errorx"
	"whispr_chat_server/pkg/util/random"
)

// 信令类型
// offer/answer/ice_candidate 是 WebRTC 协商内容，只透传；
// ringing/answer/decline 顺带推进通话状态机
const (
	SignalOffer        = "offer"
	SignalAnswer       = "answer"
	SignalIceCandidate = "ice_candidate"
	SignalRinging      = "ringing"
	SignalDecline      = "decline"
)

// validSignalTypes 允许透传的信令类型
var validSignalTypes = map[string]struct{}{
	SignalOffer:        {},
	SignalAnswer:       {},
	SignalIceCandidate: {},
	SignalRinging:      {},
	SignalDecline:      {},
}

// callService 通话业务逻辑实现
type callService struct {
	repos *repository.Repositories
}

// NewCallService 构造函数
func NewCallService(repos *repository.Repositories) *callService {
	return &callService{repos: repos}
}

// StartCall 发起通话
// 同一聊天同一时刻最多一个进行中的通话，已存在时返回冲突
// 聊天全员入通话成员表：发起者 joined，其余 invited
func (s *callService) StartCall(userUuid string, req request.StartCallRequest) (*respond.CallRespond, error) {
	if _, err := s.repos.Participant.Find(req.ChatId, userUuid); err != nil {
		return nil, err
	}

	if active, err := s.repos.Call.FindActiveByChat(req.ChatId); err == nil {
		return nil, errorx.Newf(errorx.CodeConflict, "聊天内已有进行中的通话: %s", active.Uuid)
	} else if !errorx.IsNotFound(err) {
		return nil, err
	}

	members, err := s.repos.Participant.FindByChatUuid(req.ChatId)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	call := &model.Call{
		Uuid:          "A" + random.GetNowAndLenRandomString(11),
		ChatUuid:      req.ChatId,
		InitiatorUuid: userUuid,
		Type:          req.Type,
		Status:        model.CallStatusInitiated,
		StartedAt:     now,
	}

	participants := make([]model.CallParticipant, 0, len(members))
	for _, member := range members {
		p := model.CallParticipant{
			CallUuid: call.Uuid,
			UserUuid: member.UserUuid,
			Status:   model.CallPartInvited,
		}
		if member.UserUuid == userUuid {
			p.Status = model.CallPartJoined
			p.JoinedAt.Time, p.JoinedAt.Valid = now, true
		}
		participants = append(participants, p)
	}

	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		if err := tx.Call.Create(call); err != nil {
			return err
		}
		return tx.Call.AddParticipants(participants)
	})
	if err != nil {
		zap.L().Error("start call failed", zap.Error(err))
		return nil, err
	}

	return s.toRespond(call, participants), nil
}

// EndCall 结束通话
// 任意通话成员都可以结束，重复结束返回冲突
// 接通过落 ended，从未接通落 missed
func (s *callService) EndCall(userUuid string, callUuid string) (*respond.CallRespond, error) {
	call, err := s.repos.Call.FindByUuid(callUuid)
	if err != nil {
		return nil, err
	}
	if _, err := s.repos.Call.FindParticipant(callUuid, userUuid); err != nil {
		return nil, err
	}
	if !call.IsActive() {
		return nil, errorx.New(errorx.CodeConflict, "通话已结束")
	}

	terminal := model.CallStatusMissed
	if call.Status == model.CallStatusAnswered {
		terminal = model.CallStatusEnded
	}

	now := time.Now()
	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		if err := tx.Call.End(callUuid, terminal, now); err != nil {
			return err
		}
		return tx.Call.UpdateParticipantStatus(callUuid, userUuid, model.CallPartLeft, now)
	})
	if err != nil {
		zap.L().Error("end call failed", zap.Error(err))
		return nil, err
	}

	call.Status = terminal
	call.EndedAt.Time, call.EndedAt.Valid = now, true
	participants, err := s.repos.Call.FindParticipantsByCall(callUuid)
	if err != nil {
		zap.L().Warn("find call participants failed", zap.Error(err))
		participants = nil
	}
	return s.toRespond(call, participants), nil
}

// RouteSignal 校验并路由一条通话信令
// 发送者必须是通话成员，通话必须仍在进行中；指定目标时目标也必须是成员，
// 否则发给除发送者外的全部通话成员。ringing/answer/decline 顺带推进状态机
func (s *callService) RouteSignal(userUuid, callUuid, signalType, targetUserId string) (*respond.CallSignalRoute, error) {
	if callUuid == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "缺少 call_id")
	}
	if _, ok := validSignalTypes[signalType]; !ok {
		return nil, errorx.Newf(errorx.CodeInvalidParam, "未知的信令类型: %s", signalType)
	}

	call, err := s.repos.Call.FindByUuid(callUuid)
	if err != nil {
		return nil, err
	}
	if !call.IsActive() {
		return nil, errorx.New(errorx.CodeConflict, "通话已结束")
	}
	if _, err := s.repos.Call.FindParticipant(callUuid, userUuid); err != nil {
		return nil, err
	}

	s.applySignal(call, userUuid, signalType)

	if targetUserId != "" {
		if _, err := s.repos.Call.FindParticipant(callUuid, targetUserId); err != nil {
			return nil, err
		}
		return &respond.CallSignalRoute{ChatId: call.ChatUuid, Targets: []string{targetUserId}}, nil
	}

	participants, err := s.repos.Call.FindParticipantsByCall(callUuid)
	if err != nil {
		return nil, err
	}
	targets := make([]string, 0, len(participants))
	for _, p := range participants {
		if p.UserUuid == userUuid {
			continue
		}
		targets = append(targets, p.UserUuid)
	}
	return &respond.CallSignalRoute{ChatId: call.ChatUuid, Targets: targets}, nil
}

// applySignal 信令附带的状态推进，失败只记日志不阻断透传
func (s *callService) applySignal(call *model.Call, userUuid, signalType string) {
	now := time.Now()
	switch signalType {
	case SignalRinging:
		if err := s.repos.Call.UpdateStatus(call.Uuid, model.CallStatusRinging,
			[]string{model.CallStatusInitiated}); err != nil {
			zap.L().Warn("advance call to ringing failed", zap.Error(err))
		}
	case SignalAnswer:
		if err := s.repos.Call.UpdateStatus(call.Uuid, model.CallStatusAnswered,
			[]string{model.CallStatusInitiated, model.CallStatusRinging}); err != nil {
			zap.L().Warn("advance call to answered failed", zap.Error(err))
		}
		if err := s.repos.Call.UpdateParticipantStatus(call.Uuid, userUuid, model.CallPartJoined, now); err != nil {
			zap.L().Warn("mark call participant joined failed", zap.Error(err))
		}
	case SignalDecline:
		if err := s.repos.Call.UpdateParticipantStatus(call.Uuid, userUuid, model.CallPartDeclined, now); err != nil {
			zap.L().Warn("mark call participant declined failed", zap.Error(err))
		}
	}
}

// toRespond 组装通话响应体
func (s *callService) toRespond(call *model.Call, participants []model.CallParticipant) *respond.CallRespond {
	rsp := &respond.CallRespond{
		Id:          call.Uuid,
		ChatId:      call.ChatUuid,
		InitiatorId: call.InitiatorUuid,
		Type:        call.Type,
		Status:      call.Status,
		StartedAt:   call.StartedAt.Format("2006-01-02 15:04:05"),
	}
	if call.EndedAt.Valid {
		rsp.EndedAt = call.EndedAt.Time.Format("2006-01-02 15:04:05")
	}
	for _, p := range participants {
		pr := respond.CallParticipantRespond{UserId: p.UserUuid, Status: p.Status}
		if p.JoinedAt.Valid {
			pr.JoinedAt = p.JoinedAt.Time.Format("2006-01-02 15:04:05")
		}
		if p.LeftAt.Valid {
			pr.LeftAt = p.LeftAt.Time.Format("2006-01-02 15:04:05")
		}
		rsp.Participants = append(rsp.Participants, pr)
	}
	return rsp
}
