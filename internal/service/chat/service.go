// Package chat 实现聊天（单聊/群聊）的业务逻辑
package chat

import (
	"database/sql"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"whispr_chat_server/internal/dao/mysql/repository"
	"whispr_chat_server/internal/dto/request"
	"whispr_chat_server/internal/dto/respond"
	"whispr_chat_server/internal/model"
	"whispr_chat_server/pkg/constants"
	"whispr_chat_server/pkg/errorx"
	"whispr_chat_server/pkg/util/random"
	"whispr_chat_server/pkg/util/snowflake"
)

// PresenceChecker 在线状态探针，实时网关的 Tracker 实现它
// 允许为 nil（测试场景），此时在线标记恒为 false
type PresenceChecker interface {
	IsOnline(userUuid string) bool
}

// chatService 聊天业务逻辑实现
type chatService struct {
	repos    *repository.Repositories
	presence PresenceChecker
}

// NewChatService 构造函数
func NewChatService(repos *repository.Repositories, presence PresenceChecker) *chatService {
	return &chatService{repos: repos, presence: presence}
}

// DirectKey 单聊唯一键：两个用户 UUID 按字典序拼接
// 无论谁发起，同一对用户算出的键相同
func DirectKey(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}

// CreateDirectChat 创建单聊
// 同一对用户之间已存在单聊时返回 CodeConflict，不会重复建
func (s *chatService) CreateDirectChat(userUuid string, req request.CreateChatRequest) (*respond.ChatRespond, error) {
	if req.PeerId == userUuid {
		return nil, errorx.New(errorx.CodeInvalidParam, "不能和自己建立单聊")
	}

	// 对方画像必须存在
	if _, err := s.repos.UserProfile.FindByUuid(req.PeerId); err != nil {
		return nil, err
	}

	key := DirectKey(userUuid, req.PeerId)
	if existing, err := s.repos.Chat.FindByDirectKey(key); err == nil {
		return nil, errorx.Newf(errorx.CodeConflict, "单聊已存在: %s", existing.Uuid)
	} else if !errorx.IsNotFound(err) {
		return nil, err
	}

	now := time.Now()
	chat := &model.Chat{
		Uuid:      "C" + random.GetNowAndLenRandomString(11),
		IsGroup:   false,
		OwnerId:   userUuid,
		DirectKey: sql.NullString{String: key, Valid: true},
	}

	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		if err := tx.Chat.Create(chat); err != nil {
			return err
		}
		return tx.Participant.CreateBatch([]model.Participant{
			{ChatUuid: chat.Uuid, UserUuid: userUuid, Role: model.RoleMember, JoinedAt: now},
			{ChatUuid: chat.Uuid, UserUuid: req.PeerId, Role: model.RoleMember, JoinedAt: now},
		})
	})
	if err != nil {
		zap.L().Error("create direct chat failed", zap.Error(err))
		return nil, err
	}

	return &respond.ChatRespond{
		Id:        chat.Uuid,
		IsGroup:   false,
		OwnerId:   userUuid,
		MemberIds: []string{userUuid, req.PeerId},
		CreatedAt: now.Format("2006-01-02 15:04:05"),
	}, nil
}

// CreateGroupChat 创建群聊
// 创建者自动成为管理员，并写入一条 "Group created" 系统消息
func (s *chatService) CreateGroupChat(userUuid string, req request.CreateGroupChatRequest) (*respond.ChatRespond, error) {
	if len(req.Name) == 0 || len(req.Name) > constants.GROUP_NAME_MAX_LEN {
		return nil, errorx.New(errorx.CodeInvalidParam, "群名称长度不合法")
	}

	// 去重并排除创建者自己
	memberSet := make(map[string]struct{}, len(req.MemberIds))
	members := make([]string, 0, len(req.MemberIds))
	for _, id := range req.MemberIds {
		id = strings.TrimSpace(id)
		if id == "" || id == userUuid {
			continue
		}
		if _, ok := memberSet[id]; ok {
			continue
		}
		memberSet[id] = struct{}{}
		members = append(members, id)
	}
	if len(members) == 0 {
		return nil, errorx.New(errorx.CodeInvalidParam, "群聊至少需要一名其他成员")
	}
	if len(members)+1 > constants.GROUP_MAX_MEMBERS {
		return nil, errorx.Newf(errorx.CodeInvalidParam, "群成员数超过上限 %d", constants.GROUP_MAX_MEMBERS)
	}

	// 校验全部成员画像存在
	profiles, err := s.repos.UserProfile.FindByUuids(members)
	if err != nil {
		return nil, err
	}
	if len(profiles) != len(members) {
		return nil, errorx.New(errorx.CodeInvalidParam, "部分成员不存在")
	}

	creator, err := s.repos.UserProfile.FindByUuid(userUuid)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	chat := &model.Chat{
		Uuid:                    "C" + random.GetNowAndLenRandomString(11),
		IsGroup:                 true,
		Name:                    req.Name,
		Description:             req.Description,
		Avatar:                  req.Avatar,
		OwnerId:                 userUuid,
		OnlyAdminsCanPost:       req.OnlyAdminsCanPost,
		OnlyAdminsCanAddMembers: req.OnlyAdminsCanAddMembers,
		DisappearingTTL:         req.DisappearingTTL,
		LastMessage:             "Group created",
		LastMessageAt:           sql.NullTime{Time: now, Valid: true},
	}

	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		if err := tx.Chat.Create(chat); err != nil {
			return err
		}

		participants := make([]model.Participant, 0, len(members)+1)
		participants = append(participants, model.Participant{
			ChatUuid: chat.Uuid, UserUuid: userUuid, Role: model.RoleAdmin, JoinedAt: now,
		})
		for _, id := range members {
			participants = append(participants, model.Participant{
				ChatUuid: chat.Uuid, UserUuid: id, Role: model.RoleMember, JoinedAt: now,
			})
		}
		if err := tx.Participant.CreateBatch(participants); err != nil {
			return err
		}

		// 群聊的第一条消息是系统消息
		return tx.Message.Create(&model.Message{
			Uuid:       snowflake.GenerateID(),
			ChatUuid:   chat.Uuid,
			SenderUuid: userUuid,
			SenderName: creator.Nickname,
			Type:       model.MessageTypeSystem,
			Content:    "Group created",
		})
	})
	if err != nil {
		zap.L().Error("create group chat failed", zap.Error(err))
		return nil, err
	}

	return &respond.ChatRespond{
		Id:                      chat.Uuid,
		IsGroup:                 true,
		Name:                    chat.Name,
		Description:             chat.Description,
		Avatar:                  chat.Avatar,
		OwnerId:                 userUuid,
		MemberIds:               append([]string{userUuid}, members...),
		CreatedAt:               now.Format("2006-01-02 15:04:05"),
		OnlyAdminsCanPost:       chat.OnlyAdminsCanPost,
		OnlyAdminsCanAddMembers: chat.OnlyAdminsCanAddMembers,
		DisappearingTTL:         chat.DisappearingTTL,
	}, nil
}

// ListUserChats 列出用户的全部聊天
// 按最后消息时间倒序，单聊展示名取对方昵称，附带未读数
func (s *chatService) ListUserChats(userUuid string) ([]respond.ChatListRespond, error) {
	chatUuids, err := s.repos.Participant.FindChatUuidsByUser(userUuid)
	if err != nil {
		return nil, err
	}
	chats, err := s.repos.Chat.FindByUuids(chatUuids)
	if err != nil {
		return nil, err
	}

	rspList := make([]respond.ChatListRespond, 0, len(chats))
	for _, c := range chats {
		item := respond.ChatListRespond{
			Id:          c.Uuid,
			IsGroup:     c.IsGroup,
			Name:        c.Name,
			Avatar:      c.Avatar,
			LastMessage: c.LastMessage,
		}
		if c.LastMessageAt.Valid {
			item.LastMessageAt = c.LastMessageAt.Time.Format("2006-01-02 15:04:05")
		}

		// 单聊展示名取对方昵称，顺带标记对方是否在线
		if !c.IsGroup {
			if peer := s.directPeer(&c, userUuid); peer != "" {
				if profile, err := s.repos.UserProfile.FindByUuid(peer); err == nil {
					item.Name = profile.Nickname
					item.Avatar = profile.Avatar
				}
				if s.presence != nil {
					item.PeerOnline = s.presence.IsOnline(peer)
				}
			}
		}

		if count, err := s.repos.Participant.CountByChatUuid(c.Uuid); err == nil {
			item.ParticipantCount = count
		} else {
			zap.L().Warn("count chat participants failed", zap.Error(err))
		}

		item.UnreadCount = s.unreadCount(c.Uuid, userUuid)
		rspList = append(rspList, item)
	}

	// 最近有消息的排前面，没有消息的排最后
	sort.SliceStable(rspList, func(i, j int) bool {
		return rspList[i].LastMessageAt > rspList[j].LastMessageAt
	})
	return rspList, nil
}

// directPeer 从单聊唯一键里解出对方 UUID
func (s *chatService) directPeer(c *model.Chat, userUuid string) string {
	if !c.DirectKey.Valid {
		return ""
	}
	parts := strings.SplitN(c.DirectKey.String, ":", 2)
	if len(parts) != 2 {
		return ""
	}
	if parts[0] == userUuid {
		return parts[1]
	}
	return parts[0]
}

// unreadCount 计算未读数，出错时按 0 处理不阻塞列表
func (s *chatService) unreadCount(chatUuid, userUuid string) int64 {
	receipt, err := s.repos.ReadReceipt.Find(chatUuid, userUuid)
	if err != nil {
		if !errorx.IsNotFound(err) {
			zap.L().Warn("find read receipt failed", zap.Error(err))
			return 0
		}
		count, err := s.repos.Message.CountAllUnread(chatUuid, userUuid)
		if err != nil {
			zap.L().Warn("count unread failed", zap.Error(err))
			return 0
		}
		return count
	}
	count, err := s.repos.Message.CountUnread(chatUuid, userUuid, receipt.ReadAt)
	if err != nil {
		zap.L().Warn("count unread failed", zap.Error(err))
		return 0
	}
	return count
}
