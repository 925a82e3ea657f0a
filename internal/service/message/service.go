// Package message 实现消息生命周期的业务逻辑
// 发送、编辑、软删/硬删、转发、表情回应、历史分页、搜索、翻译都在这里
package message

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"whispr_chat_server/internal/dao/mysql/repository"
	myredis "whispr_chat_server/internal/dao/redis"
	"whispr_chat_server/internal/dto/request"
	"whispr_chat_server/internal/dto/respond"
	"whispr_chat_server/internal/infrastructure/metrics"
	"whispr_chat_server/internal/infrastructure/translate"
	"whispr_chat_server/internal/model"
	"whispr_chat_server/pkg/constants"
	"whispr_chat_server/pkg/errorx"
	"whispr_chat_server/pkg/util/snowflake"
)

// messageService 消息业务逻辑实现
type messageService struct {
	repos      *repository.Repositories
	cache      myredis.AsyncCacheService
	translator translate.Translator
}

// NewMessageService 构造函数
// cache 和 translator 允许为 nil（测试场景），相关能力自动退化
func NewMessageService(repos *repository.Repositories, cache myredis.AsyncCacheService, translator translate.Translator) *messageService {
	return &messageService{repos: repos, cache: cache, translator: translator}
}

// parseMessageId 把对外的字符串消息 ID 还原成雪花 int64
func parseMessageId(id string) (int64, error) {
	uuid, err := strconv.ParseInt(id, 10, 64)
	if err != nil || uuid <= 0 {
		return 0, errorx.Newf(errorx.CodeInvalidParam, "非法的消息 ID: %s", id)
	}
	return uuid, nil
}

// requireParticipant 校验用户是聊天成员
// 查不到统一返回 CodeNotFound，不向外泄露聊天是否存在
func (m *messageService) requireParticipant(chatUuid, userUuid string) (*model.Participant, error) {
	return m.repos.Participant.Find(chatUuid, userUuid)
}

// cacheKey 首页历史消息的缓存键
func cacheKey(chatUuid string) string {
	return "chat_messages_" + chatUuid
}

// invalidateCache 异步失效聊天的历史缓存
func (m *messageService) invalidateCache(chatUuid string) {
	if m.cache == nil {
		return
	}
	m.cache.SubmitTask(func() {
		if err := m.cache.Delete(context.Background(), cacheKey(chatUuid)); err != nil {
			zap.L().Warn("invalidate message cache failed", zap.Error(err))
		}
	})
}

// validateContent 按消息类型校验载荷
// 文本要有内容，多媒体要有媒体链接，语音还要有时长
func validateContent(req *request.SendMessageRequest, content string) error {
	if req.Type == model.MessageTypeText && content == "" {
		return errorx.New(errorx.CodeInvalidParam, "文本消息内容不能为空")
	}
	if model.IsMediaType(req.Type) && req.MediaUrl == "" {
		return errorx.New(errorx.CodeInvalidParam, "多媒体消息缺少资源链接")
	}
	if req.Type == model.MessageTypeVoiceNote && req.Duration <= 0 {
		return errorx.New(errorx.CodeInvalidParam, "语音消息缺少时长")
	}
	return nil
}

// SendMessage 发送消息
// 成员与发言权限校验 -> 落库（消息 + 语音附加） -> 更新聊天摘要 -> 失效缓存
func (m *messageService) SendMessage(userUuid string, req request.SendMessageRequest) (*respond.MessageRespond, error) {
	participant, err := m.requireParticipant(req.ChatId, userUuid)
	if err != nil {
		return nil, err
	}

	chat, err := m.repos.Chat.FindByUuid(req.ChatId)
	if err != nil {
		return nil, err
	}
	if chat.IsGroup && chat.OnlyAdminsCanPost && !participant.IsAdmin() {
		return nil, errorx.New(errorx.CodeNotFound, "该群仅管理员可发言")
	}

	content := strings.TrimSpace(req.Content)
	if err := validateContent(&req, content); err != nil {
		return nil, err
	}

	// 回复目标必须是同一聊天内未删除的消息
	var replyTo int64
	if req.ReplyTo != "" {
		if replyTo, err = parseMessageId(req.ReplyTo); err != nil {
			return nil, err
		}
		target, err := m.repos.Message.FindByUuid(replyTo)
		if err != nil {
			return nil, err
		}
		if target.ChatUuid != req.ChatId {
			return nil, errorx.New(errorx.CodeInvalidParam, "回复目标不在当前聊天内")
		}
		if target.DeletedFlag {
			return nil, errorx.New(errorx.CodeInvalidParam, "不能回复已删除的消息")
		}
	}

	sender, err := m.repos.UserProfile.FindByUuid(userUuid)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	msg := &model.Message{
		Uuid:         snowflake.GenerateID(),
		ChatUuid:     req.ChatId,
		SenderUuid:   userUuid,
		SenderName:   sender.Nickname,
		SenderAvatar: sender.Avatar,
		Type:         req.Type,
		Content:      content,
		MediaUrl:     req.MediaUrl,
		MediaType:    req.MediaType,
		FileName:     req.FileName,
		FileSize:     req.FileSize,
		ReplyToUuid:  replyTo,
		DisappearsAt: disappearsAt(now, req.DisappearingTTL, chat.DisappearingTTL),
	}

	err = m.repos.Transaction(func(tx *repository.Repositories) error {
		if err := tx.Message.Create(msg); err != nil {
			return err
		}
		if req.Type == model.MessageTypeVoiceNote {
			if err := tx.VoiceNote.Create(&model.VoiceNote{
				MessageUuid:   msg.Uuid,
				Duration:      req.Duration,
				Waveform:      req.Waveform,
				Transcription: req.Transcription,
			}); err != nil {
				return err
			}
		}
		return tx.Chat.UpdateLastMessage(req.ChatId, summaryOf(msg), now)
	})
	if err != nil {
		zap.L().Error("send message failed", zap.Error(err))
		return nil, err
	}

	metrics.IncMessageSent(req.Type)
	m.invalidateCache(req.ChatId)
	return m.joinedRespond(msg)
}

// disappearsAt 解析阅后即焚到期时间
// 消息级定时器优先，否则沿用聊天级设置，都没有则永久保留
func disappearsAt(now time.Time, messageTTL, chatTTL int) sql.NullTime {
	ttl := messageTTL
	if ttl <= 0 {
		ttl = chatTTL
	}
	if ttl <= 0 {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: now.Add(time.Duration(ttl) * time.Second), Valid: true}
}

// summaryOf 生成聊天列表里展示的消息摘要
func summaryOf(msg *model.Message) string {
	switch msg.Type {
	case model.MessageTypeVoiceNote:
		return "[Voice message]"
	case model.MessageTypeImage:
		return "[Image]"
	case model.MessageTypeVideo:
		return "[Video]"
	case model.MessageTypeAudio:
		return "[Audio]"
	case model.MessageTypeDocument:
		return "[Document]"
	default:
		return msg.Content
	}
}

// EditMessage 编辑自己的文本消息
// 只能在创建后 15 分钟内编辑，内容必须有变化
func (m *messageService) EditMessage(userUuid string, req request.EditMessageRequest) (*respond.MessageRespond, error) {
	uuid, err := parseMessageId(req.MessageId)
	if err != nil {
		return nil, err
	}
	msg, err := m.repos.Message.FindByUuid(uuid)
	if err != nil {
		return nil, err
	}
	if msg.SenderUuid != userUuid {
		return nil, errorx.New(errorx.CodeNotFound, "消息不存在或无权编辑")
	}
	if msg.Type != model.MessageTypeText {
		return nil, errorx.New(errorx.CodeConflict, "只有文本消息可以编辑")
	}
	if msg.DeletedFlag {
		return nil, errorx.New(errorx.CodeConflict, "消息已删除，无法编辑")
	}
	now := time.Now()
	if now.Sub(msg.CreatedAt) > constants.EDIT_WINDOW {
		return nil, errorx.New(errorx.CodeConflict, "已超过可编辑时间窗口")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "消息内容不能为空")
	}
	if msg.Content == content {
		return nil, errorx.New(errorx.CodeConflict, "内容没有变化")
	}

	if err := m.repos.Message.UpdateContent(uuid, content, now); err != nil {
		return nil, err
	}
	m.invalidateCache(msg.ChatUuid)

	msg.Content = content
	msg.Edited = true
	msg.EditedAt.Time, msg.EditedAt.Valid = now, true
	return m.joinedRespond(msg)
}

// canDelete 删除权限：发送者本人，或持有管理员/协管员角色的成员
// 软删和硬删共用同一套判断
func (m *messageService) canDelete(msg *model.Message, userUuid string) bool {
	if msg.SenderUuid == userUuid {
		return true
	}
	participant, err := m.requireParticipant(msg.ChatUuid, userUuid)
	return err == nil && participant.CanModerate()
}

// DeleteMessage 删除消息
// 软删除覆写为占位文本并清空媒体字段；硬删除物理清理附属数据
func (m *messageService) DeleteMessage(userUuid string, req request.DeleteMessageRequest) error {
	uuid, err := parseMessageId(req.MessageId)
	if err != nil {
		return err
	}
	msg, err := m.repos.Message.FindByUuid(uuid)
	if err != nil {
		return err
	}
	if !m.canDelete(msg, userUuid) {
		return errorx.New(errorx.CodeNotFound, "消息不存在或无权删除")
	}

	if req.Hard {
		if err := m.repos.Message.HardDelete(uuid); err != nil {
			return err
		}
		m.invalidateCache(msg.ChatUuid)
		return nil
	}

	if msg.DeletedFlag {
		return errorx.New(errorx.CodeConflict, "消息已被删除")
	}
	if err := m.repos.Message.MarkDeleted(uuid); err != nil {
		return err
	}
	m.invalidateCache(msg.ChatUuid)
	return nil
}

// forwardTarget 预检通过的转发目标
type forwardTarget struct {
	chat *model.Chat
}

// ForwardMessage 把消息转发到多个聊天
// 全部目标先过成员与发言权限预检，任一目标不通过则整个请求失败；
// 预检通过后逐目标落库，写库失败才是尽力而为
func (m *messageService) ForwardMessage(userUuid string, req request.ForwardMessageRequest) (*respond.ForwardRespond, error) {
	uuid, err := parseMessageId(req.MessageId)
	if err != nil {
		return nil, err
	}
	source, err := m.repos.Message.FindByUuid(uuid)
	if err != nil {
		return nil, err
	}
	if _, err := m.requireParticipant(source.ChatUuid, userUuid); err != nil {
		return nil, err
	}
	if source.DeletedFlag {
		return nil, errorx.New(errorx.CodeConflict, "无法转发已删除的消息")
	}
	if source.Type == model.MessageTypeSystem {
		return nil, errorx.New(errorx.CodeConflict, "该类型消息不支持转发")
	}

	// 任何写入发生之前，所有目标必须全部通过校验
	targets := make(map[string]forwardTarget, len(req.TargetChatIds))
	for _, targetChatId := range req.TargetChatIds {
		participant, err := m.requireParticipant(targetChatId, userUuid)
		if err != nil {
			return nil, errorx.Newf(errorx.CodeNotFound, "无权访问目标聊天 %s", targetChatId)
		}
		chat, err := m.repos.Chat.FindByUuid(targetChatId)
		if err != nil {
			return nil, err
		}
		if chat.IsGroup && chat.OnlyAdminsCanPost && !participant.IsAdmin() {
			return nil, errorx.Newf(errorx.CodeNotFound, "目标群 %s 仅管理员可发言", targetChatId)
		}
		targets[targetChatId] = forwardTarget{chat: chat}
	}

	// 多级转发始终指向最初那条消息
	rootUuid := source.ForwardRoot()
	root := source
	if rootUuid != source.Uuid {
		if root, err = m.repos.Message.FindByUuid(rootUuid); err != nil {
			// 根消息被物理删除时退回以当前消息为根
			root = source
			rootUuid = source.Uuid
		}
	}

	sender, err := m.repos.UserProfile.FindByUuid(userUuid)
	if err != nil {
		return nil, err
	}

	// 转发附言替换原文，任何类型都适用
	content := source.Content
	if caption := strings.TrimSpace(req.Caption); caption != "" {
		content = caption
	}

	now := time.Now()
	results := make([]respond.ForwardTargetRespond, 0, len(req.TargetChatIds))
	succeeded := 0

	for _, targetChatId := range req.TargetChatIds {
		result := respond.ForwardTargetRespond{ChatId: targetChatId}
		target := targets[targetChatId]

		newMsg := &model.Message{
			Uuid:          snowflake.GenerateID(),
			ChatUuid:      targetChatId,
			SenderUuid:    userUuid,
			SenderName:    sender.Nickname,
			SenderAvatar:  sender.Avatar,
			Type:          source.Type,
			Content:       content,
			MediaUrl:      source.MediaUrl,
			MediaType:     source.MediaType,
			FileName:      source.FileName,
			FileSize:      source.FileSize,
			ForwardedFrom: rootUuid,
			DisappearsAt:  disappearsAt(now, 0, target.chat.DisappearingTTL),
		}
		err = m.repos.Transaction(func(tx *repository.Repositories) error {
			if err := tx.Message.Create(newMsg); err != nil {
				return err
			}
			if err := tx.Forward.Create(&model.ForwardRecord{
				RootUuid:       rootUuid,
				NewMessageUuid: newMsg.Uuid,
				TargetChatUuid: targetChatId,
				ForwardedBy:    userUuid,
			}); err != nil {
				return err
			}
			return tx.Chat.UpdateLastMessage(targetChatId, summaryOf(newMsg), now)
		})
		if err != nil {
			zap.L().Error("forward message failed", zap.String("target", targetChatId), zap.Error(err))
			result.Reason = "转发失败"
			results = append(results, result)
			continue
		}

		succeeded++
		result.Ok = true
		result.MessageId = strconv.FormatInt(newMsg.Uuid, 10)
		results = append(results, result)
		metrics.IncMessageSent(newMsg.Type)
		m.invalidateCache(targetChatId)
	}

	// 只累加成功的目标数
	if err := m.repos.Message.IncrementForwardCount(rootUuid, succeeded); err != nil {
		zap.L().Error("increment forward count failed", zap.Error(err))
	}

	// 转发明细是计数的权威来源，读取失败时退回本地累加
	forwardCount := root.ForwardCount + succeeded
	if records, err := m.repos.Forward.FindByRoot(rootUuid); err == nil {
		forwardCount = len(records)
	}

	return &respond.ForwardRespond{
		RootId:       strconv.FormatInt(rootUuid, 10),
		ForwardCount: forwardCount,
		Targets:      results,
	}, nil
}

// ToggleReaction 添加或取消表情回应
// 同一用户对同一消息的同一表情是开关语义，返回本次动作与最新的聚合计数
func (m *messageService) ToggleReaction(userUuid string, req request.ReactionRequest) (*respond.ReactionToggleRespond, error) {
	uuid, err := parseMessageId(req.MessageId)
	if err != nil {
		return nil, err
	}
	msg, err := m.repos.Message.FindByUuid(uuid)
	if err != nil {
		return nil, err
	}
	if _, err := m.requireParticipant(msg.ChatUuid, userUuid); err != nil {
		return nil, err
	}
	if msg.DeletedFlag {
		return nil, errorx.New(errorx.CodeConflict, "无法回应已删除的消息")
	}

	action := "added"
	_, err = m.repos.Reaction.Find(uuid, userUuid, req.Emoji)
	switch {
	case err == nil:
		// 已存在 -> 取消
		if err := m.repos.Reaction.Delete(uuid, userUuid, req.Emoji); err != nil {
			return nil, err
		}
		action = "removed"
	case errorx.IsNotFound(err):
		if err := m.repos.Reaction.Create(&model.Reaction{
			MessageUuid: uuid, UserUuid: userUuid, Emoji: req.Emoji,
		}); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	counts, err := m.repos.Reaction.SummarizeByMessage(uuid)
	if err != nil {
		return nil, err
	}
	summaries := make([]respond.ReactionSummary, 0, len(counts))
	for _, c := range counts {
		summaries = append(summaries, respond.ReactionSummary{Emoji: c.Emoji, Count: c.Count})
	}
	return &respond.ReactionToggleRespond{Action: action, Reactions: summaries}, nil
}

// GetChatMessages 倒序分页拉取历史消息
// 首页走缓存优先（读多写少），任何一页都会推进已读回执和已读水位
func (m *messageService) GetChatMessages(userUuid string, req request.GetMessageListRequest) ([]respond.MessageRespond, error) {
	if _, err := m.requireParticipant(req.ChatId, userUuid); err != nil {
		return nil, err
	}

	var beforeUuid int64
	if req.Before != "" {
		var err error
		if beforeUuid, err = parseMessageId(req.Before); err != nil {
			return nil, err
		}
	}

	// 拉历史即视为已读，read_at 只前进不后退
	if err := m.repos.ReadReceipt.Upsert(req.ChatId, userUuid, time.Now()); err != nil {
		zap.L().Warn("upsert read receipt failed", zap.Error(err))
	}

	// 只有首页缓存，翻旧页直接查库
	firstPage := beforeUuid == 0
	if firstPage && m.cache != nil {
		if cached, err := m.cache.Get(context.Background(), cacheKey(req.ChatId)); err == nil && cached != "" {
			var rsp []respond.MessageRespond
			if err := json.Unmarshal([]byte(cached), &rsp); err == nil {
				m.advanceWatermark(req.ChatId, userUuid, rsp)
				return rsp, nil
			}
			zap.L().Error("json unmarshal cache error", zap.Error(err))
		}
	}

	messages, err := m.repos.Message.FindPageByChat(req.ChatId, beforeUuid, req.Limit)
	if err != nil {
		return nil, err
	}
	rspList, err := m.toResponds(messages)
	if err != nil {
		return nil, err
	}
	m.advanceWatermark(req.ChatId, userUuid, rspList)

	if firstPage && m.cache != nil {
		m.cache.SubmitTask(func() {
			jsonBytes, err := json.Marshal(rspList)
			if err != nil {
				zap.L().Error("json marshal error", zap.Error(err))
				return
			}
			if err := m.cache.Set(context.Background(), cacheKey(req.ChatId), string(jsonBytes),
				time.Duration(constants.REDIS_TIMEOUT)*time.Minute); err != nil {
				zap.L().Error("redis set key error", zap.Error(err))
			}
		})
	}
	return rspList, nil
}

// advanceWatermark 用本页最新一条消息推进成员的已读水位
// 列表按时间正序返回，末尾即最新
func (m *messageService) advanceWatermark(chatUuid, userUuid string, rspList []respond.MessageRespond) {
	if len(rspList) == 0 {
		return
	}
	newest, err := parseMessageId(rspList[len(rspList)-1].Id)
	if err != nil {
		return
	}
	if err := m.repos.Participant.AdvanceLastRead(chatUuid, userUuid, newest); err != nil {
		zap.L().Warn("advance last read failed", zap.Error(err))
	}
}

// SearchMessages 按内容搜索
// 指定聊天时要求成员身份，否则在用户加入的所有聊天内搜
func (m *messageService) SearchMessages(userUuid string, req request.SearchMessagesRequest) ([]respond.MessageRespond, error) {
	var chatUuids []string
	if req.ChatId != "" {
		if _, err := m.requireParticipant(req.ChatId, userUuid); err != nil {
			return nil, err
		}
		chatUuids = []string{req.ChatId}
	} else {
		var err error
		if chatUuids, err = m.repos.Participant.FindChatUuidsByUser(userUuid); err != nil {
			return nil, err
		}
	}

	filter := repository.MessageSearchFilter{
		Query:      req.Query,
		SenderUuid: req.SenderId,
		Type:       req.Type,
		Limit:      req.Limit,
	}
	if req.Before != "" {
		beforeUuid, err := parseMessageId(req.Before)
		if err != nil {
			return nil, err
		}
		filter.BeforeUuid = beforeUuid
	}

	messages, err := m.repos.Message.SearchInChats(chatUuids, filter)
	if err != nil {
		return nil, err
	}
	return m.toResponds(messages)
}

// TranslateMessage 翻译文本消息
// 缓存优先：同一消息同一语言只调一次外部服务；服务不可用时返回带语言标记的降级译文，不落缓存
func (m *messageService) TranslateMessage(ctx context.Context, userUuid string, req request.TranslateMessageRequest) (*respond.TranslateRespond, error) {
	uuid, err := parseMessageId(req.MessageId)
	if err != nil {
		return nil, err
	}
	msg, err := m.repos.Message.FindByUuid(uuid)
	if err != nil {
		return nil, err
	}
	if _, err := m.requireParticipant(msg.ChatUuid, userUuid); err != nil {
		return nil, err
	}
	if msg.DeletedFlag {
		return nil, errorx.New(errorx.CodeConflict, "无法翻译已删除的消息")
	}
	if msg.Type != model.MessageTypeText {
		return nil, errorx.New(errorx.CodeConflict, "只有文本消息可以翻译")
	}

	lang := req.TargetLang
	if lang == "" {
		if profile, err := m.repos.UserProfile.FindByUuid(userUuid); err == nil && profile.PreferredLang != "" {
			lang = profile.PreferredLang
		} else {
			lang = "en"
		}
	}

	if cached, err := m.repos.Translation.Find(uuid, lang); err == nil {
		return &respond.TranslateRespond{
			MessageId: req.MessageId,
			Lang:      lang,
			Content:   cached.Content,
			FromCache: true,
		}, nil
	} else if !errorx.IsNotFound(err) {
		return nil, err
	}

	if m.translator == nil {
		return &respond.TranslateRespond{
			MessageId: req.MessageId,
			Lang:      lang,
			Content:   translate.MarkedFallback(msg.Content, lang),
			Degraded:  true,
		}, nil
	}

	translated, err := m.translator.Translate(ctx, msg.Content, lang)
	if err != nil {
		zap.L().Warn("translate upstream failed, degrading", zap.Error(err))
		return &respond.TranslateRespond{
			MessageId: req.MessageId,
			Lang:      lang,
			Content:   translate.MarkedFallback(msg.Content, lang),
			Degraded:  true,
		}, nil
	}

	if err := m.repos.Translation.Create(&model.Translation{
		MessageUuid: uuid, Lang: lang, Content: translated,
	}); err != nil {
		zap.L().Warn("cache translation failed", zap.Error(err))
	}

	return &respond.TranslateRespond{
		MessageId: req.MessageId,
		Lang:      lang,
		Content:   translated,
	}, nil
}

// BuildRespond 按消息 ID 组装完整响应体，实时网关广播时使用
func (m *messageService) BuildRespond(messageId int64) (*respond.MessageRespond, error) {
	msg, err := m.repos.Message.FindByUuid(messageId)
	if err != nil {
		return nil, err
	}
	rspList, err := m.toResponds([]model.Message{*msg})
	if err != nil {
		return nil, err
	}
	return &rspList[0], nil
}

// joinedRespond 发送/编辑后的完整响应体
// 回补回复预览和语音附加数据，客户端拿到即可渲染
func (m *messageService) joinedRespond(msg *model.Message) (*respond.MessageRespond, error) {
	rsp := m.toRespond(msg)
	if msg.ReplyToUuid != 0 {
		target, err := m.repos.Message.FindByUuid(msg.ReplyToUuid)
		if err != nil {
			return nil, err
		}
		rsp.ReplyPreview = replyPreviewOf(target)
	}
	if msg.Type == model.MessageTypeVoiceNote {
		note, err := m.repos.VoiceNote.FindByMessageUuid(msg.Uuid)
		if err != nil {
			return nil, err
		}
		rsp.VoiceNote = &respond.VoiceNoteRespond{
			Duration:      note.Duration,
			Waveform:      note.Waveform,
			Transcription: note.Transcription,
		}
	}
	return rsp, nil
}

// replyPreviewOf 被回复消息的内联预览
func replyPreviewOf(target *model.Message) *respond.ReplyPreviewRespond {
	return &respond.ReplyPreviewRespond{
		Id:         strconv.FormatInt(target.Uuid, 10),
		SenderName: target.SenderName,
		Content:    summaryOf(target),
	}
}

// toRespond 单条消息的轻量组装（不带回应聚合）
func (m *messageService) toRespond(msg *model.Message) *respond.MessageRespond {
	rsp := &respond.MessageRespond{
		Id:           strconv.FormatInt(msg.Uuid, 10),
		ChatId:       msg.ChatUuid,
		SenderId:     msg.SenderUuid,
		SenderName:   msg.SenderName,
		SenderAvatar: msg.SenderAvatar,
		Type:         msg.Type,
		Content:      msg.Content,
		MediaUrl:     msg.MediaUrl,
		MediaType:    msg.MediaType,
		FileName:     msg.FileName,
		FileSize:     msg.FileSize,
		ForwardCount: msg.ForwardCount,
		Edited:       msg.Edited,
		Deleted:      msg.DeletedFlag,
		CreatedAt:    msg.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if msg.ReplyToUuid != 0 {
		rsp.ReplyTo = strconv.FormatInt(msg.ReplyToUuid, 10)
	}
	if msg.ForwardedFrom != 0 {
		rsp.ForwardedFrom = strconv.FormatInt(msg.ForwardedFrom, 10)
	}
	if msg.EditedAt.Valid {
		rsp.EditedAt = msg.EditedAt.Time.Format("2006-01-02 15:04:05")
	}
	if msg.DisappearsAt.Valid {
		rsp.DisappearsAt = msg.DisappearsAt.Time.Format("2006-01-02 15:04:05")
	}
	return rsp
}

// toResponds 批量组装响应体，带表情聚合、回复预览与语音附加数据
// 倒序查出的结果在这里翻转成时间正序返回
func (m *messageService) toResponds(messages []model.Message) ([]respond.MessageRespond, error) {
	uuids := make([]int64, 0, len(messages))
	voiceUuids := make([]int64, 0)
	replyUuids := make([]int64, 0)
	for _, msg := range messages {
		uuids = append(uuids, msg.Uuid)
		if msg.Type == model.MessageTypeVoiceNote {
			voiceUuids = append(voiceUuids, msg.Uuid)
		}
		if msg.ReplyToUuid != 0 {
			replyUuids = append(replyUuids, msg.ReplyToUuid)
		}
	}

	counts, err := m.repos.Reaction.SummarizeByMessages(uuids)
	if err != nil {
		return nil, err
	}
	reactionsByMsg := make(map[int64][]respond.ReactionSummary)
	for _, c := range counts {
		reactionsByMsg[c.MessageUuid] = append(reactionsByMsg[c.MessageUuid],
			respond.ReactionSummary{Emoji: c.Emoji, Count: c.Count})
	}

	voiceByMsg := make(map[int64]*respond.VoiceNoteRespond)
	if len(voiceUuids) > 0 {
		notes, err := m.repos.VoiceNote.FindByMessageUuids(voiceUuids)
		if err != nil {
			return nil, err
		}
		for i := range notes {
			voiceByMsg[notes[i].MessageUuid] = &respond.VoiceNoteRespond{
				Duration:      notes[i].Duration,
				Waveform:      notes[i].Waveform,
				Transcription: notes[i].Transcription,
			}
		}
	}

	previewByMsg := make(map[int64]*respond.ReplyPreviewRespond)
	if len(replyUuids) > 0 {
		replies, err := m.repos.Message.FindByUuids(replyUuids)
		if err != nil {
			return nil, err
		}
		for i := range replies {
			previewByMsg[replies[i].Uuid] = replyPreviewOf(&replies[i])
		}
	}

	rspList := make([]respond.MessageRespond, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		rsp := m.toRespond(&msg)
		rsp.Reactions = reactionsByMsg[msg.Uuid]
		rsp.VoiceNote = voiceByMsg[msg.Uuid]
		rsp.ReplyPreview = previewByMsg[msg.ReplyToUuid]
		rspList = append(rspList, *rsp)
	}
	return rspList, nil
}
