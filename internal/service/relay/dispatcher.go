// Package relay 实现实时网关：连接注册表、事件代理与分发
// dispatcher.go
// 核心职责：事件分发
// 1. 连接生命周期钩子（上线/下线即在线状态变化）
// 2. 按动作分发输入状态、状态更新、消息广播、通话信令
// 3. 所有下发事件统一盖服务端时间戳
package relay

import (
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"whispr_chat_server/internal/dao/mysql/repository"
	"whispr_chat_server/internal/infrastructure/metrics"
	"whispr_chat_server/internal/service"
	"whispr_chat_server/internal/service/presence"
	"whispr_chat_server/pkg/errorx"
)

// Dispatcher 事件分发器
// 持有注册表、在线状态跟踪器和业务 Service，是网关的业务中枢
type Dispatcher struct {
	Registry *Registry
	Tracker  *presence.Tracker

	repos    *repository.Repositories
	services *service.Services
}

// NewDispatcher 构造分发器
func NewDispatcher(registry *Registry, tracker *presence.Tracker,
	repos *repository.Repositories, services *service.Services) *Dispatcher {
	return &Dispatcher{
		Registry: registry,
		Tracker:  tracker,
		repos:    repos,
		services: services,
	}
}

// stamp 服务端时间戳，所有下发事件统一用这个格式
func stamp() string {
	return time.Now().Format("2006-01-02 15:04:05.000")
}

// connectedPayload 连接确认事件的载荷
type connectedPayload struct {
	ChatIds []string `json:"chat_ids"`
}

// HandleConnect 连接注册
// 容量不足返回错误由网关关闭连接；首条连接上线时广播在线事件
// 注册成功后给新连接下发确认事件，携带用户加入的聊天列表
func (d *Dispatcher) HandleConnect(conn *UserConn) error {
	if err := d.Registry.Register(conn); err != nil {
		return err
	}
	metrics.IncWSActive()

	chatUuids, err := d.repos.Participant.FindChatUuidsByUser(conn.UserId)
	if err != nil {
		zap.L().Warn("find user chats on connect failed", zap.Error(err))
		chatUuids = nil
	}
	if payload, err := json.Marshal(connectedPayload{ChatIds: chatUuids}); err == nil {
		conn.trySend((&Event{Action: ActionConnected, Payload: payload, Timestamp: stamp()}).Encode())
	}

	if becameOnline := d.Tracker.AddConnection(conn.UserId, conn.ConnId); becameOnline {
		d.broadcastPresence(conn.UserId, true)
	}
	return nil
}

// HandleDisconnect 连接注销
// 最后一条连接断开时广播离线事件并记录最后在线时间
func (d *Dispatcher) HandleDisconnect(conn *UserConn) {
	d.Registry.Unregister(conn)
	metrics.DecWSActive()
	close(conn.Send)

	if wentOffline := d.Tracker.RemoveConnection(conn.UserId, conn.ConnId); wentOffline {
		d.broadcastPresence(conn.UserId, false)
		userId := conn.UserId
		go func() {
			if err := d.repos.UserProfile.UpdateLastSeen(userId, time.Now()); err != nil {
				zap.L().Warn("update last seen failed", zap.Error(err))
			}
		}()
	}
}

// HandlePing 心跳
// 刷新连接的心跳时间并回 pong，顺手清扫全局过期的输入租约
func (d *Dispatcher) HandlePing(conn *UserConn) {
	metrics.IncWSEvent(ActionPing)
	conn.RefreshPing()
	conn.trySend((&Event{Action: ActionPong, Timestamp: stamp()}).Encode())

	for chatUuid, users := range d.Tracker.SweepExpired() {
		for _, userId := range users {
			d.relayToChat(chatUuid, userId, &Event{
				Action:   ActionTypingStop,
				ChatId:   chatUuid,
				SenderId: userId,
			}, false)
		}
	}
}

// Dispatch 事件消费入口，Broker 的消费循环调用
func (d *Dispatcher) Dispatch(data []byte) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		zap.L().Error("unmarshal relay event failed", zap.Error(err))
		return
	}
	metrics.IncWSEvent(event.Action)

	var err error
	switch event.Action {
	case ActionTypingStart, ActionTypingStop:
		err = d.handleTyping(&event)
	case ActionStatusUpdate:
		err = d.handleStatusUpdate(&event)
	case ActionMessageBroadcast:
		err = d.handleMessageBroadcast(&event)
	case ActionCallSignal:
		err = d.handleCallSignal(&event)
	default:
		err = errorx.Newf(errorx.CodeInvalidParam, "未知的动作: %s", event.Action)
	}

	if err != nil {
		d.sendError(event.SenderId, err)
	}
}

// typingPayload 输入状态回执的载荷
type typingPayload struct {
	TypingUsers []string `json:"typing_users"`
}

// handleTyping 输入状态事件
// typing_start 刷新租约，typing_stop 立即清除，都转发给聊天内其他在线成员；
// 发送者自己收到当前正在输入的成员列表（不含本人）作为回执
func (d *Dispatcher) handleTyping(event *Event) error {
	if event.ChatId == "" {
		return errorx.New(errorx.CodeInvalidParam, "缺少 chat_id")
	}
	if _, err := d.repos.Participant.Find(event.ChatId, event.SenderId); err != nil {
		return err
	}

	if event.Action == ActionTypingStart {
		d.Tracker.StartTyping(event.ChatId, event.SenderId)
	} else {
		d.Tracker.StopTyping(event.ChatId, event.SenderId)
	}

	d.relayToChat(event.ChatId, event.SenderId, &Event{
		Action:   event.Action,
		ChatId:   event.ChatId,
		SenderId: event.SenderId,
	}, false)

	typers := make([]string, 0)
	for _, userId := range d.Tracker.TypingUsers(event.ChatId) {
		if userId == event.SenderId {
			continue
		}
		typers = append(typers, userId)
	}
	payload, err := json.Marshal(typingPayload{TypingUsers: typers})
	if err != nil {
		return errorx.Wrap(err, errorx.CodeServerBusy, "序列化输入状态失败")
	}
	d.Registry.SendToUsers([]string{event.SenderId}, (&Event{
		Action:    event.Action,
		ChatId:    event.ChatId,
		SenderId:  event.SenderId,
		Payload:   payload,
		Timestamp: stamp(),
	}).Encode())
	return nil
}

// statusPayload 状态更新事件的载荷
// ShowLastSeen 和 Online 是可选开关，缺省表示不改
type statusPayload struct {
	Status       string `json:"status"`
	ShowLastSeen *bool  `json:"show_last_seen"`
	Online       *bool  `json:"is_online"`
}

// handleStatusUpdate 用户状态更新
// 状态文案、最后在线可见性、隐身开关三项可各自独立更新；
// 内存状态立即生效，画像落库走异步，变更广播给相关在线用户
func (d *Dispatcher) handleStatusUpdate(event *Event) error {
	var payload statusPayload
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return errorx.Wrap(err, errorx.CodeInvalidParam, "非法的状态载荷")
		}
	}

	d.Tracker.SetStatus(event.SenderId, payload.Status)
	if payload.Online != nil {
		d.Tracker.SetInvisible(event.SenderId, !*payload.Online)
	}

	userId, status, showLastSeen := event.SenderId, payload.Status, payload.ShowLastSeen
	go func() {
		if err := d.repos.UserProfile.UpdateStatusText(userId, status); err != nil {
			zap.L().Warn("update status text failed", zap.Error(err))
		}
		if showLastSeen != nil {
			if err := d.repos.UserProfile.UpdateShowLastSeen(userId, *showLastSeen); err != nil {
				zap.L().Warn("update show last seen failed", zap.Error(err))
			}
		}
	}()

	d.broadcastPresence(event.SenderId, d.Tracker.IsOnline(event.SenderId))
	return nil
}

// handleMessageBroadcast 消息广播
// 消息已经由 REST 接口落库，这里按 ID 组装完整体并推给聊天内全部在线成员（含发送者回显）
func (d *Dispatcher) handleMessageBroadcast(event *Event) error {
	if event.ChatId == "" || event.MessageId == "" {
		return errorx.New(errorx.CodeInvalidParam, "缺少 chat_id 或 message_id")
	}
	if _, err := d.repos.Participant.Find(event.ChatId, event.SenderId); err != nil {
		return err
	}

	messageId, err := strconv.ParseInt(event.MessageId, 10, 64)
	if err != nil || messageId <= 0 {
		return errorx.Newf(errorx.CodeInvalidParam, "非法的消息 ID: %s", event.MessageId)
	}

	rsp, err := d.services.Message.BuildRespond(messageId)
	if err != nil {
		return err
	}
	if rsp.ChatId != event.ChatId {
		return errorx.New(errorx.CodeInvalidParam, "消息不属于该聊天")
	}

	payload, err := json.Marshal(rsp)
	if err != nil {
		return errorx.Wrap(err, errorx.CodeServerBusy, "序列化消息失败")
	}

	d.relayToChat(event.ChatId, event.SenderId, &Event{
		Action:   ActionMessageBroadcast,
		ChatId:   event.ChatId,
		SenderId: event.SenderId,
		Payload:  payload,
	}, true)
	return nil
}

// callSignalPayload 通话信令的载荷
// SignalData 是 WebRTC 协商内容，只透传不解析；
// TargetUserId 非空时定向发给该成员，否则发给除发送者外的全部通话成员
type callSignalPayload struct {
	CallId       string          `json:"call_id"`
	SignalType   string          `json:"signal_type"`
	SignalData   json.RawMessage `json:"signal_data,omitempty"`
	TargetUserId string          `json:"target_user_id,omitempty"`
}

// handleCallSignal 通话信令
// 校验与路由交给通话 Service：发送者和目标都必须是通话成员，
// ringing/answer/decline 顺带推进通话状态机，信令内容本身只透传
func (d *Dispatcher) handleCallSignal(event *Event) error {
	if len(event.Payload) == 0 {
		return errorx.New(errorx.CodeInvalidParam, "缺少信令载荷")
	}
	var payload callSignalPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return errorx.Wrap(err, errorx.CodeInvalidParam, "非法的信令载荷")
	}

	route, err := d.services.Call.RouteSignal(event.SenderId, payload.CallId, payload.SignalType, payload.TargetUserId)
	if err != nil {
		return err
	}

	d.Registry.SendToUsers(d.Tracker.OnlineUsers(route.Targets), (&Event{
		Action:    ActionCallSignal,
		ChatId:    route.ChatId,
		SenderId:  event.SenderId,
		Payload:   event.Payload,
		Timestamp: stamp(),
	}).Encode())
	return nil
}

// presencePayload 在线状态事件的载荷
type presencePayload struct {
	UserId string `json:"user_id"`
	Online bool   `json:"online"`
	Status string `json:"status,omitempty"`
}

// broadcastPresence 把用户的在线状态变化推给与其同聊天的在线用户
func (d *Dispatcher) broadcastPresence(userId string, online bool) {
	audience := d.audienceOf(userId)
	if len(audience) == 0 {
		return
	}
	payload, err := json.Marshal(presencePayload{
		UserId: userId,
		Online: online,
		Status: d.Tracker.Status(userId),
	})
	if err != nil {
		zap.L().Error("marshal presence payload failed", zap.Error(err))
		return
	}
	d.Registry.SendToUsers(audience, (&Event{
		Action:    ActionPresenceUpdate,
		SenderId:  userId,
		Payload:   payload,
		Timestamp: stamp(),
	}).Encode())
}

// relayToChat 把事件推给聊天内的在线成员
// includeSender 为 true 时给发送者回显（消息广播需要）
func (d *Dispatcher) relayToChat(chatUuid, senderId string, event *Event, includeSender bool) {
	participants, err := d.repos.Participant.FindByChatUuid(chatUuid)
	if err != nil {
		zap.L().Error("find chat participants failed", zap.Error(err))
		return
	}

	targets := make([]string, 0, len(participants))
	for _, p := range participants {
		if !includeSender && p.UserUuid == senderId {
			continue
		}
		targets = append(targets, p.UserUuid)
	}

	event.Timestamp = stamp()
	d.Registry.SendToUsers(d.Tracker.OnlineUsers(targets), event.Encode())
}

// audienceOf 与用户同聊天的全部其他在线用户（去重）
func (d *Dispatcher) audienceOf(userId string) []string {
	chatUuids, err := d.repos.Participant.FindChatUuidsByUser(userId)
	if err != nil {
		zap.L().Error("find user chats failed", zap.Error(err))
		return nil
	}

	seen := make(map[string]struct{})
	others := make([]string, 0)
	for _, chatUuid := range chatUuids {
		participants, err := d.repos.Participant.FindByChatUuid(chatUuid)
		if err != nil {
			continue
		}
		for _, p := range participants {
			if p.UserUuid == userId {
				continue
			}
			if _, ok := seen[p.UserUuid]; ok {
				continue
			}
			seen[p.UserUuid] = struct{}{}
			others = append(others, p.UserUuid)
		}
	}
	return d.Tracker.OnlineUsers(others)
}

// sendError 把错误事件发回给发送者的所有连接
func (d *Dispatcher) sendError(senderId string, err error) {
	if senderId == "" {
		return
	}
	d.Registry.SendToUsers([]string{senderId},
		NewErrorEvent(errorx.GetCode(err), err.Error()).Encode())
}
