// Package relay 实现实时网关：连接注册表、事件代理与分发
// event.go
// 核心职责：定义 WebSocket 事件信封与动作常量
package relay

import "encoding/json"

// 客户端可发起的动作
const (
	ActionTypingStart      = "typing_start"
	ActionTypingStop       = "typing_stop"
	ActionStatusUpdate     = "status_update"
	ActionMessageBroadcast = "message_broadcast"
	ActionCallSignal       = "call_signal"
	ActionPing             = "ping"
)

// 仅服务端下发的动作
const (
	ActionConnected      = "connected"
	ActionPong           = "pong"
	ActionPresenceUpdate = "presence_update"
	ActionError          = "error"
)

// Event WebSocket 事件信封
// SenderId 和 Timestamp 一律由服务端写入，客户端传的值会被覆盖
type Event struct {
	Action    string          `json:"action"`
	ChatId    string          `json:"chat_id,omitempty"`
	MessageId string          `json:"message_id,omitempty"`
	SenderId  string          `json:"sender_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// Encode 序列化事件，失败时返回 nil（调用方记录日志后跳过）
func (e *Event) Encode() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	return data
}

// errorPayload 错误事件的载荷
type errorPayload struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// NewErrorEvent 构造发回给客户端的错误事件
func NewErrorEvent(code int, msg string) *Event {
	payload, _ := json.Marshal(errorPayload{Code: code, Msg: msg})
	return &Event{Action: ActionError, Payload: payload}
}
