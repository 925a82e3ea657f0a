// Package relay 实现实时网关：连接注册表、事件代理与分发
// conn.go
// 核心职责：WebSocket 连接生命周期管理
// 1. 建立 WebSocket 连接 (Upgrade) 并做 Token 认证
// 2. 封装 UserConn 对象，管理读写协程 (Read/Write Loop)
// 3. 认证失败或容量不足时以 1008 策略违规码关闭
package relay

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"whispr_chat_server/pkg/constants"
	"whispr_chat_server/pkg/errorx"
	"whispr_chat_server/pkg/util/jwt"
)

// UserConn 表示一条 WebSocket 客户端连接
// 同一用户可以有多条连接（多端登录），ConnId 区分端
type UserConn struct {
	Conn   *websocket.Conn
	UserId string
	ConnId string
	Send   chan []byte

	// lastPing 最近一次心跳的 Unix 纳秒时间，读写并发走原子操作
	lastPing atomic.Int64
}

// RefreshPing 刷新心跳时间
func (c *UserConn) RefreshPing() {
	c.lastPing.Store(time.Now().UnixNano())
}

// LastPing 最近一次心跳时间，建连时即有初值
func (c *UserConn) LastPing() time.Time {
	return time.Unix(0, c.lastPing.Load())
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	// 前端与网关跨域部署，放开 Origin 检查
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// closeWithPolicyViolation 以 1008 策略违规码关闭连接
func closeWithPolicyViolation(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = conn.Close()
}

// HandleConnection 处理新的 WebSocket 连接
// 认证走 token 查询参数（升级后才关得出 1008），容量检查在注册时做
func HandleConnection(c *gin.Context, dispatcher *Dispatcher, broker EventBroker) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error("ws upgrade failed", zap.Error(err))
		return
	}

	claims, err := jwt.ParseToken(c.Query("token"))
	if err != nil || claims.Subject != "access_token" {
		closeWithPolicyViolation(conn, "authentication failed")
		return
	}

	connId := c.Query("conn_id")
	if connId == "" {
		connId = uuid.NewString()
	}

	client := &UserConn{
		Conn:   conn,
		UserId: claims.UserID,
		ConnId: connId,
		Send:   make(chan []byte, constants.CHANNEL_SIZE),
	}
	client.RefreshPing()

	if err := dispatcher.HandleConnect(client); err != nil {
		closeWithPolicyViolation(conn, "server at capacity")
		return
	}

	go client.Read(dispatcher, broker)
	go client.Write()
	zap.L().Info("ws连接成功", zap.String("user", client.UserId), zap.String("conn", client.ConnId))
}

// Read 从 WebSocket 读取事件并通过 Broker 发布
// ping 直接在这里回 pong，不走代理
func (c *UserConn) Read(dispatcher *Dispatcher, broker EventBroker) {
	zap.L().Debug("ws read goroutine start", zap.String("user", c.UserId))
	c.Conn.SetReadLimit(constants.WS_MAX_PAYLOAD)

	defer func() {
		dispatcher.HandleDisconnect(c)
		_ = c.Conn.Close()
	}()

	for {
		_, jsonMessage, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				zap.L().Warn("ws read error", zap.String("user", c.UserId), zap.Error(err))
			}
			return
		}

		var event Event
		if err := json.Unmarshal(jsonMessage, &event); err != nil {
			c.trySend(NewErrorEvent(errorx.CodeInvalidParam, "非法的事件格式").Encode())
			continue
		}
		// 客户端传的发送者一律覆盖为连接归属
		event.SenderId = c.UserId

		if event.Action == ActionPing {
			dispatcher.HandlePing(c)
			continue
		}

		data := event.Encode()
		if data == nil {
			continue
		}
		if err := broker.Publish(ctx, data); err != nil {
			zap.L().Error("publish event failed", zap.Error(err))
			c.trySend(NewErrorEvent(errorx.CodeServerBusy, "服务繁忙，请稍后重试").Encode())
		}
	}
}

// Write 从 Send 通道读取数据并写给 WebSocket
func (c *UserConn) Write() {
	zap.L().Debug("ws write goroutine start", zap.String("user", c.UserId))
	for data := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			zap.L().Warn("ws write error", zap.String("user", c.UserId), zap.Error(err))
			return
		}
	}
}

// trySend 非阻塞推送，通道满了直接丢
func (c *UserConn) trySend(data []byte) {
	if data == nil {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}
