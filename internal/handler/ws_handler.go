package handler

import (
	"github.com/gin-gonic/gin"

	"whispr_chat_server/internal/service/relay"
)

// WsConnectHandler WebSocket 连接入口
// 认证在 relay 内完成（token 查询参数），升级失败或认证失败时以 1008 关闭
func WsConnectHandler(c *gin.Context) {
	relay.HandleConnection(c, relay.GlobalDispatcher, relay.GlobalBroker)
}
