package constants

import "time"

const (
	CHANNEL_SIZE = 100 // 通道大小

	REDIS_TIMEOUT = 1 // redis 缓存过期时间 (分钟)

	// TYPING_TTL 输入状态租约时长
	// 每次键入事件刷新租约，过期后视为停止输入
	TYPING_TTL = 10 * time.Second

	// EDIT_WINDOW 消息可编辑窗口，从消息创建时间起算
	EDIT_WINDOW = 15 * time.Minute

	// DELETED_PLACEHOLDER 软删除后内容的固定占位符，不可恢复
	DELETED_PLACEHOLDER = "[This message was deleted]"

	// MESSAGE_PAGE_SIZE 历史消息缺省分页大小
	MESSAGE_PAGE_SIZE = 50

	// GROUP_MAX_MEMBERS 单个群聊的最大成员数
	GROUP_MAX_MEMBERS = 256

	// GROUP_NAME_MAX_LEN 群名称最大长度
	GROUP_NAME_MAX_LEN = 100

	// WS_MAX_PAYLOAD 单条 WebSocket 消息的最大字节数
	WS_MAX_PAYLOAD = 1024 * 1024

	// WS_DEFAULT_MAX_CONNECTIONS 全局连接数默认上限，超出直接拒绝而非排队
	WS_DEFAULT_MAX_CONNECTIONS = 1000
)
