// Package service 提供业务逻辑层
// 本文件定义各 Service 接口，Handler 层和实时网关依赖接口而非实现
package service

import (
	"context"

	"whispr_chat_server/internal/dto/request"
	"whispr_chat_server/internal/dto/respond"
)

// ChatService 聊天业务逻辑接口
type ChatService interface {
	// CreateDirectChat 创建单聊，同一对用户已存在未删除单聊时返回冲突
	CreateDirectChat(userUuid string, req request.CreateChatRequest) (*respond.ChatRespond, error)
	// CreateGroupChat 创建群聊，落成员并写入 "Group created" 系统消息
	CreateGroupChat(userUuid string, req request.CreateGroupChatRequest) (*respond.ChatRespond, error)
	// ListUserChats 列出用户的全部聊天，按最后消息时间倒序，附带未读数
	ListUserChats(userUuid string) ([]respond.ChatListRespond, error)
}

// MessageService 消息业务逻辑接口
type MessageService interface {
	// SendMessage 发送消息，落库并返回完整响应体
	SendMessage(userUuid string, req request.SendMessageRequest) (*respond.MessageRespond, error)
	// EditMessage 在可编辑窗口内修改自己的文本消息
	EditMessage(userUuid string, req request.EditMessageRequest) (*respond.MessageRespond, error)
	// DeleteMessage 软删除（占位文本）或物理删除消息
	DeleteMessage(userUuid string, req request.DeleteMessageRequest) error
	// ForwardMessage 把消息转发到多个聊天，尽力而为
	ForwardMessage(userUuid string, req request.ForwardMessageRequest) (*respond.ForwardRespond, error)
	// ToggleReaction 添加或取消表情回应，返回本次动作与最新聚合
	ToggleReaction(userUuid string, req request.ReactionRequest) (*respond.ReactionToggleRespond, error)
	// GetChatMessages 倒序分页拉取历史，同时推进已读回执
	GetChatMessages(userUuid string, req request.GetMessageListRequest) ([]respond.MessageRespond, error)
	// SearchMessages 按内容搜索自己可见的消息
	SearchMessages(userUuid string, req request.SearchMessagesRequest) ([]respond.MessageRespond, error)
	// TranslateMessage 翻译文本消息，缓存优先，外部服务故障时降级
	TranslateMessage(ctx context.Context, userUuid string, req request.TranslateMessageRequest) (*respond.TranslateRespond, error)
	// BuildRespond 把消息 ID 组装成完整响应体，实时网关广播时使用
	BuildRespond(messageId int64) (*respond.MessageRespond, error)
}

// CallService 通话业务逻辑接口
type CallService interface {
	// StartCall 发起通话，同一聊天已有进行中通话时返回冲突
	StartCall(userUuid string, req request.StartCallRequest) (*respond.CallRespond, error)
	// EndCall 结束通话，接通过落 ended，从未接通落 missed
	EndCall(userUuid string, callUuid string) (*respond.CallRespond, error)
	// RouteSignal 校验通话信令并给出下发目标，实时网关透传时使用
	RouteSignal(userUuid, callUuid, signalType, targetUserId string) (*respond.CallSignalRoute, error)
}
