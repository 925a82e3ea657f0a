// Package service 提供业务逻辑层
// 本文件实现 Service 层的依赖注入和聚合
package service

import (
	"whispr_chat_server/internal/dao/mysql/repository"
	myredis "whispr_chat_server/internal/dao/redis"
	"whispr_chat_server/internal/infrastructure/translate"
	"whispr_chat_server/internal/service/call"
	"whispr_chat_server/internal/service/chat"
	"whispr_chat_server/internal/service/message"
)

// Services 聚合所有 Service 实例
// 作为依赖注入的入口，Handler 层通过 service.Svc 访问各个 Service
type Services struct {
	Chat    ChatService
	Message MessageService
	Call    CallService
}

// NewServices 创建并注入所有 Service 实例
// repos: Repository 层聚合；cache: 缓存服务；translator: 外部翻译协作方；
// presence: 在线状态探针（实时网关的 Tracker），允许为 nil
func NewServices(repos *repository.Repositories, cache myredis.AsyncCacheService,
	translator translate.Translator, presence chat.PresenceChecker) *Services {
	chatSvc := chat.NewChatService(repos, presence)
	messageSvc := message.NewMessageService(repos, cache, translator)
	callSvc := call.NewCallService(repos)

	return &Services{
		Chat:    chatSvc,
		Message: messageSvc,
		Call:    callSvc,
	}
}

// Svc 全局 Services 实例
// Handler 层通过 service.Svc.Message.SendMessage() 等方式调用
var Svc *Services

// InitServices 初始化全局 Services 实例
// 应在 main.go 中调用，在 Repository、Redis 和在线状态跟踪器初始化之后
func InitServices(repos *repository.Repositories, cache myredis.AsyncCacheService,
	translator translate.Translator, presence chat.PresenceChecker) {
	Svc = NewServices(repos, cache, translator, presence)
}
