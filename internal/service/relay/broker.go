// Package relay 实现实时网关：连接注册表、事件代理与分发
// broker.go
// 核心职责：定义事件代理接口
// 抽象事件的发布与消费，支持 Kafka（分布式）和 Channel（单机）两种实现
package relay

import "context"

// EventBroker 事件代理接口
type EventBroker interface {
	// Publish 发布事件到消息队列/通道
	Publish(ctx context.Context, data []byte) error
	// Start 启动事件消费循环
	Start()
	// Close 关闭代理资源
	Close()
}

var ctx = context.Background()

// GlobalBroker 全局事件代理实例
// 在 main.go 中根据配置初始化为 KafkaBroker 或 ChannelBroker
var GlobalBroker EventBroker

// GlobalDispatcher 全局事件分发器实例
var GlobalDispatcher *Dispatcher
