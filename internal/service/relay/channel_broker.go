// Package relay 实现实时网关：连接注册表、事件代理与分发
// channel_broker.go
// 核心职责：单机模式下的事件代理实现
// 不依赖外部消息队列，事件走进程内缓冲通道，适合小规模或开发环境
package relay

import (
	"context"

	"go.uber.org/zap"

	"whispr_chat_server/pkg/constants"
	"whispr_chat_server/pkg/errorx"
)

// ChannelBroker 进程内事件代理
type ChannelBroker struct {
	Transmit   chan []byte
	dispatcher *Dispatcher
	done       chan struct{}
}

// NewChannelBroker 创建 ChannelBroker 实例
func NewChannelBroker(dispatcher *Dispatcher) *ChannelBroker {
	return &ChannelBroker{
		Transmit:   make(chan []byte, constants.CHANNEL_SIZE),
		dispatcher: dispatcher,
		done:       make(chan struct{}),
	}
}

// Publish 发布事件到通道
// 通道满了直接报服务繁忙，不阻塞读协程
func (b *ChannelBroker) Publish(ctx context.Context, data []byte) error {
	select {
	case b.Transmit <- data:
		return nil
	case <-b.done:
		return errorx.New(errorx.CodeServerBusy, "事件代理已关闭")
	default:
		return errorx.ErrServerBusy
	}
}

// Start 启动事件消费循环
func (b *ChannelBroker) Start() {
	zap.L().Info("channel broker started")
	for {
		select {
		case data, ok := <-b.Transmit:
			if !ok {
				return
			}
			b.dispatcher.Dispatch(data)
		case <-b.done:
			return
		}
	}
}

// Close 关闭代理
func (b *ChannelBroker) Close() {
	close(b.done)
}
