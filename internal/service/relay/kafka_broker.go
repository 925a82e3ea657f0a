// Package relay 实现实时网关：连接注册表、事件代理与分发
// kafka_broker.go
// 核心职责：分布式模式下的事件代理实现
// 事件经 Kafka 主题流转，多实例部署时各实例都能消费并推给本机连接
package relay

import (
	"context"
	"errors"
	"io"
	"strconv"

	"go.uber.org/zap"

	myconfig "whispr_chat_server/internal/config"
)

// KafkaBroker 基于 Kafka 的事件代理
type KafkaBroker struct {
	client     *KafkaClient
	dispatcher *Dispatcher
	done       chan struct{}
}

// NewKafkaBroker 创建 KafkaBroker 实例
func NewKafkaBroker(client *KafkaClient, dispatcher *Dispatcher) *KafkaBroker {
	return &KafkaBroker{
		client:     client,
		dispatcher: dispatcher,
		done:       make(chan struct{}),
	}
}

// Publish 发布事件到 Kafka
func (b *KafkaBroker) Publish(ctx context.Context, data []byte) error {
	key := []byte(strconv.Itoa(myconfig.GetConfig().KafkaConfig.Partition))
	return b.client.SendMessage(ctx, key, data)
}

// Start 启动事件消费循环
// 读出错时记录并继续，Reader 内部会自动重连
func (b *KafkaBroker) Start() {
	zap.L().Info("kafka broker started")
	for {
		select {
		case <-b.done:
			return
		default:
		}

		msg, err := b.client.Consumer.ReadMessage(context.Background())
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			zap.L().Error("kafka read message failed", zap.Error(err))
			continue
		}
		b.dispatcher.Dispatch(msg.Value)
	}
}

// Close 关闭代理
func (b *KafkaBroker) Close() {
	close(b.done)
	b.client.KafkaClose()
}
