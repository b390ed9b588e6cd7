// Package mq 消息发布/订阅，支持RabbitMQ（topic exchange）和Kafka两种实现
//
// 发布方把trace上下文注入消息头，消费方从消息头还原，
// 这样一次预留从HTTP请求到下游消费者在同一条链路里。
package mq

import (
	"context"
	"encoding/json"
	"fmt"
)

// Handler 消息处理函数，返回错误表示处理失败
type Handler func(ctx context.Context, routingKey string, body []byte) error

// Publisher 消息发布者
type Publisher interface {
	// Publish 发布一条消息，routingKey在RabbitMQ中是路由键，在Kafka中是消息key
	Publish(ctx context.Context, routingKey string, body []byte) error
	Close() error
}

// Consumer 消息消费者
type Consumer interface {
	// Consume 阻塞消费，ctx取消时返回nil
	Consume(ctx context.Context, handler Handler) error
	Close() error
}

// PublishJSON 序列化为JSON后发布
func PublishJSON(ctx context.Context, p Publisher, routingKey string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("消息序列化失败: %w", err)
	}
	return p.Publish(ctx, routingKey, body)
}

// NopPublisher 丢弃所有消息（mq.driver=none）
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, []byte) error { return nil }
func (NopPublisher) Close() error                                  { return nil }
