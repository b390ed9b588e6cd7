package mq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/xiebiao/inventory-reservation/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// kafkaHeaderCarrier 把kafka消息头适配成otel的TextMapCarrier
type kafkaHeaderCarrier struct {
	headers *[]kafka.Header
}

func (c kafkaHeaderCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c kafkaHeaderCarrier) Set(key, value string) {
	for i, h := range *c.headers {
		if h.Key == key {
			(*c.headers)[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(*c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c kafkaHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.headers))
	for _, h := range *c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

// KafkaPublisher Kafka发布者，routingKey作为消息key并写入event_type头
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
	log    *zap.Logger
}

// NewKafkaPublisher 创建Kafka发布者
func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	log.Info("kafka publisher ready", zap.Strings("brokers", brokers), zap.String("topic", topic))
	return &KafkaPublisher{writer: w, topic: topic, log: log}
}

// Publish 同步写入一条消息
func (p *KafkaPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	msg := newKafkaMessage(ctx, routingKey, body)
	err := p.writer.WriteMessages(ctx, msg)
	metrics.IncPublished(p.topic, err)
	if err != nil {
		return fmt.Errorf("发布消息失败: %w", err)
	}
	return nil
}

func newKafkaMessage(ctx context.Context, routingKey string, body []byte) kafka.Message {
	msg := kafka.Message{
		Key:   []byte(routingKey),
		Value: body,
		Time:  time.Now(),
	}
	// 事件类型放在头里，消费方不用解析body就能分发
	msg.Headers = append(msg.Headers, kafka.Header{Key: "event_type", Value: []byte(routingKey)})
	otel.GetTextMapPropagator().Inject(ctx, kafkaHeaderCarrier{headers: &msg.Headers})
	return msg
}

// Close 关闭发布者
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// KafkaConsumer Kafka消费者（consumer group，手动提交offset）
type KafkaConsumer struct {
	reader *kafka.Reader
	topic  string
	log    *zap.Logger
}

// NewKafkaConsumer 创建Kafka消费者
func NewKafkaConsumer(brokers []string, topic, groupID string, log *zap.Logger) *KafkaConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &KafkaConsumer{reader: r, topic: topic, log: log}
}

// Consume 拉取消息并处理
// Kafka没有nack，处理失败的消息记录日志后照常提交offset
func (c *KafkaConsumer) Consume(ctx context.Context, handler Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			c.log.Warn("kafka fetch failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		headers := msg.Headers
		msgCtx := otel.GetTextMapPropagator().Extract(ctx, kafkaHeaderCarrier{headers: &headers})
		err = handler(msgCtx, routingKeyOf(msg), msg.Value)
		metrics.IncConsumed(c.topic, err)
		if err != nil {
			c.log.Warn("message handling failed",
				zap.String("key", string(msg.Key)),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.log.Warn("kafka commit failed", zap.Error(err))
		}
	}
}

// routingKeyOf 优先取event_type头，没有则用消息key
func routingKeyOf(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return string(msg.Key)
}

// Close 关闭消费者
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
