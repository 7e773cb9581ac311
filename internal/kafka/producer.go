package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"schedule-go/internal/config"
	"schedule-go/internal/events"
)

// MessageProducer sends keyed messages to a topic.
type MessageProducer interface {
	SendMessage(ctx context.Context, topic string, key []byte, payload []byte) error
	Close()
}

const flushTimeoutMs = 15 * 1000

type confluentKafkaProducer struct {
	producer *kafka.Producer
	cfg      config.KafkaConfig
}

// producerConfig waits for all in-sync replicas to acknowledge each event.
func producerConfig(cfg config.KafkaConfig) *kafka.ConfigMap {
	cm := &kafka.ConfigMap{
		"bootstrap.servers": strings.Join(cfg.Brokers, ","),
		"acks":              "all",
	}
	if cfg.Protocol != "" {
		_ = cm.SetKey("security.protocol", cfg.Protocol)
	}
	if cfg.ClientID != "" {
		_ = cm.SetKey("client.id", cfg.ClientID)
	}
	return cm
}

// NewConfluentKafkaProducer connects a producer to cfg.Brokers.
func NewConfluentKafkaProducer(cfg config.KafkaConfig) (MessageProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka producer: no brokers configured")
	}
	p, err := kafka.NewProducer(producerConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("创建 Kafka 生产者失败: %w", err)
	}
	return &confluentKafkaProducer{producer: p, cfg: cfg}, nil
}

// SendMessage enqueues one message and blocks until the broker reports
// delivery or ctx ends.
func (p *confluentKafkaProducer) SendMessage(ctx context.Context, topic string, key []byte, payload []byte) error {
	// 带缓冲，迟到的投递报告不会阻塞 librdkafka
	report := make(chan kafka.Event, 1)
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            key,
		Value:          payload,
		Timestamp:      time.Now(),
	}
	if err := p.producer.Produce(msg, report); err != nil {
		return fmt.Errorf("kafka producer: enqueue to %s: %w", topic, err)
	}

	select {
	case ev := <-report:
		return deliveryError(topic, ev)
	case <-ctx.Done():
		return fmt.Errorf("kafka producer: waiting for delivery to %s: %w", topic, ctx.Err())
	}
}

func deliveryError(topic string, ev kafka.Event) error {
	m, ok := ev.(*kafka.Message)
	if !ok {
		return fmt.Errorf("kafka producer: unexpected delivery event %T for %s", ev, topic)
	}
	if m.TopicPartition.Error != nil {
		return fmt.Errorf("kafka producer: delivery to %s failed: %w", topic, m.TopicPartition.Error)
	}
	return nil
}

// Close flushes outstanding messages before closing the producer.
func (p *confluentKafkaProducer) Close() {
	if p.producer == nil {
		return
	}
	if remaining := p.producer.Flush(flushTimeoutMs); remaining > 0 {
		log.Printf("警告: Kafka 生产者关闭时仍有 %d 条消息未投递", remaining)
	}
	p.producer.Close()
	p.producer = nil
	log.Println("Kafka producer closed.")
}

// EventPublisher publishes friendship events as JSON to the friendship topic.
type EventPublisher struct {
	producer MessageProducer
	topic    string
}

var _ events.Publisher = (*EventPublisher)(nil)

// NewEventPublisher creates an events.Publisher on top of producer.
func NewEventPublisher(producer MessageProducer, topic string) *EventPublisher {
	return &EventPublisher{producer: producer, topic: topic}
}

func (p *EventPublisher) PublishFriendship(ctx context.Context, event events.FriendshipEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化好友事件失败: %w", err)
	}
	if err := p.producer.SendMessage(ctx, p.topic, event.Key(), payload); err != nil {
		return fmt.Errorf("发送好友事件到 %s 失败: %w", p.topic, err)
	}
	return nil
}
