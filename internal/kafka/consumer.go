package kafka

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"schedule-go/internal/config"
)

// MessageHandler processes one consumed message. The offset is committed only
// when it returns nil.
type MessageHandler func(ctx context.Context, msg *kafka.Message) error

// MessageConsumer defines the interface for a Kafka message consumer.
type MessageConsumer interface {
	Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error
	Close()
}

// pollTimeoutMs bounds how long Consume waits before rechecking ctx.
const pollTimeoutMs = 500

type confluentKafkaConsumer struct {
	consumer *kafka.Consumer
	cfg      config.KafkaConfig
	groupID  string
}

// NewConfluentKafkaConsumer returns a consumer for cfg.Brokers. The
// underlying client is created by Consume once the group is known.
func NewConfluentKafkaConsumer(cfg config.KafkaConfig) (MessageConsumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer: no brokers configured")
	}
	return &confluentKafkaConsumer{cfg: cfg}, nil
}

// consumerConfig builds the librdkafka settings: manual commits, and new
// groups start from the earliest offset so no event is skipped.
func consumerConfig(cfg config.KafkaConfig, groupID string) *kafka.ConfigMap {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(cfg.Brokers, ","),
		"group.id":           groupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	}
	if cfg.Protocol != "" {
		_ = configMap.SetKey("security.protocol", cfg.Protocol)
	}
	if cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", cfg.ClientID)
	}
	return configMap
}

// Consume subscribes to topics and dispatches messages to handler until ctx
// is canceled or the client reports a fatal error.
func (c *confluentKafkaConsumer) Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error {
	if len(topics) == 0 {
		return fmt.Errorf("kafka consumer: no topics specified")
	}
	if groupID == "" {
		return fmt.Errorf("kafka consumer: no group id specified")
	}
	c.groupID = groupID

	consumer, err := kafka.NewConsumer(consumerConfig(c.cfg, groupID))
	if err != nil {
		return fmt.Errorf("failed to create Kafka consumer for group %s: %w", groupID, err)
	}
	c.consumer = consumer

	if err := c.consumer.SubscribeTopics(topics, nil); err != nil {
		c.Close()
		return fmt.Errorf("failed to subscribe to topics %v for group %s: %w", topics, groupID, err)
	}
	log.Printf("Kafka consumer group %s subscribed to %v", groupID, topics)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Kafka consumer group %s stopping: %v", groupID, ctx.Err())
			return nil
		default:
		}

		if err := c.dispatch(ctx, c.consumer.Poll(pollTimeoutMs), handler); err != nil {
			return err
		}
	}
}

// dispatch handles one polled event. Only fatal client errors are returned.
func (c *confluentKafkaConsumer) dispatch(ctx context.Context, ev kafka.Event, handler MessageHandler) error {
	switch e := ev.(type) {
	case nil:
		// poll timeout
	case *kafka.Message:
		if err := handler(ctx, e); err != nil {
			// 不提交，重启或重平衡后会重新投递
			log.Printf("Kafka group %s: handler failed for %s: %v", c.groupID, e.TopicPartition, err)
			return nil
		}
		if _, err := c.consumer.CommitMessage(e); err != nil {
			log.Printf("Kafka group %s: commit failed for %s: %v", c.groupID, e.TopicPartition, err)
		}
	case kafka.Error:
		if e.IsFatal() {
			return fmt.Errorf("fatal Kafka error for group %s: %w", c.groupID, e)
		}
		log.Printf("Kafka group %s: %v (code %d, retriable %t)", c.groupID, e, e.Code(), e.IsRetriable())
	case kafka.AssignedPartitions:
		log.Printf("Kafka group %s: assigned %v", c.groupID, e.Partitions)
		_ = c.consumer.Assign(e.Partitions)
	case kafka.RevokedPartitions:
		log.Printf("Kafka group %s: revoked %v", c.groupID, e.Partitions)
		_ = c.consumer.Unassign()
	}
	return nil
}

// Close closes the Kafka consumer. It is safe to call more than once.
func (c *confluentKafkaConsumer) Close() {
	if c.consumer == nil {
		return
	}
	if err := c.consumer.Close(); err != nil {
		log.Printf("Error closing Kafka consumer for group %s: %v", c.groupID, err)
	}
	c.consumer = nil
}
