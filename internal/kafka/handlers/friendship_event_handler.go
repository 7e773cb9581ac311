package kafkahandlers

import (
	"context"
	"encoding/json"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"schedule-go/internal/events"
	"schedule-go/internal/websocket"
)

// Notifier pushes a payload to a connected user.
type Notifier interface {
	Notify(userID uint, payload []byte) bool
}

// FriendshipEventHandler forwards friendship events from Kafka to the
// recipient's websocket connection.
type FriendshipEventHandler struct {
	notifier Notifier
}

// NewFriendshipEventHandler creates a new FriendshipEventHandler.
func NewFriendshipEventHandler(notifier Notifier) *FriendshipEventHandler {
	if notifier == nil {
		log.Panic("Notifier cannot be nil")
	}
	return &FriendshipEventHandler{notifier: notifier}
}

// Handle is the kafka.MessageHandler for the friendship topic. Malformed
// messages are logged and skipped so they are committed.
func (h *FriendshipEventHandler) Handle(_ context.Context, msg *kafka.Message) error {
	event, err := events.Decode(msg.Value)
	if err != nil {
		log.Printf("Skipping friendship event at offset %v: %v", msg.TopicPartition.Offset, err)
		return nil
	}

	out, err := json.Marshal(websocket.Message{
		Type:      string(event.Type),
		Payload:   msg.Value,
		Timestamp: event.Timestamp,
	})
	if err != nil {
		return err
	}
	h.notifier.Notify(event.RecipientUserID, out)
	return nil
}
