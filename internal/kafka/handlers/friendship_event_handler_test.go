package kafkahandlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedule-go/internal/events"
	"schedule-go/internal/models"
	"schedule-go/internal/websocket"
)

type recordingNotifier struct {
	userIDs  []uint
	payloads [][]byte
}

func (n *recordingNotifier) Notify(userID uint, payload []byte) bool {
	n.userIDs = append(n.userIDs, userID)
	n.payloads = append(n.payloads, payload)
	return true
}

func message(value []byte) *kafka.Message {
	topic := "schedule-friendship-events"
	return &kafka.Message{TopicPartition: kafka.TopicPartition{Topic: &topic}, Value: value}
}

func TestHandleForwardsToRecipient(t *testing.T) {
	n := &recordingNotifier{}
	h := NewFriendshipEventHandler(n)

	link := &models.UserFriends{
		BaseModel: models.BaseModel{ID: 9},
		UserID:    1, User: models.User{Email: "a@example.com"},
		FriendID: 2, Friend: models.User{Email: "b@example.com"},
	}
	payload, err := json.Marshal(events.NewFriendshipEvent(events.FriendLinkRequested, link, 1))
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), message(payload)))
	require.Equal(t, []uint{2}, n.userIDs)

	var got websocket.Message
	require.NoError(t, json.Unmarshal(n.payloads[0], &got))
	assert.Equal(t, "friend_link.requested", got.Type)
	assert.JSONEq(t, string(payload), string(got.Payload))
}

func TestHandleSkipsMalformedMessages(t *testing.T) {
	n := &recordingNotifier{}
	h := NewFriendshipEventHandler(n)
	assert.NoError(t, h.Handle(context.Background(), message([]byte("{"))))
	assert.Empty(t, n.userIDs)
}
