package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedule-go/internal/events"
	"schedule-go/internal/models"
)

type fakeProducer struct {
	topic   string
	key     []byte
	payload []byte
	err     error
}

func (p *fakeProducer) SendMessage(_ context.Context, topic string, key []byte, payload []byte) error {
	p.topic, p.key, p.payload = topic, key, payload
	return p.err
}

func (p *fakeProducer) Close() {}

func TestEventPublisher(t *testing.T) {
	fp := &fakeProducer{}
	pub := NewEventPublisher(fp, "friendship")

	link := &models.UserFriends{BaseModel: models.BaseModel{ID: 4}, UserID: 1, FriendID: 2}
	event := events.NewFriendshipEvent(events.FriendLinkApproved, link, 2)
	require.NoError(t, pub.PublishFriendship(context.Background(), event))

	assert.Equal(t, "friendship", fp.topic)
	assert.Equal(t, "user_friends-4", string(fp.key))
	var decoded events.FriendshipEvent
	require.NoError(t, json.Unmarshal(fp.payload, &decoded))
	assert.Equal(t, uint(1), decoded.RecipientUserID)

	fp.err = errors.New("broker down")
	assert.Error(t, pub.PublishFriendship(context.Background(), event))
}
