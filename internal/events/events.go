// Package events defines the friendship notifications published after a
// friend link changes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"schedule-go/internal/models"
)

// Type 标识事件类型。
type Type string

const (
	FriendLinkRequested Type = "friend_link.requested"
	FriendLinkApproved  Type = "friend_link.approved"
	FriendLinkRemoved   Type = "friend_link.removed"
)

// FriendshipEvent is sent to the participant who did not cause the change.
type FriendshipEvent struct {
	Type            Type                   `json:"type"`
	ActorUserID     uint                   `json:"actorUserId"`
	RecipientUserID uint                   `json:"recipientUserId"`
	Link            models.UserFriendsView `json:"link"`
	Timestamp       time.Time              `json:"timestamp"`
}

// NewFriendshipEvent builds an event for link; link must have User and Friend loaded.
func NewFriendshipEvent(t Type, link *models.UserFriends, actorID uint) FriendshipEvent {
	return FriendshipEvent{
		Type:            t,
		ActorUserID:     actorID,
		RecipientUserID: link.OtherParticipant(actorID),
		Link:            link.View(),
		Timestamp:       time.Now().UTC(),
	}
}

// Key 按链接 ID 分区，同一链接的事件保持顺序。
func (e FriendshipEvent) Key() []byte {
	return []byte(fmt.Sprintf("user_friends-%d", e.Link.ID))
}

// Decode parses a payload produced by json.Marshal(FriendshipEvent).
func Decode(data []byte) (FriendshipEvent, error) {
	var e FriendshipEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("解析好友事件失败: %w", err)
	}
	if e.Type == "" || e.RecipientUserID == 0 {
		return e, fmt.Errorf("好友事件缺少 type 或 recipientUserId")
	}
	return e, nil
}

// Publisher delivers friendship events.
type Publisher interface {
	PublishFriendship(ctx context.Context, event FriendshipEvent) error
}

// logPublisher only logs; used when KAFKA.ENABLED is false.
type logPublisher struct{}

// NewLogPublisher returns a Publisher that writes events to the standard logger.
func NewLogPublisher() Publisher {
	return logPublisher{}
}

func (logPublisher) PublishFriendship(_ context.Context, event FriendshipEvent) error {
	log.Printf("friendship event %s: link %d, recipient %d", event.Type, event.Link.ID, event.RecipientUserID)
	return nil
}
