package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedule-go/internal/events"
)

func boolPtr(b bool) *bool { return &b }

func TestCreateFriendLink(t *testing.T) {
	store := newMemoryStore()
	pub := &recordingPublisher{}
	svc := NewFriendshipService(store, pub)
	ctx := context.Background()
	alice := mustUser(t, store, "alice@example.com")
	bob := mustUser(t, store, "bob@example.com")

	link, err := svc.Create(ctx, alice, FriendLinkInput{FriendEmail: "Bob@Example.com"})
	require.Error(t, err, "local part is case sensitive")
	assert.Nil(t, link)

	link, err = svc.Create(ctx, alice, FriendLinkInput{UserEmail: "alice@example.com", FriendEmail: "bob@EXAMPLE.com"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, link.UserID)
	assert.Equal(t, bob.ID, link.FriendID)
	assert.False(t, link.IsApproved)
	assert.Equal(t, "bob@example.com", link.View().FriendEmail)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.FriendLinkRequested, pub.events[0].Type)
	assert.Equal(t, bob.ID, pub.events[0].RecipientUserID)
}

func TestCreateFriendLinkRejections(t *testing.T) {
	store := newMemoryStore()
	svc := NewFriendshipService(store, nil)
	ctx := context.Background()
	alice := mustUser(t, store, "alice@example.com")
	bob := mustUser(t, store, "bob@example.com")
	mustUser(t, store, "carol@example.com")

	_, err := svc.Create(ctx, alice, FriendLinkInput{UserEmail: "carol@example.com", FriendEmail: "bob@example.com"})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.Create(ctx, alice, FriendLinkInput{FriendEmail: "alice@example.com"})
	assert.Contains(t, fieldErrors(t, err), "friend_email")

	_, err = svc.Create(ctx, alice, FriendLinkInput{FriendEmail: "ghost@example.com"})
	assert.Contains(t, fieldErrors(t, err), "friend_email")

	_, err = svc.Create(ctx, alice, FriendLinkInput{})
	assert.Contains(t, fieldErrors(t, err), "friend_email")

	_, err = svc.Create(ctx, alice, FriendLinkInput{FriendEmail: "bob@example.com"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice, FriendLinkInput{FriendEmail: "bob@example.com"})
	assert.ErrorIs(t, err, ErrFriendshipExists)
	_, err = svc.Create(ctx, bob, FriendLinkInput{FriendEmail: "alice@example.com"})
	assert.ErrorIs(t, err, ErrFriendshipExists, "reverse direction is the same pair")
}

func TestFriendLinksAreVisibleToParticipantsOnly(t *testing.T) {
	store := newMemoryStore()
	svc := NewFriendshipService(store, nil)
	ctx := context.Background()
	alice := mustUser(t, store, "alice@example.com")
	bob := mustUser(t, store, "bob@example.com")
	carol := mustUser(t, store, "carol@example.com")

	ab, err := svc.Create(ctx, alice, FriendLinkInput{FriendEmail: "bob@example.com"})
	require.NoError(t, err)
	cb, err := svc.Create(ctx, carol, FriendLinkInput{FriendEmail: "bob@example.com"})
	require.NoError(t, err)

	list, err := svc.List(ctx, bob, nil)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ab.ID, list[0].ID)
	assert.Equal(t, cb.ID, list[1].ID)

	list, err = svc.List(ctx, alice, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = svc.Get(ctx, alice, cb.ID)
	assert.ErrorIs(t, err, ErrFriendLinkNotFound)
	_, err = svc.SetApproval(ctx, alice, cb.ID, FriendLinkUpdate{IsApproved: boolPtr(true)})
	assert.ErrorIs(t, err, ErrFriendLinkNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, alice, cb.ID), ErrFriendLinkNotFound)

	got, err := svc.Get(ctx, bob, cb.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", got.View().UserEmail)
}

func TestApproveFriendLink(t *testing.T) {
	store := newMemoryStore()
	pub := &recordingPublisher{}
	svc := NewFriendshipService(store, pub)
	ctx := context.Background()
	alice := mustUser(t, store, "alice@example.com")
	bob := mustUser(t, store, "bob@example.com")

	link, err := svc.Create(ctx, alice, FriendLinkInput{FriendEmail: "bob@example.com"})
	require.NoError(t, err)

	_, err = svc.SetApproval(ctx, alice, link.ID, FriendLinkUpdate{IsApproved: boolPtr(true)})
	assert.ErrorIs(t, err, ErrNotFriendLinkTarget)

	_, err = svc.SetApproval(ctx, bob, link.ID, FriendLinkUpdate{})
	assert.Contains(t, fieldErrors(t, err), "is_approved")

	approved, err := svc.SetApproval(ctx, bob, link.ID, FriendLinkUpdate{IsApproved: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)

	require.Len(t, pub.events, 2)
	assert.Equal(t, events.FriendLinkApproved, pub.events[1].Type)
	assert.Equal(t, alice.ID, pub.events[1].RecipientUserID)

	// 重复批准不再发事件
	_, err = svc.SetApproval(ctx, bob, link.ID, FriendLinkUpdate{IsApproved: boolPtr(true)})
	require.NoError(t, err)
	assert.Len(t, pub.events, 2)

	list, err := svc.List(ctx, alice, boolPtr(true))
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = svc.List(ctx, alice, boolPtr(false))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteFriendLink(t *testing.T) {
	store := newMemoryStore()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewFriendshipService(store, pub)
	ctx := context.Background()
	alice := mustUser(t, store, "alice@example.com")
	bob := mustUser(t, store, "bob@example.com")

	link, err := svc.Create(ctx, alice, FriendLinkInput{FriendEmail: "bob@example.com"})
	require.NoError(t, err, "publish failures do not fail the request")

	require.NoError(t, svc.Delete(ctx, bob, link.ID))
	require.Len(t, pub.events, 2)
	assert.Equal(t, events.FriendLinkRemoved, pub.events[1].Type)
	assert.Equal(t, alice.ID, pub.events[1].RecipientUserID)

	assert.ErrorIs(t, svc.Delete(ctx, alice, link.ID), ErrFriendLinkNotFound)
	list, err := svc.List(ctx, alice, nil)
	require.NoError(t, err)
	assert.Empty(t, list)

	// 删除后可以重新发起
	_, err = svc.Create(ctx, bob, FriendLinkInput{FriendEmail: "alice@example.com"})
	require.NoError(t, err)
}
