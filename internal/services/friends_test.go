package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waz-calendar/internal/bus"
	"waz-calendar/internal/models"
)

func TestFriendRequestAcceptIsSymmetric(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	m := NewFriendManager(f.dir, f.bus)
	ctx := context.Background()

	require.NoError(t, m.SendRequest(ctx, "bob", "alice"))
	require.ErrorIs(t, m.SendRequest(ctx, "bob", "alice"), ErrRequestPending)

	requests, err := m.Requests(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "bob", requests[0].From)

	requester, err := m.Accept(ctx, "alice", requests[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", requester)

	alice, bob := f.account(t, "alice"), f.account(t, "bob")
	assert.Equal(t, []string{"bob"}, alice.Friends)
	assert.Equal(t, []string{"alice"}, bob.Friends)
	assert.Empty(t, alice.Notifications)
	require.Len(t, bob.Notifications, 1)
	assert.Equal(t, models.NotificationFriendAccepted, bob.Notifications[0].Type)
	assert.Len(t, f.bus.ofType(bus.TypeFriendsChange), 2)

	require.ErrorIs(t, m.SendRequest(ctx, "bob", "alice"), ErrAlreadyFriends)
	require.ErrorIs(t, m.SendRequest(ctx, "bob", "bob"), ErrSelfRequest)
}

func TestFriendAcceptCompensatesWhenRequesterWriteFails(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	ctx := context.Background()
	require.NoError(t, NewFriendManager(f.dir, f.bus).SendRequest(ctx, "bob", "alice"))
	request := f.account(t, "alice").Notifications[0]

	m := NewFriendManager(failingDir{AccountDirectory: f.dir, failFor: "bob"}, f.bus)
	_, err := m.Accept(ctx, "alice", request.ID)
	require.ErrorIs(t, err, errInjected)

	alice := f.account(t, "alice")
	assert.Empty(t, alice.Friends)
	require.Len(t, alice.Notifications, 1)
	assert.Equal(t, request.ID, alice.Notifications[0].ID)
	assert.Empty(t, f.account(t, "bob").Friends)
}

func TestFriendRejectAndRemove(t *testing.T) {
	f := newFixture(t, "alice", "bob", "carol")
	m := NewFriendManager(f.dir, f.bus)
	ctx := context.Background()

	require.NoError(t, m.SendRequest(ctx, "carol", "alice"))
	request := f.account(t, "alice").Notifications[0]
	require.NoError(t, m.Reject(ctx, "alice", request.ID))
	assert.Empty(t, f.account(t, "alice").Notifications)
	require.ErrorIs(t, m.Reject(ctx, "alice", request.ID), ErrNotificationNotFound)

	f.befriend(t, "alice", "bob")
	require.NoError(t, m.Remove(ctx, "alice", "bob"))
	assert.Empty(t, f.account(t, "alice").Friends)
	assert.Empty(t, f.account(t, "bob").Friends)
	require.ErrorIs(t, m.Remove(ctx, "alice", "bob"), ErrNotFriends)
}

func TestFriendRemoveCompensates(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	f.befriend(t, "alice", "bob")
	m := NewFriendManager(failingDir{AccountDirectory: f.dir, failFor: "bob"}, f.bus)

	err := m.Remove(context.Background(), "alice", "bob")
	require.ErrorIs(t, err, errInjected)
	assert.Equal(t, []string{"bob"}, f.account(t, "alice").Friends)
	assert.Equal(t, []string{"alice"}, f.account(t, "bob").Friends)
}

func TestFriendSearch(t *testing.T) {
	f := newFixture(t, "alice", "alicia", "bob")
	m := NewFriendManager(f.dir, f.bus)
	ctx := context.Background()

	found, err := m.Search(ctx, "alice", "ALI")
	require.NoError(t, err)
	assert.Equal(t, []string{"alicia"}, found)

	_, err = m.Search(ctx, "alice", "   ")
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "q", verr.Field)
}
