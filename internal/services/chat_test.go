package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waz-calendar/internal/bus"
	"waz-calendar/internal/models"
	"waz-calendar/internal/repositories"
)

// failingChats fails appends to one owner's log.
type failingChats struct {
	repositories.ChatRepository
	failFor string
}

func (c failingChats) Append(ctx context.Context, owner, friend string, msg models.ChatMessage) error {
	if owner == c.failFor {
		return errInjected
	}
	return c.ChatRepository.Append(ctx, owner, friend, msg)
}

// countingChats counts whole-log reads.
type countingChats struct {
	repositories.ChatRepository
	logs int
}

func (c *countingChats) Log(ctx context.Context, owner string) (models.ChatLog, error) {
	c.logs++
	return c.ChatRepository.Log(ctx, owner)
}

func newChatManager(f *fixture, chats repositories.ChatRepository) *ChatManager {
	notifications := NewNotificationManager(f.dir, f.bus)
	m := NewChatManager(f.dir, chats, notifications, f.bus)
	m.now = steppingClock(testEpoch)
	return m
}

func TestChatSendDeliversToBothSides(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	f.befriend(t, "alice", "bob")
	m := newChatManager(f, repositories.NewChatRepo(f.store, models.MaxChatHistory))
	ctx := context.Background()

	msg, err := m.Send(ctx, "alice", "bob", "  "+strings.Repeat("가", models.MaxChatContent)+"  ")
	require.NoError(t, err)
	assert.Equal(t, models.ChatText, msg.Type)

	for _, pair := range [][2]string{{"alice", "bob"}, {"bob", "alice"}} {
		history, err := m.History(ctx, pair[0], pair[1])
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, msg.ID, history[0].ID)
	}

	bob := f.account(t, "bob")
	require.Len(t, bob.Notifications, 1)
	assert.Equal(t, models.NotificationChatMessage, bob.Notifications[0].Type)
	assert.Equal(t, "alice: "+strings.Repeat("가", models.ChatPreviewRunes)+"...", bob.Notifications[0].Message)
	assert.Len(t, f.bus.ofType(bus.TypeChatMessage), 2)
}

func TestChatSendRejectsLongContentWithoutStorage(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	f.befriend(t, "alice", "bob")
	m := newChatManager(f, repositories.NewChatRepo(f.store, models.MaxChatHistory))
	before := f.store.calls.Load()

	for _, content := range []string{strings.Repeat("a", models.MaxChatContent+1), "   "} {
		_, err := m.Send(context.Background(), "alice", "bob", content)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "content", verr.Field)
	}
	assert.Equal(t, before, f.store.calls.Load())
}

func TestChatRequiresFriendship(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	m := newChatManager(f, repositories.NewChatRepo(f.store, models.MaxChatHistory))

	_, err := m.Send(context.Background(), "alice", "bob", "hi")
	require.ErrorIs(t, err, ErrNotFriends)
	_, err = m.History(context.Background(), "alice", "bob")
	require.ErrorIs(t, err, ErrNotFriends)
}

func TestChatSendRetractsSenderCopy(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	f.befriend(t, "alice", "bob")
	chats := repositories.NewChatRepo(f.store, models.MaxChatHistory)
	m := newChatManager(f, failingChats{ChatRepository: chats, failFor: "bob"})
	ctx := context.Background()

	_, err := m.Send(ctx, "alice", "bob", "hello")
	require.ErrorIs(t, err, errInjected)

	history, err := chats.History(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Empty(t, f.account(t, "bob").Notifications)
}

func TestChatShareSchedule(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	f.befriend(t, "alice", "bob")
	events := newEventManager(f)
	m := newChatManager(f, repositories.NewChatRepo(f.store, models.MaxChatHistory))
	ctx := context.Background()

	event, err := events.Add(ctx, "alice", models.EventInput{StartDate: "2025-05-01", Content: "picnic"})
	require.NoError(t, err)

	msg, err := m.ShareSchedule(ctx, "alice", "bob", event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ChatScheduleShare, msg.Type)
	require.NotNil(t, msg.Event)
	assert.Equal(t, event.ID, msg.Event.ID)

	_, err = m.ShareSchedule(ctx, "alice", "bob", "memo_missing")
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestChatConversationsLatestPerFriendNewestFirst(t *testing.T) {
	f := newFixture(t, "alice", "bob", "carol", "dave")
	f.befriend(t, "alice", "bob")
	f.befriend(t, "alice", "carol")
	f.befriend(t, "alice", "dave")
	repo := repositories.NewChatRepo(f.store, models.MaxChatHistory)
	chats := &countingChats{ChatRepository: repo}
	m := newChatManager(f, chats)
	ctx := context.Background()

	_, err := m.Send(ctx, "bob", "alice", "first")
	require.NoError(t, err)
	_, err = m.Send(ctx, "carol", "alice", "from carol")
	require.NoError(t, err)
	latest, err := m.Send(ctx, "alice", "bob", "latest")
	require.NoError(t, err)

	// A thread kept from a former friend is not listed.
	require.NoError(t, repo.Append(ctx, "alice", "mallory", models.ChatMessage{
		ID: "msg_old", From: "mallory", To: "alice", Content: "still here", Timestamp: testEpoch.Add(time.Hour),
	}))

	chats.logs = 0
	conversations, err := m.Conversations(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, chats.logs)
	require.Len(t, conversations, 2)
	assert.Equal(t, "bob", conversations[0].Friend)
	assert.Equal(t, latest.ID, conversations[0].LastMessage.ID)
	assert.Equal(t, "carol", conversations[1].Friend)
	assert.Equal(t, "from carol", conversations[1].LastMessage.Content)

	empty, err := m.Conversations(ctx, "dave")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
