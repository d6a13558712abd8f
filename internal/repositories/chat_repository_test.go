package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waz-calendar/internal/models"
)

func TestChatRepoAppendAndHistory(t *testing.T) {
	repo := NewChatRepo(newTestStore(t), 0)
	ctx := context.Background()

	history, err := repo.History(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Empty(t, history)

	msg := models.ChatMessage{ID: "msg_1", From: "alice", To: "bob", Content: "hi", Type: models.ChatText, Timestamp: time.Now().UTC()}
	require.NoError(t, repo.Append(ctx, "alice", "bob", msg))

	history, err = repo.History(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hi", history[0].Content)

	other, err := repo.History(ctx, "alice", "carol")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestChatRepoKeepsLatestMessages(t *testing.T) {
	repo := NewChatRepo(newTestStore(t), 3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		msg := models.ChatMessage{ID: fmt.Sprintf("msg_%d", i), From: "alice", To: "bob", Content: "x", Type: models.ChatText}
		require.NoError(t, repo.Append(ctx, "alice", "bob", msg))
	}

	history, err := repo.History(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "msg_3", history[0].ID)
	assert.Equal(t, "msg_5", history[2].ID)
}

func TestChatRepoRemove(t *testing.T) {
	repo := NewChatRepo(newTestStore(t), 0)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, "alice", "bob", models.ChatMessage{ID: "msg_1"}))
	require.NoError(t, repo.Append(ctx, "alice", "bob", models.ChatMessage{ID: "msg_2"}))

	require.NoError(t, repo.Remove(ctx, "alice", "bob", "msg_1"))
	require.ErrorIs(t, repo.Remove(ctx, "alice", "bob", "msg_1"), ErrMessageNotFound)

	history, err := repo.History(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "msg_2", history[0].ID)
}

func TestChatRepoTreatsNullDocumentAsEmpty(t *testing.T) {
	s := newTestStore(t)
	repo := NewChatRepo(s, 0)
	ctx := context.Background()
	_, err := s.Write(ctx, ChatLogPath("alice"), []byte("null"), "", "seed")
	require.NoError(t, err)

	chatLog, err := repo.Log(ctx, "alice")
	require.NoError(t, err)
	assert.NotNil(t, chatLog)
	assert.Empty(t, chatLog)

	msg := models.ChatMessage{ID: "msg_1", From: "alice", To: "bob", Content: "hi", Type: models.ChatText}
	require.NoError(t, repo.Append(ctx, "alice", "bob", msg))

	history, err := repo.History(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "msg_1", history[0].ID)
}

func TestChatRepoLogKeyedByFriend(t *testing.T) {
	repo := NewChatRepo(newTestStore(t), 0)
	ctx := context.Background()

	chatLog, err := repo.Log(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, chatLog)

	require.NoError(t, repo.Append(ctx, "alice", "bob", models.ChatMessage{ID: "msg_1", From: "alice", To: "bob"}))
	require.NoError(t, repo.Append(ctx, "alice", "carol", models.ChatMessage{ID: "msg_2", From: "carol", To: "alice"}))

	chatLog, err = repo.Log(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, chatLog, 2)
	assert.Equal(t, "msg_2", chatLog["carol"][0].ID)
}
