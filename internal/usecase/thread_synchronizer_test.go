package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messageapp/internal/domain/entity"
	"messageapp/pkg/errors"
)

func newThreadFixture(t *testing.T) (*fakeChatRepo, *ThreadSynchronizer) {
	t.Helper()
	chatRepo := newFakeChatRepo(&entity.Chat{
		ID:           "chat-1",
		Participants: []string{"me", "u1"},
	})
	return chatRepo, NewThreadSynchronizer(chatRepo, "chat-1")
}

func TestThreadSendAppendsAndUpdatesSummary(t *testing.T) {
	chatRepo, thread := newThreadFixture(t)
	require.NoError(t, thread.Start(context.Background()))
	defer thread.Stop()

	message, err := thread.Send(context.Background(), "me", "u1", "hello there")
	require.NoError(t, err)
	require.NotEmpty(t, message.ID)

	// The appended message shows up in the live sequence.
	view := waitFor(t, thread.Updates(), func(messages []*entity.Message) bool { return len(messages) == 1 })
	assert.Equal(t, message.ID, view[0].ID)
	assert.Equal(t, "hello there", view[0].Text)
	assert.Equal(t, "text", view[0].Type)

	// And the chat summary reflects it.
	chat, err := chatRepo.GetByID(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "hello there", chat.LastMessage)
	assert.True(t, chat.LastMessageAt.Equal(message.CreatedAt))
}

func TestThreadSequenceAscending(t *testing.T) {
	_, thread := newThreadFixture(t)
	require.NoError(t, thread.Start(context.Background()))
	defer thread.Stop()

	first, err := thread.Send(context.Background(), "me", "u1", "first")
	require.NoError(t, err)
	second, err := thread.Send(context.Background(), "u1", "me", "second")
	require.NoError(t, err)

	view := waitFor(t, thread.Updates(), func(messages []*entity.Message) bool { return len(messages) == 2 })
	assert.Equal(t, first.ID, view[0].ID)
	assert.Equal(t, second.ID, view[1].ID)
	assert.True(t, view[0].CreatedAt.Before(view[1].CreatedAt) || view[0].CreatedAt.Equal(view[1].CreatedAt))
}

func TestThreadSendRejectsEmptyText(t *testing.T) {
	chatRepo, thread := newThreadFixture(t)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := thread.Send(context.Background(), "me", "u1", text)
		assert.True(t, errors.Is(err, "INVALID_INPUT"))
	}

	assert.Empty(t, chatRepo.orderedMessages("chat-1"))
}

func TestThreadSendSummaryFailureKeepsMessage(t *testing.T) {
	chatRepo, thread := newThreadFixture(t)
	chatRepo.failUpdateLastMessage = true

	message, err := thread.Send(context.Background(), "me", "u1", "orphaned")

	// The append succeeded, so the caller gets both the durable message
	// and the summary error.
	require.Error(t, err)
	require.NotNil(t, message)

	stored, getErr := chatRepo.GetMessageByID(context.Background(), "chat-1", message.ID)
	require.NoError(t, getErr)
	assert.Equal(t, "orphaned", stored.Text)

	chat, getErr := chatRepo.GetByID(context.Background(), "chat-1")
	require.NoError(t, getErr)
	assert.Empty(t, chat.LastMessage)
}

func TestThreadDeleteNewestWritesTombstone(t *testing.T) {
	chatRepo, thread := newThreadFixture(t)

	_, err := thread.Send(context.Background(), "me", "u1", "older")
	require.NoError(t, err)
	newest, err := thread.Send(context.Background(), "me", "u1", "newest")
	require.NoError(t, err)

	require.NoError(t, thread.Delete(context.Background(), "me", newest.ID))

	chat, err := chatRepo.GetByID(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, DeletedMessagePlaceholder, chat.LastMessage)

	_, err = chatRepo.GetMessageByID(context.Background(), "chat-1", newest.ID)
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestThreadDeleteOlderLeavesSummary(t *testing.T) {
	chatRepo, thread := newThreadFixture(t)

	older, err := thread.Send(context.Background(), "me", "u1", "older")
	require.NoError(t, err)
	newest, err := thread.Send(context.Background(), "me", "u1", "newest")
	require.NoError(t, err)

	require.NoError(t, thread.Delete(context.Background(), "me", older.ID))

	// The preview still belongs to the surviving newest message.
	chat, err := chatRepo.GetByID(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "newest", chat.LastMessage)
	assert.True(t, chat.LastMessageAt.Equal(newest.CreatedAt))
}

func TestThreadDeleteForbiddenForNonSender(t *testing.T) {
	_, thread := newThreadFixture(t)

	message, err := thread.Send(context.Background(), "me", "u1", "mine")
	require.NoError(t, err)

	err = thread.Delete(context.Background(), "u1", message.ID)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestThreadDeleteMissingMessage(t *testing.T) {
	_, thread := newThreadFixture(t)

	err := thread.Delete(context.Background(), "me", "no-such-message")
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestThreadStopClosesUpdates(t *testing.T) {
	_, thread := newThreadFixture(t)
	require.NoError(t, thread.Start(context.Background()))

	thread.Stop()
	thread.Stop()

	waitForClose(t, thread.Updates())
}

func TestThreadContextCancelClosesUpdates(t *testing.T) {
	_, thread := newThreadFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, thread.Start(ctx))

	cancel()

	waitForClose(t, thread.Updates())
}

func TestThreadTombstoneAdvancesTimestamp(t *testing.T) {
	chatRepo, thread := newThreadFixture(t)

	newest, err := thread.Send(context.Background(), "me", "u1", "only")
	require.NoError(t, err)

	before := time.Now()
	require.NoError(t, thread.Delete(context.Background(), "me", newest.ID))

	chat, err := chatRepo.GetByID(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.False(t, chat.LastMessageAt.Before(before))
}
