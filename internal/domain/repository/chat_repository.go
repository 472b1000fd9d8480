package repository

import (
	"context"
	"time"

	"messageapp/internal/domain/entity"
)

// ChatRepository persists chats and their message subcollection.
//
// Subscribe methods deliver full-replace snapshots: every value on the
// snapshot channel is the entire current result set, not a diff. Both
// returned channels are closed when ctx is canceled; on persistent failure
// a terminal error is delivered on the error channel before it closes, and
// no further snapshots follow.
type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error)
	FindByParticipants(ctx context.Context, userID1, userID2 string) (*entity.Chat, error)

	// UpdateLastMessage is the dependent summary write of the send/delete
	// saga. It is not atomic with the message write that precedes it.
	UpdateLastMessage(ctx context.Context, chatID, lastMessage string, at time.Time) error

	CreateMessage(ctx context.Context, message *entity.Message) error
	GetMessageByID(ctx context.Context, chatID, messageID string) (*entity.Message, error)
	DeleteMessage(ctx context.Context, chatID, messageID string) error

	// ListMessages reads one chat's messages once, ordered by timestamp
	// ascending.
	ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error)

	// SubscribeByUserID watches chats whose participant set contains userID.
	SubscribeByUserID(ctx context.Context, userID string) (<-chan []*entity.Chat, <-chan error)

	// SubscribeMessages watches one chat's messages ordered by timestamp
	// ascending.
	SubscribeMessages(ctx context.Context, chatID string) (<-chan []*entity.Message, <-chan error)
}
