package usecase

import (
	"context"
	"strings"
	"time"

	"messageapp/internal/domain/entity"
	"messageapp/internal/domain/repository"
	"messageapp/pkg/errors"
	"messageapp/pkg/logger"
)

// ChatUseCase covers the one-shot chat operations that do not need a live
// subscription: creating chats, listing them, and listing users a chat can
// still be started with.
type ChatUseCase struct {
	chatRepo  repository.ChatRepository
	userRepo  repository.UserRepository
	directory *ParticipantDirectory
}

func NewChatUseCase(chatRepo repository.ChatRepository, userRepo repository.UserRepository, directory *ParticipantDirectory) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:  chatRepo,
		userRepo:  userRepo,
		directory: directory,
	}
}

type CreateChatInput struct {
	RecipientID    string
	InitialMessage string
}

// CreateChat starts a direct chat between userID and the recipient,
// reusing an existing chat for the same pair. An initial message, when
// present, is sent through the usual append-then-summary saga.
func (uc *ChatUseCase) CreateChat(ctx context.Context, userID string, input CreateChatInput) (*entity.Chat, error) {
	if userID == input.RecipientID {
		return nil, errors.InvalidInput("You cannot create a chat with yourself", nil)
	}

	if _, err := uc.userRepo.GetByID(ctx, input.RecipientID); err != nil {
		logger.Warn("CreateChat: recipient %s not found: %v", input.RecipientID, err)
		return nil, err
	}

	chat, err := uc.chatRepo.FindByParticipants(ctx, userID, input.RecipientID)
	if err != nil {
		if !errors.Is(err, "NOT_FOUND") {
			return nil, err
		}

		chat = &entity.Chat{
			Participants:  []string{userID, input.RecipientID},
			LastMessageAt: time.Now(),
		}
		if err := uc.chatRepo.Create(ctx, chat); err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(input.InitialMessage) != "" {
		thread := NewThreadSynchronizer(uc.chatRepo, chat.ID)
		message, err := thread.Send(ctx, userID, input.RecipientID, input.InitialMessage)
		if err != nil {
			if message == nil {
				return nil, err
			}
			// The message is durable but the summary write failed. The
			// chat is returned with its stored, stale summary so the
			// caller sees exactly what the store holds.
			return chat, err
		}
		chat.LastMessage = message.Text
		chat.LastMessageAt = message.CreatedAt
	}

	return chat, nil
}

// SendMessage appends a message to chatID on behalf of userID. The sender
// must be a participant; the recipient is derived from the chat itself.
func (uc *ChatUseCase) SendMessage(ctx context.Context, userID, chatID, text string) (*entity.Message, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant of this chat", nil)
	}

	thread := NewThreadSynchronizer(uc.chatRepo, chatID)
	return thread.Send(ctx, userID, chat.OtherParticipant(userID), text)
}

// DeleteMessage removes userID's own message from chatID, repairing the
// chat summary when the newest message is the one removed.
func (uc *ChatUseCase) DeleteMessage(ctx context.Context, userID, chatID, messageID string) error {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(userID) {
		return errors.Forbidden("You are not a participant of this chat", nil)
	}

	thread := NewThreadSynchronizer(uc.chatRepo, chatID)
	return thread.Delete(ctx, userID, messageID)
}

// ListMessages reads the chat's message sequence once, ascending.
func (uc *ChatUseCase) ListMessages(ctx context.Context, userID, chatID string) ([]*entity.Message, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant of this chat", nil)
	}

	return uc.chatRepo.ListMessages(ctx, chatID)
}

// GetChat returns one chat joined with the other participant's profile.
func (uc *ChatUseCase) GetChat(ctx context.Context, userID, chatID string) (*ChatItem, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant of this chat", nil)
	}

	items := buildChatItems(ctx, uc.directory, userID, []*entity.Chat{chat})
	return &items[0], nil
}

// ListChats materializes the ordered chat list once, using the same join,
// ordering, and filter rules as the live synchronizer.
func (uc *ChatUseCase) ListChats(ctx context.Context, userID, query string) ([]ChatItem, error) {
	chats, err := uc.chatRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := buildChatItems(ctx, uc.directory, userID, chats)
	sortChatItems(items)
	return filterChatItems(items, query), nil
}

// ListChatCandidates returns every user the current user does not already
// share a chat with, excluding the user themselves.
func (uc *ChatUseCase) ListChatCandidates(ctx context.Context, userID string) ([]*entity.User, error) {
	users, err := uc.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	chats, err := uc.chatRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]bool, len(chats))
	for _, chat := range chats {
		if other := chat.OtherParticipant(userID); other != "" {
			existing[other] = true
		}
	}

	var candidates []*entity.User
	for _, user := range users {
		if user.ID == userID || existing[user.ID] {
			continue
		}
		candidates = append(candidates, user)
	}

	return candidates, nil
}
