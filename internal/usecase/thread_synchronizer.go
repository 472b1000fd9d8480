package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"messageapp/internal/domain/entity"
	"messageapp/internal/domain/repository"
	"messageapp/pkg/errors"
	"messageapp/pkg/logger"
)

// DeletedMessagePlaceholder is the tombstone written into a chat's summary
// when its newest message is deleted.
const DeletedMessagePlaceholder = "~Message deleted~"

// ThreadSynchronizer maintains the ordered message sequence of one chat and
// performs sends and deletes with the dependent chat-summary repair.
type ThreadSynchronizer struct {
	chatRepo repository.ChatRepository
	chatID   string

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc

	updates chan []*entity.Message
	errs    chan error
}

func NewThreadSynchronizer(chatRepo repository.ChatRepository, chatID string) *ThreadSynchronizer {
	return &ThreadSynchronizer{
		chatRepo: chatRepo,
		chatID:   chatID,
		updates:  make(chan []*entity.Message, 1),
		errs:     make(chan error, 1),
	}
}

// Start opens the live subscription over the chat's messages, ordered by
// sent time ascending. Each snapshot replaces the full sequence.
func (s *ThreadSynchronizer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.InvalidInput("Synchronizer already started", nil)
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	snapshots, errs := s.chatRepo.SubscribeMessages(ctx, s.chatID)

	go s.run(ctx, snapshots, errs)
	return nil
}

func (s *ThreadSynchronizer) run(ctx context.Context, snapshots <-chan []*entity.Message, errs <-chan error) {
	defer close(s.updates)
	defer close(s.errs)

	for {
		select {
		case messages, ok := <-snapshots:
			if !ok {
				return
			}
			if s.isStopped() {
				return
			}
			s.emit(messages)

		case err, ok := <-errs:
			if ok && err != nil && !s.isStopped() {
				s.errs <- err
			}
			return

		case <-ctx.Done():
			return
		}
	}
}

func (s *ThreadSynchronizer) emit(messages []*entity.Message) {
	for {
		select {
		case s.updates <- messages:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

// Updates emits the full message sequence after every snapshot, ascending
// by sent time. Only the latest snapshot is retained if the consumer lags.
func (s *ThreadSynchronizer) Updates() <-chan []*entity.Message {
	return s.updates
}

// Errors delivers at most one terminal subscription error.
func (s *ThreadSynchronizer) Errors() <-chan error {
	return s.errs
}

// Send appends a message and then updates the owning chat's last-message
// summary. The two writes are a non-atomic saga: when the summary write
// fails the message is already durable and the returned message is non-nil
// alongside the error, leaving the summary stale until the next successful
// send.
func (s *ThreadSynchronizer) Send(ctx context.Context, senderID, recipientID, text string) (*entity.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.InvalidInput("Message text cannot be empty", nil)
	}

	// The timestamp is assigned here, not by the store: the summary write
	// below and the newest-message check in Delete both compare against
	// the exact value the message carries, which a server-side sentinel
	// would not expose until a later read.
	message := &entity.Message{
		ChatID:      s.chatID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Text:        text,
		Type:        "text",
		CreatedAt:   time.Now(),
	}

	if err := s.chatRepo.CreateMessage(ctx, message); err != nil {
		logger.Error("Send: failed to create message in chat %s: %v", s.chatID, err)
		return nil, err
	}

	if err := s.chatRepo.UpdateLastMessage(ctx, s.chatID, message.Text, message.CreatedAt); err != nil {
		logger.Error("Send: message %s sent but summary update for chat %s failed: %v", message.ID, s.chatID, err)
		return message, err
	}

	return message, nil
}

// Delete removes a message. Only the sender may delete; the check is local
// and advisory, the store stays the final authority. The tombstone summary
// update runs only when the deleted message was the chat's most recent one,
// so deleting an older message leaves the preview untouched.
func (s *ThreadSynchronizer) Delete(ctx context.Context, userID, messageID string) error {
	message, err := s.chatRepo.GetMessageByID(ctx, s.chatID, messageID)
	if err != nil {
		return err
	}

	if message.SenderID != userID {
		return errors.Forbidden("Only the sender can delete a message", nil)
	}

	chat, err := s.chatRepo.GetByID(ctx, s.chatID)
	if err != nil {
		return err
	}

	if err := s.chatRepo.DeleteMessage(ctx, s.chatID, messageID); err != nil {
		return err
	}

	if !message.CreatedAt.Equal(chat.LastMessageAt) {
		return nil
	}

	if err := s.chatRepo.UpdateLastMessage(ctx, s.chatID, DeletedMessagePlaceholder, time.Now()); err != nil {
		logger.Error("Delete: message %s removed but tombstone update for chat %s failed: %v", messageID, s.chatID, err)
		return err
	}

	return nil
}

// Stop releases the subscription; in-flight snapshots become no-ops.
func (s *ThreadSynchronizer) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (s *ThreadSynchronizer) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}
