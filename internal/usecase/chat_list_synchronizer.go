package usecase

import (
	"context"
	"sort"
	"sync"

	"messageapp/internal/domain/entity"
	"messageapp/internal/domain/repository"
	"messageapp/pkg/errors"
	"messageapp/pkg/logger"
	"messageapp/pkg/search"
)

// ChatItem is one row of the materialized chat list: the chat joined with
// the resolved profile of the other participant.
type ChatItem struct {
	Chat             *entity.Chat        `json:"chat"`
	OtherParticipant *entity.Participant `json:"other_participant"`
}

// ChatListSynchronizer maintains an ordered, filterable view of the chats
// containing one user. Every store snapshot is a full replacement of the
// chat set and the view is recomputed from scratch.
type ChatListSynchronizer struct {
	chatRepo  repository.ChatRepository
	directory *ParticipantDirectory

	mu      sync.Mutex
	items   []ChatItem
	query   string
	started bool
	stopped bool
	cancel  context.CancelFunc

	updates chan []ChatItem
	errs    chan error
}

func NewChatListSynchronizer(chatRepo repository.ChatRepository, directory *ParticipantDirectory) *ChatListSynchronizer {
	return &ChatListSynchronizer{
		chatRepo:  chatRepo,
		directory: directory,
		updates:   make(chan []ChatItem, 1),
		errs:      make(chan error, 1),
	}
}

// Start opens the live subscription for currentUserID and begins emitting
// ordered views on Updates. It may be called once per synchronizer.
func (s *ChatListSynchronizer) Start(ctx context.Context, currentUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.InvalidInput("Synchronizer already started", nil)
	}
	if currentUserID == "" {
		return errors.InvalidInput("Current user id is required", nil)
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	snapshots, errs := s.chatRepo.SubscribeByUserID(ctx, currentUserID)

	go s.run(ctx, currentUserID, snapshots, errs)
	return nil
}

func (s *ChatListSynchronizer) run(ctx context.Context, userID string, snapshots <-chan []*entity.Chat, errs <-chan error) {
	defer close(s.updates)
	defer close(s.errs)

	for {
		select {
		case chats, ok := <-snapshots:
			if !ok {
				return
			}
			if s.isStopped() {
				return
			}
			s.apply(ctx, userID, chats)

		case err, ok := <-errs:
			if ok && err != nil && !s.isStopped() {
				// Terminal: no retry here, resubscription is the store's
				// (or the caller's) concern.
				s.errs <- err
			}
			return

		case <-ctx.Done():
			return
		}
	}
}

// apply fully recomputes the view from an authoritative snapshot.
func (s *ChatListSynchronizer) apply(ctx context.Context, userID string, chats []*entity.Chat) {
	items := buildChatItems(ctx, s.directory, userID, chats)
	sortChatItems(items)

	s.mu.Lock()
	s.items = items
	view := filterChatItems(items, s.query)
	s.mu.Unlock()

	s.emit(view)
}

// emit delivers the latest view, displacing an unconsumed older one.
func (s *ChatListSynchronizer) emit(view []ChatItem) {
	for {
		select {
		case s.updates <- view:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

// Updates emits the current ordered (and filtered, if a query is set) chat
// list after every processed snapshot. Only the latest view is retained if
// the consumer lags. The channel closes when the synchronizer stops.
func (s *ChatListSynchronizer) Updates() <-chan []ChatItem {
	return s.updates
}

// Errors delivers at most one terminal subscription error.
func (s *ChatListSynchronizer) Errors() <-chan error {
	return s.errs
}

// Filter applies a free-text query over the other participant's display
// name and returns the filtered view. An empty query restores the full
// list.
func (s *ChatListSynchronizer) Filter(query string) []ChatItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.query = query
	return filterChatItems(s.items, query)
}

// Items returns the current view under the active filter.
func (s *ChatListSynchronizer) Items() []ChatItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	return filterChatItems(s.items, s.query)
}

// Stop releases the subscription. Snapshots already in flight become
// no-ops; the check happens at callback entry, not preemptively.
func (s *ChatListSynchronizer) Stop() {
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
	logger.Debug("Chat list synchronizer stopped")
}

func (s *ChatListSynchronizer) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// buildChatItems joins a chat snapshot against the directory. All other
// participant ids across the snapshot are collected into ONE batched
// Resolve call; resolving per chat would fan out O(chats) lookups on every
// snapshot tick.
func buildChatItems(ctx context.Context, directory *ParticipantDirectory, userID string, chats []*entity.Chat) []ChatItem {
	otherIDs := make([]string, 0, len(chats))
	for _, chat := range chats {
		if id := chat.OtherParticipant(userID); id != "" {
			otherIDs = append(otherIDs, id)
		}
	}

	participants := directory.Resolve(ctx, otherIDs)

	items := make([]ChatItem, 0, len(chats))
	for _, chat := range chats {
		other := participants[chat.OtherParticipant(userID)]
		if other == nil {
			other = &entity.Participant{DisplayName: UnknownDisplayName}
		}
		items = append(items, ChatItem{Chat: chat, OtherParticipant: other})
	}
	return items
}

// sortChatItems orders by last activity, newest first; ties break by chat
// id ascending so the order is deterministic.
func sortChatItems(items []ChatItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Chat, items[j].Chat
		if !a.LastMessageAt.Equal(b.LastMessageAt) {
			return a.LastMessageAt.After(b.LastMessageAt)
		}
		return a.ID < b.ID
	})
}

func filterChatItems(items []ChatItem, query string) []ChatItem {
	return search.Filter(items, query, func(item ChatItem) string {
		return item.OtherParticipant.DisplayName
	})
}
