package usecase

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"messageapp/internal/domain/entity"
	"messageapp/pkg/errors"
)

// waitFor drains ch until a value satisfies pred. Views are latest-wins,
// so intermediate snapshots may be skipped; tests assert on the settled
// view rather than on every tick.
func waitFor[T any](t *testing.T, ch <-chan T, pred func(T) bool) T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				t.Fatal("channel closed before expected update")
			}
			if pred(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for update")
		}
	}
}

func waitForClose[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for channel close")
		}
	}
}

// In-memory store fakes implementing the repository contracts, including
// full-replace snapshot delivery on every mutation.

type fakeUserRepo struct {
	mu         sync.Mutex
	users      map[string]*entity.User
	getCalls   int
	failGetFor map[string]error
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{
		users:      make(map[string]*entity.User),
		failGetFor: make(map[string]error),
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	if err, ok := r.failGetFor[id]; ok {
		return nil, err
	}
	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		copied := *u
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) getCallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getCalls
}

type chatSubscriber struct {
	userID    string
	snapshots chan []*entity.Chat
	errs      chan error
	closed    bool
}

type messageSubscriber struct {
	chatID    string
	snapshots chan []*entity.Message
	errs      chan error
	closed    bool
}

type fakeChatRepo struct {
	mu       sync.Mutex
	chats    map[string]*entity.Chat
	messages map[string][]*entity.Message

	chatSubs []*chatSubscriber
	msgSubs  []*messageSubscriber

	failUpdateLastMessage bool
	lastMessageUpdates    int
}

func newFakeChatRepo(chats ...*entity.Chat) *fakeChatRepo {
	r := &fakeChatRepo{
		chats:    make(map[string]*entity.Chat),
		messages: make(map[string][]*entity.Message),
	}
	for _, c := range chats {
		r.chats[c.ID] = c
	}
	return r
}

func (r *fakeChatRepo) Create(ctx context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	if chat.ID == "" {
		chat.ID = "chat-" + time.Now().Format("150405.000000000")
	}
	chat.CreatedAt = time.Now()
	// Store a copy so later mutations of the caller's struct cannot leak
	// into the "persisted" state.
	copied := *chat
	copied.Participants = append([]string{}, chat.Participants...)
	r.chats[chat.ID] = &copied
	subs := r.chatSnapshots()
	r.mu.Unlock()
	deliverChatSnapshots(subs)
	return nil
}

func (r *fakeChatRepo) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	copied := *chat
	return &copied, nil
}

func (r *fakeChatRepo) ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chatsForUser(userID), nil
}

func (r *fakeChatRepo) FindByParticipants(ctx context.Context, userID1, userID2 string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, chat := range r.chats {
		if len(chat.Participants) == 2 && chat.HasParticipant(userID1) && chat.HasParticipant(userID2) {
			copied := *chat
			return &copied, nil
		}
	}
	return nil, errors.NotFound("Chat", nil)
}

func (r *fakeChatRepo) UpdateLastMessage(ctx context.Context, chatID, lastMessage string, at time.Time) error {
	r.mu.Lock()
	if r.failUpdateLastMessage {
		r.mu.Unlock()
		return errors.StoreError("Failed to update chat last message", nil)
	}
	chat, ok := r.chats[chatID]
	if !ok {
		r.mu.Unlock()
		return errors.NotFound("Chat", nil)
	}
	chat.LastMessage = lastMessage
	chat.LastMessageAt = at
	r.lastMessageUpdates++
	subs := r.chatSnapshots()
	r.mu.Unlock()
	deliverChatSnapshots(subs)
	return nil
}

func (r *fakeChatRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	if message.ID == "" {
		message.ID = "msg-" + time.Now().Format("150405.000000000")
	}
	copied := *message
	r.messages[message.ChatID] = append(r.messages[message.ChatID], &copied)
	subs := r.messageSnapshots(message.ChatID)
	r.mu.Unlock()
	deliverMessageSnapshots(subs)
	return nil
}

func (r *fakeChatRepo) GetMessageByID(ctx context.Context, chatID, messageID string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages[chatID] {
		if m.ID == messageID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, errors.NotFound("Message", nil)
}

func (r *fakeChatRepo) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	r.mu.Lock()
	kept := r.messages[chatID][:0]
	for _, m := range r.messages[chatID] {
		if m.ID != messageID {
			kept = append(kept, m)
		}
	}
	r.messages[chatID] = kept
	subs := r.messageSnapshots(chatID)
	r.mu.Unlock()
	deliverMessageSnapshots(subs)
	return nil
}

func (r *fakeChatRepo) ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orderedMessages(chatID), nil
}

func (r *fakeChatRepo) SubscribeByUserID(ctx context.Context, userID string) (<-chan []*entity.Chat, <-chan error) {
	sub := &chatSubscriber{
		userID:    userID,
		snapshots: make(chan []*entity.Chat, 16),
		errs:      make(chan error, 1),
	}

	r.mu.Lock()
	r.chatSubs = append(r.chatSubs, sub)
	sub.snapshots <- r.chatsForUser(userID)
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		if !sub.closed {
			sub.closed = true
			close(sub.snapshots)
			close(sub.errs)
		}
		r.mu.Unlock()
	}()

	return sub.snapshots, sub.errs
}

func (r *fakeChatRepo) SubscribeMessages(ctx context.Context, chatID string) (<-chan []*entity.Message, <-chan error) {
	sub := &messageSubscriber{
		chatID:    chatID,
		snapshots: make(chan []*entity.Message, 16),
		errs:      make(chan error, 1),
	}

	r.mu.Lock()
	r.msgSubs = append(r.msgSubs, sub)
	sub.snapshots <- r.orderedMessages(chatID)
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		if !sub.closed {
			sub.closed = true
			close(sub.snapshots)
			close(sub.errs)
		}
		r.mu.Unlock()
	}()

	return sub.snapshots, sub.errs
}

// failSubscriptions delivers a terminal error to every open chat
// subscriber, mirroring a persistent store failure.
func (r *fakeChatRepo) failSubscriptions(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.chatSubs {
		if sub.closed {
			continue
		}
		sub.closed = true
		sub.errs <- err
		close(sub.errs)
		close(sub.snapshots)
	}
}

func (r *fakeChatRepo) chatsForUser(userID string) []*entity.Chat {
	var chats []*entity.Chat
	for _, chat := range r.chats {
		if chat.HasParticipant(userID) {
			copied := *chat
			chats = append(chats, &copied)
		}
	}
	return chats
}

func (r *fakeChatRepo) orderedMessages(chatID string) []*entity.Message {
	messages := make([]*entity.Message, 0, len(r.messages[chatID]))
	for _, m := range r.messages[chatID] {
		copied := *m
		messages = append(messages, &copied)
	}
	sort.SliceStable(messages, func(i, j int) bool {
		if !messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].CreatedAt.Before(messages[j].CreatedAt)
		}
		return messages[i].ID < messages[j].ID
	})
	return messages
}

type chatDelivery struct {
	sub      *chatSubscriber
	snapshot []*entity.Chat
}

func (r *fakeChatRepo) chatSnapshots() []chatDelivery {
	var out []chatDelivery
	for _, sub := range r.chatSubs {
		if sub.closed {
			continue
		}
		out = append(out, chatDelivery{sub: sub, snapshot: r.chatsForUser(sub.userID)})
	}
	return out
}

func deliverChatSnapshots(deliveries []chatDelivery) {
	for _, d := range deliveries {
		d.sub.snapshots <- d.snapshot
	}
}

type messageDelivery struct {
	sub      *messageSubscriber
	snapshot []*entity.Message
}

func (r *fakeChatRepo) messageSnapshots(chatID string) []messageDelivery {
	var out []messageDelivery
	for _, sub := range r.msgSubs {
		if sub.closed || sub.chatID != chatID {
			continue
		}
		out = append(out, messageDelivery{sub: sub, snapshot: r.orderedMessages(chatID)})
	}
	return out
}

func deliverMessageSnapshots(deliveries []messageDelivery) {
	for _, d := range deliveries {
		d.sub.snapshots <- d.snapshot
	}
}

type postSubscriber struct {
	snapshots chan []*entity.Post
	errs      chan error
	closed    bool
}

type commentSubscriber struct {
	postID    string
	snapshots chan []*entity.Comment
	errs      chan error
	closed    bool
}

type fakePostRepo struct {
	mu       sync.Mutex
	posts    map[string]*entity.Post
	comments map[string][]*entity.Comment

	postSubs    []*postSubscriber
	commentSubs []*commentSubscriber
}

func newFakePostRepo(posts ...*entity.Post) *fakePostRepo {
	r := &fakePostRepo{
		posts:    make(map[string]*entity.Post),
		comments: make(map[string][]*entity.Comment),
	}
	for _, p := range posts {
		r.posts[p.ID] = p
	}
	return r
}

func (r *fakePostRepo) Create(ctx context.Context, post *entity.Post) error {
	r.mu.Lock()
	if post.ID == "" {
		post.ID = "post-" + time.Now().Format("150405.000000000")
	}
	post.CreatedAt = time.Now()
	copied := *post
	copied.LikedBy = append([]string{}, post.LikedBy...)
	r.posts[post.ID] = &copied
	subs := r.postSnapshots()
	r.mu.Unlock()
	deliverPostSnapshots(subs)
	return nil
}

func (r *fakePostRepo) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, errors.NotFound("Post", nil)
	}
	copied := *post
	copied.LikedBy = append([]string{}, post.LikedBy...)
	return &copied, nil
}

func (r *fakePostRepo) List(ctx context.Context) ([]*entity.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orderedPosts(), nil
}

func (r *fakePostRepo) ListComments(ctx context.Context, postID string) ([]*entity.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orderedComments(postID), nil
}

func (r *fakePostRepo) UpdateLikes(ctx context.Context, postID string, likedBy []string) error {
	r.mu.Lock()
	post, ok := r.posts[postID]
	if !ok {
		r.mu.Unlock()
		return errors.NotFound("Post", nil)
	}
	post.LikedBy = append([]string{}, likedBy...)
	subs := r.postSnapshots()
	r.mu.Unlock()
	deliverPostSnapshots(subs)
	return nil
}

func (r *fakePostRepo) Subscribe(ctx context.Context) (<-chan []*entity.Post, <-chan error) {
	sub := &postSubscriber{
		snapshots: make(chan []*entity.Post, 16),
		errs:      make(chan error, 1),
	}

	r.mu.Lock()
	r.postSubs = append(r.postSubs, sub)
	sub.snapshots <- r.orderedPosts()
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		if !sub.closed {
			sub.closed = true
			close(sub.snapshots)
			close(sub.errs)
		}
		r.mu.Unlock()
	}()

	return sub.snapshots, sub.errs
}

func (r *fakePostRepo) CreateComment(ctx context.Context, comment *entity.Comment) error {
	r.mu.Lock()
	if comment.ID == "" {
		comment.ID = "comment-" + time.Now().Format("150405.000000000")
	}
	copied := *comment
	r.comments[comment.PostID] = append(r.comments[comment.PostID], &copied)
	subs := r.commentSnapshots(comment.PostID)
	r.mu.Unlock()
	deliverCommentSnapshots(subs)
	return nil
}

func (r *fakePostRepo) GetCommentByID(ctx context.Context, postID, commentID string) (*entity.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.comments[postID] {
		if c.ID == commentID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, errors.NotFound("Comment", nil)
}

func (r *fakePostRepo) DeleteComment(ctx context.Context, postID, commentID string) error {
	r.mu.Lock()
	kept := r.comments[postID][:0]
	for _, c := range r.comments[postID] {
		if c.ID != commentID {
			kept = append(kept, c)
		}
	}
	r.comments[postID] = kept
	subs := r.commentSnapshots(postID)
	r.mu.Unlock()
	deliverCommentSnapshots(subs)
	return nil
}

func (r *fakePostRepo) SubscribeComments(ctx context.Context, postID string) (<-chan []*entity.Comment, <-chan error) {
	sub := &commentSubscriber{
		postID:    postID,
		snapshots: make(chan []*entity.Comment, 16),
		errs:      make(chan error, 1),
	}

	r.mu.Lock()
	r.commentSubs = append(r.commentSubs, sub)
	sub.snapshots <- r.orderedComments(postID)
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		if !sub.closed {
			sub.closed = true
			close(sub.snapshots)
			close(sub.errs)
		}
		r.mu.Unlock()
	}()

	return sub.snapshots, sub.errs
}

func (r *fakePostRepo) orderedPosts() []*entity.Post {
	posts := make([]*entity.Post, 0, len(r.posts))
	for _, p := range r.posts {
		copied := *p
		copied.LikedBy = append([]string{}, p.LikedBy...)
		posts = append(posts, &copied)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID < posts[j].ID
	})
	return posts
}

func (r *fakePostRepo) orderedComments(postID string) []*entity.Comment {
	comments := make([]*entity.Comment, 0, len(r.comments[postID]))
	for _, c := range r.comments[postID] {
		copied := *c
		comments = append(comments, &copied)
	}
	sort.SliceStable(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		}
		return comments[i].ID < comments[j].ID
	})
	return comments
}

type postDelivery struct {
	sub      *postSubscriber
	snapshot []*entity.Post
}

func (r *fakePostRepo) postSnapshots() []postDelivery {
	var out []postDelivery
	for _, sub := range r.postSubs {
		if sub.closed {
			continue
		}
		out = append(out, postDelivery{sub: sub, snapshot: r.orderedPosts()})
	}
	return out
}

func deliverPostSnapshots(deliveries []postDelivery) {
	for _, d := range deliveries {
		d.sub.snapshots <- d.snapshot
	}
}

type commentDelivery struct {
	sub      *commentSubscriber
	snapshot []*entity.Comment
}

func (r *fakePostRepo) commentSnapshots(postID string) []commentDelivery {
	var out []commentDelivery
	for _, sub := range r.commentSubs {
		if sub.closed || sub.postID != postID {
			continue
		}
		out = append(out, commentDelivery{sub: sub, snapshot: r.orderedComments(postID)})
	}
	return out
}

func deliverCommentSnapshots(deliveries []commentDelivery) {
	for _, d := range deliveries {
		d.sub.snapshots <- d.snapshot
	}
}
