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

// FeedAggregator maintains the global post feed (newest first) and manages
// per-post like toggling and comment sub-streams.
type FeedAggregator struct {
	postRepo  repository.PostRepository
	directory *ParticipantDirectory

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc

	updates chan []*entity.Post
	errs    chan error
}

func NewFeedAggregator(postRepo repository.PostRepository, directory *ParticipantDirectory) *FeedAggregator {
	return &FeedAggregator{
		postRepo:  postRepo,
		directory: directory,
		updates:   make(chan []*entity.Post, 1),
		errs:      make(chan error, 1),
	}
}

// Start opens the live subscription over all posts, ordered by creation
// time descending, full-replace per snapshot.
func (f *FeedAggregator) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.started {
		return errors.InvalidInput("Aggregator already started", nil)
	}
	f.started = true

	ctx, f.cancel = context.WithCancel(ctx)
	snapshots, errs := f.postRepo.Subscribe(ctx)

	go f.run(ctx, snapshots, errs)
	return nil
}

func (f *FeedAggregator) run(ctx context.Context, snapshots <-chan []*entity.Post, errs <-chan error) {
	defer close(f.updates)
	defer close(f.errs)

	for {
		select {
		case posts, ok := <-snapshots:
			if !ok {
				return
			}
			if f.isStopped() {
				return
			}
			f.emit(posts)

		case err, ok := <-errs:
			if ok && err != nil && !f.isStopped() {
				f.errs <- err
			}
			return

		case <-ctx.Done():
			return
		}
	}
}

func (f *FeedAggregator) emit(posts []*entity.Post) {
	for {
		select {
		case f.updates <- posts:
			return
		default:
			select {
			case <-f.updates:
			default:
			}
		}
	}
}

func (f *FeedAggregator) Updates() <-chan []*entity.Post {
	return f.updates
}

func (f *FeedAggregator) Errors() <-chan error {
	return f.errs
}

// Stop releases the subscription; in-flight snapshots become no-ops.
func (f *FeedAggregator) Stop() {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return
	}
	f.stopped = true
	cancel := f.cancel
	f.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (f *FeedAggregator) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

// ListPosts reads the feed once, newest first.
func (f *FeedAggregator) ListPosts(ctx context.Context) ([]*entity.Post, error) {
	return f.postRepo.List(ctx)
}

// ListComments reads one post's comments once, ascending.
func (f *FeedAggregator) ListComments(ctx context.Context, postID string) ([]*entity.Comment, error) {
	if _, err := f.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return f.postRepo.ListComments(ctx, postID)
}

// CreatePost publishes a post with the author's profile denormalized into
// it. The image must already be uploaded; imageURL points at the result.
func (f *FeedAggregator) CreatePost(ctx context.Context, authorID, caption, imageURL string) (*entity.Post, error) {
	if authorID == "" {
		return nil, errors.InvalidInput("Author id is required", nil)
	}
	if strings.TrimSpace(caption) == "" {
		return nil, errors.InvalidInput("Caption cannot be empty", nil)
	}
	if imageURL == "" {
		return nil, errors.InvalidInput("Image URL is required", nil)
	}

	author := f.directory.Resolve(ctx, []string{authorID})[authorID]

	post := &entity.Post{
		AuthorID:        authorID,
		AuthorName:      author.DisplayName,
		AuthorAvatarURL: author.AvatarURL,
		ImageURL:        imageURL,
		Caption:         caption,
		LikedBy:         []string{},
	}

	if err := f.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// ToggleLike adds userID to the post's like set if absent, removes it if
// present, and returns the post with the updated set. This is a
// read-modify-write without an atomic set primitive from the store:
// concurrent toggles by different users race and the later write wins,
// which can drop the earlier toggle under a like storm.
func (f *FeedAggregator) ToggleLike(ctx context.Context, postID, userID string) (*entity.Post, error) {
	post, err := f.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	var updated []string
	if post.LikedByUser(userID) {
		updated = make([]string, 0, len(post.LikedBy)-1)
		for _, id := range post.LikedBy {
			if id != userID {
				updated = append(updated, id)
			}
		}
	} else {
		updated = append(append([]string{}, post.LikedBy...), userID)
	}

	if err := f.postRepo.UpdateLikes(ctx, postID, updated); err != nil {
		logger.Error("ToggleLike: failed to update likes for post %s: %v", postID, err)
		return nil, err
	}

	post.LikedBy = updated
	return post, nil
}

// SubmitComment appends a comment to a post with the author's profile
// denormalized into it.
func (f *FeedAggregator) SubmitComment(ctx context.Context, postID, authorID, text string) (*entity.Comment, error) {
	if authorID == "" {
		return nil, errors.InvalidInput("Author id is required", nil)
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.InvalidInput("Comment text cannot be empty", nil)
	}

	if _, err := f.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	author := f.directory.Resolve(ctx, []string{authorID})[authorID]

	comment := &entity.Comment{
		PostID:          postID,
		AuthorID:        authorID,
		AuthorName:      author.DisplayName,
		AuthorAvatarURL: author.AvatarURL,
		Text:            text,
		CreatedAt:       time.Now(),
	}

	if err := f.postRepo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

// DeleteComment removes a comment. Only its author may delete it.
func (f *FeedAggregator) DeleteComment(ctx context.Context, postID, userID, commentID string) error {
	comment, err := f.postRepo.GetCommentByID(ctx, postID, commentID)
	if err != nil {
		return err
	}

	if comment.AuthorID != userID {
		return errors.Forbidden("Only the author can delete a comment", nil)
	}

	return f.postRepo.DeleteComment(ctx, postID, commentID)
}

// Comments opens the comment sub-stream of one post. It mirrors the thread
// contract: ascending order, append-only, full-replace snapshots.
func (f *FeedAggregator) Comments(ctx context.Context, postID string) *CommentStream {
	ctx, cancel := context.WithCancel(ctx)
	snapshots, errs := f.postRepo.SubscribeComments(ctx, postID)

	stream := &CommentStream{
		postID:  postID,
		cancel:  cancel,
		updates: make(chan []*entity.Comment, 1),
		errs:    make(chan error, 1),
	}

	go stream.run(ctx, snapshots, errs)
	return stream
}

// CommentStream is the live comment view of one post.
type CommentStream struct {
	postID string

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc

	updates chan []*entity.Comment
	errs    chan error
}

func (c *CommentStream) run(ctx context.Context, snapshots <-chan []*entity.Comment, errs <-chan error) {
	defer close(c.updates)
	defer close(c.errs)

	for {
		select {
		case comments, ok := <-snapshots:
			if !ok {
				return
			}
			if c.isStopped() {
				return
			}
			c.emit(comments)

		case err, ok := <-errs:
			if ok && err != nil && !c.isStopped() {
				c.errs <- err
			}
			return

		case <-ctx.Done():
			return
		}
	}
}

func (c *CommentStream) emit(comments []*entity.Comment) {
	for {
		select {
		case c.updates <- comments:
			return
		default:
			select {
			case <-c.updates:
			default:
			}
		}
	}
}

func (c *CommentStream) Updates() <-chan []*entity.Comment {
	return c.updates
}

func (c *CommentStream) Errors() <-chan error {
	return c.errs
}

func (c *CommentStream) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.mu.Unlock()

	c.cancel()
}

func (c *CommentStream) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}
