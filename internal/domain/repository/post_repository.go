package repository

import (
	"context"

	"messageapp/internal/domain/entity"
)

// PostRepository persists feed posts and their comment subcollection.
// Subscribe methods follow the same full-replace snapshot contract as
// ChatRepository.
type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	GetByID(ctx context.Context, id string) (*entity.Post, error)

	// List reads all posts once, ordered by timestamp descending.
	List(ctx context.Context) ([]*entity.Post, error)

	// UpdateLikes replaces the post's like set. This is the write half of a
	// read-modify-write; concurrent togglers race and the later write wins.
	// Closing that race needs an atomic set add/remove primitive from the
	// store, which this interface does not assume.
	UpdateLikes(ctx context.Context, postID string, likedBy []string) error

	// Subscribe watches all posts ordered by timestamp descending.
	Subscribe(ctx context.Context) (<-chan []*entity.Post, <-chan error)

	// ListComments reads one post's comments once, ordered by timestamp
	// ascending.
	ListComments(ctx context.Context, postID string) ([]*entity.Comment, error)

	CreateComment(ctx context.Context, comment *entity.Comment) error
	GetCommentByID(ctx context.Context, postID, commentID string) (*entity.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID string) error

	// SubscribeComments watches one post's comments ordered by timestamp
	// ascending.
	SubscribeComments(ctx context.Context, postID string) (<-chan []*entity.Comment, <-chan error)
}
