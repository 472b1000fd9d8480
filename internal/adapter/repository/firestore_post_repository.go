package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"messageapp/internal/domain/entity"
	"messageapp/internal/domain/repository"
	"messageapp/pkg/errors"
	"messageapp/pkg/logger"
)

type firestorePostRepository struct {
	client *firestore.Client
}

func NewFirestorePostRepository(client *firestore.Client) repository.PostRepository {
	return &firestorePostRepository{
		client: client,
	}
}

func (r *firestorePostRepository) Create(ctx context.Context, post *entity.Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if post.LikedBy == nil {
		post.LikedBy = []string{}
	}
	post.CreatedAt = time.Now()

	_, err := r.client.Collection("posts").Doc(post.ID).Set(ctx, post)
	if err != nil {
		return errors.StoreError("Failed to create post", err)
	}

	return nil
}

func (r *firestorePostRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	doc, err := r.client.Collection("posts").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Post", err)
		}
		return nil, errors.StoreError("Failed to get post", err)
	}

	var post entity.Post
	if err := doc.DataTo(&post); err != nil {
		return nil, errors.StoreError("Failed to parse post data", err)
	}
	post.ID = doc.Ref.ID

	return &post, nil
}

func (r *firestorePostRepository) List(ctx context.Context) ([]*entity.Post, error) {
	query := r.client.Collection("posts").OrderBy("timestamp", firestore.Desc)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching posts: %v", err)
		return nil, errors.StoreError("Failed to fetch posts", err)
	}

	return decodePosts(docs), nil
}

func (r *firestorePostRepository) UpdateLikes(ctx context.Context, postID string, likedBy []string) error {
	if likedBy == nil {
		likedBy = []string{}
	}

	_, err := r.client.Collection("posts").Doc(postID).Update(ctx, []firestore.Update{
		{Path: "likes", Value: likedBy},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Post", err)
		}
		return errors.StoreError("Failed to update post likes", err)
	}

	return nil
}

func (r *firestorePostRepository) Subscribe(ctx context.Context) (<-chan []*entity.Post, <-chan error) {
	snapshots := make(chan []*entity.Post)
	errs := make(chan error, 1)

	query := r.client.Collection("posts").OrderBy("timestamp", firestore.Desc)

	go func() {
		defer close(snapshots)
		defer close(errs)

		iter := query.Snapshots(ctx)
		defer iter.Stop()

		for {
			snap, err := iter.Next()
			if err != nil {
				if status.Code(err) == codes.Canceled {
					return
				}
				logger.Error("Post subscription failed: %v", err)
				errs <- errors.StoreError("Post subscription failed", err)
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				errs <- errors.StoreError("Failed to read post snapshot", err)
				return
			}

			select {
			case snapshots <- decodePosts(docs):
			case <-ctx.Done():
				return
			}
		}
	}()

	return snapshots, errs
}

func (r *firestorePostRepository) ListComments(ctx context.Context, postID string) ([]*entity.Comment, error) {
	query := r.client.Collection("posts").Doc(postID).Collection("comments").OrderBy("timestamp", firestore.Asc)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching comments for post %s: %v", postID, err)
		return nil, errors.StoreError("Failed to fetch comments", err)
	}

	return decodeComments(postID, docs), nil
}

func (r *firestorePostRepository) CreateComment(ctx context.Context, comment *entity.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}

	_, err := r.client.Collection("posts").Doc(comment.PostID).Collection("comments").Doc(comment.ID).Set(ctx, comment)
	if err != nil {
		return errors.StoreError("Failed to create comment", err)
	}

	return nil
}

func (r *firestorePostRepository) GetCommentByID(ctx context.Context, postID, commentID string) (*entity.Comment, error) {
	doc, err := r.client.Collection("posts").Doc(postID).Collection("comments").Doc(commentID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Comment", err)
		}
		return nil, errors.StoreError("Failed to get comment", err)
	}

	var comment entity.Comment
	if err := doc.DataTo(&comment); err != nil {
		return nil, errors.StoreError("Failed to parse comment data", err)
	}
	comment.ID = doc.Ref.ID
	comment.PostID = postID

	return &comment, nil
}

func (r *firestorePostRepository) DeleteComment(ctx context.Context, postID, commentID string) error {
	_, err := r.client.Collection("posts").Doc(postID).Collection("comments").Doc(commentID).Delete(ctx)
	if err != nil {
		return errors.StoreError("Failed to delete comment", err)
	}

	return nil
}

func (r *firestorePostRepository) SubscribeComments(ctx context.Context, postID string) (<-chan []*entity.Comment, <-chan error) {
	snapshots := make(chan []*entity.Comment)
	errs := make(chan error, 1)

	query := r.client.Collection("posts").Doc(postID).Collection("comments").OrderBy("timestamp", firestore.Asc)

	go func() {
		defer close(snapshots)
		defer close(errs)

		iter := query.Snapshots(ctx)
		defer iter.Stop()

		for {
			snap, err := iter.Next()
			if err != nil {
				if status.Code(err) == codes.Canceled {
					return
				}
				logger.Error("Comment subscription for post %s failed: %v", postID, err)
				errs <- errors.StoreError("Comment subscription failed", err)
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				errs <- errors.StoreError("Failed to read comment snapshot", err)
				return
			}

			select {
			case snapshots <- decodeComments(postID, docs):
			case <-ctx.Done():
				return
			}
		}
	}()

	return snapshots, errs
}

func decodePosts(docs []*firestore.DocumentSnapshot) []*entity.Post {
	var posts []*entity.Post
	for _, doc := range docs {
		var post entity.Post
		if err := doc.DataTo(&post); err != nil {
			logger.Warn("Skipping malformed post %s: %v", doc.Ref.ID, err)
			continue
		}
		post.ID = doc.Ref.ID
		posts = append(posts, &post)
	}
	return posts
}

func decodeComments(postID string, docs []*firestore.DocumentSnapshot) []*entity.Comment {
	var comments []*entity.Comment
	for _, doc := range docs {
		var comment entity.Comment
		if err := doc.DataTo(&comment); err != nil {
			logger.Warn("Skipping malformed comment %s on post %s: %v", doc.Ref.ID, postID, err)
			continue
		}
		comment.ID = doc.Ref.ID
		comment.PostID = postID
		comments = append(comments, &comment)
	}
	return comments
}
