package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"messageapp/internal/domain/entity"
	"messageapp/internal/domain/repository"
	"messageapp/pkg/errors"
	"messageapp/pkg/logger"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}
	chat.CreatedAt = time.Now()

	_, err := r.client.Collection("chats").Doc(chat.ID).Set(ctx, chat)
	if err != nil {
		return errors.StoreError("Failed to create chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.client.Collection("chats").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", err)
		}
		return nil, errors.StoreError("Failed to get chat", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.StoreError("Failed to parse chat data", err)
	}
	chat.ID = doc.Ref.ID

	return &chat, nil
}

func (r *firestoreChatRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error) {
	query := r.client.Collection("chats").Where("participants", "array-contains", userID)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching chats for user %s: %v", userID, err)
		return nil, errors.StoreError("Failed to fetch chats", err)
	}

	return decodeChats(docs), nil
}

func (r *firestoreChatRepository) FindByParticipants(ctx context.Context, userID1, userID2 string) (*entity.Chat, error) {
	query := r.client.Collection("chats").Where("participants", "array-contains", userID1)

	iter := query.Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.StoreError("Failed to query chats by participants", err)
		}

		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			continue
		}
		chat.ID = doc.Ref.ID

		if len(chat.Participants) == 2 && chat.HasParticipant(userID2) {
			return &chat, nil
		}
	}

	return nil, errors.NotFound("Chat", nil)
}

func (r *firestoreChatRepository) UpdateLastMessage(ctx context.Context, chatID, lastMessage string, at time.Time) error {
	_, err := r.client.Collection("chats").Doc(chatID).Update(ctx, []firestore.Update{
		{Path: "lastMessage", Value: lastMessage},
		{Path: "lastMessageTimestamp", Value: at},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Chat", err)
		}
		return errors.StoreError("Failed to update chat last message", err)
	}

	return nil
}

func (r *firestoreChatRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	_, err := r.client.Collection("chats").Doc(message.ChatID).Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.StoreError("Failed to create message", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetMessageByID(ctx context.Context, chatID, messageID string) (*entity.Message, error) {
	doc, err := r.client.Collection("chats").Doc(chatID).Collection("messages").Doc(messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.StoreError("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.StoreError("Failed to parse message data", err)
	}
	message.ID = doc.Ref.ID

	return &message, nil
}

func (r *firestoreChatRepository) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	_, err := r.client.Collection("chats").Doc(chatID).Collection("messages").Doc(messageID).Delete(ctx)
	if err != nil {
		return errors.StoreError("Failed to delete message", err)
	}

	return nil
}

func (r *firestoreChatRepository) ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error) {
	query := r.client.Collection("chats").Doc(chatID).Collection("messages").OrderBy("timestamp", firestore.Asc)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching messages for chat %s: %v", chatID, err)
		return nil, errors.StoreError("Failed to fetch messages", err)
	}

	return decodeMessages(chatID, docs), nil
}

func (r *firestoreChatRepository) SubscribeByUserID(ctx context.Context, userID string) (<-chan []*entity.Chat, <-chan error) {
	snapshots := make(chan []*entity.Chat)
	errs := make(chan error, 1)

	query := r.client.Collection("chats").Where("participants", "array-contains", userID)

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
				logger.Error("Chat subscription for user %s failed: %v", userID, err)
				errs <- errors.StoreError("Chat subscription failed", err)
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				errs <- errors.StoreError("Failed to read chat snapshot", err)
				return
			}

			select {
			case snapshots <- decodeChats(docs):
			case <-ctx.Done():
				return
			}
		}
	}()

	return snapshots, errs
}

func (r *firestoreChatRepository) SubscribeMessages(ctx context.Context, chatID string) (<-chan []*entity.Message, <-chan error) {
	snapshots := make(chan []*entity.Message)
	errs := make(chan error, 1)

	query := r.client.Collection("chats").Doc(chatID).Collection("messages").OrderBy("timestamp", firestore.Asc)

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
				logger.Error("Message subscription for chat %s failed: %v", chatID, err)
				errs <- errors.StoreError("Message subscription failed", err)
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				errs <- errors.StoreError("Failed to read message snapshot", err)
				return
			}

			select {
			case snapshots <- decodeMessages(chatID, docs):
			case <-ctx.Done():
				return
			}
		}
	}()

	return snapshots, errs
}

func decodeMessages(chatID string, docs []*firestore.DocumentSnapshot) []*entity.Message {
	var messages []*entity.Message
	for _, doc := range docs {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Warn("Skipping malformed message %s in chat %s: %v", doc.Ref.ID, chatID, err)
			continue
		}
		message.ID = doc.Ref.ID
		messages = append(messages, &message)
	}
	return messages
}

func decodeChats(docs []*firestore.DocumentSnapshot) []*entity.Chat {
	var chats []*entity.Chat
	for _, doc := range docs {
		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			logger.Warn("Skipping malformed chat %s: %v", doc.Ref.ID, err)
			continue
		}
		chat.ID = doc.Ref.ID
		chats = append(chats, &chat)
	}
	return chats
}
