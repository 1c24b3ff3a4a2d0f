// Package mongo implements domain.ChatRepository on MongoDB
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/fai-advisor/internal/config"
	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChatRepository stores one document per chat record
type ChatRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect opens the client, verifies it and ensures the owner index exists
func Connect(ctx context.Context, cfg config.MongoConfig) (*ChatRepository, error) {
	clientOpts := options.Client().ApplyURI(cfg.URI).SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &ChatRepository{client: client, coll: coll}, nil
}

// Close disconnects the client
func (r *ChatRepository) Close() error {
	return r.client.Disconnect(context.Background())
}

// Ping verifies connectivity
func (r *ChatRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *ChatRepository) Create(ctx context.Context, ownerID, title string, messages []domain.Message) (*domain.ChatSession, error) {
	if messages == nil {
		messages = []domain.Message{}
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	chat := &domain.ChatSession{
		ID:        uuid.NewString(),
		Title:     title,
		Messages:  domain.CloneMessages(messages),
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.coll.InsertOne(ctx, chat); err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return chat, nil
}

func (r *ChatRepository) List(ctx context.Context, ownerID string) ([]domain.ChatSession, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.coll.Find(ctx, bson.M{"user_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer cursor.Close(ctx)

	chats := []domain.ChatSession{}
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, fmt.Errorf("failed to decode chats: %w", err)
	}
	return chats, nil
}

func (r *ChatRepository) Rename(ctx context.Context, ownerID, id, title string) error {
	return r.set(ctx, ownerID, id, bson.M{"title": title})
}

func (r *ChatRepository) ReplaceMessages(ctx context.Context, ownerID, id string, messages []domain.Message) error {
	if messages == nil {
		messages = []domain.Message{}
	}
	return r.set(ctx, ownerID, id, bson.M{"messages": messages})
}

func (r *ChatRepository) set(ctx context.Context, ownerID, id string, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, "user_id": ownerID}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update chat: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a chat. Deleting a missing chat is not an error.
func (r *ChatRepository) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "user_id": ownerID}); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	return nil
}
