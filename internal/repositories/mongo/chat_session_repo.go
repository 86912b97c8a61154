package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/lectura-ai/backend/internal/models"
	"github.com/lectura-ai/backend/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ChatSessionRepository interface {
	Create(ctx context.Context, s *models.ChatSession) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.ChatSession, error)
	AppendMessages(ctx context.Context, sessionID string, msgs ...models.ChatMessage) error
	History(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error)
	DeleteByVideo(ctx context.Context, videoID string) error
}

type chatSessionRepo struct {
	col *mongo.Collection
}

func NewChatSessionRepo(db *mongo.Database) ChatSessionRepository {
	return &chatSessionRepo{col: db.Collection("chat_sessions")}
}

func (r *chatSessionRepo) Create(ctx context.Context, s *models.ChatSession) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.LastActivity.IsZero() {
		s.LastActivity = now
	}
	if s.Messages == nil {
		s.Messages = []models.ChatMessage{}
	}
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *chatSessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	var s models.ChatSession
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func (r *chatSessionRepo) AppendMessages(ctx context.Context, sessionID string, msgs ...models.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{
			"$push": bson.M{"messages": bson.M{"$each": msgs}},
			"$set":  bson.M{"last_activity": time.Now().UTC()},
		},
	)
	return err
}

func (r *chatSessionRepo) History(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	var s models.ChatSession
	opts := options.FindOne().SetProjection(bson.M{"messages": bson.M{"$slice": -limit}})
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}, opts).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return s.Messages, err
}

func (r *chatSessionRepo) DeleteByVideo(ctx context.Context, videoID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"video_id": videoID})
	return err
}
