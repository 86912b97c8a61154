package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatMessage struct {
	Role      string    `bson:"role" json:"role"` // "user" | "assistant"
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

type ChatSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4
	VideoID   string             `bson:"video_id" json:"video_id"`

	Messages []ChatMessage `bson:"messages" json:"messages"`

	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	LastActivity time.Time `bson:"last_activity" json:"last_activity"`
}

// RelevantChunk is a retrieval hit scored against the asked question.
type RelevantChunk struct {
	ChunkID            string  `json:"chunk_id"`
	Text               string  `json:"text"`
	StartTime          float64 `json:"start_time"`
	EndTime            float64 `json:"end_time"`
	RelevanceScore     float64 `json:"relevance_score"`
	FormattedTimestamp string  `json:"formatted_timestamp"`
}

// ChatAnswer is the composed response for one question about a video.
type ChatAnswer struct {
	Answer          string          `json:"answer"`
	RelevantChunks  []RelevantChunk `json:"relevant_chunks"`
	VideoID         string          `json:"video_id"`
	ConfidenceScore float64         `json:"confidence_score"`
	ProcessingTime  float64         `json:"processing_time"`
}
