package models

import "github.com/pgvector/pgvector-go"

type TranscriptChunk struct {
	ID         string  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	VideoID    string  `gorm:"column:video_id;type:uuid;index" json:"video_id"`
	Text       string  `gorm:"column:text;type:text" json:"text"`
	StartTime  float64 `gorm:"column:start_time;type:double precision" json:"start_time"`
	EndTime    float64 `gorm:"column:end_time;type:double precision" json:"end_time"`
	ChunkIndex int     `gorm:"column:chunk_index;type:integer" json:"chunk_index"`
	WordCount  int     `gorm:"column:word_count;type:integer" json:"word_count"`
}

func (TranscriptChunk) TableName() string { return "transcript_chunks" }

// ChunkEmbedding is one row of a video's vector collection. Chunk
// metadata is denormalized onto the row so retrieval never joins back
// to transcript_chunks.
type ChunkEmbedding struct {
	ID                 string          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	VideoID            string          `gorm:"column:video_id;type:uuid;index" json:"video_id"`
	ChunkID            string          `gorm:"column:chunk_id;type:uuid" json:"chunk_id"`
	ChunkIndex         int             `gorm:"column:chunk_index;type:integer" json:"chunk_index"`
	Text               string          `gorm:"column:text;type:text" json:"text"`
	Embedding          pgvector.Vector `gorm:"column:embedding;type:vector(768)" json:"embedding"`
	StartTime          float64         `gorm:"column:start_time;type:double precision" json:"start_time"`
	EndTime            float64         `gorm:"column:end_time;type:double precision" json:"end_time"`
	WordCount          int             `gorm:"column:word_count;type:integer" json:"word_count"`
	FormattedTimestamp string          `gorm:"column:formatted_timestamp;type:text" json:"formatted_timestamp"`
}

func (ChunkEmbedding) TableName() string { return "chunk_embeddings" }
