package postgres

import (
	"context"

	"github.com/lectura-ai/backend/internal/models"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// VectorHit is one nearest-neighbor match with its raw cosine
// distance. Score conversion is the retriever's concern.
type VectorHit struct {
	ChunkID            string
	ChunkIndex         int
	Text               string
	StartTime          float64
	EndTime            float64
	WordCount          int
	FormattedTimestamp string
	Distance           float64
}

type VectorRepository interface {
	// ReplaceForVideo rebuilds the video's vector collection in one
	// transaction, discarding any prior rows.
	ReplaceForVideo(ctx context.Context, videoID string, rows []models.ChunkEmbedding) error
	Search(ctx context.Context, videoID string, query pgvector.Vector, topK int) ([]VectorHit, error)
	DeleteByVideo(ctx context.Context, videoID string) error
}

type vectorRepo struct {
	db *gorm.DB
}

func NewVectorRepo(db *gorm.DB) VectorRepository {
	return &vectorRepo{db: db}
}

func (r *vectorRepo) ReplaceForVideo(ctx context.Context, videoID string, rows []models.ChunkEmbedding) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", videoID).Delete(&models.ChunkEmbedding{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 100).Error
	})
}

func (r *vectorRepo) Search(ctx context.Context, videoID string, query pgvector.Vector, topK int) ([]VectorHit, error) {
	if topK <= 0 {
		topK = 5
	}

	var hits []VectorHit
	err := r.db.WithContext(ctx).Raw(`
		SELECT chunk_id, chunk_index, text, start_time, end_time, word_count, formatted_timestamp,
		       embedding <=> ? AS distance
		FROM chunk_embeddings
		WHERE video_id = ?
		ORDER BY embedding <=> ?
		LIMIT ?`,
		query, videoID, query, topK,
	).Scan(&hits).Error
	return hits, err
}

func (r *vectorRepo) DeleteByVideo(ctx context.Context, videoID string) error {
	return r.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Delete(&models.ChunkEmbedding{}).Error
}
