package postgres

import (
	"context"

	"github.com/lectura-ai/backend/internal/models"
	"gorm.io/gorm"
)

type ChunkRepository interface {
	// ReplaceForVideo swaps the video's chunk set in one transaction so
	// readers never observe a partial rebuild.
	ReplaceForVideo(ctx context.Context, videoID string, chunks []models.TranscriptChunk) error
	ListByVideo(ctx context.Context, videoID string) ([]models.TranscriptChunk, error)
	CountByVideo(ctx context.Context, videoID string) (int64, error)
	DeleteByVideo(ctx context.Context, videoID string) error
}

type chunkRepo struct {
	db *gorm.DB
}

func NewChunkRepo(db *gorm.DB) ChunkRepository {
	return &chunkRepo{db: db}
}

func (r *chunkRepo) ReplaceForVideo(ctx context.Context, videoID string, chunks []models.TranscriptChunk) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", videoID).Delete(&models.TranscriptChunk{}).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		return tx.CreateInBatches(chunks, 100).Error
	})
}

func (r *chunkRepo) ListByVideo(ctx context.Context, videoID string) ([]models.TranscriptChunk, error) {
	var rows []models.TranscriptChunk
	err := r.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("chunk_index ASC").
		Find(&rows).Error
	return rows, err
}

func (r *chunkRepo) CountByVideo(ctx context.Context, videoID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.TranscriptChunk{}).
		Where("video_id = ?", videoID).
		Count(&n).Error
	return n, err
}

func (r *chunkRepo) DeleteByVideo(ctx context.Context, videoID string) error {
	return r.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Delete(&models.TranscriptChunk{}).Error
}
