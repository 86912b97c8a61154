package postgres

import (
	"context"
	"errors"

	"github.com/lectura-ai/backend/internal/models"
	"github.com/lectura-ai/backend/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type VideoRepository interface {
	Insert(ctx context.Context, v *models.Video) error
	GetByID(ctx context.Context, id string) (*models.Video, error)
	List(ctx context.Context) ([]models.Video, error)
	SetStatus(ctx context.Context, id string, status models.ProcessingStatus, processingError string) error
	SetAudioPath(ctx context.Context, id, audioPath string) error
	SetTranscript(ctx context.Context, id, transcriptPath string, meta datatypes.JSON) error
	SetTotalChunks(ctx context.Context, id string, total int) error
	Delete(ctx context.Context, id string) error
}

type videoRepo struct {
	db *gorm.DB
}

func NewVideoRepo(db *gorm.DB) VideoRepository {
	return &videoRepo{db: db}
}

func (r *videoRepo) Insert(ctx context.Context, v *models.Video) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *videoRepo) GetByID(ctx context.Context, id string) (*models.Video, error) {
	var row models.Video
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *videoRepo) List(ctx context.Context) ([]models.Video, error) {
	var rows []models.Video
	err := r.db.WithContext(ctx).
		Order("uploaded_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *videoRepo) SetStatus(ctx context.Context, id string, status models.ProcessingStatus, processingError string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":           status,
			"processing_error": processingError,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *videoRepo) SetAudioPath(ctx context.Context, id, audioPath string) error {
	return r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("id = ?", id).
		Update("audio_path", audioPath).Error
}

func (r *videoRepo) SetTranscript(ctx context.Context, id, transcriptPath string, meta datatypes.JSON) error {
	return r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"transcript_path": transcriptPath,
			"transcript_meta": meta,
		}).Error
}

func (r *videoRepo) SetTotalChunks(ctx context.Context, id string, total int) error {
	return r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("id = ?", id).
		Update("total_chunks", total).Error
}

func (r *videoRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Video{}).Error
}
