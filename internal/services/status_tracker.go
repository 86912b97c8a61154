package services

import (
	"context"
	"errors"

	"github.com/lectura-ai/backend/internal/models"
	pgrepo "github.com/lectura-ai/backend/internal/repositories/postgres"
	"github.com/lectura-ai/backend/internal/utils"
)

// StatusDetail is the polling payload for a video's processing state.
type StatusDetail struct {
	VideoID  string `json:"video_id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
	Error    string `json:"error,omitempty"`
}

// StatusTracker records pipeline progress on the video row. Advance is
// unconditional: any status may follow any status, the pipeline alone is
// responsible for issuing the forward sequence.
type StatusTracker interface {
	Advance(ctx context.Context, videoID string, status models.ProcessingStatus) error
	Fail(ctx context.Context, videoID string, cause string) error
	Get(ctx context.Context, videoID string) (*StatusDetail, error)
}

type statusTracker struct {
	videos pgrepo.VideoRepository
}

func NewStatusTracker(videos pgrepo.VideoRepository) StatusTracker {
	return &statusTracker{videos: videos}
}

func (t *statusTracker) Advance(ctx context.Context, videoID string, status models.ProcessingStatus) error {
	const op = "StatusTracker.Advance"

	if err := t.videos.SetStatus(ctx, videoID, status, ""); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "video not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to update status", err)
	}
	return nil
}

func (t *statusTracker) Fail(ctx context.Context, videoID string, cause string) error {
	const op = "StatusTracker.Fail"

	if cause == "" {
		cause = "unknown error"
	}
	if err := t.videos.SetStatus(ctx, videoID, models.StatusFailed, cause); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "video not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to record failure", err)
	}
	return nil
}

func (t *statusTracker) Get(ctx context.Context, videoID string) (*StatusDetail, error) {
	const op = "StatusTracker.Get"

	video, err := t.videos.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Video not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "Failed to load video", err)
	}

	return &StatusDetail{
		VideoID:  video.ID,
		Status:   string(video.Status),
		Progress: video.Status.Progress(),
		Message:  video.StatusMessage(),
		Error:    video.ProcessingError,
	}, nil
}
