package services

import (
	"context"
	"testing"

	"github.com/lectura-ai/backend/internal/models"
	"github.com/lectura-ai/backend/internal/utils"
)

func TestStatusTrackerAdvance(t *testing.T) {
	var gotStatus models.ProcessingStatus
	var gotErr string
	repo := &fakeVideoRepo{
		SetStatusFn: func(_ context.Context, id string, status models.ProcessingStatus, processingError string) error {
			if id != "vid-1" {
				t.Fatalf("unexpected id %q", id)
			}
			gotStatus, gotErr = status, processingError
			return nil
		},
	}

	tracker := NewStatusTracker(repo)
	if err := tracker.Advance(context.Background(), "vid-1", models.StatusChunking); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if gotStatus != models.StatusChunking {
		t.Fatalf("status = %q, want %q", gotStatus, models.StatusChunking)
	}
	if gotErr != "" {
		t.Fatalf("processing error = %q, want empty", gotErr)
	}
}

func TestStatusTrackerFailDefaultsCause(t *testing.T) {
	var gotStatus models.ProcessingStatus
	var gotErr string
	repo := &fakeVideoRepo{
		SetStatusFn: func(_ context.Context, _ string, status models.ProcessingStatus, processingError string) error {
			gotStatus, gotErr = status, processingError
			return nil
		},
	}

	tracker := NewStatusTracker(repo)
	if err := tracker.Fail(context.Background(), "vid-1", ""); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if gotStatus != models.StatusFailed {
		t.Fatalf("status = %q, want failed", gotStatus)
	}
	if gotErr != "unknown error" {
		t.Fatalf("cause = %q, want %q", gotErr, "unknown error")
	}
}

func TestStatusTrackerGet(t *testing.T) {
	tests := []struct {
		name         string
		video        models.Video
		wantProgress int
		wantMessage  string
		wantError    string
	}{
		{
			name:         "embedding in flight",
			video:        models.Video{ID: "vid-1", Status: models.StatusEmbedding},
			wantProgress: 80,
			wantMessage:  "Generating vector embeddings...",
		},
		{
			name:         "completed",
			video:        models.Video{ID: "vid-1", Status: models.StatusCompleted},
			wantProgress: 100,
			wantMessage:  "Processing completed successfully!",
		},
		{
			name:         "failed with cause",
			video:        models.Video{ID: "vid-1", Status: models.StatusFailed, ProcessingError: "transcription failed"},
			wantProgress: 0,
			wantMessage:  "Processing failed: transcription failed",
			wantError:    "transcription failed",
		},
		{
			name:         "failed without cause",
			video:        models.Video{ID: "vid-1", Status: models.StatusFailed},
			wantProgress: 0,
			wantMessage:  "Processing failed: Unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeVideoRepo{
				GetByIDFn: func(_ context.Context, _ string) (*models.Video, error) {
					v := tt.video
					return &v, nil
				},
			}
			detail, err := NewStatusTracker(repo).Get(context.Background(), "vid-1")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if detail.VideoID != "vid-1" {
				t.Fatalf("video id = %q", detail.VideoID)
			}
			if detail.Status != string(tt.video.Status) {
				t.Fatalf("status = %q, want %q", detail.Status, tt.video.Status)
			}
			if detail.Progress != tt.wantProgress {
				t.Fatalf("progress = %d, want %d", detail.Progress, tt.wantProgress)
			}
			if detail.Message != tt.wantMessage {
				t.Fatalf("message = %q, want %q", detail.Message, tt.wantMessage)
			}
			if detail.Error != tt.wantError {
				t.Fatalf("error = %q, want %q", detail.Error, tt.wantError)
			}
		})
	}
}

func TestStatusTrackerGetNotFound(t *testing.T) {
	_, err := NewStatusTracker(&fakeVideoRepo{}).Get(context.Background(), "missing")
	if !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}
