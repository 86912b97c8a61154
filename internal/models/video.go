package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// ProcessingStatus tracks a video through the ingestion pipeline.
// Transitions only move forward; failed is reachable from any
// non-terminal state.
type ProcessingStatus string

const (
	StatusUploading    ProcessingStatus = "uploading"
	StatusProcessing   ProcessingStatus = "processing"
	StatusTranscribing ProcessingStatus = "transcribing"
	StatusChunking     ProcessingStatus = "chunking"
	StatusEmbedding    ProcessingStatus = "embedding"
	StatusCompleted    ProcessingStatus = "completed"
	StatusFailed       ProcessingStatus = "failed"
)

func (s ProcessingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Progress maps the status to an approximate completion percentage
// for polling clients.
func (s ProcessingStatus) Progress() int {
	switch s {
	case StatusUploading:
		return 10
	case StatusProcessing:
		return 20
	case StatusTranscribing:
		return 40
	case StatusChunking:
		return 60
	case StatusEmbedding:
		return 80
	case StatusCompleted:
		return 100
	default:
		return 0
	}
}

type Video struct {
	ID       string           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Filename string           `gorm:"column:filename;type:text" json:"filename"`
	Title    string           `gorm:"column:title;type:text" json:"title"`
	Duration float64          `gorm:"column:duration;type:double precision" json:"duration"`
	FileSize int64            `gorm:"column:file_size;type:bigint" json:"file_size"`
	Status   ProcessingStatus `gorm:"column:status;type:text;index" json:"status"`

	VideoPath      string `gorm:"column:video_path;type:text" json:"video_path,omitempty"`
	AudioPath      string `gorm:"column:audio_path;type:text" json:"audio_path,omitempty"`
	TranscriptPath string `gorm:"column:transcript_path;type:text" json:"transcript_path,omitempty"`

	TotalChunks     int            `gorm:"column:total_chunks;type:integer" json:"total_chunks"`
	TranscriptMeta  datatypes.JSON `gorm:"column:transcript_meta;type:jsonb" json:"transcript_meta,omitempty"`
	ProcessingError string         `gorm:"column:processing_error;type:text" json:"processing_error,omitempty"`

	UploadedAt time.Time `gorm:"column:uploaded_at;type:timestamptz;index" json:"uploaded_at"`
}

func (Video) TableName() string { return "videos" }

// StatusMessage is the human-readable progress line shown to polling
// and websocket clients.
func (v *Video) StatusMessage() string {
	switch v.Status {
	case StatusUploading:
		return "Uploading video..."
	case StatusProcessing:
		return "Extracting audio from video..."
	case StatusTranscribing:
		return "Transcribing audio with AI..."
	case StatusChunking:
		return "Creating intelligent chunks..."
	case StatusEmbedding:
		return "Generating vector embeddings..."
	case StatusCompleted:
		return "Processing completed successfully!"
	case StatusFailed:
		cause := v.ProcessingError
		if cause == "" {
			cause = "Unknown error"
		}
		return fmt.Sprintf("Processing failed: %s", cause)
	default:
		return "Unknown processing status"
	}
}

// TranscriptMeta is marshaled into Video.TranscriptMeta when the
// transcript artifact is written.
type TranscriptMeta struct {
	Language     string    `json:"language,omitempty"`
	SegmentCount int       `json:"segment_count"`
	GeneratedAt  time.Time `json:"generated_at"`
}
