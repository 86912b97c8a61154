package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/lectura-ai/backend/internal/logger"
	"github.com/lectura-ai/backend/internal/models"
	"github.com/lectura-ai/backend/internal/providers/media"
	"github.com/lectura-ai/backend/internal/providers/transcribe"
	pgrepo "github.com/lectura-ai/backend/internal/repositories/postgres"
	"github.com/lectura-ai/backend/internal/segmenter"
	"github.com/lectura-ai/backend/internal/storage"
	"github.com/lectura-ai/backend/internal/utils"
)

// Failure causes recorded on the video row when a pipeline stage fails.
const (
	CauseAudioExtraction = "audio extraction failed"
	CauseTranscription   = "transcription failed"
	CauseChunking        = "chunking failed"
	CauseSaveChunks      = "failed to save chunks"
	CauseRecordUpdate    = "failed to update video record"
)

// PipelineService drives one video from uploaded file to persisted
// transcript chunks: extract audio, transcribe, chunk, leaving the row
// in embedding state for the indexer. Stage failures are recorded on
// the video row before the error is returned.
type PipelineService interface {
	Run(ctx context.Context, videoID, videoPath string) error
}

type pipelineService struct {
	tracker     StatusTracker
	videos      pgrepo.VideoRepository
	chunks      pgrepo.ChunkRepository
	media       media.Engine
	transcriber transcribe.Provider
	uploader    storage.Uploader
	log         *logrus.Logger

	processedDir string
	chunkOpts    segmenter.Options
}

// NewPipelineService wires the stage dependencies. uploader may be nil,
// in which case transcript artifacts are kept on local disk only.
func NewPipelineService(
	tracker StatusTracker,
	videos pgrepo.VideoRepository,
	chunks pgrepo.ChunkRepository,
	mediaEngine media.Engine,
	transcriber transcribe.Provider,
	uploader storage.Uploader,
	log *logrus.Logger,
	processedDir string,
	chunkOpts segmenter.Options,
) PipelineService {
	return &pipelineService{
		tracker:      tracker,
		videos:       videos,
		chunks:       chunks,
		media:        mediaEngine,
		transcriber:  transcriber,
		uploader:     uploader,
		log:          log,
		processedDir: processedDir,
		chunkOpts:    chunkOpts,
	}
}

func (s *pipelineService) Run(ctx context.Context, videoID, videoPath string) error {
	const op = "PipelineService.Run"

	log := logger.Component(s.log, "pipeline").WithField("video_id", videoID)

	if err := s.tracker.Advance(ctx, videoID, models.StatusProcessing); err != nil {
		return utils.E(utils.CodeInternal, op, CauseRecordUpdate, err)
	}

	audioPath := filepath.Join(s.processedDir, fmt.Sprintf("%s_audio.wav", videoID))
	if err := s.media.ExtractAudio(ctx, videoPath, audioPath); err != nil {
		s.fail(ctx, videoID, CauseAudioExtraction)
		return utils.E(utils.CodeInternal, op, CauseAudioExtraction, err)
	}
	log.WithField("audio_path", audioPath).Info("audio extracted")

	if err := s.videos.SetAudioPath(ctx, videoID, audioPath); err != nil {
		s.fail(ctx, videoID, CauseRecordUpdate)
		return utils.E(utils.CodeInternal, op, CauseRecordUpdate, err)
	}

	if err := s.tracker.Advance(ctx, videoID, models.StatusTranscribing); err != nil {
		s.fail(ctx, videoID, CauseRecordUpdate)
		return utils.E(utils.CodeInternal, op, CauseRecordUpdate, err)
	}

	result, err := s.transcriber.Transcribe(ctx, audioPath)
	if err != nil || result == nil {
		s.fail(ctx, videoID, CauseTranscription)
		return utils.E(utils.CodeInternal, op, CauseTranscription, err)
	}
	log.WithFields(logrus.Fields{
		"segments": len(result.Segments),
		"language": result.Language,
	}).Info("transcription completed")

	s.saveTranscriptArtifact(ctx, videoID, result, log)

	if err := s.tracker.Advance(ctx, videoID, models.StatusChunking); err != nil {
		s.fail(ctx, videoID, CauseRecordUpdate)
		return utils.E(utils.CodeInternal, op, CauseRecordUpdate, err)
	}

	segments := make([]segmenter.Segment, len(result.Segments))
	for i, sg := range result.Segments {
		segments[i] = segmenter.Segment{Start: sg.Start, End: sg.End, Text: sg.Text}
	}
	chunks := segmenter.Split(segments, s.chunkOpts)
	if len(chunks) == 0 {
		s.fail(ctx, videoID, CauseChunking)
		return utils.E(utils.CodeInternal, op, CauseChunking, nil)
	}

	rows := make([]models.TranscriptChunk, len(chunks))
	for i, c := range chunks {
		rows[i] = models.TranscriptChunk{
			ID:         uuid.NewString(),
			VideoID:    videoID,
			Text:       c.Text,
			StartTime:  c.Start,
			EndTime:    c.End,
			ChunkIndex: c.Index,
			WordCount:  c.WordCount,
		}
	}
	if err := s.chunks.ReplaceForVideo(ctx, videoID, rows); err != nil {
		s.fail(ctx, videoID, CauseSaveChunks)
		return utils.E(utils.CodeInternal, op, CauseSaveChunks, err)
	}
	if err := s.videos.SetTotalChunks(ctx, videoID, len(rows)); err != nil {
		s.fail(ctx, videoID, CauseSaveChunks)
		return utils.E(utils.CodeInternal, op, CauseSaveChunks, err)
	}
	log.WithField("chunks", len(rows)).Info("transcript chunks saved")

	if err := s.tracker.Advance(ctx, videoID, models.StatusEmbedding); err != nil {
		s.fail(ctx, videoID, CauseRecordUpdate)
		return utils.E(utils.CodeInternal, op, CauseRecordUpdate, err)
	}
	return nil
}

func (s *pipelineService) fail(ctx context.Context, videoID, cause string) {
	if err := s.tracker.Fail(ctx, videoID, cause); err != nil {
		s.log.WithField("video_id", videoID).WithError(err).Error("failed to record failure cause")
	}
}

// saveTranscriptArtifact writes the plain-text transcript next to the
// audio file, records its location and metadata on the video row, and
// mirrors it to object storage when one is configured. Best-effort: a
// failure here never fails the run.
func (s *pipelineService) saveTranscriptArtifact(ctx context.Context, videoID string, result *transcribe.Result, log *logrus.Entry) {
	path := filepath.Join(s.processedDir, fmt.Sprintf("%s_transcript.txt", videoID))

	var b strings.Builder
	fmt.Fprintf(&b, "Transcript for Video ID: %s\n", videoID)
	fmt.Fprintf(&b, "Generated: %s\n", time.Now().UTC().Format(time.RFC3339))
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	for _, seg := range result.Segments {
		fmt.Fprintf(&b, "[%s - %s]\n", utils.FormatClock(seg.Start), utils.FormatClock(seg.End))
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(seg.Text))
	}
	data := []byte(b.String())

	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.WithError(err).Warn("failed to write transcript artifact")
		return
	}

	meta, err := json.Marshal(models.TranscriptMeta{
		Language:     result.Language,
		SegmentCount: len(result.Segments),
		GeneratedAt:  time.Now().UTC(),
	})
	if err == nil {
		if err := s.videos.SetTranscript(ctx, videoID, path, datatypes.JSON(meta)); err != nil {
			log.WithError(err).Warn("failed to record transcript reference")
		}
	}

	if s.uploader != nil {
		s.mirrorTranscript(ctx, videoID, data, log)
	}
}

func (s *pipelineService) mirrorTranscript(ctx context.Context, videoID string, data []byte, log *logrus.Entry) {
	object := fmt.Sprintf("transcripts/%s.txt", videoID)
	for attempt := 1; attempt <= 3; attempt++ {
		stored, err := s.uploader.Upload(ctx, object, "text/plain; charset=utf-8", bytes.NewReader(data))
		if err == nil {
			log.WithField("stored_path", stored).Info("transcript mirrored to object storage")
			return
		}
		log.WithError(err).WithField("attempt", attempt).Warn("transcript mirror attempt failed")
		time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
	}
}
