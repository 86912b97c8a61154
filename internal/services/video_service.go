package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lectura-ai/backend/internal/cache"
	"github.com/lectura-ai/backend/internal/models"
	"github.com/lectura-ai/backend/internal/providers/media"
	mongorepo "github.com/lectura-ai/backend/internal/repositories/mongo"
	pgrepo "github.com/lectura-ai/backend/internal/repositories/postgres"
	"github.com/lectura-ai/backend/internal/utils"
)

// AllowedVideoExtensions is the upload whitelist, lowercase with dot.
var AllowedVideoExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".webm", ".flv", ".wmv"}

// JobQueue hands a stored upload to the background processors. The
// returned channel closes with the run's outcome; upload handlers
// ignore it.
type JobQueue interface {
	Enqueue(videoID, videoPath string) (<-chan error, error)
}

// UploadReceipt is the response body for an accepted upload.
type UploadReceipt struct {
	VideoID  string `json:"video_id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// VideoDetail is a video row together with its transcript chunks.
type VideoDetail struct {
	Metadata models.Video             `json:"metadata"`
	Chunks   []models.TranscriptChunk `json:"chunks"`
}

// VideoService owns the video lifecycle outside the processing
// pipeline: upload intake, reads, and cascading deletion.
type VideoService interface {
	Upload(ctx context.Context, filename string, size int64, r io.Reader) (*UploadReceipt, error)
	List(ctx context.Context) ([]models.Video, error)
	Get(ctx context.Context, videoID string) (*VideoDetail, error)
	Status(ctx context.Context, videoID string) (*StatusDetail, error)
	Delete(ctx context.Context, videoID string) error
}

type videoService struct {
	videos   pgrepo.VideoRepository
	chunks   pgrepo.ChunkRepository
	vectors  pgrepo.VectorRepository
	sessions mongorepo.ChatSessionRepository
	tracker  StatusTracker
	cache    cache.Cache
	media    media.Engine
	queue    JobQueue

	uploadDir string
	maxBytes  int64
}

func NewVideoService(
	videos pgrepo.VideoRepository,
	chunks pgrepo.ChunkRepository,
	vectors pgrepo.VectorRepository,
	sessions mongorepo.ChatSessionRepository,
	tracker StatusTracker,
	cacheClient cache.Cache,
	mediaEngine media.Engine,
	queue JobQueue,
	uploadDir string,
	maxBytes int64,
) VideoService {
	return &videoService{
		videos:    videos,
		chunks:    chunks,
		vectors:   vectors,
		sessions:  sessions,
		tracker:   tracker,
		cache:     cacheClient,
		media:     mediaEngine,
		queue:     queue,
		uploadDir: uploadDir,
		maxBytes:  maxBytes,
	}
}

func extensionAllowed(ext string) bool {
	for _, allowed := range AllowedVideoExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (s *videoService) Upload(ctx context.Context, filename string, size int64, r io.Reader) (*UploadReceipt, error) {
	const op = "VideoService.Upload"

	ext := strings.ToLower(filepath.Ext(filename))
	if !extensionAllowed(ext) {
		return nil, utils.E(utils.CodeInvalidArgument, op,
			fmt.Sprintf("Unsupported file format. Allowed: %s", strings.Join(AllowedVideoExtensions, ", ")), nil)
	}
	if size > s.maxBytes {
		return nil, utils.E(utils.CodeInvalidArgument, op,
			fmt.Sprintf("File too large. Maximum size is %.1fGB", float64(s.maxBytes)/(1024*1024*1024)), nil)
	}

	videoID := uuid.NewString()

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to upload video", err)
	}
	videoPath := filepath.Join(s.uploadDir, videoID+ext)

	written, err := s.saveFile(videoPath, r)
	if err != nil {
		os.Remove(videoPath)
		return nil, err
	}

	// Duration is cosmetic; a probe failure leaves it at zero.
	duration, err := s.media.ProbeDuration(ctx, videoPath)
	if err != nil {
		duration = 0
	}

	base := filepath.Base(filename)
	video := &models.Video{
		ID:         videoID,
		Filename:   base,
		Title:      strings.TrimSuffix(base, filepath.Ext(base)),
		Duration:   duration,
		FileSize:   written,
		Status:     models.StatusUploading,
		VideoPath:  videoPath,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.videos.Insert(ctx, video); err != nil {
		os.Remove(videoPath)
		return nil, utils.E(utils.CodeInternal, op, "Failed to upload video", err)
	}

	if _, err := s.queue.Enqueue(videoID, videoPath); err != nil {
		_ = s.tracker.Fail(ctx, videoID, "processing queue full")
		return nil, utils.E(utils.CodeUnavailable, op, "Processing queue is full. Please try again later.", err)
	}

	return &UploadReceipt{
		VideoID:  videoID,
		Filename: base,
		Status:   string(models.StatusProcessing),
		Message:  "Video uploaded successfully. Processing started.",
	}, nil
}

// saveFile streams the upload to disk, enforcing the size cap even
// when the declared size was absent or wrong.
func (s *videoService) saveFile(path string, r io.Reader) (int64, error) {
	const op = "VideoService.Upload"

	dst, err := os.Create(path)
	if err != nil {
		return 0, utils.E(utils.CodeInternal, op, "Failed to upload video", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return 0, utils.E(utils.CodeInternal, op, "Failed to upload video", err)
	}
	if written > s.maxBytes {
		return 0, utils.E(utils.CodeInvalidArgument, op,
			fmt.Sprintf("File too large. Maximum size is %.1fGB", float64(s.maxBytes)/(1024*1024*1024)), nil)
	}
	return written, nil
}

func (s *videoService) List(ctx context.Context) ([]models.Video, error) {
	const op = "VideoService.List"

	videos, err := s.videos.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to retrieve videos", err)
	}
	if videos == nil {
		videos = []models.Video{}
	}
	return videos, nil
}

func (s *videoService) Get(ctx context.Context, videoID string) (*VideoDetail, error) {
	const op = "VideoService.Get"

	key := cache.VideoDetailKey(videoID)
	var cached VideoDetail
	if ok, _ := s.cache.GetJSON(ctx, key, &cached); ok {
		return &cached, nil
	}

	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Video not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "Failed to retrieve video details", err)
	}

	chunks, err := s.chunks.ListByVideo(ctx, videoID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to retrieve video details", err)
	}
	if chunks == nil {
		chunks = []models.TranscriptChunk{}
	}

	detail := &VideoDetail{Metadata: *video, Chunks: chunks}

	// Only terminal rows are cached: in-flight statuses change every
	// few seconds and must stay fresh for pollers.
	if video.Status.Terminal() {
		_ = s.cache.SetJSON(ctx, key, detail, cache.VideoDetailTTL)
	}
	return detail, nil
}

func (s *videoService) Status(ctx context.Context, videoID string) (*StatusDetail, error) {
	return s.tracker.Get(ctx, videoID)
}

func (s *videoService) Delete(ctx context.Context, videoID string) error {
	const op = "VideoService.Delete"

	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "Video not found", err)
		}
		return utils.E(utils.CodeInternal, op, "Failed to delete video", err)
	}

	if err := s.vectors.DeleteByVideo(ctx, videoID); err != nil {
		return utils.E(utils.CodeInternal, op, "Failed to delete video", err)
	}
	if err := s.chunks.DeleteByVideo(ctx, videoID); err != nil {
		return utils.E(utils.CodeInternal, op, "Failed to delete video", err)
	}
	if err := s.sessions.DeleteByVideo(ctx, videoID); err != nil {
		return utils.E(utils.CodeInternal, op, "Failed to delete video", err)
	}
	if err := s.videos.Delete(ctx, videoID); err != nil {
		return utils.E(utils.CodeInternal, op, "Failed to delete video", err)
	}

	for _, path := range []string{video.VideoPath, video.AudioPath, video.TranscriptPath} {
		if path != "" {
			os.Remove(path)
		}
	}

	_ = cache.InvalidateVideo(ctx, s.cache, videoID)
	return nil
}
