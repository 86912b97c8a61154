package services

import (
	"context"
	"io"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/lectura-ai/backend/internal/models"
	"github.com/lectura-ai/backend/internal/providers/transcribe"
	pgrepo "github.com/lectura-ai/backend/internal/repositories/postgres"
	"github.com/lectura-ai/backend/internal/utils"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeVideoRepo struct {
	InsertFn         func(ctx context.Context, v *models.Video) error
	GetByIDFn        func(ctx context.Context, id string) (*models.Video, error)
	ListFn           func(ctx context.Context) ([]models.Video, error)
	SetStatusFn      func(ctx context.Context, id string, status models.ProcessingStatus, processingError string) error
	SetAudioPathFn   func(ctx context.Context, id, audioPath string) error
	SetTranscriptFn  func(ctx context.Context, id, transcriptPath string, meta datatypes.JSON) error
	SetTotalChunksFn func(ctx context.Context, id string, total int) error
	DeleteFn         func(ctx context.Context, id string) error
}

func (f *fakeVideoRepo) Insert(ctx context.Context, v *models.Video) error {
	if f.InsertFn != nil {
		return f.InsertFn(ctx, v)
	}
	return nil
}

func (f *fakeVideoRepo) GetByID(ctx context.Context, id string) (*models.Video, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, utils.ErrNotFound
}

func (f *fakeVideoRepo) List(ctx context.Context) ([]models.Video, error) {
	if f.ListFn != nil {
		return f.ListFn(ctx)
	}
	return nil, nil
}

func (f *fakeVideoRepo) SetStatus(ctx context.Context, id string, status models.ProcessingStatus, processingError string) error {
	if f.SetStatusFn != nil {
		return f.SetStatusFn(ctx, id, status, processingError)
	}
	return nil
}

func (f *fakeVideoRepo) SetAudioPath(ctx context.Context, id, audioPath string) error {
	if f.SetAudioPathFn != nil {
		return f.SetAudioPathFn(ctx, id, audioPath)
	}
	return nil
}

func (f *fakeVideoRepo) SetTranscript(ctx context.Context, id, transcriptPath string, meta datatypes.JSON) error {
	if f.SetTranscriptFn != nil {
		return f.SetTranscriptFn(ctx, id, transcriptPath, meta)
	}
	return nil
}

func (f *fakeVideoRepo) SetTotalChunks(ctx context.Context, id string, total int) error {
	if f.SetTotalChunksFn != nil {
		return f.SetTotalChunksFn(ctx, id, total)
	}
	return nil
}

func (f *fakeVideoRepo) Delete(ctx context.Context, id string) error {
	if f.DeleteFn != nil {
		return f.DeleteFn(ctx, id)
	}
	return nil
}

type fakeChunkRepo struct {
	ReplaceForVideoFn func(ctx context.Context, videoID string, chunks []models.TranscriptChunk) error
	ListByVideoFn     func(ctx context.Context, videoID string) ([]models.TranscriptChunk, error)
	CountByVideoFn    func(ctx context.Context, videoID string) (int64, error)
	DeleteByVideoFn   func(ctx context.Context, videoID string) error
}

func (f *fakeChunkRepo) ReplaceForVideo(ctx context.Context, videoID string, chunks []models.TranscriptChunk) error {
	if f.ReplaceForVideoFn != nil {
		return f.ReplaceForVideoFn(ctx, videoID, chunks)
	}
	return nil
}

func (f *fakeChunkRepo) ListByVideo(ctx context.Context, videoID string) ([]models.TranscriptChunk, error) {
	if f.ListByVideoFn != nil {
		return f.ListByVideoFn(ctx, videoID)
	}
	return nil, nil
}

func (f *fakeChunkRepo) CountByVideo(ctx context.Context, videoID string) (int64, error) {
	if f.CountByVideoFn != nil {
		return f.CountByVideoFn(ctx, videoID)
	}
	return 0, nil
}

func (f *fakeChunkRepo) DeleteByVideo(ctx context.Context, videoID string) error {
	if f.DeleteByVideoFn != nil {
		return f.DeleteByVideoFn(ctx, videoID)
	}
	return nil
}

type fakeVectorRepo struct {
	ReplaceForVideoFn func(ctx context.Context, videoID string, rows []models.ChunkEmbedding) error
	SearchFn          func(ctx context.Context, videoID string, query pgvector.Vector, topK int) ([]pgrepo.VectorHit, error)
	DeleteByVideoFn   func(ctx context.Context, videoID string) error
}

func (f *fakeVectorRepo) ReplaceForVideo(ctx context.Context, videoID string, rows []models.ChunkEmbedding) error {
	if f.ReplaceForVideoFn != nil {
		return f.ReplaceForVideoFn(ctx, videoID, rows)
	}
	return nil
}

func (f *fakeVectorRepo) Search(ctx context.Context, videoID string, query pgvector.Vector, topK int) ([]pgrepo.VectorHit, error) {
	if f.SearchFn != nil {
		return f.SearchFn(ctx, videoID, query, topK)
	}
	return nil, nil
}

func (f *fakeVectorRepo) DeleteByVideo(ctx context.Context, videoID string) error {
	if f.DeleteByVideoFn != nil {
		return f.DeleteByVideoFn(ctx, videoID)
	}
	return nil
}

type fakeSessionRepo struct {
	CreateFn         func(ctx context.Context, s *models.ChatSession) error
	GetBySessionIDFn func(ctx context.Context, sessionID string) (*models.ChatSession, error)
	AppendMessagesFn func(ctx context.Context, sessionID string, msgs ...models.ChatMessage) error
	HistoryFn        func(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error)
	DeleteByVideoFn  func(ctx context.Context, videoID string) error
}

func (f *fakeSessionRepo) Create(ctx context.Context, s *models.ChatSession) error {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, s)
	}
	return nil
}

func (f *fakeSessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	if f.GetBySessionIDFn != nil {
		return f.GetBySessionIDFn(ctx, sessionID)
	}
	return nil, utils.ErrNotFound
}

func (f *fakeSessionRepo) AppendMessages(ctx context.Context, sessionID string, msgs ...models.ChatMessage) error {
	if f.AppendMessagesFn != nil {
		return f.AppendMessagesFn(ctx, sessionID, msgs...)
	}
	return nil
}

func (f *fakeSessionRepo) History(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	if f.HistoryFn != nil {
		return f.HistoryFn(ctx, sessionID, limit)
	}
	return nil, utils.ErrNotFound
}

func (f *fakeSessionRepo) DeleteByVideo(ctx context.Context, videoID string) error {
	if f.DeleteByVideoFn != nil {
		return f.DeleteByVideoFn(ctx, videoID)
	}
	return nil
}

type fakeCache struct {
	GetJSONFn func(ctx context.Context, key string, dst any) (bool, error)
	SetJSONFn func(ctx context.Context, key string, val any, ttl time.Duration) error
	DelFn     func(ctx context.Context, keys ...string) error
}

func (f *fakeCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if f.GetJSONFn != nil {
		return f.GetJSONFn(ctx, key, dst)
	}
	return false, nil
}

func (f *fakeCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	if f.SetJSONFn != nil {
		return f.SetJSONFn(ctx, key, val, ttl)
	}
	return nil
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) error {
	if f.DelFn != nil {
		return f.DelFn(ctx, keys...)
	}
	return nil
}

type fakeMediaEngine struct {
	ProbeDurationFn func(ctx context.Context, path string) (float64, error)
	ExtractAudioFn  func(ctx context.Context, videoPath, audioPath string) error
}

func (f *fakeMediaEngine) ProbeDuration(ctx context.Context, path string) (float64, error) {
	if f.ProbeDurationFn != nil {
		return f.ProbeDurationFn(ctx, path)
	}
	return 0, nil
}

func (f *fakeMediaEngine) ExtractAudio(ctx context.Context, videoPath, audioPath string) error {
	if f.ExtractAudioFn != nil {
		return f.ExtractAudioFn(ctx, videoPath, audioPath)
	}
	return nil
}

type fakeTranscriber struct {
	TranscribeFn func(ctx context.Context, audioPath string) (*transcribe.Result, error)
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (*transcribe.Result, error) {
	if f.TranscribeFn != nil {
		return f.TranscribeFn(ctx, audioPath)
	}
	return nil, nil
}

func (f *fakeTranscriber) Close() error { return nil }

type fakeEmbedder struct {
	EmbedFn func(ctx context.Context, texts []string) ([][]float32, error)
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.EmbedFn != nil {
		return f.EmbedFn(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

type fakeLLM struct {
	GenerateFn func(ctx context.Context, prompt string) (string, error)
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	if f.GenerateFn != nil {
		return f.GenerateFn(ctx, prompt)
	}
	return "", nil
}

func (f *fakeLLM) Close() error { return nil }

type fakeUploader struct {
	UploadFn func(ctx context.Context, objectName, contentType string, r io.Reader) (string, error)
}

func (f *fakeUploader) Upload(ctx context.Context, objectName, contentType string, r io.Reader) (string, error) {
	if f.UploadFn != nil {
		return f.UploadFn(ctx, objectName, contentType, r)
	}
	return "gs://test/" + objectName, nil
}

type fakeQueue struct {
	EnqueueFn func(videoID, videoPath string) (<-chan error, error)
}

func (f *fakeQueue) Enqueue(videoID, videoPath string) (<-chan error, error) {
	if f.EnqueueFn != nil {
		return f.EnqueueFn(videoID, videoPath)
	}
	done := make(chan error, 1)
	done <- nil
	close(done)
	return done, nil
}

type fakeRetriever struct {
	QueryFn func(ctx context.Context, videoID, question string, topK int) ([]models.RelevantChunk, error)
}

func (f *fakeRetriever) Query(ctx context.Context, videoID, question string, topK int) ([]models.RelevantChunk, error) {
	if f.QueryFn != nil {
		return f.QueryFn(ctx, videoID, question, topK)
	}
	return nil, nil
}

type fakeComposer struct {
	AnswerFn func(ctx context.Context, videoID, question string, history []models.ChatMessage) *models.ChatAnswer
}

func (f *fakeComposer) Answer(ctx context.Context, videoID, question string, history []models.ChatMessage) *models.ChatAnswer {
	if f.AnswerFn != nil {
		return f.AnswerFn(ctx, videoID, question, history)
	}
	return &models.ChatAnswer{Answer: "ok", RelevantChunks: []models.RelevantChunk{}, VideoID: videoID}
}
