package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"

	"github.com/lectura-ai/backend/internal/logger"
	"github.com/lectura-ai/backend/internal/models"
	"github.com/lectura-ai/backend/internal/providers/embedding"
	pgrepo "github.com/lectura-ai/backend/internal/repositories/postgres"
	"github.com/lectura-ai/backend/internal/utils"
)

const (
	CauseNoChunks       = "no transcript chunks found"
	CauseEmbeddingBuild = "embedding creation failed"

	embedBatchSize = 50
)

// IndexService turns a video's transcript chunks into its searchable
// vector collection. All batches are embedded before anything is
// published, and the publish replaces the collection atomically, so a
// mid-run failure never leaves a partially searchable video. The
// pipeline has already moved the row to embedding state; this service
// only ever records completed or failed.
type IndexService interface {
	Index(ctx context.Context, videoID string) error
}

type indexService struct {
	tracker  StatusTracker
	chunks   pgrepo.ChunkRepository
	vectors  pgrepo.VectorRepository
	embedder embedding.Provider
	log      *logrus.Logger
}

func NewIndexService(
	tracker StatusTracker,
	chunks pgrepo.ChunkRepository,
	vectors pgrepo.VectorRepository,
	embedder embedding.Provider,
	log *logrus.Logger,
) IndexService {
	return &indexService{
		tracker:  tracker,
		chunks:   chunks,
		vectors:  vectors,
		embedder: embedder,
		log:      log,
	}
}

func (s *indexService) Index(ctx context.Context, videoID string) error {
	const op = "IndexService.Index"

	log := logger.Component(s.log, "indexer").WithField("video_id", videoID)

	rows, err := s.chunks.ListByVideo(ctx, videoID)
	if err != nil {
		s.fail(ctx, videoID, CauseEmbeddingBuild)
		return utils.E(utils.CodeInternal, op, CauseEmbeddingBuild, err)
	}
	if len(rows) == 0 {
		s.fail(ctx, videoID, CauseNoChunks)
		return utils.E(utils.CodeInternal, op, CauseNoChunks, nil)
	}

	vecs := make([]models.ChunkEmbedding, 0, len(rows))
	for start := 0; start < len(rows); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		embs, err := s.embedder.Embed(ctx, texts)
		if err != nil || len(embs) != len(batch) {
			s.fail(ctx, videoID, CauseEmbeddingBuild)
			return utils.E(utils.CodeInternal, op, CauseEmbeddingBuild, err)
		}

		for i, c := range batch {
			vecs = append(vecs, models.ChunkEmbedding{
				ID:                 uuid.NewString(),
				VideoID:            c.VideoID,
				ChunkID:            c.ID,
				ChunkIndex:         c.ChunkIndex,
				Text:               c.Text,
				Embedding:          pgvector.NewVector(embs[i]),
				StartTime:          c.StartTime,
				EndTime:            c.EndTime,
				WordCount:          c.WordCount,
				FormattedTimestamp: utils.FormatTimestamp(c.StartTime),
			})
		}
		log.WithFields(logrus.Fields{
			"batch": start/embedBatchSize + 1,
			"size":  len(batch),
		}).Debug("chunk batch embedded")
	}

	if err := s.vectors.ReplaceForVideo(ctx, videoID, vecs); err != nil {
		s.fail(ctx, videoID, CauseEmbeddingBuild)
		return utils.E(utils.CodeInternal, op, CauseEmbeddingBuild, err)
	}

	if err := s.tracker.Advance(ctx, videoID, models.StatusCompleted); err != nil {
		return utils.E(utils.CodeInternal, op, CauseRecordUpdate, err)
	}
	log.WithField("vectors", len(vecs)).Info("vector index completed")
	return nil
}

func (s *indexService) fail(ctx context.Context, videoID, cause string) {
	if err := s.tracker.Fail(ctx, videoID, cause); err != nil {
		s.log.WithField("video_id", videoID).WithError(err).Error("failed to record failure cause")
	}
}
