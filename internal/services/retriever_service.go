package services

import (
	"context"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/lectura-ai/backend/internal/models"
	"github.com/lectura-ai/backend/internal/providers/embedding"
	pgrepo "github.com/lectura-ai/backend/internal/repositories/postgres"
	"github.com/lectura-ai/backend/internal/utils"
)

// DefaultTopK bounds retrieval when the caller does not ask for a
// specific result count.
const DefaultTopK = 5

// RetrieverService finds the transcript chunks most similar to a
// question. A video with no index, or no matches, yields an empty
// slice rather than an error.
type RetrieverService interface {
	Query(ctx context.Context, videoID, question string, topK int) ([]models.RelevantChunk, error)
}

type retrieverService struct {
	vectors  pgrepo.VectorRepository
	embedder embedding.Provider
}

func NewRetrieverService(vectors pgrepo.VectorRepository, embedder embedding.Provider) RetrieverService {
	return &retrieverService{vectors: vectors, embedder: embedder}
}

func (s *retrieverService) Query(ctx context.Context, videoID, question string, topK int) ([]models.RelevantChunk, error) {
	const op = "RetrieverService.Query"

	if strings.TrimSpace(question) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "question is required", nil)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	embs, err := s.embedder.Embed(ctx, []string{question})
	if err != nil || len(embs) != 1 {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to embed question", err)
	}

	hits, err := s.vectors.Search(ctx, videoID, pgvector.NewVector(embs[0]), topK)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "vector search failed", err)
	}

	out := make([]models.RelevantChunk, 0, len(hits))
	for _, h := range hits {
		// Cosine distance is non-negative, so similarity only needs the
		// lower clamp.
		score := 1 - h.Distance
		if score < 0 {
			score = 0
		}
		out = append(out, models.RelevantChunk{
			ChunkID:            h.ChunkID,
			Text:               h.Text,
			StartTime:          h.StartTime,
			EndTime:            h.EndTime,
			RelevanceScore:     score,
			FormattedTimestamp: h.FormattedTimestamp,
		})
	}
	return out, nil
}
