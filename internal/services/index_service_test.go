package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lectura-ai/backend/internal/models"
	"github.com/lectura-ai/backend/internal/utils"
)

func makeChunkRows(n int) []models.TranscriptChunk {
	rows := make([]models.TranscriptChunk, n)
	for i := range rows {
		rows[i] = models.TranscriptChunk{
			ID:         fmt.Sprintf("chunk-%d", i),
			VideoID:    "vid-1",
			Text:       fmt.Sprintf("chunk text %d", i),
			StartTime:  float64(i) * 10,
			EndTime:    float64(i)*10 + 10,
			ChunkIndex: i,
			WordCount:  3,
		}
	}
	return rows
}

func TestIndexEmbedsBatchesInOrderAndCompletes(t *testing.T) {
	var statuses []statusRecord
	videos := recordingVideoRepo(&statuses)

	chunks := &fakeChunkRepo{
		ListByVideoFn: func(_ context.Context, _ string) ([]models.TranscriptChunk, error) {
			return makeChunkRows(120), nil
		},
	}

	var batchSizes []int
	embedder := &fakeEmbedder{
		EmbedFn: func(_ context.Context, texts []string) ([][]float32, error) {
			batchSizes = append(batchSizes, len(texts))
			out := make([][]float32, len(texts))
			for i := range out {
				out[i] = []float32{1, 0, 0}
			}
			return out, nil
		},
	}

	var published []models.ChunkEmbedding
	vectors := &fakeVectorRepo{
		ReplaceForVideoFn: func(_ context.Context, videoID string, rows []models.ChunkEmbedding) error {
			if videoID != "vid-1" {
				t.Fatalf("replace for %q", videoID)
			}
			published = rows
			return nil
		},
	}

	svc := NewIndexService(NewStatusTracker(videos), chunks, vectors, embedder, testLogger())
	if err := svc.Index(context.Background(), "vid-1"); err != nil {
		t.Fatalf("Index: %v", err)
	}

	if len(batchSizes) != 3 || batchSizes[0] != 50 || batchSizes[1] != 50 || batchSizes[2] != 20 {
		t.Fatalf("batch sizes = %v, want [50 50 20]", batchSizes)
	}

	if len(published) != 120 {
		t.Fatalf("published %d vectors, want 120", len(published))
	}
	for i, v := range published {
		if v.ChunkIndex != i {
			t.Fatalf("vector %d has chunk index %d", i, v.ChunkIndex)
		}
		if v.ChunkID != fmt.Sprintf("chunk-%d", i) {
			t.Fatalf("vector %d references %q", i, v.ChunkID)
		}
		if v.ID == "" || v.VideoID != "vid-1" {
			t.Fatalf("vector %d missing identity: %+v", i, v)
		}
	}
	if published[0].FormattedTimestamp != "0:00" {
		t.Fatalf("formatted timestamp = %q, want 0:00", published[0].FormattedTimestamp)
	}
	if published[7].FormattedTimestamp != "1:10" {
		t.Fatalf("formatted timestamp = %q, want 1:10", published[7].FormattedTimestamp)
	}

	// The pipeline already set embedding; this run records completed
	// only.
	if len(statuses) != 1 || statuses[0].status != models.StatusCompleted {
		t.Fatalf("status updates = %+v, want single completed", statuses)
	}
}

func TestIndexSecondBatchFailureDoesNotPublish(t *testing.T) {
	var statuses []statusRecord
	videos := recordingVideoRepo(&statuses)

	chunks := &fakeChunkRepo{
		ListByVideoFn: func(_ context.Context, _ string) ([]models.TranscriptChunk, error) {
			return makeChunkRows(120), nil
		},
	}

	calls := 0
	embedder := &fakeEmbedder{
		EmbedFn: func(_ context.Context, texts []string) ([][]float32, error) {
			calls++
			if calls == 2 {
				return nil, errors.New("embedding backend down")
			}
			out := make([][]float32, len(texts))
			for i := range out {
				out[i] = []float32{1, 0, 0}
			}
			return out, nil
		},
	}

	replaced := false
	vectors := &fakeVectorRepo{
		ReplaceForVideoFn: func(_ context.Context, _ string, _ []models.ChunkEmbedding) error {
			replaced = true
			return nil
		},
	}

	svc := NewIndexService(NewStatusTracker(videos), chunks, vectors, embedder, testLogger())
	err := svc.Index(context.Background(), "vid-1")
	if !utils.IsCode(err, utils.CodeInternal) {
		t.Fatalf("err = %v, want INTERNAL", err)
	}
	if replaced {
		t.Fatal("vectors published despite embedding failure")
	}
	last := statuses[len(statuses)-1]
	if last.status != models.StatusFailed || last.cause != "embedding creation failed" {
		t.Fatalf("final status = %+v", last)
	}
}

func TestIndexNoChunks(t *testing.T) {
	var statuses []statusRecord
	videos := recordingVideoRepo(&statuses)

	svc := NewIndexService(NewStatusTracker(videos), &fakeChunkRepo{}, &fakeVectorRepo{}, &fakeEmbedder{}, testLogger())
	err := svc.Index(context.Background(), "vid-1")
	if err == nil {
		t.Fatal("expected error")
	}
	last := statuses[len(statuses)-1]
	if last.status != models.StatusFailed || last.cause != "no transcript chunks found" {
		t.Fatalf("final status = %+v", last)
	}
}

func TestIndexPublishFailure(t *testing.T) {
	var statuses []statusRecord
	videos := recordingVideoRepo(&statuses)

	chunks := &fakeChunkRepo{
		ListByVideoFn: func(_ context.Context, _ string) ([]models.TranscriptChunk, error) {
			return makeChunkRows(3), nil
		},
	}
	vectors := &fakeVectorRepo{
		ReplaceForVideoFn: func(_ context.Context, _ string, _ []models.ChunkEmbedding) error {
			return errors.New("insert failed")
		},
	}

	svc := NewIndexService(NewStatusTracker(videos), chunks, vectors, &fakeEmbedder{}, testLogger())
	err := svc.Index(context.Background(), "vid-1")
	if err == nil {
		t.Fatal("expected error")
	}
	last := statuses[len(statuses)-1]
	if last.status != models.StatusFailed || last.cause != "embedding creation failed" {
		t.Fatalf("final status = %+v", last)
	}
}
