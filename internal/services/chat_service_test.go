package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lectura-ai/backend/internal/models"
	"github.com/lectura-ai/backend/internal/utils"
)

func videoRepoWithStatus(status models.ProcessingStatus, duration float64) *fakeVideoRepo {
	return &fakeVideoRepo{
		GetByIDFn: func(_ context.Context, id string) (*models.Video, error) {
			return &models.Video{
				ID:       id,
				Title:    "Set Theory 101",
				Filename: "set-theory.mp4",
				Duration: duration,
				Status:   status,
			}, nil
		},
	}
}

func newChatService(videos *fakeVideoRepo, sessions *fakeSessionRepo, retriever RetrieverService, composer AnswerService, c *fakeCache) ChatService {
	if sessions == nil {
		sessions = &fakeSessionRepo{}
	}
	if retriever == nil {
		retriever = &fakeRetriever{}
	}
	if composer == nil {
		composer = &fakeComposer{}
	}
	if c == nil {
		c = &fakeCache{}
	}
	return NewChatService(videos, sessions, retriever, composer, c)
}

func TestChatRejectsWhenNotReady(t *testing.T) {
	tests := []struct {
		status models.ProcessingStatus
		want   string
	}{
		{models.StatusUploading, "Video is still being uploaded. Please wait for processing to complete."},
		{models.StatusProcessing, "Video is being processed. Please wait for processing to complete."},
		{models.StatusTranscribing, "Video is being transcribed. Please wait for processing to complete."},
		{models.StatusChunking, "Transcript is being chunked. Please wait for processing to complete."},
		{models.StatusEmbedding, "Embeddings are being created. Please wait for processing to complete."},
		{models.StatusFailed, "Video processing failed. Please wait for processing to complete."},
		{models.ProcessingStatus("archived"), "Video is not ready for chat. Please wait for processing to complete."},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			svc := newChatService(videoRepoWithStatus(tt.status, 100), nil, nil, nil, nil)
			_, err := svc.Chat(context.Background(), "vid-1", "what is a set?", "", nil)
			if !utils.IsCode(err, utils.CodeInvalidArgument) {
				t.Fatalf("err = %v, want INVALID_ARGUMENT", err)
			}
			var ae *utils.AppError
			if !errors.As(err, &ae) {
				t.Fatalf("err = %T", err)
			}
			if ae.Message != tt.want {
				t.Fatalf("message = %q, want %q", ae.Message, tt.want)
			}
		})
	}
}

func TestChatVideoNotFound(t *testing.T) {
	svc := newChatService(&fakeVideoRepo{}, nil, nil, nil, nil)
	_, err := svc.Chat(context.Background(), "missing", "q", "", nil)
	if !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestChatRejectsEmptyQuestion(t *testing.T) {
	svc := newChatService(videoRepoWithStatus(models.StatusCompleted, 100), nil, nil, nil, nil)
	_, err := svc.Chat(context.Background(), "vid-1", "   ", "", nil)
	if !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("err = %v, want INVALID_ARGUMENT", err)
	}
}

func TestChatUsesSessionHistoryAndAppendsTurns(t *testing.T) {
	stored := []models.ChatMessage{
		{Role: "user", Content: "earlier question", Timestamp: time.Now().UTC()},
		{Role: "assistant", Content: "earlier answer", Timestamp: time.Now().UTC()},
	}

	var historyLimit int
	sessions := &fakeSessionRepo{
		HistoryFn: func(_ context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
			if sessionID != "sess-1" {
				t.Fatalf("history for %q", sessionID)
			}
			historyLimit = limit
			return stored, nil
		},
	}
	var appended []models.ChatMessage
	sessions.AppendMessagesFn = func(_ context.Context, sessionID string, msgs ...models.ChatMessage) error {
		if sessionID != "sess-1" {
			t.Fatalf("append to %q", sessionID)
		}
		appended = append(appended, msgs...)
		return nil
	}

	var composerHistory []models.ChatMessage
	composer := &fakeComposer{
		AnswerFn: func(_ context.Context, videoID, question string, history []models.ChatMessage) *models.ChatAnswer {
			composerHistory = history
			return &models.ChatAnswer{Answer: "the answer", VideoID: videoID, RelevantChunks: []models.RelevantChunk{}}
		},
	}

	svc := newChatService(videoRepoWithStatus(models.StatusCompleted, 100), sessions, nil, composer, nil)
	answer, err := svc.Chat(context.Background(), "vid-1", "next question", "sess-1", nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if answer.Answer != "the answer" {
		t.Fatalf("answer = %q", answer.Answer)
	}

	if historyLimit != sessionHistoryWindow {
		t.Fatalf("history limit = %d, want %d", historyLimit, sessionHistoryWindow)
	}
	if len(composerHistory) != 2 || composerHistory[0].Content != "earlier question" {
		t.Fatalf("composer history = %+v", composerHistory)
	}

	if len(appended) != 2 {
		t.Fatalf("appended %d messages, want 2", len(appended))
	}
	if appended[0].Role != "user" || appended[0].Content != "next question" {
		t.Fatalf("appended[0] = %+v", appended[0])
	}
	if appended[1].Role != "assistant" || appended[1].Content != "the answer" {
		t.Fatalf("appended[1] = %+v", appended[1])
	}
}

func TestChatExplicitHistoryWins(t *testing.T) {
	historyCalled := false
	sessions := &fakeSessionRepo{
		HistoryFn: func(_ context.Context, _ string, _ int) ([]models.ChatMessage, error) {
			historyCalled = true
			return nil, nil
		},
	}

	explicit := []models.ChatMessage{{Role: "user", Content: "from the client"}}
	var composerHistory []models.ChatMessage
	composer := &fakeComposer{
		AnswerFn: func(_ context.Context, videoID, _ string, history []models.ChatMessage) *models.ChatAnswer {
			composerHistory = history
			return &models.ChatAnswer{Answer: "ok", VideoID: videoID}
		},
	}

	svc := newChatService(videoRepoWithStatus(models.StatusCompleted, 100), sessions, nil, composer, nil)
	if _, err := svc.Chat(context.Background(), "vid-1", "q", "sess-1", explicit); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if historyCalled {
		t.Fatal("session history loaded despite explicit history")
	}
	if len(composerHistory) != 1 || composerHistory[0].Content != "from the client" {
		t.Fatalf("composer history = %+v", composerHistory)
	}
}

func TestChatUnknownSessionTreatedAsEmptyHistory(t *testing.T) {
	var composerHistory []models.ChatMessage
	composer := &fakeComposer{
		AnswerFn: func(_ context.Context, videoID, _ string, history []models.ChatMessage) *models.ChatAnswer {
			composerHistory = history
			return &models.ChatAnswer{Answer: "ok", VideoID: videoID}
		},
	}

	// Default fake session repo returns not-found for History.
	svc := newChatService(videoRepoWithStatus(models.StatusCompleted, 100), &fakeSessionRepo{}, nil, composer, nil)
	if _, err := svc.Chat(context.Background(), "vid-1", "q", "unknown-session", nil); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if len(composerHistory) != 0 {
		t.Fatalf("composer history = %+v, want empty", composerHistory)
	}
}

func TestChatWithoutSessionSkipsAppend(t *testing.T) {
	appendCalled := false
	sessions := &fakeSessionRepo{
		AppendMessagesFn: func(_ context.Context, _ string, _ ...models.ChatMessage) error {
			appendCalled = true
			return nil
		},
	}

	svc := newChatService(videoRepoWithStatus(models.StatusCompleted, 100), sessions, nil, nil, nil)
	if _, err := svc.Chat(context.Background(), "vid-1", "q", "", nil); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if appendCalled {
		t.Fatal("messages appended without a session")
	}
}

func TestCreateSession(t *testing.T) {
	var created *models.ChatSession
	sessions := &fakeSessionRepo{
		CreateFn: func(_ context.Context, s *models.ChatSession) error {
			created = s
			return nil
		},
	}

	svc := newChatService(videoRepoWithStatus(models.StatusCompleted, 100), sessions, nil, nil, nil)
	receipt, err := svc.CreateSession(context.Background(), "vid-1")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if created == nil || created.VideoID != "vid-1" || created.SessionID == "" {
		t.Fatalf("created = %+v", created)
	}
	if receipt.SessionID != created.SessionID || receipt.VideoID != "vid-1" {
		t.Fatalf("receipt = %+v", receipt)
	}
	if receipt.Message != "Chat session created successfully" {
		t.Fatalf("message = %q", receipt.Message)
	}
}

func TestCreateSessionVideoNotFound(t *testing.T) {
	svc := newChatService(&fakeVideoRepo{}, nil, nil, nil, nil)
	_, err := svc.CreateSession(context.Background(), "missing")
	if !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestSuggestionsShortLecture(t *testing.T) {
	var cachedKey string
	c := &fakeCache{
		SetJSONFn: func(_ context.Context, key string, _ any, _ time.Duration) error {
			cachedKey = key
			return nil
		},
	}

	svc := newChatService(videoRepoWithStatus(models.StatusCompleted, 1800), nil, nil, nil, c)
	list, err := svc.Suggestions(context.Background(), "vid-1")
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if len(list.Suggestions) != 6 {
		t.Fatalf("got %d suggestions, want 6", len(list.Suggestions))
	}
	if list.VideoTitle != "Set Theory 101" {
		t.Fatalf("title = %q", list.VideoTitle)
	}
	if list.Duration != 1800 {
		t.Fatalf("duration = %v", list.Duration)
	}
	if cachedKey == "" {
		t.Fatal("suggestions not cached")
	}
}

func TestSuggestionsLongLectureAddsTimeBased(t *testing.T) {
	svc := newChatService(videoRepoWithStatus(models.StatusCompleted, 7200), nil, nil, nil, nil)
	list, err := svc.Suggestions(context.Background(), "vid-1")
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if len(list.Suggestions) != 9 {
		t.Fatalf("got %d suggestions, want 9", len(list.Suggestions))
	}
	last := list.Suggestions[len(list.Suggestions)-1]
	if last != "What topics were covered around the middle of the lecture?" {
		t.Fatalf("last suggestion = %q", last)
	}
}

func TestSuggestionsTitleFallsBackToFilename(t *testing.T) {
	videos := &fakeVideoRepo{
		GetByIDFn: func(_ context.Context, id string) (*models.Video, error) {
			return &models.Video{ID: id, Filename: "set-theory.mp4", Duration: 100, Status: models.StatusCompleted}, nil
		},
	}

	svc := newChatService(videos, nil, nil, nil, nil)
	list, err := svc.Suggestions(context.Background(), "vid-1")
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if list.VideoTitle != "set-theory.mp4" {
		t.Fatalf("title = %q", list.VideoTitle)
	}
}

func TestSuggestionsServedFromCache(t *testing.T) {
	repoCalls := 0
	videos := &fakeVideoRepo{
		GetByIDFn: func(_ context.Context, id string) (*models.Video, error) {
			repoCalls++
			return &models.Video{ID: id, Status: models.StatusCompleted}, nil
		},
	}
	c := &fakeCache{
		GetJSONFn: func(_ context.Context, _ string, dst any) (bool, error) {
			list := dst.(*SuggestionList)
			list.VideoID = "vid-1"
			list.Suggestions = []string{"cached"}
			return true, nil
		},
	}

	svc := newChatService(videos, nil, nil, nil, c)
	list, err := svc.Suggestions(context.Background(), "vid-1")
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if len(list.Suggestions) != 1 || list.Suggestions[0] != "cached" {
		t.Fatalf("list = %+v", list)
	}
	if repoCalls != 0 {
		t.Fatalf("repo called %d times on cache hit", repoCalls)
	}
}

func TestSearchRequiresCompletedVideo(t *testing.T) {
	svc := newChatService(videoRepoWithStatus(models.StatusEmbedding, 100), nil, nil, nil, nil)
	_, err := svc.Search(context.Background(), "vid-1", "sets", 10)
	if !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("err = %v, want INVALID_ARGUMENT", err)
	}
	var ae *utils.AppError
	if errors.As(err, &ae) && ae.Message != "Video processing not complete" {
		t.Fatalf("message = %q", ae.Message)
	}
}

func TestSearchMapsRetrievedChunks(t *testing.T) {
	var gotLimit int
	retriever := &fakeRetriever{
		QueryFn: func(_ context.Context, _, query string, topK int) ([]models.RelevantChunk, error) {
			if query != "subset relation" {
				t.Fatalf("query = %q", query)
			}
			gotLimit = topK
			return []models.RelevantChunk{
				{ChunkID: "c1", Text: "first", StartTime: 5, EndTime: 10, RelevanceScore: 0.9, FormattedTimestamp: "0:05"},
				{ChunkID: "c2", Text: "second", StartTime: 65, EndTime: 70, RelevanceScore: 0.4, FormattedTimestamp: "1:05"},
			}, nil
		},
	}

	svc := newChatService(videoRepoWithStatus(models.StatusCompleted, 100), nil, retriever, nil, nil)
	results, err := svc.Search(context.Background(), "vid-1", "subset relation", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotLimit != defaultSearchLimit {
		t.Fatalf("limit = %d, want %d", gotLimit, defaultSearchLimit)
	}
	if results.TotalResults != 2 || len(results.Results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	first := results.Results[0]
	if first.Text != "first" || first.Timestamp != "0:05" || first.StartTime != 5 {
		t.Fatalf("first = %+v", first)
	}
	if results.VideoID != "vid-1" || results.Query != "subset relation" {
		t.Fatalf("envelope = %+v", results)
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	svc := newChatService(videoRepoWithStatus(models.StatusCompleted, 100), nil, nil, nil, nil)
	_, err := svc.Search(context.Background(), "vid-1", "  ", 10)
	if !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("err = %v, want INVALID_ARGUMENT", err)
	}
}
