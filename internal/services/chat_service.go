package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lectura-ai/backend/internal/cache"
	"github.com/lectura-ai/backend/internal/models"
	mongorepo "github.com/lectura-ai/backend/internal/repositories/mongo"
	pgrepo "github.com/lectura-ai/backend/internal/repositories/postgres"
	"github.com/lectura-ai/backend/internal/utils"
)

const (
	sessionHistoryWindow = 10
	defaultSearchLimit   = 10
	longLectureSeconds   = 3600
)

var notReadyMessages = map[models.ProcessingStatus]string{
	models.StatusUploading:    "Video is still being uploaded",
	models.StatusProcessing:   "Video is being processed",
	models.StatusTranscribing: "Video is being transcribed",
	models.StatusChunking:     "Transcript is being chunked",
	models.StatusEmbedding:    "Embeddings are being created",
	models.StatusFailed:       "Video processing failed",
}

var baseSuggestions = []string{
	"What are the main topics covered in this lecture?",
	"Can you summarize the key points?",
	"What examples were given to explain the concepts?",
	"What did the professor emphasize the most?",
	"Are there any important definitions I should know?",
	"What are the takeaways from this lecture?",
}

var longLectureSuggestions = []string{
	"What was discussed in the first hour?",
	"Can you summarize the second half of the lecture?",
	"What topics were covered around the middle of the lecture?",
}

// SessionReceipt is the response body for a created chat session.
type SessionReceipt struct {
	SessionID string `json:"session_id"`
	VideoID   string `json:"video_id"`
	Message   string `json:"message"`
}

// SuggestionList offers starter questions for a video.
type SuggestionList struct {
	VideoID     string   `json:"video_id"`
	Suggestions []string `json:"suggestions"`
	VideoTitle  string   `json:"video_title"`
	Duration    float64  `json:"duration"`
}

// SearchResult is one raw retrieval hit, without answer composition.
type SearchResult struct {
	Text           string  `json:"text"`
	Timestamp      string  `json:"timestamp"`
	StartTime      float64 `json:"start_time"`
	EndTime        float64 `json:"end_time"`
	RelevanceScore float64 `json:"relevance_score"`
}

// SearchResults is the response body for a transcript search.
type SearchResults struct {
	VideoID      string         `json:"video_id"`
	Query        string         `json:"query"`
	Results      []SearchResult `json:"results"`
	TotalResults int            `json:"total_results"`
}

// ChatService fronts the question answering surface: it gates on
// processing state, resolves conversation history, delegates to the
// answer composer, and maintains session transcripts.
type ChatService interface {
	Chat(ctx context.Context, videoID, question, sessionID string, history []models.ChatMessage) (*models.ChatAnswer, error)
	CreateSession(ctx context.Context, videoID string) (*SessionReceipt, error)
	SessionHistory(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error)
	Suggestions(ctx context.Context, videoID string) (*SuggestionList, error)
	Search(ctx context.Context, videoID, query string, limit int) (*SearchResults, error)
}

type chatService struct {
	videos    pgrepo.VideoRepository
	sessions  mongorepo.ChatSessionRepository
	retriever RetrieverService
	composer  AnswerService
	cache     cache.Cache
}

func NewChatService(
	videos pgrepo.VideoRepository,
	sessions mongorepo.ChatSessionRepository,
	retriever RetrieverService,
	composer AnswerService,
	cacheClient cache.Cache,
) ChatService {
	return &chatService{
		videos:    videos,
		sessions:  sessions,
		retriever: retriever,
		composer:  composer,
		cache:     cacheClient,
	}
}

// requireVideo loads the video or returns a not-found error with the
// API-visible message.
func (s *chatService) requireVideo(ctx context.Context, op, videoID string) (*models.Video, error) {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Video not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "Failed to load video", err)
	}
	return video, nil
}

func (s *chatService) Chat(ctx context.Context, videoID, question, sessionID string, history []models.ChatMessage) (*models.ChatAnswer, error) {
	const op = "ChatService.Chat"

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Question cannot be empty", nil)
	}

	video, err := s.requireVideo(ctx, op, videoID)
	if err != nil {
		return nil, err
	}
	if video.Status != models.StatusCompleted {
		msg, ok := notReadyMessages[video.Status]
		if !ok {
			msg = "Video is not ready for chat"
		}
		return nil, utils.E(utils.CodeInvalidArgument, op, msg+". Please wait for processing to complete.", nil)
	}

	// An explicit history from the client wins; otherwise the session's
	// recent turns are used when a session is named.
	if history == nil && sessionID != "" {
		stored, err := s.sessions.History(ctx, sessionID, sessionHistoryWindow)
		if err != nil && !errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeInternal, op, "Failed to process chat request", err)
		}
		history = stored
	}

	answer := s.composer.Answer(ctx, videoID, question, history)

	if sessionID != "" {
		now := time.Now().UTC()
		_ = s.sessions.AppendMessages(ctx, sessionID,
			models.ChatMessage{Role: "user", Content: question, Timestamp: now},
			models.ChatMessage{Role: "assistant", Content: answer.Answer, Timestamp: now},
		)
	}
	return answer, nil
}

func (s *chatService) CreateSession(ctx context.Context, videoID string) (*SessionReceipt, error) {
	const op = "ChatService.CreateSession"

	if _, err := s.requireVideo(ctx, op, videoID); err != nil {
		return nil, err
	}

	session := &models.ChatSession{
		SessionID: uuid.NewString(),
		VideoID:   videoID,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to create chat session", err)
	}

	return &SessionReceipt{
		SessionID: session.SessionID,
		VideoID:   videoID,
		Message:   "Chat session created successfully",
	}, nil
}

func (s *chatService) SessionHistory(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	const op = "ChatService.SessionHistory"

	msgs, err := s.sessions.History(ctx, sessionID, limit)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "Failed to load session history", err)
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	return msgs, nil
}

func (s *chatService) Suggestions(ctx context.Context, videoID string) (*SuggestionList, error) {
	const op = "ChatService.Suggestions"

	key := cache.SuggestionsKey(videoID)
	var cached SuggestionList
	if ok, _ := s.cache.GetJSON(ctx, key, &cached); ok {
		return &cached, nil
	}

	video, err := s.requireVideo(ctx, op, videoID)
	if err != nil {
		return nil, err
	}

	suggestions := make([]string, 0, len(baseSuggestions)+len(longLectureSuggestions))
	suggestions = append(suggestions, baseSuggestions...)
	if video.Duration > longLectureSeconds {
		suggestions = append(suggestions, longLectureSuggestions...)
	}

	title := video.Title
	if title == "" {
		title = video.Filename
	}

	list := &SuggestionList{
		VideoID:     videoID,
		Suggestions: suggestions,
		VideoTitle:  title,
		Duration:    video.Duration,
	}
	_ = s.cache.SetJSON(ctx, key, list, cache.SuggestionsTTL)
	return list, nil
}

func (s *chatService) Search(ctx context.Context, videoID, query string, limit int) (*SearchResults, error) {
	const op = "ChatService.Search"

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Query cannot be empty", nil)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	video, err := s.requireVideo(ctx, op, videoID)
	if err != nil {
		return nil, err
	}
	if video.Status != models.StatusCompleted {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Video processing not complete", nil)
	}

	chunks, err := s.retriever.Query(ctx, videoID, query, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to search video content", err)
	}

	results := make([]SearchResult, 0, len(chunks))
	for _, c := range chunks {
		results = append(results, SearchResult{
			Text:           c.Text,
			Timestamp:      c.FormattedTimestamp,
			StartTime:      c.StartTime,
			EndTime:        c.EndTime,
			RelevanceScore: c.RelevanceScore,
		})
	}

	return &SearchResults{
		VideoID:      videoID,
		Query:        query,
		Results:      results,
		TotalResults: len(results),
	}, nil
}
