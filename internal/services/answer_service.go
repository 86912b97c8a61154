package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lectura-ai/backend/internal/logger"
	"github.com/lectura-ai/backend/internal/models"
	"github.com/lectura-ai/backend/internal/providers/llm"
)

const (
	answerNoContext  = "I couldn't find relevant information in the lecture to answer your question. Please try rephrasing or asking about a different topic."
	answerEngineDown = "I'm experiencing technical difficulties. Please try again later."
	answerEmptyReply = "I'm unable to generate a response at the moment."

	maxConfidence = 0.95
	historyWindow = 5
)

const answerPrompt = `You are an AI teaching assistant helping students understand lecture content. Based on the provided lecture transcript excerpts, answer the student's question accurately and helpfully.

Lecture Context:
%s

%s

Student Question: %s

Instructions:
1. Answer based ONLY on the information provided in the lecture context
2. If the question cannot be answered from the context, say so politely
3. Include relevant timestamps in your response when referring to specific parts
4. Be educational and explain concepts clearly
5. If you reference specific quotes or examples, mention the timestamp
6. Keep responses focused and concise but thorough

Answer:`

// AnswerService composes grounded answers from retrieved chunks and the
// generation engine. It is total: retrieval or engine trouble degrades
// to a fixed fallback answer instead of an error, so callers always get
// a response payload.
type AnswerService interface {
	Answer(ctx context.Context, videoID, question string, history []models.ChatMessage) *models.ChatAnswer
}

type answerService struct {
	retriever RetrieverService
	engine    llm.Provider
	log       *logrus.Logger
	topK      int
}

// NewAnswerService wires retrieval and generation. engine may be nil,
// in which case every answer takes the technical-difficulties fallback.
// topK <= 0 falls back to DefaultTopK.
func NewAnswerService(retriever RetrieverService, engine llm.Provider, log *logrus.Logger, topK int) AnswerService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &answerService{retriever: retriever, engine: engine, log: log, topK: topK}
}

func (s *answerService) Answer(ctx context.Context, videoID, question string, history []models.ChatMessage) *models.ChatAnswer {
	start := time.Now()
	log := logger.Component(s.log, "answer").WithField("video_id", videoID)

	chunks, err := s.retriever.Query(ctx, videoID, question, s.topK)
	if err != nil {
		log.WithError(err).Warn("retrieval failed, answering without context")
		chunks = nil
	}
	if len(chunks) == 0 {
		return &models.ChatAnswer{
			Answer:          answerNoContext,
			RelevantChunks:  []models.RelevantChunk{},
			VideoID:         videoID,
			ConfidenceScore: 0,
			ProcessingTime:  time.Since(start).Seconds(),
		}
	}

	prompt := fmt.Sprintf(answerPrompt, buildContext(chunks), previousBlock(history), question)

	if s.engine == nil {
		return s.degraded(videoID, chunks, start)
	}
	text, err := s.engine.Generate(ctx, prompt)
	if err != nil {
		log.WithError(err).Error("generation failed")
		return s.degraded(videoID, chunks, start)
	}

	answer := strings.TrimSpace(text)
	if answer == "" {
		answer = answerEmptyReply
	}

	return &models.ChatAnswer{
		Answer:          answer,
		RelevantChunks:  chunks,
		VideoID:         videoID,
		ConfidenceScore: confidence(chunks),
		ProcessingTime:  time.Since(start).Seconds(),
	}
}

func (s *answerService) degraded(videoID string, chunks []models.RelevantChunk, start time.Time) *models.ChatAnswer {
	return &models.ChatAnswer{
		Answer:          answerEngineDown,
		RelevantChunks:  chunks,
		VideoID:         videoID,
		ConfidenceScore: 0,
		ProcessingTime:  time.Since(start).Seconds(),
	}
}

// buildContext renders retrieved chunks as timestamped excerpts in
// retrieval order.
func buildContext(chunks []models.RelevantChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, fmt.Sprintf("[%s] %s", c.FormattedTimestamp, c.Text))
	}
	return strings.Join(parts, "\n\n")
}

// previousBlock renders the last few conversation turns, or nothing
// when there is no history.
func previousBlock(history []models.ChatMessage) string {
	if len(history) == 0 {
		return ""
	}
	recent := history
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}
	parts := make([]string, 0, len(recent))
	for _, m := range recent {
		role := "Assistant"
		if m.Role == "user" {
			role = "Human"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", role, m.Content))
	}
	return "Previous Conversation:" + strings.Join(parts, "\n")
}

// confidence is the mean relevance of the context, capped below full
// certainty.
func confidence(chunks []models.RelevantChunk) float64 {
	var sum float64
	for _, c := range chunks {
		sum += c.RelevanceScore
	}
	avg := sum / float64(len(chunks))
	if avg > maxConfidence {
		return maxConfidence
	}
	return avg
}
