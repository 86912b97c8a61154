package media

import "context"

// Engine inspects uploaded videos and extracts their audio track.
type Engine interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
	ExtractAudio(ctx context.Context, videoPath, audioPath string) error
}
