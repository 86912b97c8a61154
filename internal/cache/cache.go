package cache

import (
	"context"
	"fmt"
	"time"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Cache TTLs. Detail entries are only written once a video reaches a
// terminal status, so the TTL just bounds staleness after out-of-band
// changes.
const (
	VideoDetailTTL = 5 * time.Minute
	SuggestionsTTL = 10 * time.Minute
)

func VideoDetailKey(videoID string) string {
	return fmt.Sprintf("video:%s:detail", videoID)
}

func SuggestionsKey(videoID string) string {
	return fmt.Sprintf("video:%s:suggestions", videoID)
}

// InvalidateVideo drops every cached entry for a video. Called on
// delete and whenever a processing run finishes.
func InvalidateVideo(ctx context.Context, c Cache, videoID string) error {
	if c == nil {
		return nil
	}
	return c.Del(ctx, VideoDetailKey(videoID), SuggestionsKey(videoID))
}
