// Package segmenter turns ordered transcription segments into transcript
// chunks. All strategies are pure functions: identical input always
// yields identical output.
package segmenter

import (
	"regexp"
	"strings"
)

// Segment is one transcription segment in source order.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Draft is a chunk boundary decision before normalization. Finalize
// assigns indexes and word counts.
type Draft struct {
	Text  string
	Start float64
	End   float64
}

// Chunk is a finalized draft: normalized text, contiguous 0-based
// index, word count computed from the normalized text.
type Chunk struct {
	Text      string
	Start     float64
	End       float64
	Index     int
	WordCount int
}

type Strategy string

const (
	StrategyTime    Strategy = "time"
	StrategyContent Strategy = "content"
	StrategyHybrid  Strategy = "hybrid"
)

const (
	// DefaultChunkDuration bounds time-based chunks when no window is
	// configured.
	DefaultChunkDuration = 90.0
	// DefaultMaxWords bounds content-based chunks when no cap is
	// configured.
	DefaultMaxWords = 150

	hybridWindow    = 120.0
	hybridThreshold = 200
	hybridMaxWords  = 150
)

var (
	sentenceEnd = regexp.MustCompile(`[.!?]+`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Options selects a strategy and its parameter. Zero values fall back
// to the defaults above; Hybrid ignores both parameters.
type Options struct {
	Strategy      Strategy
	ChunkDuration float64
	MaxWords      int
}

// Split chunks segments with the configured strategy and finalizes the
// result. Unknown strategies fall back to hybrid.
func Split(segments []Segment, opts Options) []Chunk {
	var drafts []Draft
	switch opts.Strategy {
	case StrategyTime:
		d := opts.ChunkDuration
		if d <= 0 {
			d = DefaultChunkDuration
		}
		drafts = ByTime(segments, d)
	case StrategyContent:
		w := opts.MaxWords
		if w <= 0 {
			w = DefaultMaxWords
		}
		drafts = ByContent(segments, w)
	default:
		drafts = Hybrid(segments)
	}
	return Finalize(drafts)
}

// ByTime accumulates consecutive segments until the next segment's end
// would put the chunk past chunkDuration. The chunk is closed only if
// it already holds text, so a single over-long segment still produces
// a chunk; the triggering segment seeds the next one.
func ByTime(segments []Segment, chunkDuration float64) []Draft {
	var out []Draft
	var cur Draft
	open := false

	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if !open {
			cur.Start = seg.Start
			open = true
		}
		if seg.End-cur.Start > chunkDuration && cur.Text != "" {
			out = append(out, cur)
			cur = Draft{Text: text, Start: seg.Start, End: seg.End}
		} else {
			if cur.Text != "" {
				cur.Text += " " + text
			} else {
				cur.Text = text
			}
			cur.End = seg.End
		}
	}
	if cur.Text != "" {
		out = append(out, cur)
	}
	return out
}

// ByContent accumulates segments until adding the next one would push
// the word count past maxWords. On overflow the accumulated text is
// split at sentence terminators: complete sentences stay in the closed
// chunk and the trailing fragment seeds the next chunk together with
// the new segment. Text with no terminator closes whole, so one
// segment above the cap passes through unsplit.
func ByContent(segments []Segment, maxWords int) []Draft {
	var out []Draft
	var cur Draft
	words := 0
	open := false

	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		segWords := len(strings.Fields(text))
		if !open {
			cur.Start = seg.Start
			open = true
		}
		if words+segWords > maxWords && cur.Text != "" {
			sentences := sentenceEnd.Split(cur.Text, -1)
			if len(sentences) > 1 {
				complete := strings.Join(sentences[:len(sentences)-1], ". ") + "."
				cur.Text = strings.TrimSpace(complete)
			}
			out = append(out, cur)

			remaining := ""
			if len(sentences) > 1 {
				remaining = strings.TrimSpace(sentences[len(sentences)-1])
			}
			if remaining != "" {
				seeded := remaining + " " + text
				cur = Draft{Text: seeded, Start: seg.Start, End: seg.End}
				words = len(strings.Fields(seeded))
			} else {
				cur = Draft{Text: text, Start: seg.Start, End: seg.End}
				words = segWords
			}
		} else {
			if cur.Text != "" {
				cur.Text += " " + text
			} else {
				cur.Text = text
			}
			cur.End = seg.End
			words += segWords
		}
	}
	if cur.Text != "" {
		out = append(out, cur)
	}
	return out
}

// Hybrid runs a time pass with a wide window, then re-splits any chunk
// above the word threshold content-wise, feeding it back as a single
// pseudo-segment spanning its original time range. Inner split times
// are therefore approximate.
func Hybrid(segments []Segment) []Draft {
	var out []Draft
	for _, c := range ByTime(segments, hybridWindow) {
		if len(strings.Fields(c.Text)) > hybridThreshold {
			pseudo := []Segment{{Start: c.Start, End: c.End, Text: c.Text}}
			out = append(out, ByContent(pseudo, hybridMaxWords)...)
		} else {
			out = append(out, c)
		}
	}
	return out
}

// Finalize normalizes draft text (whitespace collapsed, trimmed),
// drops empty drafts, and assigns contiguous indexes in output order.
func Finalize(drafts []Draft) []Chunk {
	out := make([]Chunk, 0, len(drafts))
	for _, d := range drafts {
		text := strings.TrimSpace(whitespace.ReplaceAllString(d.Text, " "))
		if text == "" {
			continue
		}
		out = append(out, Chunk{
			Text:      text,
			Start:     d.Start,
			End:       d.End,
			Index:     len(out),
			WordCount: len(strings.Fields(text)),
		})
	}
	return out
}
