package transcribe

import "context"

type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

// Segment is one timed span of transcribed speech, in source order.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

type Result struct {
	Text     string
	Language string
	Segments []Segment
}

// Provider turns an extracted audio file into timed transcript
// segments.
type Provider interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
	Close() error
}
