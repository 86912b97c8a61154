package transcribe

import (
	"context"
	"os"
	"strings"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

// GoogleSpeech transcribes extracted audio with Cloud Speech-to-Text.
// The client is dialed on first use so the service can boot without
// Google credentials when another provider is selected.
type GoogleSpeech struct {
	Language     string
	SampleRateHz int32

	initOnce sync.Once
	initErr  error
	c        *speech.Client
}

func NewGoogleSpeech(language string) *GoogleSpeech {
	if language == "" {
		language = "en-US"
	}
	return &GoogleSpeech{Language: language, SampleRateHz: 16000}
}

func (g *GoogleSpeech) client(ctx context.Context) (*speech.Client, error) {
	g.initOnce.Do(func() {
		g.c, g.initErr = speech.NewClient(ctx)
	})
	return g.c, g.initErr
}

func (g *GoogleSpeech) Close() error {
	if g.c != nil {
		return g.c.Close()
	}
	return nil
}

func (g *GoogleSpeech) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	c, err := g.client(ctx)
	if err != nil {
		return nil, err
	}

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, err
	}

	op, err := c.LongRunningRecognize(ctx, &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            g.SampleRateHz,
			LanguageCode:               g.Language,
			EnableAutomaticPunctuation: true,
			EnableWordTimeOffsets:      true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return nil, err
	}
	resp, err := op.Wait(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{Language: g.Language}
	var texts []string
	var lastEnd float64
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		text := strings.TrimSpace(alt.Transcript)
		if text == "" {
			continue
		}

		seg := Segment{Start: lastEnd, Text: text}
		if n := len(alt.Words); n > 0 {
			seg.Start = alt.Words[0].StartTime.AsDuration().Seconds()
			seg.End = alt.Words[n-1].EndTime.AsDuration().Seconds()
			for _, w := range alt.Words {
				seg.Words = append(seg.Words, Word{
					Start: w.StartTime.AsDuration().Seconds(),
					End:   w.EndTime.AsDuration().Seconds(),
					Word:  w.Word,
				})
			}
		} else if r.ResultEndTime != nil {
			seg.End = r.ResultEndTime.AsDuration().Seconds()
		}
		lastEnd = seg.End

		res.Segments = append(res.Segments, seg)
		texts = append(texts, text)
	}
	res.Text = strings.Join(texts, " ")
	return res, nil
}
