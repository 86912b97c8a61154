package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// WhisperCLI shells out to Python's openai-whisper. The interpreter is
// probed once on first use; transcriptions are serialized because the
// model is CPU-bound.
type WhisperCLI struct {
	Python string
	Model  string

	checkOnce sync.Once
	checkErr  error
	mu        sync.Mutex
}

func NewWhisperCLI(python, model string) *WhisperCLI {
	if python == "" {
		python = "python3"
	}
	if model == "" {
		model = "base"
	}
	return &WhisperCLI{Python: python, Model: model}
}

func (w *WhisperCLI) Close() error { return nil }

// ensureAvailable verifies the whisper module can be imported. Probed
// without the caller's context so a canceled first request cannot pin
// a false negative.
func (w *WhisperCLI) ensureAvailable() error {
	w.checkOnce.Do(func() {
		out, err := exec.Command(w.Python, "-c", "import whisper").CombinedOutput()
		if err != nil {
			w.checkErr = fmt.Errorf("whisper unavailable: %v: %s", err, strings.TrimSpace(string(out)))
		}
	})
	return w.checkErr
}

func (w *WhisperCLI) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	if err := w.ensureAvailable(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	outDir, err := os.MkdirTemp("", "whisper-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(outDir)

	absPath, err := filepath.Abs(audioPath)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, w.Python, "-m", "whisper",
		absPath,
		"--model", w.Model,
		"--output_dir", outDir,
		"--output_format", "json",
		"--word_timestamps", "True",
		"--fp16", "False",
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("whisper failed: %v\nOutput: %s", err, string(out))
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	data, err := os.ReadFile(filepath.Join(outDir, base+".json"))
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}
	return ParseWhisperJSON(data)
}

// ParseWhisperJSON maps whisper's JSON output file onto a Result.
func ParseWhisperJSON(data []byte) (*Result, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}

	res := &Result{
		Text:     strings.TrimSpace(out.Text),
		Language: out.Language,
	}
	for _, s := range out.Segments {
		seg := Segment{Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)}
		for _, wd := range s.Words {
			seg.Words = append(seg.Words, Word{Start: wd.Start, End: wd.End, Word: strings.TrimSpace(wd.Word)})
		}
		res.Segments = append(res.Segments, seg)
	}
	return res, nil
}

// whisperOutput matches Python Whisper's JSON output format.
type whisperOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		ID    int     `json:"id"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
		Words []struct {
			Start float64 `json:"start"`
			End   float64 `json:"end"`
			Word  string  `json:"word"`
		} `json:"words"`
	} `json:"segments"`
}
