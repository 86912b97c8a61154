package media

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpeg shells out to ffmpeg/ffprobe. Zero-value fields fall back to
// binaries on PATH and 16kHz mono output.
type FFmpeg struct {
	FFmpegBin  string
	FFprobeBin string
	SampleRate int
}

func NewFFmpeg() *FFmpeg {
	return &FFmpeg{FFmpegBin: "ffmpeg", FFprobeBin: "ffprobe", SampleRate: 16000}
}

func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) (float64, error) {
	bin := f.FFprobeBin
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %v", err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration: %w", err)
	}
	return dur, nil
}

func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath, audioPath string) error {
	bin := f.FFmpegBin
	if bin == "" {
		bin = "ffmpeg"
	}
	rate := f.SampleRate
	if rate <= 0 {
		rate = 16000
	}
	cmd := exec.CommandContext(ctx, bin,
		"-i", videoPath,
		"-ar", strconv.Itoa(rate), // sample rate
		"-ac", "1", // mono
		"-c:a", "pcm_s16le", // 16-bit PCM
		"-y", // overwrite output
		audioPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %v\nOutput: %s", err, string(out))
	}
	return nil
}
