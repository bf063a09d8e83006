package cache

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// FFmpeg shells out to the ffmpeg binary for transcoding. Availability is
// probed once at construction; a daemon without ffmpeg still serves plays,
// it just cannot build cache entries.
type FFmpeg struct {
	bin string
}

func NewFFmpeg() *FFmpeg {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return &FFmpeg{}
	}
	return &FFmpeg{bin: path}
}

func (f *FFmpeg) Available() bool {
	return f.bin != ""
}

// Transcode converts src into a 48kHz stereo S16LE WAV at dst. Failure is
// classified purely by the process exit status.
func (f *FFmpeg) Transcode(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, f.bin,
		"-y",
		"-i", src,
		"-acodec", "pcm_s16le",
		"-ar", "48000",
		"-ac", "2",
		"-f", "wav",
		dst,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg %s: %w: %s", filepath.Base(src), err, lastLine(&stderr))
	}
	return nil
}

func lastLine(buf *bytes.Buffer) string {
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
