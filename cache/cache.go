// Package cache keeps a playback-ready WAV counterpart for every non-WAV
// sound file. Validity is recomputed from filesystem metadata on each pass;
// no entry state is kept in memory.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FalconNL93/DoorbellSvc/log"
)

const transcodeTimeout = 2 * time.Minute

// Stats aggregates one prewarm pass.
type Stats struct {
	Total    int
	Built    int
	UpToDate int
	Failed   int
}

// Transcoder converts a source sound file into the fixed playback format.
type Transcoder interface {
	Available() bool
	Transcode(ctx context.Context, src, dst string) error
}

// Prewarm walks soundsDir and rebuilds every cache entry whose WAV is
// missing or older than its source. Idempotent: a second pass with no
// source changes reclassifies everything as up-to-date and converts
// nothing.
func Prewarm(ctx context.Context, soundsDir, cacheDir string, tc Transcoder, enabled bool) (Stats, error) {
	var stats Stats

	entries, err := os.ReadDir(soundsDir)
	if err != nil {
		return stats, fmt.Errorf("reading sounds directory: %w", err)
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return stats, fmt.Errorf("creating cache directory: %w", err)
	}

	canTranscode := enabled && tc != nil && tc.Available()

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if strings.EqualFold(ext, ".wav") {
			continue
		}
		stats.Total++

		src := filepath.Join(soundsDir, name)
		dst := filepath.Join(cacheDir, strings.TrimSuffix(name, ext)+".wav")

		if upToDate(src, dst) {
			stats.UpToDate++
			continue
		}

		if !canTranscode {
			log.Warnf("skipping %s: transcoding unavailable", name)
			stats.Failed++
			continue
		}

		tcCtx, cancel := context.WithTimeout(ctx, transcodeTimeout)
		err := tc.Transcode(tcCtx, src, dst)
		cancel()
		if err != nil {
			log.Errorf("transcoding %s: %v", name, err)
			stats.Failed++
			continue
		}
		stats.Built++
	}

	log.PrewarmStats(stats.Total, stats.Built, stats.UpToDate, stats.Failed)
	return stats, nil
}

// upToDate reports whether dst exists and is at least as new as src.
func upToDate(src, dst string) bool {
	di, err := os.Stat(dst)
	if err != nil {
		return false
	}
	si, err := os.Stat(src)
	if err != nil {
		return false
	}
	return !di.ModTime().Before(si.ModTime())
}
