package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// fakeTranscoder writes a marker file and counts invocations.
type fakeTranscoder struct {
	mu        sync.Mutex
	calls     int
	available bool
	fail      bool
}

func (f *fakeTranscoder) Available() bool { return f.available }

func (f *fakeTranscoder) Transcode(_ context.Context, src, dst string) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fail {
		return errors.New("fake transcode failure")
	}
	return os.WriteFile(dst, []byte("converted "+filepath.Base(src)), 0644)
}

func (f *fakeTranscoder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func dirs(t *testing.T) (sounds, cacheDir string) {
	t.Helper()
	return t.TempDir(), t.TempDir()
}

func addFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestPrewarmBuildsNonWavSources(t *testing.T) {
	sounds, cacheDir := dirs(t)
	addFile(t, sounds, "ring.mp3")
	addFile(t, sounds, "chime.ogg")
	addFile(t, sounds, "native.wav") // already playable, never a candidate

	tc := &fakeTranscoder{available: true}
	stats, err := Prewarm(context.Background(), sounds, cacheDir, tc, true)
	if err != nil {
		t.Fatal(err)
	}

	want := Stats{Total: 2, Built: 2}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	for _, name := range []string{"ring.wav", "chime.wav"} {
		if _, err := os.Stat(filepath.Join(cacheDir, name)); err != nil {
			t.Errorf("cache entry %s missing: %v", name, err)
		}
	}
}

func TestPrewarmIdempotent(t *testing.T) {
	sounds, cacheDir := dirs(t)
	addFile(t, sounds, "ring.mp3")

	tc := &fakeTranscoder{available: true}
	first, err := Prewarm(context.Background(), sounds, cacheDir, tc, true)
	if err != nil {
		t.Fatal(err)
	}
	if first.Built != 1 {
		t.Fatalf("first pass built = %d, want 1", first.Built)
	}

	second, err := Prewarm(context.Background(), sounds, cacheDir, tc, true)
	if err != nil {
		t.Fatal(err)
	}
	if second != (Stats{Total: 1, UpToDate: 1}) {
		t.Errorf("second pass stats = %+v, want all up-to-date", second)
	}
	if tc.Calls() != 1 {
		t.Errorf("transcoder ran %d times, want 1", tc.Calls())
	}
}

func TestPrewarmRebuildsStaleEntry(t *testing.T) {
	sounds, cacheDir := dirs(t)
	addFile(t, sounds, "ring.mp3")

	tc := &fakeTranscoder{available: true}
	if _, err := Prewarm(context.Background(), sounds, cacheDir, tc, true); err != nil {
		t.Fatal(err)
	}

	// Make the source newer than its cache entry.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(sounds, "ring.mp3"), future, future); err != nil {
		t.Fatal(err)
	}

	stats, err := Prewarm(context.Background(), sounds, cacheDir, tc, true)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Built != 1 {
		t.Errorf("stale entry not rebuilt, stats = %+v", stats)
	}
	if tc.Calls() != 2 {
		t.Errorf("transcoder ran %d times, want 2", tc.Calls())
	}
}

func TestPrewarmDisabledCountsFailed(t *testing.T) {
	sounds, cacheDir := dirs(t)
	addFile(t, sounds, "ring.mp3")

	tc := &fakeTranscoder{available: true}
	stats, err := Prewarm(context.Background(), sounds, cacheDir, tc, false)
	if err != nil {
		t.Fatal(err)
	}
	if stats != (Stats{Total: 1, Failed: 1}) {
		t.Errorf("stats = %+v, want 1 failed", stats)
	}
	if tc.Calls() != 0 {
		t.Errorf("transcoder ran while disabled")
	}
}

func TestPrewarmUnavailableTranscoder(t *testing.T) {
	sounds, cacheDir := dirs(t)
	addFile(t, sounds, "ring.mp3")

	tc := &fakeTranscoder{available: false}
	stats, err := Prewarm(context.Background(), sounds, cacheDir, tc, true)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Failed != 1 || tc.Calls() != 0 {
		t.Errorf("stats = %+v calls = %d, want skip without invocation", stats, tc.Calls())
	}
}

func TestPrewarmTranscodeFailure(t *testing.T) {
	sounds, cacheDir := dirs(t)
	addFile(t, sounds, "ring.mp3")
	addFile(t, sounds, "chime.ogg")

	tc := &fakeTranscoder{available: true, fail: true}
	stats, err := Prewarm(context.Background(), sounds, cacheDir, tc, true)
	if err != nil {
		t.Fatal(err)
	}
	if stats != (Stats{Total: 2, Failed: 2}) {
		t.Errorf("stats = %+v, want 2 failed", stats)
	}
}

func TestPrewarmMissingSoundsDir(t *testing.T) {
	if _, err := Prewarm(context.Background(), "/nonexistent-sounds", t.TempDir(), &fakeTranscoder{}, true); err == nil {
		t.Error("expected error for missing sounds directory")
	}
}

func TestWatchTriggersRescan(t *testing.T) {
	sounds, cacheDir := dirs(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tc := &fakeTranscoder{available: true}
	if err := Watch(ctx, sounds, cacheDir, tc, true); err != nil {
		t.Fatal(err)
	}

	addFile(t, sounds, "new.mp3")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if tc.Calls() > 0 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Error("watcher never triggered a rescan")
}
