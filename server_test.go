package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FalconNL93/DoorbellSvc/audio"
	"github.com/FalconNL93/DoorbellSvc/player"
)

type stubTranscoder struct {
	mu    sync.Mutex
	calls int
}

func (s *stubTranscoder) Available() bool { return true }

func (s *stubTranscoder) Transcode(_ context.Context, _, dst string) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return os.WriteFile(dst, []byte("stub"), 0644)
}

type testServer struct {
	srv *server
	dev *audio.FakePlayer
	cfg config
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config{
		listen:    "127.0.0.1:0",
		soundsDir: t.TempDir(),
		cacheDir:  t.TempDir(),
		workers:   4,
		transcode: true,
	}

	dev := &audio.FakePlayer{}
	engine := player.New(dev, &audio.FakeMixer{}, player.Config{
		SoundsDir: cfg.soundsDir,
		CacheDir:  cfg.cacheDir,
	})

	srv := newServer(cfg, engine, &stubTranscoder{})
	require.NoError(t, srv.listen())
	go srv.serve()
	t.Cleanup(srv.shutdown)

	return &testServer{srv: srv, dev: dev, cfg: cfg}
}

func (ts *testServer) addSound(t *testing.T, name string) {
	t.Helper()
	buf := make([]byte, 44+1000)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+1000))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], 2)
	binary.LittleEndian.PutUint32(buf[24:28], 48000)
	binary.LittleEndian.PutUint32(buf[28:32], 48000*4)
	binary.LittleEndian.PutUint16(buf[32:34], 4)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], 1000)
	require.NoError(t, os.WriteFile(filepath.Join(ts.cfg.soundsDir, name), buf, 0644))
}

// roundTrip sends one raw payload and decodes the single-line response.
func (ts *testServer) roundTrip(t *testing.T, payload []byte) map[string]any {
	t.Helper()
	conn, err := net.Dial("tcp", ts.srv.addr())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(payload)
	require.NoError(t, err)

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(line, &resp))
	return resp
}

func (ts *testServer) send(t *testing.T, req map[string]any) map[string]any {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	return ts.roundTrip(t, payload)
}

func TestPing(t *testing.T) {
	ts := startTestServer(t)

	resp := ts.send(t, map[string]any{"cmd": "ping"})
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, float64(1), resp["pong"])
}

func TestPlayInvalidFileName(t *testing.T) {
	ts := startTestServer(t)

	for _, name := range []string{"../etc/passwd", "a/b.wav", "", strings.Repeat("x", 65)} {
		resp := ts.send(t, map[string]any{"cmd": "play", "file": name})
		assert.Equal(t, false, resp["ok"], "name %q", name)
		assert.Equal(t, "invalid file", resp["error"], "name %q", name)
	}
}

func TestPlayMissingFile(t *testing.T) {
	ts := startTestServer(t)

	resp := ts.send(t, map[string]any{"cmd": "play", "file": "ghost.wav"})
	assert.Equal(t, false, resp["ok"])
	assert.Equal(t, "not found", resp["error"])
}

func TestPlaySuccess(t *testing.T) {
	ts := startTestServer(t)
	ts.addSound(t, "ring.wav")

	resp := ts.send(t, map[string]any{"cmd": "play", "file": "ring.wav", "volume": 120, "repeat": 2})
	assert.Equal(t, true, resp["ok"])
	assert.Len(t, ts.dev.Written(), 2000)
}

func TestPlayBusyRejection(t *testing.T) {
	ts := startTestServer(t)
	ts.addSound(t, "ring.wav")
	ts.dev.SetWriteDelay(300 * time.Millisecond)

	results := make(chan string, 2)
	start := make(chan struct{})
	for i := 0; i < 2; i++ {
		go func() {
			<-start
			resp := ts.send(t, map[string]any{"cmd": "play", "file": "ring.wav"})
			if resp["ok"] == true {
				results <- "ok"
			} else {
				results <- resp["error"].(string)
			}
		}()
	}
	close(start)

	got := []string{<-results, <-results}
	assert.ElementsMatch(t, []string{"ok", "busy"}, got,
		"exactly one success and one busy rejection")
}

func TestOversizedRequest(t *testing.T) {
	ts := startTestServer(t)

	payload := append([]byte(`{"cmd":"`), bytes.Repeat([]byte("a"), maxRequestBytes)...)
	resp := ts.roundTrip(t, payload)
	assert.Equal(t, false, resp["ok"])
	assert.Equal(t, "request too large", resp["error"])
}

func TestMalformedJSON(t *testing.T) {
	ts := startTestServer(t)

	resp := ts.roundTrip(t, []byte("{nope"))
	assert.Equal(t, false, resp["ok"])
	assert.Equal(t, "bad request", resp["error"])
}

func TestUnknownCommand(t *testing.T) {
	ts := startTestServer(t)

	resp := ts.send(t, map[string]any{"cmd": "reboot"})
	assert.Equal(t, "unknown command", resp["error"])
}

func TestPrewarmCommand(t *testing.T) {
	ts := startTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(ts.cfg.soundsDir, "chime.mp3"), []byte("x"), 0644))

	resp := ts.send(t, map[string]any{"cmd": "prewarm"})
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, float64(1), resp["total"])
	assert.Equal(t, float64(1), resp["built"])

	// Second pass: everything up to date.
	resp = ts.send(t, map[string]any{"cmd": "prewarm"})
	assert.Equal(t, float64(1), resp["up_to_date"])
	assert.Equal(t, float64(0), resp["built"])
}

func TestPrewarmFFmpegDisabledByRequest(t *testing.T) {
	ts := startTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(ts.cfg.soundsDir, "chime.mp3"), []byte("x"), 0644))

	resp := ts.send(t, map[string]any{"cmd": "prewarm", "ffmpeg": 0})
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, float64(1), resp["failed"])
}

func TestIsSafeFileName(t *testing.T) {
	valid := []string{"ring.wav", "a", "door-bell_2.mp3", strings.Repeat("x", 64)}
	for _, name := range valid {
		if !IsSafeFileName(name) {
			t.Errorf("IsSafeFileName(%q) = false, want true", name)
		}
	}

	invalid := []string{"", "a/b", `a\b`, "../x", "ring.wav\n", "söund.wav", strings.Repeat("x", 65)}
	for _, name := range invalid {
		if IsSafeFileName(name) {
			t.Errorf("IsSafeFileName(%q) = true, want false", name)
		}
	}
}
