// Package player drives one playback at a time through the mixer and the
// sound device.
package player

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FalconNL93/DoorbellSvc/audio"
	"github.com/FalconNL93/DoorbellSvc/log"
	"github.com/FalconNL93/DoorbellSvc/wav"
)

// chunkBytes bounds each device write; one second of stereo S16LE at 48kHz.
const chunkBytes = 192000

var (
	// ErrBusy is a defined outcome, not a failure: a playback was already
	// in flight and the request did not ask to wait.
	ErrBusy = errors.New("busy")

	// ErrNotFound means the requested sound file does not exist.
	ErrNotFound = errors.New("sound not found")
)

// Config fixes the engine's directories and mixer control names.
type Config struct {
	SoundsDir string
	CacheDir  string
	// GainControl is the softvol element that carries the >100% stage.
	GainControl string
}

// Engine owns exclusive access to the device and mixer handles. Construct
// once at startup and share by reference; handles are never re-acquired
// per request.
type Engine struct {
	dev  audio.Player
	mix  audio.Mixer
	cfg  Config
	busy gate
}

func New(dev audio.Player, mix audio.Mixer, cfg Config) *Engine {
	if cfg.GainControl == "" {
		cfg.GainControl = "Doorbell"
	}
	return &Engine{dev: dev, mix: mix, cfg: cfg}
}

// PlaySound runs one playback to completion. Requests arriving while
// another play is in flight are rejected with ErrBusy unless they set
// Queue, in which case they wait their turn. The busy slot is released on
// every exit path.
func (e *Engine) PlaySound(req Request) error {
	req.Normalize()

	var release func()
	if req.Queue {
		release = e.busy.Acquire()
	} else {
		var ok bool
		release, ok = e.busy.TryAcquire()
		if !ok {
			return ErrBusy
		}
	}
	defer release()

	return e.play(req)
}

func (e *Engine) play(req Request) error {
	path := filepath.Join(e.cfg.SoundsDir, req.File)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, req.File)
	}

	// Non-WAV sources play through their prewarmed cache counterpart when
	// one exists; otherwise the original is parsed and rejected below.
	if ext := filepath.Ext(req.File); !strings.EqualFold(ext, ".wav") {
		cached := filepath.Join(e.cfg.CacheDir, strings.TrimSuffix(req.File, ext)+".wav")
		if _, err := os.Stat(cached); err == nil {
			path = cached
		}
	}

	hwPercent, gainDB := audio.MapVolume(req.Volume)
	e.mix.SetDecibels(e.cfg.GainControl, gainDB)
	e.mix.SetPercent("Master", hwPercent, true)
	e.mix.SetPercent("Speaker", hwPercent, true)
	defer func() {
		e.mix.Mute("Speaker")
		e.mix.Mute("Master")
	}()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}
	if fi.Size() > wav.MaxFileSize {
		return fmt.Errorf("%s: %w", filepath.Base(path), wav.ErrTooLarge)
	}

	payload, err := wav.Parse(f, fi.Size())
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if payload.Offset+payload.Length > fi.Size() {
		return fmt.Errorf("%s: %w", filepath.Base(path), wav.ErrTruncated)
	}

	delay := time.Duration(req.DelayMS) * time.Millisecond
	for i := 0; i < req.Repeat; i++ {
		if i > 0 && delay > 0 {
			time.Sleep(delay)
		}
		if err := e.stream(f, payload); err != nil {
			return err
		}
	}
	e.dev.Drain()

	log.PlayedSound(req.File, volumeLabel(hwPercent, gainDB), req.Repeat, req.DelayMS, e.dev.Name())
	return nil
}

// stream writes the payload to the device in bounded chunks, starting from
// the payload offset each time it is called.
func (e *Engine) stream(f *os.File, p wav.Payload) error {
	if _, err := f.Seek(p.Offset, io.SeekStart); err != nil {
		return fmt.Errorf("seeking payload: %w", err)
	}

	buf := make([]byte, chunkBytes)
	left := p.Length
	for left > 0 {
		n := int64(len(buf))
		if left < n {
			n = left
		}
		if _, err := io.ReadFull(f, buf[:n]); err != nil {
			return fmt.Errorf("reading payload: %w", err)
		}
		if err := e.dev.Write(buf[:n]); err != nil {
			return fmt.Errorf("device write: %w", err)
		}
		left -= n
	}
	return nil
}

func volumeLabel(hwPercent int, gainDB float64) string {
	if gainDB > 0 {
		return fmt.Sprintf("mixer %d%% + software %.1fdB", hwPercent, gainDB)
	}
	return fmt.Sprintf("%d%%", hwPercent)
}
