package log

import (
	"sync/atomic"
	"time"
)

// The played-sound stream goes through a bounded queue drained by one
// background goroutine so producers never block the audio path. When the
// queue is full the producer falls back to a blocking send: a stall is
// preferable to silently dropping a play record.
const queueCapacity = 8192

type playedEvent struct {
	File    string
	Volume  string
	Repeat  int
	DelayMS int
	Device  string
}

var (
	events     chan playedEvent
	writerQuit chan struct{}
	writerDone chan struct{}
	accepting  atomic.Bool
)

func startWriter() {
	events = make(chan playedEvent, queueCapacity)
	writerQuit = make(chan struct{})
	writerDone = make(chan struct{})
	accepting.Store(true)
	go writerLoop()
}

func writerLoop() {
	defer close(writerDone)
	for {
		select {
		case ev := <-events:
			writePlayed(ev)
		case <-writerQuit:
			for {
				select {
				case ev := <-events:
					writePlayed(ev)
				default:
					return
				}
			}
		}
	}
}

func writePlayed(ev playedEvent) {
	playedLog.Info().
		Str("file", ev.File).
		Str("volume", ev.Volume).
		Int("repeat", ev.Repeat).
		Int("delay_ms", ev.DelayMS).
		Str("device", ev.Device).
		Msg("played")
}

// PlayedSound records one completed playback.
func PlayedSound(file, volume string, repeat, delayMS int, device string) {
	if !logReady || !accepting.Load() {
		return
	}
	ev := playedEvent{File: file, Volume: volume, Repeat: repeat, DelayMS: delayMS, Device: device}
	select {
	case events <- ev:
	default:
		select {
		case events <- ev:
		case <-writerQuit:
		}
	}
}

// Drain stops accepting new events, signals the writer to flush the queue
// and waits for it up to timeout. Call before Close.
func Drain(timeout time.Duration) {
	if !accepting.Swap(false) {
		return
	}
	close(writerQuit)
	select {
	case <-writerDone:
	case <-time.After(timeout):
	}
}
