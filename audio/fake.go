package audio

import (
	"fmt"
	"sync"
	"time"
)

// FakePlayer records writes for tests. An optional per-write delay lets
// tests hold the busy gate long enough to race a second request against it,
// and FailWrites injects device errors.
type FakePlayer struct {
	mu         sync.Mutex
	written    []byte
	writeCalls int
	failWrites int
	delay      time.Duration
}

func (f *FakePlayer) SetWriteDelay(d time.Duration) {
	f.mu.Lock()
	f.delay = d
	f.mu.Unlock()
}

// FailWrites makes the next n writes return an error.
func (f *FakePlayer) FailWrites(n int) {
	f.mu.Lock()
	f.failWrites = n
	f.mu.Unlock()
}

func (f *FakePlayer) Write(buf []byte) error {
	if len(buf) < FrameBytes {
		return nil
	}
	f.mu.Lock()
	delay := f.delay
	fail := f.failWrites > 0
	if fail {
		f.failWrites--
	} else {
		f.written = append(f.written, buf...)
		f.writeCalls++
	}
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fail {
		return fmt.Errorf("fake write failure")
	}
	return nil
}

func (f *FakePlayer) Drain() error { return nil }
func (f *FakePlayer) Close() error { return nil }
func (f *FakePlayer) Name() string { return "fake" }

func (f *FakePlayer) Written() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]byte, len(f.written))
	copy(out, f.written)
	return out
}

func (f *FakePlayer) WriteCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeCalls
}

// FakeMixer records mixer operations in call order.
type FakeMixer struct {
	mu    sync.Mutex
	calls []string
}

func (f *FakeMixer) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *FakeMixer) SetPercent(control string, percent int, unmute bool) {
	f.record(fmt.Sprintf("percent %s %d unmute=%v", control, percent, unmute))
}

func (f *FakeMixer) SetDecibels(control string, db float64) {
	f.record(fmt.Sprintf("db %s %.2f", control, db))
}

func (f *FakeMixer) Mute(control string) {
	f.record("mute " + control)
}

func (f *FakeMixer) Close() error { return nil }

func (f *FakeMixer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}
