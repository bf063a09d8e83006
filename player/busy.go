package player

import "sync"

// gate serializes access to the playback hardware: at most one holder at
// any instant. Both paths hand back a release that is safe to call more
// than once and must run on every exit path.
type gate struct {
	mu sync.Mutex
}

// TryAcquire claims the gate without waiting. ok is false when a playback
// is already in flight.
func (g *gate) TryAcquire() (release func(), ok bool) {
	if !g.mu.TryLock() {
		return nil, false
	}
	return g.releaseFunc(), true
}

// Acquire waits for the current playback to finish, then claims the gate.
func (g *gate) Acquire() (release func()) {
	g.mu.Lock()
	return g.releaseFunc()
}

func (g *gate) releaseFunc() func() {
	var once sync.Once
	return func() {
		once.Do(g.mu.Unlock)
	}
}
