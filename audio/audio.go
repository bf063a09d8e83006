// Package audio owns the ALSA playback device and mixer. The engine talks
// to both through the narrow Player and Mixer interfaces so its logic can be
// exercised against fakes without sound hardware.
package audio

// Fixed stream format. Everything the daemon plays is transcoded to this
// shape ahead of time.
const (
	SampleRate     = 48000
	ChannelCount   = 2
	BytesPerSample = 2
	FrameBytes     = ChannelCount * BytesPerSample
)

// Player is the playback surface the engine needs: write interleaved
// S16LE frames, drain, close.
type Player interface {
	// Write streams a buffer of interleaved frames. A buffer holding less
	// than one frame is a no-op.
	Write(buf []byte) error
	Drain() error
	Close() error
	// Name reports the device string actually opened, for log lines.
	Name() string
}

// Mixer adjusts named controls on one sound card. Operations on controls
// the card does not expose are silent no-ops; not every card has every
// control.
type Mixer interface {
	// SetPercent maps percent (0-100) linearly onto the control's raw
	// volume range, optionally flipping its playback switch on.
	SetPercent(control string, percent int, unmute bool)
	// SetDecibels applies a gain in dB to a softvol-style control.
	SetDecibels(control string, db float64)
	// Mute flips the playback switch off and drops the volume to the
	// control's minimum, for cards whose controls have no switch.
	Mute(control string)
	Close() error
}
