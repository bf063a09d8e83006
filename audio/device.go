package audio

import (
	"fmt"

	"github.com/gen2brain/alsa"
)

// 4 periods of 600 frames = 2400 frames buffered = 50ms at 48kHz.
const (
	periodSize  = 600
	periodCount = 4
)

// Device wraps one open ALSA playback stream. Exactly one exists for the
// process lifetime; it is never written to concurrently (the engine's busy
// gate guarantees that).
type Device struct {
	pcm  *alsa.PCM
	name string
}

func streamConfig() *alsa.Config {
	return &alsa.Config{
		Channels:    ChannelCount,
		Rate:        SampleRate,
		PeriodSize:  periodSize,
		PeriodCount: periodCount,
		Format:      alsa.SNDRV_PCM_FORMAT_S16_LE,
	}
}

// OpenDevice opens the configured device by name, falling back to the raw
// hardware device of card when that fails. An error here is fatal to the
// daemon; there is no degraded no-audio mode.
func OpenDevice(name string, card int) (*Device, error) {
	cfg := streamConfig()

	pcm, err := alsa.PcmOpenByName(name, alsa.PCM_OUT, cfg)
	if err != nil {
		hw := fmt.Sprintf("hw:%d,0", card)
		pcm, err = alsa.PcmOpenByName(hw, alsa.PCM_OUT, cfg)
		if err != nil {
			return nil, fmt.Errorf("opening %q and fallback %q: %w", name, hw, err)
		}
		name = hw
	}
	if !pcm.IsReady() {
		pcm.Close()
		return nil, fmt.Errorf("device %q opened but not ready", name)
	}
	if err := pcm.Prepare(); err != nil {
		pcm.Close()
		return nil, fmt.Errorf("preparing %q: %w", name, err)
	}
	return &Device{pcm: pcm, name: name}, nil
}

// Write streams interleaved S16LE frames. On a write error (typically an
// underrun) the stream is re-prepared and the write retried exactly once;
// a second failure propagates.
func (d *Device) Write(buf []byte) error {
	frames := len(buf) / FrameBytes
	if frames == 0 {
		return nil
	}
	if _, err := d.pcm.Write(buf); err != nil {
		if perr := d.pcm.Prepare(); perr != nil {
			return fmt.Errorf("preparing after write error: %w", perr)
		}
		if _, err = d.pcm.Write(buf); err != nil {
			return fmt.Errorf("writing %d frames: %w", frames, err)
		}
	}
	return nil
}

// Drain blocks until buffered audio has been played out.
func (d *Device) Drain() error {
	return d.pcm.Drain()
}

// Close drains pending audio, then releases the stream.
func (d *Device) Close() error {
	d.pcm.Drain()
	return d.pcm.Close()
}

func (d *Device) Name() string {
	return d.name
}
