package audio

import (
	"fmt"
	"math"

	"github.com/gen2brain/alsa"
)

// Softvol controls expose a raw step range that spans a fixed dB window;
// these match the asound.conf the installer ships (min_dB -51, max_dB 6).
const (
	softvolMinDB = -51.0
	softvolMaxDB = 6.0
)

// AlsaMixer adjusts controls on one card's control interface. One instance
// exists per process, attached to the same card as the playback device.
type AlsaMixer struct {
	mixer *alsa.Mixer
}

// OpenMixer attaches to the card's control interface. An error here is
// fatal at startup.
func OpenMixer(card int) (*AlsaMixer, error) {
	m, err := alsa.MixerOpen(uint(card))
	if err != nil {
		return nil, fmt.Errorf("opening mixer for card %d: %w", card, err)
	}
	return &AlsaMixer{mixer: m}, nil
}

// volumeCtl resolves the playback volume element for a control base name.
// Softvol elements register under their bare name, card controls under
// "<name> Playback Volume"; try the long form first.
func (m *AlsaMixer) volumeCtl(name string) *alsa.MixerCtl {
	if ctl, err := m.mixer.CtlByName(name + " Playback Volume"); err == nil {
		return ctl
	}
	if ctl, err := m.mixer.CtlByName(name); err == nil {
		return ctl
	}
	return nil
}

func (m *AlsaMixer) switchCtl(name string) *alsa.MixerCtl {
	ctl, err := m.mixer.CtlByName(name + " Playback Switch")
	if err != nil {
		return nil
	}
	return ctl
}

func setAll(ctl *alsa.MixerCtl, value int) {
	for i := uint(0); i < uint(ctl.NumValues()); i++ {
		ctl.SetValue(i, value)
	}
}

// SetPercent maps percent linearly onto the control's raw range and applies
// it to every channel. Controls the card does not expose are skipped.
func (m *AlsaMixer) SetPercent(name string, percent int, unmute bool) {
	ctl := m.volumeCtl(name)
	if ctl == nil {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	lo, _ := ctl.RangeMin()
	hi, _ := ctl.RangeMax()
	setAll(ctl, lo+(hi-lo)*percent/100)

	if unmute {
		if sw := m.switchCtl(name); sw != nil {
			setAll(sw, 1)
		}
	}
}

// SetDecibels applies a gain to a softvol-style control, rounding to the
// control's raw step granularity and clamping to its dB window.
func (m *AlsaMixer) SetDecibels(name string, db float64) {
	ctl := m.volumeCtl(name)
	if ctl == nil {
		return
	}
	if db < softvolMinDB {
		db = softvolMinDB
	}
	if db > softvolMaxDB {
		db = softvolMaxDB
	}
	lo, _ := ctl.RangeMin()
	hi, _ := ctl.RangeMax()
	span := softvolMaxDB - softvolMinDB
	raw := lo + int(math.Round((db-softvolMinDB)/span*float64(hi-lo)))
	if raw < lo {
		raw = lo
	}
	if raw > hi {
		raw = hi
	}
	setAll(ctl, raw)
}

// Mute flips the playback switch off and drops the volume to minimum.
// The volume drop covers cards whose controls have no switch.
func (m *AlsaMixer) Mute(name string) {
	if sw := m.switchCtl(name); sw != nil {
		setAll(sw, 0)
	}
	if ctl := m.volumeCtl(name); ctl != nil {
		lo, _ := ctl.RangeMin()
		setAll(ctl, lo)
	}
}

func (m *AlsaMixer) Close() error {
	return m.mixer.Close()
}
