package main

import (
	"fmt"

	"github.com/FalconNL93/DoorbellSvc/audio"
)

// runSelfTest plays a short synthesized tick through the real device at the
// default volume, exercising the mixer path without touching the sounds
// directory.
func runSelfTest(dev audio.Player, mix audio.Mixer) error {
	hwPercent, gainDB := audio.MapVolume(80)
	mix.SetDecibels("Doorbell", gainDB)
	mix.SetPercent("Master", hwPercent, true)
	mix.SetPercent("Speaker", hwPercent, true)
	defer func() {
		mix.Mute("Speaker")
		mix.Mute("Master")
	}()

	tick := audio.Tick(880, 0.4, 0.5, 8)
	if err := dev.Write(tick); err != nil {
		return fmt.Errorf("writing tone: %w", err)
	}
	if err := dev.Drain(); err != nil {
		return fmt.Errorf("draining: %w", err)
	}
	return nil
}
