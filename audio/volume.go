package audio

import "math"

// MaxGainDB caps the software gain stage. Anything above this clips on
// typical doorbell speakers.
const MaxGainDB = 6.0

// MapVolume splits a 0-200 volume request across the hardware mixer and the
// software gain stage. Up to 100 the hardware mixer alone covers it; beyond
// unity the mixer pins at 100 and the remainder becomes positive softvol
// gain, capped at MaxGainDB.
func MapVolume(percent int) (hwPercent int, gainDB float64) {
	if percent < 0 {
		percent = 0
	}
	if percent > 200 {
		percent = 200
	}
	if percent <= 100 {
		return percent, 0
	}
	db := 20 * math.Log10(float64(percent)/100)
	if db > MaxGainDB {
		db = MaxGainDB
	}
	return 100, db
}
