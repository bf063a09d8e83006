package player

// Request limits. Defaults are applied at the wire boundary; the clamps
// here are the last line of defense before the hardware.
const (
	MaxVolume  = 200
	MaxRepeat  = 50
	MaxDelayMS = 60000

	DefaultVolume = 80
	DefaultRepeat = 1
)

// Request describes one playback. Immutable once constructed; consumed
// synchronously by the engine.
type Request struct {
	File    string
	Volume  int // 0-200, >100 engages the software gain stage
	Repeat  int // 1-50
	DelayMS int // pause between repeats
	Queue   bool
}

// Normalize clamps all numeric fields into their valid ranges.
func (r *Request) Normalize() {
	if r.Volume < 0 {
		r.Volume = 0
	}
	if r.Volume > MaxVolume {
		r.Volume = MaxVolume
	}
	if r.Repeat < 1 {
		r.Repeat = DefaultRepeat
	}
	if r.Repeat > MaxRepeat {
		r.Repeat = MaxRepeat
	}
	if r.DelayMS < 0 {
		r.DelayMS = 0
	}
	if r.DelayMS > MaxDelayMS {
		r.DelayMS = MaxDelayMS
	}
}
