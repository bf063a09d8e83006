package audio

import "math"

// Tick synthesizes a short decaying sine burst as interleaved S16LE stereo
// at the stream rate. Used by the self-test to produce audible output
// without touching the sounds directory.
func Tick(freq, duration, volume, decay float64) []byte {
	n := int(float64(SampleRate) * duration)
	buf := make([]byte, n*FrameBytes)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(SampleRate)
		envelope := math.Exp(-t * decay)
		s := int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
		buf[i*4] = byte(s)
		buf[i*4+1] = byte(s >> 8)
		buf[i*4+2] = byte(s)
		buf[i*4+3] = byte(s >> 8)
	}
	return buf
}
