// Package wav locates the PCM payload inside a RIFF/WAVE container.
//
// Sound files are the only untrusted byte input the daemon reads, so every
// offset derived from declared chunk lengths is checked against the actual
// stream length before it is used.
package wav

import (
	"encoding/binary"
	"errors"
	"io"
)

const (
	// MaxFileSize caps how large a container the daemon is willing to play.
	MaxFileSize = 25 * 1024 * 1024

	// minHeaderSize is the canonical RIFF + fmt + data header length.
	minHeaderSize = 44

	riffHeaderSize  = 12
	chunkHeaderSize = 8
)

var (
	ErrTooShort  = errors.New("wav: stream shorter than minimal header")
	ErrNotRIFF   = errors.New("wav: missing RIFF magic")
	ErrNotWave   = errors.New("wav: missing WAVE magic")
	ErrNoData    = errors.New("wav: no data chunk")
	ErrTruncated = errors.New("wav: chunk extends past end of stream")
	ErrTooLarge  = errors.New("wav: file exceeds size limit")
)

// Payload identifies the raw PCM samples inside a parsed container.
// It is recomputed for every play; the file on disk is the cache unit,
// never the parsed result.
type Payload struct {
	Offset int64
	Length int64
}

// Parse walks the chunk list of r, which must be size bytes long, and
// returns the byte range of the data chunk. The walk makes no assumption
// about chunk order; it ends on the first data chunk, on truncation, or at
// end of stream.
func Parse(r io.ReadSeeker, size int64) (Payload, error) {
	if size < minHeaderSize {
		return Payload{}, ErrTooShort
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Payload{}, err
	}
	var hdr [riffHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Payload{}, ErrTooShort
	}
	if string(hdr[0:4]) != "RIFF" {
		return Payload{}, ErrNotRIFF
	}
	if string(hdr[8:12]) != "WAVE" {
		return Payload{}, ErrNotWave
	}

	pos := int64(riffHeaderSize)
	var ch [chunkHeaderSize]byte
	for pos+chunkHeaderSize <= size {
		if _, err := r.Seek(pos, io.SeekStart); err != nil {
			return Payload{}, err
		}
		if _, err := io.ReadFull(r, ch[:]); err != nil {
			return Payload{}, ErrTruncated
		}

		length := int64(binary.LittleEndian.Uint32(ch[4:8]))
		dataStart := pos + chunkHeaderSize
		dataEnd := dataStart + length
		if dataEnd > size {
			return Payload{}, ErrTruncated
		}

		if string(ch[0:4]) == "data" {
			if size > MaxFileSize {
				return Payload{}, ErrTooLarge
			}
			return Payload{Offset: dataStart, Length: length}, nil
		}
		pos = dataEnd
	}
	return Payload{}, ErrNoData
}
