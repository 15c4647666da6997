package encoder

import "fmt"

const (
	SampleRate    = 44100
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Encoder accumulates PCM blocks and produces a complete audio object
// on Close. Bytes is only valid after Close.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
	Ext() string
	MIME() string
}

func New(format string) (Encoder, error) {
	switch format {
	case "wav":
		return NewWAV(), nil
	case "flac":
		return NewFlac()
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}
