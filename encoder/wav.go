package encoder

import (
	"bytes"
	"encoding/binary"
	"sync"
)

const wavHeaderSize = 44

// WAVEncoder buffers PCM S16LE mono samples and emits a RIFF/WAVE
// object with the chunk sizes fixed up on Close.
type WAVEncoder struct {
	mu          sync.Mutex
	data        bytes.Buffer
	out         []byte
	totalFrames uint64
	closed      bool
}

func NewWAV() *WAVEncoder {
	return &WAVEncoder{}
}

func (e *WAVEncoder) EncodeBlock(block []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	raw := make([]byte, len(block)*2)
	for i, s := range block {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}
	e.data.Write(raw)
	e.totalFrames += uint64(len(block))
	return nil
}

func (e *WAVEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	dataSize := uint32(e.data.Len())
	header := make([]byte, wavHeaderSize)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(header[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(header[22:24], Channels)
	binary.LittleEndian.PutUint32(header[24:28], SampleRate)
	binary.LittleEndian.PutUint32(header[28:32], SampleRate*Channels*BitsPerSample/8)
	binary.LittleEndian.PutUint16(header[32:34], Channels*BitsPerSample/8)
	binary.LittleEndian.PutUint16(header[34:36], BitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	e.out = append(header, e.data.Bytes()...)
	return nil
}

func (e *WAVEncoder) Bytes() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.out
}

func (e *WAVEncoder) TotalFrames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalFrames
}

func (e *WAVEncoder) Ext() string { return "wav" }

func (e *WAVEncoder) MIME() string { return "audio/wav" }
