package encoder

import (
	"encoding/binary"
	"testing"
)

func TestWAVHeader(t *testing.T) {
	enc := NewWAV()

	block := make([]int16, BlockSize)
	for i := range block {
		block[i] = int16(i % 500)
	}
	if err := enc.EncodeBlock(block); err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	out := enc.Bytes()
	wantLen := wavHeaderSize + len(block)*2
	if len(out) != wantLen {
		t.Fatalf("len(Bytes()) = %d, want %d", len(out), wantLen)
	}

	if string(out[0:4]) != "RIFF" || string(out[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE magic")
	}
	if got := binary.LittleEndian.Uint32(out[4:8]); got != uint32(36+len(block)*2) {
		t.Errorf("chunk size = %d, want %d", got, 36+len(block)*2)
	}
	if got := binary.LittleEndian.Uint32(out[24:28]); got != SampleRate {
		t.Errorf("sample rate = %d, want %d", got, SampleRate)
	}
	if got := binary.LittleEndian.Uint16(out[22:24]); got != Channels {
		t.Errorf("channels = %d, want %d", got, Channels)
	}
	if got := binary.LittleEndian.Uint32(out[40:44]); got != uint32(len(block)*2) {
		t.Errorf("data size = %d, want %d", got, len(block)*2)
	}

	// Sample payload survives untouched.
	if got := int16(binary.LittleEndian.Uint16(out[wavHeaderSize+2*7:])); got != block[7] {
		t.Errorf("sample 7 = %d, want %d", got, block[7])
	}
}

func TestWAVEmpty(t *testing.T) {
	enc := NewWAV()
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if enc.TotalFrames() != 0 {
		t.Errorf("TotalFrames = %d, want 0", enc.TotalFrames())
	}
	if len(enc.Bytes()) != wavHeaderSize {
		t.Errorf("len(Bytes()) = %d, want header only (%d)", len(enc.Bytes()), wavHeaderSize)
	}
}

func TestWAVCloseIdempotent(t *testing.T) {
	enc := NewWAV()
	if err := enc.EncodeBlock([]int16{1, 2, 3}); err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	first := len(enc.Bytes())
	if err := enc.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if len(enc.Bytes()) != first {
		t.Error("second Close changed output")
	}
}

func TestNewByFormat(t *testing.T) {
	for _, tt := range []struct {
		format  string
		wantExt string
	}{
		{"wav", "wav"},
		{"flac", "flac"},
	} {
		t.Run(tt.format, func(t *testing.T) {
			enc, err := New(tt.format)
			if err != nil {
				t.Fatalf("New(%q): %v", tt.format, err)
			}
			if enc.Ext() != tt.wantExt {
				t.Errorf("Ext() = %q, want %q", enc.Ext(), tt.wantExt)
			}
		})
	}
	t.Run("unknown", func(t *testing.T) {
		if _, err := New("mp3"); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}
