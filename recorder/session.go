// Package recorder owns the microphone capture lifecycle: acquire the
// device, buffer PCM in arrival order, auto-stop after a fixed ceiling,
// and release the device exactly once on every terminating path.
package recorder

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"tunedial/audio"
	"tunedial/encoder"
)

// DefaultMaxDuration is the recording ceiling; the auto-stop timer
// fires when it elapses.
const DefaultMaxDuration = 15 * time.Second

type State int

const (
	StateIdle State = iota
	StateAcquiring
	StateRecording
	StateFinalizing
)

type StopReason int

const (
	StopManual StopReason = iota
	StopAuto
)

func (r StopReason) String() string {
	if r == StopAuto {
		return "auto"
	}
	return "manual"
}

// PermissionError means the microphone could not be acquired or
// started. Terminal for the attempt; nothing is retried.
type PermissionError struct {
	Err error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("microphone access denied: %v", e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// Clip is the finalized recording, already encoded for upload.
type Clip struct {
	Data     []byte
	Ext      string
	MIME     string
	Duration time.Duration
	Reason   StopReason
}

type Config struct {
	Device      *audio.DeviceInfo
	Format      string        // "wav" (default) or "flac"
	MaxDuration time.Duration // auto-stop ceiling; DefaultMaxDuration when zero
	OnLevel     func(rms float64)
}

// Session is a single recording attempt: Idle → Acquiring → Recording →
// Finalizing → Idle. Exactly one Clip is delivered on Done, by whichever
// of manual stop and auto-stop runs first.
type Session struct {
	actx audio.Context
	cfg  Config
	done chan Clip

	mu        sync.Mutex
	state     State
	capture   audio.CaptureDevice
	enc       encoder.Encoder
	sampleBuf []int16
	frames    uint64
	started   time.Time
	autoStop  *time.Timer
}

func NewSession(actx audio.Context, cfg Config) *Session {
	if cfg.Format == "" {
		cfg.Format = "wav"
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = DefaultMaxDuration
	}
	return &Session{actx: actx, cfg: cfg, done: make(chan Clip, 1)}
}

// Done yields the finalized clip. Nothing arrives if Start failed or
// the session was aborted.
func (s *Session) Done() <-chan Clip { return s.done }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRecording {
		return 0
	}
	return time.Since(s.started)
}

// Start acquires the microphone and begins buffering. Acquisition or
// start failure is a *PermissionError and returns the session to Idle
// with nothing held.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("recording session already active")
	}
	s.state = StateAcquiring
	s.mu.Unlock()

	enc, err := encoder.New(s.cfg.Format)
	if err != nil {
		s.setIdle()
		return err
	}

	capture, err := s.actx.NewCapture(s.cfg.Device, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		s.setIdle()
		return &PermissionError{Err: err}
	}

	// Buffering must be live before Start: some backends deliver the
	// first fragments synchronously from inside it.
	s.mu.Lock()
	s.enc = enc
	s.mu.Unlock()
	capture.SetCallback(s.feed)

	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		capture.Close() // acquired but never recording; still released
		s.mu.Lock()
		s.enc = nil
		s.state = StateIdle
		s.mu.Unlock()
		return &PermissionError{Err: err}
	}

	s.mu.Lock()
	s.capture = capture
	s.started = time.Now()
	s.state = StateRecording
	// Fires Stop unconditionally; Stop's idempotence guard absorbs the
	// call when a manual stop already won.
	s.autoStop = time.AfterFunc(s.cfg.MaxDuration, func() { s.Stop(StopAuto) })
	s.mu.Unlock()
	return nil
}

// Stop finalizes the recording. Idempotent: a no-op unless currently
// Recording, so manual stop, auto-stop, and teardown can race freely.
func (s *Session) Stop(reason StopReason) {
	capture, ok := s.beginFinalize()
	if !ok {
		return
	}

	// Release the device before closing the encoder: Stop returns only
	// after the data callback quiesces, so every fragment delivered in
	// emission order is buffered by the time finalization runs.
	capture.Stop()
	capture.ClearCallback()
	capture.Close()

	s.mu.Lock()
	if len(s.sampleBuf) > 0 {
		partial := make([]int16, len(s.sampleBuf))
		copy(partial, s.sampleBuf)
		s.sampleBuf = nil
		s.enc.EncodeBlock(partial)
	}
	s.enc.Close()
	clip := Clip{
		Data:     s.enc.Bytes(),
		Ext:      s.enc.Ext(),
		MIME:     s.enc.MIME(),
		Duration: time.Duration(float64(s.frames) / float64(encoder.SampleRate) * float64(time.Second)),
		Reason:   reason,
	}
	s.enc = nil
	s.state = StateIdle
	s.mu.Unlock()

	s.done <- clip
}

// Abort releases the device without delivering a clip. Teardown path.
func (s *Session) Abort() {
	capture, ok := s.beginFinalize()
	if !ok {
		return
	}
	capture.Stop()
	capture.ClearCallback()
	capture.Close()

	s.mu.Lock()
	s.enc = nil
	s.sampleBuf = nil
	s.state = StateIdle
	s.mu.Unlock()
}

// beginFinalize claims the Recording→Finalizing transition. Exactly one
// caller wins; it receives the capture handle and the duty to release it.
func (s *Session) beginFinalize() (audio.CaptureDevice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRecording {
		return nil, false
	}
	s.state = StateFinalizing
	if s.autoStop != nil {
		s.autoStop.Stop()
		s.autoStop = nil
	}
	capture := s.capture
	s.capture = nil
	return capture, true
}

func (s *Session) feed(data []byte, frameCount uint32) {
	s.mu.Lock()
	if s.enc == nil {
		s.mu.Unlock()
		return
	}
	for i := 0; i+1 < len(data); i += 2 {
		s.sampleBuf = append(s.sampleBuf, int16(binary.LittleEndian.Uint16(data[i:])))
	}
	for len(s.sampleBuf) >= encoder.BlockSize {
		block := make([]int16, encoder.BlockSize)
		copy(block, s.sampleBuf[:encoder.BlockSize])
		s.sampleBuf = s.sampleBuf[encoder.BlockSize:]
		s.enc.EncodeBlock(block)
	}
	s.frames += uint64(frameCount)
	onLevel := s.cfg.OnLevel
	s.mu.Unlock()

	if onLevel != nil && len(data) > 1 {
		onLevel(rms(data))
	}
}

func (s *Session) setIdle() {
	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
}

func rms(data []byte) float64 {
	var sumSquares float64
	for i := 0; i+1 < len(data); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(data[i:]))
		normalized := float64(sample) / 32768.0
		sumSquares += normalized * normalized
	}
	return math.Sqrt(sumSquares / float64(len(data)/2))
}
