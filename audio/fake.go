package audio

import (
	"sync"
	"time"
)

const fakeChunkBytes = 2048 // 1024 frames of 16-bit mono

// FakeContext is a Context backed by canned PCM, for tests. Each capture
// replays the PCM through its callback after Start, then feeds silence
// until stopped.
type FakeContext struct {
	pcm []byte

	// FailCapture makes NewCapture fail, simulating a device that
	// cannot be acquired.
	FailCapture error
	// FailStart makes CaptureDevice.Start fail after acquisition.
	FailStart error

	mu       sync.Mutex
	captures []*FakeCapture
}

func NewFakeContext(pcm []byte) *FakeContext {
	return &FakeContext{pcm: pcm}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake0", Name: "fake"}}, nil
}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	if f.FailCapture != nil {
		return nil, f.FailCapture
	}
	c := &FakeCapture{pcm: f.pcm, failStart: f.FailStart}
	f.mu.Lock()
	f.captures = append(f.captures, c)
	f.mu.Unlock()
	return c, nil
}

func (f *FakeContext) Close() {}

// Captures returns every capture handed out so far, for release checks.
func (f *FakeContext) Captures() []*FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*FakeCapture, len(f.captures))
	copy(out, f.captures)
	return out
}

type FakeCapture struct {
	pcm       []byte
	failStart error

	mu       sync.Mutex
	cb       DataCallback
	stopCh   chan struct{}
	feedDone chan struct{}
	starts   int
	stops    int
	closes   int
}

func (c *FakeCapture) SetCallback(cb DataCallback) {
	c.mu.Lock()
	c.cb = cb
	c.mu.Unlock()
}

func (c *FakeCapture) ClearCallback() {
	c.mu.Lock()
	c.cb = nil
	c.mu.Unlock()
}

func (c *FakeCapture) DeviceName() string { return "fake" }

func (c *FakeCapture) Start() error {
	if c.failStart != nil {
		return c.failStart
	}
	c.mu.Lock()
	c.starts++
	c.stopCh = make(chan struct{})
	c.feedDone = make(chan struct{})
	cb := c.cb
	c.mu.Unlock()

	// Replay canned PCM synchronously, in order.
	if cb != nil {
		for pos := 0; pos < len(c.pcm); {
			end := min(pos+fakeChunkBytes, len(c.pcm))
			chunk := make([]byte, end-pos)
			copy(chunk, c.pcm[pos:end])
			cb(chunk, uint32(len(chunk)/2))
			pos = end
		}
	}

	// Then silence, like an open mic in a quiet room.
	go func() {
		defer close(c.feedDone)
		silence := make([]byte, fakeChunkBytes)
		for {
			select {
			case <-c.stopCh:
				return
			case <-time.After(time.Millisecond):
			}
			c.mu.Lock()
			cb := c.cb
			c.mu.Unlock()
			if cb != nil {
				cb(silence, fakeChunkBytes/2)
			}
		}
	}()

	return nil
}

func (c *FakeCapture) Stop() {
	c.mu.Lock()
	c.stops++
	stopCh, feedDone := c.stopCh, c.feedDone
	c.mu.Unlock()
	if stopCh == nil {
		return
	}
	select {
	case <-stopCh:
	default:
		close(stopCh)
	}
	<-feedDone
}

func (c *FakeCapture) Close() {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
}

func (c *FakeCapture) StopCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops
}

func (c *FakeCapture) CloseCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}
