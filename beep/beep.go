// Package beep plays short cues through the default output device.
// There is deliberately no cue at recording start: a tone played while
// the microphone is open would bleed into the capture and contaminate
// the fingerprint sample.
package beep

var disabled bool

func Disable() { disabled = true }

const (
	sampleRate = 44100

	// Recording finalized: medium pitch, short
	doneFreq   = 900
	doneVolume = 0.5
	doneDecay  = 40

	// Match found: high pitch
	matchFreq   = 1200
	matchVolume = 0.5
	matchDecay  = 60

	// Error / no match: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)
