// Package doctor runs system diagnostics: microphone capture, clipboard
// round-trip, output directory, and backend reachability.
package doctor

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/atotto/clipboard"

	"tunedial/audio"
	"tunedial/encoder"
	"tunedial/recognizer"
)

// Run executes the checks and returns an exit code (0=all pass, 1=any fail).
func Run(backendURL, outputDir string) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("tunedial doctor - system diagnostics")
	fmt.Println("====================================")

	allPass := true
	if !checkMicrophone() {
		allPass = false
	}
	if !checkClipboard() {
		allPass = false
	}
	if !checkOutputDir(outputDir) {
		allPass = false
	}
	if !checkBackend(backendURL) {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkMicrophone() bool {
	fmt.Println()
	fmt.Println("[1/4] Microphone capture")

	actx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer actx.Close()

	devices, err := actx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no capture devices found")
		return false
	}
	fmt.Printf("Found %d capture device(s); using the system default.\n", len(devices))

	capture, err := actx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		fmt.Printf("  FAIL: cannot open capture device: %v\n", err)
		return false
	}
	defer capture.Close()

	var mu sync.Mutex
	var frames, samples uint64
	var sumSquares float64
	capture.SetCallback(func(data []byte, frameCount uint32) {
		mu.Lock()
		frames += uint64(frameCount)
		for i := 0; i+1 < len(data); i += 2 {
			s := float64(int16(binary.LittleEndian.Uint16(data[i:]))) / 32768.0
			sumSquares += s * s
		}
		samples += uint64(len(data) / 2)
		mu.Unlock()
	})

	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		fmt.Printf("  FAIL: cannot start capture: %v\n", err)
		return false
	}
	fmt.Println("Recording 1 second from the default device...")
	time.Sleep(time.Second)
	capture.Stop()
	capture.ClearCallback()

	mu.Lock()
	defer mu.Unlock()
	if frames == 0 {
		fmt.Println("  FAIL: no audio frames delivered")
		return false
	}
	rms := math.Sqrt(sumSquares / float64(samples))
	fmt.Printf("  PASS: %d frames captured (level %.3f)\n", frames, rms)
	if rms < 0.001 {
		fmt.Println("  WARN: input is silent; check the microphone")
	}
	return true
}

func checkClipboard() bool {
	fmt.Println()
	fmt.Println("[2/4] Clipboard round-trip")

	const probe = "tunedial-doctor-probe"
	prev, _ := clipboard.ReadAll()
	if err := clipboard.WriteAll(probe); err != nil {
		fmt.Printf("  FAIL: cannot write clipboard: %v\n", err)
		return false
	}
	got, err := clipboard.ReadAll()
	clipboard.WriteAll(prev)
	if err != nil {
		fmt.Printf("  FAIL: cannot read clipboard: %v\n", err)
		return false
	}
	if got != probe {
		fmt.Printf("  FAIL: clipboard read back %q\n", got)
		return false
	}
	fmt.Println("  PASS: clipboard works")
	return true
}

func checkOutputDir(dir string) bool {
	fmt.Println()
	fmt.Printf("[3/4] Output directory (%s)\n", dir)

	f, err := os.CreateTemp(dir, ".tunedial-doctor-*")
	if err != nil {
		fmt.Printf("  FAIL: not writable: %v\n", err)
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	fmt.Println("  PASS: writable")
	return true
}

func checkBackend(backendURL string) bool {
	fmt.Println()
	fmt.Printf("[4/4] Backend health (%s)\n", backendURL)

	client := recognizer.New(recognizer.Config{BaseURL: backendURL})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hs, err := client.Health(ctx)
	if err != nil {
		fmt.Printf("  FAIL: cannot reach backend: %v\n", err)
		return false
	}
	fmt.Printf("  PASS: status=%s database=%s audd=%s\n", hs.Status, hs.Database, hs.AuddAPI)
	if hs.Status != "healthy" {
		fmt.Println("  WARN: backend reports degraded status")
	}
	return true
}
