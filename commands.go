package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tunedial/recognizer"
	"tunedial/recorder"
)

// Every dispatched request carries the generation it was submitted
// under; responses tagged with a stale generation are discarded.
type recognitionDoneMsg struct {
	gen    int
	source string // "file", "url", or "recording"
	result *recognizer.RecognitionResult
	err    error
}

type extractionDoneMsg struct {
	gen    int
	result *recognizer.ExtractionResult
	err    error
}

type recordingStartedMsg struct{}

type recordingFailedMsg struct{ err error }

type clipMsg struct{ clip recorder.Clip }

type levelMsg struct{ level float64 }

type healthMsg struct {
	health *recognizer.HealthStatus
	err    error
}

type tickMsg time.Time

func uiTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func recognizeFileCmd(client *recognizer.Client, gen int, path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return recognitionDoneMsg{gen: gen, source: "file", err: fmt.Errorf("could not read %s: %w", filepath.Base(path), err)}
		}
		result, err := client.RecognizeFile(context.Background(), filepath.Base(path), data)
		return recognitionDoneMsg{gen: gen, source: "file", result: result, err: err}
	}
}

func recognizeClipCmd(client *recognizer.Client, gen int, clip recorder.Clip) tea.Cmd {
	return func() tea.Msg {
		result, err := client.RecognizeFile(context.Background(), "recording."+clip.Ext, clip.Data)
		return recognitionDoneMsg{gen: gen, source: "recording", result: result, err: err}
	}
}

func recognizeURLCmd(client *recognizer.Client, gen int, url, start, end string) tea.Cmd {
	return func() tea.Msg {
		result, err := client.RecognizeURL(context.Background(), url, start, end)
		return recognitionDoneMsg{gen: gen, source: "url", result: result, err: err}
	}
}

func extractURLCmd(client *recognizer.Client, gen int, url, start, end string) tea.Cmd {
	return func() tea.Msg {
		result, err := client.ExtractURL(context.Background(), url, start, end)
		return extractionDoneMsg{gen: gen, result: result, err: err}
	}
}

func startRecordingCmd(sess *recorder.Session) tea.Cmd {
	return func() tea.Msg {
		if err := sess.Start(); err != nil {
			return recordingFailedMsg{err: err}
		}
		return recordingStartedMsg{}
	}
}

func waitClipCmd(sess *recorder.Session) tea.Cmd {
	return func() tea.Msg {
		return clipMsg{clip: <-sess.Done()}
	}
}

func healthCmd(client *recognizer.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		hs, err := client.Health(ctx)
		return healthMsg{health: hs, err: err}
	}
}
