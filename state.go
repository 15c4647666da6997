package main

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"tunedial/recognizer"
)

type Tab int

const (
	TabFile Tab = iota
	TabURL
	TabRecord
)

func (t Tab) String() string {
	switch t {
	case TabFile:
		return "File"
	case TabURL:
		return "URL"
	case TabRecord:
		return "Record"
	}
	return "?"
}

func (t Tab) next() Tab {
	return (t + 1) % 3
}

func (t Tab) prev() Tab {
	return (t + 2) % 3
}

// fieldCount is the number of focusable text inputs on a tab.
func (t Tab) fieldCount() int {
	switch t {
	case TabFile:
		return 1
	case TabURL:
		return 3
	}
	return 0
}

type ResultKind int

const (
	ResultIdle ResultKind = iota
	ResultLoading
	ResultSuccess
	ResultExtraction
	ResultError
)

// ResultState is a tagged union: Kind selects which payload (if any) is
// meaningful. All transitions go through the constructors below so a
// state never carries a stale payload from its predecessor.
type ResultState struct {
	Kind        ResultKind
	Recognition *recognizer.RecognitionResult
	Extraction  *recognizer.ExtractionResult
	Message     string // loading label or error text
}

func idleResult() ResultState {
	return ResultState{Kind: ResultIdle}
}

func loadingResult(label string) ResultState {
	return ResultState{Kind: ResultLoading, Message: label}
}

func successResult(r *recognizer.RecognitionResult) ResultState {
	return ResultState{Kind: ResultSuccess, Recognition: r}
}

func extractionResult(r *recognizer.ExtractionResult) ResultState {
	return ResultState{Kind: ResultExtraction, Extraction: r}
}

func errorResult(msg string) ResultState {
	return ResultState{Kind: ResultError, Message: msg}
}

// ValidationError is a submission refused before any request is made.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

var acceptedExts = []string{".mp3", ".wav", ".m4a", ".ogg"}

func validateFilePath(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return &ValidationError{Msg: "Please enter a file path."}
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, accepted := range acceptedExts {
		if ext == accepted {
			return nil
		}
	}
	return &ValidationError{
		Msg: fmt.Sprintf("Unsupported file type %q (use %s).", ext, strings.Join(acceptedExts, ", ")),
	}
}

func validateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return &ValidationError{Msg: "Please enter a URL."}
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ValidationError{Msg: "Please enter a valid URL."}
	}
	return nil
}

func validateExtraction(raw, start, end string) error {
	if err := validateURL(raw); err != nil {
		return err
	}
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return &ValidationError{Msg: "Extraction requires both start and end times."}
	}
	return nil
}
