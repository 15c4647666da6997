package main

import (
	"errors"
	"testing"
)

func TestTabCycle(t *testing.T) {
	if got := TabFile.next(); got != TabURL {
		t.Errorf("TabFile.next() = %v", got)
	}
	if got := TabRecord.next(); got != TabFile {
		t.Errorf("TabRecord.next() = %v", got)
	}
	if got := TabFile.prev(); got != TabRecord {
		t.Errorf("TabFile.prev() = %v", got)
	}
	for _, tab := range []Tab{TabFile, TabURL, TabRecord} {
		if tab.next().prev() != tab {
			t.Errorf("next/prev not inverse for %v", tab)
		}
	}
}

func TestValidateFilePath(t *testing.T) {
	tests := []struct {
		path string
		ok   bool
	}{
		{"", false},
		{"   ", false},
		{"song.mp3", true},
		{"/music/Song Name.WAV", true},
		{"clip.m4a", true},
		{"clip.ogg", true},
		{"notes.txt", false},
		{"archive.flac", false}, // recordings upload as flac, file picks do not
		{"noextension", false},
	}
	for _, tt := range tests {
		err := validateFilePath(tt.path)
		if tt.ok && err != nil {
			t.Errorf("validateFilePath(%q) = %v, want nil", tt.path, err)
		}
		if !tt.ok {
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("validateFilePath(%q) = %T, want *ValidationError", tt.path, err)
			}
		}
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url string
		ok  bool
	}{
		{"", false},
		{"   ", false},
		{"https://youtu.be/abc", true},
		{"http://example.com/song", true},
		{"not a url", false},
		{"/just/a/path", false},
	}
	for _, tt := range tests {
		err := validateURL(tt.url)
		if tt.ok != (err == nil) {
			t.Errorf("validateURL(%q) = %v, want ok=%v", tt.url, err, tt.ok)
		}
	}
}

func TestValidateExtraction(t *testing.T) {
	if err := validateExtraction("https://u", "2:15", "2:45"); err != nil {
		t.Errorf("full input rejected: %v", err)
	}
	if err := validateExtraction("https://u", "", "2:45"); err == nil {
		t.Error("missing start accepted")
	}
	if err := validateExtraction("https://u", "2:15", ""); err == nil {
		t.Error("missing end accepted")
	}
	if err := validateExtraction("", "2:15", "2:45"); err == nil {
		t.Error("missing url accepted")
	}
}

func TestResultStateConstructorsCarrySinglePayload(t *testing.T) {
	if r := idleResult(); r.Kind != ResultIdle || r.Recognition != nil || r.Extraction != nil || r.Message != "" {
		t.Errorf("idleResult = %+v", r)
	}
	if r := loadingResult("x"); r.Kind != ResultLoading || r.Message != "x" || r.Recognition != nil {
		t.Errorf("loadingResult = %+v", r)
	}
	if r := errorResult("boom"); r.Kind != ResultError || r.Message != "boom" || r.Extraction != nil {
		t.Errorf("errorResult = %+v", r)
	}
}
