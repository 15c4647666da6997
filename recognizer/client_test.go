package recognizer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(Config{BaseURL: srv.URL, OutputDir: t.TempDir()})
	return c, srv
}

func TestRecognizeFile(t *testing.T) {
	var gotPath, gotFilename string
	var gotBody []byte

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer f.Close()
		gotFilename = hdr.Filename
		gotBody = make([]byte, hdr.Size)
		f.Read(gotBody)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","title":"Bohemian Rhapsody","artist":"Queen","album":"A Night at the Opera","confidence":0.91,"release_date":"1975-10-31"}`))
	})

	result, err := c.RecognizeFile(context.Background(), "song.mp3", []byte("mp3bytes"))
	if err != nil {
		t.Fatalf("RecognizeFile: %v", err)
	}
	if gotPath != "/api/recognize/file" {
		t.Errorf("path = %q", gotPath)
	}
	if gotFilename != "song.mp3" {
		t.Errorf("upload filename = %q", gotFilename)
	}
	if string(gotBody) != "mp3bytes" {
		t.Errorf("upload body = %q", gotBody)
	}
	if result.Title != "Bohemian Rhapsody" || result.Artist != "Queen" {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.NoMatch() {
		t.Error("NoMatch() = true for a success result")
	}
	if result.Confidence != 0.91 {
		t.Errorf("Confidence = %v", result.Confidence)
	}
	if result.Timing == nil {
		t.Error("Timing not captured")
	}
}

func TestRecognizeFileNoMatch(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"not_found","message":"No match found for this audio"}`))
	})

	result, err := c.RecognizeFile(context.Background(), "song.wav", []byte("x"))
	if err != nil {
		t.Fatalf("RecognizeFile: %v", err)
	}
	if !result.NoMatch() {
		t.Error("NoMatch() = false")
	}
	if result.Status != StatusNoMatch {
		t.Errorf("Status = %q, want normalized %q", result.Status, StatusNoMatch)
	}
	if result.Message != "No match found for this audio" {
		t.Errorf("Message = %q", result.Message)
	}
}

func TestRecognizeURLFields(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		wantStart  bool
		wantEnd    bool
	}{
		{"no range", "", "", false, false},
		{"full range", "2:15", "2:45", true, true},
		{"start only", "0:30", "", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var form map[string][]string
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				r.ParseMultipartForm(1 << 20)
				form = r.MultipartForm.Value
				w.Write([]byte(`{"status":"success","title":"t"}`))
			})

			if _, err := c.RecognizeURL(context.Background(), "https://youtu.be/x", tt.start, tt.end); err != nil {
				t.Fatalf("RecognizeURL: %v", err)
			}
			if got := form["url"]; len(got) != 1 || got[0] != "https://youtu.be/x" {
				t.Errorf("url field = %v", got)
			}
			if _, ok := form["start_time"]; ok != tt.wantStart {
				t.Errorf("start_time present = %v, want %v", ok, tt.wantStart)
			}
			if _, ok := form["end_time"]; ok != tt.wantEnd {
				t.Errorf("end_time present = %v, want %v", ok, tt.wantEnd)
			}
		})
	}
}

func TestErrorDetailMessage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Invalid file type. Please upload an audio file."}`))
	})

	_, err := c.RecognizeFile(context.Background(), "x.mp3", []byte("x"))
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error type = %T", err)
	}
	if reqErr.Message != "Invalid file type. Please upload an audio file." {
		t.Errorf("Message = %q", reqErr.Message)
	}
	if reqErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d", reqErr.StatusCode)
	}
}

func TestErrorFallbackPerOperation(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`not json`))
	})
	ctx := context.Background()

	if _, err := c.RecognizeFile(ctx, "x.mp3", []byte("x")); err == nil || err.Error() != fallbackFile {
		t.Errorf("file fallback = %v", err)
	}
	if _, err := c.RecognizeURL(ctx, "https://u", "", ""); err == nil || err.Error() != fallbackURL {
		t.Errorf("url fallback = %v", err)
	}
	if _, err := c.ExtractURL(ctx, "https://u", "0:00", "0:10"); err == nil || err.Error() != fallbackExtract {
		t.Errorf("extract fallback = %v", err)
	}
}

func TestTransportErrorFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on
	c := New(Config{BaseURL: srv.URL, OutputDir: t.TempDir()})

	_, err := c.RecognizeFile(context.Background(), "x.mp3", []byte("x"))
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error type = %T", err)
	}
	if reqErr.Message != fallbackFile {
		t.Errorf("Message = %q, want fallback", reqErr.Message)
	}
	if reqErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for transport failure", reqErr.StatusCode)
	}
}

func TestExtractURL(t *testing.T) {
	clip := []byte("ID3fake-mp3-payload")
	var form map[string][]string

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/extract/url" {
			t.Errorf("path = %q", r.URL.Path)
		}
		r.ParseMultipartForm(1 << 20)
		form = r.MultipartForm.Value
		w.Header().Set("Content-Disposition", `attachment; filename="My Song_2m15s-2m45s.mp3"`)
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(clip)
	})

	result, err := c.ExtractURL(context.Background(), "https://youtu.be/x", "2:15", "2:45")
	if err != nil {
		t.Fatalf("ExtractURL: %v", err)
	}

	for _, field := range []string{"url", "start_time", "end_time"} {
		if _, ok := form[field]; !ok {
			t.Errorf("missing required field %q", field)
		}
	}

	if result.Title != "My Song_2m15s-2m45s.mp3" {
		t.Errorf("Title = %q", result.Title)
	}
	if result.Status != StatusSuccess {
		t.Errorf("Status = %q", result.Status)
	}
	if result.Duration != 0 || result.Segment != nil {
		t.Error("Duration/Segment should stay unset on the synthesized result")
	}

	saved, err := os.ReadFile(result.SavedPath)
	if err != nil {
		t.Fatalf("reading saved clip: %v", err)
	}
	if string(saved) != string(clip) {
		t.Error("saved clip differs from response body")
	}
	if filepath.Base(result.SavedPath) != "My Song_2m15s-2m45s.mp3" {
		t.Errorf("saved name = %q", filepath.Base(result.SavedPath))
	}
}

func TestExtractURLDefaultFilename(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio"))
	})

	result, err := c.ExtractURL(context.Background(), "https://youtu.be/x", "0:00", "0:10")
	if err != nil {
		t.Fatalf("ExtractURL: %v", err)
	}
	if result.Title != defaultClipName {
		t.Errorf("Title = %q, want %q", result.Title, defaultClipName)
	}
}

func TestClipFilename(t *testing.T) {
	tests := []struct {
		disposition string
		want        string
	}{
		{``, defaultClipName},
		{`attachment; filename="clip.mp3"`, "clip.mp3"},
		{`attachment; filename="../../etc/evil.mp3"`, "evil.mp3"},
		{`attachment; filename="..\..\evil.mp3"`, "evil.mp3"},
		{`attachment; filename=""`, defaultClipName},
		{`attachment`, defaultClipName},
		{`garbage;;;`, defaultClipName},
	}
	for _, tt := range tests {
		if got := clipFilename(tt.disposition); got != tt.want {
			t.Errorf("clipFilename(%q) = %q, want %q", tt.disposition, got, tt.want)
		}
	}
}

func TestHealth(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" || r.Method != http.MethodGet {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"status":"healthy","database":"connected","audd_api":"configured"}`))
	})

	hs, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if hs.Status != "healthy" || hs.Database != "connected" || hs.AuddAPI != "configured" {
		t.Errorf("unexpected health: %+v", hs)
	}
}

func TestDisplayDefaults(t *testing.T) {
	r := &RecognitionResult{Status: StatusSuccess, Title: "Song"}
	if r.DisplayTitle() != "Song" {
		t.Errorf("DisplayTitle = %q", r.DisplayTitle())
	}
	if r.DisplayArtist() != "Unknown" || r.DisplayAlbum() != "Unknown" || r.DisplayRelease() != "Unknown" {
		t.Error("absent fields should display as Unknown")
	}
	if r.DisplayConfidence() != estimatedConfidence {
		t.Errorf("DisplayConfidence = %v, want %v", r.DisplayConfidence(), estimatedConfidence)
	}
	if r.Confidence != 0 {
		t.Error("DisplayConfidence must not write the estimate back")
	}
	r.Confidence = 0.42
	if r.DisplayConfidence() != 0.42 {
		t.Errorf("DisplayConfidence = %v, want 0.42", r.DisplayConfidence())
	}
}
