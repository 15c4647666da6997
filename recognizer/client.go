package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const defaultClipName = "extracted_audio.mp3"

// RecognizeFile identifies a song from raw audio bytes. filename is the
// upload name the backend sees; its extension hints at the format.
func (c *Client) RecognizeFile(ctx context.Context, filename string, data []byte) (*RecognitionResult, error) {
	return c.recognize(ctx, "recognize_file", "/api/recognize/file", fallbackFile,
		func(w *multipart.Writer) error {
			part, err := w.CreateFormFile("file", filename)
			if err != nil {
				return err
			}
			_, err = part.Write(data)
			return err
		})
}

// RecognizeURL identifies a song from a URL-addressable source. start
// and end are free-form "M:SS" strings, sent only when non-empty and
// never parsed client-side.
func (c *Client) RecognizeURL(ctx context.Context, url, start, end string) (*RecognitionResult, error) {
	return c.recognize(ctx, "recognize_url", "/api/recognize/url", fallbackURL,
		func(w *multipart.Writer) error {
			if err := w.WriteField("url", url); err != nil {
				return err
			}
			if start != "" {
				if err := w.WriteField("start_time", start); err != nil {
					return err
				}
			}
			if end != "" {
				if err := w.WriteField("end_time", end); err != nil {
					return err
				}
			}
			return nil
		})
}

// ExtractURL downloads a trimmed clip and saves it under OutputDir,
// named after the Content-Disposition filename. Saving is part of the
// operation: a successful return means the file is on disk.
func (c *Client) ExtractURL(ctx context.Context, url, start, end string) (*ExtractionResult, error) {
	const op = "extract_url"
	resp, err := c.postMultipart(ctx, "/api/extract/url", func(w *multipart.Writer) error {
		for field, value := range map[string]string{
			"url":        url,
			"start_time": start,
			"end_time":   end,
		} {
			if err := w.WriteField(field, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, &RequestError{Op: op, Message: fallbackExtract}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, requestError(op, resp.StatusCode, resp.Body, fallbackExtract)
	}

	name := clipFilename(resp.Header.Get("Content-Disposition"))
	path := filepath.Join(c.cfg.OutputDir, name)
	if err := os.WriteFile(path, resp.Body, 0644); err != nil {
		return nil, &RequestError{Op: op, Message: fmt.Sprintf("could not save extracted audio: %v", err)}
	}

	return &ExtractionResult{
		Title:     name,
		Message:   fmt.Sprintf("Audio extracted and saved as %q", name),
		Status:    StatusSuccess,
		SavedPath: path,
		Timing:    resp.Timing,
	}, nil
}

// Health reports backend readiness; used for the TUI status line.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/api/health", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	var hs HealthStatus
	if err := json.Unmarshal(resp.Body, &hs); err != nil {
		return nil, fmt.Errorf("health response parse: %w", err)
	}
	return &hs, nil
}

func (c *Client) recognize(ctx context.Context, op, endpoint, fallback string, build func(*multipart.Writer) error) (*RecognitionResult, error) {
	resp, err := c.postMultipart(ctx, endpoint, build)
	if err != nil {
		return nil, &RequestError{Op: op, Message: fallback}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, requestError(op, resp.StatusCode, resp.Body, fallback)
	}

	var result RecognitionResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, &RequestError{Op: op, StatusCode: resp.StatusCode, Message: fallback}
	}
	if result.Status != StatusSuccess {
		// The live backend says "not_found"; normalize to one spelling.
		result.Status = StatusNoMatch
	}
	result.Timing = resp.Timing
	return &result, nil
}

func (c *Client) postMultipart(ctx context.Context, endpoint string, build func(*multipart.Writer) error) (*timedResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := build(writer); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.http.Do(req)
}

// clipFilename derives the saved filename from a Content-Disposition
// header, reduced to a bare base name so a hostile header cannot write
// outside OutputDir.
func clipFilename(disposition string) string {
	if disposition == "" {
		return defaultClipName
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return defaultClipName
	}
	name := strings.TrimSpace(params["filename"])
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return defaultClipName
	}
	return name
}
