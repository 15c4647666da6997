// Package recognizer is the HTTP client for the music recognition
// backend. It builds the three multipart request variants (file
// recognition, URL recognition, URL extraction), parses their
// responses, and saves extracted clips to disk.
package recognizer

import (
	"net/http"
	"time"
)

const DefaultBaseURL = "http://localhost:8001"

const (
	fallbackFile    = "Recognition failed. Please try again."
	fallbackURL     = "Recognition failed. Please check the URL and try again."
	fallbackExtract = "Audio extraction failed. Please check the URL and try again."
)

// Config is injected at construction; the client never reads globals.
type Config struct {
	BaseURL   string
	OutputDir string // where extracted clips are saved
}

type Client struct {
	cfg  Config
	http *timedClient
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	return &Client{
		cfg: cfg,
		// No request timeout: a hung backend leaves the caller waiting,
		// matching the serialized single-in-flight discipline upstream.
		http: newTimedClient(&http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		}),
	}
}

func (c *Client) BaseURL() string { return c.cfg.BaseURL }
