package recognizer

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"
)

// Timing holds per-request network phases captured via httptrace.
type Timing struct {
	DNS    time.Duration
	TLS    time.Duration
	TTFB   time.Duration
	Total  time.Duration
	Reused bool
}

func (t *Timing) Summary() string {
	conn := ""
	if t.Reused {
		conn = " (conn reused)"
	}
	return fmt.Sprintf("dns %dms | tls %dms | ttfb %dms | total %dms%s",
		t.DNS.Milliseconds(), t.TLS.Milliseconds(),
		t.TTFB.Milliseconds(), t.Total.Milliseconds(), conn)
}

type timedResponse struct {
	Body       []byte
	StatusCode int
	Header     http.Header
	Timing     *Timing
}

type timedClient struct {
	client *http.Client
}

func newTimedClient(c *http.Client) *timedClient {
	return &timedClient{client: c}
}

func (c *timedClient) Do(req *http.Request) (*timedResponse, error) {
	timing := &Timing{}
	var dnsStart, tlsStart, wroteRequest time.Time

	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			timing.Reused = info.Reused
		},
		DNSStart:          func(_ httptrace.DNSStartInfo) { dnsStart = time.Now() },
		DNSDone:           func(_ httptrace.DNSDoneInfo) { timing.DNS = time.Since(dnsStart) },
		TLSHandshakeStart: func() { tlsStart = time.Now() },
		TLSHandshakeDone:  func(_ tls.ConnectionState, _ error) { timing.TLS = time.Since(tlsStart) },
		WroteRequest: func(_ httptrace.WroteRequestInfo) {
			wroteRequest = time.Now()
		},
		GotFirstResponseByte: func() {
			timing.TTFB = time.Since(wroteRequest)
		},
	}

	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))
	reqStart := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	timing.Total = time.Since(reqStart)

	return &timedResponse{
		Body:       body,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Timing:     timing,
	}, nil
}
