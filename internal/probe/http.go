package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultHTTPTimeout = 15 * time.Second

// maxBodyRead bounds how much of a response body is inspected for patterns.
const maxBodyRead = 64 * 1024

// HTTPProbe checks that an HTTP endpoint responds with an accepted status
// code. A connection error or timeout is Indeterminate (the host may still be
// booting); an unexpected status, or a body containing one of FailPatterns,
// is a definitive Fail.
type HTTPProbe struct {
	ProbeName string
	URL       string
	// Accept lists status codes counted as success. Defaults to 200 and 302
	// (a fresh server redirects to its sign-in page).
	Accept []int
	// WantBody, if set, must appear in the response body for a Pass.
	WantBody string
	// FailPatterns force a Fail when found in the body of any response,
	// e.g. the "422" validation page a misconfigured server serves.
	FailPatterns []string
	Timeout      time.Duration

	// Client overrides the HTTP client, for tests.
	Client *http.Client
}

func (p *HTTPProbe) Name() string { return p.ProbeName }

func (p *HTTPProbe) Check(ctx context.Context) Result {
	client := p.Client
	if client == nil {
		timeout := p.Timeout
		if timeout == 0 {
			timeout = defaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return fail(0, fmt.Sprintf("building request: %v", err))
	}

	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return indeterminate(latency, "cancelled")
		}
		return indeterminate(latency, fmt.Sprintf("connection failed: %v", err))
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyRead))

	for _, pattern := range p.FailPatterns {
		if strings.Contains(string(body), pattern) {
			return fail(latency, fmt.Sprintf("response body matches known error signature %q (HTTP %d)", pattern, resp.StatusCode))
		}
	}

	if !p.accepted(resp.StatusCode) {
		return fail(latency, fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode))
	}

	if p.WantBody != "" && !strings.Contains(string(body), p.WantBody) {
		return fail(latency, fmt.Sprintf("HTTP %d but body missing %q", resp.StatusCode, p.WantBody))
	}

	return pass(latency, fmt.Sprintf("HTTP %d", resp.StatusCode))
}

func (p *HTTPProbe) accepted(code int) bool {
	accept := p.Accept
	if len(accept) == 0 {
		accept = []int{http.StatusOK, http.StatusFound}
	}
	for _, c := range accept {
		if code == c {
			return true
		}
	}
	return false
}
