package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	zcodex "github.com/Paranoid-AF/zcodex"
)

const (
	requestTimeout = 30 * time.Second
	errorBodyMax   = 512
)

// Generator posts completion payloads to an OpenAI-compatible or llama.cpp-style server.
type Generator struct {
	baseURL      string
	apiKey       string
	organization string
	client       *http.Client
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithHTTPClient sets the HTTP client used for requests.
// A nil client keeps the default.
func WithHTTPClient(c *http.Client) GeneratorOption {
	return func(g *Generator) {
		if c != nil {
			g.client = c
		}
	}
}

// NewGenerator creates a generator for the given base URL.
func NewGenerator(baseURL, apiKey, organization string, opts ...GeneratorOption) *Generator {
	g := &Generator{
		baseURL:      baseURL,
		apiKey:       apiKey,
		organization: organization,
		client:       &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Post sends one request and returns the raw response body.
// There is no retry: any failure is returned as a transport failure.
func (g *Generator) Post(ctx context.Context, req *Request) ([]byte, error) {
	data, err := json.Marshal(req.Body)
	if err != nil {
		return nil, err
	}

	url := g.baseURL + req.Path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, zcodex.Errorf(zcodex.KindTransportFailure, err, "POST %s", url)
	}
	g.setHeaders(httpReq)

	slog.Debug("request", "url", url, "body", string(data))

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, zcodex.Errorf(zcodex.KindTransportFailure, err, "POST %s", url)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, zcodex.Errorf(zcodex.KindTransportFailure, err, "read response from %s", url)
	}

	slog.Debug("response", "status", resp.StatusCode, "body", string(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, zcodex.Errorf(zcodex.KindTransportFailure, nil,
			"API error (status %d): %s", resp.StatusCode, truncate(string(body), errorBodyMax))
	}
	return body, nil
}

// setHeaders sets common headers for API requests.
func (g *Generator) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	if g.organization != "" {
		req.Header.Set("OpenAI-Organization", g.organization)
	}
}

// truncate cuts s to at most max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "..."
}
