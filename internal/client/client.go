// Package client implements the OpenAI-compatible transport used by the
// capability probe engine. It issues chat completion and model listing
// requests against a configured endpoint, handling authentication, proxy
// routing, response decompression, and optional request tracing.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/modelprobe/modelprobe/internal/buildinfo"
	"github.com/modelprobe/modelprobe/internal/config"
	"github.com/modelprobe/modelprobe/internal/logging"
	"github.com/modelprobe/modelprobe/internal/util"
	log "github.com/sirupsen/logrus"
)

// Client is a thin HTTP client bound to one OpenAI-compatible endpoint and
// credential. It is safe for concurrent use by multiple in-flight probes.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	apiBase    string
	apiKey     string
	trace      *traceLogger
}

// New constructs a client from the resolved configuration. The HTTP client
// carries no global timeout; per-call deadlines are applied by callers via
// context so that a slow probe cannot be distinguished from any other
// probe failure.
func New(cfg *config.Config) *Client {
	httpClient := util.SetProxy(cfg, &http.Client{})
	c := &Client{
		cfg:        cfg,
		httpClient: httpClient,
		apiBase:    strings.TrimSuffix(strings.TrimSpace(cfg.APIBase), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
	}
	if cfg.RequestLog {
		c.trace = newTraceLogger(logging.ResolveLogDirectory())
	}
	log.Debugf("client bound to %s (key %s)", c.apiBase, util.MaskAPIKey(c.apiKey))
	return c
}

// APIBase returns the endpoint base URL the client is bound to.
func (c *Client) APIBase() string { return c.apiBase }

// do executes one HTTP exchange against the endpoint and returns the
// decompressed response body. Non-2xx statuses are converted to StatusError
// so callers can fold them into probe diagnostics.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	endpoint := c.apiBase + path

	var body io.Reader
	if len(payload) > 0 {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	if len(payload) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept-Encoding", "gzip, deflate, br, zstd")
	req.Header.Set("User-Agent", "modelprobe/"+buildinfo.Version)

	start := time.Now()
	logging.WithRequestIDField(ctx).Debugf("%s %s", method, endpoint)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.trace.record(ctx, method, endpoint, payload, 0, nil, err)
		return nil, err
	}
	defer func() {
		if errClose := httpResp.Body.Close(); errClose != nil {
			log.Errorf("client: close response body error: %v", errClose)
		}
	}()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.trace.record(ctx, method, endpoint, payload, httpResp.StatusCode, nil, err)
		return nil, fmt.Errorf("client: read response body: %w", err)
	}
	data, err := decodeResponseBody(httpResp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		c.trace.record(ctx, method, endpoint, payload, httpResp.StatusCode, raw, err)
		return nil, err
	}

	c.trace.record(ctx, method, endpoint, payload, httpResp.StatusCode, data, nil)
	logging.WithRequestIDField(ctx).Debugf("%s %s -> %d (%s)", method, endpoint, httpResp.StatusCode, time.Since(start).Round(time.Millisecond))

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &StatusError{Code: httpResp.StatusCode, Body: string(data)}
	}
	return data, nil
}
