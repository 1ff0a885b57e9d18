// Package external holds the JSON-over-HTTP plumbing shared by the clients
// of the SSO, coin and exchange-rate services.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

const maxResponseSize = 1 << 20

// StatusError is returned for non-2xx responses
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Service, e.StatusCode, e.Body)
}

// StatusCode extracts the HTTP status of a StatusError, or 0
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// Client sends JSON requests to one service
type Client struct {
	service string
	baseURL string
	http    *http.Client
	header  http.Header
}

// NewClient creates a client for service rooted at baseURL. header is sent
// with every request.
func NewClient(service, baseURL string, timeout time.Duration, header http.Header) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if header == nil {
		header = http.Header{}
	}
	return &Client{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		header:  header,
	}
}

// Do sends in as the JSON body (when non-nil) and decodes the response into
// out (when non-nil). extra headers are added to the defaults.
func (c *Client) Do(ctx context.Context, method, path string, extra http.Header, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", c.service, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", c.service, err)
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", c.service, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%s: failed to read response: %w", c.service, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Service: c.service, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", c.service, err)
	}
	return nil
}

// Unavailable wraps a transport or server failure as EXTERNAL_SERVICE_ERROR
func Unavailable(service string, err error) error {
	return shared.WrapApiError(shared.CodeExternalService, service+" is unavailable", err)
}
