package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/agentdeck/agentdeck/pkg/metrics"
)

// ErrNetwork marks transport failures where no response was received.
// Callers distinguish these from structured backend errors via errors.Is.
var ErrNetwork = errors.New("network error")

// Error is a structured non-2xx backend response
type Error struct {
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("backend error (status=%d): %s", e.Status, e.Detail)
}

// IsAuthError reports whether err is a 401 from the backend
func IsAuthError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// TokenFunc supplies the current bearer token, or "" when unauthenticated
type TokenFunc func() string

// Client is the single point of outbound HTTP calls to the backend.
// It attaches bearer-token auth where a token is present, serializes JSON,
// and surfaces non-2xx responses as *Error. It performs no automatic retry;
// retry policy lives in pkg/query, redirect-to-login lives with callers.
type Client struct {
	baseURL string
	http    *http.Client
	tokenFn TokenFunc
}

// NewClient creates a new backend API client. tokenFn may be nil for
// unauthenticated use (login, health probes).
func NewClient(baseURL string, tokenFn TokenFunc) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tokenFn: tokenFn,
	}
}

// SetHTTPClient overrides the underlying transport (tests, custom timeouts)
func (c *Client) SetHTTPClient(h *http.Client) {
	c.http = h
}

// request performs one HTTP round trip. Timeouts and cancellation come from
// ctx; the transport default applies otherwise.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokenFn != nil {
		if token := c.tokenFn(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	timer := metrics.NewTimer()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(method, "network_error").Inc()
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	timer.ObserveDuration(metrics.APIRequestDuration.WithLabelValues(method))
	metrics.APIRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError builds a *Error from a non-2xx response. Error bodies carry at
// least a human-readable detail field; anything else degrades to the status
// text.
func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Detail != "" {
		apiErr.Detail = payload.Detail
	} else {
		apiErr.Detail = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func pageQuery(limit int, offset int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return q
}
