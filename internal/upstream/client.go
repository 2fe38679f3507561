// Package upstream wraps the API-Football HTTP API: request building,
// authentication and classification of failures into transient and
// fatal errors. Retry policy lives in the gateway, not here.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://v3.football.api-sports.io"

// RequestSpec describes one upstream call. Params become query
// parameters and, together with Endpoint, the cache key.
type RequestSpec struct {
	Endpoint string
	Params   map[string]string
}

// envelope is the fixed response wrapper every API-Football endpoint
// uses. A 200 with a populated errors field is still a failed request.
type envelope struct {
	Errors   json.RawMessage `json:"errors"`
	Results  int             `json:"results"`
	Response json.RawMessage `json:"response"`
}

// Client performs single-attempt requests against API-Football.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	logger     *zap.Logger
}

// NewClient creates an upstream client. The timeout bounds each
// attempt end to end, including body read.
func NewClient(apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		logger:     logger,
	}
}

// SetBaseURL overrides the API host (configurable for testing).
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// Fetch performs one request and returns the raw response payload.
// Failures come back as *Error with a transient or fatal class.
func (c *Client) Fetch(ctx context.Context, spec RequestSpec) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+spec.Endpoint, nil)
	if err != nil {
		return nil, &Error{Endpoint: spec.Endpoint, Class: ClassFatal, Message: "failed to create request", Err: err}
	}

	if len(spec.Params) > 0 {
		q := url.Values{}
		for name, value := range spec.Params {
			q.Set(name, value)
		}
		req.URL.RawQuery = q.Encode()
	}

	req.Header.Set("x-apisports-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Endpoint: spec.Endpoint, Class: classifyNetErr(err), Message: err.Error(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Endpoint: spec.Endpoint, Class: ClassTransient, Message: "failed to read response body", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			Endpoint:   spec.Endpoint,
			StatusCode: resp.StatusCode,
			Class:      classifyStatus(resp.StatusCode),
			Message:    string(body),
		}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &Error{
			Endpoint:   spec.Endpoint,
			StatusCode: resp.StatusCode,
			Class:      ClassFatal,
			Message:    "malformed response envelope",
			Err:        err,
		}
	}

	// The provider reports request-level problems inside a 200.
	if msg, bad := envelopeError(env.Errors); bad {
		return nil, &Error{
			Endpoint:   spec.Endpoint,
			StatusCode: resp.StatusCode,
			Class:      ClassFatal,
			Message:    msg,
		}
	}

	c.logger.Debug("Fetched upstream response",
		zap.String("endpoint", spec.Endpoint),
		zap.Int("results", env.Results),
	)

	return body, nil
}

// envelopeError reports whether the errors field carries anything. The
// provider sends an empty array on success and an object keyed by
// parameter name on failure.
func envelopeError(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var asMap map[string]string
	if err := json.Unmarshal(raw, &asMap); err == nil && len(asMap) > 0 {
		for field, msg := range asMap {
			return fmt.Sprintf("%s: %s", field, msg), true
		}
	}

	var asList []string
	if err := json.Unmarshal(raw, &asList); err == nil && len(asList) > 0 {
		return asList[0], true
	}

	return "", false
}
