// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chaty

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/chaty-tui/internal/util"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the Chaty backend client.
type ClientError struct {
	Type    ErrorType
	Message string
	Status  int // HTTP status for server errors, 0 otherwise
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota

	// ErrTypeServer: the backend answered with a non-success status. The
	// message carries the backend's detail string when one was provided.
	ErrTypeServer

	// ErrTypeTransport: the backend could not be reached, or the
	// connection dropped before the stream completed.
	ErrTypeTransport

	// ErrTypeProtocol: the backend answered, but the payload was not what
	// the protocol promises (undecodable JSON, wrong health status).
	ErrTypeProtocol
)

// Sentinel errors for easy checking.
var (
	ErrUnreachable = &ClientError{Type: ErrTypeTransport, Message: "backend is unreachable"}
	ErrUnhealthy   = &ClientError{Type: ErrTypeProtocol, Message: "backend health check did not report ok"}
)

// IsServerError checks if an error is a backend-reported failure.
func IsServerError(err error) bool {
	var clientErr *ClientError
	return errors.As(err, &clientErr) && clientErr.Type == ErrTypeServer
}

// IsTransportError checks if an error is a connection-level failure.
func IsTransportError(err error) bool {
	var clientErr *ClientError
	return errors.As(err, &clientErr) && clientErr.Type == ErrTypeTransport
}

// IsProtocolError checks if an error is a malformed-response failure.
func IsProtocolError(err error) bool {
	var clientErr *ClientError
	return errors.As(err, &clientErr) && clientErr.Type == ErrTypeProtocol
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the Chaty backend client.
type ClientConfig struct {
	// BaseURL is the backend base URL (default: http://localhost:8000)
	BaseURL string

	// Timeout for non-streaming requests (default: 30s)
	Timeout time.Duration

	// IngestEvery is the minimum interval between ingest triggers
	// (default: 2s). Ingest re-walks the backend's document directory, so
	// a jittery caller must not be able to hammer it.
	IngestEvery time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:     "http://localhost:8000",
		Timeout:     30 * time.Second,
		IngestEvery: 2 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the Chaty backend API.
// It provides methods for health checks, ingest triggers, and streaming
// chat.
//
// The Client is safe for concurrent use.
//
// Example:
//
//	client := chaty.NewClient()
//	if err := client.CheckHealth(ctx); err != nil {
//	    log.Fatal("backend not available:", err)
//	}
//	err := client.ChatStream(ctx, req, func(ev chaty.Event) { ... })
type Client struct {
	config     *ClientConfig
	httpClient *http.Client

	// streamClient has no timeout: a chat turn may legitimately stream
	// for longer than any fixed request deadline. Cancellation happens
	// via the request context.
	streamClient *http.Client

	ingestLimiter *rate.Limiter
}

// NewClient creates a new Chaty backend client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new Chaty backend client with custom
// configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8000"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.IngestEvery == 0 {
		config.IngestEvery = 2 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		streamClient:  &http.Client{},
		ingestLimiter: rate.NewLimiter(rate.Every(config.IngestEvery), 1),
	}
}

// BaseURL returns the backend base URL the client talks to.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckHealth verifies that the backend is reachable and reports ok.
func (c *Client) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return &ClientError{Type: ErrTypeTransport, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return ErrUnreachable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.serverError(resp, "Health check failed with status "+util.IntToString(resp.StatusCode))
	}

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return &ClientError{Type: ErrTypeProtocol, Message: "failed to decode health response", Cause: err}
	}
	if status.Status != "ok" {
		return ErrUnhealthy
	}

	return nil
}

// =============================================================================
// INGEST
// =============================================================================

// Ingest asks the backend to index its document directory. With force set,
// the backend rebuilds the index from scratch instead of skipping files it
// has already seen.
//
// Calls are rate limited client-side; Ingest blocks until a slot is
// available or the context is cancelled.
func (c *Client) Ingest(ctx context.Context, force bool) (*IngestResult, error) {
	if err := c.ingestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(IngestRequest{Force: force})
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/ingest", bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeTransport, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ClientError{Type: ErrTypeTransport, Message: "ingest request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.serverError(resp, "Ingest failed")
	}

	var result IngestResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeProtocol, Message: "failed to decode ingest response", Cause: err}
	}

	return &result, nil
}

// =============================================================================
// ERROR RESPONSES
// =============================================================================

// serverError builds a ClientError from a non-success response, preferring
// the backend's {"detail": ...} message over the fallback.
func (c *Client) serverError(resp *http.Response, fallback string) *ClientError {
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Detail != "" {
		return &ClientError{Type: ErrTypeServer, Message: body.Detail, Status: resp.StatusCode}
	}
	return &ClientError{Type: ErrTypeServer, Message: fallback, Status: resp.StatusCode}
}
