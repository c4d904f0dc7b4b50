// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chaty

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/jeranaias/chaty-tui/internal/util"
)

// =============================================================================
// STREAM EVENTS
// =============================================================================

// EventKind identifies which variant of a stream event was received.
type EventKind int

const (
	// EventToken carries one answer fragment to append to the transcript.
	EventToken EventKind = iota

	// EventSources carries the retrieval sources for the current answer.
	// It replaces any sources delivered earlier in the same turn.
	EventSources

	// EventDone marks the end of the stream. No fields are set.
	EventDone
)

// Event is one decoded Server-Sent Event from a chat stream. Exactly the
// fields implied by Kind are populated.
type Event struct {
	Kind    EventKind
	Token   string
	Sources []SourceItem

	// Err is only set on channel-based streaming, where it is the last
	// event delivered before the channel closes.
	Err error
}

// StreamCallback is called for each event received during streaming.
type StreamCallback func(event Event)

// tokenPayload is the data body of a token event.
type tokenPayload struct {
	Text string `json:"text"`
}

// sourcesPayload is the data body of a sources event.
type sourcesPayload struct {
	Sources []SourceItem `json:"sources"`
}

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events from a stream.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{
		reader: bufio.NewReader(r),
	}
}

// ReadEvent reads the next SSE event from the stream.
// Returns the event type, data, and any error.
// Returns io.EOF when the stream ends.
func (s *SSEReader) ReadEvent() (string, []byte, error) {
	var eventType string
	var dataLines [][]byte

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				// If we have data, return it before EOF
				if len(dataLines) > 0 {
					return eventType, bytes.Join(dataLines, []byte("\n")), nil
				}
				return "", nil, io.EOF
			}
			return "", nil, err
		}

		// Trim trailing newline and carriage return
		line = bytes.TrimRight(line, "\r\n")

		// Empty line signals end of event
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		// Parse field
		if bytes.HasPrefix(line, []byte("event:")) {
			eventType = string(bytes.TrimSpace(line[6:]))
		} else if bytes.HasPrefix(line, []byte("data:")) {
			dataLines = append(dataLines, bytes.TrimSpace(line[5:]))
		}
		// Ignore other fields (id:, retry:, comments starting with :)
	}
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// ChatStream sends a chat request and calls the callback for each stream
// event. The callback is called synchronously in the order events are
// received. Returns when the backend's done event arrives or an error
// occurs.
//
// Cancellation is reported as the context's error, never as a transport
// error, so callers can distinguish a user abort from a dropped
// connection with errors.Is(err, context.Canceled).
func (c *Client) ChatStream(ctx context.Context, chatReq ChatRequest, callback StreamCallback) error {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return &ClientError{Type: ErrTypeUnknown, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeTransport, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &ClientError{Type: ErrTypeTransport, Message: "chat request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.serverError(resp, "Chat request failed with status "+util.IntToString(resp.StatusCode))
	}

	return c.processStream(ctx, resp.Body, callback)
}

// processStream reads and decodes the SSE stream until done.
func (c *Client) processStream(ctx context.Context, body io.Reader, callback StreamCallback) error {
	reader := NewSSEReader(body)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		eventType, data, err := reader.ReadEvent()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err == io.EOF {
				// The server always terminates with a done event; a bare
				// EOF means the connection dropped mid-answer.
				return &ClientError{Type: ErrTypeTransport, Message: "stream ended before completion"}
			}
			return &ClientError{Type: ErrTypeTransport, Message: "stream read failed", Cause: err}
		}

		switch eventType {
		case "token":
			var payload tokenPayload
			if err := json.Unmarshal(data, &payload); err != nil {
				return &ClientError{Type: ErrTypeProtocol, Message: "malformed token event", Cause: err}
			}
			callback(Event{Kind: EventToken, Token: payload.Text})

		case "sources":
			var payload sourcesPayload
			if err := json.Unmarshal(data, &payload); err != nil {
				return &ClientError{Type: ErrTypeProtocol, Message: "malformed sources event", Cause: err}
			}
			callback(Event{Kind: EventSources, Sources: payload.Sources})

		case "done":
			callback(Event{Kind: EventDone})
			return nil

		default:
			// Unknown event names are skipped so the backend can add
			// event types without breaking older clients.
		}
	}
}

// ChatStreamChan sends a chat request and returns a channel of events.
// The channel is closed when streaming is complete or an error occurs.
// Errors are delivered as a final event with the Err field set.
func (c *Client) ChatStreamChan(ctx context.Context, chatReq ChatRequest) <-chan Event {
	ch := make(chan Event)

	go func() {
		defer close(ch)

		err := c.ChatStream(ctx, chatReq, func(event Event) {
			select {
			case ch <- event:
			case <-ctx.Done():
				return
			}
		})

		if err != nil {
			select {
			case ch <- Event{Err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return ch
}
