// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/chaty-tui/internal/chaty"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry in the transcript. The sequence is append-only
// and chronological; only the content of the last assistant message is
// ever mutated, by token folding during a turn.
type ChatMessage struct {
	Role      Role
	Content   string
	CreatedAt time.Time
}

// =============================================================================
// TURN STATE
// =============================================================================

// TurnState is the phase of the current chat turn.
type TurnState int

const (
	StateIdle TurnState = iota
	StateSending
	StateStreaming
	StateCompleted
	StateFailed
	StateCancelled
)

// String returns the state name for status displays.
func (s TurnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// FallbackText replaces an empty assistant message when a turn fails
// before any answer text arrived. A partial answer is never overwritten.
const FallbackText = "The backend is unreachable or returned an error. Check that the Chaty backend is running and your endpoint setting."

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Streamer is the backend operation the controller drives. *chaty.Client
// satisfies it; tests supply scripted fakes.
type Streamer interface {
	ChatStream(ctx context.Context, req chaty.ChatRequest, callback chaty.StreamCallback) error
}

// Params are the per-turn request knobs taken from settings.
type Params struct {
	// Model is sent as chat_model; empty means backend default.
	Model string

	// TopK is the retrieval width, already sanitized to [1,20].
	TopK int

	// Temperature is already sanitized to [0,1].
	Temperature float64
}

// Snapshot is an immutable copy of the conversation state, safe to read
// after the controller has moved on.
type Snapshot struct {
	SessionID  string
	State      TurnState
	Busy       bool
	Messages   []ChatMessage
	Sources    []chaty.SourceItem
	LastError  string
	LastStatus string
}

// Option customizes a Controller.
type Option func(*Controller)

// WithIDGenerator overrides session id generation.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

// WithClock overrides message timestamping.
func WithClock(fn func() time.Time) Option {
	return func(c *Controller) { c.now = fn }
}

// WithOnChange registers a callback invoked with a fresh snapshot after
// every state mutation. The callback runs outside the controller's lock.
func WithOnChange(fn func(Snapshot)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns one conversation and serializes chat turns against the
// backend. All exported methods are safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	client Streamer
	newID  func() string
	now    func() time.Time

	sessionID string
	params    Params

	state      TurnState
	busy       bool
	messages   []ChatMessage
	sources    []chaty.SourceItem
	lastError  string
	lastStatus string

	cancelTurn context.CancelFunc
	onChange   func(Snapshot)
}

// NewController creates a controller with a fresh session id. The id is
// fixed for the controller's lifetime; a new conversation needs a new
// controller.
func NewController(client Streamer, params Params, opts ...Option) *Controller {
	c := &Controller{
		client: client,
		newID:  uuid.NewString,
		now:    time.Now,
		params: params,
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.sessionID = c.newID()
	return c
}

// SessionID returns the conversation's stable session id.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// SetParams replaces the per-turn request parameters. The change applies
// from the next send; an in-flight turn keeps the parameters it started
// with.
func (c *Controller) SetParams(params Params) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = params
}

// SetStatus records a transient status line (shown until the next send).
func (c *Controller) SetStatus(status string) {
	c.mu.Lock()
	c.lastStatus = status
	c.mu.Unlock()
	c.notify()
}

// Snapshot returns a copy of the current conversation state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:  c.sessionID,
		State:      c.state,
		Busy:       c.busy,
		LastError:  c.lastError,
		LastStatus: c.lastStatus,
	}
	snap.Messages = make([]ChatMessage, len(c.messages))
	copy(snap.Messages, c.messages)
	snap.Sources = make([]chaty.SourceItem, len(c.sources))
	copy(snap.Sources, c.sources)
	return snap
}

// notify delivers a snapshot to the change callback, outside the lock.
func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	var snap Snapshot
	if fn != nil {
		snap = c.snapshotLocked()
	}
	c.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

// =============================================================================
// SENDING
// =============================================================================

// Send runs one chat turn to completion: it appends the user message and
// an empty assistant placeholder, streams the answer into the
// placeholder, and records the outcome. It blocks until the turn ends;
// interactive callers run it in a goroutine and watch snapshots.
//
// Send is a no-op when a turn is already in flight or the trimmed message
// is empty.
func (c *Controller) Send(ctx context.Context, message string) {
	text := strings.TrimSpace(message)
	if text == "" {
		return
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return
	}

	c.lastError = ""
	c.lastStatus = ""
	c.sources = nil

	// User message and assistant placeholder share one timestamp so the
	// transcript shows them as a single exchange.
	ts := c.now()
	c.messages = append(c.messages,
		ChatMessage{Role: RoleUser, Content: text, CreatedAt: ts},
		ChatMessage{Role: RoleAssistant, Content: "", CreatedAt: ts},
	)

	c.busy = true
	c.state = StateSending

	streamCtx, cancel := context.WithCancel(ctx)
	c.cancelTurn = cancel

	req := chaty.ChatRequest{
		SessionID:   c.sessionID,
		Message:     text,
		TopK:        c.params.TopK,
		ChatModel:   c.params.Model,
		Temperature: c.params.Temperature,
	}
	c.mu.Unlock()
	c.notify()

	// Finalization must run on every exit path: busy resets to false and
	// the state machine returns to Idle.
	defer c.finishTurn()
	defer cancel()

	err := c.client.ChatStream(streamCtx, req, c.fold)
	switch {
	case err == nil:
		c.endTurn(StateCompleted)
	case errors.Is(err, context.Canceled):
		// A caller-initiated stop is a normal completion path, never a
		// failure. Classified by cause, not by message text.
		c.endTurn(StateCancelled)
	default:
		c.failTurn(err)
	}
}

// Cancel aborts the in-flight turn, if any. Tokens already folded stay in
// the transcript.
func (c *Controller) Cancel() {
	c.mu.Lock()
	cancel := c.cancelTurn
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Clear drops the transcript and sources while keeping the session id.
// Ignored while a turn is in flight.
func (c *Controller) Clear() {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return
	}
	c.messages = nil
	c.sources = nil
	c.lastError = ""
	c.lastStatus = ""
	c.mu.Unlock()
	c.notify()
}

// =============================================================================
// EVENT FOLDING
// =============================================================================

// fold applies one stream event to the conversation state. Events arrive
// strictly in order on a single goroutine per turn.
func (c *Controller) fold(event chaty.Event) {
	c.mu.Lock()

	// First callback means the exchange is open.
	if c.state == StateSending {
		c.state = StateStreaming
	}

	switch event.Kind {
	case chaty.EventToken:
		// Tokens only ever target the current assistant placeholder,
		// which is the last message by construction.
		if n := len(c.messages); n > 0 && c.messages[n-1].Role == RoleAssistant {
			c.messages[n-1].Content += event.Token
		}

	case chaty.EventSources:
		// Replaced wholesale, never merged. A later sources event in the
		// same turn wins.
		c.sources = event.Sources

	case chaty.EventDone:
		// Terminal signal; the outcome is recorded when ChatStream
		// returns.
	}

	c.mu.Unlock()
	c.notify()
}

// endTurn records a non-failure outcome.
func (c *Controller) endTurn(state TurnState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	c.notify()
}

// failTurn records a failed turn. An empty placeholder gets the fallback
// text; partial content already folded is preserved verbatim.
func (c *Controller) failTurn(err error) {
	c.mu.Lock()
	if n := len(c.messages); n > 0 && c.messages[n-1].Role == RoleAssistant && c.messages[n-1].Content == "" {
		c.messages[n-1].Content = FallbackText
	}
	c.lastError = err.Error()
	c.state = StateFailed
	c.mu.Unlock()
	c.notify()
}

// finishTurn releases the single-flight slot and returns to Idle.
func (c *Controller) finishTurn() {
	c.mu.Lock()
	c.busy = false
	c.cancelTurn = nil
	c.state = StateIdle
	c.mu.Unlock()
	c.notify()
}
