// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chaty

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// sseServer returns an httptest server that writes the given raw SSE body
// for every /chat request.
func sseServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, body)
	}))
}

// =============================================================================
// SSE READER TESTS
// =============================================================================

func TestSSEReader_ReadEvent(t *testing.T) {
	input := "event: token\ndata: {\"text\": \"hi\"}\n\n" +
		"event: done\ndata: {}\n\n"
	reader := NewSSEReader(strings.NewReader(input))

	eventType, data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent() error = %v", err)
	}
	if eventType != "token" {
		t.Errorf("eventType = %q, want 'token'", eventType)
	}
	if string(data) != `{"text": "hi"}` {
		t.Errorf("data = %q", string(data))
	}

	eventType, data, err = reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent() error = %v", err)
	}
	if eventType != "done" {
		t.Errorf("eventType = %q, want 'done'", eventType)
	}
	if string(data) != "{}" {
		t.Errorf("data = %q", string(data))
	}

	_, _, err = reader.ReadEvent()
	if err != io.EOF {
		t.Errorf("ReadEvent() error = %v, want io.EOF", err)
	}
}

func TestSSEReader_CRLFAndIgnoredFields(t *testing.T) {
	input := ": keepalive comment\r\n" +
		"id: 7\r\n" +
		"retry: 1000\r\n" +
		"event: token\r\n" +
		"data: {\"text\": \"x\"}\r\n" +
		"\r\n"
	reader := NewSSEReader(strings.NewReader(input))

	eventType, data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent() error = %v", err)
	}
	if eventType != "token" {
		t.Errorf("eventType = %q", eventType)
	}
	if string(data) != `{"text": "x"}` {
		t.Errorf("data = %q", string(data))
	}
}

func TestSSEReader_MultilineData(t *testing.T) {
	input := "data: first\ndata: second\n\n"
	reader := NewSSEReader(strings.NewReader(input))

	_, data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent() error = %v", err)
	}
	if string(data) != "first\nsecond" {
		t.Errorf("data = %q", string(data))
	}
}

// =============================================================================
// CHAT STREAM TESTS
// =============================================================================

func TestChatStream_FullTurn(t *testing.T) {
	body := "event: token\ndata: {\"text\": \"Hello\"}\n\n" +
		"event: token\ndata: {\"text\": \" world\"}\n\n" +
		"event: sources\ndata: {\"sources\": [{\"source\": \"notes.md\", \"score\": 0.87, \"preview\": \"...\"}]}\n\n" +
		"event: done\ndata: {}\n\n"
	server := sseServer(t, body)
	defer server.Close()

	client := testClient(server.URL)

	var events []Event
	err := client.ChatStream(context.Background(), ChatRequest{
		SessionID:   "s1",
		Message:     "hi",
		TopK:        4,
		Temperature: 0.2,
	}, func(ev Event) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("ChatStream() error = %v", err)
	}

	if len(events) != 4 {
		t.Fatalf("events = %d, want 4", len(events))
	}
	if events[0].Kind != EventToken || events[0].Token != "Hello" {
		t.Errorf("events[0] = %+v", events[0])
	}
	if events[1].Kind != EventToken || events[1].Token != " world" {
		t.Errorf("events[1] = %+v", events[1])
	}
	if events[2].Kind != EventSources {
		t.Fatalf("events[2] = %+v", events[2])
	}
	if len(events[2].Sources) != 1 || events[2].Sources[0].Source != "notes.md" {
		t.Errorf("sources = %+v", events[2].Sources)
	}
	if events[2].Sources[0].IsLexicalMatch() {
		t.Error("score 0.87 should not be a lexical match")
	}
	if events[3].Kind != EventDone {
		t.Errorf("events[3] = %+v", events[3])
	}
}

func TestChatStream_RequestBody(t *testing.T) {
	var got map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		io.WriteString(w, "event: done\ndata: {}\n\n")
	}))
	defer server.Close()

	client := testClient(server.URL)
	err := client.ChatStream(context.Background(), ChatRequest{
		SessionID:   "abc",
		Message:     "question",
		TopK:        8,
		Temperature: 0.5,
	}, func(Event) {})
	if err != nil {
		t.Fatalf("ChatStream() error = %v", err)
	}

	for _, field := range []string{"session_id", "message", "top_k", "temperature"} {
		if _, ok := got[field]; !ok {
			t.Errorf("request body missing %q", field)
		}
	}
	// Empty model must be omitted so the backend default applies.
	if _, ok := got["chat_model"]; ok {
		t.Error("chat_model should be omitted when empty")
	}
}

func TestChatStream_ServerErrorDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail": "OpenAI API authentication failed."}`)
	}))
	defer server.Close()

	client := testClient(server.URL)
	err := client.ChatStream(context.Background(), ChatRequest{}, func(Event) {
		t.Error("callback should not run on error response")
	})
	if !IsServerError(err) {
		t.Fatalf("error = %v, want server error", err)
	}
	if err.(*ClientError).Message != "OpenAI API authentication failed." {
		t.Errorf("Message = %q", err.(*ClientError).Message)
	}
}

func TestChatStream_ServerErrorFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(server.URL)
	err := client.ChatStream(context.Background(), ChatRequest{}, func(Event) {})
	if !IsServerError(err) {
		t.Fatalf("error = %v, want server error", err)
	}
	if msg := err.(*ClientError).Message; msg != "Chat request failed with status 404" {
		t.Errorf("Message = %q", msg)
	}
}

func TestChatStream_MalformedTokenEvent(t *testing.T) {
	body := "event: token\ndata: {not json\n\n"
	server := sseServer(t, body)
	defer server.Close()

	client := testClient(server.URL)
	err := client.ChatStream(context.Background(), ChatRequest{}, func(Event) {})
	if !IsProtocolError(err) {
		t.Fatalf("error = %v, want protocol error", err)
	}
}

func TestChatStream_TruncatedStream(t *testing.T) {
	// Connection ends after one token without a done event.
	body := "event: token\ndata: {\"text\": \"partial\"}\n\n"
	server := sseServer(t, body)
	defer server.Close()

	client := testClient(server.URL)
	var tokens []string
	err := client.ChatStream(context.Background(), ChatRequest{}, func(ev Event) {
		if ev.Kind == EventToken {
			tokens = append(tokens, ev.Token)
		}
	})
	if !IsTransportError(err) {
		t.Fatalf("error = %v, want transport error", err)
	}
	// The partial token was still delivered before the failure.
	if len(tokens) != 1 || tokens[0] != "partial" {
		t.Errorf("tokens = %v", tokens)
	}
}

func TestChatStream_UnknownEventsSkipped(t *testing.T) {
	body := "event: heartbeat\ndata: {}\n\n" +
		"event: token\ndata: {\"text\": \"ok\"}\n\n" +
		"event: done\ndata: {}\n\n"
	server := sseServer(t, body)
	defer server.Close()

	client := testClient(server.URL)
	var kinds []EventKind
	err := client.ChatStream(context.Background(), ChatRequest{}, func(ev Event) {
		kinds = append(kinds, ev.Kind)
	})
	if err != nil {
		t.Fatalf("ChatStream() error = %v", err)
	}
	if len(kinds) != 2 || kinds[0] != EventToken || kinds[1] != EventDone {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestChatStream_Cancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		io.WriteString(w, "event: token\ndata: {\"text\": \"first\"}\n\n")
		flusher.Flush()
		<-release // Hold the stream open until the test finishes
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	client := testClient(server.URL)

	errCh := make(chan error, 1)
	go func() {
		errCh <- client.ChatStream(ctx, ChatRequest{}, func(ev Event) {
			if ev.Kind == EventToken {
				cancel()
			}
		})
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
		if IsTransportError(err) {
			t.Error("cancellation must not be classified as a transport error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ChatStream did not return after cancellation")
	}
}

// =============================================================================
// CHANNEL STREAMING TESTS
// =============================================================================

func TestChatStreamChan(t *testing.T) {
	body := "event: token\ndata: {\"text\": \"a\"}\n\n" +
		"event: token\ndata: {\"text\": \"b\"}\n\n" +
		"event: done\ndata: {}\n\n"
	server := sseServer(t, body)
	defer server.Close()

	client := testClient(server.URL)

	var text strings.Builder
	sawDone := false
	for ev := range client.ChatStreamChan(context.Background(), ChatRequest{}) {
		if ev.Err != nil {
			t.Fatalf("stream error = %v", ev.Err)
		}
		switch ev.Kind {
		case EventToken:
			text.WriteString(ev.Token)
		case EventDone:
			sawDone = true
		}
	}

	if text.String() != "ab" {
		t.Errorf("text = %q, want 'ab'", text.String())
	}
	if !sawDone {
		t.Error("done event not delivered")
	}
}

func TestChatStreamChan_ErrorDelivered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testClient(server.URL)

	var last Event
	for ev := range client.ChatStreamChan(context.Background(), ChatRequest{}) {
		last = ev
	}
	if last.Err == nil {
		t.Fatal("expected final event with Err set")
	}
	if !IsServerError(last.Err) {
		t.Errorf("Err = %v, want server error", last.Err)
	}
}
