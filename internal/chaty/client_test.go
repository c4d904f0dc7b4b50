// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chaty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(baseURL string) *Client {
	return NewClientWithConfig(&ClientConfig{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		// Effectively unlimited so tests never sleep on the limiter.
		IngestEvery: time.Nanosecond,
	})
}

// =============================================================================
// HEALTH CHECK TESTS
// =============================================================================

func TestCheckHealth_OK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q, want /health", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("method = %q, want GET", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	if err := client.CheckHealth(context.Background()); err != nil {
		t.Fatalf("CheckHealth() error = %v", err)
	}
}

func TestCheckHealth_WrongStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "degraded"}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	err := client.CheckHealth(context.Background())
	if err == nil {
		t.Fatal("CheckHealth() expected error")
	}
	if !IsProtocolError(err) {
		t.Errorf("error = %v, want protocol error", err)
	}
}

func TestCheckHealth_Unreachable(t *testing.T) {
	// Grab a port that nothing listens on.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := testClient(url)
	err := client.CheckHealth(context.Background())
	if err == nil {
		t.Fatal("CheckHealth() expected error")
	}
	if !IsTransportError(err) {
		t.Errorf("error = %v, want transport error", err)
	}
}

// =============================================================================
// INGEST TESTS
// =============================================================================

func TestIngest_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ingest" {
			t.Errorf("path = %q, want /ingest", r.URL.Path)
		}
		var req IngestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !req.Force {
			t.Error("force = false, want true")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"indexed_files": ["a.md", "b.pdf"],
			"skipped_files": ["old.txt"],
			"total_chunks_added": 42,
			"collection_name": "chaty",
			"persist_dir": "/data/chroma"
		}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	result, err := client.Ingest(context.Background(), true)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if len(result.IndexedFiles) != 2 || result.IndexedFiles[0] != "a.md" {
		t.Errorf("IndexedFiles = %v", result.IndexedFiles)
	}
	if len(result.SkippedFiles) != 1 || result.SkippedFiles[0] != "old.txt" {
		t.Errorf("SkippedFiles = %v", result.SkippedFiles)
	}
	if result.TotalChunksAdded != 42 {
		t.Errorf("TotalChunksAdded = %d, want 42", result.TotalChunksAdded)
	}
	if result.CollectionName != "chaty" {
		t.Errorf("CollectionName = %q", result.CollectionName)
	}
}

func TestIngest_ServerErrorWithDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"detail": "Could not reach OpenAI API."}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.Ingest(context.Background(), false)
	if err == nil {
		t.Fatal("Ingest() expected error")
	}
	if !IsServerError(err) {
		t.Fatalf("error = %v, want server error", err)
	}
	clientErr := err.(*ClientError)
	if clientErr.Message != "Could not reach OpenAI API." {
		t.Errorf("Message = %q", clientErr.Message)
	}
	if clientErr.Status != http.StatusBadGateway {
		t.Errorf("Status = %d, want 502", clientErr.Status)
	}
}

func TestIngest_ServerErrorNoDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`boom`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.Ingest(context.Background(), false)
	if err == nil {
		t.Fatal("Ingest() expected error")
	}
	clientErr, ok := err.(*ClientError)
	if !ok {
		t.Fatalf("error type = %T", err)
	}
	if clientErr.Message != "Ingest failed" {
		t.Errorf("Message = %q, want fallback 'Ingest failed'", clientErr.Message)
	}
}

func TestIngest_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"indexed_files": [], "skipped_files": [], "total_chunks_added": 0}`))
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{
		BaseURL:     server.URL,
		IngestEvery: time.Hour,
	})

	// First call consumes the burst slot.
	if _, err := client.Ingest(context.Background(), false); err != nil {
		t.Fatalf("first Ingest() error = %v", err)
	}

	// Second call would block for an hour; a cancelled context must get
	// it back immediately.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.Ingest(ctx, false)
	if err == nil {
		t.Fatal("second Ingest() expected error")
	}
}

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestNewClientWithConfig_FillsDefaults(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{})
	if client.config.BaseURL != "http://localhost:8000" {
		t.Errorf("BaseURL = %q", client.config.BaseURL)
	}
	if client.config.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", client.config.Timeout)
	}
	if client.config.IngestEvery != 2*time.Second {
		t.Errorf("IngestEvery = %v", client.config.IngestEvery)
	}
}

func TestNewClientWithConfig_Nil(t *testing.T) {
	client := NewClientWithConfig(nil)
	if client.BaseURL() != "http://localhost:8000" {
		t.Errorf("BaseURL() = %q", client.BaseURL())
	}
}
