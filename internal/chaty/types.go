// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chaty

// =============================================================================
// CHAT WIRE TYPES
// =============================================================================

// ChatRequest is the body of a POST /chat request.
//
// ChatModel is omitted when empty so the backend falls back to its own
// configured default rather than receiving an empty model name.
type ChatRequest struct {
	SessionID   string  `json:"session_id"`
	Message     string  `json:"message"`
	TopK        int     `json:"top_k"`
	ChatModel   string  `json:"chat_model,omitempty"`
	Temperature float64 `json:"temperature"`
}

// LexicalMatchScore is the sentinel relevance score the backend reports
// when a source was found by lexical (BM25) retrieval rather than vector
// similarity. Such scores are not comparable to similarity scores and
// should be presented differently.
const LexicalMatchScore = 0.0

// SourceItem is one retrieved document reference from a sources event.
type SourceItem struct {
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
	Preview string  `json:"preview"`
}

// IsLexicalMatch reports whether this source came from the lexical
// fallback retriever.
func (s SourceItem) IsLexicalMatch() bool {
	return s.Score == LexicalMatchScore
}

// =============================================================================
// INGEST WIRE TYPES
// =============================================================================

// IngestRequest is the body of a POST /ingest request.
type IngestRequest struct {
	Force bool `json:"force"`
}

// IngestResult is the backend's summary of an ingest run.
type IngestResult struct {
	IndexedFiles     []string `json:"indexed_files"`
	SkippedFiles     []string `json:"skipped_files"`
	TotalChunksAdded int      `json:"total_chunks_added"`
	CollectionName   string   `json:"collection_name"`
	PersistDir       string   `json:"persist_dir"`
}

// =============================================================================
// HEALTH WIRE TYPES
// =============================================================================

// HealthStatus is the body of a GET /health response.
type HealthStatus struct {
	Status string `json:"status"`
}

// errorBody is the JSON error envelope the backend uses for non-2xx
// responses ({"detail": "..."}).
type errorBody struct {
	Detail string `json:"detail"`
}
