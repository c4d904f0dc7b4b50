// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/chaty-tui/internal/chaty"
	"github.com/jeranaias/chaty-tui/internal/conversation"
	"github.com/jeranaias/chaty-tui/internal/util"
)

// =============================================================================
// RENDERING
// =============================================================================

const timestampLayout = "15:04:05"

func (m Model) renderChat() string {
	if !m.ready {
		return "Starting chaty..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.theme.Title.Render("chaty")
	subtitle := m.theme.Subtitle.Render(m.client.BaseURL() + " · session " + shortID(m.snap.SessionID))
	return title + "  " + subtitle
}

// shortID abbreviates a session id for the header.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// updateViewport re-renders the transcript and sources into the viewport.
func (m *Model) updateViewport() {
	var b strings.Builder
	b.WriteString(m.renderTranscript())
	if len(m.snap.Sources) > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderSources())
	}
	m.viewport.SetContent(b.String())
}

func (m Model) renderTranscript() string {
	if len(m.snap.Messages) == 0 {
		return m.theme.Subtitle.Render("Ask a question about your indexed documents. Type /help for commands.")
	}

	var b strings.Builder
	for i, msg := range m.snap.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderMessage(msg conversation.ChatMessage) string {
	ts := m.theme.Timestamp.Render(msg.CreatedAt.Format(timestampLayout))

	var label, body string
	switch msg.Role {
	case conversation.RoleUser:
		label = m.theme.UserLabel.Render("You")
		body = m.theme.MessageBody.Render(msg.Content)
	default:
		label = m.theme.AssistantLabel.Render("Chaty")
		body = m.renderMarkdown(msg.Content)
	}

	return label + " " + ts + "\n" + body
}

// renderMarkdown renders assistant text as markdown, falling back to the
// raw text when the renderer is unavailable or chokes on partial input.
func (m Model) renderMarkdown(content string) string {
	if content == "" {
		return m.theme.Subtitle.Render("...")
	}
	if m.renderer == nil {
		return m.theme.MessageBody.Render(content)
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return m.theme.MessageBody.Render(content)
	}
	return strings.TrimRight(out, "\n")
}

// =============================================================================
// SOURCES PANEL
// =============================================================================

func (m Model) renderSources() string {
	var b strings.Builder
	b.WriteString(m.theme.SourcesHeader.Render("Sources"))
	b.WriteString("\n")

	previewWidth := m.width - 6
	if previewWidth < 20 {
		previewWidth = 20
	}

	for i, src := range m.snap.Sources {
		b.WriteString("  ")
		b.WriteString(m.theme.SourceName.Render(util.IntToString(i+1) + ". " + src.Source))
		b.WriteString(" ")
		b.WriteString(m.theme.SourceScore.Render("(" + formatScore(src) + ")"))
		b.WriteString("\n")

		if src.Preview != "" {
			preview := runewidth.Truncate(strings.ReplaceAll(src.Preview, "\n", " "), previewWidth, "…")
			b.WriteString("     ")
			b.WriteString(m.theme.SourcePreview.Render(preview))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// formatScore renders a relevance score, distinguishing lexical fallback
// hits whose sentinel score is not a similarity.
func formatScore(src chaty.SourceItem) string {
	if src.IsLexicalMatch() {
		return "lexical match"
	}
	return "score " + util.FloatToString(src.Score)
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	switch {
	case m.snap.Busy:
		return m.spinner.View() + " " + m.theme.StatusBar.Render(m.snap.State.String()+" · esc to cancel")

	case m.snap.LastError != "":
		return m.theme.StatusError.Render("error: " + m.snap.LastError)

	case m.snap.LastStatus != "":
		return m.theme.StatusBar.Render(m.snap.LastStatus)

	default:
		return m.theme.StatusBar.Render("enter to send · /help for commands · ctrl+c to quit")
	}
}
