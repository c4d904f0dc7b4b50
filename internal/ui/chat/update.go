// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/chaty-tui/internal/util"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SnapshotMsg:
		m.snap = msg.Snapshot
		m.updateViewport()
		if m.snap.Busy {
			m.viewport.GotoBottom()
		}
		return m, m.listen()

	case HealthMsg:
		if msg.Err != nil {
			m.controller.SetStatus("backend unreachable: " + msg.Err.Error())
		} else {
			m.controller.SetStatus("connected to " + m.client.BaseURL())
		}
		return m, nil

	case IngestResultMsg:
		m.controller.SetStatus(ingestSummary(msg))
		return m, nil

	case ConfigReloadMsg:
		m.ApplyConfig(msg.Cfg)
		m.updateViewport()
		m.controller.SetStatus("settings reloaded")
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "ctrl+q":
		// Abort any in-flight turn before the program exits so the send
		// goroutine unwinds instead of streaming into a dead UI.
		m.cancelMgr.clear()
		return m, tea.Quit

	case "esc":
		m.controller.Cancel()
		return m, nil

	case "enter":
		return m.submit()

	case "pgup", "ctrl+u":
		m.viewport.HalfViewUp()
		return m, nil

	case "pgdown", "ctrl+d":
		m.viewport.HalfViewDown()
		return m, nil

	case "up":
		m.viewport.LineUp(1)
		return m, nil

	case "down":
		m.viewport.LineDown(1)
		return m, nil

	case "home":
		m.viewport.GotoTop()
		return m, nil

	case "end":
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// INPUT SUBMISSION
// =============================================================================

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	if strings.HasPrefix(text, "/") {
		return m.handleCommand(text)
	}

	if m.snap.Busy {
		// The controller would refuse anyway; keeping the input intact lets
		// the user resubmit once the turn finishes.
		return m, nil
	}

	m.input.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelMgr.setCancelFunc(cancel)

	// Send blocks until the turn ends. Snapshots flow back through the
	// listen command; the goroutine touches nothing else on the model.
	controller := m.controller
	cancelMgr := m.cancelMgr
	go func() {
		controller.Send(ctx, text)
		cancelMgr.clear()
	}()

	return m, textinput.Blink
}

// handleCommand dispatches a slash command typed into the input.
func (m Model) handleCommand(text string) (tea.Model, tea.Cmd) {
	m.input.Reset()

	fields := strings.Fields(text)
	switch fields[0] {
	case "/quit", "/exit":
		m.cancelMgr.clear()
		return m, tea.Quit

	case "/clear":
		m.controller.Clear()
		return m, nil

	case "/health":
		m.controller.SetStatus("checking backend...")
		return m, m.checkHealth()

	case "/ingest":
		force := len(fields) > 1 && fields[1] == "force"
		if force {
			m.controller.SetStatus("re-indexing all documents...")
		} else {
			m.controller.SetStatus("indexing new documents...")
		}
		return m, m.startIngest(force)

	case "/help":
		m.controller.SetStatus("commands: /ingest [force], /clear, /health, /quit (esc cancels a turn)")
		return m, nil

	default:
		m.controller.SetStatus("unknown command: " + fields[0] + " (try /help)")
		return m, nil
	}
}

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	// Layout: header + viewport + input line + status bar.
	const (
		headerHeight    = 2
		inputAreaHeight = 2
		statusBarHeight = 1
	)

	viewportHeight := m.height - headerHeight - inputAreaHeight - statusBarHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	viewportWidth := m.width
	if viewportWidth < 1 {
		viewportWidth = 1
	}

	m.viewport.Width = viewportWidth
	m.viewport.Height = viewportHeight

	inputWidth := m.width - 4
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	m.rebuildRenderer()
	m.updateViewport()

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// rebuildRenderer recreates the markdown renderer for the current width
// and theme. A nil renderer falls back to plain text.
func (m *Model) rebuildRenderer() {
	wrap := m.width - 4
	if wrap < 20 {
		wrap = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.theme.GlamourStyle),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer = renderer
}

// =============================================================================
// STATUS SUMMARIES
// =============================================================================

// ingestSummary formats an ingest outcome into a one-line status.
func ingestSummary(msg IngestResultMsg) string {
	if msg.Err != nil {
		return "ingest failed: " + msg.Err.Error()
	}

	r := msg.Result
	return "ingest: indexed " + util.IntToString(len(r.IndexedFiles)) +
		", skipped " + util.IntToString(len(r.SkippedFiles)) +
		", added " + util.IntToString(r.TotalChunksAdded) + " chunks to " + r.CollectionName
}
