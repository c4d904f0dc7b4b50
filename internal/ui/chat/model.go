// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/chaty-tui/internal/chaty"
	"github.com/jeranaias/chaty-tui/internal/config"
	"github.com/jeranaias/chaty-tui/internal/conversation"
	"github.com/jeranaias/chaty-tui/internal/ui/styles"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

const (
	healthCheckTimeout = 5 * time.Second
	ingestTimeout      = 10 * time.Minute
)

// Model is the Bubble Tea model for the chat view. The conversation itself
// lives in the controller; the model only holds the latest snapshot plus
// presentation state.
type Model struct {
	theme *styles.Theme

	controller *conversation.Controller
	client     *chaty.Client
	cfg        *config.Config

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	// updates feeds controller snapshots into the Bubble Tea loop. The
	// listen command re-arms itself after every receipt.
	updates chan tea.Msg

	cancelMgr *cancelManager // pointer to avoid copying the mutex on updates

	snap   conversation.Snapshot
	width  int
	height int
	ready  bool
}

// New creates the chat view backed by the given client and settings.
func New(client *chaty.Client, cfg *config.Config) Model {
	theme := styles.Resolve(cfg.Theme)

	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.Placeholder = "Ask about your documents..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	updates := make(chan tea.Msg, 256)

	controller := conversation.NewController(client, paramsFromConfig(cfg),
		conversation.WithOnChange(func(snap conversation.Snapshot) {
			// Never block the controller on the UI. Snapshots are complete
			// states, so dropping one under backpressure loses nothing: the
			// next delivery supersedes it.
			select {
			case updates <- SnapshotMsg{Snapshot: snap}:
			default:
			}
		}))

	m := Model{
		theme:      theme,
		controller: controller,
		client:     client,
		cfg:        cfg,
		viewport:   vp,
		input:      ti,
		spinner:    sp,
		updates:    updates,
		cancelMgr:  newCancelManager(),
	}
	m.snap = controller.Snapshot()
	return m
}

// paramsFromConfig maps sanitized settings onto per-turn request knobs.
func paramsFromConfig(cfg *config.Config) conversation.Params {
	return conversation.Params{
		Model:       cfg.ChatModel,
		TopK:        cfg.TopK,
		Temperature: cfg.Temperature,
	}
}

// ApplyConfig installs reloaded settings: request parameters take effect
// from the next turn, the theme from the next render.
func (m *Model) ApplyConfig(cfg *config.Config) {
	m.cfg = cfg
	m.theme = styles.Resolve(cfg.Theme)
	m.controller.SetParams(paramsFromConfig(cfg))
	m.rebuildRenderer()
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the input blink, the spinner, the snapshot listener, and an
// initial backend health probe.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.listen(),
		m.checkHealth(),
	)
}

// View renders the chat view.
func (m Model) View() string {
	return m.renderChat()
}

// =============================================================================
// COMMANDS
// =============================================================================

// listen waits for the next controller snapshot. It must be re-issued
// after every delivery to keep the channel drained.
func (m Model) listen() tea.Cmd {
	ch := m.updates
	return func() tea.Msg {
		return <-ch
	}
}

// checkHealth probes the backend off the Update loop.
func (m Model) checkHealth() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
		defer cancel()
		return HealthMsg{Err: client.CheckHealth(ctx)}
	}
}

// startIngest runs an ingest pass off the Update loop. Ingest can take
// minutes on a large corpus, hence the generous timeout.
func (m Model) startIngest(force bool) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
		defer cancel()
		result, err := client.Ingest(ctx, force)
		return IngestResultMsg{Result: result, Err: err}
	}
}
