// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat REPL for plain terminals.
//
// Handles "chaty chat": a readline loop with input history, streaming
// answers printed as they arrive, and Ctrl+C cancelling the in-flight
// turn without leaving the session.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/chaty-tui/internal/chaty"
	"github.com/jeranaias/chaty-tui/internal/config"
	"github.com/jeranaias/chaty-tui/internal/conversation"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	commandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	sourceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("152"))
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// chatInput provides line editing and persistent input history for the
// REPL, backed by a history file next to the config.
type chatInput struct {
	line        *liner.State
	historyFile string
}

func newChatInput() *chatInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}

	in := &chatInput{
		line:        line,
		historyFile: filepath.Join(dir, "chat_history"),
	}
	if f, err := os.Open(in.historyFile); err == nil {
		in.line.ReadHistory(f)
		f.Close()
	}
	return in
}

// readInput reads one line with history navigation. Non-empty input is
// appended to the history.
func (in *chatInput) readInput(prompt string) (string, error) {
	input, err := in.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		in.line.AppendHistory(input)
	}
	return input, nil
}

// close persists the history with owner-only permissions and releases the
// terminal.
func (in *chatInput) close() {
	if err := os.MkdirAll(filepath.Dir(in.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(in.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			in.line.WriteHistory(f)
			f.Close()
		}
	}
	in.line.Close()
}

// =============================================================================
// TOKEN PRINTER
// =============================================================================

// tokenPrinter turns controller snapshots into incremental stdout output.
// Snapshots carry the full assistant text so far; the printer emits only
// the unseen suffix. Callbacks run on the sending goroutine, so no
// locking is needed.
type tokenPrinter struct {
	printed int
}

func (p *tokenPrinter) reset() {
	p.printed = 0
}

func (p *tokenPrinter) observe(snap conversation.Snapshot) {
	n := len(snap.Messages)
	if n == 0 || snap.Messages[n-1].Role != conversation.RoleAssistant {
		return
	}
	content := snap.Messages[n-1].Content
	if len(content) > p.printed {
		fmt.Print(content[p.printed:])
		p.printed = len(content)
	}
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs the interactive REPL against the given backend client.
func HandleChat(client *chaty.Client, cfg *config.Config, quiet bool) error {
	printer := &tokenPrinter{}
	controller := conversation.NewController(client, conversation.Params{
		Model:       cfg.ChatModel,
		TopK:        cfg.TopK,
		Temperature: cfg.Temperature,
	}, conversation.WithOnChange(printer.observe))

	// A failed probe is a warning, not a refusal: the backend may come up
	// after the session starts.
	if err := client.CheckHealth(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, warnStyle.Render("[Warning]")+" backend not reachable: "+err.Error())
	}

	if !quiet {
		printWelcome(client, cfg)
	}

	input := newChatInput()
	defer input.close()

	// Ctrl+C during a turn cancels the stream; at the prompt liner turns
	// it into ErrPromptAborted instead.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			controller.Cancel()
		}
	}()

	for {
		line, err := input.readInput(promptStyle.Render("chaty> "))
		if err != nil {
			// Ctrl+C at the prompt clears the line; Ctrl+D (or any other
			// read error) ends the session.
			if err == liner.ErrPromptAborted {
				fmt.Println()
				continue
			}
			fmt.Println()
			fmt.Println(infoStyle.Render("Goodbye!"))
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			keepGoing, err := handleSlashCommand(line, client, controller)
			if err != nil {
				fmt.Fprintln(os.Stderr, errorStyle.Render("[Error]")+" "+err.Error())
			}
			if !keepGoing {
				fmt.Println(infoStyle.Render("Goodbye!"))
				return nil
			}
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			fmt.Println(infoStyle.Render("Goodbye!"))
			return nil
		}

		runTurn(controller, printer, line, quiet)
	}
}

// runTurn sends one message and prints the streamed answer, the outcome,
// and the retrieved sources.
func runTurn(controller *conversation.Controller, printer *tokenPrinter, message string, quiet bool) {
	printer.reset()
	fmt.Println()

	controller.Send(context.Background(), message)

	fmt.Println()
	snap := controller.Snapshot()

	if snap.LastError != "" {
		fmt.Fprintln(os.Stderr, errorStyle.Render("[Error]")+" "+snap.LastError)
	}
	if !quiet && len(snap.Sources) > 0 {
		printSources(snap.Sources)
	}
	fmt.Println()
}

// printSources lists the retrieved sources for the last answer.
func printSources(sources []chaty.SourceItem) {
	fmt.Println(infoStyle.Render("Sources:"))
	for i, src := range sources {
		score := fmt.Sprintf("score %.2f", src.Score)
		if src.IsLexicalMatch() {
			score = "lexical match"
		}
		fmt.Printf("  %d. %s %s\n", i+1,
			sourceStyle.Render(src.Source),
			infoStyle.Render("("+score+")"))
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes a REPL slash command. The bool result is
// false when the session should end.
func handleSlashCommand(cmd string, client *chaty.Client, controller *conversation.Controller) (bool, error) {
	parts := strings.Fields(cmd)
	args := parts[1:]

	switch strings.ToLower(parts[0]) {
	case "/help", "/h", "/?":
		printReplHelp()
		return true, nil

	case "/clear", "/c":
		controller.Clear()
		fmt.Println(commandStyle.Render("[Conversation cleared]"))
		return true, nil

	case "/sources":
		snap := controller.Snapshot()
		if len(snap.Sources) == 0 {
			fmt.Println(infoStyle.Render("[No sources for the last answer]"))
			return true, nil
		}
		printSources(snap.Sources)
		return true, nil

	case "/ingest":
		force := len(args) > 0 && args[0] == "force"
		return true, runIngest(client, force, false)

	case "/status", "/s":
		return true, HandleStatus(client, true)

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", parts[0])
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

func printWelcome(client *chaty.Client, cfg *config.Config) {
	fmt.Println()
	fmt.Println(promptStyle.Render("chaty interactive chat"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n", infoStyle.Render("Backend:"), commandStyle.Render(client.BaseURL()))
	fmt.Printf("%s %s\n", infoStyle.Render("Model:"), commandStyle.Render(cfg.ChatModel))
	fmt.Println()
	fmt.Println(infoStyle.Render("Type your question and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

func printReplHelp() {
	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/clear, /c", "Clear conversation history"},
		{"/sources", "Show sources for the last answer"},
		{"/ingest [force]", "Index documents (force re-indexes all)"},
		{"/status, /s", "Check backend health"},
		{"/quit, /q", "Exit chat"},
	}

	fmt.Println()
	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-16s", c.cmd)),
			infoStyle.Render(c.desc))
	}
	fmt.Println()
	fmt.Println(infoStyle.Render("Tip: Ctrl+C cancels the current answer, Ctrl+D exits"))
	fmt.Println()
}
