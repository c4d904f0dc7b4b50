// chaty - a terminal client for the Chaty retrieval-augmented chat backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chaty-tui/internal/chaty"
	"github.com/jeranaias/chaty-tui/internal/cli"
	"github.com/jeranaias/chaty-tui/internal/config"
	"github.com/jeranaias/chaty-tui/internal/endpoint"
	"github.com/jeranaias/chaty-tui/internal/ui/chat"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])

	switch cmd {
	case cli.CmdVersion:
		cli.HandleVersion()
		return
	case cli.CmdHelp:
		fmt.Print(cli.Usage())
		return
	}

	store, err := config.NewFileStore()
	if err != nil {
		cli.PrintError(err)
		os.Exit(1)
	}
	cfg, err := store.Load()
	if err != nil {
		cli.PrintError(err)
		os.Exit(1)
	}

	// A --endpoint flag overrides the stored endpoint for this run only.
	if args.Endpoint != "" {
		normalized, err := endpoint.Normalize(args.Endpoint)
		if err != nil {
			cli.PrintError(err)
			os.Exit(1)
		}
		cfg.Endpoint = normalized
	}

	client := chaty.NewClientWithConfig(&chaty.ClientConfig{BaseURL: cfg.Endpoint})

	var runErr error
	switch cmd {
	case cli.CmdTUI:
		runErr = runTUI(client, store, cfg)
	case cli.CmdChat:
		runErr = cli.HandleChat(client, cfg, args.Quiet)
	case cli.CmdAsk:
		runErr = cli.HandleAsk(client, cfg, args.Query, args.Quiet)
	case cli.CmdIngest:
		runErr = cli.HandleIngest(client, args.Force, args.Quiet)
	case cli.CmdStatus:
		runErr = cli.HandleStatus(client, args.Quiet)
	case cli.CmdConfig:
		runErr = cli.HandleConfig(store, args.Subcommand, args.Raw)
	}

	if runErr != nil {
		cli.PrintError(runErr)
		os.Exit(1)
	}
}

// runTUI starts the Bubble Tea interface with a config watcher feeding
// external settings edits into the running program.
func runTUI(client *chaty.Client, store *config.FileStore, cfg *config.Config) error {
	if !cli.IsStdoutTTY() {
		return fmt.Errorf("not a terminal; use 'chaty chat' or 'chaty ask' for scripted use")
	}

	program := tea.NewProgram(chat.New(client, cfg), tea.WithAltScreen())

	watcher, err := config.NewWatcher(store, 200*time.Millisecond, func(reloaded *config.Config) {
		program.Send(chat.ConfigReloadMsg{Cfg: reloaded})
	})
	if err == nil {
		if werr := watcher.Watch(); werr == nil {
			defer watcher.Close()
		}
	}
	// A watcher failure degrades to manual restarts for settings changes.

	_, err = program.Run()
	return err
}
