// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"
)

// Version information (can be overridden at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command is the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdAsk
	CmdIngest
	CmdStatus
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Endpoint string // --endpoint URL overrides the configured backend
	Quiet    bool

	// Command-specific
	Query      string   // ask: the question
	Force      bool     // ingest: --force re-indexes everything
	Subcommand string   // config: get|set|path
	Raw        []string // remaining positional args
}

const usageText = `chaty - terminal client for the Chaty retrieval backend

Usage:
  chaty                      Start TUI (default)
  chaty chat                 Interactive chat REPL (plain terminal)
  chaty ask "question"       Ask a single question and exit
  chaty ingest [--force]     Index new documents (--force re-indexes all)
  chaty status               Check backend health
  chaty config [get|set|path] Inspect or edit settings
  chaty version              Show version
  chaty help                 Show this help

Global flags:
  --endpoint URL    Override the configured backend endpoint
  -q, --quiet       Minimal output

Settings live in ~/.chaty/config.toml. During chat, /help lists the
available slash commands; Ctrl+C cancels the in-flight answer.
`

// Usage returns the top-level help text.
func Usage() string {
	return usageText
}

// Parse maps os.Args[1:] onto a command and its arguments. Unknown
// commands fall through to help so a typo never launches the TUI by
// accident.
func Parse(argv []string) (Command, Args) {
	args := Args{}

	// Strip global flags first; they may appear before or after the
	// command word.
	var rest []string
	for i := 0; i < len(argv); i++ {
		switch argv[i] {
		case "--endpoint":
			if i+1 < len(argv) {
				i++
				args.Endpoint = argv[i]
			}
		case "-q", "--quiet":
			args.Quiet = true
		case "--force", "-f":
			args.Force = true
		default:
			rest = append(rest, argv[i])
		}
	}

	if len(rest) == 0 {
		return CmdTUI, args
	}

	cmd := strings.ToLower(rest[0])
	args.Raw = rest[1:]

	switch cmd {
	case "chat":
		return CmdChat, args

	case "ask":
		args.Query = strings.Join(args.Raw, " ")
		return CmdAsk, args

	case "ingest", "index":
		return CmdIngest, args

	case "status", "s", "health":
		return CmdStatus, args

	case "config":
		if len(args.Raw) > 0 {
			args.Subcommand = strings.ToLower(args.Raw[0])
			args.Raw = args.Raw[1:]
		}
		return CmdConfig, args

	case "version", "-v", "--version":
		return CmdVersion, args

	case "help", "-h", "--help":
		return CmdHelp, args

	default:
		return CmdHelp, args
	}
}
