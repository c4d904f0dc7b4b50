// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"
)

func TestParse_Commands(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want Command
	}{
		{"no args launches TUI", nil, CmdTUI},
		{"chat", []string{"chat"}, CmdChat},
		{"ask", []string{"ask", "what", "is", "this"}, CmdAsk},
		{"ingest", []string{"ingest"}, CmdIngest},
		{"index alias", []string{"index"}, CmdIngest},
		{"status", []string{"status"}, CmdStatus},
		{"status alias", []string{"s"}, CmdStatus},
		{"config", []string{"config"}, CmdConfig},
		{"version", []string{"version"}, CmdVersion},
		{"version flag", []string{"--version"}, CmdVersion},
		{"help", []string{"help"}, CmdHelp},
		{"unknown falls back to help", []string{"bogus"}, CmdHelp},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd, _ := Parse(tc.argv)
			if cmd != tc.want {
				t.Errorf("Parse(%v) = %v, want %v", tc.argv, cmd, tc.want)
			}
		})
	}
}

func TestParse_AskJoinsQuery(t *testing.T) {
	_, args := Parse([]string{"ask", "what", "is", "chaty"})
	if args.Query != "what is chaty" {
		t.Errorf("Query = %q, want %q", args.Query, "what is chaty")
	}
}

func TestParse_GlobalFlags(t *testing.T) {
	cmd, args := Parse([]string{"--endpoint", "http://other:9000", "ingest", "--force", "-q"})
	if cmd != CmdIngest {
		t.Fatalf("cmd = %v, want CmdIngest", cmd)
	}
	if args.Endpoint != "http://other:9000" {
		t.Errorf("Endpoint = %q", args.Endpoint)
	}
	if !args.Force {
		t.Error("Force not set")
	}
	if !args.Quiet {
		t.Error("Quiet not set")
	}
}

func TestParse_ConfigSubcommand(t *testing.T) {
	_, args := Parse([]string{"config", "set", "top_k", "8"})
	if args.Subcommand != "set" {
		t.Errorf("Subcommand = %q, want %q", args.Subcommand, "set")
	}
	if len(args.Raw) != 2 || args.Raw[0] != "top_k" || args.Raw[1] != "8" {
		t.Errorf("Raw = %v, want [top_k 8]", args.Raw)
	}
}
