// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// handlers.go - One-shot command handlers: ask, ingest, status, config,
// version.
package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/chaty-tui/internal/chaty"
	"github.com/jeranaias/chaty-tui/internal/config"
	"github.com/jeranaias/chaty-tui/internal/conversation"
)

// =============================================================================
// ASK
// =============================================================================

// HandleAsk sends a single question, streams the answer to stdout, and
// exits. On a TTY the finished answer is re-rendered as markdown.
func HandleAsk(client *chaty.Client, cfg *config.Config, query string, quiet bool) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return fmt.Errorf("usage: chaty ask \"question\"")
	}

	useMarkdown := IsStdoutTTY()

	printer := &tokenPrinter{}
	opts := []conversation.Option{}
	if !useMarkdown {
		// Raw token streaming for pipes; on a TTY the answer is rendered
		// whole once the turn completes.
		opts = append(opts, conversation.WithOnChange(printer.observe))
	}

	controller := conversation.NewController(client, conversation.Params{
		Model:       cfg.ChatModel,
		TopK:        cfg.TopK,
		Temperature: cfg.Temperature,
	}, opts...)

	controller.Send(context.Background(), query)

	snap := controller.Snapshot()
	if snap.LastError != "" {
		return fmt.Errorf("chat failed: %s", snap.LastError)
	}

	if useMarkdown {
		if n := len(snap.Messages); n > 0 {
			fmt.Println(renderAnswer(snap.Messages[n-1].Content))
		}
	} else {
		fmt.Println()
	}

	if !quiet && len(snap.Sources) > 0 {
		fmt.Println()
		printSources(snap.Sources)
	}
	return nil
}

// renderAnswer renders markdown for terminal display, falling back to the
// raw text when rendering fails.
func renderAnswer(content string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return content
	}
	out, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

// =============================================================================
// INGEST
// =============================================================================

// HandleIngest triggers backend indexing and prints the result.
func HandleIngest(client *chaty.Client, force, quiet bool) error {
	return runIngest(client, force, quiet)
}

func runIngest(client *chaty.Client, force, quiet bool) error {
	if !quiet {
		if force {
			fmt.Println(infoStyle.Render("Re-indexing all documents..."))
		} else {
			fmt.Println(infoStyle.Render("Indexing new documents..."))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := client.Ingest(ctx, force)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Printf("%s indexed %d, skipped %d, %d chunks added\n",
		commandStyle.Render("[OK]"),
		len(result.IndexedFiles), len(result.SkippedFiles), result.TotalChunksAdded)

	if !quiet {
		for _, f := range result.IndexedFiles {
			fmt.Println("  + " + f)
		}
		fmt.Printf("%s %s (%s)\n",
			infoStyle.Render("Collection:"),
			result.CollectionName, result.PersistDir)
	}
	return nil
}

// =============================================================================
// STATUS
// =============================================================================

// HandleStatus probes backend health and reports the outcome. The error
// return carries the failure so main can exit non-zero.
func HandleStatus(client *chaty.Client, quiet bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.CheckHealth(ctx); err != nil {
		fmt.Printf("%s %s\n", errorStyle.Render("[DOWN]"), client.BaseURL())
		return err
	}

	fmt.Printf("%s %s\n", commandStyle.Render("[OK]"), client.BaseURL())
	return nil
}

// =============================================================================
// CONFIG
// =============================================================================

// HandleConfig implements "chaty config [get|set|path]". With no
// subcommand it prints every setting.
func HandleConfig(store config.Store, sub string, args []string) error {
	switch sub {
	case "", "show", "get":
		cfg, err := store.Load()
		if err != nil {
			return err
		}
		if sub == "get" && len(args) > 0 {
			return printConfigKey(cfg, args[0])
		}
		printConfig(cfg)
		return nil

	case "set":
		if len(args) < 2 {
			return fmt.Errorf("usage: chaty config set <key> <value>")
		}
		return setConfigKey(store, args[0], strings.Join(args[1:], " "))

	case "path":
		fmt.Println(store.Path())
		return nil

	default:
		return fmt.Errorf("unknown config subcommand: %s (use get, set, or path)", sub)
	}
}

func printConfig(cfg *config.Config) {
	fmt.Printf("%s %s\n", infoStyle.Render("endpoint:    "), cfg.Endpoint)
	fmt.Printf("%s %s\n", infoStyle.Render("chat_model:  "), cfg.ChatModel)
	fmt.Printf("%s %d\n", infoStyle.Render("top_k:       "), cfg.TopK)
	fmt.Printf("%s %g\n", infoStyle.Render("temperature: "), cfg.Temperature)
	fmt.Printf("%s %s\n", infoStyle.Render("theme:       "), cfg.Theme)
}

func printConfigKey(cfg *config.Config, key string) error {
	switch key {
	case "endpoint":
		fmt.Println(cfg.Endpoint)
	case "chat_model":
		fmt.Println(cfg.ChatModel)
	case "top_k":
		fmt.Println(cfg.TopK)
	case "temperature":
		fmt.Println(cfg.Temperature)
	case "theme":
		fmt.Println(cfg.Theme)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// setConfigKey updates one setting. Save sanitizes, so an out-of-range or
// malformed value lands as the clamped/default value rather than an error.
func setConfigKey(store config.Store, key, value string) error {
	cfg, err := store.Load()
	if err != nil {
		return err
	}

	switch key {
	case "endpoint":
		cfg.Endpoint = value
	case "chat_model":
		cfg.ChatModel = value
	case "top_k":
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("top_k must be a number: %q", value)
		}
		cfg.TopK = config.ClampTopK(n)
	case "temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("temperature must be a number: %q", value)
		}
		cfg.Temperature = f
	case "theme":
		cfg.Theme = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	if err := store.Save(cfg); err != nil {
		return err
	}

	// Echo the persisted (sanitized) value so a clamped input is visible.
	saved, err := store.Load()
	if err != nil {
		return err
	}
	fmt.Printf("%s ", commandStyle.Render("[OK]"))
	return printConfigKey(saved, key)
}

// =============================================================================
// VERSION
// =============================================================================

// HandleVersion prints build information.
func HandleVersion() error {
	fmt.Printf("chaty %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	return nil
}

// PrintError writes a handler failure to stderr in the CLI's error style.
func PrintError(err error) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("[Error]")+" "+err.Error())
}
