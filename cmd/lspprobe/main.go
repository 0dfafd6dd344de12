// Command lspprobe wires a registry end to end against a single
// language server: it opens one file, asks for hover at a position,
// with --verbose prints whatever the merged event stream produces
// meanwhile, and shuts everything down.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kestrel-editor/lsp/internal/config"
	"github.com/kestrel-editor/lsp/internal/logger"
	"github.com/kestrel-editor/lsp/internal/progress"
	"github.com/kestrel-editor/lsp/internal/registry"
	"github.com/kestrel-editor/lsp/internal/workspace"
)

type probeConfig struct {
	Scope      string
	Command    string
	Args       []string
	File       string
	Line       int
	Character  int
	Verbose    bool
	TimeoutSec int
	Help       bool
}

func parseArgs(args []string) (*probeConfig, error) {
	cfg := &probeConfig{TimeoutSec: 20}

	i := 0
	for i < len(args) {
		arg := args[i]

		if arg == "--help" || arg == "-h" {
			cfg.Help = true
			i++
			continue
		}
		if arg == "--verbose" || arg == "-v" {
			cfg.Verbose = true
			i++
			continue
		}

		var key, value string
		if strings.Contains(arg, "=") {
			parts := strings.SplitN(arg, "=", 2)
			key, value = parts[0], parts[1]
			i++
		} else if i+1 < len(args) {
			key, value = arg, args[i+1]
			i += 2
		} else {
			return nil, fmt.Errorf("flag %s requires a value", arg)
		}

		switch key {
		case "--scope":
			cfg.Scope = value
		case "--server":
			cfg.Command = value
		case "--server-arg":
			cfg.Args = append(cfg.Args, value)
		case "--file":
			cfg.File = value
		case "--line":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid --line value: %s", value)
			}
			cfg.Line = n
		case "--character":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid --character value: %s", value)
			}
			cfg.Character = n
		case "--timeout":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid --timeout value: %s", value)
			}
			cfg.TimeoutSec = n
		default:
			return nil, fmt.Errorf("unknown flag: %s", key)
		}
	}

	return cfg, nil
}

func printHelp() {
	fmt.Println(`lspprobe - exercise a registry against one language server

Usage:
  lspprobe --scope <id> --server <cmd> --file <path> [flags]

Flags:
  --scope <id>       Language scope, e.g. "go" (required)
  --server <cmd>     Server executable to spawn (required)
  --server-arg <a>   Repeatable argument passed to the server
  --file <path>      File to open and query (required)
  --line <n>         Zero-based line for the hover query (default 0)
  --character <n>    Zero-based character for the hover query (default 0)
  --timeout <s>      Per-request timeout in seconds (default 20)
  --verbose          Print every inbound event, not just the final hover
  --help             Show this help message`)
}

func run(cfg *probeConfig) error {
	log := &logger.NullLogger{}
	prog := progress.New()
	reg := registry.New(log, prog)
	defer reg.Shutdown()

	absFile, err := filepath.Abs(cfg.File)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", cfg.File, err)
	}
	text, err := os.ReadFile(absFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", absFile, err)
	}

	langCfg := config.Language{
		Scope:       cfg.Scope,
		Command:     cfg.Command,
		Args:        cfg.Args,
		RootMarkers: []string{".git"},
		Timeout:     time.Duration(cfg.TimeoutSec) * time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.TimeoutSec+5)*time.Second)
	defer cancel()

	c, id, ok, err := reg.Get(ctx, langCfg, filepath.Dir(absFile))
	if err != nil {
		return fmt.Errorf("spawning %s client: %w", cfg.Scope, err)
	}
	if !ok {
		return fmt.Errorf("scope %q has no configured server", cfg.Scope)
	}
	fmt.Printf("spawned client %d for scope %q\n", id, cfg.Scope)

	if cfg.Verbose {
		go drainEvents(reg)
	}

	uri := workspace.ToFileURI(absFile)
	if err := c.DidOpen(ctx, uri, cfg.Scope, string(text)); err != nil {
		return fmt.Errorf("opening %s: %w", absFile, err)
	}

	hover, err := c.Hover(ctx, uri, cfg.Line, cfg.Character)
	if err != nil {
		return fmt.Errorf("hover request: %w", err)
	}
	if hover == nil {
		fmt.Println("no hover information at that position")
		return nil
	}
	fmt.Println(hover.Contents.Value)

	return c.Shutdown(ctx)
}

func drainEvents(reg *registry.Registry) {
	for ev := range reg.Events() {
		switch {
		case ev.Call.MethodCall != nil:
			fmt.Printf("[client %d] method call: %s\n", ev.ClientID, ev.Call.MethodCall.RawMethod)
		case ev.Call.Notification != nil:
			fmt.Printf("[client %d] notification kind %d\n", ev.ClientID, ev.Call.Notification.Kind)
		}
	}
}

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Help {
		printHelp()
		return
	}

	if cfg.Scope == "" || cfg.Command == "" || cfg.File == "" {
		fmt.Fprintln(os.Stderr, "Error: --scope, --server, and --file are required")
		printHelp()
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
