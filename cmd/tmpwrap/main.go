package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/tmpwrap/internal/config"
	"git.home.luguber.info/inful/tmpwrap/internal/foundation/errors"
	"git.home.luguber.info/inful/tmpwrap/internal/metrics"
	"git.home.luguber.info/inful/tmpwrap/internal/runner"
	"git.home.luguber.info/inful/tmpwrap/internal/tmpdir"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"tmpwrap.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Run struct {
		DirTemplate string   `short:"t" help:"Per-job directory template, overrides the configured global template"`
		LogContents bool     `short:"l" help:"Log leftover directory contents before deletion"`
		Metrics     bool     `help:"Record Prometheus lifecycle metrics"`
		Command     []string `arg:"" passthrough:"" help:"Build step command and arguments"`
	} `cmd:"" help:"Run a build step inside a managed temporary directory"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Check struct{} `cmd:"" help:"Validate the configuration file"`
}

func main() {
	ctx := kong.Parse(&CLI)

	// Set up logging
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	adapter := errors.NewCLIErrorAdapter(CLI.Verbose, logger)

	switch ctx.Command() {
	case "run <command>":
		exitCode, err := runStep()
		if err != nil {
			adapter.HandleError(err)
		}
		os.Exit(exitCode)
	case "init":
		if err := runInit(CLI.Config, CLI.Init.Force); err != nil {
			adapter.HandleError(err)
		}
	case "check":
		if _, err := config.Load(CLI.Config); err != nil {
			adapter.HandleError(err)
		}
		fmt.Printf("Configuration OK: %s\n", CLI.Config)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", ctx.Command())
		os.Exit(1)
	}
}

func runStep() (int, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return 1, err
	}
	if CLI.Run.LogContents {
		cfg.LogDirContents = true
	}

	opts := []tmpdir.Option{}
	if CLI.Run.Metrics || cfg.Metrics {
		opts = append(opts, tmpdir.WithRecorder(metrics.NewPrometheusRecorder(nil)))
	}
	manager := tmpdir.NewManager(os.Stdout, opts...)
	r := runner.New(cfg, manager, os.Stdout, os.Stderr)

	// The lifecycle must finish even when the step is interrupted: the
	// signal cancels the step, teardown still runs.
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := r.Run(sigCtx, CLI.Run.DirTemplate, CLI.Run.Command)
	if err != nil {
		return 1, err
	}
	return res.ExitCode, nil
}

func runInit(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	if err := config.Default().Save(path); err != nil {
		return err
	}
	fmt.Printf("Created configuration file: %s\n", path)
	return nil
}
