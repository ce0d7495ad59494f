// Package main is the entry point for the rover file manager.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dshills/rover/internal/app"
	"github.com/dshills/rover/internal/inspect"
	"github.com/dshills/rover/internal/logging"
	"github.com/dshills/rover/internal/metrics"
	"github.com/dshills/rover/internal/ui"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// ErrNotTerminal is returned when stdout is not a terminal.
var ErrNotTerminal = errors.New("stdout is not a terminal")

// stdoutIsTerminal reports whether the UI can take over stdout.
var stdoutIsTerminal = func() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type options struct {
	confdir     string
	pluginDir   string
	clean       bool
	debug       bool
	logLevel    string
	logFile     string
	metricsAddr string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "rover [path]",
		Short:         "rover is a terminal file manager",
		Long:          "rover browses directories in the terminal and is extended with Go and Lua plugins.",
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var start string
			if len(args) == 1 {
				start = args[0]
			}
			return runRover(opts, start)
		},
	}
	cmd.SetVersionTemplate(fmt.Sprintf("rover %s\nCommit: %s\nBuilt: %s\n", version, commit, date))

	flags := cmd.Flags()
	flags.StringVar(&opts.confdir, "confdir", "", "configuration directory (default: user config dir/rover)")
	flags.StringVar(&opts.pluginDir, "plugin-dir", "", "directory of bundled script plugins")
	flags.BoolVarP(&opts.clean, "clean", "c", false, "ignore rc.toml, environment overrides and user plugins")
	flags.BoolVarP(&opts.debug, "debug", "d", false, "debug mode: handler panics crash and metrics are logged on exit")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFile, "log-file", "", "write logs to this file")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /state and /metrics on this address")
	return cmd
}

func newLogger(opts options) (*slog.Logger, func(), error) {
	if opts.logFile == "" {
		return logging.NewNop(), func() {}, nil
	}
	f, err := logging.OpenFile(opts.logFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	level := logging.ParseLevel(opts.logLevel)
	if opts.debug {
		level = slog.LevelDebug
	}
	return logging.New(level, f), func() { f.Close() }, nil
}

func runRover(opts options, start string) error {
	if !stdoutIsTerminal() {
		return ErrNotTerminal
	}

	log, closeLog, err := newLogger(opts)
	if err != nil {
		return err
	}
	defer closeLog()

	term, err := ui.NewTerminal()
	if err != nil {
		return fmt.Errorf("create terminal: %w", err)
	}

	m := metrics.New()
	rt, err := app.New(app.Options{
		ConfigDir: opts.confdir,
		Clean:     opts.clean,
		Debug:     opts.debug,
		StartPath: start,
		PluginDir: opts.pluginDir,
		Logger:    log,
		Metrics:   m,
		Frontend:  term,
	})
	if err != nil {
		return err
	}
	defer rt.Shutdown()

	if err := rt.Init(); err != nil {
		return err
	}

	if opts.metricsAddr != "" {
		state := func() any {
			if s := rt.State(); s != nil {
				return s
			}
			return nil
		}
		srv := inspect.NewServer(opts.metricsAddr, inspect.NewHandler(state, m.Registry()), log)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signals)
	go func() {
		if _, ok := <-signals; ok {
			rt.Quit()
		}
	}()

	return rt.Run()
}
