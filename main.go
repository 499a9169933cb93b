// menu-meters draws processor, memory, network and disk meters as small
// icon-sized graphs and shows them in a terminal.
//
// Usage:
//
//	menu-meters [flags]
//
// Flags:
//
//	-config string    Path to configuration file (default: ~/.config/menu-meters/config.toml)
//	-settings string  Path to the palette settings file (default: ~/.config/menu-meters/settings.yaml)
//	-tui              Run the interactive dashboard (default mode)
//	-once             Run one tick per indicator, print the frames and exit
//	-health           Print per-indicator health as JSON after one tick (implies -once)
//	-indicator list   Limit -once and -health to these indicators, e.g. "processor,disk"
//	-probe            Print one raw sample from every sampler and exit
//	-keys             List settings keys and their values
//	-get string       Print one settings value
//	-set key=value    Store one settings value
//	-man              Print the man page and exit
//	-verbose          Enable debug logging
//	-version          Print version and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gitlab.com/tinyland/lab/menu-meters/config"
	"gitlab.com/tinyland/lab/menu-meters/docs/manpage"
	displaycolor "gitlab.com/tinyland/lab/menu-meters/display/color"
	"gitlab.com/tinyland/lab/menu-meters/display/render"
	"gitlab.com/tinyland/lab/menu-meters/display/tui"
	"gitlab.com/tinyland/lab/menu-meters/settings"
)

func main() {
	os.Exit(run())
}

// run is the whole program. It returns the exit code so that deferred
// cleanup runs before the process exits.
func run() int {
	var (
		configPath   = flag.String("config", "", "Path to configuration file (default: ~/.config/menu-meters/config.toml)")
		settingsPath = flag.String("settings", "", "Path to the palette settings file")
		runTUI       = flag.Bool("tui", true, "Run the interactive dashboard")
		runOnce      = flag.Bool("once", false, "Run one tick per indicator, print the frames and exit")
		runHealth    = flag.Bool("health", false, "Print per-indicator health as JSON after one tick (implies -once)")
		only         = flag.String("indicator", "", "Limit -once and -health to these indicators (comma-separated)")
		runProbe     = flag.Bool("probe", false, "Print one raw sample from every sampler and exit")
		listKeys     = flag.Bool("keys", false, "List settings keys and their values")
		getKey       = flag.String("get", "", "Print one settings value")
		setPair      = flag.String("set", "", "Store one settings value (key=value)")
		showMan      = flag.Bool("man", false, "Print the man page and exit")
		verbose      = flag.Bool("verbose", false, "Enable debug logging")
		showVersion  = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()
	if *runHealth {
		*runOnce = true
	}

	if *showVersion {
		fmt.Printf("menu-meters %s (%s) built %s\n", version, commit, date)
		return 0
	}
	if *showMan {
		fmt.Print(manpage.Generate(version, commit, date, flag.CommandLine))
		return 0
	}
	kinds, err := parseKinds(*only)
	if err != nil {
		fmt.Fprintf(os.Stderr, "-indicator: %v\n", err)
		return 2
	}

	// ---------------------------------------------------------------
	// Load configuration
	// ---------------------------------------------------------------

	var cfg *config.Config
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	if *settingsPath != "" {
		cfg.General.SettingsPath = *settingsPath
	}
	if *verbose {
		cfg.General.LogLevel = "debug"
	}

	interactive := !*runOnce && !*runProbe && !*listKeys && *getKey == "" && *setPair == "" && *runTUI
	logger, closeLog := newLogger(cfg, interactive)
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------------------------------------------------------------
	// Commands that do not start the engine
	// ---------------------------------------------------------------

	if *runProbe {
		return runProbeCommand(ctx, os.Stdout, cfg, logger)
	}

	store, err := openSettings(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open settings: %v\n", err)
		return 1
	}
	defer store.Close()

	switch {
	case *listKeys:
		return runKeysCommand(os.Stdout, store)
	case *getKey != "":
		return runGetCommand(os.Stdout, os.Stderr, store, *getKey)
	case *setPair != "":
		return runSetCommand(os.Stderr, store, *setPair)
	}

	// ---------------------------------------------------------------
	// Engine
	// ---------------------------------------------------------------

	m, err := newMeters(ctx, cfg, store, systemSamplers(cfg, logger), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start indicators: %v\n", err)
		return 1
	}
	defer m.close()

	if *runOnce {
		protocol, err := render.ParseProtocol(cfg.Render.Protocol)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		return runOnceCommand(ctx, os.Stdout, m, onceOptions{
			Protocol: protocol,
			Colour:   displaycolor.Apply(os.Stdout),
			Columns:  terminalColumns(os.Stdout),
			Health:   *runHealth,
			Kinds:    kinds,
		})
	}

	if !*runTUI {
		flag.Usage()
		return 0
	}
	return runDashboard(ctx, m, store, logger)
}

// runDashboard watches the settings file, enables the configured indicators
// and hands the terminal to the TUI until it quits.
func runDashboard(ctx context.Context, m *meters, store *settings.Store, logger *slog.Logger) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Print("\x1b[?1049l\x1b[?25h")
			fmt.Fprintf(os.Stderr, "menu-meters: TUI panic: %v\n", r)
			code = 1
		}
	}()

	if err := store.Watch(ctx, func() { logger.Info("settings reloaded", "path", store.Path()) }); err != nil {
		logger.Warn("settings watch unavailable", "error", err)
	}
	if err := m.start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to enable indicators: %v\n", err)
		return 1
	}

	model := tui.NewModel(m.sup, m.raster, tui.Options{
		Updates: m.updates,
		Colour:  displaycolor.Apply(os.Stdout),
	})
	if err := tui.Run(model); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}

// newLogger builds the process logger. The dashboard owns the terminal, so
// interactive runs log to a file under the user cache directory.
func newLogger(cfg *config.Config, interactive bool) (*slog.Logger, func()) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if !interactive {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), func() {}
	}

	dir, err := os.UserCacheDir()
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}
	}
	dir = filepath.Join(dir, "menu-meters")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, "menu-meters.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}
	}
	return slog.New(slog.NewTextHandler(f, opts)), func() { _ = f.Close() }
}

func openSettings(cfg *config.Config, logger *slog.Logger) (*settings.Store, error) {
	path := cfg.General.SettingsPath
	if path == "" {
		path = settings.DefaultPath()
	}
	return settings.Open(path, logger.With("component", "settings"))
}
