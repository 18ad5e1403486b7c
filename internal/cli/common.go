package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/mhollands/envstack/internal/clock"
	"github.com/mhollands/envstack/internal/config"
	"github.com/mhollands/envstack/internal/drives"
	"github.com/mhollands/envstack/internal/engine"
	"github.com/mhollands/envstack/internal/fsops"
	"github.com/mhollands/envstack/internal/status"
)

// newEngine creates an engine with real implementations of all dependencies.
// The returned closer flushes the log file.
func newEngine() (*engine.Engine, func(), error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get config paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	fs := fsops.NewRealFS()
	clk := &clock.RealClock{}

	cfg, err := loadConfig(paths)
	if err != nil {
		return nil, nil, err
	}

	logger, closeLog := newLogger(paths, clk)

	store, err := status.Open(fs, clk, status.Locate(fs, statusFile, paths.Root))
	if err != nil {
		closeLog()
		return nil, nil, err
	}

	return engine.New(fs, clk, logger, store, cfg, drives.List), closeLog, nil
}

// loadConfig reads the install config file. Load falls back to built-in
// defaults when the file does not exist.
func loadConfig(paths *config.Paths) (*config.InstallConfig, error) {
	path := configFile
	if path == "" {
		path = paths.ConfigFile
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// newLogger opens a per-run log file under the installer's log directory.
// Logging must never block the installer, so an unopenable file degrades to
// a discard logger.
func newLogger(paths *config.Paths, clk clock.Clock) (*log.Logger, func()) {
	name := fmt.Sprintf("envstack_%s.log", clk.Now().Format("20060102_150405"))
	f, err := os.OpenFile(filepath.Join(paths.Logs, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return log.New(io.Discard, "", 0), func() {}
	}
	return log.New(f, "", log.LstdFlags), func() { _ = f.Close() }
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
