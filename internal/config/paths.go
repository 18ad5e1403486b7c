// Package config manages envstack configuration and filesystem paths.
//
// Configuration covers two things: the installer's own data directories
// (default root ~/.envstack, overridable via ENVSTACK_HOME) and the install
// config file describing what the stack is made of (download URLs, package
// and model lists, space requirements).
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the filesystem paths used by the installer itself.
type Paths struct {
	// Root is the base directory for installer data (default: ~/.envstack)
	Root string

	// Logs is the directory holding install/uninstall log files
	Logs string

	// Downloads is the cache directory for fetched component payloads
	Downloads string

	// StatusFile is the default location of the unified status record
	StatusFile string

	// ConfigFile is the path to the install config file
	ConfigFile string
}

// DefaultPaths returns the default paths for envstack.
// The root directory can be overridden with the ENVSTACK_HOME environment variable.
func DefaultPaths() (*Paths, error) {
	root := os.Getenv("ENVSTACK_HOME")
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".envstack")
	}

	return &Paths{
		Root:       root,
		Logs:       filepath.Join(root, "logs"),
		Downloads:  filepath.Join(root, "downloads"),
		StatusFile: filepath.Join(root, StatusFileName),
		ConfigFile: filepath.Join(root, "config.yaml"),
	}, nil
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.Root,
		p.Logs,
		p.Downloads,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// StatusFileName is the file name of the unified status record.
const StatusFileName = "stack_status.json"
