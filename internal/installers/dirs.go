package installers

import (
	"context"
	"fmt"

	"path/filepath"

	"github.com/mhollands/envstack/internal/fsops"
)

// EnvSubdirs are the directories created under the environment root.
var EnvSubdirs = []string{
	"Miniconda",
	"VSCode",
	"Ollama",
	"Models",
	"Tools",
	"Scripts",
	"Logs",
	"Projects",
	"downloads",
}

// Directories creates the environment directory skeleton.
type Directories struct {
	FS       fsops.FS
	EnvRoot  string
	Reporter Reporter
}

func (d *Directories) Step() int    { return 2 }
func (d *Directories) Name() string { return "directories" }

func (d *Directories) Install(ctx context.Context) error {
	for _, sub := range EnvSubdirs {
		if err := d.FS.MkdirAll(filepath.Join(d.EnvRoot, sub), 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", sub, err)
		}
	}
	reporterOrNop(d.Reporter).CompleteComponent(2, "directories")
	return nil
}
