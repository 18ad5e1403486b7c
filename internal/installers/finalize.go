package installers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mhollands/envstack/internal/clock"
	"github.com/mhollands/envstack/internal/config"
	"github.com/mhollands/envstack/internal/fsops"
)

const activateBat = `@echo off
rem Activate the portable AI environment.
set ENVROOT=%~dp0
call "%ENVROOT%Miniconda\Scripts\activate.bat" ` + config.CondaEnvName + `
set PATH=%ENVROOT%Ollama;%PATH%
cd /d "%ENVROOT%Projects"
`

const activateSh = `#!/bin/sh
# Activate the portable AI environment.
ENVROOT="$(cd "$(dirname "$0")" && pwd)"
. "$ENVROOT/Miniconda/bin/activate" ` + config.CondaEnvName + `
export PATH="$ENVROOT/Ollama:$PATH"
cd "$ENVROOT/Projects"
`

const readme = `# AI Environment

Self-contained AI development stack.

- activate_env.bat / activate_env.sh: open a shell with the environment active
- Projects/: your workspace, preserved on uninstall with --keep-user-content
- VSCode/: portable editor preconfigured for the environment
- Ollama/: local LLM engine

Run the envstack uninstaller to remove everything this installer created.
`

// projectTemplates are starter files dropped into Projects.
var projectTemplates = map[string]string{
	"getting_started/hello.py":    "print(\"environment ready\")\n",
	"getting_started/notebook.md": "Open this folder in the bundled VS Code to get started.\n",
}

// installInfo is the machine-readable record written as the last artifact
// of a successful installation.
type installInfo struct {
	// Version is the stack release version
	Version string `json:"version"`

	// InstalledAt is when finalization ran
	InstalledAt string `json:"installedAt"`

	// InstallPath is the environment root
	InstallPath string `json:"installPath"`

	// CondaEnv is the conda environment name
	CondaEnv string `json:"condaEnv"`
}

// Finalize writes activation scripts, templates, the README and the install
// info record.
type Finalize struct {
	FS       fsops.FS
	Clock    clock.Clock
	EnvRoot  string
	Version  string
	Reporter Reporter
}

func (f *Finalize) Step() int    { return 8 }
func (f *Finalize) Name() string { return "finalize" }

func (f *Finalize) Install(ctx context.Context) error {
	rep := reporterOrNop(f.Reporter)

	scripts := map[string]struct {
		content string
		perm    os.FileMode
	}{
		"activate_env.bat": {activateBat, 0644},
		"activate_env.sh":  {activateSh, 0755},
	}
	for name, s := range scripts {
		path := filepath.Join(f.EnvRoot, name)
		if err := f.FS.AtomicWrite(path, []byte(s.content), s.perm); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	rep.CompleteComponent(8, "activation_script")

	for rel, content := range projectTemplates {
		path := filepath.Join(f.EnvRoot, "Projects", filepath.FromSlash(rel))
		if err := f.FS.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create template directory: %w", err)
		}
		if ok, _ := f.FS.Exists(path); ok {
			continue
		}
		if err := f.FS.AtomicWrite(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write template %s: %w", rel, err)
		}
	}
	rep.CompleteComponent(8, "project_templates")

	if err := f.FS.AtomicWrite(filepath.Join(f.EnvRoot, "README.md"), []byte(readme), 0644); err != nil {
		return fmt.Errorf("failed to write README: %w", err)
	}
	rep.CompleteComponent(8, "readme")

	info := installInfo{
		Version:     f.Version,
		InstalledAt: f.Clock.Now().Format("2006-01-02T15:04:05Z07:00"),
		InstallPath: f.EnvRoot,
		CondaEnv:    config.CondaEnvName,
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal install info: %w", err)
	}
	if err := f.FS.AtomicWrite(filepath.Join(f.EnvRoot, "install_info.json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write install info: %w", err)
	}
	rep.CompleteComponent(8, "install_info")

	return nil
}
