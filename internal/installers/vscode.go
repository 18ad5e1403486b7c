package installers

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/mhollands/envstack/internal/config"
	"github.com/mhollands/envstack/internal/download"
	"github.com/mhollands/envstack/internal/fsops"
)

// vscodeSettings is the portable-mode workspace configuration.
const vscodeSettings = `{
  "python.defaultInterpreterPath": "../Miniconda/envs/` + config.CondaEnvName + `/python",
  "terminal.integrated.cwd": "../Projects",
  "update.mode": "none",
  "telemetry.telemetryLevel": "off"
}
`

// VSCode downloads and unpacks a portable VS Code under the environment
// root.
type VSCode struct {
	FS       fsops.FS
	Fetcher  *download.Fetcher
	EnvRoot  string
	Download config.Download
	Reporter Reporter
}

func (v *VSCode) Step() int    { return 5 }
func (v *VSCode) Name() string { return "vscode" }

func (v *VSCode) Install(ctx context.Context) error {
	rep := reporterOrNop(v.Reporter)
	target := filepath.Join(v.EnvRoot, "VSCode")

	if ok, _ := v.FS.Exists(filepath.Join(target, vscodeBinary())); ok {
		rep.CompleteComponent(5, "vscode_download")
		rep.CompleteComponent(5, "vscode_extract")
		rep.CompleteComponent(5, "vscode_config")
		return nil
	}

	archive := filepath.Join(v.EnvRoot, "downloads", archiveName(v.Download.URL))
	if err := v.Fetcher.FetchVerified(ctx, v.Download.URL, archive, v.Download.Checksum); err != nil {
		return fmt.Errorf("failed to download vscode: %w", err)
	}
	rep.CompleteComponent(5, "vscode_download")

	if err := download.Extract(archive, target); err != nil {
		return fmt.Errorf("failed to extract vscode: %w", err)
	}
	rep.CompleteComponent(5, "vscode_extract")

	// Portable mode: a data directory next to the binary keeps all state
	// inside the environment root.
	dataDir := filepath.Join(target, "data", "user-data", "User")
	if err := v.FS.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create vscode data directory: %w", err)
	}
	if err := v.FS.AtomicWrite(filepath.Join(dataDir, "settings.json"), []byte(vscodeSettings), 0644); err != nil {
		return fmt.Errorf("failed to write vscode settings: %w", err)
	}
	rep.CompleteComponent(5, "vscode_config")

	return nil
}

func vscodeBinary() string {
	if runtime.GOOS == "windows" {
		return "Code.exe"
	}
	return "code"
}

// archiveName derives a cache file name from a download URL, tolerating
// URLs whose last path element carries no extension.
func archiveName(url string) string {
	base := filepath.Base(url)
	if filepath.Ext(base) == "" {
		base += ".zip"
	}
	return base
}
