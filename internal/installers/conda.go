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

// condaExe returns the conda executable path for a portable install under
// envRoot.
func condaExe(envRoot string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(envRoot, "Miniconda", "Scripts", "conda.exe")
	}
	return filepath.Join(envRoot, "Miniconda", "bin", "conda")
}

// Miniconda downloads and installs a portable Miniconda under the
// environment root.
type Miniconda struct {
	FS       fsops.FS
	Fetcher  *download.Fetcher
	Runner   Runner
	EnvRoot  string
	Download config.Download
	Reporter Reporter
}

func (m *Miniconda) Step() int    { return 3 }
func (m *Miniconda) Name() string { return "miniconda" }

func (m *Miniconda) Install(ctx context.Context) error {
	rep := reporterOrNop(m.Reporter)
	target := filepath.Join(m.EnvRoot, "Miniconda")

	// Already installed: an earlier attempt finished this step's work.
	if ok, _ := m.FS.Exists(condaExe(m.EnvRoot)); ok {
		rep.CompleteComponent(3, "miniconda_download")
		rep.CompleteComponent(3, "miniconda_install")
		rep.CompleteComponent(3, "conda_init")
		return nil
	}

	installer := filepath.Join(m.EnvRoot, "downloads", filepath.Base(m.Download.URL))
	if err := m.Fetcher.FetchVerified(ctx, m.Download.URL, installer, m.Download.Checksum); err != nil {
		return fmt.Errorf("failed to download miniconda: %w", err)
	}
	rep.CompleteComponent(3, "miniconda_download")

	var args []string
	if runtime.GOOS == "windows" {
		args = []string{"/InstallationType=JustMe", "/RegisterPython=0", "/AddToPath=0", "/S", "/D=" + target}
	} else {
		args = []string{"-b", "-p", target}
	}
	if _, err := m.Runner.Run(ctx, installer, args...); err != nil {
		return fmt.Errorf("miniconda installer failed: %w", err)
	}
	rep.CompleteComponent(3, "miniconda_install")

	// Accept ToS and disable auto-activation so the portable install stays
	// self-contained.
	if _, err := m.Runner.Run(ctx, condaExe(m.EnvRoot), "config", "--set", "auto_activate_base", "false"); err != nil {
		return fmt.Errorf("conda init failed: %w", err)
	}
	rep.CompleteComponent(3, "conda_init")

	return nil
}

// CondaEnv creates the named conda environment with the configured python.
type CondaEnv struct {
	FS            fsops.FS
	Runner        Runner
	EnvRoot       string
	PythonVersion string
	Reporter      Reporter
}

func (c *CondaEnv) Step() int    { return 4 }
func (c *CondaEnv) Name() string { return "conda_env" }

func (c *CondaEnv) Install(ctx context.Context) error {
	rep := reporterOrNop(c.Reporter)
	conda := condaExe(c.EnvRoot)

	if ok, _ := c.FS.Exists(conda); !ok {
		return fmt.Errorf("conda not found at %s, run the miniconda step first", conda)
	}

	envDir := filepath.Join(c.EnvRoot, "Miniconda", "envs", config.CondaEnvName)
	if ok, _ := c.FS.Exists(envDir); !ok {
		_, err := c.Runner.Run(ctx, conda,
			"create", "--name", config.CondaEnvName, "python="+c.PythonVersion, "--yes")
		if err != nil {
			return fmt.Errorf("failed to create conda environment: %w", err)
		}
	}
	rep.CompleteComponent(4, "conda_env_create")

	// Verify the environment answers before declaring the step done.
	if _, err := c.Runner.Run(ctx, conda, "run", "--name", config.CondaEnvName, "python", "--version"); err != nil {
		return fmt.Errorf("conda environment verification failed: %w", err)
	}
	rep.CompleteComponent(4, "conda_env_verify")

	return nil
}
