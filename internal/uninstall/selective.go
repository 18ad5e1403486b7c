package uninstall

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/mhollands/envstack/internal/config"
	"github.com/mhollands/envstack/internal/fsops"
	"github.com/mhollands/envstack/internal/ledger"
)

// StepReverser removes the artifacts of installation steps N..8 so the
// installer can run again from step N. It works highest step first, the
// reverse of install order.
type StepReverser struct {
	fs     fsops.FS
	logger *log.Logger
	conda  CondaEnvRemover
}

// NewStepReverser creates a StepReverser. conda may be nil when no conda
// operations should be attempted.
func NewStepReverser(fs fsops.FS, logger *log.Logger, conda CondaEnvRemover) *StepReverser {
	return &StepReverser{fs: fs, logger: logger, conda: conda}
}

// ReverseFrom removes the artifacts of steps from..8 under envRoot and
// resets the tracker so those steps run again. Individual removal failures
// are logged and skipped; the ledger reset happens regardless so the next
// install attempt re-does whatever survived.
func (r *StepReverser) ReverseFrom(ctx context.Context, envRoot string, from int, tr *ledger.Tracker) error {
	if from < 1 || from > ledger.TotalSteps {
		return fmt.Errorf("invalid step number %d", from)
	}

	if from <= 8 {
		r.removeFinalization(envRoot)
	}
	if from <= 7 {
		r.removeOllama(envRoot)
	}
	if from <= 6 {
		r.removePackages(ctx, envRoot)
	}
	if from <= 5 {
		r.removeAll(filepath.Join(envRoot, "VSCode"), "VS Code")
	}
	if from <= 4 {
		r.removeCondaEnv(ctx, envRoot)
	}
	if from <= 3 {
		r.removeAll(filepath.Join(envRoot, "Miniconda"), "Miniconda")
	}
	if from <= 2 {
		r.removeAll(filepath.Join(envRoot, "Tools"), "Tools")
		r.removeAll(filepath.Join(envRoot, "Logs"), "Logs")
	}

	if err := tr.ResetFrom(from); err != nil {
		return fmt.Errorf("failed to reset ledger from step %d: %w", from, err)
	}
	return nil
}

func (r *StepReverser) removeFinalization(envRoot string) {
	for _, name := range []string{"activate_env.bat", "activate_env.sh", "README.md", "install_info.json"} {
		path := filepath.Join(envRoot, name)
		if ok, _ := r.fs.Exists(path); ok {
			if err := r.fs.Remove(path); err != nil {
				r.logger.Printf("failed to remove %s: %v", path, err)
			}
		}
	}
	r.removeAll(filepath.Join(envRoot, "Scripts"), "scripts")
	r.removeAll(filepath.Join(envRoot, "Projects"), "project templates")
}

func (r *StepReverser) removeOllama(envRoot string) {
	r.removeAll(filepath.Join(envRoot, "Ollama"), "Ollama")
	r.removeAll(filepath.Join(envRoot, "Models"), "models")
	r.removeAll(filepath.Join(envRoot, "downloads"), "downloads")
}

// removePackages drops the conda environment so package state is clean; the
// environment itself comes back in step 4 when the install resumes. Packages
// cannot be reversed one by one without tracking exactly what step 6
// installed.
func (r *StepReverser) removePackages(ctx context.Context, envRoot string) {
	r.removeCondaEnv(ctx, envRoot)
}

func (r *StepReverser) removeCondaEnv(ctx context.Context, envRoot string) {
	if r.conda == nil {
		return
	}
	condaPath := filepath.Join(envRoot, "Miniconda")
	if ok, _ := r.fs.Exists(condaPath); !ok {
		return
	}
	if err := r.conda.RemoveEnv(ctx, condaPath, config.CondaEnvName); err != nil {
		r.logger.Printf("failed to remove conda environment %s: %v", config.CondaEnvName, err)
	}
}

func (r *StepReverser) removeAll(path, what string) {
	if ok, _ := r.fs.Exists(path); !ok {
		return
	}
	if err := r.fs.RemoveAll(path); err != nil {
		r.logger.Printf("failed to remove %s (%s): %v", path, what, err)
		return
	}
	r.logger.Printf("removed %s", what)
}
