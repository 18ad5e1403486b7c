package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mhollands/envstack/internal/config"
	"github.com/mhollands/envstack/internal/installers"
	"github.com/mhollands/envstack/internal/ledger"
	"github.com/mhollands/envstack/internal/status"
)

// Install runs the installation, resuming from the ledger unless the
// request forces a start step. The unified status record is updated after
// every step transition; on a step failure the run stops and the result
// names the step to resume at.
func (e *Engine) Install(ctx context.Context, req InstallRequest) (*InstallResult, error) {
	if e.store.ResumeInfo().MustCompleteUninstall {
		return nil, ErrUninstallInProgress
	}
	if req.StartStep < 0 || req.StartStep > ledger.TotalSteps {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStep, req.StartStep)
	}

	if req.Mode == "" {
		req.Mode = status.ModeNested
	}
	parent := req.ParentPath
	if parent == "" {
		parent = req.Volume.Path
	}

	labRoot := filepath.Join(parent, config.LabDirName)
	var envRoot string
	if req.Mode == status.ModeNested {
		envRoot = filepath.Join(labRoot, config.EnvDirName)
	} else {
		envRoot = filepath.Join(parent, config.EnvDirName)
	}
	res := &InstallResult{EnvRoot: envRoot, LabRoot: labRoot}

	// Nested mode needs the enclosing clone before anything is created
	// inside it; cloning into a directory that already holds the
	// environment would fail.
	lab := &installers.Lab{Repo: e.repo, Logger: e.logger, URL: e.cfg.LabRepoURL, LabRoot: labRoot}
	if req.Mode == status.ModeNested {
		if err := e.installLab(ctx, lab, labRoot); err != nil {
			return res, err
		}
	}

	if err := e.fs.MkdirAll(envRoot, 0755); err != nil {
		return res, fmt.Errorf("failed to create environment root: %w", err)
	}

	tr, err := ledger.NewTracker(e.fs, e.clock, e.logger, envRoot, req.Volume.Path)
	if err != nil {
		return res, err
	}

	start := req.StartStep
	if start == 0 {
		start = tr.ResumeFrom()
	} else if start > 1 {
		// Forced re-entry: everything from the start step onward runs again.
		if err := tr.ResetFrom(start); err != nil {
			return res, err
		}
	}

	if err := e.store.SetContext(req.Volume.Path, req.Volume.Kind, req.Mode); err != nil {
		return res, err
	}
	if err := e.store.SetEnvStatus(status.Processing, envRoot, e.cfg.Version, -1); err != nil {
		return res, err
	}

	for _, comp := range e.componentsFn(req, envRoot, tr) {
		n := comp.Step()
		if n < start {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if err := tr.Start(n); err != nil {
			return res, err
		}
		e.logger.Printf("step %d (%s) starting", n, comp.Name())

		if err := comp.Install(ctx); err != nil {
			// The step failure is the error worth returning; a persist
			// failure on top of it must still be visible in the log.
			if failErr := tr.Fail(n, err.Error()); failErr != nil {
				e.logger.Printf("failed to record step %d failure in ledger: %v", n, failErr)
			}
			if stErr := e.store.SetEnvStatus(status.Processing, "", "", -1); stErr != nil {
				e.logger.Printf("failed to update status after step %d failure: %v", n, stErr)
			}
			res.FailedStep = n
			res.ResumeStep = tr.ResumeFrom()
			return res, fmt.Errorf("step %d (%s) failed: %w", n, comp.Name(), err)
		}

		if err := tr.Complete(n); err != nil {
			return res, err
		}
		if err := e.store.SetEnvStatus(status.Processing, "", "", n); err != nil {
			return res, err
		}
		res.Completed = append(res.Completed, n)
		e.logger.Printf("step %d (%s) completed", n, comp.Name())
	}

	if req.Mode != status.ModeNested {
		if err := e.installLab(ctx, lab, labRoot); err != nil {
			return res, err
		}
	}
	if err := e.store.SetLabStatus(status.Completed, labRoot, lab.Revision()); err != nil {
		return res, err
	}

	if err := tr.CompleteAll(); err != nil {
		return res, err
	}
	if err := e.store.SetEnvStatus(status.Completed, "", "", ledger.TotalSteps); err != nil {
		return res, err
	}
	return res, nil
}

func (e *Engine) installLab(ctx context.Context, lab *installers.Lab, labRoot string) error {
	if err := e.store.SetLabStatus(status.Processing, labRoot, ""); err != nil {
		return err
	}
	if err := lab.Install(ctx); err != nil {
		return err
	}
	return nil
}
