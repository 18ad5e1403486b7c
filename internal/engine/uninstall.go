package engine

import (
	"context"
	"fmt"

	"github.com/mhollands/envstack/internal/detect"
	"github.com/mhollands/envstack/internal/installers"
	"github.com/mhollands/envstack/internal/ledger"
	"github.com/mhollands/envstack/internal/status"
	"github.com/mhollands/envstack/internal/uninstall"
)

// DetectInstallations finds uninstall candidates. With a non-empty path the
// user's path is the single candidate; otherwise the trusted record and a
// full volume scan are merged. The returned warnings are detection
// anomalies worth showing.
func (e *Engine) DetectInstallations(path string) ([]detect.Candidate, []string, error) {
	d := e.detector()

	if path != "" {
		c, err := d.DetectAtPath(path)
		if err != nil {
			return nil, d.Warnings(), err
		}
		return []detect.Candidate{*c}, d.Warnings(), nil
	}

	candidates, err := d.DetectAll()
	if err != nil {
		return nil, d.Warnings(), err
	}
	if len(candidates) == 0 {
		return nil, d.Warnings(), ErrNoInstallation
	}
	return candidates, d.Warnings(), nil
}

// PlanUninstall builds the removal plan for one candidate without touching
// anything. The CLI shows it for confirmation and dry runs.
func (e *Engine) PlanUninstall(c *detect.Candidate, opts uninstall.Options) *uninstall.Plan {
	var snap *ledger.Snapshot
	if c.Ledger != nil {
		snap = &c.Ledger.Snapshot
	}
	planner := uninstall.NewPlanner(e.fs, e.logger)
	return planner.CreatePlan(c, snap, opts)
}

// Uninstall executes the plan for one candidate. The status record is moved
// to uninstall_processing before the first deletion and reset afterwards, so
// a crash mid-removal leaves the hard install gate in place.
func (e *Engine) Uninstall(ctx context.Context, c *detect.Candidate, opts uninstall.Options) (*UninstallOutcome, error) {
	plan := e.PlanUninstall(c, opts)
	out := &UninstallOutcome{Plan: plan}

	if opts.DryRun {
		return out, nil
	}

	if c.EnvPath != "" {
		if err := e.store.SetEnvStatus(status.UninstallProcessing, "", "", -1); err != nil {
			return out, err
		}
	}
	if c.LabPath != "" {
		if err := e.store.SetLabStatus(status.UninstallProcessing, "", ""); err != nil {
			return out, err
		}
	}

	exec := uninstall.NewExecutor(e.fs, e.clock, e.logger,
		&installers.StackProcessStopper{Runner: e.runner, Logger: e.logger},
		&installers.CondaRemover{Runner: e.runner})

	res, err := exec.Execute(ctx, plan, opts)
	out.Result = res
	if err != nil {
		// Leave the record in uninstall_processing: the uninstall is not
		// done and installs must stay blocked.
		return out, err
	}

	out.Issues = uninstall.Verify(e.fs, plan, res)

	if err := e.store.Reset(); err != nil {
		return out, err
	}
	return out, nil
}

// UninstallFromStep reverses installation steps from..8 under the detected
// environment so the installer can run again from that step.
func (e *Engine) UninstallFromStep(ctx context.Context, path string, from int) error {
	if from < 1 || from > ledger.TotalSteps {
		return fmt.Errorf("%w: %d", ErrInvalidStep, from)
	}

	candidates, _, err := e.DetectInstallations(path)
	if err != nil {
		return err
	}
	envRoot := candidates[0].EnvPath
	if envRoot == "" {
		return fmt.Errorf("%w: no environment to reverse", ErrNoInstallation)
	}

	tr, err := ledger.NewTracker(e.fs, e.clock, e.logger, envRoot, candidates[0].Volume)
	if err != nil {
		return err
	}

	reverser := uninstall.NewStepReverser(e.fs, e.logger, &installers.CondaRemover{Runner: e.runner})
	if err := reverser.ReverseFrom(ctx, envRoot, from, tr); err != nil {
		return err
	}

	// The environment is back to a partial install resumable at the step.
	return e.store.SetEnvStatus(status.Processing, envRoot, "", from-1)
}
