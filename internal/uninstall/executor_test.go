package uninstall

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mhollands/envstack/internal/clock"
	"github.com/mhollands/envstack/internal/config"
	"github.com/mhollands/envstack/internal/detect"
	"github.com/mhollands/envstack/internal/fsops"
	"github.com/mhollands/envstack/internal/ledger"
)

type fakeStopper struct {
	called bool
}

func (f *fakeStopper) StopStackProcesses(ctx context.Context) error {
	f.called = true
	return nil
}

type fakeConda struct {
	calls []string
	err   error
}

func (f *fakeConda) RemoveEnv(ctx context.Context, condaPath, envName string) error {
	f.calls = append(f.calls, condaPath+"|"+envName)
	return f.err
}

func newTestExecutor(stopper ProcessStopper, conda CondaEnvRemover) *Executor {
	clk := clock.NewFakeClock(time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))
	return NewExecutor(fsops.NewRealFS(), clk, discardLogger(), stopper, conda)
}

func siblingPlan(t *testing.T, opts Options) (*Plan, string, string) {
	t.Helper()
	vol := t.TempDir()
	envRoot := filepath.Join(vol, config.EnvDirName)
	labRoot := filepath.Join(vol, config.LabDirName)
	makeInstalledEnv(t, envRoot)
	makeLabClone(t, labRoot)

	p := NewPlanner(fsops.NewRealFS(), discardLogger())
	c := &detect.Candidate{EnvPath: envRoot, LabPath: labRoot, Volume: vol, Type: detect.TypeSibling}
	return p.CreatePlan(c, &ledger.Snapshot{}, opts), envRoot, labRoot
}

func TestExecuteDryRunMutatesNothing(t *testing.T) {
	plan, envRoot, labRoot := siblingPlan(t, Options{DryRun: true})
	stopper := &fakeStopper{}

	res, err := newTestExecutor(stopper, nil).Execute(context.Background(), plan, Options{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Removed != 0 || res.Failed != 0 {
		t.Errorf("dry run result = %+v, want zero counts", res)
	}
	if stopper.called {
		t.Error("dry run stopped processes")
	}
	if _, err := os.Stat(envRoot); err != nil {
		t.Error("dry run removed the environment root")
	}
	if _, err := os.Stat(labRoot); err != nil {
		t.Error("dry run removed the lab root")
	}
}

func TestExecuteFullRemoval(t *testing.T) {
	plan, envRoot, labRoot := siblingPlan(t, Options{})
	stopper := &fakeStopper{}

	res, err := newTestExecutor(stopper, nil).Execute(context.Background(), plan, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !stopper.called {
		t.Error("stack processes not stopped before removal")
	}
	if res.Failed != 0 {
		t.Errorf("Failed = %d (%v), want 0", res.Failed, res.FailedPaths)
	}
	if _, err := os.Stat(envRoot); !os.IsNotExist(err) {
		t.Error("environment root survived full removal")
	}
	if _, err := os.Stat(labRoot); !os.IsNotExist(err) {
		t.Error("lab root survived full removal")
	}

	if issues := Verify(fsops.NewRealFS(), plan, res); len(issues) != 0 {
		t.Errorf("Verify() after full removal = %v, want no issues", issues)
	}
}

func TestExecuteKeepUserContentWithBackup(t *testing.T) {
	opts := Options{KeepUserContent: true, Backup: true}
	plan, envRoot, _ := siblingPlan(t, opts)
	projects := filepath.Join(envRoot, "Projects")

	res, err := newTestExecutor(nil, nil).Execute(context.Background(), plan, opts)
	if err != nil {
		t.Fatal(err)
	}

	if res.BackupDir == "" {
		t.Fatal("no backup directory recorded")
	}
	if !strings.Contains(filepath.Base(res.BackupDir), "Backup") {
		t.Errorf("backup dir %q has unexpected name", res.BackupDir)
	}
	if _, err := os.Stat(filepath.Join(res.BackupDir, "Projects", "content.bin")); err != nil {
		t.Errorf("backup missing user content: %v", err)
	}

	// Projects survives in place, so the environment root must too.
	if _, err := os.Stat(filepath.Join(projects, "content.bin")); err != nil {
		t.Errorf("preserved Projects content gone: %v", err)
	}
	preserved := false
	for _, root := range res.PreservedRoots {
		if root == envRoot {
			preserved = true
		}
	}
	if !preserved {
		t.Errorf("PreservedRoots = %v, want environment root listed", res.PreservedRoots)
	}

	// Everything else under the root is gone.
	if _, err := os.Stat(filepath.Join(envRoot, "Miniconda")); !os.IsNotExist(err) {
		t.Error("Miniconda survived")
	}

	if issues := Verify(fsops.NewRealFS(), plan, res); len(issues) != 0 {
		t.Errorf("Verify() = %v, want no issues", issues)
	}
}

func TestExecuteBackupFailureAbortsBeforeDeletion(t *testing.T) {
	opts := Options{KeepUserContent: true, Backup: true}
	plan, envRoot, _ := siblingPlan(t, opts)

	// Point the backup at a path that cannot be copied.
	plan.BackupNeeded = append(plan.BackupNeeded, Entry{Kind: KindDir, Path: filepath.Join(envRoot, "does_not_exist")})

	_, err := newTestExecutor(nil, nil).Execute(context.Background(), plan, opts)
	if err == nil {
		t.Fatal("Execute() = nil error, want backup failure")
	}

	// Nothing may have been deleted.
	for _, dir := range OwnedEnvDirs {
		if _, statErr := os.Stat(filepath.Join(envRoot, dir)); statErr != nil {
			t.Errorf("%s deleted despite failed backup", dir)
		}
	}
}

func TestExecuteNestedPreservedEnvKeepsLab(t *testing.T) {
	vol := t.TempDir()
	labRoot := filepath.Join(vol, config.LabDirName)
	envRoot := filepath.Join(labRoot, config.EnvDirName)
	makeLabClone(t, labRoot)
	makeInstalledEnv(t, envRoot)

	opts := Options{KeepUserContent: true}
	p := NewPlanner(fsops.NewRealFS(), discardLogger())
	c := &detect.Candidate{EnvPath: envRoot, LabPath: labRoot, Volume: vol, Type: detect.TypeNested}
	plan := p.CreatePlan(c, &ledger.Snapshot{}, opts)

	res, err := newTestExecutor(nil, nil).Execute(context.Background(), plan, opts)
	if err != nil {
		t.Fatal(err)
	}

	// The env root stays because Projects is preserved, and the lab root must
	// then stay as well or it would take the env with it.
	if _, err := os.Stat(filepath.Join(envRoot, "Projects")); err != nil {
		t.Error("preserved Projects gone")
	}
	if _, err := os.Stat(labRoot); err != nil {
		t.Error("lab root removed while it still contained preserved content")
	}
	if len(res.PreservedRoots) != 2 {
		t.Errorf("PreservedRoots = %v, want both roots", res.PreservedRoots)
	}
}

func TestExecuteCondaEnvRemoval(t *testing.T) {
	plan, _, _ := siblingPlan(t, Options{})
	plan.CondaPath = "/opt/miniconda3"
	plan.CondaEnvName = config.CondaEnvName

	conda := &fakeConda{}
	if _, err := newTestExecutor(nil, conda).Execute(context.Background(), plan, Options{}); err != nil {
		t.Fatal(err)
	}
	if len(conda.calls) != 1 || conda.calls[0] != "/opt/miniconda3|"+config.CondaEnvName {
		t.Errorf("conda calls = %v", conda.calls)
	}
}

func TestExecuteCondaFailureDoesNotAbort(t *testing.T) {
	plan, envRoot, _ := siblingPlan(t, Options{})
	plan.CondaPath = "/opt/miniconda3"
	plan.CondaEnvName = config.CondaEnvName

	conda := &fakeConda{err: errors.New("conda broke")}
	res, err := newTestExecutor(nil, conda).Execute(context.Background(), plan, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed != 1 {
		t.Errorf("Failed = %d, want 1 for the conda env", res.Failed)
	}
	if _, statErr := os.Stat(envRoot); !os.IsNotExist(statErr) {
		t.Error("filesystem removal did not proceed after conda failure")
	}
}

func TestVerifyReportsDiscrepancies(t *testing.T) {
	plan, _, labRoot := siblingPlan(t, Options{})
	res, err := newTestExecutor(nil, nil).Execute(context.Background(), plan, Options{})
	if err != nil {
		t.Fatal(err)
	}

	// Recreate a removed path and fabricate a missing preserved one.
	if err := os.MkdirAll(labRoot, 0o755); err != nil {
		t.Fatal(err)
	}
	plan.ToPreserve = append(plan.ToPreserve, Entry{Kind: KindDir, Path: filepath.Join(t.TempDir(), "gone")})

	issues := Verify(fsops.NewRealFS(), plan, res)
	if len(issues) != 2 {
		t.Errorf("Verify() = %v, want 2 issues", issues)
	}
}
