package uninstall

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/mhollands/envstack/internal/clock"
	"github.com/mhollands/envstack/internal/fsops"
)

// backupDirPrefix names the backup directory created next to the
// installation before user content is deleted.
const backupDirPrefix = "AI_Environment_Backup_"

// ProcessStopper stops running processes belonging to the stack before
// their files are deleted.
type ProcessStopper interface {
	StopStackProcesses(ctx context.Context) error
}

// CondaEnvRemover removes a named conda environment through conda itself,
// used when the environment lives inside a preserved system conda install.
type CondaEnvRemover interface {
	RemoveEnv(ctx context.Context, condaPath, envName string) error
}

// Result is the outcome of executing a plan.
type Result struct {
	// Removed counts entries deleted successfully
	Removed int

	// Failed counts entries that could not be deleted
	Failed int

	// FailedPaths lists the paths behind the Failed count
	FailedPaths []string

	// BackupDir is where user content was copied, when a backup ran
	BackupDir string

	// PreservedRoots lists roots intentionally left in place
	PreservedRoots []string
}

// Executor runs uninstall plans. Removal is best-effort: one undeletable
// entry is reported and skipped, it does not abort the rest.
type Executor struct {
	fs      fsops.FS
	clock   clock.Clock
	logger  *log.Logger
	stopper ProcessStopper
	conda   CondaEnvRemover
}

// NewExecutor creates an Executor. stopper and conda may be nil when the
// caller knows neither applies.
func NewExecutor(fs fsops.FS, clk clock.Clock, logger *log.Logger, stopper ProcessStopper, conda CondaEnvRemover) *Executor {
	return &Executor{fs: fs, clock: clk, logger: logger, stopper: stopper, conda: conda}
}

// Execute runs the plan. With DryRun set, nothing is mutated and an empty
// result is returned. A failed backup aborts before any deletion; nothing
// else does.
func (e *Executor) Execute(ctx context.Context, plan *Plan, opts Options) (*Result, error) {
	res := &Result{}
	if opts.DryRun {
		return res, nil
	}

	if e.stopper != nil {
		if err := e.stopper.StopStackProcesses(ctx); err != nil {
			e.logger.Printf("failed to stop stack processes: %v", err)
		}
	}

	if plan.CondaEnvName != "" && e.conda != nil {
		if err := e.conda.RemoveEnv(ctx, plan.CondaPath, plan.CondaEnvName); err != nil {
			e.logger.Printf("failed to remove conda environment %s: %v", plan.CondaEnvName, err)
			res.Failed++
			res.FailedPaths = append(res.FailedPaths, filepath.Join(plan.CondaPath, "envs", plan.CondaEnvName))
		} else {
			res.Removed++
		}
	}

	if opts.Backup && len(plan.BackupNeeded) > 0 {
		dir, err := e.backup(plan)
		if err != nil {
			return res, fmt.Errorf("backup failed, aborting before any deletion: %w", err)
		}
		res.BackupDir = dir
	}

	// Non-root entries first; the roots go last, in plan order.
	for _, entry := range plan.ToRemove {
		if plan.isRoot(entry.Path) {
			continue
		}
		e.remove(entry, res)
	}

	for _, root := range plan.RemovalOrder {
		e.removeRoot(root, plan, res)
	}

	return res, nil
}

// backup copies every BackupNeeded entry into a timestamped directory next
// to the installation, preserving structure relative to the environment root.
func (e *Executor) backup(plan *Plan) (string, error) {
	parent := plan.Volume
	if parent == "" {
		parent = filepath.Dir(plan.EnvRoot)
		if plan.Nested {
			parent = filepath.Dir(plan.LabRoot)
		}
	}
	dir := filepath.Join(parent, backupDirPrefix+e.clock.Now().Format("20060102_150405"))

	for _, entry := range plan.BackupNeeded {
		rel, err := filepath.Rel(plan.EnvRoot, entry.Path)
		if err != nil {
			rel = filepath.Base(entry.Path)
		}
		dst := filepath.Join(dir, rel)
		if err := e.fs.Copy(entry.Path, dst); err != nil {
			return "", fmt.Errorf("failed to back up %s: %w", entry.Path, err)
		}
		e.logger.Printf("backed up %s to %s", entry.Path, dst)
	}
	return dir, nil
}

func (e *Executor) remove(entry Entry, res *Result) {
	var err error
	if entry.Kind == KindDir {
		err = e.fs.RemoveAll(entry.Path)
	} else {
		err = e.fs.Remove(entry.Path)
	}
	if err != nil {
		e.logger.Printf("failed to remove %s: %v", entry.Path, err)
		res.Failed++
		res.FailedPaths = append(res.FailedPaths, entry.Path)
		return
	}
	res.Removed++
}

// removeRoot deletes one product root with the special cases: a root whose
// remaining contents are all preserved stays in place, and a lab root that
// still contains the preserved environment is skipped too.
func (e *Executor) removeRoot(root RootRemoval, plan *Plan, res *Result) {
	if ok, _ := e.fs.Exists(root.Path); !ok {
		return
	}

	// A root that still holds preserved content is never force-removed, even
	// when stray entries are left beside it. Removing it wholesale would take
	// the preserved content with it.
	entries, err := e.fs.ReadDir(root.Path)
	if err == nil {
		for _, entry := range entries {
			if plan.preserves(filepath.Join(root.Path, entry.Name())) {
				e.logger.Printf("%s contains preserved content, leaving in place", root.Path)
				res.PreservedRoots = append(res.PreservedRoots, root.Path)
				return
			}
		}
	}

	if root.Product == ProductLab && plan.Nested && plan.EnvRoot != "" {
		if ok, _ := e.fs.Exists(plan.EnvRoot); ok {
			e.logger.Printf("%s still contains the preserved environment, leaving in place", root.Path)
			res.PreservedRoots = append(res.PreservedRoots, root.Path)
			return
		}
	}

	if err := e.fs.RemoveAll(root.Path); err != nil {
		e.logger.Printf("failed to remove %s: %v", root.Path, err)
		res.Failed++
		res.FailedPaths = append(res.FailedPaths, root.Path)
		return
	}
	res.Removed++
}
