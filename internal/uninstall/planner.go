package uninstall

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/mhollands/envstack/internal/config"
	"github.com/mhollands/envstack/internal/detect"
	"github.com/mhollands/envstack/internal/fsops"
	"github.com/mhollands/envstack/internal/ledger"
)

// OwnedEnvDirs are the subdirectories the installer creates under the
// environment root.
var OwnedEnvDirs = []string{
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

// EnvMetadataFiles are the files the installer writes directly under the
// environment root.
var EnvMetadataFiles = []string{
	ledger.LedgerFileName,
	"install_info.json",
	"activate_env.bat",
	"activate_env.sh",
	"README.md",
	"validation_report.json",
}

// userContentDir holds user work and gets preserve/backup treatment.
const userContentDir = "Projects"

// Options controls how an uninstall is planned and executed.
type Options struct {
	// KeepUserContent preserves the Projects directory
	KeepUserContent bool

	// Backup copies preserved user content aside before deletion starts
	Backup bool

	// Auto skips interactive confirmation
	Auto bool

	// DryRun plans and reports without mutating anything
	DryRun bool
}

// Planner builds uninstall plans.
type Planner struct {
	fs     fsops.FS
	logger *log.Logger
}

// NewPlanner creates a Planner.
func NewPlanner(fs fsops.FS, logger *log.Logger) *Planner {
	return &Planner{fs: fs, logger: logger}
}

// CreatePlan partitions the candidate's filesystem entries. The snapshot is
// the pre-install state from the installation's ledger; nil means no ledger
// survived, in which case nothing is known to pre-exist.
func (p *Planner) CreatePlan(c *detect.Candidate, snap *ledger.Snapshot, opts Options) *Plan {
	plan := &Plan{
		EnvRoot: c.EnvPath,
		LabRoot: c.LabPath,
		Volume:  c.Volume,
		Nested:  c.Type == detect.TypeNested,
	}

	if plan.EnvRoot != "" {
		p.planEnv(plan, snap, opts)
	}
	if plan.LabRoot != "" {
		// The lab is a git clone: removed as one unit, nothing inside it to
		// partition.
		plan.ToRemove = append(plan.ToRemove, Entry{Kind: KindDir, Path: plan.LabRoot})
	}

	p.planConda(plan, snap)

	// Nested: the environment must go before its enclosing lab root.
	if plan.EnvRoot != "" {
		plan.RemovalOrder = append(plan.RemovalOrder, RootRemoval{Product: ProductEnv, Path: plan.EnvRoot})
	}
	if plan.LabRoot != "" {
		plan.RemovalOrder = append(plan.RemovalOrder, RootRemoval{Product: ProductLab, Path: plan.LabRoot})
	}

	return plan
}

func (p *Planner) planEnv(plan *Plan, snap *ledger.Snapshot, opts Options) {
	preExisting := map[string]bool{}
	if snap != nil {
		for _, name := range snap.PreExistingSubdirs {
			preExisting[name] = true
		}
	}

	classified := map[string]bool{}

	for _, name := range OwnedEnvDirs {
		path := filepath.Join(plan.EnvRoot, name)
		if ok, _ := p.fs.Exists(path); !ok {
			continue
		}
		classified[name] = true
		entry := Entry{Kind: KindDir, Path: path}

		switch {
		case preExisting[name]:
			plan.PreExisting = append(plan.PreExisting, entry)
			plan.ToPreserve = append(plan.ToPreserve, entry)
			plan.warnf("%s existed before this installation, preserving", path)
		case name == userContentDir && opts.KeepUserContent:
			plan.ToPreserve = append(plan.ToPreserve, entry)
			if opts.Backup {
				plan.BackupNeeded = append(plan.BackupNeeded, entry)
			}
		default:
			plan.ToRemove = append(plan.ToRemove, entry)
		}
	}

	for _, name := range EnvMetadataFiles {
		path := filepath.Join(plan.EnvRoot, name)
		if ok, _ := p.fs.Exists(path); ok {
			classified[name] = true
			plan.ToRemove = append(plan.ToRemove, Entry{Kind: KindFile, Path: path})
		}
	}

	// Catch-all: entries the fixed lists do not know about. They still get
	// removed, but each one is an anomaly worth logging because it means the
	// installers create something the planner was never taught.
	entries, err := p.fs.ReadDir(plan.EnvRoot)
	if err != nil {
		plan.warnf("failed to scan %s: %v", plan.EnvRoot, err)
	} else {
		for _, e := range entries {
			if classified[e.Name()] {
				continue
			}
			path := filepath.Join(plan.EnvRoot, e.Name())
			if preExisting[e.Name()] {
				entry := Entry{Kind: KindDir, Path: path}
				plan.PreExisting = append(plan.PreExisting, entry)
				plan.ToPreserve = append(plan.ToPreserve, entry)
				continue
			}
			kind := KindFile
			if e.IsDir() {
				kind = KindDir
			}
			plan.ToRemove = append(plan.ToRemove, Entry{Kind: kind, Path: path})
			plan.warnf("unexpected entry %s under environment root, scheduling removal", path)
			p.logger.Printf("planner does not know %s, removing anyway", path)
		}
	}

	plan.ToRemove = append(plan.ToRemove, Entry{Kind: KindDir, Path: plan.EnvRoot})
}

// planConda handles a pre-existing system-wide conda. The install itself is
// untouchable; only the environment this installer created inside it gets
// removed, and via conda rather than a path delete.
func (p *Planner) planConda(plan *Plan, snap *ledger.Snapshot) {
	if snap == nil || len(snap.SystemCondaPaths) == 0 {
		return
	}

	for _, condaPath := range snap.SystemCondaPaths {
		plan.ToPreserve = append(plan.ToPreserve, Entry{Kind: KindDir, Path: condaPath})
	}

	condaPath := snap.SystemCondaPaths[0]
	envDir := filepath.Join(condaPath, "envs", config.CondaEnvName)
	if ok, _ := p.fs.Exists(envDir); ok {
		plan.CondaPath = condaPath
		plan.CondaEnvName = config.CondaEnvName
	}
}

func (plan *Plan) warnf(format string, args ...any) {
	plan.Warnings = append(plan.Warnings, fmt.Sprintf(format, args...))
}
