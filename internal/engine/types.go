package engine

import (
	"github.com/mhollands/envstack/internal/detect"
	"github.com/mhollands/envstack/internal/drives"
	"github.com/mhollands/envstack/internal/status"
	"github.com/mhollands/envstack/internal/uninstall"
)

// InstallRequest describes one install (or resume) run.
type InstallRequest struct {
	// StartStep forces installation to begin at this step; 0 means resume
	// from wherever the ledger says
	StartStep int

	// Volume is the chosen target volume
	Volume drives.Volume

	// ParentPath overrides the volume root as the directory the product
	// roots are created under
	ParentPath string

	// Mode is nested or sibling; empty defaults to nested
	Mode string

	// SkipInternet disables the connectivity check in step 1
	SkipInternet bool
}

// InstallResult reports how an install run ended.
type InstallResult struct {
	// EnvRoot is the environment root that was installed to
	EnvRoot string

	// LabRoot is the lab workspace root
	LabRoot string

	// Completed lists the steps that finished during this run
	Completed []int

	// FailedStep is the step that stopped the run, 0 when none did
	FailedStep int

	// ResumeStep is where the next run will continue after a failure
	ResumeStep int
}

// UninstallOutcome reports an executed uninstall.
type UninstallOutcome struct {
	// Plan is the plan that was executed (or merely built, for dry runs)
	Plan *uninstall.Plan

	// Result is the execution outcome, nil for dry runs
	Result *uninstall.Result

	// Issues are post-removal verification discrepancies
	Issues []uninstall.Issue
}

// StatusReport is everything the status command shows.
type StatusReport struct {
	// Record is the unified status record
	Record status.Record

	// Candidate is the trusted installation, when one exists
	Candidate *detect.Candidate
}
