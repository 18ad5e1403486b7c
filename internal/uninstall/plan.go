// Package uninstall plans and executes removal of detected installations.
//
// The planner partitions everything under a detected installation into
// remove, preserve and backup sets before anything is touched, so the
// destructive phase runs off a reviewed plan rather than ad-hoc decisions.
// Anything that predates the installation is never removed.
package uninstall

// EntryKind distinguishes file and directory plan entries.
type EntryKind string

// Plan entry kinds.
const (
	KindFile EntryKind = "file"
	KindDir  EntryKind = "dir"
)

// Entry is one filesystem path in a plan partition.
type Entry struct {
	Kind EntryKind
	Path string
}

// Product tags for removal ordering.
const (
	ProductEnv = "env"
	ProductLab = "lab"
)

// RootRemoval is one root directory removal, in order.
type RootRemoval struct {
	// Product is env or lab
	Product string

	// Path is the root directory to remove
	Path string
}

// Plan is the complete uninstall decision for one candidate. It is built
// once per run and consumed immediately; only its outcome is persisted.
type Plan struct {
	// EnvRoot is the environment root, empty when only the lab was found
	EnvRoot string

	// LabRoot is the lab workspace root, empty when only the env was found
	LabRoot string

	// Volume is the volume the installation lives on, when known
	Volume string

	// Nested reports whether the environment sits inside the lab workspace
	Nested bool

	// ToRemove holds every entry that will be deleted, roots included
	ToRemove []Entry

	// ToPreserve holds entries that must survive the uninstall
	ToPreserve []Entry

	// BackupNeeded holds entries copied aside before any deletion
	BackupNeeded []Entry

	// PreExisting holds entries that predate the installation
	PreExisting []Entry

	// Warnings collects anomalies noticed while planning
	Warnings []string

	// RemovalOrder lists the root directories in safe deletion order
	RemovalOrder []RootRemoval

	// CondaPath is a pre-existing system conda install to preserve, when found
	CondaPath string

	// CondaEnvName is the environment to remove via conda itself, when set
	CondaEnvName string
}

// isRoot reports whether path is one of the two product roots.
func (p *Plan) isRoot(path string) bool {
	return (p.EnvRoot != "" && path == p.EnvRoot) || (p.LabRoot != "" && path == p.LabRoot)
}

// preserves reports whether path is in the preserve partition.
func (p *Plan) preserves(path string) bool {
	for _, e := range p.ToPreserve {
		if e.Path == path {
			return true
		}
	}
	return false
}
