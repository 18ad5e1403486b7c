// Package detect locates existing stack installations.
//
// Detection has two sources: the trusted status record written by the
// installer, and a signature scan over every mounted volume for records that
// were lost or never written. Both views are merged into a deduplicated
// candidate list the uninstaller can act on.
package detect

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mhollands/envstack/internal/ledger"
)

// InstallType classifies how the two products relate on disk.
type InstallType string

// Install layout classifications.
const (
	TypeNested  InstallType = "nested"  // environment inside the lab workspace
	TypeSibling InstallType = "sibling" // both present, neither contains the other
	TypeEnvOnly InstallType = "env_only"
	TypeLabOnly InstallType = "lab_only"
	TypeUnknown InstallType = "unknown"
)

// Method says where a candidate came from.
type Method string

// Detection methods.
const (
	MethodStatusRecord Method = "status_record"
	MethodVolumeScan   Method = "volume_scan"
	MethodUserPath     Method = "user_path"
)

// Candidate is one detected installation. Candidates are ephemeral; they are
// rebuilt on every detection run and never persisted.
type Candidate struct {
	// EnvPath is the environment root, empty when not found
	EnvPath string

	// LabPath is the lab workspace root, empty when not found
	LabPath string

	// Volume is the volume root both paths live on
	Volume string

	// Type is the layout classification
	Type InstallType

	// Method says which detection source produced this candidate
	Method Method

	// IsPrimary marks the candidate backed by the trusted status record
	IsPrimary bool

	// Ledger is the installation's ledger when one was readable
	Ledger *ledger.Ledger
}

// Classify determines the layout from the two product paths.
func Classify(envPath, labPath string) InstallType {
	switch {
	case envPath != "" && labPath != "":
		if containsPath(labPath, envPath) {
			return TypeNested
		}
		return TypeSibling
	case envPath != "":
		return TypeEnvOnly
	case labPath != "":
		return TypeLabOnly
	default:
		return TypeUnknown
	}
}

// containsPath reports whether child is a strict descendant of parent.
func containsPath(parent, child string) bool {
	p := filepath.Clean(parent)
	c := filepath.Clean(child)
	if p == c {
		return false
	}
	return strings.HasPrefix(c, p+string(os.PathSeparator))
}
