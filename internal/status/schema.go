// Package status maintains the unified cross-product status record.
//
// One JSON document tracks both products (the runtime environment and the lab
// workspace) plus the install context. The installer updates it after every
// step transition and the uninstaller both reads it for trusted detection and
// writes the uninstall lifecycle through it.
package status

import "time"

// ProductStatus is the lifecycle state of one product.
type ProductStatus string

// Product lifecycle states.
const (
	NoInstallation      ProductStatus = "no_installation"
	Processing          ProductStatus = "processing"
	Completed           ProductStatus = "completed"
	UninstallProcessing ProductStatus = "uninstall_processing"
)

// Install modes.
const (
	ModeNested  = "nested"
	ModeSibling = "sibling"
)

// EnvRecord is the status entry for the runtime environment.
type EnvRecord struct {
	// Status is the lifecycle state
	Status ProductStatus `json:"status"`

	// InstallPath is the environment root, empty when not installed
	InstallPath string `json:"installPath,omitempty"`

	// Version is the stack release version
	Version string `json:"version,omitempty"`

	// LastStepCompleted is the highest completed install step, 0 when none
	LastStepCompleted int `json:"lastStepCompleted,omitempty"`

	// LastUpdated is when this entry last changed
	LastUpdated time.Time `json:"lastUpdated,omitempty"`
}

// LabRecord is the status entry for the lab workspace.
type LabRecord struct {
	// Status is the lifecycle state
	Status ProductStatus `json:"status"`

	// InstallPath is the workspace root, empty when not installed
	InstallPath string `json:"installPath,omitempty"`

	// GitRevision is the checked-out commit, when known
	GitRevision string `json:"gitRevision,omitempty"`

	// LastUpdated is when this entry last changed
	LastUpdated time.Time `json:"lastUpdated,omitempty"`
}

// InstallContext records where and how the stack was installed.
type InstallContext struct {
	// Volume is the target volume root
	Volume string `json:"volume,omitempty"`

	// VolumeKind is internal, external, network or unknown
	VolumeKind string `json:"volumeKind,omitempty"`

	// Mode is nested or sibling
	Mode string `json:"mode,omitempty"`
}

// Record is the unified cross-product status record.
type Record struct {
	Env     EnvRecord      `json:"env"`
	Lab     LabRecord      `json:"lab"`
	Context InstallContext `json:"context"`
}

// emptyRecord is the state of a record that has never seen an installation.
func emptyRecord() *Record {
	return &Record{
		Env: EnvRecord{Status: NoInstallation},
		Lab: LabRecord{Status: NoInstallation},
	}
}

// ResumeInfo summarizes what a new installer run is allowed to do.
type ResumeInfo struct {
	// CanResume reports whether either product has an installation mid-flight
	CanResume bool

	// MustCompleteUninstall blocks new installs while an uninstall is mid-flight
	MustCompleteUninstall bool

	// EnvResume reports whether the environment install can be resumed
	EnvResume bool

	// LabResume reports whether the lab install can be resumed
	LabResume bool

	// EnvLastStep is the last completed environment install step
	EnvLastStep int
}
