package ledger

import "time"

// StepStatus is the lifecycle state of one step.
type StepStatus string

// Step lifecycle states.
const (
	StatusPending    StepStatus = "pending"
	StatusInProgress StepStatus = "in_progress"
	StatusCompleted  StepStatus = "completed"
	StatusFailed     StepStatus = "failed"
)

// StepRecord holds the progress of one step.
type StepRecord struct {
	// Number is the 1-based step number
	Number int `json:"number"`

	// Name is the step name at the time the record was created
	Name string `json:"name"`

	// Status is the current lifecycle state
	Status StepStatus `json:"status"`

	// StartedAt is when the step last entered in_progress
	StartedAt time.Time `json:"startedAt,omitempty"`

	// EndedAt is when the step last completed or failed
	EndedAt time.Time `json:"endedAt,omitempty"`

	// CompletedComponents lists the sub-units finished so far
	CompletedComponents []string `json:"completedComponents,omitempty"`

	// Error is the failure reason when Status is failed
	Error string `json:"error,omitempty"`
}

// Snapshot records what existed before the installer touched anything. It is
// captured once when the ledger is first created and read-only afterwards;
// the uninstaller uses it to tell installer-created state from pre-existing
// state.
type Snapshot struct {
	// Timestamp is when the snapshot was captured
	Timestamp time.Time `json:"timestamp"`

	// TargetVolume is the volume root chosen for the installation
	TargetVolume string `json:"targetVolume"`

	// RootPreExisted reports whether the environment root already existed
	RootPreExisted bool `json:"rootPreExisted"`

	// PreExistingSubdirs lists subdirectory names present before installation
	PreExistingSubdirs []string `json:"preExistingSubdirs,omitempty"`

	// PortableCondaPaths lists conda installations found under the target volume
	PortableCondaPaths []string `json:"portableCondaPaths,omitempty"`

	// SystemCondaPaths lists conda installations found in system locations
	SystemCondaPaths []string `json:"systemCondaPaths,omitempty"`

	// PythonOnPath reports whether a python binary was already on PATH
	PythonOnPath bool `json:"pythonOnPath"`
}

// Ledger is the durable installation progress record.
type Ledger struct {
	// InstallationID identifies this installation attempt (timestamp format)
	InstallationID string `json:"installationId"`

	// StartedAt is when the ledger was first created
	StartedAt time.Time `json:"startedAt"`

	// LastUpdatedAt is when the ledger was last persisted
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`

	// CurrentStep is the next step to run (1-based)
	CurrentStep int `json:"currentStep"`

	// CompletedSteps lists step numbers that finished successfully
	CompletedSteps []int `json:"completedSteps"`

	// FailedSteps lists step numbers whose last attempt failed
	FailedSteps []int `json:"failedSteps"`

	// Steps maps step number to its progress record
	Steps map[int]*StepRecord `json:"steps"`

	// TotalSteps is the size of the step table when the ledger was written
	TotalSteps int `json:"totalSteps"`

	// InstallPath is the environment root this ledger belongs to
	InstallPath string `json:"installPath"`

	// ResumeAvailable is true exactly while FailedSteps is non-empty
	ResumeAvailable bool `json:"resumeAvailable"`

	// Snapshot is the pre-install state, captured once
	Snapshot Snapshot `json:"snapshot"`
}

// IsCompleted reports whether step n is recorded as completed.
func (l *Ledger) IsCompleted(n int) bool {
	for _, s := range l.CompletedSteps {
		if s == n {
			return true
		}
	}
	return false
}

// IsFailed reports whether step n is recorded as failed.
func (l *Ledger) IsFailed(n int) bool {
	for _, s := range l.FailedSteps {
		if s == n {
			return true
		}
	}
	return false
}
