package ledger

import (
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"sort"

	"github.com/mhollands/envstack/internal/clock"
	"github.com/mhollands/envstack/internal/fsops"
)

// installationIDFormat is the timestamp layout used for installation IDs.
const installationIDFormat = "20060102_150405"

// Tracker owns the ledger for one installation and persists every mutation
// synchronously, so the on-disk record is never behind the in-memory one.
type Tracker struct {
	fs     fsops.FS
	clock  clock.Clock
	logger *log.Logger
	path   string
	ledger *Ledger
}

// NewTracker loads the ledger under envRoot, or creates a fresh one when none
// exists. A corrupt or torn ledger file is replaced with a fresh ledger
// rather than aborting; the old progress is lost but the installer keeps
// working.
func NewTracker(fs fsops.FS, clk clock.Clock, logger *log.Logger, envRoot, volume string) (*Tracker, error) {
	t := &Tracker{
		fs:     fs,
		clock:  clk,
		logger: logger,
		path:   filepath.Join(envRoot, LedgerFileName),
	}

	data, err := fs.ReadFile(t.path)
	if err == nil {
		var l Ledger
		if jsonErr := json.Unmarshal(data, &l); jsonErr == nil && l.TotalSteps > 0 {
			if l.Steps == nil {
				l.Steps = make(map[int]*StepRecord)
			}
			t.ledger = &l
			return t, nil
		}
		logger.Printf("ledger file %s is corrupt, starting fresh", t.path)
	}

	t.ledger = t.freshLedger(fs, envRoot, volume)
	if err := t.persist(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tracker) freshLedger(fs fsops.FS, envRoot, volume string) *Ledger {
	now := t.clock.Now()
	return &Ledger{
		InstallationID: now.Format(installationIDFormat),
		StartedAt:      now,
		LastUpdatedAt:  now,
		CurrentStep:    1,
		CompletedSteps: []int{},
		FailedSteps:    []int{},
		Steps:          make(map[int]*StepRecord),
		TotalSteps:     TotalSteps,
		InstallPath:    envRoot,
		Snapshot:       CaptureSnapshot(fs, envRoot, volume, now),
	}
}

// Ledger returns the current in-memory ledger.
func (t *Tracker) Ledger() *Ledger {
	return t.ledger
}

// Start marks step n as in progress and makes it the current step.
// Completed components from a previous attempt are kept so re-entrant steps
// can skip finished work.
func (t *Tracker) Start(n int) error {
	def, ok := StepByNumber(n)
	if !ok {
		return fmt.Errorf("invalid step number %d", n)
	}

	rec := t.ledger.Steps[n]
	if rec == nil {
		rec = &StepRecord{Number: n, Name: def.Name}
		t.ledger.Steps[n] = rec
	}
	rec.Status = StatusInProgress
	rec.StartedAt = t.clock.Now()
	rec.Error = ""

	t.ledger.CurrentStep = n
	return t.persist()
}

// Complete marks step n as completed. Completing an already-completed step is
// a no-op beyond refreshing the record; a previous failure of the same step
// is cleared. When n is the current step, the current step advances.
func (t *Tracker) Complete(n int) error {
	def, ok := StepByNumber(n)
	if !ok {
		return fmt.Errorf("invalid step number %d", n)
	}

	rec := t.ledger.Steps[n]
	if rec == nil {
		rec = &StepRecord{Number: n, Name: def.Name}
		t.ledger.Steps[n] = rec
	}
	rec.Status = StatusCompleted
	rec.EndedAt = t.clock.Now()
	rec.Error = ""

	if !t.ledger.IsCompleted(n) {
		t.ledger.CompletedSteps = append(t.ledger.CompletedSteps, n)
		sort.Ints(t.ledger.CompletedSteps)
	}
	t.ledger.FailedSteps = removeInt(t.ledger.FailedSteps, n)
	t.ledger.ResumeAvailable = len(t.ledger.FailedSteps) > 0

	if n == t.ledger.CurrentStep && n < TotalSteps {
		t.ledger.CurrentStep = n + 1
	}
	return t.persist()
}

// Fail marks step n as failed with the given reason and flags the
// installation as resumable.
func (t *Tracker) Fail(n int, reason string) error {
	def, ok := StepByNumber(n)
	if !ok {
		return fmt.Errorf("invalid step number %d", n)
	}

	rec := t.ledger.Steps[n]
	if rec == nil {
		rec = &StepRecord{Number: n, Name: def.Name}
		t.ledger.Steps[n] = rec
	}
	rec.Status = StatusFailed
	rec.EndedAt = t.clock.Now()
	rec.Error = reason

	if !t.ledger.IsFailed(n) {
		t.ledger.FailedSteps = append(t.ledger.FailedSteps, n)
		sort.Ints(t.ledger.FailedSteps)
	}
	t.ledger.ResumeAvailable = true
	return t.persist()
}

// CompleteComponent records that one sub-unit of step n finished.
func (t *Tracker) CompleteComponent(n int, component string) error {
	rec := t.ledger.Steps[n]
	if rec == nil {
		return fmt.Errorf("step %d has not been started", n)
	}
	for _, c := range rec.CompletedComponents {
		if c == component {
			return nil
		}
	}
	rec.CompletedComponents = append(rec.CompletedComponents, component)
	return t.persist()
}

// ResumeFrom returns the step a resumed installation should start at: the
// lowest failed step, or the current step when nothing failed.
func (t *Tracker) ResumeFrom() int {
	if len(t.ledger.FailedSteps) > 0 {
		return t.ledger.FailedSteps[0]
	}
	return t.ledger.CurrentStep
}

// ResetFrom drops all progress for steps n and later, so they run again.
func (t *Tracker) ResetFrom(n int) error {
	if n < 1 || n > TotalSteps {
		return fmt.Errorf("invalid step number %d", n)
	}

	for step := n; step <= TotalSteps; step++ {
		delete(t.ledger.Steps, step)
	}
	t.ledger.CompletedSteps = removeAtOrAbove(t.ledger.CompletedSteps, n)
	t.ledger.FailedSteps = removeAtOrAbove(t.ledger.FailedSteps, n)
	t.ledger.ResumeAvailable = len(t.ledger.FailedSteps) > 0
	if t.ledger.CurrentStep > n {
		t.ledger.CurrentStep = n
	}
	return t.persist()
}

// CompleteAll marks every step completed. Used when the final step finishes.
func (t *Tracker) CompleteAll() error {
	now := t.clock.Now()
	t.ledger.CompletedSteps = nil
	for _, def := range Definitions {
		rec := t.ledger.Steps[def.Number]
		if rec == nil {
			rec = &StepRecord{Number: def.Number, Name: def.Name}
			t.ledger.Steps[def.Number] = rec
		}
		if rec.Status != StatusCompleted {
			rec.Status = StatusCompleted
			rec.EndedAt = now
			rec.Error = ""
		}
		t.ledger.CompletedSteps = append(t.ledger.CompletedSteps, def.Number)
	}
	t.ledger.FailedSteps = []int{}
	t.ledger.CurrentStep = TotalSteps
	t.ledger.ResumeAvailable = false
	return t.persist()
}

// Clear removes the ledger file. The in-memory ledger is kept so a caller
// holding the tracker can still read the final state.
func (t *Tracker) Clear() error {
	if err := t.fs.Remove(t.path); err != nil {
		if ok, _ := t.fs.Exists(t.path); !ok {
			return nil
		}
		return fmt.Errorf("failed to remove ledger file: %w", err)
	}
	return nil
}

// Summary is a compact view of ledger progress for display.
type Summary struct {
	InstallationID  string
	InstallPath     string
	CurrentStep     int
	TotalSteps      int
	CompletedSteps  []int
	FailedSteps     []int
	ResumeAvailable bool
	ResumeStep      int
}

// Summary returns a snapshot of the ledger's progress.
func (t *Tracker) Summary() Summary {
	return Summary{
		InstallationID:  t.ledger.InstallationID,
		InstallPath:     t.ledger.InstallPath,
		CurrentStep:     t.ledger.CurrentStep,
		TotalSteps:      t.ledger.TotalSteps,
		CompletedSteps:  append([]int(nil), t.ledger.CompletedSteps...),
		FailedSteps:     append([]int(nil), t.ledger.FailedSteps...),
		ResumeAvailable: t.ledger.ResumeAvailable,
		ResumeStep:      t.ResumeFrom(),
	}
}

func (t *Tracker) persist() error {
	t.ledger.LastUpdatedAt = t.clock.Now()
	data, err := json.MarshalIndent(t.ledger, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}
	if err := t.fs.AtomicWrite(t.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}

// Load reads a ledger file without taking ownership of it. The uninstaller
// uses this to inspect an installation's history; unlike NewTracker it
// reports corruption instead of rebuilding.
func Load(fs fsops.FS, envRoot string) (*Ledger, error) {
	path := filepath.Join(envRoot, LedgerFileName)
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger file: %w", err)
	}
	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse ledger file: %w", err)
	}
	return &l, nil
}

func removeInt(s []int, v int) []int {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func removeAtOrAbove(s []int, n int) []int {
	out := s[:0]
	for _, x := range s {
		if x < n {
			out = append(out, x)
		}
	}
	return out
}
