package status

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mhollands/envstack/internal/clock"
	"github.com/mhollands/envstack/internal/config"
	"github.com/mhollands/envstack/internal/fsops"
)

// Locate resolves the status file path. Discovery order: an explicit path
// wins; then an existing file in the current working directory; then an
// existing file in the installer home; finally the installer home location is
// returned for a file to be created at. The CWD lookup lets the uninstaller
// find a record written by an installer that ran from the same directory.
func Locate(fs fsops.FS, explicit, home string) string {
	if explicit != "" {
		return explicit
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, config.StatusFileName)
		if ok, _ := fs.Exists(p); ok {
			return p
		}
	}

	return filepath.Join(home, config.StatusFileName)
}

// Store owns the unified status record at one path. Every mutation persists
// synchronously via atomic write.
type Store struct {
	fs     fsops.FS
	clock  clock.Clock
	path   string
	record *Record
}

// Open loads the record at path, creating an empty one when the file does
// not exist. An unreadable record is an error: guessing at install state is
// worse than stopping.
func Open(fs fsops.FS, clk clock.Clock, path string) (*Store, error) {
	s := &Store{fs: fs, clock: clk, path: path}

	data, err := fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.record = emptyRecord()
			return s, nil
		}
		return nil, fmt.Errorf("failed to read status file %s: %w", path, err)
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse status file %s: %w", path, err)
	}
	if r.Env.Status == "" {
		r.Env.Status = NoInstallation
	}
	if r.Lab.Status == "" {
		r.Lab.Status = NoInstallation
	}
	s.record = &r
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Record returns a copy of the current record.
func (s *Store) Record() Record {
	return *s.record
}

// SetEnvStatus updates the environment entry. Empty installPath or version
// and a negative lastStep leave the existing values unchanged.
func (s *Store) SetEnvStatus(st ProductStatus, installPath, version string, lastStep int) error {
	s.record.Env.Status = st
	if installPath != "" {
		s.record.Env.InstallPath = installPath
	}
	if version != "" {
		s.record.Env.Version = version
	}
	if lastStep >= 0 {
		s.record.Env.LastStepCompleted = lastStep
	}
	s.record.Env.LastUpdated = s.clock.Now()
	return s.persist()
}

// SetLabStatus updates the lab entry. Empty installPath or revision leave
// the existing values unchanged.
func (s *Store) SetLabStatus(st ProductStatus, installPath, revision string) error {
	s.record.Lab.Status = st
	if installPath != "" {
		s.record.Lab.InstallPath = installPath
	}
	if revision != "" {
		s.record.Lab.GitRevision = revision
	}
	s.record.Lab.LastUpdated = s.clock.Now()
	return s.persist()
}

// SetContext records where and how the stack is being installed.
func (s *Store) SetContext(volume, volumeKind, mode string) error {
	s.record.Context = InstallContext{Volume: volume, VolumeKind: volumeKind, Mode: mode}
	return s.persist()
}

// ResumeInfo computes what a new run may do. MustCompleteUninstall is a hard
// gate: while either product is mid-uninstall, nothing may be installed on
// top of the partially-removed state.
func (s *Store) ResumeInfo() ResumeInfo {
	info := ResumeInfo{
		EnvResume:   s.record.Env.Status == Processing,
		LabResume:   s.record.Lab.Status == Processing,
		EnvLastStep: s.record.Env.LastStepCompleted,
	}
	info.CanResume = info.EnvResume || info.LabResume
	info.MustCompleteUninstall = s.record.Env.Status == UninstallProcessing ||
		s.record.Lab.Status == UninstallProcessing
	return info
}

// Reset restores the record to its empty state.
func (s *Store) Reset() error {
	s.record = emptyRecord()
	return s.persist()
}

func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status record: %w", err)
	}
	if err := s.fs.AtomicWrite(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write status file: %w", err)
	}
	return nil
}
