package detect

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mhollands/envstack/internal/config"
	"github.com/mhollands/envstack/internal/drives"
	"github.com/mhollands/envstack/internal/fsops"
	"github.com/mhollands/envstack/internal/ledger"
	"github.com/mhollands/envstack/internal/status"
)

// fallbackSubdirs are known non-standard parents an installation may have
// been placed under by older installer builds.
var fallbackSubdirs = []string{"envstack-installer", "Installer", "Downloads"}

// Detector finds stack installations via the status record and volume scans.
type Detector struct {
	fs       fsops.FS
	store    *status.Store
	volumes  drives.Lister
	logger   *log.Logger
	warnings []string
}

// New creates a Detector. The volume lister is injected so tests can run
// against fabricated volumes.
func New(fs fsops.FS, store *status.Store, volumes drives.Lister, logger *log.Logger) *Detector {
	return &Detector{fs: fs, store: store, volumes: volumes, logger: logger}
}

// Warnings returns the anomalies accumulated across detection runs, such as
// recorded paths that no longer exist.
func (d *Detector) Warnings() []string {
	return d.warnings
}

func (d *Detector) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	d.warnings = append(d.warnings, msg)
	d.logger.Print(msg)
}

// DetectTrusted builds a candidate from the status record. Recorded paths
// that have since vanished are stale: they are dropped with a warning rather
// than trusted.
func (d *Detector) DetectTrusted() *Candidate {
	rec := d.store.Record()

	envPath := rec.Env.InstallPath
	if envPath != "" {
		if ok, _ := d.fs.Exists(envPath); !ok {
			d.warnf("recorded environment path %s no longer exists, ignoring", envPath)
			envPath = ""
		}
	}
	labPath := rec.Lab.InstallPath
	if labPath != "" {
		if ok, _ := d.fs.Exists(labPath); !ok {
			d.warnf("recorded lab path %s no longer exists, ignoring", labPath)
			labPath = ""
		}
	}

	if envPath == "" && labPath == "" {
		return nil
	}

	c := &Candidate{
		EnvPath:   envPath,
		LabPath:   labPath,
		Volume:    rec.Context.Volume,
		Type:      Classify(envPath, labPath),
		Method:    MethodStatusRecord,
		IsPrimary: true,
	}
	d.attachLedger(c)
	return c
}

// ScanVolumes checks every mounted volume for installation signatures, one
// candidate per volume at most.
func (d *Detector) ScanVolumes() ([]Candidate, error) {
	volumes, err := d.volumes()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate volumes: %w", err)
	}

	var found []Candidate
	for _, vol := range volumes {
		c := d.scanVolume(vol.Path)
		if c != nil {
			found = append(found, *c)
		}
	}
	return found, nil
}

// scanVolume checks the canonical and fallback locations on one volume.
func (d *Detector) scanVolume(volRoot string) *Candidate {
	parents := []string{volRoot}
	for _, sub := range fallbackSubdirs {
		parents = append(parents, filepath.Join(volRoot, sub))
	}

	var envPath, labPath string
	for _, parent := range parents {
		if labPath == "" {
			p := filepath.Join(parent, config.LabDirName)
			if VerifyLab(d.fs, p) {
				labPath = p
			}
		}
		if envPath == "" {
			// Nested layout first, then sibling.
			nested := filepath.Join(parent, config.LabDirName, config.EnvDirName)
			if VerifyEnv(d.fs, nested) {
				envPath = nested
			} else if p := filepath.Join(parent, config.EnvDirName); VerifyEnv(d.fs, p) {
				envPath = p
			}
		}
	}

	if envPath == "" && labPath == "" {
		return nil
	}

	c := &Candidate{
		EnvPath: envPath,
		LabPath: labPath,
		Volume:  volRoot,
		Type:    Classify(envPath, labPath),
		Method:  MethodVolumeScan,
	}
	d.attachLedger(c)
	return c
}

// DetectAll merges the trusted record with a full volume scan. The trusted
// candidate always comes first and is flagged primary; scanned results on the
// same volume are folded into it, so a product the record never learned about
// (a lab found beside a recorded environment) still ends up on the trusted
// candidate instead of being listed twice or lost.
func (d *Detector) DetectAll() ([]Candidate, error) {
	scanned, err := d.ScanVolumes()
	if err != nil {
		return nil, err
	}

	trusted := d.DetectTrusted()
	if trusted == nil {
		return scanned, nil
	}

	all := []Candidate{*trusted}
	primary := &all[0]
	for _, c := range scanned {
		if !sameInstallation(c, *primary) {
			all = append(all, c)
			continue
		}
		if primary.EnvPath == "" && c.EnvPath != "" {
			primary.EnvPath = c.EnvPath
			d.attachLedger(primary)
		}
		if primary.LabPath == "" && c.LabPath != "" {
			primary.LabPath = c.LabPath
		}
		if primary.Volume == "" {
			primary.Volume = c.Volume
		}
		primary.Type = Classify(primary.EnvPath, primary.LabPath)
	}
	return all, nil
}

// sameInstallation reports whether a scanned candidate describes the same
// installation as the trusted one: same volume, or an overlapping product
// path.
func sameInstallation(scanned, trusted Candidate) bool {
	if samePath(scanned.Volume, trusted.Volume) {
		return true
	}
	return samePath(scanned.EnvPath, trusted.EnvPath) || samePath(scanned.LabPath, trusted.LabPath)
}

// DetectAtPath builds a candidate from a user-supplied path, looking for the
// counterpart product next to or around it.
func (d *Detector) DetectAtPath(path string) (*Candidate, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	c := &Candidate{Method: MethodUserPath}
	switch {
	case VerifyEnv(d.fs, abs):
		c.EnvPath = abs
		// Nested: the parent may be the lab root. Sibling: same parent.
		if parent := filepath.Dir(abs); VerifyLab(d.fs, parent) {
			c.LabPath = parent
		} else if p := filepath.Join(parent, config.LabDirName); VerifyLab(d.fs, p) {
			c.LabPath = p
		}
	case VerifyLab(d.fs, abs):
		c.LabPath = abs
		if p := filepath.Join(abs, config.EnvDirName); VerifyEnv(d.fs, p) {
			c.EnvPath = p
		} else if p := filepath.Join(filepath.Dir(abs), config.EnvDirName); VerifyEnv(d.fs, p) {
			c.EnvPath = p
		}
	default:
		return nil, fmt.Errorf("no installation found at %s", abs)
	}

	c.Type = Classify(c.EnvPath, c.LabPath)
	d.attachLedger(c)
	return c, nil
}

// attachLedger loads the installation's ledger when one is readable. An
// unreadable or missing ledger is fine; the candidate just carries less
// history.
func (d *Detector) attachLedger(c *Candidate) {
	if c.EnvPath == "" {
		return
	}
	l, err := ledger.Load(d.fs, c.EnvPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			d.warnf("ledger at %s unreadable: %v", c.EnvPath, err)
		}
		return
	}
	c.Ledger = l
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return filepath.Clean(a) == filepath.Clean(b)
}
