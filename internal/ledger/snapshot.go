package ledger

import (
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/mhollands/envstack/internal/fsops"
)

// systemCondaDirs are well-known system-wide conda locations, relative to the
// user home or absolute.
var systemCondaDirs = []string{
	"miniconda3",
	"anaconda3",
	"Miniconda3",
	"Anaconda3",
}

var systemCondaRoots = []string{
	"/opt/miniconda3",
	"/opt/anaconda3",
	`C:\ProgramData\Miniconda3`,
	`C:\ProgramData\Anaconda3`,
}

// CaptureSnapshot records the state of the target before installation starts.
// Failures while probing are treated as absence; a snapshot must never block
// an install.
func CaptureSnapshot(fs fsops.FS, envRoot, volume string, now time.Time) Snapshot {
	snap := Snapshot{
		Timestamp:    now,
		TargetVolume: volume,
	}

	if ok, _ := fs.Exists(envRoot); ok {
		snap.RootPreExisted = true
		if entries, err := fs.ReadDir(envRoot); err == nil {
			for _, e := range entries {
				if e.IsDir() {
					snap.PreExistingSubdirs = append(snap.PreExistingSubdirs, e.Name())
				}
			}
		}
	}

	// Portable conda: installed on the target volume rather than system-wide.
	for _, name := range []string{"Miniconda", "Miniconda3", "miniconda3"} {
		p := filepath.Join(volume, name)
		if isCondaDir(fs, p) {
			snap.PortableCondaPaths = append(snap.PortableCondaPaths, p)
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		for _, name := range systemCondaDirs {
			p := filepath.Join(home, name)
			if isCondaDir(fs, p) {
				snap.SystemCondaPaths = append(snap.SystemCondaPaths, p)
			}
		}
	}
	for _, p := range systemCondaRoots {
		if isCondaDir(fs, p) {
			snap.SystemCondaPaths = append(snap.SystemCondaPaths, p)
		}
	}

	if _, err := exec.LookPath("python"); err == nil {
		snap.PythonOnPath = true
	} else if _, err := exec.LookPath("python3"); err == nil {
		snap.PythonOnPath = true
	}

	return snap
}

// isCondaDir reports whether path looks like a conda installation root.
func isCondaDir(fs fsops.FS, path string) bool {
	info, err := fs.Lstat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	for _, marker := range []string{
		filepath.Join("condabin", "conda.bat"),
		filepath.Join("condabin", "conda"),
		filepath.Join("bin", "conda"),
		filepath.Join("Scripts", "conda.exe"),
	} {
		if ok, _ := fs.Exists(filepath.Join(path, marker)); ok {
			return true
		}
	}
	return false
}
