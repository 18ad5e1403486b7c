package detect

import (
	"path/filepath"
	"strings"

	"github.com/mhollands/envstack/internal/fsops"
	"github.com/mhollands/envstack/internal/ledger"
)

// Environment signature: any one of these files or directories marks an
// environment root.
var (
	envSignatureFiles = []string{
		"activate_env.bat",
		"install_info.json",
		ledger.LedgerFileName,
	}
	envSignatureDirs = []string{"Miniconda", "VSCode", "Ollama"}
)

// Lab signature markers. The marker alone is not enough; a real workspace
// also has at least one python file under src, which keeps empty placeholder
// directories from matching.
var labSignatureMarkers = []string{".git", "run_lab.bat", "activate_lab.py"}

// VerifyEnv reports whether path looks like an environment root.
func VerifyEnv(fs fsops.FS, path string) bool {
	info, err := fs.Lstat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	for _, f := range envSignatureFiles {
		if ok, _ := fs.Exists(filepath.Join(path, f)); ok {
			return true
		}
	}
	for _, d := range envSignatureDirs {
		if info, err := fs.Lstat(filepath.Join(path, d)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// VerifyLab reports whether path looks like a lab workspace root: a marker
// file, directory or src tree, plus at least one python source under src.
func VerifyLab(fs fsops.FS, path string) bool {
	info, err := fs.Lstat(path)
	if err != nil || !info.IsDir() {
		return false
	}

	hasMarker := false
	for _, m := range labSignatureMarkers {
		if ok, _ := fs.Exists(filepath.Join(path, m)); ok {
			hasMarker = true
			break
		}
	}
	srcDir := filepath.Join(path, "src")
	if !hasMarker {
		if info, err := fs.Lstat(srcDir); err != nil || !info.IsDir() {
			return false
		}
	}

	entries, err := fs.ReadDir(srcDir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".py") {
			return true
		}
	}
	return false
}
