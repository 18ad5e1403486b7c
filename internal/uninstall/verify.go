package uninstall

import (
	"fmt"
	"os"
	"strings"

	"github.com/mhollands/envstack/internal/fsops"
)

const pathSep = string(os.PathSeparator)

// Issue is one verification discrepancy.
type Issue struct {
	// Path is the entry that failed the check
	Path string

	// Problem says what is wrong with it
	Problem string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Problem)
}

// Verify re-checks the filesystem against the executed plan: every removed
// entry must be gone and every preserved entry must still exist. Entries
// under a root that was intentionally left in place are exempt from the
// "gone" check.
func Verify(fs fsops.FS, plan *Plan, res *Result) []Issue {
	var issues []Issue

	kept := func(path string) bool {
		for _, root := range res.PreservedRoots {
			if path == root || strings.HasPrefix(path, root+pathSep) {
				return true
			}
		}
		return false
	}

	for _, entry := range plan.ToRemove {
		if kept(entry.Path) {
			continue
		}
		if ok, _ := fs.Exists(entry.Path); ok {
			issues = append(issues, Issue{Path: entry.Path, Problem: "still present after removal"})
		}
	}

	for _, entry := range plan.ToPreserve {
		if ok, _ := fs.Exists(entry.Path); !ok {
			issues = append(issues, Issue{Path: entry.Path, Problem: "preserved entry is missing"})
		}
	}

	return issues
}
