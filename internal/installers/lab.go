package installers

import (
	"context"
	"fmt"
	"log"

	"github.com/mhollands/envstack/internal/gitx"
)

// Lab installs the lab workspace by cloning its repository. Unlike the
// environment steps it is not ledger-tracked; the clone either exists or it
// does not.
type Lab struct {
	Repo    gitx.Repo
	Logger  *log.Logger
	URL     string
	LabRoot string
}

// Install clones the workspace, or updates an existing checkout in place.
func (l *Lab) Install(ctx context.Context) error {
	if l.Repo.IsRepo(l.LabRoot) {
		l.Logger.Printf("lab checkout exists at %s, pulling", l.LabRoot)
		if err := l.Repo.Pull(ctx, l.LabRoot); err != nil {
			return fmt.Errorf("failed to update lab workspace: %w", err)
		}
		return nil
	}

	if err := l.Repo.Clone(ctx, l.URL, l.LabRoot); err != nil {
		return fmt.Errorf("failed to clone lab workspace: %w", err)
	}
	return nil
}

// Revision returns the checked-out commit, empty when unreadable.
func (l *Lab) Revision() string {
	rev, err := l.Repo.Revision(l.LabRoot)
	if err != nil {
		return ""
	}
	return rev
}
