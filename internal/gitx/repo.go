// Package gitx wraps the git operations the lab installer needs.
package gitx

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Repo provides an abstraction for git repository operations.
type Repo interface {
	// Clone clones url into dest.
	Clone(ctx context.Context, url, dest string) error

	// Pull updates the checkout at dest from its remote.
	Pull(ctx context.Context, dest string) error

	// Revision returns the current commit hash of the checkout at dest.
	Revision(dest string) (string, error)

	// IsRepo reports whether dest is a git checkout.
	IsRepo(dest string) bool
}

// ExecRepo implements Repo using the git binary.
type ExecRepo struct{}

// NewExecRepo creates a new ExecRepo.
func NewExecRepo() *ExecRepo {
	return &ExecRepo{}
}

// Clone clones url into dest with --depth 1. The lab checkout is a working
// copy, not a development clone, so history is not needed.
func (g *ExecRepo) Clone(ctx context.Context, url, dest string) error {
	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", url, dest)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to clone %s: %w: %s", url, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Pull updates the checkout at dest.
func (g *ExecRepo) Pull(ctx context.Context, dest string) error {
	cmd := exec.CommandContext(ctx, "git", "pull", "--ff-only")
	cmd.Dir = dest
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to update checkout at %s: %w: %s", dest, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Revision returns the current HEAD commit hash.
func (g *ExecRepo) Revision(dest string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = dest
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to read revision at %s: %w", dest, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// IsRepo reports whether dest contains a .git directory or file.
func (g *ExecRepo) IsRepo(dest string) bool {
	info, err := os.Stat(filepath.Join(dest, ".git"))
	if err != nil {
		return false
	}
	return info.IsDir() || info.Mode().IsRegular()
}
