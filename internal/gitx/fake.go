package gitx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FakeRepo is a Repo for tests. Clone materializes Files under dest and
// drops a .git marker so IsRepo reports true.
type FakeRepo struct {
	// Files maps relative paths to contents written by Clone
	Files map[string]string

	// Rev is returned by Revision
	Rev string

	// CloneErr, when set, is returned by Clone
	CloneErr error

	// Cloned records the URLs passed to Clone
	Cloned []string

	// Pulled records the destinations passed to Pull
	Pulled []string
}

func (f *FakeRepo) Clone(ctx context.Context, url, dest string) error {
	if f.CloneErr != nil {
		return f.CloneErr
	}
	f.Cloned = append(f.Cloned, url)
	if err := os.MkdirAll(filepath.Join(dest, ".git"), 0o755); err != nil {
		return err
	}
	for rel, content := range f.Files {
		path := filepath.Join(dest, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (f *FakeRepo) Pull(ctx context.Context, dest string) error {
	f.Pulled = append(f.Pulled, dest)
	return nil
}

func (f *FakeRepo) Revision(dest string) (string, error) {
	if f.Rev == "" {
		return "", fmt.Errorf("no revision configured")
	}
	return f.Rev, nil
}

func (f *FakeRepo) IsRepo(dest string) bool {
	info, err := os.Stat(filepath.Join(dest, ".git"))
	return err == nil && info.IsDir()
}
