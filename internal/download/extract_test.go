package download

import (
	"archive/tar"
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/pgzip"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func writeTarGz(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gz := pgzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestExtractZip(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "tool.zip")
	writeZip(t, archive, map[string]string{
		"bin/tool":   "#!/bin/sh",
		"README.md":  "readme",
		"docs/a.txt": "a",
	})

	dest := filepath.Join(dir, "out")
	if err := Extract(archive, dest); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dest, "bin", "tool"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "#!/bin/sh" {
		t.Errorf("extracted bin/tool = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dest, "docs", "a.txt")); err != nil {
		t.Errorf("nested entry missing: %v", err)
	}
}

func TestExtractTarGz(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "tool.tar.gz")
	writeTarGz(t, archive, map[string]string{
		"pkg/lib.py": "print('hi')",
	})

	dest := filepath.Join(dir, "out")
	if err := Extract(archive, dest); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dest, "pkg", "lib.py"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "print('hi')" {
		t.Errorf("extracted pkg/lib.py = %q", got)
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.zip")
	writeZip(t, archive, map[string]string{
		"../escape.txt": "evil",
	})

	if err := Extract(archive, filepath.Join(dir, "out")); err == nil {
		t.Error("Extract() with traversal entry = nil, want error")
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "tool.rar")
	if err := os.WriteFile(archive, []byte("rar"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Extract(archive, dir); err == nil {
		t.Error("Extract() on .rar = nil, want error")
	}
}
