package download

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSumAndVerify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.bin")
	if err := os.WriteFile(path, []byte("installer payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	digest, err := Sum(path)
	if err != nil {
		t.Fatalf("Sum() error = %v", err)
	}
	if len(digest) != 64 {
		t.Errorf("Sum() returned %d hex chars, want 64", len(digest))
	}

	if err := Verify(path, digest); err != nil {
		t.Errorf("Verify() with matching digest = %v, want nil", err)
	}

	if err := Verify(path, ""); err != nil {
		t.Errorf("Verify() with empty digest = %v, want nil (skip)", err)
	}

	// Tamper with the file and re-verify against the old digest.
	if err := os.WriteFile(path, []byte("tampered payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Verify(path, digest); err == nil {
		t.Error("Verify() after tampering = nil, want checksum mismatch")
	}
}

func TestSumMissingFile(t *testing.T) {
	if _, err := Sum(filepath.Join(t.TempDir(), "nope.bin")); err == nil {
		t.Error("Sum() on missing file = nil, want error")
	}
}
