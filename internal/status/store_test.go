package status

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mhollands/envstack/internal/clock"
	"github.com/mhollands/envstack/internal/config"
	"github.com/mhollands/envstack/internal/fsops"
)

func newTestStore(t *testing.T, path string) *Store {
	t.Helper()
	clk := clock.NewFakeClock(time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))
	s, err := Open(fsops.NewRealFS(), clk, path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func TestOpenCreatesEmptyRecord(t *testing.T) {
	s := newTestStore(t, filepath.Join(t.TempDir(), config.StatusFileName))

	r := s.Record()
	if r.Env.Status != NoInstallation {
		t.Errorf("fresh Env.Status = %q, want no_installation", r.Env.Status)
	}
	if r.Lab.Status != NoInstallation {
		t.Errorf("fresh Lab.Status = %q, want no_installation", r.Lab.Status)
	}

	// No file is written until the first mutation.
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Error("status file written before any mutation")
	}
}

func TestOpenRejectsCorruptRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.StatusFileName)
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	clk := clock.NewFakeClock(time.Now())
	if _, err := Open(fsops.NewRealFS(), clk, path); err == nil {
		t.Error("Open() on corrupt record = nil, want error")
	}
}

func TestSetEnvStatusPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.StatusFileName)
	s := newTestStore(t, path)

	if err := s.SetEnvStatus(Processing, `E:\AIEnv`, "1.0.0", 3); err != nil {
		t.Fatalf("SetEnvStatus() error = %v", err)
	}

	reopened := newTestStore(t, path)
	r := reopened.Record()
	if r.Env.Status != Processing {
		t.Errorf("reopened Env.Status = %q, want processing", r.Env.Status)
	}
	if r.Env.InstallPath != `E:\AIEnv` || r.Env.Version != "1.0.0" || r.Env.LastStepCompleted != 3 {
		t.Errorf("reopened Env = %+v", r.Env)
	}
	if r.Env.LastUpdated.IsZero() {
		t.Error("LastUpdated not stamped")
	}
}

func TestSetEnvStatusPartialUpdate(t *testing.T) {
	s := newTestStore(t, filepath.Join(t.TempDir(), config.StatusFileName))

	s.SetEnvStatus(Processing, `E:\AIEnv`, "1.0.0", 2)
	// Empty/negative arguments leave existing values in place.
	if err := s.SetEnvStatus(Completed, "", "", -1); err != nil {
		t.Fatal(err)
	}

	r := s.Record()
	if r.Env.Status != Completed {
		t.Errorf("Env.Status = %q, want completed", r.Env.Status)
	}
	if r.Env.InstallPath != `E:\AIEnv` || r.Env.Version != "1.0.0" || r.Env.LastStepCompleted != 2 {
		t.Errorf("partial update clobbered fields: %+v", r.Env)
	}
}

func TestSetLabStatus(t *testing.T) {
	s := newTestStore(t, filepath.Join(t.TempDir(), config.StatusFileName))

	if err := s.SetLabStatus(Completed, `E:\AILab`, "abc123"); err != nil {
		t.Fatal(err)
	}
	r := s.Record()
	if r.Lab.Status != Completed || r.Lab.InstallPath != `E:\AILab` || r.Lab.GitRevision != "abc123" {
		t.Errorf("Lab = %+v", r.Lab)
	}
}

func TestResumeInfo(t *testing.T) {
	tests := []struct {
		name string
		env  ProductStatus
		lab  ProductStatus
		want ResumeInfo
	}{
		{
			name: "nothing installed",
			env:  NoInstallation, lab: NoInstallation,
			want: ResumeInfo{},
		},
		{
			name: "env mid-install",
			env:  Processing, lab: NoInstallation,
			want: ResumeInfo{CanResume: true, EnvResume: true},
		},
		{
			name: "lab mid-install",
			env:  Completed, lab: Processing,
			want: ResumeInfo{CanResume: true, LabResume: true},
		},
		{
			name: "env mid-uninstall blocks installs",
			env:  UninstallProcessing, lab: Completed,
			want: ResumeInfo{MustCompleteUninstall: true},
		},
		{
			name: "lab mid-uninstall blocks installs",
			env:  Completed, lab: UninstallProcessing,
			want: ResumeInfo{MustCompleteUninstall: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, filepath.Join(t.TempDir(), config.StatusFileName))
			s.SetEnvStatus(tt.env, "", "", -1)
			s.SetLabStatus(tt.lab, "", "")

			got := s.ResumeInfo()
			got.EnvLastStep = 0
			if got != tt.want {
				t.Errorf("ResumeInfo() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.StatusFileName)
	s := newTestStore(t, path)
	s.SetEnvStatus(Completed, `E:\AIEnv`, "1.0.0", 8)
	s.SetContext(`E:\`, "external", ModeNested)

	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}

	r := newTestStore(t, path).Record()
	if r.Env.Status != NoInstallation || r.Env.InstallPath != "" {
		t.Errorf("Env after Reset = %+v", r.Env)
	}
	if r.Context.Volume != "" {
		t.Errorf("Context after Reset = %+v", r.Context)
	}
}

// chdir changes the working directory for the duration of the test,
// matching the behavior of t.Chdir (which requires Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

func TestLocate(t *testing.T) {
	fs := fsops.NewRealFS()
	home := t.TempDir()

	t.Run("explicit path wins", func(t *testing.T) {
		got := Locate(fs, `D:\custom\status.json`, home)
		if got != `D:\custom\status.json` {
			t.Errorf("Locate() = %q", got)
		}
	})

	t.Run("cwd file beats home", func(t *testing.T) {
		cwd := t.TempDir()
		if err := os.WriteFile(filepath.Join(cwd, config.StatusFileName), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
		chdir(t, cwd)

		got := Locate(fs, "", home)
		want := filepath.Join(cwd, config.StatusFileName)
		if got != want {
			t.Errorf("Locate() = %q, want %q", got, want)
		}
	})

	t.Run("falls back to home", func(t *testing.T) {
		chdir(t, t.TempDir())

		got := Locate(fs, "", home)
		want := filepath.Join(home, config.StatusFileName)
		if got != want {
			t.Errorf("Locate() = %q, want %q", got, want)
		}
	})
}
