package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mhollands/envstack/internal/clock"
	"github.com/mhollands/envstack/internal/config"
	"github.com/mhollands/envstack/internal/drives"
	"github.com/mhollands/envstack/internal/fsops"
	"github.com/mhollands/envstack/internal/gitx"
	"github.com/mhollands/envstack/internal/installers"
	"github.com/mhollands/envstack/internal/ledger"
	"github.com/mhollands/envstack/internal/status"
	"github.com/mhollands/envstack/internal/uninstall"
)

// fakeComponent is a scripted step installer.
type fakeComponent struct {
	step  int
	err   error
	calls *[]int
}

func (f *fakeComponent) Step() int    { return f.step }
func (f *fakeComponent) Name() string { return fmt.Sprintf("fake%d", f.step) }
func (f *fakeComponent) Install(ctx context.Context) error {
	*f.calls = append(*f.calls, f.step)
	return f.err
}

// fakeRunner never touches real processes.
type fakeRunner struct {
	calls []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, name+" "+strings.Join(args, " "))
	return "", nil
}

type testEngine struct {
	*Engine
	calls  *[]int
	volume drives.Volume
	store  *status.Store
}

// newTestEngine builds an engine with fake components, a fake git repo and
// a fake command runner.
func newTestEngine(t *testing.T, failAt map[int]error) *testEngine {
	t.Helper()

	fs := fsops.NewRealFS()
	clk := clock.NewFakeClock(time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))
	logger := log.New(io.Discard, "", 0)

	store, err := status.Open(fs, clk, filepath.Join(t.TempDir(), config.StatusFileName))
	if err != nil {
		t.Fatal(err)
	}

	vol := drives.Volume{Path: t.TempDir(), Kind: drives.KindExternal, FreeBytes: 200 << 30, TotalBytes: 500 << 30}
	lister := func() ([]drives.Volume, error) { return []drives.Volume{vol}, nil }

	e := New(fs, clk, logger, store, config.Default(), lister)
	e.repo = &gitx.FakeRepo{Files: map[string]string{"src/main.py": "pass"}, Rev: "deadbeef"}
	e.runner = &fakeRunner{}

	calls := &[]int{}
	e.componentsFn = func(req InstallRequest, envRoot string, tr *ledger.Tracker) []installers.Component {
		var comps []installers.Component
		for n := 1; n <= ledger.TotalSteps; n++ {
			comps = append(comps, &fakeComponent{step: n, err: failAt[n], calls: calls})
		}
		return comps
	}

	return &testEngine{Engine: e, calls: calls, volume: vol, store: store}
}

func TestInstallFullRun(t *testing.T) {
	te := newTestEngine(t, nil)

	res, err := te.Install(context.Background(), InstallRequest{Volume: te.volume})
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	if len(res.Completed) != ledger.TotalSteps {
		t.Errorf("Completed = %v, want all 8 steps", res.Completed)
	}
	wantEnv := filepath.Join(te.volume.Path, config.LabDirName, config.EnvDirName)
	if res.EnvRoot != wantEnv {
		t.Errorf("EnvRoot = %q, want nested %q", res.EnvRoot, wantEnv)
	}

	rec := te.store.Record()
	if rec.Env.Status != status.Completed || rec.Env.LastStepCompleted != ledger.TotalSteps {
		t.Errorf("Env record = %+v", rec.Env)
	}
	if rec.Lab.Status != status.Completed || rec.Lab.GitRevision != "deadbeef" {
		t.Errorf("Lab record = %+v", rec.Lab)
	}
	if rec.Context.Mode != status.ModeNested || rec.Context.Volume != te.volume.Path {
		t.Errorf("Context = %+v", rec.Context)
	}

	l, err := ledger.Load(fsops.NewRealFS(), res.EnvRoot)
	if err != nil {
		t.Fatal(err)
	}
	if l.ResumeAvailable || len(l.CompletedSteps) != ledger.TotalSteps {
		t.Errorf("ledger after full run = %+v", l)
	}
}

func TestInstallSiblingMode(t *testing.T) {
	te := newTestEngine(t, nil)

	res, err := te.Install(context.Background(), InstallRequest{Volume: te.volume, Mode: status.ModeSibling})
	if err != nil {
		t.Fatal(err)
	}
	if res.EnvRoot != filepath.Join(te.volume.Path, config.EnvDirName) {
		t.Errorf("EnvRoot = %q, want sibling layout", res.EnvRoot)
	}
	if _, err := os.Stat(filepath.Join(res.LabRoot, ".git")); err != nil {
		t.Errorf("lab not cloned in sibling mode: %v", err)
	}
}

func TestInstallBlockedDuringUninstall(t *testing.T) {
	te := newTestEngine(t, nil)
	te.store.SetEnvStatus(status.UninstallProcessing, "", "", -1)

	_, err := te.Install(context.Background(), InstallRequest{Volume: te.volume})
	if !errors.Is(err, ErrUninstallInProgress) {
		t.Errorf("Install() error = %v, want ErrUninstallInProgress", err)
	}
	if len(*te.calls) != 0 {
		t.Errorf("components ran despite the uninstall gate: %v", *te.calls)
	}
}

func TestInstallStepFailureStopsAndRecordsResume(t *testing.T) {
	te := newTestEngine(t, map[int]error{3: errors.New("download timed out")})

	res, err := te.Install(context.Background(), InstallRequest{Volume: te.volume})
	if err == nil {
		t.Fatal("Install() = nil error, want step failure")
	}
	if res.FailedStep != 3 || res.ResumeStep != 3 {
		t.Errorf("FailedStep/ResumeStep = %d/%d, want 3/3", res.FailedStep, res.ResumeStep)
	}
	for _, n := range *te.calls {
		if n > 3 {
			t.Errorf("step %d ran after step 3 failed", n)
		}
	}

	rec := te.store.Record()
	if rec.Env.Status != status.Processing {
		t.Errorf("Env.Status = %q, want processing (resumable)", rec.Env.Status)
	}

	l, loadErr := ledger.Load(fsops.NewRealFS(), res.EnvRoot)
	if loadErr != nil {
		t.Fatal(loadErr)
	}
	if !l.IsFailed(3) || !l.ResumeAvailable {
		t.Errorf("ledger = %+v, want step 3 failed and resumable", l)
	}
}

func TestInstallResumeSkipsCompletedSteps(t *testing.T) {
	te := newTestEngine(t, map[int]error{3: errors.New("transient")})
	if _, err := te.Install(context.Background(), InstallRequest{Volume: te.volume}); err == nil {
		t.Fatal("first run should fail at step 3")
	}

	// Second run: same ledger on disk, nothing fails, resume from the ledger.
	*te.calls = nil
	te.componentsFn = func(req InstallRequest, envRoot string, tr *ledger.Tracker) []installers.Component {
		var comps []installers.Component
		for n := 1; n <= ledger.TotalSteps; n++ {
			comps = append(comps, &fakeComponent{step: n, calls: te.calls})
		}
		return comps
	}

	res, err := te.Install(context.Background(), InstallRequest{Volume: te.volume})
	if err != nil {
		t.Fatalf("resumed Install() error = %v", err)
	}

	for _, n := range *te.calls {
		if n < 3 {
			t.Errorf("completed step %d re-ran on resume", n)
		}
	}
	if len(res.Completed) != 6 {
		t.Errorf("Completed = %v, want steps 3..8", res.Completed)
	}
	if rec := te.store.Record(); rec.Env.Status != status.Completed {
		t.Errorf("Env.Status = %q, want completed", rec.Env.Status)
	}
}

func TestInstallForcedStartStepResets(t *testing.T) {
	te := newTestEngine(t, nil)
	if _, err := te.Install(context.Background(), InstallRequest{Volume: te.volume}); err != nil {
		t.Fatal(err)
	}

	*te.calls = nil
	res, err := te.Install(context.Background(), InstallRequest{Volume: te.volume, StartStep: 5})
	if err != nil {
		t.Fatal(err)
	}

	want := []int{5, 6, 7, 8}
	if len(*te.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", *te.calls, want)
	}
	for i, n := range want {
		if (*te.calls)[i] != n {
			t.Errorf("calls = %v, want %v", *te.calls, want)
			break
		}
	}

	l, err := ledger.Load(fsops.NewRealFS(), res.EnvRoot)
	if err != nil {
		t.Fatal(err)
	}
	if len(l.CompletedSteps) != ledger.TotalSteps {
		t.Errorf("ledger not fully completed after forced re-run: %v", l.CompletedSteps)
	}
}

func TestInstallRejectsInvalidStartStep(t *testing.T) {
	te := newTestEngine(t, nil)
	_, err := te.Install(context.Background(), InstallRequest{Volume: te.volume, StartStep: 9})
	if !errors.Is(err, ErrInvalidStep) {
		t.Errorf("Install() error = %v, want ErrInvalidStep", err)
	}
}

// installForUninstall runs a full fake install and fleshes out the tree so
// the uninstaller has something real to remove.
func installForUninstall(t *testing.T, te *testEngine) (string, string) {
	t.Helper()
	res, err := te.Install(context.Background(), InstallRequest{Volume: te.volume})
	if err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{"Miniconda", "Projects"} {
		dir := filepath.Join(res.EnvRoot, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "content.bin"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(res.EnvRoot, "install_info.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	return res.EnvRoot, res.LabRoot
}

func TestUninstallDryRunMutatesNothing(t *testing.T) {
	te := newTestEngine(t, nil)
	envRoot, labRoot := installForUninstall(t, te)

	candidates, _, err := te.DetectInstallations("")
	if err != nil {
		t.Fatal(err)
	}

	out, err := te.Uninstall(context.Background(), &candidates[0], uninstall.Options{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if out.Result != nil {
		t.Error("dry run produced an execution result")
	}
	if out.Plan == nil || len(out.Plan.ToRemove) == 0 {
		t.Error("dry run produced no plan")
	}
	if _, err := os.Stat(envRoot); err != nil {
		t.Error("dry run removed the environment")
	}
	if _, err := os.Stat(labRoot); err != nil {
		t.Error("dry run removed the lab")
	}
	if rec := te.store.Record(); rec.Env.Status != status.Completed {
		t.Errorf("dry run changed status to %q", rec.Env.Status)
	}
}

func TestUninstallFullFlow(t *testing.T) {
	te := newTestEngine(t, nil)
	envRoot, labRoot := installForUninstall(t, te)

	candidates, _, err := te.DetectInstallations("")
	if err != nil {
		t.Fatal(err)
	}

	out, err := te.Uninstall(context.Background(), &candidates[0], uninstall.Options{Auto: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Issues) != 0 {
		t.Errorf("verification issues = %v", out.Issues)
	}
	if _, err := os.Stat(envRoot); !os.IsNotExist(err) {
		t.Error("environment survived uninstall")
	}
	if _, err := os.Stat(labRoot); !os.IsNotExist(err) {
		t.Error("lab survived uninstall")
	}

	rec := te.store.Record()
	if rec.Env.Status != status.NoInstallation || rec.Lab.Status != status.NoInstallation {
		t.Errorf("record after uninstall = %+v", rec)
	}
	if te.ResumeInfo().MustCompleteUninstall {
		t.Error("uninstall gate still set after completed uninstall")
	}
}

func TestUninstallFromStep(t *testing.T) {
	te := newTestEngine(t, nil)
	envRoot, _ := installForUninstall(t, te)
	ollama := filepath.Join(envRoot, "Ollama")
	if err := os.MkdirAll(ollama, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := te.UninstallFromStep(context.Background(), envRoot, 7); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(ollama); !os.IsNotExist(err) {
		t.Error("Ollama survived UninstallFromStep(7)")
	}
	if _, err := os.Stat(filepath.Join(envRoot, "Miniconda")); err != nil {
		t.Errorf("Miniconda removed by UninstallFromStep(7): %v", err)
	}

	rec := te.store.Record()
	if rec.Env.Status != status.Processing || rec.Env.LastStepCompleted != 6 {
		t.Errorf("Env record = %+v, want processing at step 6", rec.Env)
	}

	l, err := ledger.Load(fsops.NewRealFS(), envRoot)
	if err != nil {
		t.Fatal(err)
	}
	if l.IsCompleted(7) || l.IsCompleted(8) {
		t.Error("ledger still records steps 7/8 as completed")
	}
}

// failingStatusFS fails atomic writes to one path once armed. Everything
// else passes through.
type failingStatusFS struct {
	fsops.FS
	failPath string
	armed    bool
}

func (f *failingStatusFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	if f.armed && path == f.failPath {
		return errors.New("disk full")
	}
	return f.FS.AtomicWrite(path, data, perm)
}

// armingComponent trips the filesystem failure and then fails its own step,
// simulating a status file that becomes unwritable mid-install.
type armingComponent struct {
	step int
	fs   *failingStatusFS
}

func (a *armingComponent) Step() int    { return a.step }
func (a *armingComponent) Name() string { return fmt.Sprintf("arming%d", a.step) }
func (a *armingComponent) Install(ctx context.Context) error {
	a.fs.armed = true
	return errors.New("download timed out")
}

func TestInstallFailureStillDurableWhenStatusWriteFails(t *testing.T) {
	statusPath := filepath.Join(t.TempDir(), config.StatusFileName)
	ffs := &failingStatusFS{FS: fsops.NewRealFS(), failPath: statusPath}
	clk := clock.NewFakeClock(time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))

	var logBuf bytes.Buffer
	logger := log.New(&logBuf, "", 0)

	store, err := status.Open(ffs, clk, statusPath)
	if err != nil {
		t.Fatal(err)
	}

	vol := drives.Volume{Path: t.TempDir(), Kind: drives.KindExternal, FreeBytes: 200 << 30}
	e := New(ffs, clk, logger, store, config.Default(), func() ([]drives.Volume, error) {
		return []drives.Volume{vol}, nil
	})
	e.repo = &gitx.FakeRepo{Files: map[string]string{"src/main.py": "pass"}, Rev: "deadbeef"}
	e.runner = &fakeRunner{}

	calls := &[]int{}
	e.componentsFn = func(req InstallRequest, envRoot string, tr *ledger.Tracker) []installers.Component {
		var comps []installers.Component
		for n := 1; n <= 2; n++ {
			comps = append(comps, &fakeComponent{step: n, calls: calls})
		}
		comps = append(comps, &armingComponent{step: 3, fs: ffs})
		for n := 4; n <= ledger.TotalSteps; n++ {
			comps = append(comps, &fakeComponent{step: n, calls: calls})
		}
		return comps
	}

	res, err := e.Install(context.Background(), InstallRequest{Volume: vol})
	if err == nil || !strings.Contains(err.Error(), "step 3") {
		t.Fatalf("Install() error = %v, want the step failure", err)
	}
	if res.FailedStep != 3 {
		t.Errorf("FailedStep = %d, want 3", res.FailedStep)
	}

	// The ledger lives under the environment root, so the failure fact must
	// have been persisted even though the status write was lost.
	l, loadErr := ledger.Load(fsops.NewRealFS(), res.EnvRoot)
	if loadErr != nil {
		t.Fatal(loadErr)
	}
	if !l.IsFailed(3) {
		t.Error("ledger did not record the failed step")
	}

	if !strings.Contains(logBuf.String(), "failed to update status after step 3 failure") {
		t.Errorf("log = %q, want the dropped status write reported", logBuf.String())
	}
}

func TestStatusReport(t *testing.T) {
	te := newTestEngine(t, nil)
	rep := te.Status()
	if rep.Record.Env.Status != status.NoInstallation {
		t.Errorf("fresh status = %+v", rep.Record.Env)
	}
	if rep.Candidate != nil {
		t.Errorf("Candidate = %+v, want nil before any install", rep.Candidate)
	}

	installForUninstall(t, te)
	rep = te.Status()
	if rep.Candidate == nil || !rep.Candidate.IsPrimary {
		t.Errorf("Candidate = %+v, want trusted candidate after install", rep.Candidate)
	}
}
