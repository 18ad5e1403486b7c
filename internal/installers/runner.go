package installers

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// Runner executes external commands. Tests substitute a fake so no real
// installers or package managers run.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	logger *log.Logger
}

// NewExecRunner creates an ExecRunner.
func NewExecRunner(logger *log.Logger) *ExecRunner {
	return &ExecRunner{logger: logger}
}

// Run executes the command and returns its combined output.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	r.logger.Printf("running %s %s", name, strings.Join(args, " "))
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}
