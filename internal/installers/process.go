package installers

import (
	"context"
	"log"
	"path/filepath"
	"runtime"
)

// stackProcessNames are processes belonging to the stack that must not be
// running while their files are deleted.
var stackProcessNames = []string{"ollama", "Code", "python"}

// StackProcessStopper kills running stack processes before an uninstall.
// Implements the uninstall package's ProcessStopper.
type StackProcessStopper struct {
	Runner Runner
	Logger *log.Logger
}

// StopStackProcesses kills each known stack process by name. A process that
// is not running is not an error.
func (s *StackProcessStopper) StopStackProcesses(ctx context.Context) error {
	for _, name := range stackProcessNames {
		var err error
		if runtime.GOOS == "windows" {
			_, err = s.Runner.Run(ctx, "taskkill", "/F", "/IM", name+".exe")
		} else {
			_, err = s.Runner.Run(ctx, "pkill", "-f", name)
		}
		if err != nil {
			// Exit status 1 just means no such process.
			s.Logger.Printf("stop %s: %v", name, err)
		}
	}
	return nil
}

// CondaRemover removes conda environments through the conda binary.
// Implements the uninstall package's CondaEnvRemover.
type CondaRemover struct {
	Runner Runner
}

// RemoveEnv removes envName from the conda install at condaPath.
func (c *CondaRemover) RemoveEnv(ctx context.Context, condaPath, envName string) error {
	exe := condaExeAt(condaPath)
	_, err := c.Runner.Run(ctx, exe, "env", "remove", "--name", envName, "--yes")
	return err
}

// condaExeAt returns the conda executable inside an arbitrary conda
// install root (portable or system-wide).
func condaExeAt(condaPath string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(condaPath, "Scripts", "conda.exe")
	}
	return filepath.Join(condaPath, "bin", "conda")
}
