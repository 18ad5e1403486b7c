package installers

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"runtime"

	"github.com/mhollands/envstack/internal/config"
	"github.com/mhollands/envstack/internal/download"
	"github.com/mhollands/envstack/internal/fsops"
)

// Ollama installs the local LLM engine and pulls the configured models.
type Ollama struct {
	FS       fsops.FS
	Fetcher  *download.Fetcher
	Runner   Runner
	Logger   *log.Logger
	EnvRoot  string
	Download config.Download
	Models   []string
	Reporter Reporter
}

func (o *Ollama) Step() int    { return 7 }
func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Install(ctx context.Context) error {
	rep := reporterOrNop(o.Reporter)
	target := filepath.Join(o.EnvRoot, "Ollama")
	binary := filepath.Join(target, ollamaBinary())

	if ok, _ := o.FS.Exists(binary); !ok {
		archive := filepath.Join(o.EnvRoot, "downloads", archiveName(o.Download.URL))
		if err := o.Fetcher.FetchVerified(ctx, o.Download.URL, archive, o.Download.Checksum); err != nil {
			return fmt.Errorf("failed to download ollama: %w", err)
		}
		if err := download.Extract(archive, target); err != nil {
			return fmt.Errorf("failed to extract ollama: %w", err)
		}
	}
	rep.CompleteComponent(7, "ollama_install")

	// Model pulls are large and flaky; pull what we can and only fail the
	// step when every pull failed.
	pulled := 0
	for _, model := range o.Models {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := o.Runner.Run(ctx, binary, "pull", model); err != nil {
			o.Logger.Printf("failed to pull model %s: %v", model, err)
			continue
		}
		pulled++
	}
	if len(o.Models) > 0 && pulled == 0 {
		return fmt.Errorf("failed to pull any of the %d configured models", len(o.Models))
	}
	rep.CompleteComponent(7, "ollama_models")

	return nil
}

func ollamaBinary() string {
	if runtime.GOOS == "windows" {
		return "ollama.exe"
	}
	return "ollama"
}
