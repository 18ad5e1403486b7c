// Package engine orchestrates installation and uninstallation.
//
// The engine drives the ledger forward one step at a time, invoking the
// component installers between durable transitions, and updates the unified
// status record after every transition so a separately invoked uninstaller
// always sees a current picture.
package engine

import (
	"log"

	"github.com/mhollands/envstack/internal/clock"
	"github.com/mhollands/envstack/internal/config"
	"github.com/mhollands/envstack/internal/detect"
	"github.com/mhollands/envstack/internal/download"
	"github.com/mhollands/envstack/internal/drives"
	"github.com/mhollands/envstack/internal/fsops"
	"github.com/mhollands/envstack/internal/gitx"
	"github.com/mhollands/envstack/internal/installers"
	"github.com/mhollands/envstack/internal/ledger"
	"github.com/mhollands/envstack/internal/status"
)

// Engine wires the stores, detectors and component installers together.
type Engine struct {
	fs      fsops.FS
	clock   clock.Clock
	logger  *log.Logger
	store   *status.Store
	cfg     *config.InstallConfig
	fetcher *download.Fetcher
	runner  installers.Runner
	repo    gitx.Repo
	volumes drives.Lister

	// componentsFn builds the step components for one install run. Tests
	// substitute fakes here.
	componentsFn func(req InstallRequest, envRoot string, tr *ledger.Tracker) []installers.Component
}

// New creates an Engine with the real component installers.
func New(fs fsops.FS, clk clock.Clock, logger *log.Logger, store *status.Store, cfg *config.InstallConfig, volumes drives.Lister) *Engine {
	e := &Engine{
		fs:      fs,
		clock:   clk,
		logger:  logger,
		store:   store,
		cfg:     cfg,
		fetcher: download.NewFetcher(),
		runner:  installers.NewExecRunner(logger),
		repo:    gitx.NewExecRepo(),
		volumes: volumes,
	}
	e.componentsFn = e.buildComponents
	return e
}

// buildComponents assembles the real step components for envRoot.
func (e *Engine) buildComponents(req InstallRequest, envRoot string, tr *ledger.Tracker) []installers.Component {
	return []installers.Component{
		&installers.Prerequisites{
			Volume:       req.Volume,
			RequiredGB:   config.RequiredSpaceGB,
			SkipInternet: req.SkipInternet,
			Reporter:     tr,
		},
		&installers.Directories{FS: e.fs, EnvRoot: envRoot, Reporter: tr},
		&installers.Miniconda{
			FS: e.fs, Fetcher: e.fetcher, Runner: e.runner,
			EnvRoot: envRoot, Download: e.cfg.Downloads["miniconda"], Reporter: tr,
		},
		&installers.CondaEnv{
			FS: e.fs, Runner: e.runner,
			EnvRoot: envRoot, PythonVersion: e.cfg.PythonVersion, Reporter: tr,
		},
		&installers.VSCode{
			FS: e.fs, Fetcher: e.fetcher,
			EnvRoot: envRoot, Download: e.cfg.Downloads["vscode"], Reporter: tr,
		},
		&installers.Packages{
			Runner: e.runner, Logger: e.logger,
			EnvRoot: envRoot, Packages: e.cfg.Packages, Reporter: tr,
		},
		&installers.Ollama{
			FS: e.fs, Fetcher: e.fetcher, Runner: e.runner, Logger: e.logger,
			EnvRoot: envRoot, Download: e.cfg.Downloads["ollama"], Models: e.cfg.Models, Reporter: tr,
		},
		&installers.Finalize{
			FS: e.fs, Clock: e.clock,
			EnvRoot: envRoot, Version: e.cfg.Version, Reporter: tr,
		},
	}
}

// detector returns a fresh detector over the engine's stores.
func (e *Engine) detector() *detect.Detector {
	return detect.New(e.fs, e.store, e.volumes, e.logger)
}

// Status gathers the unified record and the trusted candidate, if any.
func (e *Engine) Status() StatusReport {
	return StatusReport{
		Record:    e.store.Record(),
		Candidate: e.detector().DetectTrusted(),
	}
}

// ResumeInfo exposes the status store's resume gate for the CLI.
func (e *Engine) ResumeInfo() status.ResumeInfo {
	return e.store.ResumeInfo()
}
