// Package installers holds the per-step component installers.
//
// Each component implements one installation step. Components are
// re-entrant: a step that is re-run after a failure or a resume skips work
// that already happened (downloads that completed, directories that exist)
// instead of redoing or breaking it.
package installers

import "context"

// Component installs one step of the stack.
type Component interface {
	// Step is the step number this component implements.
	Step() int

	// Name is the short component name for logs.
	Name() string

	// Install runs the step to completion or returns the failure.
	Install(ctx context.Context) error
}

// Reporter receives sub-unit completion so partial step progress survives a
// crash. The ledger tracker satisfies this.
type Reporter interface {
	CompleteComponent(step int, component string) error
}

// nopReporter is used when no ledger is attached.
type nopReporter struct{}

func (nopReporter) CompleteComponent(int, string) error { return nil }

// reporterOrNop guards against nil reporters so components can report
// unconditionally.
func reporterOrNop(r Reporter) Reporter {
	if r == nil {
		return nopReporter{}
	}
	return r
}
