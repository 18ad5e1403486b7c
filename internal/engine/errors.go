package engine

import "errors"

// Sentinel errors callers branch on.
var (
	// ErrUninstallInProgress blocks installs while either product is
	// mid-uninstall; partially-removed state is unsafe to build on.
	ErrUninstallInProgress = errors.New("an uninstall is in progress, complete it before installing")

	// ErrNoInstallation means detection found nothing to operate on.
	ErrNoInstallation = errors.New("no installation found")

	// ErrCancelled means the user declined at a confirmation prompt.
	ErrCancelled = errors.New("cancelled")

	// ErrInvalidStep means a step number outside the step table.
	ErrInvalidStep = errors.New("invalid step number")
)
