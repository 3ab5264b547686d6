package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the apply engine. Callers match them with errors.Is.
var (
	// ErrElevationRequired is returned when a machine-scope operation is
	// requested by a process that does not hold elevated privileges.
	ErrElevationRequired = errors.New("elevation required for machine-wide changes")

	// ErrMachineScopeUnsupported is returned on platforms that have no
	// machine-wide persistence target.
	ErrMachineScopeUnsupported = errors.New("machine scope is not supported on this platform")

	// ErrCLINotFound indicates the gcloud binary could not be located.
	ErrCLINotFound = errors.New("gcloud CLI not found")

	// ErrCLITimeout indicates a gcloud invocation exceeded its deadline.
	ErrCLITimeout = errors.New("gcloud invocation timed out")

	// ErrProjectNotFound indicates a project reference did not resolve.
	ErrProjectNotFound = errors.New("project not found")

	// ErrProfileNotFound indicates a named profile is absent from the store.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrApplyInProgress indicates another apply holds the context lock.
	ErrApplyInProgress = errors.New("another apply operation is in progress")

	// ErrApplyCanceled indicates the apply was canceled before persistence.
	ErrApplyCanceled = errors.New("apply canceled")
)

// CLIError captures a gcloud invocation that exited non-zero or produced
// unparseable output. Stderr is kept verbatim for diagnostics.
type CLIError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CLIError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("gcloud exited with code %d: %s", e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("gcloud exited with code %d", e.ExitCode)
}

// PersistenceError wraps a failure to write the durable environment store
// for a given scope. Persistence for one scope is all-or-nothing, so a
// PersistenceError means no partial write happened.
type PersistenceError struct {
	Scope Scope
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting %s-scope environment: %v", e.Scope, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
