package backend

import (
	"fmt"

	"github.com/pmgmt/agent/internal/distro"
)

// ExecError indicates the native package-manager tool could not be queried:
// missing binary, permission denied, timeout, or an exit code that does not
// mean "up to date". Fatal to the run.
type ExecError struct {
	Tool    string
	Timeout bool
	Err     error
}

func (e *ExecError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s query timed out: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s query failed: %v", e.Tool, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// ParseError indicates the tool output was structurally unparseable and zero
// records could be extracted. Individual malformed lines are skipped with a
// diagnostic instead.
type ParseError struct {
	Tool   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s output unparseable: %s", e.Tool, e.Reason)
}

// UnsupportedDistroError indicates no backend is registered for the detected
// distribution family. Terminal: no update list can be produced without
// knowing how to query the system.
type UnsupportedDistroError struct {
	Family distro.Family
}

func (e *UnsupportedDistroError) Error() string {
	return fmt.Sprintf("no package-manager backend for distribution family %q", e.Family)
}
