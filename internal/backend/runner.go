package backend

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/pmgmt/agent/internal/logging"
)

var runnerLog = logging.L("runner")

// RunResult captures the output of a completed command. A non-zero exit code
// is not an error at this layer; backends own exit-code interpretation
// (dnf uses 100 to signal pending updates).
type RunResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes external package-manager commands. Backends receive a
// Runner rather than calling exec directly so parsers can be tested against
// canned output.
type Runner interface {
	LookPath(name string) (string, error)
	Run(ctx context.Context, name string, args ...string) (RunResult, error)
}

type execRunner struct{}

// NewRunner returns a Runner backed by os/exec.
func NewRunner() Runner {
	return execRunner{}
}

func (execRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run starts the command in its own process group and waits for it or for
// context cancellation, whichever comes first. On cancellation the whole
// process group is killed so a stalled tool cannot leave orphans behind, and
// the context error is returned.
func (execRunner) Run(ctx context.Context, name string, args ...string) (RunResult, error) {
	cmd := exec.Command(name, args...)

	// Parsers depend on the tools' canonical English output; the host locale
	// must not leak into the subprocess.
	cmd.Env = append(os.Environ(), "LC_ALL=C", "LANG=C")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return RunResult{}, err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		if err := killProcessGroup(cmd); err != nil {
			runnerLog.Warn("failed to kill process group", "tool", name, logging.KeyError, err)
		}
		<-done
		return RunResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ExitCode: -1}, ctx.Err()
	case err := <-done:
		result := RunResult{
			Stdout:   stdout.Bytes(),
			Stderr:   stderr.Bytes(),
			ExitCode: cmd.ProcessState.ExitCode(),
		}
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			return result, err
		}
		return result, nil
	}
}
