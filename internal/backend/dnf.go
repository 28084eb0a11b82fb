package backend

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pmgmt/agent/internal/logging"
)

var dnfLog = logging.L("dnf")

// checkUpdateAvailable is the dnf/yum exit code meaning updates are pending.
const checkUpdateAvailable = 100

// DnfBackend queries DNF on Fedora-family systems via "check-update", a
// read-only query. Falls back to yum when dnf is not installed.
type DnfBackend struct {
	runner Runner
}

func NewDnfBackend(runner Runner) *DnfBackend {
	return &DnfBackend{runner: runner}
}

func (d *DnfBackend) Name() string {
	return "dnf"
}

func (d *DnfBackend) IsSupported() bool {
	_, err := d.tool()
	return err == nil
}

func (d *DnfBackend) tool() (string, error) {
	if _, err := d.runner.LookPath("dnf"); err == nil {
		return "dnf", nil
	}
	if _, err := d.runner.LookPath("yum"); err == nil {
		return "yum", nil
	}
	return "", fmt.Errorf("neither dnf nor yum found")
}

func (d *DnfBackend) ListUpdates(ctx context.Context) ([]RawUpdate, error) {
	mgr, err := d.tool()
	if err != nil {
		return nil, &ExecError{Tool: d.Name(), Err: err}
	}

	result, err := d.runner.Run(ctx, mgr, "check-update", "-q")
	if err != nil {
		return nil, &ExecError{
			Tool:    mgr,
			Timeout: errors.Is(err, context.DeadlineExceeded),
			Err:     err,
		}
	}

	// check-update exits 0 when the host is fully patched and 100 when
	// updates are pending; anything else is a real failure.
	switch result.ExitCode {
	case 0, checkUpdateAvailable:
	default:
		return nil, &ExecError{
			Tool: mgr,
			Err:  fmt.Errorf("exit code %d: %s", result.ExitCode, firstLine(result.Stderr)),
		}
	}

	updates, skipped := parseCheckUpdate(result.Stdout)
	if skipped > 0 {
		dnfLog.Warn("skipped unparseable check-update lines", "count", skipped)
	}
	if result.ExitCode == checkUpdateAvailable && len(updates) == 0 {
		return nil, &ParseError{
			Tool:   mgr,
			Reason: "check-update reported pending updates but no rows parsed",
		}
	}
	return updates, nil
}

// parseCheckUpdate parses the columnar check-update output:
// "name.arch  version-release  repo". check-update does not report the
// installed version, so Current is always empty. Metadata chatter and
// wrapped rows are skipped, never fatal.
func parseCheckUpdate(output []byte) ([]RawUpdate, int) {
	var (
		updates []RawUpdate
		skipped int
	)

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		raw := scanner.Text()
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		// "Obsoleting Packages" opens a trailer section listing replaced
		// packages, not pending updates.
		if strings.HasPrefix(line, "Obsoleting") {
			break
		}
		if strings.HasPrefix(line, "Last metadata") || strings.HasPrefix(line, "Security:") {
			continue
		}
		// Continuation of a row wrapped by a long package name.
		if strings.HasPrefix(raw, " ") || strings.HasPrefix(raw, "\t") {
			dnfLog.Debug("skipping wrapped check-update line", "line", line)
			skipped++
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 3 {
			dnfLog.Debug("skipping check-update line", "line", line)
			skipped++
			continue
		}

		name, arch := splitNameArch(fields[0])
		updates = append(updates, RawUpdate{
			Name:      name,
			Candidate: fields[1],
			Arch:      arch,
			Source:    fields[2],
		})
	}

	return updates, skipped
}

// splitNameArch splits "bash.x86_64" on the last dot. Package names may
// themselves contain dots, so only the final component is the architecture.
func splitNameArch(token string) (string, string) {
	idx := strings.LastIndex(token, ".")
	if idx <= 0 || idx == len(token)-1 {
		return token, ""
	}
	return token[:idx], token[idx+1:]
}
