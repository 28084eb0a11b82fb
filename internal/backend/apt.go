package backend

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/pmgmt/agent/internal/logging"
)

var aptLog = logging.L("apt")

const aptTool = "apt"

// aptLinePattern matches upgradable rows, e.g.
// "libssl1.1/focal-updates,focal-security 1.1.1f-1ubuntu2.20 amd64 [upgradable from: 1.1.1f-1ubuntu2]"
var aptLinePattern = regexp.MustCompile(`^(\S+)/(\S+)\s+(\S+)\s+(\S+)\s+\[upgradable from:\s+([^\]]+)\]`)

// AptBackend queries APT on Debian-family systems via "apt list --upgradable",
// a read-only listing that never stages or applies packages.
type AptBackend struct {
	runner Runner
}

func NewAptBackend(runner Runner) *AptBackend {
	return &AptBackend{runner: runner}
}

func (a *AptBackend) Name() string {
	return aptTool
}

func (a *AptBackend) IsSupported() bool {
	_, err := a.runner.LookPath(aptTool)
	return err == nil
}

func (a *AptBackend) ListUpdates(ctx context.Context) ([]RawUpdate, error) {
	result, err := a.runner.Run(ctx, aptTool, "list", "--upgradable")
	if err != nil {
		return nil, &ExecError{
			Tool:    aptTool,
			Timeout: errors.Is(err, context.DeadlineExceeded),
			Err:     err,
		}
	}
	if result.ExitCode != 0 {
		return nil, &ExecError{
			Tool: aptTool,
			Err:  fmt.Errorf("exit code %d: %s", result.ExitCode, firstLine(result.Stderr)),
		}
	}
	if len(result.Stderr) > 0 {
		aptLog.Debug("apt stderr", "output", firstLine(result.Stderr))
	}

	updates, skipped, err := parseAptUpgradable(result.Stdout)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		aptLog.Warn("skipped unparseable apt lines", "count", skipped)
	}
	return updates, nil
}

// parseAptUpgradable parses "apt list --upgradable" output. One record per
// package row; rows not matching the expected pattern are skipped and
// counted, never fatal. Only a missing "Listing..." header with no parseable
// rows at all is treated as structurally broken output.
func parseAptUpgradable(output []byte) ([]RawUpdate, int, error) {
	var (
		updates   []RawUpdate
		skipped   int
		sawHeader bool
	)

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "Listing") {
			sawHeader = true
			continue
		}

		matches := aptLinePattern.FindStringSubmatch(line)
		if matches == nil {
			// Locale or formatting noise (translated warnings, wrapped
			// rows); skip with a diagnostic.
			aptLog.Debug("skipping apt line", "line", line)
			skipped++
			continue
		}

		updates = append(updates, RawUpdate{
			Name:      matches[1],
			Current:   matches[5],
			Candidate: matches[3],
			Arch:      matches[4],
			Source:    matches[2],
		})
	}

	if !sawHeader && len(updates) == 0 {
		return nil, skipped, &ParseError{Tool: aptTool, Reason: "missing Listing header"}
	}
	return updates, skipped, nil
}

func firstLine(output []byte) string {
	line, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	return line
}
