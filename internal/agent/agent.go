// Package agent wires the scan pipeline: detect the distribution, resolve a
// backend, query it, normalize the results, assemble the report, and hand it
// to the configured sink. One synchronous pass per run; every stage returns
// an immutable value consumed by the next.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/pmgmt/agent/internal/backend"
	"github.com/pmgmt/agent/internal/config"
	"github.com/pmgmt/agent/internal/distro"
	"github.com/pmgmt/agent/internal/logging"
	"github.com/pmgmt/agent/internal/normalize"
	"github.com/pmgmt/agent/internal/report"
	"github.com/pmgmt/agent/internal/sink"
)

var log = logging.L("agent")

// Detector abstracts distribution detection for testing.
type Detector interface {
	Detect() distro.Info
}

// Agent runs one update-inventory pass. Hostname and clock are injected so
// assembly is reproducible under test; defaults come from New.
type Agent struct {
	Detector Detector
	Registry *backend.Registry
	Sink     sink.Sink
	Hostname func() (string, error)
	Now      func() time.Time

	cfg *config.Config
}

// New creates an Agent with production collaborators.
func New(cfg *config.Config, s sink.Sink) *Agent {
	return &Agent{
		Detector: distro.NewDetector(),
		Registry: backend.NewRegistry(backend.NewRunner()),
		Sink:     s,
		Hostname: cfg.ResolveHostname,
		Now:      time.Now,
		cfg:      cfg,
	}
}

// Run executes the pipeline and returns the delivered report. The report is
// only assembled after the backend query succeeds, so a failed or timed-out
// scan never produces a partial delivery.
func (a *Agent) Run(ctx context.Context) (*report.Report, error) {
	info := a.Detector.Detect()

	b, err := a.Registry.Resolve(info.Family)
	if err != nil {
		return nil, err
	}

	if !b.IsSupported() {
		return nil, &backend.ExecError{
			Tool: b.Name(),
			Err:  fmt.Errorf("package manager not available on this host"),
		}
	}

	timeout := time.Duration(a.cfg.ScanTimeoutSeconds) * time.Second
	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Info("querying pending updates", logging.KeyBackend, b.Name(), "timeout", timeout.String())
	raws, err := b.ListUpdates(scanCtx)
	if err != nil {
		return nil, err
	}

	records := normalize.Records(raws)

	hostname, err := a.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve hostname: %w", err)
	}

	rep := report.Assemble(info, records, hostname, a.Now())
	log.Info("report assembled",
		logging.KeyDistro, rep.Distro.Family,
		"updates", rep.TotalUpdates,
		"securityUpdates", rep.SecurityUpdates,
	)

	if err := a.Sink.Deliver(ctx, rep); err != nil {
		return nil, err
	}
	return &rep, nil
}
