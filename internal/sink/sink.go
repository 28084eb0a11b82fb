// Package sink delivers assembled reports to their destination: standard
// output, a remote collection endpoint, or object storage. Exactly one sink
// runs per invocation; the report is immutable once handed over.
package sink

import (
	"context"
	"fmt"

	"github.com/pmgmt/agent/internal/report"
)

// Sink consumes the assembled report. Transport-level failures are wrapped
// in *DeliveryError and surfaced to the caller, never swallowed.
type Sink interface {
	Deliver(ctx context.Context, r report.Report) error
}

// DeliveryError indicates the report could not be handed to its destination.
type DeliveryError struct {
	Target string
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver report to %s: %v", e.Target, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
