package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pmgmt/agent/internal/report"
)

// StdoutSink writes the report document to a writer, pretty JSON by default
// or YAML when configured. Operational logs go to stderr so the document
// stays machine-readable.
type StdoutSink struct {
	W      io.Writer
	Format string // "json" (default) or "yaml"
}

// NewStdoutSink creates a StdoutSink writing to os.Stdout.
func NewStdoutSink(format string) *StdoutSink {
	return &StdoutSink{W: os.Stdout, Format: format}
}

func (s *StdoutSink) Deliver(_ context.Context, r report.Report) error {
	var (
		data []byte
		err  error
	)

	switch s.Format {
	case "", "json":
		data, err = json.MarshalIndent(r, "", "  ")
	case "yaml":
		data, err = yaml.Marshal(r)
	default:
		return &DeliveryError{Target: "stdout", Err: fmt.Errorf("unknown output format %q", s.Format)}
	}
	if err != nil {
		return &DeliveryError{Target: "stdout", Err: err}
	}

	if _, err := s.W.Write(data); err != nil {
		return &DeliveryError{Target: "stdout", Err: err}
	}
	if _, err := io.WriteString(s.W, "\n"); err != nil {
		return &DeliveryError{Target: "stdout", Err: err}
	}
	return nil
}
