// Package normalize converts backend-specific update fields into the
// canonical record shared across all backends. It is pure: no filesystem, no
// network, no backend knowledge beyond the raw field bag.
package normalize

import (
	"strings"

	"github.com/pmgmt/agent/internal/backend"
	"github.com/pmgmt/agent/internal/logging"
	"github.com/pmgmt/agent/internal/report"
)

var log = logging.L("normalize")

// Record maps one raw update to the canonical schema. Whitespace is trimmed
// from every field. Returns ok=false for candidates missing a package name
// or candidate version; such records are dropped rather than propagated with
// blank fields.
func Record(raw backend.RawUpdate) (report.UpdateRecord, bool) {
	name := strings.TrimSpace(raw.Name)
	candidate := strings.TrimSpace(raw.Candidate)
	if name == "" || candidate == "" {
		return report.UpdateRecord{}, false
	}

	source := strings.TrimSpace(raw.Source)
	return report.UpdateRecord{
		PackageName:      name,
		CurrentVersion:   strings.TrimSpace(raw.Current),
		CandidateVersion: candidate,
		Architecture:     strings.TrimSpace(raw.Arch),
		Source:           source,
		Security:         isSecuritySource(source),
	}, true
}

// Records normalizes a raw sequence, preserving order and logging each
// dropped candidate.
func Records(raws []backend.RawUpdate) []report.UpdateRecord {
	records := make([]report.UpdateRecord, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		record, ok := Record(raw)
		if !ok {
			log.Warn("dropping update with missing fields", "name", raw.Name, "candidate", raw.Candidate)
			dropped++
			continue
		}
		records = append(records, record)
	}
	if dropped > 0 {
		log.Warn("dropped incomplete update records", "count", dropped)
	}
	return records
}

// isSecuritySource classifies an update as security-relevant from its
// repository channel (e.g. "focal-security", "updates-security"). Channel
// inspection keeps the backend to a single read-only command; querying the
// package manager's advisory database would need a second invocation.
func isSecuritySource(source string) bool {
	return strings.Contains(strings.ToLower(source), "security")
}
