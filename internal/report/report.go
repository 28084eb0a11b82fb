package report

import (
	"time"

	"github.com/pmgmt/agent/internal/distro"
)

// SchemaVersion identifies the report wire format. Bump on any
// backwards-incompatible field change.
const SchemaVersion = 1

// DistroInfo is the distribution block of the report. Absent data is the
// empty string, never a missing key.
type DistroInfo struct {
	Family     string `json:"family" yaml:"family"`
	RawID      string `json:"raw_id" yaml:"raw_id"`
	RawVersion string `json:"raw_version" yaml:"raw_version"`
}

// UpdateRecord is one pending package update in canonical form. PackageName
// and CandidateVersion are guaranteed non-empty; the normalizer drops
// anything else before a record is created.
type UpdateRecord struct {
	PackageName      string `json:"package_name" yaml:"package_name"`
	CurrentVersion   string `json:"current_version" yaml:"current_version"`
	CandidateVersion string `json:"candidate_version" yaml:"candidate_version"`
	Architecture     string `json:"architecture" yaml:"architecture"`
	Source           string `json:"source" yaml:"source"`
	Security         bool   `json:"security" yaml:"security"`
}

// Report is the run's output unit. Immutable once assembled; the sink owns
// it after handoff.
type Report struct {
	Hostname        string         `json:"hostname" yaml:"hostname"`
	GeneratedAt     string         `json:"generated_at" yaml:"generated_at"`
	Distro          DistroInfo     `json:"distro" yaml:"distro"`
	SchemaVersion   int            `json:"schema_version" yaml:"schema_version"`
	Updates         []UpdateRecord `json:"updates" yaml:"updates"`
	TotalUpdates    int            `json:"total_updates" yaml:"total_updates"`
	SecurityUpdates int            `json:"security_updates" yaml:"security_updates"`
}

// Assemble builds the final report from already-validated inputs. Hostname
// and clock are passed in by the caller so assembly is pure and testable
// with fixed values. The updates sequence keeps backend output order.
func Assemble(d distro.Info, updates []UpdateRecord, hostname string, now time.Time) Report {
	if updates == nil {
		updates = []UpdateRecord{}
	}

	security := 0
	for _, u := range updates {
		if u.Security {
			security++
		}
	}

	return Report{
		Hostname:        hostname,
		GeneratedAt:     now.UTC().Format(time.RFC3339),
		Distro:          DistroInfo{Family: string(d.Family), RawID: d.RawID, RawVersion: d.RawVersion},
		SchemaVersion:   SchemaVersion,
		Updates:         updates,
		TotalUpdates:    len(updates),
		SecurityUpdates: security,
	}
}
