package normalize

import (
	"reflect"
	"testing"

	"github.com/pmgmt/agent/internal/backend"
	"github.com/pmgmt/agent/internal/report"
)

func TestRecordAptFields(t *testing.T) {
	record, ok := Record(backend.RawUpdate{
		Name:      "libssl1.1",
		Current:   "1.1.1f-1ubuntu2",
		Candidate: "1.1.1f-1ubuntu2.20",
		Arch:      "amd64",
		Source:    "security",
	})
	if !ok {
		t.Fatal("expected record to be accepted")
	}

	want := report.UpdateRecord{
		PackageName:      "libssl1.1",
		CurrentVersion:   "1.1.1f-1ubuntu2",
		CandidateVersion: "1.1.1f-1ubuntu2.20",
		Architecture:     "amd64",
		Source:           "security",
		Security:         true,
	}
	if record != want {
		t.Errorf("record mismatch:\ngot  %+v\nwant %+v", record, want)
	}
}

func TestRecordDnfFields(t *testing.T) {
	record, ok := Record(backend.RawUpdate{
		Name:      "bash",
		Candidate: "5.1.8-6.fc36",
		Arch:      "x86_64",
		Source:    "updates",
	})
	if !ok {
		t.Fatal("expected record to be accepted")
	}

	if record.PackageName != "bash" {
		t.Errorf("package name = %q, want %q", record.PackageName, "bash")
	}
	if record.CurrentVersion != "" {
		t.Errorf("current version = %q, want empty (check-update does not report it)", record.CurrentVersion)
	}
	if record.CandidateVersion != "5.1.8-6.fc36" {
		t.Errorf("candidate version = %q, want %q", record.CandidateVersion, "5.1.8-6.fc36")
	}
	if record.Architecture != "x86_64" {
		t.Errorf("architecture = %q, want %q", record.Architecture, "x86_64")
	}
	if record.Source != "updates" {
		t.Errorf("source = %q, want %q", record.Source, "updates")
	}
	if record.Security {
		t.Error("plain updates channel must not be flagged as security")
	}
}

func TestRecordTrimsWhitespace(t *testing.T) {
	record, ok := Record(backend.RawUpdate{
		Name:      "  vim  ",
		Current:   " 2:8.2.0716-3 ",
		Candidate: " 2:8.2.3995-1 ",
		Arch:      " amd64 ",
		Source:    " bookworm-updates ",
	})
	if !ok {
		t.Fatal("expected record to be accepted")
	}
	if record.PackageName != "vim" || record.CandidateVersion != "2:8.2.3995-1" || record.Architecture != "amd64" {
		t.Errorf("fields not trimmed: %+v", record)
	}
}

func TestRecordRejectsMissingRequiredFields(t *testing.T) {
	cases := []backend.RawUpdate{
		{Name: "", Candidate: "1.0"},
		{Name: "   ", Candidate: "1.0"},
		{Name: "pkg", Candidate: ""},
		{Name: "pkg", Candidate: "   "},
	}
	for _, raw := range cases {
		if _, ok := Record(raw); ok {
			t.Errorf("expected %+v to be rejected", raw)
		}
	}

	// Only name and candidate are required; everything else may be empty.
	if _, ok := Record(backend.RawUpdate{Name: "pkg", Candidate: "1.0"}); !ok {
		t.Error("expected record with only required fields to be accepted")
	}
}

func TestRecordsDropsInvalidAndKeepsOrder(t *testing.T) {
	raws := []backend.RawUpdate{
		{Name: "zlib", Candidate: "1.3-1"},
		{Name: "", Candidate: "9.9"},
		{Name: "acl", Candidate: "2.3.1-3"},
	}

	records := Records(raws)

	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.PackageName
	}
	if !reflect.DeepEqual(names, []string{"zlib", "acl"}) {
		t.Errorf("expected order-preserving drop, got %v", names)
	}
}

func TestIsSecuritySource(t *testing.T) {
	cases := map[string]bool{
		"focal-security":         true,
		"updates-security":       true,
		"Security":               true,
		"focal-updates,security": true,
		"updates":                false,
		"":                       false,
	}
	for source, want := range cases {
		if got := isSecuritySource(source); got != want {
			t.Errorf("isSecuritySource(%q) = %v, want %v", source, got, want)
		}
	}
}
