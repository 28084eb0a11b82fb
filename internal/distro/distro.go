package distro

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/pmgmt/agent/internal/logging"
)

var log = logging.L("distro")

// Family is the canonical distribution classification used to select a
// backend.
type Family string

const (
	FamilyDebian  Family = "debian"
	FamilyFedora  Family = "fedora"
	FamilyUnknown Family = "unknown"
)

// Info describes the detected distribution. It is built once per run and
// never mutated.
type Info struct {
	Family     Family
	RawID      string
	RawVersion string
}

// familyByID maps os-release ID (and ID_LIKE) values to canonical families.
var familyByID = map[string]Family{
	"debian":    FamilyDebian,
	"ubuntu":    FamilyDebian,
	"raspbian":  FamilyDebian,
	"linuxmint": FamilyDebian,
	"pop":       FamilyDebian,
	"fedora":    FamilyFedora,
}

const defaultReleaseFile = "/etc/os-release"

// Detector resolves the host distribution from /etc/os-release, falling back
// to gopsutil host information when the file is missing or unreadable.
type Detector struct {
	// ReleaseFile overrides the os-release path; used in tests.
	ReleaseFile string

	// hostInfo overrides the gopsutil fallback; used in tests.
	hostInfo func() (*host.InfoStat, error)
}

// NewDetector creates a Detector for the running host.
func NewDetector() *Detector {
	return &Detector{
		ReleaseFile: defaultReleaseFile,
		hostInfo:    host.Info,
	}
}

// Detect never fails: any problem reading or interpreting host identification
// degrades to FamilyUnknown so the caller can report a precise error instead
// of the run aborting before a backend is even chosen.
func (d *Detector) Detect() Info {
	path := d.ReleaseFile
	if path == "" {
		path = defaultReleaseFile
	}

	f, err := os.Open(path)
	if err != nil {
		log.Warn("release file unavailable, falling back to host info", "path", path, logging.KeyError, err)
		return d.detectFromHostInfo()
	}
	defer f.Close()

	fields := parseReleaseFile(f)
	info := Info{
		Family:     resolveFamily(fields["ID"], fields["ID_LIKE"]),
		RawID:      fields["ID"],
		RawVersion: fields["VERSION_ID"],
	}

	if info.Family == FamilyUnknown {
		log.Warn("unrecognized distribution", "id", info.RawID, "idLike", fields["ID_LIKE"])
	} else {
		log.Info("detected distribution", logging.KeyDistro, string(info.Family), "id", info.RawID, "version", info.RawVersion)
	}

	return info
}

func (d *Detector) detectFromHostInfo() Info {
	hostInfo := d.hostInfo
	if hostInfo == nil {
		hostInfo = host.Info
	}

	hi, err := hostInfo()
	if err != nil {
		log.Warn("host info unavailable", logging.KeyError, err)
		return Info{Family: FamilyUnknown}
	}

	info := Info{
		Family:     resolveFamily(hi.Platform, hi.PlatformFamily),
		RawID:      hi.Platform,
		RawVersion: hi.PlatformVersion,
	}
	if info.Family == FamilyUnknown {
		log.Warn("unrecognized platform", "platform", hi.Platform, "platformFamily", hi.PlatformFamily)
	}
	return info
}

// parseReleaseFile reads KEY=value pairs from an os-release style file.
// Values may be double-quoted; malformed lines are ignored.
func parseReleaseFile(r io.Reader) map[string]string {
	fields := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		fields[strings.TrimSpace(key)] = value
	}
	return fields
}

// resolveFamily maps an identifier to a canonical family. The primary ID
// wins; ID_LIKE entries (space-separated) are consulted only when the ID
// itself is unrecognized, so derivatives like Linux Mint resolve correctly.
func resolveFamily(id, idLike string) Family {
	if family, ok := familyByID[strings.ToLower(strings.TrimSpace(id))]; ok {
		return family
	}
	for _, like := range strings.Fields(strings.ToLower(idLike)) {
		if family, ok := familyByID[like]; ok {
			return family
		}
	}
	return FamilyUnknown
}
