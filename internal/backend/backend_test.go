package backend

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pmgmt/agent/internal/distro"
)

// fakeRunner serves canned command results keyed by tool name.
type fakeRunner struct {
	paths    map[string]bool
	results  map[string]RunResult
	errs     map[string]error
	lastArgs []string
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if f.paths[name] {
		return "/usr/bin/" + name, nil
	}
	return "", fmt.Errorf("%s: executable file not found in $PATH", name)
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (RunResult, error) {
	f.lastArgs = append([]string{name}, args...)
	if err, ok := f.errs[name]; ok {
		return RunResult{}, err
	}
	return f.results[name], nil
}

func TestRegistryResolvesSupportedFamilies(t *testing.T) {
	registry := NewRegistry(&fakeRunner{})

	cases := map[distro.Family]string{
		distro.FamilyDebian: "apt",
		distro.FamilyFedora: "dnf",
	}

	for family, wantName := range cases {
		b, err := registry.Resolve(family)
		if err != nil {
			t.Fatalf("Resolve(%s): unexpected error %v", family, err)
		}
		if b.Name() != wantName {
			t.Errorf("Resolve(%s).Name() = %q, want %q", family, b.Name(), wantName)
		}
	}
}

func TestRegistryResolveUnknownFamilyFails(t *testing.T) {
	registry := NewRegistry(&fakeRunner{})

	_, err := registry.Resolve(distro.FamilyUnknown)
	if err == nil {
		t.Fatal("expected error for unknown family")
	}

	var unsupported *UnsupportedDistroError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected *UnsupportedDistroError, got %T", err)
	}
	if unsupported.Family != distro.FamilyUnknown {
		t.Errorf("expected family %q in error, got %q", distro.FamilyUnknown, unsupported.Family)
	}
}

func TestRegistryRegisterExtends(t *testing.T) {
	registry := NewRegistry(&fakeRunner{})

	const familyArch = distro.Family("arch")
	registry.Register(familyArch, func(run Runner) Backend { return NewDnfBackend(run) })

	if _, err := registry.Resolve(familyArch); err != nil {
		t.Fatalf("expected registered family to resolve, got %v", err)
	}

	families := registry.Families()
	if len(families) != 3 {
		t.Errorf("expected 3 registered families, got %d", len(families))
	}
}

func TestIsSupportedReflectsLookPath(t *testing.T) {
	runner := &fakeRunner{paths: map[string]bool{"apt": true}}

	if !NewAptBackend(runner).IsSupported() {
		t.Error("expected apt to be supported when on PATH")
	}
	if NewDnfBackend(runner).IsSupported() {
		t.Error("expected dnf to be unsupported when neither dnf nor yum is on PATH")
	}

	runner.paths["yum"] = true
	if !NewDnfBackend(runner).IsSupported() {
		t.Error("expected dnf backend to fall back to yum")
	}
}
