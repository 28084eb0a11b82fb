package backend

import (
	"context"

	"github.com/pmgmt/agent/internal/distro"
)

// RawUpdate carries the backend-specific fields of one pending update before
// normalization. Fields may contain surrounding whitespace or be empty; the
// normalizer owns validation.
type RawUpdate struct {
	Name      string
	Current   string
	Candidate string
	Arch      string
	Source    string
}

// Backend knows how to invoke one package manager's read-only update query
// and parse its output. Implementations are stateless and safe to create
// fresh per run.
type Backend interface {
	// Name identifies the backend in logs and errors (e.g. "apt").
	Name() string

	// IsSupported reports whether the underlying CLI tool is invocable on
	// this host. Cheap; no commands are run.
	IsSupported() bool

	// ListUpdates runs the query command and parses its output. It must
	// never mutate package state. Per-line parse failures are skipped and
	// logged; a *ParseError is returned only when zero records could be
	// extracted from structurally broken output.
	ListUpdates(ctx context.Context) ([]RawUpdate, error)
}

// Registry maps distribution families to backend constructors. New package
// managers are added by implementing Backend and registering an entry; no
// existing code changes.
type Registry struct {
	runner       Runner
	constructors map[distro.Family]func(Runner) Backend
}

// NewRegistry creates a Registry with the built-in backends registered.
func NewRegistry(runner Runner) *Registry {
	r := &Registry{
		runner:       runner,
		constructors: make(map[distro.Family]func(Runner) Backend),
	}
	r.Register(distro.FamilyDebian, func(run Runner) Backend { return NewAptBackend(run) })
	r.Register(distro.FamilyFedora, func(run Runner) Backend { return NewDnfBackend(run) })
	return r
}

// Register adds or replaces the constructor for a family.
func (r *Registry) Register(family distro.Family, ctor func(Runner) Backend) {
	r.constructors[family] = ctor
}

// Resolve returns a fresh backend for the family, or
// *UnsupportedDistroError when none is registered.
func (r *Registry) Resolve(family distro.Family) (Backend, error) {
	ctor, ok := r.constructors[family]
	if !ok {
		return nil, &UnsupportedDistroError{Family: family}
	}
	return ctor(r.runner), nil
}

// Families returns the registered families.
func (r *Registry) Families() []distro.Family {
	families := make([]distro.Family, 0, len(r.constructors))
	for family := range r.constructors {
		families = append(families, family)
	}
	return families
}
