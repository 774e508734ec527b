package solver

import (
	"context"
	"fmt"

	"github.com/photonlab/fdtdbench/internal/config"
	"github.com/photonlab/fdtdbench/internal/layout"
	"github.com/photonlab/fdtdbench/internal/material"
	"github.com/photonlab/fdtdbench/internal/result"
)

// Backend is one solver variant. Both implementations share this contract so
// device runs never branch on solver identity outside backend construction.
type Backend interface {
	// Name returns the backend identity used in logs and artifacts.
	Name() string

	// Convention returns the backend's native mode-index convention.
	Convention() ModeConvention

	// BuildSetup turns layout primitives plus configuration into a fully
	// parameterized setup. cladding may be nil when the configuration names
	// no cladding material. Fails with *SetupError.
	BuildSetup(ctx context.Context, prim *layout.Primitives, settings config.Settings,
		dev *config.Device, core, cladding material.Model) (*Setup, error)

	// Run persists the setup into outDir and, when the setup's run flag is
	// set, executes it and retrieves the raw result. With the flag unset it
	// returns (nil, nil) after persisting the dry configuration. Fails with
	// *SubmissionError, *ExecutionError, or *RemoteError.
	Run(ctx context.Context, setup *Setup, outDir string) (*result.Raw, error)
}

// Factory constructs a backend from the global settings. Construction is
// where environment and credential probes run, so a broken solver boundary
// fails before any device is touched.
type Factory func(settings config.Settings) (Backend, error)

// Registry maps solver names to backend factories. Backends are constructed
// lazily and cached, one instance per batch.
type Registry struct {
	factories map[config.Solver]Factory
	instances map[config.Solver]Backend
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[config.Solver]Factory),
		instances: make(map[config.Solver]Backend),
	}
}

// Register adds a backend factory under a solver name.
func (r *Registry) Register(name config.Solver, f Factory) {
	if _, dup := r.factories[name]; dup {
		panic(fmt.Sprintf("solver: backend %q registered twice", name))
	}
	r.factories[name] = f
}

// SetBackend injects an already-constructed backend, replacing any factory
// for that name. Tests use it to run the pipeline against fakes.
func (r *Registry) SetBackend(name config.Solver, b Backend) {
	r.instances[name] = b
}

// Backend returns the backend for a solver name, constructing it on first
// use.
func (r *Registry) Backend(name config.Solver, settings config.Settings) (Backend, error) {
	if b, ok := r.instances[name]; ok {
		return b, nil
	}
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("no backend registered for solver %q", name)
	}
	b, err := factory(settings)
	if err != nil {
		return nil, err
	}
	r.instances[name] = b
	return b, nil
}
