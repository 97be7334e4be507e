package pipeline

import (
	"errors"
	"fmt"
	"sync"
)

// Registry-level sentinel errors (spec.md §4.8: stage registration and the
// dependency graph that drives GetOrdered/Validate).
var (
	ErrStageAlreadyRegistered = errors.New("pipeline: stage already registered")
	ErrStageNotFound          = errors.New("pipeline: stage not found")
	ErrDependencyCycle        = errors.New("pipeline: dependency cycle detected")
)

// Registry holds the set of Stage implementations wired for a pipeline run
// and the fixed dependency graph between them (book_index -> asr -> anchors
// -> transcript -> hydrate -> mfa -> merge, per spec.md §4.8). Stage.Run is
// never invoked here; the Registry only answers "what is registered" and
// "in what order must it run" — Orchestrator does the executing.
type Registry struct {
	mu         sync.RWMutex
	byName     map[string]Stage
	registered []string // insertion order, for deterministic List/Names/ties
}

// NewRegistry returns an empty Registry ready for Register calls.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Stage)}
}

// Register adds s under s.Name(). A name collision is almost always a
// wiring bug (two stages built for the same slot) rather than something
// callers should silently overwrite, hence the error rather than a
// last-write-wins map assignment.
func (r *Registry) Register(s Stage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, present := r.byName[name]; present {
		return fmt.Errorf("%w: %s", ErrStageAlreadyRegistered, name)
	}
	r.byName[name] = s
	r.registered = append(r.registered, name)
	return nil
}

// Get looks up a registered stage by name.
func (r *Registry) Get(name string) (Stage, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[name]
	return s, ok
}

// List returns every registered stage in the order it was added.
func (r *Registry) List() []Stage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Stage, len(r.registered))
	for i, name := range r.registered {
		out[i] = r.byName[name]
	}
	return out
}

// Names returns every registered stage's name, in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.registered))
	copy(out, r.registered)
	return out
}

// dependencyGraph snapshots, under the read lock, the adjacency needed for
// a topological walk: for each stage, how many of its declared dependencies
// are unresolved, and the reverse edges (who unblocks once a given stage
// finishes). Building this once up front keeps GetOrdered itself lock-free
// and easy to reason about as plain graph code.
type dependencyGraph struct {
	unresolved map[string]int
	unblocks   map[string][]string
}

func (r *Registry) buildDependencyGraph() (*dependencyGraph, error) {
	g := &dependencyGraph{
		unresolved: make(map[string]int, len(r.registered)),
		unblocks:   make(map[string][]string, len(r.registered)),
	}
	for _, name := range r.registered {
		g.unresolved[name] = 0
	}
	for _, name := range r.registered {
		for _, dep := range r.byName[name].Dependencies() {
			if _, ok := r.byName[dep]; !ok {
				return nil, fmt.Errorf("%w: stage %q depends on %q", ErrStageNotFound, name, dep)
			}
			g.unresolved[name]++
			g.unblocks[dep] = append(g.unblocks[dep], name)
		}
	}
	return g, nil
}

// GetOrdered topologically sorts the registered stages so that every
// stage appears after all of its Dependencies() (Kahn's algorithm: repeatedly
// peel off stages with zero unresolved dependencies). Ties — stages that
// become runnable simultaneously — break by registration order, so a
// registry built by always registering book_index, asr, anchors, ... in that
// sequence reproduces that same sequence when there is no real ordering
// constraint between two stages.
func (r *Registry) GetOrdered() ([]Stage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	graph, err := r.buildDependencyGraph()
	if err != nil {
		return nil, err
	}

	ready := make([]string, 0, len(r.registered))
	for _, name := range r.registered {
		if graph.unresolved[name] == 0 {
			ready = append(ready, name)
		}
	}

	ordered := make([]Stage, 0, len(r.registered))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		ordered = append(ordered, r.byName[name])

		for _, dependent := range graph.unblocks[name] {
			graph.unresolved[dependent]--
			if graph.unresolved[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(ordered) != len(r.registered) {
		return nil, ErrDependencyCycle
	}
	return ordered, nil
}

// Validate confirms every declared dependency resolves to a registered
// stage and that the graph has no cycle, without returning the order
// itself. It is GetOrdered run for its side effect of erroring.
func (r *Registry) Validate() error {
	_, err := r.GetOrdered()
	return err
}

// DependentsOf returns the registered stages that name directly unblocks
// (i.e. every stage listing name in its own Dependencies()).
func (r *Registry) DependentsOf(name string) []Stage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var dependents []Stage
	for _, candidateName := range r.registered {
		for _, dep := range r.byName[candidateName].Dependencies() {
			if dep == name {
				dependents = append(dependents, r.byName[candidateName])
				break
			}
		}
	}
	return dependents
}

// DependenciesOf returns the registered Stage for each name of stage's
// own Dependencies(), skipping any that are not (yet) registered.
func (r *Registry) DependenciesOf(name string) []Stage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stage, ok := r.byName[name]
	if !ok {
		return nil
	}
	var deps []Stage
	for _, depName := range stage.Dependencies() {
		if dep, ok := r.byName[depName]; ok {
			deps = append(deps, dep)
		}
	}
	return deps
}
