package services

import (
	"fmt"

	"github.com/wasmpkg/wkg/internal/domain/entities"
	"github.com/wasmpkg/wkg/internal/domain/values"
)

// DependencyGraphResolver topologically orders a set of decoded
// dependencies by their foreign-dependency edges (spec.md §4.7's
// "dependency-graph decoding" step), detecting cycles along the way.
// Adapted from the teacher's DependencyResolver.BuildControlDAG, which
// performs the identical Kahn's-algorithm level-build over compliance
// control dependencies; here the nodes are packages and the edges are
// foreign-dependency references instead.
type DependencyGraphResolver struct{}

// NewDependencyGraphResolver constructs a dependency graph resolver.
func NewDependencyGraphResolver() *DependencyGraphResolver {
	return &DependencyGraphResolver{}
}

// DependencyLevel groups decoded dependencies that share a topological
// depth: every package in a level depends only on packages in earlier
// levels, so levels may be merged in order with no interleaving required
// across them.
type DependencyLevel struct {
	Level        int
	Dependencies []entities.DecodedDependency
}

// CycleError names the two packages whose foreign-dependency edges close
// a cycle, per spec.md §4.7's "failing with a cycle diagnostic naming
// both endpoints".
type CycleError struct {
	From values.PackageRef
	To   values.PackageRef
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular foreign dependency: %s -> %s", e.From, e.To)
}

// BuildDependencyDAG orders decoded dependencies into levels by their
// ForeignDependencies edges. Foreign references to a package outside the
// input set are treated as already-resolved leaves and do not
// participate in level assignment.
func (r *DependencyGraphResolver) BuildDependencyDAG(deps []entities.DecodedDependency) ([]DependencyLevel, error) {
	byName := make(map[string]entities.DecodedDependency, len(deps))
	inDegree := make(map[string]int, len(deps))
	dependents := make(map[string][]string) // foreign package -> dependents naming it

	for _, d := range deps {
		byName[d.Package.String()] = d
	}

	for _, d := range deps {
		degree := 0
		for _, foreign := range d.ForeignDependencies {
			key := foreign.Package.String()
			if _, inSet := byName[key]; !inSet {
				continue // leaf outside this resolution's input set
			}
			degree++
			dependents[key] = append(dependents[key], d.Package.String())
		}
		inDegree[d.Package.String()] = degree
	}

	var levels []DependencyLevel
	processed := make(map[string]bool, len(deps))
	level := 0

	for len(processed) < len(deps) {
		var current []entities.DecodedDependency
		for _, d := range deps {
			key := d.Package.String()
			if processed[key] {
				continue
			}
			if inDegree[key] == 0 {
				current = append(current, d)
			}
		}

		if len(current) == 0 {
			return nil, r.diagnoseCycle(deps, processed)
		}

		levels = append(levels, DependencyLevel{Level: level, Dependencies: current})

		for _, d := range current {
			key := d.Package.String()
			processed[key] = true
			for _, dependent := range dependents[key] {
				inDegree[dependent]--
			}
		}
		level++
	}

	return levels, nil
}

// diagnoseCycle finds one edge between two still-unprocessed packages to
// name as the cycle diagnostic's endpoints.
func (r *DependencyGraphResolver) diagnoseCycle(deps []entities.DecodedDependency, processed map[string]bool) error {
	byName := make(map[string]entities.DecodedDependency, len(deps))
	for _, d := range deps {
		byName[d.Package.String()] = d
	}
	for _, d := range deps {
		if processed[d.Package.String()] {
			continue
		}
		for _, foreign := range d.ForeignDependencies {
			if _, ok := byName[foreign.Package.String()]; !ok {
				continue
			}
			if !processed[foreign.Package.String()] {
				return &CycleError{From: d.Package, To: foreign.Package}
			}
		}
	}
	return fmt.Errorf("circular foreign dependency detected among remaining packages")
}
