package entities

import "github.com/wasmpkg/wkg/internal/domain/values"

// ForeignDependency is one package a decoded component imports from,
// together with the version requirement it was imported under (the
// component model's own import versioning, not a lock file entry). A
// reference recovered without any version information carries the
// wildcard requirement "*".
type ForeignDependency struct {
	Package     values.PackageRef
	Requirement values.VersionRequirement
}

// DecodedDependency is the result of decoding a fetched or local package
// into its declared foreign dependencies, per spec.md §4.7's
// "dependency-graph decoding" step: a package identity plus the foreign
// packages it references by namespace:name.
type DecodedDependency struct {
	Package             values.PackageRef
	ForeignDependencies []ForeignDependency
}
