package entities

import (
	"fmt"
	"sort"

	"github.com/wasmpkg/wkg/internal/domain/values"
)

// LockFileVersion is the only lock file format this client understands.
// Loading a lock file with any other version is an error, not a silent
// upgrade.
const LockFileVersion = 1

// LockedPackageVersion pins one (requirement, resolved version, digest)
// triple for a locked package. A package can carry more than one locked
// version when two dependents request it under different requirement
// strings (entries are keyed on the requirement text), mirroring the original
// wasm-pkg-core lock file's per-requirement entries.
type LockedPackageVersion struct {
	Requirement values.VersionRequirement `toml:"requirement"`
	Version     values.Version            `toml:"version"`
	Digest      values.ContentDigest      `toml:"digest"`
}

// LockedPackage is one package entry in a LockFile: the package it names,
// the registry it was resolved against (nil means the configured default
// at resolve time), and every requirement/version/digest triple locked
// for it.
type LockedPackage struct {
	Name     values.PackageRef      `toml:"name"`
	Registry *string                `toml:"registry,omitempty"`
	Versions []LockedPackageVersion `toml:"versions"`
}

// FindVersion returns the locked entry whose requirement has identical
// source text to req, if one exists. Lock reuse is keyed on requirement
// text, not semantic equivalence (see values.VersionRequirement.Equals).
func (p LockedPackage) FindVersion(req values.VersionRequirement) (LockedPackageVersion, bool) {
	for _, v := range p.Versions {
		if v.Requirement.Equals(req) {
			return v, true
		}
	}
	return LockedPackageVersion{}, false
}

// Compare gives LockedPackage entries the same total order LockedPackage
// uses in the original Rust implementation: by name, then by registry
// (nil sorts before any name), so that repeated writes of an unchanged
// lock file are byte-for-byte stable.
func (p LockedPackage) Compare(other LockedPackage) int {
	if c := p.Name.Compare(other.Name); c != 0 {
		return c
	}
	switch {
	case p.Registry == nil && other.Registry == nil:
		return 0
	case p.Registry == nil:
		return -1
	case other.Registry == nil:
		return 1
	default:
		if *p.Registry < *other.Registry {
			return -1
		}
		if *p.Registry > *other.Registry {
			return 1
		}
		return 0
	}
}

// LockFile is the resolved-dependency-set aggregate written to wkg.lock
// (spec.md §4.7). Packages are always kept in sorted order so the
// serialized TOML is deterministic across runs that resolve to the same
// set.
type LockFile struct {
	Version  int             `toml:"version"`
	Packages []LockedPackage `toml:"packages"`
}

// NewLockFile returns an empty, correctly versioned lock file.
func NewLockFile() *LockFile {
	return &LockFile{Version: LockFileVersion}
}

// Validate checks the invariants load-time code relies on: a recognized
// version, and every locked version carrying a digest and a version that
// actually satisfies the requirement it's filed under.
func (lf *LockFile) Validate() error {
	if lf.Version != LockFileVersion {
		return &UnsupportedLockFileVersionError{Got: lf.Version, Want: LockFileVersion}
	}
	for _, pkg := range lf.Packages {
		for _, v := range pkg.Versions {
			if v.Digest.IsZero() {
				return fmt.Errorf("package %s: locked version %s has no digest", pkg.Name, v.Version)
			}
			if !v.Requirement.Satisfies(v.Version) {
				return fmt.Errorf("package %s: locked version %s does not satisfy requirement %s", pkg.Name, v.Version, v.Requirement)
			}
		}
	}
	return nil
}

// Upsert records or replaces the locked version for (name, requirement),
// keeping the package's Versions and the file's Packages sorted.
func (lf *LockFile) Upsert(name values.PackageRef, registry *string, entry LockedPackageVersion) {
	for i := range lf.Packages {
		pkg := &lf.Packages[i]
		if !pkg.Name.Equals(name) || !registryEqual(pkg.Registry, registry) {
			continue
		}
		for j := range pkg.Versions {
			if pkg.Versions[j].Requirement.Equals(entry.Requirement) {
				pkg.Versions[j] = entry
				lf.sortPackages()
				return
			}
		}
		pkg.Versions = append(pkg.Versions, entry)
		sortLockedVersions(pkg.Versions)
		lf.sortPackages()
		return
	}
	lf.Packages = append(lf.Packages, LockedPackage{
		Name:     name,
		Registry: registry,
		Versions: []LockedPackageVersion{entry},
	})
	lf.sortPackages()
}

// Prune removes any locked package with no versions remaining, and any
// locked version entry whose requirement is not present in keep. Used
// after dependency resolution to drop stale entries for requirements that
// no longer appear anywhere in the dependency graph.
func (lf *LockFile) Prune(keep func(values.PackageRef, values.VersionRequirement) bool) {
	packages := lf.Packages[:0]
	for _, pkg := range lf.Packages {
		versions := pkg.Versions[:0]
		for _, v := range pkg.Versions {
			if keep(pkg.Name, v.Requirement) {
				versions = append(versions, v)
			}
		}
		if len(versions) > 0 {
			pkg.Versions = versions
			packages = append(packages, pkg)
		}
	}
	lf.Packages = packages
}

func (lf *LockFile) sortPackages() {
	sort.Slice(lf.Packages, func(i, j int) bool {
		return lf.Packages[i].Compare(lf.Packages[j]) < 0
	})
}

func sortLockedVersions(versions []LockedPackageVersion) {
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Requirement.String() < versions[j].Requirement.String()
	})
}

func registryEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// UnsupportedLockFileVersionError indicates a wkg.lock with a format
// version this client cannot read.
type UnsupportedLockFileVersionError struct {
	Got  int
	Want int
}

func (e *UnsupportedLockFileVersionError) Error() string {
	return fmt.Sprintf("unsupported lock file version %d (expected %d)", e.Got, e.Want)
}
