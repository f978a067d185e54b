package values

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// VersionRequirement is a validated semver constraint, e.g. "^1.2", ">=1,<2",
// or "*". It reconciles against candidate release versions during
// resolution (application/services.Resolver) and is recorded verbatim (as its
// original text) in LockFile entries so re-locking can tell whether the
// requirement that produced a locked entry has since changed.
type VersionRequirement struct {
	raw string
	c   *semver.Constraints
}

// NewVersionRequirement parses and validates a semver constraint string.
func NewVersionRequirement(s string) (VersionRequirement, error) {
	if s == "" {
		s = "*"
	}
	c, err := semver.NewConstraint(s)
	if err != nil {
		return VersionRequirement{}, fmt.Errorf("%w: %v", ErrInvalidRequirement, err)
	}
	return VersionRequirement{raw: s, c: c}, nil
}

// MustNewVersionRequirement parses or panics. For tests and constants only.
func MustNewVersionRequirement(s string) VersionRequirement {
	r, err := NewVersionRequirement(s)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns the original constraint text, preserved byte-for-byte so
// lock file entries round-trip exactly.
func (r VersionRequirement) String() string {
	return r.raw
}

// IsZero reports whether this requirement was never assigned.
func (r VersionRequirement) IsZero() bool {
	return r.c == nil
}

// Satisfies reports whether a candidate version meets this requirement.
// Prerelease versions only satisfy requirements that themselves reference
// the same prerelease series, matching standard semver constraint
// semantics.
func (r VersionRequirement) Satisfies(v Version) bool {
	return r.c.Check(v.v)
}

// Equals reports whether two requirements have identical source text.
// Lock reuse keys off this (package, registry, requirement-string) triple,
// not semantic equivalence, so that e.g. ">=1.0.0" and "^1" are treated as
// distinct requirements even if they currently admit the same versions.
func (r VersionRequirement) Equals(other VersionRequirement) bool {
	return r.raw == other.raw
}

// MarshalText implements encoding.TextMarshaler.
func (r VersionRequirement) MarshalText() ([]byte, error) {
	return []byte(r.raw), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *VersionRequirement) UnmarshalText(text []byte) error {
	parsed, err := NewVersionRequirement(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
