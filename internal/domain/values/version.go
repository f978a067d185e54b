package values

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version is a validated semantic version, as required by package release
// identifiers throughout the client.
type Version struct {
	v *semver.Version
}

// NewVersion parses and validates a semver string.
func NewVersion(s string) (Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %v", ErrInvalidVersion, err)
	}
	return Version{v: v}, nil
}

// MustNewVersion parses or panics. For tests and constants only.
func MustNewVersion(s string) Version {
	v, err := NewVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsZero reports whether this Version was never assigned.
func (v Version) IsZero() bool {
	return v.v == nil
}

// String renders the canonical semver text.
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

// Compare gives semver precedence ordering: -1, 0, or 1.
func (v Version) Compare(other Version) int {
	return v.v.Compare(other.v)
}

// Equals reports whether two versions have identical semver precedence.
func (v Version) Equals(other Version) bool {
	return v.v != nil && other.v != nil && v.v.Equal(other.v)
}

// Prerelease reports whether the version carries a prerelease component,
// e.g. "1.0.0-rc.1". Resolution treats prerelease versions as opt-in only:
// they never satisfy a bare requirement unless the requirement itself names
// a prerelease.
func (v Version) Prerelease() bool {
	return v.v.Prerelease() != ""
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := NewVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Version) MarshalJSON() ([]byte, error) {
	return []byte(`"` + v.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Version) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 {
		return fmt.Errorf("%w: invalid version JSON", ErrInvalidVersion)
	}
	parsed, err := NewVersion(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
