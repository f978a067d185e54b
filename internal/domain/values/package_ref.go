package values

import (
	"fmt"
	"strings"
)

// PackageRef identifies a package by its two-part name: a namespace and a
// name, each a Label, written as "namespace:name".
type PackageRef struct {
	namespace Label
	name      Label
}

// NewPackageRef builds a PackageRef from already-validated labels.
func NewPackageRef(namespace, name Label) PackageRef {
	return PackageRef{namespace: namespace, name: name}
}

// ParsePackageRef parses "namespace:name", splitting on the first colon.
func ParsePackageRef(s string) (PackageRef, error) {
	ns, name, ok := strings.Cut(s, ":")
	if !ok {
		return PackageRef{}, fmt.Errorf("%w: %q is missing the \":\" separator", ErrInvalidPackageRef, s)
	}
	namespace, err := NewLabel(ns)
	if err != nil {
		return PackageRef{}, fmt.Errorf("%w: namespace: %v", ErrInvalidPackageRef, err)
	}
	nameLabel, err := NewLabel(name)
	if err != nil {
		return PackageRef{}, fmt.Errorf("%w: name: %v", ErrInvalidPackageRef, err)
	}
	return PackageRef{namespace: namespace, name: nameLabel}, nil
}

// MustParsePackageRef parses or panics. For tests and constants only.
func MustParsePackageRef(s string) PackageRef {
	ref, err := ParsePackageRef(s)
	if err != nil {
		panic(err)
	}
	return ref
}

// Namespace returns the package's namespace label.
func (r PackageRef) Namespace() Label {
	return r.namespace
}

// Name returns the package's name label.
func (r PackageRef) Name() Label {
	return r.name
}

// String renders "namespace:name".
func (r PackageRef) String() string {
	return r.namespace.String() + ":" + r.name.String()
}

// Equals reports whether two refs name the same package.
func (r PackageRef) Equals(other PackageRef) bool {
	return r.namespace.Equals(other.namespace) && r.name.Equals(other.name)
}

// Compare gives a total order: namespace first, then name. Used to keep
// LockFile package entries in deterministic sorted order on write.
func (r PackageRef) Compare(other PackageRef) int {
	if c := r.namespace.Compare(other.namespace); c != 0 {
		return c
	}
	return r.name.Compare(other.name)
}

// MarshalText implements encoding.TextMarshaler.
func (r PackageRef) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *PackageRef) UnmarshalText(text []byte) error {
	ref, err := ParsePackageRef(string(text))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r PackageRef) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *PackageRef) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 {
		return fmt.Errorf("%w: invalid package reference JSON", ErrInvalidPackageRef)
	}
	ref, err := ParsePackageRef(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*r = ref
	return nil
}
