// Package values contains the small, immutable value types shared across
// the client: labels, package references, versions, registries, and content
// digests. None of them hold behavior beyond validation, comparison, and
// serialization.
package values

import (
	"fmt"
	"strings"
)

// Label is a Component Model kebab-case label: a non-empty, dash-separated
// token whose words each start with a lowercase ASCII letter and contain
// only lowercase ASCII letters and digits.
type Label struct {
	value string
}

// NewLabel validates and constructs a Label.
func NewLabel(s string) (Label, error) {
	if s == "" {
		return Label{}, fmt.Errorf("%w: labels may not be empty", ErrInvalidLabel)
	}
	for _, word := range strings.Split(s, "-") {
		if word == "" {
			return Label{}, fmt.Errorf("%w: dash-separated words may not be empty", ErrInvalidLabel)
		}
		first := word[0]
		if first < 'a' || first > 'z' {
			return Label{}, fmt.Errorf("%w: word %q must begin with an ASCII lowercase letter", ErrInvalidLabel, word)
		}
		for i := 1; i < len(word); i++ {
			c := word[i]
			isLower := c >= 'a' && c <= 'z'
			isDigit := c >= '0' && c <= '9'
			if !isLower && !isDigit {
				return Label{}, fmt.Errorf("%w: word %q may contain only lowercase alphanumeric ASCII characters", ErrInvalidLabel, word)
			}
		}
	}
	return Label{value: s}, nil
}

// MustNewLabel constructs a Label or panics. For tests and constants only.
func MustNewLabel(s string) Label {
	l, err := NewLabel(s)
	if err != nil {
		panic(err)
	}
	return l
}

// String returns the label text.
func (l Label) String() string {
	return l.value
}

// IsZero reports whether this is the zero value.
func (l Label) IsZero() bool {
	return l.value == ""
}

// Equals reports whether two labels are the same text.
func (l Label) Equals(other Label) bool {
	return l.value == other.value
}

// Compare gives a total order over labels, used by PackageRef's ordering.
func (l Label) Compare(other Label) int {
	return strings.Compare(l.value, other.value)
}

// MarshalText implements encoding.TextMarshaler so Label serializes as its
// bare string form in TOML lock files and config documents.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Label) UnmarshalText(text []byte) error {
	label, err := NewLabel(string(text))
	if err != nil {
		return err
	}
	*l = label
	return nil
}

// MarshalJSON implements json.Marshaler.
func (l Label) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Label) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 {
		return fmt.Errorf("%w: invalid label JSON", ErrInvalidLabel)
	}
	label, err := NewLabel(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*l = label
	return nil
}
