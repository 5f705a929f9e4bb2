package issue

import (
	"errors"
	"fmt"
)

// ErrInvalidSeverity indicates a severity value outside the closed enum.
var ErrInvalidSeverity = errors.New("severity must be critical, major, or minor")

// Severity classifies issue impact. The enum is closed: no other value is
// ever persisted.
type Severity string

// Severity values.
const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// ParseSeverity validates and converts a raw string to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityCritical, SeverityMajor, SeverityMinor:
		return Severity(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSeverity, s)
	}
}

// String returns the severity as a string.
func (s Severity) String() string {
	return string(s)
}

// Valid reports whether the severity is one of the closed enum values.
func (s Severity) Valid() bool {
	_, err := ParseSeverity(string(s))
	return err == nil
}
