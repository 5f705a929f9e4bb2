package database

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrDimensionMismatch indicates a vector's length does not match the
// deployment's pinned embedding dimension. This is a configuration fault:
// it means the provider model and the store schema disagree.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Vector wraps a float64 slice for use as an embedding column value.
// It implements sql.Scanner and driver.Valuer, converting between Go and the
// bracketed text form "[1.0,2.0,3.0]". The same literal is a valid pgvector
// value and a valid JSON array, so one codec serves both backends.
// Centralizing the format here keeps the wire contract in one place.
type Vector struct {
	floats []float64
}

// NewVector creates a Vector from a float64 slice. The input is defensively
// copied so later mutations of the source slice have no effect.
func NewVector(floats []float64) Vector {
	cp := make([]float64, len(floats))
	copy(cp, floats)
	return Vector{floats: cp}
}

// Floats returns a defensive copy of the underlying float64 slice.
// Returns nil if the vector was never initialized (e.g. scanned from NULL).
func (v Vector) Floats() []float64 {
	if v.floats == nil {
		return nil
	}
	cp := make([]float64, len(v.floats))
	copy(cp, v.floats)
	return cp
}

// Dimension returns the number of elements in the vector.
func (v Vector) Dimension() int {
	return len(v.floats)
}

// IsZero reports whether the vector holds no data (absent embedding).
func (v Vector) IsZero() bool {
	return v.floats == nil
}

// Validate returns ErrDimensionMismatch unless the vector has exactly
// dimension elements.
func (v Vector) Validate(dimension int) error {
	if len(v.floats) != dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v.floats), dimension)
	}
	return nil
}

// Scan implements sql.Scanner. It parses the bracketed text format from
// either a string or []byte value.
func (v *Vector) Scan(value any) error {
	if value == nil {
		v.floats = nil
		return nil
	}

	var raw string
	switch val := value.(type) {
	case string:
		raw = val
	case []byte:
		raw = string(val)
	default:
		return fmt.Errorf("cannot scan %T into Vector", value)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" {
		v.floats = []float64{}
		return nil
	}

	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")

	parts := strings.Split(raw, ",")
	floats := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("parse element %d: %w", i, err)
		}
		floats[i] = f
	}

	v.floats = floats
	return nil
}

// Value implements driver.Valuer. It serializes the vector to the bracketed
// text format.
func (v Vector) Value() (driver.Value, error) {
	return v.String(), nil
}

// String returns the vector literal "[1.0,2.0,3.0]".
func (v Vector) String() string {
	// ~12 bytes per float (digits + comma) plus brackets.
	var b strings.Builder
	b.Grow(len(v.floats)*12 + 2)
	b.WriteByte('[')
	for i, f := range v.floats {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}
