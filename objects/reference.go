package objects

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Scheme prefixes every Reference.
const Scheme = "blob:"

// DefaultOrigin is used by registries created without WithOrigin.
const DefaultOrigin = "http://localhost"

var (
	// ErrInvalidReference is returned when a string is not a well-formed reference.
	ErrInvalidReference = errors.New("objects: invalid reference")

	// ErrUnknownReference is returned when a reference is not registered,
	// was released, or belongs to a different origin.
	ErrUnknownReference = errors.New("objects: unknown reference")
)

// Reference is an opaque, process-scoped token of the form
// "blob:<origin>/<uuid>" that resolves to an Object through the Registry
// that issued it.
type Reference string

// ParseReference validates s and returns it as a Reference.
func ParseReference(s string) (Reference, error) {
	if _, _, err := splitReference(s); err != nil {
		return "", err
	}
	return Reference(s), nil
}

func (r Reference) String() string {
	return string(r)
}

// Origin returns the origin part of the reference, or "" if it is malformed.
func (r Reference) Origin() string {
	origin, _, err := splitReference(string(r))
	if err != nil {
		return ""
	}
	return origin
}

// ID returns the identifier part of the reference, or "" if it is malformed.
func (r Reference) ID() string {
	_, id, err := splitReference(string(r))
	if err != nil {
		return ""
	}
	return id
}

// URL returns the location a server mounted at the origin serves the object
// from: the reference without its scheme.
func (r Reference) URL() string {
	return strings.TrimPrefix(string(r), Scheme)
}

func newReference(origin, id string) Reference {
	return Reference(Scheme + origin + "/" + id)
}

func splitReference(s string) (origin, id string, err error) {
	rest, ok := strings.CutPrefix(s, Scheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %q: missing %q scheme", ErrInvalidReference, s, Scheme)
	}
	i := strings.LastIndexByte(rest, '/')
	if i <= 0 {
		return "", "", fmt.Errorf("%w: %q: missing origin or id", ErrInvalidReference, s)
	}
	origin, id = rest[:i], rest[i+1:]
	if _, err := uuid.Parse(id); err != nil {
		return "", "", fmt.Errorf("%w: %q: %w", ErrInvalidReference, s, err)
	}
	return origin, id, nil
}
