package objects

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/meigma/assetblob/internal/metrics"
)

// Registry maps references to objects. It is safe for concurrent use.
//
// Registration never fails and never deduplicates: registering the same
// Object twice yields two independent references. Entries live until
// Release is called.
type Registry struct {
	origin  string
	entries *xsync.MapOf[string, *Object]
	logger  *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithOrigin sets the origin embedded in issued references, for example
// "http://localhost:8080". A trailing slash is ignored.
func WithOrigin(origin string) RegistryOption {
	return func(r *Registry) {
		r.origin = strings.TrimSuffix(origin, "/")
	}
}

// WithRegistryLogger sets the logger for debug output.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		origin:  DefaultOrigin,
		entries: xsync.NewMapOf[string, *Object](),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.origin == "" {
		r.origin = DefaultOrigin
	}
	return r
}

func (r *Registry) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// Origin returns the origin embedded in references issued by r.
func (r *Registry) Origin() string {
	return r.origin
}

// Register adds obj and returns a new reference to it.
func (r *Registry) Register(obj *Object) Reference {
	for {
		id := uuid.NewString()
		if _, loaded := r.entries.LoadOrStore(id, obj); loaded {
			continue
		}
		metrics.ObserveRegister()
		ref := newReference(r.origin, id)
		r.log().Debug("object registered", "ref", ref, "size", obj.Size(), "content_type", obj.ContentType())
		return ref
	}
}

// Resolve returns the object ref points to.
func (r *Registry) Resolve(ref Reference) (*Object, error) {
	origin, id, err := splitReference(string(ref))
	if err != nil {
		return nil, err
	}
	if origin != r.origin {
		return nil, fmt.Errorf("%w: %s: origin %q is not %q", ErrUnknownReference, ref, origin, r.origin)
	}
	obj, ok := r.entries.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReference, ref)
	}
	return obj, nil
}

// Lookup returns the object registered under id, the last path segment of
// a reference.
func (r *Registry) Lookup(id string) (*Object, bool) {
	return r.entries.Load(id)
}

// Release removes ref from the registry. It reports whether an entry was
// removed; releasing an unknown or already released reference is a no-op.
func (r *Registry) Release(ref Reference) bool {
	origin, id, err := splitReference(string(ref))
	if err != nil || origin != r.origin {
		return false
	}
	if _, loaded := r.entries.LoadAndDelete(id); !loaded {
		return false
	}
	metrics.ObserveRelease()
	r.log().Debug("object released", "ref", ref)
	return true
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	return r.entries.Size()
}

// Range calls fn for each live entry until fn returns false.
// Entries registered or released during the call may or may not be visited.
func (r *Registry) Range(fn func(Reference, *Object) bool) {
	r.entries.Range(func(id string, obj *Object) bool {
		return fn(newReference(r.origin, id), obj)
	})
}
