// Package source reads assets addressed by serialized asset paths.
//
// A path produced by assetpath.SerializeURL is decoded back to its URL.
// "blob:" references are resolved from the local object registry. Any other
// URL is fetched over HTTP, and only a 200 response counts as the asset.
// This lets an asset pipeline that only understands paths with file
// extensions load objects that were registered in-process.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/meigma/assetblob/assetpath"
	blobhttp "github.com/meigma/assetblob/http"
	"github.com/meigma/assetblob/objects"
)

var (
	// ErrNotFound is returned when an asset does not exist.
	ErrNotFound = errors.New("source: asset not found")

	// ErrUnsupported is returned for operations this source cannot perform.
	ErrUnsupported = errors.New("source: operation not supported")

	// ErrUnexpectedStatus is returned when a remote asset is served with a
	// success status other than 200.
	ErrUnexpectedStatus = errors.New("source: unexpected status")
)

// Fetcher retrieves remote assets.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) (*blobhttp.Asset, error)
}

// Resolver resolves local references.
type Resolver interface {
	Resolve(ref objects.Reference) (*objects.Object, error)
}

// Reader reads assets from the local registry or over HTTP.
type Reader struct {
	fetcher  Fetcher
	resolver Resolver
	logger   *slog.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// NewReader creates a Reader. Either dependency may be nil, in which case
// paths that need it fail.
func NewReader(fetcher Fetcher, resolver Resolver, opts ...Option) *Reader {
	r := &Reader{
		fetcher:  fetcher,
		resolver: resolver,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reader) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// Read returns the full content of the asset at assetPath.
func (r *Reader) Read(ctx context.Context, assetPath string) (io.ReadCloser, error) {
	url, err := assetpath.DeserializePath(assetPath)
	if err != nil {
		return nil, err
	}
	r.log().Debug("reading asset", "path", assetPath, "url", url)

	if strings.HasPrefix(url, objects.Scheme) {
		return r.readLocal(url)
	}
	return r.readRemote(ctx, url)
}

// ReadMeta returns the asset's metadata. Assets carry no separate metadata
// file, so the asset content itself is returned.
func (r *Reader) ReadMeta(ctx context.Context, assetPath string) (io.ReadCloser, error) {
	return r.Read(ctx, assetPath)
}

// ReadDirectory always fails with ErrUnsupported.
func (r *Reader) ReadDirectory(context.Context, string) ([]string, error) {
	return nil, fmt.Errorf("%w: reading directories", ErrUnsupported)
}

// IsDirectory always fails with ErrUnsupported.
func (r *Reader) IsDirectory(context.Context, string) (bool, error) {
	return false, fmt.Errorf("%w: reading directories", ErrUnsupported)
}

func (r *Reader) readLocal(url string) (io.ReadCloser, error) {
	if r.resolver == nil {
		return nil, fmt.Errorf("%w: %s: no registry configured", ErrNotFound, url)
	}
	ref, err := objects.ParseReference(url)
	if err != nil {
		return nil, err
	}
	obj, err := r.resolver.Resolve(ref)
	if err != nil {
		if errors.Is(err, objects.ErrUnknownReference) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
		}
		return nil, err
	}
	return io.NopCloser(obj.Reader()), nil
}

func (r *Reader) readRemote(ctx context.Context, url string) (io.ReadCloser, error) {
	if r.fetcher == nil {
		return nil, fmt.Errorf("%w: remote asset %s", ErrUnsupported, url)
	}
	asset, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		if errors.Is(err, blobhttp.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
		}
		return nil, err
	}
	if asset.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: %d", ErrUnexpectedStatus, url, asset.StatusCode)
	}
	return io.NopCloser(bytes.NewReader(asset.Data)), nil
}
