package assetblob

import (
	"errors"
	"log/slog"
	nethttp "net/http"

	blobhttp "github.com/meigma/assetblob/http"
	"github.com/meigma/assetblob/objects"
)

// Option configures a Loader.
type Option func(*Loader) error

// --- Core Options ---

// WithFetcher sets a custom Fetcher, replacing the default HTTP fetcher.
// HTTP pass-through options are ignored when a Fetcher is set.
func WithFetcher(f Fetcher) Option {
	return func(l *Loader) error {
		if f == nil {
			return errors.New("fetcher is nil")
		}
		l.fetcher = f
		return nil
	}
}

// WithRegistry sets the registry references are issued from.
// Sharing one registry between loaders and a server.Handler lets every
// reference be served from the same origin.
func WithRegistry(r *objects.Registry) Option {
	return func(l *Loader) error {
		if r == nil {
			return errors.New("registry is nil")
		}
		l.registry = r
		return nil
	}
}

// WithLocator overrides the locator LoadDefault retrieves.
func WithLocator(locator string) Option {
	return func(l *Loader) error {
		if locator == "" {
			return errors.New("locator is empty")
		}
		l.locator = locator
		return nil
	}
}

// WithLogger sets the logger for debug output.
// The logger is propagated to the default fetcher and registry.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) error {
		l.logger = logger
		return nil
	}
}

// --- HTTP Options ---

// WithBaseURL sets the URL relative locators are resolved against,
// typically the origin the assets are served from.
func WithBaseURL(base string) Option {
	return func(l *Loader) error {
		l.httpOpts = append(l.httpOpts, blobhttp.WithBaseURL(base))
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for retrievals.
// Use a client with a Timeout to bound retrievals; none is set by default.
func WithHTTPClient(c *nethttp.Client) Option {
	return func(l *Loader) error {
		l.httpOpts = append(l.httpOpts, blobhttp.WithClient(c))
		return nil
	}
}

// WithHeader sets a header on every retrieval.
func WithHeader(key, value string) Option {
	return func(l *Loader) error {
		l.httpOpts = append(l.httpOpts, blobhttp.WithHeader(key, value))
		return nil
	}
}

// WithMaxBytes caps the body size of a single retrieval. Zero means no limit,
// which is the default.
func WithMaxBytes(n int64) Option {
	return func(l *Loader) error {
		if n < 0 {
			return errors.New("max bytes must be >= 0")
		}
		l.httpOpts = append(l.httpOpts, blobhttp.WithMaxBytes(n))
		return nil
	}
}

// WithDecoding enables zstd and gzip content decoding.
func WithDecoding() Option {
	return func(l *Loader) error {
		l.httpOpts = append(l.httpOpts, blobhttp.WithDecoding())
		return nil
	}
}
