package assetblob

import (
	"context"
	"errors"
	"log/slog"

	blobhttp "github.com/meigma/assetblob/http"
	"github.com/meigma/assetblob/internal/metrics"
	"github.com/meigma/assetblob/objects"
	"github.com/meigma/assetblob/source"
)

// DefaultLocator is the resource LoadDefault retrieves unless WithLocator
// overrides it.
const DefaultLocator = "/assets/drip.png"

// Fetcher retrieves an asset and consumes its body in full.
// *http.Fetcher is the default implementation.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) (*blobhttp.Asset, error)
}

// Loader fetches assets, registers them as objects, and hands out references.
//
// Each Load is independent: concurrent calls for the same locator issue
// separate requests and return distinct references. Nothing is cached or
// retried, and references stay registered until released.
type Loader struct {
	fetcher  Fetcher
	registry *objects.Registry
	locator  string
	logger   *slog.Logger

	// httpOpts are passed through to the default fetcher when no
	// custom Fetcher is provided.
	httpOpts []blobhttp.Option
}

// New creates a Loader with the given options.
//
// If no Fetcher is provided via WithFetcher, an HTTP fetcher is created using
// any pass-through options (WithBaseURL, WithHTTPClient, etc.). If no registry
// is provided via WithRegistry, the Loader owns a fresh one.
func New(opts ...Option) (*Loader, error) {
	l := &Loader{
		locator: DefaultLocator,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	if l.registry == nil {
		l.registry = objects.NewRegistry(objects.WithRegistryLogger(l.logger))
	}
	if l.fetcher == nil {
		httpOpts := l.httpOpts
		if l.logger != nil {
			httpOpts = append(httpOpts, blobhttp.WithLogger(l.logger))
		}
		f, err := blobhttp.NewFetcher(httpOpts...)
		if err != nil {
			return nil, err
		}
		l.fetcher = f
	}
	return l, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (l *Loader) log() *slog.Logger {
	if l.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.logger
}

// Registry returns the registry references are issued from.
func (l *Loader) Registry() *objects.Registry {
	return l.registry
}

// Locator returns the locator LoadDefault retrieves.
func (l *Loader) Locator() string {
	return l.locator
}

// Load retrieves locator, registers its bytes and content type as an
// object, and returns a reference to it.
//
// On failure no object is registered. Retrieval failures match ErrRetrieval
// (and ErrNotFound for 404s); failures while reading the body match
// ErrBodyConsumption.
func (l *Loader) Load(ctx context.Context, locator string) (objects.Reference, error) {
	asset, err := l.fetcher.Fetch(ctx, locator)
	if err != nil {
		metrics.ObserveFetch(outcome(err), 0)
		l.log().Debug("asset load failed", "locator", locator, "error", err)
		return "", err
	}
	metrics.ObserveFetch(metrics.OutcomeOK, len(asset.Data))

	obj := objects.New(asset.Data, asset.ContentType)
	ref := l.registry.Register(obj)
	l.log().Debug("asset loaded",
		"locator", locator,
		"ref", ref,
		"size", obj.Size(),
		"digest", obj.Digest(),
	)
	return ref, nil
}

// LoadDefault loads the configured locator, DefaultLocator unless overridden.
func (l *Loader) LoadDefault(ctx context.Context) (objects.Reference, error) {
	return l.Load(ctx, l.locator)
}

// Release removes ref from the registry. The caller owns every reference
// returned by Load and should release it once consumers are done with it.
func (l *Loader) Release(ref objects.Reference) bool {
	return l.registry.Release(ref)
}

// Reader returns an asset reader that resolves "blob:" references from this
// Loader's registry and fetches everything else with its Fetcher.
func (l *Loader) Reader() *source.Reader {
	return source.NewReader(l.fetcher, l.registry, source.WithLogger(l.logger))
}

func outcome(err error) string {
	if errors.Is(err, ErrBodyConsumption) {
		return metrics.OutcomeBody
	}
	return metrics.OutcomeRetrieval
}
