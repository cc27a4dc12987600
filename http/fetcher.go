// Package http retrieves whole assets over HTTP.
package http //nolint:revive // intentional naming for domain clarity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"net/url"
)

// drainLimit bounds how much of an unread body is discarded before the
// connection is closed instead of reused.
const drainLimit = 4 << 10

// Asset is the fully consumed result of a successful retrieval.
type Asset struct {
	// URL is the absolute URL the asset was retrieved from.
	URL string

	// StatusCode is the 2xx status the asset was served with.
	StatusCode int

	// ContentType is the response Content-Type, verbatim. It may be empty.
	ContentType string

	// Data holds the complete response body. Ownership passes to the caller.
	Data []byte
}

// Fetcher issues one GET per call and reads the full response body into memory.
// A Fetcher is safe for concurrent use; calls share no state beyond the
// configured http.Client.
type Fetcher struct {
	baseURL  string
	base     *url.URL
	client   *nethttp.Client
	headers  nethttp.Header
	maxBytes int64
	decode   bool
	logger   *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the HTTP client used for requests.
func WithClient(client *nethttp.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithHeaders sets additional headers on each request.
func WithHeaders(headers nethttp.Header) Option {
	return func(f *Fetcher) {
		if headers == nil {
			return
		}
		f.headers = headers.Clone()
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) Option {
	return func(f *Fetcher) {
		if f.headers == nil {
			f.headers = make(nethttp.Header)
		}
		f.headers.Set(key, value)
	}
}

// WithBaseURL sets the URL that relative locators such as "/assets/drip.png"
// are resolved against.
func WithBaseURL(base string) Option {
	return func(f *Fetcher) {
		f.baseURL = base
	}
}

// WithMaxBytes caps the number of body bytes read per retrieval.
// Zero (the default) means no limit.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBytes = n
	}
}

// WithDecoding advertises zstd and gzip support and decodes the body
// according to Content-Encoding before handing it back.
func WithDecoding() Option {
	return func(f *Fetcher) {
		f.decode = true
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		client: nethttp.DefaultClient,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = nethttp.DefaultClient
	}
	if f.maxBytes < 0 {
		return nil, errors.New("max bytes must be >= 0")
	}
	if f.baseURL != "" {
		base, err := url.Parse(f.baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		if !base.IsAbs() {
			return nil, fmt.Errorf("base url %q is not absolute", f.baseURL)
		}
		f.base = base
	}
	return f, nil
}

func (f *Fetcher) log() *slog.Logger {
	if f.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return f.logger
}

// ResolveURL returns the absolute URL a locator refers to.
func (f *Fetcher) ResolveURL(locator string) (string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if f.base == nil {
		return "", fmt.Errorf("relative locator %q requires a base url", locator)
	}
	return f.base.ResolveReference(u).String(), nil
}

// Fetch retrieves the resource at locator.
//
// A transport failure or non-2xx status yields a *RetrievalError. A failure
// while reading the body yields a *BodyConsumptionError. Nothing is retried.
func (f *Fetcher) Fetch(ctx context.Context, locator string) (*Asset, error) {
	target, err := f.ResolveURL(locator)
	if err != nil {
		return nil, &RetrievalError{Locator: locator, Err: err}
	}

	req, err := f.newRequest(ctx, target)
	if err != nil {
		return nil, &RetrievalError{Locator: locator, Err: err}
	}

	f.log().Debug("fetching asset", "url", target)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &RetrievalError{Locator: locator, Err: err}
	}
	defer func() {
		_, _ = io.CopyN(io.Discard, resp.Body, drainLimit)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < nethttp.StatusOK || resp.StatusCode >= nethttp.StatusMultipleChoices {
		f.log().Debug("asset retrieval failed", "url", target, "status", resp.Status)
		return nil, &RetrievalError{
			Locator:    locator,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	body := io.ReadCloser(resp.Body)
	if f.decode {
		body, err = decodeBody(resp)
		if err != nil {
			return nil, &BodyConsumptionError{Locator: locator, Err: err}
		}
		defer body.Close()
	}

	data, err := readAll(body, f.maxBytes)
	if err != nil {
		return nil, &BodyConsumptionError{Locator: locator, Err: err}
	}

	return &Asset{
		URL:         target,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (f *Fetcher) newRequest(ctx context.Context, target string) (*nethttp.Request, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	for key, values := range f.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if f.decode && req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	return req, nil
}

// readAll reads r to completion. If limit > 0 and r holds more than limit
// bytes, it returns ErrBodyTooLarge.
func readAll(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	lr := &io.LimitedReader{R: r, N: limit + 1}
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, limit)
	}
	return data, nil
}
