// Package server serves registered objects over HTTP, so that a reference's
// URL can be handed to anything that displays or downloads by URL.
package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meigma/assetblob/objects"
)

// Handler serves GET and HEAD for "/{id}", where id is the last segment of a
// reference issued by the registry. Mount it at the registry's origin. If the
// origin has a path, such as "http://host/objects", requests for
// "/objects/{id}" are served as well.
type Handler struct {
	registry *objects.Registry
	prefix   string
	logger   *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler creates a Handler backed by registry.
func NewHandler(registry *objects.Registry, opts ...Option) *Handler {
	h := &Handler{registry: registry, prefix: originPath(registry.Origin())}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) log() *slog.Logger {
	if h.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return h.logger
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	p := r.URL.Path
	if h.prefix != "" {
		if rest, ok := strings.CutPrefix(p, h.prefix+"/"); ok {
			p = "/" + rest
		}
	}
	id := strings.TrimPrefix(p, "/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	obj, ok := h.registry.Lookup(id)
	if !ok {
		h.log().Debug("unknown object requested", "id", id)
		http.NotFound(w, r)
		return
	}

	contentType := obj.ContentType()
	if contentType == "" {
		contentType = objects.DefaultContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("ETag", `"`+obj.Digest().Encoded()+`"`)
	w.Header().Set("Cache-Control", "private, no-cache")
	http.ServeContent(w, r, "", time.Time{}, obj.Reader())
}

// originPath returns the path component of origin without a trailing slash.
func originPath(origin string) string {
	u, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(u.Path, "/")
}
