package http_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blobhttp "github.com/meigma/assetblob/http"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G'}

func newAssetServer(t *testing.T, handler nethttp.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	server := newAssetServer(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/assets/drip.png" {
			nethttp.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngSignature)
	})

	f, err := blobhttp.NewFetcher(blobhttp.WithBaseURL(server.URL))
	require.NoError(t, err)

	asset, err := f.Fetch(context.Background(), "/assets/drip.png")
	require.NoError(t, err)
	assert.Equal(t, pngSignature, asset.Data)
	assert.Equal(t, "image/png", asset.ContentType)
	assert.Equal(t, server.URL+"/assets/drip.png", asset.URL)
	assert.Equal(t, nethttp.StatusOK, asset.StatusCode)
}

func TestFetcher_FetchAbsoluteLocatorIgnoresBase(t *testing.T) {
	t.Parallel()

	server := newAssetServer(t, func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("absolute"))
	})

	f, err := blobhttp.NewFetcher(blobhttp.WithBaseURL("http://example.invalid"))
	require.NoError(t, err)

	asset, err := f.Fetch(context.Background(), server.URL+"/anything")
	require.NoError(t, err)
	assert.Equal(t, "absolute", string(asset.Data))
}

func TestFetcher_FetchStatusErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		status       int
		wantNotFound bool
	}{
		{name: "not found", status: nethttp.StatusNotFound, wantNotFound: true},
		{name: "server error", status: nethttp.StatusInternalServerError},
		{name: "forbidden", status: nethttp.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newAssetServer(t, func(w nethttp.ResponseWriter, _ *nethttp.Request) {
				w.WriteHeader(tt.status)
			})
			f, err := blobhttp.NewFetcher(blobhttp.WithBaseURL(server.URL))
			require.NoError(t, err)

			asset, err := f.Fetch(context.Background(), "/x")
			require.Error(t, err)
			assert.Nil(t, asset)
			assert.ErrorIs(t, err, blobhttp.ErrRetrieval)
			assert.NotErrorIs(t, err, blobhttp.ErrBodyConsumption)
			assert.Equal(t, tt.wantNotFound, errors.Is(err, blobhttp.ErrNotFound))

			var retrievalErr *blobhttp.RetrievalError
			require.ErrorAs(t, err, &retrievalErr)
			assert.Equal(t, tt.status, retrievalErr.StatusCode)
			assert.Equal(t, "/x", retrievalErr.Locator)
		})
	}
}

func TestFetcher_FetchTransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.NotFoundHandler())
	addr := server.URL
	server.Close()

	f, err := blobhttp.NewFetcher()
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), addr+"/gone.png")
	require.ErrorIs(t, err, blobhttp.ErrRetrieval)

	var retrievalErr *blobhttp.RetrievalError
	require.ErrorAs(t, err, &retrievalErr)
	assert.Zero(t, retrievalErr.StatusCode)
	assert.Error(t, retrievalErr.Err)
}

func TestFetcher_FetchRelativeWithoutBase(t *testing.T) {
	t.Parallel()

	f, err := blobhttp.NewFetcher()
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "/assets/drip.png")
	require.ErrorIs(t, err, blobhttp.ErrRetrieval)
}

func TestFetcher_FetchCanceledContext(t *testing.T) {
	t.Parallel()

	server := newAssetServer(t, func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		_, _ = w.Write([]byte("late"))
	})
	f, err := blobhttp.NewFetcher(blobhttp.WithBaseURL(server.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = f.Fetch(ctx, "/late")
	require.ErrorIs(t, err, blobhttp.ErrRetrieval)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetcher_FetchConnectionDroppedMidBody(t *testing.T) {
	t.Parallel()

	server := newAssetServer(t, func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(nethttp.StatusOK)
		_, _ = w.Write(pngSignature)
		w.(nethttp.Flusher).Flush()

		conn, _, err := w.(nethttp.Hijacker).Hijack()
		if err != nil {
			return
		}
		_ = conn.Close()
	})
	f, err := blobhttp.NewFetcher(blobhttp.WithBaseURL(server.URL))
	require.NoError(t, err)

	asset, err := f.Fetch(context.Background(), "/truncated.png")
	require.Error(t, err)
	assert.Nil(t, asset)
	assert.ErrorIs(t, err, blobhttp.ErrBodyConsumption)
	assert.NotErrorIs(t, err, blobhttp.ErrRetrieval)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestFetcher_FetchMaxBytes(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("a"), 64)
	server := newAssetServer(t, func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		_, _ = w.Write(data)
	})

	t.Run("within limit", func(t *testing.T) {
		t.Parallel()

		f, err := blobhttp.NewFetcher(blobhttp.WithBaseURL(server.URL), blobhttp.WithMaxBytes(64))
		require.NoError(t, err)
		asset, err := f.Fetch(context.Background(), "/a")
		require.NoError(t, err)
		assert.Len(t, asset.Data, 64)
	})

	t.Run("over limit", func(t *testing.T) {
		t.Parallel()

		f, err := blobhttp.NewFetcher(blobhttp.WithBaseURL(server.URL), blobhttp.WithMaxBytes(63))
		require.NoError(t, err)
		_, err = f.Fetch(context.Background(), "/a")
		require.ErrorIs(t, err, blobhttp.ErrBodyTooLarge)
		assert.ErrorIs(t, err, blobhttp.ErrBodyConsumption)
	})
}

// newEndlessServer streams an unbounded body with the given status until the
// client goes away.
func newEndlessServer(t *testing.T, status int) *httptest.Server {
	t.Helper()

	chunk := bytes.Repeat([]byte("a"), 1024)
	return newAssetServer(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(status)
		for {
			select {
			case <-r.Context().Done():
				return
			default:
			}
			if _, err := w.Write(chunk); err != nil {
				return
			}
			w.(nethttp.Flusher).Flush()
		}
	})
}

func TestFetcher_FetchEndlessBodyReturnsPromptly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "over limit", status: nethttp.StatusOK, wantErr: blobhttp.ErrBodyTooLarge},
		{name: "error status", status: nethttp.StatusInternalServerError, wantErr: blobhttp.ErrRetrieval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newEndlessServer(t, tt.status)
			f, err := blobhttp.NewFetcher(blobhttp.WithBaseURL(server.URL), blobhttp.WithMaxBytes(64))
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			start := time.Now()
			_, err = f.Fetch(ctx, "/endless")
			elapsed := time.Since(start)

			require.ErrorIs(t, err, tt.wantErr)
			require.NoError(t, ctx.Err(), "fetch only returned once the deadline fired")
			assert.Less(t, elapsed, 5*time.Second)

			var retrievalErr *blobhttp.RetrievalError
			if errors.As(err, &retrievalErr) {
				assert.Equal(t, tt.status, retrievalErr.StatusCode)
			}
		})
	}
}

func TestNewFetcher_InvalidOptions(t *testing.T) {
	t.Parallel()

	_, err := blobhttp.NewFetcher(blobhttp.WithMaxBytes(-1))
	require.Error(t, err)

	_, err = blobhttp.NewFetcher(blobhttp.WithBaseURL("relative/only"))
	require.Error(t, err)
}

func TestFetcher_FetchHeaders(t *testing.T) {
	t.Parallel()

	seen := make(chan nethttp.Header, 1)
	server := newAssetServer(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		seen <- r.Header.Clone()
		_, _ = w.Write([]byte("ok"))
	})

	headers := nethttp.Header{}
	headers.Set("X-Trace", "abc")
	f, err := blobhttp.NewFetcher(
		blobhttp.WithBaseURL(server.URL),
		blobhttp.WithHeaders(headers),
		blobhttp.WithHeader("User-Agent", "assetblob-test"),
	)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "/h")
	require.NoError(t, err)
	got := <-seen
	assert.Equal(t, "abc", got.Get("X-Trace"))
	assert.Equal(t, "assetblob-test", got.Get("User-Agent"))
}

func TestFetcher_FetchDecoding(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("drip"), 256)

	var zstdBody bytes.Buffer
	zw, err := zstd.NewWriter(&zstdBody)
	require.NoError(t, err)
	_, err = zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var gzipBody bytes.Buffer
	gw := gzip.NewWriter(&gzipBody)
	_, err = gw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	tests := []struct {
		name     string
		encoding string
		body     []byte
		wantErr  bool
	}{
		{name: "zstd", encoding: "zstd", body: zstdBody.Bytes()},
		{name: "gzip", encoding: "gzip", body: gzipBody.Bytes()},
		{name: "identity", encoding: "", body: payload},
		{name: "unsupported", encoding: "br", body: payload, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			accept := make(chan string, 1)
			server := newAssetServer(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
				accept <- r.Header.Get("Accept-Encoding")
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				w.Header().Set("Content-Type", "application/octet-stream")
				_, _ = w.Write(tt.body)
			})
			f, err := blobhttp.NewFetcher(blobhttp.WithBaseURL(server.URL), blobhttp.WithDecoding())
			require.NoError(t, err)

			asset, err := f.Fetch(context.Background(), "/enc")
			if tt.wantErr {
				require.ErrorIs(t, err, blobhttp.ErrBodyConsumption)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, payload, asset.Data)
			assert.Equal(t, "zstd, gzip", <-accept)
		})
	}
}
