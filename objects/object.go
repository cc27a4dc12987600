// Package objects holds in-memory binary objects and the handle table that
// maps local references to them.
//
// A [Registry] replaces the ambient, process-wide object-URL table a browser
// would provide: it is an ordinary value that callers create, inject, and
// release entries from explicitly. Entries that are never released stay
// alive for as long as the Registry does.
package objects

import (
	"bytes"
	"io"

	"github.com/opencontainers/go-digest"
)

// DefaultContentType is served for objects that were registered without one.
const DefaultContentType = "application/octet-stream"

// Object is an immutable byte sequence with an associated content type.
// Its digest and size are computed once at construction.
type Object struct {
	data        []byte
	contentType string
	digest      digest.Digest
}

// New creates an Object that takes ownership of data.
// The caller must not modify data after the call.
func New(data []byte, contentType string) *Object {
	if data == nil {
		data = []byte{}
	}
	return &Object{
		data:        data,
		contentType: contentType,
		digest:      digest.FromBytes(data),
	}
}

// ContentType returns the content type the object was created with.
// It may be empty.
func (o *Object) ContentType() string {
	return o.contentType
}

// Size returns the length of the object in bytes.
func (o *Object) Size() int64 {
	return int64(len(o.data))
}

// Digest returns the sha256 digest of the object's bytes.
func (o *Object) Digest() digest.Digest {
	return o.digest
}

// Bytes returns a copy of the object's bytes.
func (o *Object) Bytes() []byte {
	return bytes.Clone(o.data)
}

// Reader returns a new reader positioned at the start of the object.
func (o *Object) Reader() *bytes.Reader {
	return bytes.NewReader(o.data)
}

// WriteTo implements io.WriterTo.
func (o *Object) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(o.data)
	return int64(n), err
}
