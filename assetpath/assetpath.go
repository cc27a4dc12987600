// Package assetpath encodes references into asset paths that carry a file
// extension, and decodes them back.
//
// An asset loader usually picks a decoder from the path's extension, but a
// reference such as "blob:http://localhost:8080/6f1c..." has none. SerializeURL
// base64url-encodes the reference and appends the extension:
//
//	blob://YmxvYjpodHRwOi8vbG9jYWxob3N0OjgwODAvMTIzNA.png
package assetpath

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Scheme prefixes serialized asset paths.
const Scheme = "blob://"

// ErrMalformed is returned when an asset path cannot be decoded.
var ErrMalformed = errors.New("assetpath: malformed asset path")

var encoding = base64.RawURLEncoding

// SerializeURL encodes rawURL into an asset path with the given extension.
// A leading dot on ext is optional.
func SerializeURL(rawURL, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return Scheme + encoding.EncodeToString([]byte(rawURL)) + "." + ext
}

// DeserializeURL decodes an asset path produced by SerializeURL.
// The Scheme prefix is optional, since asset servers commonly strip it
// before handing the path to a reader.
func DeserializeURL(assetPath string) (string, error) {
	encoded, _, ok := split(assetPath)
	if !ok {
		return "", fmt.Errorf("%w: %q: missing extension", ErrMalformed, assetPath)
	}
	if encoded == "" {
		return "", fmt.Errorf("%w: %q: empty url", ErrMalformed, assetPath)
	}
	decoded, err := encoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrMalformed, assetPath, err)
	}
	if !utf8.Valid(decoded) {
		return "", fmt.Errorf("%w: %q: url is not valid utf-8", ErrMalformed, assetPath)
	}
	return string(decoded), nil
}

// DeserializePath is DeserializeURL for paths handed over by a file-oriented
// asset server: backslashes and a leading slash are tolerated.
func DeserializePath(p string) (string, error) {
	p = strings.ReplaceAll(p, `\`, "/")
	if !strings.HasPrefix(p, Scheme) {
		p = strings.TrimPrefix(p, "/")
	}
	return DeserializeURL(p)
}

// Extension returns the extension of a serialized asset path without its
// leading dot, or "" if there is none. Multi-part extensions such as
// "tar.gz" are returned whole.
func Extension(assetPath string) string {
	_, ext, _ := split(assetPath)
	return ext
}

// split separates the encoded url from the extension at the first dot, which
// base64url never produces.
func split(assetPath string) (encoded, ext string, ok bool) {
	return strings.Cut(strings.TrimPrefix(assetPath, Scheme), ".")
}
