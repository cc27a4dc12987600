package assetblob

import (
	blobhttp "github.com/meigma/assetblob/http"
	"github.com/meigma/assetblob/objects"
)

// Errors re-exported from http.
var (
	// ErrRetrieval is returned when the request fails or the status is not 2xx.
	ErrRetrieval = blobhttp.ErrRetrieval

	// ErrNotFound is returned when the server answers 404. It also matches ErrRetrieval.
	ErrNotFound = blobhttp.ErrNotFound

	// ErrBodyConsumption is returned when the response body cannot be read in full.
	ErrBodyConsumption = blobhttp.ErrBodyConsumption

	// ErrBodyTooLarge is returned when a body exceeds WithMaxBytes. It also matches ErrBodyConsumption.
	ErrBodyTooLarge = blobhttp.ErrBodyTooLarge
)

// Errors re-exported from objects.
var (
	// ErrInvalidReference is returned when a reference string is malformed.
	ErrInvalidReference = objects.ErrInvalidReference

	// ErrUnknownReference is returned when a reference is not (or no longer) registered.
	ErrUnknownReference = objects.ErrUnknownReference
)

// Error types re-exported from http.
type (
	// RetrievalError carries the locator, status, and transport cause of a failed retrieval.
	RetrievalError = blobhttp.RetrievalError

	// BodyConsumptionError carries the locator and cause of a failed body read.
	BodyConsumptionError = blobhttp.BodyConsumptionError
)
