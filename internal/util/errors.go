package util

import "errors"

var (
	// ErrInvalidChunkConfig rejects chunking parameters the caller got wrong.
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration: overlap must be >= 0 and < chunk size, chunk size must be > 0")

	// ErrInvalidPlanConfig rejects scheduling parameters the caller got wrong.
	ErrInvalidPlanConfig = errors.New("invalid plan configuration: available minutes must be > 0")

	// ErrNoExtractableText marks a document whose extraction produced nothing.
	ErrNoExtractableText = errors.New("no extractable text found in document")

	// ErrExtractionFailed marks concept extraction that errored or returned
	// unparsable output; the material is marked failed, never silently empty.
	ErrExtractionFailed = errors.New("concept extraction failed")

	// ErrInsufficientData is a correct request with nothing valid to operate
	// on (e.g. a cram plan for a course with zero processed concepts).
	ErrInsufficientData = errors.New("insufficient data: upload and process materials first")

	// ErrIndexUnavailable wraps vector backend connectivity failures on the
	// query path; surfaced to the caller, not retried silently.
	ErrIndexUnavailable = errors.New("vector index unavailable")
)
