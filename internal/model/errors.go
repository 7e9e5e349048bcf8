package model

import "errors"

var (
	// ErrUnsupportedFormat is returned for file extensions the parser does not read.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrMalformedInput is returned when the content does not have the expected shape.
	ErrMalformedInput = errors.New("malformed input")
	// ErrOversizedFile is returned when an upload exceeds the size cap.
	ErrOversizedFile = errors.New("file too large")
	// ErrProcessingFailed wraps any other failure during parse, extract or classify.
	ErrProcessingFailed = errors.New("failed to process the uploaded file; ensure it is in the correct format")

	ErrBusy      = errors.New("an analysis is already running")
	ErrNoResults = errors.New("no results to export; process a file first")
	ErrCanceled  = errors.New("analysis canceled")
)
