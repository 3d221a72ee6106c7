package batch

import "errors"

var (
	// ErrNilRegistry indicates the runner was constructed without a registry.
	ErrNilRegistry = errors.New("batch: nil registry")

	// ErrInvalidMaxWorkers indicates a negative MaxWorkers value.
	ErrInvalidMaxWorkers = errors.New("batch: max workers must not be negative")

	// ErrInvalidChunkSize indicates a negative ChunkSize value.
	ErrInvalidChunkSize = errors.New("batch: chunk size must not be negative")

	// ErrInvalidTimeout indicates a negative timeout value.
	ErrInvalidTimeout = errors.New("batch: timeout must not be negative")
)
