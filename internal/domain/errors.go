package domain

import "errors"

var (
	// ErrNotFound signals a missing resource or ingest job.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput signals a request that failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstreamUnavailable signals that the index or metadata store is unreachable.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
