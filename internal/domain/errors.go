package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed        = errors.New("file upload to storage failed")

	// ErrUnreadableDocument means the file could not be opened as the
	// declared format. Hard stop; never retried.
	ErrUnreadableDocument = errors.New("document is corrupt or not readable")

	// ErrSchemaViolation means a backend response could not be coerced
	// into the canonical schema.
	ErrSchemaViolation = errors.New("output does not match canonical schema")

	// ErrNoStrategyAvailable means the selector produced an empty chain.
	ErrNoStrategyAvailable = errors.New("no extraction strategy available for this document")

	// ErrJobNotQueued means a job transition was requested from the wrong state.
	ErrJobNotQueued = errors.New("parse job is not in queued state")
)
