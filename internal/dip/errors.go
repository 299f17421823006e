package dip

import "errors"

// Sentinel errors for the failure classes callers are expected to branch
// on. They are always returned wrapped with context; test with errors.Is.
var (
	// ErrInitialize reports that a deposit package could not be opened or
	// created, e.g. the base directory or manifest path exists but is the
	// wrong kind of filesystem object.
	ErrInitialize = errors.New("package initialization failed")

	// ErrValidation reports input that fails a structural requirement,
	// e.g. an endpoint without a service document URI.
	ErrValidation = errors.New("validation failed")

	// ErrNotAFile reports a path that resolved to something other than a
	// regular file where one is required.
	ErrNotAFile = errors.New("not a regular file")

	// ErrNotFound reports a lookup that matched nothing.
	ErrNotFound = errors.New("not found")
)
