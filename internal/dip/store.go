package dip

import "dip-go/internal/manifest"

// ManifestStore provides an interface for manifest persistence. Every
// mutation is written through to the backing document before it returns,
// so the in-memory view and the persisted manifest never diverge.
//
// All query methods return copies. Mutating a returned record has no
// effect until it is handed back to a Put method.
type ManifestStore interface {
	// BaseDir returns the canonical absolute path of the package base
	// directory. File record paths are relative to it.
	BaseDir() string

	// Created returns the package creation timestamp.
	Created() manifest.Timestamp

	// File records, keyed by base-relative path.

	// ListFiles returns all file records in registration order.
	ListFiles() []manifest.FileRecord

	// FindFile returns the file record with the given relative path.
	FindFile(relPath string) (manifest.FileRecord, bool)

	// PutFile inserts the record, or replaces the existing record with
	// the same path in place.
	PutFile(rec manifest.FileRecord) error

	// RemoveFile deletes the record with the given relative path.
	// Reports whether a record was removed; removing an unknown path is
	// not an error.
	RemoveFile(relPath string) (bool, error)

	// Endpoint records, keyed by id.

	// ListEndpoints returns all endpoint records in registration order.
	ListEndpoints() []manifest.EndpointRecord

	// FindEndpoint returns the endpoint record with the given id.
	FindEndpoint(id string) (manifest.EndpointRecord, bool)

	// PutEndpoint inserts the record, or replaces the existing record
	// with the same id in place.
	PutEndpoint(rec manifest.EndpointRecord) error

	// RemoveEndpoint deletes the endpoint record with the given id.
	// Deposit-log entries referencing the id are left untouched.
	RemoveEndpoint(id string) (bool, error)

	// ListMetadata returns all metadata document records.
	ListMetadata() []manifest.MetadataRecord
}
