package store

import (
	"path/filepath"
	"sync"

	"dip-go/internal/dip"
	"dip-go/internal/manifest"
)

// MemoryStore is an in-memory implementation of dip.ManifestStore with no
// persistence. It is useful for tests and for embedders that want an
// ephemeral deposit package. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	baseDir string
	m       *manifest.Manifest
}

// NewMemoryStore creates an empty in-memory store whose file records are
// relative to baseDir. The path is cleaned but never checked against the
// real filesystem, so tests can pick any absolute path.
func NewMemoryStore(baseDir string, created manifest.Timestamp) *MemoryStore {
	return &MemoryStore{
		baseDir: filepath.Clean(baseDir),
		m:       manifest.New(created),
	}
}

// BaseDir returns the base directory path the store was created with.
func (st *MemoryStore) BaseDir() string { return st.baseDir }

// Created returns the package creation timestamp.
func (st *MemoryStore) Created() manifest.Timestamp {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.m.Created
}

// ListFiles returns copies of all file records in registration order.
func (st *MemoryStore) ListFiles() []manifest.FileRecord {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]manifest.FileRecord, len(st.m.Files))
	for i, f := range st.m.Files {
		out[i] = f.Clone()
	}
	return out
}

// FindFile returns a copy of the file record with the given relative path.
func (st *MemoryStore) FindFile(relPath string) (manifest.FileRecord, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, f := range st.m.Files {
		if f.Path == relPath {
			return f.Clone(), true
		}
	}
	return manifest.FileRecord{}, false
}

// PutFile inserts the record or replaces the existing one in place.
func (st *MemoryStore) PutFile(rec manifest.FileRecord) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	rec = rec.Clone()
	for i := range st.m.Files {
		if st.m.Files[i].Path == rec.Path {
			st.m.Files[i] = rec
			return nil
		}
	}
	st.m.Files = append(st.m.Files, rec)
	return nil
}

// RemoveFile deletes the record with the given relative path.
func (st *MemoryStore) RemoveFile(relPath string) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.m.Files {
		if st.m.Files[i].Path == relPath {
			st.m.Files = append(st.m.Files[:i], st.m.Files[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ListEndpoints returns copies of all endpoint records in registration order.
func (st *MemoryStore) ListEndpoints() []manifest.EndpointRecord {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]manifest.EndpointRecord, len(st.m.Endpoints))
	copy(out, st.m.Endpoints)
	return out
}

// FindEndpoint returns the endpoint record with the given id.
func (st *MemoryStore) FindEndpoint(id string) (manifest.EndpointRecord, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, ep := range st.m.Endpoints {
		if ep.ID == id {
			return ep, true
		}
	}
	return manifest.EndpointRecord{}, false
}

// PutEndpoint inserts the record or replaces the existing one in place.
func (st *MemoryStore) PutEndpoint(rec manifest.EndpointRecord) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.m.Endpoints {
		if st.m.Endpoints[i].ID == rec.ID {
			st.m.Endpoints[i] = rec
			return nil
		}
	}
	st.m.Endpoints = append(st.m.Endpoints, rec)
	return nil
}

// RemoveEndpoint deletes the endpoint record with the given id. File
// deposit logs referencing the id are left untouched.
func (st *MemoryStore) RemoveEndpoint(id string) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.m.Endpoints {
		if st.m.Endpoints[i].ID == id {
			st.m.Endpoints = append(st.m.Endpoints[:i], st.m.Endpoints[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ListMetadata returns copies of all metadata document records.
func (st *MemoryStore) ListMetadata() []manifest.MetadataRecord {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]manifest.MetadataRecord, len(st.m.Metadata))
	for i, md := range st.m.Metadata {
		out[i] = md.Clone()
	}
	return out
}

// Compile-time check that MemoryStore implements dip.ManifestStore.
var _ dip.ManifestStore = (*MemoryStore)(nil)
