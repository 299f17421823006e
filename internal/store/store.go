package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"dip-go/internal/dip"
	"dip-go/internal/manifest"
)

// Store is the file-backed dip.ManifestStore. It keeps the manifest in
// memory and writes the whole document through to disk on every mutation,
// so the persisted manifest never lags an acknowledged change. A mutation
// whose write fails is rolled back: an error means the manifest is
// unchanged, in memory and on disk.
//
// A Store assumes it is the only writer of its manifest. Concurrent use
// from multiple goroutines is safe; concurrent use from multiple
// processes is not coordinated.
type Store struct {
	mu      sync.Mutex
	baseDir string // canonical absolute path
	path    string // manifest document path
	m       *manifest.Manifest
}

// Open loads the deposit package rooted at baseDir, creating the base
// directory, the manifest document, and the bookkeeping subdirectories as
// needed. The layout is guaranteed on every open, so a package survives
// partial deletion of its subdirectories.
//
// clock stamps the creation time when a fresh manifest is written.
func Open(baseDir string, clock dip.Clock) (*Store, error) {
	if err := guaranteeDir(baseDir); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolving base directory: %w", err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolving base directory: %w", err)
	}

	st := &Store{
		baseDir: canonical,
		path:    filepath.Join(canonical, dip.ManifestName),
	}
	if err := st.loadOrCreate(clock); err != nil {
		return nil, err
	}

	for _, sub := range dip.ReservedDirs {
		if err := guaranteeDir(filepath.Join(canonical, sub)); err != nil {
			return nil, err
		}
	}

	return st, nil
}

func (st *Store) loadOrCreate(clock dip.Clock) error {
	info, err := os.Stat(st.path)
	switch {
	case err == nil && !info.Mode().IsRegular():
		return fmt.Errorf("%w: %s exists and is not a regular file", dip.ErrInitialize, st.path)
	case err == nil:
		data, err := os.ReadFile(st.path)
		if err != nil {
			return fmt.Errorf("reading manifest: %w", err)
		}
		var m manifest.Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("parsing manifest %s: %w", st.path, err)
		}
		m.Normalize()
		st.m = &m
		return nil
	case os.IsNotExist(err):
		st.m = manifest.New(manifest.At(clock.Now()))
		return st.save()
	default:
		return fmt.Errorf("stat manifest: %w", err)
	}
}

// BaseDir returns the canonical absolute base directory path.
func (st *Store) BaseDir() string { return st.baseDir }

// Path returns the manifest document's path.
func (st *Store) Path() string { return st.path }

// Created returns the package creation timestamp.
func (st *Store) Created() manifest.Timestamp {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.m.Created
}

// ListFiles returns copies of all file records in registration order.
func (st *Store) ListFiles() []manifest.FileRecord {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]manifest.FileRecord, len(st.m.Files))
	for i, f := range st.m.Files {
		out[i] = f.Clone()
	}
	return out
}

// FindFile returns a copy of the file record with the given relative path.
func (st *Store) FindFile(relPath string) (manifest.FileRecord, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, f := range st.m.Files {
		if f.Path == relPath {
			return f.Clone(), true
		}
	}
	return manifest.FileRecord{}, false
}

// PutFile inserts the record or replaces the existing one in place, then
// persists the manifest.
func (st *Store) PutFile(rec manifest.FileRecord) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	rec = rec.Clone()
	files := make([]manifest.FileRecord, len(st.m.Files))
	copy(files, st.m.Files)
	replaced := false
	for i := range files {
		if files[i].Path == rec.Path {
			files[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		files = append(files, rec)
	}
	return st.commitFiles(files)
}

// RemoveFile deletes the record with the given relative path, preserving
// the order of the remaining records. Removing an unknown path is a no-op
// and does not touch disk.
func (st *Store) RemoveFile(relPath string) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.m.Files {
		if st.m.Files[i].Path != relPath {
			continue
		}
		files := make([]manifest.FileRecord, 0, len(st.m.Files)-1)
		files = append(files, st.m.Files[:i]...)
		files = append(files, st.m.Files[i+1:]...)
		if err := st.commitFiles(files); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// ListEndpoints returns copies of all endpoint records in registration order.
func (st *Store) ListEndpoints() []manifest.EndpointRecord {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]manifest.EndpointRecord, len(st.m.Endpoints))
	copy(out, st.m.Endpoints)
	return out
}

// FindEndpoint returns the endpoint record with the given id.
func (st *Store) FindEndpoint(id string) (manifest.EndpointRecord, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, ep := range st.m.Endpoints {
		if ep.ID == id {
			return ep, true
		}
	}
	return manifest.EndpointRecord{}, false
}

// PutEndpoint inserts the record or replaces the existing one in place,
// then persists the manifest.
func (st *Store) PutEndpoint(rec manifest.EndpointRecord) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	endpoints := make([]manifest.EndpointRecord, len(st.m.Endpoints))
	copy(endpoints, st.m.Endpoints)
	replaced := false
	for i := range endpoints {
		if endpoints[i].ID == rec.ID {
			endpoints[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		endpoints = append(endpoints, rec)
	}
	return st.commitEndpoints(endpoints)
}

// RemoveEndpoint deletes the endpoint record with the given id. File
// deposit logs referencing the id are left untouched.
func (st *Store) RemoveEndpoint(id string) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.m.Endpoints {
		if st.m.Endpoints[i].ID != id {
			continue
		}
		endpoints := make([]manifest.EndpointRecord, 0, len(st.m.Endpoints)-1)
		endpoints = append(endpoints, st.m.Endpoints[:i]...)
		endpoints = append(endpoints, st.m.Endpoints[i+1:]...)
		if err := st.commitEndpoints(endpoints); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// ListMetadata returns copies of all metadata document records.
func (st *Store) ListMetadata() []manifest.MetadataRecord {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]manifest.MetadataRecord, len(st.m.Metadata))
	for i, md := range st.m.Metadata {
		out[i] = md.Clone()
	}
	return out
}

// commitFiles installs files as the manifest's file list and persists
// it, restoring the previous list when the write fails. Callers pass a
// freshly built slice so the previous list's backing array is never
// touched. Callers hold mu.
func (st *Store) commitFiles(files []manifest.FileRecord) error {
	prev := st.m.Files
	st.m.Files = files
	if err := st.save(); err != nil {
		st.m.Files = prev
		return err
	}
	return nil
}

// commitEndpoints is commitFiles for the endpoint list.
func (st *Store) commitEndpoints(endpoints []manifest.EndpointRecord) error {
	prev := st.m.Endpoints
	st.m.Endpoints = endpoints
	if err := st.save(); err != nil {
		st.m.Endpoints = prev
		return err
	}
	return nil
}

// save writes the manifest atomically: serialize to a temp file in the
// base directory, then rename over the document. Callers hold mu.
func (st *Store) save() error {
	st.m.Normalize()
	data, err := json.MarshalIndent(st.m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(st.baseDir, ".deposit-manifest-*")
	if err != nil {
		return fmt.Errorf("creating temp manifest: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp manifest: %w", err)
	}
	if err := os.Rename(tmpPath, st.path); err != nil {
		return fmt.Errorf("replacing manifest: %w", err)
	}

	success = true
	return nil
}

// guaranteeDir ensures path exists and is a directory.
func guaranteeDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%w: %s exists and is not a directory", dip.ErrInitialize, path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}

// Compile-time check that Store implements dip.ManifestStore.
var _ dip.ManifestStore = (*Store)(nil)
