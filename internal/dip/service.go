package dip

import (
	"fmt"
	"path/filepath"
	"time"

	"dip-go/internal/manifest"
)

// DIPService is the orchestration layer that coordinates across all
// components to perform high-level deposit-package operations needed by
// the CLI.
type DIPService struct {
	store     ManifestStore
	fsmgr     FilesystemManager
	transport Transport
	packager  Packager
	logger    Logger
	clock     Clock
	idgen     IDGenerator
}

// NewDIPService creates a new DIPService with the provided dependencies.
// transport and packager may be nil; operations that need them return an
// error when they are absent. A nil logger falls back to NopLogger.
func NewDIPService(store ManifestStore, fsmgr FilesystemManager, transport Transport, packager Packager, logger Logger, clock Clock, idgen IDGenerator) *DIPService {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &DIPService{
		store:     store,
		fsmgr:     fsmgr,
		transport: transport,
		packager:  packager,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
	}
}

// BaseDir returns the canonical package base directory.
func (s *DIPService) BaseDir() string { return s.store.BaseDir() }

// Created returns the package creation timestamp.
func (s *DIPService) Created() manifest.Timestamp { return s.store.Created() }

// Metadata returns the tracked metadata document records.
func (s *DIPService) Metadata() []manifest.MetadataRecord { return s.store.ListMetadata() }

// RegisterFile adds a regular file to the registry, or refreshes its
// record if the path is already registered. Refreshing recomputes the
// content hash and bumps updatedAt; addedAt and the deposit log are
// preserved.
func (s *DIPService) RegisterFile(path *Path) (manifest.FileRecord, error) {
	if path.IsDir() {
		return manifest.FileRecord{}, fmt.Errorf("%s: %w", path.String(), ErrNotAFile)
	}

	relPath, err := s.relativize(path.String())
	if err != nil {
		return manifest.FileRecord{}, err
	}

	hash, err := Fingerprint(s.fsmgr, path)
	if err != nil {
		return manifest.FileRecord{}, fmt.Errorf("fingerprinting file: %w", err)
	}

	now := manifest.At(s.clock.Now())

	rec, ok := s.store.FindFile(relPath)
	if !ok {
		rec = manifest.FileRecord{
			Path:     relPath,
			AddedAt:  now,
			Deposits: []manifest.DepositRecord{},
		}
	}
	rec.ContentHash = hash
	rec.UpdatedAt = now

	if err := s.store.PutFile(rec); err != nil {
		return manifest.FileRecord{}, fmt.Errorf("saving file record: %w", err)
	}

	s.logger.Info("file registered", "path", relPath, "hash", hash)
	return rec, nil
}

// DeregisterFile removes the record for the given absolute path. The
// path may no longer exist on disk, so it is not resolved through the
// filesystem; callers should pass the canonical path when they have one.
// Reports whether a record was removed.
func (s *DIPService) DeregisterFile(absPath string) (bool, error) {
	relPath, err := s.relativize(absPath)
	if err != nil {
		return false, err
	}

	removed, err := s.store.RemoveFile(relPath)
	if err != nil {
		return false, fmt.Errorf("removing file record: %w", err)
	}
	if removed {
		s.logger.Info("file deregistered", "path", relPath)
	}
	return removed, nil
}

// Files returns all registered file records in registration order.
func (s *DIPService) Files() []manifest.FileRecord {
	return s.store.ListFiles()
}

// FindFile returns the registry record for the given path, if any.
// Lookup goes through the same path normalization as registration, so
// any spelling that resolves to the same file finds the same record.
func (s *DIPService) FindFile(path *Path) (manifest.FileRecord, bool, error) {
	relPath, err := s.relativize(path.String())
	if err != nil {
		return manifest.FileRecord{}, false, err
	}
	rec, ok := s.store.FindFile(relPath)
	return rec, ok, nil
}

// MarkDeposited records a completed deposit of the file to the endpoint.
// A zero at means "now". The endpoint id is not required to refer to a
// registered endpoint: deposit bookkeeping survives endpoint removal.
func (s *DIPService) MarkDeposited(path *Path, endpointID string, at time.Time) (manifest.FileRecord, error) {
	relPath, err := s.relativize(path.String())
	if err != nil {
		return manifest.FileRecord{}, err
	}
	return s.markDeposited(relPath, endpointID, at)
}

func (s *DIPService) markDeposited(relPath, endpointID string, at time.Time) (manifest.FileRecord, error) {
	rec, ok := s.store.FindFile(relPath)
	if !ok {
		return manifest.FileRecord{}, fmt.Errorf("file %s: %w", relPath, ErrNotFound)
	}

	if at.IsZero() {
		at = s.clock.Now()
	}
	stamp := manifest.At(at)

	if _, ok := s.store.FindEndpoint(endpointID); !ok {
		s.logger.Warn("recording deposit for unregistered endpoint", "endpoint", endpointID)
	}

	rec.SetDeposit(manifest.DepositRecord{EndpointID: endpointID, LastDeposit: stamp})
	if err := s.store.PutFile(rec); err != nil {
		return manifest.FileRecord{}, fmt.Errorf("saving file record: %w", err)
	}

	s.logger.Info("deposit recorded", "path", relPath, "endpoint", endpointID, "at", stamp.String())
	return rec, nil
}

// relativize converts a canonical absolute path into the slash-separated
// base-relative form used as the registry key. Files outside the base
// directory produce keys with leading "../" segments.
func (s *DIPService) relativize(absPath string) (string, error) {
	rel, err := filepath.Rel(s.store.BaseDir(), absPath)
	if err != nil {
		return "", fmt.Errorf("computing relative path: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

// absolute maps a registry key back to an absolute path under the base
// directory.
func (s *DIPService) absolute(relPath string) string {
	return filepath.Join(s.store.BaseDir(), filepath.FromSlash(relPath))
}
