package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dip-go/internal/config"
	"dip-go/internal/dip"
	"dip-go/internal/fs"
	"dip-go/internal/manifest"
	"dip-go/internal/metadata"
	"dip-go/internal/store"
)

// DIPApp is the application layer between the CLI and DIPService.
// It opens the deposit package, exposes high-level operations that accept
// raw string paths, and owns the log file lifecycle on Close.
type DIPApp struct {
	cfg      *config.Config
	store    dip.ManifestStore
	fsmgr    dip.FilesystemManager
	metadata *metadata.Document
	service  *dip.DIPService
	logFile  *os.File
}

// NewDIPApp creates a fully wired DIPApp for the deposit package rooted
// at baseDir. When create is false the package must already exist; every
// command except initialization runs with that guard. The caller must
// call Close when done.
func NewDIPApp(cfg *config.Config, baseDir string, create bool) (*DIPApp, error) {
	if !create {
		if err := requireManifest(baseDir); err != nil {
			return nil, err
		}
	}

	fsmgr := fs.NewOSFilesystemManager()

	st, err := store.Open(baseDir, dip.RealClock{})
	if err != nil {
		return nil, fmt.Errorf("opening deposit package: %w", err)
	}

	md, err := metadata.Open(st.BaseDir())
	if err != nil {
		return nil, fmt.Errorf("opening metadata document: %w", err)
	}

	opID := NewOpID(time.Now())
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc := dip.NewDIPService(st, fsmgr, nil, nil, &slogAdapter{l: logger}, dip.RealClock{}, dip.UUIDGenerator{})

	return &DIPApp{
		cfg:      cfg,
		store:    st,
		fsmgr:    fsmgr,
		metadata: md,
		service:  svc,
		logFile:  logFile,
	}, nil
}

// requireManifest checks that baseDir holds a deposit package.
func requireManifest(baseDir string) error {
	if _, err := os.Stat(filepath.Join(baseDir, dip.ManifestName)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s is not a deposit directory (run 'dip init')", baseDir)
		}
		return fmt.Errorf("checking deposit directory: %w", err)
	}
	return nil
}

// BaseDir returns the canonical package base directory.
func (a *DIPApp) BaseDir() string { return a.service.BaseDir() }

// Created returns the package creation timestamp.
func (a *DIPApp) Created() manifest.Timestamp { return a.service.Created() }

// Metadata returns the tracked metadata document records.
func (a *DIPApp) Metadata() []manifest.MetadataRecord { return a.service.Metadata() }

// RegisterFiles resolves the given path and registers file(s) for
// tracking. A directory expands to the files it contains, skipping
// ignored entries; when recursive is true, files in subdirectories are
// included. Registering a single ignored file is an error. Returns the
// number of files registered.
func (a *DIPApp) RegisterFiles(rawPath string, recursive bool) (int, error) {
	p, err := a.fsmgr.Resolve(rawPath)
	if err != nil {
		return 0, fmt.Errorf("resolving path: %w", err)
	}

	if !p.IsDir() {
		ignored, err := a.fsmgr.IsIgnored(p, a.service.BaseDir())
		if err != nil {
			return 0, fmt.Errorf("checking ignore rules: %w", err)
		}
		if ignored {
			return 0, fmt.Errorf("%s is excluded from tracking", rawPath)
		}
		if _, err := a.service.RegisterFile(p); err != nil {
			return 0, err
		}
		return 1, nil
	}

	files, err := a.fsmgr.FindFiles(p, recursive)
	if err != nil {
		return 0, fmt.Errorf("discovering files: %w", err)
	}

	count := 0
	for _, f := range files {
		ignored, err := a.fsmgr.IsIgnored(f, a.service.BaseDir())
		if err != nil {
			return count, fmt.Errorf("checking ignore rules: %w", err)
		}
		if ignored {
			continue
		}
		if _, err := a.service.RegisterFile(f); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// DeregisterFile removes the registry record for the given path.
// The file may already be gone from disk, so resolution falls back to a
// lexical absolute path. Reports whether a record was removed.
func (a *DIPApp) DeregisterFile(rawPath string) (bool, error) {
	var absPath string
	if p, err := a.fsmgr.Resolve(rawPath); err == nil {
		absPath = p.String()
	} else {
		abs, absErr := filepath.Abs(rawPath)
		if absErr != nil {
			return false, fmt.Errorf("resolving path: %w", absErr)
		}
		absPath = abs
	}
	return a.service.DeregisterFile(absPath)
}

// ListFiles returns all registered file records.
func (a *DIPApp) ListFiles() []manifest.FileRecord {
	return a.service.Files()
}

// SetEndpoint registers or updates a deposit endpoint, filling empty
// credential and packaging fields from the configured defaults.
func (a *DIPApp) SetEndpoint(rec manifest.EndpointRecord) (manifest.EndpointRecord, error) {
	if rec.Username == "" {
		rec.Username = a.cfg.Endpoint.Username
	}
	if rec.OnBehalfOf == "" {
		rec.OnBehalfOf = a.cfg.Endpoint.OnBehalfOf
	}
	if rec.PackageFormat == "" {
		rec.PackageFormat = a.cfg.Endpoint.PackageFormat
	}
	return a.service.SetEndpoint(rec)
}

// RemoveEndpoint removes an endpoint from the registry.
func (a *DIPApp) RemoveEndpoint(id string, deleteInRepository bool) (bool, error) {
	return a.service.RemoveEndpoint(id, deleteInRepository)
}

// ListEndpoints returns all registered endpoints.
func (a *DIPApp) ListEndpoints() []manifest.EndpointRecord {
	return a.service.Endpoints()
}

// MarkDeposited records a completed deposit of the file to the endpoint.
// A zero at means "now". The file may be gone from disk; resolution falls
// back to a lexical absolute path so bookkeeping can still be corrected.
func (a *DIPApp) MarkDeposited(rawPath, endpointID string, at time.Time) (manifest.FileRecord, error) {
	p, err := a.fsmgr.Resolve(rawPath)
	if err != nil {
		abs, absErr := filepath.Abs(rawPath)
		if absErr != nil {
			return manifest.FileRecord{}, fmt.Errorf("resolving path: %w", absErr)
		}
		p = dip.NewPath(abs, false, nil)
	}
	return a.service.MarkDeposited(p, endpointID, at)
}

// Status returns the reconciliation verdicts for every tracked file.
func (a *DIPApp) Status() ([]*dip.FileState, error) {
	return a.service.GetState()
}

// Close releases the resources held by the app.
func (a *DIPApp) Close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}
