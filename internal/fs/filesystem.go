package fs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dip-go/internal/dip"
)

// OSFilesystemManager is the real filesystem implementation of
// dip.FilesystemManager. It performs actual filesystem operations using
// the os package.
type OSFilesystemManager struct {
	mu       sync.Mutex
	matchers map[string]*IgnoreMatcher // ignore matcher per base directory
}

// NewOSFilesystemManager creates a new filesystem manager that operates
// on the real filesystem.
func NewOSFilesystemManager() *OSFilesystemManager {
	return &OSFilesystemManager{
		matchers: make(map[string]*IgnoreMatcher),
	}
}

// Resolve validates a raw path and returns its canonical Path. Symlinks
// are followed, so every spelling of a path resolves to the same Path.
// Dangling symlinks and missing paths fail with an error satisfying
// errors.Is(err, fs.ErrNotExist).
func (m *OSFilesystemManager) Resolve(rawPath string) (*dip.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	canonical, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", absPath, err)
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	// Content tracking only makes sense for regular files and the
	// directories that hold them.
	mode := info.Mode()
	if mode&os.ModeDevice != 0 {
		return nil, fmt.Errorf("device file %s: %w", canonical, dip.ErrNotAFile)
	}
	if mode&os.ModeNamedPipe != 0 {
		return nil, fmt.Errorf("named pipe %s: %w", canonical, dip.ErrNotAFile)
	}
	if mode&os.ModeSocket != 0 {
		return nil, fmt.Errorf("socket %s: %w", canonical, dip.ErrNotAFile)
	}

	return dip.NewPath(canonical, info.IsDir(), info), nil
}

// Open opens a file for reading.
func (m *OSFilesystemManager) Open(path *dip.Path) (io.ReadCloser, error) {
	if path.IsDir() {
		return nil, fmt.Errorf("cannot open directory as file: %s", path.String())
	}
	return os.Open(path.String())
}

// Stat returns fresh file info for a path.
func (m *OSFilesystemManager) Stat(path *dip.Path) (fs.FileInfo, error) {
	return os.Stat(path.String())
}

// FindFiles discovers regular files under the given directory path.
// Ignore rules are not applied here; callers filter through IsIgnored.
func (m *OSFilesystemManager) FindFiles(path *dip.Path, recursive bool) ([]*dip.Path, error) {
	if !path.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path.String())
	}

	var paths []*dip.Path

	if recursive {
		err := filepath.WalkDir(path.String(), func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return fmt.Errorf("stat %s: %w", p, err)
			}
			paths = append(paths, dip.NewPath(p, false, info))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking directory: %w", err)
		}
	} else {
		entries, err := os.ReadDir(path.String())
		if err != nil {
			return nil, fmt.Errorf("reading directory: %w", err)
		}
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
			}
			fullPath := filepath.Join(path.String(), entry.Name())
			paths = append(paths, dip.NewPath(fullPath, false, info))
		}
	}

	return paths, nil
}

// IsIgnored reports whether the path is excluded from tracking within the
// package rooted at baseDir. The manifest document, the bookkeeping
// subdirectories, and anything matched by the package's .dipignore file
// are excluded. Paths outside baseDir are never ignored.
func (m *OSFilesystemManager) IsIgnored(path *dip.Path, baseDir string) (bool, error) {
	rel, err := filepath.Rel(baseDir, path.String())
	if err != nil {
		return false, fmt.Errorf("computing relative path: %w", err)
	}

	slashed := filepath.ToSlash(rel)
	if slashed == ".." || strings.HasPrefix(slashed, "../") {
		// Files tracked by reference from outside the package are not
		// subject to its ignore rules.
		return false, nil
	}
	if slashed == dip.ManifestName {
		return true, nil
	}
	first, _, _ := strings.Cut(slashed, "/")
	for _, reserved := range dip.ReservedDirs {
		if first == reserved {
			return true, nil
		}
	}

	matcher, err := m.matcherFor(baseDir)
	if err != nil {
		return false, err
	}
	return matcher.Match(rel), nil
}

// matcherFor returns the ignore matcher for baseDir, loading the
// package's .dipignore file on first use.
func (m *OSFilesystemManager) matcherFor(baseDir string) (*IgnoreMatcher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if matcher, ok := m.matchers[baseDir]; ok {
		return matcher, nil
	}

	patterns, err := ParseIgnoreFile(filepath.Join(baseDir, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	matcher := NewIgnoreMatcher(append(append([]string{}, defaultIgnorePatterns...), patterns...))
	m.matchers[baseDir] = matcher
	return matcher, nil
}

// Compile-time check that OSFilesystemManager implements dip.FilesystemManager
var _ dip.FilesystemManager = (*OSFilesystemManager)(nil)
