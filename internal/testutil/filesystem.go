package testutil

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dip-go/internal/dip"
)

// MockFile represents a file in the mock filesystem.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	ModTime     time.Time
	IsDirectory bool
}

// MockFilesystemManager is an in-memory filesystem for testing. It
// supports symlinks so path-canonicalization behavior can be exercised
// without touching the real filesystem.
type MockFilesystemManager struct {
	files   map[string]*MockFile
	links   map[string]string // symlink path -> absolute target
	ignored map[string]bool   // extra ignored paths beyond the reserved layout
}

// NewMockFilesystemManager creates an empty mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{
		files:   make(map[string]*MockFile),
		links:   make(map[string]string),
		ignored: make(map[string]bool),
	}
}

// AddFile adds a regular file. Adding over an existing path replaces it
// and resets its modification time to now.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	m.files[path] = &MockFile{
		Content:     content,
		Permissions: 0644,
		ModTime:     time.Now(),
		IsDirectory: false,
	}
}

// AddDirectory adds a directory.
func (m *MockFilesystemManager) AddDirectory(path string) {
	m.files[path] = &MockFile{
		Permissions: fs.ModeDir | 0755,
		ModTime:     time.Now(),
		IsDirectory: true,
	}
}

// AddSymlink adds a symlink at path pointing to the absolute target.
// Resolve follows it; a link to a nonexistent target dangles.
func (m *MockFilesystemManager) AddSymlink(path, target string) {
	m.links[path] = target
}

// SetModTime overrides a file's modification time.
func (m *MockFilesystemManager) SetModTime(path string, t time.Time) {
	if f, ok := m.files[path]; ok {
		f.ModTime = t
	}
}

// Remove deletes a file or directory from the mock filesystem.
func (m *MockFilesystemManager) Remove(path string) {
	delete(m.files, path)
}

// Ignore marks an absolute path as ignored, as a .dipignore match would.
func (m *MockFilesystemManager) Ignore(path string) {
	m.ignored[path] = true
}

func (m *MockFilesystemManager) Resolve(rawPath string) (*dip.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, err
	}

	resolved, err := m.resolveLinks(absPath)
	if err != nil {
		return nil, err
	}

	file, ok := m.files[resolved]
	if !ok {
		return nil, fmt.Errorf("resolving %s: %w", resolved, fs.ErrNotExist)
	}

	return dip.NewPath(resolved, file.IsDirectory, m.infoFor(resolved, file)), nil
}

// resolveLinks substitutes symlinks component by component, the way the
// real resolver canonicalizes paths.
func (m *MockFilesystemManager) resolveLinks(absPath string) (string, error) {
	const maxHops = 40

	current := string(filepath.Separator)
	hops := 0
	for _, part := range strings.Split(absPath, string(filepath.Separator)) {
		if part == "" {
			continue
		}
		current = filepath.Join(current, part)
		for {
			target, ok := m.links[current]
			if !ok {
				break
			}
			hops++
			if hops > maxHops {
				return "", fmt.Errorf("too many symbolic links: %s", absPath)
			}
			current = target
		}
	}
	return current, nil
}

func (m *MockFilesystemManager) Open(path *dip.Path) (io.ReadCloser, error) {
	file, ok := m.files[path.String()]
	if !ok {
		return nil, fmt.Errorf("opening %s: %w", path.String(), fs.ErrNotExist)
	}
	if file.IsDirectory {
		return nil, fmt.Errorf("cannot open directory: %s", path.String())
	}
	return io.NopCloser(bytes.NewReader(file.Content)), nil
}

func (m *MockFilesystemManager) Stat(path *dip.Path) (fs.FileInfo, error) {
	file, ok := m.files[path.String()]
	if !ok {
		return nil, fmt.Errorf("stat %s: %w", path.String(), fs.ErrNotExist)
	}
	return m.infoFor(path.String(), file), nil
}

func (m *MockFilesystemManager) FindFiles(path *dip.Path, recursive bool) ([]*dip.Path, error) {
	if !path.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path.String())
	}

	prefix := path.String() + string(filepath.Separator)
	var names []string
	for p, f := range m.files {
		if f.IsDirectory || !strings.HasPrefix(p, prefix) {
			continue
		}
		if !recursive && strings.Contains(p[len(prefix):], string(filepath.Separator)) {
			continue
		}
		names = append(names, p)
	}
	sort.Strings(names)

	out := make([]*dip.Path, 0, len(names))
	for _, p := range names {
		resolved, err := m.Resolve(p)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

func (m *MockFilesystemManager) IsIgnored(path *dip.Path, baseDir string) (bool, error) {
	if m.ignored[path.String()] {
		return true, nil
	}

	rel, err := filepath.Rel(baseDir, path.String())
	if err != nil {
		return false, err
	}
	rel = filepath.ToSlash(rel)
	if rel == dip.ManifestName {
		return true, nil
	}
	first, _, _ := strings.Cut(rel, "/")
	for _, reserved := range dip.ReservedDirs {
		if first == reserved {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockFilesystemManager) infoFor(path string, file *MockFile) fs.FileInfo {
	return &mockFileInfo{
		name:    filepath.Base(path),
		size:    int64(len(file.Content)),
		mode:    file.Permissions,
		modTime: file.ModTime,
		isDir:   file.IsDirectory,
	}
}

// mockFileInfo implements fs.FileInfo.
type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return nil }

// Compile-time check
var _ dip.FilesystemManager = (*MockFilesystemManager)(nil)
