package dip

import "io/fs"

// Path is a validated, canonical filesystem path with cached metadata.
// Paths are created by FilesystemManager.Resolve(), which makes the path
// absolute, resolves any symlinks, verifies it exists, and caches stat
// info from resolution time.
type Path struct {
	absPath string
	isDir   bool
	info    fs.FileInfo
}

// NewPath assembles a Path from its components. It is intended for
// FilesystemManager implementations; other callers should go through
// Resolve.
func NewPath(absPath string, isDir bool, info fs.FileInfo) *Path {
	return &Path{
		absPath: absPath,
		isDir:   isDir,
		info:    info,
	}
}

// String returns the canonical absolute path.
func (p *Path) String() string {
	return p.absPath
}

// IsDir reports whether the path points to a directory.
func (p *Path) IsDir() bool {
	return p.isDir
}

// Info returns the file info cached when the path was resolved.
// Use FilesystemManager.Stat for fresh info.
func (p *Path) Info() fs.FileInfo {
	return p.info
}
