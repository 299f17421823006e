package dip

import (
	"io"
	"io/fs"
)

// FilesystemManager provides an interface for filesystem operations.
// It abstracts file access to enable testing without touching the real
// filesystem.
type FilesystemManager interface {
	// Resolve validates a raw path and returns a Path object. It makes
	// the path absolute, resolves symlinks, stats the target, and
	// validates it's a regular file or directory (not a device, pipe,
	// or socket). Resolution of a nonexistent path or a dangling
	// symlink is an error.
	Resolve(rawPath string) (*Path, error)

	// Open opens a file for reading.
	Open(path *Path) (io.ReadCloser, error)

	// Stat returns fresh file info for a path.
	// Unlike path.Info(), which returns cached info from when the path
	// was resolved, this always fetches current info from the filesystem.
	Stat(path *Path) (fs.FileInfo, error)

	// FindFiles discovers regular files under the given directory.
	// When recursive is true, files in subdirectories are included.
	FindFiles(path *Path, recursive bool) ([]*Path, error)

	// IsIgnored reports whether a path inside baseDir is excluded from
	// registration, either because it is part of the package's own
	// bookkeeping (manifest, history/, packages/, metadata/) or because
	// it matches a .dipignore pattern.
	IsIgnored(path *Path, baseDir string) (bool, error)
}
