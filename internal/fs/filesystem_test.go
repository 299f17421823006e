package fs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"dip-go/internal/dip"
)

// resolveT resolves a path or fails the test.
func resolveT(t *testing.T, m *OSFilesystemManager, raw string) *dip.Path {
	t.Helper()
	p, err := m.Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve(%s) error = %v", raw, err)
	}
	return p
}

func TestOSFilesystemManager_Resolve(t *testing.T) {
	t.Run("follows symlinks to a canonical path", func(t *testing.T) {
		t.Parallel()
		m := NewOSFilesystemManager()
		dir := t.TempDir()

		real := filepath.Join(dir, "real")
		if err := os.Mkdir(real, 0755); err != nil {
			t.Fatalf("Mkdir() error = %v", err)
		}
		target := filepath.Join(real, "file.txt")
		if err := os.WriteFile(target, []byte("data"), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		link := filepath.Join(dir, "link")
		if err := os.Symlink(real, link); err != nil {
			t.Fatalf("Symlink() error = %v", err)
		}

		direct := resolveT(t, m, target)
		viaLink := resolveT(t, m, filepath.Join(link, "file.txt"))

		if direct.String() != viaLink.String() {
			t.Errorf("Resolve() direct = %q, via link = %q; want identical", direct.String(), viaLink.String())
		}
		if direct.IsDir() {
			t.Error("IsDir() = true for a regular file")
		}
	})

	t.Run("missing path", func(t *testing.T) {
		t.Parallel()
		m := NewOSFilesystemManager()

		_, err := m.Resolve(filepath.Join(t.TempDir(), "missing.txt"))
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Resolve() error = %v, want fs.ErrNotExist", err)
		}
	})

	t.Run("dangling symlink", func(t *testing.T) {
		t.Parallel()
		m := NewOSFilesystemManager()
		dir := t.TempDir()

		link := filepath.Join(dir, "dangling")
		if err := os.Symlink(filepath.Join(dir, "gone"), link); err != nil {
			t.Fatalf("Symlink() error = %v", err)
		}

		_, err := m.Resolve(link)
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Resolve() error = %v, want fs.ErrNotExist", err)
		}
	})
}

func TestOSFilesystemManager_Open(t *testing.T) {
	t.Run("reads file content", func(t *testing.T) {
		t.Parallel()
		m := NewOSFilesystemManager()
		dir := t.TempDir()

		target := filepath.Join(dir, "file.txt")
		if err := os.WriteFile(target, []byte("content"), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		f, err := m.Open(resolveT(t, m, target))
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		if string(data) != "content" {
			t.Errorf("content = %q, want %q", data, "content")
		}
	})

	t.Run("rejects directories", func(t *testing.T) {
		t.Parallel()
		m := NewOSFilesystemManager()

		if _, err := m.Open(resolveT(t, m, t.TempDir())); err == nil {
			t.Error("Open(dir) error = nil, want error")
		}
	})
}

func TestOSFilesystemManager_FindFiles(t *testing.T) {
	setup := func(t *testing.T) (*OSFilesystemManager, *dip.Path) {
		t.Helper()
		m := NewOSFilesystemManager()
		dir := t.TempDir()

		for _, name := range []string{"a.txt", "b.txt"} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
		}
		if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
			t.Fatalf("Mkdir() error = %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "sub", "c.txt"), []byte("c"), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		return m, resolveT(t, m, dir)
	}

	names := func(base *dip.Path, paths []*dip.Path) []string {
		var out []string
		for _, p := range paths {
			rel, _ := filepath.Rel(base.String(), p.String())
			out = append(out, filepath.ToSlash(rel))
		}
		return out
	}

	t.Run("non-recursive lists top-level files only", func(t *testing.T) {
		t.Parallel()
		m, base := setup(t)

		paths, err := m.FindFiles(base, false)
		if err != nil {
			t.Fatalf("FindFiles() error = %v", err)
		}

		got := names(base, paths)
		if len(got) != 2 || got[0] != "a.txt" || got[1] != "b.txt" {
			t.Errorf("FindFiles() = %v, want [a.txt b.txt]", got)
		}
	})

	t.Run("recursive descends into subdirectories", func(t *testing.T) {
		t.Parallel()
		m, base := setup(t)

		paths, err := m.FindFiles(base, true)
		if err != nil {
			t.Fatalf("FindFiles() error = %v", err)
		}

		got := names(base, paths)
		if len(got) != 3 || got[0] != "a.txt" || got[1] != "b.txt" || got[2] != "sub/c.txt" {
			t.Errorf("FindFiles() = %v, want [a.txt b.txt sub/c.txt]", got)
		}
	})

	t.Run("rejects non-directories", func(t *testing.T) {
		t.Parallel()
		m, base := setup(t)

		file := resolveT(t, m, filepath.Join(base.String(), "a.txt"))
		if _, err := m.FindFiles(file, false); err == nil {
			t.Error("FindFiles(file) error = nil, want error")
		}
	})
}

func TestOSFilesystemManager_IsIgnored(t *testing.T) {
	setup := func(t *testing.T) (*OSFilesystemManager, string) {
		t.Helper()
		m := NewOSFilesystemManager()
		dir := t.TempDir()

		for _, sub := range dip.ReservedDirs {
			if err := os.Mkdir(filepath.Join(dir, sub), 0755); err != nil {
				t.Fatalf("Mkdir() error = %v", err)
			}
		}
		base := resolveT(t, m, dir)
		return m, base.String()
	}

	check := func(t *testing.T, m *OSFilesystemManager, base, target string, want bool) {
		t.Helper()
		got, err := m.IsIgnored(resolveT(t, m, target), base)
		if err != nil {
			t.Fatalf("IsIgnored(%s) error = %v", target, err)
		}
		if got != want {
			t.Errorf("IsIgnored(%s) = %v, want %v", target, got, want)
		}
	}

	t.Run("regular content is not ignored", func(t *testing.T) {
		t.Parallel()
		m, base := setup(t)

		target := filepath.Join(base, "thesis.pdf")
		if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		check(t, m, base, target, false)
	})

	t.Run("manifest document is ignored", func(t *testing.T) {
		t.Parallel()
		m, base := setup(t)

		target := filepath.Join(base, dip.ManifestName)
		if err := os.WriteFile(target, []byte("{}"), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		check(t, m, base, target, true)
	})

	t.Run("bookkeeping subdirectories are ignored", func(t *testing.T) {
		t.Parallel()
		m, base := setup(t)

		for _, sub := range dip.ReservedDirs {
			target := filepath.Join(base, sub, "entry")
			if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			check(t, m, base, target, true)
		}
	})

	t.Run("dipignore patterns apply", func(t *testing.T) {
		t.Parallel()
		m, base := setup(t)

		if err := os.WriteFile(filepath.Join(base, IgnoreFileName), []byte("*.log\n"), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		logFile := filepath.Join(base, "debug.log")
		if err := os.WriteFile(logFile, []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		keep := filepath.Join(base, "keep.txt")
		if err := os.WriteFile(keep, []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		check(t, m, base, logFile, true)
		check(t, m, base, keep, false)
		check(t, m, base, filepath.Join(base, IgnoreFileName), true)
	})

	t.Run("paths outside the base are not ignored", func(t *testing.T) {
		t.Parallel()
		m, base := setup(t)

		outside := filepath.Join(filepath.Dir(base), "outside.txt")
		if err := os.WriteFile(outside, []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		check(t, m, base, outside, false)
	})
}
