package dip_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"dip-go/internal/dip"
	"dip-go/internal/manifest"
	"dip-go/internal/testutil"
)

// testBase is the package base directory used by the mock filesystem.
const testBase = "/home/user/thesis-dip"

// newTestParts builds the common fixture: an in-memory store rooted at
// testBase, a mock filesystem containing the base directory, and a stub
// clock. Tests assemble services from these with whatever transport and
// packager they need.
func newTestParts(t *testing.T) (dip.ManifestStore, *testutil.MockFilesystemManager, *testutil.StubClock) {
	t.Helper()
	st := testutil.NewTestStore(testBase)
	fsmgr := testutil.NewMockFilesystemManager()
	fsmgr.AddDirectory(testBase)
	return st, fsmgr, testutil.FixedClock()
}

func newTestService(st dip.ManifestStore, fsmgr *testutil.MockFilesystemManager, clock *testutil.StubClock) *dip.DIPService {
	return dip.NewDIPService(st, fsmgr, nil, nil, dip.NewNopLogger(), clock, testutil.NewStubIDGenerator())
}

func TestDIPService_RegisterFile(t *testing.T) {
	t.Run("registers a new file", func(t *testing.T) {
		t.Parallel()
		st, fsmgr, clock := newTestParts(t)
		svc := newTestService(st, fsmgr, clock)

		content := []byte("hello world")
		fsmgr.AddFile(testBase+"/docs/a.txt", content)

		path, err := fsmgr.Resolve(testBase + "/docs/a.txt")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		rec, err := svc.RegisterFile(path)
		if err != nil {
			t.Fatalf("RegisterFile() error = %v", err)
		}

		if rec.Path != "docs/a.txt" {
			t.Errorf("Path = %q, want %q", rec.Path, "docs/a.txt")
		}
		if want := testutil.SHA256Hex(content); rec.ContentHash != want {
			t.Errorf("ContentHash = %q, want %q", rec.ContentHash, want)
		}
		now := manifest.At(clock.Now())
		if !rec.AddedAt.Equal(now) || !rec.UpdatedAt.Equal(now) {
			t.Errorf("timestamps = %v/%v, want %v", rec.AddedAt, rec.UpdatedAt, now)
		}
		if len(rec.Deposits) != 0 {
			t.Errorf("Deposits = %v, want empty", rec.Deposits)
		}

		if _, ok := st.FindFile("docs/a.txt"); !ok {
			t.Error("record not persisted in store")
		}
	})

	t.Run("rejects directories", func(t *testing.T) {
		t.Parallel()
		st, fsmgr, clock := newTestParts(t)
		svc := newTestService(st, fsmgr, clock)

		path, _ := fsmgr.Resolve(testBase)
		_, err := svc.RegisterFile(path)
		if !errors.Is(err, dip.ErrNotAFile) {
			t.Errorf("RegisterFile(dir) error = %v, want ErrNotAFile", err)
		}
	})

	t.Run("refresh preserves addedAt and deposit log", func(t *testing.T) {
		t.Parallel()
		st, fsmgr, clock := newTestParts(t)
		svc := newTestService(st, fsmgr, clock)

		fsmgr.AddFile(testBase+"/a.txt", []byte("v1"))
		path, _ := fsmgr.Resolve(testBase + "/a.txt")
		first, err := svc.RegisterFile(path)
		if err != nil {
			t.Fatalf("RegisterFile() error = %v", err)
		}
		if _, err := svc.MarkDeposited(path, "ep-1", clock.Now()); err != nil {
			t.Fatalf("MarkDeposited() error = %v", err)
		}

		clock.Advance(2 * time.Hour)
		fsmgr.AddFile(testBase+"/a.txt", []byte("v2"))
		path, _ = fsmgr.Resolve(testBase + "/a.txt")

		second, err := svc.RegisterFile(path)
		if err != nil {
			t.Fatalf("second RegisterFile() error = %v", err)
		}

		if !second.AddedAt.Equal(first.AddedAt) {
			t.Errorf("AddedAt = %v, want preserved %v", second.AddedAt, first.AddedAt)
		}
		if !second.UpdatedAt.After(first.UpdatedAt) {
			t.Errorf("UpdatedAt = %v, want after %v", second.UpdatedAt, first.UpdatedAt)
		}
		if want := testutil.SHA256Hex([]byte("v2")); second.ContentHash != want {
			t.Errorf("ContentHash = %q, want %q", second.ContentHash, want)
		}
		if _, ok := second.Deposit("ep-1"); !ok {
			t.Error("deposit log lost on refresh")
		}
		if got := len(svc.Files()); got != 1 {
			t.Errorf("len(Files()) = %d, want 1", got)
		}
	})

	t.Run("symlinked spellings collapse to one record", func(t *testing.T) {
		t.Parallel()
		st, fsmgr, clock := newTestParts(t)
		svc := newTestService(st, fsmgr, clock)

		fsmgr.AddDirectory(testBase + "/real")
		fsmgr.AddFile(testBase+"/real/file.txt", []byte("data"))
		fsmgr.AddSymlink(testBase+"/link", testBase+"/real")

		viaLink, err := fsmgr.Resolve(testBase + "/link/file.txt")
		if err != nil {
			t.Fatalf("Resolve(link) error = %v", err)
		}
		if _, err := svc.RegisterFile(viaLink); err != nil {
			t.Fatalf("RegisterFile(link) error = %v", err)
		}

		direct, _ := fsmgr.Resolve(testBase + "/real/file.txt")
		if _, err := svc.RegisterFile(direct); err != nil {
			t.Fatalf("RegisterFile(direct) error = %v", err)
		}

		files := svc.Files()
		if len(files) != 1 {
			t.Fatalf("len(Files()) = %d, want 1", len(files))
		}
		if files[0].Path != "real/file.txt" {
			t.Errorf("Path = %q, want %q", files[0].Path, "real/file.txt")
		}
	})

	t.Run("accepts files outside the base directory", func(t *testing.T) {
		t.Parallel()
		st, fsmgr, clock := newTestParts(t)
		svc := newTestService(st, fsmgr, clock)

		fsmgr.AddFile("/home/user/external.txt", []byte("out"))
		path, _ := fsmgr.Resolve("/home/user/external.txt")

		rec, err := svc.RegisterFile(path)
		if err != nil {
			t.Fatalf("RegisterFile() error = %v", err)
		}
		if rec.Path != "../external.txt" {
			t.Errorf("Path = %q, want %q", rec.Path, "../external.txt")
		}
	})
}

func TestDIPService_DeregisterFile(t *testing.T) {
	t.Run("removes a registered file", func(t *testing.T) {
		t.Parallel()
		st, fsmgr, clock := newTestParts(t)
		svc := newTestService(st, fsmgr, clock)

		fsmgr.AddFile(testBase+"/a.txt", []byte("data"))
		path, _ := fsmgr.Resolve(testBase + "/a.txt")
		if _, err := svc.RegisterFile(path); err != nil {
			t.Fatalf("RegisterFile() error = %v", err)
		}

		removed, err := svc.DeregisterFile(path.String())
		if err != nil {
			t.Fatalf("DeregisterFile() error = %v", err)
		}
		if !removed {
			t.Error("DeregisterFile() = false, want true")
		}
		if got := len(svc.Files()); got != 0 {
			t.Errorf("len(Files()) = %d, want 0", got)
		}
	})

	t.Run("unknown path is a no-op", func(t *testing.T) {
		t.Parallel()
		st, fsmgr, clock := newTestParts(t)
		svc := newTestService(st, fsmgr, clock)

		removed, err := svc.DeregisterFile(filepath.Join(testBase, "never-added.txt"))
		if err != nil {
			t.Fatalf("DeregisterFile() error = %v", err)
		}
		if removed {
			t.Error("DeregisterFile() = true, want false")
		}
	})

	t.Run("works for files gone from disk", func(t *testing.T) {
		t.Parallel()
		st, fsmgr, clock := newTestParts(t)
		svc := newTestService(st, fsmgr, clock)

		fsmgr.AddFile(testBase+"/a.txt", []byte("data"))
		path, _ := fsmgr.Resolve(testBase + "/a.txt")
		if _, err := svc.RegisterFile(path); err != nil {
			t.Fatalf("RegisterFile() error = %v", err)
		}
		fsmgr.Remove(testBase + "/a.txt")

		removed, err := svc.DeregisterFile(path.String())
		if err != nil {
			t.Fatalf("DeregisterFile() error = %v", err)
		}
		if !removed {
			t.Error("DeregisterFile() = false, want true")
		}
	})
}

func TestDIPService_FindFile(t *testing.T) {
	t.Run("finds a record through any spelling", func(t *testing.T) {
		t.Parallel()
		st, fsmgr, clock := newTestParts(t)
		svc := newTestService(st, fsmgr, clock)

		fsmgr.AddDirectory(testBase + "/real")
		fsmgr.AddFile(testBase+"/real/file.txt", []byte("data"))
		fsmgr.AddSymlink(testBase+"/link", testBase+"/real")

		direct, _ := fsmgr.Resolve(testBase + "/real/file.txt")
		if _, err := svc.RegisterFile(direct); err != nil {
			t.Fatalf("RegisterFile() error = %v", err)
		}

		viaLink, _ := fsmgr.Resolve(testBase + "/link/file.txt")
		rec, ok, err := svc.FindFile(viaLink)
		if err != nil {
			t.Fatalf("FindFile() error = %v", err)
		}
		if !ok {
			t.Fatal("FindFile() ok = false, want true")
		}
		if rec.Path != "real/file.txt" {
			t.Errorf("Path = %q, want %q", rec.Path, "real/file.txt")
		}
	})

	t.Run("reports absence", func(t *testing.T) {
		t.Parallel()
		st, fsmgr, clock := newTestParts(t)
		svc := newTestService(st, fsmgr, clock)

		fsmgr.AddFile(testBase+"/a.txt", []byte("data"))
		path, _ := fsmgr.Resolve(testBase + "/a.txt")

		_, ok, err := svc.FindFile(path)
		if err != nil {
			t.Fatalf("FindFile() error = %v", err)
		}
		if ok {
			t.Error("FindFile() ok = true for unregistered file")
		}
	})
}

func TestDIPService_MarkDeposited(t *testing.T) {
	setup := func(t *testing.T) (*dip.DIPService, *testutil.MockFilesystemManager, *testutil.StubClock, *dip.Path) {
		t.Helper()
		st, fsmgr, clock := newTestParts(t)
		svc := newTestService(st, fsmgr, clock)
		fsmgr.AddFile(testBase+"/a.txt", []byte("data"))
		path, _ := fsmgr.Resolve(testBase + "/a.txt")
		if _, err := svc.RegisterFile(path); err != nil {
			t.Fatalf("RegisterFile() error = %v", err)
		}
		return svc, fsmgr, clock, path
	}

	t.Run("records a deposit with an explicit time", func(t *testing.T) {
		t.Parallel()
		svc, _, _, path := setup(t)

		at := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
		rec, err := svc.MarkDeposited(path, "ep-1", at)
		if err != nil {
			t.Fatalf("MarkDeposited() error = %v", err)
		}

		dep, ok := rec.Deposit("ep-1")
		if !ok {
			t.Fatal("deposit entry missing")
		}
		if !dep.LastDeposit.Equal(manifest.At(at)) {
			t.Errorf("LastDeposit = %v, want %v", dep.LastDeposit, manifest.At(at))
		}
	})

	t.Run("zero time means now", func(t *testing.T) {
		t.Parallel()
		svc, _, clock, path := setup(t)

		rec, err := svc.MarkDeposited(path, "ep-1", time.Time{})
		if err != nil {
			t.Fatalf("MarkDeposited() error = %v", err)
		}
		dep, _ := rec.Deposit("ep-1")
		if !dep.LastDeposit.Equal(manifest.At(clock.Now())) {
			t.Errorf("LastDeposit = %v, want clock time %v", dep.LastDeposit, manifest.At(clock.Now()))
		}
	})

	t.Run("overwrites the entry for the same endpoint", func(t *testing.T) {
		t.Parallel()
		svc, _, clock, path := setup(t)

		if _, err := svc.MarkDeposited(path, "ep-1", clock.Now()); err != nil {
			t.Fatalf("MarkDeposited() error = %v", err)
		}
		clock.Advance(time.Hour)
		rec, err := svc.MarkDeposited(path, "ep-1", clock.Now())
		if err != nil {
			t.Fatalf("second MarkDeposited() error = %v", err)
		}

		if len(rec.Deposits) != 1 {
			t.Fatalf("len(Deposits) = %d, want 1", len(rec.Deposits))
		}
		if !rec.Deposits[0].LastDeposit.Equal(manifest.At(clock.Now())) {
			t.Errorf("LastDeposit = %v, want %v", rec.Deposits[0].LastDeposit, manifest.At(clock.Now()))
		}
	})

	t.Run("unregistered file errors", func(t *testing.T) {
		t.Parallel()
		st, fsmgr, clock := newTestParts(t)
		svc := newTestService(st, fsmgr, clock)

		fsmgr.AddFile(testBase+"/b.txt", []byte("data"))
		path, _ := fsmgr.Resolve(testBase + "/b.txt")

		_, err := svc.MarkDeposited(path, "ep-1", clock.Now())
		if !errors.Is(err, dip.ErrNotFound) {
			t.Errorf("MarkDeposited() error = %v, want ErrNotFound", err)
		}
	})
}

func TestDIPService_PackageInfo(t *testing.T) {
	t.Parallel()
	st, fsmgr, clock := newTestParts(t)
	svc := newTestService(st, fsmgr, clock)

	if got := svc.BaseDir(); got != testBase {
		t.Errorf("BaseDir() = %q, want %q", got, testBase)
	}
	if got := svc.Created(); !got.Equal(manifest.At(clock.Now())) {
		t.Errorf("Created() = %v, want %v", got, manifest.At(clock.Now()))
	}

	md := svc.Metadata()
	if len(md) != 1 || md[0].Path != manifest.DCTermsPath {
		t.Errorf("Metadata() = %+v, want the dcterms placeholder", md)
	}
}
