package testutil

import (
	"dip-go/internal/dip"
	"dip-go/internal/manifest"
	"dip-go/internal/store"
)

// NewTestStore creates an in-memory manifest store rooted at baseDir,
// with its creation time stamped from FixedClock.
func NewTestStore(baseDir string) dip.ManifestStore {
	return store.NewMemoryStore(baseDir, manifest.At(FixedClock().Now()))
}
