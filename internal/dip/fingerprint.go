package dip

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// Fingerprint computes the content hash recorded in file records: the
// SHA-256 digest of the file's bytes as a lowercase hex string. Two files
// with identical content always produce the same fingerprint.
func Fingerprint(fsmgr FilesystemManager, path *Path) (string, error) {
	if path.IsDir() {
		return "", fmt.Errorf("%s: %w", path.String(), ErrNotAFile)
	}

	f, err := fsmgr.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file for hashing: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path.String(), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
