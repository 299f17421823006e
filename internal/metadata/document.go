// Package metadata manages the package's Dublin Core metadata document.
package metadata

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/beevik/etree"

	"dip-go/internal/dip"
	"dip-go/internal/manifest"
)

// DCTermsNamespace is the Dublin Core terms namespace declared on the
// metadata document root.
const DCTermsNamespace = "http://purl.org/dc/terms/"

// Document is the dcterms.xml metadata document of a deposit package.
// Term-level editing goes through the etree root; Document owns loading,
// the default skeleton, and atomic persistence.
type Document struct {
	path string
	doc  *etree.Document
}

// Open loads the metadata document of the package rooted at baseDir,
// creating the metadata directory and a skeleton document as needed.
func Open(baseDir string) (*Document, error) {
	path := filepath.Join(baseDir, filepath.FromSlash(manifest.DCTermsPath))

	if err := ensureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}

	d := &Document{path: path}

	info, err := os.Stat(path)
	switch {
	case err == nil && !info.Mode().IsRegular():
		return nil, fmt.Errorf("%w: %s exists and is not a regular file", dip.ErrInitialize, path)
	case err == nil:
		doc := etree.NewDocument()
		if err := doc.ReadFromFile(path); err != nil {
			return nil, fmt.Errorf("parsing metadata document %s: %w", path, err)
		}
		if doc.Root() == nil {
			return nil, fmt.Errorf("parsing metadata document %s: no root element", path)
		}
		d.doc = doc
		return d, nil
	case os.IsNotExist(err):
		d.doc = defaultDocument()
		if err := d.Save(); err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("stat metadata document: %w", err)
	}
}

// defaultDocument builds the skeleton every fresh package starts with: an
// empty metadata root with the dcterms namespace declared.
func defaultDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("metadata")
	root.CreateAttr("xmlns:dcterms", DCTermsNamespace)
	return doc
}

// Path returns the document's path on disk.
func (d *Document) Path() string { return d.path }

// Root returns the document's root element for term-level access.
func (d *Document) Root() *etree.Element { return d.doc.Root() }

// Save writes the document atomically: serialize to a temp file next to
// the document, then rename over it.
func (d *Document) Save() error {
	data, err := d.doc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("encoding metadata document: %w", err)
	}

	dir := filepath.Dir(d.path)
	tmp, err := os.CreateTemp(dir, ".dcterms-*")
	if err != nil {
		return fmt.Errorf("creating temp metadata document: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp metadata document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp metadata document: %w", err)
	}
	if err := os.Rename(tmpPath, d.path); err != nil {
		return fmt.Errorf("replacing metadata document: %w", err)
	}

	success = true
	return nil
}

// ensureDir makes sure path exists and is a directory.
func ensureDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%w: %s exists and is not a directory", dip.ErrInitialize, path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}
