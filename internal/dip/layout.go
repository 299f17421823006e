package dip

// ManifestName is the manifest document's filename inside the package
// base directory.
const ManifestName = "deposit-manifest"

// ReservedDirs are the bookkeeping directories guaranteed to exist inside
// every package base directory: deposit history, generated packages, and
// metadata documents. Their contents are never registered as package
// files.
var ReservedDirs = []string{"history", "packages", "metadata"}
