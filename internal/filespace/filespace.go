// Package filespace abstracts a working directory so the Packager and its
// tasks can be unit-tested without touching a real filesystem.
package filespace

import "io"

// FileSpace is the contract the Packager and its tasks use for all local
// file I/O. The production implementation (Disk) is backed by the OS
// filesystem; tests substitute an in-memory fake.
type FileSpace interface {
	// CreateTempDir creates a fresh, empty temporary directory and returns
	// its path.
	CreateTempDir() (string, error)

	// NewFile returns the path for a file named `name` inside `dir`. It does
	// not perform any I/O — the file may or may not exist yet.
	NewFile(dir, name string) string

	// OpenWriter opens path for writing, creating it (and any missing
	// directories are NOT created — dir must already exist) on first write,
	// truncating any existing content.
	OpenWriter(path string) (io.WriteCloser, error)

	// OpenReader opens path for reading.
	OpenReader(path string) (io.ReadCloser, error)

	// Exists reports whether path exists.
	Exists(path string) (bool, error)

	// Delete removes the file at path. Deleting a path that does not exist
	// is not an error.
	Delete(path string) error

	// DeleteDir removes dir and everything in it. Deleting a directory that
	// does not exist is not an error.
	DeleteDir(dir string) error

	// IsEmpty reports whether dir contains no files or subdirectories. Used
	// by tests to assert a request leaves nothing behind on failure.
	IsEmpty(dir string) (bool, error)
}
