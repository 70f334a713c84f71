package validation

import "github.com/pkg/errors"

// ErrNotFound is returned by Storage.ReadAll for paths that do not exist
var ErrNotFound = errors.New("not found")

// DirEntry is one child of a listed directory
type DirEntry struct {
	Name string
	Dir  bool
}

// Storage is the read-only view of an object store that validation runs
// against.  Paths are solidus delimited and relative to the storage root.
// Implementations are provided for local filesystems and S3 compatible
// buckets; validation never writes through this interface.
type Storage interface {

	// Exists tells whether a file or directory is present at the path
	Exists(path string) (bool, error)

	// IsDirectory tells whether the path exists and is a directory
	IsDirectory(path string) (bool, error)

	// List returns the immediate children of a directory
	List(path string) ([]DirEntry, error)

	// ReadAll returns the full content of a file, or an error wrapping
	// ErrNotFound if there is none
	ReadAll(path string) ([]byte, error)
}
