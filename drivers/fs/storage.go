package fs

import (
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/preservio/ocfl/validation"
)

// Store adapts a local directory tree to the validation.Storage interface.
// Paths given to Store methods are solidus delimited and relative to the
// store's root directory; they may not escape it.
type Store struct {
	root string
}

// NewStore returns a read-only storage view rooted at the given directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// ospath maps a solidus delimited storage path onto the local filesystem
func (s *Store) ospath(p string) string {
	return filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+p)))
}

// Exists tells whether a file or directory is present at the path
func (s *Store) Exists(p string) (bool, error) {
	_, err := os.Stat(s.ospath(p))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "could not stat %s", p)
	}
	return true, nil
}

// IsDirectory tells whether the path exists and is a directory
func (s *Store) IsDirectory(p string) (bool, error) {
	fi, err := os.Stat(s.ospath(p))
	if os.IsNotExist(err) {
		return false, errors.Wrapf(validation.ErrNotFound, "no such directory %s", p)
	}
	if err != nil {
		return false, errors.Wrapf(err, "could not stat %s", p)
	}
	return fi.IsDir(), nil
}

// List returns the immediate children of a directory, sorted by name
func (s *Store) List(p string) ([]validation.DirEntry, error) {
	entries, err := os.ReadDir(s.ospath(p))
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(validation.ErrNotFound, "no such directory %s", p)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not list %s", p)
	}

	listing := make([]validation.DirEntry, 0, len(entries))
	for _, e := range entries {
		listing = append(listing, validation.DirEntry{Name: e.Name(), Dir: e.IsDir()})
	}
	return listing, nil
}

// ReadAll returns the full content of a file
func (s *Store) ReadAll(p string) ([]byte, error) {
	b, err := os.ReadFile(s.ospath(p))
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(validation.ErrNotFound, "no such file %s", p)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not read %s", p)
	}
	return b, nil
}
