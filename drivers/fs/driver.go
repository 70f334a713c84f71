package fs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/preservio/ocfl"
	"github.com/preservio/ocfl/pathconstraint"
)

// Driver is the local filesystem driver for OCFL
type Driver struct {
	root *ocfl.EntityRef
	cfg  Config
}

// PathFunc generates a relative, solidus delimited file path
// from a given identifier.  Path functions are used for mapping
// OCFL object identifiers to ocfl object root directories (possibly
// with intervening directories, e.g. pairtrees), as well as mapping
// file logical paths to physical paths.
type PathFunc func(id string) string

// Config encapsulates an OCFL filesystem driver config.
//
// Object and file path functions are mandatory whenever the Driver
// will be used for writes, and are optional for reads.  That being said,
// if an ObjectPathFunc is provided, it will be used for quick lookups
// of OCFL object directories.  If not provided, the driver will perform
// a brute force search through the directory tree when it needs to perform
// lookups of OCFL directories when given an object ID.
type Config struct {
	Root           string                    // ocfl root directory
	ObjectPathFunc PathFunc                  // OCFL object directories based on id
	FilePathFunc   PathFunc                  // physical file paths based on logical path
	Paths          *pathconstraint.Processor // optional screening of content paths upon write
}

// Passthrough is a basic PathFunc for creating filesystem paths that
// are identical to the input, except with any leading solidus removed.
func Passthrough(id string) string {
	return strings.TrimLeft(id, "/")
}

// NewDriver initializes a new filesystem OCFL driver with
// the given config.  If a root directory is given, it must exist
// and be an OCFL root.
func NewDriver(cfg Config) (*Driver, error) {
	if cfg.Root == "" {
		return &Driver{cfg: cfg}, nil
	}

	ok, _, err := isRoot(cfg.Root, ocfl.Root)
	if err != nil {
		return nil, errors.Wrapf(err, "could not find an OCFL root")
	}

	if !ok {
		return nil, errors.Errorf("%s is not an OCFL root", cfg.Root)
	}

	return &Driver{
		cfg: cfg,
		root: &ocfl.EntityRef{
			Type: ocfl.Root,
			Addr: cfg.Root,
		},
	}, nil
}

// InitRoot establishes an OCFL root at the given directory, creating the
// directory if necessary.  Directories that already are OCFL roots are
// left as-is.  It is an error to initialize a root in a non-empty
// directory.
func InitRoot(path string) error {
	is, _, err := isRoot(path, ocfl.Root)
	if err != nil && !os.IsNotExist(errors.Cause(err)) {
		return errors.Wrapf(err, "could not inspect %s", path)
	}

	if is {
		return nil
	}

	if err == nil {
		entries, err := os.ReadDir(path)
		if err != nil {
			return errors.Wrapf(err, "could not list %s", path)
		}
		if len(entries) > 0 {
			return errors.Errorf("refusing to initialize an OCFL root in non-empty directory %s", path)
		}
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.Wrapf(err, "could not create OCFL root directory %s", path)
	}

	decl := filepath.Join(path, ocfl.NamasteRoot)
	if err := os.WriteFile(decl, namasteContent(ocfl.NamasteRoot), 0664); err != nil {
		return errors.Wrapf(err, "could not write OCFL root declaration %s", decl)
	}

	return nil
}
