package fs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
	"github.com/preservio/ocfl"
	"github.com/preservio/ocfl/metadata"
)

const (
	dontGoDeeper = true
	goDeeper     = false
)

// Walk iterates the OCFL entities matching the given selector, invoking the
// callback on each.  The loc arguments determine where the walk starts: with
// no loc, it starts at the driver's configured root.  A single loc naming an
// existing file or directory is taken as a physical address.  Otherwise, loc
// is interpreted as a logical address of the form
// (objectID, versionID, logicalFilePath), truncated to the desired depth.
func (d *Driver) Walk(desired ocfl.Select, f func(ocfl.EntityRef) error, loc ...string) error {
	refs, err := d.locate(loc...)
	if err != nil {
		return errors.Wrapf(err, "could not locate %s", strings.Join(loc, ", "))
	}

	for i := range refs {
		s, err := newScope(&refs[i], desired)
		if err != nil {
			return err
		}

		if err := s.walk(f); err != nil {
			return err
		}
	}

	return nil
}

// locate maps the location arguments of a Walk to entity refs. See Walk
// for the interpretation of loc.
func (d *Driver) locate(loc ...string) ([]ocfl.EntityRef, error) {
	if len(loc) == 0 || (len(loc) == 1 && loc[0] == "") {
		if d.root == nil {
			return nil, errors.New("no ocfl root was given in the driver config")
		}
		return []ocfl.EntityRef{*d.root}, nil
	}

	if len(loc) == 1 {
		if _, err := os.Stat(loc[0]); err == nil {
			refs, _, err := resolve(loc[0])
			if err != nil {
				return nil, err
			}
			return refs, nil
		}
	}

	return d.locateLogical(loc...)
}

// locateLogical looks up entities by logical address (objectID, versionID,
// logicalFilePath) underneath the driver's root.
func (d *Driver) locateLogical(loc ...string) ([]ocfl.EntityRef, error) {
	if d.root == nil {
		return nil, errors.Errorf("cannot look up %s: no ocfl root was given in the driver config", loc[0])
	}

	object, inv, err := d.findObject(loc[0])
	if err != nil {
		return nil, err
	}
	if object == nil {
		return nil, errors.Errorf("no such object %s under %s", loc[0], d.root.Addr)
	}

	ref := object

	if len(loc) > 1 {
		if _, ok := inv.Versions[loc[1]]; !ok {
			return nil, errors.Errorf("no version %s in object %s", loc[1], loc[0])
		}

		ref = &ocfl.EntityRef{
			ID:     loc[1],
			Type:   ocfl.Version,
			Parent: object,
			Addr:   filepath.Join(object.Addr, loc[1]),
		}
	}

	if len(loc) > 2 {
		ref = &ocfl.EntityRef{
			ID:     strings.Join(loc[2:], "/"),
			Type:   ocfl.File,
			Parent: ref,
		}
	}

	return []ocfl.EntityRef{*ref}, nil
}

// errObjectFound terminates an object scan early once a match is made
var errObjectFound = errors.New("object found")

// findObject finds the OCFL object with the given ID under the driver's
// root, along with its inventory.  The ref and inventory are nil if no
// such object exists.  Lookup is direct if the driver has an object path
// function, otherwise a scan through the directory tree.
func (d *Driver) findObject(id string) (*ocfl.EntityRef, *metadata.Inventory, error) {

	if d.cfg.ObjectPathFunc != nil {
		addr := filepath.Join(d.root.Addr, d.cfg.ObjectPathFunc(id))

		is, _, err := isRoot(addr, ocfl.Object)
		if err != nil && !os.IsNotExist(errors.Cause(err)) {
			return nil, nil, errors.Wrapf(err, "error inspecting %s", addr)
		}
		if !is {
			return nil, nil, nil
		}

		inv, err := ReadInventory(addr)
		if err != nil {
			return nil, nil, err
		}

		return &ocfl.EntityRef{
			ID:     inv.ID,
			Type:   ocfl.Object,
			Parent: d.root,
			Addr:   addr,
		}, inv, nil
	}

	var found *ocfl.EntityRef

	s, err := newScope(d.root, ocfl.Select{Type: ocfl.Object})
	if err != nil {
		return nil, nil, err
	}

	err = s.walk(func(ref ocfl.EntityRef) error {
		if ref.ID == id {
			found = &ref
			return errObjectFound
		}
		return nil
	})
	if err != nil && errors.Cause(err) != errObjectFound {
		return nil, nil, errors.Wrapf(err, "error scanning for object %s", id)
	}

	if found == nil {
		return nil, nil, nil
	}

	inv, err := ReadInventory(found.Addr)
	if err != nil {
		return nil, nil, err
	}

	return found, inv, nil
}

// scope defines a bounded set of OCFL entities (e.g. everything under a given root)
type scope struct {
	root      *ocfl.EntityRef
	startFrom *ocfl.EntityRef
	desired   ocfl.Select
}

// newScope defines a scope for ocfl entities underneath the given parent entity.
// Logical choices for a parent include an OCFL root, an ocfl object, or
// an ocfl version.
func newScope(under *ocfl.EntityRef, desired ocfl.Select) (*scope, error) {
	root, err := findRoot(under, ocfl.Root)
	if err != nil {
		return nil, err
	}

	return &scope{
		root:      root,
		startFrom: under,
		desired:   desired,
	}, nil
}

// walk iterates through in-scope OCFL entities.
// Uses a two-step algorithm for iterating entities:
// (a) when starting from an ocfl root or intermediate node, walk directories until an object root is found
// (b) walk the entities in an object (versions, files) using data from the manifest rather than the filesystem
func (s *scope) walk(f func(ocfl.EntityRef) error) error {
	node := s.startFrom

	// If we're somewhere underneath an OCFL object, we need to find the path of
	// the object root in order to get its manifest and walk it.
	if node.Type == ocfl.Version || node.Type == ocfl.File {
		var err error
		node, err = findRoot(node, ocfl.Object)
		if err != nil {
			return err
		}
	}

	if node.Type == ocfl.Root && s.contains(*node) {
		err := f(*node)
		if err != nil {
			return err
		}
	}

	startPath := node.Addr
	if startPath == "" {
		startPath = s.root.Addr
	}

	// At this point, node points to an ocfl root, intermediate node, or an ocfl object root
	err := fsWalk(startPath, func(ospath string, e *godirwalk.Dirent) (bool, error) {

		// We don't care about regular files
		if !e.IsDir() && !e.IsSymlink() {
			return dontGoDeeper, nil
		}

		// An object?  If so, walk its manifest instead of the files under it
		if objectRoot, _, err := isRoot(ospath, ocfl.Object); objectRoot && err == nil {
			return dontGoDeeper, s.walkObject(ospath, f)
		} else if err != nil {
			return dontGoDeeper, err
		}

		// Skip the ocfl root itself, process intermediate nodes and continue
		if ospath != s.root.Addr {
			intermediate := ocfl.EntityRef{
				ID:     strings.TrimPrefix(filepath.ToSlash(strings.TrimPrefix(ospath, s.root.Addr)), "/"),
				Addr:   ospath,
				Type:   ocfl.Intermediate,
				Parent: s.root,
			}
			if s.contains(intermediate) {
				if err := f(intermediate); err != nil {
					return dontGoDeeper, err
				}
			}
		}

		return goDeeper, nil
	})
	if err != nil {
		return errors.Wrapf(err, "error performing walk")
	}
	return nil
}

// walkObject walks the versions and files of an object as recorded in
// its inventory
func (s *scope) walkObject(path string, f func(ocfl.EntityRef) error) error {

	inv, err := ReadInventory(path)
	if err != nil {
		return err
	}

	object := ocfl.EntityRef{
		ID:     inv.ID,
		Type:   ocfl.Object,
		Parent: s.root,
		Addr:   path,
	}

	if s.contains(object) {
		err := f(object)
		if err != nil {
			return err
		}
	}

	if s.desired.Type <= ocfl.Version {
		return s.walkVersions(inv, &object, f)
	}

	return nil
}

// walkVersions walks the versions in an OCFL inventory, in increasing
// version order
func (s *scope) walkVersions(inv *metadata.Inventory, object *ocfl.EntityRef, f func(ocfl.EntityRef) error) error {

	for _, vID := range sortedVersionIDs(inv) {

		if s.desired.Head && vID != inv.Head {
			continue
		}

		version := ocfl.EntityRef{
			ID:     vID,
			Type:   ocfl.Version,
			Parent: object,
			Addr:   filepath.Join(object.Addr, vID),
		}

		if s.contains(version) {
			err := f(version)
			if err != nil {
				return err
			}
		}

		if s.desired.Type <= ocfl.File {
			files, err := inv.Files(vID)
			if err != nil {
				return errors.Wrapf(err, "error listing files of %s in %s", vID, object.ID)
			}

			for _, file := range files {

				fileRef := ocfl.EntityRef{
					ID:     file.LogicalPath,
					Type:   ocfl.File,
					Parent: &version,
					Addr:   filepath.Join(object.Addr, filepath.FromSlash(file.PhysicalPath)),
				}

				if !s.contains(fileRef) {
					continue
				}

				err := f(fileRef)
				if err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// contains determines whether an entity falls within the scope: it must
// match the desired type, and sit at or below the scope's starting entity.
// Objects, versions, and files are compared by logical coordinates;
// intermediate nodes by physical address.
func (s scope) contains(entity ocfl.EntityRef) bool {
	if s.desired.Type != entity.Type && s.desired.Type != ocfl.Any {
		return false
	}

	start := s.startFrom

	switch start.Type {
	case ocfl.Root, ocfl.Any:
		return true
	case ocfl.Intermediate:
		return entity.Addr == start.Addr ||
			strings.HasPrefix(entity.Addr, start.Addr+string(filepath.Separator))
	default:
		return isPrefix(start.Coords(), entity.Coords())
	}
}

// isPrefix determines whether coordinate sequence a is a prefix of b
func isPrefix(a, b []string) bool {
	if len(a) > len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type skip struct {
	action godirwalk.ErrorAction
}

func (skip) Error() string {
	return "node is skipped"
}

// fsCallback is invoked each time a fs entry is encountered during a walk.
// Returns a Boolean indicating whether the current fs entry should be
// considered a terminal (leaf) node.  If true, any children will not be
// walked.  Any error will terminate a walk entirely.
type fsCallback func(ospath string, e *godirwalk.Dirent) (terminal bool, err error)

func fsWalk(dir string, f fsCallback) error {

	if _, err := os.Stat(dir); err != nil {
		return errors.Wrapf(err, "error walking directory %s", dir)
	}

	return godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(ospath string, dirent *godirwalk.Dirent) error {
			terminal, err := f(ospath, dirent)
			if err != nil {
				return errors.Wrap(err, "terminating walk due to error")
			}
			if terminal {
				return skip{godirwalk.SkipNode}
			}
			return nil
		},
		ErrorCallback: func(ospath string, err error) godirwalk.ErrorAction {
			s, skip := errors.Cause(err).(skip)
			if skip {
				return s.action
			}

			return godirwalk.Halt
		},
		Unsorted:            true,
		FollowSymbolicLinks: true,
	},
	)
}
