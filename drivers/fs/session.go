package fs

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/preservio/ocfl"
	"github.com/preservio/ocfl/metadata"
)

type session struct {
	sync.Mutex
	driver     *Driver
	opts       ocfl.Options
	inventory  *metadata.Inventory
	version    *ocfl.EntityRef
	contentDir string
	commitfunc func() error
}

// Open creates a session providing read/write access to the specified
// OCFL object.
func (d *Driver) Open(id string, opts ocfl.Options) (sess ocfl.Session, err error) {

	if d.root == nil {
		return nil, errors.New("no ocfl root was given in the driver config")
	}

	s := &session{
		driver: d,
		opts:   opts,
	}

	// See if an object already exists
	obj, inv, err := d.findObject(id)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read object %s", id)
	}
	s.inventory = inv

	// If it does not exist, and opts.Create is false, then this is a problem
	if obj == nil && !opts.Create {
		return nil, errors.Errorf("object does not exist: %s", id)
	}

	// If it does not exist, and the intent is Create, then create an empty object
	if obj == nil {
		err := s.initObject(id)
		if err != nil {
			return nil, errors.Wrapf(err, "could not initialize new object %s", id)
		}
		return s, nil
	}

	// If the intent is to create a new version for writes, then prepare the new version
	if opts.Version == ocfl.NEW {
		err := s.nextVersion(obj)
		if err != nil {
			return nil, errors.Wrapf(err, "error initializing new version of %s", id)
		}
		return s, nil
	}

	// Otherwise, open the specific desired version
	err = s.openVersion(obj, opts.Version)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open version %s of %s", opts.Version, id)
	}

	return s, nil
}

// initObject initializes a new object by:
// (a) creating its OCFL directory WITHOUT a namaste file (it's not valid until committed)
// (b) setting up v1 and its content directories
// (c) defining commit functions to write the inventory, and write the namaste
func (s *session) initObject(id string) error {

	if s.driver.cfg.ObjectPathFunc == nil {
		return errors.New("no object path generation function given!  (check driver config)")
	}

	objdir, err := filepath.Abs(filepath.Join(s.driver.root.Addr, s.driver.cfg.ObjectPathFunc(id)))
	if err != nil {
		return errors.Wrapf(err, "could not calculate absolute path of object dir %s", s.driver.cfg.ObjectPathFunc(id))
	}

	err = os.MkdirAll(objdir, 0755)
	if err != nil {
		return errors.Wrapf(err, "could not create OCFL object directory")
	}

	s.inventory = metadata.NewInventory(id)

	err = s.setupVersion(&ocfl.EntityRef{
		Type:   ocfl.Object,
		ID:     id,
		Addr:   objdir,
		Parent: s.driver.root,
	}, "", metadata.VersionID(s.inventory.Head))
	if err != nil {
		return err
	}

	s.commitfunc = func() (err error) {
		if err = s.writeAllInventories(); err == nil {
			err = s.writeNamaste()
		}
		return errors.Wrapf(err, "could not initialize new object %s", id)
	}

	return nil
}

// nextVersion increments the version in the inventory, and sets it up for writing
func (s *session) nextVersion(obj *ocfl.EntityRef) error {

	prev := metadata.VersionID(s.inventory.Head)
	next, err := prev.Increment()
	if err != nil {
		return errors.Errorf("error incrementing version '%s'", s.inventory.Head)
	}

	err = s.setupVersion(obj, prev, next)
	if err != nil {
		return errors.Wrapf(err, "could not create version %s of %s", next, obj.ID)
	}

	err = s.prepareWrite()
	if err != nil {
		return errors.Wrapf(err, "could not prepare object %s for writing", obj.ID)
	}

	return nil
}

// setupVersion initializes the content directory and version EntityRef when
// creating a new version.
func (s *session) setupVersion(obj *ocfl.EntityRef, prev, next metadata.VersionID) error {

	if !next.Valid() {
		return errors.Errorf("bad version number %s", next)
	}

	s.version = &ocfl.EntityRef{
		Type:   ocfl.Version,
		Parent: obj,
		ID:     string(next),
		Addr:   filepath.Join(obj.Addr, string(next)),
	}
	s.contentDir = filepath.Join(s.version.Addr, s.inventory.ContentDir())

	err := os.MkdirAll(s.contentDir, 0755)
	if err != nil {
		return errors.Wrapf(err, "error creating content directory %s", s.contentDir)
	}

	s.inventory.Head = string(next)

	// Carry the previous version's state forward into the new version
	if prevVersion, ok := s.inventory.Versions[string(prev)]; ok {
		prevState := prevVersion.State
		s.inventory.Versions[string(next)] = metadata.Version{
			State: make(metadata.Manifest, len(prevState)),
		}

		nextState := s.inventory.Versions[string(next)].State

		for k, v := range prevState {
			nextState[k] = append([]string(nil), v...)
		}
	} else {
		s.inventory.Versions[string(next)] = metadata.Version{
			State: metadata.Manifest{},
		}
	}

	return nil
}

// prepareWrite readies the object for writing, if it isn't already.
// Make sure the version is legit (either HEAD, or a new version),
// and make sure a commit function to write the inventory is set, if
// it hasn't been done already.
func (s *session) prepareWrite() error {
	if s.driver.cfg.FilePathFunc == nil {
		return errors.New("no file path function given, refusing to write")
	}

	if s.commitfunc != nil { // It's already prepared for write
		return nil
	}

	desired, _ := metadata.VersionID(s.version.ID).Int()
	head, _ := metadata.VersionID(s.inventory.Head).Int()

	if desired < head {
		return errors.Errorf("cannot write to past revision %s; latest is %s", s.version.ID, s.inventory.Head)
	}

	s.commitfunc = s.writeAllInventories
	return nil
}

// writeAllInventories writes the inventory and its digest sidecar in the
// version directory, and copies both into the ocfl object root
func (s *session) writeAllInventories() error {
	err := s.writeInventory(s.version.Addr)
	if err == nil {
		err = copyInventoryFiles(s.version.Addr, s.version.Parent.Addr, s.inventory.DigestAlgorithm)
	}
	return err
}

// copyInventoryFiles safely copies inventory and sidecar files from one directory
// into another
func copyInventoryFiles(src, dest string, alg metadata.DigestAlgorithm) (err error) {

	names := []string{metadata.InventoryFile, metadata.SidecarName(alg)}

	for _, name := range names {
		err := copyFile(filepath.Join(src, name), filepath.Join(dest, name))
		if err != nil {
			return errors.Wrapf(err, "error copying %s from %s to %s", name, src, dest)
		}
	}

	return nil
}

func copyFile(src, dest string) (err error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	destWrite, err := AtomicWrite(dest)
	if err != nil {
		return err
	}
	defer func() {
		if e := destWrite.Rollback(); e != nil && err == nil {
			err = errors.Wrapf(e, "error rolling back write to %s", dest)
		}
	}()

	if _, err = io.Copy(destWrite, srcFile); err != nil {
		return err
	}

	return destWrite.Close()
}

// writeInventory writes the inventory into the given directory, along with
// a sidecar file containing its digest under the inventory's algorithm
func (s *session) writeInventory(dir string) (err error) {

	hash, err := s.inventory.DigestAlgorithm.New()
	if err != nil {
		return errors.Wrapf(err, "cannot digest inventory of %s", s.inventory.ID)
	}

	invName := filepath.Join(dir, metadata.InventoryFile)
	invWriter, err := AtomicWrite(invName)
	if err != nil {
		return errors.Wrapf(err, "could not initialize write to inventory file %s", invName)
	}
	defer func() {
		if e := invWriter.Rollback(); e != nil && err == nil {
			err = errors.Wrapf(e, "error rolling back write to %s", invName)
		}
	}()

	err = s.inventory.Serialize(io.MultiWriter(invWriter, hash))
	if err != nil {
		return errors.Wrapf(err, "error writing version inventory at %s", invName)
	}

	err = invWriter.Close()
	if err != nil {
		return errors.Wrapf(err, "error finalizing inventory at %s", invName)
	}

	sidecarName := filepath.Join(dir, metadata.SidecarName(s.inventory.DigestAlgorithm))
	sidecar := fmt.Sprintf("%s  %s\n", hex.EncodeToString(hash.Sum(nil)), metadata.InventoryFile)
	err = os.WriteFile(sidecarName, []byte(sidecar), 0664)

	return errors.Wrapf(err, "could not write inventory sidecar at %s", sidecarName)
}

func (s *session) writeNamaste() error {
	namasteFile := filepath.Join(s.version.Parent.Addr, ocfl.NamasteObject)
	return os.WriteFile(namasteFile, namasteContent(ocfl.NamasteObject), 0664)
}

func (s *session) openVersion(obj *ocfl.EntityRef, v string) error {
	if v == ocfl.HEAD {
		v = s.inventory.Head
	}

	_, ok := s.inventory.Versions[v]
	if !ok {
		return errors.Errorf("no version %s present in %s", v, obj.ID)
	}

	s.version = &ocfl.EntityRef{
		Type:   ocfl.Version,
		ID:     v,
		Addr:   filepath.Join(obj.Addr, v),
		Parent: obj,
	}
	s.contentDir = filepath.Join(s.version.Addr, s.inventory.ContentDir())

	return nil
}

// filePaths computes the object relative (e.g. v1/content/path/to/file), and
// absolute physical paths for a given logical path.
func (s *session) filePaths(lpath string) (objectRelative, absolute string) {
	contentRelative := strings.TrimLeft(s.driver.cfg.FilePathFunc(lpath), "/")
	absolute = filepath.Join(s.contentDir, contentRelative)
	objectRelative = strings.TrimLeft(filepath.ToSlash(strings.TrimPrefix(absolute, s.version.Parent.Addr)), "/")

	return objectRelative, absolute
}

// Put (safely) writes the content of the reader to the filesystem, and
// keeps track of pending changes to the inventory to be persisted
// upon Commit().
//
// This attempts a "safe" put which performs a write-to-temp-then-rename
// if it is overwriting an existing file.  If an error is encountered, it
// attempts cleanup by removing any written files.
func (s *session) Put(lpath string, r io.Reader) (err error) {
	err = s.prepareWrite()
	if err != nil {
		return errors.Wrapf(err, "could not put %s into %s", lpath, s.version.Parent.ID)
	}

	relpath, ppath := s.filePaths(lpath)

	if s.driver.cfg.Paths != nil {
		violations := s.driver.cfg.Paths.Apply(relpath, ppath)
		if len(violations) > 0 {
			return errors.Errorf("content path %s %s", violations[0].Path, violations[0].Detail)
		}
	}

	fw, err := SafeWrite(ppath)
	if err != nil {
		return errors.Wrapf(err, "could not create file %s for %s", ppath, lpath)
	}
	defer func() {
		if e := fw.Rollback(); e != nil && err == nil {
			err = errors.Wrapf(e, "error rolling back write to %s", ppath)
		}
	}()

	hash, err := s.inventory.DigestAlgorithm.New()
	if err != nil {
		return errors.Wrapf(err, "cannot digest content of %s", lpath)
	}

	_, err = io.Copy(io.MultiWriter(fw, hash), r)
	if err != nil {
		return errors.Wrapf(err, "could not copy content to filesystem")
	}

	s.Lock()
	defer s.Unlock()

	err = fw.Close()
	if err != nil {
		return errors.Wrapf(err, "error finalizing content for %s at %s", lpath, ppath)
	}

	return s.inventory.PutFile(lpath, relpath, metadata.Digest(hex.EncodeToString(hash.Sum(nil))))
}

// Commit finalizes the version under edit, stamping it with the given
// commit metadata and persisting any inventory changes.
func (s *session) Commit(commit ocfl.CommitInfo) error {
	s.Lock()
	defer s.Unlock()

	created := commit.Date
	if created.IsZero() {
		created = time.Now()
	}

	v := s.inventory.Versions[s.inventory.Head]
	v.Created = created.UTC().Truncate(time.Millisecond)
	v.Message = commit.Message
	v.User = metadata.User{
		Name:    commit.Name,
		Address: commit.Address,
	}
	s.inventory.Versions[s.inventory.Head] = v

	if s.commitfunc != nil {
		err := s.commitfunc()
		if err != nil {
			return errors.Wrapf(err, "could not commit %s %s", s.version.Parent.ID, s.version.ID)
		}
	}
	return nil
}
