// Package validation checks OCFL objects for conformance with the OCFL
// 1.0 specification.  A Validator reads an object tree through the
// Storage interface, inspects its version declaration, inventories,
// sidecars, version directories, and content files, and reports every
// problem it finds as a coded issue rather than stopping at the first.
package validation

import (
	"path"
	"sort"
	"strings"

	"github.com/preservio/ocfl"
	"github.com/preservio/ocfl/metadata"
	"github.com/preservio/ocfl/pathconstraint"
)

const extensionsDir = "extensions"

// registeredExtensions are the community extension names an object may
// carry under extensions/ without drawing a warning
var registeredExtensions = map[string]bool{
	"0001-digest-algorithms":                  true,
	"0002-flat-direct-storage-layout":         true,
	"0003-hash-and-id-n-tuple-storage-layout": true,
	"0004-hashed-n-tuple-storage-layout":      true,
	"0005-mutable-head":                       true,
	"0006-flat-omit-prefix-storage-layout":    true,
	"0007-n-tuple-omit-prefix-storage-layout": true,
	"0008-schema-registry":                    true,
}

// Validator checks OCFL objects read from a Storage
type Validator struct {

	// Store is where object trees are read from
	Store Storage

	// Paths screens manifest content paths for portability over and
	// above the baseline constraints; nil applies the baseline only
	Paths *pathconstraint.Processor

	// SkipFixity disables recomputing content file digests, which is
	// the expensive part of a validation pass
	SkipFixity bool
}

// New returns a Validator reading from the given storage, with fixity
// checking on and no extra content path constraints
func New(store Storage) *Validator {
	return &Validator{Store: store}
}

// ValidateObject checks the OCFL object rooted at the given path and
// returns everything wrong with it.  Validation continues past errors
// so a single pass reports all of an object's problems; the returned
// Results orders issues deterministically for the same object state.
func (v *Validator) ValidateObject(root string) *Results {
	r := &Results{}

	entries, err := v.Store.List(root)
	if err != nil {
		r.add(E001, "Object root %s is inaccessible: %s", root, err)
		return r
	}
	sortEntries(entries)

	v.checkDeclaration(root, entries, r)
	rootInv, rootBytes := v.checkRootInventory(root, entries, r)
	v.checkRootListing(root, entries, rootInv, r)
	v.checkExtensions(root, entries, r)

	dirs := versionDirs(entries)
	v.validateVersionDirs(root, dirs, rootInv, rootBytes, r)
	v.reconcileManifest(root, rootInv, dirs, r)
	v.screenContentPaths(root, rootInv, r)
	v.verifyFixity(root, rootInv, r)

	return r
}

// checkDeclaration verifies the namaste file marking the root as an
// OCFL object.  Its content should be the declaration name without the
// "0=" prefix followed by a newline; a missing trailing newline is
// tolerated.
func (v *Validator) checkDeclaration(root string, entries []DirEntry, r *Results) {
	name := ocfl.NamasteObject

	found := false
	for _, e := range entries {
		if !e.Dir && e.Name == name {
			found = true
		}
	}
	if !found {
		r.add(E003, "OCFL object version declaration must exist at %s/%s", root, name)
		return
	}

	data, err := v.Store.ReadAll(path.Join(root, name))
	if err != nil {
		r.add(E007, "OCFL object version declaration at %s/%s could not be read: %s", root, name, err)
		return
	}

	content := strings.TrimPrefix(name, "0=")
	if got := string(data); got != content+"\n" && got != content {
		r.add(E007, "OCFL object version declaration must be '%s' in %s/%s", name, root, name)
	}
}

// checkRootInventory reads, parses, and validates the root inventory,
// returning the parsed form and the raw bytes for later comparison with
// the head version's copy.  A missing or unparseable inventory leaves
// the parsed form nil and the rest of the pass degrades accordingly.
func (v *Validator) checkRootInventory(root string, entries []DirEntry, r *Results) (*inv, []byte) {
	invPath := path.Join(root, metadata.InventoryFile)

	found := false
	for _, e := range entries {
		if !e.Dir && e.Name == metadata.InventoryFile {
			found = true
		}
	}
	if !found {
		r.add(E063, "Object root inventory not found at %s", invPath)
		return nil, nil
	}

	data, err := v.Store.ReadAll(invPath)
	if err != nil {
		r.add(E033, "Inventory at %s could not be read: %s", invPath, err)
		return nil, nil
	}

	rootInv := parseInventory(data, invPath, r)
	if rootInv == nil {
		return nil, data
	}
	validateInventory(rootInv, r)

	if alg, ok := recognizedAlg(rootInv); ok {
		checkSidecar(v.Store, invPath, data, alg, r)
	}
	return rootInv, data
}

// checkRootListing flags anything in the object root that does not
// belong there: the only legitimate entries are the namaste file, the
// inventory and its sidecar, version directories the inventory lists,
// and the extensions directory
func (v *Validator) checkRootListing(root string, entries []DirEntry, rootInv *inv, r *Results) {
	declaredSidecar := ""
	if rootInv != nil && rootInv.digestAlgorithm != nil {
		declaredSidecar = metadata.SidecarName(metadata.DigestAlgorithm(*rootInv.digestAlgorithm))
	}

	for _, e := range entries {
		if e.Dir {
			switch {
			case e.Name == extensionsDir:
			case metadata.VersionID(e.Name).Valid():
				if rootInv != nil && rootInv.versions != nil {
					if _, ok := rootInv.versions[e.Name]; !ok {
						r.add(E001, "Object root %s contains an unexpected file %s", root, e.Name)
					}
				}
			default:
				r.add(E001, "Object root %s contains an unexpected file %s", root, e.Name)
			}
			continue
		}

		switch {
		case e.Name == ocfl.NamasteObject:
		case e.Name == metadata.InventoryFile:
		case declaredSidecar != "" && e.Name == declaredSidecar:
		case declaredSidecar == "" && recognizedSidecar(e.Name):
		default:
			r.add(E001, "Object root %s contains an unexpected file %s", root, e.Name)
		}
	}
}

// recognizedSidecar reports whether name looks like an inventory sidecar
// for any algorithm this implementation knows.  It decides which stray
// root files to tolerate when the inventory's own algorithm could not
// be determined.
func recognizedSidecar(name string) bool {
	prefix := metadata.InventoryFile + "."
	if !strings.HasPrefix(name, prefix) {
		return false
	}
	return metadata.DigestAlgorithm(strings.TrimPrefix(name, prefix)).Recognized()
}

func (v *Validator) checkExtensions(root string, entries []DirEntry, r *Results) {
	found := false
	for _, e := range entries {
		if e.Dir && e.Name == extensionsDir {
			found = true
		}
	}
	if !found {
		return
	}

	children, err := v.Store.List(path.Join(root, extensionsDir))
	if err != nil {
		r.add(E067, "Object extensions directory %s/%s could not be listed: %s", root, extensionsDir, err)
		return
	}
	sortEntries(children)

	if len(children) == 0 {
		r.add(W003, "Object extensions directory %s/%s is empty", root, extensionsDir)
		return
	}

	for _, e := range children {
		switch {
		case !e.Dir:
			r.add(E067, "Object extensions directory %s/%s cannot contain file %s", root, extensionsDir, e.Name)
		case !registeredExtensions[e.Name]:
			r.add(W013, "Object extensions directory %s/%s contains unregistered extension %s", root, extensionsDir, e.Name)
		}
	}
}

// versionDirs selects the version-numbered directories from a root
// listing, ordered by version number
func versionDirs(entries []DirEntry) []string {
	var dirs []string
	for _, e := range entries {
		if e.Dir && metadata.VersionID(e.Name).Valid() {
			dirs = append(dirs, e.Name)
		}
	}

	sort.Slice(dirs, func(i, j int) bool {
		a, _ := metadata.VersionID(dirs[i]).Int()
		b, _ := metadata.VersionID(dirs[j]).Int()
		return a < b
	})
	return dirs
}

func sortEntries(entries []DirEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
}
