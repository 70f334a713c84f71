package validation

import (
	"bytes"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/preservio/ocfl/metadata"
)

// validateVersionDirs checks every version-numbered directory found in
// the object root: its contents, its inventory copy, and that copy's
// consistency with the root inventory.
func (v *Validator) validateVersionDirs(root string, dirs []string, rootInv *inv, rootBytes []byte, r *Results) {
	for _, dir := range dirs {
		if metadata.VersionID(dir).Padded() {
			r.add(W001, "Object contains zero-padded version %s in %s", dir, root)
		}
	}

	if rootInv != nil {
		present := map[string]bool{}
		for _, dir := range dirs {
			present[dir] = true
		}
		for _, num := range sortedVersionNums(rootInv.versions) {
			if !present[num] {
				r.add(E046, "Object root %s is missing version directory %s", root, num)
			}
		}
	}

	for _, dir := range dirs {
		v.validateVersionDir(root, dir, rootInv, rootBytes, r)
	}
}

func (v *Validator) validateVersionDir(root, dir string, rootInv *inv, rootBytes []byte, r *Results) {
	vdirPath := path.Join(root, dir)
	entries, err := v.Store.List(vdirPath)
	if err != nil {
		r.add(E015, "Version directory %s in %s could not be listed: %s", dir, root, err)
		return
	}
	sortEntries(entries)

	hasInventory := false
	for _, e := range entries {
		if !e.Dir && e.Name == metadata.InventoryFile {
			hasInventory = true
		}
	}

	isHead := rootInv != nil && rootInv.head != nil && *rootInv.head == dir
	copyPath := path.Join(vdirPath, metadata.InventoryFile)

	// The only sidecar that belongs in this directory is the one named
	// for the copy's own digest algorithm; when the copy or its
	// algorithm cannot be determined, none is expected.
	sidecarName := ""
	var cp *inv

	switch {
	case !hasInventory:
		r.add(W010, "Every version should contain an inventory. Missing: %s", copyPath)
	case isHead:
		sidecarName = v.checkHeadCopy(copyPath, rootInv, rootBytes, r)
	default:
		cp, sidecarName = v.checkVersionCopy(copyPath, dir, rootInv, r)
	}

	contentDir := metadata.DefaultContentDirectory
	switch {
	case rootInv != nil:
		contentDir = rootInv.contentDir()
	case cp != nil:
		contentDir = cp.contentDir()
	}

	for _, e := range entries {
		if e.Dir {
			if e.Name != contentDir {
				r.add(W002, "Version directory %s in %s contains an unexpected directory %s", dir, root, e.Name)
			}
			continue
		}
		switch e.Name {
		case metadata.InventoryFile:
		case sidecarName:
		default:
			r.add(E015, "Version directory %s in %s contains an unexpected file %s", dir, root, e.Name)
		}
	}
}

// checkHeadCopy verifies the head version's inventory copy, which must be
// byte-identical to the root inventory.  An identical copy needs no
// further validation of its own; only its sidecar is checked, under the
// root inventory's digest algorithm.
func (v *Validator) checkHeadCopy(copyPath string, rootInv *inv, rootBytes []byte, r *Results) string {
	data, err := v.Store.ReadAll(copyPath)
	if err != nil {
		r.add(E033, "Inventory at %s could not be read: %s", copyPath, err)
		return ""
	}

	if !bytes.Equal(data, rootBytes) {
		r.add(E064, "The inventory at %s must be identical to the inventory in the object root", copyPath)
	}

	alg, ok := recognizedAlg(rootInv)
	if !ok {
		return ""
	}
	checkSidecar(v.Store, copyPath, data, alg, r)
	return metadata.SidecarName(alg)
}

// checkVersionCopy parses and fully validates a non-head version's
// inventory copy, then cross-checks it against the root inventory
func (v *Validator) checkVersionCopy(copyPath, dir string, rootInv *inv, r *Results) (*inv, string) {
	data, err := v.Store.ReadAll(copyPath)
	if err != nil {
		r.add(E033, "Inventory at %s could not be read: %s", copyPath, err)
		return nil, ""
	}

	cp := parseInventory(data, copyPath, r)
	if cp == nil {
		return nil, ""
	}
	validateInventory(cp, r)

	if rootInv != nil {
		crossCheckCopy(cp, dir, rootInv, r)
	}

	alg, ok := recognizedAlg(cp)
	if !ok {
		return cp, ""
	}
	checkSidecar(v.Store, copyPath, data, alg, r)
	return cp, metadata.SidecarName(alg)
}

// crossCheckCopy holds a version inventory against the root inventory:
// same id, a head naming its own version, and consistent metadata for
// every version both documents describe
func crossCheckCopy(cp *inv, dir string, rootInv *inv, r *Results) {
	if !samePtr(cp.id, rootInv.id) {
		r.add(E037, "Inventory id is inconsistent between versions in %s", cp.path)
	}

	if cp.head == nil || *cp.head != dir {
		r.add(E040, "Inventory head must be %s in %s", dir, cp.path)
	}

	for _, num := range sortedVersionNums(cp.versions) {
		rootVersion, ok := rootInv.versions[num]
		if !ok {
			continue
		}
		compareVersionMeta(num, cp.versions[num], rootVersion, cp.path, r)
	}
}

func compareVersionMeta(num string, cv, rv *version, copyPath string, r *Results) {
	inconsistent := func(field string) {
		r.add(W011, "The version %s of version %s in %s is inconsistent with the root inventory",
			field, num, copyPath)
	}

	if !sameCreated(cv.created, rv.created) {
		inconsistent("created timestamp")
	}
	if !samePtr(cv.message, rv.message) {
		inconsistent("message")
	}
	if !sameUser(cv.user, rv.user) {
		inconsistent("user")
	}
	if !sameState(cv.state, rv.state) {
		inconsistent("state")
	}
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// sameCreated compares timestamps by instant when both parse, so that
// equivalent renderings of the same moment do not count as divergence
func sameCreated(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta, erra := time.Parse(time.RFC3339, *a)
	tb, errb := time.Parse(time.RFC3339, *b)
	if erra == nil && errb == nil {
		return ta.Equal(tb)
	}
	return *a == *b
}

func sameUser(a, b *user) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return samePtr(a.name, b.name) && samePtr(a.address, b.address)
}

func sameState(a, b map[string][]string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	na := normalizeState(a)
	nb := normalizeState(b)
	if len(na) != len(nb) {
		return false
	}
	for digest, paths := range na {
		other, ok := nb[digest]
		if !ok || len(other) != len(paths) {
			return false
		}
		for n := range paths {
			if paths[n] != other[n] {
				return false
			}
		}
	}
	return true
}

func normalizeState(state map[string][]string) map[string][]string {
	normalized := make(map[string][]string, len(state))
	for digest, paths := range state {
		key := strings.ToLower(digest)
		normalized[key] = append(normalized[key], paths...)
	}
	for _, paths := range normalized {
		sort.Strings(paths)
	}
	return normalized
}

func recognizedAlg(i *inv) (metadata.DigestAlgorithm, bool) {
	if i == nil || i.digestAlgorithm == nil {
		return "", false
	}
	alg := metadata.DigestAlgorithm(*i.digestAlgorithm)
	return alg, alg.Recognized()
}
