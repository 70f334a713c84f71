package validation

import (
	"path"
	"sort"

	"github.com/pkg/errors"
	"github.com/preservio/ocfl/pathconstraint"
)

// reconcileManifest compares the set of files present under version
// content directories with the set of content paths the root inventory's
// manifest declares.  Files on disk that the manifest does not reference
// and manifest entries with no file behind them are both errors.
func (v *Validator) reconcileManifest(root string, rootInv *inv, dirs []string, r *Results) {
	if rootInv == nil || rootInv.manifest == nil {
		return
	}

	actual := map[string]bool{}
	for _, dir := range dirs {
		rel := path.Join(dir, rootInv.contentDir())
		full := path.Join(root, rel)

		isDir, err := v.Store.IsDirectory(full)
		if err != nil {
			// a version need not have a content directory of its own
			if errors.Cause(err) != ErrNotFound {
				r.add(E092, "Failed to list content directory %s: %s", full, err)
			}
			continue
		}
		if !isDir {
			continue
		}
		v.collectFiles(full, rel, actual, r)
	}

	expected := map[string]bool{}
	for _, digest := range sortedStrings(rootInv.manifest) {
		for _, p := range rootInv.manifest[digest] {
			expected[p] = true
		}
	}

	for _, p := range sortedSet(actual) {
		if !expected[p] {
			r.add(E023, "Object contains a file in version content at %s that is not referenced in the manifest",
				path.Join(root, p))
		}
	}
	for _, p := range sortedSet(expected) {
		if !actual[p] {
			r.add(E092, "Inventory manifest contains content path %s but this file does not exist in a version content directory in %s",
				p, root)
		}
	}
}

func (v *Validator) collectFiles(full, rel string, files map[string]bool, r *Results) {
	entries, err := v.Store.List(full)
	if err != nil {
		r.add(E092, "Failed to list content directory %s: %s", full, err)
		return
	}
	sortEntries(entries)

	for _, e := range entries {
		if e.Dir {
			v.collectFiles(path.Join(full, e.Name), path.Join(rel, e.Name), files, r)
			continue
		}
		files[path.Join(rel, e.Name)] = true
	}
}

// screenContentPaths holds every manifest content path against the
// configured portability constraints
func (v *Validator) screenContentPaths(root string, rootInv *inv, r *Results) {
	if rootInv == nil || rootInv.manifest == nil {
		return
	}

	proc := v.constraints()
	seen := map[string]bool{}
	for _, digest := range sortedStrings(rootInv.manifest) {
		for _, p := range rootInv.manifest[digest] {
			if seen[p] {
				continue
			}
			seen[p] = true
		}
	}

	for _, p := range sortedSet(seen) {
		for _, violation := range proc.Apply(p, path.Join(root, p)) {
			r.add(E099, "Inventory manifest content path %s %s in %s", violation.Path, violation.Detail, root)
		}
	}
}

func (v *Validator) constraints() *pathconstraint.Processor {
	if v.Paths != nil {
		return v.Paths
	}
	proc, _ := pathconstraint.ForProfile(pathconstraint.None)
	return proc
}

func sortedSet(set map[string]bool) []string {
	members := make([]string, 0, len(set))
	for member := range set {
		members = append(members, member)
	}
	sort.Strings(members)
	return members
}
