package metadata

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Validate verifies whether inventory metadata is internally consistent and allowable by the OCFL spec
// A positive result (no error returned) means only that a given manifest reflects a plausible internal state.  It does
// not imply that the files referenced by the manifest actually exist, or match their claimed checksums, etc.
//
// Internally consistent
//
// Internally consistent means:
//
// All required values are present.
//
// All entities Manifest are referenced in the state of some version
// (i.e. there are no unused entities present in the manifest).
//
// All State entries have a corresponding Manifest entry
// (i.e. State cannot reference content that is not in the manifest).
//
// A single physical file path has at most one digest for each allowable OCFL digest type.
// (i.e. the path doesn't have conflicting digests in the manifest or fixity sections)
//
// A single logical file path within a version has exactly one digest
// (i.e. a path doesn't appear twice within the state of a given version, with different digests).
//
// Head points to a version defined in the inventory, and that version is the highest.
//
// Digest values match the length and composition implied by their algorithm.
//
// Version numbers increase monotonically, and have the same zero padding convention
func (i *Inventory) Validate() error {
	var problems []string
	report := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	i.validateRequired(report)
	i.validateDigests(report)
	i.validateState(report)
	i.validateVersionSequence(report)

	if len(problems) > 0 {
		sort.Strings(problems)
		return errors.Errorf("inconsistent inventory for object %q: %s", i.ID, strings.Join(problems, "; "))
	}
	return nil
}

func (i *Inventory) validateRequired(report func(string, ...interface{})) {
	if i.ID == "" {
		report("id is not set")
	}
	if i.Type == "" {
		report("type is not set")
	} else if i.Type != InventoryType {
		report("type must be %s", InventoryType)
	}
	if i.DigestAlgorithm == "" {
		report("digest algorithm is not set")
	} else if !i.DigestAlgorithm.Primary() {
		report("digest algorithm must be %s or %s, found %s", SHA512, SHA256, i.DigestAlgorithm)
	}
	if i.Head == "" {
		report("head is not set")
	}
	if i.Manifest == nil {
		report("manifest is not set")
	}
	if len(i.Versions) == 0 {
		report("no versions are present")
	}
}

func (i *Inventory) validateDigests(report func(string, ...interface{})) {
	checkBlock := func(alg DigestAlgorithm, m Manifest, block string) {
		hexlen, err := alg.HexLength()
		if err != nil {
			report("%s uses unrecognized digest algorithm %s", block, alg)
			return
		}

		// One digest per physical path within an algorithm
		pathDigest := map[string]Digest{}

		for _, d := range sortedDigests(m) {
			if len(d) != hexlen || !isHex(string(d)) {
				report("%q is not a valid %s digest in %s", d, alg, block)
			}
			for _, p := range m[d] {
				if prev, ok := pathDigest[p]; ok && !equalDigests(prev, d) {
					report("content path %s has conflicting %s digests", p, alg)
				}
				pathDigest[p] = d
			}
		}
	}

	checkBlock(i.DigestAlgorithm, i.Manifest, "manifest")
	for _, alg := range sortedAlgorithms(i.Fixity) {
		checkBlock(alg, i.Fixity[alg], fmt.Sprintf("fixity block %s", alg))
	}
}

func (i *Inventory) validateState(report func(string, ...interface{})) {
	used := map[Digest]bool{}

	for _, v := range sortedVersions(i.Versions) {
		lpathDigest := map[string]Digest{}

		for _, d := range sortedDigests(i.Versions[v].State) {
			if _, ok := i.Manifest[d]; !ok {
				report("state of %s references digest %q that has no manifest entry", v, d)
			}
			used[d] = true

			for _, lpath := range i.Versions[v].State[d] {
				if prev, ok := lpathDigest[lpath]; ok && !equalDigests(prev, d) {
					report("logical path %s in %s has more than one digest", lpath, v)
				}
				lpathDigest[lpath] = d
			}
		}
	}

	for _, d := range sortedDigests(i.Manifest) {
		if !used[d] {
			report("manifest entry %q is not referenced in the state of any version", d)
		}
	}
}

func (i *Inventory) validateVersionSequence(report func(string, ...interface{})) {
	if len(i.Versions) == 0 {
		return
	}

	var nums []int
	var padded, unpadded bool
	highest := 0

	for _, v := range sortedVersions(i.Versions) {
		vid := VersionID(v)
		if !vid.Valid() {
			report("%q is not a valid version number", v)
			continue
		}

		if vid.Padded() {
			padded = true
		} else {
			unpadded = true
		}

		n, _ := vid.Int()
		nums = append(nums, n)
		if n > highest {
			highest = n
		}
	}

	if padded && unpadded {
		report("version numbers mix zero padded and unpadded forms")
	}

	sort.Ints(nums)
	for n, num := range nums {
		if num != n+1 {
			report("version numbers are not contiguous from v1: missing v%d", n+1)
			break
		}
	}

	if i.Head == "" {
		return
	}
	if _, ok := i.Versions[i.Head]; !ok {
		report("head %s is not a version defined in the inventory", i.Head)
		return
	}
	if n, err := VersionID(i.Head).Int(); err == nil && n != highest {
		report("head %s is not the highest version number", i.Head)
	}
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return len(s) > 0
}

func equalDigests(a, b Digest) bool {
	return strings.EqualFold(string(a), string(b))
}

func sortedDigests(m Manifest) []Digest {
	digests := make([]Digest, 0, len(m))
	for d := range m {
		digests = append(digests, d)
	}
	sort.Slice(digests, func(a, b int) bool { return digests[a] < digests[b] })
	return digests
}

func sortedAlgorithms(f Fixity) []DigestAlgorithm {
	algs := make([]DigestAlgorithm, 0, len(f))
	for a := range f {
		algs = append(algs, a)
	}
	sort.Slice(algs, func(a, b int) bool { return algs[a] < algs[b] })
	return algs
}

func sortedVersions(vs map[string]Version) []string {
	versions := make([]string, 0, len(vs))
	for v := range vs {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}
