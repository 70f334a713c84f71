package validation

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/preservio/ocfl/metadata"
)

// validateInventory applies every semantic rule that can be judged from a
// single parsed inventory document, without reference to storage or to
// other inventories.  Issues name the document by its storage path, so
// the same checks serve the root inventory and per-version copies.
func validateInventory(i *inv, r *Results) {
	docPath := i.path

	if i.id == nil {
		r.add(E036, "Inventory id must be set in %s", docPath)
	} else if !looksLikeURI(*i.id) {
		r.add(W005, "Inventory id should be a URI in %s. Found: %s", docPath, *i.id)
	}

	if i.typ == nil {
		r.add(E036, "Inventory type must be set in %s", docPath)
	} else if *i.typ != metadata.InventoryType {
		r.add(E038, "Inventory type must equal '%s' in %s", metadata.InventoryType, docPath)
	}

	if i.digestAlgorithm == nil {
		r.add(E036, "Inventory digest algorithm must be set in %s", docPath)
	} else {
		alg := metadata.DigestAlgorithm(*i.digestAlgorithm)
		switch {
		case !alg.Primary():
			r.add(E025, "Inventory digest algorithm must be %s or %s in %s. Found: %s",
				metadata.SHA512, metadata.SHA256, docPath, alg)
		case alg != metadata.SHA512:
			r.add(W004, "Inventory digest algorithm should be %s in %s. Found: %s",
				metadata.SHA512, docPath, alg)
		}
	}

	if i.head == nil {
		r.add(E036, "Inventory head must be set in %s", docPath)
	} else if !metadata.VersionID(*i.head).Valid() {
		r.add(E040, "Inventory head must be a valid version number in %s. Found: %s", docPath, *i.head)
	}

	if i.contentDirectory != nil {
		switch {
		case strings.Contains(*i.contentDirectory, "/"):
			r.add(E018, "Inventory content directory cannot contain / in %s", docPath)
		case *i.contentDirectory == "." || *i.contentDirectory == "..":
			r.add(E019, "Inventory content directory cannot be . or .. in %s", docPath)
		}
	}

	if i.manifest == nil {
		r.add(E041, "Inventory manifest must be set in %s", docPath)
	}

	if len(i.versions) == 0 {
		r.add(E008, "Inventory must contain at least one version %s", docPath)
	}

	validateVersionSequence(i, r)

	for _, num := range sortedVersionNums(i.versions) {
		validateVersion(i, num, i.versions[num], r)
	}
}

// validateVersionSequence checks that version numbers run contiguously
// from v1 and that head names the highest one
func validateVersionSequence(i *inv, r *Results) {
	docPath := i.path

	highest := 0
	nums := map[int]bool{}
	for _, num := range sortedVersionNums(i.versions) {
		vid := metadata.VersionID(num)
		if !vid.Valid() {
			r.add(E044, "Inventory versions contains an invalid version number %s in %s", num, docPath)
			continue
		}
		n, _ := vid.Int()
		nums[n] = true
		if n > highest {
			highest = n
		}
	}

	headNum := 0
	if i.head != nil && metadata.VersionID(*i.head).Valid() {
		headNum, _ = metadata.VersionID(*i.head).Int()
	}

	expected := highest
	if headNum > expected {
		expected = headNum
	}

	for n := 1; n <= expected; n++ {
		if !nums[n] {
			r.add(E044, "Inventory versions is missing an entry for version v%d in %s", n, docPath)
		}
	}

	if headNum > 0 && highest > 0 && headNum != highest {
		r.add(E040, "Inventory head must be the highest version number in %s", docPath)
	}
}

func validateVersion(i *inv, num string, v *version, r *Results) {
	docPath := i.path

	if v.created == nil {
		r.add(E048, "Inventory version %s must contain a created timestamp in %s", num, docPath)
	} else if _, err := time.Parse(time.RFC3339, *v.created); err != nil {
		r.add(E049, "Inventory version %s created timestamp must be formatted in accordance to RFC3339 in %s. Found: %s",
			num, docPath, *v.created)
	}

	if v.state == nil {
		r.add(E048, "Inventory version %s must contain a state in %s", num, docPath)
	} else {
		validateState(i, num, v.state, r)
	}

	if v.user == nil {
		r.add(W007, "Inventory version %s should contain a user in %s", num, docPath)
	} else {
		if v.user.name == nil || *v.user.name == "" {
			r.add(E054, "Inventory version %s user name must be set in %s", num, docPath)
		}
		switch {
		case v.user.address == nil || *v.user.address == "":
			r.add(W008, "Inventory version %s user address should be set in %s", num, docPath)
		case !looksLikeURI(*v.user.address):
			r.add(W009, "Inventory version %s user address should be a URI in %s. Found: %s",
				num, docPath, *v.user.address)
		}
	}

	if v.message == nil {
		r.add(W007, "Inventory version %s should contain a message in %s", num, docPath)
	}
}

// validateState checks one version state block: every digest it references
// must be in the manifest, and its logical paths must not collide
func validateState(i *inv, num string, state map[string][]string, r *Results) {
	docPath := i.path

	if i.manifest != nil {
		manifest := map[string]bool{}
		for digest := range i.manifest {
			manifest[strings.ToLower(digest)] = true
		}
		for _, digest := range sortedStrings(state) {
			if !manifest[strings.ToLower(digest)] {
				r.add(E050, "Inventory version %s state references digest %s that is not in the manifest in %s",
					num, digest, docPath)
			}
		}
	}

	var paths []string
	for _, digest := range sortedStrings(state) {
		paths = append(paths, state[digest]...)
	}
	sort.Strings(paths)

	counts := map[string]int{}
	for _, p := range paths {
		counts[p]++
	}

	conflicts := map[string]bool{}
	for _, p := range paths {
		if counts[p] > 1 {
			conflicts[p] = true
		}
	}
	for _, p := range paths {
		prefix := p + "/"
		for _, other := range paths {
			if strings.HasPrefix(other, prefix) {
				conflicts[p] = true
				break
			}
		}
	}

	var sorted []string
	for p := range conflicts {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)
	for _, p := range sorted {
		r.add(E095, "Inventory version %s paths must be non-conflicting in %s. Found conflicting path: %s",
			num, docPath, p)
	}
}

func looksLikeURI(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != ""
}

// sortedVersionNums orders version keys numerically, with unparseable
// names last in lexical order
func sortedVersionNums(versions map[string]*version) []string {
	nums := make([]string, 0, len(versions))
	for num := range versions {
		nums = append(nums, num)
	}
	sort.Slice(nums, func(a, b int) bool {
		na, erra := metadata.VersionID(nums[a]).Int()
		nb, errb := metadata.VersionID(nums[b]).Int()
		switch {
		case erra == nil && errb == nil:
			return na < nb
		case erra == nil:
			return true
		case errb == nil:
			return false
		}
		return nums[a] < nums[b]
	})
	return nums
}

func sortedStrings(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
