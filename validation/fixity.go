package validation

import (
	"path"
	"sort"
	"strings"

	"github.com/preservio/ocfl/metadata"
)

type expectation struct {
	alg    metadata.DigestAlgorithm
	digest string
}

// verifyFixity recomputes digests for content files and compares them
// against the manifest and the fixity block.  Each file is read once and
// checked against every digest recorded for it; algorithms this
// implementation does not provide are skipped.
func (v *Validator) verifyFixity(root string, rootInv *inv, r *Results) {
	if v.SkipFixity || rootInv == nil || rootInv.manifest == nil {
		return
	}

	expect := map[string][]expectation{}
	record := func(p string, e expectation) {
		for _, prior := range expect[p] {
			if prior == e {
				return
			}
		}
		expect[p] = append(expect[p], e)
	}

	if alg, ok := recognizedAlg(rootInv); ok {
		for _, digest := range sortedStrings(rootInv.manifest) {
			for _, p := range rootInv.manifest[digest] {
				record(p, expectation{alg, digest})
			}
		}
	}

	for _, name := range sortedFixityAlgs(rootInv.fixity) {
		alg := metadata.DigestAlgorithm(name)
		if !alg.Recognized() {
			continue
		}
		block := rootInv.fixity[name]
		for _, digest := range sortedStrings(block) {
			for _, p := range block[digest] {
				record(p, expectation{alg, digest})
			}
		}
	}

	paths := make([]string, 0, len(expect))
	for p := range expect {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		fullPath := path.Join(root, p)

		data, err := v.Store.ReadAll(fullPath)
		if err != nil {
			r.add(E092, "Failed to validate fixity of %s: %s", fullPath, err)
			continue
		}

		for _, e := range expect[p] {
			computed, err := e.alg.Sum(data)
			if err != nil {
				continue
			}
			if !strings.EqualFold(e.digest, string(computed)) {
				r.add(E092, "The content file at %s does not match expected %s digest. Expected: %s; Found: %s",
					fullPath, e.alg, e.digest, computed)
			}
		}
	}
}

func sortedFixityAlgs(fixity map[string]map[string][]string) []string {
	names := make([]string, 0, len(fixity))
	for name := range fixity {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
