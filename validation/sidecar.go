package validation

import (
	"path"
	"strings"

	"github.com/preservio/ocfl/metadata"
)

// checkSidecar verifies the digest sidecar for an inventory whose bytes
// are already in hand.  The sidecar lives next to the inventory, named
// for the digest algorithm.  A malformed sidecar and a digest mismatch
// are reported independently: a bad line that still carries a readable
// hex digest yields both issues.
func checkSidecar(store Storage, invPath string, data []byte, alg metadata.DigestAlgorithm, r *Results) {
	sidecarPath := path.Join(path.Dir(invPath), metadata.SidecarName(alg))

	content, err := store.ReadAll(sidecarPath)
	if err != nil {
		r.add(E058, "Inventory sidecar missing at %s", sidecarPath)
		return
	}

	declared, ok := parseSidecar(string(content))
	if !ok {
		r.add(E061, "Inventory sidecar file at %s is in an invalid format", sidecarPath)
	}
	if declared == "" {
		return
	}

	computed, err := alg.Sum(data)
	if err != nil {
		return
	}

	if !strings.EqualFold(declared, string(computed)) {
		r.add(E060, "Inventory at %s does not match expected %s digest. Expected: %s; Found: %s",
			sidecarPath, alg, declared, computed)
	}
}

// parseSidecar extracts the digest from a sidecar line.  The accepted
// grammar is a hex digest alone or followed by the inventory file name.
// A recoverable digest is returned even when the grammar is invalid.
func parseSidecar(content string) (digest string, ok bool) {
	fields := strings.Fields(content)
	if len(fields) > 0 && isHex(fields[0]) {
		digest = fields[0]
	}

	switch len(fields) {
	case 1:
		ok = digest != ""
	case 2:
		ok = digest != "" && fields[1] == metadata.InventoryFile
	}
	return digest, ok
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
