package metadata

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// Digest algorithms usable in OCFL inventories.  SHA512 and SHA256 may
// serve as an inventory's primary digestAlgorithm; the others may appear
// only in fixity blocks.
const (
	SHA512     DigestAlgorithm = "sha512"
	SHA256     DigestAlgorithm = "sha256"
	SHA1       DigestAlgorithm = "sha1"
	MD5        DigestAlgorithm = "md5"
	BLAKE2B512 DigestAlgorithm = "blake2b-512"
)

var digestAlgorithms = map[DigestAlgorithm]func() hash.Hash{
	SHA512: sha512.New,
	SHA256: sha256.New,
	SHA1:   sha1.New,
	MD5:    md5.New,
	BLAKE2B512: func() hash.Hash {
		h, _ := blake2b.New512(nil)
		return h
	},
}

// Recognized indicates whether this is a digest algorithm OCFL knows about.
func (a DigestAlgorithm) Recognized() bool {
	_, ok := digestAlgorithms[a]
	return ok
}

// Primary indicates whether this algorithm may serve as an inventory's
// digestAlgorithm.
func (a DigestAlgorithm) Primary() bool {
	return a == SHA512 || a == SHA256
}

// Preferred indicates whether this is the digest algorithm OCFL recommends.
func (a DigestAlgorithm) Preferred() bool {
	return a == SHA512
}

// New creates a new hash for computing digests under this algorithm.
func (a DigestAlgorithm) New() (hash.Hash, error) {
	alg, ok := digestAlgorithms[a]
	if !ok {
		return nil, errors.Errorf("unrecognized digest algorithm %s", a)
	}
	return alg(), nil
}

// Sum computes the digest of the given bytes as lowercase hex.
func (a DigestAlgorithm) Sum(b []byte) (Digest, error) {
	h, err := a.New()
	if err != nil {
		return "", err
	}
	_, _ = h.Write(b)
	return Digest(hex.EncodeToString(h.Sum(nil))), nil
}

// SumReader computes the digest of an entire byte stream as lowercase hex.
func (a DigestAlgorithm) SumReader(r io.Reader) (Digest, error) {
	h, err := a.New()
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", errors.Wrapf(err, "error digesting stream with %s", a)
	}
	return Digest(hex.EncodeToString(h.Sum(nil))), nil
}

// HexLength gives the expected length, in hex characters, of digests
// produced by this algorithm.
func (a DigestAlgorithm) HexLength() (int, error) {
	h, err := a.New()
	if err != nil {
		return 0, err
	}
	return hex.EncodedLen(h.Size()), nil
}

// SidecarName gives the name of the inventory digest sidecar file for
// the given algorithm, e.g inventory.json.sha512
func SidecarName(a DigestAlgorithm) string {
	return InventoryFile + "." + string(a)
}
