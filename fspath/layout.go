package fspath

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/preservio/ocfl/metadata"
)

// Flat places every object directly under the storage root, percent
// encoding the object id into a single directory name.
func Flat() Generator {
	return GeneratorFunc(url.QueryEscape)
}

// HashedNTuple places objects under a tree of intermediate directories
// derived from a digest of the object id: the first tupleCount groups of
// tupleSize hex characters become nested directories, and the full hex
// digest becomes the object directory beneath them.  This bounds the
// fanout of any one directory no matter how many objects a root holds.
func HashedNTuple(alg metadata.DigestAlgorithm, tupleSize, tupleCount int) (Generator, error) {
	hexLen, err := alg.HexLength()
	if err != nil {
		return nil, errors.Wrap(err, "could not build hashed n-tuple layout")
	}
	if tupleSize < 1 || tupleCount < 1 || tupleSize*tupleCount > hexLen {
		return nil, errors.Errorf("%d tuples of %d characters do not fit in a %s digest", tupleCount, tupleSize, alg)
	}

	return GeneratorFunc(func(id string) string {
		digest, _ := alg.Sum([]byte(id))
		hex := string(digest)

		parts := make([]string, 0, tupleCount+1)
		for i := 0; i < tupleCount; i++ {
			parts = append(parts, hex[i*tupleSize:(i+1)*tupleSize])
		}
		return strings.Join(append(parts, hex), "/")
	}), nil
}
