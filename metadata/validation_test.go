package metadata_test

import (
	"strings"
	"testing"
	"time"

	"github.com/preservio/ocfl/metadata"
)

var (
	digestA = metadata.Digest(strings.Repeat("a", 128))
	digestB = metadata.Digest(strings.Repeat("b", 128))
)

// consistent builds an inventory that passes validation, for tests to break
func consistent() *metadata.Inventory {
	return &metadata.Inventory{
		ID:              "test://object",
		Type:            metadata.InventoryType,
		DigestAlgorithm: metadata.SHA512,
		Head:            "v2",
		Manifest: metadata.Manifest{
			digestA: {"v1/content/1"},
			digestB: {"v2/content/2"},
		},
		Versions: map[string]metadata.Version{
			"v1": {
				Created: time.Now(),
				State: metadata.Manifest{
					digestA: {"logical/1"},
				},
			},
			"v2": {
				Created: time.Now(),
				State: metadata.Manifest{
					digestA: {"logical/1"},
					digestB: {"logical/2"},
				},
			},
		},
	}
}

func TestValidateConsistent(t *testing.T) {
	if err := consistent().Validate(); err != nil {
		t.Errorf("consistent inventory should validate, got %s", err)
	}
}

func TestValidateInconsistent(t *testing.T) {
	cases := []struct {
		name    string
		corrupt func(*metadata.Inventory)
	}{
		{"noID", func(i *metadata.Inventory) {
			i.ID = ""
		}},
		{"noType", func(i *metadata.Inventory) {
			i.Type = ""
		}},
		{"wrongType", func(i *metadata.Inventory) {
			i.Type = "https://example.org/not-an-inventory"
		}},
		{"noDigestAlgorithm", func(i *metadata.Inventory) {
			i.DigestAlgorithm = ""
		}},
		{"forbiddenDigestAlgorithm", func(i *metadata.Inventory) {
			i.DigestAlgorithm = metadata.MD5
		}},
		{"noHead", func(i *metadata.Inventory) {
			i.Head = ""
		}},
		{"noManifest", func(i *metadata.Inventory) {
			i.Manifest = nil
		}},
		{"noVersions", func(i *metadata.Inventory) {
			i.Versions = nil
		}},
		{"unusedManifestEntry", func(i *metadata.Inventory) {
			i.Manifest[metadata.Digest(strings.Repeat("c", 128))] = []string{"v2/content/orphan"}
		}},
		{"stateWithoutManifestEntry", func(i *metadata.Inventory) {
			v := i.Versions["v2"]
			v.State[metadata.Digest(strings.Repeat("d", 128))] = []string{"logical/ghost"}
			i.Versions["v2"] = v
		}},
		{"conflictingContentPathDigests", func(i *metadata.Inventory) {
			i.Manifest[digestB] = append(i.Manifest[digestB], "v1/content/1")
		}},
		{"conflictingLogicalPathDigests", func(i *metadata.Inventory) {
			v := i.Versions["v2"]
			v.State[digestB] = append(v.State[digestB], "logical/1")
			i.Versions["v2"] = v
		}},
		{"malformedDigest", func(i *metadata.Inventory) {
			i.Manifest["zz-not-hex"] = []string{"v1/content/1"}
			v := i.Versions["v1"]
			v.State["zz-not-hex"] = []string{"logical/odd"}
			i.Versions["v1"] = v
		}},
		{"truncatedDigest", func(i *metadata.Inventory) {
			short := metadata.Digest(strings.Repeat("e", 64))
			i.Manifest[short] = []string{"v1/content/1"}
			v := i.Versions["v1"]
			v.State[short] = []string{"logical/short"}
			i.Versions["v1"] = v
		}},
		{"unrecognizedFixityAlgorithm", func(i *metadata.Inventory) {
			i.Fixity = metadata.Fixity{
				"crc32": {"abcd": {"v1/content/1"}},
			}
		}},
		{"headNotDefined", func(i *metadata.Inventory) {
			i.Head = "v3"
		}},
		{"headNotHighest", func(i *metadata.Inventory) {
			i.Head = "v1"
		}},
		{"invalidVersionNumber", func(i *metadata.Inventory) {
			i.Versions["vFoo"] = metadata.Version{Created: time.Now()}
		}},
		{"mixedPadding", func(i *metadata.Inventory) {
			v := i.Versions["v2"]
			delete(i.Versions, "v2")
			i.Versions["v02"] = v
			i.Head = "v02"
		}},
		{"versionGap", func(i *metadata.Inventory) {
			v := i.Versions["v2"]
			delete(i.Versions, "v2")
			i.Versions["v3"] = v
			i.Head = "v3"
		}},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			inv := consistent()
			c.corrupt(inv)

			if err := inv.Validate(); err == nil {
				t.Errorf("should have thrown an error")
			}
		})
	}
}
