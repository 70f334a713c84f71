package fspath_test

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/preservio/ocfl/fspath"
	"github.com/preservio/ocfl/metadata"
)

func TestGeneratorFunc(t *testing.T) {
	testID := "test ID"
	var gen fspath.Generator = fspath.GeneratorFunc(func(id string) string {
		return id
	})

	translated := gen.Generate(testID)

	if translated != testID {
		t.Fatalf("Expected %s, got %s", testID, translated)
	}
}

// Creates an fspath.Generator instance from the builtin uri.QueryEscape function
func ExampleGeneratorFunc() {
	var pathgen fspath.Generator = fspath.GeneratorFunc(url.QueryEscape)
	fmt.Println(pathgen.Generate("foo:bar"))
	// Output: foo%3Abar
}

func TestFlat(t *testing.T) {
	translated := fspath.Flat().Generate("ark:/1234/5678")

	if strings.Contains(translated, "/") {
		t.Errorf("flat layout produced an intermediate directory: %s", translated)
	}
	if translated != "ark%3A%2F1234%2F5678" {
		t.Errorf("unexpected flat path %s", translated)
	}
}

func TestHashedNTuple(t *testing.T) {
	// sha256("urn:example:1234")
	digest := "80417b76e797261492cb6f2ead0c5e313aafe32a5d53160ce33d730ce4bd59c6"

	gen, err := fspath.HashedNTuple(metadata.SHA256, 3, 3)
	if err != nil {
		t.Fatalf("could not build layout %+v", err)
	}

	translated := gen.Generate("urn:example:1234")
	expected := strings.Join([]string{digest[0:3], digest[3:6], digest[6:9], digest}, "/")

	if translated != expected {
		t.Errorf("expected %s, got %s", expected, translated)
	}
}

func TestHashedNTupleBadConfig(t *testing.T) {
	cases := []struct {
		name      string
		alg       metadata.DigestAlgorithm
		size, num int
	}{
		{"unknownAlgorithm", metadata.DigestAlgorithm("crc32"), 3, 3},
		{"zeroTupleSize", metadata.SHA256, 0, 3},
		{"zeroTupleCount", metadata.SHA256, 3, 0},
		{"tuplesExceedDigest", metadata.SHA256, 32, 3},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			if _, err := fspath.HashedNTuple(c.alg, c.size, c.num); err == nil {
				t.Errorf("should have thrown an error")
			}
		})
	}
}
