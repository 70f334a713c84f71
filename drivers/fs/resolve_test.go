package fs_test

import (
	"path/filepath"
	"testing"

	"github.com/preservio/ocfl"
	"github.com/preservio/ocfl/drivers/fs"
)

type resolveCase struct {
	name        string
	loc         []string
	selector    ocfl.Select
	expectedIDs []string
}

func TestLocateRoot(t *testing.T) {
	root := buildTestRoot(t)

	cases := []struct {
		name     string
		file     string
		expected string
	}{
		{"equalsRoot", root, root},
		{"directory", filepath.Join(root, "a/b"), root},
		{"file", filepath.Join(root, "obj4/v1/content/obj4.txt"), root},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {

			dir, err := fs.LocateRoot(c.file)
			if err != nil {
				t.Fatalf("error locating root when starting from %s: %+v", c.file, err)
			}

			if dir != c.expected {
				t.Fatalf("wrong root!  Wanted %s, got %s", c.expected, dir)
			}
		})
	}
}

// Tests the resolution of logical addresses via walk
func TestResolveLogical(t *testing.T) {
	cases := []resolveCase{
		{"defaultRoot", []string{}, ocfl.Select{Type: ocfl.Root}, []string{""}},
		{"object", []string{"urn:/a/d/obj2"}, ocfl.Select{Type: ocfl.Object}, []string{"urn:/a/d/obj2"}},
		{"versionsOfObject", []string{"urn:/a/d/obj2"}, ocfl.Select{Type: ocfl.Version}, []string{"v1", "v2", "v3"}},
		{"version", []string{"urn:/a/d/obj2", "v1"}, ocfl.Select{Type: ocfl.Version}, []string{"v1"}},
		{"filesInVersion",
			[]string{"urn:/a/d/obj2", "v3"},
			ocfl.Select{Type: ocfl.File},
			[]string{"obj2.txt", "obj2-copy.txt", "obj2-extra.txt", "obj2-new.txt"}},
		{"file", []string{"urn:/a/d/obj2", "v3", "obj2-new.txt"}, ocfl.Select{Type: ocfl.File}, []string{"obj2-new.txt"}},
	}

	d, err := fs.NewDriver(fs.Config{Root: buildTestRoot(t)})
	if err != nil {
		t.Fatalf("error setting up driver: %s", err)
	}

	for _, c := range cases {
		runResolveCase(t, c, d)
	}
}

func TestResolvePhysical(t *testing.T) {
	root := buildTestRoot(t)
	object := filepath.Join(root, "a/d/obj2")

	cases := []resolveCase{
		{"root", []string{root}, ocfl.Select{Type: ocfl.Root}, []string{""}},
		{"intermediate", []string{filepath.Join(root, "a/b/c")}, ocfl.Select{Type: ocfl.Intermediate}, []string{"a/b/c"}},
		{"object", []string{object}, ocfl.Select{Type: ocfl.Object}, []string{"urn:/a/d/obj2"}},
		{"version", []string{filepath.Join(object, "v1")}, ocfl.Select{Type: ocfl.Version}, []string{"v1"}},
		{"file", []string{filepath.Join(object, "v3/content/obj2-new.txt")}, ocfl.Select{Type: ocfl.File},
			[]string{"obj2-new.txt"}},

		// A physical file can alias several logical files: obj2.txt and its
		// identical copy, in every version carrying them forward
		{"dup-file", []string{filepath.Join(object, "v1/content/obj2.txt")}, ocfl.Select{Type: ocfl.File},
			[]string{"obj2.txt", "obj2.txt", "obj2.txt", "obj2-copy.txt", "obj2-copy.txt", "obj2-copy.txt"}},
	}

	d := &fs.Driver{}

	for _, c := range cases {
		runResolveCase(t, c, d)
	}
}

func TestResolveHead(t *testing.T) {
	root := buildTestRoot(t)
	object := filepath.Join(root, "a/d/obj2")

	cases := []resolveCase{
		{"object", []string{object},
			ocfl.Select{Type: ocfl.Object, Head: true}, []string{"urn:/a/d/obj2"}},
		{"mismatchedVersion", []string{filepath.Join(object, "v1")},
			ocfl.Select{Type: ocfl.Version, Head: true}, []string{}},
		{"findHeadVersion", []string{object},
			ocfl.Select{Type: ocfl.Version, Head: true}, []string{"v3"}},
		{"findHeadVersionLogical", []string{"urn:/a/d/obj2"},
			ocfl.Select{Type: ocfl.Version, Head: true}, []string{"v3"}},
		{"matchingVersion", []string{filepath.Join(object, "v3")},
			ocfl.Select{Type: ocfl.Version, Head: true}, []string{"v3"}},
		{"filesInHead", []string{"urn:/a/d/obj2"},
			ocfl.Select{Type: ocfl.File, Head: true},
			[]string{"obj2.txt", "obj2-copy.txt", "obj2-extra.txt", "obj2-new.txt"}},
		{"filesHeadMismatch", []string{"urn:/a/d/obj2", "v2"},
			ocfl.Select{Type: ocfl.File, Head: true}, []string{}},
	}

	d, err := fs.NewDriver(fs.Config{Root: root})
	if err != nil {
		t.Fatalf("error setting up driver: %s", err)
	}

	for _, c := range cases {
		runResolveCase(t, c, d)
	}
}

func runResolveCase(t *testing.T, c resolveCase, d ocfl.Walker) {
	t.Run(c.name, func(t *testing.T) {
		var results []ocfl.EntityRef
		err := d.Walk(c.selector, func(ref ocfl.EntityRef) error {
			results = append(results, ref)
			return nil
		}, c.loc...)
		if err != nil {
			t.Fatalf("could not look up '%s': %s", c.loc, err)
		}

		if len(results) != len(c.expectedIDs) {
			t.Errorf("bad number of results for %s %s.  Expected %d, found %d",
				c.selector.Type, c.loc, len(c.expectedIDs), len(results))
		}

		for _, ref := range results {
			if ref.Type != c.selector.Type {
				t.Errorf("expected to see type %s, but instead saw %s", c.selector.Type, ref.Type)
			}
		}

		for _, exid := range c.expectedIDs {
			var foundID bool
			var encountered []string
			for _, ref := range results {
				foundID = foundID || exid == ref.ID
				encountered = append(encountered, ref.ID)
			}
			if !foundID {
				t.Errorf("did not find expected ID '%s' in %s", exid, encountered)
			}
		}
	})
}
