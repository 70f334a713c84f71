package fs_test

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-test/deep"
	"github.com/preservio/ocfl"
	"github.com/preservio/ocfl/drivers/fs"
)

// The built test repository: 1 root, 4 intermediate nodes, and 4 uniform
// objects with 3 versions each.  v1 of an object holds a file plus a copy
// with identical content, and each later version adds one file, so logical
// files number 2 + 3 + 4 per object.
const (
	totalObjects       = 4
	totalVersions      = 12
	totalFiles         = 36
	totalIntermediates = 4
	totalEntityCount   = 1 + totalIntermediates + totalObjects + totalVersions + totalFiles
)

var testObjectIDs = []string{
	"urn:/a/b/c/obj1",
	"urn:/a/d/obj2",
	"urn:/obj3",
	"urn:/obj4",
}

// objectPath maps test object IDs onto directories under the root
func objectPath(id string) string {
	return strings.TrimPrefix(id, "urn:/")
}

// buildTestRoot creates an OCFL root populated with the test objects,
// each committed through the driver's write path.
func buildTestRoot(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	if err := fs.InitRoot(root); err != nil {
		t.Fatalf("could not initialize ocfl root: %+v", err)
	}

	d, err := fs.NewDriver(fs.Config{
		Root:           root,
		ObjectPathFunc: objectPath,
		FilePathFunc:   fs.Passthrough,
	})
	if err != nil {
		t.Fatalf("could not set up driver: %+v", err)
	}

	for _, id := range testObjectIDs {
		buildTestObject(t, d, id)
	}

	return root
}

// buildTestObject commits three versions of an object
func buildTestObject(t *testing.T, d *fs.Driver, id string) {
	t.Helper()

	base := path.Base(id)

	versions := []map[string]string{
		{
			base + ".txt":      base + " version one",
			base + "-copy.txt": base + " version one",
		},
		{base + "-extra.txt": base + " extra content"},
		{base + "-new.txt": base + " version three"},
	}

	for n, files := range versions {
		s, err := d.Open(id, ocfl.Options{Create: n == 0, Version: ocfl.NEW})
		if err != nil {
			t.Fatalf("could not open session for %s: %+v", id, err)
		}

		names := make([]string, 0, len(files))
		for name := range files {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if err := s.Put(name, strings.NewReader(files[name])); err != nil {
				t.Fatalf("could not put %s into %s: %+v", name, id, err)
			}
		}

		err = s.Commit(ocfl.CommitInfo{
			Name:    "colleen",
			Address: "mailto:colleen@example.org",
			Message: fmt.Sprintf("commit v%d", n+1),
			Date:    time.Date(2019, 3, n+1, 12, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("could not commit %s: %+v", id, err)
		}
	}
}

// Vary the desired entity type in the walk scope when walking from root
func TestWalkScopeTypes(t *testing.T) {

	root := buildTestRoot(t)

	// The test objects are uniform, so we verify by counting the number
	// of entities of the given type
	cases := map[ocfl.Type]int{
		ocfl.Root:         1,
		ocfl.Object:       totalObjects,
		ocfl.Version:      totalVersions,
		ocfl.File:         totalFiles,
		ocfl.Intermediate: totalIntermediates,
		ocfl.Any:          totalEntityCount,
	}

	for typ, expected := range cases {
		var visited []ocfl.EntityRef

		doWalk(t, typ, func(ref ocfl.EntityRef) error {
			visited = append(visited, ref)
			return nil
		}, &fs.Driver{}, root)

		if len(visited) != expected {
			t.Errorf("expected to find %d references of type %s, instead found %d", expected, typ, len(visited))
		}
	}
}

// Vary the start node (root, intermediate, object, version, file) in the walk scope
func TestWalkScopeStart(t *testing.T) {

	root := buildTestRoot(t)
	object := filepath.Join(root, "a/d/obj2")

	cases := []struct {
		name     string
		start    string
		lookFor  ocfl.Type
		expected int
	}{
		{"root", root, ocfl.Object, totalObjects},
		{"intermediate", filepath.Join(root, "a/d"), ocfl.Object, 1},
		{"object", object, ocfl.Version, 3},
		{"version", filepath.Join(object, "v3"), ocfl.File, 4},
		{"file", filepath.Join(object, "v3/content/obj2-new.txt"), ocfl.File, 1},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			var visited []ocfl.EntityRef

			doWalk(t, c.lookFor, func(ref ocfl.EntityRef) error {
				visited = append(visited, ref)
				return nil
			}, &fs.Driver{}, c.start)

			if len(visited) != c.expected {
				t.Errorf("expected to find %d references of type %s, instead found %d", c.expected, c.lookFor, len(visited))
			}
		})
	}
}

func TestBadScopes(t *testing.T) {

	tmp := t.TempDir()

	corrupt := filepath.Join(tmp, "corruptInventory")
	mkObjectDir(t, corrupt, "this is not json")

	missing := filepath.Join(tmp, "missingInventory")
	mkObjectDir(t, missing, "")

	stray := filepath.Join(tmp, "strayObject")
	mkObjectDir(t, stray, "{}")

	emptyRoot := t.TempDir()
	if err := fs.InitRoot(emptyRoot); err != nil {
		t.Fatalf("could not initialize ocfl root: %+v", err)
	}
	rooted, err := fs.NewDriver(fs.Config{Root: emptyRoot})
	if err != nil {
		t.Fatalf("could not set up driver: %+v", err)
	}

	bare := &fs.Driver{}

	cases := []struct {
		name string
		d    *fs.Driver
		loc  string
	}{
		{"zeroRoot", bare, ""},
		{"nonExistentLocation", bare, "DOES_NOT_EXIST"},
		{"corruptObjectInventory", bare, corrupt},
		{"missingObjectInventory", bare, missing},
		{"objectNotInARoot", bare, stray},
		{"unknownLogicalID", rooted, "urn:/nope"},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {

			// Ultimately, we're checking to make sure an error is thrown
			// either when defining the scope, or walking
			err := c.d.Walk(ocfl.Select{}, func(ocfl.EntityRef) error { return nil }, c.loc)
			if err == nil {
				t.Error("did not return an error!")
			}
		})
	}
}

// mkObjectDir fabricates an OCFL object directory with the given inventory
// content, or none if empty
func mkObjectDir(t *testing.T, dir, inventory string) {
	t.Helper()

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("could not create %s: %+v", dir, err)
	}

	decl := filepath.Join(dir, ocfl.NamasteObject)
	if err := os.WriteFile(decl, []byte("ocfl_object_1.0\n"), 0664); err != nil {
		t.Fatalf("could not write %s: %+v", decl, err)
	}

	if inventory != "" {
		inv := filepath.Join(dir, "inventory.json")
		if err := os.WriteFile(inv, []byte(inventory), 0664); err != nil {
			t.Fatalf("could not write %s: %+v", inv, err)
		}
	}
}

// Make sure the entity references contain the expected data.
// Do so by doing a walk, and searching for some expected entities
func TestWalkRefs(t *testing.T) {
	rootPath := buildTestRoot(t)

	root := ocfl.EntityRef{
		ID:   "",
		Type: ocfl.Root,
		Addr: rootPath,
	}

	intermediate := ocfl.EntityRef{
		ID:     "a/b",
		Parent: &root,
		Type:   ocfl.Intermediate,
		Addr:   filepath.Join(rootPath, "a/b"),
	}

	object := ocfl.EntityRef{
		ID:     "urn:/a/b/c/obj1",
		Parent: &root,
		Type:   ocfl.Object,
		Addr:   filepath.Join(rootPath, "a/b/c/obj1"),
	}

	version := ocfl.EntityRef{
		ID:     "v2",
		Parent: &object,
		Type:   ocfl.Version,
		Addr:   filepath.Join(object.Addr, "v2"),
	}

	file := ocfl.EntityRef{
		ID:     "obj1.txt",
		Parent: &version,
		Type:   ocfl.File,
		Addr:   filepath.Join(object.Addr, "v1/content/obj1.txt"),
	}

	// We're not doing an exhaustive search.  Just check that the expected sample
	// for each type is found in the results.
	cases := []ocfl.EntityRef{root, intermediate, object, version, file}

	var visited []ocfl.EntityRef

	doWalk(t, ocfl.Any, func(ref ocfl.EntityRef) error {
		visited = append(visited, ref)
		return nil
	}, &fs.Driver{}, rootPath)

	for _, cas := range cases {
		expected := cas
		t.Run(expected.Type.String(), func(t *testing.T) {
			var found int

			for _, v := range visited {
				if len(deep.Equal(v, expected)) == 0 {
					found++
				}
			}

			if found != 1 {
				t.Errorf("expected to find sample %+v exactly once, instead found %d", expected, found)
			}
		})
	}
}

// Make sure the walk aborts if the walk callback returns an error
func TestWalkAbort(t *testing.T) {
	root := buildTestRoot(t)
	types := []ocfl.Type{ocfl.Root, ocfl.Intermediate, ocfl.Object, ocfl.Version, ocfl.File}

	for _, eType := range types {
		typ := eType
		t.Run(typ.String(), func(t *testing.T) {

			var count int
			d := &fs.Driver{}
			err := d.Walk(ocfl.Select{}, func(ref ocfl.EntityRef) error {
				if ref.Type == typ {
					return fmt.Errorf("threw an error")
				}
				count++
				return nil
			}, root)

			if err == nil {
				t.Errorf("should have thrown an error")
			}

			if count >= totalEntityCount {
				t.Errorf("got too many results, should have aborted sooner: %d", count)
			}
		})
	}
}

func doWalk(t *testing.T, typ ocfl.Type, f func(ocfl.EntityRef) error, d *fs.Driver, from ...string) {
	t.Helper()
	err := d.Walk(ocfl.Select{Type: typ}, f, from...)
	if err != nil {
		t.Error(err)
	}
}
