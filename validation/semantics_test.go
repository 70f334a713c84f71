package validation

import (
	"testing"

	"github.com/go-test/deep"
	"github.com/preservio/ocfl/metadata"
)

func checkDoc(t *testing.T, doc string) *Results {
	t.Helper()

	r := &Results{}
	i := parseInventory([]byte(doc), "obj/inventory.json", r)
	if i == nil {
		t.Fatalf("inventory did not parse")
	}
	validateInventory(i, r)
	return r
}

func docFull(head, manifest, versions string) string {
	return `{"id":"urn:example:unit","type":"` + metadata.InventoryType +
		`","digestAlgorithm":"sha512","head":"` + head +
		`","manifest":` + manifest + `,"versions":` + versions + `}`
}

func block(created string) string {
	return `{"created":"` + created + `","message":"m","user":{"name":"n","address":"mailto:n@example.org"},"state":{}}`
}

func issueStrings(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.String())
	}
	return out
}

func TestVersionSequences(t *testing.T) {
	cases := []struct {
		name   string
		doc    string
		errors []string
	}{
		{
			name: "contiguous",
			doc: docFull("v3", "{}",
				`{"v1":`+block("2019-01-01T00:00:00Z")+`,"v2":`+block("2019-02-01T00:00:00Z")+`,"v3":`+block("2019-03-01T00:00:00Z")+`}`),
		},
		{
			name: "gap",
			doc: docFull("v3", "{}",
				`{"v1":`+block("2019-01-01T00:00:00Z")+`,"v3":`+block("2019-03-01T00:00:00Z")+`}`),
			errors: []string{
				"[E044] Inventory versions is missing an entry for version v2 in obj/inventory.json",
			},
		},
		{
			name: "headNotHighest",
			doc: docFull("v1", "{}",
				`{"v1":`+block("2019-01-01T00:00:00Z")+`,"v2":`+block("2019-02-01T00:00:00Z")+`}`),
			errors: []string{
				"[E040] Inventory head must be the highest version number in obj/inventory.json",
			},
		},
		{
			name: "headBeyondVersions",
			doc:  docFull("v2", "{}", `{"v1":`+block("2019-01-01T00:00:00Z")+`}`),
			errors: []string{
				"[E044] Inventory versions is missing an entry for version v2 in obj/inventory.json",
				"[E040] Inventory head must be the highest version number in obj/inventory.json",
			},
		},
		{
			name: "headNotVersionNumber",
			doc:  docFull("1", "{}", `{"v1":`+block("2019-01-01T00:00:00Z")+`}`),
			errors: []string{
				"[E040] Inventory head must be a valid version number in obj/inventory.json. Found: 1",
			},
		},
		{
			name: "invalidVersionKey",
			doc: docFull("v1", "{}",
				`{"v1":`+block("2019-01-01T00:00:00Z")+`,"vFoo":`+block("2019-02-01T00:00:00Z")+`}`),
			errors: []string{
				"[E044] Inventory versions contains an invalid version number vFoo in obj/inventory.json",
			},
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			r := checkDoc(t, c.doc)
			got := issueStrings(r.Errors())
			if len(c.errors) == 0 && len(got) == 0 {
				return
			}
			if diff := deep.Equal(got, c.errors); diff != nil {
				t.Errorf("unexpected errors: %v", diff)
			}
		})
	}
}

func TestCreatedTimestamps(t *testing.T) {
	cases := []struct {
		name    string
		created string
		valid   bool
	}{
		{"utc", "2019-01-01T00:00:00Z", true},
		{"offset", "2019-01-01T00:00:00+01:00", true},
		{"fractionalSeconds", "2019-01-01T00:00:00.123456Z", true},
		{"spaceSeparator", "2019-01-01 00:00:00Z", false},
		{"noTimezone", "2019-01-01T00:00:00", false},
		{"noSeconds", "2019-01-01T00:00Z", false},
		{"dateOnly", "2019-01-01", false},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			r := checkDoc(t, docFull("v1", "{}", `{"v1":`+block(c.created)+`}`))

			if c.valid {
				if r.HasErrors() {
					t.Errorf("expected no errors, got %v", r.Errors())
				}
				return
			}

			want := []string{
				"[E049] Inventory version v1 created timestamp must be formatted in accordance to RFC3339 in obj/inventory.json. Found: " + c.created,
			}
			if diff := deep.Equal(issueStrings(r.Errors()), want); diff != nil {
				t.Errorf("unexpected errors: %v", diff)
			}
		})
	}
}

func TestStateRules(t *testing.T) {
	cases := []struct {
		name     string
		manifest string
		state    string
		errors   []string
	}{
		{
			name:     "digestCaseInsensitive",
			manifest: `{"ABCDEF0123":["v1/content/f.txt"]}`,
			state:    `{"abcdef0123":["f.txt"]}`,
		},
		{
			name:     "digestNotInManifest",
			manifest: `{}`,
			state:    `{"deadbeef":["f.txt"]}`,
			errors: []string{
				"[E050] Inventory version v1 state references digest deadbeef that is not in the manifest in obj/inventory.json",
			},
		},
		{
			name:     "prefixConflict",
			manifest: `{"d1":["v1/content/f.txt"]}`,
			state:    `{"d1":["sub","sub/path"]}`,
			errors: []string{
				"[E095] Inventory version v1 paths must be non-conflicting in obj/inventory.json. Found conflicting path: sub",
			},
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			doc := docFull("v1", c.manifest,
				`{"v1":{"created":"2019-01-01T00:00:00Z","message":"m","user":{"name":"n","address":"mailto:n@example.org"},"state":`+c.state+`}}`)

			r := checkDoc(t, doc)
			got := issueStrings(r.Errors())
			if len(c.errors) == 0 && len(got) == 0 {
				return
			}
			if diff := deep.Equal(got, c.errors); diff != nil {
				t.Errorf("unexpected errors: %v", diff)
			}
		})
	}
}
