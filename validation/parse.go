package validation

import (
	"bytes"
	"encoding/json"
	"sort"
)

// inv is an inventory document as actually found in storage.  Fields that
// are absent, null, or of the wrong JSON type are nil; the parser reports
// the type problem and downstream checks then treat the field as unset.
type inv struct {
	path string

	id               *string
	typ              *string
	digestAlgorithm  *string
	head             *string
	contentDirectory *string
	manifest         map[string][]string
	versions         map[string]*version
	fixity           map[string]map[string][]string
}

type version struct {
	created *string
	state   map[string][]string
	message *string
	user    *user
}

type user struct {
	name    *string
	address *string
}

// contentDir resolves the content directory name, defaulting to content
func (i *inv) contentDir() string {
	if i.contentDirectory == nil || *i.contentDirectory == "" {
		return "content"
	}
	return *i.contentDirectory
}

// parseInventory decodes an inventory document against the closed OCFL
// schema.  Unknown properties and wrongly typed values are reported as
// issues rather than parse failures; only malformed JSON aborts, reported
// as E033 with a nil inventory.
func parseInventory(data []byte, docPath string, r *Results) *inv {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		r.add(E033, "Inventory at %s is an invalid JSON document: %s", docPath, err)
		return nil
	}

	parsed := &inv{path: docPath}

	for _, key := range sortedKeys(doc) {
		raw := doc[key]
		switch key {
		case "id":
			parsed.id = parseString(raw, r, E036, "Inventory id must be a string in %s", docPath)
		case "type":
			parsed.typ = parseString(raw, r, E038, "Inventory type must be a string in %s", docPath)
		case "digestAlgorithm":
			parsed.digestAlgorithm = parseString(raw, r, E036, "Inventory digest algorithm must be a string in %s", docPath)
		case "head":
			parsed.head = parseString(raw, r, E040, "Inventory head must be a string in %s", docPath)
		case "contentDirectory":
			parsed.contentDirectory = parseString(raw, r, E017, "Inventory content directory must be a string in %s", docPath)
		case "manifest":
			parsed.manifest = parseDigestMap(raw, r,
				E041, "Inventory manifest must be an object in %s",
				"Inventory manifest entry %s must be an array of strings in %s", docPath)
		case "versions":
			parsed.versions = parseVersions(raw, docPath, r)
		case "fixity":
			parsed.fixity = parseFixity(raw, docPath, r)
		default:
			r.add(E102, "Inventory cannot contain unknown property %s in %s", key, docPath)
		}
	}

	return parsed
}

func parseVersions(raw json.RawMessage, docPath string, r *Results) map[string]*version {
	if isNull(raw) {
		return nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		r.add(E044, "Inventory versions must be an object in %s", docPath)
		return nil
	}

	versions := map[string]*version{}
	for _, num := range sortedKeys(doc) {
		versions[num] = parseVersion(doc[num], num, docPath, r)
	}
	return versions
}

func parseVersion(raw json.RawMessage, num, docPath string, r *Results) *version {
	v := &version{}

	if isNull(raw) {
		return v
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		r.add(E048, "Inventory version %s must be an object in %s", num, docPath)
		return v
	}

	for _, key := range sortedKeys(doc) {
		field := doc[key]
		switch key {
		case "created":
			v.created = parseString(field, r, E049, "Inventory version "+num+" created timestamp must be a string in %s", docPath)
		case "state":
			v.state = parseDigestMap(field, r,
				E050, "Inventory version "+num+" state must be an object in %s",
				"Inventory version "+num+" state entry %s must be an array of strings in %s", docPath)
		case "message":
			v.message = parseString(field, r, E094, "Inventory version "+num+" message must be a string in %s", docPath)
		case "user":
			v.user = parseUser(field, num, docPath, r)
		default:
			r.add(E102, "Inventory version %s cannot contain unknown property %s in %s", num, key, docPath)
		}
	}

	return v
}

func parseUser(raw json.RawMessage, num, docPath string, r *Results) *user {
	if isNull(raw) {
		return nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		r.add(E054, "Inventory version %s user must be an object in %s", num, docPath)
		return &user{}
	}

	u := &user{}
	for _, key := range sortedKeys(doc) {
		switch key {
		case "name":
			u.name = parseString(doc[key], r, E054, "Inventory version "+num+" user name must be a string in %s", docPath)
		case "address":
			u.address = parseString(doc[key], r, E054, "Inventory version "+num+" user address must be a string in %s", docPath)
		default:
			r.add(E102, "Inventory version %s user cannot contain unknown property %s in %s", num, key, docPath)
		}
	}
	return u
}

func parseFixity(raw json.RawMessage, docPath string, r *Results) map[string]map[string][]string {
	if isNull(raw) {
		return nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		r.add(E056, "Inventory fixity must be an object in %s", docPath)
		return nil
	}

	fixity := map[string]map[string][]string{}
	for _, alg := range sortedKeys(doc) {
		block := parseDigestMap(doc[alg], r,
			E056, "Inventory fixity block "+alg+" must be an object in %s",
			"Inventory fixity block "+alg+" entry %s must be an array of strings in %s", docPath)
		if block != nil {
			fixity[alg] = block
		}
	}
	return fixity
}

// parseDigestMap decodes a digest to path-list mapping, dropping entries
// whose values are not string arrays
func parseDigestMap(raw json.RawMessage, r *Results, code Code, blockFormat, entryFormat, docPath string) map[string][]string {
	if isNull(raw) {
		return nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		r.add(code, blockFormat, docPath)
		return nil
	}

	m := map[string][]string{}
	for _, digest := range sortedKeys(doc) {
		var paths []string
		if err := json.Unmarshal(doc[digest], &paths); err != nil {
			r.add(code, entryFormat, digest, docPath)
			continue
		}
		m[digest] = paths
	}
	return m
}

// parseString decodes a JSON string field, reporting the given issue and
// yielding nil when the value has another type.  Null is treated as absent.
func parseString(raw json.RawMessage, r *Results, code Code, format, docPath string) *string {
	if isNull(raw) {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		r.add(code, format, docPath)
		return nil
	}
	return &s
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func sortedKeys(doc map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
