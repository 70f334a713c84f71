// Package pathconstraint screens content paths for portability across
// filesystems and object stores.  A Processor is assembled from a named
// profile and applies an ordered list of pure checks to whole paths,
// to individual filename segments, and to individual characters.  It
// has no side effects and may be used independently of validation or
// storage drivers.
package pathconstraint

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Profile names a set of portability constraints
type Profile string

const (
	// None applies only the baseline constraints every content path must meet
	None Profile = "none"

	// Unix screens for paths that are problematic on unix filesystems
	Unix Profile = "unix"

	// Windows screens for paths that are problematic on Windows filesystems
	Windows Profile = "windows"

	// Cloud screens for paths that are problematic in object stores (S3, Azure, GCS)
	Cloud Profile = "cloud"

	// All is the union of Unix, Windows, and Cloud
	All Profile = "all"
)

// ParseProfile maps a profile name to a Profile
func ParseProfile(name string) (Profile, error) {
	switch Profile(name) {
	case None, Unix, Windows, Cloud, All:
		return Profile(name), nil
	}
	return None, errors.Errorf("unknown path constraint profile %s", name)
}

// Violation describes a single breached constraint on a content path
type Violation struct {
	Path   string
	Detail string
}

func (v Violation) String() string {
	return fmt.Sprintf("content path %s %s", v.Path, v.Detail)
}

type pathCheck func(path string) (string, bool)
type nameCheck func(name string) (string, bool)
type charCheck func(c rune) (string, bool)

// Processor applies the constraints of a profile to content paths
type Processor struct {
	paths []pathCheck
	names []nameCheck
	chars []charCheck
}

// ForProfile assembles a Processor for the named profile
func ForProfile(p Profile) (*Processor, error) {
	proc := &Processor{}

	switch p {
	case None:
	case Unix:
		proc.names = []nameCheck{maxNameBytes(255)}
		proc.chars = []charCheck{blacklist('\x00')}
	case Windows:
		proc.names = []nameCheck{maxNameChars(255), noReservedNames, noTrailingSpacePeriod}
		proc.chars = []charCheck{controlRange(0, 31), blacklist('<', '>', ':', '"', '\\', '|', '?', '*')}
	case Cloud:
		proc.paths = []pathCheck{maxPathBytes(1024)}
		proc.names = []nameCheck{maxNameChars(254), noTrailingSpacePeriod}
		proc.chars = []charCheck{controlRange(0, 31), controlRange(127, 160), blacklist('\\', '#', '[', ']', '*', '?')}
	case All:
		proc.paths = []pathCheck{maxPathBytes(1024)}
		proc.names = []nameCheck{maxNameChars(254), noReservedNames, noTrailingSpacePeriod}
		proc.chars = []charCheck{controlRange(0, 31), controlRange(127, 160),
			blacklist('<', '>', ':', '"', '\\', '|', '?', '*', '#', '[', ']')}
	default:
		return nil, errors.Errorf("unknown path constraint profile %s", p)
	}

	return proc, nil
}

// Apply checks a content path against the baseline constraints and the
// processor's profile.  The content path is relative to the object root.
// The storage path is the full path of the same file from the storage
// root, used for whole-path limits; if empty, the content path stands in
// for it.  Every breached constraint yields one Violation.
func (p *Processor) Apply(contentPath, storagePath string) []Violation {
	var v []Violation
	report := func(detail string) {
		v = append(v, Violation{Path: contentPath, Detail: detail})
	}

	if storagePath == "" {
		storagePath = contentPath
	}

	if strings.HasSuffix(contentPath, "/") {
		report("must not have a trailing slash")
	}

	for _, check := range p.paths {
		if detail, ok := check(storagePath); !ok {
			report(detail)
		}
	}

	for _, name := range strings.Split(strings.TrimSuffix(contentPath, "/"), "/") {
		switch name {
		case "":
			report("must not contain an empty filename")
			continue
		case ".", "..":
			report(fmt.Sprintf("must not contain the filename %s", name))
			continue
		}

		for _, check := range p.names {
			if detail, ok := check(name); !ok {
				report(detail)
			}
		}

		for _, c := range name {
			for _, check := range p.chars {
				if detail, ok := check(c); !ok {
					report(fmt.Sprintf("filename %s %s", name, detail))
				}
			}
		}
	}

	return v
}

func maxPathBytes(max int) pathCheck {
	return func(path string) (string, bool) {
		if len(path) > max {
			return fmt.Sprintf("must not exceed %d bytes; found %d", max, len(path)), false
		}
		return "", true
	}
}

func maxNameBytes(max int) nameCheck {
	return func(name string) (string, bool) {
		if len(name) > max {
			return fmt.Sprintf("filename %s must not exceed %d bytes", name, max), false
		}
		return "", true
	}
}

func maxNameChars(max int) nameCheck {
	return func(name string) (string, bool) {
		if n := len([]rune(name)); n > max {
			return fmt.Sprintf("filename %s must not exceed %d characters", name, max), false
		}
		return "", true
	}
}

var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// A filename is reserved if it is a Windows device name, optionally
// followed by a single dotted extension, in any case.
func noReservedNames(name string) (string, bool) {
	candidate := strings.ToUpper(name)
	if dot := strings.IndexByte(candidate, '.'); dot >= 0 {
		ext := candidate[dot+1:]
		if ext == "" || strings.ContainsRune(ext, '.') {
			return "", true
		}
		candidate = candidate[:dot]
	}

	if _, reserved := reservedNames[candidate]; reserved {
		return fmt.Sprintf("filename %s must not be a reserved Windows name", name), false
	}
	return "", true
}

func noTrailingSpacePeriod(name string) (string, bool) {
	if strings.HasSuffix(name, " ") || strings.HasSuffix(name, ".") {
		return fmt.Sprintf("filename %s must not end with a space or period", name), false
	}
	return "", true
}

func controlRange(lo, hi rune) charCheck {
	return func(c rune) (string, bool) {
		if c >= lo && c <= hi {
			return fmt.Sprintf("must not contain character 0x%x", c), false
		}
		return "", true
	}
}

func blacklist(forbidden ...rune) charCheck {
	set := map[rune]struct{}{}
	for _, c := range forbidden {
		set[c] = struct{}{}
	}
	return func(c rune) (string, bool) {
		if _, bad := set[c]; bad {
			return fmt.Sprintf("must not contain character %q", c), false
		}
		return "", true
	}
}
