package ocfl

import (
	"io"
	"time"
)

// Type names a kind of OCFL entity
type Type int

// OCFL entity types, ordered by specificity, e.g. Root > Object
const (
	Any Type = iota
	File
	Version
	Object
	Intermediate
	Root
)

// Namaste declaration file names identifying OCFL roots and objects.
// The content of a declaration file is its name without the "0=" prefix,
// followed by a newline.
const (
	NamasteRoot   = "0=ocfl_1.0"
	NamasteObject = "0=ocfl_object_1.0"
)

func (t Type) String() string {
	switch t {
	case File:
		return "file"
	case Version:
		return "version"
	case Object:
		return "object"
	case Intermediate:
		return "intermediate"
	case Root:
		return "root"
	default:
		return "any"
	}
}

// ParseType interprets a string as an OCFL entity type.
// Unrecognized values (including the empty string) map to Any.
func ParseType(s string) Type {
	switch s {
	case "file":
		return File
	case "version":
		return Version
	case "object":
		return Object
	case "intermediate":
		return Intermediate
	case "root":
		return Root
	default:
		return Any
	}
}

// EntityRef represents a single OCFL entity (root, intermediate node,
// object, version, or file), linked to the entities that contain it.
type EntityRef struct {
	ID     string     // Logical ID of an entity, unique within its parent
	Addr   string     // Physical address of an entity, e.g. a file path or URI
	Parent *EntityRef // Parent entity, nil if this is a root
	Type   Type
}

// Coords presents an entity's logical address as a sequence of IDs,
// e.g. [objectID, versionID, logicalFilePath] for a file.  Roots and
// intermediate nodes have no coordinates of their own.
func (e EntityRef) Coords() []string {
	var coords []string
	for ref := &e; ref != nil && ref.Type != Root && ref.Type != Intermediate; ref = ref.Parent {
		coords = append([]string{ref.ID}, coords...)
	}
	return coords
}

// Select narrows a set of OCFL entities to those matching the
// desired type, and optionally only those within head versions.
type Select struct {
	Type Type // Desired entity type, or Any
	Head bool // Match only entities in or under an object's head version
}

// Version sentinels for Options.  HEAD (the zero value) opens the most
// recent version of an object; NEW creates the next version.
const (
	HEAD = ""
	NEW  = "new"
)

// Options governs how an OCFL session is opened.
type Options struct {
	Create  bool   // Create the object if it does not exist
	Version string // Version to open: HEAD, NEW, or an explicit version name
}

// CommitInfo records who committed a version of an OCFL object, when,
// and why.
type CommitInfo struct {
	Name    string // User name
	Address string // User address, e.g. mailto: or https: URI
	Message string // Commit message
	Date    time.Time
}

// Walker iterates OCFL entities matching a selector.  The variadic loc
// arguments identify where to start: nothing (the driver's root), a
// physical address, or a logical hierarchy of IDs such as
// (objectID, versionID, logicalFilePath).
type Walker interface {
	Walk(desired Select, cb func(EntityRef) error, loc ...string) error
}

// Driver provides access to the contents of an OCFL repository.
type Driver interface {
	Walker

	// Open establishes a session for reading from or writing to
	// the given OCFL object.
	Open(id string, opts Options) (Session, error)
}

// Session is an interaction with an OCFL object at a fixed version.
// Mutations accumulate in the session and are made durable by Commit.
type Session interface {
	Put(lpath string, r io.Reader) error
	Commit(CommitInfo) error
}
