// Package fieldpath resolves dotted field names against decoded GraphQL records.
//
// Records are whatever encoding/json produces when decoding into any:
// nil, string, json.Number, float64, bool, map[string]any and []any.
package fieldpath

import (
	"fmt"
	"strings"
)

// Role says how a resolved field is used when building a document.
type Role string

const (
	// RoleText fields are flattened, cleaned and joined into the document text
	RoleText Role = "text"
	// RoleMetadata fields are reduced to a single cleaned value
	RoleMetadata Role = "metadata"
)

// Path is a dotted field name split into its traversal segments.
type Path []string

// Parse splits a configured field name on "." into a Path.
func Parse(name string) (Path, error) {
	if name == "" {
		return nil, fmt.Errorf("field name is empty")
	}
	segments := strings.Split(name, ".")
	for i, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("field name %q has an empty segment at position %d", name, i)
		}
	}
	return Path(segments), nil
}

// MustParse is like Parse but panics on an invalid name. Intended for tests and constants.
func MustParse(name string) Path {
	p, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return p
}

// String joins the segments back into the dotted form.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Resolve walks path through record and returns the value found, or nil when
// the path does not lead anywhere. A list met on the way is collapsed to its
// first element before the next segment is looked up; an empty list ends the
// walk with nil.
//
// The value at the end of the path is returned as is, lists included.
func Resolve(record any, path Path) any {
	if len(path) == 0 {
		return record
	}

	if list, ok := record.([]any); ok {
		if len(list) == 0 {
			return nil
		}
		record = list[0]
	}

	obj, ok := record.(map[string]any)
	if !ok {
		return nil
	}
	next, ok := obj[path[0]]
	if !ok {
		return nil
	}
	return Resolve(next, path[1:])
}
