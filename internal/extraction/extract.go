// Package extraction builds documents from raw GraphQL records.
package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/graphql-reader/internal/fieldpath"
	"github.com/jonathan/graphql-reader/internal/types"
)

// Cleaner normalizes resolved values. *normalize.Normalizer implements it.
type Cleaner interface {
	Clean(ctx context.Context, v any) (string, error)
	CleanMetadata(ctx context.Context, v any) (string, error)
}

// Field is a configured field name together with its parsed path.
type Field struct {
	Name string
	Path fieldpath.Path
	Role fieldpath.Role
}

// FieldError reports a field whose value could not be cleaned.
type FieldError struct {
	Field string
	Role  fieldpath.Role
	Cause error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s field %q: %v", e.Role, e.Field, e.Cause)
}

func (e *FieldError) Unwrap() error {
	return e.Cause
}

// Extractor turns one record into one Document according to the configured fields.
type Extractor struct {
	text     []Field
	metadata []Field
	cleaner  Cleaner
}

// New parses the configured text and metadata field names. A name may appear
// in both lists and more than once in a list.
func New(textFields, metadataFields []string, cleaner Cleaner) (*Extractor, error) {
	text, err := parseFields(textFields, fieldpath.RoleText)
	if err != nil {
		return nil, err
	}
	metadata, err := parseFields(metadataFields, fieldpath.RoleMetadata)
	if err != nil {
		return nil, err
	}
	return &Extractor{text: text, metadata: metadata, cleaner: cleaner}, nil
}

func parseFields(names []string, role fieldpath.Role) ([]Field, error) {
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		path, err := fieldpath.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("invalid %s field: %w", role, err)
		}
		fields = append(fields, Field{Name: name, Path: path, Role: role})
	}
	return fields, nil
}

// Fields returns the configured text fields followed by the metadata fields.
func (e *Extractor) Fields() []Field {
	out := make([]Field, 0, len(e.text)+len(e.metadata))
	out = append(out, e.text...)
	return append(out, e.metadata...)
}

// Extract builds the Document for record. Missing fields never fail: they add
// nothing to the text and an empty metadata value. A list-valued metadata
// field keeps its first leaf.
func (e *Extractor) Extract(ctx context.Context, record any) (types.Document, error) {
	var fragments []string
	for _, f := range e.text {
		value := fieldpath.Resolve(record, f.Path)
		if value == nil {
			continue
		}
		for _, item := range fieldpath.Flatten(value) {
			cleaned, err := e.cleaner.Clean(ctx, item)
			if err != nil {
				return types.Document{}, &FieldError{Field: f.Name, Role: f.Role, Cause: err}
			}
			if cleaned != "" {
				fragments = append(fragments, cleaned)
			}
		}
	}

	metadata := make(map[string]string, len(e.metadata))
	for _, f := range e.metadata {
		value := fieldpath.Resolve(record, f.Path)
		if list, ok := value.([]any); ok {
			// Metadata holds one scalar: the first leaf of the list, however nested
			value = nil
			if leaves := fieldpath.Flatten(list); len(leaves) > 0 {
				value = leaves[0]
			}
		}
		cleaned, err := e.cleaner.CleanMetadata(ctx, value)
		if err != nil {
			return types.Document{}, &FieldError{Field: f.Name, Role: f.Role, Cause: err}
		}
		metadata[f.Name] = cleaned
	}

	return types.NewDocument(strings.Join(fragments, " "), metadata), nil
}
