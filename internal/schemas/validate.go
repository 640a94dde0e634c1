// Package schemas provides JSON Schema validation for the documents a load writes.
package schemas

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/graphql-reader/internal/ingestion"
	"github.com/jonathan/graphql-reader/internal/types"
	documentschema "github.com/jonathan/graphql-reader/schemas"
)

// ResolveSchemaPath attempts to find a schema file by trying multiple common path resolutions.
// It tries paths relative to the current working directory, then paths relative to likely repo root locations.
// Returns the first path that exists, or empty string if none found.
func ResolveSchemaPath(relativePath string) string {
	candidates := []string{
		relativePath,
		filepath.Join("..", relativePath),
		filepath.Join("..", "..", relativePath),
	}

	for _, candidate := range candidates {
		if absPath, err := filepath.Abs(candidate); err == nil {
			if _, err := os.Stat(absPath); err == nil {
				return absPath
			}
		}
	}

	return ""
}

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// ValidateJSON validates a JSON file against a JSON Schema file
func ValidateJSON(schemaPath, jsonPath string) error {
	schemaAbsPath, err := filepath.Abs(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to resolve schema path: %w", err)
	}

	jsonAbsPath, err := filepath.Abs(jsonPath)
	if err != nil {
		return fmt.Errorf("failed to resolve JSON path: %w", err)
	}

	if _, err := os.Stat(schemaAbsPath); os.IsNotExist(err) {
		return fmt.Errorf("schema file not found: %s", schemaAbsPath)
	}

	if _, err := os.Stat(jsonAbsPath); os.IsNotExist(err) {
		return fmt.Errorf("JSON file not found: %s", jsonAbsPath)
	}

	schemaLoader := gojsonschema.NewReferenceLoader("file://" + schemaAbsPath)
	documentLoader := gojsonschema.NewReferenceLoader("file://" + jsonAbsPath)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    schemaAbsPath,
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	return resultError(result, "")
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    "(string schema)",
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	return resultError(result, "")
}

var (
	documentSchemaOnce sync.Once
	documentSchema     *gojsonschema.Schema
	documentSchemaErr  error
)

func loadDocumentSchema() (*gojsonschema.Schema, error) {
	documentSchemaOnce.Do(func() {
		documentSchema, documentSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(documentschema.Document))
		if documentSchemaErr != nil {
			documentSchemaErr = &SchemaLoadError{
				Path:    "document.schema.json",
				Message: "embedded schema is invalid",
				Cause:   documentSchemaErr,
			}
		}
	})
	return documentSchema, documentSchemaErr
}

// ValidateDocuments checks in-memory documents against the document schema and
// verifies that every stored hash matches the document content and that no two
// documents share an ID.
func ValidateDocuments(docs []types.Document) error {
	raw := make([]json.RawMessage, 0, len(docs))
	for i, doc := range docs {
		b, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal document %d: %w", i, err)
		}
		raw = append(raw, b)
	}
	if err := validateRawDocuments(raw); err != nil {
		return err
	}
	return verifyDocuments(docs)
}

// ValidateDocumentsFile checks a documents file written by a load, in either
// the JSON array or the JSONL layout.
func ValidateDocumentsFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("JSON file not found: %s", path)
		}
		return fmt.Errorf("failed to read documents file: %w", err)
	}

	var raw []json.RawMessage
	if strings.EqualFold(filepath.Ext(path), "."+ingestion.FormatJSONL) {
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				raw = append(raw, json.RawMessage(line))
			}
		}
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return &ValidationError{Errors: []FieldError{{Field: "(root)", Message: "documents file must be a JSON array: " + err.Error()}}}
	}
	if err := validateRawDocuments(raw); err != nil {
		return err
	}

	docs, err := ingestion.ReadDocuments(path)
	if err != nil {
		return err
	}
	return verifyDocuments(docs)
}

func validateRawDocuments(raw []json.RawMessage) error {
	schema, err := loadDocumentSchema()
	if err != nil {
		return err
	}

	validationErr := &ValidationError{}
	for i, item := range raw {
		prefix := fmt.Sprintf("[%d]", i)
		result, err := schema.Validate(gojsonschema.NewBytesLoader(item))
		if err != nil {
			validationErr.Errors = append(validationErr.Errors, FieldError{Field: prefix, Message: "not valid JSON: " + err.Error()})
			continue
		}
		if err := resultError(result, prefix); err != nil {
			validationErr.Errors = append(validationErr.Errors, err.(*ValidationError).Errors...)
		}
	}

	if len(validationErr.Errors) > 0 {
		return validationErr
	}
	return nil
}

func verifyDocuments(docs []types.Document) error {
	validationErr := &ValidationError{}
	firstByID := make(map[string]int, len(docs))
	for i, doc := range docs {
		if doc.Hash != types.ComputeHash(doc.Text, doc.Metadata) {
			validationErr.Errors = append(validationErr.Errors, FieldError{
				Field:   fmt.Sprintf("[%d].hash", i),
				Message: "does not match document content",
			})
		}
		if first, ok := firstByID[doc.ID]; ok {
			validationErr.Errors = append(validationErr.Errors, FieldError{
				Field:   fmt.Sprintf("[%d].id", i),
				Message: fmt.Sprintf("duplicates the id of document [%d]", first),
			})
			continue
		}
		firstByID[doc.ID] = i
	}
	if len(validationErr.Errors) > 0 {
		return validationErr
	}
	return nil
}

// resultError converts a gojsonschema result into a ValidationError, prefixing
// each field path with prefix.
func resultError(result *gojsonschema.Result, prefix string) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}

	for _, desc := range result.Errors() {
		field := desc.Field()
		switch {
		case prefix != "" && (field == "(root)" || field == ""):
			field = prefix
		case prefix != "":
			field = prefix + "." + field
		case field == "":
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
