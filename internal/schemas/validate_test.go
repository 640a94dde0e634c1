package schemas

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonathan/graphql-reader/internal/ingestion"
	"github.com/jonathan/graphql-reader/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string"},
		"age": {"type": "integer"}
	}
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func sampleDocs() []types.Document {
	return []types.Document{
		types.NewDocument("Alpha", map[string]string{"article_url": "https://x/a"}),
		types.NewDocument("", map[string]string{"article_url": "https://x/b"}),
	}
}

func TestValidateJSON(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "person.schema.json", personSchema)

	tests := []struct {
		name      string
		content   string
		wantError bool
	}{
		{"valid", `{"name": "Ada", "age": 36}`, false},
		{"missing required field", `{"age": 36}`, true},
		{"wrong type", `{"name": "Ada", "age": "old"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jsonPath := writeFile(t, t.TempDir(), "doc.json", tt.content)

			err := ValidateJSON(schemaPath, jsonPath)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			validationErr, ok := err.(*ValidationError)
			require.True(t, ok, "error should be ValidationError type")
			assert.Greater(t, len(validationErr.Errors), 0)
		})
	}
}

func TestValidateJSON_NonExistentFiles(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "person.schema.json", personSchema)
	jsonPath := writeFile(t, dir, "doc.json", `{"name": "Ada"}`)

	err := ValidateJSON(filepath.Join(dir, "nonexistent_schema.json"), jsonPath)
	assert.ErrorContains(t, err, "not found")

	err = ValidateJSON(schemaPath, filepath.Join(dir, "nonexistent_json.json"))
	assert.ErrorContains(t, err, "not found")
}

func TestValidateJSONString(t *testing.T) {
	assert.NoError(t, ValidateJSONString(personSchema, `{"name": "test"}`))

	err := ValidateJSONString(personSchema, `{"age": 30}`)
	require.Error(t, err)
	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidateJSONString_BrokenSchema(t *testing.T) {
	err := ValidateJSONString(`{"type": 12}`, `{}`)
	require.Error(t, err)
	_, ok := err.(*SchemaLoadError)
	assert.True(t, ok, "got %T", err)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "name", Message: "is required"},
			{Field: "age", Message: "must be a number"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "1. name: is required")
	assert.Contains(t, errorMsg, "2. age: must be a number")
}

func TestValidateDocuments(t *testing.T) {
	assert.NoError(t, ValidateDocuments(sampleDocs()))
	assert.NoError(t, ValidateDocuments(nil))
}

func TestValidateDocuments_TamperedHash(t *testing.T) {
	docs := sampleDocs()
	docs[1].Text = "edited after hashing"

	err := ValidateDocuments(docs)
	require.Error(t, err)
	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	require.Len(t, validationErr.Errors, 1)
	assert.Equal(t, "[1].hash", validationErr.Errors[0].Field)
}

func TestValidateDocuments_SharedID(t *testing.T) {
	docs := sampleDocs()
	docs = append(docs, docs[0])

	err := ValidateDocuments(docs)
	require.Error(t, err)
	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	require.Len(t, validationErr.Errors, 1)
	assert.Equal(t, fmt.Sprintf("[%d].id", len(docs)-1), validationErr.Errors[0].Field)
	assert.Contains(t, validationErr.Errors[0].Message, "document [0]")
}

func TestValidateDocumentsFile_SharedID(t *testing.T) {
	outDir := t.TempDir()
	docs := sampleDocs()
	docs[1].ID = docs[0].ID
	require.NoError(t, ingestion.WriteOutput(outDir, docs, ingestion.NewMetadata("e", "f", docs), ingestion.FormatJSONL))

	err := ValidateDocumentsFile(ingestion.DocumentsPath(outDir, ingestion.FormatJSONL))
	assert.ErrorContains(t, err, "[1].id")
}

func TestValidateDocuments_SchemaViolation(t *testing.T) {
	docs := sampleDocs()
	docs[0].ID = "not-a-uuid"

	err := ValidateDocuments(docs)
	require.Error(t, err)
	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(validationErr.Errors[0].Field, "[0]"), validationErr.Errors[0].Field)
}

func TestValidateDocumentsFile(t *testing.T) {
	for _, format := range []string{ingestion.FormatJSON, ingestion.FormatJSONL} {
		t.Run(format, func(t *testing.T) {
			outDir := t.TempDir()
			docs := sampleDocs()
			require.NoError(t, ingestion.WriteOutput(outDir, docs, ingestion.NewMetadata("e", "f", docs), format))

			assert.NoError(t, ValidateDocumentsFile(ingestion.DocumentsPath(outDir, format)))
		})
	}
}

func TestValidateDocumentsFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	notArray := writeFile(t, dir, "documents.json", `{"id": "x"}`)
	err := ValidateDocumentsFile(notArray)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "(root)")

	missingFields := writeFile(t, dir, "missing.jsonl", `{"id": "0b7e4bd4-3c2a-5f1e-8d34-1b2c3d4e5f60", "text": "x"}`+"\n")
	err = ValidateDocumentsFile(missingFields)
	require.Error(t, err)
	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(validationErr.Errors), 2)

	err = ValidateDocumentsFile(filepath.Join(dir, "nope.json"))
	assert.ErrorContains(t, err, "not found")
}

func TestResolveSchemaPath(t *testing.T) {
	// Tests run from internal/schemas, two levels below the repo root
	path := ResolveSchemaPath(filepath.Join("schemas", "document.schema.json"))
	require.NotEmpty(t, path)
	assert.True(t, filepath.IsAbs(path))

	assert.Empty(t, ResolveSchemaPath(filepath.Join("schemas", "nonexistent.schema.json")))
}
