package ingestion

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/graphql-reader/internal/types"
)

// Output formats
const (
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
)

const (
	documentsBase = "documents"
	metaFile      = "documents.meta.json"
)

// DocumentsPath returns the documents file WriteOutput produces in outDir.
func DocumentsPath(outDir, format string) string {
	if format == "" {
		format = FormatJSON
	}
	return filepath.Join(outDir, documentsBase+"."+format)
}

// MetadataPath returns the metadata file WriteOutput produces in outDir.
func MetadataPath(outDir string) string {
	return filepath.Join(outDir, metaFile)
}

// WriteOutput writes the documents and run metadata to output files
func WriteOutput(outDir string, docs []types.Document, metadata *Metadata, format string) error {
	if format == "" {
		format = FormatJSON
	}

	var content []byte
	var err error
	switch format {
	case FormatJSON:
		content, err = encodeJSON(docs)
	case FormatJSONL:
		content, err = encodeJSONL(docs)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode documents: %w", err)
	}

	// Create output directory if it doesn't exist
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(DocumentsPath(outDir, format), content, 0644); err != nil {
		return fmt.Errorf("failed to write documents file: %w", err)
	}

	metaJSON, err := metadata.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(MetadataPath(outDir), metaJSON, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	return nil
}

func encodeJSON(docs []types.Document) ([]byte, error) {
	if docs == nil {
		docs = []types.Document{}
	}
	return json.MarshalIndent(docs, "", "  ")
}

func encodeJSONL(docs []types.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// ReadDocuments reads a documents file written by WriteOutput. Files ending in
// .jsonl are read line by line; anything else as a JSON array.
func ReadDocuments(path string) ([]types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), "."+FormatJSONL) {
		return decodeJSONL(data)
	}

	var docs []types.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse documents JSON: %w", err)
	}
	return docs, nil
}

func decodeJSONL(data []byte) ([]types.Document, error) {
	docs := []types.Document{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var doc types.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse documents JSONL line %d: %w", line, err)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents JSONL: %w", err)
	}
	return docs, nil
}
