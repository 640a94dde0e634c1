// Package ingestion writes the documents produced by a load to disk.
package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonathan/graphql-reader/internal/types"
)

// Metadata describes one load run
type Metadata struct {
	Endpoint       string   `json:"endpoint"`
	Fields         string   `json:"fields"`
	TextFields     []string `json:"text_fields,omitempty"`
	MetadataFields []string `json:"metadata_fields,omitempty"`
	Page           *int     `json:"page,omitempty"`
	Rows           *int     `json:"rows,omitempty"`
	Count          int      `json:"count"`
	Timestamp      string   `json:"timestamp"` // RFC3339 format
	Hash           string   `json:"hash"`      // SHA256 hex digest over the document hashes
}

// NewMetadata creates a new Metadata instance for docs with current timestamp
func NewMetadata(endpoint, fields string, docs []types.Document) *Metadata {
	return &Metadata{
		Endpoint:  endpoint,
		Fields:    fields,
		Count:     len(docs),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      computeHash(docs),
	}
}

// computeHash digests the ordered document hashes, so reordering changes the result
func computeHash(docs []types.Document) string {
	h := sha256.New()
	for _, doc := range docs {
		h.Write([]byte(doc.Hash))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ToJSON marshals Metadata to pretty-printed JSON
func (m *Metadata) ToJSON() ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata to JSON: %w", err)
	}
	return jsonBytes, nil
}
