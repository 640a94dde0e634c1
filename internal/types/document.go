// Package types provides type definitions for structured data used throughout the graphql-reader system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// documentNamespace scopes name-based record IDs.
var documentNamespace = uuid.MustParse("6f1d7c1e-2b8a-5e43-9c0d-3a9f4b2e8d71")

// Document is one extracted record flattened into text plus metadata.
// It is created once per raw record and not modified afterwards.
type Document struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
	Hash     string            `json:"hash"` // SHA256 hex digest of text and metadata
}

// NewDocument builds a Document with its content hash and a random ID.
// Records read from a list get a positional ID from RecordID instead.
// A nil metadata map is replaced with an empty one.
func NewDocument(text string, metadata map[string]string) Document {
	if metadata == nil {
		metadata = map[string]string{}
	}
	return Document{
		ID:       uuid.New().String(),
		Text:     text,
		Metadata: metadata,
		Hash:     ComputeHash(text, metadata),
	}
}

// SourceKey identifies the record list documents are read from.
func SourceKey(endpoint, fields string) string {
	return endpoint + "#" + fields
}

// RecordID returns the stable ID of the record at position in source.
// Records with equal content keep distinct IDs; loading the same position
// again yields the same ID.
func RecordID(source string, position int) string {
	name := source + "\x00" + strconv.Itoa(position)
	return uuid.NewSHA1(documentNamespace, []byte(name)).String()
}

// ComputeHash returns the SHA256 hex digest over the text and the metadata
// entries in key order, so equal documents always hash equally.
func ComputeHash(text string, metadata map[string]string) string {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(text)
	for _, k := range keys {
		sb.WriteString("\x00")
		sb.WriteString(k)
		sb.WriteString("\x1f")
		sb.WriteString(metadata[k])
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
