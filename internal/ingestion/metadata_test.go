package ingestion

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonathan/graphql-reader/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocs() []types.Document {
	return []types.Document{
		types.NewDocument("Alpha", map[string]string{"article_url": "https://x/a"}),
		types.NewDocument("", map[string]string{"article_url": "https://x/b"}),
	}
}

func TestMetadata_JSONMarshaling(t *testing.T) {
	page, rows := 2, 10
	metadata := &Metadata{
		Endpoint:  "https://example.com/graphql",
		Fields:    "articles",
		Page:      &page,
		Rows:      &rows,
		Count:     2,
		Timestamp: "2024-01-01T00:00:00Z",
		Hash:      "abcd1234",
	}

	jsonBytes, err := metadata.ToJSON()
	require.NoError(t, err)
	assert.NotEmpty(t, jsonBytes)

	var unmarshaled Metadata
	require.NoError(t, json.Unmarshal(jsonBytes, &unmarshaled))
	assert.Equal(t, *metadata, unmarshaled)
}

func TestMetadata_UnpaginatedOmitsWindow(t *testing.T) {
	jsonBytes, err := NewMetadata("https://example.com/graphql", "articles", nil).ToJSON()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(jsonBytes, &raw))
	assert.NotContains(t, raw, "page")
	assert.NotContains(t, raw, "rows")
	assert.Equal(t, float64(0), raw["count"])
}

func TestNewMetadata(t *testing.T) {
	docs := sampleDocs()
	metadata := NewMetadata("https://example.com/graphql", "articles", docs)

	assert.Equal(t, "https://example.com/graphql", metadata.Endpoint)
	assert.Equal(t, "articles", metadata.Fields)
	assert.Equal(t, 2, metadata.Count)
	assert.Len(t, metadata.Hash, 64)

	_, err := time.Parse(time.RFC3339, metadata.Timestamp)
	assert.NoError(t, err)
}

func TestComputeHash(t *testing.T) {
	docs := sampleDocs()
	reversed := []types.Document{docs[1], docs[0]}

	hash1 := computeHash(docs)
	hash2 := computeHash(reversed)

	// Hash should be 64 hex characters (SHA256)
	assert.Len(t, hash1, 64)
	assert.Len(t, hash2, 64)

	// Order matters
	assert.NotEqual(t, hash1, hash2)

	// Same documents should produce same hash
	assert.Equal(t, hash1, computeHash(sampleDocs()))
}
