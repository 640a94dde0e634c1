package types

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument_DerivesHash(t *testing.T) {
	doc := NewDocument("Alpha", map[string]string{"article_url": "https://x/a"})

	assert.Equal(t, "Alpha", doc.Text)
	assert.Equal(t, "https://x/a", doc.Metadata["article_url"])
	assert.Len(t, doc.Hash, 64)

	_, err := uuid.Parse(doc.ID)
	require.NoError(t, err)
}

func TestNewDocument_EqualContentEqualHashDistinctID(t *testing.T) {
	a := NewDocument("Alpha", map[string]string{"a": "1", "b": "2"})
	b := NewDocument("Alpha", map[string]string{"b": "2", "a": "1"})

	assert.Equal(t, a.Hash, b.Hash)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNewDocument_DifferentContentDifferentHash(t *testing.T) {
	a := NewDocument("Alpha", map[string]string{"article_url": "https://x/a"})
	b := NewDocument("Alpha", map[string]string{"article_url": "https://x/b"})

	assert.NotEqual(t, a.Hash, b.Hash)
}

func TestRecordID(t *testing.T) {
	source := SourceKey("https://example.com/graphql", "articles")

	first := RecordID(source, 0)
	id, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), id.Version())

	assert.Equal(t, first, RecordID(source, 0), "same position must give the same id")
	assert.NotEqual(t, first, RecordID(source, 1))
	assert.NotEqual(t, first, RecordID(SourceKey("https://example.com/graphql", "events"), 0))
	// "e#a" position 10 must not collide with "e#a1" position 0
	assert.NotEqual(t, RecordID("e#a", 10), RecordID("e#a1", 0))
}

func TestSourceKey(t *testing.T) {
	assert.Equal(t, "https://example.com/graphql#articles", SourceKey("https://example.com/graphql", "articles"))
}

func TestNewDocument_NilMetadata(t *testing.T) {
	doc := NewDocument("", nil)
	require.NotNil(t, doc.Metadata)
	assert.Empty(t, doc.Metadata)
}

func TestComputeHash_KeyValueBoundaries(t *testing.T) {
	// key "a" with value "b=c" must not collide with key "a=b" with value "c"
	h1 := ComputeHash("", map[string]string{"a": "b=c"})
	h2 := ComputeHash("", map[string]string{"a=b": "c"})
	assert.NotEqual(t, h1, h2)
}

func TestDocument_JSONShape(t *testing.T) {
	doc := NewDocument("Alpha", map[string]string{"article_url": "https://x/a"})

	jsonBytes, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(jsonBytes), `"text":"Alpha"`)
	assert.Contains(t, string(jsonBytes), `"metadata":{"article_url":"https://x/a"}`)
	assert.Contains(t, string(jsonBytes), `"id":"`+doc.ID+`"`)
}
