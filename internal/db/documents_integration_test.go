//go:build integration

package db

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/graphql-reader/internal/types"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := Connect(ctx, dsn)
	require.NoError(t, err, "failed to connect to test database")
	require.NoError(t, db.EnsureSchema(ctx))
	return db
}

func testSource() string {
	return SourceKey("https://test.example.com/graphql", "articles-"+uuid.New().String())
}

func TestIntegration_Documents_SaveListCount(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	source := testSource()
	defer func() { _, _ = db.DeleteDocuments(ctx, source) }()

	runID, err := db.CreateRun(ctx, "https://test.example.com/graphql", "articles")
	require.NoError(t, err)

	docs := []types.Document{
		types.NewDocument("Alpha", map[string]string{"article_url": "https://x/a"}),
		types.NewDocument("", map[string]string{"article_url": "https://x/b"}),
	}

	saved, err := db.SaveDocuments(ctx, &runID, source, docs)
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	count, err := db.CountDocuments(ctx, source)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	listed, err := db.ListDocuments(ctx, source)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, docs[0], listed[0].Document)
	assert.Equal(t, docs[1], listed[1].Document)
	require.NotNil(t, listed[0].RunID)
	assert.Equal(t, runID, *listed[0].RunID)

	require.NoError(t, db.CompleteRun(ctx, runID, saved, nil))
	run, err := db.GetRun(ctx, runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, RunStatusCompleted, run.Status)
	assert.Equal(t, 2, run.DocumentCount)
	assert.NotNil(t, run.CompletedAt)
}

func TestIntegration_Documents_UpsertIsIdempotent(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	source := testSource()
	defer func() { _, _ = db.DeleteDocuments(ctx, source) }()

	docs := []types.Document{types.NewDocument("same", map[string]string{"k": "v"})}

	_, err := db.SaveDocuments(ctx, nil, source, docs)
	require.NoError(t, err)
	_, err = db.SaveDocuments(ctx, nil, source, docs)
	require.NoError(t, err)

	count, err := db.CountDocuments(ctx, source)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := db.GetDocument(ctx, docs[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.RunID)
}

func TestIntegration_Documents_IdenticalRecordsKeepTheirOwnRows(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	source := testSource()
	defer func() { _, _ = db.DeleteDocuments(ctx, source) }()

	docs := make([]types.Document, 3)
	for i := range docs {
		docs[i] = types.NewDocument("", map[string]string{"article_url": ""})
		docs[i].ID = types.RecordID(source, i)
	}

	saved, err := db.SaveDocuments(ctx, nil, source, docs)
	require.NoError(t, err)
	assert.Equal(t, 3, saved)

	listed, err := db.ListDocuments(ctx, source)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	for i, doc := range listed {
		assert.Equal(t, i, doc.Position)
		assert.Equal(t, docs[i].ID, doc.ID)
		assert.Equal(t, docs[0].Hash, doc.Hash)
	}
}

func TestIntegration_Documents_ReloadReplacesContent(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	source := testSource()
	defer func() { _, _ = db.DeleteDocuments(ctx, source) }()

	first := types.NewDocument("before", nil)
	first.ID = types.RecordID(source, 0)
	_, err := db.SaveDocuments(ctx, nil, source, []types.Document{first})
	require.NoError(t, err)

	second := types.NewDocument("after", nil)
	second.ID = first.ID
	_, err = db.SaveDocuments(ctx, nil, source, []types.Document{second})
	require.NoError(t, err)

	got, err := db.GetDocument(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "after", got.Text)
	assert.Equal(t, second.Hash, got.Hash)
}

func TestIntegration_Documents_InvalidIDRollsBack(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	source := testSource()
	defer func() { _, _ = db.DeleteDocuments(ctx, source) }()

	docs := []types.Document{
		types.NewDocument("valid", nil),
		{ID: "not-a-uuid", Text: "broken", Metadata: map[string]string{}},
	}

	_, err := db.SaveDocuments(ctx, nil, source, docs)
	require.Error(t, err)

	count, err := db.CountDocuments(ctx, source)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIntegration_Runs_Failure(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	runID, err := db.CreateRun(ctx, "https://test.example.com/graphql", "articles")
	require.NoError(t, err)

	require.NoError(t, db.CompleteRun(ctx, runID, 0, errors.New("API call failed")))

	run, err := db.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, run.Status)
	require.NotNil(t, run.ErrorMessage)
	assert.Equal(t, "API call failed", *run.ErrorMessage)

	missing, err := db.GetRun(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIntegration_GetDocument_NotFound(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	doc, err := db.GetDocument(context.Background(), uuid.New().String())
	assert.NoError(t, err)
	assert.Nil(t, doc)

	_, err = db.GetDocument(context.Background(), "nope")
	assert.Error(t, err)
}
