package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/graphql-reader/internal/types"
)

// SaveDocuments upserts docs under source in one transaction, keeping their
// order as the stored position. A document that already exists (same ID) is
// replaced by the new content, run and position. A batch that repeats an ID
// is rejected so every document gets its own row.
func (db *DB) SaveDocuments(ctx context.Context, runID *uuid.UUID, source string, docs []types.Document) (int, error) {
	ids := make([]uuid.UUID, len(docs))
	seen := make(map[uuid.UUID]int, len(docs))
	for i, doc := range docs {
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return 0, fmt.Errorf("document %d has invalid id %q: %w", i, doc.ID, err)
		}
		if first, ok := seen[id]; ok {
			return 0, fmt.Errorf("documents %d and %d share id %s", first, i, id)
		}
		seen[id] = i
		ids[i] = id
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var stored int64
	for i, doc := range docs {
		id := ids[i]
		metadataJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal metadata for document %d: %w", i, err)
		}

		tag, err := tx.Exec(ctx,
			`INSERT INTO documents (id, source, run_id, position, text, metadata, content_hash)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (id) DO UPDATE SET
			     source = $2,
			     run_id = $3,
			     position = $4,
			     text = $5,
			     metadata = $6,
			     content_hash = $7,
			     updated_at = NOW()`,
			id, source, runID, i, doc.Text, metadataJSON, doc.Hash,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to save document %d: %w", i, err)
		}
		stored += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit documents: %w", err)
	}
	return int(stored), nil
}

// ListDocuments returns the documents stored under source in response order
func (db *DB) ListDocuments(ctx context.Context, source string) ([]StoredDocument, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, source, run_id, position, text, metadata, content_hash, created_at, updated_at
		 FROM documents WHERE source = $1
		 ORDER BY position, id`,
		source,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := []StoredDocument{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// GetDocument retrieves a document by ID
func (db *DB) GetDocument(ctx context.Context, id string) (*StoredDocument, error) {
	docID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid document id %q: %w", id, err)
	}

	row := db.pool.QueryRow(ctx,
		`SELECT id, source, run_id, position, text, metadata, content_hash, created_at, updated_at
		 FROM documents WHERE id = $1`,
		docID,
	)
	doc, err := scanDocument(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return doc, nil
}

// CountDocuments returns the number of documents stored under source
func (db *DB) CountDocuments(ctx context.Context, source string) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE source = $1`,
		source,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// DeleteDocuments removes every document stored under source
func (db *DB) DeleteDocuments(ctx context.Context, source string) (int64, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM documents WHERE source = $1`, source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete documents: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanDocument(row pgx.Row) (*StoredDocument, error) {
	var doc StoredDocument
	var id uuid.UUID
	var metadataJSON []byte

	err := row.Scan(&id, &doc.Source, &doc.RunID, &doc.Position, &doc.Text,
		&metadataJSON, &doc.Hash, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	doc.ID = id.String()
	doc.Metadata = map[string]string{}
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("failed to parse metadata for document %s: %w", doc.ID, err)
		}
	}
	return &doc, nil
}
