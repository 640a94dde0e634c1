package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/graphql-reader/internal/types"
)

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run represents a load run record
type Run struct {
	ID            uuid.UUID  `json:"id"`
	Endpoint      string     `json:"endpoint"`
	Fields        string     `json:"fields"`
	Status        string     `json:"status"`
	DocumentCount int        `json:"document_count"`
	ErrorMessage  *string    `json:"error_message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// StoredDocument is a document row together with its bookkeeping columns
type StoredDocument struct {
	types.Document
	Source    string     `json:"source"`
	RunID     *uuid.UUID `json:"run_id,omitempty"`
	Position  int        `json:"position"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SourceKey identifies the record list a document was read from.
func SourceKey(endpoint, fields string) string {
	return types.SourceKey(endpoint, fields)
}
