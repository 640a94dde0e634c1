// Package pipeline provides the high-level orchestration of a document load.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/jonathan/graphql-reader/internal/config"
	"github.com/jonathan/graphql-reader/internal/db"
	"github.com/jonathan/graphql-reader/internal/extraction"
	"github.com/jonathan/graphql-reader/internal/fetch"
	"github.com/jonathan/graphql-reader/internal/ingestion"
	"github.com/jonathan/graphql-reader/internal/normalize"
	"github.com/jonathan/graphql-reader/internal/observability"
	"github.com/jonathan/graphql-reader/internal/reader"
	"github.com/jonathan/graphql-reader/internal/schemas"
	"github.com/jonathan/graphql-reader/internal/types"
)

// Step names reported in progress events
const (
	StepQuery    = "build_query"
	StepFetch    = "fetch_data"
	StepExtract  = "extract_documents"
	StepValidate = "validate_documents"
	StepOutput   = "write_output"
	StepStore    = "store_documents"
)

const totalSteps = 6

// ProgressEvent represents a progress update during a load
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when load progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for running a load
type RunOptions struct {
	Config     config.Config
	OnProgress ProgressCallback
	// Out receives step lines and verbose summaries; nil discards them
	Out io.Writer
	// Getter overrides how URL values are dereferenced
	Getter normalize.Getter
}

// Result is the outcome of a successful load
type Result struct {
	Query     string
	Documents []types.Document
	Metadata  *ingestion.Metadata
	RunID     uuid.UUID // uuid.Nil when nothing was stored
	Stored    int
}

type runState struct {
	opts    *RunOptions
	out     io.Writer
	printer *observability.Printer
	runID   uuid.UUID
}

// emitProgress calls the progress callback if configured
func (s *runState) emitProgress(step, message string, content any) {
	if s.opts.OnProgress == nil {
		return
	}
	event := ProgressEvent{Step: step, Message: message, Content: content}
	if s.runID != uuid.Nil {
		event.RunID = s.runID.String()
	}
	s.opts.OnProgress(event)
}

//nolint:errcheck // progress output is best effort
func (s *runState) stepf(n int, format string, args ...any) {
	fmt.Fprintf(s.out, "Step %d/%d: %s\n", n, totalSteps, fmt.Sprintf(format, args...))
}

// Run loads documents from the configured GraphQL endpoint, validates them,
// writes them to the output directory and stores them when a database is set.
func Run(ctx context.Context, opts RunOptions) (*Result, error) {
	cfg := opts.Config
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	state := &runState{opts: &opts, out: out, printer: observability.NewPrinter(out)}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r, err := buildReader(cfg, opts.Getter)
	if err != nil {
		return nil, err
	}

	// Initialize database connection if configured
	var database *db.DB
	if cfg.DatabaseURL != "" {
		database = connectDatabase(ctx, cfg, state)
		if database != nil {
			defer database.Close()
		}
	}

	result, err := load(ctx, cfg, r, database, state)
	if database != nil && state.runID != uuid.Nil {
		count := 0
		if result != nil {
			count = result.Stored
		}
		if completeErr := database.CompleteRun(ctx, state.runID, count, err); completeErr != nil {
			fmt.Fprintf(out, "Warning: Failed to complete database run: %v\n", completeErr)
		}
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func load(ctx context.Context, cfg config.Config, r *reader.Reader, database *db.DB, state *runState) (*Result, error) {
	state.stepf(1, "Building query for %s...", cfg.Endpoint)
	q, err := r.Query()
	if err != nil {
		return nil, fmt.Errorf("building query failed: %w", err)
	}
	if cfg.Verbose {
		state.printer.PrintQuery(cfg.Endpoint, q)
	}
	state.emitProgress(StepQuery, "Built query", q)

	state.stepf(2, "Fetching data...")
	body, err := r.FetchData(ctx)
	if err != nil {
		return nil, err
	}
	state.emitProgress(StepFetch, fmt.Sprintf("Fetched response from %s", cfg.Endpoint), nil)

	state.stepf(3, "Extracting documents from %q...", cfg.Fields)
	docs, err := r.TransformData(ctx, body)
	if err != nil {
		return nil, err
	}
	if cfg.Verbose {
		state.printer.PrintDocuments(docs)
	}
	state.emitProgress(StepExtract, fmt.Sprintf("Extracted %d documents", len(docs)), len(docs))

	state.stepf(4, "Validating documents...")
	if err := schemas.ValidateDocuments(docs); err != nil {
		return nil, fmt.Errorf("document validation failed: %w", err)
	}
	state.emitProgress(StepValidate, "Documents match the document schema", nil)

	metadata := ingestion.NewMetadata(cfg.Endpoint, cfg.Fields, docs)
	metadata.TextFields = cfg.TextFields
	metadata.MetadataFields = cfg.MetadataFields
	metadata.Page = cfg.Page
	metadata.Rows = cfg.Rows

	if cfg.Output != "" {
		state.stepf(5, "Writing output to %s...", cfg.Output)
		if err := ingestion.WriteOutput(cfg.Output, docs, metadata, cfg.Format); err != nil {
			return nil, fmt.Errorf("writing output failed: %w", err)
		}
		state.emitProgress(StepOutput, fmt.Sprintf("Wrote %d documents to %s", len(docs), cfg.Output),
			ingestion.DocumentsPath(cfg.Output, cfg.Format))
	} else {
		state.stepf(5, "No output directory configured, skipping")
	}

	result := &Result{Query: q, Documents: docs, Metadata: metadata, RunID: state.runID}

	if database != nil {
		state.stepf(6, "Storing documents...")
		var runID *uuid.UUID
		if state.runID != uuid.Nil {
			runID = &state.runID
		}
		stored, err := database.SaveDocuments(ctx, runID, db.SourceKey(cfg.Endpoint, cfg.Fields), docs)
		if err != nil {
			return nil, fmt.Errorf("storing documents failed: %w", err)
		}
		result.Stored = stored
		state.emitProgress(StepStore, fmt.Sprintf("Stored %d documents", stored), nil)
	} else {
		state.stepf(6, "No database configured, skipping")
	}

	if cfg.Verbose {
		state.printer.PrintRunSummary(metadata, cfg.Output)
	}
	return result, nil
}

// buildReader wires the HTTP client, dereferencing getter, normalizer and
// extractor into a Reader for cfg.
func buildReader(cfg config.Config, getter normalize.Getter) (*reader.Reader, error) {
	q, err := cfg.ResolveQuery()
	if err != nil {
		return nil, err
	}

	// Endpoint headers are passed per request so they never reach dereferenced pages
	client := fetch.NewClient(&fetch.Options{
		Timeout:   cfg.Timeout(),
		UserAgent: cfg.UserAgent,
	})

	if getter == nil {
		if cfg.UseBrowser {
			browser := fetch.NewBrowserGetter(cfg.Verbose)
			browser.Timeout = cfg.Timeout()
			getter = browser
		} else {
			getter = client
		}
	}

	normalizer := normalize.New(getter, normalize.Options{
		MainContentOnly: cfg.MainContentOnly,
		Verbose:         cfg.Verbose,
	})
	extractor, err := extraction.New(cfg.TextFields, cfg.MetadataFields, normalizer)
	if err != nil {
		return nil, fmt.Errorf("invalid field configuration: %w", err)
	}

	return reader.New(reader.Options{
		Endpoint:    cfg.Endpoint,
		Headers:     cfg.Headers,
		Query:       q,
		Fields:      cfg.Fields,
		Pagination:  cfg.Pagination(),
		Concurrency: cfg.Concurrency,
		Verbose:     cfg.Verbose,
	}, client, extractor)
}

// connectDatabase opens the document store. A failure is reported and the
// load continues without persistence.
//
//nolint:errcheck // progress output is best effort
func connectDatabase(ctx context.Context, cfg config.Config, state *runState) *db.DB {
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(state.out, "Warning: Failed to connect to database: %v\n", err)
		fmt.Fprintf(state.out, "Continuing without database persistence...\n")
		return nil
	}
	if err := database.EnsureSchema(ctx); err != nil {
		fmt.Fprintf(state.out, "Warning: %v\n", err)
		fmt.Fprintf(state.out, "Continuing without database persistence...\n")
		database.Close()
		return nil
	}
	if cfg.Verbose {
		fmt.Fprintf(state.out, "[VERBOSE] Connected to database\n")
	}

	runID, err := database.CreateRun(ctx, cfg.Endpoint, cfg.Fields)
	if err != nil {
		fmt.Fprintf(state.out, "Warning: Failed to create database run: %v\n", err)
	} else {
		state.runID = runID
		if cfg.Verbose {
			fmt.Fprintf(state.out, "[VERBOSE] Created database run: %s\n", runID)
		}
	}
	return database
}
