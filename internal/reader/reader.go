// Package reader loads documents from a GraphQL endpoint.
//
// A load paginates the configured query, posts it, unwraps the record list
// at data.<fields> and extracts one document per record. Either every record
// becomes a document or the load fails with a typed error.
package reader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/graphql-reader/internal/extraction"
	"github.com/jonathan/graphql-reader/internal/fetch"
	"github.com/jonathan/graphql-reader/internal/query"
	"github.com/jonathan/graphql-reader/internal/types"
)

const (
	dataKey   = "data"
	errorsKey = "errors"
)

// Transport performs the GraphQL POST exchange.
type Transport interface {
	PostJSON(ctx context.Context, endpoint string, headers map[string]string, payload any) (*fetch.Result, error)
}

// Options configures a Reader.
type Options struct {
	Endpoint string
	Headers  map[string]string
	Query    string
	// Fields names the key under data holding the record list
	Fields string
	// Pagination is nil for single-shot queries
	Pagination *query.Pagination
	// Concurrency bounds parallel record extraction; values below 2 extract sequentially
	Concurrency int
	Verbose     bool
}

// Reader fetches and transforms GraphQL results into documents.
type Reader struct {
	opts      Options
	transport Transport
	paginator query.Paginator
	extractor *extraction.Extractor
}

// New creates a Reader.
func New(opts Options, transport Transport, extractor *extraction.Extractor) (*Reader, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if opts.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if opts.Fields == "" {
		return nil, fmt.Errorf("fields is required")
	}
	if opts.Pagination != nil {
		if err := opts.Pagination.Validate(); err != nil {
			return nil, fmt.Errorf("invalid pagination: %w", err)
		}
	}
	if transport == nil || extractor == nil {
		return nil, fmt.Errorf("transport and extractor are required")
	}
	return &Reader{
		opts:      opts,
		transport: transport,
		paginator: query.ASTPaginator{},
		extractor: extractor,
	}, nil
}

// LoadData fetches the configured query and returns one document per record,
// in response order.
func (r *Reader) LoadData(ctx context.Context) ([]types.Document, error) {
	body, err := r.FetchData(ctx)
	if err != nil {
		return nil, err
	}
	return r.TransformData(ctx, body)
}

// Query returns the query that will be sent, with pagination applied.
func (r *Reader) Query() (string, error) {
	if r.opts.Pagination == nil {
		return r.opts.Query, nil
	}
	return r.paginator.Paginate(r.opts.Query, *r.opts.Pagination)
}

// FetchData posts the query and returns the decoded response body.
func (r *Reader) FetchData(ctx context.Context) (map[string]any, error) {
	q, err := r.Query()
	if err != nil {
		return nil, err
	}
	if r.opts.Verbose {
		log.Printf("[VERBOSE] Posting query to %s (%d bytes)", r.opts.Endpoint, len(q))
	}

	result, postErr := r.transport.PostJSON(ctx, r.opts.Endpoint, r.opts.Headers, map[string]string{"query": q})

	var body map[string]any
	var decodeErr error
	if result != nil && len(result.Body) > 0 {
		body, decodeErr = decodeBody(result.Body)
	}

	// A GraphQL server may report errors with any status, so look at the body first
	if payload, ok := body[errorsKey]; ok {
		return nil, &APICallError{Message: "server reported errors", Errors: payload, Cause: postErr}
	}
	if postErr != nil {
		return nil, &APICallError{Message: "error connecting to the API", Cause: postErr}
	}
	if result == nil || len(result.Body) == 0 {
		return nil, &APICallError{Message: "empty response body"}
	}
	if decodeErr != nil {
		return nil, &APICallError{Message: "response is not a JSON object", Cause: decodeErr}
	}

	if r.opts.Verbose {
		log.Printf("[VERBOSE] Received %d bytes (status %d)", len(result.Body), result.StatusCode)
	}
	return body, nil
}

// TransformData extracts the documents from a decoded response body.
func (r *Reader) TransformData(ctx context.Context, body map[string]any) ([]types.Document, error) {
	data, ok := body[dataKey].(map[string]any)
	if !ok {
		return nil, &DataTransformError{Message: "response has no data object", Record: NoRecord}
	}
	raw, ok := data[r.opts.Fields]
	if !ok {
		return nil, &DataTransformError{Message: fmt.Sprintf("response data has no field %q", r.opts.Fields), Record: NoRecord}
	}
	records, ok := raw.([]any)
	if !ok {
		return nil, &DataTransformError{Message: fmt.Sprintf("field %q is %T, not a list", r.opts.Fields, raw), Record: NoRecord}
	}

	if r.opts.Verbose {
		log.Printf("[VERBOSE] Extracting %d records from %q", len(records), r.opts.Fields)
	}

	docs := make([]types.Document, len(records))
	if r.opts.Concurrency < 2 {
		for i, record := range records {
			doc, err := r.extractRecord(ctx, i, record)
			if err != nil {
				return nil, err
			}
			docs[i] = doc
		}
		return docs, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i, record := range records {
		g.Go(func() error {
			doc, err := r.extractRecord(gCtx, i, record)
			if err != nil {
				return err
			}
			// Each goroutine owns its own slot
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// extractRecord builds the document for the i-th record of the response and
// gives it the ID of its position in the source list.
func (r *Reader) extractRecord(ctx context.Context, i int, record any) (types.Document, error) {
	doc, err := r.extractor.Extract(ctx, record)
	if err != nil {
		return types.Document{}, &DataTransformError{Message: "failed to extract record", Record: i, Cause: err}
	}
	doc.ID = types.RecordID(types.SourceKey(r.opts.Endpoint, r.opts.Fields), r.recordOffset()+i)
	return doc, nil
}

// recordOffset is the source position of the first record in the response.
func (r *Reader) recordOffset() int {
	if r.opts.Pagination == nil {
		return 0
	}
	return r.opts.Pagination.Page * r.opts.Pagination.Rows
}

func decodeBody(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}
