// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/graphql-reader/internal/ingestion"
	"github.com/jonathan/graphql-reader/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// snippetLength bounds the text preview of a document
	snippetLength = 40
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// PrintQuery outputs the query that is about to be sent.
func (p *Printer) PrintQuery(endpoint, query string) {
	if query == "" {
		return
	}
	content := fmt.Sprintf("Endpoint: %s\n\n%s", endpoint, strings.TrimSpace(query))
	p.printBox("GRAPHQL QUERY", content)
}

// PrintDocuments outputs a summary of the first documents of a load.
func (p *Printer) PrintDocuments(docs []types.Document) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Documents loaded: %d\n", len(docs)))

	empty := 0
	for _, doc := range docs {
		if doc.Text == "" {
			empty++
		}
	}
	if empty > 0 {
		sb.WriteString(fmt.Sprintf("Without text:     %d\n", empty))
	}

	count := min(len(docs), maxItemsToShow)
	for i := 0; i < count; i++ {
		doc := docs[i]
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, doc.ID))
		if doc.Text != "" {
			sb.WriteString(fmt.Sprintf("    Text: %s\n", truncate(doc.Text, snippetLength)))
		}

		keys := make([]string, 0, len(doc.Metadata))
		for k := range doc.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("    %s: %s\n", k, doc.Metadata[k]))
		}
	}

	if len(docs) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more documents", len(docs)-maxItemsToShow))
	}

	p.printBox("LOADED DOCUMENTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunSummary outputs the run metadata written next to the documents.
func (p *Printer) PrintRunSummary(meta *ingestion.Metadata, outDir string) {
	if meta == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Endpoint:  %s\n", meta.Endpoint))
	sb.WriteString(fmt.Sprintf("Fields:    %s\n", meta.Fields))
	if meta.Page != nil && meta.Rows != nil {
		sb.WriteString(fmt.Sprintf("Page:      %d (rows %d)\n", *meta.Page, *meta.Rows))
	}
	sb.WriteString(fmt.Sprintf("Documents: %d\n", meta.Count))
	sb.WriteString(fmt.Sprintf("Hash:      %s\n", meta.Hash))
	if outDir != "" {
		sb.WriteString(fmt.Sprintf("Output:    %s", outDir))
	}

	p.printBox("RUN SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintValidation outputs the outcome of validating a documents file.
func (p *Printer) PrintValidation(path string, err error) {
	content := fmt.Sprintf("File: %s\n\n", path)
	if err == nil {
		content += "✓ valid"
	} else {
		content += "✗ " + strings.TrimSpace(err.Error())
	}
	p.printBox("DOCUMENT VALIDATION", content)
}
