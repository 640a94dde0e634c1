package query

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

const (
	// PageArgument is the argument name carrying the page number
	PageArgument = "page"
	// RowsArgument is the argument name carrying the page size
	RowsArgument = "rows"
)

// Pagination holds the page arguments injected into the root field.
type Pagination struct {
	Page int `json:"page" yaml:"page"`
	Rows int `json:"rows" yaml:"rows"`
}

// Validate checks the page is non-negative and the page size positive.
func (p Pagination) Validate() error {
	if p.Page < 0 {
		return fmt.Errorf("page must be non-negative, got %d", p.Page)
	}
	if p.Rows <= 0 {
		return fmt.Errorf("rows must be positive, got %d", p.Rows)
	}
	return nil
}

// Paginator adds pagination arguments to the root selection of a query.
type Paginator interface {
	Paginate(query string, p Pagination) (string, error)
}

// ASTPaginator implements Paginator by editing the parsed query document.
type ASTPaginator struct{}

// Paginate implements Paginator.
func (ASTPaginator) Paginate(query string, p Pagination) (string, error) {
	return AlterQuery(query, p.Page, p.Rows)
}

// AlterQuery appends page and rows arguments to the first field selected by
// the first operation of query, after any arguments it already has.
// If that field already has a page argument the query is returned unmodified,
// so calling AlterQuery on its own output is a no-op.
func AlterQuery(query string, page, rows int) (string, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "query", Input: query})
	if err != nil {
		return "", &SyntaxError{Message: "failed to parse query", Cause: err}
	}

	field, err := rootField(doc)
	if err != nil {
		return "", err
	}

	if field.Arguments.ForName(PageArgument) != nil {
		return query, nil
	}

	field.Arguments = append(field.Arguments,
		intArgument(PageArgument, page),
		intArgument(RowsArgument, rows),
	)

	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatQueryDocument(doc)
	return buf.String(), nil
}

// RootFieldName returns the name of the field AlterQuery would paginate.
func RootFieldName(query string) (string, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "query", Input: query})
	if err != nil {
		return "", &SyntaxError{Message: "failed to parse query", Cause: err}
	}
	field, err := rootField(doc)
	if err != nil {
		return "", err
	}
	return field.Name, nil
}

func rootField(doc *ast.QueryDocument) (*ast.Field, error) {
	if len(doc.Operations) == 0 {
		return nil, &SyntaxError{Message: "query has no operation"}
	}
	op := doc.Operations[0]
	if len(op.SelectionSet) == 0 {
		return nil, &SyntaxError{Message: "root operation has no selections"}
	}
	field, ok := op.SelectionSet[0].(*ast.Field)
	if !ok {
		return nil, &SyntaxError{Message: fmt.Sprintf("first root selection is a %T, not a field", op.SelectionSet[0])}
	}
	return field, nil
}

func intArgument(name string, value int) *ast.Argument {
	return &ast.Argument{
		Name: name,
		Value: &ast.Value{
			Kind: ast.IntValue,
			Raw:  strconv.Itoa(value),
		},
	}
}
