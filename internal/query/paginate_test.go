package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

const articlesQuery = `
query {
  articles {
    id: iri
    title: string(name: "schema:headline")
    article_author: resource(name: "schema:author") {
      name: string(name: "schema:name")
    }
    article_desc: string(name: "schema:description")
  }
}`

// rootArguments parses q and returns "name=raw" pairs for the root field's arguments.
func rootArguments(t *testing.T, q string) []string {
	t.Helper()
	doc, err := parser.ParseQuery(&ast.Source{Input: q})
	require.NoError(t, err)
	field, ok := doc.Operations[0].SelectionSet[0].(*ast.Field)
	require.True(t, ok)

	args := make([]string, 0, len(field.Arguments))
	for _, arg := range field.Arguments {
		args = append(args, arg.Name+"="+arg.Value.Raw)
	}
	return args
}

func TestAlterQuery_AddsPagination(t *testing.T) {
	out, err := AlterQuery(articlesQuery, 0, 25)
	require.NoError(t, err)

	assert.Equal(t, []string{"page=0", "rows=25"}, rootArguments(t, out))
	assert.Equal(t, 1, strings.Count(out, "page:"))
}

func TestAlterQuery_PreservesExistingArguments(t *testing.T) {
	q := `{ articles(query: "go", sort: DESC) { id } }`

	out, err := AlterQuery(q, 2, 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"query=go", "sort=DESC", "page=2", "rows=10"}, rootArguments(t, out))
}

func TestAlterQuery_OnlyRootFieldChanges(t *testing.T) {
	out, err := AlterQuery(articlesQuery, 1, 5)
	require.NoError(t, err)

	doc, err := parser.ParseQuery(&ast.Source{Input: out})
	require.NoError(t, err)
	root := doc.Operations[0].SelectionSet[0].(*ast.Field)
	assert.Equal(t, "articles", root.Name)
	require.Len(t, root.SelectionSet, 4)

	author := root.SelectionSet[2].(*ast.Field)
	assert.Equal(t, "article_author", author.Alias)
	assert.Nil(t, author.Arguments.ForName(PageArgument))
	assert.Equal(t, "schema:author", author.Arguments.ForName("name").Value.Raw)
}

func TestAlterQuery_ExistingPageLeavesQueryUnmodified(t *testing.T) {
	q := `query { articles(page: 0, rows: 25) { id } }`

	out, err := AlterQuery(q, 3, 50)
	require.NoError(t, err)
	assert.Equal(t, q, out)
}

func TestAlterQuery_Idempotent(t *testing.T) {
	once, err := AlterQuery(articlesQuery, 0, 25)
	require.NoError(t, err)

	twice, err := AlterQuery(once, 0, 25)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.Equal(t, 1, strings.Count(twice, "page:"))
	assert.Equal(t, 1, strings.Count(twice, "rows:"))
}

func TestAlterQuery_NamedOperationWithVariables(t *testing.T) {
	q := `query Articles($lang: String) { articles(lang: $lang) { id } }`

	out, err := AlterQuery(q, 0, 25)
	require.NoError(t, err)

	assert.Equal(t, []string{"lang=lang", "page=0", "rows=25"}, rootArguments(t, out))
	doc, err := parser.ParseQuery(&ast.Source{Input: out})
	require.NoError(t, err)
	assert.Equal(t, "Articles", doc.Operations[0].Name)
	require.Len(t, doc.Operations[0].VariableDefinitions, 1)
}

func TestAlterQuery_OnlyFirstRootField(t *testing.T) {
	q := `{ articles { id } events { id } }`

	out, err := AlterQuery(q, 0, 25)
	require.NoError(t, err)

	doc, err := parser.ParseQuery(&ast.Source{Input: out})
	require.NoError(t, err)
	events := doc.Operations[0].SelectionSet[1].(*ast.Field)
	assert.Empty(t, events.Arguments)
}

func TestAlterQuery_Errors(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		message string
	}{
		{"not graphql", "this is not a query", "failed to parse query"},
		{"unbalanced braces", "{ articles { id }", "failed to parse query"},
		{"empty", "", ""},
		{"fragment only", "fragment F on Article { id }", "query has no operation"},
		{"fragment spread at root", "query { ...F } fragment F on Query { articles { id } }", "not a field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AlterQuery(tt.query, 0, 25)
			require.Error(t, err)

			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestASTPaginator_ImplementsPaginator(t *testing.T) {
	var p Paginator = ASTPaginator{}

	out, err := p.Paginate(`{ articles { id } }`, Pagination{Page: 4, Rows: 7})
	require.NoError(t, err)
	assert.Equal(t, []string{"page=4", "rows=7"}, rootArguments(t, out))
}

func TestPagination_Validate(t *testing.T) {
	assert.NoError(t, Pagination{Page: 0, Rows: 25}.Validate())
	assert.Error(t, Pagination{Page: -1, Rows: 25}.Validate())
	assert.Error(t, Pagination{Page: 0, Rows: 0}.Validate())
}

func TestRootFieldName(t *testing.T) {
	name, err := RootFieldName(articlesQuery)
	require.NoError(t, err)
	assert.Equal(t, "articles", name)

	_, err = RootFieldName("nope")
	assert.Error(t, err)
}
