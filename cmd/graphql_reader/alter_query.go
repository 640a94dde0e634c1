package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/graphql-reader/internal/query"
)

var alterQueryFlags struct {
	query     string
	queryFile string
	page      int
	rows      int
}

var alterQueryCmd = &cobra.Command{
	Use:   "alter-query",
	Short: "Print a query with pagination arguments added to its root field",
	Long: "Add page and rows arguments to the first root field of a GraphQL query and print the result.\n" +
		"A query whose root field already has a page argument is printed unchanged.",
	RunE: runAlterQuery,
}

func init() {
	f := alterQueryCmd.Flags()
	f.StringVarP(&alterQueryFlags.query, "query", "q", "", "GraphQL query text")
	f.StringVar(&alterQueryFlags.queryFile, "query-file", "", "Path to a file containing the GraphQL query")
	f.IntVar(&alterQueryFlags.page, "page", 0, "Page to request")
	f.IntVar(&alterQueryFlags.rows, "rows", 25, "Rows per page")

	_ = alterQueryCmd.MarkFlagRequired("page")

	rootCmd.AddCommand(alterQueryCmd)
}

func runAlterQuery(cmd *cobra.Command, _ []string) error {
	if alterQueryFlags.query == "" && alterQueryFlags.queryFile == "" {
		return fmt.Errorf("either --query or --query-file must be provided")
	}
	if alterQueryFlags.query != "" && alterQueryFlags.queryFile != "" {
		return fmt.Errorf("--query and --query-file are mutually exclusive; provide only one")
	}

	q := alterQueryFlags.query
	if alterQueryFlags.queryFile != "" {
		data, err := os.ReadFile(alterQueryFlags.queryFile)
		if err != nil {
			return fmt.Errorf("failed to read query file: %w", err)
		}
		q = string(data)
	}

	pagination := query.Pagination{Page: alterQueryFlags.page, Rows: alterQueryFlags.rows}
	if err := pagination.Validate(); err != nil {
		return err
	}

	altered, err := query.AlterQuery(q, pagination.Page, pagination.Rows)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(altered, "\n"))
	return nil
}
