package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/graphql-reader/internal/db"
)

var listFlags struct {
	endpoint    string
	fields      string
	databaseURL string
	countOnly   bool
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents stored for an endpoint and record list",
	RunE:  runList,
}

func init() {
	f := listCmd.Flags()
	f.StringVarP(&listFlags.endpoint, "endpoint", "e", "", "GraphQL endpoint URL the documents were loaded from (required)")
	f.StringVarP(&listFlags.fields, "fields", "f", "", "Record list key the documents were loaded from (required)")
	f.StringVar(&listFlags.databaseURL, "db-url", "", "PostgreSQL URL (default $DATABASE_URL)")
	f.BoolVar(&listFlags.countOnly, "count", false, "Print only the number of stored documents")

	_ = listCmd.MarkFlagRequired("endpoint")
	_ = listCmd.MarkFlagRequired("fields")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	databaseURL := listFlags.databaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL not set (set DATABASE_URL environment variable or use --db-url flag)")
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	source := db.SourceKey(listFlags.endpoint, listFlags.fields)
	out := cmd.OutOrStdout()

	if listFlags.countOnly {
		count, err := database.CountDocuments(ctx, source)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, count)
		return nil
	}

	docs, err := database.ListDocuments(ctx, source)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}
