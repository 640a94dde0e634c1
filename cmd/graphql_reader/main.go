// Package main provides the command-line entry point for the GraphQL document reader.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "graphql_reader",
	Short: "Load documents from a GraphQL API",
	Long: "graphql_reader posts a GraphQL query, unwraps the returned record list and turns every record\n" +
		"into a document of plain text plus string metadata, dereferencing URLs that point at HTML pages.",
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
