package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/graphql-reader/internal/observability"
	"github.com/jonathan/graphql-reader/internal/schemas"
)

var validateFlags struct {
	schemaPath string
}

var validateCmd = &cobra.Command{
	Use:   "validate <documents-file>...",
	Short: "Validate documents files against the document schema",
	Long: "Check documents.json or documents.jsonl files written by load against the document schema\n" +
		"and verify every content hash. --schema validates a JSON file against another schema instead.",
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateFlags.schemaPath, "schema", "", "Validate against this JSON Schema file instead")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	printer := observability.NewPrinter(cmd.OutOrStdout())

	schemaPath := validateFlags.schemaPath
	if schemaPath != "" {
		if resolved := schemas.ResolveSchemaPath(schemaPath); resolved != "" {
			schemaPath = resolved
		}
	}

	failed := 0
	for _, path := range args {
		var err error
		if schemaPath != "" {
			err = schemas.ValidateJSON(schemaPath, path)
		} else {
			err = schemas.ValidateDocumentsFile(path)
		}
		printer.PrintValidation(path, err)
		if err != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed validation", failed, len(args))
	}
	return nil
}
