package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/graphql-reader/internal/config"
	"github.com/jonathan/graphql-reader/internal/ingestion"
	"github.com/jonathan/graphql-reader/internal/pipeline"
)

type loadOptions struct {
	configPath      string
	endpoint        string
	query           string
	queryFile       string
	fields          string
	textFields      []string
	metadataFields  []string
	page            int
	rows            int
	headers         map[string]string
	concurrency     int
	timeout         int
	userAgent       string
	mainContentOnly bool
	useBrowser      bool
	output          string
	format          string
	databaseURL     string
	verbose         bool
}

var loadFlags loadOptions

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load documents from a GraphQL endpoint",
	Long: "Post the configured query, extract one document per record under data.<fields> and write\n" +
		"them to the output directory, or to stdout as JSON when no output directory is given.",
	RunE: runLoad,
}

func init() {
	f := loadCmd.Flags()
	f.StringVarP(&loadFlags.configPath, "config", "c", "", "Path to a JSON or YAML config file")
	f.StringVarP(&loadFlags.endpoint, "endpoint", "e", "", "GraphQL endpoint URL")
	f.StringVarP(&loadFlags.query, "query", "q", "", "GraphQL query text")
	f.StringVar(&loadFlags.queryFile, "query-file", "", "Path to a file containing the GraphQL query")
	f.StringVarP(&loadFlags.fields, "fields", "f", "", "Key under data holding the record list")
	f.StringSliceVarP(&loadFlags.textFields, "text-field", "t", nil, "Dotted field path joined into the document text (repeatable)")
	f.StringSliceVarP(&loadFlags.metadataFields, "metadata-field", "m", nil, "Dotted field path stored as metadata (repeatable)")
	f.IntVar(&loadFlags.page, "page", 0, "Page to request; adds page and rows arguments to the root field")
	f.IntVar(&loadFlags.rows, "rows", 0, "Rows per page (default 25 when --page is set)")
	f.StringToStringVarP(&loadFlags.headers, "header", "H", nil, "Request header as Name=Value; ${VAR} is expanded")
	f.IntVar(&loadFlags.concurrency, "concurrency", 0, "Records extracted in parallel")
	f.IntVar(&loadFlags.timeout, "timeout", 0, "HTTP timeout in seconds")
	f.StringVar(&loadFlags.userAgent, "user-agent", "", "User-Agent for requests")
	f.BoolVar(&loadFlags.mainContentOnly, "main-content-only", false, "Keep only the main content of dereferenced pages")
	f.BoolVar(&loadFlags.useBrowser, "use-browser", false, "Render dereferenced pages in headless Chrome")
	f.StringVarP(&loadFlags.output, "out", "o", "", "Output directory")
	f.StringVar(&loadFlags.format, "format", "", "Output format: json or jsonl")
	f.StringVar(&loadFlags.databaseURL, "db-url", "", "PostgreSQL URL for storing documents (default $DATABASE_URL)")
	f.BoolVarP(&loadFlags.verbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(loadCmd)
}

// loadConfig builds the effective configuration: flags first, then the
// config file, then the environment and built-in defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Config{
		Endpoint:        loadFlags.endpoint,
		Query:           loadFlags.query,
		QueryFile:       loadFlags.queryFile,
		Fields:          loadFlags.fields,
		TextFields:      loadFlags.textFields,
		MetadataFields:  loadFlags.metadataFields,
		Concurrency:     loadFlags.concurrency,
		TimeoutSeconds:  loadFlags.timeout,
		UserAgent:       loadFlags.userAgent,
		MainContentOnly: loadFlags.mainContentOnly,
		UseBrowser:      loadFlags.useBrowser,
		Output:          loadFlags.output,
		Format:          loadFlags.format,
		DatabaseURL:     loadFlags.databaseURL,
		Verbose:         loadFlags.verbose,
	}
	if cmd.Flags().Changed("page") {
		page := loadFlags.page
		cfg.Page = &page
	}
	if cmd.Flags().Changed("rows") {
		rows := loadFlags.rows
		cfg.Rows = &rows
	}
	if len(loadFlags.headers) > 0 {
		cfg.Headers = make(map[string]string, len(loadFlags.headers))
		for k, v := range loadFlags.headers {
			cfg.Headers[k] = v
		}
	}
	cfg.ExpandEnv()

	var defaults config.Config
	if loadFlags.configPath != "" {
		fileCfg, err := config.LoadConfig(loadFlags.configPath)
		if err != nil {
			return config.Config{}, err
		}
		defaults = *fileCfg
	}
	if defaults.DatabaseURL == "" {
		defaults.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	merged := cfg.MergeWithDefaults(defaults)
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}

func runLoad(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(cmd.Context(), pipeline.RunOptions{
		Config: cfg,
		Out:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if cfg.Output == "" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Documents)
	}

	fmt.Fprintf(out, "Successfully loaded %d documents\n", len(result.Documents))
	fmt.Fprintf(out, "Documents: %s\n", ingestion.DocumentsPath(cfg.Output, cfg.Format))
	fmt.Fprintf(out, "Metadata: %s\n", ingestion.MetadataPath(cfg.Output))
	if result.Stored > 0 {
		fmt.Fprintf(out, "Stored: %d documents (run %s)\n", result.Stored, result.RunID)
	}
	return nil
}
