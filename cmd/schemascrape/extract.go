package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/schemascrape/internal/observability"
)

var (
	extractConfigPath  string
	extractURL         string
	extractSchemaArg   string
	extractDatabaseURL string
	extractAPIKey      string
	extractTier        string
	extractUseBrowser  bool
	extractVerbose     bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run a single extraction job end-to-end",
	Long: `Submits one URL with a target schema, runs the fetch -> sanitize -> extract pipeline,
streams the job's progress logs to the console, and prints the extracted JSON.

The schema is a JSON object mapping field names to type hints, for example:
  schemascrape extract --url https://example.com --schema '{"title": "string", "price": "string"}'`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	extractCmd.Flags().StringVarP(&extractURL, "url", "u", "", "URL to extract from (required)")
	extractCmd.Flags().StringVarP(&extractSchemaArg, "schema", "s", "", "Target schema: inline JSON object or path to a JSON file (required)")
	extractCmd.Flags().StringVar(&extractDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	extractCmd.Flags().StringVar(&extractAPIKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	extractCmd.Flags().StringVar(&extractTier, "tier", "", "Model tier: lite, standard, or advanced")
	extractCmd.Flags().BoolVar(&extractUseBrowser, "use-browser", false, "Use headless browser for SPA sites (requires Chrome)")
	extractCmd.Flags().BoolVarP(&extractVerbose, "verbose", "v", false, "Print detailed job information")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if extractURL == "" {
		return fmt.Errorf("--url is required")
	}
	schema, err := parseSchemaArg(extractSchemaArg)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(extractConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = extractDatabaseURL
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = extractAPIKey
	}
	if cmd.Flags().Changed("tier") {
		cfg.ModelTier = extractTier
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = extractUseBrowser
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	st, err := buildStack(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer st.close()

	jobID, err := st.manager.Submit(ctx, extractURL, schema)
	if err != nil {
		return fmt.Errorf("failed to submit job: %w", err)
	}

	printer := observability.NewPrinter(os.Stdout)
	if extractVerbose {
		j, err := st.database.GetJob(ctx, jobID)
		if err != nil {
			return err
		}
		printer.PrintJob(j)
	}

	// Stream progress logs while the pipeline runs. Subscribing before
	// Run means no entry is missed.
	entries, cancel := st.broker.Subscribe(jobID)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return st.manager.Run(gctx, jobID)
	})
	g.Go(func() error {
		for entry := range entries {
			printer.PrintLogEntry(entry)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	succeeded, err := st.manager.JobSucceeded(ctx, jobID)
	if err != nil {
		return err
	}
	if !succeeded {
		return fmt.Errorf("job %s failed; see logs above", jobID)
	}

	result, err := st.database.GetExtractionResult(ctx, jobID)
	if err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("job %s completed but no result was stored", jobID)
	}
	printer.PrintResult(result)
	return nil
}
