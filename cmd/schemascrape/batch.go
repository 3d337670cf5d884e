package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jonathan/schemascrape/internal/batch"
	"github.com/jonathan/schemascrape/internal/observability"
)

var (
	batchConfigPath  string
	batchFile        string
	batchSchemaArg   string
	batchDatabaseURL string
	batchAPIKey      string
	batchWorkers     int
	batchPacingMs    int
	batchUseBrowser  bool
	batchVerbose     bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Dispatch extraction jobs for a file of URLs",
	Long: `Reads URLs (one per line) from a file, normalizes and deduplicates them, then
dispatches an extraction job per URL against a shared target schema. Dispatches
are paced to avoid hammering targets; individual failures never abort the batch.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "Path to file with one URL per line (required)")
	batchCmd.Flags().StringVarP(&batchSchemaArg, "schema", "s", "", "Target schema: inline JSON object or path to a JSON file (required)")
	batchCmd.Flags().StringVar(&batchDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	batchCmd.Flags().StringVar(&batchAPIKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "Concurrent job limit (defaults to 1)")
	batchCmd.Flags().IntVar(&batchPacingMs, "pacing-ms", 0, "Minimum milliseconds between dispatches (defaults to 1200)")
	batchCmd.Flags().BoolVar(&batchUseBrowser, "use-browser", false, "Use headless browser for SPA sites (requires Chrome)")
	batchCmd.Flags().BoolVarP(&batchVerbose, "verbose", "v", false, "Print a progress line per processed URL")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if batchFile == "" {
		return fmt.Errorf("--file is required")
	}
	schema, err := parseSchemaArg(batchSchemaArg)
	if err != nil {
		return err
	}
	urls, err := readURLFile(batchFile)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(batchConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = batchDatabaseURL
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = batchAPIKey
	}
	if cmd.Flags().Changed("workers") {
		cfg.BatchWorkers = batchWorkers
	}
	if cmd.Flags().Changed("pacing-ms") {
		cfg.BatchPacingMs = batchPacingMs
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = batchUseBrowser
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var progress func(batch.Snapshot)
	if batchVerbose {
		progress = func(snap batch.Snapshot) {
			fmt.Fprintf(os.Stdout, "processed %d/%d (succeeded %d, failed %d)\n",
				snap.Processed, snap.Total, snap.Succeeded, snap.Failed)
		}
	}

	st, err := buildStack(ctx, cfg, progress)
	if err != nil {
		return err
	}
	defer st.close()

	run, err := st.dispatcher.Dispatch(ctx, urls, schema)
	if err != nil {
		if errors.Is(err, batch.ErrEmptyBatch) {
			return fmt.Errorf("no dispatchable URLs in %s", batchFile)
		}
		return err
	}

	snap := run.Snapshot()
	observability.NewPrinter(os.Stdout).PrintBatchSummary(snap)

	if snap.Failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", snap.Failed, snap.Processed)
	}
	return nil
}

// readURLFile loads one URL per line; blank lines survive here and are
// dropped during normalization.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		urls = append(urls, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL file %s: %w", path, err)
	}
	return urls, nil
}
