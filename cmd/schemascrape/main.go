// Package main provides the entry point for the SchemaScrape extraction engine.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "schemascrape",
	Short: "Schema-guided web extraction engine",
	Long:  "SchemaScrape fetches web pages, sanitizes them, and extracts structured JSON matching a caller-supplied schema via an LLM, with persisted jobs and live progress logs.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
