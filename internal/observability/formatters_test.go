package observability

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/schemascrape/internal/batch"
	"github.com/jonathan/schemascrape/internal/extract"
	"github.com/jonathan/schemascrape/internal/job"
	"github.com/jonathan/schemascrape/internal/telemetry"
)

func TestPrintJob(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintJob(&job.Job{
		ID:     uuid.New(),
		URL:    "https://example.com/product",
		Status: job.StatusPending,
		Schema: extract.Schema{
			{Name: "title", Type: "string"},
			{Name: "price", Type: "string"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "EXTRACTION JOB")
	assert.Contains(t, out, "https://example.com/product")
	assert.Contains(t, out, "title: string")
}

func TestPrintJob_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintJob(nil)
	assert.Empty(t, buf.String())
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResult(&job.Result{
		Content:    map[string]any{"title": "Widget", "stock": nil},
		Engine:     "gemini-2.5-flash",
		TokensUsed: 321,
	})

	out := buf.String()
	assert.Contains(t, out, "EXTRACTION RESULT")
	assert.Contains(t, out, "gemini-2.5-flash")
	assert.Contains(t, out, "321")
	assert.Contains(t, out, `"Widget"`)
	assert.Contains(t, out, "null")
}

func TestPrintLogEntry_Markers(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	now := time.Now()
	p.PrintLogEntry(telemetry.Entry{Level: telemetry.LevelError, Message: "fetch failed", CreatedAt: now})
	p.PrintLogEntry(telemetry.Entry{Level: telemetry.LevelSuccess, Message: "extraction complete", CreatedAt: now})

	out := buf.String()
	assert.Contains(t, out, "✗")
	assert.Contains(t, out, "fetch failed")
	assert.Contains(t, out, "✓")
}

func TestPrintBatchSummary(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintBatchSummary(batch.Snapshot{
		Total: 5, Processed: 5, Succeeded: 4, Failed: 1,
	})

	out := buf.String()
	assert.Contains(t, out, "BATCH SUMMARY")
	assert.Contains(t, out, "Succeeded:   4")
	assert.Contains(t, out, "Failed:      1")
}
