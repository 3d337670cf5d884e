package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/schemascrape/internal/batch"
	"github.com/jonathan/schemascrape/internal/job"
	"github.com/jonathan/schemascrape/internal/telemetry"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxFieldsToShow is the default number of fields to display in lists
	maxFieldsToShow = 8
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintJob outputs a human-readable summary of a job record.
func (p *Printer) PrintJob(j *job.Job) {
	if j == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID:      %s\n", j.ID))
	sb.WriteString(fmt.Sprintf("URL:     %s\n", j.URL))
	sb.WriteString(fmt.Sprintf("Status:  %s\n", j.Status))
	sb.WriteString("\nTarget schema:\n")

	count := min(len(j.Schema), maxFieldsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s: %s\n", j.Schema[i].Name, j.Schema[i].Type))
	}
	if len(j.Schema) > maxFieldsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(j.Schema)-maxFieldsToShow))
	}

	p.printBox("EXTRACTION JOB", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResult outputs the extracted content of a completed job.
func (p *Printer) PrintResult(r *job.Result) {
	if r == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Engine:  %s\n", r.Engine))
	sb.WriteString(fmt.Sprintf("Tokens:  %d\n", r.TokensUsed))
	sb.WriteString("\n")

	shown := 0
	for key, value := range r.Content {
		if shown == maxFieldsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more fields\n", len(r.Content)-shown))
			break
		}
		rendered := "null"
		if value != nil {
			if data, err := json.Marshal(value); err == nil {
				rendered = string(data)
			}
		}
		if len(rendered) > 40 {
			rendered = rendered[:37] + "..."
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", key, rendered))
		shown++
	}

	p.printBox("EXTRACTION RESULT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintLogEntry outputs a single telemetry entry as a console line.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintLogEntry(entry telemetry.Entry) {
	marker := "•"
	switch entry.Level {
	case telemetry.LevelSuccess:
		marker = "✓"
	case telemetry.LevelWarn:
		marker = "⚠"
	case telemetry.LevelError:
		marker = "✗"
	}
	fmt.Fprintf(p.out, "%s [%s] %s\n", marker, entry.CreatedAt.Format("15:04:05"), entry.Message)
}

// PrintBatchSummary outputs the final accounting for a bulk run.
func (p *Printer) PrintBatchSummary(snap batch.Snapshot) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total URLs:  %d\n", snap.Total))
	sb.WriteString(fmt.Sprintf("Processed:   %d\n", snap.Processed))
	sb.WriteString(fmt.Sprintf("Succeeded:   %d\n", snap.Succeeded))
	sb.WriteString(fmt.Sprintf("Failed:      %d", snap.Failed))
	p.printBox("BATCH SUMMARY", sb.String())
}
