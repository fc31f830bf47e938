// Package printer handles output formatting and display
package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fatih/color"
)

// Action is the outcome of one processed file.
type Action string

const (
	ActionTransformed Action = "transformed"
	ActionUnchanged   Action = "unchanged"
	ActionSkipped     Action = "skipped"
	ActionFailed      Action = "failed"
)

// Result describes how one file went through the pipeline.
type Result struct {
	Path     string   `json:"path"`
	Category string   `json:"category,omitempty"`
	Rules    []string `json:"rules,omitempty"`
	Action   Action   `json:"action"`
	Env      string   `json:"env,omitempty"`
	Output   string   `json:"output,omitempty"`
	Err      string   `json:"error,omitempty"`
}

// Printer handles output formatting and writing to the configured output
// destination. It is safe for concurrent use.
type Printer struct {
	mu              sync.Mutex
	output          io.Writer
	count           atomic.Int64
	useColors       bool
	jsonOutput      bool
	jsonStarted     bool
	markdownOutput  bool
	markdownStarted bool
}

// New creates a new Printer with default settings
func New() *Printer {
	return &Printer{
		output:         os.Stdout,
		useColors:      true,
		jsonOutput:     false,
		markdownOutput: false,
	}
}

// WithOutput sets the output destination
func (p *Printer) WithOutput(w io.Writer) *Printer {
	p.output = w
	return p
}

// WithColors enables or disables colored output
func (p *Printer) WithColors(enabled bool) *Printer {
	p.useColors = enabled
	return p
}

// WithJSON enables JSON output mode
func (p *Printer) WithJSON(enabled bool) *Printer {
	p.jsonOutput = enabled
	return p
}

// WithMarkdown enables Markdown output mode
func (p *Printer) WithMarkdown(enabled bool) *Printer {
	p.markdownOutput = enabled
	return p
}

// PrintResult outputs one per-file result in the configured format
func (p *Printer) PrintResult(res Result) {
	// Increment the file counter
	p.count.Add(1)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.jsonOutput {
		// Handle JSON output mode
		if !p.jsonStarted {
			// Start the JSON array
			fmt.Fprint(p.output, "[\n")
			p.jsonStarted = true
		} else {
			// Add comma between entries
			fmt.Fprint(p.output, ",\n")
		}

		jsonData, err := json.MarshalIndent(res, "  ", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
			return
		}

		// Write the JSON entry
		fmt.Fprintf(p.output, "  %s", jsonData)
	} else if p.markdownOutput {
		// Handle Markdown output mode
		if !p.markdownStarted {
			fmt.Fprint(p.output, "| Path | Category | Rules | Action | Detail |\n")
			fmt.Fprint(p.output, "|------|----------|-------|--------|--------|\n")
			p.markdownStarted = true
		}
		fmt.Fprintf(p.output, "| %s | %s | %s | %s | %s |\n",
			res.Path, res.Category, strings.Join(res.Rules, ", "), res.Action, p.detail(res))
	} else {
		// Standard output mode
		label := fmt.Sprintf("%-11s", res.Action)
		if p.useColors {
			label = p.colorize(res.Action, label)
		}

		line := label + " " + res.Path
		if res.Env != "" {
			line += " (env: " + res.Env + ")"
		}
		if res.Category != "" {
			line += " [" + res.Category + "]"
		}
		if len(res.Rules) > 0 {
			line += " rules: " + strings.Join(res.Rules, ", ")
		}
		if res.Output != "" {
			line += " -> " + res.Output
		}
		if res.Err != "" {
			line += " error: " + res.Err
		}
		fmt.Fprintln(p.output, line)
	}
}

// detail picks the markdown Detail cell: the written path, or the error.
func (p *Printer) detail(res Result) string {
	if res.Err != "" {
		return res.Err
	}
	return res.Output
}

// colorize colors the action label for terminal output
func (p *Printer) colorize(action Action, label string) string {
	switch action {
	case ActionTransformed:
		return color.GreenString(label)
	case ActionUnchanged:
		return color.CyanString(label)
	case ActionSkipped:
		return color.YellowString(label)
	case ActionFailed:
		return color.RedString(label)
	default:
		return label
	}
}

// Finalize completes any pending operations (like closing JSON array)
func (p *Printer) Finalize() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.jsonOutput && p.jsonStarted {
		// Close the JSON array
		fmt.Fprint(p.output, "\n]\n")
	}
}

// GetCount returns the number of results printed
func (p *Printer) GetCount() int64 {
	return p.count.Load()
}
