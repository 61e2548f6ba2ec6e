// Package report renders migration run summaries as tables, unified diffs,
// JSON or YAML.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/codeshift/pkg/pipeline"
	"github.com/Sumatoshi-tech/codeshift/pkg/transform"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ErrUnknownFormat is returned for an output format other than table, json or yaml.
var ErrUnknownFormat = errors.New("unknown output format")

const msgNoFiles = "No files matched."

// ValidateFormat returns an error for an unsupported format name.
func ValidateFormat(format string) error {
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Options controls what Write prints.
type Options struct {
	Format string
	// Verbose lists unchanged files too.
	Verbose bool
	// Diff prints a unified diff for every changed file.
	Diff bool
}

// Write renders summary to w in the requested format.
func Write(w io.Writer, summary *pipeline.Summary, opts Options) error {
	switch opts.Format {
	case "", FormatTable:
		return writeText(w, summary, opts)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		err := enc.Encode(summary)
		if err != nil {
			return fmt.Errorf("encode json report: %w", err)
		}

		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		err := enc.Encode(summary)
		if err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}

		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
}

func writeText(w io.Writer, summary *pipeline.Summary, opts Options) error {
	if len(summary.Files) == 0 {
		_, err := fmt.Fprintln(w, msgNoFiles)

		return err
	}

	if opts.Diff {
		for i := range summary.Files {
			fr := &summary.Files[i]
			if !fr.Changed() {
				continue
			}

			_, err := io.WriteString(w, UnifiedDiff(fr.Path, fr.Original, fr.Output))
			if err != nil {
				return err
			}
		}
	}

	_, err := fmt.Fprintln(w, filesTable(summary, opts.Verbose))
	if err != nil {
		return err
	}

	if summary.Diagnostics() > 0 {
		_, err = fmt.Fprintln(w, diagnosticsTable(summary))
		if err != nil {
			return err
		}
	}

	_, err = fmt.Fprintln(w, totals(summary))

	return err
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Format.Footer = text.FormatDefault

	return tbl
}

func filesTable(summary *pipeline.Summary, verbose bool) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"File", "Status", "Rules", "Diagnostics", "Size", "Time"})

	shown := 0

	for i := range summary.Files {
		fr := &summary.Files[i]
		if !verbose && fr.Status == pipeline.FileUnchanged {
			continue
		}

		shown++

		tbl.AppendRow(table.Row{
			fr.Path,
			StatusText(fr.Status),
			appliedRules(fr.Rules),
			len(fr.Diagnostics),
			humanize.IBytes(uint64(max(fr.Size, 0))),
			fr.Duration.Round(time.Microsecond),
		})

		if fr.Error != "" {
			tbl.AppendRow(table.Row{"", color.RedString("%s", fr.Error)})
		}
	}

	hidden := len(summary.Files) - shown
	if hidden > 0 {
		tbl.AppendFooter(table.Row{fmt.Sprintf("%d unchanged not shown", hidden)})
	}

	return tbl.Render()
}

func diagnosticsTable(summary *pipeline.Summary) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Location", "Rule", "Message"})

	for i := range summary.Files {
		fr := &summary.Files[i]
		for _, d := range fr.Diagnostics {
			tbl.AppendRow(table.Row{location(fr.Path, d), d.Rule, d.Msg})
		}
	}

	return tbl.Render()
}

func location(path string, d transform.Diagnostic) string {
	if d.Line == 0 {
		return path
	}

	return fmt.Sprintf("%s:%d:%d", path, d.Line, d.Column)
}

func appliedRules(outcomes []pipeline.RuleOutcome) string {
	var names []string

	for _, o := range outcomes {
		if o.Status == transform.StatusApplied.String() {
			names = append(names, o.Rule)
		}
	}

	return strings.Join(names, ", ")
}

func totals(summary *pipeline.Summary) string {
	verb := "migrated"
	if summary.DryRun {
		verb = "would migrate"
	}

	return fmt.Sprintf("%s %d of %d files (%d failed, %d skipped, %d diagnostics) in %s",
		verb,
		summary.Counts[string(pipeline.FileChanged)],
		len(summary.Files),
		summary.Counts[string(pipeline.FileFailed)],
		summary.Counts[string(pipeline.FileSkipped)],
		summary.Diagnostics(),
		summary.Duration.Round(time.Millisecond),
	)
}

// StatusText colors a file status for terminals.
func StatusText(status pipeline.FileStatus) string {
	switch status {
	case pipeline.FileChanged:
		return color.GreenString("%s", status)
	case pipeline.FileFailed:
		return color.RedString("%s", status)
	case pipeline.FileSkipped:
		return color.YellowString("%s", status)
	case pipeline.FileUnchanged:
		return string(status)
	default:
		return string(status)
	}
}

// WriteRules lists rules with their package gate and options.
func WriteRules(w io.Writer, plugins []*transform.Plugin) error {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Rule", "Applies to", "Description"})

	for _, p := range plugins {
		gate := "any"
		if pkg, constraint := p.Package(); pkg != "" {
			gate = pkg + " " + constraint
		}

		tbl.AppendRow(table.Row{color.CyanString("%s", p.Name()), gate, p.Description()})

		for _, opt := range p.Options() {
			tbl.AppendRow(table.Row{
				"",
				fmt.Sprintf("  %s (%s)", opt.Name, opt.Type),
				fmt.Sprintf("%s [default %s]", opt.Description, opt.FormatDefault()),
			})
		}
	}

	_, err := fmt.Fprintln(w, tbl.Render())

	return err
}
