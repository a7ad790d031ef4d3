package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ersonp/jurisflow/internal/domain/entities"
)

type timelineFlags struct {
	format string
	output string
}

func newTimelineCmd() *cobra.Command {
	var flags timelineFlags

	cmd := &cobra.Command{
		Use:   "timeline <case-id>",
		Short: "Show the unified timeline of a case",
		Long:  "Prints the entries of a case in event-date order as a table, JSON, CSV or markdown.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimeline(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "table", "Output format (table, json, csv, markdown)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runTimeline(cmd *cobra.Command, caseID string, flags timelineFlags) error {
	if !contains(validFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, validFormats)
	}

	ctx := cmd.Context()

	return withDeps(ctx, depsOptions{}, func(deps *Deps) error {
		entries, err := deps.QueryHandler.Timeline(ctx, caseID)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Printf("No timeline entries for case %s\n", caseID)
			return nil
		}
		return writeOutput(flags.output, func(w io.Writer) error {
			return formatTimeline(w, flags.format, entries)
		})
	})
}

// writeOutput runs write against the named file, or stdout when path is empty.
func writeOutput(path string, write func(io.Writer) error) (err error) {
	if path == "" {
		return write(os.Stdout)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing file: %w", cerr)
		}
	}()

	if err := write(f); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func formatTimeline(w io.Writer, format string, entries []entities.TimelineEntry) error {
	switch format {
	case "table":
		return formatTable(w, entries)
	case "json":
		return formatJSON(w, entries)
	case "csv":
		return formatCSV(w, entries)
	case "markdown":
		return formatMarkdown(w, entries)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func formatTable(w io.Writer, entries []entities.TimelineEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTYPE\tSOURCE\tDESCRIPTION\tID")
	for _, e := range entries {
		desc := e.Description
		if e.RelatedEntryID != "" {
			desc += " (related to " + shortID(e.RelatedEntryID) + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.EventDate.Format("2006-01-02"), e.EventType, e.Source, desc, shortID(e.ID))
	}
	return tw.Flush()
}

func formatJSON(w io.Writer, entries []entities.TimelineEntry) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}

func formatCSV(w io.Writer, entries []entities.TimelineEntry) error {
	writer := csv.NewWriter(w)

	header := []string{"id", "case_id", "event_date", "event_type", "description", "source", "related_entry_id", "revisions"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, e := range entries {
		row := []string{
			e.ID,
			e.CaseID,
			e.EventDate.Format("2006-01-02"),
			e.EventType,
			e.Description,
			string(e.Source),
			e.RelatedEntryID,
			strconv.Itoa(len(e.EnrichmentHistory)),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatMarkdown(w io.Writer, entries []entities.TimelineEntry) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Timeline: %s\n\n", entries[0].CaseID)
	fmt.Fprintln(&b, "| Date | Type | Source | Description |")
	fmt.Fprintln(&b, "|------|------|--------|-------------|")
	for _, e := range entries {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			e.EventDate.Format("2006-01-02"),
			escapeMarkdown(e.EventType),
			e.Source,
			escapeMarkdown(e.Description))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
