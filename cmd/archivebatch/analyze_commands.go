package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/analysis"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/archiveapi"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/dateinfer"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/recordset"
)

// loadRecords reads records from source, only dialing the archive when the
// source is remote.
func (c *commandContext) loadRecords(cmd *cobra.Command, source *recordSource) ([]archiveapi.Record, error) {
	var api itemsAPI
	if source.items == "" {
		client, err := c.client()
		if err != nil {
			return nil, err
		}
		api = client
	}
	return source.load(cmd.Context(), api)
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var source recordSource
	var jsonOutput, strict bool
	var outPath string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Find records missing band, venue, or date and propose fixes from their titles",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := ctx.loadRecords(cmd, &source)
			if err != nil {
				return err
			}
			findings := analysis.New(dateinfer.New()).Analyze(records)

			if outPath != "" {
				if err := recordset.Save(outPath, fixedRecords(records, findings)); err != nil {
					return err
				}
			}

			if jsonOutput {
				if findings == nil {
					findings = []analysis.Finding{}
				}
				if err := writeJSON(cmd, findings); err != nil {
					return err
				}
			} else {
				renderFindings(cmd, findings, len(records))
				if outPath != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Saved %d fixed records to %s\n", len(findings), outPath)
				}
			}
			if strict && len(findings) > 0 {
				return errors.New("analysis found records to fix")
			}
			return nil
		},
	}
	source.bind(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print findings as JSON")
	cmd.Flags().StringVar(&outPath, "out", "", "Save the flagged records with fixes applied (.json, .yaml)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any record needs fixing")
	return cmd
}

// fixedRecords returns the flagged records, in finding order, with their
// suggestions applied.
func fixedRecords(records []archiveapi.Record, findings []analysis.Finding) []archiveapi.Record {
	byID := make(map[string]archiveapi.Record, len(records))
	for _, r := range records {
		byID[r.Identifier] = r
	}
	out := make([]archiveapi.Record, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Apply(byID[f.Identifier]))
	}
	return out
}

func renderFindings(cmd *cobra.Command, findings []analysis.Finding, total int) {
	out := cmd.OutOrStdout()
	if len(findings) > 0 {
		rows := make([][]string, 0, len(findings))
		for _, f := range findings {
			issues := make([]string, 0, len(f.Issues))
			for _, i := range f.Issues {
				issues = append(issues, string(i))
			}
			rows = append(rows, []string{
				f.Identifier,
				strings.Join(issues, ", "),
				f.Suggestions.Band,
				f.Suggestions.Venue,
				f.Suggestions.Date,
			})
		}
		fmt.Fprintln(out, renderTable(tableSpec{
			title:   "Metadata gaps",
			headers: []string{"Identifier", "Issues", "Band", "Venue", "Date"},
			rows:    rows,
			wrap:    map[int]bool{1: true},
		}))

		counts := analysis.Tally(findings)
		issues := make([]string, 0, len(counts))
		for issue := range counts {
			issues = append(issues, string(issue))
		}
		sort.Strings(issues)
		for _, issue := range issues {
			fmt.Fprintf(out, "  %s: %d\n", issue, counts[analysis.Issue(issue)])
		}
	}
	fmt.Fprintf(out, "%d of %d records need fixes\n", len(findings), total)
}

func newFindEventsCommand(ctx *commandContext) *cobra.Command {
	var source recordSource
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "find-events",
		Short: "List records whose description or fb fields link to an event page",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := ctx.loadRecords(cmd, &source)
			if err != nil {
				return err
			}
			matches := analysis.FindEvents(records)

			if jsonOutput {
				if matches == nil {
					matches = []analysis.EventMatch{}
				}
				return writeJSON(cmd, matches)
			}
			out := cmd.OutOrStdout()
			if len(matches) > 0 {
				rows := make([][]string, 0, len(matches))
				for _, m := range matches {
					rows = append(rows, []string{m.Identifier, strings.Join(m.Fields, ", "), strings.Join(m.Links, "\n")})
				}
				fmt.Fprintln(out, renderTable(tableSpec{
					title:   "Event links",
					headers: []string{"Identifier", "Found in", "Links"},
					rows:    rows,
				}))
			}
			fmt.Fprintf(out, "%d of %d records link to an event\n", len(matches), len(records))
			return nil
		},
	}
	source.bind(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print matches as JSON")
	return cmd
}
