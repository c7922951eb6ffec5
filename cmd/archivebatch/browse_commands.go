package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/archiveapi"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/dateinfer"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/recordset"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var outPath string
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the archive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			return printRecords(cmd, resp.Items, jsonOutput, outPath)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print records as JSON")
	cmd.Flags().StringVar(&outPath, "out", "", "Also save records to this file (.json, .yaml)")
	return cmd
}

func newItemsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput, refresh bool
	var outPath string
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List the authenticated user's uploads",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.UserItems(cmd.Context(), refresh)
			if err != nil {
				return fmt.Errorf("list uploads: %w", err)
			}
			if resp.Cached && !jsonOutput {
				fmt.Fprintln(cmd.OutOrStdout(), "(cached list; use --refresh to reload)")
			}
			return printRecords(cmd, resp.Items, jsonOutput, outPath)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print records as JSON")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the server-side cache")
	cmd.Flags().StringVar(&outPath, "out", "", "Also save records to this file (.json, .yaml)")
	return cmd
}

func printRecords(cmd *cobra.Command, records []archiveapi.Record, jsonOutput bool, outPath string) error {
	if outPath != "" {
		if err := recordset.Save(outPath, records); err != nil {
			return err
		}
	}
	if jsonOutput {
		if records == nil {
			records = []archiveapi.Record{}
		}
		return writeJSON(cmd, records)
	}
	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No records found")
		return nil
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.Identifier, truncate(r.Title, maxCellWidth), r.Date, r.VideoLink()})
	}
	fmt.Fprintln(out, renderTable(tableSpec{
		headers: []string{"Identifier", "Title", "Date", "Video"},
		rows:    rows,
	}))
	if outPath != "" {
		fmt.Fprintf(out, "Saved %d records to %s\n", len(records), outPath)
	}
	return nil
}

// dateAudit compares the dates a record carries in its identifier, its
// title, and its date field.
type dateAudit struct {
	Identifier     string `json:"identifier"`
	IdentifierDate string `json:"identifierDate,omitempty"`
	TitleDate      string `json:"titleDate,omitempty"`
	FieldDate      string `json:"fieldDate,omitempty"`
	Standardized   string `json:"standardized,omitempty"`
	Problem        string `json:"problem,omitempty"`
}

func auditRecord(r archiveapi.Record) dateAudit {
	a := dateAudit{Identifier: r.Identifier, FieldDate: strings.TrimSpace(r.Date)}
	a.IdentifierDate, _ = dateinfer.FromIdentifier(r.Identifier)
	a.TitleDate, _ = dateinfer.FromTitle(r.Title)

	var problems []string
	if a.FieldDate != "" {
		standardized, ok := dateinfer.Standardize(a.FieldDate)
		if ok {
			a.Standardized = standardized
			if standardized != a.FieldDate {
				problems = append(problems, "date field not in YYYY-MM-DD form")
			}
		} else {
			problems = append(problems, "date field unrecognized")
		}
	}
	if a.IdentifierDate != "" && a.TitleDate != "" && a.IdentifierDate != a.TitleDate {
		problems = append(problems, "identifier and title disagree")
	}
	if a.Standardized != "" {
		if ref := firstNonEmpty(a.TitleDate, a.IdentifierDate); ref != "" && ref != a.Standardized {
			problems = append(problems, "date field disagrees with "+sourceName(a))
		}
	}
	a.Problem = strings.Join(problems, "; ")
	return a
}

func sourceName(a dateAudit) string {
	if a.TitleDate != "" {
		return "title"
	}
	return "identifier"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func newAuditDatesCommand(ctx *commandContext) *cobra.Command {
	var source recordSource
	var jsonOutput, all, strict bool
	cmd := &cobra.Command{
		Use:   "audit-dates",
		Short: "Report records whose identifier, title, and date field disagree",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := ctx.loadRecords(cmd, &source)
			if err != nil {
				return err
			}

			var audits []dateAudit
			flagged := 0
			for _, r := range records {
				a := auditRecord(r)
				if a.Problem != "" {
					flagged++
				}
				if all || a.Problem != "" {
					audits = append(audits, a)
				}
			}

			if jsonOutput {
				if audits == nil {
					audits = []dateAudit{}
				}
				if err := writeJSON(cmd, audits); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				if len(audits) > 0 {
					rows := make([][]string, 0, len(audits))
					for _, a := range audits {
						rows = append(rows, []string{a.Identifier, a.IdentifierDate, a.TitleDate, a.FieldDate, a.Problem})
					}
					fmt.Fprintln(out, renderTable(tableSpec{
						title:   "Date audit",
						headers: []string{"Identifier", "From identifier", "From title", "Date field", "Problem"},
						rows:    rows,
						wrap:    map[int]bool{4: true},
					}))
				}
				fmt.Fprintf(out, "%d of %d records flagged\n", flagged, len(records))
			}
			if strict && flagged > 0 {
				return errors.New("date audit found problems")
			}
			return nil
		},
	}
	source.bind(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the audit as JSON")
	cmd.Flags().BoolVar(&all, "all", false, "Include records without problems")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any record is flagged")
	return cmd
}
