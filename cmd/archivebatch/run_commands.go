package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/activitylog"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/archiveapi"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/logging"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/preflight"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/runlock"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/workflow"
)

type runOptions struct {
	source     recordSource
	dryRun     bool
	jsonOutput bool
	skipFields []string
}

func (o *runOptions) bind(cmd *cobra.Command) {
	o.source.bind(cmd)
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "Compute changes without writing anything")
	cmd.Flags().BoolVar(&o.jsonOutput, "json", false, "Print the run result as JSON")
}

type runReport struct {
	Run     workflow.RunState   `json:"run"`
	Entries []activitylog.Entry `json:"entries"`
}

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Match records to videos and write the links back to the archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runWorkflow(cmd, opts, workflow.Request{Mode: workflow.ModeDiscover}, true)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringSliceVar(&opts.skipFields, "skip-field", nil, "Never write these suggested fields (youtube, band, venue, date)")
	return cmd
}

func newDatesCommand(ctx *commandContext) *cobra.Command {
	datesCmd := &cobra.Command{
		Use:   "dates",
		Short: "Set recording dates on linked videos",
	}

	bulkOpts := &runOptions{}
	var bulkDate string
	bulk := &cobra.Command{
		Use:   "bulk",
		Short: "Apply one recording date to every record's video",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(bulkDate) == "" {
				return errors.New("--date is required")
			}
			return ctx.runWorkflow(cmd, bulkOpts, workflow.Request{Mode: workflow.ModeDatesBulk, BulkDate: bulkDate}, true)
		},
	}
	bulkOpts.bind(bulk)
	bulk.Flags().StringVar(&bulkDate, "date", "", "Recording date (YYYY-MM-DD or MM/DD/YYYY)")

	individualOpts := &runOptions{}
	individual := &cobra.Command{
		Use:   "individual",
		Short: "Infer each record's recording date from its metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runWorkflow(cmd, individualOpts, workflow.Request{Mode: workflow.ModeDatesIndividual}, true)
		},
	}
	individualOpts.bind(individual)

	datesCmd.AddCommand(bulk, individual)
	return datesCmd
}

func newDescriptionsCommand(ctx *commandContext) *cobra.Command {
	opts := &runOptions{}
	var storeLink string
	cmd := &cobra.Command{
		Use:   "descriptions",
		Short: "Standardize the download links in video descriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runWorkflow(cmd, opts, workflow.Request{Mode: workflow.ModeDescriptions, StoreLink: storeLink}, true)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&storeLink, "store-link", "", "Store link appended as the \"full @\" tail")
	return cmd
}

func newUploadImageCommand(ctx *commandContext) *cobra.Command {
	opts := &runOptions{}
	var imagePath string
	cmd := &cobra.Command{
		Use:   "upload-image",
		Short: "Attach one image to every record",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(imagePath) == "" {
				return errors.New("--image is required")
			}
			file, err := os.Open(imagePath)
			if err != nil {
				return fmt.Errorf("open image: %w", err)
			}
			defer file.Close()
			req := workflow.Request{
				Mode:  workflow.ModeImageUpload,
				Image: &archiveapi.Image{Name: filepath.Base(imagePath), Reader: file},
			}
			return ctx.runWorkflow(cmd, opts, req, false)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&imagePath, "image", "", "Image file to attach")
	return cmd
}

// runWorkflow loads records, checks the environment, and executes one run
// under the machine-wide lock.
func (c *commandContext) runWorkflow(cmd *cobra.Command, opts *runOptions, req workflow.Request, needsVideoAuth bool) error {
	runCtx := cmd.Context()
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	client, err := c.client()
	if err != nil {
		return err
	}
	logger := c.log()

	if failed := preflight.Failed(preflight.RunAll(runCtx, cfg, client, needsVideoAuth)); len(failed) > 0 {
		parts := make([]string, 0, len(failed))
		for _, f := range failed {
			parts = append(parts, fmt.Sprintf("%s: %s", f.Name, f.Detail))
		}
		return fmt.Errorf("preflight failed (%s); run `archivebatch doctor` for details", strings.Join(parts, "; "))
	}

	records, err := opts.source.load(runCtx, client)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No records to process")
		return nil
	}
	req.Records = records
	req.DryRun = opts.dryRun
	req.Refresh = opts.source.refresh
	if len(opts.skipFields) > 0 {
		req.Selections = skipSelections(records, opts.skipFields)
	}

	if !req.DryRun {
		lock := runlock.New(cfg.LockPath())
		if err := lock.Acquire(); err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn("release run lock", logging.Error(err))
			}
		}()
	}

	activity := activitylog.New(activitylog.NewSlogSink(logger))
	if !opts.jsonOutput {
		activity.AddSink(consoleSink(cmd.OutOrStdout()))
	}
	orch := workflow.New(cfg, client, activity, logger)
	state, runErr := orch.Run(runCtx, req)

	if opts.jsonOutput {
		if err := writeJSON(cmd, runReport{Run: state, Entries: activity.Entries()}); err != nil {
			return err
		}
	} else {
		renderRunDetails(cmd, state)
	}
	if runErr != nil {
		return fmt.Errorf("run halted (%s): %w", state.HaltedReason, runErr)
	}
	return nil
}

func skipSelections(records []archiveapi.Record, fields []string) map[string]workflow.FieldSelection {
	base := workflow.FieldSelection{}
	for _, f := range fields {
		base[strings.ToLower(strings.TrimSpace(f))] = false
	}
	out := make(map[string]workflow.FieldSelection, len(records))
	for _, r := range records {
		out[r.Identifier] = base
	}
	return out
}

func renderRunDetails(cmd *cobra.Command, state workflow.RunState) {
	out := cmd.OutOrStdout()
	if len(state.Mappings) > 0 {
		rows := make([][]string, 0, len(state.Mappings))
		for _, m := range state.Mappings {
			detected := m.DetectedDate
			if detected == "" {
				detected = "(today)"
			}
			rows = append(rows, []string{m.RecordID, m.VideoID, detected, m.FinalDate, m.Source})
		}
		fmt.Fprintln(out, renderTable(tableSpec{
			title:   "Recording dates",
			headers: []string{"Record", "Video", "Detected", "Final", "Source"},
			rows:    rows,
		}))
	}
	if len(state.Previews) > 0 {
		rows := make([][]string, 0, len(state.Previews))
		for _, p := range state.Previews {
			rows = append(rows, []string{p.RecordID, p.VideoID, yesNo(p.NeedsUpdate), truncate(p.NewDescription, 2*maxCellWidth)})
		}
		fmt.Fprintln(out, renderTable(tableSpec{
			title:   "Description previews",
			headers: []string{"Record", "Video", "Update", "New description"},
			rows:    rows,
			wrap:    map[int]bool{3: true},
		}))
	}

	status := "complete"
	if state.Halted() {
		status = "halted: " + state.HaltedReason
	} else if state.DryRun {
		status = "dry run"
	}
	fmt.Fprintln(out, renderTable(tableSpec{
		headers: []string{"Run", "Mode", "Processed", "Added", "Skipped", "Errors", "Duration", "Status"},
		rows: [][]string{{
			state.RunID,
			string(state.Mode),
			strconv.Itoa(state.Processed),
			strconv.Itoa(state.Added),
			strconv.Itoa(state.Skipped),
			strconv.Itoa(state.Errors),
			state.Duration().Round(10 * time.Millisecond).String(),
			status,
		}},
		numeric: map[int]bool{2: true, 3: true, 4: true, 5: true},
	}))
}
