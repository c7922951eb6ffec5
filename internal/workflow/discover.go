package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/archiveapi"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/logging"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/services"
)

// stepOutcome tells the record loop how a step ended.
type stepOutcome int

const (
	outcomeContinue stepOutcome = iota
	outcomeSkip
	outcomeHalt
)

func (o *Orchestrator) runDiscover(ctx context.Context, state *RunState, req Request) error {
	pace := o.newPacer()
	for _, rec := range req.Records {
		if err := ctx.Err(); err != nil {
			return cancelled(rec.Identifier, err)
		}
		if strings.TrimSpace(rec.Title) == "" {
			o.activity.Skipped(rec.Identifier, "No title; skipped")
			state.Skipped++
			continue
		}
		if err := pace.wait(ctx); err != nil {
			return cancelled(rec.Identifier, err)
		}
		if outcome, err := o.discoverRecord(ctx, state, req, rec); outcome == outcomeHalt {
			return err
		}
	}
	return nil
}

// discoverRecord asks for a match and, when one is usable, writes it back
// to the archive before returning.
func (o *Orchestrator) discoverRecord(ctx context.Context, state *RunState, req Request, rec archiveapi.Record) (stepOutcome, error) {
	mode := string(req.Mode)
	id := rec.Identifier
	suggestCtx := o.requestContext(ctx, id)
	logger := logging.WithContext(suggestCtx, o.logger)

	resp, err := o.api.Suggest(suggestCtx, []archiveapi.SuggestItem{{
		Identifier: id,
		Title:      strings.TrimSpace(rec.Title),
		Date:       strings.TrimSpace(rec.Date),
	}}, req.Refresh)
	if decision := o.guard.Inspect(quotaSignals(err, resp)); decision.Exhausted() {
		logger.Warn("video host quota exhausted",
			logging.String(logging.FieldEventType, "quota_exhausted"),
			logging.String("signal", string(decision.Source)),
		)
		return outcomeHalt, halt(id,
			fmt.Sprintf("Video host quota exhausted while matching %s; halting run", id),
			services.Wrap(services.ErrQuotaExhausted, mode, "suggest", id, err))
	}
	if err != nil {
		return outcomeHalt, halt(id,
			fmt.Sprintf("Match request failed for %s: %v", id, err),
			services.Wrap(services.ErrNetwork, mode, "suggest", id, err))
	}
	state.Processed++

	suggestion, ok := findSuggestion(resp, id)
	if !ok || !suggestion.Success {
		msg := "No match found"
		if ok && strings.TrimSpace(suggestion.Error) != "" {
			msg += ": " + strings.TrimSpace(suggestion.Error)
		}
		o.activity.Info(id, msg)
		state.Skipped++
		return outcomeSkip, nil
	}

	selection := DefaultSelection(suggestion).Merge(req.Selections[id])
	updates := selection.Updates(suggestion)
	if len(updates) == 0 {
		o.activity.Skipped(id, "Match found but no fields selected")
		state.Skipped++
		return outcomeSkip, nil
	}
	if req.DryRun {
		o.activity.Info(id, "Dry run: would set "+describeUpdates(updates))
		return outcomeContinue, nil
	}

	updateCtx := o.requestContext(ctx, id)
	result, err := o.api.UpdateMetadata(updateCtx, []string{id}, updates)
	if err != nil {
		return outcomeHalt, halt(id,
			fmt.Sprintf("Update failed for %s: %v", id, err),
			services.Wrap(services.ErrUpstreamUpdate, mode, "update metadata", id, err))
	}
	if reason, ok := updateSucceeded(result, id); !ok {
		return outcomeHalt, halt(id,
			fmt.Sprintf("Update failed for %s: %s", id, reason),
			services.Wrap(services.ErrUpstreamUpdate, mode, "update metadata", id+": "+reason, nil))
	}

	state.Added++
	o.activity.Success(id, "Updated "+describeUpdates(updates))
	logger.Info("record updated",
		logging.String(logging.FieldEventType, "record_update"),
		logging.String(logging.FieldVideoID, suggestion.VideoLink),
		logging.Int("fields", len(updates)),
	)
	return outcomeContinue, nil
}

func findSuggestion(resp *archiveapi.SuggestResponse, id string) (archiveapi.Suggestion, bool) {
	if resp == nil {
		return archiveapi.Suggestion{}, false
	}
	for _, s := range resp.Results {
		if s.Identifier == id {
			return s, true
		}
	}
	// Single-item batches may come back without the identifier echoed.
	if len(resp.Results) == 1 && resp.Results[0].Identifier == "" {
		return resp.Results[0], true
	}
	return archiveapi.Suggestion{}, false
}

func updateSucceeded(resp *archiveapi.UpdateMetadataResponse, id string) (string, bool) {
	if resp == nil {
		return "empty response", false
	}
	for _, r := range resp.Results {
		if r.Identifier != id && r.Identifier != "" {
			continue
		}
		if r.Success {
			return "", true
		}
		if reason := strings.TrimSpace(r.Error); reason != "" {
			return reason, false
		}
		if reason := strings.TrimSpace(r.Message); reason != "" {
			return reason, false
		}
		return "rejected by archive", false
	}
	return "no result for record", false
}

func describeUpdates(updates []archiveapi.MetadataUpdate) string {
	parts := make([]string, 0, len(updates))
	for _, u := range updates {
		parts = append(parts, fmt.Sprintf("%s=%q", u.Field, u.Value))
	}
	return strings.Join(parts, ", ")
}
