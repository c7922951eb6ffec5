package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/archiveapi"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/services"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/titleparse"
)

func (o *Orchestrator) runDescriptions(ctx context.Context, state *RunState, req Request) error {
	mode := string(req.Mode)
	links := newCorrelation("description")
	pace := o.newPacer()

	var targets []DescriptionTarget
	for _, rec := range req.Records {
		if err := ctx.Err(); err != nil {
			return cancelled(rec.Identifier, err)
		}
		id := rec.Identifier
		if err := pace.wait(ctx); err != nil {
			return cancelled(id, err)
		}
		meta, err := o.fetchMetadata(ctx, mode, id)
		if err != nil {
			return err
		}
		link := rec.VideoLink()
		if link == "" {
			link = meta.YouTube.String()
		}
		videoID, ok := o.videoFor(state, links, id, link)
		if !ok {
			continue
		}
		links.add(videoID, id)
		targets = append(targets, DescriptionTarget{
			RecordID:  id,
			VideoID:   videoID,
			Performer: performerFor(rec, meta),
		})
		state.Processed++
	}
	if len(targets) == 0 {
		o.activity.Info("", "No descriptions to check")
		return nil
	}

	videoIDs := make([]string, 0, len(targets))
	for _, t := range targets {
		videoIDs = append(videoIDs, t.VideoID)
	}
	current, err := o.api.Descriptions(services.WithRequestID(ctx, o.newID()), videoIDs)
	if err != nil {
		if o.guard.Inspect(quotaSignals(err, nil)).Exhausted() {
			return halt("", "Video host quota exhausted while loading descriptions; halting run",
				services.Wrap(services.ErrQuotaExhausted, mode, "get descriptions", "", err))
		}
		return halt("", fmt.Sprintf("Loading descriptions failed: %v", err),
			services.Wrap(services.ErrNetwork, mode, "get descriptions", "", err))
	}

	state.Previews = o.PreviewDescriptions(targets, current, req.StoreLink)
	for _, p := range state.Previews {
		switch {
		case !p.NeedsUpdate:
			o.activity.Skipped(p.RecordID, fmt.Sprintf("Description for video %s already standardized", p.VideoID))
			state.Skipped++
		case req.DryRun:
			o.activity.Info(p.RecordID, fmt.Sprintf("Dry run: would rewrite description for video %s", p.VideoID))
		default:
			o.activity.Info(p.RecordID, fmt.Sprintf("Description for video %s will be rewritten", p.VideoID))
		}
	}

	pending := PendingDescriptionUpdates(state.Previews)
	if len(pending) == 0 || req.DryRun {
		return nil
	}
	submitted := newCorrelation(links.noun)
	updates := make([]archiveapi.DescriptionUpdate, 0, len(pending))
	for _, p := range pending {
		submitted.add(p.VideoID, p.RecordID)
		updates = append(updates, archiveapi.DescriptionUpdate{VideoID: p.VideoID, NewDescription: p.NewDescription})
	}
	body, err := o.api.UpdateDescriptionsStream(services.WithRequestID(ctx, o.newID()), updates)
	if err != nil {
		return o.streamOpenFailure(mode, "update descriptions", err)
	}
	return o.reconcile(ctx, state, mode, body, submitted)
}

// PreviewDescriptions regenerates every preview from the current
// descriptions. Videos missing from current are treated as empty.
func (o *Orchestrator) PreviewDescriptions(targets []DescriptionTarget, current map[string]string, storeLink string) []DescriptionPreview {
	previews := make([]DescriptionPreview, 0, len(targets))
	for _, t := range targets {
		existing := current[t.VideoID]
		proposed := o.transformer.Generate(existing, t.Performer, o.cfg.DetailsLink(t.RecordID), storeLink)
		previews = append(previews, DescriptionPreview{
			RecordID:           t.RecordID,
			VideoID:            t.VideoID,
			CurrentDescription: existing,
			NewDescription:     proposed,
			NeedsUpdate:        o.transformer.ShouldUpdate(existing, proposed),
		})
	}
	return previews
}

// performerFor prefers archive metadata, then the title, then the identifier.
func performerFor(rec archiveapi.Record, meta *archiveapi.ItemMetadata) string {
	if p := meta.Performer(); p != "" {
		return p
	}
	if p := strings.TrimSpace(rec.Band); p != "" {
		return p
	}
	title := rec.Title
	if title == "" {
		title = meta.Title.String()
	}
	if p, ok := titleparse.Performer(title); ok {
		return p
	}
	if p, ok := titleparse.PerformerFromIdentifier(rec.Identifier); ok {
		return p
	}
	return strings.TrimSpace(rec.Creator)
}
