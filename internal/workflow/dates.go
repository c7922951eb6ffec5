package workflow

import (
	"context"
	"fmt"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/archiveapi"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/dateinfer"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/services"
)

// sourceBulk marks mappings that carry the caller's fixed date.
const sourceBulk = "bulk"

func (o *Orchestrator) runDates(ctx context.Context, state *RunState, req Request) error {
	mode := string(req.Mode)
	bulkDate, _ := dateinfer.Normalize(req.BulkDate)
	links := newCorrelation("recording date")
	pace := o.newPacer()

	for _, rec := range req.Records {
		if err := ctx.Err(); err != nil {
			return cancelled(rec.Identifier, err)
		}
		id := rec.Identifier
		title, link := rec.Title, rec.VideoLink()

		var mapping VideoDateMapping
		if req.Mode == ModeDatesBulk {
			mapping = VideoDateMapping{DetectedDate: bulkDate, FinalDate: bulkDate, Source: sourceBulk}
		} else {
			if err := pace.wait(ctx); err != nil {
				return cancelled(id, err)
			}
			meta, err := o.fetchMetadata(ctx, mode, id)
			if err != nil {
				return err
			}
			if title == "" {
				title = meta.Title.String()
			}
			if link == "" {
				link = meta.YouTube.String()
			}
			desc := meta.Description.String()
			if desc == "" {
				desc = rec.Description
			}
			archiveDate := meta.Date.String()
			if archiveDate == "" {
				archiveDate = rec.Date
			}
			result := o.dates.Infer(dateinfer.Sources(title, desc, id, archiveDate)...)
			mapping = VideoDateMapping{FinalDate: result.Date, Source: string(result.Source)}
			if result.Detected {
				mapping.DetectedDate = result.Date
			}
		}

		videoID, ok := o.videoFor(state, links, id, link)
		if !ok {
			continue
		}
		mapping.RecordID = id
		mapping.VideoID = videoID
		mapping.Title = title
		links.add(videoID, id)
		state.Mappings = append(state.Mappings, mapping)
		state.Processed++

		if mapping.DetectedDate == "" {
			o.activity.Info(id, fmt.Sprintf("No date found for video %s; using today (%s)", videoID, mapping.FinalDate))
		} else {
			o.activity.Info(id, fmt.Sprintf("Video %s recording date %s (from %s)", videoID, mapping.FinalDate, mapping.Source))
		}
	}

	if len(state.Mappings) == 0 {
		o.activity.Info("", "No recording dates to submit")
		return nil
	}
	if req.DryRun {
		return nil
	}

	updates := make([]archiveapi.DateUpdate, 0, len(state.Mappings))
	for _, m := range state.Mappings {
		stamp, err := dateinfer.MidnightUTC(m.FinalDate)
		if err != nil {
			return halt(m.RecordID,
				fmt.Sprintf("Invalid recording date %q for %s", m.FinalDate, m.RecordID),
				services.Wrap(services.ErrValidation, mode, "format date", m.RecordID, err))
		}
		updates = append(updates, archiveapi.DateUpdate{
			ArchiveID:     m.RecordID,
			VideoID:       m.VideoID,
			RecordingDate: stamp,
		})
	}

	body, err := o.api.UpdateRecordingDatesStream(services.WithRequestID(ctx, o.newID()), updates)
	if err != nil {
		return o.streamOpenFailure(mode, "update recording dates", err)
	}
	return o.reconcile(ctx, state, mode, body, links)
}

// fetchMetadata loads one record's metadata; any failure halts the run.
func (o *Orchestrator) fetchMetadata(ctx context.Context, mode, id string) (*archiveapi.ItemMetadata, error) {
	meta, err := o.api.Metadata(o.requestContext(ctx, id), id)
	if err != nil {
		if o.guard.Inspect(quotaSignals(err, nil)).Exhausted() {
			return nil, halt(id,
				fmt.Sprintf("Quota exhausted while loading metadata for %s; halting run", id),
				services.Wrap(services.ErrQuotaExhausted, mode, "metadata", id, err))
		}
		return nil, halt(id,
			fmt.Sprintf("Metadata request failed for %s: %v", id, err),
			services.Wrap(services.ErrNetwork, mode, "metadata", id, err))
	}
	if meta == nil {
		meta = &archiveapi.ItemMetadata{}
	}
	return meta, nil
}

// videoFor resolves a record's video ID, logging a skip when the record has
// no usable link or its video is already claimed by an earlier record.
func (o *Orchestrator) videoFor(state *RunState, links *correlation, id, link string) (string, bool) {
	if link == "" {
		o.activity.Skipped(id, "No video link; skipped")
		state.Skipped++
		return "", false
	}
	videoID, ok := archiveapi.ExtractVideoID(link)
	if !ok {
		o.activity.Skipped(id, fmt.Sprintf("Unrecognized video link %q; skipped", link))
		state.Skipped++
		return "", false
	}
	if owner, dup := links.records[videoID]; dup {
		o.activity.Skipped(id, fmt.Sprintf("Video %s already mapped to %s; skipped", videoID, owner))
		state.Skipped++
		return "", false
	}
	return videoID, true
}

// streamOpenFailure classifies a failed stream request.
func (o *Orchestrator) streamOpenFailure(mode, operation string, err error) error {
	if o.guard.Inspect(quotaSignals(err, nil)).Exhausted() {
		return halt("",
			fmt.Sprintf("Video host quota exhausted during %s; halting run", operation),
			services.Wrap(services.ErrQuotaExhausted, mode, operation, "", err))
	}
	return halt("",
		fmt.Sprintf("Request to %s failed: %v", operation, err),
		services.Wrap(services.ErrUpstreamUpdate, mode, operation, "", err))
}
