package workflow

import (
	"context"
	"fmt"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/services"
)

// runImageUpload attaches one image to every record in a single streamed
// request. Results are keyed by archive identifier.
func (o *Orchestrator) runImageUpload(ctx context.Context, state *RunState, req Request) error {
	mode := string(req.Mode)
	items := newCorrelation("image")
	identifiers := make([]string, 0, len(req.Records))
	for _, rec := range req.Records {
		items.add(rec.Identifier, rec.Identifier)
		identifiers = append(identifiers, rec.Identifier)
		state.Processed++
		if req.DryRun {
			o.activity.Info(rec.Identifier, fmt.Sprintf("Dry run: would attach %s", req.Image.Name))
		}
	}
	if len(identifiers) == 0 {
		o.activity.Info("", "No records to upload to")
		return nil
	}
	if req.DryRun {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return cancelled("", err)
	}

	body, err := o.api.BatchUploadImageStream(services.WithRequestID(ctx, o.newID()), *req.Image, identifiers)
	if err != nil {
		return halt("", fmt.Sprintf("Image upload failed: %v", err),
			services.Wrap(services.ErrUpstreamUpdate, mode, "upload image", req.Image.Name, err))
	}
	return o.reconcile(ctx, state, mode, body, items)
}
