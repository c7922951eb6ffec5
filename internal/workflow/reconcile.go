package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/logging"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/services"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/ssestream"
)

// correlation maps the IDs a stream reports back to the records that
// requested them, in submission order.
type correlation struct {
	noun    string
	records map[string]string
	order   []string
}

func newCorrelation(noun string) *correlation {
	return &correlation{noun: noun, records: make(map[string]string)}
}

func (c *correlation) add(correlationID, recordID string) {
	if _, ok := c.records[correlationID]; ok {
		return
	}
	c.records[correlationID] = recordID
	c.order = append(c.order, correlationID)
}

// reconcile consumes a result stream and maps every event onto the record
// that asked for it. Per-item failures are logged and do not halt; a quota
// failure stops the stream and halts the run.
func (o *Orchestrator) reconcile(ctx context.Context, state *RunState, mode string, body io.ReadCloser, c *correlation) error {
	logger := logging.WithContext(ctx, o.logger)
	seen := make(map[string]bool, len(c.order))
	var stop error

	stats, err := ssestream.Consume(ctx, body, func(evt ssestream.Event) error {
		switch evt.Kind() {
		case ssestream.KindResult:
			id := evt.CorrelationID()
			recordID, ok := c.records[id]
			if !ok {
				logger.Debug("stream result for unknown item", logging.String(logging.FieldCorrelationID, id))
				return nil
			}
			if seen[id] {
				return nil
			}
			seen[id] = true
			if evt.Failed() {
				reason := failureText(evt)
				if o.guard.InspectText(reason).Exhausted() {
					stop = halt(recordID,
						fmt.Sprintf("Video host quota exhausted updating %s for %s; halting run", c.noun, id),
						services.Wrap(services.ErrQuotaExhausted, mode, "stream", id+": "+reason, nil))
					return ssestream.ErrStop
				}
				o.activity.Error(recordID, fmt.Sprintf("Updating %s for %s failed: %s", c.noun, id, reason))
				return nil
			}
			if evt.Succeeded() {
				state.Added++
				o.activity.Success(recordID, fmt.Sprintf("Updated %s for %s", c.noun, id))
				return nil
			}
			o.activity.Info(recordID, fmt.Sprintf("Result for %s: %s", id, strings.TrimSpace(evt.Message)))
		case ssestream.KindError:
			reason := failureText(evt)
			if o.guard.InspectText(reason).Exhausted() {
				stop = halt("",
					fmt.Sprintf("Video host quota exhausted updating %s; halting run", c.noun),
					services.Wrap(services.ErrQuotaExhausted, mode, "stream", reason, nil))
				return ssestream.ErrStop
			}
			logging.WarnWithContext(logger, "stream reported an error", "stream_error",
				logging.String("reason", reason),
				logging.String(logging.FieldErrorHint, "check the archive API log for the failed batch"),
			)
			o.activity.Error("", fmt.Sprintf("Stream reported an error while updating %s: %s", c.noun, reason))
		case ssestream.KindProgress:
			msg := strings.TrimSpace(evt.Message)
			if msg == "" {
				msg = fmt.Sprintf("Progress %d/%d", evt.Progress, evt.Total)
			}
			o.activity.Info("", msg)
		case ssestream.KindComplete:
			msg := strings.TrimSpace(evt.Message)
			if msg == "" {
				msg = "Stream complete"
			}
			o.activity.Info("", msg)
		default:
			logger.Debug("ignoring stream event", logging.String("type", evt.Type))
		}
		return nil
	})
	if stats.Malformed > 0 {
		logger.Debug("stream contained malformed frames", logging.Int("malformed", stats.Malformed))
	}
	if stop != nil {
		return stop
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return cancelled("", err)
		}
		return halt("", fmt.Sprintf("Result stream interrupted: %v", err),
			services.Wrap(services.ErrNetwork, mode, "stream", "", err))
	}

	for _, id := range c.order {
		if !seen[id] {
			o.activity.Info(c.records[id], fmt.Sprintf("No result reported for %s", id))
		}
	}
	return nil
}

func failureText(evt ssestream.Event) string {
	if msg := strings.TrimSpace(evt.Error); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(evt.Message); msg != "" {
		return msg
	}
	return "failed"
}
