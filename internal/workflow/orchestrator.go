package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/activitylog"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/archiveapi"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/config"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/dateinfer"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/description"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/logging"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/notifications"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/quota"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/recordset"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/services"
)

// ArchiveAPI is the remote surface a run drives. *archiveapi.Client
// satisfies it.
type ArchiveAPI interface {
	Suggest(ctx context.Context, items []archiveapi.SuggestItem, refresh bool) (*archiveapi.SuggestResponse, error)
	UpdateMetadata(ctx context.Context, identifiers []string, updates []archiveapi.MetadataUpdate) (*archiveapi.UpdateMetadataResponse, error)
	Metadata(ctx context.Context, identifier string) (*archiveapi.ItemMetadata, error)
	Descriptions(ctx context.Context, videoIDs []string) (map[string]string, error)
	UpdateRecordingDatesStream(ctx context.Context, updates []archiveapi.DateUpdate) (io.ReadCloser, error)
	UpdateDescriptionsStream(ctx context.Context, updates []archiveapi.DescriptionUpdate) (io.ReadCloser, error)
	BatchUploadImageStream(ctx context.Context, image archiveapi.Image, identifiers []string) (io.ReadCloser, error)
}

// QuotaGuard decides whether a response means the video host quota is spent.
type QuotaGuard interface {
	Inspect(signals quota.Signals) quota.Decision
	InspectText(text string) quota.Decision
}

// Orchestrator runs batch workflows one at a time.
type Orchestrator struct {
	cfg      *config.Config
	api      ArchiveAPI
	activity *activitylog.Log
	logger   *slog.Logger
	notifier notifications.Service

	guard       QuotaGuard
	dates       *dateinfer.Engine
	transformer *description.Transformer
	pacing      time.Duration
	sleep       func(context.Context, time.Duration) error
	now         func() time.Time
	newID       func() string
}

// Option configures optional Orchestrator behavior.
type Option func(*Orchestrator)

// WithQuotaGuard replaces the quota heuristic.
func WithQuotaGuard(guard QuotaGuard) Option {
	return func(o *Orchestrator) {
		if guard != nil {
			o.guard = guard
		}
	}
}

// WithDateEngine replaces the date inference engine.
func WithDateEngine(engine *dateinfer.Engine) Option {
	return func(o *Orchestrator) {
		if engine != nil {
			o.dates = engine
		}
	}
}

// WithTransformer replaces the description transformer.
func WithTransformer(t *description.Transformer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.transformer = t
		}
	}
}

// WithNotifier overrides the notification service (used in tests).
func WithNotifier(notifier notifications.Service) Option {
	return func(o *Orchestrator) {
		o.notifier = notifier
	}
}

// WithPacing overrides the configured delay between records.
func WithPacing(delay time.Duration) Option {
	return func(o *Orchestrator) {
		o.pacing = delay
	}
}

// WithSleep overrides how the pacing delay is waited out.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(o *Orchestrator) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// WithClock overrides the clock used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator overrides run and request ID generation.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// New constructs an orchestrator. A nil activity log gets a fresh one.
func New(cfg *config.Config, api ArchiveAPI, activity *activitylog.Log, logger *slog.Logger, opts ...Option) *Orchestrator {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	if activity == nil {
		activity = activitylog.New()
	}
	o := &Orchestrator{
		cfg:         cfg,
		api:         api,
		activity:    activity,
		logger:      logging.NewComponentLogger(logger, "workflow"),
		notifier:    notifications.NewService(cfg),
		guard:       quota.NewGuard(),
		dates:       dateinfer.New(),
		transformer: description.New(cfg.Workflow.StoreDomain),
		pacing:      cfg.PacingDelay(),
		sleep:       sleepContext,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Activity returns the log runs append to.
func (o *Orchestrator) Activity() *activitylog.Log {
	return o.activity
}

// Run executes one request. The returned state is always populated; the
// error is the halt cause, or nil when every record was handled.
func (o *Orchestrator) Run(ctx context.Context, req Request) (RunState, error) {
	if mode, ok := ParseMode(string(req.Mode)); ok {
		req.Mode = mode
	}
	state := RunState{
		RunID:     o.newID(),
		Mode:      req.Mode,
		DryRun:    req.DryRun,
		StartedAt: o.now(),
	}
	// Sequences are contiguous from 1, so the current length marks where
	// this run's entries begin on a shared log.
	mark := uint64(o.activity.Len())
	ctx = services.WithRunID(ctx, state.RunID)
	ctx = services.WithMode(ctx, string(req.Mode))
	logger := logging.WithContext(ctx, o.logger)

	if err := o.validate(req); err != nil {
		o.recordHalt(ctx, &state, err)
		o.finish(ctx, &state, mark)
		return state, state.Err
	}

	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("records", len(req.Records)),
		logging.Bool("dry_run", req.DryRun),
	)
	o.activity.Info("", fmt.Sprintf("Starting %s for %d records", req.Mode, len(req.Records)))
	o.notify(ctx, notifications.EventRunStarted, notifications.Payload{
		"mode":  string(req.Mode),
		"count": len(req.Records),
	})

	var err error
	switch req.Mode {
	case ModeDiscover:
		err = o.runDiscover(ctx, &state, req)
	case ModeDatesBulk, ModeDatesIndividual:
		err = o.runDates(ctx, &state, req)
	case ModeDescriptions:
		err = o.runDescriptions(ctx, &state, req)
	case ModeImageUpload:
		err = o.runImageUpload(ctx, &state, req)
	}
	if err != nil {
		o.recordHalt(ctx, &state, err)
	}
	o.finish(ctx, &state, mark)

	if state.Halted() {
		o.notify(ctx, notifications.EventRunHalted, o.payload(state))
	} else {
		o.notify(ctx, notifications.EventRunCompleted, o.payload(state))
	}
	return state, state.Err
}

func (o *Orchestrator) validate(req Request) error {
	if _, ok := ParseMode(string(req.Mode)); !ok {
		return services.Wrap(services.ErrValidation, string(req.Mode), "validate", fmt.Sprintf("unknown mode %q", req.Mode), nil)
	}
	if o.api == nil {
		return services.Wrap(services.ErrConfiguration, string(req.Mode), "validate", "archive api not configured", nil)
	}
	if err := recordset.Validate(req.Records); err != nil {
		return err
	}
	switch req.Mode {
	case ModeDatesBulk:
		if _, ok := dateinfer.Normalize(req.BulkDate); !ok {
			return services.Wrap(services.ErrValidation, string(req.Mode), "validate", fmt.Sprintf("invalid bulk date %q", req.BulkDate), nil)
		}
	case ModeImageUpload:
		if req.Image == nil || req.Image.Reader == nil {
			return services.Wrap(services.ErrValidation, string(req.Mode), "validate", "image is required", nil)
		}
	}
	return nil
}

// haltError carries the activity entry written when a run stops.
type haltError struct {
	recordID string
	message  string
	err      error
}

func (h *haltError) Error() string { return h.err.Error() }

func (h *haltError) Unwrap() error { return h.err }

func halt(recordID, message string, err error) error {
	return &haltError{recordID: recordID, message: message, err: err}
}

// recordHalt stamps the halt cause on state and writes the single error entry.
func (o *Orchestrator) recordHalt(ctx context.Context, state *RunState, err error) {
	recordID, message := "", err.Error()
	var h *haltError
	if errors.As(err, &h) {
		recordID, message = h.recordID, h.message
	}
	state.HaltKind, state.HaltedReason = classifyHalt(err)
	state.Err = err
	o.activity.Error(recordID, message)

	logger := logging.WithContext(ctx, o.logger)
	if state.HaltKind == "cancelled" {
		logger.Info("run cancelled", logging.String(logging.FieldEventType, "run_cancelled"))
		return
	}
	logging.ErrorWithContext(logger, "run halted", "run_halted",
		logging.String("halt_kind", state.HaltKind),
		logging.String(logging.FieldRecordID, recordID),
		logging.String(logging.FieldErrorHint, haltHint(state.HaltKind)),
		logging.Error(err),
	)
}

func (o *Orchestrator) finish(ctx context.Context, state *RunState, mark uint64) {
	state.FinishedAt = o.now()
	state.Errors = activitylog.Count(o.activity.Since(mark), activitylog.KindError)
	o.activity.Info("", state.Summary())
	logging.WithContext(ctx, o.logger).Info("run finished",
		logging.String(logging.FieldEventType, "run_finish"),
		logging.Int("processed", state.Processed),
		logging.Int("added", state.Added),
		logging.Int("skipped", state.Skipped),
		logging.Int("errors", state.Errors),
		logging.String("halted_reason", state.HaltedReason),
		logging.Duration("duration", state.Duration()),
	)
}

func classifyHalt(err error) (kind, reason string) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled", "cancelled"
	}
	kind = services.HaltKind(err)
	switch kind {
	case "quota":
		return kind, "quota exhausted"
	case "upstream_update":
		return kind, "update failed"
	case "validation":
		return kind, "invalid request"
	case "configuration":
		return kind, "configuration error"
	default:
		return kind, "network error"
	}
}

func haltHint(kind string) string {
	switch kind {
	case "quota":
		return "wait for the video host quota to reset, then rerun the remaining records"
	case "upstream_update":
		return "check the archive item permissions and rerun from the failing record"
	case "validation":
		return "fix the request input and rerun"
	case "configuration":
		return "run archivebatch doctor"
	default:
		return "check connectivity to the archive API"
	}
}

func (o *Orchestrator) payload(state RunState) notifications.Payload {
	p := notifications.Payload{
		"mode":      string(state.Mode),
		"processed": state.Processed,
		"added":     state.Added,
		"skipped":   state.Skipped,
		"errors":    state.Errors,
		"duration":  state.Duration(),
	}
	if state.Halted() {
		p["reason"] = state.HaltedReason
		p["error"] = state.Err
	}
	return p
}

func (o *Orchestrator) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if o.notifier == nil {
		return
	}
	logger := logging.WithContext(ctx, o.logger)
	// Completion must still be reported after an interrupt.
	if err := o.notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logger.Debug("run notification failed",
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}

// requestContext tags ctx with the record and a fresh request ID.
func (o *Orchestrator) requestContext(ctx context.Context, recordID string) context.Context {
	ctx = services.WithRecordID(ctx, recordID)
	return services.WithRequestID(ctx, o.newID())
}

// pacer enforces the fixed delay between records that call out.
type pacer struct {
	delay time.Duration
	sleep func(context.Context, time.Duration) error
	armed bool
}

func (o *Orchestrator) newPacer() *pacer {
	return &pacer{delay: o.pacing, sleep: o.sleep}
}

func (p *pacer) wait(ctx context.Context) error {
	if !p.armed {
		p.armed = true
		return ctx.Err()
	}
	if p.delay <= 0 {
		return ctx.Err()
	}
	return p.sleep(ctx, p.delay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func cancelled(recordID string, err error) error {
	return halt(recordID, "Run cancelled", err)
}

// quotaSignals collects the quota hints exposed by a failed or successful call.
func quotaSignals(err error, resp *archiveapi.SuggestResponse) quota.Signals {
	signals := quota.Signals{StatusCode: archiveapi.StatusCode(err)}
	if resp == nil {
		return signals
	}
	signals.QuotaExhausted = resp.QuotaExhausted
	for _, r := range resp.Results {
		signals.Results = append(signals.Results, quota.Result{
			QuotaExhausted: r.QuotaExhausted,
			Error:          r.Error,
		})
	}
	if resp.Error != "" && len(resp.Results) == 0 {
		signals.Results = append(signals.Results, quota.Result{Error: resp.Error})
	}
	return signals
}
