package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/config"
)

const userAgent = "archivebatch/0.1.0"

// Event identifies a notification type.
type Event string

const (
	EventRunStarted   Event = "run_started"
	EventRunCompleted Event = "run_completed"
	EventRunHalted    Event = "run_halted"
	EventTest         Event = "test"
)

// Payload carries event fields. Keys are event specific: "mode", "count",
// "processed", "added", "skipped", "duration", "reason", "error".
type Payload map[string]any

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventRunStarted:   cfg.Notifications.RunStarted,
			EventRunCompleted: cfg.Notifications.RunCompleted,
			EventRunHalted:    cfg.Notifications.RunHalted,
			EventTest:         true,
		},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, data)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, data Payload) (payload, bool) {
	mode := stringValue(data, "mode")
	switch event {
	case EventRunStarted:
		return payload{
			title:   "archivebatch - Run Started",
			message: fmt.Sprintf("Started %s with %d records", mode, intValue(data, "count")),
			tags:    []string{"archivebatch", "run", "started"},
		}, true
	case EventRunCompleted:
		return payload{
			title: "archivebatch - Run Complete",
			message: fmt.Sprintf("%s complete: %d processed, %d added, %d skipped in %s",
				mode,
				intValue(data, "processed"),
				intValue(data, "added"),
				intValue(data, "skipped"),
				durationText(data),
			),
			tags: []string{"archivebatch", "run", "completed"},
		}, true
	case EventRunHalted:
		var builder strings.Builder
		fmt.Fprintf(&builder, "%s halted", mode)
		if reason := stringValue(data, "reason"); reason != "" {
			builder.WriteString(" (")
			builder.WriteString(reason)
			builder.WriteString(")")
		}
		fmt.Fprintf(&builder, ": %d processed, %d added, %d skipped",
			intValue(data, "processed"),
			intValue(data, "added"),
			intValue(data, "skipped"),
		)
		if errText := stringValue(data, "error"); errText != "" {
			builder.WriteString("\n")
			builder.WriteString(errText)
		}
		return payload{
			title:    "archivebatch - Run Halted",
			message:  builder.String(),
			tags:     []string{"archivebatch", "run", "halted"},
			priority: "high",
		}, true
	case EventTest:
		return payload{
			title:    "archivebatch - Test",
			message:  "Notification system test",
			tags:     []string{"archivebatch", "test"},
			priority: "low",
		}, true
	default:
		return payload{}, false
	}
}

func stringValue(data Payload, key string) string {
	switch v := data[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		if v == nil {
			return ""
		}
		return strings.TrimSpace(v.Error())
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func intValue(data Payload, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	default:
		return 0
	}
}

func durationText(data Payload) string {
	d, _ := data["duration"].(time.Duration)
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
