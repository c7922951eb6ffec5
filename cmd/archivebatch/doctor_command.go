package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/notifications"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/preflight"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderCheck(r preflight.Result, colorize bool) string {
	label, color := "OK", ansiGreen
	if !r.Passed {
		label, color = "FAIL", ansiRed
		if r.Optional {
			label, color = "WARN", ansiYellow
		}
	}
	line := fmt.Sprintf("%s%-*s [%s] %s", statusIndent, statusLabelWidth, r.Name+":", label, r.Detail)
	if colorize {
		return color + line + ansiReset
	}
	return line
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, archive API reachability, and video host auth",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			header := "== archivebatch doctor =="
			fmt.Fprintln(out, header)
			fmt.Fprintln(out, strings.Repeat("-", len(header)))
			fmt.Fprintf(out, "%s%-*s %s\n", statusIndent, statusLabelWidth, "Config:", ctx.configPath)
			fmt.Fprintf(out, "%s%-*s %s\n", statusIndent, statusLabelWidth, "Archive API:", client.BaseURL())
			fmt.Fprintf(out, "%s%-*s %s\n", statusIndent, statusLabelWidth, "Notifications:", yesNo(cfg.Notifications.NtfyTopic != ""))

			results := preflight.RunAll(cmd.Context(), cfg, client, true)
			for _, r := range results {
				fmt.Fprintln(out, renderCheck(r, colorize))
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
				return errors.New("notifications.ntfy_topic is not set")
			}
			if err := notifications.NewService(cfg).Publish(cmd.Context(), notifications.EventTest, nil); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
