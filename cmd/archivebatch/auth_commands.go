package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/archiveapi"
)

func newAuthCommand(ctx *commandContext) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Video host authorization",
	}

	authCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether the backend holds a video host token",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			authenticated, err := client.AuthStatus(cmd.Context())
			if err != nil {
				return fmt.Errorf("auth status: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Authenticated: %s\n", yesNo(authenticated))
			if !authenticated {
				fmt.Fprintf(out, "Authorize in a browser: %s\n", client.AuthURL())
			}
			return nil
		},
	})

	authCmd.AddCommand(&cobra.Command{
		Use:   "url",
		Short: "Print the authorization URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), client.AuthURL())
			return nil
		},
	})

	authCmd.AddCommand(&cobra.Command{
		Use:         "callback <url>",
		Short:       "Interpret the page address the authorization flow redirected to",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cb, err := archiveapi.ParseAuthCallback(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case !cb.Present():
				fmt.Fprintln(out, "No authorization result in URL")
			case cb.Error != "":
				fmt.Fprintf(out, "Authorization failed: %s\n", cb.Error)
			default:
				fmt.Fprintln(out, "Authorization succeeded")
			}
			fmt.Fprintf(out, "Clean URL: %s\n", cb.CleanURL)
			if cb.Error != "" {
				return errors.New("authorization failed")
			}
			return nil
		},
	})

	return authCmd
}
