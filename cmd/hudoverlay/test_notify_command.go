package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hudoverlay/internal/ipc"
)

// rendererAlerts lists the events the daemon posts to ntfy without being
// asked.
var rendererAlerts = []string{
	"the renderer fails to start with the daemon",
	"the renderer fails to restart after a configuration reload",
	"a draw relaunches a renderer that exited unexpectedly",
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Post a test alert to the configured ntfy topic",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp *ipc.TestNotificationResponse
			err := ctx.withClient(func(client *ipc.Client) error {
				var callErr error
				resp, callErr = client.TestNotification()
				return callErr
			})
			if err != nil {
				return fmt.Errorf("test alert: %w", err)
			}

			out := cmd.OutOrStdout()
			if resp == nil || !resp.Sent {
				message := "Notifications are disabled"
				if resp != nil && resp.Message != "" {
					message = resp.Message
				}
				fmt.Fprintln(out, message)
				return nil
			}
			topic := "the configured topic"
			if cfg := ctx.configValue(); cfg != nil && cfg.Notifications.NtfyTopic != "" {
				topic = cfg.Notifications.NtfyTopic
			}
			fmt.Fprintf(out, "Test alert posted to %s\n", topic)
			fmt.Fprintln(out, "The daemon also alerts when:")
			for _, alert := range rendererAlerts {
				fmt.Fprintf(out, "  - %s\n", alert)
			}
			return nil
		},
	}
}
