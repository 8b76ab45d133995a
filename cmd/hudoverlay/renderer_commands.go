package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hudoverlay/internal/ipc"
)

func newRendererCommand(ctx *commandContext) *cobra.Command {
	rendererCmd := &cobra.Command{
		Use:   "renderer",
		Short: "Control the supervised renderer process",
	}

	actions := []struct {
		use   string
		short string
		verb  string
		call  func(*ipc.Client) (*ipc.RendererResponse, error)
	}{
		{"start", "Launch the renderer if it is not running", "started", (*ipc.Client).StartRenderer},
		{"stop", "Ask the renderer to exit and stop it", "stopped", (*ipc.Client).StopRenderer},
		{"restart", "Stop and relaunch the renderer", "restarted", (*ipc.Client).RestartRenderer},
	}
	for _, action := range actions {
		rendererCmd.AddCommand(&cobra.Command{
			Use:   action.use,
			Short: action.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.withClient(func(client *ipc.Client) error {
					resp, err := action.call(client)
					if err != nil {
						return fmt.Errorf("renderer %s: %w", action.use, err)
					}
					fmt.Fprintln(cmd.OutOrStdout(), describeRenderer(action.verb, resp))
					return nil
				})
			},
		})
	}
	return rendererCmd
}

func describeRenderer(verb string, resp *ipc.RendererResponse) string {
	if resp == nil {
		return "Renderer " + verb
	}
	if resp.PID > 0 {
		return fmt.Sprintf("Renderer %s (state %s, pid %d, launches %d)", verb, resp.State, resp.PID, resp.Launches)
	}
	return fmt.Sprintf("Renderer %s (state %s, launches %d)", verb, resp.State, resp.Launches)
}
