package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCaptureCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Control gameplay capture",
	}

	cmd.AddCommand(newCaptureStartCmd(root))
	cmd.AddCommand(newCaptureStopCmd(root))
	cmd.AddCommand(newCaptureStatusCmd(root))
	cmd.AddCommand(newCaptureScenesCmd(root))

	return cmd
}

func newCaptureStartCmd(root *rootFlags) *cobra.Command {
	var overrides []string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start recording with the active capture adapter",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(root)
			if err != nil {
				return err
			}
			settings, err := parseOverrides(overrides)
			if err != nil {
				return err
			}

			sessionID, err := app.capture.Start(cmd.Context(), root.profileKey, settings)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s recording (session %s)\n",
				successStyle.Render("started"), sessionID)
			return nil
		},
	}

	addOverrideFlag(cmd, &overrides)
	return cmd
}

func newCaptureStopCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running recording",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(root)
			if err != nil {
				return err
			}

			sessionID, err := app.capture.Stop(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s recording (session %s)\n",
				successStyle.Render("stopped"), sessionID)
			return nil
		},
	}

	return cmd
}

func newCaptureStatusCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recording status",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(root)
			if err != nil {
				return err
			}

			status, err := app.capture.Status(cmd.Context())
			if err != nil {
				return err
			}

			if root.jsonOut || !stdoutIsTTY() {
				return printJSON(cmd.OutOrStdout(), status)
			}

			out := cmd.OutOrStdout()
			if !status.State.Recording {
				fmt.Fprintln(out, dimStyle.Render("not recording"))
				return nil
			}

			elapsed := time.Since(time.Unix(status.State.StartedAt, 0)).Truncate(time.Second)
			fmt.Fprintf(out, "%s for %s\n", successStyle.Render("recording"), elapsed)
			fmt.Fprintf(out, "  session: %s\n", status.State.SessionID)
			fmt.Fprintf(out, "  profile: %s\n", status.State.ProfileKey)
			fmt.Fprintf(out, "  adapter: %s\n", status.State.Adapter)
			if !status.Live {
				fmt.Fprintln(out, warnStyle.Render("  capture backend reports no live recording"))
			}
			return nil
		},
	}

	return cmd
}

func newCaptureScenesCmd(root *rootFlags) *cobra.Command {
	var overrides []string
	var selectScene string

	cmd := &cobra.Command{
		Use:   "scenes",
		Short: "List capture backend scenes, or switch with --select",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(root)
			if err != nil {
				return err
			}
			settings, err := parseOverrides(overrides)
			if err != nil {
				return err
			}

			if selectScene != "" {
				if err := app.capture.SelectScene(cmd.Context(), root.profileKey, settings, selectScene); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "scene set to %s\n", titleStyle.Render(selectScene))
				return nil
			}

			scenes, err := app.capture.ListScenes(cmd.Context(), root.profileKey, settings)
			if err != nil {
				return err
			}
			if root.jsonOut || !stdoutIsTTY() {
				return printJSON(cmd.OutOrStdout(), scenes)
			}
			for _, scene := range scenes {
				fmt.Fprintln(cmd.OutOrStdout(), scene)
			}
			return nil
		},
	}

	addOverrideFlag(cmd, &overrides)
	cmd.Flags().StringVar(&selectScene, "select", "", "Switch to this scene instead of listing")
	return cmd
}
