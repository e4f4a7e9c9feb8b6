package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipline/internal/adapter"
)

func newMuxCmd(root *rootFlags) *cobra.Command {
	var overrides []string
	params := adapter.MuxParams{}

	cmd := &cobra.Command{
		Use:   "mux",
		Short: "Remux a render into the final clip container",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(root)
			if err != nil {
				return err
			}
			settings, err := parseOverrides(overrides)
			if err != nil {
				return err
			}
			params.SessionID = resolveSessionID(app, params.SessionID)

			job, err := app.jobs.Enqueue(cmd.Context(), jobKindMux, map[string]any{
				"profile_key": root.profileKey,
				"overrides":   settings,
				"params":      params,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (job %s)\n", successStyle.Render("muxed"), params.Output, job.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&params.Input, "input", "i", "", "Source render file")
	cmd.Flags().StringVarP(&params.Output, "output", "o", "", "Destination clip file")
	cmd.Flags().Int64Var(&params.OffsetMS, "offset-ms", 0, "Skip this many milliseconds from the start")
	cmd.Flags().Int64Var(&params.DurationMS, "duration-ms", 0, "Keep only this many milliseconds")
	cmd.Flags().StringArrayVar(&params.AudioTracks, "audio-track", nil, "Audio track index to keep (repeatable)")
	cmd.Flags().StringVar(&params.SessionID, "session", "", "Session id to record against")
	cmd.MarkFlagRequired("input")  //nolint:errcheck
	cmd.MarkFlagRequired("output") //nolint:errcheck
	addOverrideFlag(cmd, &overrides)

	return cmd
}

// resolveSessionID falls back to the persisted recording session so clips
// cut right after a capture land in the same manifest.
func resolveSessionID(app *appContext, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if st, err := app.state.Load(); err == nil && st.SessionID != "" {
		return st.SessionID
	}
	return app.sessions.Ensure()
}
