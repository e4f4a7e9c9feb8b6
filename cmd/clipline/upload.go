package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipline/internal/adapter"
)

func newUploadCmd(root *rootFlags) *cobra.Command {
	var overrides []string
	params := adapter.UploadParams{}

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a finished clip to the configured remote",
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

			job, err := app.jobs.Enqueue(cmd.Context(), jobKindUpload, map[string]any{
				"profile_key": root.profileKey,
				"overrides":   settings,
				"params":      params,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (job %s)\n", successStyle.Render("uploaded"), params.Source, job.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&params.Source, "source", "s", "", "Clip file to upload")
	cmd.Flags().StringVar(&params.Remote, "remote", "", "Remote destination (falls back to the profile's remote)")
	cmd.Flags().StringVar(&params.SessionID, "session", "", "Session id to record against")
	cmd.MarkFlagRequired("source") //nolint:errcheck
	addOverrideFlag(cmd, &overrides)

	return cmd
}
