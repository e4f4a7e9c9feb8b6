package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipline/internal/adapter"
)

func newColorCmd(root *rootFlags) *cobra.Command {
	var overrides []string
	params := adapter.GradeParams{}

	cmd := &cobra.Command{
		Use:   "color",
		Short: "Apply a LUT color grade to a clip",
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

			job, err := app.jobs.Enqueue(cmd.Context(), jobKindColor, map[string]any{
				"profile_key": root.profileKey,
				"overrides":   settings,
				"params":      params,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (job %s)\n", successStyle.Render("graded"), params.Output, job.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&params.Input, "input", "i", "", "Source clip file")
	cmd.Flags().StringVarP(&params.Output, "output", "o", "", "Destination graded file")
	cmd.Flags().StringVar(&params.LUT, "lut", "", "LUT file (falls back to the profile's configured LUT)")
	cmd.Flags().StringVar(&params.SessionID, "session", "", "Session id to record against")
	cmd.MarkFlagRequired("input")  //nolint:errcheck
	cmd.MarkFlagRequired("output") //nolint:errcheck
	addOverrideFlag(cmd, &overrides)

	return cmd
}
