package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipline/internal/adapter"
)

func newCaptionCmd(root *rootFlags) *cobra.Command {
	var overrides []string
	req := adapter.CaptionRequest{}

	cmd := &cobra.Command{
		Use:   "caption",
		Short: "Generate caption options for a clip",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(root)
			if err != nil {
				return err
			}
			settings, err := parseOverrides(overrides)
			if err != nil {
				return err
			}
			req.SessionID = resolveSessionID(app, req.SessionID)

			options, err := app.ai.SuggestCaptions(cmd.Context(), root.profileKey, settings, req)
			if err != nil {
				return err
			}

			if root.jsonOut || !stdoutIsTTY() {
				return printJSON(cmd.OutOrStdout(), options)
			}
			for i, option := range options {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", dimStyle.Render(fmt.Sprintf("%d.", i+1)), option)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.ClipPath, "clip", "", "Clip file the captions describe")
	cmd.Flags().StringVar(&req.Tone, "tone", "", "Caption tone (hype, casual, dry)")
	cmd.Flags().IntVar(&req.Count, "count", 0, "Number of options to generate")
	cmd.Flags().StringVar(&req.SessionID, "session", "", "Session id to record against")
	addOverrideFlag(cmd, &overrides)

	return cmd
}
