package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipline/internal/adapter"
)

func newNotifyCmd(root *rootFlags) *cobra.Command {
	var overrides []string
	var fields []string
	note := adapter.Notification{}

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send a notification through the active notifier",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(root)
			if err != nil {
				return err
			}
			settings, err := parseOverrides(overrides)
			if err != nil {
				return err
			}
			parsed, err := parseOverrides(fields)
			if err != nil {
				return err
			}
			if len(parsed) > 0 {
				note.Fields = make(map[string]string, len(parsed))
				for k, v := range parsed {
					note.Fields[k] = fmt.Sprint(v)
				}
			}

			if err := app.notify.Send(cmd.Context(), root.profileKey, settings, note); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("sent"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&note.Title, "title", "t", "", "Notification title")
	cmd.Flags().StringVarP(&note.Message, "message", "m", "", "Notification body")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Extra field (key=value, repeatable)")
	cmd.MarkFlagRequired("message") //nolint:errcheck
	addOverrideFlag(cmd, &overrides)

	return cmd
}
