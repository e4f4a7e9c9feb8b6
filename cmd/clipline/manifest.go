package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newManifestCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect session manifests",
	}

	cmd.AddCommand(newManifestShowCmd(root))

	return cmd
}

func newManifestShowCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [session-id]",
		Short: "Show a session manifest, or list sessions when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(root)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				sessions, err := app.manifests.Sessions()
				if err != nil {
					return err
				}
				if root.jsonOut || !stdoutIsTTY() {
					return printJSON(cmd.OutOrStdout(), sessions)
				}
				if len(sessions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("no sessions recorded"))
					return nil
				}
				for _, id := range sessions {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			}

			m, err := app.manifests.Load(args[0])
			if err != nil {
				return err
			}

			if root.jsonOut || !stdoutIsTTY() {
				return printJSON(cmd.OutOrStdout(), m)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (profile %s, created %s)\n",
				titleStyle.Render(m.SessionID), m.ProfileKey,
				time.Unix(m.CreatedAt, 0).Format(time.RFC3339))

			rows := make([][]string, 0, len(m.Events))
			for _, ev := range m.Events {
				rows = append(rows, []string{
					time.Unix(ev.Timestamp, 0).Format("15:04:05"),
					ev.Kind,
					summarizePayload(ev.Payload),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Time", "Event", "Details"}, rows))
			return nil
		},
	}

	return cmd
}

func summarizePayload(payload map[string]any) string {
	if len(payload) == 0 {
		return ""
	}
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, payload[key]))
	}
	summary := strings.Join(parts, " ")
	if len(summary) > 80 {
		summary = summary[:77] + "..."
	}
	return summary
}
