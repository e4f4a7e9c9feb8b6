package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"clipline/internal/adapter"
)

func newAdaptersCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adapters",
		Short: "Inspect registered adapters",
	}

	cmd.AddCommand(newAdaptersListCmd(root))

	return cmd
}

func newAdaptersListCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered adapters per role",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(root)
			if err != nil {
				return err
			}

			if root.jsonOut || !stdoutIsTTY() {
				listing := make(map[string]map[string]any, len(adapter.Roles()))
				for _, role := range adapter.Roles() {
					reg, ok := app.hub.ForRole(role)
					if !ok {
						continue
					}
					listing[role.String()] = map[string]any{
						"registered": reg.Names(),
						"active":     reg.ActiveName(),
					}
				}
				return printJSON(cmd.OutOrStdout(), listing)
			}

			rows := make([][]string, 0, len(adapter.Roles()))
			for _, role := range adapter.Roles() {
				reg, ok := app.hub.ForRole(role)
				if !ok {
					continue
				}
				active := reg.ActiveName()
				if active == "" {
					active = dimStyle.Render("-")
				}
				rows = append(rows, []string{role.String(), strings.Join(reg.Names(), ", "), active})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Role", "Registered", "Active"}, rows))
			return nil
		},
	}

	return cmd
}
